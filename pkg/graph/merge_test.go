package graph

import (
	"reflect"
	"testing"

	"github.com/vantagecomms/vantage/backend/pkg/common"
)

func mergeFixture() []common.Node {
	return []common.Node{
		{
			ID: "n1", OrgID: "org_1", Type: common.NodeTypeJournalist,
			Label: "J. Smith", IsActive: true,
			Properties: map[string]any{"beat": "tech", "outlet": "Wire"},
			Tags:       []string{"tier1", "tech"},
			Categories: []string{"press"},
		},
		{
			ID: "n2", OrgID: "org_1", Type: common.NodeTypeJournalist,
			Label: "Jane Smith", IsActive: true,
			Properties: map[string]any{"beat": "ai", "twitter": "@jsmith"},
			Tags:       []string{"tech", "verified"},
			Categories: []string{"press", "analyst"},
		},
		{
			ID: "n3", OrgID: "org_1", Type: common.NodeTypeJournalist,
			Label: "Jane S.", IsActive: true,
			Properties: map[string]any{"twitter": "@other", "email": "j@wire.example"},
		},
	}
}

func TestPlanMergeAbsorb(t *testing.T) {
	nodes := mergeFixture()
	plan, err := PlanMerge(nodes, MergeInput{
		SourceIDs: []string{"n1", "n2", "n3"},
		Strategy:  common.MergeStrategyAbsorb,
		TargetID:  "n1",
	})
	if err != nil {
		t.Fatalf("PlanMerge() error = %v", err)
	}

	if plan.CreateNew {
		t.Error("absorb plan must not create a new node")
	}
	if plan.Survivor.ID != "n1" || plan.Survivor.Label != "J. Smith" {
		t.Errorf("survivor = %s (%s), want n1 (J. Smith)", plan.Survivor.ID, plan.Survivor.Label)
	}
	if !reflect.DeepEqual(plan.RemovedIDs, []string{"n2", "n3"}) {
		t.Errorf("RemovedIDs = %v, want [n2 n3]", plan.RemovedIDs)
	}

	// Target values win; earlier sources win over later ones for gaps.
	wantProps := map[string]any{
		"beat":    "tech",
		"outlet":  "Wire",
		"twitter": "@jsmith",
		"email":   "j@wire.example",
	}
	if !reflect.DeepEqual(plan.Survivor.Properties, wantProps) {
		t.Errorf("Properties = %v, want %v", plan.Survivor.Properties, wantProps)
	}

	if want := []string{"tech", "tier1", "verified"}; !reflect.DeepEqual(plan.Survivor.Tags, want) {
		t.Errorf("Tags = %v, want %v", plan.Survivor.Tags, want)
	}
	if want := []string{"analyst", "press"}; !reflect.DeepEqual(plan.Survivor.Categories, want) {
		t.Errorf("Categories = %v, want %v", plan.Survivor.Categories, want)
	}

	// The input nodes must not be mutated by planning.
	if _, ok := nodes[0].Properties["twitter"]; ok {
		t.Error("PlanMerge() mutated the target node's property bag")
	}
}

func TestPlanMergeCreateNew(t *testing.T) {
	plan, err := PlanMerge(mergeFixture(), MergeInput{
		SourceIDs: []string{"n2", "n3"},
		Strategy:  common.MergeStrategyCreateNew,
		NewLabel:  "Jane Smith (canonical)",
	})
	if err != nil {
		t.Fatalf("PlanMerge() error = %v", err)
	}

	if !plan.CreateNew {
		t.Error("create_new plan must flag a new node")
	}
	if plan.Survivor.ID != "" {
		t.Errorf("new survivor carries id %q before persistence", plan.Survivor.ID)
	}
	if plan.Survivor.Label != "Jane Smith (canonical)" {
		t.Errorf("Label = %q", plan.Survivor.Label)
	}
	if plan.Survivor.OrgID != "org_1" || plan.Survivor.Type != common.NodeTypeJournalist {
		t.Errorf("survivor org/type = %s/%s, want org_1/journalist",
			plan.Survivor.OrgID, plan.Survivor.Type)
	}
	// First source in input order wins key conflicts.
	if got := plan.Survivor.Properties["twitter"]; got != "@jsmith" {
		t.Errorf("twitter = %v, want @jsmith from the first source", got)
	}
	if !reflect.DeepEqual(plan.RemovedIDs, []string{"n2", "n3"}) {
		t.Errorf("RemovedIDs = %v, want [n2 n3]", plan.RemovedIDs)
	}
}

func TestPlanMergeErrors(t *testing.T) {
	tests := []struct {
		name     string
		in       MergeInput
		wantCode string
	}{
		{
			name:     "single id after dedupe",
			in:       MergeInput{SourceIDs: []string{"n1", "n1"}, Strategy: common.MergeStrategyAbsorb, TargetID: "n1"},
			wantCode: common.CodeReference,
		},
		{
			name:     "unknown source id",
			in:       MergeInput{SourceIDs: []string{"n1", "ghost"}, Strategy: common.MergeStrategyAbsorb, TargetID: "n1"},
			wantCode: common.CodeReference,
		},
		{
			name:     "absorb without target",
			in:       MergeInput{SourceIDs: []string{"n1", "n2"}, Strategy: common.MergeStrategyAbsorb},
			wantCode: common.CodeValidation,
		},
		{
			name:     "absorb target outside sources",
			in:       MergeInput{SourceIDs: []string{"n1", "n2"}, Strategy: common.MergeStrategyAbsorb, TargetID: "n3"},
			wantCode: common.CodeReference,
		},
		{
			name:     "create_new without label",
			in:       MergeInput{SourceIDs: []string{"n1", "n2"}, Strategy: common.MergeStrategyCreateNew},
			wantCode: common.CodeValidation,
		},
		{
			name:     "unknown strategy",
			in:       MergeInput{SourceIDs: []string{"n1", "n2"}, Strategy: "squash"},
			wantCode: common.CodeValidation,
		},
	}

	nodes := mergeFixture()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PlanMerge(nodes, tt.in)
			if err == nil {
				t.Fatal("PlanMerge() error = nil, want error")
			}
			if got := common.ErrorCode(err); got != tt.wantCode {
				t.Errorf("error code = %v, want %v", got, tt.wantCode)
			}
		})
	}
}
