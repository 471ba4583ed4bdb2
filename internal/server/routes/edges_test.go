package routes

import (
	"testing"
	"time"

	"github.com/vantagecomms/vantage/backend/pkg/common"
)

func strPtr(s string) *string        { return &s }
func floatPtr(f float64) *float64    { return &f }
func boolPtr(b bool) *bool           { return &b }
func timePtr(t time.Time) *time.Time { return &t }

func TestApplyEdgeUpdate(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	edge := common.Edge{
		ID:            "ed_1",
		Label:         "mentions",
		Description:   "old",
		Weight:        1,
		Bidirectional: false,
		IsActive:      true,
	}

	body := &updateEdgeBody{
		Label:       strPtr("cites"),
		Description: strPtr("new"),
		Weight:      floatPtr(2.5),
		ValidFrom:   timePtr(from),
		Confidence:  floatPtr(0.9),
		IsActive:    boolPtr(false),
	}

	changes := applyEdgeUpdate(&edge, body)

	// Every mutated field must land in both the edge and the change set.
	want := []string{"label", "description", "weight", "valid_from", "confidence", "is_active"}
	for _, field := range want {
		if _, ok := changes[field]; !ok {
			t.Errorf("changes missing %q", field)
		}
	}
	if len(changes) != len(want) {
		t.Errorf("changes has %d entries, want %d: %v", len(changes), len(want), changes)
	}

	if edge.Label != "cites" || edge.Description != "new" || edge.Weight != 2.5 {
		t.Errorf("edge fields not applied: %+v", edge)
	}
	if edge.ValidFrom == nil || !edge.ValidFrom.Equal(from) {
		t.Errorf("ValidFrom = %v, want %v", edge.ValidFrom, from)
	}
	if edge.Confidence == nil || *edge.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", edge.Confidence)
	}
	if edge.IsActive {
		t.Error("IsActive not applied")
	}

	if ch := changes["description"]; ch.Old != "old" || ch.New != "new" {
		t.Errorf("description change = %+v, want old/new", ch)
	}
}

func TestApplyEdgeUpdateNoOp(t *testing.T) {
	edge := common.Edge{Label: "mentions", Weight: 1, IsActive: true}

	// Absent fields and same-value updates record no change.
	changes := applyEdgeUpdate(&edge, &updateEdgeBody{
		Label:  strPtr("mentions"),
		Weight: floatPtr(1),
	})
	if len(changes) != 0 {
		t.Errorf("changes = %v, want empty", changes)
	}
	if edge.Label != "mentions" || edge.Weight != 1 || !edge.IsActive {
		t.Errorf("edge mutated by no-op update: %+v", edge)
	}
}
