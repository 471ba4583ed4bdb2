package graph

import (
	"sort"

	"github.com/vantagecomms/vantage/backend/pkg/common"
)

// MergeInput describes a node consolidation request.
type MergeInput struct {
	SourceIDs []string
	Strategy  common.MergeStrategy
	TargetID  string
	NewLabel  string
}

// MergePlan is the computed outcome of a merge before it is persisted: the
// surviving node (updated or brand new) and the source nodes to remove.
// Edge rewiring happens in the store inside the same transaction. Parallel
// edges produced by rewiring are deliberately preserved.
type MergePlan struct {
	Survivor   common.Node
	RemovedIDs []string
	CreateNew  bool
}

// PlanMerge computes the merge of two or more nodes into one. The caller
// supplies the resolved source nodes; missing ids must already have been
// rejected with a ReferenceError.
//
// Strategy absorb: the node named by TargetID survives; its own property
// values win on key conflicts, other sources fill gaps in input order.
// Strategy create_new: a new node carries NewLabel and the union of all
// sources, first source in input order winning conflicts.
func PlanMerge(nodes []common.Node, in MergeInput) (*MergePlan, error) {
	distinct := dedupeIDs(in.SourceIDs)
	if len(distinct) < 2 {
		return nil, common.NewReferenceError("merge requires at least 2 distinct source node ids")
	}

	byID := make(map[string]*common.Node, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = &nodes[i]
	}
	for _, id := range distinct {
		if byID[id] == nil {
			return nil, common.NewReferenceError("merge source node %s not found", id)
		}
	}

	switch in.Strategy {
	case common.MergeStrategyAbsorb:
		return planAbsorb(byID, distinct, in.TargetID)
	case common.MergeStrategyCreateNew:
		return planCreateNew(byID, distinct, in.NewLabel)
	default:
		return nil, common.NewValidationError("unknown merge strategy %q", in.Strategy)
	}
}

func planAbsorb(byID map[string]*common.Node, sourceIDs []string, targetID string) (*MergePlan, error) {
	if targetID == "" {
		return nil, common.NewValidationError("absorb strategy requires a target node id")
	}
	target := byID[targetID]
	if target == nil || !containsID(sourceIDs, targetID) {
		return nil, common.NewReferenceError("merge target node %s not found among sources", targetID)
	}

	survivor := *target
	survivor.Normalize()
	survivor.Properties = copyBag(survivor.Properties)

	var removed []string
	for _, id := range sourceIDs {
		if id == targetID {
			continue
		}
		src := byID[id]
		fillBag(survivor.Properties, src.Properties)
		survivor.Tags = unionStrings(survivor.Tags, src.Tags)
		survivor.Categories = unionStrings(survivor.Categories, src.Categories)
		removed = append(removed, id)
	}

	return &MergePlan{Survivor: survivor, RemovedIDs: removed}, nil
}

func planCreateNew(byID map[string]*common.Node, sourceIDs []string, newLabel string) (*MergePlan, error) {
	if newLabel == "" {
		return nil, common.NewValidationError("create_new strategy requires a new label")
	}

	first := byID[sourceIDs[0]]
	survivor := common.Node{
		OrgID:      first.OrgID,
		Type:       first.Type,
		Label:      newLabel,
		Properties: map[string]any{},
		Tags:       []string{},
		Categories: []string{},
		IsActive:   true,
	}

	var removed []string
	for _, id := range sourceIDs {
		src := byID[id]
		fillBag(survivor.Properties, src.Properties)
		survivor.Tags = unionStrings(survivor.Tags, src.Tags)
		survivor.Categories = unionStrings(survivor.Categories, src.Categories)
		removed = append(removed, id)
	}

	return &MergePlan{Survivor: survivor, RemovedIDs: removed, CreateNew: true}, nil
}

// fillBag copies entries from src into dst for keys dst does not have yet.
// Existing dst values always win.
func fillBag(dst, src map[string]any) {
	for k, v := range src {
		if _, ok := dst[k]; !ok {
			dst[k] = v
		}
	}
}

func copyBag(bag map[string]any) map[string]any {
	out := make(map[string]any, len(bag))
	for k, v := range bag {
		out[k] = v
	}
	return out
}

// unionStrings merges two sets, returning a sorted slice so merge output is
// deterministic regardless of source order.
func unionStrings(a, b []string) []string {
	set := make(map[string]bool, len(a)+len(b))
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		set[s] = true
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
