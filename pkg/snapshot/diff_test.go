package snapshot

import (
	"testing"

	"github.com/vantagecomms/vantage/backend/pkg/common"
)

func payloadNode(id string, typ common.NodeType, label string) common.Node {
	return common.Node{ID: id, Type: typ, Label: label, IsActive: true}
}

func payloadEdge(id string, typ common.EdgeType, weight float64) common.Edge {
	return common.Edge{ID: id, Type: typ, SourceNodeID: "a", TargetNodeID: "b", Weight: weight, IsActive: true}
}

func TestComputeDiff(t *testing.T) {
	prev := &common.SnapshotPayload{
		Nodes: []common.Node{
			payloadNode("n1", common.NodeTypeJournalist, "Jane"),
			payloadNode("n2", common.NodeTypeTopic, "AI"),
			payloadNode("n3", common.NodeTypeTopic, "Energy"),
		},
		Edges: []common.Edge{
			payloadEdge("e1", common.EdgeTypeCovers, 1),
			payloadEdge("e2", common.EdgeTypeRelatedTo, 1),
		},
	}
	cur := &common.SnapshotPayload{
		Nodes: []common.Node{
			payloadNode("n1", common.NodeTypeJournalist, "Jane Smith"), // renamed
			payloadNode("n2", common.NodeTypeTopic, "AI"),              // unchanged
			payloadNode("n4", common.NodeTypeCampaign, "Q3 Launch"),    // added
		},
		Edges: []common.Edge{
			payloadEdge("e1", common.EdgeTypeCovers, 0.5), // weight changed
			payloadEdge("e3", common.EdgeTypeMentions, 1), // added
		},
	}

	diff := ComputeDiff(prev, cur)

	if got := diff.NodesAdded[common.NodeTypeCampaign]; got != 1 {
		t.Errorf("NodesAdded[campaign] = %d, want 1", got)
	}
	if got := diff.NodesRemoved[common.NodeTypeTopic]; got != 1 {
		t.Errorf("NodesRemoved[topic] = %d, want 1", got)
	}
	if got := diff.NodesModified[common.NodeTypeJournalist]; got != 1 {
		t.Errorf("NodesModified[journalist] = %d, want 1", got)
	}
	if got := diff.NodesModified[common.NodeTypeTopic]; got != 0 {
		t.Errorf("NodesModified[topic] = %d, want 0 for unchanged node", got)
	}
	if got := diff.EdgesModified[common.EdgeTypeCovers]; got != 1 {
		t.Errorf("EdgesModified[covers] = %d, want 1", got)
	}
	if got := diff.EdgesAdded[common.EdgeTypeMentions]; got != 1 {
		t.Errorf("EdgesAdded[mentions] = %d, want 1", got)
	}
	if got := diff.EdgesRemoved[common.EdgeTypeRelatedTo]; got != 1 {
		t.Errorf("EdgesRemoved[related_to] = %d, want 1", got)
	}
	if diff.Empty() {
		t.Error("diff reported empty despite changes")
	}
}

func TestComputeDiffMetricsOnlyChangeIsNotModified(t *testing.T) {
	deg1, deg2 := 0.2, 0.9
	prevNode := payloadNode("n1", common.NodeTypeTopic, "AI")
	prevNode.Degree = &deg1
	curNode := payloadNode("n1", common.NodeTypeTopic, "AI")
	curNode.Degree = &deg2

	diff := ComputeDiff(
		&common.SnapshotPayload{Nodes: []common.Node{prevNode}},
		&common.SnapshotPayload{Nodes: []common.Node{curNode}},
	)
	if !diff.Empty() {
		t.Errorf("metrics-only change counted as modification: %+v", diff)
	}
}

func TestComputeDiffIdentical(t *testing.T) {
	payload := &common.SnapshotPayload{
		Nodes: []common.Node{payloadNode("n1", common.NodeTypeTopic, "AI")},
		Edges: []common.Edge{payloadEdge("e1", common.EdgeTypeCovers, 1)},
	}
	if diff := ComputeDiff(payload, payload); !diff.Empty() {
		t.Errorf("identical payloads produced a non-empty diff: %+v", diff)
	}
}
