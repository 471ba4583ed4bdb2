package graph

import (
	"sort"
	"testing"

	"github.com/vantagecomms/vantage/backend/pkg/common"
)

func testNode(id string, typ common.NodeType) common.Node {
	return common.Node{ID: id, OrgID: "org_1", Type: typ, Label: id, IsActive: true}
}

func testEdge(id, src, tgt string, typ common.EdgeType, weight float64, bidi bool) common.Edge {
	return common.Edge{
		ID: id, OrgID: "org_1", Type: typ,
		SourceNodeID: src, TargetNodeID: tgt,
		Weight: weight, Bidirectional: bidi, IsActive: true,
	}
}

// chain: a -> b -> c -> d, plus a spur b -> e (bidirectional)
func chainView() *View {
	nodes := []common.Node{
		testNode("a", common.NodeTypeContentPiece),
		testNode("b", common.NodeTypeJournalist),
		testNode("c", common.NodeTypeTopic),
		testNode("d", common.NodeTypeCampaign),
		testNode("e", common.NodeTypeMediaOutlet),
	}
	edges := []common.Edge{
		testEdge("e1", "a", "b", common.EdgeTypeAuthoredBy, 1, false),
		testEdge("e2", "b", "c", common.EdgeTypeCovers, 1, false),
		testEdge("e3", "c", "d", common.EdgeTypePartOf, 1, false),
		testEdge("e4", "b", "e", common.EdgeTypeWorksFor, 1, true),
	}
	return NewView(nodes, edges)
}

func visitedIDs(res *TraverseResult) []string {
	ids := make([]string, 0, len(res.Nodes))
	for _, n := range res.Nodes {
		ids = append(ids, n.ID)
	}
	sort.Strings(ids)
	return ids
}

func TestTraverse(t *testing.T) {
	tests := []struct {
		name      string
		start     string
		opts      TraverseOptions
		wantIDs   []string
		wantDepth int
	}{
		{
			name:      "depth zero visits only the start",
			start:     "a",
			opts:      TraverseOptions{Direction: DirectionOutgoing, MaxDepth: 0, Limit: 10},
			wantIDs:   []string{"a"},
			wantDepth: 0,
		},
		{
			name:      "outgoing full depth",
			start:     "a",
			opts:      TraverseOptions{Direction: DirectionOutgoing, MaxDepth: 4, Limit: 10},
			wantIDs:   []string{"a", "b", "c", "d", "e"},
			wantDepth: 3,
		},
		{
			name:      "depth bound stops expansion",
			start:     "a",
			opts:      TraverseOptions{Direction: DirectionOutgoing, MaxDepth: 1, Limit: 10},
			wantIDs:   []string{"a", "b"},
			wantDepth: 1,
		},
		{
			name:      "incoming walks reverse edges",
			start:     "d",
			opts:      TraverseOptions{Direction: DirectionIncoming, MaxDepth: 5, Limit: 10},
			wantIDs:   []string{"a", "b", "c", "d"},
			wantDepth: 3,
		},
		{
			name:  "both only reverses bidirectional edges",
			start: "e",
			// e4 is bidirectional so e reaches b; e1/e2 are directed so the
			// walk continues forward from b but not back along e1.
			opts:      TraverseOptions{Direction: DirectionBoth, MaxDepth: 2, Limit: 10},
			wantIDs:   []string{"b", "c", "e"},
			wantDepth: 2,
		},
		{
			name:      "edge type filter",
			start:     "a",
			opts:      TraverseOptions{Direction: DirectionOutgoing, MaxDepth: 4, Limit: 10, EdgeTypes: []common.EdgeType{common.EdgeTypeAuthoredBy}},
			wantIDs:   []string{"a", "b"},
			wantDepth: 1,
		},
		{
			name:      "node type filter blocks expansion through filtered nodes",
			start:     "a",
			opts:      TraverseOptions{Direction: DirectionOutgoing, MaxDepth: 4, Limit: 10, NodeTypes: []common.NodeType{common.NodeTypeJournalist, common.NodeTypeMediaOutlet}},
			wantIDs:   []string{"a", "b", "e"},
			wantDepth: 2,
		},
		{
			name:      "visit limit",
			start:     "a",
			opts:      TraverseOptions{Direction: DirectionOutgoing, MaxDepth: 4, Limit: 2},
			wantIDs:   []string{"a", "b"},
			wantDepth: 1,
		},
	}

	v := chainView()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.Traverse(tt.start, tt.opts)
			if err != nil {
				t.Fatalf("Traverse() error = %v", err)
			}
			if got := visitedIDs(res); !equalStrings(got, tt.wantIDs) {
				t.Errorf("Traverse() visited = %v, want %v", got, tt.wantIDs)
			}
			if res.DepthReached != tt.wantDepth {
				t.Errorf("Traverse() depth = %d, want %d", res.DepthReached, tt.wantDepth)
			}
			if res.TotalVisited != len(tt.wantIDs) {
				t.Errorf("Traverse() total = %d, want %d", res.TotalVisited, len(tt.wantIDs))
			}
		})
	}
}

func TestTraverseMissingStart(t *testing.T) {
	v := chainView()
	_, err := v.Traverse("nope", TraverseOptions{MaxDepth: 1})
	if common.ErrorCode(err) != common.CodeReference {
		t.Errorf("Traverse() error code = %v, want reference error", common.ErrorCode(err))
	}
}

func TestTraverseNeverRevisits(t *testing.T) {
	// cycle: x -> y -> z -> x
	nodes := []common.Node{
		testNode("x", common.NodeTypeTopic),
		testNode("y", common.NodeTypeTopic),
		testNode("z", common.NodeTypeTopic),
	}
	edges := []common.Edge{
		testEdge("c1", "x", "y", common.EdgeTypeRelatedTo, 1, false),
		testEdge("c2", "y", "z", common.EdgeTypeRelatedTo, 1, false),
		testEdge("c3", "z", "x", common.EdgeTypeRelatedTo, 1, false),
	}
	v := NewView(nodes, edges)

	res, err := v.Traverse("x", TraverseOptions{Direction: DirectionOutgoing, MaxDepth: 50, Limit: 100})
	if err != nil {
		t.Fatalf("Traverse() error = %v", err)
	}
	if res.TotalVisited != 3 {
		t.Errorf("Traverse() on a cycle visited %d nodes, want 3", res.TotalVisited)
	}
	if len(res.Edges) != 2 {
		t.Errorf("Traverse() on a cycle followed %d edges, want 2", len(res.Edges))
	}
}

func TestTraversePaths(t *testing.T) {
	v := chainView()
	res, err := v.Traverse("a", TraverseOptions{Direction: DirectionOutgoing, MaxDepth: 4, Limit: 10})
	if err != nil {
		t.Fatalf("Traverse() error = %v", err)
	}

	// BFS tree from a has two leaves: d (a-b-c-d) and e (a-b-e).
	if len(res.Paths) != 2 {
		t.Fatalf("Traverse() paths = %d, want 2", len(res.Paths))
	}
	for _, p := range res.Paths {
		if p.NodeIDs[0] != "a" {
			t.Errorf("path must start at the start node, got %v", p.NodeIDs)
		}
		if len(p.EdgeIDs) != len(p.NodeIDs)-1 {
			t.Errorf("path edge count %d does not match node count %d", len(p.EdgeIDs), len(p.NodeIDs))
		}
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
