package graph

import (
	"testing"

	"github.com/vantagecomms/vantage/backend/pkg/common"
)

// diamond: s -> a -> t (weights 1, 1) and s -> b -> t (weights 0.2, 0.3),
// plus a long detour s -> c -> d -> t.
func diamondView() *View {
	nodes := []common.Node{
		testNode("s", common.NodeTypeTopic),
		testNode("a", common.NodeTypeTopic),
		testNode("b", common.NodeTypeTopic),
		testNode("c", common.NodeTypeTopic),
		testNode("d", common.NodeTypeTopic),
		testNode("t", common.NodeTypeTopic),
	}
	edges := []common.Edge{
		testEdge("sa", "s", "a", common.EdgeTypeRelatedTo, 1, false),
		testEdge("at", "a", "t", common.EdgeTypeRelatedTo, 1, false),
		testEdge("sb", "s", "b", common.EdgeTypeRelatedTo, 0.2, false),
		testEdge("bt", "b", "t", common.EdgeTypeRelatedTo, 0.3, false),
		testEdge("sc", "s", "c", common.EdgeTypeRelatedTo, 0.01, false),
		testEdge("cd", "c", "d", common.EdgeTypeRelatedTo, 0.01, false),
		testEdge("dt", "d", "t", common.EdgeTypeRelatedTo, 0.01, false),
	}
	return NewView(nodes, edges)
}

func TestShortestPath(t *testing.T) {
	v := diamondView()

	t.Run("hop count wins over weight", func(t *testing.T) {
		// The 3-hop detour via c,d is far lighter but loses to the 2-hop
		// routes.
		res, err := v.ShortestPath("s", "t", 10)
		if err != nil {
			t.Fatalf("ShortestPath() error = %v", err)
		}
		if res == nil {
			t.Fatal("ShortestPath() = nil, want a path")
		}
		if res.PathLength != 2 {
			t.Errorf("PathLength = %d, want 2", res.PathLength)
		}
	})

	t.Run("weight breaks ties within a layer", func(t *testing.T) {
		res, err := v.ShortestPath("s", "t", 10)
		if err != nil {
			t.Fatalf("ShortestPath() error = %v", err)
		}
		// Both 2-hop candidates exist; the lighter route via b must win.
		if got := res.Nodes[1].ID; got != "b" {
			t.Errorf("intermediate node = %s, want b", got)
		}
		if res.TotalWeight != 0.5 {
			t.Errorf("TotalWeight = %v, want 0.5", res.TotalWeight)
		}
	})

	t.Run("same start and end", func(t *testing.T) {
		res, err := v.ShortestPath("s", "s", 5)
		if err != nil {
			t.Fatalf("ShortestPath() error = %v", err)
		}
		if res.PathLength != 0 || len(res.Nodes) != 1 || len(res.Edges) != 0 {
			t.Errorf("self path = %+v, want a 0-length path with one node", res)
		}
	})

	t.Run("max depth too small", func(t *testing.T) {
		res, err := v.ShortestPath("s", "t", 1)
		if err != nil {
			t.Fatalf("ShortestPath() error = %v", err)
		}
		if res != nil {
			t.Errorf("ShortestPath() within 1 hop = %+v, want nil", res)
		}
	})

	t.Run("missing endpoint is a reference error", func(t *testing.T) {
		_, err := v.ShortestPath("s", "nope", 5)
		if common.ErrorCode(err) != common.CodeReference {
			t.Errorf("error code = %v, want reference error", common.ErrorCode(err))
		}
	})
}

func TestShortestPathEqualWeightDeterministic(t *testing.T) {
	// Two 2-hop routes with identical cumulative weight. The route through
	// the lexically smaller intermediate must win, every run.
	nodes := []common.Node{
		testNode("s", common.NodeTypeTopic),
		testNode("x", common.NodeTypeTopic),
		testNode("y", common.NodeTypeTopic),
		testNode("t", common.NodeTypeTopic),
	}
	edges := []common.Edge{
		testEdge("sx", "s", "x", common.EdgeTypeRelatedTo, 1, false),
		testEdge("xt", "x", "t", common.EdgeTypeRelatedTo, 1, false),
		testEdge("sy", "s", "y", common.EdgeTypeRelatedTo, 1, false),
		testEdge("yt", "y", "t", common.EdgeTypeRelatedTo, 1, false),
	}
	v := NewView(nodes, edges)

	for i := 0; i < 10; i++ {
		res, err := v.ShortestPath("s", "t", 5)
		if err != nil {
			t.Fatalf("ShortestPath() error = %v", err)
		}
		if res == nil || res.PathLength != 2 {
			t.Fatalf("ShortestPath() = %+v, want a 2-hop path", res)
		}
		if got := res.Nodes[1].ID; got != "x" {
			t.Fatalf("intermediate node = %s, want x", got)
		}
	}
}

func TestShortestPathUnreachable(t *testing.T) {
	nodes := []common.Node{
		testNode("p", common.NodeTypeTopic),
		testNode("q", common.NodeTypeTopic),
		testNode("r", common.NodeTypeTopic),
	}
	// q -> p is directed, so p cannot reach q; r is fully isolated.
	edges := []common.Edge{
		testEdge("qp", "q", "p", common.EdgeTypeRelatedTo, 1, false),
	}
	v := NewView(nodes, edges)

	for _, end := range []string{"q", "r"} {
		res, err := v.ShortestPath("p", end, 10)
		if err != nil {
			t.Fatalf("ShortestPath(p, %s) error = %v", end, err)
		}
		if res != nil {
			t.Errorf("ShortestPath(p, %s) = %+v, want nil for unreachable", end, res)
		}
	}
}

func TestShortestPathBidirectional(t *testing.T) {
	nodes := []common.Node{
		testNode("p", common.NodeTypeTopic),
		testNode("q", common.NodeTypeTopic),
	}
	edges := []common.Edge{
		testEdge("qp", "q", "p", common.EdgeTypeRelatedTo, 2, true),
	}
	v := NewView(nodes, edges)

	res, err := v.ShortestPath("p", "q", 3)
	if err != nil {
		t.Fatalf("ShortestPath() error = %v", err)
	}
	if res == nil || res.PathLength != 1 {
		t.Fatalf("ShortestPath() over a bidirectional edge = %+v, want 1 hop", res)
	}
	if res.TotalWeight != 2 {
		t.Errorf("TotalWeight = %v, want 2", res.TotalWeight)
	}
}
