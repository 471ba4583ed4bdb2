package graph

import (
	"math"
	"reflect"
	"testing"

	"github.com/vantagecomms/vantage/backend/pkg/common"
)

// pathView builds the 3-node path a - b - c (directed a->b, b->c).
func pathView() *View {
	nodes := []common.Node{
		testNode("a", common.NodeTypeTopic),
		testNode("b", common.NodeTypeTopic),
		testNode("c", common.NodeTypeTopic),
	}
	edges := []common.Edge{
		testEdge("ab", "a", "b", common.EdgeTypeRelatedTo, 1, false),
		testEdge("bc", "b", "c", common.EdgeTypeRelatedTo, 1, false),
	}
	return NewView(nodes, edges)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestComputeMetricsGraphLevel(t *testing.T) {
	v := pathView()
	res, err := v.ComputeMetrics(MetricsOptions{})
	if err != nil {
		t.Fatalf("ComputeMetrics() error = %v", err)
	}

	if res.Metrics.TotalNodes != 3 || res.Metrics.TotalEdges != 2 {
		t.Errorf("counts = %d nodes / %d edges, want 3 / 2",
			res.Metrics.TotalNodes, res.Metrics.TotalEdges)
	}
	// density = E / (N * (N-1)) = 2 / 6
	if !almostEqual(res.Metrics.Density, 2.0/6.0) {
		t.Errorf("Density = %v, want %v", res.Metrics.Density, 2.0/6.0)
	}
	// avg degree = 2E / N = 4 / 3
	if !almostEqual(res.Metrics.AvgDegree, 4.0/3.0) {
		t.Errorf("AvgDegree = %v, want %v", res.Metrics.AvgDegree, 4.0/3.0)
	}
	if res.Scores != nil {
		t.Errorf("Scores computed without being requested")
	}
}

func TestComputeMetricsEmptyAndSingle(t *testing.T) {
	empty := NewView(nil, nil)
	res, err := empty.ComputeMetrics(MetricsOptions{ComputeCentrality: true, ComputeClusters: true})
	if err != nil {
		t.Fatalf("ComputeMetrics() on empty graph error = %v", err)
	}
	if res.Metrics.Density != 0 || res.Metrics.AvgDegree != 0 || res.Metrics.ClusterCount != 0 {
		t.Errorf("empty graph metrics = %+v, want all zero", res.Metrics)
	}

	single := NewView([]common.Node{testNode("only", common.NodeTypeTopic)}, nil)
	res, err = single.ComputeMetrics(MetricsOptions{ComputeCentrality: true})
	if err != nil {
		t.Fatalf("ComputeMetrics() on single node error = %v", err)
	}
	if res.Metrics.Density != 0 {
		t.Errorf("single-node Density = %v, want 0", res.Metrics.Density)
	}
	if s := res.Scores["only"]; s.Degree != 0 || s.Betweenness != 0 {
		t.Errorf("single-node scores = %+v, want zeroes", s)
	}
}

func TestComputeMetricsCentrality(t *testing.T) {
	v := pathView()
	res, err := v.ComputeMetrics(MetricsOptions{ComputeCentrality: true})
	if err != nil {
		t.Fatalf("ComputeMetrics() error = %v", err)
	}

	// b touches both edges: degree 2/(n-1) = 1; endpoints have 1/2.
	if s := res.Scores["b"]; !almostEqual(s.Degree, 1) {
		t.Errorf("degree(b) = %v, want 1", s.Degree)
	}
	if s := res.Scores["a"]; !almostEqual(s.Degree, 0.5) {
		t.Errorf("degree(a) = %v, want 0.5", s.Degree)
	}

	// Every a<->c shortest path passes through b; the only dependent pair
	// out of (n-1)(n-2) = 2 ordered pairs per direction, counted twice by
	// undirected accumulation, normalized back to 1.
	if s := res.Scores["b"]; !almostEqual(s.Betweenness, 1) {
		t.Errorf("betweenness(b) = %v, want 1", s.Betweenness)
	}
	if s := res.Scores["a"]; !almostEqual(s.Betweenness, 0) {
		t.Errorf("betweenness(a) = %v, want 0", s.Betweenness)
	}

	// closeness(b): distances 1,1 -> (2/2) * (2/2) = 1
	// closeness(a): distances 1,2 -> (2/3) * (2/2) = 2/3
	if s := res.Scores["b"]; !almostEqual(s.Closeness, 1) {
		t.Errorf("closeness(b) = %v, want 1", s.Closeness)
	}
	if s := res.Scores["a"]; !almostEqual(s.Closeness, 2.0/3.0) {
		t.Errorf("closeness(a) = %v, want %v", s.Closeness, 2.0/3.0)
	}

	// Importance is a probability distribution over nodes.
	sum := 0.0
	for _, s := range res.Scores {
		sum += s.Importance
	}
	if !almostEqual(sum, 1) {
		t.Errorf("importance sum = %v, want 1", sum)
	}
	if res.Scores["c"].Importance <= res.Scores["a"].Importance {
		t.Errorf("importance(c)=%v should exceed importance(a)=%v on the chain a->b->c",
			res.Scores["c"].Importance, res.Scores["a"].Importance)
	}
	if res.NodesUpdated != 3 {
		t.Errorf("NodesUpdated = %d, want 3", res.NodesUpdated)
	}
}

func TestComputeMetricsCentralityIgnoresDirection(t *testing.T) {
	// Same path as pathView but with both edges reversed and not marked
	// bidirectional. Structural centrality must not change.
	nodes := []common.Node{
		testNode("a", common.NodeTypeTopic),
		testNode("b", common.NodeTypeTopic),
		testNode("c", common.NodeTypeTopic),
	}
	edges := []common.Edge{
		testEdge("ba", "b", "a", common.EdgeTypeRelatedTo, 1, false),
		testEdge("cb", "c", "b", common.EdgeTypeRelatedTo, 1, false),
	}
	reversed := NewView(nodes, edges)

	fwd, err := pathView().ComputeMetrics(MetricsOptions{ComputeCentrality: true})
	if err != nil {
		t.Fatalf("ComputeMetrics() error = %v", err)
	}
	rev, err := reversed.ComputeMetrics(MetricsOptions{ComputeCentrality: true})
	if err != nil {
		t.Fatalf("ComputeMetrics() error = %v", err)
	}

	for _, id := range []string{"a", "b", "c"} {
		if !almostEqual(fwd.Scores[id].Betweenness, rev.Scores[id].Betweenness) {
			t.Errorf("betweenness(%s) = %v forward vs %v reversed",
				id, fwd.Scores[id].Betweenness, rev.Scores[id].Betweenness)
		}
		if !almostEqual(fwd.Scores[id].Closeness, rev.Scores[id].Closeness) {
			t.Errorf("closeness(%s) = %v forward vs %v reversed",
				id, fwd.Scores[id].Closeness, rev.Scores[id].Closeness)
		}
	}
}

func TestComputeMetricsClusters(t *testing.T) {
	// two components: {a,b,c} and {x,y}
	nodes := []common.Node{
		testNode("a", common.NodeTypeTopic),
		testNode("b", common.NodeTypeTopic),
		testNode("c", common.NodeTypeTopic),
		testNode("x", common.NodeTypeTopic),
		testNode("y", common.NodeTypeTopic),
	}
	edges := []common.Edge{
		testEdge("ab", "a", "b", common.EdgeTypeRelatedTo, 1, false),
		testEdge("cb", "c", "b", common.EdgeTypeRelatedTo, 1, false),
		testEdge("yx", "y", "x", common.EdgeTypeRelatedTo, 1, false),
	}
	v := NewView(nodes, edges)

	res, err := v.ComputeMetrics(MetricsOptions{ComputeClusters: true})
	if err != nil {
		t.Fatalf("ComputeMetrics() error = %v", err)
	}
	if res.Metrics.ClusterCount != 2 {
		t.Errorf("ClusterCount = %d, want 2", res.Metrics.ClusterCount)
	}
	for _, id := range []string{"a", "b", "c"} {
		if got := res.Scores[id].ClusterID; got != "cl_a" {
			t.Errorf("cluster(%s) = %s, want cl_a", id, got)
		}
	}
	for _, id := range []string{"x", "y"} {
		if got := res.Scores[id].ClusterID; got != "cl_x" {
			t.Errorf("cluster(%s) = %s, want cl_x", id, got)
		}
	}
}

func TestComputeMetricsDeterministic(t *testing.T) {
	v := diamondView()
	opts := MetricsOptions{ComputeCentrality: true, ComputeClusters: true}

	first, err := v.ComputeMetrics(opts)
	if err != nil {
		t.Fatalf("ComputeMetrics() error = %v", err)
	}
	second, err := v.ComputeMetrics(opts)
	if err != nil {
		t.Fatalf("ComputeMetrics() error = %v", err)
	}
	if !reflect.DeepEqual(first.Scores, second.Scores) {
		t.Errorf("repeated metrics passes diverged:\nfirst:  %+v\nsecond: %+v",
			first.Scores, second.Scores)
	}
}

func TestComputeMetricsNodeCeiling(t *testing.T) {
	v := pathView()
	_, err := v.ComputeMetrics(MetricsOptions{ComputeCentrality: true, MaxNodes: 2})
	if common.ErrorCode(err) != common.CodeComputationLimit {
		t.Errorf("error code = %v, want computation limit", common.ErrorCode(err))
	}
	if common.HTTPStatus(err) != 422 {
		t.Errorf("http status = %d, want 422", common.HTTPStatus(err))
	}
}
