package graph

import (
	"math"
	"sort"
	"time"

	"github.com/vantagecomms/vantage/backend/pkg/common"
)

const (
	pagerankDamping    = 0.85
	pagerankIterations = 30
)

// MetricsOptions controls a metrics pass.
type MetricsOptions struct {
	ComputeCentrality bool
	ComputeClusters   bool

	// MaxNodes caps the synchronous graph size. Centrality is O(V*(V+E));
	// graphs above the ceiling must go through the background worker.
	MaxNodes int
}

// NodeScores holds the per-node derived values from one metrics pass.
type NodeScores struct {
	Degree      float64 `json:"degree_centrality"`
	Betweenness float64 `json:"betweenness_centrality"`
	Closeness   float64 `json:"closeness_centrality"`
	Importance  float64 `json:"importance"`
	ClusterID   string  `json:"cluster_id,omitempty"`
}

// MetricsResult is the output of one metrics pass. For a fixed view the
// result is deterministic: re-running yields identical scores.
type MetricsResult struct {
	Metrics         common.GraphMetrics   `json:"metrics"`
	Scores          map[string]NodeScores `json:"scores,omitempty"`
	NodesUpdated    int                   `json:"nodes_updated"`
	ExecutionTimeMs int64                 `json:"execution_time_ms"`
}

// ComputeMetrics computes whole-graph and, optionally, per-node structural
// metrics over the view.
func (v *View) ComputeMetrics(opts MetricsOptions) (*MetricsResult, error) {
	if opts.MaxNodes > 0 && len(v.nodes) > opts.MaxNodes {
		return nil, common.NewComputationLimitError(
			"graph has %d nodes, synchronous ceiling is %d", len(v.nodes), opts.MaxNodes)
	}

	start := time.Now()
	n := len(v.nodes)
	e := len(v.edges)

	metrics := common.GraphMetrics{
		TotalNodes: n,
		TotalEdges: e,
		ComputedAt: time.Now().UTC(),
	}
	// Directed simple-graph density; 0 below two nodes.
	if n >= 2 {
		metrics.Density = float64(e) / float64(n*(n-1))
	}
	if n > 0 {
		metrics.AvgDegree = 2 * float64(e) / float64(n)
	}

	result := &MetricsResult{Metrics: metrics}

	if opts.ComputeCentrality || opts.ComputeClusters {
		result.Scores = make(map[string]NodeScores, n)
		for _, id := range v.sortedNodeIDs() {
			result.Scores[id] = NodeScores{}
		}
	}

	if opts.ComputeCentrality && n > 0 {
		v.computeDegree(result.Scores)
		v.computeBetweennessAndCloseness(result.Scores)
		v.computePageRank(result.Scores)
		result.NodesUpdated = n
	}

	if opts.ComputeClusters && n > 0 {
		clusters := v.computeComponents(result.Scores)
		result.Metrics.ClusterCount = clusters
		result.NodesUpdated = n
	}

	result.ExecutionTimeMs = time.Since(start).Milliseconds()
	return result, nil
}

// computeDegree writes the normalized total degree of each node: incident
// edge endpoints over the maximum possible (n-1).
func (v *View) computeDegree(scores map[string]NodeScores) {
	n := len(v.nodes)
	if n < 2 {
		return
	}
	for id := range v.nodes {
		s := scores[id]
		s.Degree = float64(len(v.out[id])+len(v.in[id])) / float64(n-1)
		scores[id] = s
	}
}

// computeBetweennessAndCloseness runs one BFS per node (unweighted
// Brandes-style accumulation), O(V*(V+E)) overall. Edge direction is
// ignored: structural centrality is computed over the undirected graph.
func (v *View) computeBetweennessAndCloseness(scores map[string]NodeScores) {
	n := len(v.nodes)
	ids := v.sortedNodeIDs()
	betweenness := make(map[string]float64, n)

	for _, source := range ids {
		// BFS from source recording shortest-path counts and predecessors.
		dist := map[string]int{source: 0}
		sigma := map[string]float64{source: 1}
		preds := map[string][]string{}
		var order []string

		queue := []string{source}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			order = append(order, cur)

			for _, nb := range v.undirectedNeighbors(cur) {
				if !nb.edge.IsActive || !nb.node.IsActive {
					continue
				}
				w := nb.node.ID
				if _, seen := dist[w]; !seen {
					dist[w] = dist[cur] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[cur]+1 {
					sigma[w] += sigma[cur]
					preds[w] = append(preds[w], cur)
				}
			}
		}

		// Closeness: inverse average shortest-path distance over reachable
		// nodes, scaled by the reachable fraction so disconnected graphs
		// stay comparable.
		sumDist := 0
		for id, d := range dist {
			if id != source {
				sumDist += d
			}
		}
		reachable := len(dist) - 1
		if reachable > 0 && sumDist > 0 {
			s := scores[source]
			s.Closeness = (float64(reachable) / float64(sumDist)) *
				(float64(reachable) / float64(max(n-1, 1)))
			scores[source] = s
		}

		// Brandes back-propagation of pair dependencies.
		delta := make(map[string]float64, len(order))
		for i := len(order) - 1; i >= 0; i-- {
			w := order[i]
			for _, p := range preds[w] {
				delta[p] += (sigma[p] / sigma[w]) * (1 + delta[w])
			}
			if w != source {
				betweenness[w] += delta[w]
			}
		}
	}

	// Normalize to the fraction of shortest paths passing through a node.
	// Undirected accumulation counts every pair twice.
	norm := 1.0
	if n > 2 {
		norm = 1.0 / (float64(n-1) * float64(n-2))
	}
	for id, b := range betweenness {
		s := scores[id]
		s.Betweenness = roundScore(b * norm)
		scores[id] = s
	}
	for id := range v.nodes {
		s := scores[id]
		s.Closeness = roundScore(s.Closeness)
		scores[id] = s
	}
}

// computePageRank runs a fixed-iteration damped importance computation.
// Fixed iteration count and sorted id ordering keep it deterministic.
func (v *View) computePageRank(scores map[string]NodeScores) {
	n := len(v.nodes)
	ids := v.sortedNodeIDs()

	rank := make(map[string]float64, n)
	outDeg := make(map[string]int, n)
	for _, id := range ids {
		rank[id] = 1.0 / float64(n)
		outDeg[id] = len(v.out[id])
		for _, e := range v.in[id] {
			if e.Bidirectional && e.SourceNodeID != e.TargetNodeID {
				outDeg[id]++
			}
		}
	}
	base := (1.0 - pagerankDamping) / float64(n)
	for iter := 0; iter < pagerankIterations; iter++ {
		next := make(map[string]float64, n)
		dangling := 0.0
		for _, id := range ids {
			if outDeg[id] == 0 {
				dangling += rank[id]
			}
		}
		danglingShare := pagerankDamping * dangling / float64(n)

		for _, id := range ids {
			sum := 0.0
			for _, e := range v.in[id] {
				if !e.IsActive {
					continue
				}
				sum += rank[e.SourceNodeID] / float64(max(outDeg[e.SourceNodeID], 1))
			}
			for _, e := range v.out[id] {
				if !e.IsActive || !e.Bidirectional || e.SourceNodeID == e.TargetNodeID {
					continue
				}
				sum += rank[e.TargetNodeID] / float64(max(outDeg[e.TargetNodeID], 1))
			}
			next[id] = base + danglingShare + pagerankDamping*sum
		}
		rank = next
	}

	for id, r := range rank {
		s := scores[id]
		s.Importance = roundScore(r)
		scores[id] = s
	}
}

// computeComponents assigns a cluster id per connected component (edges
// treated as undirected). The component's lexically smallest node id names
// the cluster, keeping assignment deterministic. Returns the cluster count.
func (v *View) computeComponents(scores map[string]NodeScores) int {
	assigned := map[string]string{}
	ids := v.sortedNodeIDs()
	count := 0

	for _, id := range ids {
		if _, ok := assigned[id]; ok {
			continue
		}
		count++

		// Collect the component, then name it after its smallest member.
		var members []string
		queue := []string{id}
		seen := map[string]bool{id: true}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			members = append(members, cur)
			for _, e := range v.out[cur] {
				if !seen[e.TargetNodeID] {
					seen[e.TargetNodeID] = true
					queue = append(queue, e.TargetNodeID)
				}
			}
			for _, e := range v.in[cur] {
				if !seen[e.SourceNodeID] {
					seen[e.SourceNodeID] = true
					queue = append(queue, e.SourceNodeID)
				}
			}
		}

		sort.Strings(members)
		cluster := "cl_" + members[0]
		for _, m := range members {
			assigned[m] = cluster
			s := scores[m]
			s.ClusterID = cluster
			scores[m] = s
		}
	}
	return count
}

func roundScore(f float64) float64 {
	return math.Round(f*1e9) / 1e9
}
