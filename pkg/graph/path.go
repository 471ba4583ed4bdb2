package graph

import (
	"math"
	"sort"

	"github.com/vantagecomms/vantage/backend/pkg/common"
)

// PathResult describes the shortest path found between two nodes.
type PathResult struct {
	StartNodeID string        `json:"start_node_id"`
	EndNodeID   string        `json:"end_node_id"`
	Nodes       []common.Node `json:"nodes"`
	Edges       []common.Edge `json:"edges"`
	PathLength  int           `json:"path_length"`
	TotalWeight float64       `json:"total_weight"`
}

// pathEntry is the best known way to reach a node at its minimal hop count.
type pathEntry struct {
	weight     float64
	parentNode string
	parentEdge string
}

// ShortestPath finds a minimal-hop path from startID to endID within
// maxDepth hops. Among candidates with equal hop count the one with the
// lower cumulative edge weight wins. A missing path is not an error: the
// result is nil, nil.
//
// Edges are traversed along their recorded direction; bidirectional edges
// are also traversed in reverse.
func (v *View) ShortestPath(startID, endID string, maxDepth int) (*PathResult, error) {
	if v.nodes[startID] == nil {
		return nil, common.NewReferenceError("start node not found")
	}
	if v.nodes[endID] == nil {
		return nil, common.NewReferenceError("end node not found")
	}
	if maxDepth <= 0 {
		maxDepth = 1
	}

	if startID == endID {
		return &PathResult{
			StartNodeID: startID,
			EndNodeID:   endID,
			Nodes:       []common.Node{*v.nodes[startID]},
			PathLength:  0,
		}, nil
	}

	// Layered BFS: settled holds the best entry per node at its minimal hop
	// count. Within a layer, lower cumulative weight wins the tie-break.
	settled := map[string]pathEntry{startID: {weight: 0}}
	frontier := []string{startID}

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		next := map[string]pathEntry{}
		for _, id := range frontier {
			cur := settled[id]
			for _, nb := range v.neighbors(id, DirectionBoth) {
				if !nb.edge.IsActive || !nb.node.IsActive {
					continue
				}
				if _, done := settled[nb.node.ID]; done {
					continue
				}
				w := cur.weight + nb.edge.Weight
				prev, seen := next[nb.node.ID]
				if seen && prev.weight <= w {
					continue
				}
				next[nb.node.ID] = pathEntry{weight: w, parentNode: id, parentEdge: nb.edge.ID}
			}
		}

		frontier = frontier[:0]
		for id, entry := range next {
			settled[id] = entry
			frontier = append(frontier, id)
		}
		// Expand the next layer in lexical order so that among equal-hop,
		// equal-weight candidates the same parent chain wins every run.
		sort.Strings(frontier)

		if _, found := settled[endID]; found {
			return v.assemblePath(startID, endID, settled), nil
		}
	}

	return nil, nil
}

func (v *View) assemblePath(startID, endID string, settled map[string]pathEntry) *PathResult {
	var nodeIDs, edgeIDs []string
	for cur := endID; ; {
		nodeIDs = append(nodeIDs, cur)
		if cur == startID {
			break
		}
		entry := settled[cur]
		edgeIDs = append(edgeIDs, entry.parentEdge)
		cur = entry.parentNode
	}
	reverse(nodeIDs)
	reverse(edgeIDs)

	result := &PathResult{
		StartNodeID: startID,
		EndNodeID:   endID,
		PathLength:  len(edgeIDs),
	}
	for _, id := range nodeIDs {
		result.Nodes = append(result.Nodes, *v.nodes[id])
	}
	total := 0.0
	for _, id := range edgeIDs {
		result.Edges = append(result.Edges, *v.edges[id])
		total += v.edges[id].Weight
	}
	result.TotalWeight = math.Round(total*1e9) / 1e9
	return result
}
