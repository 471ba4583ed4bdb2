package graph

import (
	"github.com/vantagecomms/vantage/backend/pkg/common"
)

const defaultVisitLimit = 100

// TraverseOptions bounds a breadth-first walk.
type TraverseOptions struct {
	Direction Direction
	MaxDepth  int
	NodeTypes []common.NodeType
	EdgeTypes []common.EdgeType
	Limit     int
}

// Path is an ordered node-id sequence with the edge ids between them.
type Path struct {
	NodeIDs []string `json:"node_ids"`
	EdgeIDs []string `json:"edge_ids"`
}

// TraverseResult is what a bounded BFS walk found.
type TraverseResult struct {
	StartNode    common.Node   `json:"start_node"`
	Nodes        []common.Node `json:"nodes"`
	Edges        []common.Edge `json:"edges"`
	Paths        []Path        `json:"paths"`
	TotalVisited int           `json:"total_visited"`
	DepthReached int           `json:"depth_reached"`
}

// Traverse walks breadth-first from startID. Visited nodes are never
// re-expanded, so the walk terminates after at most min(limit, graph size)
// expansions regardless of cycles. Expansion of a branch stops once MaxDepth
// is reached or the visited-node limit is hit.
func (v *View) Traverse(startID string, opts TraverseOptions) (*TraverseResult, error) {
	start := v.nodes[startID]
	if start == nil {
		return nil, common.NewReferenceError("start node not found")
	}
	if opts.Direction == "" {
		opts.Direction = DirectionBoth
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultVisitLimit
	}

	nodeTypeOK := typeSet(opts.NodeTypes)
	edgeTypeOK := edgeTypeSet(opts.EdgeTypes)

	type visit struct {
		nodeID string
		depth  int
	}

	visited := map[string]bool{startID: true}
	parentEdge := map[string]string{}
	parentNode := map[string]string{}
	hasChild := map[string]bool{}

	result := &TraverseResult{
		StartNode:    *start,
		Nodes:        []common.Node{*start},
		DepthReached: 0,
	}

	queue := []visit{{nodeID: startID, depth: 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.depth >= opts.MaxDepth {
			continue
		}

		for _, nb := range v.neighbors(cur.nodeID, opts.Direction) {
			if len(visited) >= opts.Limit {
				break
			}
			if edgeTypeOK != nil && !edgeTypeOK[nb.edge.Type] {
				continue
			}
			if !nb.edge.IsActive {
				continue
			}
			if visited[nb.node.ID] {
				continue
			}
			if nodeTypeOK != nil && !nodeTypeOK[nb.node.Type] {
				continue
			}
			if !nb.node.IsActive {
				continue
			}

			visited[nb.node.ID] = true
			parentEdge[nb.node.ID] = nb.edge.ID
			parentNode[nb.node.ID] = cur.nodeID
			hasChild[cur.nodeID] = true

			result.Nodes = append(result.Nodes, *nb.node)
			result.Edges = append(result.Edges, *nb.edge)
			if cur.depth+1 > result.DepthReached {
				result.DepthReached = cur.depth + 1
			}

			queue = append(queue, visit{nodeID: nb.node.ID, depth: cur.depth + 1})
		}
	}

	// One path per leaf of the BFS tree, root to leaf.
	for _, n := range result.Nodes {
		if n.ID == startID || hasChild[n.ID] {
			continue
		}
		result.Paths = append(result.Paths, buildPath(n.ID, startID, parentNode, parentEdge))
	}

	result.TotalVisited = len(visited)
	return result, nil
}

func buildPath(leafID, startID string, parentNode, parentEdge map[string]string) Path {
	var nodeIDs, edgeIDs []string
	for cur := leafID; ; {
		nodeIDs = append(nodeIDs, cur)
		if cur == startID {
			break
		}
		edgeIDs = append(edgeIDs, parentEdge[cur])
		cur = parentNode[cur]
	}
	reverse(nodeIDs)
	reverse(edgeIDs)
	return Path{NodeIDs: nodeIDs, EdgeIDs: edgeIDs}
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func typeSet(types []common.NodeType) map[common.NodeType]bool {
	if len(types) == 0 {
		return nil
	}
	set := make(map[common.NodeType]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}

func edgeTypeSet(types []common.EdgeType) map[common.EdgeType]bool {
	if len(types) == 0 {
		return nil
	}
	set := make(map[common.EdgeType]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}
