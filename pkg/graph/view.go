package graph

import (
	"sort"

	"github.com/vantagecomms/vantage/backend/pkg/common"
)

// View is a fixed point-in-time copy of one tenant's active graph, loaded
// once at the start of an operation. Mutations that land while an operation
// runs are not reflected; that staleness window is accepted.
type View struct {
	nodes map[string]*common.Node
	edges map[string]*common.Edge

	// adjacency by recorded edge direction
	out map[string][]*common.Edge
	in  map[string][]*common.Edge
}

// NewView builds a traversal view from a node/edge set. Edges referencing
// nodes outside the set are dropped rather than indexed, so a partial load
// never produces dangling adjacency entries.
func NewView(nodes []common.Node, edges []common.Edge) *View {
	v := &View{
		nodes: make(map[string]*common.Node, len(nodes)),
		edges: make(map[string]*common.Edge, len(edges)),
		out:   make(map[string][]*common.Edge),
		in:    make(map[string][]*common.Edge),
	}
	for i := range nodes {
		v.nodes[nodes[i].ID] = &nodes[i]
	}
	for i := range edges {
		e := &edges[i]
		if _, ok := v.nodes[e.SourceNodeID]; !ok {
			continue
		}
		if _, ok := v.nodes[e.TargetNodeID]; !ok {
			continue
		}
		v.edges[e.ID] = e
		v.out[e.SourceNodeID] = append(v.out[e.SourceNodeID], e)
		v.in[e.TargetNodeID] = append(v.in[e.TargetNodeID], e)
	}
	return v
}

// NodeCount returns the number of nodes in the view.
func (v *View) NodeCount() int { return len(v.nodes) }

// EdgeCount returns the number of edges in the view.
func (v *View) EdgeCount() int { return len(v.edges) }

// Node returns the node with the given id, or nil.
func (v *View) Node(id string) *common.Node { return v.nodes[id] }

// sortedNodeIDs returns all node ids in lexical order. Every algorithm that
// iterates the node set goes through this so results are deterministic for a
// fixed view.
func (v *View) sortedNodeIDs() []string {
	ids := make([]string, 0, len(v.nodes))
	for id := range v.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// neighbor describes one hop from a node: the edge taken and the node
// reached.
type neighbor struct {
	edge *common.Edge
	node *common.Node
}

// Direction selects which incident edges a traversal follows.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
	DirectionBoth     Direction = "both"
)

// neighbors expands one node along edges matching the direction. With
// DirectionBoth, an edge is only followed against its recorded direction
// when it is marked bidirectional.
func (v *View) neighbors(nodeID string, dir Direction) []neighbor {
	var out []neighbor

	if dir == DirectionOutgoing || dir == DirectionBoth {
		for _, e := range v.out[nodeID] {
			out = append(out, neighbor{edge: e, node: v.nodes[e.TargetNodeID]})
		}
	}
	if dir == DirectionIncoming {
		for _, e := range v.in[nodeID] {
			out = append(out, neighbor{edge: e, node: v.nodes[e.SourceNodeID]})
		}
	}
	if dir == DirectionBoth {
		for _, e := range v.in[nodeID] {
			if !e.Bidirectional {
				continue
			}
			if e.SourceNodeID == e.TargetNodeID {
				// self-loop already covered by the outgoing pass
				continue
			}
			out = append(out, neighbor{edge: e, node: v.nodes[e.SourceNodeID]})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].node.ID != out[j].node.ID {
			return out[i].node.ID < out[j].node.ID
		}
		return out[i].edge.ID < out[j].edge.ID
	})
	return out
}

// undirectedNeighbors expands one node along every incident edge, ignoring
// the recorded direction and the bidirectional flag. Centrality treats the
// graph as undirected.
func (v *View) undirectedNeighbors(nodeID string) []neighbor {
	var out []neighbor
	for _, e := range v.out[nodeID] {
		out = append(out, neighbor{edge: e, node: v.nodes[e.TargetNodeID]})
	}
	for _, e := range v.in[nodeID] {
		if e.SourceNodeID == e.TargetNodeID {
			// self-loop already covered by the outgoing pass
			continue
		}
		out = append(out, neighbor{edge: e, node: v.nodes[e.SourceNodeID]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].node.ID != out[j].node.ID {
			return out[i].node.ID < out[j].node.ID
		}
		return out[i].edge.ID < out[j].edge.ID
	})
	return out
}
