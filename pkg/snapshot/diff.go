package snapshot

import (
	"encoding/json"

	"github.com/vantagecomms/vantage/backend/pkg/common"
)

// nodeContent is the slice of a node that counts as "content" for diffing.
// Derived metrics and bookkeeping timestamps deliberately stay out; a
// metrics pass alone does not make a node "modified".
type nodeContent struct {
	Label       string         `json:"label"`
	Description string         `json:"description"`
	Properties  map[string]any `json:"properties"`
	Tags        []string       `json:"tags"`
	Categories  []string       `json:"categories"`
	IsActive    bool           `json:"is_active"`
}

type edgeContent struct {
	Label         string         `json:"label"`
	Description   string         `json:"description"`
	Properties    map[string]any `json:"properties"`
	Weight        float64        `json:"weight"`
	Bidirectional bool           `json:"bidirectional"`
	IsActive      bool           `json:"is_active"`
}

func nodeFingerprint(n common.Node) string {
	n.Normalize()
	b, _ := json.Marshal(nodeContent{
		Label:       n.Label,
		Description: n.Description,
		Properties:  n.Properties,
		Tags:        n.Tags,
		Categories:  n.Categories,
		IsActive:    n.IsActive,
	})
	return string(b)
}

func edgeFingerprint(e common.Edge) string {
	e.Normalize()
	b, _ := json.Marshal(edgeContent{
		Label:         e.Label,
		Description:   e.Description,
		Properties:    e.Properties,
		Weight:        e.Weight,
		Bidirectional: e.Bidirectional,
		IsActive:      e.IsActive,
	})
	return string(b)
}

// ComputeDiff compares two snapshot payloads by id and reports added,
// removed, and content-modified nodes and edges, broken down by type.
func ComputeDiff(prev, cur *common.SnapshotPayload) *common.SnapshotDiff {
	diff := &common.SnapshotDiff{
		NodesAdded:    map[common.NodeType]int{},
		NodesRemoved:  map[common.NodeType]int{},
		NodesModified: map[common.NodeType]int{},
		EdgesAdded:    map[common.EdgeType]int{},
		EdgesRemoved:  map[common.EdgeType]int{},
		EdgesModified: map[common.EdgeType]int{},
	}

	prevNodes := make(map[string]common.Node, len(prev.Nodes))
	for _, n := range prev.Nodes {
		prevNodes[n.ID] = n
	}
	for _, n := range cur.Nodes {
		old, ok := prevNodes[n.ID]
		if !ok {
			diff.NodesAdded[n.Type]++
			continue
		}
		delete(prevNodes, n.ID)
		if nodeFingerprint(old) != nodeFingerprint(n) {
			diff.NodesModified[n.Type]++
		}
	}
	for _, n := range prevNodes {
		diff.NodesRemoved[n.Type]++
	}

	prevEdges := make(map[string]common.Edge, len(prev.Edges))
	for _, e := range prev.Edges {
		prevEdges[e.ID] = e
	}
	for _, e := range cur.Edges {
		old, ok := prevEdges[e.ID]
		if !ok {
			diff.EdgesAdded[e.Type]++
			continue
		}
		delete(prevEdges, e.ID)
		if edgeFingerprint(old) != edgeFingerprint(e) {
			diff.EdgesModified[e.Type]++
		}
	}
	for _, e := range prevEdges {
		diff.EdgesRemoved[e.Type]++
	}

	return diff
}
