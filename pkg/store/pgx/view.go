package pgx

import (
	"context"

	"github.com/vantagecomms/vantage/backend/pkg/common"
	"github.com/vantagecomms/vantage/backend/pkg/graph"
)

// LoadView reads the tenant's active nodes and edges into an in-memory
// traversal view. The two reads are plain snapshots; an operation sees the
// graph as of its own load, not of concurrent writes.
func (s *GraphDBStore) LoadView(ctx context.Context, orgID string) (*graph.View, error) {
	nrows, err := s.conn.Query(ctx,
		`SELECT `+nodeColumns+` FROM graph_nodes
		 WHERE org_id = $1 AND is_active ORDER BY id`,
		orgID,
	)
	if err != nil {
		return nil, storageErr("load view nodes", err)
	}
	nodes, err := collectNodes(nrows)
	if err != nil {
		return nil, storageErr("load view nodes", err)
	}

	erows, err := s.conn.Query(ctx,
		`SELECT `+edgeColumns+` FROM graph_edges
		 WHERE org_id = $1 AND is_active ORDER BY id`,
		orgID,
	)
	if err != nil {
		return nil, storageErr("load view edges", err)
	}
	edges, err := collectEdges(erows)
	if err != nil {
		return nil, storageErr("load view edges", err)
	}

	return graph.NewView(nodes, edges), nil
}

// ActiveGraph returns the tenant's active nodes and edges as slices, used
// for snapshot payloads where the raw rows matter more than adjacency.
func (s *GraphDBStore) ActiveGraph(ctx context.Context, orgID string) ([]common.Node, []common.Edge, error) {
	nrows, err := s.conn.Query(ctx,
		`SELECT `+nodeColumns+` FROM graph_nodes
		 WHERE org_id = $1 AND is_active ORDER BY id`,
		orgID,
	)
	if err != nil {
		return nil, nil, storageErr("load graph nodes", err)
	}
	nodes, err := collectNodes(nrows)
	if err != nil {
		return nil, nil, storageErr("load graph nodes", err)
	}

	erows, err := s.conn.Query(ctx,
		`SELECT `+edgeColumns+` FROM graph_edges
		 WHERE org_id = $1 AND is_active ORDER BY id`,
		orgID,
	)
	if err != nil {
		return nil, nil, storageErr("load graph edges", err)
	}
	edges, err := collectEdges(erows)
	if err != nil {
		return nil, nil, storageErr("load graph edges", err)
	}
	return nodes, edges, nil
}
