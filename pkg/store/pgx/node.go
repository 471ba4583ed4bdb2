package pgx

import (
	"context"
	"fmt"
	"strings"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/vantagecomms/vantage/backend/pkg/common"
	"github.com/vantagecomms/vantage/backend/pkg/logger"
	"github.com/vantagecomms/vantage/backend/pkg/store"
)

const nodeColumns = `id, org_id, type, label, description,
	source_system, source_table, external_id,
	properties, tags, categories,
	valid_from, valid_to,
	degree_centrality, betweenness_centrality, closeness_centrality,
	importance, cluster_id,
	is_active, confidence,
	created_at, updated_at, created_by, updated_by`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*common.Node, error) {
	var n common.Node
	err := row.Scan(
		&n.ID, &n.OrgID, &n.Type, &n.Label, &n.Description,
		&n.SourceSystem, &n.SourceTable, &n.ExternalID,
		&n.Properties, &n.Tags, &n.Categories,
		&n.ValidFrom, &n.ValidTo,
		&n.Degree, &n.Betweenness, &n.Closeness,
		&n.Importance, &n.ClusterID,
		&n.IsActive, &n.Confidence,
		&n.CreatedAt, &n.UpdatedAt, &n.CreatedBy, &n.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	n.Normalize()
	return &n, nil
}

// CreateNode inserts a new node. The caller assigns the id and has already
// validated the type against the closed set.
func (s *GraphDBStore) CreateNode(ctx context.Context, node *common.Node) error {
	node.Normalize()
	_, err := s.conn.Exec(ctx, `
		INSERT INTO graph_nodes (
			id, org_id, type, label, description,
			source_system, source_table, external_id,
			properties, tags, categories,
			valid_from, valid_to, is_active, confidence,
			created_by, updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)`,
		node.ID, node.OrgID, node.Type, node.Label, node.Description,
		node.SourceSystem, node.SourceTable, node.ExternalID,
		node.Properties, node.Tags, node.Categories,
		node.ValidFrom, node.ValidTo, node.IsActive, node.Confidence,
		node.CreatedBy,
	)
	if err != nil {
		return storageErr("create node", err)
	}
	return nil
}

func (s *GraphDBStore) GetNode(ctx context.Context, orgID, nodeID string) (*common.Node, error) {
	row := s.conn.QueryRow(ctx,
		`SELECT `+nodeColumns+` FROM graph_nodes WHERE org_id = $1 AND id = $2`,
		orgID, nodeID,
	)
	n, err := scanNode(row)
	if err != nil {
		return nil, storageErr("get node", err)
	}
	return n, nil
}

// GetNodeConnections returns the node with every incident edge and the node
// on the far side of each. Inactive neighbors are included; filtering is a
// traversal concern, not a lookup concern.
func (s *GraphDBStore) GetNodeConnections(ctx context.Context, orgID, nodeID string) (*common.NodeConnections, error) {
	node, err := s.GetNode(ctx, orgID, nodeID)
	if err != nil {
		return nil, err
	}

	rows, err := s.conn.Query(ctx,
		`SELECT `+prefixColumns("e", edgeColumns)+`
		 FROM graph_edges e
		 WHERE e.org_id = $1 AND (e.source_node_id = $2 OR e.target_node_id = $2)
		 ORDER BY e.created_at, e.id`,
		orgID, nodeID,
	)
	if err != nil {
		return nil, storageErr("get node connections", err)
	}
	edges, err := collectEdges(rows)
	if err != nil {
		return nil, storageErr("get node connections", err)
	}

	neighborIDs := make([]string, 0, len(edges))
	seen := map[string]bool{nodeID: true}
	for _, e := range edges {
		other := e.TargetNodeID
		if other == nodeID {
			other = e.SourceNodeID
		}
		if !seen[other] {
			seen[other] = true
			neighborIDs = append(neighborIDs, other)
		}
	}

	conns := &common.NodeConnections{Node: *node, Edges: edges, Neighbors: []common.Node{}}
	if len(neighborIDs) == 0 {
		return conns, nil
	}

	nrows, err := s.conn.Query(ctx,
		`SELECT `+nodeColumns+` FROM graph_nodes
		 WHERE org_id = $1 AND id = ANY($2) ORDER BY id`,
		orgID, neighborIDs,
	)
	if err != nil {
		return nil, storageErr("get node connections", err)
	}
	conns.Neighbors, err = collectNodes(nrows)
	if err != nil {
		return nil, storageErr("get node connections", err)
	}
	return conns, nil
}

// UpdateNode overwrites the mutable fields of a node and returns the stored
// row. Type and org are immutable after creation.
func (s *GraphDBStore) UpdateNode(ctx context.Context, node *common.Node) (*common.Node, error) {
	node.Normalize()
	row := s.conn.QueryRow(ctx, `
		UPDATE graph_nodes SET
			label = $3, description = $4,
			source_system = $5, source_table = $6, external_id = $7,
			properties = $8, tags = $9, categories = $10,
			valid_from = $11, valid_to = $12,
			is_active = $13, confidence = $14,
			updated_by = $15, updated_at = now()
		WHERE org_id = $1 AND id = $2
		RETURNING `+nodeColumns,
		node.OrgID, node.ID,
		node.Label, node.Description,
		node.SourceSystem, node.SourceTable, node.ExternalID,
		node.Properties, node.Tags, node.Categories,
		node.ValidFrom, node.ValidTo,
		node.IsActive, node.Confidence,
		node.UpdatedBy,
	)
	updated, err := scanNode(row)
	if err != nil {
		return nil, storageErr("update node", err)
	}
	return updated, nil
}

// DeleteNode removes a node and cascades to every incident edge inside one
// transaction. Returns the number of edges removed with it.
func (s *GraphDBStore) DeleteNode(ctx context.Context, orgID, nodeID, actorID string) (int, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return 0, storageErr("delete node", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`DELETE FROM graph_edges
		 WHERE org_id = $1 AND (source_node_id = $2 OR target_node_id = $2)`,
		orgID, nodeID,
	)
	if err != nil {
		return 0, storageErr("delete node edges", err)
	}
	edgesRemoved := int(tag.RowsAffected())

	ntag, err := tx.Exec(ctx,
		`DELETE FROM graph_nodes WHERE org_id = $1 AND id = $2`,
		orgID, nodeID,
	)
	if err != nil {
		return 0, storageErr("delete node", err)
	}
	if ntag.RowsAffected() == 0 {
		return 0, common.NewReferenceError("delete node: not found")
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, storageErr("delete node", err)
	}
	logger.Debug("[Store][DeleteNode] Removed node", "node", nodeID, "edges", edgesRemoved)
	return edgesRemoved, nil
}

// nodeFilterWhere builds the WHERE conditions and argument list shared by
// the node list and aggregation queries. Positional parameters start at $1.
func nodeFilterWhere(orgID string, filter common.NodeFilter) ([]string, []any) {
	where := []string{"org_id = $1"}
	args := []any{orgID}

	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		args = append(args, types)
		where = append(where, fmt.Sprintf("type = ANY($%d)", len(args)))
	}
	if len(filter.Tags) > 0 {
		args = append(args, filter.Tags)
		where = append(where, fmt.Sprintf("tags && $%d", len(args)))
	}
	if len(filter.Categories) > 0 {
		args = append(args, filter.Categories)
		where = append(where, fmt.Sprintf("categories && $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("(label ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if filter.ActiveOnly {
		where = append(where, "is_active")
	}
	return where, args
}

// ListNodes returns a filtered page of nodes plus the total match count.
func (s *GraphDBStore) ListNodes(ctx context.Context, orgID string, filter common.NodeFilter) ([]common.Node, int, error) {
	where, args := nodeFilterWhere(orgID, filter)

	args = append(args, defaultLimit(filter.Limit, 50))
	limitPos := len(args)
	args = append(args, filter.Offset)
	offsetPos := len(args)

	query := fmt.Sprintf(
		`SELECT %s, COUNT(*) OVER() AS total
		 FROM graph_nodes
		 WHERE %s
		 ORDER BY created_at DESC, id
		 LIMIT $%d OFFSET $%d`,
		nodeColumns, strings.Join(where, " AND "), limitPos, offsetPos,
	)

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, storageErr("list nodes", err)
	}
	defer rows.Close()

	nodes := []common.Node{}
	total := 0
	for rows.Next() {
		var n common.Node
		err := rows.Scan(
			&n.ID, &n.OrgID, &n.Type, &n.Label, &n.Description,
			&n.SourceSystem, &n.SourceTable, &n.ExternalID,
			&n.Properties, &n.Tags, &n.Categories,
			&n.ValidFrom, &n.ValidTo,
			&n.Degree, &n.Betweenness, &n.Closeness,
			&n.Importance, &n.ClusterID,
			&n.IsActive, &n.Confidence,
			&n.CreatedAt, &n.UpdatedAt, &n.CreatedBy, &n.UpdatedBy,
			&total,
		)
		if err != nil {
			return nil, 0, storageErr("list nodes", err)
		}
		n.Normalize()
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storageErr("list nodes", err)
	}
	return nodes, total, nil
}

// CountNodesBy aggregates the filter's matches into per-group counts over a
// whitelisted field. The field is resolved to a column expression through
// store.NodeGroupColumn, never interpolated from caller input.
func (s *GraphDBStore) CountNodesBy(ctx context.Context, orgID string, filter common.NodeFilter, groupBy string) (map[string]int, error) {
	col, ok := store.NodeGroupColumn(groupBy)
	if !ok {
		return nil, common.NewValidationError("unknown group-by field: %s", groupBy)
	}

	where, args := nodeFilterWhere(orgID, filter)
	query := fmt.Sprintf(
		`SELECT %s AS grp, COUNT(*)
		 FROM graph_nodes
		 WHERE %s
		 GROUP BY grp
		 ORDER BY grp`,
		col, strings.Join(where, " AND "),
	)

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr("count nodes by "+groupBy, err)
	}
	defer rows.Close()

	groups := map[string]int{}
	for rows.Next() {
		var grp string
		var count int
		if err := rows.Scan(&grp, &count); err != nil {
			return nil, storageErr("count nodes by "+groupBy, err)
		}
		groups[grp] = count
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("count nodes by "+groupBy, err)
	}
	return groups, nil
}

func collectNodes(rows pgxv5.Rows) ([]common.Node, error) {
	defer rows.Close()
	nodes := []common.Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, *n)
	}
	return nodes, rows.Err()
}

// prefixColumns qualifies a comma-separated column list with a table alias.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
