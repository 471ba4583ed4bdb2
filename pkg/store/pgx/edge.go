package pgx

import (
	"context"
	"fmt"
	"strings"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/vantagecomms/vantage/backend/pkg/common"
)

const edgeColumns = `id, org_id, type, source_node_id, target_node_id,
	label, description, properties, weight, bidirectional,
	valid_from, valid_to,
	source_system, inference_method, confidence, is_active,
	created_at, updated_at, created_by, updated_by`

func scanEdge(row rowScanner) (*common.Edge, error) {
	var e common.Edge
	err := row.Scan(
		&e.ID, &e.OrgID, &e.Type, &e.SourceNodeID, &e.TargetNodeID,
		&e.Label, &e.Description, &e.Properties, &e.Weight, &e.Bidirectional,
		&e.ValidFrom, &e.ValidTo,
		&e.SourceSystem, &e.InferenceMethod, &e.Confidence, &e.IsActive,
		&e.CreatedAt, &e.UpdatedAt, &e.CreatedBy, &e.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	e.Normalize()
	return &e, nil
}

// CreateEdge inserts a new edge after confirming both endpoints exist in the
// same organization. The endpoint check and insert share one transaction so
// a concurrent node delete cannot slip between them.
func (s *GraphDBStore) CreateEdge(ctx context.Context, edge *common.Edge) error {
	edge.Normalize()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return storageErr("create edge", err)
	}
	defer tx.Rollback(ctx)

	var found int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM graph_nodes
		 WHERE org_id = $1 AND id = ANY($2)`,
		edge.OrgID, []string{edge.SourceNodeID, edge.TargetNodeID},
	).Scan(&found)
	if err != nil {
		return storageErr("create edge", err)
	}
	want := 2
	if edge.SourceNodeID == edge.TargetNodeID {
		want = 1
	}
	if found < want {
		return common.NewReferenceError("source or target node not found")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO graph_edges (
			id, org_id, type, source_node_id, target_node_id,
			label, description, properties, weight, bidirectional,
			valid_from, valid_to,
			source_system, inference_method, confidence, is_active,
			created_by, updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17)`,
		edge.ID, edge.OrgID, edge.Type, edge.SourceNodeID, edge.TargetNodeID,
		edge.Label, edge.Description, edge.Properties, edge.Weight, edge.Bidirectional,
		edge.ValidFrom, edge.ValidTo,
		edge.SourceSystem, edge.InferenceMethod, edge.Confidence, edge.IsActive,
		edge.CreatedBy,
	)
	if err != nil {
		return storageErr("create edge", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return storageErr("create edge", err)
	}
	return nil
}

// GetEdge returns the edge together with both endpoint nodes.
func (s *GraphDBStore) GetEdge(ctx context.Context, orgID, edgeID string) (*common.EdgeWithNodes, error) {
	row := s.conn.QueryRow(ctx,
		`SELECT `+edgeColumns+` FROM graph_edges WHERE org_id = $1 AND id = $2`,
		orgID, edgeID,
	)
	edge, err := scanEdge(row)
	if err != nil {
		return nil, storageErr("get edge", err)
	}

	source, err := s.GetNode(ctx, orgID, edge.SourceNodeID)
	if err != nil {
		return nil, err
	}
	target := source
	if edge.TargetNodeID != edge.SourceNodeID {
		target, err = s.GetNode(ctx, orgID, edge.TargetNodeID)
		if err != nil {
			return nil, err
		}
	}
	return &common.EdgeWithNodes{Edge: *edge, SourceNode: *source, TargetNode: *target}, nil
}

// UpdateEdge overwrites the mutable fields of an edge. Endpoints, type, and
// org are immutable after creation.
func (s *GraphDBStore) UpdateEdge(ctx context.Context, edge *common.Edge) (*common.Edge, error) {
	edge.Normalize()
	row := s.conn.QueryRow(ctx, `
		UPDATE graph_edges SET
			label = $3, description = $4, properties = $5,
			weight = $6, bidirectional = $7,
			valid_from = $8, valid_to = $9,
			inference_method = $10, confidence = $11, is_active = $12,
			updated_by = $13, updated_at = now()
		WHERE org_id = $1 AND id = $2
		RETURNING `+edgeColumns,
		edge.OrgID, edge.ID,
		edge.Label, edge.Description, edge.Properties,
		edge.Weight, edge.Bidirectional,
		edge.ValidFrom, edge.ValidTo,
		edge.InferenceMethod, edge.Confidence, edge.IsActive,
		edge.UpdatedBy,
	)
	updated, err := scanEdge(row)
	if err != nil {
		return nil, storageErr("update edge", err)
	}
	return updated, nil
}

func (s *GraphDBStore) DeleteEdge(ctx context.Context, orgID, edgeID string) error {
	tag, err := s.conn.Exec(ctx,
		`DELETE FROM graph_edges WHERE org_id = $1 AND id = $2`,
		orgID, edgeID,
	)
	if err != nil {
		return storageErr("delete edge", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewReferenceError("delete edge: not found")
	}
	return nil
}

// ListEdges returns a filtered page of edges plus the total match count.
func (s *GraphDBStore) ListEdges(ctx context.Context, orgID string, filter common.EdgeFilter) ([]common.Edge, int, error) {
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
	if filter.MinWeight != nil {
		args = append(args, *filter.MinWeight)
		where = append(where, fmt.Sprintf("weight >= $%d", len(args)))
	}
	if filter.MaxWeight != nil {
		args = append(args, *filter.MaxWeight)
		where = append(where, fmt.Sprintf("weight <= $%d", len(args)))
	}
	if filter.SourceOrTargetID != "" {
		args = append(args, filter.SourceOrTargetID)
		where = append(where, fmt.Sprintf("(source_node_id = $%d OR target_node_id = $%d)", len(args), len(args)))
	}
	if filter.ActiveOnly {
		where = append(where, "is_active")
	}

	args = append(args, defaultLimit(filter.Limit, 50))
	limitPos := len(args)
	args = append(args, filter.Offset)
	offsetPos := len(args)

	query := fmt.Sprintf(
		`SELECT %s, COUNT(*) OVER() AS total
		 FROM graph_edges
		 WHERE %s
		 ORDER BY created_at DESC, id
		 LIMIT $%d OFFSET $%d`,
		edgeColumns, strings.Join(where, " AND "), limitPos, offsetPos,
	)

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, storageErr("list edges", err)
	}
	defer rows.Close()

	edges := []common.Edge{}
	total := 0
	for rows.Next() {
		var e common.Edge
		err := rows.Scan(
			&e.ID, &e.OrgID, &e.Type, &e.SourceNodeID, &e.TargetNodeID,
			&e.Label, &e.Description, &e.Properties, &e.Weight, &e.Bidirectional,
			&e.ValidFrom, &e.ValidTo,
			&e.SourceSystem, &e.InferenceMethod, &e.Confidence, &e.IsActive,
			&e.CreatedAt, &e.UpdatedAt, &e.CreatedBy, &e.UpdatedBy,
			&total,
		)
		if err != nil {
			return nil, 0, storageErr("list edges", err)
		}
		e.Normalize()
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storageErr("list edges", err)
	}
	return edges, total, nil
}

func collectEdges(rows pgxv5.Rows) ([]common.Edge, error) {
	defer rows.Close()
	edges := []common.Edge{}
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, *e)
	}
	return edges, rows.Err()
}
