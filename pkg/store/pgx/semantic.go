package pgx

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"github.com/vantagecomms/vantage/backend/pkg/common"
)

// UpsertNodeEmbedding stores the semantic-search embedding for one node.
func (s *GraphDBStore) UpsertNodeEmbedding(ctx context.Context, orgID, nodeID string, embedding []float32) error {
	tag, err := s.conn.Exec(ctx,
		`UPDATE graph_nodes SET embedding = $3, updated_at = now()
		 WHERE org_id = $1 AND id = $2`,
		orgID, nodeID, pgvector.NewVector(embedding),
	)
	if err != nil {
		return storageErr("upsert node embedding", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewReferenceError("upsert node embedding: node not found")
	}
	return nil
}

// ListNodesMissingEmbedding returns active nodes whose embedding was never
// stored, oldest first. The worker uses this to backfill nodes whose
// best-effort embedding at create time failed.
func (s *GraphDBStore) ListNodesMissingEmbedding(ctx context.Context, orgID string, limit int) ([]common.Node, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT `+nodeColumns+` FROM graph_nodes
		 WHERE org_id = $1 AND is_active AND embedding IS NULL
		 ORDER BY created_at, id
		 LIMIT $2`,
		orgID, defaultLimit(limit, 100),
	)
	if err != nil {
		return nil, storageErr("list nodes missing embedding", err)
	}
	nodes, err := collectNodes(rows)
	if err != nil {
		return nil, storageErr("list nodes missing embedding", err)
	}
	return nodes, nil
}

// SearchNodesByEmbedding returns the active nodes closest to the query
// embedding by cosine distance, with their similarity scores in [0, 1].
func (s *GraphDBStore) SearchNodesByEmbedding(ctx context.Context, orgID string, embedding []float32, limit int) ([]common.Node, []float64, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT `+nodeColumns+`, 1 - (embedding <=> $2) AS similarity
		 FROM graph_nodes
		 WHERE org_id = $1 AND is_active AND embedding IS NOT NULL
		 ORDER BY embedding <=> $2
		 LIMIT $3`,
		orgID, pgvector.NewVector(embedding), defaultLimit(limit, 10),
	)
	if err != nil {
		return nil, nil, storageErr("semantic search", err)
	}
	defer rows.Close()

	nodes := []common.Node{}
	scores := []float64{}
	for rows.Next() {
		var (
			n   common.Node
			sim float64
		)
		err := rows.Scan(
			&n.ID, &n.OrgID, &n.Type, &n.Label, &n.Description,
			&n.SourceSystem, &n.SourceTable, &n.ExternalID,
			&n.Properties, &n.Tags, &n.Categories,
			&n.ValidFrom, &n.ValidTo,
			&n.Degree, &n.Betweenness, &n.Closeness,
			&n.Importance, &n.ClusterID,
			&n.IsActive, &n.Confidence,
			&n.CreatedAt, &n.UpdatedAt, &n.CreatedBy, &n.UpdatedBy,
			&sim,
		)
		if err != nil {
			return nil, nil, storageErr("semantic search", err)
		}
		n.Normalize()
		nodes = append(nodes, n)
		scores = append(scores, sim)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, storageErr("semantic search", err)
	}
	return nodes, scores, nil
}
