package pgx

import (
	"context"

	"github.com/vantagecomms/vantage/backend/pkg/common"
	"github.com/vantagecomms/vantage/backend/pkg/graph"
	"github.com/vantagecomms/vantage/backend/pkg/logger"
	"github.com/vantagecomms/vantage/backend/pkg/store"
)

// UpdateNodeScores writes a metrics pass back onto the node rows in chunks,
// all inside one transaction so a half-applied pass never becomes visible.
func (s *GraphDBStore) UpdateNodeScores(ctx context.Context, orgID string, scores map[string]graph.NodeScores) (int, error) {
	if len(scores) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return 0, storageErr("update node scores", err)
	}
	defer tx.Rollback(ctx)

	updated := 0
	err = store.ChunkRange(len(ids), 500, func(start, end int) error {
		chunk := ids[start:end]
		degrees := make([]float64, len(chunk))
		betweenness := make([]float64, len(chunk))
		closeness := make([]float64, len(chunk))
		importance := make([]float64, len(chunk))
		clusters := make([]*string, len(chunk))
		for i, id := range chunk {
			sc := scores[id]
			degrees[i] = sc.Degree
			betweenness[i] = sc.Betweenness
			closeness[i] = sc.Closeness
			importance[i] = sc.Importance
			if sc.ClusterID != "" {
				c := sc.ClusterID
				clusters[i] = &c
			}
		}

		tag, err := tx.Exec(ctx, `
			UPDATE graph_nodes AS n SET
				degree_centrality = v.degree,
				betweenness_centrality = v.betweenness,
				closeness_centrality = v.closeness,
				importance = v.importance,
				cluster_id = v.cluster_id,
				updated_at = now()
			FROM (
				SELECT * FROM unnest(
					$2::text[], $3::float8[], $4::float8[], $5::float8[], $6::float8[], $7::text[]
				) AS t(id, degree, betweenness, closeness, importance, cluster_id)
			) AS v
			WHERE n.org_id = $1 AND n.id = v.id`,
			orgID, chunk, degrees, betweenness, closeness, importance, clusters,
		)
		if err != nil {
			return err
		}
		updated += int(tag.RowsAffected())
		return nil
	})
	if err != nil {
		return 0, storageErr("update node scores", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, storageErr("update node scores", err)
	}
	logger.Debug("[Store][UpdateNodeScores] Applied metrics pass", "nodes", updated)
	return updated, nil
}

// SaveGraphMetrics upserts the single graph-level metrics row per tenant.
func (s *GraphDBStore) SaveGraphMetrics(ctx context.Context, orgID string, m common.GraphMetrics) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO graph_metrics (
			org_id, total_nodes, total_edges, density, avg_degree,
			cluster_count, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (org_id) DO UPDATE SET
			total_nodes = EXCLUDED.total_nodes,
			total_edges = EXCLUDED.total_edges,
			density = EXCLUDED.density,
			avg_degree = EXCLUDED.avg_degree,
			cluster_count = EXCLUDED.cluster_count,
			computed_at = EXCLUDED.computed_at`,
		orgID, m.TotalNodes, m.TotalEdges, m.Density, m.AvgDegree,
		m.ClusterCount, m.ComputedAt,
	)
	if err != nil {
		return storageErr("save graph metrics", err)
	}
	return nil
}

// GetGraphMetrics returns the last stored metrics row for the tenant, or a
// reference error if no pass has run yet.
func (s *GraphDBStore) GetGraphMetrics(ctx context.Context, orgID string) (*common.GraphMetrics, error) {
	var m common.GraphMetrics
	err := s.conn.QueryRow(ctx, `
		SELECT total_nodes, total_edges, density, avg_degree, cluster_count, computed_at
		FROM graph_metrics WHERE org_id = $1`,
		orgID,
	).Scan(&m.TotalNodes, &m.TotalEdges, &m.Density, &m.AvgDegree, &m.ClusterCount, &m.ComputedAt)
	if err != nil {
		return nil, storageErr("get graph metrics", err)
	}
	return &m, nil
}
