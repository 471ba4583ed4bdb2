package pgx

import (
	"context"

	"github.com/vantagecomms/vantage/backend/pkg/common"
	"github.com/vantagecomms/vantage/backend/pkg/graph"
	"github.com/vantagecomms/vantage/backend/pkg/logger"
)

// ExecuteMerge applies a merge plan atomically: the survivor is written,
// every edge touching a removed node is rewired onto the survivor, and the
// removed nodes are deleted. Edges that ran between two merged nodes would
// collapse into self-loops and are dropped instead. Parallel edges produced
// by rewiring are kept.
//
// Returns the stored survivor and the number of edges rewired.
func (s *GraphDBStore) ExecuteMerge(ctx context.Context, orgID string, plan *graph.MergePlan, actorID string) (*common.Node, int, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, 0, storageErr("merge nodes", err)
	}
	defer tx.Rollback(ctx)

	txStore := NewGraphDBStore(tx)

	survivor := plan.Survivor
	survivor.OrgID = orgID
	var saved *common.Node
	if plan.CreateNew {
		survivor.CreatedBy = actorID
		survivor.UpdatedBy = actorID
		if err := txStore.CreateNode(ctx, &survivor); err != nil {
			return nil, 0, err
		}
		saved = &survivor
	} else {
		survivor.UpdatedBy = actorID
		saved, err = txStore.UpdateNode(ctx, &survivor)
		if err != nil {
			return nil, 0, err
		}
	}

	merged := append([]string{saved.ID}, plan.RemovedIDs...)

	// Edges entirely inside the merged set would become self-loops.
	if _, err := tx.Exec(ctx,
		`DELETE FROM graph_edges
		 WHERE org_id = $1 AND source_node_id = ANY($2) AND target_node_id = ANY($2)`,
		orgID, merged,
	); err != nil {
		return nil, 0, storageErr("merge nodes: drop internal edges", err)
	}

	srcTag, err := tx.Exec(ctx,
		`UPDATE graph_edges SET source_node_id = $3, updated_by = $4, updated_at = now()
		 WHERE org_id = $1 AND source_node_id = ANY($2)`,
		orgID, plan.RemovedIDs, saved.ID, actorID,
	)
	if err != nil {
		return nil, 0, storageErr("merge nodes: rewire sources", err)
	}
	tgtTag, err := tx.Exec(ctx,
		`UPDATE graph_edges SET target_node_id = $3, updated_by = $4, updated_at = now()
		 WHERE org_id = $1 AND target_node_id = ANY($2)`,
		orgID, plan.RemovedIDs, saved.ID, actorID,
	)
	if err != nil {
		return nil, 0, storageErr("merge nodes: rewire targets", err)
	}
	rewired := int(srcTag.RowsAffected() + tgtTag.RowsAffected())

	if _, err := tx.Exec(ctx,
		`DELETE FROM graph_nodes WHERE org_id = $1 AND id = ANY($2)`,
		orgID, plan.RemovedIDs,
	); err != nil {
		return nil, 0, storageErr("merge nodes: remove sources", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, storageErr("merge nodes", err)
	}

	logger.Debug("[Store][ExecuteMerge] Merged nodes",
		"survivor", saved.ID, "removed", len(plan.RemovedIDs), "rewired", rewired)
	return saved, rewired, nil
}
