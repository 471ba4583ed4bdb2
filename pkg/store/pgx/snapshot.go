package pgx

import (
	"context"
	"fmt"
	"strings"

	"github.com/vantagecomms/vantage/backend/pkg/common"
)

const snapshotColumns = `id, org_id, name, description, type, status,
	node_count, edge_count, cluster_count,
	payload, storage_key, metrics,
	previous_snapshot_id, diff,
	started_at, completed_at, error_message,
	created_at, created_by`

func scanSnapshot(row rowScanner) (*common.Snapshot, error) {
	var (
		snap     common.Snapshot
		previous *string
	)
	err := row.Scan(
		&snap.ID, &snap.OrgID, &snap.Name, &snap.Description, &snap.Type, &snap.Status,
		&snap.NodeCount, &snap.EdgeCount, &snap.ClusterCount,
		&snap.Payload, &snap.StorageKey, &snap.Metrics,
		&previous, &snap.Diff,
		&snap.StartedAt, &snap.CompletedAt, &snap.ErrorMessage,
		&snap.CreatedAt, &snap.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	if previous != nil {
		snap.PreviousSnapshotID = *previous
	}
	return &snap, nil
}

// CreateSnapshot inserts a new snapshot record in pending state.
func (s *GraphDBStore) CreateSnapshot(ctx context.Context, snap *common.Snapshot) error {
	var previous *string
	if snap.PreviousSnapshotID != "" {
		previous = &snap.PreviousSnapshotID
	}
	_, err := s.conn.Exec(ctx, `
		INSERT INTO graph_snapshots (
			id, org_id, name, description, type, status,
			previous_snapshot_id, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		snap.ID, snap.OrgID, snap.Name, snap.Description, snap.Type, snap.Status,
		previous, snap.CreatedBy,
	)
	if err != nil {
		return storageErr("create snapshot", err)
	}
	return nil
}

func (s *GraphDBStore) GetSnapshot(ctx context.Context, orgID, snapshotID string) (*common.Snapshot, error) {
	row := s.conn.QueryRow(ctx,
		`SELECT `+snapshotColumns+` FROM graph_snapshots WHERE org_id = $1 AND id = $2`,
		orgID, snapshotID,
	)
	snap, err := scanSnapshot(row)
	if err != nil {
		return nil, storageErr("get snapshot", err)
	}
	return snap, nil
}

// ListSnapshots returns a filtered page of snapshots, newest first, without
// payload bytes.
func (s *GraphDBStore) ListSnapshots(ctx context.Context, orgID string, filter common.SnapshotFilter) ([]common.Snapshot, int, error) {
	where := []string{"org_id = $1"}
	args := []any{orgID}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}

	args = append(args, defaultLimit(filter.Limit, 20))
	limitPos := len(args)
	args = append(args, filter.Offset)
	offsetPos := len(args)

	query := fmt.Sprintf(`
		SELECT id, org_id, name, description, type, status,
			node_count, edge_count, cluster_count,
			storage_key, metrics, previous_snapshot_id, diff,
			started_at, completed_at, error_message,
			created_at, created_by,
			COUNT(*) OVER() AS total
		FROM graph_snapshots
		WHERE %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`,
		strings.Join(where, " AND "), limitPos, offsetPos,
	)

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, storageErr("list snapshots", err)
	}
	defer rows.Close()

	snaps := []common.Snapshot{}
	total := 0
	for rows.Next() {
		var (
			snap     common.Snapshot
			previous *string
		)
		err := rows.Scan(
			&snap.ID, &snap.OrgID, &snap.Name, &snap.Description, &snap.Type, &snap.Status,
			&snap.NodeCount, &snap.EdgeCount, &snap.ClusterCount,
			&snap.StorageKey, &snap.Metrics, &previous, &snap.Diff,
			&snap.StartedAt, &snap.CompletedAt, &snap.ErrorMessage,
			&snap.CreatedAt, &snap.CreatedBy,
			&total,
		)
		if err != nil {
			return nil, 0, storageErr("list snapshots", err)
		}
		if previous != nil {
			snap.PreviousSnapshotID = *previous
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storageErr("list snapshots", err)
	}
	return snaps, total, nil
}

// LatestCompleteSnapshot returns the most recent complete snapshot for the
// tenant, or nil when none exists.
func (s *GraphDBStore) LatestCompleteSnapshot(ctx context.Context, orgID string) (*common.Snapshot, error) {
	row := s.conn.QueryRow(ctx,
		`SELECT `+snapshotColumns+` FROM graph_snapshots
		 WHERE org_id = $1 AND status = $2
		 ORDER BY completed_at DESC, id DESC
		 LIMIT 1`,
		orgID, common.SnapshotStatusComplete,
	)
	snap, err := scanSnapshot(row)
	if err != nil {
		if common.ErrorCode(storageErr("latest snapshot", err)) == common.CodeReference {
			return nil, nil
		}
		return nil, storageErr("latest snapshot", err)
	}
	return snap, nil
}

// MarkSnapshotStatus moves a snapshot between states with a guard on the
// expected current state. Returns false without error when the guard fails;
// a concurrent worker already claimed or finished the snapshot.
func (s *GraphDBStore) MarkSnapshotStatus(ctx context.Context, orgID, snapshotID string, from, to common.SnapshotStatus) (bool, error) {
	tag, err := s.conn.Exec(ctx, `
		UPDATE graph_snapshots
		SET status = $4,
			started_at = CASE WHEN $4 = 'generating' THEN now() ELSE started_at END
		WHERE org_id = $1 AND id = $2 AND status = $3`,
		orgID, snapshotID, from, to,
	)
	if err != nil {
		return false, storageErr("mark snapshot status", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CompleteSnapshot writes the generated payload, counts, metrics, and diff,
// moving the row to complete. Guarded on generating so a failed or already
// completed snapshot stays immutable.
func (s *GraphDBStore) CompleteSnapshot(ctx context.Context, snap *common.Snapshot) error {
	tag, err := s.conn.Exec(ctx, `
		UPDATE graph_snapshots SET
			status = $3,
			node_count = $4, edge_count = $5, cluster_count = $6,
			payload = $7, storage_key = $8, metrics = $9, diff = $10,
			completed_at = now()
		WHERE org_id = $1 AND id = $2 AND status = 'generating'`,
		snap.OrgID, snap.ID, common.SnapshotStatusComplete,
		snap.NodeCount, snap.EdgeCount, snap.ClusterCount,
		snap.Payload, snap.StorageKey, snap.Metrics, snap.Diff,
	)
	if err != nil {
		return storageErr("complete snapshot", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewReferenceError("complete snapshot: not in generating state")
	}
	return nil
}

// FailSnapshot records a generation failure. Guarded the same way as
// completion.
func (s *GraphDBStore) FailSnapshot(ctx context.Context, orgID, snapshotID, errorMessage string) error {
	tag, err := s.conn.Exec(ctx, `
		UPDATE graph_snapshots
		SET status = $3, error_message = $4, completed_at = now()
		WHERE org_id = $1 AND id = $2 AND status IN ('pending', 'generating')`,
		orgID, snapshotID, common.SnapshotStatusFailed, errorMessage,
	)
	if err != nil {
		return storageErr("fail snapshot", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NewReferenceError("fail snapshot: not found or already finished")
	}
	return nil
}
