package pgx

import (
	"context"
	"fmt"
	"strings"

	"github.com/vantagecomms/vantage/backend/pkg/common"
)

// AppendAudit inserts one immutable audit entry. There is no update or
// delete path for audit rows anywhere in the store.
func (s *GraphDBStore) AppendAudit(ctx context.Context, entry *common.AuditLogEntry) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO graph_audit_log (
			id, org_id, event_type,
			node_id, edge_id, snapshot_id,
			actor_id, actor_type,
			changes, query_params, result_count, execution_time_ms,
			ip_address, user_agent
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		entry.ID, entry.OrgID, entry.EventType,
		entry.NodeID, entry.EdgeID, entry.SnapshotID,
		entry.ActorID, entry.ActorType,
		entry.Changes, entry.QueryParams, entry.ResultCount, entry.ExecutionTimeMs,
		entry.IPAddress, entry.UserAgent,
	)
	if err != nil {
		return storageErr("append audit", err)
	}
	return nil
}

// ListAudit returns a filtered page of audit entries, newest first, plus the
// total match count.
func (s *GraphDBStore) ListAudit(ctx context.Context, orgID string, filter common.AuditFilter) ([]common.AuditLogEntry, int, error) {
	where := []string{"org_id = $1"}
	args := []any{orgID}

	if filter.EventType != "" {
		args = append(args, filter.EventType)
		where = append(where, fmt.Sprintf("event_type = $%d", len(args)))
	}
	if filter.NodeID != "" {
		args = append(args, filter.NodeID)
		where = append(where, fmt.Sprintf("node_id = $%d", len(args)))
	}
	if filter.EdgeID != "" {
		args = append(args, filter.EdgeID)
		where = append(where, fmt.Sprintf("edge_id = $%d", len(args)))
	}

	args = append(args, defaultLimit(filter.Limit, 50))
	limitPos := len(args)
	args = append(args, filter.Offset)
	offsetPos := len(args)

	query := fmt.Sprintf(`
		SELECT id, org_id, event_type,
			node_id, edge_id, snapshot_id,
			actor_id, actor_type,
			changes, query_params, result_count, execution_time_ms,
			ip_address, user_agent, created_at,
			COUNT(*) OVER() AS total
		FROM graph_audit_log
		WHERE %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`,
		strings.Join(where, " AND "), limitPos, offsetPos,
	)

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, storageErr("list audit", err)
	}
	defer rows.Close()

	entries := []common.AuditLogEntry{}
	total := 0
	for rows.Next() {
		var e common.AuditLogEntry
		err := rows.Scan(
			&e.ID, &e.OrgID, &e.EventType,
			&e.NodeID, &e.EdgeID, &e.SnapshotID,
			&e.ActorID, &e.ActorType,
			&e.Changes, &e.QueryParams, &e.ResultCount, &e.ExecutionTimeMs,
			&e.IPAddress, &e.UserAgent, &e.CreatedAt,
			&total,
		)
		if err != nil {
			return nil, 0, storageErr("list audit", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storageErr("list audit", err)
	}
	return entries, total, nil
}
