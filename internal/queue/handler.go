package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"

	"github.com/vantagecomms/vantage/backend/pkg/ai"
	"github.com/vantagecomms/vantage/backend/pkg/common"
	"github.com/vantagecomms/vantage/backend/pkg/graph"
	"github.com/vantagecomms/vantage/backend/pkg/leaselock"
	"github.com/vantagecomms/vantage/backend/pkg/logger"
	"github.com/vantagecomms/vantage/backend/pkg/snapshot"
	"github.com/vantagecomms/vantage/backend/pkg/store"
	storepgx "github.com/vantagecomms/vantage/backend/pkg/store/pgx"
)

// MetricsJobMsg asks the worker to run a full metrics pass for one tenant.
type MetricsJobMsg struct {
	OrgID             string `json:"org_id"`
	RequestedBy       string `json:"requested_by"`
	ComputeCentrality bool   `json:"compute_centrality"`
	ComputeClusters   bool   `json:"compute_clusters"`
}

// SnapshotJobMsg asks the worker to generate one pending snapshot.
type SnapshotJobMsg struct {
	OrgID       string `json:"org_id"`
	SnapshotID  string `json:"snapshot_id"`
	RequestedBy string `json:"requested_by"`
}

// Lease options shared by both job kinds. The lease context is canceled if
// the lock is lost mid-job, which stops the pass before it writes back.
var jobLease = leaselock.Options{
	TTL:        2 * time.Minute,
	RenewEvery: 30 * time.Second,
}

// PublishMetricsJob enqueues a metrics pass for the worker.
func PublishMetricsJob(ch *amqp091.Channel, msg MetricsJobMsg) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return PublishFIFO(ch, MetricsQueue, data)
}

// PublishSnapshotJob enqueues snapshot generation for the worker.
func PublishSnapshotJob(ch *amqp091.Channel, msg SnapshotJobMsg) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return PublishFIFO(ch, SnapshotQueue, data)
}

// ProcessMetricsMessage runs a background metrics pass: load the tenant's
// active graph, compute all structural metrics without the synchronous node
// ceiling, write the scores back, and record an audit entry. Nodes whose
// best-effort embedding at create time failed are backfilled on the way. A
// per-tenant lease keeps concurrent workers from computing the same graph
// twice.
func ProcessMetricsMessage(ctx context.Context, conn *pgxpool.Pool, aiClient ai.GraphAIClient, body string) error {
	var msg MetricsJobMsg
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return fmt.Errorf("invalid metrics job message: %w", err)
	}
	if msg.OrgID == "" {
		return fmt.Errorf("metrics job message missing org_id")
	}

	locks := leaselock.New(conn)
	return locks.WithLease(ctx, "metrics:"+msg.OrgID, jobLease, func(ctx context.Context) error {
		st := storepgx.NewGraphDBStore(conn)

		view, err := st.LoadView(ctx, msg.OrgID)
		if err != nil {
			return err
		}

		result, err := view.ComputeMetrics(graph.MetricsOptions{
			ComputeCentrality: msg.ComputeCentrality,
			ComputeClusters:   msg.ComputeClusters,
		})
		if err != nil {
			return err
		}

		if len(result.Scores) > 0 {
			updated, err := st.UpdateNodeScores(ctx, msg.OrgID, result.Scores)
			if err != nil {
				return err
			}
			logger.Debug("[Worker][Metrics] Node scores written", "org_id", msg.OrgID, "updated", updated)
		}

		if err := st.SaveGraphMetrics(ctx, msg.OrgID, result.Metrics); err != nil {
			return err
		}

		backfillEmbeddings(ctx, st, aiClient, msg.OrgID)

		appendJobAudit(ctx, st, &common.AuditLogEntry{
			OrgID:     msg.OrgID,
			EventType: common.AuditMetricsComputed,
			ActorID:   msg.RequestedBy,
			ActorType: common.ActorTypeSystem,
			QueryParams: map[string]any{
				"compute_centrality": msg.ComputeCentrality,
				"compute_clusters":   msg.ComputeClusters,
			},
			ResultCount:     &result.NodesUpdated,
			ExecutionTimeMs: &result.ExecutionTimeMs,
		})

		logger.Info("[Worker][Metrics] Metrics pass complete",
			"org_id", msg.OrgID,
			"nodes", result.Metrics.TotalNodes,
			"edges", result.Metrics.TotalEdges,
			"duration_ms", result.ExecutionTimeMs,
		)
		return nil
	})
}

// ProcessSnapshotMessage drives one pending snapshot through the generation
// engine. The engine's own state guard makes redelivered messages no-ops.
func ProcessSnapshotMessage(ctx context.Context, conn *pgxpool.Pool, payloads snapshot.PayloadStore, body string) error {
	var msg SnapshotJobMsg
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		return fmt.Errorf("invalid snapshot job message: %w", err)
	}
	if msg.OrgID == "" || msg.SnapshotID == "" {
		return fmt.Errorf("snapshot job message missing org_id or snapshot_id")
	}

	locks := leaselock.New(conn)
	return locks.WithLease(ctx, "snapshot:"+msg.OrgID, jobLease, func(ctx context.Context) error {
		st := storepgx.NewGraphDBStore(conn)
		eng := snapshot.NewEngine(st, payloads)

		// The creation itself is audited by the API when the snapshot is
		// requested; generation outcome lives on the snapshot row.
		if err := eng.Generate(ctx, msg.OrgID, msg.SnapshotID); err != nil {
			return err
		}

		logger.Info("[Worker][Snapshot] Snapshot generated", "org_id", msg.OrgID, "snapshot_id", msg.SnapshotID)
		return nil
	})
}

// backfillEmbeddings embeds nodes still missing a stored embedding in one
// batch call. Best-effort: a failure here never fails the metrics pass.
func backfillEmbeddings(ctx context.Context, st *storepgx.GraphDBStore, aiClient ai.GraphAIClient, orgID string) {
	if aiClient == nil {
		return
	}
	nodes, err := st.ListNodesMissingEmbedding(ctx, orgID, 100)
	if err != nil {
		logger.Warn("[Worker][Metrics] Failed to list nodes missing embeddings", "org_id", orgID, "err", err)
		return
	}
	if len(nodes) == 0 {
		return
	}

	inputs := make([][]byte, len(nodes))
	for i, n := range nodes {
		text := n.Label
		if n.Description != "" {
			text += "\n" + n.Description
		}
		inputs[i] = []byte(text)
	}

	embeddings, err := store.GenerateEmbeddings(ctx, aiClient, inputs)
	if err != nil {
		logger.Warn("[Worker][Metrics] Failed to backfill embeddings", "org_id", orgID, "err", err)
		return
	}

	stored := 0
	for i, n := range nodes {
		if err := st.UpsertNodeEmbedding(ctx, orgID, n.ID, embeddings[i]); err != nil {
			logger.Warn("[Worker][Metrics] Failed to store embedding", "node_id", n.ID, "err", err)
			continue
		}
		stored++
	}
	logger.Debug("[Worker][Metrics] Embeddings backfilled", "org_id", orgID, "count", stored)
}

// appendJobAudit records an audit entry for a completed job. Audit failure
// never fails the job itself.
func appendJobAudit(ctx context.Context, st *storepgx.GraphDBStore, entry *common.AuditLogEntry) {
	id, err := common.NewAuditID()
	if err != nil {
		logger.Warn("[Worker] Failed to generate audit id", "err", err)
		return
	}
	entry.ID = id
	if err := st.AppendAudit(ctx, entry); err != nil {
		logger.Warn("[Worker] Failed to append audit entry", "event", entry.EventType, "err", err)
	}
}
