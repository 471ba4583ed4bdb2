package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vantagecomms/vantage/backend/pkg/common"
	"github.com/vantagecomms/vantage/backend/pkg/graph"
	"github.com/vantagecomms/vantage/backend/pkg/logger"
	"github.com/vantagecomms/vantage/backend/pkg/store"
)

// defaultInlineLimit is the payload size above which the serialized graph
// moves to object storage instead of the snapshot row.
const defaultInlineLimit = 1 << 20

// PayloadStore persists snapshot payloads that are too large to inline.
type PayloadStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// Engine generates snapshots: it captures the active graph, diffs it against
// the previous complete snapshot, and drives the snapshot state machine.
type Engine struct {
	store       store.GraphStore
	payloads    PayloadStore
	inlineLimit int
}

type EngineOption func(*Engine)

// WithInlineLimit overrides the inline payload size limit in bytes.
func WithInlineLimit(bytes int) EngineOption {
	return func(e *Engine) {
		if bytes > 0 {
			e.inlineLimit = bytes
		}
	}
}

// NewEngine creates a snapshot engine. payloads may be nil, in which case
// every payload stays inline regardless of size.
func NewEngine(st store.GraphStore, payloads PayloadStore, opts ...EngineOption) *Engine {
	e := &Engine{
		store:       st,
		payloads:    payloads,
		inlineLimit: defaultInlineLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Generate runs the full snapshot pipeline for a pending snapshot. The
// pending-to-generating transition is guarded, so if another worker already
// claimed the snapshot this returns without doing anything. A generation
// failure marks the snapshot failed and returns the underlying error.
func (e *Engine) Generate(ctx context.Context, orgID, snapshotID string) error {
	claimed, err := e.store.MarkSnapshotStatus(ctx, orgID, snapshotID, common.SnapshotStatusPending, common.SnapshotStatusGenerating)
	if err != nil {
		return err
	}
	if !claimed {
		logger.Info("[Snapshot][Generate] Snapshot already claimed, skipping", "snapshot", snapshotID)
		return nil
	}

	if err := e.generate(ctx, orgID, snapshotID); err != nil {
		if failErr := e.store.FailSnapshot(ctx, orgID, snapshotID, err.Error()); failErr != nil {
			logger.Error("[Snapshot][Generate] Could not mark snapshot failed",
				"snapshot", snapshotID, "error", failErr)
		}
		return err
	}
	return nil
}

func (e *Engine) generate(ctx context.Context, orgID, snapshotID string) error {
	snap, err := e.store.GetSnapshot(ctx, orgID, snapshotID)
	if err != nil {
		return err
	}

	nodes, edges, err := e.store.ActiveGraph(ctx, orgID)
	if err != nil {
		return err
	}

	view := graph.NewView(nodes, edges)
	metricsRes, err := view.ComputeMetrics(graph.MetricsOptions{ComputeClusters: true})
	if err != nil {
		return err
	}

	clusters := map[string][]string{}
	for id, sc := range metricsRes.Scores {
		if sc.ClusterID != "" {
			clusters[sc.ClusterID] = append(clusters[sc.ClusterID], id)
		}
	}

	payload := &common.SnapshotPayload{Nodes: nodes, Edges: edges, Clusters: clusters}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	snap.NodeCount = len(nodes)
	snap.EdgeCount = len(edges)
	snap.ClusterCount = metricsRes.Metrics.ClusterCount
	snap.Metrics = &metricsRes.Metrics

	if e.payloads != nil && len(raw) > e.inlineLimit {
		key := payloadKey(orgID, snapshotID)
		if err := e.payloads.Put(ctx, key, raw); err != nil {
			return fmt.Errorf("offload snapshot payload: %w", err)
		}
		snap.StorageKey = key
		snap.Payload = nil
	} else {
		snap.Payload = raw
		snap.StorageKey = ""
	}

	// First snapshot of a tenant has no previous and carries no diff.
	if snap.PreviousSnapshotID != "" {
		prev, err := e.store.GetSnapshot(ctx, orgID, snap.PreviousSnapshotID)
		if err != nil {
			return err
		}
		prevPayload, err := e.LoadPayload(ctx, prev)
		if err != nil {
			return err
		}
		snap.Diff = ComputeDiff(prevPayload, payload)
	}

	if err := e.store.CompleteSnapshot(ctx, snap); err != nil {
		return err
	}

	logger.Info("[Snapshot][Generate] Snapshot complete",
		"snapshot", snapshotID, "nodes", snap.NodeCount, "edges", snap.EdgeCount,
		"inline", snap.StorageKey == "")
	return nil
}

// LoadPayload returns a snapshot's payload, following the storage key when
// the payload was offloaded.
func (e *Engine) LoadPayload(ctx context.Context, snap *common.Snapshot) (*common.SnapshotPayload, error) {
	raw := snap.Payload
	if len(raw) == 0 && snap.StorageKey != "" {
		if e.payloads == nil {
			return nil, fmt.Errorf("snapshot %s payload is offloaded but no payload store is configured", snap.ID)
		}
		var err error
		raw, err = e.payloads.Get(ctx, snap.StorageKey)
		if err != nil {
			return nil, fmt.Errorf("fetch snapshot payload: %w", err)
		}
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("snapshot %s has no payload", snap.ID)
	}

	var payload common.SnapshotPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode snapshot payload: %w", err)
	}
	return &payload, nil
}

func payloadKey(orgID, snapshotID string) string {
	return fmt.Sprintf("snapshots/%s/%s.json", orgID, snapshotID)
}
