package store

import (
	"context"

	"github.com/vantagecomms/vantage/backend/pkg/common"
	"github.com/vantagecomms/vantage/backend/pkg/graph"
)

// GraphStore defines the persistence interface for one organization's
// intelligence graph. Every method is tenant-scoped by orgID; no call can
// see or touch another organization's rows.
type GraphStore interface {
	// Nodes.
	CreateNode(ctx context.Context, node *common.Node) error
	GetNode(ctx context.Context, orgID, nodeID string) (*common.Node, error)
	GetNodeConnections(ctx context.Context, orgID, nodeID string) (*common.NodeConnections, error)
	UpdateNode(ctx context.Context, node *common.Node) (*common.Node, error)
	DeleteNode(ctx context.Context, orgID, nodeID, actorID string) (edgesRemoved int, err error)
	ListNodes(ctx context.Context, orgID string, filter common.NodeFilter) ([]common.Node, int, error)
	// CountNodesBy aggregates the filter's matches into per-group counts
	// over a whitelisted field (see NodeGroupColumn).
	CountNodesBy(ctx context.Context, orgID string, filter common.NodeFilter, groupBy string) (map[string]int, error)

	// Edges.
	CreateEdge(ctx context.Context, edge *common.Edge) error
	GetEdge(ctx context.Context, orgID, edgeID string) (*common.EdgeWithNodes, error)
	UpdateEdge(ctx context.Context, edge *common.Edge) (*common.Edge, error)
	DeleteEdge(ctx context.Context, orgID, edgeID string) error
	ListEdges(ctx context.Context, orgID string, filter common.EdgeFilter) ([]common.Edge, int, error)

	// ExecuteMerge applies a computed merge plan in a single transaction:
	// survivor upsert, edge rewiring, source removal.
	ExecuteMerge(ctx context.Context, orgID string, plan *graph.MergePlan, actorID string) (*common.Node, int, error)

	// LoadView materializes the tenant's active graph for traversal and
	// metrics computation. ActiveGraph returns the same rows as slices for
	// snapshot payload assembly.
	LoadView(ctx context.Context, orgID string) (*graph.View, error)
	ActiveGraph(ctx context.Context, orgID string) ([]common.Node, []common.Edge, error)

	// Metrics persistence.
	UpdateNodeScores(ctx context.Context, orgID string, scores map[string]graph.NodeScores) (int, error)
	SaveGraphMetrics(ctx context.Context, orgID string, m common.GraphMetrics) error
	GetGraphMetrics(ctx context.Context, orgID string) (*common.GraphMetrics, error)

	// Snapshots.
	CreateSnapshot(ctx context.Context, snap *common.Snapshot) error
	GetSnapshot(ctx context.Context, orgID, snapshotID string) (*common.Snapshot, error)
	ListSnapshots(ctx context.Context, orgID string, filter common.SnapshotFilter) ([]common.Snapshot, int, error)
	LatestCompleteSnapshot(ctx context.Context, orgID string) (*common.Snapshot, error)
	// MarkSnapshotStatus performs a guarded state transition and reports
	// whether the row was in the expected state.
	MarkSnapshotStatus(ctx context.Context, orgID, snapshotID string, from, to common.SnapshotStatus) (bool, error)
	CompleteSnapshot(ctx context.Context, snap *common.Snapshot) error
	FailSnapshot(ctx context.Context, orgID, snapshotID, errorMessage string) error

	// Audit log. Append-only.
	AppendAudit(ctx context.Context, entry *common.AuditLogEntry) error
	ListAudit(ctx context.Context, orgID string, filter common.AuditFilter) ([]common.AuditLogEntry, int, error)

	// Semantic search over node embeddings.
	UpsertNodeEmbedding(ctx context.Context, orgID, nodeID string, embedding []float32) error
	SearchNodesByEmbedding(ctx context.Context, orgID string, embedding []float32, limit int) ([]common.Node, []float64, error)
}
