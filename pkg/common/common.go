package common

import (
	"time"
)

// NodeType classifies a node in the intelligence graph. The set is closed;
// the store rejects values outside of it.
type NodeType string

const (
	NodeTypeContentPiece NodeType = "content_piece"
	NodeTypeJournalist   NodeType = "journalist"
	NodeTypeMediaOutlet  NodeType = "media_outlet"
	NodeTypeTopic        NodeType = "topic"
	NodeTypeCampaign     NodeType = "campaign"
	NodeTypeOrganization NodeType = "organization"
	NodeTypeExecutive    NodeType = "executive"
	NodeTypeEvent        NodeType = "event"
	NodeTypeKeyword      NodeType = "keyword"
)

// NodeTypes lists every valid node type.
var NodeTypes = []NodeType{
	NodeTypeContentPiece,
	NodeTypeJournalist,
	NodeTypeMediaOutlet,
	NodeTypeTopic,
	NodeTypeCampaign,
	NodeTypeOrganization,
	NodeTypeExecutive,
	NodeTypeEvent,
	NodeTypeKeyword,
}

// Valid reports whether t is a member of the closed node type set.
func (t NodeType) Valid() bool {
	for _, nt := range NodeTypes {
		if t == nt {
			return true
		}
	}
	return false
}

// EdgeType classifies a relationship between two nodes. The set is closed.
type EdgeType string

const (
	EdgeTypeAuthoredBy   EdgeType = "authored_by"
	EdgeTypeRelatedTo    EdgeType = "related_to"
	EdgeTypeMentions     EdgeType = "mentions"
	EdgeTypeCovers       EdgeType = "covers"
	EdgeTypeWorksFor     EdgeType = "works_for"
	EdgeTypePartOf       EdgeType = "part_of"
	EdgeTypeCompetesWith EdgeType = "competes_with"
	EdgeTypeInfluences   EdgeType = "influences"
	EdgeTypeParticipated EdgeType = "participated_in"
)

// EdgeTypes lists every valid edge type.
var EdgeTypes = []EdgeType{
	EdgeTypeAuthoredBy,
	EdgeTypeRelatedTo,
	EdgeTypeMentions,
	EdgeTypeCovers,
	EdgeTypeWorksFor,
	EdgeTypePartOf,
	EdgeTypeCompetesWith,
	EdgeTypeInfluences,
	EdgeTypeParticipated,
}

// Valid reports whether t is a member of the closed edge type set.
func (t EdgeType) Valid() bool {
	for _, et := range EdgeTypes {
		if t == et {
			return true
		}
	}
	return false
}

// InferenceMethod records how an edge came to exist.
const (
	InferenceExplicit = "explicit"
	InferenceInferred = "inferred"
)

// Node is a typed entity in one organization's intelligence graph.
//
// Derived centrality fields (Degree, Betweenness, Closeness, Importance) stay
// nil until the metrics engine computes them; nothing else writes to them.
type Node struct {
	ID    string   `json:"id"`
	OrgID string   `json:"org_id"`
	Type  NodeType `json:"type"`

	Label       string `json:"label"`
	Description string `json:"description,omitempty"`

	// Optional linkage back to the system the node was imported from.
	SourceSystem string `json:"source_system,omitempty"`
	SourceTable  string `json:"source_table,omitempty"`
	ExternalID   string `json:"external_id,omitempty"`

	Properties map[string]any `json:"properties"`
	Tags       []string       `json:"tags"`
	Categories []string       `json:"categories"`

	ValidFrom *time.Time `json:"valid_from,omitempty"`
	ValidTo   *time.Time `json:"valid_to,omitempty"`

	Degree      *float64 `json:"degree_centrality,omitempty"`
	Betweenness *float64 `json:"betweenness_centrality,omitempty"`
	Closeness   *float64 `json:"closeness_centrality,omitempty"`
	Importance  *float64 `json:"importance,omitempty"`
	ClusterID   *string  `json:"cluster_id,omitempty"`

	IsActive   bool     `json:"is_active"`
	Confidence *float64 `json:"confidence,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedBy string    `json:"created_by,omitempty"`
	UpdatedBy string    `json:"updated_by,omitempty"`
}

// Normalize replaces nil collection fields with empty containers. Property
// bags, tags, and categories default to empty, never null.
func (n *Node) Normalize() {
	if n.Properties == nil {
		n.Properties = map[string]any{}
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	if n.Categories == nil {
		n.Categories = []string{}
	}
}

// Edge is a typed, directed relationship between two nodes of the same
// organization. Weight defaults to 1.0 and drives path finding and metrics.
type Edge struct {
	ID    string   `json:"id"`
	OrgID string   `json:"org_id"`
	Type  EdgeType `json:"type"`

	SourceNodeID string `json:"source_node_id"`
	TargetNodeID string `json:"target_node_id"`

	Label       string `json:"label,omitempty"`
	Description string `json:"description,omitempty"`

	Properties    map[string]any `json:"properties"`
	Weight        float64        `json:"weight"`
	Bidirectional bool           `json:"bidirectional"`

	ValidFrom *time.Time `json:"valid_from,omitempty"`
	ValidTo   *time.Time `json:"valid_to,omitempty"`

	SourceSystem    string   `json:"source_system,omitempty"`
	InferenceMethod string   `json:"inference_method,omitempty"`
	Confidence      *float64 `json:"confidence,omitempty"`

	IsActive bool `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedBy string    `json:"created_by,omitempty"`
	UpdatedBy string    `json:"updated_by,omitempty"`
}

// Normalize replaces a nil property bag with an empty one and applies the
// default weight.
func (e *Edge) Normalize() {
	if e.Properties == nil {
		e.Properties = map[string]any{}
	}
	if e.Weight == 0 {
		e.Weight = 1.0
	}
}

// NodeFilter narrows node listings. Zero values mean "no constraint".
type NodeFilter struct {
	Types      []NodeType
	Tags       []string
	Categories []string
	Search     string
	ActiveOnly bool
	Limit      int
	Offset     int
}

// EdgeFilter narrows edge listings.
type EdgeFilter struct {
	Types            []EdgeType
	MinWeight        *float64
	MaxWeight        *float64
	SourceOrTargetID string
	ActiveOnly       bool
	Limit            int
	Offset           int
}

// NodeConnections joins a node to its incident edges and neighbor nodes.
type NodeConnections struct {
	Node      Node   `json:"node"`
	Edges     []Edge `json:"edges"`
	Neighbors []Node `json:"neighbors"`
}

// EdgeWithNodes joins an edge to its two endpoint nodes.
type EdgeWithNodes struct {
	Edge       Edge `json:"edge"`
	SourceNode Node `json:"source_node"`
	TargetNode Node `json:"target_node"`
}

// GraphMetrics is the whole-graph summary the metrics engine produces.
type GraphMetrics struct {
	TotalNodes int     `json:"total_nodes"`
	TotalEdges int     `json:"total_edges"`
	Density    float64 `json:"density"`
	AvgDegree  float64 `json:"avg_degree"`

	ClusterCount int `json:"cluster_count,omitempty"`

	ComputedAt time.Time `json:"computed_at"`
}

// MergeStrategy selects how mergeNodes consolidates its sources.
type MergeStrategy string

const (
	MergeStrategyAbsorb    MergeStrategy = "absorb"
	MergeStrategyCreateNew MergeStrategy = "create_new"
)

// SnapshotType indicates whether a snapshot captured the full graph or a
// computed subset.
type SnapshotType string

const (
	SnapshotTypeFull    SnapshotType = "full"
	SnapshotTypePartial SnapshotType = "partial"
)

// SnapshotStatus is the snapshot state machine. Transitions are monotonic:
// pending -> generating -> complete | failed.
type SnapshotStatus string

const (
	SnapshotStatusPending    SnapshotStatus = "pending"
	SnapshotStatusGenerating SnapshotStatus = "generating"
	SnapshotStatusComplete   SnapshotStatus = "complete"
	SnapshotStatusFailed     SnapshotStatus = "failed"
)

// SnapshotDiff counts structural changes against the previous snapshot,
// broken down by node/edge type.
type SnapshotDiff struct {
	NodesAdded    map[NodeType]int `json:"nodes_added"`
	NodesRemoved  map[NodeType]int `json:"nodes_removed"`
	NodesModified map[NodeType]int `json:"nodes_modified"`
	EdgesAdded    map[EdgeType]int `json:"edges_added"`
	EdgesRemoved  map[EdgeType]int `json:"edges_removed"`
	EdgesModified map[EdgeType]int `json:"edges_modified"`
}

// Empty reports whether the diff records no changes at all.
func (d *SnapshotDiff) Empty() bool {
	return len(d.NodesAdded) == 0 && len(d.NodesRemoved) == 0 && len(d.NodesModified) == 0 &&
		len(d.EdgesAdded) == 0 && len(d.EdgesRemoved) == 0 && len(d.EdgesModified) == 0
}

// Snapshot is an immutable point-in-time capture of a tenant's graph. Once
// complete it is never mutated; regeneration always creates a new record.
type Snapshot struct {
	ID    string `json:"id"`
	OrgID string `json:"org_id"`

	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Type        SnapshotType   `json:"type"`
	Status      SnapshotStatus `json:"status"`

	NodeCount    int `json:"node_count"`
	EdgeCount    int `json:"edge_count"`
	ClusterCount int `json:"cluster_count"`

	// Payload holds the serialized graph inline for small graphs. Larger
	// payloads are offloaded and referenced through StorageKey.
	Payload    []byte `json:"-"`
	StorageKey string `json:"storage_key,omitempty"`

	Metrics *GraphMetrics `json:"metrics,omitempty"`

	PreviousSnapshotID string        `json:"previous_snapshot_id,omitempty"`
	Diff               *SnapshotDiff `json:"diff,omitempty"`

	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by,omitempty"`
}

// SnapshotPayload is the serialized graph state stored with a snapshot.
type SnapshotPayload struct {
	Nodes    []Node            `json:"nodes"`
	Edges    []Edge            `json:"edges"`
	Clusters map[string][]string `json:"clusters,omitempty"`
}

// SnapshotFilter narrows snapshot listings.
type SnapshotFilter struct {
	Status SnapshotStatus
	Type   SnapshotType
	Limit  int
	Offset int
}

// Audit event types.
const (
	AuditNodeCreated     = "node.created"
	AuditNodeUpdated     = "node.updated"
	AuditNodeDeleted     = "node.deleted"
	AuditEdgeCreated     = "edge.created"
	AuditEdgeUpdated     = "edge.updated"
	AuditEdgeDeleted     = "edge.deleted"
	AuditNodesMerged     = "nodes.merged"
	AuditSnapshotCreated = "snapshot.created"
	AuditMetricsComputed = "metrics.computed"
	AuditQueryExecuted   = "query.executed"
)

// Actor types for audit entries.
const (
	ActorTypeUser   = "user"
	ActorTypeSystem = "system"
)

// FieldChange captures one changed field in an audit entry.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// AuditLogEntry is an immutable record of one graph operation. Entries are
// append-only; application code never updates or deletes them.
type AuditLogEntry struct {
	ID    string `json:"id"`
	OrgID string `json:"org_id"`

	EventType string `json:"event_type"`

	NodeID     string `json:"node_id,omitempty"`
	EdgeID     string `json:"edge_id,omitempty"`
	SnapshotID string `json:"snapshot_id,omitempty"`

	ActorID   string `json:"actor_id"`
	ActorType string `json:"actor_type"`

	Changes map[string]FieldChange `json:"changes,omitempty"`

	QueryParams     map[string]any `json:"query_params,omitempty"`
	ResultCount     *int           `json:"result_count,omitempty"`
	ExecutionTimeMs *int64         `json:"execution_time_ms,omitempty"`

	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// AuditFilter narrows audit log listings.
type AuditFilter struct {
	EventType string
	NodeID    string
	EdgeID    string
	Limit     int
	Offset    int
}
