package snapshot

import (
	"context"
	"errors"
	"testing"

	"github.com/vantagecomms/vantage/backend/pkg/common"
	"github.com/vantagecomms/vantage/backend/pkg/store"
)

// fakeStore covers the slice of store.GraphStore the engine touches. The
// embedded interface panics on anything else.
type fakeStore struct {
	store.GraphStore

	snapshots map[string]*common.Snapshot
	nodes     []common.Node
	edges     []common.Edge

	claimResult bool
	completed   *common.Snapshot
	failedMsg   string
	graphErr    error
}

func (f *fakeStore) MarkSnapshotStatus(ctx context.Context, orgID, id string, from, to common.SnapshotStatus) (bool, error) {
	return f.claimResult, nil
}

func (f *fakeStore) GetSnapshot(ctx context.Context, orgID, id string) (*common.Snapshot, error) {
	snap, ok := f.snapshots[id]
	if !ok {
		return nil, common.NewReferenceError("get snapshot: not found")
	}
	return snap, nil
}

func (f *fakeStore) ActiveGraph(ctx context.Context, orgID string) ([]common.Node, []common.Edge, error) {
	if f.graphErr != nil {
		return nil, nil, f.graphErr
	}
	return f.nodes, f.edges, nil
}

func (f *fakeStore) CompleteSnapshot(ctx context.Context, snap *common.Snapshot) error {
	f.completed = snap
	return nil
}

func (f *fakeStore) FailSnapshot(ctx context.Context, orgID, id, msg string) error {
	f.failedMsg = msg
	return nil
}

type fakePayloads struct {
	objects map[string][]byte
}

func (f *fakePayloads) Put(ctx context.Context, key string, data []byte) error {
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[key] = data
	return nil
}

func (f *fakePayloads) Get(ctx context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func TestEngineGenerate(t *testing.T) {
	st := &fakeStore{
		claimResult: true,
		snapshots: map[string]*common.Snapshot{
			"sn_1": {ID: "sn_1", OrgID: "org_1", Status: common.SnapshotStatusPending, Type: common.SnapshotTypeFull},
		},
		nodes: []common.Node{
			{ID: "n1", OrgID: "org_1", Type: common.NodeTypeTopic, Label: "AI", IsActive: true},
			{ID: "n2", OrgID: "org_1", Type: common.NodeTypeJournalist, Label: "Jane", IsActive: true},
		},
		edges: []common.Edge{
			{ID: "e1", OrgID: "org_1", Type: common.EdgeTypeCovers, SourceNodeID: "n2", TargetNodeID: "n1", Weight: 1, IsActive: true},
		},
	}
	eng := NewEngine(st, nil)

	if err := eng.Generate(context.Background(), "org_1", "sn_1"); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if st.completed == nil {
		t.Fatal("snapshot was not completed")
	}
	if st.completed.NodeCount != 2 || st.completed.EdgeCount != 1 {
		t.Errorf("counts = %d/%d, want 2/1", st.completed.NodeCount, st.completed.EdgeCount)
	}
	if st.completed.ClusterCount != 1 {
		t.Errorf("ClusterCount = %d, want 1", st.completed.ClusterCount)
	}
	if len(st.completed.Payload) == 0 {
		t.Error("small payload should stay inline")
	}
	if st.completed.Diff != nil {
		t.Error("first snapshot must not carry a diff")
	}
}

func TestEngineGenerateSkipsClaimedSnapshot(t *testing.T) {
	st := &fakeStore{claimResult: false}
	eng := NewEngine(st, nil)

	if err := eng.Generate(context.Background(), "org_1", "sn_1"); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if st.completed != nil {
		t.Error("claimed snapshot must not be regenerated")
	}
}

func TestEngineGenerateFailureMarksFailed(t *testing.T) {
	st := &fakeStore{
		claimResult: true,
		snapshots: map[string]*common.Snapshot{
			"sn_1": {ID: "sn_1", OrgID: "org_1", Status: common.SnapshotStatusPending},
		},
		graphErr: common.NewStorageError("load graph nodes", errors.New("connection refused")),
	}
	eng := NewEngine(st, nil)

	if err := eng.Generate(context.Background(), "org_1", "sn_1"); err == nil {
		t.Fatal("Generate() error = nil, want storage error")
	}
	if st.failedMsg == "" {
		t.Error("failed generation did not mark the snapshot failed")
	}
}

func TestEngineGenerateOffloadsLargePayload(t *testing.T) {
	st := &fakeStore{
		claimResult: true,
		snapshots: map[string]*common.Snapshot{
			"sn_1": {ID: "sn_1", OrgID: "org_1", Status: common.SnapshotStatusPending},
		},
		nodes: []common.Node{
			{ID: "n1", OrgID: "org_1", Type: common.NodeTypeTopic, Label: "AI", IsActive: true},
		},
	}
	payloads := &fakePayloads{}
	eng := NewEngine(st, payloads, WithInlineLimit(1))

	if err := eng.Generate(context.Background(), "org_1", "sn_1"); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if st.completed.StorageKey == "" {
		t.Fatal("large payload was not offloaded")
	}
	if len(st.completed.Payload) != 0 {
		t.Error("offloaded snapshot still carries an inline payload")
	}
	if _, ok := payloads.objects[st.completed.StorageKey]; !ok {
		t.Errorf("payload missing at storage key %s", st.completed.StorageKey)
	}
}

func TestEngineGenerateDiffAgainstPrevious(t *testing.T) {
	prevPayload := `{"nodes":[{"id":"n1","org_id":"org_1","type":"topic","label":"AI","properties":{},"tags":[],"categories":[],"is_active":true,"created_at":"2026-01-01T00:00:00Z","updated_at":"2026-01-01T00:00:00Z"}],"edges":[]}`
	st := &fakeStore{
		claimResult: true,
		snapshots: map[string]*common.Snapshot{
			"sn_1": {ID: "sn_1", OrgID: "org_1", Status: common.SnapshotStatusComplete, Payload: []byte(prevPayload)},
			"sn_2": {ID: "sn_2", OrgID: "org_1", Status: common.SnapshotStatusPending, PreviousSnapshotID: "sn_1"},
		},
		nodes: []common.Node{
			{ID: "n1", OrgID: "org_1", Type: common.NodeTypeTopic, Label: "AI", IsActive: true},
			{ID: "n2", OrgID: "org_1", Type: common.NodeTypeCampaign, Label: "Q3", IsActive: true},
		},
	}
	eng := NewEngine(st, nil)

	if err := eng.Generate(context.Background(), "org_1", "sn_2"); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if st.completed.Diff == nil {
		t.Fatal("snapshot with a previous must carry a diff")
	}
	if got := st.completed.Diff.NodesAdded[common.NodeTypeCampaign]; got != 1 {
		t.Errorf("NodesAdded[campaign] = %d, want 1", got)
	}
	if got := st.completed.Diff.NodesModified[common.NodeTypeTopic]; got != 0 {
		t.Errorf("NodesModified[topic] = %d, want 0", got)
	}
}
