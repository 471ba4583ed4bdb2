package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorCodeAndStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{
			name:       "validation",
			err:        NewValidationError("label is required"),
			wantCode:   CodeValidation,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "reference",
			err:        NewReferenceError("source or target node not found"),
			wantCode:   CodeReference,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "computation limit",
			err:        NewComputationLimitError("graph exceeds %d nodes", 5000),
			wantCode:   CodeComputationLimit,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "storage",
			err:        NewStorageError("insert node", errors.New("connection refused")),
			wantCode:   CodeStorage,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "wrapped validation keeps its code",
			err:        fmt.Errorf("create node: %w", NewValidationError("bad type")),
			wantCode:   CodeValidation,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown error treated as storage",
			err:        errors.New("boom"),
			wantCode:   CodeStorage,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.wantCode {
				t.Errorf("ErrorCode() = %q, want %q", got, tt.wantCode)
			}
			if got := HTTPStatus(tt.err); got != tt.wantStatus {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.wantStatus)
			}
		})
	}
}

func TestStorageErrorUnwrap(t *testing.T) {
	inner := errors.New("deadlock detected")
	err := NewStorageError("merge nodes", inner)
	if !errors.Is(err, inner) {
		t.Error("StorageError should unwrap to the inner error")
	}
}

func TestNodeNormalize(t *testing.T) {
	n := &Node{Type: NodeTypeJournalist, Label: "Jane Doe"}
	n.Normalize()
	if n.Properties == nil || n.Tags == nil || n.Categories == nil {
		t.Error("Normalize() must replace nil containers with empty ones")
	}
	if len(n.Properties) != 0 || len(n.Tags) != 0 || len(n.Categories) != 0 {
		t.Error("Normalize() must not invent values")
	}
}

func TestEdgeNormalizeDefaultWeight(t *testing.T) {
	e := &Edge{Type: EdgeTypeAuthoredBy}
	e.Normalize()
	if e.Weight != 1.0 {
		t.Errorf("Normalize() weight = %v, want 1.0", e.Weight)
	}
	if e.Properties == nil {
		t.Error("Normalize() must replace nil property bag")
	}
}

func TestClosedTypeSets(t *testing.T) {
	if !NodeTypeJournalist.Valid() {
		t.Error("journalist must be a valid node type")
	}
	if NodeType("spaceship").Valid() {
		t.Error("unknown node type must be invalid")
	}
	if !EdgeTypeAuthoredBy.Valid() {
		t.Error("authored_by must be a valid edge type")
	}
	if EdgeType("teleports_to").Valid() {
		t.Error("unknown edge type must be invalid")
	}
}
