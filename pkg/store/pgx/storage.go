package pgx

import (
	"context"
	"errors"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vantagecomms/vantage/backend/pkg/common"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// GraphDBStore implements store.GraphStore on PostgreSQL. Node embeddings
// for semantic search live in the same row as the node, served by pgvector.
type GraphDBStore struct {
	conn pgxIConn
}

// NewGraphDBStore creates a store on an existing connection or pool. The
// conn may also be a transaction, which scopes every call to it.
func NewGraphDBStore(conn pgxIConn) *GraphDBStore {
	return &GraphDBStore{conn: conn}
}

// storageErr wraps a driver error, mapping pgx's no-rows sentinel onto the
// engine's reference error so callers see a 404 rather than a 500.
func storageErr(op string, err error) error {
	if errors.Is(err, pgxv5.ErrNoRows) {
		return common.NewReferenceError("%s: not found", op)
	}
	return common.NewStorageError(op, err)
}

func defaultLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}
