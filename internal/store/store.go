// Package store is the gateway to the proposal knowledge base schema in
// PostgreSQL. All similarity ranking lives in the search_internal_resources
// and search_experience stored functions; this package only marshals
// parameters and scans rows.
//
// Store is safe for concurrent use by multiple goroutines.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/proposalkb/proposalkb/internal/log"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// querier is the common interface satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store issues queries through a querier so unit tests can substitute a fake
// backend; New wires in the shared connection pool.
type Store struct {
	db     querier
	pool   *pgxpool.Pool
	logger log.Logger
}

// New creates a Store.
func New(pool *pgxpool.Pool, logger log.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{db: pool, pool: pool, logger: logger}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
