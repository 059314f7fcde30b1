package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the PostgreSQL-backed account store.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a store on top of an established pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}
