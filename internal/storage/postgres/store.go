// Package postgres implements storage.Store on PostgreSQL via the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mavics/swipetopay/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping(ctx context.Context) error {
	err := s.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	return nil
}
