// Package storage defines the persistence contract for the ledger: a card
// store keyed by uid and an append-only transaction log, committed together.
package storage

import (
	"context"

	"github.com/mavics/swipetopay/internal/ledger"
)

// Store is the durable state behind the ledger service. SaveAdjustment is the
// only write path; it must make the card upsert and the log append visible as
// one unit, so a failed call leaves no partial state and is safe to retry.
type Store interface {
	// GetCard returns the current record for uid, or ledger.ErrCardNotFound.
	GetCard(ctx context.Context, uid string) (*ledger.Card, error)

	// ListCards returns all cards ordered by updated_at descending.
	ListCards(ctx context.Context) ([]*ledger.Card, error)

	// SaveAdjustment upserts the card and appends the transaction atomically.
	// The upsert never touches holder_name or created_at on an existing row.
	SaveAdjustment(ctx context.Context, card *ledger.Card, tx *ledger.Transaction) error

	// ListTransactionsByCard returns up to limit entries for uid, newest first.
	ListTransactionsByCard(ctx context.Context, uid string, limit int) ([]*ledger.Transaction, error)

	// ListTransactions returns up to limit entries across all cards, newest first.
	ListTransactions(ctx context.Context, limit int) ([]*ledger.Transaction, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
