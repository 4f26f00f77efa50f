// Package memory implements storage.Store in process memory. It backs the
// service when no database is configured and the test suites.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mavics/swipetopay/internal/ledger"
	"github.com/mavics/swipetopay/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps cards in a map and the transaction log in append order. All
// methods copy records on the way in and out so callers can never alias
// internal state.
type Store struct {
	mu    sync.Mutex
	cards map[string]ledger.Card
	log   []ledger.Transaction
}

func New() *Store {
	return &Store{
		cards: make(map[string]ledger.Card),
	}
}

func (s *Store) GetCard(_ context.Context, uid string) (*ledger.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, ok := s.cards[uid]
	if !ok {
		return nil, ledger.ErrCardNotFound
	}

	return &card, nil
}

func (s *Store) ListCards(_ context.Context) ([]*ledger.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cards := make([]*ledger.Card, 0, len(s.cards))
	for _, card := range s.cards {
		card := card
		cards = append(cards, &card)
	}

	sort.Slice(cards, func(i, j int) bool {
		return cards[i].UpdatedAt.After(cards[j].UpdatedAt)
	})

	return cards, nil
}

func (s *Store) SaveAdjustment(_ context.Context, card *ledger.Card, tran *ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Both writes happen under one lock acquisition, so a reader never sees
	// the card updated without its log entry.
	s.cards[card.UID] = *card
	s.log = append(s.log, *tran)

	return nil
}

func (s *Store) ListTransactionsByCard(_ context.Context, uid string, limit int) ([]*ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.collect(limit, func(t *ledger.Transaction) bool { return t.UID == uid }), nil
}

func (s *Store) ListTransactions(_ context.Context, limit int) ([]*ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.collect(limit, func(*ledger.Transaction) bool { return true }), nil
}

// collect walks the log newest-first. Callers must hold s.mu.
func (s *Store) collect(limit int, match func(*ledger.Transaction) bool) []*ledger.Transaction {
	var out []*ledger.Transaction

	for i := len(s.log) - 1; i >= 0 && len(out) < limit; i-- {
		tran := s.log[i]
		if match(&tran) {
			out = append(out, &tran)
		}
	}

	return out
}

func (s *Store) Ping(context.Context) error {
	return nil
}
