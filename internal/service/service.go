// Package service implements the ledger core: it accepts balance adjustments,
// derives the new card state, commits the card record and the transaction
// record as one unit, and hands committed results to the publish worker.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mavics/swipetopay/internal/bus"
	"github.com/mavics/swipetopay/internal/ledger"
	"github.com/mavics/swipetopay/internal/storage"
)

const (
	// Default page sizes for the history endpoints.
	DefaultCardHistoryLimit = 50
	DefaultHistoryLimit     = 100

	defaultQueueSize = 256
)

// Broadcaster is the real-time viewer side; the hub implements it.
type Broadcaster interface {
	Broadcast(event string, data any)
}

type Config struct {
	// InitialGrant seeds the balance of a card on its first-ever adjustment,
	// before the requested amount is applied.
	InitialGrant decimal.Decimal

	// AllowNegative permits debits past zero (overdraft). When false, such a
	// debit fails with ledger.ErrInsufficientBalance before any write.
	AllowNegative bool

	// TopupTopic is the bus topic balance changes are published to.
	TopupTopic string

	// QueueSize bounds the publish queue. A full queue drops events.
	QueueSize int
}

// AdjustRequest is one signed balance change for a card. HolderName is only
// consulted when the card does not exist yet.
type AdjustRequest struct {
	UID        string
	Amount     decimal.Decimal
	HolderName string
}

// AdjustResult carries the committed state back to the caller, independent of
// the publish outcome.
type AdjustResult struct {
	Card        *ledger.Card
	Transaction *ledger.Transaction
}

type Service struct {
	store storage.Store
	cfg   Config
	locks *lockTable

	// Injected in tests for deterministic records.
	now   func() time.Time
	newID func() uuid.UUID

	pub   bus.Publisher
	hub   Broadcaster
	queue chan bus.BalanceChanged
	quit  chan struct{}
	done  chan struct{}

	dropped     counter
	publishErrs counter
}

// New wires the core to its collaborators. pub and hub may be nil (tests,
// memory-only mode); a nil collaborator is skipped at publish time.
func New(store storage.Store, pub bus.Publisher, hub Broadcaster, cfg Config) *Service {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}

	return &Service{
		store: store,
		cfg:   cfg,
		locks: newLockTable(),
		now:   time.Now,
		newID: uuid.New,
		pub:   pub,
		hub:   hub,
		queue: make(chan bus.BalanceChanged, cfg.QueueSize),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Adjust applies a signed amount to the card's balance.
//
// The whole read-compute-commit sequence runs inside the card's exclusive
// section; publishing happens after release so network I/O never extends the
// critical section. A context already expired while queued for the lock
// aborts the call before any state is read.
func (s *Service) Adjust(ctx context.Context, req AdjustRequest) (*AdjustResult, error) {
	if strings.TrimSpace(req.UID) == "" {
		return nil, ledger.ErrInvalidUID
	}

	release, err := s.locks.acquire(ctx, req.UID)
	if err != nil {
		return nil, fmt.Errorf("acquire card lock: %w", err)
	}

	res, err := s.apply(ctx, req)

	release()

	if err != nil {
		return nil, err
	}

	s.enqueue(bus.BalanceChanged{
		UID:    res.Card.UID,
		Amount: jsonNumber(res.Card.Balance),
	})

	return res, nil
}

// apply must be called with the card's lock held.
func (s *Service) apply(ctx context.Context, req AdjustRequest) (*AdjustResult, error) {
	now := s.now()

	card, err := s.store.GetCard(ctx, req.UID)

	switch {
	case errors.Is(err, ledger.ErrCardNotFound):
		if strings.TrimSpace(req.HolderName) == "" {
			return nil, ledger.ErrHolderNameRequired
		}

		card = &ledger.Card{
			UID:        req.UID,
			HolderName: req.HolderName,
			Balance:    s.cfg.InitialGrant,
			CreatedAt:  now,
		}
	case err != nil:
		return nil, fmt.Errorf("get card: %w", err)
	}

	// Holder name is first-write-wins: an existing card keeps its name even
	// when the request carries a different one.

	before := card.Balance
	after := before.Add(req.Amount)

	if !s.cfg.AllowNegative && after.IsNegative() {
		return nil, ledger.ErrInsufficientBalance
	}

	kind := ledger.KindTopup
	if req.Amount.IsNegative() {
		kind = ledger.KindDebit
	}

	card.Balance = after
	card.LastAdjustment = req.Amount.Abs()
	card.UpdatedAt = now

	tran := &ledger.Transaction{
		ID:            s.newID(),
		UID:           card.UID,
		HolderName:    card.HolderName,
		Kind:          kind,
		Amount:        req.Amount.Abs(),
		BalanceBefore: before,
		BalanceAfter:  after,
		Description:   describe(kind, req.Amount.Abs()),
		Timestamp:     now,
	}

	err = s.store.SaveAdjustment(ctx, card, tran)
	if err != nil {
		return nil, fmt.Errorf("save adjustment: %w", err)
	}

	return &AdjustResult{Card: card, Transaction: tran}, nil
}

func describe(kind ledger.Kind, abs decimal.Decimal) string {
	if kind == ledger.KindTopup {
		return fmt.Sprintf("Top-up of $%s", abs.StringFixed(2))
	}

	return fmt.Sprintf("Withdrawal of $%s", abs.StringFixed(2))
}

// --- Query side: thin delegation to the store. ---

func (s *Service) GetCard(ctx context.Context, uid string) (*ledger.Card, error) {
	return s.store.GetCard(ctx, uid)
}

func (s *Service) ListCards(ctx context.Context) ([]*ledger.Card, error) {
	return s.store.ListCards(ctx)
}

func (s *Service) ListTransactionsByCard(ctx context.Context, uid string, limit int) ([]*ledger.Transaction, error) {
	if limit <= 0 {
		limit = DefaultCardHistoryLimit
	}

	return s.store.ListTransactionsByCard(ctx, uid, limit)
}

func (s *Service) ListTransactions(ctx context.Context, limit int) ([]*ledger.Transaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	return s.store.ListTransactions(ctx, limit)
}
