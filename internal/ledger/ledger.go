// Package ledger holds the domain types shared by the service, storage and
// API layers: the current state of a card and its immutable transaction
// history.
package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind classifies an adjustment by the sign of the requested amount.
type Kind string

const (
	KindTopup Kind = "topup"
	KindDebit Kind = "debit"
)

// Card is the authoritative current state of one physical card.
type Card struct {
	UID            string
	HolderName     string
	Balance        decimal.Decimal
	LastAdjustment decimal.Decimal // absolute value of the most recent adjustment
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Transaction is one append-only history entry. Records are never mutated or
// deleted after commit.
type Transaction struct {
	ID            uuid.UUID
	UID           string
	HolderName    string
	Kind          Kind
	Amount        decimal.Decimal // absolute value
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Description   string
	Timestamp     time.Time
}

var (
	ErrCardNotFound        = errors.New("card not found")
	ErrInvalidUID          = errors.New("uid is required")
	ErrHolderNameRequired  = errors.New("holder name is required for new cards")
	ErrInsufficientBalance = errors.New("insufficient balance")
)
