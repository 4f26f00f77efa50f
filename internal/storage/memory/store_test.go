package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mavics/swipetopay/internal/ledger"
)

func save(t *testing.T, s *Store, uid string, balance int64, at time.Time) {
	t.Helper()

	card := &ledger.Card{
		UID:        uid,
		HolderName: "Holder",
		Balance:    decimal.NewFromInt(balance),
		CreatedAt:  at,
		UpdatedAt:  at,
	}
	tran := &ledger.Transaction{
		ID:           uuid.New(),
		UID:          uid,
		HolderName:   "Holder",
		Kind:         ledger.KindTopup,
		Amount:       decimal.NewFromInt(balance),
		BalanceAfter: card.Balance,
		Timestamp:    at,
	}

	err := s.SaveAdjustment(t.Context(), card, tran)
	if err != nil {
		t.Fatalf("save adjustment: %v", err)
	}
}

func TestGetCard_NotFound(t *testing.T) {
	t.Parallel()

	s := New()

	_, err := s.GetCard(t.Context(), "missing")
	if !errors.Is(err, ledger.ErrCardNotFound) {
		t.Fatalf("want ErrCardNotFound, got %v", err)
	}
}

func TestSaveAdjustment_UpsertsCard(t *testing.T) {
	t.Parallel()

	s := New()
	base := time.Now()

	save(t, s, "card1", 50, base)
	save(t, s, "card1", 70, base.Add(time.Second))

	card, err := s.GetCard(t.Context(), "card1")
	if err != nil {
		t.Fatalf("get card: %v", err)
	}
	if !card.Balance.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("balance: want 70, got %s", card.Balance)
	}

	trans, err := s.ListTransactionsByCard(t.Context(), "card1", 10)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(trans) != 2 {
		t.Fatalf("transactions: want 2, got %d", len(trans))
	}
}

func TestGetCard_CopiesOut(t *testing.T) {
	t.Parallel()

	s := New()
	save(t, s, "card1", 50, time.Now())

	first, err := s.GetCard(t.Context(), "card1")
	if err != nil {
		t.Fatalf("get card: %v", err)
	}

	// Mutating the returned record must not leak into the store.
	first.Balance = decimal.NewFromInt(-999)
	first.HolderName = "changed"

	second, err := s.GetCard(t.Context(), "card1")
	if err != nil {
		t.Fatalf("get card again: %v", err)
	}
	if !second.Balance.Equal(decimal.NewFromInt(50)) || second.HolderName != "Holder" {
		t.Fatalf("stored record was aliased: %+v", second)
	}
}

func TestListCards_NewestFirst(t *testing.T) {
	t.Parallel()

	s := New()
	base := time.Now()

	save(t, s, "old", 50, base)
	save(t, s, "new", 50, base.Add(time.Minute))
	save(t, s, "mid", 50, base.Add(time.Second))

	cards, err := s.ListCards(t.Context())
	if err != nil {
		t.Fatalf("list cards: %v", err)
	}

	got := make([]string, 0, len(cards))
	for _, c := range cards {
		got = append(got, c.UID)
	}

	want := []string{"new", "mid", "old"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order: want %v, got %v", want, got)
		}
	}
}

func TestListTransactions_NewestFirstAndLimited(t *testing.T) {
	t.Parallel()

	s := New()
	base := time.Now()

	save(t, s, "a", 1, base)
	save(t, s, "b", 2, base.Add(time.Second))
	save(t, s, "a", 3, base.Add(2*time.Second))

	t.Run("all", func(t *testing.T) {
		trans, err := s.ListTransactions(t.Context(), 10)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(trans) != 3 {
			t.Fatalf("count: want 3, got %d", len(trans))
		}
		if trans[0].UID != "a" || trans[1].UID != "b" || trans[2].UID != "a" {
			t.Fatalf("order: got %s %s %s", trans[0].UID, trans[1].UID, trans[2].UID)
		}
	})

	t.Run("limited", func(t *testing.T) {
		trans, err := s.ListTransactions(t.Context(), 2)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(trans) != 2 {
			t.Fatalf("count: want 2, got %d", len(trans))
		}
		if !trans[0].Amount.Equal(decimal.NewFromInt(3)) {
			t.Fatalf("newest entry: got amount %s", trans[0].Amount)
		}
	})

	t.Run("by_card", func(t *testing.T) {
		trans, err := s.ListTransactionsByCard(t.Context(), "a", 10)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(trans) != 2 {
			t.Fatalf("count: want 2, got %d", len(trans))
		}
		for _, tr := range trans {
			if tr.UID != "a" {
				t.Fatalf("foreign uid in result: %s", tr.UID)
			}
		}
	})
}
