package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mavics/swipetopay/internal/infra/pgtestutil"
	"github.com/mavics/swipetopay/internal/ledger"
)

func seedTransaction(t *testing.T, db *sql.DB, uid string, amount string, at time.Time) uuid.UUID {
	t.Helper()

	id := uuid.New()

	_, err := db.Exec(`
		INSERT INTO transactions
			(id, uid, holder_name, kind, amount, balance_before, balance_after, description, timestamp)
		VALUES ($1, $2, 'Holder', 'topup', $3, 0, $3, 'Top-up', $4)
	`, id, uid, amount, at)
	if err != nil {
		t.Fatalf("seed transaction for %s: %v", uid, err)
	}

	return id
}

func TestStore_ListTransactions(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	base := time.Now().UTC().Truncate(time.Second)

	seedTransaction(t, db, "a", "1", base.Add(-2*time.Minute))
	seedTransaction(t, db, "b", "2", base.Add(-time.Minute))
	newest := seedTransaction(t, db, "a", "3", base)

	store := New(db)

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	t.Run("newest_first", func(t *testing.T) {
		trans, err := store.ListTransactions(ctx, 10)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(trans) != 3 {
			t.Fatalf("count: want 3, got %d", len(trans))
		}
		if trans[0].ID != newest {
			t.Fatalf("newest entry: want %s, got %s", newest, trans[0].ID)
		}
		if trans[0].Kind != ledger.KindTopup {
			t.Fatalf("kind: got %s", trans[0].Kind)
		}
	})

	t.Run("limit_applies", func(t *testing.T) {
		trans, err := store.ListTransactions(ctx, 2)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(trans) != 2 {
			t.Fatalf("count: want 2, got %d", len(trans))
		}
	})

	t.Run("by_card_filters", func(t *testing.T) {
		trans, err := store.ListTransactionsByCard(ctx, "a", 10)
		if err != nil {
			t.Fatalf("list by card: %v", err)
		}
		if len(trans) != 2 {
			t.Fatalf("count: want 2, got %d", len(trans))
		}
		for _, tr := range trans {
			if tr.UID != "a" {
				t.Fatalf("foreign uid: %s", tr.UID)
			}
		}
	})

	t.Run("unknown_card_empty", func(t *testing.T) {
		trans, err := store.ListTransactionsByCard(ctx, "nope", 10)
		if err != nil {
			t.Fatalf("list by card: %v", err)
		}
		if len(trans) != 0 {
			t.Fatalf("count: want 0, got %d", len(trans))
		}
	})
}

func TestStore_ListTransactions_TieBreakOnID(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	at := time.Now().UTC().Truncate(time.Second)

	// Same timestamp; ordering must still be deterministic.
	first := seedTransaction(t, db, "a", "1", at)
	second := seedTransaction(t, db, "a", "2", at)

	store := New(db)

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	trans, err := store.ListTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(trans) != 2 {
		t.Fatalf("count: want 2, got %d", len(trans))
	}

	got := map[uuid.UUID]bool{trans[0].ID: true, trans[1].ID: true}
	if !got[first] || !got[second] {
		t.Fatalf("missing rows: %v", got)
	}

	if trans[0].ID.String() < trans[1].ID.String() {
		t.Fatalf("tie not broken by id desc: %s before %s", trans[0].ID, trans[1].ID)
	}
}
