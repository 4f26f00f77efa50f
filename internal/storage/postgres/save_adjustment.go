package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mavics/swipetopay/internal/infra/pgutils"
	"github.com/mavics/swipetopay/internal/ledger"
)

// SaveAdjustment writes the updated card row and the new transaction row in a
// single database transaction. The upsert deliberately leaves holder_name and
// created_at untouched on conflict: the holder name is first-write-wins.
func (s *Store) SaveAdjustment(ctx context.Context, card *ledger.Card, tran *ledger.Transaction) error {
	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cards (uid, holder_name, balance, last_adjustment, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (uid) DO UPDATE SET
				balance = EXCLUDED.balance,
				last_adjustment = EXCLUDED.last_adjustment,
				updated_at = EXCLUDED.updated_at
		`, card.UID, card.HolderName, card.Balance, card.LastAdjustment, card.CreatedAt, card.UpdatedAt)
		if err != nil {
			return fmt.Errorf("upsert card: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO transactions
				(id, uid, holder_name, kind, amount, balance_before, balance_after, description, timestamp)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, tran.ID, tran.UID, tran.HolderName, string(tran.Kind), tran.Amount,
			tran.BalanceBefore, tran.BalanceAfter, tran.Description, tran.Timestamp)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("save adjustment: %w", err)
	}

	return nil
}
