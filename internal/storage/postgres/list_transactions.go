package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mavics/swipetopay/internal/ledger"
)

func (s *Store) ListTransactionsByCard(ctx context.Context, uid string, limit int) ([]*ledger.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, uid, holder_name, kind, amount, balance_before, balance_after, description, timestamp
		FROM transactions
		WHERE uid = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT $2
	`, uid, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions by card: %w", err)
	}

	return scanTransactions(rows)
}

func (s *Store) ListTransactions(ctx context.Context, limit int) ([]*ledger.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, uid, holder_name, kind, amount, balance_before, balance_after, description, timestamp
		FROM transactions
		ORDER BY timestamp DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]*ledger.Transaction, error) {
	defer rows.Close()

	var trans []*ledger.Transaction

	for rows.Next() {
		var (
			tran ledger.Transaction
			kind string
		)

		err := rows.Scan(
			&tran.ID,
			&tran.UID,
			&tran.HolderName,
			&kind,
			&tran.Amount,
			&tran.BalanceBefore,
			&tran.BalanceAfter,
			&tran.Description,
			&tran.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}

		tran.Kind = ledger.Kind(kind)
		trans = append(trans, &tran)
	}

	err := rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return trans, nil
}
