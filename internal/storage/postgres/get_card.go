package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mavics/swipetopay/internal/ledger"
)

func (s *Store) GetCard(ctx context.Context, uid string) (*ledger.Card, error) {
	var card ledger.Card

	err := s.db.QueryRowContext(ctx, `
		SELECT uid, holder_name, balance, last_adjustment, created_at, updated_at
		FROM cards
		WHERE uid = $1
	`, uid).Scan(
		&card.UID,
		&card.HolderName,
		&card.Balance,
		&card.LastAdjustment,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrCardNotFound
		}

		return nil, fmt.Errorf("get card: %w", err)
	}

	return &card, nil
}
