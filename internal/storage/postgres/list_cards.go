package postgres

import (
	"context"
	"fmt"

	"github.com/mavics/swipetopay/internal/ledger"
)

func (s *Store) ListCards(ctx context.Context) ([]*ledger.Card, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT uid, holder_name, balance, last_adjustment, created_at, updated_at
		FROM cards
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []*ledger.Card

	for rows.Next() {
		var card ledger.Card

		err = rows.Scan(
			&card.UID,
			&card.HolderName,
			&card.Balance,
			&card.LastAdjustment,
			&card.CreatedAt,
			&card.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}

		cards = append(cards, &card)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}

	return cards, nil
}
