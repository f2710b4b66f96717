package store

import (
	"context"
	"fmt"

	"github.com/erazemk/sladkarije/internal/model"
)

// ListMovements returns the stock history of an item, newest first.
func (s *Items) ListMovements(ctx context.Context, itemID int64) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	err := s.db.SelectContext(ctx, &movements,
		`SELECT id, item_id, kind, quantity, before_quantity, after_quantity, actor, created_at
		 FROM stock_movements
		 WHERE item_id = ?
		 ORDER BY id DESC`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing stock movements: %w", err)
	}
	return movements, nil
}
