package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/erazemk/sladkarije/internal/model"
)

// Sell takes quantity units of an item out of stock on behalf of actor.
func (l *Ledger) Sell(ctx context.Context, id int64, quantity int, actor string) (*model.Item, error) {
	return l.Apply(ctx, model.StockMutation{ItemID: id, Delta: quantity, Kind: model.MutationSell, Actor: actor})
}

// Restock puts quantity units of an item into stock on behalf of actor.
func (l *Ledger) Restock(ctx context.Context, id int64, quantity int, actor string) (*model.Item, error) {
	return l.Apply(ctx, model.StockMutation{ItemID: id, Delta: quantity, Kind: model.MutationRestock, Actor: actor})
}

// Apply performs a stock mutation and returns the item as it is afterwards.
//
// Mutations of one item are serialized by a per-item lock, and each write is a
// compare-and-set on the item version so that writers in other processes
// sharing the database cannot cause lost updates either. A lost race is
// retried with a fresh read up to the configured limit.
func (l *Ledger) Apply(ctx context.Context, m model.StockMutation) (*model.Item, error) {
	if m.Delta <= 0 {
		return nil, fmt.Errorf("%w: quantity must be greater than 0", model.ErrInvalidArgument)
	}
	if m.Kind != model.MutationSell && m.Kind != model.MutationRestock {
		return nil, fmt.Errorf("%w: unknown stock mutation %q", model.ErrInvalidArgument, m.Kind)
	}

	unlock := l.locks.Lock(m.ItemID)
	defer unlock()

	for attempt := 1; attempt <= l.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		item, err := l.repo.Get(ctx, m.ItemID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, notFound(m.ItemID)
		}

		next, err := nextQuantity(item, m)
		if err != nil {
			return nil, err
		}

		mv := model.StockMovement{
			ItemID:   item.ID,
			Kind:     m.Kind,
			Quantity: m.Delta,
			Before:   item.StockQuantity,
			After:    next,
			Actor:    m.Actor,
		}
		ok, err := l.repo.CompareAndSetQuantity(ctx, item.ID, item.Version, next, mv)
		if err != nil {
			return nil, err
		}
		if ok {
			item.StockQuantity = next
			item.Version++
			slog.Info("stock updated", "item", item.ID, "kind", m.Kind, "quantity", m.Delta, "stock", next, "actor", m.Actor)
			return item, nil
		}

		slog.Debug("stock compare-and-set lost, retrying", "item", item.ID, "attempt", attempt)
	}

	slog.Warn("stock update gave up after retries", "item", m.ItemID, "retries", l.maxRetries)
	return nil, fmt.Errorf("%w: item %d", model.ErrStockContention, m.ItemID)
}

func nextQuantity(item *model.Item, m model.StockMutation) (int, error) {
	if m.Kind == model.MutationRestock {
		if m.Delta > math.MaxInt-item.StockQuantity {
			return 0, fmt.Errorf("%w: restock of %d would overflow stock of %d", model.ErrInvalidArgument, m.Delta, item.StockQuantity)
		}
		return item.StockQuantity + m.Delta, nil
	}
	if !item.InStock(m.Delta) {
		return 0, &model.InsufficientStockError{Available: item.StockQuantity}
	}
	return item.StockQuantity - m.Delta, nil
}
