// Package ledger owns item records and is the only writer of stock
// quantities. Callers are expected to have been admitted by the access guard;
// the ledger does no authorization of its own.
package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"github.com/erazemk/sladkarije/internal/model"
)

// DefaultMaxRetries bounds the compare-and-set loop of a stock mutation.
const DefaultMaxRetries = 16

// Repository is the durable item storage the ledger is built on. Lookups of
// missing or deleted items return a nil item and a nil error.
type Repository interface {
	List(ctx context.Context) ([]model.Item, error)
	Get(ctx context.Context, id int64) (*model.Item, error)
	Create(ctx context.Context, f model.ItemFields) (*model.Item, error)
	Update(ctx context.Context, id int64, f model.ItemFields, actor string) (*model.Item, error)
	Delete(ctx context.Context, id int64) (bool, error)
	CompareAndSetQuantity(ctx context.Context, id, version int64, quantity int, mv model.StockMovement) (bool, error)
}

// Ledger is the inventory ledger.
type Ledger struct {
	repo       Repository
	locks      *keyedMutex
	maxRetries int
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithMaxRetries sets how many times a stock mutation retries after losing a
// compare-and-set race.
func WithMaxRetries(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.maxRetries = n
		}
	}
}

// New returns a ledger over repo.
func New(repo Repository, opts ...Option) *Ledger {
	l := &Ledger{
		repo:       repo,
		locks:      newKeyedMutex(),
		maxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Filter narrows a search. Nil fields impose no constraint.
type Filter struct {
	Name     *string
	Category *string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

// GetAll returns every live item.
func (l *Ledger) GetAll(ctx context.Context) ([]model.Item, error) {
	items, err := l.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// GetByID returns an item or model.ErrNotFound.
func (l *Ledger) GetByID(ctx context.Context, id int64) (*model.Item, error) {
	item, err := l.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, notFound(id)
	}
	return item, nil
}

// Search returns the items matching every set field of f. Name is a
// case-insensitive substring match, category a case-insensitive exact match
// and the price bounds are inclusive.
func (l *Ledger) Search(ctx context.Context, f Filter) ([]model.Item, error) {
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return []model.Item{}, nil
	}

	items, err := l.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	// A Caser is stateful, so each search gets its own.
	fold := cases.Fold()
	var name, category string
	if f.Name != nil {
		name = fold.String(*f.Name)
	}
	if f.Category != nil {
		category = fold.String(strings.TrimSpace(*f.Category))
	}

	matched := []model.Item{}
	for _, item := range items {
		if f.Name != nil && !strings.Contains(fold.String(item.Name), name) {
			continue
		}
		if f.Category != nil && fold.String(item.Category) != category {
			continue
		}
		if f.MinPrice != nil && item.UnitPrice.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && item.UnitPrice.GreaterThan(*f.MaxPrice) {
			continue
		}
		matched = append(matched, item)
	}
	return matched, nil
}

// Create adds a new item. A live item with the same name yields
// model.ErrConflict.
func (l *Ledger) Create(ctx context.Context, f model.ItemFields) (*model.Item, error) {
	f, err := validateFields(f)
	if err != nil {
		return nil, err
	}
	return l.repo.Create(ctx, f)
}

// Update replaces all mutable fields of an item. The ledger does not look for
// name clashes itself; the repository's unique index may still report
// model.ErrConflict. A changed stock quantity is kept in the item's history as
// an adjust movement attributed to actor.
func (l *Ledger) Update(ctx context.Context, id int64, f model.ItemFields, actor string) (*model.Item, error) {
	f, err := validateFields(f)
	if err != nil {
		return nil, err
	}

	unlock := l.locks.Lock(id)
	defer unlock()

	item, err := l.repo.Update(ctx, id, f, actor)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, notFound(id)
	}
	return item, nil
}

// Delete removes an item.
func (l *Ledger) Delete(ctx context.Context, id int64) error {
	unlock := l.locks.Lock(id)
	defer unlock()

	ok, err := l.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return notFound(id)
	}
	return nil
}

func validateFields(f model.ItemFields) (model.ItemFields, error) {
	f.Name = strings.TrimSpace(f.Name)
	f.Category = strings.TrimSpace(f.Category)

	switch {
	case f.Name == "":
		return f, fmt.Errorf("%w: name must not be blank", model.ErrInvalidArgument)
	case f.Category == "":
		return f, fmt.Errorf("%w: category must not be blank", model.ErrInvalidArgument)
	case !f.UnitPrice.IsPositive():
		return f, fmt.Errorf("%w: unit price must be greater than 0", model.ErrInvalidArgument)
	case f.StockQuantity < 0:
		return f, fmt.Errorf("%w: stock quantity must not be negative", model.ErrInvalidArgument)
	}
	return f, nil
}

func notFound(id int64) error {
	return fmt.Errorf("%w: item %d", model.ErrNotFound, id)
}
