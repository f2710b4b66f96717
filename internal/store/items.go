package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/sladkarije/internal/model"
)

const itemColumns = `id, name, category, unit_price, stock_quantity,
	COALESCE(image_mime, '') AS image_mime, version, created_at, updated_at`

// Items is the SQLite item repository used by the ledger.
type Items struct {
	db *sqlx.DB
}

// NewItems wraps db for item access.
func NewItems(db *sql.DB) *Items {
	return &Items{db: sqlx.NewDb(db, "sqlite")}
}

// Create inserts a new item. A live item with the same name yields
// model.ErrConflict.
func (s *Items) Create(ctx context.Context, f model.ItemFields) (*model.Item, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO items (name, category, unit_price, stock_quantity) VALUES (?, ?, ?, ?)`,
		f.Name, f.Category, f.UnitPrice, f.StockQuantity,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: item %q already exists", model.ErrConflict, f.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return s.Get(ctx, id)
}

// Get returns a live item by ID, or nil if it does not exist.
func (s *Items) Get(ctx context.Context, id int64) (*model.Item, error) {
	var item model.Item
	err := s.db.GetContext(ctx, &item,
		`SELECT `+itemColumns+` FROM items WHERE id = ? AND deleted_at IS NULL`, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return &item, nil
}

// List returns all live items ordered by name.
func (s *Items) List(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	err := s.db.SelectContext(ctx, &items,
		`SELECT `+itemColumns+` FROM items WHERE deleted_at IS NULL ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return items, nil
}

// Update replaces an item's mutable fields and bumps its version. A change to
// the stock quantity is recorded as an adjust movement by actor in the same
// transaction. It returns nil if the item does not exist.
func (s *Items) Update(ctx context.Context, id int64, f model.ItemFields, actor string) (*model.Item, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var before int
	err = tx.GetContext(ctx, &before,
		`SELECT stock_quantity FROM items WHERE id = ? AND deleted_at IS NULL`, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET name = ?, category = ?, unit_price = ?, stock_quantity = ?,
		        version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		f.Name, f.Category, f.UnitPrice, f.StockQuantity, id,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: item %q already exists", model.ErrConflict, f.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}

	if f.StockQuantity != before {
		quantity := f.StockQuantity - before
		if quantity < 0 {
			quantity = -quantity
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO stock_movements (item_id, kind, quantity, before_quantity, after_quantity, actor)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, model.MutationAdjust, quantity, before, f.StockQuantity, actor,
		)
		if err != nil {
			return nil, fmt.Errorf("recording stock adjustment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item update: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete soft-deletes an item. It reports false if there was no live item
// with that ID.
func (s *Items) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE items SET deleted_at = CURRENT_TIMESTAMP, version = version + 1
		 WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	return n > 0, nil
}

// CompareAndSetQuantity writes quantity only if the item is live and still at
// version. The movement is recorded in the same transaction. It reports false
// when the stored version has moved on.
func (s *Items) CompareAndSetQuantity(ctx context.Context, id, version int64, quantity int, mv model.StockMovement) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE items SET stock_quantity = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND version = ? AND deleted_at IS NULL`,
		quantity, id, version,
	)
	if err != nil {
		return false, fmt.Errorf("updating stock: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("updating stock: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO stock_movements (item_id, kind, quantity, before_quantity, after_quantity, actor)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, mv.Kind, mv.Quantity, mv.Before, mv.After, mv.Actor,
	)
	if err != nil {
		return false, fmt.Errorf("recording stock movement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing stock update: %w", err)
	}
	return true, nil
}

// SetImage sets an item's photo. It reports false if the item does not exist.
func (s *Items) SetImage(ctx context.Context, id int64, image []byte, mime string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		image, mime, id,
	)
	if err != nil {
		return false, fmt.Errorf("setting item image: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("setting item image: %w", err)
	}
	return n > 0, nil
}

// GetImage returns a live item's photo and MIME type. Data is nil when the
// item or its photo is missing.
func (s *Items) GetImage(ctx context.Context, id int64) ([]byte, string, error) {
	var row struct {
		Image []byte         `db:"image"`
		Mime  sql.NullString `db:"image_mime"`
	}
	err := s.db.GetContext(ctx, &row,
		`SELECT image, image_mime FROM items WHERE id = ? AND deleted_at IS NULL`, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return row.Image, row.Mime.String, nil
}
