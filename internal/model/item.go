package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is a sellable catalog entry. StockQuantity is only ever written by
// the ledger.
type Item struct {
	ID            int64           `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Category      string          `json:"category" db:"category"`
	UnitPrice     decimal.Decimal `json:"unit_price" db:"unit_price"`
	StockQuantity int             `json:"stock_quantity" db:"stock_quantity"`
	ImageMime     string          `json:"image_mime,omitempty" db:"image_mime"`
	Version       int64           `json:"-" db:"version"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// ItemFields are the caller-supplied fields of an item, used by create and
// update.
type ItemFields struct {
	Name          string
	Category      string
	UnitPrice     decimal.Decimal
	StockQuantity int
}

// InStock reports whether at least quantity units are available.
func (i *Item) InStock(quantity int) bool {
	return i.StockQuantity >= quantity
}
