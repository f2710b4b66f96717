package model

import "time"

// Stock mutation kinds.
const (
	MutationSell    = "sell"
	MutationRestock = "restock"
	// MutationAdjust is recorded when an item edit overwrites the stock
	// quantity directly.
	MutationAdjust = "adjust"
)

// StockMutation is a single request to change an item's stock. It is never
// stored; a successful mutation leaves a StockMovement behind.
type StockMutation struct {
	ItemID int64
	Delta  int
	Kind   string
	Actor  string
}

// StockMovement records an applied stock mutation.
type StockMovement struct {
	ID        int64     `json:"id" db:"id"`
	ItemID    int64     `json:"item_id" db:"item_id"`
	Kind      string    `json:"kind" db:"kind"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Before    int       `json:"before" db:"before_quantity"`
	After     int       `json:"after" db:"after_quantity"`
	Actor     string    `json:"actor,omitempty" db:"actor"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
