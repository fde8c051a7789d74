package types

import "time"

// LowStockThreshold is the quantity below which a product counts as low stock.
const LowStockThreshold = 10

// Product is an inventory item owned by exactly one user.
type Product struct {
	// ID is the unique identifier of the product.
	ID int `json:"id" db:"id"`

	// Name is the human-readable product name.
	Name string `json:"name" db:"name"`

	// Category is a free-form grouping label (e.g., "Tools").
	Category string `json:"category" db:"category"`

	// Price is the unit price.
	Price float64 `json:"price" db:"price"`

	// Quantity is the number of units in stock.
	Quantity int `json:"quantity" db:"quantity"`

	// Description is optional and defaults to the empty string.
	Description string `json:"description" db:"description"`

	// UserID is the owner. It is always taken from the authenticated
	// caller, never from client input.
	UserID int `json:"user_id" db:"user_id"`

	// CreatedAt is the timestamp at which the product was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ProductInput holds the client-editable fields of a product.
// It intentionally has no owner field.
type ProductInput struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Description string  `json:"description"`
}

// Statistics aggregates one owner's inventory.
type Statistics struct {
	TotalProducts int     `json:"total_products"`
	TotalValue    float64 `json:"total_value"`
	LowStock      int     `json:"low_stock"`
	InStock       int     `json:"in_stock"`
}
