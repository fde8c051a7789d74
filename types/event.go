package types

import "time"

// ProductEventType names a product lifecycle transition.
type ProductEventType string

const (
	ProductCreated ProductEventType = "product.created"
	ProductUpdated ProductEventType = "product.updated"
	ProductDeleted ProductEventType = "product.deleted"
)

// ProductEvent is published to the message broker after a product mutation
// has been committed.
type ProductEvent struct {
	Type       ProductEventType `json:"type"`
	ProductID  int              `json:"product_id"`
	UserID     int              `json:"user_id"`
	OccurredAt time.Time        `json:"occurred_at"`

	// Product is the state after the mutation. Nil for deletions.
	Product *Product `json:"product,omitempty"`
}
