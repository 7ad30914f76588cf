// Package domain contains the core business entities and interfaces for the payment service.
package domain

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository defines the interface for reading and annotating orders.
// This is a "port" in hexagonal architecture - the domain defines what it needs,
// and infrastructure provides the implementation. The storefront core owns the
// order records; this service never persists order state itself.
type OrderRepository interface {
	// GetOrderByGuid resolves an order by its correlation key.
	// Returns ErrOrderNotFound if no order matches.
	GetOrderByGuid(ctx context.Context, guid uuid.UUID) (*Order, error)

	// GetMostRecentOrder returns the customer's latest order.
	// Returns ErrOrderNotFound if the customer has none.
	GetMostRecentOrder(ctx context.Context, customerID int64) (*Order, error)

	// AddOrderNote appends a note to the order's audit log.
	AddOrderNote(ctx context.Context, orderID int64, note OrderNote) error

	// SaveOrderAttribute stores a key/value attribute on the order.
	SaveOrderAttribute(ctx context.Context, orderID int64, key, value string) error

	// GetOrderAttribute reads a previously stored attribute. An unset key
	// yields an empty string, not an error.
	GetOrderAttribute(ctx context.Context, orderID int64, key string) (string, error)
}

// OrderProcessor exposes the storefront core's order-state transitions and
// their preconditions. The core applies each transition under per-order
// mutual exclusion, so evaluating a precondition twice is safe: marking an
// already-paid order paid is a no-op on its side.
type OrderProcessor interface {
	// CanMarkOrderAsPaid reports whether the order is eligible to be marked paid.
	CanMarkOrderAsPaid(ctx context.Context, order *Order) (bool, error)

	// MarkOrderAsPaid transitions the order to paid.
	MarkOrderAsPaid(ctx context.Context, order *Order) error

	// CanVoidOffline reports whether a record-keeping void is allowed.
	CanVoidOffline(ctx context.Context, order *Order) (bool, error)

	// VoidOffline voids the order without moving any money.
	VoidOffline(ctx context.Context, order *Order) error

	// CanCancelOrder reports whether the shopper may cancel the order.
	CanCancelOrder(ctx context.Context, order *Order) (bool, error)

	// CancelOrder cancels the order.
	CancelOrder(ctx context.Context, order *Order) error
}
