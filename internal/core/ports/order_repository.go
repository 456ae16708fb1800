// Package ports declares the contracts between the dispatch core and its
// infrastructure: order storage, rotation state, id generation, the
// participant registry and outbound notifications.
package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// OrderRepository is the storage behind the order ledger. Implementations
// need not be safe for concurrent use; the ledger serializes every call.
type OrderRepository interface {
	// Add stores a new record. Returns errs.ErrObjectAlreadyExists when the
	// id is taken.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update rewrites the record with the aggregate's id in full. Returns
	// errs.ErrObjectNotFound when no record matches.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get returns errs.ErrObjectNotFound for an unknown id.
	Get(ctx context.Context, id kernel.OrderID) (*order.Order, error)

	// GetLastInStatusFor returns the most recently created order of requester
	// currently in status, or errs.ErrObjectNotFound.
	GetLastInStatusFor(ctx context.Context, requester kernel.ParticipantID, status order.Status) (*order.Order, error)

	// List returns every record ordered by id.
	List(ctx context.Context) ([]*order.Order, error)

	// Remove deletes one record. Returns errs.ErrObjectNotFound when absent.
	Remove(ctx context.Context, id kernel.OrderID) error

	// RemoveAll empties the store. The order id sequence is not affected.
	RemoveAll(ctx context.Context) error
}

// OrderSequence hands out order ids. Ids are strictly increasing and are
// never reused, including across ledger resets and restarts.
type OrderSequence interface {
	Next(ctx context.Context) (kernel.OrderID, error)
}
