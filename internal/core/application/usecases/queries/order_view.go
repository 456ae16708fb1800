// Package queries answers read requests against the order ledger: single
// orders, a requester's last accepted order and aggregated reports.
package queries

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// OrderReader is the read side of the order ledger.
type OrderReader interface {
	FindByID(ctx context.Context, id kernel.OrderID) (*order.Order, error)
	FindLastAcceptedFor(ctx context.Context, requester kernel.ParticipantID) (*order.Order, error)
	List(ctx context.Context) ([]*order.Order, error)
}

// OrderView is a flat copy of an order for callers outside the core.
type OrderView struct {
	ID         kernel.OrderID
	Requester  kernel.ParticipantID
	Origin     string
	TimeWindow string
	Packages   int
	Distances  []kernel.Distance
	Price      int
	Status     order.Status
	CreatedAt  time.Time
	Courier    *kernel.ParticipantID
}

func newOrderView(o *order.Order) OrderView {
	return OrderView{
		ID:         o.ID(),
		Requester:  o.Requester(),
		Origin:     o.Origin(),
		TimeWindow: o.TimeWindow(),
		Packages:   o.Packages(),
		Distances:  o.Distances(),
		Price:      o.Price(),
		Status:     o.Status(),
		CreatedAt:  o.CreatedAt(),
		Courier:    o.Courier(),
	}
}
