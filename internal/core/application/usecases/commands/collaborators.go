// Package commands holds validated write requests and the handler that
// routes courier decisions to the dispatch coordinator and the amendment
// reconciler.
package commands

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

type (
	// CourierDecisions applies a courier's answer to an assignment.
	CourierDecisions interface {
		Accept(ctx context.Context, id kernel.OrderID, courier kernel.ParticipantID) (*order.Order, error)
		Decline(ctx context.Context, id kernel.OrderID, courier kernel.ParticipantID) (*order.Order, error)
		Deliver(ctx context.Context, id kernel.OrderID, courier kernel.ParticipantID) (*order.Order, error)
	}

	// AmendmentResolver applies a courier's answer to a proposed amendment.
	AmendmentResolver interface {
		Confirm(ctx context.Context, id kernel.OrderID, courier kernel.ParticipantID) (*order.Order, error)
		Cancel(ctx context.Context, id kernel.OrderID, courier kernel.ParticipantID) error
	}
)
