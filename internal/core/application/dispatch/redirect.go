package dispatch

import (
	"context"
	"errors"
	"fmt"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/rotation"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
)

var errCycleExhausted = errors.New("redirection cycle exhausted")

// Decline records courier turning down a pending order and redirects it.
//
// The returned order is Pending with a new courier, or Declined when every
// on-shift courier has already been tried; in that case the administrator
// is alerted and the order stays Declined.
func (c *Coordinator) Decline(ctx context.Context, id kernel.OrderID, courier kernel.ParticipantID) (*order.Order, error) {
	return c.redirect(ctx, id, courier, "declined")
}

// Redirect moves a pending order away from its current courier. It is a
// no-op returning ErrStaleAction if from no longer holds the order, so
// concurrent redirects for the same order assign it only once.
func (c *Coordinator) Redirect(ctx context.Context, id kernel.OrderID, from kernel.ParticipantID) (*order.Order, error) {
	return c.redirect(ctx, id, from, "redirected")
}

// Expire handles an elapsed acceptance timer for courier. It acts only if
// the order is still pending with that courier.
func (c *Coordinator) Expire(ctx context.Context, id kernel.OrderID, courier kernel.ParticipantID) (*order.Order, error) {
	return c.redirect(ctx, id, courier, "timeout")
}

func (c *Coordinator) onTimeout(id kernel.OrderID, courier kernel.ParticipantID) {
	ctx := context.Background()
	if _, err := c.Expire(ctx, id, courier); err != nil && !errors.Is(err, ErrStaleAction) {
		c.logger.ErrorContext(ctx, "Timeout redirect failed", "order_id", id, "courier_id", courier, "error", err)
	}
}

func (c *Coordinator) redirect(
	ctx context.Context,
	id kernel.OrderID,
	from kernel.ParticipantID,
	reason string,
) (o *order.Order, err error) {
	ctx, span := tracing.Start(ctx, "dispatch.Redirect",
		append(orderAttrs(id, from), attribute.String("redirect.reason", reason))...)
	defer func() { tracing.End(span, err) }()

	unlock := c.locks.lock(id)
	defer unlock()

	if _, err = c.current(ctx, id, order.Pending, from); err != nil {
		return nil, err
	}
	c.logger.InfoContext(ctx, "Redirecting order", "order_id", id, "courier_id", from, "reason", reason)

	o, err = c.reassignLocked(ctx, id, from)
	if errors.Is(err, errCycleExhausted) {
		c.forget(id)
		c.escalate(ctx, o, "every courier declined or missed the order")
		return o, nil
	}
	return o, err
}

// reassignLocked declines the order on behalf of from and offers it to the
// next untried courier until one receives it. Returns errCycleExhausted, with
// the Declined order, when nobody is left. Callers must hold the order lock.
func (c *Coordinator) reassignLocked(ctx context.Context, id kernel.OrderID, from kernel.ParticipantID) (*order.Order, error) {
	c.timers.Stop(id)
	c.markTried(id, from)

	o, err := c.ledger.UpdateStatus(ctx, id, order.Declined, nil)
	if err != nil {
		return nil, err
	}

	for {
		next, err := c.queue.NextExcluding(ctx, c.wasTried(id))
		if errors.Is(err, rotation.ErrNoCourierAvailable) || errors.Is(err, services.ErrRotationExhausted) {
			return o, fmt.Errorf("%w: %w", errCycleExhausted, err)
		}
		if err != nil {
			return o, err
		}

		o, err = c.ledger.UpdateStatus(ctx, id, order.Pending, &next)
		if err != nil {
			return nil, err
		}
		c.logger.InfoContext(ctx, "Order reassigned", "order_id", id, "from_courier_id", from, "courier_id", next)

		if err = c.offer(ctx, o); err == nil {
			return o, nil
		}

		c.markTried(id, next)
		if o, err = c.ledger.UpdateStatus(ctx, id, order.Declined, nil); err != nil {
			return nil, err
		}
	}
}
