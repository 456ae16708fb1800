package dispatch

import (
	"context"
	"errors"
	"fmt"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
)

// StartShift puts a registered, unblocked courier into rotation.
func (c *Coordinator) StartShift(ctx context.Context, courier kernel.ParticipantID) error {
	if err := courier.Validate(); err != nil {
		return err
	}
	blocked, err := c.registry.IsBlocked(ctx, courier)
	if err != nil {
		return err
	}
	if blocked {
		return fmt.Errorf("%w: %s", ErrCourierBlocked, courier)
	}
	registered, err := c.registry.IsRegisteredWorker(ctx, courier)
	if err != nil {
		return err
	}
	if !registered {
		return fmt.Errorf("%w: %s", ErrCourierNotRegistered, courier)
	}
	return c.queue.Join(ctx, courier)
}

// EndShift takes the courier out of rotation. Orders they already hold are
// unaffected.
func (c *Coordinator) EndShift(ctx context.Context, courier kernel.ParticipantID) error {
	return c.queue.Leave(ctx, courier)
}

// OnShift reports whether courier is currently in rotation.
func (c *Coordinator) OnShift(courier kernel.ParticipantID) bool {
	return c.queue.Contains(courier)
}

// RemovalReport lists what happened to the orders of a removed courier.
// Stranded orders were pending with the courier and nobody else could take
// them; they end Declined and the administrator was alerted.
type RemovalReport struct {
	Cancelled  []kernel.OrderID
	Redirected []kernel.OrderID
	Stranded   []kernel.OrderID
}

// RemoveCourier is the administrative removal of a courier. The courier is
// blocked and leaves rotation; accepted orders they hold are declined for
// good and their requesters told; pending offers move to the next courier.
// The courier is sent a deactivation notice if possible.
func (c *Coordinator) RemoveCourier(ctx context.Context, courier kernel.ParticipantID) (RemovalReport, error) {
	var report RemovalReport
	if err := courier.Validate(); err != nil {
		return report, err
	}

	if err := c.registry.Block(ctx, courier); err != nil {
		return report, fmt.Errorf("block courier: %w", err)
	}
	if err := c.queue.Leave(ctx, courier); err != nil {
		return report, err
	}

	orders, err := c.ledger.List(ctx)
	if err != nil {
		return report, err
	}

	var errList []error
	for _, o := range orders {
		if !o.IsAssignedTo(courier) {
			continue
		}
		switch o.Status() {
		case order.Accepted:
			if err = c.cancelAccepted(ctx, o.ID(), courier); err != nil && !errors.Is(err, ErrStaleAction) {
				errList = append(errList, err)
				continue
			}
			if err == nil {
				report.Cancelled = append(report.Cancelled, o.ID())
			}
		case order.Pending:
			moved, redirectErr := c.redirect(ctx, o.ID(), courier, "courier removed")
			switch {
			case errors.Is(redirectErr, ErrStaleAction):
			case redirectErr != nil:
				errList = append(errList, redirectErr)
			case moved.Status() == order.Declined:
				report.Stranded = append(report.Stranded, o.ID())
			default:
				report.Redirected = append(report.Redirected, o.ID())
			}
		default:
		}
	}

	if sendErr := c.notifier.Send(ctx, ports.Message{
		Recipient: courier,
		Kind:      ports.MessageDeactivated,
	}); sendErr != nil {
		c.logger.WarnContext(ctx, "Deactivation notice not delivered", "courier_id", courier, "error", sendErr)
	}

	c.logger.InfoContext(ctx, "Courier removed",
		"courier_id", courier, "cancelled", len(report.Cancelled), "redirected", len(report.Redirected), "stranded", len(report.Stranded))
	return report, errors.Join(errList...)
}

func (c *Coordinator) cancelAccepted(ctx context.Context, id kernel.OrderID, courier kernel.ParticipantID) error {
	unlock := c.locks.lock(id)
	defer unlock()

	if _, err := c.current(ctx, id, order.Accepted, courier); err != nil {
		return err
	}
	o, err := c.ledger.UpdateStatus(ctx, id, order.Declined, nil)
	if err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "Accepted order cancelled by courier removal", "order_id", id, "courier_id", courier)

	c.notifyStatus(ctx, ports.Message{
		Recipient:  o.Requester(),
		Kind:       ports.MessageCancelled,
		OrderID:    id,
		Order:      o,
		Attributes: map[string]string{"reason": "courier removed"},
	})
	return nil
}
