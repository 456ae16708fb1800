package commands

import (
	"context"
	"fmt"
	"log/slog"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// CourierActionCommandHandler dispatches a courier action by kind.
//
// Example:
//
//	cmd, _ := NewCourierActionCommand(kernel.NewEventID(), ports.ActionAccept, orderID, courierID)
//	o, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, dispatch.ErrStaleAction) {
//	    // the button was pressed twice or too late
//	}
type CourierActionCommandHandler struct {
	decisions  CourierDecisions
	amendments AmendmentResolver
	logger     *slog.Logger
}

func NewCourierActionCommandHandler(
	decisions CourierDecisions,
	amendments AmendmentResolver,
	logger *slog.Logger,
) (CourierActionCommandHandler, error) {
	if decisions == nil {
		return CourierActionCommandHandler{}, errs.NewValueIsRequiredError("courier decisions")
	}
	if amendments == nil {
		return CourierActionCommandHandler{}, errs.NewValueIsRequiredError("amendment resolver")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return CourierActionCommandHandler{
		decisions:  decisions,
		amendments: amendments,
		logger:     logger.With("component", "courier_action_handler"),
	}, nil
}

// Handle returns the order after the action, or nil for a cancelled
// amendment. Errors from the target are returned unchanged.
func (h CourierActionCommandHandler) Handle(ctx context.Context, cmd CourierActionCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	h.logger.DebugContext(ctx, "Courier action",
		"event_id", cmd.EventID().String(), "kind", cmd.Kind(), "order_id", cmd.OrderID(), "courier_id", cmd.Courier())

	id, courier := cmd.OrderID(), cmd.Courier()
	switch cmd.Kind() {
	case ports.ActionAccept:
		return h.decisions.Accept(ctx, id, courier)
	case ports.ActionDecline:
		return h.decisions.Decline(ctx, id, courier)
	case ports.ActionDelivered:
		return h.decisions.Deliver(ctx, id, courier)
	case ports.ActionConfirm:
		return h.amendments.Confirm(ctx, id, courier)
	case ports.ActionCancel:
		return nil, h.amendments.Cancel(ctx, id, courier)
	default:
		return nil, fmt.Errorf("%w: action %q", errs.ErrValueIsInvalid, cmd.Kind())
	}
}
