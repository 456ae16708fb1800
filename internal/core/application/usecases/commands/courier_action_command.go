package commands

import (
	"errors"
	"fmt"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrCourierActionCommandIsNotConstructed = errors.New(
	"CourierActionCommand must be created via NewCourierActionCommand constructor",
)

// CourierActionCommand is one button press by a courier: accept, decline or
// deliver an order, or confirm or cancel an amendment to it. EventID tags
// the press so duplicates from the transport can be told apart in logs.
type CourierActionCommand struct { //nolint:recvcheck //using for validation
	eventID kernel.EventID
	kind    ports.ActionKind
	orderID kernel.OrderID
	courier kernel.ParticipantID

	guard guard.ConstructorGuard
}

func NewCourierActionCommand(
	eventID kernel.EventID,
	kind ports.ActionKind,
	orderID kernel.OrderID,
	courier kernel.ParticipantID,
) (CourierActionCommand, error) {
	var kindErr error
	if !kind.IsValid() {
		kindErr = errs.NewValueIsInvalidErrorWithCause("action kind", fmt.Errorf("%q is not an action", kind))
	}
	if err := errors.Join(
		eventID.Validate(),
		kindErr,
		orderID.Validate(),
		courier.Validate(),
	); err != nil {
		return CourierActionCommand{}, err
	}

	return CourierActionCommand{
		eventID: eventID,
		kind:    kind,
		orderID: orderID,
		courier: courier,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c CourierActionCommand) Validate() error {
	return c.guard.Validate(ErrCourierActionCommandIsNotConstructed)
}

func (c CourierActionCommand) EventID() kernel.EventID {
	return c.eventID
}

func (c CourierActionCommand) Kind() ports.ActionKind {
	return c.kind
}

func (c CourierActionCommand) OrderID() kernel.OrderID {
	return c.orderID
}

func (c CourierActionCommand) Courier() kernel.ParticipantID {
	return c.courier
}
