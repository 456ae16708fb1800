package commands

import (
	"errors"
	"fmt"
	"slices"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrProposeAmendmentCommandIsNotConstructed = errors.New(
	"ProposeAmendmentCommand must be created via NewProposeAmendmentCommand constructor",
)

// ProposeAmendmentCommand asks to add packages to an order the requester
// already has accepted by a courier.
type ProposeAmendmentCommand struct { //nolint:recvcheck //using for validation
	orderID   kernel.OrderID
	requester kernel.ParticipantID
	distances []kernel.Distance

	guard guard.ConstructorGuard
}

func NewProposeAmendmentCommand(
	orderID kernel.OrderID,
	requester kernel.ParticipantID,
	packages int,
	distances []kernel.Distance,
) (ProposeAmendmentCommand, error) {
	cmd := ProposeAmendmentCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		orderID.Validate(),
		requester.Validate(),
		cmd.setDistances(packages, distances),
	); err != nil {
		return ProposeAmendmentCommand{}, err
	}
	cmd.orderID = orderID
	cmd.requester = requester

	return cmd, nil
}

func (c ProposeAmendmentCommand) Validate() error {
	return c.guard.Validate(ErrProposeAmendmentCommandIsNotConstructed)
}

func (c ProposeAmendmentCommand) OrderID() kernel.OrderID {
	return c.orderID
}

func (c ProposeAmendmentCommand) Requester() kernel.ParticipantID {
	return c.requester
}

func (c ProposeAmendmentCommand) AddedPackages() int {
	return len(c.distances)
}

func (c ProposeAmendmentCommand) AddedDistances() []kernel.Distance {
	return slices.Clone(c.distances)
}

func (c *ProposeAmendmentCommand) setDistances(packages int, distances []kernel.Distance) error {
	if packages <= 0 || packages != len(distances) {
		return fmt.Errorf("%w: %d packages, %d distances", ErrPackagesMismatch, packages, len(distances))
	}
	for _, d := range distances {
		if err := d.Validate(); err != nil {
			return err
		}
	}
	c.distances = slices.Clone(distances)
	return nil
}
