package commands

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
	ErrOriginIsRequired     = errors.New("origin is required")
	ErrTimeWindowIsRequired = errors.New("time window is required")
	ErrPackagesMismatch     = errors.New("package count must match the number of distances")
	ErrReservedCharacter    = errors.New(`must not contain '|', '"' or line breaks`)
)

// reservedChars are the ledger separator, the quote and line breaks.
const reservedChars = "|\"\r\n"

// CreateOrderCommand is a requester's order submission: where to pick up,
// when, and the distance tier of every package.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(requesterID, "Pizzeria on Lenina", "14:30", 2,
//	    []kernel.Distance{kernel.Near, kernel.Far})
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//	o, err := coordinator.Dispatch(ctx, cmd)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	requester  kernel.ParticipantID
	origin     string
	timeWindow string
	distances  []kernel.Distance

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates every field and that packages equals
// len(distances).
func NewCreateOrderCommand(
	requester kernel.ParticipantID,
	origin, timeWindow string,
	packages int,
	distances []kernel.Distance,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setRequester(requester),
		cmd.setOrigin(origin),
		cmd.setTimeWindow(timeWindow),
		cmd.setDistances(packages, distances),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) Requester() kernel.ParticipantID {
	return c.requester
}

func (c CreateOrderCommand) Origin() string {
	return c.origin
}

func (c CreateOrderCommand) TimeWindow() string {
	return c.timeWindow
}

func (c CreateOrderCommand) Packages() int {
	return len(c.distances)
}

func (c CreateOrderCommand) Distances() []kernel.Distance {
	return slices.Clone(c.distances)
}

func (c *CreateOrderCommand) setRequester(requester kernel.ParticipantID) error {
	if err := requester.Validate(); err != nil {
		return err
	}
	c.requester = requester
	return nil
}

func (c *CreateOrderCommand) setOrigin(origin string) error {
	if strings.TrimSpace(origin) == "" {
		return ErrOriginIsRequired
	}
	if strings.ContainsAny(origin, reservedChars) {
		return fmt.Errorf("origin %w", ErrReservedCharacter)
	}
	c.origin = strings.TrimSpace(origin)
	return nil
}

func (c *CreateOrderCommand) setTimeWindow(timeWindow string) error {
	if strings.TrimSpace(timeWindow) == "" {
		return ErrTimeWindowIsRequired
	}
	if strings.ContainsAny(timeWindow, reservedChars) {
		return fmt.Errorf("time window %w", ErrReservedCharacter)
	}
	c.timeWindow = strings.TrimSpace(timeWindow)
	return nil
}

func (c *CreateOrderCommand) setDistances(packages int, distances []kernel.Distance) error {
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
