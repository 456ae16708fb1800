// Package amendment models a requester's proposal to add packages to an
// order a courier has already accepted.
package amendment

import (
	"errors"
	"slices"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrAmendmentIsNotConstructed = errors.New("Amendment must be created via NewAmendment")

// Amendment is the pending addition to an accepted order, priced with the
// requester's tariff at proposal time.
type Amendment struct {
	orderID    kernel.OrderID
	distances  []kernel.Distance
	addedPrice int
	guard      guard.ConstructorGuard
}

func NewAmendment(orderID kernel.OrderID, distances []kernel.Distance, tariff kernel.Tariff) (Amendment, error) {
	if len(distances) == 0 {
		return Amendment{}, errs.NewValueIsRequiredError("added distances")
	}
	if err := orderID.Validate(); err != nil {
		return Amendment{}, err
	}
	price, err := tariff.PriceOf(distances)
	if err != nil {
		return Amendment{}, err
	}

	return Amendment{
		orderID:    orderID,
		distances:  slices.Clone(distances),
		addedPrice: price,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (a Amendment) Validate() error {
	return a.guard.Validate(ErrAmendmentIsNotConstructed)
}

func (a Amendment) OrderID() kernel.OrderID {
	return a.orderID
}

func (a Amendment) AddedPackages() int {
	return len(a.distances)
}

func (a Amendment) AddedDistances() []kernel.Distance {
	return slices.Clone(a.distances)
}

func (a Amendment) AddedPrice() int {
	return a.addedPrice
}
