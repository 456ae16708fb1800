package order

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

var ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder")

// Order is a delivery job submitted by a requester and tracked through its
// lifecycle. It is the unit the ledger stores.
//
// Invariants:
//   - packages equals len(distances)
//   - courier is set exactly when status is Pending, Accepted or Delivered
//   - price is never negative
type Order struct {
	id         kernel.OrderID
	requester  kernel.ParticipantID
	origin     string
	timeWindow string
	distances  []kernel.Distance
	price      int
	status     Status
	createdAt  time.Time
	courier    *kernel.ParticipantID

	isConstructed bool
}

// NewOrder builds a freshly dispatched order: it starts Pending and assigned
// to courier.
func NewOrder(
	id kernel.OrderID,
	requester kernel.ParticipantID,
	origin, timeWindow string,
	distances []kernel.Distance,
	price int,
	courier kernel.ParticipantID,
	createdAt time.Time,
) (*Order, error) {
	o := &Order{
		status:        Pending,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setRequester(requester),
		o.setOrigin(origin),
		o.setTimeWindow(timeWindow),
		o.setDistances(distances),
		o.setPrice(price),
		o.setCreatedAt(createdAt),
		o.setCourier(&courier),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// RestoreOrder rebuilds an order read back from storage. Unlike NewOrder it
// accepts any status, but still enforces every field invariant.
func RestoreOrder(
	id kernel.OrderID,
	requester kernel.ParticipantID,
	origin, timeWindow string,
	distances []kernel.Distance,
	price int,
	status Status,
	createdAt time.Time,
	courier *kernel.ParticipantID,
) (*Order, error) {
	o := &Order{isConstructed: true}

	if err := errors.Join(
		o.setID(id),
		o.setRequester(requester),
		o.setOrigin(origin),
		o.setTimeWindow(timeWindow),
		o.setDistances(distances),
		o.setPrice(price),
		o.setCreatedAt(createdAt),
		status.Validate(),
	); err != nil {
		return nil, err
	}
	if err := status.ValidateCanHaveCourier(courier != nil); err != nil {
		return nil, err
	}
	if err := o.setCourier(courier); err != nil {
		return nil, err
	}
	o.status = status

	return o, nil
}

func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

func (o *Order) ID() kernel.OrderID {
	return o.id
}

func (o *Order) Requester() kernel.ParticipantID {
	return o.requester
}

func (o *Order) Origin() string {
	return o.origin
}

func (o *Order) TimeWindow() string {
	return o.timeWindow
}

func (o *Order) Packages() int {
	return len(o.distances)
}

// Distances returns a copy of the per-package tiers.
func (o *Order) Distances() []kernel.Distance {
	return slices.Clone(o.distances)
}

func (o *Order) Price() int {
	return o.price
}

func (o *Order) Status() Status {
	return o.status
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

// Courier returns the assigned courier or nil when the order is Declined.
func (o *Order) Courier() *kernel.ParticipantID {
	if o.courier == nil {
		return nil
	}
	c := *o.courier
	return &c
}

// IsAssignedTo reports whether courier currently holds the order.
func (o *Order) IsAssignedTo(courier kernel.ParticipantID) bool {
	return o.courier != nil && *o.courier == courier
}

// Clone returns a deep copy, so callers outside the ledger never share
// state with a stored record.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.distances = slices.Clone(o.distances)
	c.courier = o.Courier()
	return &c
}

// TransitionTo moves the order to next, enforcing the lifecycle table. A
// courier is required when next keeps one assigned and is ignored (cleared)
// for Declined. Delivered and Accepted keep the current courier when none
// is given.
func (o *Order) TransitionTo(next Status, courier *kernel.ParticipantID) error {
	if err := o.status.ValidateTransition(next); err != nil {
		return err
	}

	switch {
	case next == Declined:
		o.courier = nil
	case courier != nil:
		if err := courier.Validate(); err != nil {
			return err
		}
		c := *courier
		o.courier = &c
	case o.courier == nil:
		return errs.NewValueIsRequiredError("courier")
	}

	o.status = next
	return nil
}

// Amend folds added packages into the order. The price grows by addedPrice.
func (o *Order) Amend(added []kernel.Distance, addedPrice int) error {
	if len(added) == 0 {
		return errs.NewValueIsRequiredError("added distances")
	}
	if addedPrice < 0 {
		return errs.NewValueIsInvalidErrorWithCause("added price", fmt.Errorf("%d is negative", addedPrice))
	}
	return o.SetAmounts(len(o.distances)+len(added), append(slices.Clone(o.distances), added...), o.price+addedPrice)
}

// SetAmounts overwrites packages, distances and price together. packages
// must match len(distances).
func (o *Order) SetAmounts(packages int, distances []kernel.Distance, price int) error {
	if packages != len(distances) {
		return errs.NewValueIsInvalidErrorWithCause(
			"packages",
			fmt.Errorf("%d packages do not match %d distances", packages, len(distances)),
		)
	}
	return errors.Join(o.setDistances(distances), o.setPrice(price))
}

func (o *Order) setID(id kernel.OrderID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setRequester(requester kernel.ParticipantID) error {
	if err := requester.Validate(); err != nil {
		return err
	}
	o.requester = requester
	return nil
}

func (o *Order) setOrigin(origin string) error {
	if strings.TrimSpace(origin) == "" {
		return errs.NewValueIsRequiredError("origin")
	}
	o.origin = origin
	return nil
}

func (o *Order) setTimeWindow(timeWindow string) error {
	if strings.TrimSpace(timeWindow) == "" {
		return errs.NewValueIsRequiredError("time window")
	}
	o.timeWindow = timeWindow
	return nil
}

func (o *Order) setDistances(distances []kernel.Distance) error {
	if len(distances) == 0 {
		return errs.NewValueIsRequiredError("distances")
	}
	for _, d := range distances {
		if err := d.Validate(); err != nil {
			return err
		}
	}
	o.distances = slices.Clone(distances)
	return nil
}

func (o *Order) setPrice(price int) error {
	if price < 0 {
		return errs.NewValueIsInvalidErrorWithCause("price", fmt.Errorf("%d is negative", price))
	}
	o.price = price
	return nil
}

func (o *Order) setCreatedAt(createdAt time.Time) error {
	if createdAt.IsZero() {
		return errs.NewValueIsRequiredError("created at")
	}
	o.createdAt = createdAt
	return nil
}

func (o *Order) setCourier(courier *kernel.ParticipantID) error {
	if courier == nil {
		o.courier = nil
		return nil
	}
	if err := courier.Validate(); err != nil {
		return err
	}
	c := *courier
	o.courier = &c
	return nil
}
