package order

import (
	"errors"
	"fmt"
	"strings"

	"dispatch/internal/pkg/errs"
)

// ErrTransitionNotAllowed is returned for any status change absent from the
// lifecycle table.
var ErrTransitionNotAllowed = errors.New("order status transition is not allowed")

// Status is the lifecycle state of an order.
//
// State transitions:
//
//	(new) ──> Pending ──> Accepted ──> Delivered
//	            │ ▲          │
//	            ▼ │          │ (courier removed)
//	          Declined <─────┘
//
// Declined ends the current assignment. A redirect moves the order back to
// Pending with a different courier; an administrative decline is final.
type Status int

const (
	// Unknown catches uninitialized values.
	Unknown Status = iota
	Pending
	Accepted
	Delivered
	Declined
)

var statusNames = map[Status]string{
	Pending:   "pending",
	Accepted:  "accepted",
	Delivered: "delivered",
	Declined:  "declined",
}

// transitions lists every recorded status change the ledger accepts.
var transitions = map[Status][]Status{
	Unknown:  {Pending},
	Pending:  {Accepted, Declined},
	Accepted: {Delivered, Declined},
	Declined: {Pending},
}

// ParseStatus reads the persisted form written by String.
func ParseStatus(s string) (Status, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for status, name := range statusNames {
		if name == needle {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// CanTransitionTo reports whether s -> next is in the lifecycle table.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrTransitionNotAllowed wrapped with both states
// when s -> next is not a legal recorded change.
func (s Status) ValidateTransition(next Status) error {
	if !s.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, s, next)
	}
	return nil
}

// HasCourier reports whether an order in this status carries an assigned courier.
func (s Status) HasCourier() bool {
	return s == Pending || s == Accepted || s == Delivered
}

// ValidateCanHaveCourier checks the status/courier consistency rule.
func (s Status) ValidateCanHaveCourier(courier bool) error {
	if courier && !s.HasCourier() {
		return errs.NewValueIsInvalidErrorWithCause(
			"status",
			fmt.Errorf("%s is not a valid status to have a courier", s),
		)
	}
	if !courier && s.HasCourier() {
		return errs.NewValueIsInvalidErrorWithCause(
			"status",
			fmt.Errorf("%s is not a valid status to have no courier", s),
		)
	}
	return nil
}
