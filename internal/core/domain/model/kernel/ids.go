package kernel

import (
	"fmt"
	"strconv"
	"strings"

	"dispatch/internal/pkg/errs"
)

// OrderID is the sequence-generated identity of an order. Ids are positive
// and never reused, even after the ledger is reset.
type OrderID int64

// NewOrderID validates a raw sequence value.
func NewOrderID(v int64) (OrderID, error) {
	id := OrderID(v)
	if err := id.Validate(); err != nil {
		return 0, err
	}
	return id, nil
}

// ParseOrderID accepts "17" as well as the display form "#17".
func ParseOrderID(s string) (OrderID, error) {
	v, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil {
		return 0, errs.NewValueIsInvalidErrorWithCause("order id", err)
	}
	return NewOrderID(v)
}

func (id OrderID) Validate() error {
	if id <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("order id", fmt.Errorf("%d is not greater than 0", int64(id)))
	}
	return nil
}

func (id OrderID) Int64() int64 {
	return int64(id)
}

func (id OrderID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParticipantID identifies a courier, a requester or the administrator in
// the external messaging system.
type ParticipantID int64

func NewParticipantID(v int64) (ParticipantID, error) {
	id := ParticipantID(v)
	if err := id.Validate(); err != nil {
		return 0, err
	}
	return id, nil
}

func ParseParticipantID(s string) (ParticipantID, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, errs.NewValueIsInvalidErrorWithCause("participant id", err)
	}
	return NewParticipantID(v)
}

func (id ParticipantID) Validate() error {
	if id <= 0 {
		return errs.NewValueIsInvalidErrorWithCause(
			"participant id",
			fmt.Errorf("%d is not greater than 0", int64(id)),
		)
	}
	return nil
}

func (id ParticipantID) Int64() int64 {
	return int64(id)
}

func (id ParticipantID) String() string {
	return strconv.FormatInt(int64(id), 10)
}
