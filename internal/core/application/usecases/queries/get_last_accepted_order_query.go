package queries

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var ErrGetLastAcceptedOrderQueryIsNotConstructed = errors.New(
	"GetLastAcceptedOrderQuery must be created via NewGetLastAcceptedOrderQuery constructor",
)

// GetLastAcceptedOrderQuery finds the order a requester would amend with
// "add to last order": their most recent one that a courier accepted.
type GetLastAcceptedOrderQuery struct {
	requester kernel.ParticipantID

	guard guard.ConstructorGuard
}

func NewGetLastAcceptedOrderQuery(requester kernel.ParticipantID) (GetLastAcceptedOrderQuery, error) {
	if err := requester.Validate(); err != nil {
		return GetLastAcceptedOrderQuery{}, err
	}
	return GetLastAcceptedOrderQuery{requester: requester, guard: guard.NewConstructorGuard()}, nil
}

func (q GetLastAcceptedOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetLastAcceptedOrderQueryIsNotConstructed)
}

func (q GetLastAcceptedOrderQuery) Requester() kernel.ParticipantID {
	return q.requester
}
