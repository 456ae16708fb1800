package queries

import (
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrGetReportQueryIsNotConstructed = errors.New(
	"GetReportQuery must be created via NewGetReportQuery constructor",
)

// GetReportQuery aggregates orders created within [From, To]. A non-nil
// requester narrows the report to that requester's orders.
//
// Example:
//
//	end := time.Now()
//	query, _ := NewGetReportQuery(end.AddDate(0, 0, -7), end, nil)
//	report, err := handler.Handle(ctx, query)
type GetReportQuery struct {
	from      time.Time
	to        time.Time
	requester *kernel.ParticipantID

	guard guard.ConstructorGuard
}

func NewGetReportQuery(from, to time.Time, requester *kernel.ParticipantID) (GetReportQuery, error) {
	q := GetReportQuery{guard: guard.NewConstructorGuard()}

	var rangeErr error
	switch {
	case from.IsZero() || to.IsZero():
		rangeErr = errs.NewValueIsRequiredError("report range")
	case to.Before(from):
		rangeErr = errs.NewValueIsInvalidErrorWithCause("report range",
			fmt.Errorf("%s is before %s", to.Format(time.DateTime), from.Format(time.DateTime)))
	}

	var requesterErr error
	if requester != nil {
		requesterErr = requester.Validate()
	}

	if err := errors.Join(rangeErr, requesterErr); err != nil {
		return GetReportQuery{}, err
	}

	q.from, q.to = from, to
	if requester != nil {
		id := *requester
		q.requester = &id
	}
	return q, nil
}

func (q GetReportQuery) Validate() error {
	return q.guard.Validate(ErrGetReportQueryIsNotConstructed)
}

func (q GetReportQuery) From() time.Time {
	return q.from
}

func (q GetReportQuery) To() time.Time {
	return q.to
}

func (q GetReportQuery) Requester() (kernel.ParticipantID, bool) {
	if q.requester == nil {
		return 0, false
	}
	return *q.requester, true
}
