package http

import (
	"errors"
	"net/http"

	"dispatch/internal/core/application/amendments"
	"dispatch/internal/core/application/dispatch"
	"dispatch/internal/core/application/ledger"
	"dispatch/internal/core/domain/model/rotation"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// statusFor maps core errors to HTTP status codes. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, dispatch.ErrStaleAction),
		errors.Is(err, amendments.ErrNoPendingAmendment),
		errors.Is(err, amendments.ErrAmendmentPending),
		errors.Is(err, amendments.ErrOrderNotAmendable),
		errors.Is(err, ledger.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, errs.ErrObjectNotFound),
		errors.Is(err, dispatch.ErrCourierNotRegistered):
		return http.StatusNotFound
	case errors.Is(err, dispatch.ErrCourierBlocked),
		errors.Is(err, amendments.ErrNotOrderOwner):
		return http.StatusForbidden
	case errors.Is(err, rotation.ErrNoCourierAvailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ports.ErrNotificationFailed):
		return http.StatusBadGateway
	case errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func fail(ctx echo.Context, err error) error {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = http.StatusText(code)
	}
	return ctx.JSON(code, Error{Code: code, Message: msg})
}

func badRequest(ctx echo.Context, msg string) error {
	return ctx.JSON(http.StatusBadRequest, Error{Code: http.StatusBadRequest, Message: msg})
}
