// Package http exposes the dispatch engine over a JSON API built on echo:
// order submission and lookup, amendments, courier actions, shift control,
// courier removal and reports.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"dispatch/internal/core/application/dispatch"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/amendment"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"

	"github.com/labstack/echo/v4"
)

type (
	// Coordinator is the part of dispatch.Coordinator the API drives.
	Coordinator interface {
		Dispatch(ctx context.Context, cmd commands.CreateOrderCommand) (*order.Order, error)
		StartShift(ctx context.Context, courier kernel.ParticipantID) error
		EndShift(ctx context.Context, courier kernel.ParticipantID) error
		RemoveCourier(ctx context.Context, courier kernel.ParticipantID) (dispatch.RemovalReport, error)
		OnShift(courier kernel.ParticipantID) bool
	}

	AmendmentProposer interface {
		Propose(ctx context.Context, cmd commands.ProposeAmendmentCommand) (amendment.Amendment, error)
		Pending(id kernel.OrderID) (amendment.Amendment, bool)
	}

	CourierActionHandler interface {
		Handle(ctx context.Context, cmd commands.CourierActionCommand) (*order.Order, error)
	}
)

// Server holds the handlers behind every route.
type Server struct {
	coordinator Coordinator
	amendments  AmendmentProposer
	actions     CourierActionHandler

	getOrderHandler        queries.GetOrderQueryHandler
	getLastAcceptedHandler queries.GetLastAcceptedOrderQueryHandler
	getReportHandler       queries.GetReportQueryHandler

	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

func NewServer(
	coordinator Coordinator,
	amendments AmendmentProposer,
	actions CourierActionHandler,
	getOrderHandler queries.GetOrderQueryHandler,
	getLastAcceptedHandler queries.GetLastAcceptedOrderQueryHandler,
	getReportHandler queries.GetReportQueryHandler,
	loc *time.Location,
	logger *slog.Logger,
) *Server {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		coordinator:            coordinator,
		amendments:             amendments,
		actions:                actions,
		getOrderHandler:        getOrderHandler,
		getLastAcceptedHandler: getLastAcceptedHandler,
		getReportHandler:       getReportHandler,
		loc:                    loc,
		now:                    time.Now,
		logger:                 logger.With("component", "http_server"),
	}
}

// Register mounts every route on e.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})

	v1 := e.Group("/api/v1")
	v1.POST("/orders", s.CreateOrder)
	v1.GET("/orders/:id", s.GetOrder)
	v1.POST("/orders/:id/amendments", s.ProposeAmendment)
	v1.GET("/orders/:id/amendment", s.GetPendingAmendment)
	v1.GET("/requesters/:id/last-accepted", s.GetLastAccepted)
	v1.POST("/actions", s.HandleAction)
	v1.GET("/couriers/:id/shift", s.GetShift)
	v1.PUT("/couriers/:id/shift", s.StartShift)
	v1.DELETE("/couriers/:id/shift", s.EndShift)
	v1.DELETE("/couriers/:id", s.RemoveCourier)
	v1.GET("/reports", s.GetReport)
}

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var body NewOrder
	if err := ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	distances, err := parseDistances(body.Distances)
	if err != nil {
		return badRequest(ctx, "Invalid order data: "+err.Error())
	}
	cmd, err := commands.NewCreateOrderCommand(
		kernel.ParticipantID(body.RequesterID), body.Origin, body.TimeWindow, body.Packages, distances)
	if err != nil {
		return badRequest(ctx, "Invalid order data: "+err.Error())
	}

	o, err := s.coordinator.Dispatch(ctx.Request().Context(), cmd)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, orderFromDomain(o))
}

// GetOrder handles GET /api/v1/orders/:id.
func (s *Server) GetOrder(ctx echo.Context) error {
	id, err := kernel.ParseOrderID(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}
	query, err := queries.NewGetOrderQuery(id)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	view, err := s.getOrderHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, orderFromView(view))
}

// GetLastAccepted handles GET /api/v1/requesters/:id/last-accepted.
func (s *Server) GetLastAccepted(ctx echo.Context) error {
	requester, err := kernel.ParseParticipantID(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid requester id")
	}
	query, err := queries.NewGetLastAcceptedOrderQuery(requester)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	view, err := s.getLastAcceptedHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, orderFromView(view))
}

// ProposeAmendment handles POST /api/v1/orders/:id/amendments. The order
// changes only after the courier confirms.
func (s *Server) ProposeAmendment(ctx echo.Context) error {
	id, err := kernel.ParseOrderID(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}
	var body NewAmendment
	if err = ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}
	distances, err := parseDistances(body.Distances)
	if err != nil {
		return badRequest(ctx, "Invalid amendment data: "+err.Error())
	}
	cmd, err := commands.NewProposeAmendmentCommand(id, kernel.ParticipantID(body.RequesterID), body.Packages, distances)
	if err != nil {
		return badRequest(ctx, "Invalid amendment data: "+err.Error())
	}

	a, err := s.amendments.Propose(ctx.Request().Context(), cmd)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(http.StatusAccepted, amendmentFromDomain(a))
}

// GetPendingAmendment handles GET /api/v1/orders/:id/amendment.
func (s *Server) GetPendingAmendment(ctx echo.Context) error {
	id, err := kernel.ParseOrderID(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid order id")
	}
	a, ok := s.amendments.Pending(id)
	if !ok {
		return ctx.JSON(http.StatusNotFound, Error{Code: http.StatusNotFound, Message: "No pending amendment"})
	}
	return ctx.JSON(http.StatusOK, amendmentFromDomain(a))
}

// HandleAction handles POST /api/v1/actions, the courier's button presses.
// A repeated or late press answers 409 and changes nothing.
func (s *Server) HandleAction(ctx echo.Context) error {
	var body CourierAction
	if err := ctx.Bind(&body); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	eventID := kernel.NewEventID()
	if body.EventID != "" {
		var err error
		if eventID, err = kernel.EventIDFromString(body.EventID); err != nil {
			return badRequest(ctx, err.Error())
		}
	}
	cmd, err := commands.NewCourierActionCommand(eventID, ports.ActionKind(body.Kind),
		kernel.OrderID(body.OrderID), kernel.ParticipantID(body.CourierID))
	if err != nil {
		return badRequest(ctx, "Invalid action: "+err.Error())
	}

	o, err := s.actions.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return fail(ctx, err)
	}
	if o == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	return ctx.JSON(http.StatusOK, orderFromDomain(o))
}

// GetShift handles GET /api/v1/couriers/:id/shift.
func (s *Server) GetShift(ctx echo.Context) error {
	courier, err := kernel.ParseParticipantID(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid courier id")
	}
	return ctx.JSON(http.StatusOK, Shift{CourierID: courier.Int64(), OnShift: s.coordinator.OnShift(courier)})
}

// StartShift handles PUT /api/v1/couriers/:id/shift.
func (s *Server) StartShift(ctx echo.Context) error {
	courier, err := kernel.ParseParticipantID(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid courier id")
	}
	if err = s.coordinator.StartShift(ctx.Request().Context(), courier); err != nil {
		return fail(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// EndShift handles DELETE /api/v1/couriers/:id/shift.
func (s *Server) EndShift(ctx echo.Context) error {
	courier, err := kernel.ParseParticipantID(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid courier id")
	}
	if err = s.coordinator.EndShift(ctx.Request().Context(), courier); err != nil {
		return fail(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// RemoveCourier handles DELETE /api/v1/couriers/:id. Partial failures still
// answer with the orders that were handled.
func (s *Server) RemoveCourier(ctx echo.Context) error {
	courier, err := kernel.ParseParticipantID(ctx.Param("id"))
	if err != nil {
		return badRequest(ctx, "Invalid courier id")
	}

	report, err := s.coordinator.RemoveCourier(ctx.Request().Context(), courier)
	if err != nil {
		s.logger.ErrorContext(ctx.Request().Context(), "Courier removal incomplete", "courier_id", courier, "error", err)
		if len(report.Cancelled)+len(report.Redirected)+len(report.Stranded) == 0 {
			return fail(ctx, err)
		}
	}
	return ctx.JSON(http.StatusOK, removalFromDomain(report))
}

// GetReport handles GET /api/v1/reports?from=YYYY-MM-DD&to=YYYY-MM-DD&requester_id=N.
// Both dates default to today; to is inclusive.
func (s *Server) GetReport(ctx echo.Context) error {
	today := s.now().In(s.loc).Format(time.DateOnly)

	from, err := s.parseDay(ctx.QueryParam("from"), today)
	if err != nil {
		return badRequest(ctx, "Invalid from date")
	}
	to, err := s.parseDay(ctx.QueryParam("to"), today)
	if err != nil {
		return badRequest(ctx, "Invalid to date")
	}
	to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)

	var requester *kernel.ParticipantID
	if raw := ctx.QueryParam("requester_id"); raw != "" {
		id, parseErr := kernel.ParseParticipantID(raw)
		if parseErr != nil {
			return badRequest(ctx, "Invalid requester id")
		}
		requester = &id
	}

	query, err := queries.NewGetReportQuery(from, to, requester)
	if err != nil {
		return badRequest(ctx, err.Error())
	}
	report, err := s.getReportHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, reportFromQuery(query, report))
}

func (s *Server) parseDay(raw, fallback string) (time.Time, error) {
	if raw == "" {
		raw = fallback
	}
	return time.ParseInLocation(time.DateOnly, raw, s.loc)
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func Start(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
