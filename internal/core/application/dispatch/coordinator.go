// Package dispatch drives orders through their lifecycle. The Coordinator
// assigns couriers from the rotation queue, reacts to courier decisions and
// acceptance timeouts, redirects declined orders to the next untried courier
// and escalates to the administrator when nobody is left.
//
// Events for one order are applied one at a time; events for different
// orders run concurrently. An event that no longer matches the order (wrong
// status, wrong courier, unknown order) changes nothing and returns
// ErrStaleAction, so retries from unreliable channels are safe.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"dispatch/internal/core/application/ledger"
	"dispatch/internal/core/application/rotationqueue"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/rotation"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
)

// DefaultAcceptTimeout is long enough to mean "never" unless configured.
const DefaultAcceptTimeout = 9999 * time.Second

var (
	ErrStaleAction          = errors.New("action no longer applies to the order")
	ErrCourierBlocked       = errors.New("courier is blocked")
	ErrCourierNotRegistered = errors.New("courier is not registered")
)

type Config struct {
	AcceptTimeout time.Duration
	// AdminID receives escalations. Zero disables them; they are only logged.
	AdminID  kernel.ParticipantID
	Location *time.Location
	// Now is overridable in tests.
	Now func() time.Time
}

type Coordinator struct {
	ledger   *ledger.Ledger
	queue    *rotationqueue.RotationQueue
	sequence ports.OrderSequence
	registry ports.ParticipantRegistry
	notifier ports.Notifier

	timers  *TimerSet
	locks   *orderLocks
	timeout time.Duration
	admin   kernel.ParticipantID
	now     func() time.Time

	triedMu sync.Mutex
	tried   map[kernel.OrderID]map[kernel.ParticipantID]struct{}

	logger *slog.Logger
}

func New(
	l *ledger.Ledger,
	queue *rotationqueue.RotationQueue,
	sequence ports.OrderSequence,
	registry ports.ParticipantRegistry,
	notifier ports.Notifier,
	cfg Config,
	logger *slog.Logger,
) (*Coordinator, error) {
	if err := errors.Join(
		required(l == nil, "ledger"),
		required(queue == nil, "rotation queue"),
		required(sequence == nil, "order sequence"),
		required(registry == nil, "participant registry"),
		required(notifier == nil, "notifier"),
	); err != nil {
		return nil, err
	}
	if cfg.AcceptTimeout <= 0 {
		cfg.AcceptTimeout = DefaultAcceptTimeout
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	now := cfg.Now
	if now == nil {
		loc := cfg.Location
		now = func() time.Time { return time.Now().In(loc) }
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Coordinator{
		ledger:   l,
		queue:    queue,
		sequence: sequence,
		registry: registry,
		notifier: notifier,
		timers:   NewTimerSet(),
		locks:    newOrderLocks(),
		timeout:  cfg.AcceptTimeout,
		admin:    cfg.AdminID,
		now:      now,
		tried:    make(map[kernel.OrderID]map[kernel.ParticipantID]struct{}),
		logger:   logger.With("component", "dispatch_coordinator"),
	}, nil
}

// Dispatch creates an order and hands it to the next courier in rotation.
//
// With nobody on shift no record is created and rotation.ErrNoCourierAvailable
// is returned. If every courier fails to receive the assignment the record is
// removed, the administrator is alerted and the same error is returned.
func (c *Coordinator) Dispatch(ctx context.Context, cmd commands.CreateOrderCommand) (o *order.Order, err error) {
	ctx, span := tracing.Start(ctx, "dispatch.Dispatch",
		attribute.Int64("requester.id", cmd.Requester().Int64()))
	defer func() { tracing.End(span, err) }()

	if err = cmd.Validate(); err != nil {
		return nil, err
	}

	tariff, err := c.registry.RequesterTariff(ctx, cmd.Requester())
	if err != nil {
		return nil, fmt.Errorf("requester tariff: %w", err)
	}
	price, err := tariff.PriceOf(cmd.Distances())
	if err != nil {
		return nil, err
	}

	courier, err := c.queue.Next(ctx)
	if err != nil {
		if errors.Is(err, rotation.ErrNoCourierAvailable) {
			c.logger.WarnContext(ctx, "Order rejected, nobody on shift", "requester_id", cmd.Requester())
		}
		return nil, err
	}

	id, err := c.sequence.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("next order id: %w", err)
	}
	span.SetAttributes(attribute.Int64("order.id", id.Int64()))

	o, err = order.NewOrder(id, cmd.Requester(), cmd.Origin(), cmd.TimeWindow(), cmd.Distances(), price, courier, c.now())
	if err != nil {
		return nil, err
	}

	unlock := c.locks.lock(id)
	defer unlock()

	if err = c.ledger.Append(ctx, o); err != nil {
		return nil, err
	}
	c.logger.InfoContext(ctx, "Order created",
		"order_id", id, "requester_id", cmd.Requester(), "courier_id", courier, "price", price)

	if err = c.offer(ctx, o); err == nil {
		return o, nil
	}

	o, err = c.reassignLocked(ctx, id, courier)
	if errors.Is(err, errCycleExhausted) {
		c.forget(id)
		if rmErr := c.ledger.RemoveByID(ctx, id); rmErr != nil {
			c.logger.ErrorContext(ctx, "Failed to remove undeliverable order", "order_id", id, "error", rmErr)
		}
		c.escalate(ctx, o, "no courier could receive the new order")
		return nil, fmt.Errorf("order %s: %w", id, rotation.ErrNoCourierAvailable)
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Accept records courier's acceptance of a pending order offered to them.
func (c *Coordinator) Accept(ctx context.Context, id kernel.OrderID, courier kernel.ParticipantID) (o *order.Order, err error) {
	ctx, span := tracing.Start(ctx, "dispatch.Accept", orderAttrs(id, courier)...)
	defer func() { tracing.End(span, err) }()

	unlock := c.locks.lock(id)
	defer unlock()

	if _, err = c.current(ctx, id, order.Pending, courier); err != nil {
		return nil, err
	}

	c.timers.Stop(id)
	o, err = c.ledger.UpdateStatus(ctx, id, order.Accepted, nil)
	if err != nil {
		return nil, err
	}
	c.forget(id)
	c.logger.InfoContext(ctx, "Order accepted", "order_id", id, "courier_id", courier)

	name, nameErr := c.registry.WorkerDisplayName(ctx, courier)
	if nameErr != nil {
		name = courier.String()
	}
	c.notifyStatus(ctx, ports.Message{
		Recipient:  o.Requester(),
		Kind:       ports.MessageAccepted,
		OrderID:    id,
		Order:      o,
		Attributes: map[string]string{"courier_name": name},
	})
	return o, nil
}

// Deliver records that courier handed over an order they accepted.
func (c *Coordinator) Deliver(ctx context.Context, id kernel.OrderID, courier kernel.ParticipantID) (o *order.Order, err error) {
	ctx, span := tracing.Start(ctx, "dispatch.Deliver", orderAttrs(id, courier)...)
	defer func() { tracing.End(span, err) }()

	unlock := c.locks.lock(id)
	defer unlock()

	if _, err = c.current(ctx, id, order.Accepted, courier); err != nil {
		return nil, err
	}

	o, err = c.ledger.UpdateStatus(ctx, id, order.Delivered, nil)
	if err != nil {
		return nil, err
	}
	c.logger.InfoContext(ctx, "Order delivered", "order_id", id, "courier_id", courier)

	c.notifyStatus(ctx, ports.Message{
		Recipient: o.Requester(),
		Kind:      ports.MessageDelivered,
		OrderID:   id,
		Order:     o,
	})
	return o, nil
}

// current loads the order and checks it is in status and held by courier.
// Callers must hold the order lock.
func (c *Coordinator) current(
	ctx context.Context,
	id kernel.OrderID,
	status order.Status,
	courier kernel.ParticipantID,
) (*order.Order, error) {
	o, err := c.ledger.FindByID(ctx, id)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrStaleAction, err)
	}
	if err != nil {
		return nil, err
	}
	if o.Status() != status || !o.IsAssignedTo(courier) {
		c.logger.DebugContext(ctx, "Ignoring stale action",
			"order_id", id, "courier_id", courier, "status", o.Status(), "expected", status)
		return nil, fmt.Errorf("%w: order %s is %s", ErrStaleAction, id, o.Status())
	}
	return o, nil
}

// offer notifies the assigned courier and arms the acceptance timer.
func (c *Coordinator) offer(ctx context.Context, o *order.Order) error {
	courier := *o.Courier()
	err := c.notifier.Send(ctx, ports.Message{
		Recipient: courier,
		Kind:      ports.MessageAssignment,
		OrderID:   o.ID(),
		Order:     o,
		Actions: []ports.Action{
			{Kind: ports.ActionAccept, OrderID: o.ID()},
			{Kind: ports.ActionDecline, OrderID: o.ID()},
		},
	})
	if err != nil {
		c.logger.WarnContext(ctx, "Courier did not receive assignment",
			"order_id", o.ID(), "courier_id", courier, "error", err)
		return err
	}

	id := o.ID()
	c.timers.Start(id, c.timeout, func() {
		c.onTimeout(id, courier)
	})
	return nil
}

// notifyStatus sends a confirmation whose loss must not undo the transition.
func (c *Coordinator) notifyStatus(ctx context.Context, msg ports.Message) {
	if err := c.notifier.Send(ctx, msg); err != nil {
		c.logger.WarnContext(ctx, "Status notification failed",
			"order_id", msg.OrderID, "recipient_id", msg.Recipient, "kind", msg.Kind, "error", err)
	}
}

func (c *Coordinator) escalate(ctx context.Context, o *order.Order, reason string) {
	var id kernel.OrderID
	if o != nil {
		id = o.ID()
	}
	c.logger.ErrorContext(ctx, "Escalating to administrator", "order_id", id, "reason", reason)
	if c.admin == 0 {
		return
	}
	if err := c.notifier.Send(ctx, ports.Message{
		Recipient:  c.admin,
		Kind:       ports.MessageEscalation,
		OrderID:    id,
		Order:      o,
		Attributes: map[string]string{"reason": reason},
	}); err != nil {
		c.logger.ErrorContext(ctx, "Escalation not delivered", "order_id", id, "error", err)
	}
}

func (c *Coordinator) markTried(id kernel.OrderID, courier kernel.ParticipantID) {
	c.triedMu.Lock()
	defer c.triedMu.Unlock()

	set, ok := c.tried[id]
	if !ok {
		set = make(map[kernel.ParticipantID]struct{})
		c.tried[id] = set
	}
	set[courier] = struct{}{}
}

func (c *Coordinator) wasTried(id kernel.OrderID) func(kernel.ParticipantID) bool {
	return func(courier kernel.ParticipantID) bool {
		c.triedMu.Lock()
		defer c.triedMu.Unlock()
		_, ok := c.tried[id][courier]
		return ok
	}
}

func (c *Coordinator) forget(id kernel.OrderID) {
	c.triedMu.Lock()
	defer c.triedMu.Unlock()
	delete(c.tried, id)
}

func orderAttrs(id kernel.OrderID, courier kernel.ParticipantID) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64("order.id", id.Int64()),
		attribute.Int64("courier.id", courier.Int64()),
	}
}

func required(missing bool, name string) error {
	if missing {
		return errs.NewValueIsRequiredError(name)
	}
	return nil
}
