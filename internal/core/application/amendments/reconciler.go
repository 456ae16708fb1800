// Package amendments gates additions to accepted orders on the assigned
// courier's confirmation. At most one amendment per order is pending at a
// time; a second proposal is rejected until the first is resolved.
package amendments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"dispatch/internal/core/application/ledger"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/amendment"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

var (
	// ErrNoPendingAmendment means the confirm or cancel arrived for nothing;
	// callers treat it as an already handled action.
	ErrNoPendingAmendment = errors.New("no pending amendment for the order")
	ErrAmendmentPending   = errors.New("order already has a pending amendment")
	ErrOrderNotAmendable  = errors.New("order is not accepted")
	ErrNotOrderOwner      = errors.New("participant does not own the order")
)

type Reconciler struct {
	mu      sync.Mutex
	pending map[kernel.OrderID]amendment.Amendment

	ledger   *ledger.Ledger
	registry ports.ParticipantRegistry
	notifier ports.Notifier
	logger   *slog.Logger
}

func New(
	l *ledger.Ledger,
	registry ports.ParticipantRegistry,
	notifier ports.Notifier,
	logger *slog.Logger,
) (*Reconciler, error) {
	if l == nil {
		return nil, errs.NewValueIsRequiredError("ledger")
	}
	if registry == nil {
		return nil, errs.NewValueIsRequiredError("participant registry")
	}
	if notifier == nil {
		return nil, errs.NewValueIsRequiredError("notifier")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		pending:  make(map[kernel.OrderID]amendment.Amendment),
		ledger:   l,
		registry: registry,
		notifier: notifier,
		logger:   logger.With("component", "amendment_reconciler"),
	}, nil
}

// Propose prices the addition with the requester's tariff, keeps it pending
// and asks the assigned courier to confirm. If the courier cannot be reached
// the proposal is dropped and ports.ErrNotificationFailed is returned.
func (r *Reconciler) Propose(ctx context.Context, cmd commands.ProposeAmendmentCommand) (amendment.Amendment, error) {
	if err := cmd.Validate(); err != nil {
		return amendment.Amendment{}, err
	}

	o, err := r.ledger.FindByID(ctx, cmd.OrderID())
	if err != nil {
		return amendment.Amendment{}, err
	}
	if o.Requester() != cmd.Requester() {
		return amendment.Amendment{}, fmt.Errorf("%w: order %s", ErrNotOrderOwner, o.ID())
	}
	if o.Status() != order.Accepted {
		return amendment.Amendment{}, fmt.Errorf("%w: order %s is %s", ErrOrderNotAmendable, o.ID(), o.Status())
	}

	tariff, err := r.registry.RequesterTariff(ctx, cmd.Requester())
	if err != nil {
		return amendment.Amendment{}, fmt.Errorf("requester tariff: %w", err)
	}
	a, err := amendment.NewAmendment(o.ID(), cmd.AddedDistances(), tariff)
	if err != nil {
		return amendment.Amendment{}, err
	}

	r.mu.Lock()
	if _, exists := r.pending[o.ID()]; exists {
		r.mu.Unlock()
		return amendment.Amendment{}, fmt.Errorf("%w: order %s", ErrAmendmentPending, o.ID())
	}
	r.pending[o.ID()] = a
	r.mu.Unlock()

	err = r.notifier.Send(ctx, ports.Message{
		Recipient:  *o.Courier(),
		Kind:       ports.MessageAmendmentProposed,
		OrderID:    o.ID(),
		Order:      o,
		Attributes: amendmentAttrs(a),
		Actions: []ports.Action{
			{Kind: ports.ActionConfirm, OrderID: o.ID()},
			{Kind: ports.ActionCancel, OrderID: o.ID()},
		},
	})
	if err != nil {
		r.drop(o.ID())
		r.logger.WarnContext(ctx, "Courier did not receive amendment", "order_id", o.ID(), "error", err)
		return amendment.Amendment{}, fmt.Errorf("%w: %w", ports.ErrNotificationFailed, err)
	}

	r.logger.InfoContext(ctx, "Amendment proposed",
		"order_id", o.ID(), "added_packages", a.AddedPackages(), "added_price", a.AddedPrice())
	return a, nil
}

// Confirm folds the pending amendment into the order as one ledger change.
// A second confirm finds nothing and returns ErrNoPendingAmendment, so the
// price is never added twice. If the order has left Accepted meanwhile the
// amendment is discarded with ErrOrderNotAmendable.
func (r *Reconciler) Confirm(ctx context.Context, id kernel.OrderID, courier kernel.ParticipantID) (*order.Order, error) {
	var claimed amendment.Amendment

	o, err := r.ledger.Modify(ctx, id, func(o *order.Order) error {
		r.mu.Lock()
		defer r.mu.Unlock()

		a, ok := r.pending[id]
		if !ok {
			return ErrNoPendingAmendment
		}
		if !ownedBy(o, courier) {
			return fmt.Errorf("%w: courier %s", ErrNotOrderOwner, courier)
		}
		if o.Status() != order.Accepted {
			delete(r.pending, id)
			return fmt.Errorf("%w: order %s is %s", ErrOrderNotAmendable, id, o.Status())
		}
		if err := o.Amend(a.AddedDistances(), a.AddedPrice()); err != nil {
			return err
		}
		delete(r.pending, id)
		claimed = a
		return nil
	})
	if errors.Is(err, errs.ErrObjectNotFound) {
		r.drop(id)
	}
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "Amendment confirmed",
		"order_id", id, "packages", o.Packages(), "price", o.Price())
	r.notifyRequester(ctx, o, ports.MessageAmendmentConfirmed, claimed)
	return o, nil
}

// Cancel discards the pending amendment without touching the order. The
// requester is told only while the order is still Accepted; after that the
// amendment is dropped quietly.
func (r *Reconciler) Cancel(ctx context.Context, id kernel.OrderID, courier kernel.ParticipantID) error {
	o, err := r.ledger.FindByID(ctx, id)
	if errors.Is(err, errs.ErrObjectNotFound) {
		r.drop(id)
	}
	if err != nil {
		return err
	}

	r.mu.Lock()
	a, ok := r.pending[id]
	if !ok {
		r.mu.Unlock()
		return ErrNoPendingAmendment
	}
	if !ownedBy(o, courier) {
		r.mu.Unlock()
		return fmt.Errorf("%w: courier %s", ErrNotOrderOwner, courier)
	}
	delete(r.pending, id)
	r.mu.Unlock()

	if o.Status() != order.Accepted {
		r.logger.InfoContext(ctx, "Amendment dropped, order no longer accepted",
			"order_id", id, "courier_id", courier, "status", o.Status())
		return nil
	}
	r.logger.InfoContext(ctx, "Amendment rejected", "order_id", id, "courier_id", courier)
	r.notifyRequester(ctx, o, ports.MessageAmendmentRejected, a)
	return nil
}

// Pending returns the amendment awaiting confirmation for id, if any.
func (r *Reconciler) Pending(id kernel.OrderID) (amendment.Amendment, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.pending[id]
	return a, ok
}

// Clear drops every pending amendment, used at end of day.
func (r *Reconciler) Clear() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.pending)
	clear(r.pending)
	return n
}

// ownedBy is false only when the order is held by a different courier.
func ownedBy(o *order.Order, courier kernel.ParticipantID) bool {
	return o.Courier() == nil || o.IsAssignedTo(courier)
}

func (r *Reconciler) drop(id kernel.OrderID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, id)
}

func (r *Reconciler) notifyRequester(ctx context.Context, o *order.Order, kind ports.MessageKind, a amendment.Amendment) {
	if err := r.notifier.Send(ctx, ports.Message{
		Recipient:  o.Requester(),
		Kind:       kind,
		OrderID:    o.ID(),
		Order:      o,
		Attributes: amendmentAttrs(a),
	}); err != nil {
		r.logger.WarnContext(ctx, "Requester notification failed", "order_id", o.ID(), "kind", kind, "error", err)
	}
}

func amendmentAttrs(a amendment.Amendment) map[string]string {
	return map[string]string{
		"added_packages":  strconv.Itoa(a.AddedPackages()),
		"added_distances": kernel.JoinDistances(a.AddedDistances()),
		"added_price":     strconv.Itoa(a.AddedPrice()),
	}
}
