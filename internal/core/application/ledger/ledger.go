// Package ledger is the only mutation surface for order records. Every read
// and write runs inside one critical section, so no caller ever observes a
// half-applied change and concurrent redirects of one order cannot both win.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// ErrDuplicateID signals a broken id sequence.
var ErrDuplicateID = errors.New("duplicate order id")

// Ledger serializes access to an OrderRepository. Returned orders are copies;
// changing them has no effect until written back through the ledger.
type Ledger struct {
	mu     sync.Mutex
	repo   ports.OrderRepository
	logger *slog.Logger
}

func New(repo ports.OrderRepository, logger *slog.Logger) (*Ledger, error) {
	if repo == nil {
		return nil, errs.NewValueIsRequiredError("order repository")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		repo:   repo,
		logger: logger.With("component", "order_ledger"),
	}, nil
}

// Append stores a new order.
func (l *Ledger) Append(ctx context.Context, o *order.Order) error {
	if err := o.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.repo.Add(ctx, o.Clone()); err != nil {
		if errors.Is(err, errs.ErrObjectAlreadyExists) {
			l.logger.ErrorContext(ctx, "Order id collision", "order_id", o.ID())
			return fmt.Errorf("%w: %s", ErrDuplicateID, o.ID())
		}
		return err
	}
	return nil
}

// UpdateStatus moves the order to status. A non-nil courier becomes the
// assignee; Declined always clears it. Transitions outside the lifecycle
// table fail with order.ErrTransitionNotAllowed and leave the record as is.
func (l *Ledger) UpdateStatus(
	ctx context.Context,
	id kernel.OrderID,
	status order.Status,
	courier *kernel.ParticipantID,
) (*order.Order, error) {
	return l.Modify(ctx, id, func(o *order.Order) error {
		return o.TransitionTo(status, courier)
	})
}

// UpdateAmounts rewrites packages, distances and price as one change.
// Amendment confirmation goes through Modify instead, because it must claim
// the pending amendment and check the status under the same lock.
func (l *Ledger) UpdateAmounts(
	ctx context.Context,
	id kernel.OrderID,
	packages int,
	distances []kernel.Distance,
	price int,
) (*order.Order, error) {
	return l.Modify(ctx, id, func(o *order.Order) error {
		return o.SetAmounts(packages, distances, price)
	})
}

// Modify runs fn on a copy of the stored order and writes the result back,
// all under the ledger lock. An error from fn aborts the write.
func (l *Ledger) Modify(ctx context.Context, id kernel.OrderID, fn func(o *order.Order) error) (*order.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	if err = fn(next); err != nil {
		return nil, err
	}
	if err = l.repo.Update(ctx, next); err != nil {
		return nil, err
	}
	return next.Clone(), nil
}

func (l *Ledger) FindByID(ctx context.Context, id kernel.OrderID) (*order.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	o, err := l.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return o.Clone(), nil
}

// FindLastAcceptedFor returns the requester's most recently created order
// that is still Accepted.
func (l *Ledger) FindLastAcceptedFor(ctx context.Context, requester kernel.ParticipantID) (*order.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	o, err := l.repo.GetLastInStatusFor(ctx, requester, order.Accepted)
	if err != nil {
		return nil, err
	}
	return o.Clone(), nil
}

func (l *Ledger) RemoveByID(ctx context.Context, id kernel.OrderID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.repo.Remove(ctx, id)
}

// ResetAll drops every record. Order ids keep counting from where they were.
func (l *Ledger) ResetAll(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.repo.RemoveAll(ctx); err != nil {
		return err
	}
	l.logger.InfoContext(ctx, "Ledger reset")
	return nil
}

// List returns a snapshot of every record ordered by id.
func (l *Ledger) List(ctx context.Context) ([]*order.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	orders, err := l.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*order.Order, len(orders))
	for i, o := range orders {
		out[i] = o.Clone()
	}
	return out, nil
}
