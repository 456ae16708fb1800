// Package rotationqueue owns the single live rotation queue of the process.
// Every call runs under one lock and writes the resulting membership and
// cursor back through the RotationRepository before returning.
package rotationqueue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/rotation"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

type RotationQueue struct {
	mu         sync.Mutex
	queue      *rotation.Queue
	repo       ports.RotationRepository
	dispatcher services.OrderDispatcher
	logger     *slog.Logger
}

// New loads the persisted queue once; afterwards the in-memory copy is
// authoritative and the repository only receives writes.
func New(ctx context.Context, repo ports.RotationRepository, logger *slog.Logger) (*RotationQueue, error) {
	if repo == nil {
		return nil, errs.NewValueIsRequiredError("rotation repository")
	}
	if logger == nil {
		logger = slog.Default()
	}
	q, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rotation: %w", err)
	}
	return &RotationQueue{
		queue:      q,
		repo:       repo,
		dispatcher: services.NewOrderDispatcher(),
		logger:     logger.With("component", "rotation_queue"),
	}, nil
}

// Join puts a courier on shift. Joining twice is a no-op.
func (r *RotationQueue) Join(ctx context.Context, id kernel.ParticipantID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	changed, err := r.queue.Join(id)
	if err != nil || !changed {
		return err
	}
	if err = r.repo.Save(ctx, r.queue); err != nil {
		return fmt.Errorf("save rotation: %w", err)
	}
	r.logger.InfoContext(ctx, "Courier joined rotation", "courier_id", id, "size", r.queue.Size())
	return nil
}

// Leave takes a courier off shift. Leaving when absent is a no-op.
func (r *RotationQueue) Leave(ctx context.Context, id kernel.ParticipantID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.queue.Leave(id) {
		return nil
	}
	if err := r.repo.Save(ctx, r.queue); err != nil {
		return fmt.Errorf("save rotation: %w", err)
	}
	r.logger.InfoContext(ctx, "Courier left rotation", "courier_id", id, "size", r.queue.Size())
	return nil
}

// Next hands out the courier under the cursor.
func (r *RotationQueue) Next(ctx context.Context) (kernel.ParticipantID, error) {
	return r.NextExcluding(ctx, nil)
}

// NextExcluding draws couriers in rotation order, skipping those for which
// tried reports true. The cursor advance is persisted even when the
// draw ends in services.ErrRotationExhausted.
func (r *RotationQueue) NextExcluding(
	ctx context.Context,
	tried func(kernel.ParticipantID) bool,
) (kernel.ParticipantID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := r.queue.Cursor()
	id, pickErr := r.dispatcher.Dispatch(r.queue, tried)
	if r.queue.Size() > 0 && r.queue.Cursor() != before {
		if err := r.repo.Save(ctx, r.queue); err != nil {
			return 0, fmt.Errorf("save rotation: %w", err)
		}
	}
	if pickErr != nil {
		return 0, pickErr
	}
	return id, nil
}

func (r *RotationQueue) Contains(id kernel.ParticipantID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queue.Contains(id)
}

func (r *RotationQueue) Members() []kernel.ParticipantID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queue.Members()
}

func (r *RotationQueue) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queue.Size()
}
