package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
)

// ParticipantRegistry answers who is allowed to work and what requesters pay.
// Registration itself happens outside this service.
type ParticipantRegistry interface {
	IsRegisteredWorker(ctx context.Context, id kernel.ParticipantID) (bool, error)
	IsBlocked(ctx context.Context, id kernel.ParticipantID) (bool, error)

	// WorkerDisplayName falls back to the id when no name is known.
	WorkerDisplayName(ctx context.Context, id kernel.ParticipantID) (string, error)

	// RequesterTariff returns kernel.DefaultTariff for requesters without one.
	RequesterTariff(ctx context.Context, id kernel.ParticipantID) (kernel.Tariff, error)

	// Block adds id to the block list. Blocking twice is not an error.
	Block(ctx context.Context, id kernel.ParticipantID) error
}
