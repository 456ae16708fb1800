package ports

import (
	"context"

	"dispatch/internal/core/domain/model/rotation"
)

// RotationRepository persists rotation membership together with its cursor.
type RotationRepository interface {
	// Load returns an empty queue when nothing was saved yet.
	Load(ctx context.Context) (*rotation.Queue, error)
	Save(ctx context.Context, queue *rotation.Queue) error
}
