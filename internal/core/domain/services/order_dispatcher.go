package services

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/rotation"
)

// ErrRotationExhausted is returned when every on-shift courier has already
// been tried for the order in the current redirection cycle.
var ErrRotationExhausted = errors.New("every courier has already been tried for this order")

// OrderDispatcher selects the courier that receives an order next.
//
// Selection rules:
//   - Couriers are drawn from the rotation queue in its round-robin order
//   - A courier that already declined, missed the notification, or timed out
//     for this order is skipped
//   - Skipped couriers still consume their turn in the rotation
//   - At most Size draws are made, so a cycle where everybody was tried ends
//     with ErrRotationExhausted instead of looping
//
// Example usage:
//
//	dispatcher := services.NewOrderDispatcher()
//	courierID, err := dispatcher.Dispatch(queue, func(id kernel.ParticipantID) bool {
//	    _, done := tried[id]
//	    return done
//	})
//	if errors.Is(err, rotation.ErrNoCourierAvailable) {
//	    // nobody is on shift
//	}
type OrderDispatcher struct{}

func NewOrderDispatcher() OrderDispatcher {
	return OrderDispatcher{}
}

// Dispatch advances queue until it yields a courier for which tried reports
// false. A nil tried accepts the first courier.
//
// Returns rotation.ErrNoCourierAvailable for an empty queue and
// ErrRotationExhausted when every member was tried.
func (d OrderDispatcher) Dispatch(
	queue *rotation.Queue,
	tried func(kernel.ParticipantID) bool,
) (kernel.ParticipantID, error) {
	if queue == nil || queue.Size() == 0 {
		return 0, rotation.ErrNoCourierAvailable
	}

	for range queue.Size() {
		candidate, err := queue.Next()
		if err != nil {
			return 0, err
		}
		if tried == nil || !tried(candidate) {
			return candidate, nil
		}
	}

	return 0, ErrRotationExhausted
}
