package kernel

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrEventIDIsNotConstructed = errors.New("EventID must be created via NewEventID or EventIDFromString")

// EventID tags every courier action crossing the inbound boundary so that a
// single callback can be followed through the logs and traces.
type EventID struct {
	id uuid.UUID
}

func NewEventID() EventID {
	return EventID{id: uuid.New()}
}

// EventIDFromString parses an id supplied by the gateway that produced the event.
func EventIDFromString(s string) (EventID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return EventID{}, fmt.Errorf("invalid event id format: %w", err)
	}
	eventID := EventID{id: id}
	if err = eventID.Validate(); err != nil {
		return EventID{}, err
	}
	return eventID, nil
}

func (e EventID) String() string {
	return e.id.String()
}

func (e EventID) IsEqual(other EventID) bool {
	return e.id == other.id
}

func (e EventID) Validate() error {
	if e.id == uuid.Nil {
		return ErrEventIDIsNotConstructed
	}
	return nil
}
