package rotation

import (
	"errors"
	"fmt"
	"slices"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// ErrNoCourierAvailable is returned by Next when nobody is on shift.
var ErrNoCourierAvailable = errors.New("no courier available")

// Queue is the round-robin set of on-shift couriers. Membership order is
// join order; cursor points at the next courier to hand out.
type Queue struct {
	members []kernel.ParticipantID
	cursor  int
}

func NewQueue() *Queue {
	return &Queue{}
}

// RestoreQueue rebuilds a queue from persisted state. Duplicate members are
// rejected; an out-of-range cursor is kept and taken modulo size on use.
func RestoreQueue(members []kernel.ParticipantID, cursor int) (*Queue, error) {
	if cursor < 0 {
		return nil, errs.NewValueIsOutOfRangeError("cursor", cursor, 0, "size")
	}
	seen := make(map[kernel.ParticipantID]struct{}, len(members))
	for _, m := range members {
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[m]; dup {
			return nil, errs.NewValueIsInvalidErrorWithCause("members", fmt.Errorf("courier %s listed twice", m))
		}
		seen[m] = struct{}{}
	}
	return &Queue{members: slices.Clone(members), cursor: cursor}, nil
}

// Join adds id if absent and rewinds the cursor. It reports whether
// membership changed.
func (q *Queue) Join(id kernel.ParticipantID) (bool, error) {
	if err := id.Validate(); err != nil {
		return false, err
	}
	if q.Contains(id) {
		return false, nil
	}
	q.members = append(q.members, id)
	q.cursor = 0
	return true, nil
}

// Leave removes id if present and rewinds the cursor.
func (q *Queue) Leave(id kernel.ParticipantID) bool {
	i := slices.Index(q.members, id)
	if i < 0 {
		return false
	}
	q.members = slices.Delete(q.members, i, i+1)
	q.cursor = 0
	return true
}

// Next returns the courier under the cursor and advances it.
func (q *Queue) Next() (kernel.ParticipantID, error) {
	if len(q.members) == 0 {
		return 0, ErrNoCourierAvailable
	}
	idx := q.cursor % len(q.members)
	q.cursor = (idx + 1) % len(q.members)
	return q.members[idx], nil
}

func (q *Queue) Contains(id kernel.ParticipantID) bool {
	return slices.Contains(q.members, id)
}

func (q *Queue) Members() []kernel.ParticipantID {
	return slices.Clone(q.members)
}

func (q *Queue) Size() int {
	return len(q.members)
}

func (q *Queue) Cursor() int {
	return q.cursor
}
