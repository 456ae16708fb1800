package dispatch

import (
	"sync"

	"dispatch/internal/core/domain/model/kernel"
)

// orderLocks serializes events per order. Entries are dropped once nobody
// holds or waits for them.
type orderLocks struct {
	mu    sync.Mutex
	locks map[kernel.OrderID]*orderLock
}

type orderLock struct {
	mu   sync.Mutex
	refs int
}

func newOrderLocks() *orderLocks {
	return &orderLocks{locks: make(map[kernel.OrderID]*orderLock)}
}

// lock blocks until the caller owns id and returns the matching unlock.
func (l *orderLocks) lock(id kernel.OrderID) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &orderLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
