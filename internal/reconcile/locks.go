package reconcile

import (
	"sync"

	"github.com/nhle/duetask/internal/model"
)

// dateLocks serializes reconciliation of the same date within one process.
// Entries are dropped once no goroutine holds or waits on them.
type dateLocks struct {
	mu    sync.Mutex
	locks map[model.Date]*dateLock
}

type dateLock struct {
	mu   sync.Mutex
	refs int
}

func newDateLocks() *dateLocks {
	return &dateLocks{locks: make(map[model.Date]*dateLock)}
}

// lock blocks until date is free and returns the matching unlock.
func (l *dateLocks) lock(date model.Date) func() {
	l.mu.Lock()
	dl, ok := l.locks[date]
	if !ok {
		dl = &dateLock{}
		l.locks[date] = dl
	}
	dl.refs++
	l.mu.Unlock()

	dl.mu.Lock()
	return func() {
		dl.mu.Unlock()

		l.mu.Lock()
		dl.refs--
		if dl.refs == 0 {
			delete(l.locks, date)
		}
		l.mu.Unlock()
	}
}

// size reports how many dates currently have a lock entry.
func (l *dateLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
