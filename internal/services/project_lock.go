package services

import "sync"

// projectLocks serializes schedule mutations per project. Entries are
// reference counted and dropped once no goroutine holds or waits on them.
type projectLocks struct {
	mu    sync.Mutex
	locks map[uint64]*projectLock
}

type projectLock struct {
	mu   sync.Mutex
	refs int
}

func newProjectLocks() *projectLocks {
	return &projectLocks{locks: make(map[uint64]*projectLock)}
}

// lock blocks until the caller holds projectID's lock and returns the unlock func.
func (l *projectLocks) lock(projectID uint64) func() {
	l.mu.Lock()
	pl, ok := l.locks[projectID]
	if !ok {
		pl = &projectLock{}
		l.locks[projectID] = pl
	}
	pl.refs++
	l.mu.Unlock()

	pl.mu.Lock()

	return func() {
		pl.mu.Unlock()

		l.mu.Lock()
		pl.refs--
		if pl.refs == 0 {
			delete(l.locks, projectID)
		}
		l.mu.Unlock()
	}
}

func (l *projectLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
