package service

import "sync"

// listingLocks hands out one mutex per listing id so primary-image
// writes for the same listing serialize without any cross-listing
// contention. Entries are refcounted and dropped once unused.
type listingLocks struct {
	mu    sync.Mutex
	locks map[string]*listingLock
}

type listingLock struct {
	mu   sync.Mutex
	refs int
}

func newListingLocks() *listingLocks {
	return &listingLocks{locks: make(map[string]*listingLock)}
}

func (l *listingLocks) lock(listingID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[listingID]
	if !ok {
		entry = &listingLock{}
		l.locks[listingID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, listingID)
		}
		l.mu.Unlock()
	}
}
