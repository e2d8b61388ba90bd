package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListingLocksSerialize(t *testing.T) {
	locks := newListingLocks()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("listing-a")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestListingLocksDropUnusedEntries(t *testing.T) {
	locks := newListingLocks()

	unlock := locks.lock("listing-a")
	unlock()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.locks, "entry released once no holder remains")
}

func TestListingLocksIndependentListings(t *testing.T) {
	locks := newListingLocks()

	unlockA := locks.lock("listing-a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := locks.lock("listing-b")
		unlockB()
		close(done)
	}()

	// Holding listing-a must not block listing-b.
	<-done
}
