package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsToCPUCount(t *testing.T) {
	assert.Positive(t, New(0).Size())
	assert.Positive(t, New(-3).Size())
	assert.Equal(t, 4, New(4).Size())
}

func TestDoBoundsConcurrency(t *testing.T) {
	const size = 3
	p := New(size)

	var running, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := p.Do(context.Background(), func() error {
				now := atomic.AddInt32(&running, 1)
				for {
					old := atomic.LoadInt32(&peak)
					if now <= old || atomic.CompareAndSwapInt32(&peak, old, now) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(size))
}

func TestDoReturnsFnError(t *testing.T) {
	p := New(1)
	boom := errors.New("boom")

	err := p.Do(context.Background(), func() error { return boom })
	assert.ErrorIs(t, err, boom)

	// The slot must be released after a failure.
	err = p.Do(context.Background(), func() error { return nil })
	assert.NoError(t, err)
}

func TestDoGivesUpWithCaller(t *testing.T) {
	p := New(1)

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = p.Do(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := p.Do(ctx, func() error {
		t.Error("fn ran despite expired context")
		return nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}
