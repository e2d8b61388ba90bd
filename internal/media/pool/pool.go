package pool

import (
	"context"
	"runtime"
)

// Pool bounds the number of concurrent transcodes. Decoding a large
// image holds the whole pixel buffer in memory, so admission is capped
// near the CPU count instead of per request.
type Pool struct {
	slots chan struct{}
}

func New(size int) *Pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	return &Pool{slots: make(chan struct{}, size)}
}

func (p *Pool) Size() int {
	return cap(p.slots)
}

// Do runs fn once a slot is free. It returns the context error if the
// caller gives up while waiting.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.slots }()

	return fn()
}
