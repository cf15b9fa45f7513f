package chessgo

import (
	"context"
	"sync"

	. "github.com/cricklet/chessmate/internal/game"
	. "github.com/cricklet/chessmate/internal/helpers"
)

// A search running on its own copy of the game. The worker delivers exactly
// one result into a single-slot channel; cancelling discards that result.
// The worker itself is never interrupted, it just finishes into the void.
type PendingSearch struct {
	result chan Optional[Move]
	done   chan struct{}

	cancelOnce sync.Once

	mu       sync.Mutex
	received bool
	value    Optional[Move]
}

func newPendingSearch() *PendingSearch {
	return &PendingSearch{
		result: make(chan Optional[Move], 1),
		done:   make(chan struct{}),
	}
}

func (p *PendingSearch) deliver(move Optional[Move]) {
	select {
	case <-p.done:
		return
	default:
	}
	p.result <- move
}

func (p *PendingSearch) Cancel() {
	p.cancelOnce.Do(func() {
		close(p.done)
	})
}

func (p *PendingSearch) Cancelled() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *PendingSearch) take(move Optional[Move]) Optional[Move] {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.received = true
	p.value = move
	return move
}

func (p *PendingSearch) cached() (Optional[Move], bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.received
}

// Non-blocking. The second value is false while the search is still running
// or after it was cancelled.
func (p *PendingSearch) Poll() (Optional[Move], bool) {
	if p.Cancelled() {
		return Empty[Move](), false
	}
	if move, ok := p.cached(); ok {
		return move, true
	}

	select {
	case move := <-p.result:
		return p.take(move), true
	default:
		return Empty[Move](), false
	}
}

// Blocks until the worker delivers, the search is cancelled, or ctx is done.
func (p *PendingSearch) Wait(ctx context.Context) (Optional[Move], Error) {
	if move, ok := p.cached(); ok && !p.Cancelled() {
		return move, NilError
	}

	select {
	case move := <-p.result:
		if p.Cancelled() {
			return Empty[Move](), Errorf("search cancelled")
		}
		return p.take(move), NilError
	case <-p.done:
		return Empty[Move](), Errorf("search cancelled")
	case <-ctx.Done():
		return Empty[Move](), Wrap(ctx.Err())
	}
}
