package server

import (
	"context"
	"errors"
	"sync"
)

// ErrStreamClosed is returned by Wait once the stream has been closed.
var ErrStreamClosed = errors.New("board stream closed")

// BoardStream tells long-lived clients that the board changed. It carries no
// payload: each change advances an offset and subscribers read a fresh
// snapshot. Bursts of changes coalesce into a single wake-up.
type BoardStream struct {
	mu     sync.Mutex
	offset uint64
	wake   chan struct{} // closed and replaced on every change
	closed bool
}

// NewBoardStream creates an open stream at offset 0.
func NewBoardStream() *BoardStream {
	return &BoardStream{wake: make(chan struct{})}
}

// Notify records a change and wakes every waiter. Safe from any goroutine;
// wire it to render.Renderer.OnChange.
func (bs *BoardStream) Notify() {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	if bs.closed {
		return
	}
	bs.offset++
	close(bs.wake)
	bs.wake = make(chan struct{})
}

// Offset returns the number of changes seen so far.
func (bs *BoardStream) Offset() uint64 {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return bs.offset
}

// Wait blocks until the offset moves past after, then returns the new offset.
func (bs *BoardStream) Wait(ctx context.Context, after uint64) (uint64, error) {
	for {
		bs.mu.Lock()
		if bs.closed {
			bs.mu.Unlock()
			return after, ErrStreamClosed
		}
		if bs.offset > after {
			offset := bs.offset
			bs.mu.Unlock()
			return offset, nil
		}
		wake := bs.wake
		bs.mu.Unlock()

		select {
		case <-ctx.Done():
			return after, ctx.Err()
		case <-wake:
		}
	}
}

// Close wakes every waiter with ErrStreamClosed.
func (bs *BoardStream) Close() {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	if bs.closed {
		return
	}
	bs.closed = true
	close(bs.wake)
}
