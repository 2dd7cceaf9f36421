package canbus

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultQueueDepth is the receive queue size of each loopback endpoint.
const DefaultQueueDepth = 64

// LoopbackOption configures a LoopbackBus.
type LoopbackOption func(*LoopbackBus)

// WithQueueDepth sets the receive queue size of endpoints opened on the bus.
// Values below 1 are raised to 1.
func WithQueueDepth(n int) LoopbackOption {
	return func(b *LoopbackBus) {
		if n < 1 {
			n = 1
		}
		b.depth = n
	}
}

// WithEcho makes every endpoint receive its own frames too, as a SocketCAN
// socket does with CAN_RAW_RECV_OWN_MSGS.
func WithEcho() LoopbackOption {
	return func(b *LoopbackBus) { b.echo = true }
}

// LoopbackBus is an in-memory CAN bus for tests, simulations and host tools.
// Every endpoint opened from the same bus sees the frames sent by the others.
// A sender blocks while a peer's queue is full, which models bus back-pressure
// instead of silently dropping traffic.
type LoopbackBus struct {
	depth int
	echo  bool

	sent atomic.Uint64

	mu        sync.RWMutex
	closed    bool
	endpoints map[*loopEndpoint]struct{}
}

// NewLoopbackBus creates a bus.
func NewLoopbackBus(opts ...LoopbackOption) *LoopbackBus {
	b := &LoopbackBus{depth: DefaultQueueDepth, endpoints: make(map[*loopEndpoint]struct{})}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Open attaches a new endpoint. Endpoints opened after Close are already
// closed.
func (b *LoopbackBus) Open() Bus {
	ep := &loopEndpoint{
		bus:   b,
		queue: make(chan Frame, b.depth),
		gone:  make(chan struct{}),
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		ep.detach()
		return ep
	}
	b.endpoints[ep] = struct{}{}
	return ep
}

// Sent returns the number of frames accepted by Send across all endpoints.
func (b *LoopbackBus) Sent() uint64 { return b.sent.Load() }

// Endpoints returns the number of attached endpoints.
func (b *LoopbackBus) Endpoints() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.endpoints)
}

// Close closes the bus and every endpoint on it.
func (b *LoopbackBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for ep := range b.endpoints {
		ep.detach()
	}
	b.endpoints = nil
	return nil
}

// peers snapshots the endpoints that should receive a frame from src.
func (b *LoopbackBus) peers(src *loopEndpoint) ([]*loopEndpoint, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrClosed
	}
	out := make([]*loopEndpoint, 0, len(b.endpoints))
	for ep := range b.endpoints {
		if ep != src || b.echo {
			out = append(out, ep)
		}
	}
	return out, nil
}

type loopEndpoint struct {
	bus   *LoopbackBus
	queue chan Frame // never closed, so a blocked deliver cannot panic

	once sync.Once
	gone chan struct{}
}

func (e *loopEndpoint) detach() {
	e.once.Do(func() { close(e.gone) })
}

func (e *loopEndpoint) isGone() bool {
	select {
	case <-e.gone:
		return true
	default:
		return false
	}
}

// Send broadcasts frame to the other endpoints, and to this one when the bus
// echoes. It blocks while a peer's queue is full, until ctx is done.
func (e *loopEndpoint) Send(ctx context.Context, frame Frame) error {
	if err := frame.Validate(); err != nil {
		return err
	}
	if e.isGone() {
		return ErrClosed
	}
	targets, err := e.bus.peers(e)
	if err != nil {
		return err
	}
	for _, t := range targets {
		select {
		case t.queue <- frame:
		case <-t.gone:
			// peer left while we waited; its copy is dropped
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	e.bus.sent.Add(1)
	return nil
}

// Receive waits for the next frame. A closed endpoint reports ErrClosed even
// when frames are still queued.
func (e *loopEndpoint) Receive(ctx context.Context) (Frame, error) {
	if e.isGone() {
		return Frame{}, ErrClosed
	}
	select {
	case f := <-e.queue:
		return f, nil
	case <-e.gone:
		return Frame{}, ErrClosed
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	}
}

// Close detaches the endpoint from the bus. Pending frames are discarded.
func (e *loopEndpoint) Close() error {
	e.bus.mu.Lock()
	if e.bus.endpoints != nil {
		delete(e.bus.endpoints, e)
	}
	e.bus.mu.Unlock()
	e.detach()
	return nil
}
