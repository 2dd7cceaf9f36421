package node

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/notnil/canfly"
	"github.com/notnil/canfly/canbus"
)

// SubscribeStatus subscribes to status frames via mux and delivers decoded
// statuses. If nodeFilter is non-nil, only statuses from that node are
// delivered. Malformed status frames are skipped. The returned cancel must be
// called when done; the channel is closed on cancel or when the mux stops.
func SubscribeStatus(mux *canbus.Mux, nodeFilter *uint8, buffer int) (<-chan canfly.Status, func()) {
	filter := StatusAny()
	if nodeFilter != nil {
		filter = Status(*nodeFilter)
	}
	frames, cancel := mux.Subscribe(filter, buffer)
	return forward(frames, cancel, buffer, func(f canbus.Frame) (canfly.Status, bool) {
		var s canfly.Status
		if err := s.UnmarshalCANFrame(f); err != nil {
			return s, false
		}
		return s, true
	})
}

// StatusPublisher periodically broadcasts a node's status on a bus.
type StatusPublisher struct {
	bus      canbus.Bus
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	status canfly.Status
	stop   chan struct{}
	done   chan struct{}
}

// NewStatusPublisher creates a publisher for status that sends every
// interval once started. The node id is validated here so Start cannot fail
// later. A nil logger discards send errors.
func NewStatusPublisher(bus canbus.Bus, status canfly.Status, interval time.Duration, logger *slog.Logger) (*StatusPublisher, error) {
	if _, err := canfly.StatusID(status.Node); err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &StatusPublisher{bus: bus, status: status, interval: interval, logger: logger}, nil
}

// SetState changes the board status reported from the next broadcast on.
func (p *StatusPublisher) SetState(state canfly.BoardStatus) {
	p.mu.Lock()
	p.status.State = state
	p.mu.Unlock()
}

// Status returns the status currently being broadcast.
func (p *StatusPublisher) Status() canfly.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Start launches the background goroutine. It sends one status immediately,
// then one per interval, until Stop or ctx is done. Calling Start while
// running has no effect.
func (p *StatusPublisher) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		return
	}
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.run(ctx, p.stop, p.done)
}

// Stop signals the publisher to stop and waits for it.
func (p *StatusPublisher) Stop() {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Publish sends the current status once.
func (p *StatusPublisher) Publish(ctx context.Context) error {
	f, err := p.Status().MarshalCANFrame()
	if err != nil {
		return err
	}
	return p.bus.Send(ctx, f)
}

func (p *StatusPublisher) run(ctx context.Context, stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		if err := p.Publish(ctx); err != nil && ctx.Err() == nil && p.logger != nil {
			p.logger.Warn("status publish failed", "node", p.Status().Node, "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
