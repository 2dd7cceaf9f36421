package node

import (
	"context"
	"fmt"
	"sync"

	"github.com/notnil/canfly"
	"github.com/notnil/canfly/canbus"
)

// Param is a decoded parameter frame.
type Param struct {
	ID    uint16
	Type  canfly.Type
	Value canfly.Variant
}

// Publish encodes v on id and sends it. Only data-band ids carry tagged
// parameters.
func Publish(ctx context.Context, bus canbus.Bus, id uint16, v canfly.Variant) error {
	band, err := canfly.ClassifyID(id)
	if err != nil {
		return err
	}
	if band != canfly.BandData {
		return fmt.Errorf("%w: id %d is in the %s band", canfly.ErrBadParameter, id, band)
	}
	m, err := canfly.Encode(id, v)
	if err != nil {
		return err
	}
	return Send(ctx, bus, m)
}

// Send transmits a prepared message.
func Send(ctx context.Context, bus canbus.Bus, m canfly.Message) error {
	f, err := m.MarshalCANFrame()
	if err != nil {
		return err
	}
	return bus.Send(ctx, f)
}

// SubscribeParams delivers decoded parameters for the given ids, or for the
// whole data band when no ids are given. Frames that fail to decode are
// skipped. The channel is closed on cancel or when the mux stops.
func SubscribeParams(mux *canbus.Mux, buffer int, ids ...uint16) (<-chan Param, func()) {
	frames, cancel := mux.Subscribe(Params(ids...), buffer)
	return forward(frames, cancel, buffer, func(f canbus.Frame) (Param, bool) {
		m, err := canfly.FromFrame(f)
		if err != nil {
			return Param{}, false
		}
		v, err := canfly.Decode(m)
		if err != nil {
			return Param{}, false
		}
		return Param{ID: m.ID(), Type: m.Type(), Value: v}, true
	})
}

// forward decodes frames onto a new channel until frames is closed or the
// returned stop is called. stop releases the goroutine even when the consumer
// no longer reads, and is safe to call more than once.
func forward[T any](frames <-chan canbus.Frame, cancel func(), buffer int, decode func(canbus.Frame) (T, bool)) (<-chan T, func()) {
	if buffer < 0 {
		buffer = 0
	}
	out := make(chan T, buffer)
	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			cancel()
		})
	}
	go func() {
		defer close(out)
		for f := range frames {
			v, ok := decode(f)
			if !ok {
				continue
			}
			select {
			case out <- v:
			case <-done:
				return
			}
		}
	}()
	return out, stop
}
