// Package monitor tracks live CanFly traffic: prometheus counters on the bus,
// the latest status of every node and the latest value of every parameter,
// served over HTTP.
package monitor

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/notnil/canfly"
	"github.com/notnil/canfly/canbus"
)

// Metrics holds the bus and node collectors.
type Metrics struct {
	frames     *prometheus.CounterVec
	busErrors  *prometheus.CounterVec
	nodeState  *prometheus.GaugeVec
	paramValue *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		frames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "canfly",
				Subsystem: "bus",
				Name:      "frames_total",
				Help:      "Frames sent or received, by direction and id band.",
			},
			[]string{"dir", "band"},
		),
		busErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "canfly",
				Subsystem: "bus",
				Name:      "errors_total",
				Help:      "Failed bus operations, by direction.",
			},
			[]string{"dir"},
		),
		nodeState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "canfly",
				Subsystem: "node",
				Name:      "state",
				Help:      "Last board status reported by each node.",
			},
			[]string{"node"},
		),
		paramValue: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "canfly",
				Subsystem: "param",
				Name:      "value",
				Help:      "Last numeric value of each parameter.",
			},
			[]string{"id", "name"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.frames, m.busErrors, m.nodeState, m.paramValue)
	}
	return m
}

func bandLabel(id uint16) string {
	band, err := canfly.ClassifyID(id)
	if err != nil {
		return "invalid"
	}
	return band.String()
}

// Bus wraps inner and counts every frame and failure passing through it.
func (m *Metrics) Bus(inner canbus.Bus) canbus.Bus {
	return &meteredBus{inner: inner, m: m}
}

type meteredBus struct {
	inner canbus.Bus
	m     *Metrics
}

func (b *meteredBus) Send(ctx context.Context, f canbus.Frame) error {
	if err := b.inner.Send(ctx, f); err != nil {
		b.m.busErrors.WithLabelValues("tx").Inc()
		return err
	}
	b.m.frames.WithLabelValues("tx", bandLabel(f.ID)).Inc()
	return nil
}

func (b *meteredBus) Receive(ctx context.Context) (canbus.Frame, error) {
	f, err := b.inner.Receive(ctx)
	if err != nil {
		// closing and cancellation end every receive loop, they are not faults
		if !errors.Is(err, canbus.ErrClosed) && ctx.Err() == nil {
			b.m.busErrors.WithLabelValues("rx").Inc()
		}
		return f, err
	}
	b.m.frames.WithLabelValues("rx", bandLabel(f.ID)).Inc()
	return f, nil
}

func (b *meteredBus) Close() error {
	return b.inner.Close()
}
