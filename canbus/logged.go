package canbus

import (
	"context"
	"log/slog"
)

// LogOption is a bitmask for selecting which operations to log.
type LogOption uint8

const (
	LogNone  LogOption = 0
	LogRead  LogOption = 1 << iota
	LogWrite
	LogAll = LogRead | LogWrite
)

// FrameDescriber renders a frame for the "desc" log attribute. Higher layers
// plug in a decoder here so logs show values instead of raw bytes.
type FrameDescriber func(Frame) string

// LoggedOption configures a logged bus.
type LoggedOption func(*loggedBus)

// WithLogFilter only logs frames that satisfy the filter. Errors are always
// logged.
func WithLogFilter(filter FrameFilter) LoggedOption {
	return func(l *loggedBus) { l.filter = filter }
}

// WithDescriber adds a "desc" attribute produced by d to every frame record.
func WithDescriber(d FrameDescriber) LoggedOption {
	return func(l *loggedBus) { l.describe = d }
}

// NewLoggedBus wraps the given Bus and logs selected operations at the given
// level using a slog.Logger.
func NewLoggedBus(inner Bus, logger *slog.Logger, level slog.Level, opts LogOption, options ...LoggedOption) Bus {
	l := &loggedBus{
		inner:  inner,
		logger: logger,
		level:  level,
		opts:   opts,
	}
	for _, o := range options {
		o(l)
	}
	return l
}

type loggedBus struct {
	inner    Bus
	logger   *slog.Logger
	level    slog.Level
	opts     LogOption
	filter   FrameFilter
	describe FrameDescriber
}

func (l *loggedBus) frameAttrs(f Frame) []any {
	attrs := []any{
		"id", f.ID,
		"len", int(f.Len),
		"data", f.Payload(),
		"string", f.String(),
	}
	if l.describe != nil {
		attrs = append(attrs, "desc", l.describe(f))
	}
	return attrs
}

// Send logs the frame and the result when write logging is enabled.
func (l *loggedBus) Send(ctx context.Context, frame Frame) error {
	if l.opts&LogWrite != 0 && (l.filter == nil || l.filter(frame)) {
		l.logger.Log(ctx, l.level, "canbus send", l.frameAttrs(frame)...)
	}
	err := l.inner.Send(ctx, frame)
	if l.opts&LogWrite != 0 && err != nil {
		l.logger.Log(ctx, slog.LevelError, "canbus send error",
			"id", frame.ID,
			"error", err,
		)
	}
	return err
}

// Receive logs the received frame or error when read logging is enabled.
func (l *loggedBus) Receive(ctx context.Context) (Frame, error) {
	f, err := l.inner.Receive(ctx)
	if l.opts&LogRead == 0 {
		return f, err
	}
	if err != nil {
		l.logger.Log(ctx, slog.LevelError, "canbus receive error", "error", err)
	} else if l.filter == nil || l.filter(f) {
		l.logger.Log(ctx, l.level, "canbus receive", l.frameAttrs(f)...)
	}
	return f, err
}

// Close forwards to the inner Bus without logging.
func (l *loggedBus) Close() error {
	return l.inner.Close()
}
