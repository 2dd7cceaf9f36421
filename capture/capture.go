// Package capture records CAN traffic to a stream of msgpack records and
// reads it back.
//
// Each record carries a timestamp, a direction and the frame in the 16-byte
// SocketCAN can_frame layout, so captures stay usable by tools that know
// nothing about CanFly.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/notnil/canfly/canbus"
)

// Direction tells whether a frame was sent or received by the recorder.
type Direction uint8

const (
	DirRx Direction = iota
	DirTx
)

func (d Direction) String() string {
	if d == DirTx {
		return "tx"
	}
	return "rx"
}

// Record is one captured frame.
type Record struct {
	At  time.Time `msgpack:"t"`
	Dir Direction `msgpack:"d"`
	Raw []byte    `msgpack:"f"`
}

// Frame decodes the captured can_frame.
func (r Record) Frame() (canbus.Frame, error) {
	var f canbus.Frame
	err := f.UnmarshalBinary(r.Raw)
	return f, err
}

// Writer appends records to an io.Writer. It is safe for concurrent use.
type Writer struct {
	mu  sync.Mutex
	enc *msgpack.Encoder
	now func() time.Time
}

// NewWriter returns a Writer encoding to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: msgpack.NewEncoder(w), now: time.Now}
}

// Write records f with the current time.
func (w *Writer) Write(dir Direction, f canbus.Frame) error {
	raw, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	rec := Record{At: w.now().UTC(), Dir: dir, Raw: raw}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(&rec); err != nil {
		return fmt.Errorf("capture: encode record: %w", err)
	}
	return nil
}

// Reader reads records written by Writer.
type Reader struct {
	dec *msgpack.Decoder
}

// NewReader returns a Reader decoding from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: msgpack.NewDecoder(r)}
}

// Next returns the next record, or io.EOF at the end of the stream.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("capture: decode record: %w", err)
	}
	return rec, nil
}

// ReadAll reads records until EOF.
func ReadAll(r io.Reader) ([]Record, error) {
	rd := NewReader(r)
	var out []Record
	for {
		rec, err := rd.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

// NewRecordingBus wraps a Bus and records every frame successfully sent or
// received through it. Recording errors are reported to onErr when set and
// never fail the bus operation.
func NewRecordingBus(inner canbus.Bus, w *Writer, onErr func(error)) canbus.Bus {
	return &recordingBus{inner: inner, w: w, onErr: onErr}
}

type recordingBus struct {
	inner canbus.Bus
	w     *Writer
	onErr func(error)
}

func (b *recordingBus) record(dir Direction, f canbus.Frame) {
	if err := b.w.Write(dir, f); err != nil && b.onErr != nil {
		b.onErr(err)
	}
}

func (b *recordingBus) Send(ctx context.Context, f canbus.Frame) error {
	if err := b.inner.Send(ctx, f); err != nil {
		return err
	}
	b.record(DirTx, f)
	return nil
}

func (b *recordingBus) Receive(ctx context.Context) (canbus.Frame, error) {
	f, err := b.inner.Receive(ctx)
	if err != nil {
		return f, err
	}
	b.record(DirRx, f)
	return f, nil
}

func (b *recordingBus) Close() error {
	return b.inner.Close()
}
