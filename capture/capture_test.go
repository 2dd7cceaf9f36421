package capture

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/notnil/canfly"
	"github.com/notnil/canfly/canbus"
)

func TestWriterReader_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	w.now = func() time.Time { return at }

	frames := []canbus.Frame{
		canbus.MustFrame(0x100, []byte{2, 7}),
		canbus.MustFrame(canfly.IDStatusNode0, []byte{0xFF, 0, 2, 1, 0, 0, 0, 9}),
		canbus.MustFrame(0x7FF, nil),
	}
	for i, f := range frames {
		dir := DirRx
		if i%2 == 1 {
			dir = DirTx
		}
		if err := w.Write(dir, f); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	recs, err := ReadAll(&buf)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(recs) != len(frames) {
		t.Fatalf("got %d records, want %d", len(recs), len(frames))
	}
	for i, r := range recs {
		f, err := r.Frame()
		if err != nil {
			t.Fatalf("record %d frame: %v", i, err)
		}
		if f != frames[i] {
			t.Fatalf("record %d: %s, want %s", i, f, frames[i])
		}
		if !r.At.Equal(at) {
			t.Fatalf("record %d time %v", i, r.At)
		}
		if wantDir := Direction(i % 2); r.Dir != wantDir {
			t.Fatalf("record %d dir %s", i, r.Dir)
		}
	}
}

func TestWriter_RejectsInvalidFrame(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Write(DirTx, canbus.Frame{ID: 0x800}); !errors.Is(err, canbus.ErrInvalidID) {
		t.Fatalf("write invalid frame: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("invalid frame produced output")
	}
}

func TestReader_Errors(t *testing.T) {
	r := NewReader(bytes.NewReader(nil))
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("empty stream: %v", err)
	}
	r = NewReader(bytes.NewReader([]byte{0xC1}))
	if _, err := r.Next(); err == nil || err == io.EOF {
		t.Fatalf("garbage stream should fail, got %v", err)
	}
}

func TestRecordingBus(t *testing.T) {
	bus := canbus.NewLoopbackBus()
	defer bus.Close()

	var buf bytes.Buffer
	w := NewWriter(&buf)
	var recErrs []error
	tx := NewRecordingBus(bus.Open(), w, func(err error) { recErrs = append(recErrs, err) })
	rx := NewRecordingBus(bus.Open(), w, nil)
	defer tx.Close()
	defer rx.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	f, _ := canfly.NewUint16(0x123, 500).MarshalCANFrame()
	if err := tx.Send(ctx, f); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := rx.Receive(ctx); err != nil {
		t.Fatalf("receive: %v", err)
	}

	recs, err := ReadAll(&buf)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(recs) != 2 || recs[0].Dir != DirTx || recs[1].Dir != DirRx {
		t.Fatalf("records: %+v", recs)
	}
	got, _ := recs[1].Frame()
	m, err := canfly.FromFrame(got)
	if err != nil {
		t.Fatalf("FromFrame: %v", err)
	}
	var v uint16
	if err := canfly.GetUint16(&m, &v); err != nil || v != 500 {
		t.Fatalf("captured value %d, %v", v, err)
	}
	if len(recErrs) != 0 {
		t.Fatalf("unexpected recording errors: %v", recErrs)
	}
}
