package canbus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestFrame_Validate_Marshal_Unmarshal_String(t *testing.T) {
	cases := []struct {
		name    string
		frame   Frame
		wantStr string
	}{
		{
			name:    "frame with data",
			frame:   MustFrame(0x123, []byte{0xDE, 0xAD}),
			wantStr: "123 [2] DE AD",
		},
		{
			name:    "zero length at max id",
			frame:   Frame{ID: MaxID},
			wantStr: "7FF [0]",
		},
		{
			name:    "full payload",
			frame:   MustFrame(0x5F0, []byte{0, 1, 2, 3, 4, 5, 6, 7}),
			wantStr: "5F0 [8] 00 01 02 03 04 05 06 07",
		},
	}

	for _, tc := range cases {
		if err := tc.frame.Validate(); err != nil {
			t.Fatalf("%s: Validate() error = %v", tc.name, err)
		}
		b, err := tc.frame.MarshalBinary()
		if err != nil {
			t.Fatalf("%s: MarshalBinary() error = %v", tc.name, err)
		}
		if len(b) != 16 {
			t.Fatalf("%s: MarshalBinary() len = %d", tc.name, len(b))
		}
		var g Frame
		if err := g.UnmarshalBinary(b); err != nil {
			t.Fatalf("%s: UnmarshalBinary() error = %v", tc.name, err)
		}
		if g != tc.frame {
			t.Fatalf("%s: roundtrip mismatch: got %+v want %+v", tc.name, g, tc.frame)
		}
		if got := g.String(); got != tc.wantStr {
			t.Fatalf("%s: String() = %q, want %q", tc.name, got, tc.wantStr)
		}
	}

	if err := (Frame{ID: 0x800}).Validate(); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected invalid id, got %v", err)
	}
	if err := (Frame{ID: 1, Len: 9}).Validate(); !errors.Is(err, ErrInvalidLen) {
		t.Fatalf("expected invalid len, got %v", err)
	}
	{
		raw := make([]byte, 16)
		raw[3] = 0x80 // EFF flag
		var f Frame
		if err := f.UnmarshalBinary(raw); !errors.Is(err, ErrInvalidID) {
			t.Fatalf("extended frame should be rejected, got %v", err)
		}
		if err := f.UnmarshalBinary(raw[:8]); err == nil {
			t.Fatalf("short buffer should be rejected")
		}
	}
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatalf("MustFrame should panic for len>8")
			}
		}()
		_ = MustFrame(0x123, make([]byte, 9))
	}()
}

func TestLoopbackBus_SendReceive_MultiEndpoint(t *testing.T) {
	bus := NewLoopbackBus()
	defer bus.Close()

	a := bus.Open()
	b := bus.Open()
	c := bus.Open()
	defer a.Close()
	defer b.Close()
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	send := MustFrame(0x321, []byte("hello"))

	done := make(chan error, 1)
	go func() { done <- a.Send(ctx, send) }()

	gotB, err := b.Receive(ctx)
	if err != nil {
		t.Fatalf("receive b: %v", err)
	}
	gotC, err := c.Receive(ctx)
	if err != nil {
		t.Fatalf("receive c: %v", err)
	}
	if gotB.ID != send.ID || gotB.Len != send.Len || !bytes.Equal(gotB.Payload(), send.Payload()) {
		t.Fatalf("b mismatch: got %+v want %+v", gotB, send)
	}
	if gotC != send {
		t.Fatalf("c mismatch: got %+v want %+v", gotC, send)
	}
	if err := <-done; err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotB.String() != "321 [5] 68 65 6C 6C 6F" {
		t.Fatalf("string: got %q", gotB.String())
	}
}

func TestLoopbackBus_ReceiveHonoursContext(t *testing.T) {
	bus := NewLoopbackBus()
	defer bus.Close()
	a := bus.Open()
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := a.Receive(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestLoopbackBus_CloseBehavior(t *testing.T) {
	bus := NewLoopbackBus()
	a := bus.Open()
	b := bus.Open()
	ctx := context.Background()

	_ = a.Close()
	if _, err := a.Receive(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("closed endpoint should error on Receive, got %v", err)
	}
	if err := a.Send(ctx, MustFrame(0x1, nil)); !errors.Is(err, ErrClosed) {
		t.Fatalf("closed endpoint should error on Send, got %v", err)
	}

	_ = bus.Close()
	if _, err := b.Receive(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("endpoint should error after bus close, got %v", err)
	}
	if err := b.Send(ctx, MustFrame(0x1, nil)); !errors.Is(err, ErrClosed) {
		t.Fatalf("endpoint should error on Send after bus close, got %v", err)
	}
	late := bus.Open()
	if _, err := late.Receive(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("endpoint opened after close should be closed, got %v", err)
	}
}

func TestLoopbackBus_EchoAndCounters(t *testing.T) {
	bus := NewLoopbackBus(WithEcho())
	defer bus.Close()
	a := bus.Open()
	b := bus.Open()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	f := MustFrame(0x10, []byte{1})
	if err := a.Send(ctx, f); err != nil {
		t.Fatalf("send: %v", err)
	}
	for name, ep := range map[string]Bus{"sender": a, "peer": b} {
		got, err := ep.Receive(ctx)
		if err != nil || got != f {
			t.Fatalf("%s: got %s, %v", name, got, err)
		}
	}
	if bus.Sent() != 1 || bus.Endpoints() != 2 {
		t.Fatalf("sent=%d endpoints=%d", bus.Sent(), bus.Endpoints())
	}
	_ = b.Close()
	_ = b.Close()
	if bus.Endpoints() != 1 {
		t.Fatalf("endpoints after close=%d", bus.Endpoints())
	}
}

func TestLoopbackBus_QueueDepthBackPressure(t *testing.T) {
	bus := NewLoopbackBus(WithQueueDepth(1))
	defer bus.Close()
	a := bus.Open()
	b := bus.Open()

	if err := a.Send(context.Background(), MustFrame(0x1, nil)); err != nil {
		t.Fatalf("first send: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := a.Send(ctx, MustFrame(0x2, nil)); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("send into full queue: %v", err)
	}
	if bus.Sent() != 1 {
		t.Fatalf("sent=%d", bus.Sent())
	}

	// a peer closing releases a blocked sender
	done := make(chan error, 1)
	go func() { done <- a.Send(context.Background(), MustFrame(0x3, nil)) }()
	time.Sleep(10 * time.Millisecond)
	_ = b.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("blocked send: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("send stayed blocked after peer close")
	}
}

func TestFilters_Basics(t *testing.T) {
	f1 := MustFrame(0x100, []byte{1})
	f2 := MustFrame(0x101, []byte{2})
	empty := MustFrame(0x102, nil)

	if !ByID(0x100)(f1) || ByID(0x100)(f2) {
		t.Fatalf("ByID failure")
	}
	if !ByIDs(0x100, 0x102)(f1) || ByIDs(0x100, 0x102)(f2) {
		t.Fatalf("ByIDs failure")
	}
	if !ByRange(0x100, 0x1FF)(f2) || ByRange(0x200, 0x2FF)(f2) || !ByRange(0x1FF, 0x100)(f2) {
		t.Fatalf("ByRange failure")
	}
	if !ByMask(0x100, 0x7FF)(f1) || ByMask(0x100, 0x7FF)(f2) || !ByMask(0x100, 0x7F0)(f2) {
		t.Fatalf("ByMask failure")
	}
	if !ByLen(0, 1)(f1) || ByLen(2, 8)(f1) || !ByLen(0, 0)(empty) || !ByLen(8, 1)(f2) {
		t.Fatalf("ByLen failure")
	}
	if !ByPrefix(2)(f2) || ByPrefix(2)(f1) || ByPrefix(0)(empty) || !ByPrefix()(empty) || ByPrefix(1, 0)(f1) {
		t.Fatalf("ByPrefix failure")
	}
	if !And(ByID(0x100), ByLen(1, 1))(f1) || And(ByID(0x100), ByLen(2, 2))(f1) {
		t.Fatalf("And failure")
	}
	if !And(nil, ByID(0x100))(f1) || And(nil, nil) != nil || Or(nil, ByID(0x7FF)) != nil {
		t.Fatalf("nil composition failure")
	}
	if !Or(ByID(0x100), ByID(0x7FF))(f1) || Or(ByID(0x7FF), ByID(0x7FE))(f1) || !Or(ByID(0x7FF), ByID(0x7FE), ByLen(1, 1))(f1) {
		t.Fatalf("Or failure")
	}
	if Not(ByID(0x100))(f1) || !Not(ByID(0x7FF))(f1) || Not(nil)(f1) {
		t.Fatalf("Not failure")
	}
}

func TestMux_Subscribe_Filtering_And_Close(t *testing.T) {
	bus := NewLoopbackBus()
	defer bus.Close()
	m := NewMux(bus.Open())

	chA, cancelA := m.Subscribe(ByID(0x100), 1)
	chB, cancelB := m.Subscribe(ByRange(0x200, 0x2FF), 2)
	defer cancelB()

	producer := bus.Open()
	defer producer.Close()

	ctx := context.Background()
	send := func(id uint16) { _ = producer.Send(ctx, MustFrame(id, []byte{1, 2, 3})) }

	send(0x100)
	send(0x210)
	send(0x105)

	select {
	case f := <-chA:
		if f.ID != 0x100 {
			t.Fatalf("A got %03X", f.ID)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for A")
	}
	select {
	case f := <-chB:
		if f.ID != 0x210 {
			t.Fatalf("B got %03X", f.ID)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for B")
	}
	select {
	case f := <-chA:
		t.Fatalf("A should be empty, got %03X", f.ID)
	case <-time.After(100 * time.Millisecond):
	}

	cancelA()
	cancelA()
	send(0x100)
	select {
	case _, ok := <-chA:
		if ok {
			t.Fatalf("A should be closed")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("A should be closed after cancel")
	}

	_ = m.Close()
	if _, ok := <-chB; ok {
		t.Fatalf("B should be closed after mux close")
	}
	if m.Err() != nil {
		t.Fatalf("regular close should not record an error: %v", m.Err())
	}
	late, _ := m.Subscribe(nil, 1)
	if _, ok := <-late; ok {
		t.Fatalf("subscription after close should be closed")
	}
}

func TestMux_StopsOnBusError(t *testing.T) {
	bus := NewLoopbackBus()
	ep := bus.Open()
	m := NewMux(ep)
	ch, cancel := m.Subscribe(nil, 1)
	defer cancel()

	_ = bus.Close()
	select {
	case <-m.Done():
	case <-time.After(time.Second):
		t.Fatalf("mux did not stop after bus close")
	}
	if !errors.Is(m.Err(), ErrClosed) {
		t.Fatalf("Err() = %v, want ErrClosed", m.Err())
	}
	if _, ok := <-ch; ok {
		t.Fatalf("subscriber should be closed")
	}
	_ = m.Close()
}

func ExampleLoopbackBus() {
	bus := NewLoopbackBus()
	a := bus.Open()
	b := bus.Open()
	defer a.Close()
	defer b.Close()

	ctx := context.Background()
	go func() { _ = a.Send(ctx, MustFrame(0x123, []byte("hi"))) }()
	f, _ := b.Receive(ctx)
	fmt.Printf("ID=%03X LEN=%d DATA=%x\n", f.ID, f.Len, f.Payload())
	// Output: ID=123 LEN=2 DATA=6869
}
