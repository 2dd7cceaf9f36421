package canfly

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/notnil/canfly/canbus"
)

func TestMessage_CANFrameBridge(t *testing.T) {
	m := NewInt16(0x120, -2)
	f, err := m.MarshalCANFrame()
	if err != nil {
		t.Fatalf("MarshalCANFrame: %v", err)
	}
	if f.String() != "120 [3] 05 FF FE" {
		t.Fatalf("frame = %s", f)
	}
	back, err := FromFrame(f)
	if err != nil {
		t.Fatalf("FromFrame: %v", err)
	}
	if back != m {
		t.Fatalf("bridge roundtrip: %s != %s", back, m)
	}

	pipe := canbus.MustFrame(1600, []byte{1, 2})
	bm, err := FromFrame(pipe)
	if err != nil {
		t.Fatalf("FromFrame(pipe): %v", err)
	}
	if !bm.IsBinary() || bm.Type() != TypeBinary || bm.Len() != 2 {
		t.Fatalf("binary band frame not marked: %s", bm)
	}
	if _, err := FromFrame(canbus.Frame{ID: 1, Len: 9}); !errors.Is(err, ErrBadParameter) || !errors.Is(err, canbus.ErrInvalidLen) {
		t.Fatalf("invalid frame: %v", err)
	}
}

func TestStatus_CANFrameCodec(t *testing.T) {
	in := Status{Node: 9, BoardType: 1, State: StatusStarting, Serial: 0xA1B2C3D4}
	f, err := in.MarshalCANFrame()
	if err != nil {
		t.Fatalf("MarshalCANFrame: %v", err)
	}
	var out Status
	if err := out.UnmarshalCANFrame(f); err != nil {
		t.Fatalf("UnmarshalCANFrame: %v", err)
	}
	if out != in {
		t.Fatalf("status codec: %+v != %+v", out, in)
	}
	if _, err := (Status{Node: 20}).MarshalCANFrame(); !errors.Is(err, ErrBadParameter) {
		t.Fatalf("invalid node: %v", err)
	}
}

func TestMessage_OverLoopback(t *testing.T) {
	bus := canbus.NewLoopbackBus()
	defer bus.Close()
	tx := bus.Open()
	rx := bus.Open()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	f, _ := NewUTC(0x050, UTC{Year: 2025, Month: 1, Day: 2, Hour: 3, Minute: 4, Second: 5}).MarshalCANFrame()
	if err := tx.Send(ctx, f); err != nil {
		t.Fatalf("send: %v", err)
	}
	got, err := rx.Receive(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	m, err := FromFrame(got)
	if err != nil {
		t.Fatalf("FromFrame: %v", err)
	}
	var u UTC
	if err := GetUTC(&m, &u); err != nil || u.Year != 2025 || u.Second != 5 {
		t.Fatalf("GetUTC = %+v, %v", u, err)
	}
}

func ExampleGetInt16() {
	m := NewFloat32(0x130, 120)
	var airspeed int16
	if err := GetInt16(&m, &airspeed); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(m, airspeed)

	over := NewInt32(0x130, 300)
	var small uint8
	fmt.Println(GetUint8(&over, &small))
	// Output:
	// 130 [5] float 42 F0 00 00 120
	// canfly: value out of range: int32(300) does not fit uint8
}
