package canfly

import (
	"errors"
	"testing"
)

func TestStatus_RoundTrip(t *testing.T) {
	in := Status{Node: 3, BoardType: 7, State: StatusRunning, Serial: 123456}
	m, err := NewStatus(in)
	if err != nil {
		t.Fatalf("NewStatus: %v", err)
	}
	if m.ID() != IDStatusNode0+3 || m.Len() != 8 || !IsStatus(m) {
		t.Fatalf("status header wrong: %s", m)
	}
	if m.Data[0] != 0xFF || m.Data[1] != 3 || m.Data[2] != 2 || m.Data[3] != 7 {
		t.Fatalf("status layout: % X", m.Payload())
	}
	// 123456 = 0x0001E240
	if m.Data[4] != 0x00 || m.Data[5] != 0x01 || m.Data[6] != 0xE2 || m.Data[7] != 0x40 {
		t.Fatalf("serial layout: % X", m.Payload()[4:])
	}

	var out Status
	if err := GetStatus(&m, &out); err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if out != in {
		t.Fatalf("GetStatus = %+v, want %+v", out, in)
	}
}

func TestStatus_Errors(t *testing.T) {
	if _, err := NewStatus(Status{Node: 16}); !errors.Is(err, ErrBadParameter) {
		t.Fatalf("node 16: %v", err)
	}

	var out Status
	notStatus := NewUint8(0x100, 1)
	if err := GetStatus(&notStatus, &out); !errors.Is(err, ErrMalformed) {
		t.Fatalf("non-status id: %v", err)
	}
	m, _ := NewStatus(Status{Node: 15, State: StatusFault})
	short := m
	_ = short.SetLen(5)
	if err := GetStatus(&short, &out); !errors.Is(err, ErrMalformed) {
		t.Fatalf("short status: %v", err)
	}
	marker := m
	marker.Data[0] = 0
	if err := GetStatus(&marker, &out); !errors.Is(err, ErrMalformed) {
		t.Fatalf("missing marker: %v", err)
	}
	spoofed, _ := NewStatus(Status{Node: 0, State: StatusRunning})
	spoofed.Data[1] = 200
	if err := GetStatus(&spoofed, &out); !errors.Is(err, ErrMalformed) {
		t.Fatalf("node byte 200 on node 0 id: %v", err)
	}
	crossed, _ := NewStatus(Status{Node: 4})
	crossed.Data[1] = 5
	if err := GetStatus(&crossed, &out); !errors.Is(err, ErrMalformed) {
		t.Fatalf("node byte 5 on node 4 id: %v", err)
	}
}

func TestBoardStatus_String(t *testing.T) {
	cases := map[BoardStatus]string{
		StatusUnknown:     "unknown",
		StatusStarting:    "starting",
		StatusRunning:     "running",
		StatusInhibited:   "inhibited",
		StatusFault:       "fault",
		StatusBootRequest: "boot-request",
		BoardStatus(4):    "BoardStatus(4)",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Fatalf("String(%d) = %q, want %q", uint8(s), got, want)
		}
	}
}

func TestIDBands(t *testing.T) {
	cases := []struct {
		id   uint16
		want Band
	}{
		{0, BandData},
		{1399, BandData},
		{1400, BandInternal},
		{IDStatusNode0, BandInternal},
		{1519, BandInternal},
		{1520, BandBinary},
		{MaxID, BandBinary},
	}
	for _, tc := range cases {
		got, err := ClassifyID(tc.id)
		if err != nil || got != tc.want {
			t.Fatalf("ClassifyID(%d) = %s, %v; want %s", tc.id, got, err, tc.want)
		}
	}
	if _, err := ClassifyID(0x800); !errors.Is(err, ErrBadParameter) {
		t.Fatalf("ClassifyID(0x800): %v", err)
	}
	if !IsStatusID(IDStatusNode15) || IsStatusID(IDStatusNode15+1) || IsStatusID(IDStatusNode0-1) {
		t.Fatalf("IsStatusID window wrong")
	}
	if id, err := StatusID(15); err != nil || id != IDStatusNode15 {
		t.Fatalf("StatusID(15) = %d, %v", id, err)
	}
}
