package canfly

import (
	"encoding/binary"
	"fmt"
)

// BoardStatus is the running state a node reports in its status message.
type BoardStatus uint8

const (
	StatusUnknown     BoardStatus = 0
	StatusStarting    BoardStatus = 1
	StatusRunning     BoardStatus = 2
	StatusInhibited   BoardStatus = 3
	StatusFault       BoardStatus = 16
	StatusBootRequest BoardStatus = 128
)

func (s BoardStatus) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusStarting:
		return "starting"
	case StatusRunning:
		return "running"
	case StatusInhibited:
		return "inhibited"
	case StatusFault:
		return "fault"
	case StatusBootRequest:
		return "boot-request"
	}
	return fmt.Sprintf("BoardStatus(%d)", uint8(s))
}

// Status is the content of a node status message.
//
// Layout (8 bytes, no type tag):
//
//	0    0xFF, the binary type marker
//	1    node id
//	2    board status
//	3    board type
//	4..7 serial number (big-endian)
type Status struct {
	Node      uint8
	BoardType uint8
	State     BoardStatus
	Serial    uint32
}

const statusLen = 8

// NewStatus builds the status message for s.Node.
func NewStatus(s Status) (Message, error) {
	id, err := StatusID(s.Node)
	if err != nil {
		return Message{}, err
	}
	m := newMessage(id, statusLen)
	m.Data[0] = byte(TypeBinary)
	m.Data[1] = s.Node
	m.Data[2] = byte(s.State)
	m.Data[3] = s.BoardType
	binary.BigEndian.PutUint32(m.Data[4:8], s.Serial)
	return m, nil
}

// IsStatus reports whether m is sent on a status id.
func IsStatus(m Message) bool {
	return IsStatusID(m.ID())
}

// GetStatus decodes a status message into s.
func GetStatus(m *Message, s *Status) error {
	if m == nil || s == nil {
		return ErrBadParameter
	}
	if !IsStatus(*m) {
		return fmt.Errorf("%w: id 0x%03X is not a status id", ErrMalformed, m.ID())
	}
	if m.Len() != statusLen || m.Data[0] != byte(TypeBinary) {
		return fmt.Errorf("%w: status message [%d] marker 0x%02X", ErrMalformed, m.Len(), m.Data[0])
	}
	if want := uint8(m.ID() - IDStatusNode0); m.Data[1] != want {
		return fmt.Errorf("%w: status id 0x%03X carries node %d, want %d", ErrMalformed, m.ID(), m.Data[1], want)
	}
	*s = Status{
		Node:      m.Data[1],
		State:     BoardStatus(m.Data[2]),
		BoardType: m.Data[3],
		Serial:    binary.BigEndian.Uint32(m.Data[4:8]),
	}
	return nil
}
