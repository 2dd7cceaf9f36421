package canfly

import (
	"bytes"
	"fmt"
	"strings"
)

// Flags layout.
//
//	bits 15..12 length (0..8)
//	bit  11     binary payload
//	bits 10..0  identifier
const (
	lengthMask  = 0xF000
	lengthShift = 12
	binaryMask  = 0x0800
	idMask      = 0x07FF
)

// Limits of a Message.
const (
	MaxID  = idMask
	MaxLen = 8
)

// Message is a CanFly message: a flags word holding length, binary marker and
// identifier, plus 8 payload bytes. The zero value is an empty tagged message
// with id 0.
//
// Message is a small value type; copy it freely.
type Message struct {
	flags uint16
	Data  [8]byte
}

// Len returns the declared payload length.
func (m Message) Len() uint8 {
	return uint8((m.flags & lengthMask) >> lengthShift)
}

// SetLen sets the payload length, leaving id and binary marker untouched.
func (m *Message) SetLen(n uint8) error {
	if n > MaxLen {
		return fmt.Errorf("%w: length %d exceeds %d", ErrBadParameter, n, MaxLen)
	}
	m.setLen(n)
	return nil
}

func (m *Message) setLen(n uint8) {
	m.flags &^= lengthMask
	m.flags |= uint16(n) << lengthShift & lengthMask
}

// ID returns the 11-bit identifier.
func (m Message) ID() uint16 {
	return m.flags & idMask
}

// SetID sets the identifier, leaving length and binary marker untouched.
func (m *Message) SetID(id uint16) error {
	if id > MaxID {
		return fmt.Errorf("%w: id 0x%X exceeds 0x%X", ErrBadParameter, id, MaxID)
	}
	m.setID(id)
	return nil
}

func (m *Message) setID(id uint16) {
	m.flags &^= idMask
	m.flags |= id & idMask
}

// IsBinary reports whether the payload is opaque binary data.
func (m Message) IsBinary() bool {
	return m.flags&binaryMask != 0
}

// SetBinary sets or clears the binary marker.
func (m *Message) SetBinary(binary bool) {
	m.flags &^= binaryMask
	if binary {
		m.flags |= binaryMask
	}
}

// Type returns the encoded type. Binary messages report TypeBinary; both
// boolean tags report TypeBool. Other tags are returned as found, valid or
// not.
func (m Message) Type() Type {
	if m.IsBinary() {
		return TypeBinary
	}
	switch t := Type(m.Data[0]); t {
	case TypeBoolTrue, TypeBoolFalse:
		return TypeBool
	default:
		return t
	}
}

// Payload returns the used portion of Data.
func (m Message) Payload() []byte {
	return m.Data[:m.Len()]
}

// NewBinary builds a binary message carrying data verbatim. It fails when
// data exceeds 8 bytes.
func NewBinary(id uint16, data []byte) (Message, error) {
	if len(data) > MaxLen {
		return Message{}, fmt.Errorf("%w: binary payload of %d bytes", ErrBadParameter, len(data))
	}
	m := newMessage(id, uint8(len(data)))
	m.SetBinary(true)
	copy(m.Data[:], data)
	return m, nil
}

// Equal reports whether m and o carry the same flags and payload. Bytes past
// the length are ignored.
func (m Message) Equal(o Message) bool {
	return m.flags == o.flags && bytes.Equal(m.Payload(), o.Payload())
}

// String renders "ID [LEN] TYPE B1 B2 ..." with the id in hex. The type name
// stands in for the tag byte; binary messages list every byte.
func (m Message) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%03X [%d] %s", m.ID(), m.Len(), m.Type())
	data := m.Payload()
	if !m.IsBinary() && len(data) > 0 {
		data = data[1:]
	}
	for _, c := range data {
		fmt.Fprintf(&b, " %02X", c)
	}
	return b.String()
}

// newMessage returns a zeroed message with length and id set. The id is
// truncated to 11 bits.
func newMessage(id uint16, n uint8) Message {
	var m Message
	m.setLen(n)
	m.setID(id)
	return m
}
