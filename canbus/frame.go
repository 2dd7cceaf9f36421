package canbus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Frame is a classical CAN 2.0A data frame as used by CanFly: an 11-bit
// identifier and up to 8 data bytes. Extended identifiers and remote frames
// are not carried on a CanFly bus.
type Frame struct {
	ID   uint16 // 0..0x7FF
	Len  uint8  // 0..8
	Data [8]byte
}

// Validation limits.
const (
	MaxID  = 0x7FF
	MaxLen = 8
)

var (
	ErrInvalidID  = errors.New("canbus: invalid identifier")
	ErrInvalidLen = errors.New("canbus: invalid data length")
)

// Validate returns an error if the frame is not valid.
func (f Frame) Validate() error {
	if f.Len > MaxLen {
		return ErrInvalidLen
	}
	if f.ID > MaxID {
		return ErrInvalidID
	}
	return nil
}

// Payload returns the used portion of Data.
func (f Frame) Payload() []byte {
	n := f.Len
	if n > MaxLen {
		n = MaxLen
	}
	return f.Data[:n]
}

// MustFrame constructs a Frame and panics if invalid. Convenience for tests
// and examples.
func MustFrame(id uint16, data []byte) Frame {
	if len(data) > MaxLen {
		panic(ErrInvalidLen)
	}
	f := Frame{ID: id, Len: uint8(len(data))}
	copy(f.Data[:], data)
	if err := f.Validate(); err != nil {
		panic(err)
	}
	return f
}

// String renders the frame as "ID [LEN] B0 B1 ...", identifier in hex.
func (f Frame) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%03X [%d]", f.ID, f.Len)
	for _, c := range f.Payload() {
		fmt.Fprintf(&b, " %02X", c)
	}
	return b.String()
}

// MarshalBinary encodes the frame to the Linux SocketCAN "struct can_frame"
// layout (16 bytes). The capture format stores frames this way so recordings
// can be fed to tools that understand can_frame.
//
// Layout (little-endian):
//
//	0..3  can_id
//	4     can_dlc
//	5..7  padding (zero)
//	8..15 data bytes
func (f Frame) MarshalBinary() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(f.ID))
	buf[4] = f.Len
	copy(buf[8:16], f.Data[:])
	return buf, nil
}

// UnmarshalBinary decodes a frame from the can_frame layout. Frames carrying
// the extended, remote or error flags are rejected.
func (f *Frame) UnmarshalBinary(data []byte) error {
	if len(data) < 16 {
		return fmt.Errorf("canbus: need 16 bytes, got %d", len(data))
	}
	id := binary.LittleEndian.Uint32(data[0:4])
	const canFlagMask = 0xE0000000 // EFF|RTR|ERR
	if id&canFlagMask != 0 || id > MaxID {
		return ErrInvalidID
	}
	f.ID = uint16(id)
	f.Len = data[4]
	copy(f.Data[:], data[8:16])
	return f.Validate()
}
