package canfly

import (
	"fmt"

	"github.com/notnil/canfly/canbus"
)

// FrameMarshaler encodes a typed CanFly entity into a CAN frame.
type FrameMarshaler interface {
	MarshalCANFrame() (canbus.Frame, error)
}

// FrameUnmarshaler decodes a typed CanFly entity from a CAN frame.
type FrameUnmarshaler interface {
	UnmarshalCANFrame(canbus.Frame) error
}

// FrameCodec combines marshaling and unmarshaling of CAN frames.
type FrameCodec interface {
	FrameMarshaler
	FrameUnmarshaler
}

var (
	_ FrameCodec = (*Message)(nil)
	_ FrameCodec = (*Status)(nil)
)

// MarshalCANFrame copies id, length and payload into a frame. The binary
// marker does not travel on the wire.
func (m Message) MarshalCANFrame() (canbus.Frame, error) {
	f := canbus.Frame{ID: m.ID(), Len: m.Len(), Data: m.Data}
	return f, f.Validate()
}

// UnmarshalCANFrame builds the message from a frame. Frames in the binary
// band get the binary marker set.
func (m *Message) UnmarshalCANFrame(f canbus.Frame) error {
	if err := f.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrBadParameter, err)
	}
	band, err := ClassifyID(f.ID)
	if err != nil {
		return err
	}
	*m = newMessage(f.ID, f.Len)
	m.SetBinary(band == BandBinary)
	m.Data = f.Data
	return nil
}

// FromFrame is shorthand for UnmarshalCANFrame into a new Message.
func FromFrame(f canbus.Frame) (Message, error) {
	var m Message
	err := m.UnmarshalCANFrame(f)
	return m, err
}

// MarshalCANFrame encodes the status message of s.Node.
func (s Status) MarshalCANFrame() (canbus.Frame, error) {
	m, err := NewStatus(s)
	if err != nil {
		return canbus.Frame{}, err
	}
	return m.MarshalCANFrame()
}

// UnmarshalCANFrame decodes a status frame into s.
func (s *Status) UnmarshalCANFrame(f canbus.Frame) error {
	m, err := FromFrame(f)
	if err != nil {
		return err
	}
	return GetStatus(&m, s)
}
