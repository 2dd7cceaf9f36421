package canfly

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Message constructors. Each returns a zeroed message with length, id and
// tag set and the value written big-endian after the tag byte. The id is
// truncated to 11 bits; none of them can fail.

func NewNoData(id uint16) Message {
	m := newMessage(id, 1)
	m.Data[0] = byte(TypeNoData)
	return m
}

// NewError builds a message carrying an error code.
func NewError(id uint16, code uint32) Message {
	return newUint32(id, TypeError, code)
}

func NewBool(id uint16, v bool) Message {
	m := newMessage(id, 1)
	if v {
		m.Data[0] = byte(TypeBoolTrue)
	} else {
		m.Data[0] = byte(TypeBoolFalse)
	}
	return m
}

func NewInt8(id uint16, v int8) Message {
	m := newMessage(id, 2)
	m.Data[0] = byte(TypeInt8)
	m.Data[1] = uint8(v)
	return m
}

func NewUint8(id uint16, v uint8) Message {
	m := newMessage(id, 2)
	m.Data[0] = byte(TypeUint8)
	m.Data[1] = v
	return m
}

func NewInt16(id uint16, v int16) Message {
	return newUint16(id, TypeInt16, uint16(v))
}

func NewUint16(id uint16, v uint16) Message {
	return newUint16(id, TypeUint16, v)
}

func NewInt32(id uint16, v int32) Message {
	return newUint32(id, TypeInt32, uint32(v))
}

func NewUint32(id uint16, v uint32) Message {
	return newUint32(id, TypeUint32, v)
}

// NewFloat32 encodes the IEEE-754 bit pattern of v, most significant byte
// first.
func NewFloat32(id uint16, v float32) Message {
	return newUint32(id, TypeFloat, math.Float32bits(v))
}

// NewUTC encodes year (2 bytes) then month, day, hour, minute and second
// (1 byte each). Millisecond is not transmitted.
func NewUTC(id uint16, v UTC) Message {
	m := newMessage(id, 8)
	m.Data[0] = byte(TypeUTC)
	binary.BigEndian.PutUint16(m.Data[1:3], v.Year)
	m.Data[3] = uint8(v.Month)
	m.Data[4] = uint8(v.Day)
	m.Data[5] = uint8(v.Hour)
	m.Data[6] = uint8(v.Minute)
	m.Data[7] = uint8(v.Second)
	return m
}

func newUint16(id uint16, t Type, v uint16) Message {
	m := newMessage(id, 3)
	m.Data[0] = byte(t)
	binary.BigEndian.PutUint16(m.Data[1:3], v)
	return m
}

func newUint32(id uint16, t Type, v uint32) Message {
	m := newMessage(id, 5)
	m.Data[0] = byte(t)
	binary.BigEndian.PutUint32(m.Data[1:5], v)
	return m
}

// Encode builds a message for v using the natural wire type of its kind.
func Encode(id uint16, v Variant) (Message, error) {
	t, ok := typeForKind(v.kind)
	if !ok {
		return Message{}, fmt.Errorf("%w: kind %s has no wire type", ErrBadType, v.kind)
	}
	return EncodeAs(id, v, t)
}

// EncodeAs coerces v to the kind carried by t and builds the message. Both
// boolean tags and TypeBool select the boolean encoding by value.
// TypeNoData only accepts a none variant and TypeBinary cannot be produced
// from a Variant.
func EncodeAs(id uint16, v Variant, t Type) (Message, error) {
	if t == TypeNoData {
		if v.kind != KindNone {
			return Message{}, badType(v.kind, KindNone)
		}
		return NewNoData(id), nil
	}
	kind, ok := t.Kind()
	if !ok {
		return Message{}, fmt.Errorf("%w: cannot encode a variant as %s", ErrBadType, t)
	}
	c, err := Coerce(v, kind)
	if err != nil {
		return Message{}, err
	}
	switch t {
	case TypeError:
		return NewError(id, uint32(c.i)), nil
	case TypeBool, TypeBoolTrue, TypeBoolFalse:
		return NewBool(id, c.i != 0), nil
	case TypeInt8:
		return NewInt8(id, int8(c.i)), nil
	case TypeUint8:
		return NewUint8(id, uint8(c.i)), nil
	case TypeInt16:
		return NewInt16(id, int16(c.i)), nil
	case TypeUint16:
		return NewUint16(id, uint16(c.i)), nil
	case TypeInt32:
		return NewInt32(id, int32(c.i)), nil
	case TypeUint32:
		return NewUint32(id, uint32(c.i)), nil
	case TypeFloat:
		return NewFloat32(id, c.f), nil
	case TypeUTC:
		return NewUTC(id, c.t), nil
	}
	return Message{}, fmt.Errorf("%w: cannot encode a variant as %s", ErrBadType, t)
}
