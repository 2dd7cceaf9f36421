package canfly

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Decode reads a tagged message into a Variant. The declared length must
// match the length of the tag; error codes decode to a uint32 variant.
// Binary messages have no variant form and fail with ErrBadType.
func Decode(m Message) (Variant, error) {
	if m.IsBinary() {
		return Variant{}, fmt.Errorf("%w: binary message 0x%03X", ErrBadType, m.ID())
	}
	if m.Len() == 0 {
		return Variant{}, fmt.Errorf("%w: empty message 0x%03X", ErrMalformed, m.ID())
	}
	tag := Type(m.Data[0])
	want, ok := tag.Len()
	if !ok {
		return Variant{}, fmt.Errorf("%w: unknown tag %d", ErrMalformed, m.Data[0])
	}
	if got := m.Len(); got != want {
		return Variant{}, fmt.Errorf("%w: %s message has length %d, want %d", ErrMalformed, tag, got, want)
	}

	d := m.Data[:]
	switch tag {
	case TypeNoData:
		return VariantNone(), nil
	case TypeBoolTrue:
		return VariantBool(true), nil
	case TypeBoolFalse:
		return VariantBool(false), nil
	case TypeInt8:
		return VariantInt8(int8(d[1])), nil
	case TypeUint8:
		return VariantUint8(d[1]), nil
	case TypeInt16:
		return VariantInt16(int16(binary.BigEndian.Uint16(d[1:3]))), nil
	case TypeUint16:
		return VariantUint16(binary.BigEndian.Uint16(d[1:3])), nil
	case TypeInt32:
		return VariantInt32(int32(binary.BigEndian.Uint32(d[1:5]))), nil
	case TypeUint32, TypeError:
		return VariantUint32(binary.BigEndian.Uint32(d[1:5])), nil
	case TypeFloat:
		return VariantFloat(math.Float32frombits(binary.BigEndian.Uint32(d[1:5]))), nil
	case TypeUTC:
		return VariantUTC(decodeUTC(d)), nil
	}
	return Variant{}, fmt.Errorf("%w: unknown tag %d", ErrMalformed, m.Data[0])
}

func decodeUTC(d []byte) UTC {
	return UTC{
		Year:   binary.BigEndian.Uint16(d[1:3]),
		Month:  uint16(d[3]),
		Day:    uint16(d[4]),
		Hour:   uint16(d[5]),
		Minute: uint16(d[6]),
		Second: uint16(d[7]),
	}
}
