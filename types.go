package canfly

import "fmt"

// Type is a CanFly wire type tag. Values 0..11 and 0xFF appear in payload
// byte 0; TypeBool is a logical type returned by Message.Type for both
// boolean tags and is never written to the wire.
type Type uint16

const (
	TypeNoData    Type = 0
	TypeError     Type = 1
	TypeUint8     Type = 2
	TypeInt8      Type = 3
	TypeUint16    Type = 4
	TypeInt16     Type = 5
	TypeUint32    Type = 6
	TypeInt32     Type = 7
	TypeBoolTrue  Type = 8
	TypeBoolFalse Type = 9
	TypeFloat     Type = 10
	TypeUTC       Type = 11

	TypeBinary Type = 0xFF
	TypeBool   Type = 0x100
)

type typeInfo struct {
	name string
	len  uint8 // total message length including the tag byte
	kind Kind
}

var typeTable = map[Type]typeInfo{
	TypeNoData:    {"nodata", 1, KindNone},
	TypeError:     {"error", 5, KindUint32},
	TypeUint8:     {"uint8", 2, KindUint8},
	TypeInt8:      {"int8", 2, KindInt8},
	TypeUint16:    {"uint16", 3, KindUint16},
	TypeInt16:     {"int16", 3, KindInt16},
	TypeUint32:    {"uint32", 5, KindUint32},
	TypeInt32:     {"int32", 5, KindInt32},
	TypeBoolTrue:  {"true", 1, KindBool},
	TypeBoolFalse: {"false", 1, KindBool},
	TypeFloat:     {"float", 5, KindFloat},
	TypeUTC:       {"utc", 8, KindUTC},
	TypeBool:      {"bool", 1, KindBool},
}

// Len returns the total message length, tag byte included, of a message
// carrying t. Binary and unknown types report false.
func (t Type) Len() (uint8, bool) {
	info, ok := typeTable[t]
	return info.len, ok
}

// Kind returns the Variant kind a message of type t decodes to.
func (t Type) Kind() (Kind, bool) {
	info, ok := typeTable[t]
	return info.kind, ok
}

// Valid reports whether t is a defined tag, including TypeBinary.
func (t Type) Valid() bool {
	_, ok := typeTable[t]
	return ok || t == TypeBinary
}

func (t Type) String() string {
	if t == TypeBinary {
		return "binary"
	}
	if info, ok := typeTable[t]; ok {
		return info.name
	}
	return fmt.Sprintf("Type(%d)", uint16(t))
}

// ParseType maps a type name as produced by Type.String back to the type.
// "float32" and "bool" are accepted as aliases.
func ParseType(name string) (Type, error) {
	switch name {
	case "float32":
		return TypeFloat, nil
	case "binary":
		return TypeBinary, nil
	}
	for t, info := range typeTable {
		if info.name == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown type %q", ErrBadParameter, name)
}

// typeForKind is the natural wire type used to encode a Variant of kind k.
func typeForKind(k Kind) (Type, bool) {
	switch k {
	case KindNone:
		return TypeNoData, true
	case KindBool:
		return TypeBool, true
	case KindInt8:
		return TypeInt8, true
	case KindUint8:
		return TypeUint8, true
	case KindInt16:
		return TypeInt16, true
	case KindUint16:
		return TypeUint16, true
	case KindInt32:
		return TypeInt32, true
	case KindUint32:
		return TypeUint32, true
	case KindFloat:
		return TypeFloat, true
	case KindUTC:
		return TypeUTC, true
	}
	return 0, false
}
