package canfly

import (
	"cmp"
	"fmt"
	"strconv"
)

// Kind identifies the value held by a Variant. The declaration order is the
// ordering used by Compare.
type Kind uint8

const (
	KindNone Kind = iota
	KindBool
	KindInt8
	KindUint8
	KindInt16
	KindUint16
	KindInt32
	KindUint32
	KindFloat
	KindUTC
)

var kindNames = [...]string{
	KindNone:   "none",
	KindBool:   "bool",
	KindInt8:   "int8",
	KindUint8:  "uint8",
	KindInt16:  "int16",
	KindUint16: "uint16",
	KindInt32:  "int32",
	KindUint32: "uint32",
	KindFloat:  "float",
	KindUTC:    "utc",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	return k <= KindUTC
}

// Variant holds exactly one value of its Kind. It is a plain value: copying a
// Variant copies the value, nothing is shared.
//
// Integer kinds and bool are stored widened in i, floats in f and
// timestamps in t; only the field matching kind is meaningful.
type Variant struct {
	kind Kind
	i    int64
	f    float32
	t    UTC
}

func VariantNone() Variant { return Variant{} }

func VariantBool(v bool) Variant {
	var i int64
	if v {
		i = 1
	}
	return Variant{kind: KindBool, i: i}
}

func VariantInt8(v int8) Variant     { return Variant{kind: KindInt8, i: int64(v)} }
func VariantUint8(v uint8) Variant   { return Variant{kind: KindUint8, i: int64(v)} }
func VariantInt16(v int16) Variant   { return Variant{kind: KindInt16, i: int64(v)} }
func VariantUint16(v uint16) Variant { return Variant{kind: KindUint16, i: int64(v)} }
func VariantInt32(v int32) Variant   { return Variant{kind: KindInt32, i: int64(v)} }
func VariantUint32(v uint32) Variant { return Variant{kind: KindUint32, i: int64(v)} }
func VariantFloat(v float32) Variant { return Variant{kind: KindFloat, f: v} }
func VariantUTC(v UTC) Variant       { return Variant{kind: KindUTC, t: v} }

// Kind returns the kind of the held value.
func (v Variant) Kind() Kind { return v.kind }

// IsNone reports whether v holds no value.
func (v Variant) IsNone() bool { return v.kind == KindNone }

// Copy returns an independent copy of v.
func (v Variant) Copy() Variant { return v }

// Compare orders a and b: first by kind, then by value when the kinds match.
// It returns -1, 0 or +1. Floats follow cmp.Compare, so NaN sorts first.
func Compare(a, b Variant) int {
	if a.kind != b.kind {
		return cmp.Compare(a.kind, b.kind)
	}
	switch a.kind {
	case KindNone:
		return 0
	case KindFloat:
		return cmp.Compare(a.f, b.f)
	case KindUTC:
		return compareUTC(a.t, b.t)
	default:
		return cmp.Compare(a.i, b.i)
	}
}

// Equal reports whether a and b hold the same kind and value.
func (v Variant) Equal(o Variant) bool {
	return Compare(v, o) == 0
}

func (v Variant) String() string {
	switch v.kind {
	case KindNone:
		return "none"
	case KindBool:
		return strconv.FormatBool(v.i != 0)
	case KindFloat:
		return v.kind.String() + "(" + strconv.FormatFloat(float64(v.f), 'g', -1, 32) + ")"
	case KindUTC:
		return v.kind.String() + "(" + v.t.String() + ")"
	case KindInt8, KindUint8, KindInt16, KindUint16, KindInt32, KindUint32:
		return v.kind.String() + "(" + strconv.FormatInt(v.i, 10) + ")"
	}
	return fmt.Sprintf("Variant(%d)", v.kind)
}
