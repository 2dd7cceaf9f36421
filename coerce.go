package canfly

import (
	"fmt"
	"math"
)

// Coercion rules:
//   - none converts to nothing, and nothing converts to none (ErrBadType)
//   - utc converts only to utc (ErrBadType otherwise)
//   - bool converts to and from numbers as 0 and 1; any other number is
//     ErrOutOfRange when converting to bool
//   - integers narrow only when the value fits (ErrOutOfRange)
//   - floats convert to integers only when finite, integral and in range
//   - integers convert to float with IEEE-754 rounding

func badType(from, to Kind) error {
	return fmt.Errorf("%w: cannot convert %s to %s", ErrBadType, from, to)
}

func outOfRange(v Variant, to Kind) error {
	return fmt.Errorf("%w: %s does not fit %s", ErrOutOfRange, v, to)
}

// integral returns the integer value of v if it lies within [lo, hi].
func (v Variant) integral(to Kind, lo, hi int64) (int64, error) {
	var n int64
	switch v.kind {
	case KindNone, KindUTC:
		return 0, badType(v.kind, to)
	case KindBool, KindInt8, KindUint8, KindInt16, KindUint16, KindInt32, KindUint32:
		n = v.i
	case KindFloat:
		f := float64(v.f)
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return 0, outOfRange(v, to)
		}
		if f < float64(lo) || f > float64(hi) {
			return 0, outOfRange(v, to)
		}
		n = int64(f)
	default:
		return 0, badType(v.kind, to)
	}
	if n < lo || n > hi {
		return 0, outOfRange(v, to)
	}
	return n, nil
}

// ToBool converts v to a bool. Numbers must be exactly 0 or 1.
func (v Variant) ToBool() (bool, error) {
	if v.kind == KindBool {
		return v.i != 0, nil
	}
	n, err := v.integral(KindBool, 0, 1)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (v Variant) ToInt8() (int8, error) {
	n, err := v.integral(KindInt8, math.MinInt8, math.MaxInt8)
	return int8(n), err
}

func (v Variant) ToUint8() (uint8, error) {
	n, err := v.integral(KindUint8, 0, math.MaxUint8)
	return uint8(n), err
}

func (v Variant) ToInt16() (int16, error) {
	n, err := v.integral(KindInt16, math.MinInt16, math.MaxInt16)
	return int16(n), err
}

func (v Variant) ToUint16() (uint16, error) {
	n, err := v.integral(KindUint16, 0, math.MaxUint16)
	return uint16(n), err
}

func (v Variant) ToInt32() (int32, error) {
	n, err := v.integral(KindInt32, math.MinInt32, math.MaxInt32)
	return int32(n), err
}

func (v Variant) ToUint32() (uint32, error) {
	n, err := v.integral(KindUint32, 0, math.MaxUint32)
	return uint32(n), err
}

// ToFloat32 converts v to a float32. Large 32-bit integers round to the
// nearest representable float.
func (v Variant) ToFloat32() (float32, error) {
	switch v.kind {
	case KindFloat:
		return v.f, nil
	case KindBool, KindInt8, KindUint8, KindInt16, KindUint16, KindInt32, KindUint32:
		return float32(v.i), nil
	default:
		return 0, badType(v.kind, KindFloat)
	}
}

// ToUTC returns the timestamp held by v. Only utc variants convert.
func (v Variant) ToUTC() (UTC, error) {
	if v.kind != KindUTC {
		return UTC{}, badType(v.kind, KindUTC)
	}
	return v.t, nil
}

// Coerce converts src to a Variant of kind to under the rules above.
func Coerce(src Variant, to Kind) (Variant, error) {
	switch to {
	case KindBool:
		b, err := src.ToBool()
		if err != nil {
			return Variant{}, err
		}
		return VariantBool(b), nil
	case KindInt8:
		n, err := src.ToInt8()
		if err != nil {
			return Variant{}, err
		}
		return VariantInt8(n), nil
	case KindUint8:
		n, err := src.ToUint8()
		if err != nil {
			return Variant{}, err
		}
		return VariantUint8(n), nil
	case KindInt16:
		n, err := src.ToInt16()
		if err != nil {
			return Variant{}, err
		}
		return VariantInt16(n), nil
	case KindUint16:
		n, err := src.ToUint16()
		if err != nil {
			return Variant{}, err
		}
		return VariantUint16(n), nil
	case KindInt32:
		n, err := src.ToInt32()
		if err != nil {
			return Variant{}, err
		}
		return VariantInt32(n), nil
	case KindUint32:
		n, err := src.ToUint32()
		if err != nil {
			return Variant{}, err
		}
		return VariantUint32(n), nil
	case KindFloat:
		f, err := src.ToFloat32()
		if err != nil {
			return Variant{}, err
		}
		return VariantFloat(f), nil
	case KindUTC:
		t, err := src.ToUTC()
		if err != nil {
			return Variant{}, err
		}
		return VariantUTC(t), nil
	default:
		// KindNone and undefined kinds.
		return Variant{}, badType(src.kind, to)
	}
}
