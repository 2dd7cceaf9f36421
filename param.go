package canfly

import "fmt"

// Accessors decode a message and coerce the value to the requested type in
// one call. A nil message or output pointer fails with ErrBadParameter before
// any decoding; decode errors (ErrMalformed, ErrBadType for binary) and
// coercion errors are returned unchanged. On error *v is left untouched.

// GetVariant decodes m into *v.
func GetVariant(m *Message, v *Variant) error {
	if m == nil || v == nil {
		return ErrBadParameter
	}
	d, err := Decode(*m)
	if err != nil {
		return err
	}
	*v = d
	return nil
}

func GetBool(m *Message, v *bool) error {
	if m == nil || v == nil {
		return ErrBadParameter
	}
	return get(m, v, Variant.ToBool)
}

func GetInt8(m *Message, v *int8) error {
	if m == nil || v == nil {
		return ErrBadParameter
	}
	return get(m, v, Variant.ToInt8)
}

func GetUint8(m *Message, v *uint8) error {
	if m == nil || v == nil {
		return ErrBadParameter
	}
	return get(m, v, Variant.ToUint8)
}

func GetInt16(m *Message, v *int16) error {
	if m == nil || v == nil {
		return ErrBadParameter
	}
	return get(m, v, Variant.ToInt16)
}

func GetUint16(m *Message, v *uint16) error {
	if m == nil || v == nil {
		return ErrBadParameter
	}
	return get(m, v, Variant.ToUint16)
}

func GetInt32(m *Message, v *int32) error {
	if m == nil || v == nil {
		return ErrBadParameter
	}
	return get(m, v, Variant.ToInt32)
}

func GetUint32(m *Message, v *uint32) error {
	if m == nil || v == nil {
		return ErrBadParameter
	}
	return get(m, v, Variant.ToUint32)
}

func GetFloat32(m *Message, v *float32) error {
	if m == nil || v == nil {
		return ErrBadParameter
	}
	return get(m, v, Variant.ToFloat32)
}

// GetUTC reads a UTC message directly from its fixed layout. The length must
// be 8. Unlike a bare length check, an 8-byte message carrying any other tag
// (a status message, say) is rejected with ErrBadType rather than read as a
// date. Millisecond is always 0.
func GetUTC(m *Message, v *UTC) error {
	if m == nil || v == nil {
		return ErrBadParameter
	}
	if n := m.Len(); n != 8 {
		return fmt.Errorf("%w: utc message has length %d", ErrBadParameter, n)
	}
	if t := m.Type(); t != TypeUTC {
		return fmt.Errorf("%w: %s message is not utc", ErrBadType, t)
	}
	u := decodeUTC(m.Data[:])
	u.Millisecond = 0
	*v = u
	return nil
}

func get[T any](m *Message, v *T, conv func(Variant) (T, error)) error {
	d, err := Decode(*m)
	if err != nil {
		return err
	}
	x, err := conv(d)
	if err != nil {
		return err
	}
	*v = x
	return nil
}
