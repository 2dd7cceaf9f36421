package canbus

// Filter constructors. A nil FrameFilter matches every frame, so nil is a
// valid argument wherever a filter is accepted.

// ByID matches one identifier.
func ByID(id uint16) FrameFilter {
	return func(f Frame) bool { return f.ID == id }
}

// ByIDs matches any of ids. With no ids it matches nothing.
func ByIDs(ids ...uint16) FrameFilter {
	set := make(map[uint16]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return func(f Frame) bool {
		_, ok := set[f.ID]
		return ok
	}
}

// ByRange matches identifiers in [lo, hi]. Swapped bounds are tolerated.
func ByRange(lo, hi uint16) FrameFilter {
	if hi < lo {
		lo, hi = hi, lo
	}
	return func(f Frame) bool { return f.ID >= lo && f.ID <= hi }
}

// ByMask matches when the masked bits of the identifier equal those of id,
// the acceptance-filter form used by CAN controllers.
func ByMask(id, mask uint16) FrameFilter {
	want := id & mask
	return func(f Frame) bool { return f.ID&mask == want }
}

// ByLen matches data lengths in [lo, hi].
func ByLen(lo, hi uint8) FrameFilter {
	if hi < lo {
		lo, hi = hi, lo
	}
	return func(f Frame) bool { return f.Len >= lo && f.Len <= hi }
}

// ByPrefix matches frames whose payload starts with prefix. CanFly uses it
// to select on the type tag in byte 0.
func ByPrefix(prefix ...byte) FrameFilter {
	p := append([]byte(nil), prefix...)
	return func(f Frame) bool {
		if int(f.Len) < len(p) {
			return false
		}
		for i, b := range p {
			if f.Data[i] != b {
				return false
			}
		}
		return true
	}
}

// And matches when every non-nil filter matches.
func And(filters ...FrameFilter) FrameFilter {
	fs := compact(filters)
	switch len(fs) {
	case 0:
		return nil
	case 1:
		return fs[0]
	}
	return func(f Frame) bool {
		for _, fn := range fs {
			if !fn(f) {
				return false
			}
		}
		return true
	}
}

// Or matches when any filter matches. A nil argument matches everything and
// so makes the result nil.
func Or(filters ...FrameFilter) FrameFilter {
	for _, fn := range filters {
		if fn == nil {
			return nil
		}
	}
	if len(filters) == 1 {
		return filters[0]
	}
	fs := append([]FrameFilter(nil), filters...)
	return func(f Frame) bool {
		for _, fn := range fs {
			if fn(f) {
				return true
			}
		}
		return false
	}
}

// Not inverts a filter. Not(nil) matches nothing.
func Not(a FrameFilter) FrameFilter {
	if a == nil {
		return func(Frame) bool { return false }
	}
	return func(f Frame) bool { return !a(f) }
}

func compact(filters []FrameFilter) []FrameFilter {
	out := make([]FrameFilter, 0, len(filters))
	for _, fn := range filters {
		if fn != nil {
			out = append(out, fn)
		}
	}
	return out
}
