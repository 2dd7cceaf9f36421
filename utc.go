package canfly

import (
	"cmp"
	"fmt"
	"time"
)

// UTC is a broken-down UTC timestamp.
//
// Millisecond exists in memory only. The wire format carries year through
// second, so a decoded UTC always has Millisecond == 0. This asymmetry is
// long-standing wire behaviour and is kept as is.
type UTC struct {
	Year        uint16
	Month       uint16
	Day         uint16
	Hour        uint16
	Minute      uint16
	Second      uint16
	Millisecond uint16
}

// UTCFromTime converts t, in UTC, to a UTC value.
func UTCFromTime(t time.Time) UTC {
	t = t.UTC()
	return UTC{
		Year:        uint16(t.Year()),
		Month:       uint16(t.Month()),
		Day:         uint16(t.Day()),
		Hour:        uint16(t.Hour()),
		Minute:      uint16(t.Minute()),
		Second:      uint16(t.Second()),
		Millisecond: uint16(t.Nanosecond() / int(time.Millisecond)),
	}
}

// Time returns u as a time.Time in the UTC location. Out-of-range fields are
// normalised the way time.Date does.
func (u UTC) Time() time.Time {
	return time.Date(int(u.Year), time.Month(u.Month), int(u.Day),
		int(u.Hour), int(u.Minute), int(u.Second),
		int(u.Millisecond)*int(time.Millisecond), time.UTC)
}

func (u UTC) String() string {
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02d.%03dZ",
		u.Year, u.Month, u.Day, u.Hour, u.Minute, u.Second, u.Millisecond)
}

func compareUTC(a, b UTC) int {
	if c := cmp.Compare(a.Year, b.Year); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Month, b.Month); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Day, b.Day); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Hour, b.Hour); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Minute, b.Minute); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Second, b.Second); c != 0 {
		return c
	}
	return cmp.Compare(a.Millisecond, b.Millisecond)
}
