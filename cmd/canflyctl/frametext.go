package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/notnil/canfly/canbus"
)

// formatFrame renders f in the can-utils cansend notation, e.g. "140#05002A".
func formatFrame(f canbus.Frame) string {
	return fmt.Sprintf("%03X#%s", f.ID, strings.ToUpper(hex.EncodeToString(f.Payload())))
}

// parseFrame reads the cansend notation. The id is hexadecimal, data bytes may
// be separated by dots.
func parseFrame(s string) (canbus.Frame, error) {
	idPart, dataPart, ok := strings.Cut(strings.TrimSpace(s), "#")
	if !ok {
		return canbus.Frame{}, fmt.Errorf("frame %q: missing '#'", s)
	}
	id, err := strconv.ParseUint(idPart, 16, 16)
	if err != nil {
		return canbus.Frame{}, fmt.Errorf("frame %q: bad id: %w", s, err)
	}
	data, err := hex.DecodeString(strings.ReplaceAll(dataPart, ".", ""))
	if err != nil {
		return canbus.Frame{}, fmt.Errorf("frame %q: bad data: %w", s, err)
	}
	if len(data) > canbus.MaxLen {
		return canbus.Frame{}, fmt.Errorf("frame %q: %w", s, canbus.ErrInvalidLen)
	}
	f := canbus.Frame{ID: uint16(id), Len: uint8(len(data))}
	copy(f.Data[:], data)
	if err := f.Validate(); err != nil {
		return canbus.Frame{}, fmt.Errorf("frame %q: %w", s, err)
	}
	return f, nil
}
