package node

import (
	"github.com/notnil/canfly"
	"github.com/notnil/canfly/canbus"
)

const statusLen = 8

// StatusAny matches well-formed status frames from any node.
func StatusAny() canbus.FrameFilter {
	return canbus.And(
		canbus.ByRange(canfly.IDStatusNode0, canfly.IDStatusNode15),
		canbus.ByLen(statusLen, statusLen),
		canbus.ByPrefix(byte(canfly.TypeBinary)),
	)
}

// Status matches status frames from one node. The node byte in the payload
// must agree with the id.
func Status(node uint8) canbus.FrameFilter {
	id, err := canfly.StatusID(node)
	if err != nil {
		return canbus.Not(nil)
	}
	return canbus.And(
		canbus.ByID(id),
		canbus.ByLen(statusLen, statusLen),
		canbus.ByPrefix(byte(canfly.TypeBinary), node),
	)
}

// DataBand matches frames carrying published parameters.
func DataBand() canbus.FrameFilter {
	return canbus.ByRange(0, canfly.IDInternalFirst-1)
}

// BinaryBand matches opaque binary frames.
func BinaryBand() canbus.FrameFilter {
	return canbus.ByRange(canfly.IDBinaryFirst, canfly.MaxID)
}

// Params matches data-band frames with one of the given ids; with no ids it
// matches the whole data band.
func Params(ids ...uint16) canbus.FrameFilter {
	if len(ids) == 0 {
		return DataBand()
	}
	return canbus.And(DataBand(), canbus.ByIDs(ids...))
}

// OfType matches data-band frames tagged with t. TypeBool matches both
// boolean tags.
func OfType(t canfly.Type) canbus.FrameFilter {
	if t == canfly.TypeBool {
		return canbus.And(DataBand(), canbus.ByLen(1, 1), canbus.Or(
			canbus.ByPrefix(byte(canfly.TypeBoolTrue)),
			canbus.ByPrefix(byte(canfly.TypeBoolFalse)),
		))
	}
	n, ok := t.Len()
	if !ok {
		return canbus.Not(nil)
	}
	return canbus.And(DataBand(), canbus.ByLen(n, n), canbus.ByPrefix(byte(t)))
}
