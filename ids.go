package canfly

import "fmt"

// Band is a region of the 11-bit identifier space with a fixed meaning.
type Band uint8

const (
	// BandData holds published parameters using the tagged encoding.
	BandData Band = iota
	// BandInternal is reserved for node-internal messages, node status
	// included.
	BandInternal
	// BandBinary carries opaque payloads such as pipe transfers.
	BandBinary
)

// Identifier bands and well-known ids.
const (
	IDInternalFirst = 1400
	IDBinaryFirst   = 1520

	// IDStatusNode0 is the status id of node 0; node n uses
	// IDStatusNode0 + n.
	IDStatusNode0  = 1472
	IDStatusNode15 = IDStatusNode0 + MaxStatusNode

	MaxStatusNode = 15
)

func (b Band) String() string {
	switch b {
	case BandData:
		return "data"
	case BandInternal:
		return "internal"
	case BandBinary:
		return "binary"
	}
	return fmt.Sprintf("Band(%d)", uint8(b))
}

// ClassifyID returns the band id falls in.
func ClassifyID(id uint16) (Band, error) {
	switch {
	case id > MaxID:
		return 0, fmt.Errorf("%w: invalid 11-bit id 0x%X", ErrBadParameter, id)
	case id >= IDBinaryFirst:
		return BandBinary, nil
	case id >= IDInternalFirst:
		return BandInternal, nil
	default:
		return BandData, nil
	}
}

// IsStatusID reports whether id is one of the node status ids.
func IsStatusID(id uint16) bool {
	return id >= IDStatusNode0 && id <= IDStatusNode15
}

// StatusID returns the status id used by node.
func StatusID(node uint8) (uint16, error) {
	if node > MaxStatusNode {
		return 0, fmt.Errorf("%w: node id %d (valid 0..%d)", ErrBadParameter, node, MaxStatusNode)
	}
	return IDStatusNode0 + uint16(node), nil
}
