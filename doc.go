// Package canfly implements the CanFly message codec carried over classical
// CAN frames.
//
// A Message is a 16-bit flags word (length, binary marker, 11-bit identifier)
// plus 8 payload bytes. Tagged messages start with a type byte followed by a
// big-endian value; binary messages are opaque and owned by the caller.
//
// It includes:
//   - Message construction for every CanFly type (NewUint16, NewFloat32, ...)
//   - Decoding into a Variant, a closed tagged value type
//   - Validated coercion between Variant kinds (ToInt8, Coerce, ...)
//   - Accessors that decode and coerce in one call (GetInt16, GetUTC, ...)
//   - Node status messages and the CanFly identifier bands
//
// Transport lives in the canbus subpackage; Message implements
// MarshalCANFrame/UnmarshalCANFrame to bridge the two.
package canfly
