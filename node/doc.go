// Package node provides the bus-facing helpers a CanFly node needs on top of
// the canfly codec and the canbus transport:
//   - filters for the CanFly identifier bands and status window
//   - status subscription and a periodic status publisher
//   - parameter publish and subscribe
package node
