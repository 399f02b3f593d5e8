// Package protocol implements the six reference data-link protocols
// (Utopia, Stop-and-Wait, PAR, 1-bit Sliding Window, Go-Back-N, Selective
// Repeat) over the eventapi.API vocabulary. Every protocol here is a pure
// state machine driven by the driver package, one event at a time; none of
// them hold a goroutine or touch wall-clock time.
package protocol

// OffsetA and OffsetB namespace per-side timer keys when two peers share a
// single kernel.Engine: a timer key of seq for side A and a timer key of
// seq for side B would otherwise collide in the engine's single timers
// map, since both sides independently count sequence numbers from zero.
const (
	OffsetA = 0
	OffsetB = 100
)

// inc advances a sequence number by one, wrapping modulo maxSeq+1.
func inc(x, maxSeq int) int {
	return (x + 1) % (maxSeq + 1)
}

// between reports whether b lies in the circular half-open arc [a, c):
// if a <= c, equivalent to a <= b < c; otherwise equivalent to b >= a or
// b < c (the arc wraps past the top of the sequence space).
func between(a, b, c int) bool {
	if a <= c {
		return a <= b && b < c
	}
	return b >= a || b < c
}

// lastInOrder returns the sequence number immediately preceding
// frameExpected, the cumulative-ack value a receiver piggybacks to
// acknowledge everything delivered so far.
func lastInOrder(frameExpected, maxSeq int) int {
	return (frameExpected + maxSeq) % (maxSeq + 1)
}

// epochGuard tracks, per sequence number, the epoch a frame was last sent
// in: callers invoked more than once against the same seq within a single
// event-processing pass (an epoch) must not re-transmit.
type epochGuard struct {
	sent map[int]int
}

func newEpochGuard() epochGuard {
	return epochGuard{sent: make(map[int]int)}
}

// shouldSkip reports whether seq was already sent during epoch.
func (g epochGuard) shouldSkip(seq, epoch int) bool {
	last, ok := g.sent[seq]
	return ok && last == epoch
}

// mark records that seq was sent during epoch.
func (g epochGuard) mark(seq, epoch int) {
	g.sent[seq] = epoch
}
