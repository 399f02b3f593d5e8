package kernel

import "errors"

// Sentinel errors returned by Engine methods. Wrap these with fmt.Errorf's
// %w verb when adding context; callers should compare with errors.Is.
var (
	// ErrQueueIdle is returned by WaitForEvent when the event queue is
	// empty and the network layer is disabled: no further event can ever
	// occur, since nothing is left to wake the simulation. A driver
	// normally treats this as the end of a run rather than a bug.
	ErrQueueIdle = errors.New("kernel: event queue idle with network layer disabled")
	// ErrUnknownTimerKey is returned by StopTimer when no timer is
	// currently armed for the given key. Callers that stop a timer
	// defensively (without knowing whether it's armed) should ignore
	// this error rather than treat it as fatal.
	ErrUnknownTimerKey = errors.New("kernel: no timer armed for key")
	// ErrNoAckTimer is returned by StopAckTimer when the deferred-ACK
	// timer isn't currently armed.
	ErrNoAckTimer = errors.New("kernel: no ack timer armed")
)
