package kernel

import "github.com/joeycumines/go-linksim/wire"

// scheduledItem is one entry in the engine's event queue: a simulated
// deadline, a monotonic tie-breaking id (so heap.Interface's Less is a
// strict order even between two items scheduled for the same instant,
// matching heapq's tuple-comparison behavior in the Python original), the
// event it will deliver, and the timer key it's associated with (only
// meaningful for Timeout/AckTimeout, used to detect staleness at pop time).
type scheduledItem struct {
	at      float64
	id      uint64
	kind    wire.EventKind
	frame   wire.Frame
	seqKey  int
}

// itemHeap is a min-heap over scheduledItem ordered by (at, id), the same
// shape as eventloop's timerHeap but keyed on simulated time rather than
// wall-clock time.
type itemHeap []scheduledItem

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].id < h[j].id
}

func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap) Push(x any) {
	*h = append(*h, x.(scheduledItem))
}

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
