package kernel

import (
	"container/heap"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joeycumines/go-linksim/wire"
)

func TestItemHeapOrdersByTimeThenID(t *testing.T) {
	h := &itemHeap{}
	heap.Init(h)
	heap.Push(h, scheduledItem{at: 5, id: 2, kind: wire.FrameArrival})
	heap.Push(h, scheduledItem{at: 5, id: 1, kind: wire.CksumErr})
	heap.Push(h, scheduledItem{at: 1, id: 3, kind: wire.Timeout})

	first := heap.Pop(h).(scheduledItem)
	assert.Equal(t, 1.0, first.at)

	second := heap.Pop(h).(scheduledItem)
	assert.Equal(t, 5.0, second.at)
	assert.Equal(t, uint64(1), second.id)

	third := heap.Pop(h).(scheduledItem)
	assert.Equal(t, uint64(2), third.id)
}
