package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-linksim/eventapi"
	"github.com/joeycumines/go-linksim/kernel"
	"github.com/joeycumines/go-linksim/simconfig"
	"github.com/joeycumines/go-linksim/wire"
)

func TestStopAndWaitOneRoundTrip(t *testing.T) {
	cfg, err := simconfig.New(
		simconfig.WithDelay(10*time.Millisecond),
		simconfig.WithDataTimeout(200*time.Millisecond),
		simconfig.WithMaxSeq(1),
	)
	require.NoError(t, err)
	eng := kernel.New(cfg)
	api := eventapi.New(eng)
	p := NewStopAndWait()

	for epoch := 0; epoch < 3; epoch++ {
		ev, err := api.WaitForEvent()
		require.NoError(t, err)
		p.Step(api, ev, epoch)
	}

	snap := eng.Snapshot()
	require.Len(t, snap.RX, 1)
	assert.Equal(t, "A>MSG_0", snap.RX[0].Data)
	assert.Equal(t, 1, p.nextToSend)
	assert.False(t, p.waitingAck)
}

func TestStopAndWaitRetransmitsOnTimeout(t *testing.T) {
	cfg, err := simconfig.New(
		simconfig.WithDelay(10*time.Millisecond),
		simconfig.WithDataTimeout(50*time.Millisecond),
		simconfig.WithLossProb(1), // every frame vanishes; only the timer ever fires
	)
	require.NoError(t, err)
	eng := kernel.New(cfg)
	api := eventapi.New(eng)
	p := NewStopAndWait()

	ev, err := api.WaitForEvent()
	require.NoError(t, err)
	p.Step(api, ev, 0)
	assert.True(t, p.waitingAck)

	// the DATA frame was dropped, so the next due event is the timer.
	ev, err = api.WaitForEvent()
	require.NoError(t, err)
	require.Equal(t, wire.Timeout, ev.Kind)
	p.Step(api, ev, 1)

	snap := eng.Snapshot()
	// two DATA frames transmitted: the original send and the retransmit.
	require.Len(t, snap.TX, 2)
}
