package kernel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-linksim/simconfig"
	"github.com/joeycumines/go-linksim/wire"
)

func perfectConfig(t *testing.T) simconfig.Config {
	t.Helper()
	cfg, err := simconfig.New(
		simconfig.WithDelay(0),
		simconfig.WithDataTimeout(250*time.Millisecond),
		simconfig.WithAckTimeout(80*time.Millisecond),
	)
	require.NoError(t, err)
	return cfg
}

func TestWaitForEventInjectsReadyWhenIdle(t *testing.T) {
	e := New(perfectConfig(t))
	ev, err := e.WaitForEvent()
	require.NoError(t, err)
	assert.Equal(t, wire.NetworkLayerReady, ev.Kind)
}

func TestWaitForEventIdleErrorWhenNetworkDisabled(t *testing.T) {
	e := New(perfectConfig(t))
	e.DisableNetworkLayer()
	_, err := e.WaitForEvent()
	require.ErrorIs(t, err, ErrQueueIdle)
}

func TestStaleTimerIsFiltered(t *testing.T) {
	e := New(perfectConfig(t))
	e.DisableNetworkLayer()

	e.StartTimer(3)
	require.NoError(t, e.StopTimer(3))

	// nothing else queued: queue is now empty, network disabled -> idle.
	_, err := e.WaitForEvent()
	require.ErrorIs(t, err, ErrQueueIdle)
}

func TestStaleTimerReplacedByRestart(t *testing.T) {
	e := New(perfectConfig(t))
	e.DisableNetworkLayer()

	e.StartTimer(3)
	e.StartTimer(3) // replaces the prior record; the first queue item is now stale

	ev, err := e.WaitForEvent()
	require.NoError(t, err)
	assert.Equal(t, wire.Timeout, ev.Kind)
	assert.Equal(t, 3, ev.SeqKey)

	// the stale duplicate must not be delivered a second time.
	_, err = e.WaitForEvent()
	require.ErrorIs(t, err, ErrQueueIdle)
}

func TestStopTimerUnknownKeyIsError(t *testing.T) {
	e := New(perfectConfig(t))
	err := e.StopTimer(99)
	require.ErrorIs(t, err, ErrUnknownTimerKey)
}

func TestFromNetworkLayerGeneratesUniqueLabels(t *testing.T) {
	e := New(perfectConfig(t))
	p1 := e.FromNetworkLayer()
	p2 := e.FromNetworkLayer()
	assert.Equal(t, "MSG_0", p1.Data)
	assert.Equal(t, "MSG_1", p2.Data)
}

func TestToPhysicalLayerPerfectChannelDelivers(t *testing.T) {
	e := New(perfectConfig(t))
	e.DisableNetworkLayer()

	e.ToPhysicalLayer(wire.Frame{Kind: wire.DATA, Seq: 0, Info: wire.Packet{Data: "A>MSG_0"}})

	ev, err := e.WaitForEvent()
	require.NoError(t, err)
	require.Equal(t, wire.FrameArrival, ev.Kind)
	assert.Equal(t, "A>MSG_0", ev.Frame.Info.Data)
}

func TestTimeMonotonicAcrossEvents(t *testing.T) {
	cfg, err := simconfig.New(simconfig.WithDelay(10 * time.Millisecond))
	require.NoError(t, err)
	e := New(cfg)
	e.DisableNetworkLayer()

	e.ToPhysicalLayer(wire.Frame{Kind: wire.DATA})
	e.ToPhysicalLayer(wire.Frame{Kind: wire.DATA})

	prev := -1.0
	for i := 0; i < 2; i++ {
		ev, err := e.WaitForEvent()
		require.NoError(t, err)
		require.Equal(t, wire.FrameArrival, ev.Kind)
		assert.GreaterOrEqual(t, e.Now(), prev)
		prev = e.Now()
	}
}

func TestSnapshotCapturesLogs(t *testing.T) {
	e := New(perfectConfig(t))
	e.DisableNetworkLayer()

	e.ToPhysicalLayer(wire.Frame{Kind: wire.DATA, Info: wire.Packet{Data: "A>MSG_0"}})
	ev, err := e.WaitForEvent()
	require.NoError(t, err)
	e.ToNetworkLayer(ev.Frame.Info)

	snap := e.Snapshot()
	require.Len(t, snap.TX, 1)
	require.Len(t, snap.RX, 1)
	assert.Equal(t, "A>MSG_0", snap.RX[0].Data)
}

func TestAckTimerStaleFiltering(t *testing.T) {
	e := New(perfectConfig(t))
	e.DisableNetworkLayer()

	e.StartAckTimer()
	require.NoError(t, e.StopAckTimer())

	_, err := e.WaitForEvent()
	require.ErrorIs(t, err, ErrQueueIdle)
}

func TestEnableNetworkLayerReadyOnEnable(t *testing.T) {
	cfg, err := simconfig.New(
		simconfig.WithReadyOnEnable(0),
	)
	require.NoError(t, err)
	e := New(cfg)
	e.DisableNetworkLayer()

	e.EnableNetworkLayer()
	ev, err := e.WaitForEvent()
	require.NoError(t, err)
	assert.Equal(t, wire.NetworkLayerReady, ev.Kind)
}
