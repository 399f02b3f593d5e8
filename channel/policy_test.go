package channel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-linksim/simconfig"
)

func TestSampleDelayNoJitter(t *testing.T) {
	cfg, err := simconfig.New(simconfig.WithDelay(20 * time.Millisecond))
	require.NoError(t, err)
	p := New(cfg)
	for i := 0; i < 10; i++ {
		assert.Equal(t, 20*time.Millisecond, p.SampleDelay())
	}
}

func TestSampleDelayWithJitterIsBounded(t *testing.T) {
	cfg, err := simconfig.New(
		simconfig.WithDelay(20*time.Millisecond),
		simconfig.WithJitter(10*time.Millisecond),
		simconfig.WithSeed(1),
	)
	require.NoError(t, err)
	p := New(cfg)
	for i := 0; i < 1000; i++ {
		d := p.SampleDelay()
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.LessOrEqual(t, d, 30*time.Millisecond)
	}
}

func TestDeterministicGivenSameSeed(t *testing.T) {
	cfg, err := simconfig.New(
		simconfig.WithLossProb(0.5),
		simconfig.WithCorruptProb(0.3),
		simconfig.WithJitter(5*time.Millisecond),
		simconfig.WithSeed(42),
	)
	require.NoError(t, err)

	p1 := New(cfg)
	p2 := New(cfg)

	for i := 0; i < 100; i++ {
		assert.Equal(t, p1.SampleDelay(), p2.SampleDelay())
		assert.Equal(t, p1.WillDrop(), p2.WillDrop())
		assert.Equal(t, p1.WillCorrupt(), p2.WillCorrupt())
	}
}

func TestZeroProbabilityNeverTriggers(t *testing.T) {
	cfg, err := simconfig.New(simconfig.WithSeed(7))
	require.NoError(t, err)
	p := New(cfg)
	for i := 0; i < 200; i++ {
		assert.False(t, p.WillDrop())
		assert.False(t, p.WillCorrupt())
	}
}
