package simconfig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxSeq)
	assert.Equal(t, 4, cfg.NrBufs)
	assert.Equal(t, 500*time.Millisecond, cfg.DataTimeout)
	assert.Equal(t, 150*time.Millisecond, cfg.AckTimeout)
	assert.False(t, cfg.ReadyOnEnable)
}

func TestWithMaxSeqResetsNrBufs(t *testing.T) {
	cfg, err := New(WithMaxSeq(1))
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.MaxSeq)
	assert.Equal(t, 1, cfg.NrBufs)
}

func TestWithNrBufsOverridesAfterMaxSeq(t *testing.T) {
	cfg, err := New(WithMaxSeq(15), WithNrBufs(2))
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.MaxSeq)
	assert.Equal(t, 2, cfg.NrBufs)
}

func TestInvalidMaxSeq(t *testing.T) {
	_, err := New(WithMaxSeq(6))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidMaxSeq)
}

func TestProbabilityOutOfRange(t *testing.T) {
	_, err := New(WithLossProb(1.5))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProbabilityOutOfRange)

	_, err = New(WithCorruptProb(-0.1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProbabilityOutOfRange)
}

func TestNrBufsTooLarge(t *testing.T) {
	_, err := New(WithMaxSeq(7), WithNrBufs(5))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNrBufsTooLarge)
}

func TestWithReadyOnEnable(t *testing.T) {
	cfg, err := New(WithReadyOnEnable(5 * time.Millisecond))
	require.NoError(t, err)
	assert.True(t, cfg.ReadyOnEnable)
	assert.Equal(t, 5*time.Millisecond, cfg.ReadyDelay)
}
