// Package simconfig holds the immutable, per-run configuration shared by
// the channel, kernel, and protocol family: link timing, loss/corruption
// probabilities, timer durations, and the sequence-number space size.
package simconfig

import (
	"errors"
	"fmt"
	"time"
)

// Errors returned by New when a Config would be inconsistent.
var (
	// ErrInvalidMaxSeq is returned when MaxSeq isn't of the form 2^n-1
	// (1, 3, 7, 15, ...), the only values that divide evenly into the
	// nr_bufs Selective Repeat needs.
	ErrInvalidMaxSeq = errors.New("simconfig: max_seq must be 1, 3, 7, 15, ... (2^n-1)")
	// ErrProbabilityOutOfRange is returned when a loss or corruption
	// probability falls outside [0, 1].
	ErrProbabilityOutOfRange = errors.New("simconfig: probability must be in [0, 1]")
	// ErrNrBufsTooLarge is returned when an explicitly supplied NrBufs
	// exceeds the Selective Repeat receiver-window bound of
	// (max_seq+1)/2. Going over this bound lets the sender's and
	// receiver's windows overlap, which silently corrupts delivery
	// ordering, so construction fails loudly instead.
	ErrNrBufsTooLarge = errors.New("simconfig: nr_bufs exceeds (max_seq+1)/2")
)

// Config is immutable for the lifetime of a run. Construct it with New,
// which applies defaults and validates the result; the zero Config is not
// generally usable (MaxSeq of 0 fails validation).
type Config struct {
	// Delay is the mean simulated link delay, in seconds.
	Delay time.Duration
	// Jitter is the half-width of the uniform delay distribution around
	// Delay. A jitter of 0 makes SampleDelay deterministic.
	Jitter time.Duration
	// LossProb is the Bernoulli probability a frame is dropped in
	// transit. Must be in [0, 1]. Defaults to 0.
	LossProb float64
	// CorruptProb is the Bernoulli probability a frame that wasn't
	// dropped arrives corrupted (surfaced as CksumErr instead of
	// FrameArrival). Must be in [0, 1]. Defaults to 0.
	CorruptProb float64
	// DataTimeout is the retransmission timer duration armed by
	// StartTimer. Defaults to 500ms of simulated time.
	DataTimeout time.Duration
	// AckTimeout is the deferred-piggyback-ACK timer duration armed by
	// StartAckTimer. Defaults to 150ms of simulated time.
	AckTimeout time.Duration
	// MaxSeq is the top of the sequence-number space (space size is
	// MaxSeq+1). Must be 1, 3, 7, 15, .... Defaults to 7.
	MaxSeq int
	// NrBufs is the Selective Repeat receiver buffer count. Defaults to
	// (MaxSeq+1)/2, the maximum safe value; it is rarely useful to set
	// this explicitly smaller, but doing so is permitted.
	NrBufs int
	// ReadyOnEnable, when set, makes EnableNetworkLayer additionally
	// schedule a NetworkLayerReady event after ReadyDelay: the
	// "ACK-wake" policy of waking the application shortly after buffer
	// space frees up, rather than only on the next idle-queue check.
	ReadyOnEnable bool
	// ReadyDelay is the delay used by the ReadyOnEnable policy. Defaults
	// to 5ms of simulated time.
	ReadyDelay time.Duration
	// Seed initializes the channel's PRNG. Runs with the same Seed and
	// Config sample identical delay/loss/corruption decisions.
	Seed int64
}

// Option configures a Config constructed by New, following the
// functional-options idiom.
type Option func(*Config)

// WithDelay sets the mean link delay.
func WithDelay(d time.Duration) Option { return func(c *Config) { c.Delay = d } }

// WithJitter sets the delay jitter half-width.
func WithJitter(d time.Duration) Option { return func(c *Config) { c.Jitter = d } }

// WithLossProb sets the per-frame drop probability.
func WithLossProb(p float64) Option { return func(c *Config) { c.LossProb = p } }

// WithCorruptProb sets the per-frame corruption probability.
func WithCorruptProb(p float64) Option { return func(c *Config) { c.CorruptProb = p } }

// WithDataTimeout sets the retransmission timer duration.
func WithDataTimeout(d time.Duration) Option { return func(c *Config) { c.DataTimeout = d } }

// WithAckTimeout sets the deferred-ACK timer duration.
func WithAckTimeout(d time.Duration) Option { return func(c *Config) { c.AckTimeout = d } }

// WithMaxSeq sets the sequence-number space bound and resets NrBufs to the
// matching default, unless WithNrBufs is applied after this option.
func WithMaxSeq(maxSeq int) Option {
	return func(c *Config) {
		c.MaxSeq = maxSeq
		c.NrBufs = (maxSeq + 1) / 2
	}
}

// WithNrBufs overrides the Selective Repeat receiver buffer count. Apply
// after WithMaxSeq if both are used.
func WithNrBufs(n int) Option { return func(c *Config) { c.NrBufs = n } }

// WithReadyOnEnable enables the ACK-wake policy and sets its delay.
func WithReadyOnEnable(delay time.Duration) Option {
	return func(c *Config) {
		c.ReadyOnEnable = true
		c.ReadyDelay = delay
	}
}

// WithSeed sets the channel PRNG seed.
func WithSeed(seed int64) Option { return func(c *Config) { c.Seed = seed } }

// New builds a Config from the given options over the documented defaults,
// then validates it. The returned error, if non-nil, wraps one of the
// sentinel Err* values above.
func New(opts ...Option) (Config, error) {
	c := Config{
		DataTimeout: 500 * time.Millisecond,
		AckTimeout:  150 * time.Millisecond,
		MaxSeq:      7,
		NrBufs:      4,
		ReadyDelay:  5 * time.Millisecond,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&c)
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	if c.MaxSeq < 1 || (c.MaxSeq+1)&c.MaxSeq != 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxSeq, c.MaxSeq)
	}
	if c.LossProb < 0 || c.LossProb > 1 {
		return fmt.Errorf("%w: loss_prob=%v", ErrProbabilityOutOfRange, c.LossProb)
	}
	if c.CorruptProb < 0 || c.CorruptProb > 1 {
		return fmt.Errorf("%w: corrupt_prob=%v", ErrProbabilityOutOfRange, c.CorruptProb)
	}
	if max := (c.MaxSeq + 1) / 2; c.NrBufs > max {
		return fmt.Errorf("%w: nr_bufs=%d > %d", ErrNrBufsTooLarge, c.NrBufs, max)
	}
	return nil
}
