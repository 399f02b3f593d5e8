// Package channel models the lossy, corrupting, delay-jittered physical
// link between the two protocol peers. It owns its own PRNG instance: there
// is no package-level random source, so two Policy values seeded alike
// sample identical decisions regardless of what else is running.
package channel

import (
	"math/rand"
	"time"

	"github.com/joeycumines/go-linksim/simconfig"
)

// Policy samples the per-frame delay, drop, and corruption decisions for a
// single simulation run. It is not safe for concurrent use: the kernel
// drives it from its single logical thread of control.
type Policy struct {
	cfg simconfig.Config
	rng *rand.Rand
}

// New returns a Policy seeded from cfg.Seed. Two Policy values built from
// configs differing only in fields other than Seed still diverge, since
// every sample draws from the same underlying stream in call order.
func New(cfg simconfig.Config) *Policy {
	return &Policy{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// SampleDelay draws a link delay uniformly from
// [Delay-Jitter, Delay+Jitter), floored at zero. With Jitter of 0 this is
// deterministic and always equal to Delay.
func (p *Policy) SampleDelay() time.Duration {
	if p.cfg.Jitter <= 0 {
		return p.cfg.Delay
	}
	span := 2 * p.cfg.Jitter
	offset := time.Duration(p.rng.Int63n(int64(span))) - p.cfg.Jitter
	d := p.cfg.Delay + offset
	if d < 0 {
		return 0
	}
	return d
}

// WillDrop reports, per a Bernoulli(LossProb) draw, whether the frame
// currently in flight should be dropped before delivery.
func (p *Policy) WillDrop() bool {
	return p.cfg.LossProb > 0 && p.rng.Float64() < p.cfg.LossProb
}

// WillCorrupt reports, per a Bernoulli(CorruptProb) draw, whether a frame
// that survived WillDrop should instead arrive as a checksum error.
func (p *Policy) WillCorrupt() bool {
	return p.cfg.CorruptProb > 0 && p.rng.Float64() < p.cfg.CorruptProb
}
