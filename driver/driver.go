// Package driver binds a kernel.Engine and eventapi.API to a Protocol and
// runs it for a caller-supplied number of event steps, one
// protocol-agnostic runner in place of one bespoke runner per protocol.
package driver

import (
	"errors"
	"fmt"

	"github.com/joeycumines/go-linksim/eventapi"
	"github.com/joeycumines/go-linksim/kernel"
	"github.com/joeycumines/go-linksim/wire"
)

// Protocol is the shape every state machine in package protocol
// implements: handle one popped event, given the epoch (a per-step
// counter) it fired in.
type Protocol interface {
	Step(api *eventapi.API, ev wire.Event, epoch int)
}

// Stats are the aggregate counters a completed run reports: TX/RX
// totals, efficiency (RX / DATA-TX), an approximate retransmission
// count, and goodput.
type Stats struct {
	TXTotal          int
	TXData           int
	TXAck            int
	RX               int
	Efficiency       float64
	Retransmissions  int
	Goodput          float64
}

// Driver runs a Protocol against an Engine for N steps and reports a
// Snapshot plus Stats.
type Driver struct {
	Engine   *kernel.Engine
	API      *eventapi.API
	Protocol Protocol
	log      kernel.Logger
}

// Option configures a Driver constructed by New.
type Option func(*Driver)

// WithLogger attaches a structured logger that receives one summary
// record when Run completes or ends early.
func WithLogger(log kernel.Logger) Option {
	return func(d *Driver) { d.log = log }
}

// New constructs a Driver over engine, wrapping it in an eventapi.API and
// binding proto as the state machine to run.
func New(engine *kernel.Engine, proto Protocol, opts ...Option) *Driver {
	d := &Driver{
		Engine:   engine,
		API:      eventapi.New(engine),
		Protocol: proto,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(d)
	}
	return d
}

// Run executes up to steps event-processing iterations, one per
// WaitForEvent call, each a distinct epoch. It stops early and returns an
// error wrapping kernel.ErrQueueIdle if the engine reports the queue idle
// with the network layer disabled: a terminal, not erroneous, run end.
func (d *Driver) Run(steps int) error {
	epoch := 0
	for ; epoch < steps; epoch++ {
		ev, err := d.API.WaitForEvent()
		if err != nil {
			if errors.Is(err, kernel.ErrQueueIdle) {
				d.logSummary(epoch, err)
				return fmt.Errorf("driver: run ended early at epoch %d: %w", epoch, err)
			}
			return err
		}
		d.Protocol.Step(d.API, ev, epoch)
	}
	d.logSummary(epoch, nil)
	return nil
}

func (d *Driver) logSummary(epochsRun int, endErr error) {
	if d.log == nil {
		return
	}
	stats := ComputeStats(d.Engine.Snapshot())
	b := d.log.Info().
		Int(`epochs_run`, epochsRun).
		Int(`tx_total`, stats.TXTotal).
		Int(`rx`, stats.RX).
		Float64(`efficiency`, stats.Efficiency)
	if endErr != nil {
		b = b.Err(endErr)
	}
	b.Log(`run complete`)
}

// Snapshot returns the underlying engine's snapshot.
func (d *Driver) Snapshot() kernel.Snapshot { return d.Engine.Snapshot() }

// ComputeStats derives Stats from a Snapshot, following
// run_selectiveRepeat.py's formulas: efficiency is RX over DATA-TX (0 if
// no DATA was ever sent), retransmissions approximates as DATA-TX minus
// RX, and goodput is RX divided by simulated time (0 at time zero).
func ComputeStats(snap kernel.Snapshot) Stats {
	var s Stats
	s.TXTotal = len(snap.TX)
	for _, tx := range snap.TX {
		switch tx.Frame.Kind {
		case wire.DATA:
			s.TXData++
		case wire.ACK:
			s.TXAck++
		}
	}
	s.RX = len(snap.RX)
	if s.TXData > 0 {
		s.Efficiency = float64(s.RX) / float64(s.TXData)
	}
	s.Retransmissions = s.TXData - s.RX
	if snap.Time > 0 {
		s.Goodput = float64(s.RX) / snap.Time
	}
	return s
}
