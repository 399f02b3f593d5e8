// Package kernel implements the discrete-event scheduling core of the
// simulator: a single-threaded priority queue over simulated time, a
// physical layer that routes frames through a channel.Policy, timer
// arm/cancel with stale-fire filtering, and the fixed vocabulary of
// primitives (FromNetworkLayer, ToPhysicalLayer, WaitForEvent, ...) the
// protocol state machines are built against.
//
// There is exactly one logical thread of control: no goroutines, no
// locks, no real I/O. Two protocol peers sharing one Engine model a single
// physical link, each side's timers kept apart by an additive key offset
// the caller supplies (see protocol.OffsetA/OffsetB).
package kernel

import (
	"container/heap"
	"fmt"

	"github.com/joeycumines/go-linksim/channel"
	"github.com/joeycumines/go-linksim/simconfig"
	"github.com/joeycumines/go-linksim/wire"
)

// timerRecord is the (deadline, id) pair recorded for a live timer, used to
// detect whether a popped Timeout/AckTimeout item is still current.
type timerRecord struct {
	at float64
	id uint64
}

// Engine is the simulation kernel. The zero value is not usable; construct
// one with New.
type Engine struct {
	cfg  simconfig.Config
	link *channel.Policy
	log  Logger

	now       float64
	queue     itemHeap
	nextID    uint64
	netEnable bool
	msgSeq    int

	timers    map[int]timerRecord
	ackTimer  *timerRecord

	logTX []txEntry
	logRX []rxEntry
	logEv []evEntry
}

type txEntry struct {
	At    float64
	Frame wire.Frame
}

type rxEntry struct {
	At   float64
	Data string
}

type evEntry struct {
	At   float64
	Kind wire.EventKind
}

// Option configures an Engine constructed by New.
type Option func(*Engine)

// WithLogger attaches a structured logger. The default (no option, or a
// nil Logger) discards every event.
func WithLogger(log Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New constructs an Engine over cfg, with the network layer enabled and
// the clock at zero, matching Engine.__init__ in the reference
// implementation.
func New(cfg simconfig.Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:       cfg,
		link:     channel.New(cfg),
		netEnable: true,
		timers:    make(map[int]timerRecord),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(e)
	}
	return e
}

// Now returns the engine's current simulated time.
func (e *Engine) Now() float64 { return e.now }

// schedule enqueues an event to be delivered dt simulated-seconds from now
// (negative dt is treated as zero). It returns the absolute deadline and the
// id assigned to the queued item, together usable as a timer record.
func (e *Engine) schedule(dt float64, kind wire.EventKind, frame wire.Frame, seqKey int) (at float64, id uint64) {
	if dt < 0 {
		dt = 0
	}
	at = e.now + dt
	id = e.nextID
	e.nextID++
	heap.Push(&e.queue, scheduledItem{at: at, id: id, kind: kind, frame: frame, seqKey: seqKey})
	return at, id
}

// WaitForEvent pops and returns the next event due, advancing Now to its
// deadline. Stale Timeout/AckTimeout items (superseded by a later
// StartTimer/StartAckTimer, or already cancelled by Stop*) are silently
// discarded.
//
// If the queue is empty (including once stale items have been discarded)
// and the network layer is enabled, a NetworkLayerReady is injected at the
// current time. If the queue is empty and the network layer is disabled,
// ErrQueueIdle is returned: nothing remains that could ever produce another
// event.
func (e *Engine) WaitForEvent() (wire.Event, error) {
	for {
		if e.queue.Len() == 0 {
			if !e.netEnable {
				return wire.Event{}, ErrQueueIdle
			}
			e.schedule(0, wire.NetworkLayerReady, wire.Frame{}, 0)
		}
		item := heap.Pop(&e.queue).(scheduledItem)
		e.now = item.at

		switch item.kind {
		case wire.Timeout:
			rec, ok := e.timers[item.seqKey]
			if !ok || rec.at != item.at || rec.id != item.id {
				continue
			}
			delete(e.timers, item.seqKey)
		case wire.AckTimeout:
			if e.ackTimer == nil || e.ackTimer.at != item.at || e.ackTimer.id != item.id {
				continue
			}
			e.ackTimer = nil
		}

		ev := wire.Event{Kind: item.kind, Frame: item.frame, SeqKey: item.seqKey}
		e.logEv = append(e.logEv, evEntry{At: e.now, Kind: item.kind})
		logEvent(e.log, e.now, ev)
		return ev, nil
	}
}

// FromNetworkLayer returns the next synthetic application packet. Each
// call returns a fresh packet tagged "MSG_<i>" with i a run-local counter.
func (e *Engine) FromNetworkLayer() wire.Packet {
	p := wire.Packet{Data: fmt.Sprintf("MSG_%d", e.msgSeq)}
	e.msgSeq++
	return p
}

// ToNetworkLayer records a packet as delivered to the application layer.
func (e *Engine) ToNetworkLayer(p wire.Packet) {
	e.logRX = append(e.logRX, rxEntry{At: e.now, Data: p.Data})
}

// ToPhysicalLayer hands a frame to the channel. The frame is always logged
// as transmitted, even if the channel goes on to drop or corrupt it: the
// TX log records intent, not outcome.
func (e *Engine) ToPhysicalLayer(f wire.Frame) {
	e.logTX = append(e.logTX, txEntry{At: e.now, Frame: f})
	if e.link.WillDrop() {
		logDrop(e.log, e.now, f, false)
		return
	}
	if e.link.WillCorrupt() {
		logDrop(e.log, e.now, f, true)
		e.schedule(e.link.SampleDelay().Seconds(), wire.CksumErr, wire.Frame{}, 0)
		return
	}
	e.schedule(e.link.SampleDelay().Seconds(), wire.FrameArrival, f, 0)
}

// FromPhysicalLayer extracts the frame carried by a FrameArrival event. It
// exists as a named step, rather than reading ev.Frame directly, as the
// symmetric counterpart of ToPhysicalLayer.
func (e *Engine) FromPhysicalLayer(ev wire.Event) wire.Frame {
	return ev.Frame
}

// StartTimer arms a retransmission timer for key, due after cfg.DataTimeout.
// Arming a key that already has a live timer replaces it: the old record
// becomes stale and is discarded when it eventually fires.
func (e *Engine) StartTimer(key int) {
	at, id := e.schedule(e.cfg.DataTimeout.Seconds(), wire.Timeout, wire.Frame{}, key)
	e.timers[key] = timerRecord{at: at, id: id}
}

// StopTimer cancels the timer for key, if any. Returns ErrUnknownTimerKey
// if none is armed; callers that stop defensively should ignore it.
func (e *Engine) StopTimer(key int) error {
	if _, ok := e.timers[key]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTimerKey, key)
	}
	delete(e.timers, key)
	return nil
}

// StartAckTimer arms the single deferred-ACK timer, due after
// cfg.AckTimeout. There is only ever one: arming it again replaces any
// timer already running.
func (e *Engine) StartAckTimer() {
	at, id := e.schedule(e.cfg.AckTimeout.Seconds(), wire.AckTimeout, wire.Frame{}, 0)
	e.ackTimer = &timerRecord{at: at, id: id}
}

// StopAckTimer cancels the deferred-ACK timer. Returns ErrNoAckTimer if
// none is armed; callers that stop defensively should ignore it.
func (e *Engine) StopAckTimer() error {
	if e.ackTimer == nil {
		return ErrNoAckTimer
	}
	e.ackTimer = nil
	return nil
}

// EnableNetworkLayer marks the network layer ready to produce more
// packets. If cfg.ReadyOnEnable is set, it also schedules a
// NetworkLayerReady event after cfg.ReadyDelay — the "ACK-wake" policy of
// promptly waking the application once buffer space frees up, rather than
// waiting for the next idle-queue check.
func (e *Engine) EnableNetworkLayer() {
	e.netEnable = true
	if e.cfg.ReadyOnEnable {
		e.schedule(e.cfg.ReadyDelay.Seconds(), wire.NetworkLayerReady, wire.Frame{}, 0)
	}
}

// DisableNetworkLayer marks the network layer unable to produce more
// packets, e.g. because the send window is full.
func (e *Engine) DisableNetworkLayer() {
	e.netEnable = false
}

// NetworkLayerEnabled reports whether EnableNetworkLayer is currently in
// effect.
func (e *Engine) NetworkLayerEnabled() bool { return e.netEnable }

// Snapshot is a point-in-time capture of the engine's logs, returned by
// Snapshot().
type Snapshot struct {
	Time   float64
	Events []evEntry
	TX     []txEntry
	RX     []rxEntry
}

// Snapshot returns the current simulated time and copies of the
// transmit/receive/event logs accumulated so far.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Time:   e.now,
		Events: append([]evEntry(nil), e.logEv...),
		TX:     append([]txEntry(nil), e.logTX...),
		RX:     append([]rxEntry(nil), e.logRX...),
	}
}
