package protocol

import (
	"fmt"

	"github.com/joeycumines/go-linksim/eventapi"
	"github.com/joeycumines/go-linksim/wire"
)

// windowPeer is one side ("A" or "B") of a Go-Back-N-style bidirectional
// peer: cumulative acknowledgement, a single timer armed only at the
// window base, and in-order-only delivery. 1-bit Sliding Window is the
// same state machine with window and maxSeq both fixed at 1, so both
// GoBackN and OneBitSlidingWindow are built on this type.
type windowPeer struct {
	label  string
	offset int
	maxSeq int
	window int

	ackExpected int
	nextToSend  int
	nbuffered   int
	outBuf      map[int]wire.Packet
	epochs      epochGuard

	frameExpected int
}

func newWindowPeer(label string, offset, maxSeq, window int) *windowPeer {
	return &windowPeer{
		label:  label,
		offset: offset,
		maxSeq: maxSeq,
		window: window,
		outBuf: make(map[int]wire.Packet),
		epochs: newEpochGuard(),
	}
}

func (p *windowPeer) hasSpace() bool { return p.nbuffered < p.window }

func (p *windowPeer) lastInOrder() int { return lastInOrder(p.frameExpected, p.maxSeq) }

// pushNew pulls one packet from the network layer, buffers it under the
// next sequence number, and sends it.
func (p *windowPeer) pushNew(api *eventapi.API, epoch int) {
	pkt := api.FromNetworkLayer()
	s := p.nextToSend
	p.outBuf[s] = wire.Packet{Data: fmt.Sprintf("%s>%s", p.label, pkt.Data)}
	p.nbuffered++
	p.sendData(api, s, epoch)
	p.nextToSend = inc(s, p.maxSeq)
}

// sendData emits DATA(seq) with a cumulative piggyback ack, unless it was
// already sent this epoch. Only the window base's timer is armed: GBN
// retransmits the whole outstanding run on a single base timeout rather
// than tracking one timer per frame.
func (p *windowPeer) sendData(api *eventapi.API, seq, epoch int) {
	if p.epochs.shouldSkip(seq, epoch) {
		return
	}
	ackPB := p.lastInOrder()
	api.ToPhysicalLayer(wire.Frame{Kind: wire.DATA, Seq: seq, Ack: ackPB, Info: p.outBuf[seq]})
	p.epochs.mark(seq, epoch)
	if seq == p.ackExpected {
		api.StartTimer(p.offset + seq)
	}
}

// consumeAck advances ackExpected past every outstanding frame covered by
// the cumulative ack value ack, stopping the base timer as it goes and
// restarting it for the new base if frames remain outstanding.
func (p *windowPeer) consumeAck(api *eventapi.API, ack int) {
	advanced := false
	for p.nbuffered > 0 && between(p.ackExpected, ack, p.nextToSend) {
		old := p.ackExpected
		api.StopTimer(p.offset + old)
		delete(p.outBuf, old)
		p.nbuffered--
		p.ackExpected = inc(p.ackExpected, p.maxSeq)
		advanced = true
	}
	if advanced && p.nbuffered > 0 {
		api.StartTimer(p.offset + p.ackExpected)
	}
}

// onTimeout re-emits every outstanding frame starting from ackExpected;
// only ackExpected's timer was ever armed, so any TIMEOUT for this peer's
// namespace implies the base fired.
func (p *windowPeer) onTimeout(api *eventapi.API, epoch int) {
	if p.nbuffered == 0 {
		return
	}
	s := p.ackExpected
	for i := 0; i < p.nbuffered; i++ {
		p.sendData(api, s, epoch)
		s = inc(s, p.maxSeq)
	}
}

// rxHandleData delivers r_seq in order; out-of-order frames are silently
// discarded (GBN never buffers ahead of frameExpected).
func (p *windowPeer) rxHandleData(api *eventapi.API, seq int, info wire.Packet) {
	if seq == p.frameExpected {
		api.ToNetworkLayer(info)
		p.frameExpected = inc(p.frameExpected, p.maxSeq)
	}
}

// windowPair drives two windowPeers (A and B) sharing one engine, the
// fair 50/50 READY lottery, and the single deferred-ACK timer ownership
// handoff. This is the shape common to Go-Back-N and 1-bit Sliding
// Window; GoBackN and OneBitSlidingWindow each just fix window/maxSeq and
// a burst size differently at construction.
type windowPair struct {
	a, b     *windowPeer
	burstK   int
	ackOwner string // "", "A", or "B"
	coin     coinFlip
}

// coinFlip abstracts the fair-scheduler draw so tests can supply a
// deterministic sequence instead of consuming the channel's PRNG, which
// is reserved for link sampling.
type coinFlip func() bool

func newWindowPair(maxSeq, window, burstK int, coin coinFlip) *windowPair {
	return &windowPair{
		a:      newWindowPeer("A", OffsetA, maxSeq, window),
		b:      newWindowPeer("B", OffsetB, maxSeq, window),
		burstK: burstK,
		coin:   coin,
	}
}

func (wp *windowPair) burstSend(api *eventapi.API, peer *windowPeer, epoch int) int {
	free := peer.window - peer.nbuffered
	if free <= 0 {
		return 0
	}
	budget := wp.burstK
	if free < budget {
		budget = free
	}
	sent := 0
	for i := 0; i < budget; i++ {
		peer.pushNew(api, epoch)
		sent++
		if wp.ackOwner == peer.label {
			api.StopAckTimer()
			wp.ackOwner = ""
		}
	}
	return sent
}

// step handles one event as run_gbn_bidirectional does, except that
// ACK_TIMEOUT handling leaves the network layer as it is instead of
// re-enabling it.
func (wp *windowPair) step(api *eventapi.API, ev wire.Event, epoch int) {
	switch ev.Kind {
	case wire.NetworkLayerReady:
		sent := 0
		if wp.coin() {
			if wp.a.hasSpace() {
				sent += wp.burstSend(api, wp.a, epoch)
			}
		} else {
			if wp.b.hasSpace() {
				sent += wp.burstSend(api, wp.b, epoch)
			}
		}
		switch {
		case sent == 0 && !wp.a.hasSpace() && !wp.b.hasSpace():
			api.DisableNetworkLayer()
		default:
			api.EnableNetworkLayer()
		}

	case wire.FrameArrival:
		f := api.FromPhysicalLayer(ev)
		switch f.Kind {
		case wire.DATA:
			switch {
			case len(f.Info.Data) >= 2 && f.Info.Data[:2] == "A>":
				wp.b.rxHandleData(api, f.Seq, f.Info)
				wp.b.consumeAck(api, f.Ack)
				api.StopAckTimer()
				api.StartAckTimer()
				wp.ackOwner = "B"
			case len(f.Info.Data) >= 2 && f.Info.Data[:2] == "B>":
				wp.a.rxHandleData(api, f.Seq, f.Info)
				wp.a.consumeAck(api, f.Ack)
				api.StopAckTimer()
				api.StartAckTimer()
				wp.ackOwner = "A"
			}
			if wp.a.hasSpace() || wp.b.hasSpace() {
				api.EnableNetworkLayer()
			}

		case wire.ACK:
			switch f.Info.Data {
			case "ACK:A":
				wp.b.consumeAck(api, f.Ack)
			case "ACK:B":
				wp.a.consumeAck(api, f.Ack)
			}
			if wp.a.hasSpace() || wp.b.hasSpace() {
				api.EnableNetworkLayer()
			}
		}

	case wire.AckTimeout:
		switch wp.ackOwner {
		case "A":
			api.ToPhysicalLayer(wire.Frame{Kind: wire.ACK, Seq: 0, Ack: wp.a.lastInOrder(), Info: wire.Packet{Data: "ACK:A"}})
			wp.ackOwner = ""
		case "B":
			api.ToPhysicalLayer(wire.Frame{Kind: wire.ACK, Seq: 0, Ack: wp.b.lastInOrder(), Info: wire.Packet{Data: "ACK:B"}})
			wp.ackOwner = ""
		}

	case wire.Timeout:
		key := ev.SeqKey
		if key >= OffsetB {
			wp.b.onTimeout(api, epoch)
			if wp.ackOwner == "B" {
				api.StopAckTimer()
				wp.ackOwner = ""
			}
		} else {
			wp.a.onTimeout(api, epoch)
			if wp.ackOwner == "A" {
				api.StopAckTimer()
				wp.ackOwner = ""
			}
		}
		api.EnableNetworkLayer()
	}
}

// GoBackN is the bidirectional Go-Back-N protocol: window equal to
// maxSeq, cumulative acknowledgement, in-order-only delivery.
type GoBackN struct{ *windowPair }

// NewGoBackN constructs a GoBackN state machine. burstK bounds how many
// frames one side may send per NETWORK_LAYER_READY win; it defaults to
// the window size (maxSeq) when 0. coin supplies the fair 50/50 sender
// lottery (pass a *rand.Rand-backed closure in production, a fixed
// sequence in tests).
func NewGoBackN(maxSeq, burstK int, coin coinFlip) *GoBackN {
	if burstK <= 0 {
		burstK = maxSeq
	}
	return &GoBackN{windowPair: newWindowPair(maxSeq, maxSeq, burstK, coin)}
}

// Step handles one event.
func (g *GoBackN) Step(api *eventapi.API, ev wire.Event, epoch int) { g.windowPair.step(api, ev, epoch) }

// OneBitSlidingWindow is the full-duplex window=1 special case of
// GoBackN: both peers are simultaneously sender and receiver over a
// one-bit sequence space.
type OneBitSlidingWindow struct{ *windowPair }

// NewOneBitSlidingWindow constructs a 1-bit Sliding Window state machine.
func NewOneBitSlidingWindow(coin coinFlip) *OneBitSlidingWindow {
	return &OneBitSlidingWindow{windowPair: newWindowPair(1, 1, 1, coin)}
}

// Step handles one event.
func (w *OneBitSlidingWindow) Step(api *eventapi.API, ev wire.Event, epoch int) {
	w.windowPair.step(api, ev, epoch)
}
