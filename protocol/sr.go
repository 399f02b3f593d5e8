package protocol

import (
	"fmt"

	"github.com/joeycumines/go-linksim/eventapi"
	"github.com/joeycumines/go-linksim/wire"
)

// srPeer is one side of a Selective Repeat peer: a send window identical
// in shape to windowPeer but with a timer armed per frame instead of only
// at the base, plus a receive ring that buffers out-of-order arrivals and
// delivers the in-order prefix as gaps fill. Ported from
// selectiveRepeat.py's SRPeerUni.
type srPeer struct {
	label  string
	offset int
	maxSeq int
	nrBufs int

	// TX
	nextToSend int
	outBuf     map[int]wire.Packet
	epochs     epochGuard

	// RX
	frameExpected int
	tooFar        int
	rx            *srRing

	// deferred pure-ACK bookkeeping
	ackDue        bool
	lastAckValue  int
	lastAckEpoch  int
	haveLastAck   bool
}

func newSRPeer(label string, offset, maxSeq int) *srPeer {
	nrBufs := (maxSeq + 1) / 2
	return &srPeer{
		label:   label,
		offset:  offset,
		maxSeq:  maxSeq,
		nrBufs:  nrBufs,
		outBuf:  make(map[int]wire.Packet),
		epochs:  newEpochGuard(),
		tooFar:  nrBufs,
		rx:      newSRRing(nrBufs),
	}
}

func (p *srPeer) hasSpace() bool { return len(p.outBuf) < p.nrBufs }

func (p *srPeer) lastInOrder() int { return lastInOrder(p.frameExpected, p.maxSeq) }

// sendData sends the next unsent sequence number with a cumulative
// piggyback ack, arming a per-frame timer. A successful piggyback means a
// deferred pure ACK is no longer owed.
func (p *srPeer) sendData(api *eventapi.API, epoch int) {
	s := p.nextToSend
	if p.epochs.shouldSkip(s, epoch) {
		return
	}
	pkt := api.FromNetworkLayer()
	labeled := wire.Packet{Data: fmt.Sprintf("%s>%s", p.label, pkt.Data)}
	p.outBuf[s] = labeled
	ackPB := p.lastInOrder()
	api.ToPhysicalLayer(wire.Frame{Kind: wire.DATA, Seq: s, Ack: ackPB, Info: labeled})
	p.epochs.mark(s, epoch)
	api.StartTimer(p.offset + s)
	p.nextToSend = inc(s, p.maxSeq)
	p.ackDue = false
}

// ackOne treats a as a cumulative ack over the current outstanding
// window [base, base+nrBufs): everything from base up to and including a
// is confirmed and its timer stopped; an ack outside the window is
// ignored.
func (p *srPeer) ackOne(api *eventapi.API, a int) {
	if len(p.outBuf) == 0 {
		return
	}
	m := p.maxSeq + 1
	base := ((p.nextToSend-len(p.outBuf))%m + m) % m
	tooFar := (base + p.nrBufs) % m
	if !between(base, a, tooFar) {
		return
	}
	stopAt := inc(a, p.maxSeq)
	for cur := base; cur != stopAt; cur = inc(cur, p.maxSeq) {
		if _, ok := p.outBuf[cur]; ok {
			api.StopTimer(p.offset + cur)
			delete(p.outBuf, cur)
		}
	}
}

// retransmitOne selectively retransmits seq if it's still outstanding.
func (p *srPeer) retransmitOne(api *eventapi.API, seq, epoch int) {
	pkt, ok := p.outBuf[seq]
	if !ok {
		return
	}
	if p.epochs.shouldSkip(seq, epoch) {
		return
	}
	ackPB := p.lastInOrder()
	api.ToPhysicalLayer(wire.Frame{Kind: wire.DATA, Seq: seq, Ack: ackPB, Info: pkt})
	p.epochs.mark(seq, epoch)
	api.StartTimer(p.offset + seq)
	p.ackDue = false
}

// acceptAndDeliver buffers an in-window arrival and delivers the
// contiguous in-order prefix, recording that a pure ACK is now owed
// unless a piggyback beats it to the wire.
func (p *srPeer) acceptAndDeliver(api *eventapi.API, seq int, info wire.Packet) {
	p.ackDue = true
	if !between(p.frameExpected, seq, p.tooFar) {
		return
	}
	if !p.rx.has(seq) {
		p.rx.put(seq, info)
	}
	for p.rx.has(p.frameExpected) {
		api.ToNetworkLayer(p.rx.take(p.frameExpected))
		p.frameExpected = inc(p.frameExpected, p.maxSeq)
		p.tooFar = inc(p.tooFar, p.maxSeq)
	}
}

// dueAckSuppressed reports whether emitting value as a pure ACK right now
// would duplicate the identical value already sent within this epoch.
func (p *srPeer) dueAckSuppressed(value, epoch int) bool {
	return p.haveLastAck && p.lastAckValue == value && p.lastAckEpoch == epoch
}

func (p *srPeer) markAckSent(value, epoch int) {
	p.lastAckValue = value
	p.lastAckEpoch = epoch
	p.haveLastAck = true
}

// srPair drives two srPeers sharing one engine, with the same fair
// 50/50 READY lottery and ack-timer ownership handoff as windowPair, plus
// SR's per-frame selective retransmission and suppressed-duplicate
// deferred ACK.
type srPair struct {
	a, b     *srPeer
	burstK   int
	ackOwner string
	coin     coinFlip
}

func newSRPair(maxSeq, burstK int, coin coinFlip) *srPair {
	return &srPair{
		a:      newSRPeer("A", OffsetA, maxSeq),
		b:      newSRPeer("B", OffsetB, maxSeq),
		burstK: burstK,
		coin:   coin,
	}
}

func (sp *srPair) burstSend(api *eventapi.API, peer *srPeer, epoch int) int {
	free := peer.nrBufs - len(peer.outBuf)
	if free <= 0 {
		return 0
	}
	budget := sp.burstK
	if free < budget {
		budget = free
	}
	sent := 0
	for i := 0; i < budget; i++ {
		peer.sendData(api, epoch)
		sent++
		if sp.ackOwner == peer.label {
			api.StopAckTimer()
			sp.ackOwner = ""
		}
	}
	return sent
}

func (sp *srPair) step(api *eventapi.API, ev wire.Event, epoch int) {
	switch ev.Kind {
	case wire.NetworkLayerReady:
		sent := 0
		if sp.coin() {
			if sp.a.hasSpace() {
				sent += sp.burstSend(api, sp.a, epoch)
			}
		} else {
			if sp.b.hasSpace() {
				sent += sp.burstSend(api, sp.b, epoch)
			}
		}
		switch {
		case sent == 0 && !sp.a.hasSpace() && !sp.b.hasSpace():
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
				sp.b.acceptAndDeliver(api, f.Seq, f.Info)
				sp.b.ackOne(api, f.Ack)
				sp.armDeferredAck(api, "B")
			case len(f.Info.Data) >= 2 && f.Info.Data[:2] == "B>":
				sp.a.acceptAndDeliver(api, f.Seq, f.Info)
				sp.a.ackOne(api, f.Ack)
				sp.armDeferredAck(api, "A")
			}
			if sp.a.hasSpace() || sp.b.hasSpace() {
				api.EnableNetworkLayer()
			}

		case wire.ACK:
			switch f.Info.Data {
			case "ACK:A":
				sp.b.ackOne(api, f.Ack)
			case "ACK:B":
				sp.a.ackOne(api, f.Ack)
			}
			if sp.a.hasSpace() || sp.b.hasSpace() {
				api.EnableNetworkLayer()
			}
		}

	case wire.AckTimeout:
		sp.flushDeferredAck(api, epoch)

	case wire.Timeout:
		key := ev.SeqKey
		if key >= OffsetB {
			sp.b.retransmitOne(api, key-OffsetB, epoch)
		} else {
			sp.a.retransmitOne(api, key-OffsetA, epoch)
		}
		api.EnableNetworkLayer()
	}
}

// armDeferredAck (re)starts the ack timer and assigns its ownership to
// owner, since owner just accepted data and may owe a pure ACK if it
// never gets a piggyback opportunity first.
func (sp *srPair) armDeferredAck(api *eventapi.API, owner string) {
	api.StopAckTimer()
	api.StartAckTimer()
	sp.ackOwner = owner
}

// flushDeferredAck emits a pure cumulative ACK for whichever peer owns
// the deferred timer, if one is still due and wouldn't duplicate the
// last pure ACK sent this epoch.
func (sp *srPair) flushDeferredAck(api *eventapi.API, epoch int) {
	var peer *srPeer
	var tag string
	switch sp.ackOwner {
	case "A":
		peer, tag = sp.a, "ACK:A"
	case "B":
		peer, tag = sp.b, "ACK:B"
	default:
		return
	}
	sp.ackOwner = ""
	if !peer.ackDue {
		return
	}
	value := peer.lastInOrder()
	if peer.dueAckSuppressed(value, epoch) {
		return
	}
	api.ToPhysicalLayer(wire.Frame{Kind: wire.ACK, Seq: 0, Ack: value, Info: wire.Packet{Data: tag}})
	peer.markAckSent(value, epoch)
	peer.ackDue = false
}

// SelectiveRepeat is the bidirectional Selective Repeat protocol: window
// equal to nr_bufs = (max_seq+1)/2, selective per-frame retransmission,
// and out-of-order buffering within the window.
type SelectiveRepeat struct{ *srPair }

// NewSelectiveRepeat constructs a SelectiveRepeat state machine. burstK
// bounds frames sent per NETWORK_LAYER_READY win, defaulting to nr_bufs
// when 0.
func NewSelectiveRepeat(maxSeq, burstK int, coin coinFlip) *SelectiveRepeat {
	nrBufs := (maxSeq + 1) / 2
	if burstK <= 0 {
		burstK = nrBufs
	}
	return &SelectiveRepeat{srPair: newSRPair(maxSeq, burstK, coin)}
}

// Step handles one event.
func (s *SelectiveRepeat) Step(api *eventapi.API, ev wire.Event, epoch int) {
	s.srPair.step(api, ev, epoch)
}
