package protocol

import (
	"fmt"

	"github.com/joeycumines/go-linksim/eventapi"
	"github.com/joeycumines/go-linksim/wire"
)

// abp is the alternating-bit-protocol state machine shared by
// Stop-and-Wait and PAR: unidirectional DATA A->B with a pure ACK B->A, a
// one-bit sequence space. The two exported types differ only in name and
// intended channel configuration (Stop-and-Wait expects a perfect
// channel; PAR explicitly tolerates loss and corruption) — the state
// machine itself, ported from Stop_and_wait.py's sender_sw/receiver_sw, is
// identical either way.
type abp struct {
	// sender side (role "A")
	nextToSend int
	waitingAck bool
	bufferPkt  *wire.Packet

	// receiver side (role "B")
	expected int
}

func newABP() *abp {
	return &abp{}
}

// Step handles one event, combining the sender and receiver roles in a
// single handler dispatching purely on event and frame kind, rather than
// stepping the two roles as separate alternating loops over the same
// engine.
func (p *abp) Step(api *eventapi.API, ev wire.Event, epoch int) {
	switch ev.Kind {
	case wire.NetworkLayerReady:
		if p.waitingAck {
			return
		}
		pkt := api.FromNetworkLayer()
		p.bufferPkt = &pkt
		frame := wire.Frame{Kind: wire.DATA, Seq: p.nextToSend, Ack: 0, Info: wire.Packet{Data: fmt.Sprintf("A>%s", pkt.Data)}}
		api.ToPhysicalLayer(frame)
		api.StartTimer(p.nextToSend)
		p.waitingAck = true
		api.DisableNetworkLayer()

	case wire.FrameArrival:
		f := api.FromPhysicalLayer(ev)
		switch f.Kind {
		case wire.ACK:
			if !p.waitingAck || f.Ack != p.nextToSend {
				return
			}
			api.StopTimer(p.nextToSend)
			p.nextToSend = inc(p.nextToSend, 1)
			p.bufferPkt = nil
			p.waitingAck = false
			api.EnableNetworkLayer()

		case wire.DATA:
			ackBit := 1 - p.expected
			if f.Seq == p.expected {
				api.ToNetworkLayer(f.Info)
				ackBit = p.expected
				p.expected = inc(p.expected, 1)
			}
			api.ToPhysicalLayer(wire.Frame{Kind: wire.ACK, Seq: 0, Ack: ackBit, Info: wire.Packet{Data: "ACK:B"}})
		}

	case wire.Timeout:
		if !p.waitingAck || p.bufferPkt == nil {
			return
		}
		frame := wire.Frame{Kind: wire.DATA, Seq: p.nextToSend, Ack: 0, Info: wire.Packet{Data: fmt.Sprintf("A>%s", p.bufferPkt.Data)}}
		api.ToPhysicalLayer(frame)
		api.StartTimer(p.nextToSend)
	}
}

// StopAndWait is the alternating-bit protocol configured for a
// loss-and-corruption-free reference channel. It still tolerates loss via
// its retransmission timer, same as the embedded state machine.
type StopAndWait struct{ abp }

// NewStopAndWait constructs a Stop-and-Wait state machine.
func NewStopAndWait() *StopAndWait { return &StopAndWait{abp: *newABP()} }

// Step handles one event.
func (p *StopAndWait) Step(api *eventapi.API, ev wire.Event, epoch int) { p.abp.Step(api, ev, epoch) }

// PAR (Positive Acknowledgement with Retransmission) is the same state
// machine as StopAndWait; the distinction is purely in the channel
// configuration it's meant to run against (PAR explicitly expects loss
// and corruption to be non-zero).
type PAR struct{ abp }

// NewPAR constructs a PAR state machine.
func NewPAR() *PAR { return &PAR{abp: *newABP()} }

// Step handles one event.
func (p *PAR) Step(api *eventapi.API, ev wire.Event, epoch int) { p.abp.Step(api, ev, epoch) }
