package protocol

import (
	"github.com/joeycumines/go-linksim/eventapi"
	"github.com/joeycumines/go-linksim/wire"
)

// Utopia assumes a perfect, unidirectional channel: it sends whatever the
// network layer produces with no sequencing, no acknowledgement, and no
// timers. It is only meaningful against a loss- and corruption-free
// channel configuration.
type Utopia struct{}

// NewUtopia constructs a Utopia state machine. There is no per-run state
// to initialize.
func NewUtopia() *Utopia { return &Utopia{} }

// Step handles one event: on NETWORK_LAYER_READY it pulls a packet and
// emits it as DATA(seq=0, ack=0); on FRAME_ARRIVAL of DATA it delivers the
// payload unconditionally. Every other event is ignored.
func (u *Utopia) Step(api *eventapi.API, ev wire.Event, epoch int) {
	switch ev.Kind {
	case wire.NetworkLayerReady:
		p := api.FromNetworkLayer()
		api.ToPhysicalLayer(wire.Frame{Kind: wire.DATA, Seq: 0, Ack: 0, Info: p})
	case wire.FrameArrival:
		f := api.FromPhysicalLayer(ev)
		if f.Kind == wire.DATA {
			api.ToNetworkLayer(f.Info)
		}
	}
}
