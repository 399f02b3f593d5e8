// Package eventapi exposes the fixed vocabulary of primitives the protocol
// state machines are written against, as methods on an explicit handle
// rather than free functions bound to a process-wide global. The reference
// implementation's Events/api.py binds a module-level _env and forwards
// through package functions; we pass the handle to each protocol
// constructor instead, so multiple simulation runs never share state by
// accident.
package eventapi

import (
	"github.com/joeycumines/go-linksim/kernel"
	"github.com/joeycumines/go-linksim/wire"
)

// API is a thin façade over *kernel.Engine. Every protocol state machine
// takes one of these rather than an *kernel.Engine directly, so the
// vocabulary available to protocol code is exactly the fixed set below.
type API struct {
	engine *kernel.Engine
}

// New wraps engine in an API handle.
func New(engine *kernel.Engine) *API {
	return &API{engine: engine}
}

// WaitForEvent blocks (in simulated time) until the next event is due.
func (a *API) WaitForEvent() (wire.Event, error) { return a.engine.WaitForEvent() }

// FromNetworkLayer returns the next synthetic application packet.
func (a *API) FromNetworkLayer() wire.Packet { return a.engine.FromNetworkLayer() }

// ToNetworkLayer delivers a packet to the application layer.
func (a *API) ToNetworkLayer(p wire.Packet) { a.engine.ToNetworkLayer(p) }

// ToPhysicalLayer transmits a frame onto the channel.
func (a *API) ToPhysicalLayer(f wire.Frame) { a.engine.ToPhysicalLayer(f) }

// FromPhysicalLayer extracts the frame carried by a FrameArrival event.
func (a *API) FromPhysicalLayer(ev wire.Event) wire.Frame { return a.engine.FromPhysicalLayer(ev) }

// StartTimer arms the retransmission timer for key.
func (a *API) StartTimer(key int) { a.engine.StartTimer(key) }

// StopTimer disarms the retransmission timer for key, if any.
func (a *API) StopTimer(key int) { _ = a.engine.StopTimer(key) }

// StartAckTimer arms the deferred-ACK timer.
func (a *API) StartAckTimer() { a.engine.StartAckTimer() }

// StopAckTimer disarms the deferred-ACK timer, if armed.
func (a *API) StopAckTimer() { _ = a.engine.StopAckTimer() }

// EnableNetworkLayer marks the network layer ready to produce packets.
func (a *API) EnableNetworkLayer() { a.engine.EnableNetworkLayer() }

// DisableNetworkLayer marks the network layer unable to produce packets.
func (a *API) DisableNetworkLayer() { a.engine.DisableNetworkLayer() }

// Engine returns the wrapped *kernel.Engine, for callers (e.g. the driver)
// that need Snapshot or Now in addition to the protocol vocabulary.
func (a *API) Engine() *kernel.Engine { return a.engine }
