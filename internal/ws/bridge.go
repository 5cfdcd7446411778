package ws

import (
	"solarshare/internal/model"
	"solarshare/internal/sim"
)

// Bridge implements sim.Callback and broadcasts engine events to the hub.
type Bridge struct {
	hub *Hub
}

func NewBridge(hub *Hub) *Bridge {
	return &Bridge{hub: hub}
}

func (b *Bridge) OnTick(snap model.TickSnapshot) {
	b.hub.BroadcastEnvelope(TypeTick, snap)
}

func (b *Bridge) OnState(s sim.State) {
	b.hub.BroadcastEnvelope(TypeSimState, SimStateFromEngine(s))
}
