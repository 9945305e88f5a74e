package fault

import (
	"github.com/google/uuid"
	"github.com/synaptecltd/feedersim/topology"
)

// Event is an operator-injected fault at a bus.
type Event struct {
	ID        uuid.UUID
	Active    bool
	Bus       topology.BusID
	Type      Type
	Impedance complex128
}

// NewEvent returns an active fault with the default impedance for its type.
func NewEvent(bus topology.BusID, t Type) Event {
	return Event{
		ID:        uuid.New(),
		Active:    true,
		Bus:       bus,
		Type:      t,
		Impedance: DefaultImpedance(t),
	}
}

// At reports whether an active fault sits at bus.
func (e Event) At(bus topology.BusID) bool {
	return e.Active && e.Bus == bus
}
