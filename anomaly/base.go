package anomaly

import (
	"github.com/google/uuid"
	"github.com/synaptecltd/feedersim/mathfuncs"
)

// base carries the fields common to all anomaly types.
type base struct {
	id      uuid.UUID
	name    string
	channel Channel
	window  Window
	active  bool
}

func newBase(id uuid.UUID, name string, channel Channel, startDelay, duration float64, repeats uint64, off bool) (base, error) {
	w, err := newWindow(startDelay, duration, repeats, off)
	if err != nil {
		return base{}, err
	}
	if id == uuid.Nil {
		id = uuid.New()
	}
	if channel == "" {
		channel = ChannelVoltage
	}
	return base{id: id, name: name, channel: channel, window: w}, nil
}

func (b *base) ID() uuid.UUID {
	return b.id
}

func (b *base) Name() string {
	return b.name
}

func (b *base) Channel() Channel {
	return b.channel
}

func (b *base) IsActive() bool {
	return b.active
}

func (b *base) Window() Window {
	return b.window
}

// Sets funcName and funcVar by looking up the shape name. An empty name
// clears both.
func setShapeByName(name string, funcName *string, funcVar *mathfuncs.Shape) error {
	if name == "" {
		*funcName = ""
		*funcVar = nil
		return nil
	}
	shape, err := mathfuncs.ShapeByName(name)
	if err != nil {
		return err
	}
	*funcName = name
	*funcVar = shape
	return nil
}
