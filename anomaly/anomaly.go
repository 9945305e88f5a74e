// Package anomaly schedules synthetic disturbances on the SCADA measurement
// channels: probabilistic spikes and shaped trends, each confined to a repeating
// activation window. Schedules are normally decoded from YAML.
package anomaly

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
)

// Channel is the SCADA measurement an anomaly disturbs.
type Channel string

const (
	ChannelVoltage   Channel = "voltage"
	ChannelP         Channel = "p"
	ChannelQ         Channel = "q"
	ChannelFrequency Channel = "frequency"
)

// Channels lists every measurement channel.
var Channels = []Channel{ChannelVoltage, ChannelP, ChannelQ, ChannelFrequency}

// UnmarshalText accepts the channel names in Channels.
func (c *Channel) UnmarshalText(text []byte) error {
	for _, ch := range Channels {
		if string(text) == string(ch) {
			*c = ch
			return nil
		}
	}
	return fmt.Errorf("unknown channel: %s", text)
}

// Anomaly is implemented by every anomaly type.
type Anomaly interface {
	ID() uuid.UUID
	Name() string
	Kind() string     // "spike" or "trend"
	Channel() Channel // the measurement disturbed
	IsActive() bool   // whether the anomaly changed the channel in the last step
	Window() Window   // the activation schedule
	step(r *rand.Rand, ts float64) float64
}

// Container is an ordered collection of anomalies.
type Container []Anomaly

// Add appends an anomaly and returns its ID.
func (c *Container) Add(a Anomaly) uuid.UUID {
	*c = append(*c, a)
	return a.ID()
}

// Find returns the anomaly with the given ID.
func (c Container) Find(id uuid.UUID) (Anomaly, bool) {
	for _, a := range c {
		if a.ID() == id {
			return a, true
		}
	}
	return nil, false
}

// Effect is the combined change caused by a container in one step.
type Effect struct {
	delta  map[Channel]float64
	active map[Channel]bool
}

// Delta returns the summed change on the channel.
func (e Effect) Delta(ch Channel) float64 {
	return e.delta[ch]
}

// Active reports whether any anomaly on the channel fired.
func (e Effect) Active(ch Channel) bool {
	return e.active[ch]
}

// Step advances every anomaly by one time step of ts seconds and returns
// their combined effect.
func (c Container) Step(r *rand.Rand, ts float64) Effect {
	e := Effect{delta: make(map[Channel]float64), active: make(map[Channel]bool)}
	for _, a := range c {
		d := a.step(r, ts)
		e.delta[a.Channel()] += d
		if a.IsActive() {
			e.active[a.Channel()] = true
		}
	}
	return e
}
