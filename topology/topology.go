// Package topology holds the static radial feeder layout: bus coordinates, the
// parent-child edge list, transformer nodes and PV capacities, and derives the
// electrical distance of every bus from the source substation.
package topology

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"gopkg.in/yaml.v2"
)

// BusID names a bus on the feeder, e.g. "bus1005".
type BusID string

// MinDistance floors electrical distance so line impedance never reaches zero.
const MinDistance = 1e-6

// UnknownBusDistance is the distance assumed for buses absent from the layout.
const UnknownBusDistance = 1.0

// Kind classifies a bus for display.
type Kind string

const (
	KindSubstation  Kind = "SUBSTATION"
	KindSolar       Kind = "SOLAR BUS"
	KindTransformer Kind = "TRANSFORMER"
	KindLoad        Kind = "LOAD BUS"
)

//go:embed feeder.yaml
var defaultLayout []byte

// Bus is a single node of the layout.
type Bus struct {
	Name BusID   `yaml:"name"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
}

// Layout is the on-disk (YAML) shape of a feeder.
type Layout struct {
	Source       BusID             `yaml:"source"`
	Buses        []Bus             `yaml:"buses"`
	Edges        [][]BusID         `yaml:"edges"`
	Transformers []BusID           `yaml:"transformers"`
	PV           map[BusID]float64 `yaml:"pv"` // bus -> capacity kW
}

// Feeder is an immutable, indexed view of a Layout.
type Feeder struct {
	source       BusID
	order        []BusID
	coords       map[BusID][2]float64
	distance     map[BusID]float64
	children     map[BusID][]BusID
	transformers map[BusID]bool
	pv           map[BusID]float64
}

var (
	defaultOnce   sync.Once
	defaultFeeder *Feeder
)

// Default returns the embedded feeder layout.
func Default() *Feeder {
	defaultOnce.Do(func() {
		f, err := Parse(defaultLayout)
		if err != nil {
			panic(fmt.Errorf("embedded feeder layout: %w", err))
		}
		defaultFeeder = f
	})
	return defaultFeeder
}

// Parse decodes a YAML layout and indexes it.
func Parse(data []byte) (*Feeder, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, err
	}
	return New(l)
}

// New indexes a layout, checking that the source exists and PV capacities are positive.
func New(l Layout) (*Feeder, error) {
	if l.Source == "" {
		return nil, errors.New("layout has no source bus")
	}

	f := &Feeder{
		source:       l.Source,
		coords:       make(map[BusID][2]float64, len(l.Buses)),
		distance:     make(map[BusID]float64, len(l.Buses)),
		children:     make(map[BusID][]BusID),
		transformers: make(map[BusID]bool, len(l.Transformers)),
		pv:           make(map[BusID]float64, len(l.PV)),
	}
	for _, b := range l.Buses {
		if _, dup := f.coords[b.Name]; dup {
			return nil, fmt.Errorf("duplicate bus %q", b.Name)
		}
		f.coords[b.Name] = [2]float64{b.X, b.Y}
		f.order = append(f.order, b.Name)
	}

	src, ok := f.coords[l.Source]
	if !ok {
		return nil, fmt.Errorf("source bus %q has no coordinates", l.Source)
	}
	for name, xy := range f.coords {
		f.distance[name] = math.Hypot(xy[0]-src[0], xy[1]-src[1])
	}

	for _, e := range l.Edges {
		if len(e) != 2 {
			return nil, fmt.Errorf("edge %v must name exactly two buses", e)
		}
		f.children[e[0]] = append(f.children[e[0]], e[1])
	}
	for _, t := range l.Transformers {
		f.transformers[t] = true
	}
	for bus, kw := range l.PV {
		if kw <= 0 {
			return nil, fmt.Errorf("pv capacity at %q must be positive, got %v", bus, kw)
		}
		f.pv[bus] = kw
	}
	return f, nil
}

// Source returns the substation bus.
func (f *Feeder) Source() BusID { return f.source }

// Buses returns all buses in layout order.
func (f *Feeder) Buses() []BusID {
	out := make([]BusID, len(f.order))
	copy(out, f.order)
	return out
}

// Has reports whether the bus is part of the layout.
func (f *Feeder) Has(bus BusID) bool {
	_, ok := f.coords[bus]
	return ok
}

// Coordinates returns the drawing position of a bus.
func (f *Feeder) Coordinates(bus BusID) (x, y float64, ok bool) {
	xy, ok := f.coords[bus]
	return xy[0], xy[1], ok
}

// Distance returns the straight-line distance of a bus from the source, used to
// scale line impedance. Unknown buses get UnknownBusDistance; the result is
// never below MinDistance.
func (f *Feeder) Distance(bus BusID) float64 {
	d, ok := f.distance[bus]
	if !ok {
		d = UnknownBusDistance
	}
	return math.Max(d, MinDistance)
}

// PVCapacity returns the installed PV capacity (kW) at a bus.
func (f *Feeder) PVCapacity(bus BusID) (float64, bool) {
	kw, ok := f.pv[bus]
	return kw, ok
}

// PVBuses returns the buses with PV installed, sorted by name.
func (f *Feeder) PVBuses() []BusID {
	out := make([]BusID, 0, len(f.pv))
	for b := range f.pv {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Kind classifies a bus. Solar takes precedence over transformer.
func (f *Feeder) Kind(bus BusID) Kind {
	switch {
	case bus == f.source:
		return KindSubstation
	case f.pv[bus] > 0:
		return KindSolar
	case f.transformers[bus]:
		return KindTransformer
	default:
		return KindLoad
	}
}

// Downstream returns every bus fed through the given bus (excluding itself),
// following edges away from the source. Opening a device at bus de-energises
// all of them.
func (f *Feeder) Downstream(bus BusID) []BusID {
	var out []BusID
	seen := map[BusID]bool{bus: true}
	queue := append([]BusID(nil), f.children[bus]...)
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		if seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
		queue = append(queue, f.children[b]...)
	}
	return out
}
