package feedersim

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/synaptecltd/feedersim/mathfuncs"
	"github.com/synaptecltd/feedersim/metrics"
	"github.com/synaptecltd/feedersim/protection"
	"github.com/synaptecltd/feedersim/topology"
)

// Series is a sampled time series indexed by tick. It wraps around at its
// length.
type Series []float64

// At returns the sample for a tick, or false for an empty series.
func (s Series) At(tick int) (float64, bool) {
	if len(s) == 0 {
		return 0, false
	}
	return s[tick%len(s)], true
}

// Sources are the time series the simulator draws its Inputs from.
type Sources struct {
	LoadKW     Series
	LoadKVAR   Series
	BusLoadKW  map[topology.BusID]Series
	Irradiance Series // empty falls back to the bell curve by hour
}

// Inputs returns the samples for a tick at the observed bus.
func (src Sources) Inputs(tick int, bus topology.BusID) Inputs {
	var in Inputs
	in.LoadKW, _ = src.LoadKW.At(tick)
	in.LoadKVAR, _ = src.LoadKVAR.At(tick)
	in.BusLoadKW, in.HasBusLoad = src.BusLoadKW[bus].At(tick)

	irr, ok := src.Irradiance.At(tick)
	if !ok {
		irr = mathfuncs.BellIrradiance(tick % 24)
	}
	in.Irradiance = irr
	return in
}

// SyntheticSources generates n samples of feeder demand around 5000 kW and
// 2000 kvar, and per-bus demand around 50 kW for every non-source bus.
func SyntheticSources(r *rand.Rand, feeder *topology.Feeder, n int) Sources {
	gauss := func(mean, sd float64) Series {
		s := make(Series, n)
		for i := range s {
			s[i] = mean + r.NormFloat64()*sd
		}
		return s
	}

	src := Sources{
		LoadKW:    gauss(5000, 500),
		LoadKVAR:  gauss(2000, 200),
		BusLoadKW: make(map[topology.BusID]Series),
	}
	for _, b := range feeder.Buses() {
		if b != feeder.Source() {
			src.BusLoadKW[b] = gauss(50, 10)
		}
	}
	return src
}

// Simulator drives a State from Sources. Ticks and operator commands are
// serialised behind one lock, so it is safe for concurrent use.
type Simulator struct {
	mu      sync.Mutex
	state   *State
	sources Sources
	metrics *metrics.Registry
	last    Snapshot
	running bool
}

// NewSimulator returns a running simulator. reg may be nil.
func NewSimulator(state *State, sources Sources, reg *metrics.Registry) *Simulator {
	return &Simulator{state: state, sources: sources, metrics: reg, running: true}
}

// Step runs one tick and returns its snapshot.
func (sim *Simulator) Step() Snapshot {
	sim.mu.Lock()
	defer sim.mu.Unlock()

	s := sim.state
	snap := Tick(s, sim.sources.Inputs(s.Index, s.Bus))
	sim.last = snap
	sim.record(snap)
	return snap
}

func (sim *Simulator) record(snap Snapshot) {
	if sim.metrics == nil {
		return
	}
	switch snap.Outcome {
	case protection.Trip:
		sim.metrics.RecordTrip()
	case protection.RecloseSucceeded:
		sim.metrics.RecordReclose(true)
	case protection.RecloseFailed:
		sim.metrics.RecordReclose(false)
	}
	sim.metrics.Record(metrics.Sample{
		FrequencyHz:         snap.TrueFrequencyHz,
		RotorAngleRad:       snap.RotorAngleRad,
		MechanicalPowerKW:   snap.MechanicalPowerKW,
		TransformerTempC:    snap.TransformerTempC,
		NetLoadKW:           snap.NetKW,
		TotalPVKW:           snap.PVKW,
		BatterySoC:          snap.BatterySoC,
		TapPosition:         snap.TapPosition,
		CapacitorKVAR:       snap.CapacitorKVAR,
		BusVoltagePU:        snap.VoltagePU,
		ReverseFlow:         snap.ReverseFlow,
		RelayAccumulator:    sim.state.Relay.Accumulator,
		RecloserState:       snap.Recloser,
		EstimatorCost:       snap.Estimate.Cost,
		EstimatorResidual:   snap.Estimate.Residual,
		EstimatorIterations: snap.Estimate.Iterations,
		BadData:             snap.Estimate.BadData,
	})
}

// Run ticks every base period times the current speed until ctx is done.
// Paused simulators keep the ticker but skip the step.
func (sim *Simulator) Run(ctx context.Context, base time.Duration) {
	period := sim.period(base)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if sim.Running() {
				sim.Step()
			}
			if p := sim.period(base); p != period {
				period = p
				ticker.Reset(period)
			}
		}
	}
}

func (sim *Simulator) period(base time.Duration) time.Duration {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	p := time.Duration(float64(base) * sim.state.Speed)
	if p <= 0 {
		p = base
	}
	return p
}

// SetRunning pauses or resumes Run.
func (sim *Simulator) SetRunning(on bool) {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	sim.running = on
}

// Running reports whether Run is stepping.
func (sim *Simulator) Running() bool {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	return sim.running
}

// Apply runs an operator command against the state between ticks.
func (sim *Simulator) Apply(cmd func(*State) error) error {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	return cmd(sim.state)
}

// Snapshot returns the result of the latest tick.
func (sim *Simulator) Snapshot() Snapshot {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	return sim.last
}

// History copies the rolling plot buffers.
func (sim *Simulator) History() HistoryValues {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	return sim.state.History.Values()
}

// Events returns the event log, newest first, optionally filtered by category.
func (sim *Simulator) Events(category string) []Event {
	return sim.state.Events.Events(category)
}
