// Package feedersim simulates a radial distribution feeder in discrete ticks:
// aggregate frequency and transformer dynamics, one observed bus with PV,
// smart inverter, fault and protection models, and a WLS state estimator fed
// by noisy (and possibly attacked) SCADA readings.
//
// All mutable state lives in State. Tick advances it by one step and is not
// safe for concurrent use; Simulator serialises ticks and operator commands.
package feedersim

import (
	"fmt"
	"math/rand/v2"

	"github.com/synaptecltd/feedersim/anomaly"
	"github.com/synaptecltd/feedersim/busmodel"
	"github.com/synaptecltd/feedersim/config"
	"github.com/synaptecltd/feedersim/dynamics"
	"github.com/synaptecltd/feedersim/estimator"
	"github.com/synaptecltd/feedersim/fault"
	"github.com/synaptecltd/feedersim/history"
	"github.com/synaptecltd/feedersim/protection"
	"github.com/synaptecltd/feedersim/topology"
)

// Modes are the operator switches.
type Modes struct {
	Attack     bool `json:"attack"`      // bias the SCADA voltage on every tick
	AutoAttack bool `json:"auto_attack"` // bias it while a voltage anomaly is active
	Cloud      bool `json:"cloud"`
	AutoTap    bool `json:"auto_tap"`
	AutoPF     bool `json:"auto_pf"`
	Harmonics  bool `json:"harmonics"`
	Filter     bool `json:"filter"`
}

// Histories are the rolling plot buffers.
type Histories struct {
	Tap       *history.Buffer
	Capacitor *history.Buffer

	Measured  *history.Buffer
	Estimated *history.Buffer
	Cost      *history.Buffer

	PVPower    *history.Buffer
	PVReactive *history.Buffer
	PVVoltage  *history.Buffer
	Irradiance *history.Buffer
	CellTemp   *history.Buffer
}

// CapacitorHistoryLength covers one day of hourly bank positions.
const CapacitorHistoryLength = 24

func newHistories() Histories {
	n := history.DefaultLength
	return Histories{
		Tap:        history.New(n, 1.0),
		Capacitor:  history.New(CapacitorHistoryLength, 0),
		Measured:   history.New(n, 1.0),
		Estimated:  history.New(n, 1.0),
		Cost:       history.New(n, 0),
		PVPower:    history.New(n, 0),
		PVReactive: history.New(n, 0),
		PVVoltage:  history.New(n, 1.0),
		Irradiance: history.New(n, 0),
		CellTemp:   history.New(n, 25.0),
	}
}

// HistoryValues is a copy of the rolling buffers, oldest sample first.
type HistoryValues struct {
	Tap        []float64 `json:"tap"`
	Capacitor  []float64 `json:"capacitor_kvar"`
	Measured   []float64 `json:"se_measured"`
	Estimated  []float64 `json:"se_estimated"`
	Cost       []float64 `json:"se_cost"`
	PVPower    []float64 `json:"pv_kw"`
	PVReactive []float64 `json:"pv_kvar"`
	PVVoltage  []float64 `json:"pv_voltage"`
	Irradiance []float64 `json:"irradiance"`
	CellTemp   []float64 `json:"cell_temp"`
}

// Values copies every buffer.
func (h Histories) Values() HistoryValues {
	return HistoryValues{
		Tap:        h.Tap.Values(),
		Capacitor:  h.Capacitor.Values(),
		Measured:   h.Measured.Values(),
		Estimated:  h.Estimated.Values(),
		Cost:       h.Cost.Values(),
		PVPower:    h.PVPower.Values(),
		PVReactive: h.PVReactive.Values(),
		PVVoltage:  h.PVVoltage.Values(),
		Irradiance: h.Irradiance.Values(),
		CellTemp:   h.CellTemp.Values(),
	}
}

// State is the complete mutable simulation state.
type State struct {
	Grid      dynamics.GridState
	Recloser  *protection.Recloser
	Relay     *protection.Relay
	Battery   *busmodel.Battery
	Tap       *busmodel.TapChanger
	Capacitor *busmodel.CapacitorBank
	Fault     fault.Event
	Zone      ZoneEmulation
	Modes     Modes

	Speed float64 // simulated seconds per tick
	Index int     // tick counter
	Bus   topology.BusID

	History Histories
	Events  *EventLog

	cfg        config.Config
	feeder     *topology.Feeder
	params     dynamics.Params
	line       busmodel.Line
	pv         busmodel.PVModel
	pvCapacity map[topology.BusID]float64
	pvBuses    []topology.BusID
	inverter   busmodel.Inverter
	seqZ       fault.SequenceImpedance
	estimator  *estimator.Estimator
	anomalies  anomaly.Container
	waveform   WaveformEmulation
	rng        *rand.Rand

	prevP, prevQ, prevBusP float64
}

// NewState builds the initial state. events may be nil, in which case an
// unlogged event log is created.
func NewState(cfg config.Config, feeder *topology.Feeder, events *EventLog) (*State, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if feeder == nil {
		feeder = topology.Default()
	}
	if events == nil {
		events = NewEventLog(DefaultEventLogSize, nil)
	}

	bus := topology.BusID(cfg.Simulation.ObservedBus)
	if bus == "" {
		bus = feeder.Source()
	}
	if !feeder.Has(bus) {
		return nil, fmt.Errorf("observed bus %s is not on the feeder", bus)
	}

	pvCapacity := make(map[topology.BusID]float64)
	for _, b := range feeder.PVBuses() {
		pvCapacity[b], _ = feeder.PVCapacity(b)
	}
	for name, kw := range cfg.PV.Capacity {
		b := topology.BusID(name)
		if !feeder.Has(b) {
			return nil, fmt.Errorf("pv capacity given for unknown bus %s", b)
		}
		pvCapacity[b] = kw
	}
	pvBuses := make([]topology.BusID, 0, len(pvCapacity))
	for _, b := range feeder.Buses() {
		if _, ok := pvCapacity[b]; ok {
			pvBuses = append(pvBuses, b)
		}
	}

	est, err := estimator.New(cfg.Estimator)
	if err != nil {
		return nil, fmt.Errorf("estimator: %w", err)
	}

	s := &State{
		Speed:      cfg.Simulation.Speed,
		Bus:        bus,
		Events:     events,
		cfg:        cfg,
		feeder:     feeder,
		params:     cfg.DynamicsParams(),
		line:       cfg.Line(),
		pv:         cfg.PVModel(),
		pvCapacity: pvCapacity,
		pvBuses:    pvBuses,
		inverter:   busmodel.DefaultInverter(),
		seqZ:       cfg.SequenceImpedance(),
		estimator:  est,
		anomalies:  cfg.Anomalies,
		waveform:   DefaultWaveform(),
		rng:        rand.New(rand.NewPCG(cfg.Simulation.Seed, 0)),
		Tap:        busmodel.NewTapChanger(),
		Capacitor:  busmodel.NewCapacitorBank(),
		Zone:       newZone(cfg.HVAC),
		Fault:      fault.Event{Type: cfg.Fault.DefaultType},
	}
	if err := s.reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// reset restores the dynamic state to its configured starting point.
// Control settings (tap, capacitor, modes other than attack, HVAC) are kept.
func (s *State) reset() error {
	battery, err := s.cfg.NewBattery()
	if err != nil {
		return fmt.Errorf("bess: %w", err)
	}
	s.Battery = battery

	s.Grid = dynamics.NewGridState(s.params)
	s.Recloser = protection.NewRecloser()
	s.Recloser.Pause = s.cfg.Protection.ReclosePause
	s.Relay = protection.NewRelay(s.cfg.Protection.TMS)
	s.Fault.Active = false
	s.Modes.Attack = false
	s.Index = 0
	s.History = newHistories()
	s.prevP, s.prevQ, s.prevBusP = 0, 0, 0
	return nil
}

// Feeder is the simulated layout.
func (s *State) Feeder() *topology.Feeder {
	return s.feeder
}

// PVCapacity returns the installed PV at a bus, zero when it has none.
func (s *State) PVCapacity(bus topology.BusID) float64 {
	return s.pvCapacity[bus]
}

// Anomalies are the scheduled SCADA disturbances.
func (s *State) Anomalies() anomaly.Container {
	return s.anomalies
}
