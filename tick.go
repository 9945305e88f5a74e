package feedersim

import (
	"math"

	"github.com/synaptecltd/feedersim/anomaly"
	"github.com/synaptecltd/feedersim/busmodel"
	"github.com/synaptecltd/feedersim/estimator"
	"github.com/synaptecltd/feedersim/fault"
	"github.com/synaptecltd/feedersim/protection"
	"github.com/synaptecltd/feedersim/topology"
)

// Inputs are the external samples consumed by one tick.
type Inputs struct {
	LoadKW   float64 // aggregate feeder demand, HVAC excluded
	LoadKVAR float64

	BusLoadKW  float64 // demand at the observed bus
	HasBusLoad bool    // false draws a synthetic 45 ± 5 kW

	Irradiance float64 // 0..1, before cloud shading
}

// Operating states of the feeder.
const (
	StateNominal     = "NOMINAL"
	StateWarning     = "WARNING"
	StateEmergency   = "EMERGENCY"
	StateBlackout    = "BLACKOUT"
	StateReverseFlow = "REVERSE FLOW"
)

// Sequence current conditions.
const (
	ConditionBalanced   = "BALANCED"
	ConditionUnbalanced = "UNBALANCED"
	ConditionGround     = "GND FAULT"
)

// ReverseFlowKW is the backfeed below which the feeder reports REVERSE FLOW.
const ReverseFlowKW = -50.0

// HVACReactiveRatio is the kvar drawn per kW of HVAC load.
const HVACReactiveRatio = 0.6

// BusReactiveRatio is the kvar drawn per kW of observed bus load.
const BusReactiveRatio = 0.4

// Snapshot is the immutable result of one tick.
type Snapshot struct {
	Tick int `json:"tick"`
	Hour int `json:"hour"`

	// aggregate feeder
	FrequencyHz       float64 `json:"frequency_hz"` // SCADA reading
	TrueFrequencyHz   float64 `json:"true_frequency_hz"`
	RotorAngleRad     float64 `json:"rotor_angle_rad"`
	MechanicalPowerKW float64 `json:"mechanical_power_kw"`
	TransformerTempC  float64 `json:"transformer_temp_c"`

	LoadKW        float64              `json:"load_kw"` // HVAC included
	PVKW          float64              `json:"pv_kw"`
	PVPenetration float64              `json:"pv_penetration_pct"`
	BatteryKW     float64              `json:"battery_kw"`
	BatteryMode   busmodel.BatteryMode `json:"battery_mode"`
	BatterySoC    float64              `json:"battery_soc"`
	NetKW         float64              `json:"net_kw"`
	NetKVAR       float64              `json:"net_kvar"`
	DeltaKW       float64              `json:"delta_kw"`
	DeltaKVAR     float64              `json:"delta_kvar"`
	ReverseFlow   bool                 `json:"reverse_flow"`

	OperatingState string `json:"operating_state"`
	StateDetail    string `json:"state_detail"`

	// observed bus
	Bus            topology.BusID   `json:"bus"`
	BusKind        topology.Kind    `json:"bus_kind"`
	BusLoadKW      float64          `json:"bus_load_kw"`
	BusLoadKVAR    float64          `json:"bus_load_kvar"`
	BusDeltaKW     float64          `json:"bus_delta_kw"`
	PVOutputKW     float64          `json:"bus_pv_kw"`
	PVReactiveKVAR float64          `json:"bus_pv_kvar"`
	CellTempC      float64          `json:"cell_temp_c"`
	Irradiance     float64          `json:"irradiance"`
	InverterStatus string           `json:"inverter_status"`
	PreInverterPU  float64          `json:"pre_inverter_pu"`
	VoltagePU      float64          `json:"voltage_pu"`
	Hosting        busmodel.Hosting `json:"hosting"`

	// SCADA and estimation
	MeasuredVoltage float64          `json:"measured_voltage_pu"`
	MeasuredKW      float64          `json:"measured_kw"`
	MeasuredKVAR    float64          `json:"measured_kvar"`
	Attacked        bool             `json:"attacked"`
	Estimate        estimator.Result `json:"estimate"`

	// fault and protection
	FaultActive bool               `json:"fault_active"`
	FaultBus    topology.BusID     `json:"fault_bus,omitempty"`
	FaultType   fault.Type         `json:"fault_type"`
	LocalFault  bool               `json:"local_fault"`
	Sequence    fault.Currents     `json:"sequence"`
	Phases      fault.Phases       `json:"phases"`
	Condition   string             `json:"condition"`
	RelayStatus string             `json:"relay_status"`
	RelayPct    int                `json:"relay_pct"`
	Recloser    string             `json:"recloser"`
	RelayTrip   bool               `json:"relay_trip"`
	Outcome     protection.Outcome `json:"-"`
	Isolated    []topology.BusID   `json:"isolated,omitempty"`

	// controls
	TapPosition   float64 `json:"tap_position"`
	CapacitorKVAR float64 `json:"capacitor_kvar"`
	PowerFactor   float64 `json:"power_factor"`

	ZoneTempC  float64 `json:"zone_temp_c"`
	HVACOn     bool    `json:"hvac_on"`
	HVACLoadKW float64 `json:"hvac_load_kw"`
	SetpointC  float64 `json:"setpoint_c"`

	Waveform Waveform `json:"waveform"`
	Modes    Modes    `json:"modes"`
}

// Tick advances the simulation by one step. It never fails: degraded
// numerics are reported through the estimate and fault quality flags.
func Tick(s *State, in Inputs) Snapshot {
	snap := Snapshot{Tick: s.Index, Hour: s.Index % 24}
	ambient := s.Zone.T

	// the bus sees the protection state left by the previous tick; a new
	// fault integrates on the relay curve before the recloser opens
	s.tickBus(&snap, in, ambient)
	s.tickAggregate(&snap, in, ambient)

	s.Zone.stepZone()
	snap.ZoneTempC = s.Zone.T
	snap.HVACOn = s.Zone.On
	snap.HVACLoadKW = s.Zone.LoadKW
	snap.SetpointC = s.Zone.SetpointC

	harmonics := s.Modes.Harmonics || snap.LocalFault
	if !harmonics {
		s.Modes.Filter = false
	}
	snap.Waveform = s.waveform.generate(s.rng, harmonics, s.Modes.Filter)
	snap.Modes = s.Modes

	s.Index++
	return snap
}

// tickAggregate runs the feeder-wide balance, protection and grid dynamics.
func (s *State) tickAggregate(snap *Snapshot, in Inputs, ambient float64) {
	load := in.LoadKW + s.Zone.LoadKW

	var pv float64
	for _, b := range s.pvBuses {
		pv += s.pv.Output(s.pvCapacity[b], in.Irradiance, ambient, s.Modes.Cloud, s.rng).PowerKW
	}

	bess, mode := s.Battery.Dispatch(snap.Hour)
	net := load - pv - bess
	q := in.LoadKVAR + s.Zone.LoadKW*HVACReactiveRatio

	snap.Outcome = s.stepRecloser()
	s.Grid.Step(s.params, net, q, ambient)

	snap.TrueFrequencyHz = s.Grid.FrequencyHz
	// tickBus has already put any frequency anomaly offset here
	snap.FrequencyHz += s.Grid.FrequencyHz + s.rng.NormFloat64()*s.cfg.Simulation.FrequencyNoise
	snap.RotorAngleRad = s.Grid.RotorAngleRad
	snap.MechanicalPowerKW = s.Grid.MechanicalPowerKW
	snap.TransformerTempC = s.Grid.TransformerTempC

	snap.LoadKW = load
	snap.PVKW = pv
	if in.LoadKW > 0 {
		snap.PVPenetration = pv / in.LoadKW * 100
	}
	snap.BatteryKW = bess
	snap.BatteryMode = mode
	snap.BatterySoC = s.Battery.SoC
	snap.NetKW = net
	snap.NetKVAR = q
	snap.DeltaKW = net - s.prevP
	snap.DeltaKVAR = q - s.prevQ
	s.prevP, s.prevQ = net, q

	snap.FaultActive = s.Fault.Active
	snap.FaultType = s.Fault.Type
	if s.Fault.Active {
		snap.FaultBus = s.Fault.Bus
	}
	snap.Recloser = s.Recloser.State.String()
	snap.RelayTrip = s.Recloser.RelayTrip

	snap.OperatingState, snap.StateDetail = s.operatingState()
	snap.ReverseFlow = net < ReverseFlowKW
	if snap.ReverseFlow {
		snap.OperatingState = StateReverseFlow
		snap.StateDetail = "PROTECTION BLIND SPOT ACTIVE"
	}

	if s.Fault.Active && s.Recloser.State.Open() {
		snap.Isolated = append([]topology.BusID{s.Fault.Bus}, s.feeder.Downstream(s.Fault.Bus)...)
	}
}

// stepRecloser runs the recloser once and logs what it did.
func (s *State) stepRecloser() protection.Outcome {
	out := s.Recloser.Step(s.Fault.Active)
	switch out {
	case protection.Trip:
		s.Events.Add(CategoryProtection, "Trip", "Recloser: Instantaneous Trip")
	case protection.RecloseFailed:
		s.Events.Add(CategoryProtection, "Reclose", "Reclose Attempt Failed - Fault Persistent")
	case protection.RecloseSucceeded:
		s.Events.Add(CategoryProtection, "Reclose", "Reclose Successful")
	}
	return out
}

// operatingState classifies the feeder from the substation voltage implied
// by the protection state.
func (s *State) operatingState() (string, string) {
	tripped := s.Recloser.RelayTrip
	v := 0.99 * s.Tap.Position
	switch {
	case tripped:
		v = 0
	case s.Fault.Active:
		v = 0.85 * s.Tap.Position
	}
	const current = 1.0

	switch {
	case tripped || s.Recloser.State.Open():
		return StateBlackout, "BREAKER OPEN - NO VOLTAGE"
	case s.Fault.Active || v < 0.90 || v > 1.10:
		return StateEmergency, "LIMITS EXCEEDED - HAZARD"
	case v < 0.96 || current > 1.2:
		return StateWarning, "INSTABILITY DETECTED"
	default:
		return StateNominal, "SYSTEM OPTIMAL"
	}
}

// tickBus runs the observed bus: PV and inverter, voltage, SCADA, state
// estimation, fault currents and the substation controls.
func (s *State) tickBus(snap *Snapshot, in Inputs, ambient float64) {
	bus := s.Bus
	snap.Bus = bus
	snap.BusKind = s.feeder.Kind(bus)

	p := in.BusLoadKW
	if !in.HasBusLoad {
		p = 45 + (s.rng.Float64()*10 - 5)
	}
	q := p * BusReactiveRatio

	capacity, hasPV := s.pvCapacity[bus]
	pv := s.pv.Output(capacity, in.Irradiance, ambient, s.Modes.Cloud, s.rng)

	dist := s.feeder.Distance(bus)
	tap := s.Tap.Position
	vPre := s.line.Voltage(dist, tap, busmodel.Injection{PLoadKW: p, QLoadKVAR: q, PGenKW: pv.PowerKW})

	inv := busmodel.Response{PowerKW: pv.PowerKW, CurtailFactor: 1, Status: busmodel.PassiveStatus}
	if hasPV {
		inv = s.inverter.Respond(vPre, pv.PowerKW, capacity)
	}
	v := s.line.Voltage(dist, tap, busmodel.Injection{
		PLoadKW:   p,
		QLoadKVAR: q,
		PGenKW:    inv.PowerKW,
		QGenKVAR:  inv.ReactiveKVAR,
	})
	snap.Hosting = busmodel.HostingCapacity(v)

	if s.Modes.AutoTap && !s.Recloser.RelayTrip {
		s.Tap.Regulate(v)
	}

	noise := s.cfg.Simulation
	effect := s.anomalies.Step(s.rng, s.Speed)
	mV := v + s.rng.NormFloat64()*noise.VoltageNoise + effect.Delta(anomaly.ChannelVoltage)
	mP := p - inv.PowerKW + s.rng.NormFloat64()*noise.PowerNoise + effect.Delta(anomaly.ChannelP)
	mQ := q - inv.ReactiveKVAR + s.rng.NormFloat64()*noise.PowerNoise + effect.Delta(anomaly.ChannelQ)
	snap.FrequencyHz += effect.Delta(anomaly.ChannelFrequency)

	attacked := s.Modes.Attack || (s.Modes.AutoAttack && effect.Active(anomaly.ChannelVoltage))
	network := estimator.Network{Impedance: s.line.Impedance(dist), SourcePU: tap}
	est := s.estimator.Estimate(network, estimator.Measurement{VoltagePU: mV, PKW: mP, QKVAR: mQ}, attacked)

	snap.LocalFault = s.Fault.At(bus)
	snap.RelayStatus = protection.RelayStatus(false, false, false, 0)
	var seq fault.Currents
	var phases fault.Phases

	switch {
	case snap.LocalFault && s.Recloser.RelayTrip:
		p, q = 0, 0
		v, mV = 0, 0
		est = estimator.Result{}
		snap.RelayStatus = protection.RelayStatus(true, false, true, s.Relay.Percent())
	case snap.LocalFault:
		seq = fault.Solve(s.Fault.Type, 1.0, s.seqZ, s.Fault.Impedance)
		phases = fault.ToPhase(seq)
		picked := s.Relay.Integrate(phases.Max(), s.Speed)
		snap.RelayStatus = protection.RelayStatus(true, picked, false, s.Relay.Percent())

		v *= 0.3
		mV = v + s.rng.NormFloat64()*noise.VoltageNoise
		est = s.estimator.Estimate(network, estimator.Measurement{VoltagePU: mV, PKW: mP, QKVAR: mQ}, attacked)
	default:
		s.Relay.Decay()
		i1 := (p - inv.PowerKW) / 100
		seq = fault.Currents{I1: i1, I2: i1 * 0.05, I0: i1 * 0.02}
		m := math.Abs(i1)
		phases = fault.Phases{
			A: fault.Phasor{Mag: m, AngleDeg: 0},
			B: fault.Phasor{Mag: m, AngleDeg: -120},
			C: fault.Phasor{Mag: m, AngleDeg: 120},
		}
	}

	snap.BusLoadKW = p
	snap.BusLoadKVAR = q
	snap.BusDeltaKW = p - s.prevBusP
	s.prevBusP = p
	snap.PVOutputKW = inv.PowerKW
	snap.PVReactiveKVAR = inv.ReactiveKVAR
	snap.CellTempC = pv.CellTempC
	snap.Irradiance = pv.Irradiance
	snap.InverterStatus = inv.Status
	snap.PreInverterPU = vPre
	snap.VoltagePU = v

	snap.MeasuredVoltage = mV
	snap.MeasuredKW = mP
	snap.MeasuredKVAR = mQ
	snap.Attacked = attacked
	snap.Estimate = est

	snap.Sequence = seq
	snap.Phases = phases
	snap.Condition = condition(seq)
	snap.RelayPct = s.Relay.Percent()

	h := s.History
	h.Tap.Push(s.Tap.Position)
	h.Capacitor.Push(s.Capacitor.KVAR)
	h.Measured.Push(mV)
	h.Estimated.Push(est.Voltage)
	h.Cost.Push(est.Cost)
	h.PVPower.Push(inv.PowerKW)
	h.PVReactive.Push(inv.ReactiveKVAR)
	h.PVVoltage.Push(v)
	h.Irradiance.Push(pv.Irradiance)
	h.CellTemp.Push(pv.CellTempC)

	pf := busmodel.PowerFactor(p-inv.PowerKW, q-s.Capacitor.KVAR)
	if s.Modes.AutoPF && !snap.LocalFault && !s.Recloser.RelayTrip {
		s.Capacitor.Regulate(pf)
	}
	snap.PowerFactor = pf
	snap.TapPosition = s.Tap.Position
	snap.CapacitorKVAR = s.Capacitor.KVAR
}

func condition(c fault.Currents) string {
	switch {
	case c.I0 > 0.1:
		return ConditionGround
	case c.I2 > 0.1:
		return ConditionUnbalanced
	default:
		return ConditionBalanced
	}
}
