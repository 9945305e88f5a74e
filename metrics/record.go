package metrics

// Sample is the per-tick state recorded by the simulator.
type Sample struct {
	FrequencyHz       float64
	RotorAngleRad     float64
	MechanicalPowerKW float64
	TransformerTempC  float64

	NetLoadKW     float64
	TotalPVKW     float64
	BatterySoC    float64
	TapPosition   float64
	CapacitorKVAR float64
	BusVoltagePU  float64
	ReverseFlow   bool

	RelayAccumulator float64
	RecloserState    string

	EstimatorCost       float64
	EstimatorResidual   float64
	EstimatorIterations int
	BadData             bool
}

// Record updates the gauges from a tick sample
func (r *Registry) Record(s Sample) {
	r.TicksTotal.Inc()

	r.FrequencyHz.Set(s.FrequencyHz)
	r.RotorAngleRad.Set(s.RotorAngleRad)
	r.MechanicalPowerKW.Set(s.MechanicalPowerKW)
	r.TransformerTempC.Set(s.TransformerTempC)

	r.NetLoadKW.Set(s.NetLoadKW)
	r.TotalPVKW.Set(s.TotalPVKW)
	r.BatterySoC.Set(s.BatterySoC)
	r.TapPosition.Set(s.TapPosition)
	r.CapacitorKVAR.Set(s.CapacitorKVAR)
	r.BusVoltagePU.Set(s.BusVoltagePU)
	r.ReverseFlow.Set(boolToFloat(s.ReverseFlow))

	r.RelayAccumulator.Set(s.RelayAccumulator)
	r.SetRecloserState(s.RecloserState)

	r.EstimatorCost.Set(s.EstimatorCost)
	r.EstimatorResidual.Set(s.EstimatorResidual)
	r.EstimatorIterations.Observe(float64(s.EstimatorIterations))
	if s.BadData {
		r.BadDataTotal.Inc()
	}
}

// SetRecloserState sets the current recloser state
func (r *Registry) SetRecloserState(state string) {
	for _, st := range RecloserStates {
		r.RecloserState.WithLabelValues(st).Set(0)
	}
	r.RecloserState.WithLabelValues(state).Set(1)
}

// RecordTrip counts a recloser trip
func (r *Registry) RecordTrip() {
	r.TripsTotal.Inc()
}

// RecordReclose counts a reclose attempt
func (r *Registry) RecordReclose(success bool) {
	result := "failed"
	if success {
		result = "success"
	}
	r.ReclosesTotal.WithLabelValues(result).Inc()
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
