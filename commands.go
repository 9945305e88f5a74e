package feedersim

import (
	"errors"
	"fmt"
	"math"

	"github.com/synaptecltd/feedersim/fault"
	"github.com/synaptecltd/feedersim/protection"
	"github.com/synaptecltd/feedersim/topology"
)

// Mode names an operator switch.
type Mode string

const (
	ModeAttack     Mode = "attack"
	ModeAutoAttack Mode = "auto_attack"
	ModeCloud      Mode = "cloud"
	ModeAutoTap    Mode = "auto_tap"
	ModeAutoPF     Mode = "auto_pf"
	ModeHarmonics  Mode = "harmonics"
	ModeFilter     Mode = "filter"
)

// UnmarshalText accepts the mode names above.
func (m *Mode) UnmarshalText(text []byte) error {
	switch mode := Mode(text); mode {
	case ModeAttack, ModeAutoAttack, ModeCloud, ModeAutoTap, ModeAutoPF, ModeHarmonics, ModeFilter:
		*m = mode
		return nil
	}
	return fmt.Errorf("unknown mode %q", text)
}

var (
	ErrFaultActive   = errors.New("a fault is already active")
	ErrNoFault       = errors.New("no fault is active")
	ErrNotLockedOut  = errors.New("recloser is not in lockout")
	ErrFilterNoInput = errors.New("the active filter needs harmonic injection")
)

// InjectFault starts a fault of the given type at bus.
func (s *State) InjectFault(bus topology.BusID, t fault.Type) error {
	if !s.feeder.Has(bus) {
		return fmt.Errorf("unknown bus %s", bus)
	}
	if _, err := t.MarshalText(); err != nil {
		return err
	}
	if s.Fault.Active {
		return ErrFaultActive
	}
	s.Fault = fault.NewEvent(bus, t)
	s.Events.Add(CategoryContingency, "Fault", fmt.Sprintf("Injected: %s at %s", t.Description(), bus))
	return nil
}

// ForceClear removes the fault and closes the recloser from any state.
func (s *State) ForceClear() error {
	if !s.Fault.Active {
		return ErrNoFault
	}
	s.Fault.Active = false
	s.Recloser.Reset()
	s.Events.Add(CategoryRestoration, "Manual", "Fault Cleared by Operator")
	return nil
}

// ResetRecloser is the manual reset out of LOCKOUT. It also clears the fault.
func (s *State) ResetRecloser() error {
	if s.Recloser.State != protection.Lockout {
		return ErrNotLockedOut
	}
	s.Recloser.Reset()
	s.Fault.Active = false
	s.Events.Add(CategoryProtection, "Reset", "Manual Recloser Reset")
	return nil
}

// SetMode turns an operator switch on or off. Only changes are logged.
func (s *State) SetMode(m Mode, on bool) error {
	var flag *bool
	var category, kind, details string
	switch m {
	case ModeAttack:
		flag, category, kind = &s.Modes.Attack, CategoryCyber, "FDI"
		details = onOff(on, "False Data Injection Started", "False Data Injection Stopped")
	case ModeAutoAttack:
		flag, category, kind = &s.Modes.AutoAttack, CategoryCyber, "FDI"
		details = onOff(on, "Scheduled Injection Armed", "Scheduled Injection Disarmed")
	case ModeCloud:
		flag, category, kind = &s.Modes.Cloud, CategoryEnvironment, "Weather"
		details = onOff(on, "Cloud Front Detected", "Clear Sky")
	case ModeAutoTap:
		flag, category, kind = &s.Modes.AutoTap, CategoryControl, "AVR"
		details = onOff(on, "Automatic Tap Control", "Manual Tap Control")
	case ModeAutoPF:
		flag, category, kind = &s.Modes.AutoPF, CategoryControl, "APFC"
		details = onOff(on, "Automatic Power Factor Correction", "Manual Capacitor Control")
	case ModeHarmonics:
		flag, category, kind = &s.Modes.Harmonics, CategoryControl, "Harmonics"
		details = onOff(on, "Harmonic Injection On", "Harmonic Injection Off")
	case ModeFilter:
		if on && !s.Modes.Harmonics && !s.Fault.At(s.Bus) {
			return ErrFilterNoInput
		}
		flag, category, kind = &s.Modes.Filter, CategoryControl, "Filter"
		details = onOff(on, "Active Filter Engaged", "Active Filter Bypassed")
	default:
		return fmt.Errorf("unknown mode %q", m)
	}

	if *flag != on {
		*flag = on
		s.Events.Add(category, kind, details)
	}
	return nil
}

func onOff(on bool, ifOn, ifOff string) string {
	if on {
		return ifOn
	}
	return ifOff
}

// SetTap moves the tap changer to an operator position.
func (s *State) SetTap(position float64) error {
	if err := s.Tap.Set(position); err != nil {
		return err
	}
	s.Events.Add(CategoryControl, "Tap", fmt.Sprintf("Tap set to %.3f pu", position))
	return nil
}

// SetCapacitor switches the capacitor bank to an operator value.
func (s *State) SetCapacitor(kvar float64) error {
	if err := s.Capacitor.Set(kvar); err != nil {
		return err
	}
	s.Events.Add(CategoryControl, "Capacitor", fmt.Sprintf("Capacitor bank set to %.0f kvar", kvar))
	return nil
}

// SetSetpoint changes the HVAC thermostat.
func (s *State) SetSetpoint(c float64) error {
	if err := s.Zone.SetSetpoint(c); err != nil {
		return err
	}
	s.Events.Add(CategoryEnvironment, "HVAC", fmt.Sprintf("Setpoint %.1f °C", c))
	return nil
}

// SetSpeed changes the simulated seconds per tick.
func (s *State) SetSpeed(speed float64) error {
	if speed <= 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return fmt.Errorf("speed %v must be positive", speed)
	}
	s.Speed = speed
	return nil
}

// SetBus changes the observed bus.
func (s *State) SetBus(bus topology.BusID) error {
	if !s.feeder.Has(bus) {
		return fmt.Errorf("unknown bus %s", bus)
	}
	s.Bus = bus
	return nil
}

// Restart is a hard reset: the grid, protection, battery, tick counter and
// plot histories return to their starting values, the attack is stopped and
// the event log is cleared.
func (s *State) Restart() error {
	if err := s.reset(); err != nil {
		return err
	}
	s.Events.Clear()
	s.Events.Add(CategorySystem, "Reset", "Hard Reboot Initiated")
	return nil
}
