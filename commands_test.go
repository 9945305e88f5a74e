package feedersim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synaptecltd/feedersim/fault"
	"github.com/synaptecltd/feedersim/protection"
)

func TestInjectFault(t *testing.T) {
	s := createState(t, nil)

	assert.Error(t, s.InjectFault("bus9999", fault.LG))
	assert.Error(t, s.InjectFault("bus1005", fault.Type(42)))
	assert.False(t, s.Fault.Active)

	require.NoError(t, s.InjectFault("bus1005", fault.LL))
	assert.True(t, s.Fault.Active)
	assert.Equal(t, fault.DefaultImpedance(fault.LL), s.Fault.Impedance)
	assert.ErrorIs(t, s.InjectFault("bus1010", fault.LG), ErrFaultActive)

	e := s.Events.Events("")[0]
	assert.Equal(t, CategoryContingency, e.Category)
	assert.Equal(t, "Injected: L-L (Line-to-Line) at bus1005", e.Details)
}

func TestForceClear(t *testing.T) {
	s := createState(t, nil)
	assert.ErrorIs(t, s.ForceClear(), ErrNoFault)

	require.NoError(t, s.InjectFault("bus2025", fault.LLL))
	Tick(s, steady)
	Tick(s, steady)
	require.Equal(t, protection.Waiting, s.Recloser.State)

	require.NoError(t, s.ForceClear())
	assert.False(t, s.Fault.Active)
	assert.Equal(t, protection.Closed, s.Recloser.State)
	assert.False(t, s.Recloser.RelayTrip)
	assert.Equal(t, "Fault Cleared by Operator", s.Events.Events(CategoryRestoration)[0].Details)
}

func TestResetRecloserNeedsLockout(t *testing.T) {
	s := createState(t, nil)
	assert.ErrorIs(t, s.ResetRecloser(), ErrNotLockedOut)
}

func TestSetMode(t *testing.T) {
	s := createState(t, nil)

	assert.Error(t, s.SetMode(Mode("turbo"), true))
	assert.ErrorIs(t, s.SetMode(ModeFilter, true), ErrFilterNoInput)

	require.NoError(t, s.SetMode(ModeCloud, true))
	require.NoError(t, s.SetMode(ModeCloud, true))
	assert.True(t, s.Modes.Cloud)
	weather := s.Events.Events(CategoryEnvironment)
	require.Len(t, weather, 1, "only changes are logged")
	assert.Equal(t, "Cloud Front Detected", weather[0].Details)

	require.NoError(t, s.SetMode(ModeCloud, false))
	assert.Equal(t, "Clear Sky", s.Events.Events(CategoryEnvironment)[0].Details)

	for _, m := range []Mode{ModeAttack, ModeAutoAttack, ModeAutoTap, ModeAutoPF, ModeHarmonics, ModeFilter} {
		require.NoError(t, s.SetMode(m, true), m)
	}
	assert.Equal(t, Modes{
		Attack:     true,
		AutoAttack: true,
		AutoTap:    true,
		AutoPF:     true,
		Harmonics:  true,
		Filter:     true,
	}, s.Modes)
	assert.Len(t, s.Events.Events(CategoryCyber), 2)
}

func TestModeUnmarshalText(t *testing.T) {
	var m Mode
	require.NoError(t, m.UnmarshalText([]byte("auto_pf")))
	assert.Equal(t, ModeAutoPF, m)
	assert.Error(t, m.UnmarshalText([]byte("AUTO_PF")))
}

func TestOperatorSettings(t *testing.T) {
	s := createState(t, nil)

	assert.Error(t, s.SetTap(1.2))
	require.NoError(t, s.SetTap(1.05))
	assert.Equal(t, 1.05, s.Tap.Position)

	assert.Error(t, s.SetCapacitor(30))
	assert.Error(t, s.SetCapacitor(225))
	require.NoError(t, s.SetCapacitor(75))
	assert.Equal(t, 3, s.Capacitor.Steps())

	assert.Error(t, s.SetSetpoint(40))
	require.NoError(t, s.SetSetpoint(20))
	assert.Equal(t, 20.0, s.Zone.SetpointC)

	assert.Error(t, s.SetSpeed(0))
	require.NoError(t, s.SetSpeed(2))
	assert.Equal(t, 2.0, s.Speed)

	assert.Error(t, s.SetBus("bus9999"))
	require.NoError(t, s.SetBus("bus1005"))
	assert.Equal(t, "bus1005", string(Tick(s, steady).Bus))

	assert.Len(t, s.Events.Events(CategoryControl), 2)
}

func TestRestart(t *testing.T) {
	s := createState(t, nil)
	require.NoError(t, s.SetMode(ModeAttack, true))
	require.NoError(t, s.SetMode(ModeCloud, true))
	require.NoError(t, s.SetTap(1.05))
	require.NoError(t, s.InjectFault("bus2025", fault.LG))
	for i := 0; i < 10; i++ {
		Tick(s, steady)
	}
	require.Equal(t, protection.Lockout, s.Recloser.State)

	require.NoError(t, s.Restart())

	assert.Zero(t, s.Index)
	assert.False(t, s.Fault.Active)
	assert.Equal(t, protection.Closed, s.Recloser.State)
	assert.Zero(t, s.Relay.Accumulator)
	assert.Equal(t, 50.0, s.Grid.FrequencyHz)
	assert.Equal(t, 50.0, s.Battery.SoC)
	assert.False(t, s.Modes.Attack)
	assert.True(t, s.Modes.Cloud, "weather is not reset")
	assert.Equal(t, 1.05, s.Tap.Position, "controls are not reset")
	assert.Equal(t, 1.0, s.History.Measured.Last())

	events := s.Events.Events("")
	require.Len(t, events, 1)
	assert.Equal(t, "Hard Reboot Initiated", events[0].Details)
}
