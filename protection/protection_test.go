package protection

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTripTime(t *testing.T) {
	_, ok := TripTime(1.0, DefaultTMS)
	assert.False(t, ok)

	_, ok = TripTime(0.3, DefaultTMS)
	assert.False(t, ok)

	got, ok := TripTime(5.0, DefaultTMS)
	assert.True(t, ok)
	assert.InDelta(t, 0.5*0.14/(math.Pow(5, 0.02)-1), got, 1e-12)

	// denominator below 1e-5 is clamped
	got, ok = TripTime(1.0000001, DefaultTMS)
	assert.True(t, ok)
	assert.Equal(t, MaxTripTime, got)
}

func TestTripTimeDecreasesWithCurrent(t *testing.T) {
	prev := math.Inf(1)
	for _, i := range []float64{1.5, 2, 5, 10, 20} {
		got, ok := TripTime(i, DefaultTMS)
		assert.True(t, ok)
		assert.Less(t, got, prev, "current %v", i)
		prev = got
	}
}

func TestRelayIntegrateAndDecay(t *testing.T) {
	r := NewRelay(DefaultTMS)

	assert.False(t, r.Integrate(0.8, 1.0))
	assert.Equal(t, 0.0, r.Accumulator)

	tt, _ := TripTime(5.0, DefaultTMS)
	assert.True(t, r.Integrate(5.0, 1.0))
	assert.InDelta(t, 100/tt, r.Accumulator, 1e-9)

	for i := 0; i < 100; i++ {
		r.Integrate(5.0, 1.0)
	}
	assert.Equal(t, RelayFull, r.Accumulator)
	assert.True(t, r.Tripped())
	assert.Equal(t, 100, r.Percent())

	r.Decay()
	assert.Equal(t, 95.0, r.Accumulator)
	for i := 0; i < 50; i++ {
		r.Decay()
	}
	assert.Equal(t, 0.0, r.Accumulator)
}

func TestRelayStatus(t *testing.T) {
	assert.Equal(t, "MONITORING", RelayStatus(false, false, false, 0))
	assert.Equal(t, "FAULT DETECTED", RelayStatus(true, false, false, 0))
	assert.Equal(t, "TRIP CURVE: 42%", RelayStatus(true, true, false, 42))
	assert.Equal(t, "TRIP", RelayStatus(true, true, true, 100))
}

func TestRecloserLocksOutOnPersistentFault(t *testing.T) {
	r := NewRecloser()
	r.Timer = 17

	assert.Equal(t, Trip, r.Step(true))
	assert.Equal(t, Tripped, r.State)
	assert.Equal(t, 0, r.Timer)
	assert.True(t, r.RelayTrip)

	assert.Equal(t, NoChange, r.Step(true))
	assert.Equal(t, Waiting, r.State)
	assert.True(t, r.RelayTrip)

	for timer := 1; timer <= 6; timer++ {
		r.Step(true)
		assert.Equal(t, timer, r.Timer)
		assert.True(t, r.RelayTrip)
		if timer <= 5 {
			assert.Equal(t, Waiting, r.State, "timer %d", timer)
		}
	}
	assert.Equal(t, Reclose, r.State)

	assert.Equal(t, RecloseFailed, r.Step(true))
	assert.Equal(t, Lockout, r.State)
	assert.True(t, r.RelayTrip)

	// lockout holds even after the fault clears
	for i := 0; i < 20; i++ {
		assert.Equal(t, NoChange, r.Step(i%2 == 0))
		assert.Equal(t, Lockout, r.State)
		assert.True(t, r.RelayTrip)
	}

	r.Reset()
	assert.Equal(t, Closed, r.State)
	assert.False(t, r.RelayTrip)
}

func TestRecloserSuccessfulReclose(t *testing.T) {
	r := NewRecloser()

	r.Step(true) // trip
	r.Step(false)
	for r.State == Waiting {
		r.Step(false)
	}
	assert.Equal(t, Reclose, r.State)

	assert.Equal(t, RecloseSucceeded, r.Step(false))
	assert.Equal(t, Closed, r.State)
	assert.False(t, r.RelayTrip)

	assert.Equal(t, NoChange, r.Step(false))
	assert.Equal(t, Closed, r.State)
}

func TestRecloserTimerResetsOnEveryTrip(t *testing.T) {
	r := NewRecloser()
	for episode := 0; episode < 3; episode++ {
		r.Step(true)
		assert.Equal(t, Tripped, r.State)
		assert.Equal(t, 0, r.Timer)
		for r.State != Reclose {
			r.Step(false)
		}
		r.Step(false)
		assert.Equal(t, Closed, r.State)
	}
}

func TestStateStrings(t *testing.T) {
	for s, want := range map[State]string{
		Closed: "CLOSED", Tripped: "TRIPPED", Waiting: "WAITING", Reclose: "RECLOSE", Lockout: "LOCKOUT", State(9): "UNKNOWN",
	} {
		t.Run(fmt.Sprint(want), func(t *testing.T) {
			assert.Equal(t, want, s.String())
		})
	}
	assert.True(t, Lockout.Open())
	assert.False(t, Reclose.Open())
	assert.False(t, Closed.Open())
}
