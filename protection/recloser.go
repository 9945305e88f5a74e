package protection

// State is the recloser position.
type State int

const (
	Closed State = iota
	Tripped
	Waiting
	Reclose
	Lockout
)

var stateNames = [...]string{
	Closed:  "CLOSED",
	Tripped: "TRIPPED",
	Waiting: "WAITING",
	Reclose: "RECLOSE",
	Lockout: "LOCKOUT",
}

func (s State) String() string {
	if s < Closed || s > Lockout {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Open reports whether the recloser contacts are open in this state.
func (s State) Open() bool {
	return s == Tripped || s == Waiting || s == Lockout
}

// DefaultReclosePause is the number of WAITING ticks tolerated before the
// reclose attempt; the attempt happens once the timer exceeds it.
const DefaultReclosePause = 5

// Outcome reports what a recloser step did, for the event log.
type Outcome int

const (
	NoChange Outcome = iota
	Trip
	RecloseSucceeded
	RecloseFailed
)

// Recloser is a single-shot auto-recloser:
//
//	CLOSED --fault--> TRIPPED --> WAITING --timer>pause--> RECLOSE --fault--> LOCKOUT
//	                                                              \--clear--> CLOSED
//
// LOCKOUT holds until Reset.
type Recloser struct {
	State     State
	Timer     int
	RelayTrip bool
	Pause     int
}

// NewRecloser returns a closed recloser with the default pause.
func NewRecloser() *Recloser {
	return &Recloser{Pause: DefaultReclosePause}
}

// Step evaluates one tick of the state machine.
func (r *Recloser) Step(faultActive bool) Outcome {
	switch r.State {
	case Closed:
		if faultActive {
			r.State = Tripped
			r.RelayTrip = true
			r.Timer = 0
			return Trip
		}
	case Tripped:
		r.State = Waiting
	case Waiting:
		r.Timer++
		if r.Timer > r.Pause {
			r.State = Reclose
		}
	case Reclose:
		r.RelayTrip = false
		if faultActive {
			r.State = Lockout
			r.RelayTrip = true
			return RecloseFailed
		}
		r.State = Closed
		return RecloseSucceeded
	case Lockout:
		r.RelayTrip = true
	}
	return NoChange
}

// Reset is the operator's manual reset out of any state, normally LOCKOUT.
func (r *Recloser) Reset() {
	r.State = Closed
	r.RelayTrip = false
	r.Timer = 0
}
