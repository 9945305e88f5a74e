package anomaly

import "errors"

// Window is the repeating activation schedule shared by all anomaly types:
// StartDelay seconds of inactivity followed by Duration seconds of activity,
// repeated Repeats times (0 repeats forever). A zero Duration keeps the
// window open indefinitely once the delay has passed.
type Window struct {
	StartDelay float64
	Duration   float64
	Repeats    uint64
	Off        bool

	delayIndex   int    // steps spent waiting in the current delay
	elapsedIndex int    // steps spent inside the current window
	completed    uint64 // windows finished so far
}

func newWindow(startDelay, duration float64, repeats uint64, off bool) (Window, error) {
	if startDelay < 0 {
		return Window{}, errors.New("start delay must be greater than or equal to 0")
	}
	if duration < 0 {
		return Window{}, errors.New("duration must be greater than or equal to 0")
	}
	return Window{StartDelay: startDelay, Duration: duration, Repeats: repeats, Off: off}, nil
}

// Completed returns the number of finished windows.
func (w Window) Completed() uint64 {
	return w.completed
}

// Exhausted reports whether every repeat has run.
func (w Window) Exhausted() bool {
	return w.Repeats != 0 && w.completed >= w.Repeats
}

// open advances the schedule by one step and reports whether the window is
// open, along with the time elapsed since it opened.
func (w *Window) open(ts float64) (float64, bool) {
	if w.Off || w.Exhausted() {
		return 0, false
	}
	if w.delayIndex < int(w.StartDelay/ts) {
		w.delayIndex++
		return 0, false
	}

	elapsed := float64(w.elapsedIndex) * ts
	w.elapsedIndex++
	if w.Duration > 0 && w.elapsedIndex >= int(w.Duration/ts) {
		w.elapsedIndex = 0
		w.delayIndex = 0
		w.completed++
	}
	return elapsed, true
}
