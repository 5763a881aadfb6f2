package reminder

import (
	"fmt"
	"time"
)

// Label names an alert window, e.g. "30min".
type Label string

const (
	Label300Min Label = "300min"
	Label45Min  Label = "45min"
	Label30Min  Label = "30min"
	Label10Min  Label = "10min"
	LabelNow    Label = "now"
)

// Window fires when the whole minutes until the event fall in [Min, Max].
type Window struct {
	Label Label
	Min   int
	Max   int
}

func (w Window) Contains(minutes int) bool {
	return minutes >= w.Min && minutes <= w.Max
}

func (w Window) overlaps(o Window) bool {
	return w.Min <= o.Max && o.Min <= w.Max
}

// Windows is an ordered, non-overlapping set of windows for one event kind.
type Windows []Window

// NewWindows validates bounds, label uniqueness and that no two windows overlap.
func NewWindows(ws ...Window) (Windows, error) {
	for i, w := range ws {
		if w.Label == "" {
			return nil, fmt.Errorf("window %d has no label", i)
		}
		if w.Min > w.Max {
			return nil, fmt.Errorf("window %s: min %d greater than max %d", w.Label, w.Min, w.Max)
		}
		for _, prev := range ws[:i] {
			if prev.Label == w.Label {
				return nil, fmt.Errorf("duplicate window label %s", w.Label)
			}
			if prev.overlaps(w) {
				return nil, fmt.Errorf("windows %s and %s overlap", prev.Label, w.Label)
			}
		}
	}
	return Windows(ws), nil
}

// MustWindows panics on an invalid window set. Used for built-in defaults.
func MustWindows(ws ...Window) Windows {
	out, err := NewWindows(ws...)
	if err != nil {
		panic(err)
	}
	return out
}

// MinutesUntil is floor((at - now) / 1m).
func MinutesUntil(now, at time.Time) int {
	d := at.Sub(now)
	m := d / time.Minute
	if d < 0 && d%time.Minute != 0 {
		m--
	}
	return int(m)
}

// Classify returns the first window containing the minutes until at.
func Classify(now, at time.Time, ws Windows) (Label, bool) {
	minutes := MinutesUntil(now, at)
	for _, w := range ws {
		if w.Contains(minutes) {
			return w.Label, true
		}
	}
	return "", false
}

// Find returns the window with the given label.
func (ws Windows) Find(label Label) (Window, bool) {
	for _, w := range ws {
		if w.Label == label {
			return w, true
		}
	}
	return Window{}, false
}
