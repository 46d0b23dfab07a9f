// Package window holds the date arithmetic shared by licensing, navigation
// and invites. Every function takes the current time as an argument.
package window

import (
	"time"
)

// Window is a closed interval. A nil bound is unbounded on that side.
type Window struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// Defined reports whether at least one bound is configured
func (w Window) Defined() bool {
	return w.Start != nil || w.End != nil
}

// Contains reports whether now lies inside the window
func (w Window) Contains(now time.Time) bool {
	return IsNowWithin(w.Start, w.End, now)
}

// IsNowWithin reports whether now lies in [start, end]. Boundary equality counts as within.
func IsNowWithin(start, end *time.Time, now time.Time) bool {
	if start != nil && now.Before(*start) {
		return false
	}
	if end != nil && now.After(*end) {
		return false
	}
	return true
}

// Union returns the widest window covering all inputs: the earliest non-nil
// start and the latest non-nil end. A side stays nil when no input defines it.
func Union(windows []Window) Window {
	var out Window
	for _, w := range windows {
		if w.Start != nil && (out.Start == nil || w.Start.Before(*out.Start)) {
			out.Start = ptr(*w.Start)
		}
		if w.End != nil && (out.End == nil || w.End.After(*out.End)) {
			out.End = ptr(*w.End)
		}
	}
	return out
}

// EarliestEnd returns the earlier of two ends, treating nil as unbounded
func EarliestEnd(a, b *time.Time) *time.Time {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return ptr(*b)
	case b == nil:
		return ptr(*a)
	case b.Before(*a):
		return ptr(*b)
	default:
		return ptr(*a)
	}
}

func ptr(t time.Time) *time.Time {
	return &t
}
