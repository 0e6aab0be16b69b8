package calendar

import (
	"errors"
	"time"
)

// ErrInvalidWindow is returned when a booking window cannot produce slots.
var ErrInvalidWindow = errors.New("calendar: invalid slot window")

// Window is the bookable part of a day. End is exclusive.
type Window struct {
	Start    TimeOfDay     `json:"start"`
	End      TimeOfDay     `json:"end"`
	Interval time.Duration `json:"interval"`
}

// DefaultWindow is 09:00-17:00 in 30 minute steps.
func DefaultWindow() Window {
	return Window{
		Start:    TimeOfDay{Hour: 9},
		End:      TimeOfDay{Hour: 17},
		Interval: 30 * time.Minute,
	}
}

// Validate checks that the window yields at least one slot.
func (w Window) Validate() error {
	if w.Interval < time.Minute {
		return ErrInvalidWindow
	}
	if !w.Start.Before(w.End) {
		return ErrInvalidWindow
	}
	return nil
}

// Times lists the slot start times within the window.
func (w Window) Times() []TimeOfDay {
	if w.Validate() != nil {
		return nil
	}
	step := int(w.Interval / time.Minute)
	var out []TimeOfDay
	for m := w.Start.Minutes(); m < w.End.Minutes(); m += step {
		out = append(out, TimeOfDay{Hour: m / 60, Minute: m % 60})
	}
	return out
}

// Contains reports whether t is one of the window's slot times.
func (w Window) Contains(t TimeOfDay) bool {
	for _, candidate := range w.Times() {
		if candidate == t {
			return true
		}
	}
	return false
}

// TimeSet is a set of times on one day.
type TimeSet map[TimeOfDay]struct{}

// Availability maps a date to its booked or blocked times.
// A nil Availability means everything is free.
type Availability map[Date]TimeSet

// Block marks t on d as taken.
func (a Availability) Block(d Date, t TimeOfDay) {
	set, ok := a[d]
	if !ok {
		set = TimeSet{}
		a[d] = set
	}
	set[t] = struct{}{}
}

// IsBooked reports whether t on d is taken.
func (a Availability) IsBooked(d Date, t TimeOfDay) bool {
	if a == nil {
		return false
	}
	_, ok := a[d][t]
	return ok
}

// SlotCandidate is one selectable time on a date.
type SlotCandidate struct {
	Date      Date      `json:"date"`
	Time      TimeOfDay `json:"time"`
	Available bool      `json:"available"`
}

// Slots lists the window's candidates for date. A candidate is unavailable
// when booked or when it does not start after now; now is read in its own
// location, which should be the clinic's.
func Slots(date Date, w Window, booked Availability, now time.Time) []SlotCandidate {
	times := w.Times()
	if len(times) == 0 {
		return nil
	}
	today := DateOf(now)
	current := TimeOf(now)

	out := make([]SlotCandidate, 0, len(times))
	for _, t := range times {
		available := !booked.IsBooked(date, t)
		switch {
		case date.Before(today):
			available = false
		case date == today && !current.Before(t):
			available = false
		}
		out = append(out, SlotCandidate{Date: date, Time: t, Available: available})
	}
	return out
}
