package wizard

import (
	"fmt"
	"time"

	"github.com/healthcareplus/echannelling/internal/calendar"
	"github.com/healthcareplus/echannelling/internal/validation"
)

// Step is one gated screen of a wizard.
type Step struct {
	Index          int
	Name           string
	RequiredFields []string
	Validate       func(State) validation.Result
}

// Options tunes the step gates.
type Options struct {
	// MinPatientAge is the minimum age accepted at registration. Zero means 18.
	MinPatientAge int
	// RequireStrongPassword turns the strength meter into a hard gate (score >= 3).
	RequireStrongPassword bool
	// Now supplies the clock for age and past-date checks. Nil means time.Now.
	Now func() time.Time
	// Location is the clinic time zone used to decide "today". Nil means UTC.
	Location *time.Location
	// SlotWindow bounds the appointment times the schedule step accepts.
	// The zero value means calendar.DefaultWindow.
	SlotWindow calendar.Window
}

// DefaultMinPatientAge applies when Options.MinPatientAge is zero.
const DefaultMinPatientAge = 18

// StrongPasswordScore is the minimum strength score when passwords are gated.
const StrongPasswordScore = 3

// Registry holds the immutable step lists of every wizard type.
type Registry struct {
	opts  Options
	steps map[Type][]Step
}

// NewRegistry builds the booking and registration step lists.
func NewRegistry(opts Options) *Registry {
	if opts.MinPatientAge <= 0 {
		opts.MinPatientAge = DefaultMinPatientAge
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.SlotWindow == (calendar.Window{}) {
		opts.SlotWindow = calendar.DefaultWindow()
	}
	r := &Registry{opts: opts}
	r.steps = map[Type][]Step{
		Booking:      r.bookingSteps(),
		Registration: r.registrationSteps(),
	}
	return r
}

// Step returns step index of wizard t.
func (r *Registry) Step(t Type, index int) (Step, error) {
	steps, ok := r.steps[t]
	if !ok {
		return Step{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	if index < 1 || index > len(steps) {
		return Step{}, fmt.Errorf("%w: %s step %d of %d", ErrStepNotFound, t, index, len(steps))
	}
	return steps[index-1], nil
}

// StepCount returns the number of steps of t, or 0 for an unknown type.
func (r *Registry) StepCount(t Type) int {
	return len(r.steps[t])
}

// Steps returns a copy of the step list of t.
func (r *Registry) Steps(t Type) []Step {
	return append([]Step(nil), r.steps[t]...)
}

// Now returns the registry clock in the clinic location.
func (r *Registry) Now() time.Time {
	return r.opts.Now().In(r.opts.Location)
}

// Location returns the clinic time zone.
func (r *Registry) Location() *time.Location {
	return r.opts.Location
}

// SlotWindow returns the bookable slot window.
func (r *Registry) SlotWindow() calendar.Window {
	return r.opts.SlotWindow
}

// MinPatientAge returns the configured registration age floor.
func (r *Registry) MinPatientAge() int {
	return r.opts.MinPatientAge
}

func requireAll(s State, fields ...string) validation.Result {
	res := validation.Valid()
	for _, f := range fields {
		res.Merge(validation.Required(f, s.Field(f)))
	}
	return res
}

// check runs fn only when field is present, so a missing value reports once.
func check(s State, field string, fn func(string, string) validation.Result) validation.Result {
	v := s.Field(field)
	if !validation.Required(field, v).OK {
		return validation.Valid()
	}
	return fn(field, v)
}
