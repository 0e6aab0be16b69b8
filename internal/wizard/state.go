// Package wizard implements the gated multi-step flows behind appointment
// booking and patient registration. A Machine owns one State and is the
// only thing allowed to change it; everything else reads snapshots.
package wizard

import (
	"fmt"
	"slices"
	"strings"

	"github.com/healthcareplus/echannelling/internal/calendar"
)

// Type names a wizard flow.
type Type string

const (
	Booking      Type = "booking"
	Registration Type = "registration"
)

// ParseType maps user input onto a known wizard type.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case Booking:
		return Booking, nil
	case Registration:
		return Registration, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
}

// Status is the lifecycle position of a wizard.
type Status string

const (
	InProgress Status = "in_progress"
	Submitted  Status = "submitted"
)

// Selection is the doctor/date/time choice of the booking flow.
type Selection struct {
	DoctorID string              `json:"doctor_id,omitempty"`
	Date     *calendar.Date      `json:"date,omitempty"`
	Time     *calendar.TimeOfDay `json:"time,omitempty"`
}

func (s Selection) clone() Selection {
	out := Selection{DoctorID: s.DoctorID}
	if s.Date != nil {
		d := *s.Date
		out.Date = &d
	}
	if s.Time != nil {
		t := *s.Time
		out.Time = &t
	}
	return out
}

// SelectionPatch carries the members to overwrite; nil members are left alone.
type SelectionPatch struct {
	DoctorID *string             `json:"doctor_id,omitempty"`
	Date     *calendar.Date      `json:"date,omitempty"`
	Time     *calendar.TimeOfDay `json:"time,omitempty"`
}

// State is everything a wizard has accumulated.
type State struct {
	CurrentStep int               `json:"current_step"`
	Fields      map[string]string `json:"fields"`
	Selection   Selection         `json:"selection"`
	Completed   []int             `json:"completed_steps"`
	Status      Status            `json:"status"`
	Reference   string            `json:"reference,omitempty"`
}

func newState() State {
	return State{
		CurrentStep: 1,
		Fields:      map[string]string{},
		Completed:   []int{},
		Status:      InProgress,
	}
}

// Field returns the stored value of name.
func (s State) Field(name string) string {
	return s.Fields[name]
}

// IsCompleted reports whether step index has passed its gate.
func (s State) IsCompleted(index int) bool {
	_, found := slices.BinarySearch(s.Completed, index)
	return found
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Fields = make(map[string]string, len(s.Fields))
	for k, v := range s.Fields {
		out.Fields[k] = v
	}
	out.Completed = append([]int{}, s.Completed...)
	out.Selection = s.Selection.clone()
	return out
}

func (s *State) markCompleted(index int) {
	pos, found := slices.BinarySearch(s.Completed, index)
	if found {
		return
	}
	s.Completed = slices.Insert(s.Completed, pos, index)
}

// Snapshot is the serialisable hand-off between a Machine and storage.
type Snapshot struct {
	Wizard Type  `json:"wizard"`
	State  State `json:"state"`
}
