package wizard

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/healthcareplus/echannelling/internal/validation"
)

// Machine drives one wizard instance. It is not safe for concurrent use;
// callers own it for the duration of a single event.
type Machine struct {
	wizard   Type
	registry *Registry
	state    State
}

// New starts a wizard of type t at step 1 with empty state.
func New(registry *Registry, t Type) (*Machine, error) {
	if registry == nil {
		return nil, errors.New("wizard: registry required")
	}
	if registry.StepCount(t) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return &Machine{wizard: t, registry: registry, state: newState()}, nil
}

// Restore rebuilds a machine from a stored snapshot.
func Restore(registry *Registry, snap Snapshot) (*Machine, error) {
	m, err := New(registry, snap.Wizard)
	if err != nil {
		return nil, err
	}
	total := registry.StepCount(snap.Wizard)
	st := snap.State.Clone()
	if st.CurrentStep < 1 || st.CurrentStep > total {
		return nil, fmt.Errorf("%w: current step %d of %d", ErrInvalidSnapshot, st.CurrentStep, total)
	}
	for _, idx := range st.Completed {
		if idx < 1 || idx > total {
			return nil, fmt.Errorf("%w: completed step %d of %d", ErrInvalidSnapshot, idx, total)
		}
	}
	slices.Sort(st.Completed)
	st.Completed = slices.Compact(st.Completed)
	switch st.Status {
	case "":
		st.Status = InProgress
	case InProgress, Submitted:
	default:
		return nil, fmt.Errorf("%w: status %q", ErrInvalidSnapshot, st.Status)
	}
	m.state = st
	return m, nil
}

// Type returns the wizard type.
func (m *Machine) Type() Type { return m.wizard }

// State returns a copy of the current state.
func (m *Machine) State() State { return m.state.Clone() }

// Snapshot returns a copy suitable for storage.
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{Wizard: m.wizard, State: m.state.Clone()}
}

// StepCount returns the number of steps in this wizard.
func (m *Machine) StepCount() int { return m.registry.StepCount(m.wizard) }

// Current returns the step the wizard is on.
func (m *Machine) Current() Step {
	step, _ := m.registry.Step(m.wizard, m.state.CurrentStep)
	return step
}

// IsLast reports whether the wizard is on its final step.
func (m *Machine) IsLast() bool { return m.state.CurrentStep == m.StepCount() }

// Advance runs the current step's gate. A failing gate leaves the state
// untouched and is reported through the result, not the error. A passing
// gate marks the step complete and moves forward, staying put on the last step.
func (m *Machine) Advance() (validation.Result, error) {
	if err := m.ensureOpen(); err != nil {
		return validation.Result{}, err
	}
	step, err := m.registry.Step(m.wizard, m.state.CurrentStep)
	if err != nil {
		return validation.Result{}, err
	}
	res := step.Validate(m.state.Clone())
	if !res.OK {
		return res, nil
	}
	m.state.markCompleted(step.Index)
	if m.state.CurrentStep < m.StepCount() {
		m.state.CurrentStep++
	}
	return res, nil
}

// Retreat moves back one step without validating the step being left.
func (m *Machine) Retreat() error {
	if err := m.ensureOpen(); err != nil {
		return err
	}
	if m.state.CurrentStep > 1 {
		m.state.CurrentStep--
	}
	return nil
}

// SetField stores value under name verbatim. No validation runs here.
func (m *Machine) SetField(name, value string) error {
	if err := m.ensureOpen(); err != nil {
		return err
	}
	if name == "" {
		return errors.New("wizard: field name required")
	}
	m.state.Fields[name] = value
	return nil
}

// SetSelection merges the non-nil members of p into the selection.
func (m *Machine) SetSelection(p SelectionPatch) error {
	if err := m.ensureOpen(); err != nil {
		return err
	}
	if p.DoctorID != nil {
		m.state.Selection.DoctorID = *p.DoctorID
	}
	if p.Date != nil {
		d := *p.Date
		m.state.Selection.Date = &d
	}
	if p.Time != nil {
		t := *p.Time
		m.state.Selection.Time = &t
	}
	return nil
}

// JumpTo moves to index if it is at or behind the current step, or if
// the step before it has been completed.
func (m *Machine) JumpTo(index int) error {
	if err := m.ensureOpen(); err != nil {
		return err
	}
	if _, err := m.registry.Step(m.wizard, index); err != nil {
		return err
	}
	if index > m.state.CurrentStep && !m.state.IsCompleted(index-1) {
		return fmt.Errorf("%w: step %d requires step %d", ErrStepLocked, index, index-1)
	}
	m.state.CurrentStep = index
	return nil
}

// Reset discards everything and returns to step 1, including from Submitted.
func (m *Machine) Reset() {
	m.state = newState()
}

// Ready reports whether Submit would call the submitter: the wizard must be
// open, on its last step, and pass every gate. A failing result comes back
// with a nil error.
func (m *Machine) Ready() (validation.Result, error) {
	if err := m.ensureOpen(); err != nil {
		return validation.Result{}, err
	}
	if !m.IsLast() {
		return validation.Result{}, fmt.Errorf("%w: submit from step %d of %d", ErrStepLocked, m.state.CurrentStep, m.StepCount())
	}
	res := validation.Valid()
	for _, step := range m.registry.Steps(m.wizard) {
		res.Merge(step.Validate(m.state.Clone()))
	}
	return res, nil
}

// Submit hands the accumulated state to s from the last step. Every gate is
// re-run first; a failing result is returned without calling s. A failed
// submission leaves the state exactly as it was so the caller can retry.
// A successful one drops the plaintext password fields.
func (m *Machine) Submit(ctx context.Context, s Submitter) (Receipt, validation.Result, error) {
	if s == nil {
		return Receipt{}, validation.Result{}, errors.New("wizard: submitter required")
	}
	res, err := m.Ready()
	if err != nil || !res.OK {
		return Receipt{}, res, err
	}

	payload := Payload{
		Wizard:    m.wizard,
		Fields:    m.state.Clone().Fields,
		Selection: m.state.Selection.clone(),
	}
	receipt, err := s.Submit(ctx, payload)
	if err != nil {
		return receipt, res, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}
	if !receipt.Success {
		reason := receipt.Error
		if reason == "" {
			reason = "rejected by backend"
		}
		return receipt, res, fmt.Errorf("%w: %s", ErrSubmissionFailed, reason)
	}

	m.state.markCompleted(m.state.CurrentStep)
	m.state.Status = Submitted
	m.state.Reference = receipt.Reference
	delete(m.state.Fields, FieldPassword)
	delete(m.state.Fields, FieldConfirmPassword)
	return receipt, res, nil
}

func (m *Machine) ensureOpen() error {
	if m.state.Status == Submitted {
		return ErrSubmitted
	}
	return nil
}
