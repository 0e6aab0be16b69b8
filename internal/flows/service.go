// Package flows drives wizard sessions: every call loads a snapshot,
// applies one machine operation and writes the result back.
package flows

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/healthcareplus/echannelling/internal/calendar"
	"github.com/healthcareplus/echannelling/internal/doctors"
	"github.com/healthcareplus/echannelling/internal/observability/metrics"
	"github.com/healthcareplus/echannelling/internal/session"
	"github.com/healthcareplus/echannelling/internal/validation"
	"github.com/healthcareplus/echannelling/internal/wizard"
	"github.com/healthcareplus/echannelling/pkg/logging"
)

var flowsTracer = otel.Tracer("echannelling.internal.flows")

var (
	// ErrInvalidInput is returned for malformed requests (empty field names and the like).
	ErrInvalidInput = errors.New("flows: invalid input")

	// ErrNoDoctorSelected is returned by Slots before a doctor is chosen.
	ErrNoDoctorSelected = errors.New("flows: no doctor selected")

	// ErrDoctorUnavailable is returned when selecting a doctor who is not
	// taking appointments.
	ErrDoctorUnavailable = errors.New("flows: doctor is not accepting appointments")

	// ErrSubmitInProgress is returned while another request is submitting
	// the session.
	ErrSubmitInProgress = errors.New("flows: submission in progress")
)

// submitLease bounds how long a submission claim blocks other writers if
// the claiming request dies before releasing it.
const submitLease = 2 * time.Minute

// AvailabilitySource reports taken slots. A nil source means every slot is free.
type AvailabilitySource interface {
	BookedTimes(ctx context.Context, doctorID string, from, to calendar.Date) (calendar.Availability, error)
}

// Config wires a Service.
type Config struct {
	Registry     *wizard.Registry
	Sessions     session.Store
	Doctors      doctors.Directory
	Availability AvailabilitySource
	Submitter    wizard.Submitter
	Window       calendar.Window
	Metrics      *metrics.WizardMetrics
	Logger       *logging.Logger
}

// Service is the only caller of wizard.Machine.
type Service struct {
	registry     *wizard.Registry
	sessions     session.Store
	doctors      doctors.Directory
	availability AvailabilitySource
	submitter    wizard.Submitter
	window       calendar.Window
	metrics      *metrics.WizardMetrics
	logger       *logging.Logger
}

// NewService validates cfg and builds a Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Registry == nil {
		return nil, errors.New("flows: registry required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("flows: session store required")
	}
	if cfg.Doctors == nil {
		return nil, errors.New("flows: doctor directory required")
	}
	if cfg.Submitter == nil {
		return nil, errors.New("flows: submitter required")
	}
	if cfg.Window == (calendar.Window{}) {
		cfg.Window = cfg.Registry.SlotWindow()
	}
	if err := cfg.Window.Validate(); err != nil {
		return nil, fmt.Errorf("flows: %w", err)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Service{
		registry:     cfg.Registry,
		sessions:     cfg.Sessions,
		doctors:      cfg.Doctors,
		availability: cfg.Availability,
		submitter:    cfg.Submitter,
		window:       cfg.Window,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
	}, nil
}

// Start opens a new session at step 1.
func (s *Service) Start(ctx context.Context, t wizard.Type) (View, error) {
	m, err := wizard.New(s.registry, t)
	if err != nil {
		return View{}, err
	}
	rec, err := s.sessions.Create(ctx, m.Snapshot())
	if err != nil {
		return View{}, fmt.Errorf("flows: start: %w", err)
	}
	s.logger.Info("wizard started", "session_id", rec.ID, "wizard", t)
	return newView(rec, m), nil
}

// Get returns the current view of a session.
func (s *Service) Get(ctx context.Context, id string) (View, error) {
	rec, m, err := s.load(ctx, id)
	if err != nil {
		return View{}, err
	}
	return newView(rec, m), nil
}

// Discard drops a session, as when the user navigates away. A session that
// is being submitted is kept.
func (s *Service) Discard(ctx context.Context, id string) error {
	rec, err := s.sessions.Get(ctx, id)
	switch {
	case errors.Is(err, session.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("flows: discard: %w", err)
	case rec.Submitting(s.registry.Now()):
		return ErrSubmitInProgress
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("flows: discard: %w", err)
	}
	s.logger.Info("wizard discarded", "session_id", id)
	return nil
}

// SetFields stores every pair verbatim. Nothing is validated here.
func (s *Service) SetFields(ctx context.Context, id string, fields map[string]string) (View, error) {
	for name := range fields {
		if strings.TrimSpace(name) == "" {
			return View{}, fmt.Errorf("%w: empty field name", ErrInvalidInput)
		}
	}
	return s.mutate(ctx, id, func(m *wizard.Machine) error {
		for name, value := range fields {
			if err := m.SetField(name, value); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetSelection merges patch into the selection. A doctor id must exist in
// the directory.
func (s *Service) SetSelection(ctx context.Context, id string, patch wizard.SelectionPatch) (View, error) {
	if patch.DoctorID != nil && *patch.DoctorID != "" {
		doc, err := s.doctors.Get(ctx, *patch.DoctorID)
		if err != nil {
			return View{}, fmt.Errorf("flows: select doctor: %w", err)
		}
		if !doc.Available {
			return View{}, fmt.Errorf("%w: %s", ErrDoctorUnavailable, doc.ID)
		}
	}
	return s.mutate(ctx, id, func(m *wizard.Machine) error {
		return m.SetSelection(patch)
	})
}

// Advance runs the current step's gate. A failing gate is reported in the
// result with a nil error.
func (s *Service) Advance(ctx context.Context, id string) (View, validation.Result, error) {
	var (
		res  validation.Result
		step wizard.Step
	)
	view, err := s.mutate(ctx, id, func(m *wizard.Machine) error {
		step = m.Current()
		var err error
		res, err = m.Advance()
		return err
	})
	if err != nil {
		return View{}, validation.Result{}, err
	}
	outcome := metrics.OutcomeAdvanced
	if !res.OK {
		outcome = metrics.OutcomeRejected
		s.logger.Debug("step gate failed", "session_id", id, "wizard", view.Wizard, "step", step.Name, "errors", res.String())
	}
	s.metrics.ObserveTransition(string(view.Wizard), step.Name, outcome)
	return view, res, nil
}

// Retreat moves back one step.
func (s *Service) Retreat(ctx context.Context, id string) (View, error) {
	view, err := s.mutate(ctx, id, func(m *wizard.Machine) error {
		return m.Retreat()
	})
	if err == nil {
		s.metrics.ObserveTransition(string(view.Wizard), view.Step.Name, metrics.OutcomeRetreated)
	}
	return view, err
}

// JumpTo moves to step index if it is unlocked.
func (s *Service) JumpTo(ctx context.Context, id string, index int) (View, error) {
	var wt wizard.Type
	view, err := s.mutate(ctx, id, func(m *wizard.Machine) error {
		wt = m.Type()
		return m.JumpTo(index)
	})
	switch {
	case errors.Is(err, wizard.ErrStepLocked):
		s.metrics.ObserveTransition(string(wt), fmt.Sprint(index), metrics.OutcomeLocked)
	case err == nil:
		s.metrics.ObserveTransition(string(view.Wizard), view.Step.Name, metrics.OutcomeJumped)
	}
	return view, err
}

// Reset returns the session to its initial state.
func (s *Service) Reset(ctx context.Context, id string) (View, error) {
	view, err := s.mutate(ctx, id, func(m *wizard.Machine) error {
		m.Reset()
		return nil
	})
	if err == nil {
		s.metrics.ObserveTransition(string(view.Wizard), view.Step.Name, metrics.OutcomeReset)
	}
	return view, err
}

// SubmitResult is the outcome of Submit.
type SubmitResult struct {
	View       View              `json:"session"`
	Validation validation.Result `json:"validation"`
	Receipt    wizard.Receipt    `json:"receipt"`
}

// Submit hands the session to the submission collaborator. Gate failures
// are reported in the result; collaborator failures wrap
// wizard.ErrSubmissionFailed and leave the wizard state as it was.
//
// The session is claimed with a compare-and-set before the collaborator is
// called, so of two racing submits only one reaches the backend; the other
// gets session.ErrConflict or ErrSubmitInProgress.
func (s *Service) Submit(ctx context.Context, id string) (SubmitResult, error) {
	ctx, span := flowsTracer.Start(ctx, "flows.submit")
	defer span.End()
	span.SetAttributes(attribute.String("echannelling.session_id", id))

	var out SubmitResult
	rec, m, err := s.load(ctx, id)
	if err != nil {
		span.RecordError(err)
		return out, err
	}
	wt := m.Type()
	span.SetAttributes(attribute.String("echannelling.wizard", string(wt)))
	if rec.Submitting(s.registry.Now()) {
		s.logger.Warn("wizard operation refused", "session_id", id, "wizard", wt, "error", ErrSubmitInProgress)
		return out, ErrSubmitInProgress
	}

	res, err := m.Ready()
	if err != nil {
		s.logger.Warn("wizard operation refused", "session_id", id, "wizard", wt, "step", m.State().CurrentStep, "error", err)
		span.RecordError(err)
		return out, err
	}
	if !res.OK {
		out.Validation = res
		out.View = newView(rec, m)
		s.metrics.ObserveSubmission(string(wt), "invalid", -1)
		return out, nil
	}

	rec.SubmittingUntil = s.registry.Now().Add(submitLease).UTC()
	claimed, err := s.sessions.Save(ctx, rec)
	if err != nil {
		if errors.Is(err, session.ErrConflict) {
			s.logger.Warn("session changed concurrently", "session_id", id)
		}
		span.RecordError(err)
		return out, err
	}

	started := time.Now()
	receipt, res, subErr := m.Submit(ctx, s.submitter)
	elapsed := time.Since(started)
	out.Receipt = receipt
	out.Validation = res

	// Release the claim even if the caller has gone away.
	claimed.SubmittingUntil = time.Time{}
	if subErr == nil {
		claimed.Snapshot = m.Snapshot()
	}
	saved, saveErr := s.sessions.Save(context.WithoutCancel(ctx), claimed)

	if subErr != nil {
		span.RecordError(subErr)
		if errors.Is(subErr, wizard.ErrSubmissionFailed) {
			s.metrics.ObserveSubmission(string(wt), "failed", elapsed.Seconds())
			s.logger.Error("wizard submission failed", "session_id", id, "wizard", wt, "error", subErr)
		}
		if saveErr != nil {
			s.logger.Error("submission claim not released", "session_id", id, "error", saveErr)
		}
		return out, subErr
	}
	s.metrics.ObserveSubmission(string(wt), "success", elapsed.Seconds())
	span.SetAttributes(attribute.String("echannelling.reference", receipt.Reference))
	if saveErr != nil {
		span.RecordError(saveErr)
		s.logger.Error("wizard submitted but session not updated", "session_id", id, "wizard", wt, "reference", receipt.Reference, "error", saveErr)
		return out, fmt.Errorf("flows: record submission %s: %w", receipt.Reference, saveErr)
	}
	out.View = newView(saved, m)
	s.logger.Info("wizard submitted", "session_id", id, "wizard", wt, "reference", receipt.Reference)
	return out, nil
}

// Summary projects the session onto its confirmation view.
func (s *Service) Summary(ctx context.Context, id string) (wizard.Summary, error) {
	_, m, err := s.load(ctx, id)
	if err != nil {
		return wizard.Summary{}, err
	}
	st := m.State()
	var info *wizard.DoctorInfo
	if docID := st.Selection.DoctorID; docID != "" {
		doc, err := s.doctors.Get(ctx, docID)
		switch {
		case err == nil:
			info = &wizard.DoctorInfo{Name: doc.Name, Specialty: doc.Specialty, Fee: doc.Fee}
		case errors.Is(err, doctors.ErrNotFound):
		default:
			return wizard.Summary{}, fmt.Errorf("flows: summary doctor: %w", err)
		}
	}
	lookup := func(string) (wizard.DoctorInfo, bool) {
		if info == nil {
			return wizard.DoctorInfo{}, false
		}
		return *info, true
	}
	return wizard.Summarize(m.Type(), st, lookup), nil
}

// Calendar builds the month grid for the session, flagging its selected date.
func (s *Service) Calendar(ctx context.Context, id string, year int, month time.Month) (calendar.Grid, error) {
	_, m, err := s.load(ctx, id)
	if err != nil {
		return calendar.Grid{}, err
	}
	today := calendar.DateOf(s.registry.Now())
	return calendar.MonthGrid(year, month, today, m.State().Selection.Date), nil
}

// Slots lists the selected doctor's slots on date.
func (s *Service) Slots(ctx context.Context, id string, date calendar.Date) ([]calendar.SlotCandidate, error) {
	_, m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	docID := m.State().Selection.DoctorID
	if docID == "" {
		return nil, ErrNoDoctorSelected
	}
	var booked calendar.Availability
	if s.availability != nil {
		booked, err = s.availability.BookedTimes(ctx, docID, date, date)
		if err != nil {
			return nil, fmt.Errorf("flows: availability: %w", err)
		}
	}
	return calendar.Slots(date, s.window, booked, s.registry.Now()), nil
}

func (s *Service) load(ctx context.Context, id string) (session.Record, *wizard.Machine, error) {
	rec, err := s.sessions.Get(ctx, id)
	if err != nil {
		return session.Record{}, nil, err
	}
	m, err := wizard.Restore(s.registry, rec.Snapshot)
	if err != nil {
		s.logger.Error("stored session is corrupt", "session_id", id, "error", err)
		return session.Record{}, nil, err
	}
	return rec, m, nil
}

// mutate applies fn to the session's machine and saves the result if the
// state changed. Misuse errors from the machine are logged at warn.
func (s *Service) mutate(ctx context.Context, id string, fn func(m *wizard.Machine) error) (View, error) {
	rec, m, err := s.load(ctx, id)
	if err != nil {
		return View{}, err
	}
	if rec.Submitting(s.registry.Now()) {
		s.logger.Warn("wizard operation refused", "session_id", id, "wizard", m.Type(), "error", ErrSubmitInProgress)
		return View{}, ErrSubmitInProgress
	}
	before := rec.Snapshot
	if err := fn(m); err != nil {
		if isMisuse(err) {
			s.logger.Warn("wizard operation refused", "session_id", id, "wizard", m.Type(), "step", m.State().CurrentStep, "error", err)
		}
		return View{}, err
	}
	after := m.Snapshot()
	if reflect.DeepEqual(normalize(before), normalize(after)) {
		return newView(rec, m), nil
	}
	rec.Snapshot = after
	saved, err := s.sessions.Save(ctx, rec)
	if err != nil {
		if errors.Is(err, session.ErrConflict) {
			s.logger.Warn("session changed concurrently", "session_id", id)
		}
		return View{}, err
	}
	return newView(saved, m), nil
}

func isMisuse(err error) bool {
	return errors.Is(err, wizard.ErrStepLocked) ||
		errors.Is(err, wizard.ErrStepNotFound) ||
		errors.Is(err, wizard.ErrSubmitted)
}

// normalize makes nil and empty collections compare equal.
func normalize(snap wizard.Snapshot) wizard.Snapshot {
	st := snap.State.Clone()
	return wizard.Snapshot{Wizard: snap.Wizard, State: st}
}
