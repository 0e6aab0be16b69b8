package appointments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/healthcareplus/echannelling/internal/calendar"
	"github.com/healthcareplus/echannelling/pkg/logging"
)

var appointmentsTracer = otel.Tracer("echannelling.internal.appointments")

// ReferencePrefix starts every booking reference.
const ReferencePrefix = "ECH-"

// NewReference returns a short booking reference such as ECH-3F9A1C07.
func NewReference() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return ReferencePrefix + strings.ToUpper(raw[:8])
}

// BookRequest is everything needed to confirm an appointment.
type BookRequest struct {
	DoctorID      string
	Date          calendar.Date
	Time          calendar.TimeOfDay
	PatientName   string
	PatientEmail  string
	PatientPhone  string
	NIC           string
	Notes         string
	PaymentMethod string
	Fee           int64
}

// Service books appointments.
type Service struct {
	repo   Repository
	logger *logging.Logger
}

// NewService constructs an appointments service.
func NewService(repo Repository, logger *logging.Logger) *Service {
	if repo == nil {
		panic("appointments: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Book confirms an appointment and assigns it a reference.
func (s *Service) Book(ctx context.Context, req BookRequest) (*Appointment, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("echannelling.doctor_id", req.DoctorID),
		attribute.String("echannelling.date", req.Date.String()),
		attribute.String("echannelling.time", req.Time.String()),
	)

	appt := &Appointment{
		ID:            uuid.NewString(),
		Reference:     NewReference(),
		DoctorID:      req.DoctorID,
		Date:          req.Date,
		Time:          req.Time,
		PatientName:   req.PatientName,
		PatientEmail:  req.PatientEmail,
		PatientPhone:  req.PatientPhone,
		NIC:           req.NIC,
		Notes:         req.Notes,
		PaymentMethod: req.PaymentMethod,
		Fee:           req.Fee,
		Status:        StatusConfirmed,
	}
	if err := s.repo.Create(ctx, appt); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("appointments: book: %w", err)
	}
	span.SetAttributes(attribute.String("echannelling.reference", appt.Reference))
	s.logger.Info("appointment booked",
		"reference", appt.Reference,
		"doctor_id", appt.DoctorID,
		"date", appt.Date.String(),
		"time", appt.Time.String(),
	)
	return appt, nil
}

// Get looks up an appointment by reference.
func (s *Service) Get(ctx context.Context, reference string) (*Appointment, error) {
	return s.repo.GetByReference(ctx, strings.ToUpper(strings.TrimSpace(reference)))
}

// ListByDoctor returns the doctor's appointments in [from, to].
func (s *Service) ListByDoctor(ctx context.Context, doctorID string, from, to calendar.Date) ([]Appointment, error) {
	return s.repo.ListByDoctor(ctx, doctorID, from, to)
}

// BookedTimes reports the doctor's taken slots in [from, to].
func (s *Service) BookedTimes(ctx context.Context, doctorID string, from, to calendar.Date) (calendar.Availability, error) {
	return s.repo.BookedTimes(ctx, doctorID, from, to)
}
