// Package submission hands finished wizards to whatever persists them:
// the local appointment and patient services, or the legacy PHP backend.
package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/healthcareplus/echannelling/internal/appointments"
	"github.com/healthcareplus/echannelling/internal/calendar"
	"github.com/healthcareplus/echannelling/internal/doctors"
	"github.com/healthcareplus/echannelling/internal/notify"
	"github.com/healthcareplus/echannelling/internal/patients"
	"github.com/healthcareplus/echannelling/internal/wizard"
	"github.com/healthcareplus/echannelling/pkg/logging"
)

// Local persists wizards through the in-process services.
type Local struct {
	doctors      doctors.Directory
	appointments *appointments.Service
	patients     *patients.Service
	notifier     *notify.Service
	logger       *logging.Logger
}

// NewLocal wires the local submitter. notifier may be nil.
func NewLocal(dir doctors.Directory, appts *appointments.Service, pats *patients.Service, notifier *notify.Service, logger *logging.Logger) *Local {
	if dir == nil || appts == nil || pats == nil {
		panic("submission: directory, appointments and patients required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Local{doctors: dir, appointments: appts, patients: pats, notifier: notifier, logger: logger}
}

// Submit implements wizard.Submitter. Business refusals come back as an
// unsuccessful receipt; infrastructure failures come back as errors.
func (l *Local) Submit(ctx context.Context, p wizard.Payload) (wizard.Receipt, error) {
	switch p.Wizard {
	case wizard.Booking:
		return l.submitBooking(ctx, p)
	case wizard.Registration:
		return l.submitRegistration(ctx, p)
	default:
		return wizard.Receipt{}, fmt.Errorf("submission: %w: %q", wizard.ErrUnknownType, p.Wizard)
	}
}

func (l *Local) submitBooking(ctx context.Context, p wizard.Payload) (wizard.Receipt, error) {
	sel := p.Selection
	if sel.DoctorID == "" || sel.Date == nil || sel.Time == nil {
		return wizard.Receipt{Success: false, Error: "incomplete selection"}, nil
	}
	doc, err := l.doctors.Get(ctx, sel.DoctorID)
	if errors.Is(err, doctors.ErrNotFound) {
		return wizard.Receipt{Success: false, Error: "doctor not found"}, nil
	}
	if err != nil {
		return wizard.Receipt{}, fmt.Errorf("submission: load doctor: %w", err)
	}

	f := p.Fields
	appt, err := l.appointments.Book(ctx, appointments.BookRequest{
		DoctorID:      doc.ID,
		Date:          *sel.Date,
		Time:          *sel.Time,
		PatientName:   strings.TrimSpace(f[wizard.FieldFirstName] + " " + f[wizard.FieldLastName]),
		PatientEmail:  f[wizard.FieldEmail],
		PatientPhone:  f[wizard.FieldPhone],
		NIC:           f[wizard.FieldNIC],
		Notes:         f[wizard.FieldNotes],
		PaymentMethod: f[wizard.FieldPaymentMethod],
		Fee:           doc.Fee,
	})
	if errors.Is(err, appointments.ErrSlotTaken) {
		return wizard.Receipt{Success: false, Error: "selected time is no longer available"}, nil
	}
	if err != nil {
		return wizard.Receipt{}, err
	}

	if err := l.notifier.BookingConfirmed(ctx, notify.BookingNotice{
		Reference:   appt.Reference,
		PatientName: appt.PatientName,
		Email:       appt.PatientEmail,
		DoctorName:  doc.Name,
		Specialty:   doc.Specialty,
		Hospital:    doc.Hospital,
		Date:        appt.Date.String(),
		Time:        appt.Time.String(),
		Fee:         appt.Fee,
		PayAtClinic: appt.PaymentMethod == "pay_at_hospital",
	}); err != nil {
		l.logger.Warn("booking confirmation email not sent", "reference", appt.Reference, "error", err)
	}
	return wizard.Receipt{Success: true, Reference: appt.Reference}, nil
}

func (l *Local) submitRegistration(ctx context.Context, p wizard.Payload) (wizard.Receipt, error) {
	f := p.Fields
	dob, err := calendar.ParseDate(f[wizard.FieldDateOfBirth])
	if err != nil {
		return wizard.Receipt{Success: false, Error: "invalid date of birth"}, nil
	}
	pat, err := l.patients.Register(ctx, patients.RegisterRequest{
		FirstName:   f[wizard.FieldFirstName],
		LastName:    f[wizard.FieldLastName],
		Email:       f[wizard.FieldEmail],
		Phone:       f[wizard.FieldPhone],
		DateOfBirth: dob,
		Gender:      f[wizard.FieldGender],
		Password:    f[wizard.FieldPassword],
	})
	if errors.Is(err, patients.ErrEmailTaken) {
		return wizard.Receipt{Success: false, Error: "email is already registered"}, nil
	}
	if err != nil {
		return wizard.Receipt{}, err
	}

	if err := l.notifier.Welcome(ctx, notify.WelcomeNotice{FirstName: pat.FirstName, Email: pat.Email}); err != nil {
		l.logger.Warn("welcome email not sent", "patient_id", pat.ID, "error", err)
	}
	return wizard.Receipt{Success: true, Reference: pat.ID}, nil
}

var _ wizard.Submitter = (*Local)(nil)
