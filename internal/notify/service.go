package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/healthcareplus/echannelling/pkg/logging"
)

// BookingNotice is what the patient is told after a booking is confirmed.
type BookingNotice struct {
	Reference   string
	PatientName string
	Email       string
	DoctorName  string
	Specialty   string
	Hospital    string
	Date        string
	Time        string
	Fee         int64
	PayAtClinic bool
}

// WelcomeNotice is sent after a patient account is created.
type WelcomeNotice struct {
	FirstName string
	Email     string
}

// Service sends patient-facing emails. Delivery failures are logged and
// returned; callers decide whether they matter.
type Service struct {
	email  EmailSender
	logger *logging.Logger
}

// NewService creates a notification service. A nil sender disables email.
func NewService(email EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, logger: logger}
}

// BookingConfirmed emails the booking confirmation.
func (s *Service) BookingConfirmed(ctx context.Context, n BookingNotice) error {
	if s == nil || s.email == nil {
		return nil
	}
	if strings.TrimSpace(n.Email) == "" {
		s.logger.Debug("notify: no patient email, skipping booking confirmation", "reference", n.Reference)
		return nil
	}
	msg := EmailMessage{
		To:       n.Email,
		ToName:   n.PatientName,
		Subject:  fmt.Sprintf("Appointment confirmed - %s", n.Reference),
		Body:     bookingBody(n),
		Category: CategoryBooking,
		Args:     map[string]string{"reference": n.Reference},
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("notify: booking confirmation failed", "error", err, "reference", n.Reference)
		return fmt.Errorf("notify: booking confirmation: %w", err)
	}
	return nil
}

// Welcome emails a newly registered patient.
func (s *Service) Welcome(ctx context.Context, n WelcomeNotice) error {
	if s == nil || s.email == nil || strings.TrimSpace(n.Email) == "" {
		return nil
	}
	name := strings.TrimSpace(n.FirstName)
	if name == "" {
		name = "there"
	}
	msg := EmailMessage{
		To:      n.Email,
		ToName:  n.FirstName,
		Subject: "Welcome to HealthCare+",
		Body: fmt.Sprintf("Hi %s,\n\nYour HealthCare+ account is ready. "+
			"You can now channel doctors online using this email address.\n\n"+
			"HealthCare+ eChannelling", name),
		Category: CategoryWelcome,
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("notify: welcome email failed", "error", err)
		return fmt.Errorf("notify: welcome: %w", err)
	}
	return nil
}

func bookingBody(n BookingNotice) string {
	var b strings.Builder
	name := strings.TrimSpace(n.PatientName)
	if name == "" {
		name = "Patient"
	}
	fmt.Fprintf(&b, "Dear %s,\n\n", name)
	b.WriteString("Your appointment has been confirmed.\n\n")
	fmt.Fprintf(&b, "Reference: %s\n", n.Reference)
	if n.DoctorName != "" {
		fmt.Fprintf(&b, "Doctor: %s", n.DoctorName)
		if n.Specialty != "" {
			fmt.Fprintf(&b, " (%s)", n.Specialty)
		}
		b.WriteString("\n")
	}
	if n.Hospital != "" {
		fmt.Fprintf(&b, "Hospital: %s\n", n.Hospital)
	}
	fmt.Fprintf(&b, "Date: %s\nTime: %s\n", n.Date, n.Time)
	if n.Fee > 0 {
		fmt.Fprintf(&b, "Consultation fee: Rs. %d", n.Fee)
		if n.PayAtClinic {
			b.WriteString(" (pay at hospital)")
		}
		b.WriteString("\n")
	}
	b.WriteString("\nPlease arrive 15 minutes early and bring your NIC.\n\nHealthCare+ eChannelling")
	return b.String()
}
