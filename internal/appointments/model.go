// Package appointments persists confirmed bookings and reports which slots
// are taken.
package appointments

import (
	"errors"
	"time"

	"github.com/healthcareplus/echannelling/internal/calendar"
)

var (
	// ErrSlotTaken is returned when the doctor already has a booking at that date and time.
	ErrSlotTaken = errors.New("appointments: slot already booked")

	// ErrNotFound is returned when a reference is unknown.
	ErrNotFound = errors.New("appointments: not found")

	// ErrInvalidAppointment is returned when required booking data is missing.
	ErrInvalidAppointment = errors.New("appointments: invalid appointment")
)

// Status values.
const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Appointment is one booked consultation.
type Appointment struct {
	ID            string             `json:"id"`
	Reference     string             `json:"reference"`
	DoctorID      string             `json:"doctor_id"`
	Date          calendar.Date      `json:"date"`
	Time          calendar.TimeOfDay `json:"time"`
	PatientName   string             `json:"patient_name"`
	PatientEmail  string             `json:"patient_email"`
	PatientPhone  string             `json:"patient_phone"`
	NIC           string             `json:"nic,omitempty"`
	Notes         string             `json:"notes,omitempty"`
	PaymentMethod string             `json:"payment_method,omitempty"`
	Fee           int64              `json:"fee"`
	Status        string             `json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
}

func (a *Appointment) validate() error {
	switch {
	case a.DoctorID == "":
		return errors.Join(ErrInvalidAppointment, errors.New("doctor id required"))
	case a.Date.IsZero():
		return errors.Join(ErrInvalidAppointment, errors.New("date required"))
	case a.PatientName == "":
		return errors.Join(ErrInvalidAppointment, errors.New("patient name required"))
	}
	return nil
}
