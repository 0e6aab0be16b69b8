package wizard

import (
	"github.com/healthcareplus/echannelling/internal/calendar"
	"github.com/healthcareplus/echannelling/internal/validation"
)

// Booking form field names.
const (
	FieldFirstName     = "first_name"
	FieldLastName      = "last_name"
	FieldEmail         = "email"
	FieldPhone         = "phone"
	FieldNIC           = "nic"
	FieldNotes         = "notes"
	FieldTermsAccepted = "terms_accepted"
	FieldPaymentMethod = "payment_method"
)

// Selection error keys reported by the doctor and schedule steps.
const (
	SelectionDoctor = "doctor"
	SelectionDate   = "date"
	SelectionTime   = "time"
)

func (r *Registry) bookingSteps() []Step {
	return []Step{
		{
			Index:          1,
			Name:           "doctor",
			RequiredFields: []string{SelectionDoctor},
			Validate:       validateDoctorStep,
		},
		{
			Index:          2,
			Name:           "schedule",
			RequiredFields: []string{SelectionDate, SelectionTime},
			Validate:       r.validateScheduleStep,
		},
		{
			Index:          3,
			Name:           "patient",
			RequiredFields: []string{FieldFirstName, FieldLastName, FieldEmail, FieldPhone},
			Validate:       validatePatientStep,
		},
		{
			Index:          4,
			Name:           "confirm",
			RequiredFields: []string{FieldTermsAccepted},
			Validate:       validateConfirmStep,
		},
	}
}

func validateDoctorStep(s State) validation.Result {
	return validation.Required(SelectionDoctor, s.Selection.DoctorID)
}

func (r *Registry) validateScheduleStep(s State) validation.Result {
	res := validation.Valid()
	if s.Selection.Date == nil {
		res.Add(SelectionDate, validation.MissingField, "required")
	}
	if s.Selection.Time == nil {
		res.Add(SelectionTime, validation.MissingField, "required")
	}
	if !res.OK {
		return res
	}

	now := r.Now()
	today := calendar.DateOf(now)
	switch {
	case !r.opts.SlotWindow.Contains(*s.Selection.Time):
		res.Add(SelectionTime, validation.InvalidFormat, "time is not a bookable slot")
	case s.Selection.Date.Before(today):
		res.Add(SelectionDate, validation.InvalidFormat, "date is in the past")
	case *s.Selection.Date == today && !calendar.TimeOf(now).Before(*s.Selection.Time):
		res.Add(SelectionTime, validation.InvalidFormat, "time has already passed")
	}
	return res
}

func validatePatientStep(s State) validation.Result {
	return validation.Collect(
		requireAll(s, FieldFirstName, FieldLastName, FieldEmail, FieldPhone),
		check(s, FieldEmail, validation.Email),
		check(s, FieldPhone, validation.Phone),
	)
}

func validateConfirmStep(s State) validation.Result {
	res := validation.Accepted(FieldTermsAccepted, s.Field(FieldTermsAccepted))
	if method := s.Field(FieldPaymentMethod); method != "" {
		res.Merge(validation.OneOf(FieldPaymentMethod, method, validation.PaymentMethods...))
	}
	return res
}
