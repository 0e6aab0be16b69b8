package wizard

import (
	"github.com/healthcareplus/echannelling/internal/validation"
)

// Registration form field names not shared with booking.
const (
	FieldDateOfBirth     = "date_of_birth"
	FieldGender          = "gender"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
)

func (r *Registry) registrationSteps() []Step {
	return []Step{
		{
			Index:          1,
			Name:           "personal",
			RequiredFields: []string{FieldFirstName, FieldLastName, FieldDateOfBirth, FieldGender, FieldPhone},
			Validate:       r.validatePersonalStep,
		},
		{
			Index:          2,
			Name:           "credentials",
			RequiredFields: []string{FieldEmail, FieldPassword, FieldConfirmPassword},
			Validate:       r.validateCredentialsStep,
		},
		{
			Index:          3,
			Name:           "terms",
			RequiredFields: []string{FieldTermsAccepted},
			Validate: func(s State) validation.Result {
				return validation.Accepted(FieldTermsAccepted, s.Field(FieldTermsAccepted))
			},
		},
	}
}

func (r *Registry) validatePersonalStep(s State) validation.Result {
	now := r.Now()
	return validation.Collect(
		requireAll(s, FieldFirstName, FieldLastName, FieldDateOfBirth, FieldGender, FieldPhone),
		check(s, FieldDateOfBirth, func(f, v string) validation.Result {
			return validation.DateOfBirth(f, v, now, r.opts.MinPatientAge)
		}),
		check(s, FieldGender, func(f, v string) validation.Result {
			return validation.OneOf(f, v, validation.Genders...)
		}),
		check(s, FieldPhone, validation.Phone),
	)
}

func (r *Registry) validateCredentialsStep(s State) validation.Result {
	res := validation.Collect(
		requireAll(s, FieldEmail, FieldPassword, FieldConfirmPassword),
		check(s, FieldEmail, validation.Email),
	)
	password := s.Field(FieldPassword)
	if password == "" {
		return res
	}
	if confirm := s.Field(FieldConfirmPassword); confirm != "" {
		res.Merge(validation.PasswordMatch(FieldConfirmPassword, password, confirm))
	}
	if r.opts.RequireStrongPassword {
		if strength := validation.PasswordStrength(password); strength.Score < StrongPasswordScore {
			res.Add(FieldPassword, validation.InvalidFormat, "password is too weak")
		}
	}
	return res
}
