package submission

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthcareplus/echannelling/internal/appointments"
	"github.com/healthcareplus/echannelling/internal/calendar"
	"github.com/healthcareplus/echannelling/internal/doctors"
	"github.com/healthcareplus/echannelling/internal/notify"
	"github.com/healthcareplus/echannelling/internal/patients"
	"github.com/healthcareplus/echannelling/internal/wizard"
)

type captureSender struct {
	sent []notify.EmailMessage
	err  error
}

func (c *captureSender) Send(_ context.Context, msg notify.EmailMessage) error {
	c.sent = append(c.sent, msg)
	return c.err
}

type fixture struct {
	local    *Local
	appts    *appointments.InMemoryRepository
	patients *patients.InMemoryRepository
	mail     *captureSender
}

func newFixture() fixture {
	appts := appointments.NewInMemoryRepository()
	pats := patients.NewInMemoryRepository()
	mail := &captureSender{}
	local := NewLocal(
		doctors.NewDemoDirectory(),
		appointments.NewService(appts, nil),
		patients.NewService(pats, nil),
		notify.NewService(mail, nil),
		nil,
	)
	return fixture{local: local, appts: appts, patients: pats, mail: mail}
}

func bookingPayload() wizard.Payload {
	d := calendar.NewDate(2025, time.July, 1)
	tod := calendar.MustTime("10:00")
	return wizard.Payload{
		Wizard: wizard.Booking,
		Fields: map[string]string{
			wizard.FieldFirstName:     "Kamal",
			wizard.FieldLastName:      "Perera",
			wizard.FieldEmail:         "kamal@example.lk",
			wizard.FieldPhone:         "0771234567",
			wizard.FieldPaymentMethod: "pay_at_hospital",
			wizard.FieldTermsAccepted: "true",
		},
		Selection: wizard.Selection{DoctorID: "7", Date: &d, Time: &tod},
	}
}

func TestLocalBooking(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	receipt, err := fx.local.Submit(ctx, bookingPayload())
	require.NoError(t, err)
	require.True(t, receipt.Success, receipt.Error)
	assert.True(t, strings.HasPrefix(receipt.Reference, appointments.ReferencePrefix))

	appt, err := fx.appts.GetByReference(ctx, receipt.Reference)
	require.NoError(t, err)
	assert.Equal(t, "Kamal Perera", appt.PatientName)
	assert.EqualValues(t, 3500, appt.Fee)

	require.Len(t, fx.mail.sent, 1)
	assert.Contains(t, fx.mail.sent[0].Body, "Dr. Anura Jayasinghe")

	// Same slot again is a business refusal, not an error.
	receipt, err = fx.local.Submit(ctx, bookingPayload())
	require.NoError(t, err)
	assert.False(t, receipt.Success)
	assert.Contains(t, receipt.Error, "no longer available")
}

func TestLocalBookingUnknownDoctor(t *testing.T) {
	fx := newFixture()
	p := bookingPayload()
	p.Selection.DoctorID = "404"

	receipt, err := fx.local.Submit(context.Background(), p)
	require.NoError(t, err)
	assert.False(t, receipt.Success)
	assert.Equal(t, "doctor not found", receipt.Error)
}

func TestLocalBookingEmailFailureDoesNotFail(t *testing.T) {
	fx := newFixture()
	fx.mail.err = errors.New("smtp down")

	receipt, err := fx.local.Submit(context.Background(), bookingPayload())
	require.NoError(t, err)
	assert.True(t, receipt.Success)
}

func registrationPayload() wizard.Payload {
	return wizard.Payload{
		Wizard: wizard.Registration,
		Fields: map[string]string{
			wizard.FieldFirstName:       "Nadeesha",
			wizard.FieldLastName:        "Silva",
			wizard.FieldDateOfBirth:     "1995-03-14",
			wizard.FieldGender:          "female",
			wizard.FieldPhone:           "0771234567",
			wizard.FieldEmail:           "nadeesha@example.lk",
			wizard.FieldPassword:        "Abcdef12!",
			wizard.FieldConfirmPassword: "Abcdef12!",
		},
	}
}

func TestLocalRegistration(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	receipt, err := fx.local.Submit(ctx, registrationPayload())
	require.NoError(t, err)
	require.True(t, receipt.Success)

	p, err := fx.patients.GetByEmail(ctx, "nadeesha@example.lk")
	require.NoError(t, err)
	assert.Equal(t, receipt.Reference, p.ID)
	assert.Equal(t, calendar.NewDate(1995, time.March, 14), p.DateOfBirth)
	require.Len(t, fx.mail.sent, 1)
	assert.Equal(t, "Welcome to HealthCare+", fx.mail.sent[0].Subject)

	receipt, err = fx.local.Submit(ctx, registrationPayload())
	require.NoError(t, err)
	assert.False(t, receipt.Success)
	assert.Equal(t, "email is already registered", receipt.Error)
}

func TestLocalUnknownWizard(t *testing.T) {
	_, err := newFixture().local.Submit(context.Background(), wizard.Payload{Wizard: "survey"})
	assert.True(t, errors.Is(err, wizard.ErrUnknownType))
}
