package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func lookupSeven(id string) (DoctorInfo, bool) {
	if id != "7" {
		return DoctorInfo{}, false
	}
	return DoctorInfo{Name: "Dr. Anura Jayasinghe", Specialty: "Cardiology", Fee: 3500}, true
}

func TestSummarizeEmptyStateIsUnset(t *testing.T) {
	sum := Summarize(Booking, newState(), lookupSeven)

	assert.Equal(t, Booking, sum.Wizard)
	for name, v := range map[string]string{
		"doctor_id":     sum.DoctorID,
		"doctor_name":   sum.DoctorName,
		"specialty":     sum.Specialty,
		"fee":           sum.Fee,
		"date":          sum.Date,
		"time":          sum.Time,
		"patient_name":  sum.PatientName,
		"patient_email": sum.PatientEmail,
		"patient_phone": sum.PatientPhone,
	} {
		assert.Equal(t, Unset, v, name)
	}
	assert.Empty(t, sum.Reference)
}

func TestSummarizeBookingSelection(t *testing.T) {
	m := newMachine(t, Booking)
	fillBooking(t, m)

	sum := Summarize(m.Type(), m.State(), lookupSeven)
	assert.Equal(t, "7", sum.DoctorID)
	assert.Equal(t, "Dr. Anura Jayasinghe", sum.DoctorName)
	assert.Equal(t, "Cardiology", sum.Specialty)
	assert.Equal(t, "3500", sum.Fee)
	assert.Equal(t, "2025-07-01", sum.Date)
	assert.Equal(t, "10:00", sum.Time)
	assert.Equal(t, "Kamal Perera", sum.PatientName)
	assert.Equal(t, "kamal@example.lk", sum.PatientEmail)
}

func TestSummarizeUnknownDoctor(t *testing.T) {
	st := newState()
	st.Selection.DoctorID = "99"
	st.Fields[FieldFirstName] = "Kamal"

	sum := Summarize(Booking, st, lookupSeven)
	assert.Equal(t, "99", sum.DoctorID)
	assert.Equal(t, Unset, sum.DoctorName)
	assert.Equal(t, Unset, sum.Fee)
	assert.Equal(t, "Kamal", sum.PatientName)

	sum = Summarize(Booking, st, nil)
	assert.Equal(t, Unset, sum.Specialty)
}

func TestSummarizeDoesNotMutate(t *testing.T) {
	st := newState()
	st.Fields[FieldEmail] = "  "
	before := st.Clone()

	sum := Summarize(Registration, st, lookupSeven)
	assert.Equal(t, Unset, sum.PatientEmail)
	assert.Equal(t, before, st)
}
