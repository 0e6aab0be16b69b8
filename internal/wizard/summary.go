package wizard

import (
	"strconv"
	"strings"
)

// Unset marks summary values that have not been chosen or entered yet.
const Unset = "unset"

// Summary is the read-only confirmation view of a wizard.
type Summary struct {
	Wizard       Type   `json:"wizard"`
	DoctorID     string `json:"doctor_id"`
	DoctorName   string `json:"doctor_name"`
	Specialty    string `json:"specialty"`
	Fee          string `json:"fee"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	PatientName  string `json:"patient_name"`
	PatientEmail string `json:"patient_email"`
	PatientPhone string `json:"patient_phone"`
	Reference    string `json:"reference,omitempty"`
}

// DoctorInfo is the slice of a directory entry the summary shows.
type DoctorInfo struct {
	Name      string
	Specialty string
	Fee       int64
}

// DoctorLookup resolves a doctor id. Callers resolve it ahead of time so
// Summarize stays free of I/O.
type DoctorLookup func(id string) (DoctorInfo, bool)

// Summarize projects state onto a Summary. It never mutates state and
// renders anything missing as Unset.
func Summarize(wizard Type, state State, lookup DoctorLookup) Summary {
	sum := Summary{
		Wizard:       wizard,
		DoctorID:     orUnset(state.Selection.DoctorID),
		DoctorName:   Unset,
		Specialty:    Unset,
		Fee:          Unset,
		Date:         Unset,
		Time:         Unset,
		PatientName:  orUnset(patientName(state)),
		PatientEmail: orUnset(state.Fields[FieldEmail]),
		PatientPhone: orUnset(state.Fields[FieldPhone]),
		Reference:    state.Reference,
	}
	if state.Selection.Date != nil {
		sum.Date = state.Selection.Date.String()
	}
	if state.Selection.Time != nil {
		sum.Time = state.Selection.Time.String()
	}
	if id := state.Selection.DoctorID; id != "" && lookup != nil {
		if info, ok := lookup(id); ok {
			sum.DoctorName = orUnset(info.Name)
			sum.Specialty = orUnset(info.Specialty)
			sum.Fee = strconv.FormatInt(info.Fee, 10)
		}
	}
	return sum
}

func patientName(s State) string {
	return strings.TrimSpace(strings.TrimSpace(s.Fields[FieldFirstName]) + " " + strings.TrimSpace(s.Fields[FieldLastName]))
}

func orUnset(v string) string {
	if strings.TrimSpace(v) == "" {
		return Unset
	}
	return v
}
