package flows

import (
	"time"

	"github.com/healthcareplus/echannelling/internal/session"
	"github.com/healthcareplus/echannelling/internal/wizard"
)

// StepView describes the step a session is on.
type StepView struct {
	Index          int      `json:"index"`
	Name           string   `json:"name"`
	RequiredFields []string `json:"required_fields"`
}

// View is the snapshot a page renders from.
type View struct {
	SessionID string       `json:"session_id"`
	Version   int64        `json:"version"`
	Wizard    wizard.Type  `json:"wizard"`
	State     wizard.State `json:"state"`
	Step      StepView     `json:"step"`
	StepCount int          `json:"step_count"`
	IsLast    bool         `json:"is_last"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// secretFields are kept in the session but never echoed back.
var secretFields = []string{wizard.FieldPassword, wizard.FieldConfirmPassword}

func newView(rec session.Record, m *wizard.Machine) View {
	step := m.Current()
	st := m.State()
	for _, name := range secretFields {
		delete(st.Fields, name)
	}
	return View{
		SessionID: rec.ID,
		Version:   rec.Version,
		Wizard:    m.Type(),
		State:     st,
		Step: StepView{
			Index:          step.Index,
			Name:           step.Name,
			RequiredFields: append([]string(nil), step.RequiredFields...),
		},
		StepCount: m.StepCount(),
		IsLast:    m.IsLast(),
		UpdatedAt: rec.UpdatedAt,
	}
}
