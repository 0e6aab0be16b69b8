package wizard

import "context"

// Payload is what crosses into the submission collaborator: the
// accumulated fields and selection, exactly as stored.
type Payload struct {
	Wizard    Type              `json:"wizard"`
	Fields    map[string]string `json:"fields"`
	Selection Selection         `json:"selection"`
}

// Receipt is the collaborator's answer.
type Receipt struct {
	Success   bool   `json:"success"`
	Reference string `json:"reference,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Submitter persists a finished wizard (booking REST call, registration, ...).
type Submitter interface {
	Submit(ctx context.Context, p Payload) (Receipt, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, p Payload) (Receipt, error)

// Submit calls f.
func (f SubmitterFunc) Submit(ctx context.Context, p Payload) (Receipt, error) {
	return f(ctx, p)
}
