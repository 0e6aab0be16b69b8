// Package session keeps wizard snapshots between HTTP requests.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/healthcareplus/echannelling/internal/wizard"
)

var (
	// ErrNotFound is returned for unknown or expired sessions.
	ErrNotFound = errors.New("session: not found")

	// ErrConflict is returned when a save races with another writer.
	ErrConflict = errors.New("session: version conflict")
)

// DefaultTTL applies when a store is built with a non-positive ttl.
const DefaultTTL = 30 * time.Minute

// Record is one stored wizard. Version increases by one on every save.
// SubmittingUntil is set while a request is handing the wizard to the
// submission backend; other writers must leave the record alone until then.
type Record struct {
	ID              string          `json:"id"`
	Version         int64           `json:"version"`
	Snapshot        wizard.Snapshot `json:"snapshot"`
	SubmittingUntil time.Time       `json:"submitting_until,omitzero"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Submitting reports whether a submission claim is live at now.
func (r Record) Submitting(now time.Time) bool {
	return !r.SubmittingUntil.IsZero() && now.Before(r.SubmittingUntil)
}

// Store persists records. Save succeeds only when rec.Version matches the
// stored version and returns the record with its new version.
type Store interface {
	Create(ctx context.Context, snap wizard.Snapshot) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
	Save(ctx context.Context, rec Record) (Record, error)
	Delete(ctx context.Context, id string) error
}

func newRecord(snap wizard.Snapshot, now time.Time) Record {
	return Record{
		ID:        uuid.NewString(),
		Version:   1,
		Snapshot:  snap,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
