// Package doctors is the read-only doctor directory the booking wizard
// selects from.
package doctors

import (
	"context"
	"errors"
	"slices"
	"strings"
)

// ErrNotFound is returned when a doctor id is not in the directory.
var ErrNotFound = errors.New("doctors: not found")

// Doctor is one bookable consultant. Fee is in whole rupees.
type Doctor struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Specialty      string `json:"specialty"`
	Hospital       string `json:"hospital"`
	Qualifications string `json:"qualifications,omitempty"`
	ExperienceYrs  int    `json:"experience_years"`
	Fee            int64  `json:"fee"`
	Available      bool   `json:"available"`
}

// Filter narrows a directory listing. Zero values match everything.
type Filter struct {
	// Specialty matches case-insensitively and exactly.
	Specialty string
	// Query matches a substring of the name or hospital.
	Query         string
	AvailableOnly bool
}

// Matches reports whether d passes f.
func (f Filter) Matches(d Doctor) bool {
	if f.AvailableOnly && !d.Available {
		return false
	}
	if s := strings.TrimSpace(f.Specialty); s != "" && !strings.EqualFold(s, d.Specialty) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(d.Name), q) && !strings.Contains(strings.ToLower(d.Hospital), q) {
			return false
		}
	}
	return true
}

// Directory looks up doctors.
type Directory interface {
	List(ctx context.Context, f Filter) ([]Doctor, error)
	Get(ctx context.Context, id string) (Doctor, error)
}

// Specialties returns the distinct specialties in list, sorted.
func Specialties(list []Doctor) []string {
	seen := make(map[string]struct{}, len(list))
	out := []string{}
	for _, d := range list {
		if d.Specialty == "" {
			continue
		}
		if _, ok := seen[d.Specialty]; ok {
			continue
		}
		seen[d.Specialty] = struct{}{}
		out = append(out, d.Specialty)
	}
	slices.Sort(out)
	return out
}
