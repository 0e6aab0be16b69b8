package doctors

import (
	"context"
	"slices"
	"strconv"
	"sync"
)

// InMemoryDirectory serves a fixed doctor list. It backs local development
// and tests when no database is configured.
type InMemoryDirectory struct {
	mu      sync.RWMutex
	doctors map[string]Doctor
}

// NewInMemoryDirectory builds a directory from list. Later duplicates win.
func NewInMemoryDirectory(list []Doctor) *InMemoryDirectory {
	d := &InMemoryDirectory{doctors: make(map[string]Doctor, len(list))}
	for _, doc := range list {
		d.doctors[doc.ID] = doc
	}
	return d
}

// NewDemoDirectory returns the seeded demo directory.
func NewDemoDirectory() *InMemoryDirectory {
	return NewInMemoryDirectory(DemoDoctors())
}

// List returns matching doctors ordered by id.
func (d *InMemoryDirectory) List(_ context.Context, f Filter) ([]Doctor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Doctor, 0, len(d.doctors))
	for _, doc := range d.doctors {
		if f.Matches(doc) {
			out = append(out, doc)
		}
	}
	slices.SortFunc(out, func(a, b Doctor) int { return compareIDs(a.ID, b.ID) })
	return out, nil
}

// Get returns the doctor with id.
func (d *InMemoryDirectory) Get(_ context.Context, id string) (Doctor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	doc, ok := d.doctors[id]
	if !ok {
		return Doctor{}, ErrNotFound
	}
	return doc, nil
}

// Put adds or replaces a doctor.
func (d *InMemoryDirectory) Put(doc Doctor) {
	d.mu.Lock()
	d.doctors[doc.ID] = doc
	d.mu.Unlock()
}

// compareIDs orders numeric ids numerically and everything else lexically.
func compareIDs(a, b string) int {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		return ai - bi
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	}
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// DemoDoctors is the sample directory the site ships with.
func DemoDoctors() []Doctor {
	return []Doctor{
		{ID: "1", Name: "Dr. Chaminda Fernando", Specialty: "General Medicine", Hospital: "Asiri Central Hospital", Qualifications: "MBBS, MD", ExperienceYrs: 14, Fee: 2000, Available: true},
		{ID: "2", Name: "Dr. Dilani Wickramasinghe", Specialty: "Pediatrics", Hospital: "Lady Ridgeway Hospital", Qualifications: "MBBS, DCH, MD (Paed)", ExperienceYrs: 11, Fee: 2500, Available: true},
		{ID: "3", Name: "Dr. Ruwan Bandara", Specialty: "Dermatology", Hospital: "Nawaloka Hospital", Qualifications: "MBBS, MD (Derm)", ExperienceYrs: 9, Fee: 3000, Available: true},
		{ID: "4", Name: "Dr. Shirani de Silva", Specialty: "Gynecology", Hospital: "Durdans Hospital", Qualifications: "MBBS, MS (O&G), FRCOG", ExperienceYrs: 20, Fee: 4000, Available: true},
		{ID: "5", Name: "Dr. Mahesh Gunawardena", Specialty: "Orthopedics", Hospital: "Lanka Hospitals", Qualifications: "MBBS, MS (Ortho)", ExperienceYrs: 16, Fee: 3500, Available: false},
		{ID: "6", Name: "Dr. Priyanka Rajapaksha", Specialty: "Neurology", Hospital: "Asiri Central Hospital", Qualifications: "MBBS, MD, MRCP", ExperienceYrs: 12, Fee: 4500, Available: true},
		{ID: "7", Name: "Dr. Anura Jayasinghe", Specialty: "Cardiology", Hospital: "Lanka Hospitals", Qualifications: "MBBS, MD, FRCP", ExperienceYrs: 18, Fee: 3500, Available: true},
		{ID: "8", Name: "Dr. Nirmala Perera", Specialty: "ENT", Hospital: "Nawaloka Hospital", Qualifications: "MBBS, MS (ENT)", ExperienceYrs: 8, Fee: 2500, Available: true},
		{ID: "9", Name: "Dr. Kasun Herath", Specialty: "Cardiology", Hospital: "Durdans Hospital", Qualifications: "MBBS, MD (Cardiology)", ExperienceYrs: 7, Fee: 3000, Available: true},
	}
}
