package appointments

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/healthcareplus/echannelling/internal/calendar"
)

// Repository stores appointments.
type Repository interface {
	Create(ctx context.Context, appt *Appointment) error
	GetByReference(ctx context.Context, reference string) (*Appointment, error)
	ListByDoctor(ctx context.Context, doctorID string, from, to calendar.Date) ([]Appointment, error)
	BookedTimes(ctx context.Context, doctorID string, from, to calendar.Date) (calendar.Availability, error)
}

type slotKey struct {
	doctorID string
	date     calendar.Date
	time     calendar.TimeOfDay
}

// InMemoryRepository keeps appointments in process memory.
type InMemoryRepository struct {
	mu     sync.RWMutex
	byRef  map[string]*Appointment
	bySlot map[slotKey]string
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byRef:  make(map[string]*Appointment),
		bySlot: make(map[slotKey]string),
	}
}

// Create stores appt, refusing a second confirmed booking of the same slot.
func (r *InMemoryRepository) Create(_ context.Context, appt *Appointment) error {
	if err := appt.validate(); err != nil {
		return err
	}
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	if appt.Status == "" {
		appt.Status = StatusConfirmed
	}
	key := slotKey{appt.DoctorID, appt.Date, appt.Time}

	r.mu.Lock()
	defer r.mu.Unlock()
	if ref, ok := r.bySlot[key]; ok && r.byRef[ref].Status != StatusCancelled {
		return ErrSlotTaken
	}
	appt.CreatedAt = time.Now().UTC()
	stored := *appt
	r.byRef[appt.Reference] = &stored
	r.bySlot[key] = appt.Reference
	return nil
}

// GetByReference returns a copy of the appointment with reference.
func (r *InMemoryRepository) GetByReference(_ context.Context, reference string) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	appt, ok := r.byRef[reference]
	if !ok {
		return nil, ErrNotFound
	}
	out := *appt
	return &out, nil
}

// ListByDoctor returns the doctor's appointments in [from, to], ordered by slot.
func (r *InMemoryRepository) ListByDoctor(_ context.Context, doctorID string, from, to calendar.Date) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Appointment{}
	for _, appt := range r.byRef {
		if appt.DoctorID != doctorID || appt.Date.Before(from) || appt.Date.After(to) {
			continue
		}
		out = append(out, *appt)
	}
	slices.SortFunc(out, func(a, b Appointment) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return a.Time.Compare(b.Time)
	})
	return out, nil
}

// BookedTimes reports the doctor's confirmed slots in [from, to].
func (r *InMemoryRepository) BookedTimes(ctx context.Context, doctorID string, from, to calendar.Date) (calendar.Availability, error) {
	list, err := r.ListByDoctor(ctx, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	return availabilityOf(list), nil
}

func availabilityOf(list []Appointment) calendar.Availability {
	out := calendar.Availability{}
	for _, appt := range list {
		if appt.Status == StatusCancelled {
			continue
		}
		out.Block(appt.Date, appt.Time)
	}
	return out
}
