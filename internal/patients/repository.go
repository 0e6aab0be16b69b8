package patients

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository stores patient accounts.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByEmail(ctx context.Context, email string) (*Patient, error)
}

// InMemoryRepository keeps accounts in process memory.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byEmail map[string]*Patient
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byEmail: make(map[string]*Patient)}
}

// Create stores p under its normalised email.
func (r *InMemoryRepository) Create(_ context.Context, p *Patient) error {
	key := NormalizeEmail(p.Email)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[key]; ok {
		return ErrEmailTaken
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Email = key
	p.CreatedAt = time.Now().UTC()
	stored := *p
	r.byEmail[key] = &stored
	return nil
}

// GetByEmail returns a copy of the account.
func (r *InMemoryRepository) GetByEmail(_ context.Context, email string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	out := *p
	return &out, nil
}
