package session

import (
	"context"
	"sync"
	"time"

	"github.com/healthcareplus/echannelling/internal/wizard"
)

type memoryEntry struct {
	rec       Record
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory with a sliding TTL.
// Expired entries are dropped when read, by Sweep, or by the sweeper
// goroutine started with StartSweeper.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry

	stop chan struct{}
	done chan struct{}
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

// Create stores a new session at version 1.
func (s *MemoryStore) Create(_ context.Context, snap wizard.Snapshot) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	rec := newRecord(cloneSnapshot(snap), now)
	s.entries[rec.ID] = memoryEntry{rec: rec, expiresAt: now.Add(s.ttl)}
	return cloneRecord(rec), nil
}

// Get returns the session or ErrNotFound once it has expired.
func (s *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.live(id)
	if !ok {
		return Record{}, ErrNotFound
	}
	return cloneRecord(entry.rec), nil
}

// Save replaces the session if rec.Version is current.
func (s *MemoryStore) Save(_ context.Context, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.live(rec.ID)
	if !ok {
		return Record{}, ErrNotFound
	}
	if entry.rec.Version != rec.Version {
		return Record{}, ErrConflict
	}
	now := s.now().UTC()
	next := Record{
		ID:              rec.ID,
		Version:         rec.Version + 1,
		Snapshot:        cloneSnapshot(rec.Snapshot),
		SubmittingUntil: rec.SubmittingUntil,
		CreatedAt:       entry.rec.CreatedAt,
		UpdatedAt:       now,
	}
	s.entries[rec.ID] = memoryEntry{rec: next, expiresAt: now.Add(s.ttl)}
	return cloneRecord(next), nil
}

// Delete removes the session. Deleting a missing session is not an error.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartSweeper runs Sweep every interval until Close. Calling it while a
// sweeper is running does nothing.
func (s *MemoryStore) StartSweeper(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return
	}
	stop, done := make(chan struct{}), make(chan struct{})
	s.stop, s.done = stop, done
	s.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-stop:
				return
			}
		}
	}()
}

// Close stops the sweeper and waits for it to exit.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()
	if stop != nil {
		close(stop)
		<-done
	}
	return nil
}

// live must be called with mu held.
func (s *MemoryStore) live(id string) (memoryEntry, bool) {
	entry, ok := s.entries[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, id)
		return memoryEntry{}, false
	}
	return entry, true
}

func cloneSnapshot(snap wizard.Snapshot) wizard.Snapshot {
	return wizard.Snapshot{Wizard: snap.Wizard, State: snap.State.Clone()}
}

func cloneRecord(rec Record) Record {
	rec.Snapshot = cloneSnapshot(rec.Snapshot)
	return rec
}
