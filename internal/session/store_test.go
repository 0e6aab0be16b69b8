package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthcareplus/echannelling/internal/calendar"
	"github.com/healthcareplus/echannelling/internal/wizard"
)

func sampleSnapshot() wizard.Snapshot {
	d := calendar.NewDate(2025, time.July, 1)
	tod := calendar.MustTime("10:00")
	return wizard.Snapshot{
		Wizard: wizard.Booking,
		State: wizard.State{
			CurrentStep: 3,
			Fields:      map[string]string{"first_name": "Kamal", "notes": "  verbatim  "},
			Selection:   wizard.Selection{DoctorID: "7", Date: &d, Time: &tod},
			Completed:   []int{1, 2},
			Status:      wizard.InProgress,
		},
	}
}

// exerciseStore runs the shared contract against any Store.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	rec, err := store.Create(ctx, sampleSnapshot())
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.EqualValues(t, 1, rec.Version)

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), got.Snapshot)

	got.Snapshot.State.CurrentStep = 4
	saved, err := store.Save(ctx, got)
	require.NoError(t, err)
	assert.EqualValues(t, 2, saved.Version)
	assert.Equal(t, rec.CreatedAt.Unix(), saved.CreatedAt.Unix())

	// A writer holding the old version loses.
	_, err = store.Save(ctx, got)
	assert.True(t, errors.Is(err, ErrConflict), "got %v", err)

	reloaded, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, reloaded.Snapshot.State.CurrentStep)

	require.NoError(t, store.Delete(ctx, rec.ID))
	_, err = store.Get(ctx, rec.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = store.Save(ctx, reloaded)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, store.Delete(ctx, rec.ID))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(time.Minute))
}

func TestMemoryStoreIsolation(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()
	rec, _ := store.Create(ctx, sampleSnapshot())
	rec.Snapshot.State.Fields["first_name"] = "mutated"

	got, _ := store.Get(ctx, rec.ID)
	assert.Equal(t, "Kamal", got.Snapshot.State.Fields["first_name"])
}

func TestMemoryStoreSweeperDropsAbandonedSessions(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	var clock atomic.Int64
	clock.Store(time.Date(2025, 6, 20, 9, 0, 0, 0, time.UTC).UnixNano())
	store.now = func() time.Time { return time.Unix(0, clock.Load()).UTC() }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Create(ctx, sampleSnapshot())
		require.NoError(t, err)
	}
	store.StartSweeper(5 * time.Millisecond)
	store.StartSweeper(5 * time.Millisecond)
	t.Cleanup(func() { _ = store.Close() })

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 3, store.Len(), "live sessions must survive a sweep")

	clock.Add(int64(2 * time.Minute))
	require.Eventually(t, func() bool { return store.Len() == 0 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

func TestMemoryStoreKeepsSubmissionClaim(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()
	rec, err := store.Create(ctx, sampleSnapshot())
	require.NoError(t, err)

	until := time.Date(2025, 6, 20, 9, 2, 0, 0, time.UTC)
	rec.SubmittingUntil = until
	saved, err := store.Save(ctx, rec)
	require.NoError(t, err)
	assert.True(t, saved.SubmittingUntil.Equal(until))
	assert.True(t, saved.Submitting(until.Add(-time.Second)))
	assert.False(t, saved.Submitting(until))

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, got.SubmittingUntil.Equal(until))
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2025, 6, 20, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	rec, _ := store.Create(ctx, sampleSnapshot())
	now = now.Add(45 * time.Second)
	rec, err := store.Save(ctx, rec)
	require.NoError(t, err)

	// Save slid the expiry forward.
	now = now.Add(45 * time.Second)
	_, err = store.Get(ctx, rec.ID)
	require.NoError(t, err)

	other, _ := store.Create(ctx, sampleSnapshot())
	now = now.Add(2 * time.Minute)
	assert.Equal(t, 2, store.Sweep())
	_, err = store.Get(ctx, other.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(client, 10*time.Minute), mr
}

func TestRedisStore(t *testing.T) {
	store, _ := newRedisStore(t)
	exerciseStore(t, store)
}

func TestRedisStoreKeepsSubmissionClaim(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()
	rec, err := store.Create(ctx, sampleSnapshot())
	require.NoError(t, err)

	until := time.Date(2025, 6, 20, 9, 2, 0, 0, time.UTC)
	rec.SubmittingUntil = until
	_, err = store.Save(ctx, rec)
	require.NoError(t, err)

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, got.SubmittingUntil.Equal(until))

	got.SubmittingUntil = time.Time{}
	released, err := store.Save(ctx, got)
	require.NoError(t, err)
	assert.True(t, released.SubmittingUntil.IsZero())
}

func TestRedisStoreTTL(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	rec, err := store.Create(ctx, sampleSnapshot())
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, mr.TTL("wizard:session:"+rec.ID))

	mr.FastForward(11 * time.Minute)
	_, err = store.Get(ctx, rec.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRedisStoreCorruptValue(t *testing.T) {
	store, mr := newRedisStore(t)
	require.NoError(t, mr.Set("wizard:session:bad", "not-json"))
	_, err := store.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}
