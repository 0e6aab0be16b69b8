package doctors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoDirectoryGet(t *testing.T) {
	dir := NewDemoDirectory()

	doc, err := dir.Get(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "Cardiology", doc.Specialty)
	assert.EqualValues(t, 3500, doc.Fee)

	_, err = dir.Get(context.Background(), "404")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestInMemoryListFilters(t *testing.T) {
	dir := NewDemoDirectory()
	ctx := context.Background()

	all, err := dir.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, len(DemoDoctors()))
	assert.Equal(t, "1", all[0].ID)
	assert.Equal(t, "9", all[len(all)-1].ID)

	cardio, err := dir.List(ctx, Filter{Specialty: "  cardiology "})
	require.NoError(t, err)
	require.Len(t, cardio, 2)
	assert.Equal(t, "7", cardio[0].ID)

	byHospital, err := dir.List(ctx, Filter{Query: "nawaloka"})
	require.NoError(t, err)
	assert.Len(t, byHospital, 2)

	available, err := dir.List(ctx, Filter{AvailableOnly: true})
	require.NoError(t, err)
	for _, d := range available {
		assert.True(t, d.Available, d.ID)
	}
	assert.Len(t, available, len(all)-1)
}

func TestInMemoryPut(t *testing.T) {
	dir := NewInMemoryDirectory(nil)
	dir.Put(Doctor{ID: "x", Name: "Dr. X", Specialty: "ENT"})
	dir.Put(Doctor{ID: "10", Name: "Dr. Ten", Specialty: "ENT"})
	dir.Put(Doctor{ID: "2", Name: "Dr. Two", Specialty: "ENT"})

	list, err := dir.List(context.Background(), Filter{})
	require.NoError(t, err)
	ids := []string{}
	for _, d := range list {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"2", "10", "x"}, ids)
}

func TestSpecialties(t *testing.T) {
	got := Specialties(DemoDoctors())
	assert.Equal(t, []string{
		"Cardiology", "Dermatology", "ENT", "General Medicine",
		"Gynecology", "Neurology", "Orthopedics", "Pediatrics",
	}, got)
	assert.Empty(t, Specialties(nil))
}
