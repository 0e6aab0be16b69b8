package appointments

import (
	"context"
	"errors"
	"testing"

	"github.com/healthcareplus/echannelling/internal/calendar"
)

func sampleAppointment(ref, date, at string) *Appointment {
	d, _ := calendar.ParseDate(date)
	return &Appointment{
		Reference:   ref,
		DoctorID:    "7",
		Date:        d,
		Time:        calendar.MustTime(at),
		PatientName: "Kamal Perera",
		Fee:         3500,
	}
}

func TestInMemoryCreateAndGet(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	appt := sampleAppointment("ECH-00000001", "2025-07-01", "10:00")
	if err := repo.Create(ctx, appt); err != nil {
		t.Fatalf("create: %v", err)
	}
	if appt.ID == "" || appt.Status != StatusConfirmed || appt.CreatedAt.IsZero() {
		t.Fatalf("expected defaults to be filled, got %+v", appt)
	}

	got, err := repo.GetByReference(ctx, "ECH-00000001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	got.PatientName = "mutated"
	again, _ := repo.GetByReference(ctx, "ECH-00000001")
	if again.PatientName != "Kamal Perera" {
		t.Fatalf("repository must return copies")
	}

	if _, err := repo.GetByReference(ctx, "ECH-404"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInMemoryRejectsDoubleBooking(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, sampleAppointment("ECH-A", "2025-07-01", "10:00")); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(ctx, sampleAppointment("ECH-B", "2025-07-01", "10:00")); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
	if err := repo.Create(ctx, sampleAppointment("ECH-C", "2025-07-01", "10:30")); err != nil {
		t.Fatalf("adjacent slot should be free: %v", err)
	}
}

func TestInMemoryValidation(t *testing.T) {
	repo := NewInMemoryRepository()
	appt := sampleAppointment("ECH-A", "2025-07-01", "10:00")
	appt.DoctorID = ""
	if err := repo.Create(context.Background(), appt); !errors.Is(err, ErrInvalidAppointment) {
		t.Fatalf("expected ErrInvalidAppointment, got %v", err)
	}
}

func TestInMemoryListAndBookedTimes(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	for _, a := range []*Appointment{
		sampleAppointment("ECH-3", "2025-07-02", "09:00"),
		sampleAppointment("ECH-1", "2025-07-01", "11:00"),
		sampleAppointment("ECH-2", "2025-07-01", "09:30"),
		sampleAppointment("ECH-4", "2025-08-01", "09:00"),
	} {
		if err := repo.Create(ctx, a); err != nil {
			t.Fatal(err)
		}
	}
	other := sampleAppointment("ECH-5", "2025-07-01", "09:30")
	other.DoctorID = "3"
	_ = repo.Create(ctx, other)

	from := calendar.NewDate(2025, 7, 1)
	to := calendar.NewDate(2025, 7, 31)
	list, err := repo.ListByDoctor(ctx, "7", from, to)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[0].Reference != "ECH-2" || list[2].Reference != "ECH-3" {
		t.Fatalf("unexpected order %+v", list)
	}

	booked, err := repo.BookedTimes(ctx, "7", from, to)
	if err != nil {
		t.Fatal(err)
	}
	if !booked.IsBooked(from, calendar.MustTime("09:30")) || booked.IsBooked(from, calendar.MustTime("10:00")) {
		t.Fatalf("unexpected availability %v", booked)
	}
	if booked.IsBooked(calendar.NewDate(2025, 8, 1), calendar.MustTime("09:00")) {
		t.Fatalf("out of range booking leaked")
	}
}
