package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/healthcareplus/echannelling/internal/calendar"
)

const uniqueViolation = "23505"

// Querier is the subset of pgxpool.Pool the repository uses.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores appointments in the relational database.
type PostgresRepository struct {
	pool Querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool Querier) *PostgresRepository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Create inserts appt. The partial unique index on confirmed slots turns a
// double booking into ErrSlotTaken.
func (r *PostgresRepository) Create(ctx context.Context, appt *Appointment) error {
	if err := appt.validate(); err != nil {
		return err
	}
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	if appt.Status == "" {
		appt.Status = StatusConfirmed
	}
	query := `
		INSERT INTO appointments (id, reference, doctor_id, appointment_date, slot_time,
			patient_name, patient_email, patient_phone, nic, notes, payment_method, fee, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at
	`
	var createdAt time.Time
	err := r.pool.QueryRow(ctx, query,
		appt.ID,
		appt.Reference,
		appt.DoctorID,
		appt.Date.In(time.UTC),
		appt.Time.String(),
		appt.PatientName,
		appt.PatientEmail,
		appt.PatientPhone,
		appt.NIC,
		appt.Notes,
		appt.PaymentMethod,
		appt.Fee,
		appt.Status,
	).Scan(&createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrSlotTaken
		}
		return fmt.Errorf("appointments: insert: %w", err)
	}
	appt.CreatedAt = createdAt
	return nil
}

const appointmentColumns = `id, reference, doctor_id, appointment_date, slot_time, patient_name,
	patient_email, patient_phone, nic, notes, payment_method, fee, status, created_at`

// GetByReference fetches one appointment.
func (r *PostgresRepository) GetByReference(ctx context.Context, reference string) (*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE reference = $1`
	appt, err := scanAppointment(r.pool.QueryRow(ctx, query, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: get: %w", err)
	}
	return appt, nil
}

// ListByDoctor returns the doctor's appointments in [from, to].
func (r *PostgresRepository) ListByDoctor(ctx context.Context, doctorID string, from, to calendar.Date) ([]Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1 AND appointment_date BETWEEN $2 AND $3
		ORDER BY appointment_date, slot_time
	`
	rows, err := r.pool.Query(ctx, query, doctorID, from.In(time.UTC), to.In(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()

	out := []Appointment{}
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: list scan: %w", err)
		}
		out = append(out, *appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: list rows: %w", err)
	}
	return out, nil
}

// BookedTimes reports confirmed slots only.
func (r *PostgresRepository) BookedTimes(ctx context.Context, doctorID string, from, to calendar.Date) (calendar.Availability, error) {
	query := `
		SELECT appointment_date, slot_time
		FROM appointments
		WHERE doctor_id = $1 AND appointment_date BETWEEN $2 AND $3 AND status <> 'cancelled'
	`
	rows, err := r.pool.Query(ctx, query, doctorID, from.In(time.UTC), to.In(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("appointments: booked times: %w", err)
	}
	defer rows.Close()

	out := calendar.Availability{}
	for rows.Next() {
		var (
			day  time.Time
			slot string
		)
		if err := rows.Scan(&day, &slot); err != nil {
			return nil, fmt.Errorf("appointments: booked times scan: %w", err)
		}
		tod, err := calendar.ParseTimeOfDay(slot)
		if err != nil {
			return nil, fmt.Errorf("appointments: booked times slot %q: %w", slot, err)
		}
		out.Block(calendar.DateOf(day), tod)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: booked times rows: %w", err)
	}
	return out, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		appt Appointment
		day  time.Time
		slot string
	)
	if err := row.Scan(
		&appt.ID,
		&appt.Reference,
		&appt.DoctorID,
		&day,
		&slot,
		&appt.PatientName,
		&appt.PatientEmail,
		&appt.PatientPhone,
		&appt.NIC,
		&appt.Notes,
		&appt.PaymentMethod,
		&appt.Fee,
		&appt.Status,
		&appt.CreatedAt,
	); err != nil {
		return nil, err
	}
	tod, err := calendar.ParseTimeOfDay(slot)
	if err != nil {
		return nil, fmt.Errorf("slot %q: %w", slot, err)
	}
	appt.Date = calendar.DateOf(day)
	appt.Time = tod
	return &appt, nil
}
