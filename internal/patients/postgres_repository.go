package patients

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

// Querier is the subset of pgxpool.Pool the repository uses.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores accounts in the patients table.
type PostgresRepository struct {
	pool Querier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool Querier) *PostgresRepository {
	if pool == nil {
		panic("patients: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Create inserts p; the unique email index maps to ErrEmailTaken.
func (r *PostgresRepository) Create(ctx context.Context, p *Patient) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Email = NormalizeEmail(p.Email)
	var dob any
	if !p.DateOfBirth.IsZero() {
		dob = p.DateOfBirth.In(time.UTC)
	}
	query := `
		INSERT INTO patients (id, first_name, last_name, email, phone, date_of_birth, gender, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		p.ID,
		p.FirstName,
		p.LastName,
		p.Email,
		p.Phone,
		dob,
		p.Gender,
		p.PasswordHash,
	).Scan(&createdAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("patients: insert: %w", err)
	}
	p.CreatedAt = createdAt
	return nil
}

// GetByEmail fetches one account.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*Patient, error) {
	query := `
		SELECT id, first_name, last_name, email, phone, date_of_birth, gender, password_hash, created_at
		FROM patients
		WHERE email = $1
	`
	var (
		p   Patient
		dob *time.Time
	)
	if err := r.pool.QueryRow(ctx, query, NormalizeEmail(email)).Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.Email,
		&p.Phone,
		&dob,
		&p.Gender,
		&p.PasswordHash,
		&p.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("patients: get: %w", err)
	}
	if dob != nil {
		p.DateOfBirth = calendar.DateOf(*dob)
	}
	return &p, nil
}
