package doctors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgxpool.Pool the directory uses.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresDirectory reads the doctors table.
type PostgresDirectory struct {
	pool Querier
}

// NewPostgresDirectory wraps a pgx pool.
func NewPostgresDirectory(pool Querier) *PostgresDirectory {
	if pool == nil {
		panic("doctors: pgx pool required")
	}
	return &PostgresDirectory{pool: pool}
}

const doctorColumns = `id, name, specialty, hospital, qualifications, experience_years, fee, available`

// List returns matching doctors ordered by id.
func (p *PostgresDirectory) List(ctx context.Context, f Filter) ([]Doctor, error) {
	query := `
		SELECT ` + doctorColumns + `
		FROM doctors
		WHERE ($1 = '' OR lower(specialty) = lower($1))
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR hospital ILIKE '%' || $2 || '%')
		  AND (NOT $3 OR available)
		ORDER BY length(id), id
	`
	rows, err := p.pool.Query(ctx, query,
		strings.TrimSpace(f.Specialty),
		strings.TrimSpace(f.Query),
		f.AvailableOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("doctors: list: %w", err)
	}
	defer rows.Close()

	out := []Doctor{}
	for rows.Next() {
		var d Doctor
		if err := scanDoctor(rows, &d); err != nil {
			return nil, fmt.Errorf("doctors: list scan: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("doctors: list rows: %w", err)
	}
	return out, nil
}

// Get returns one doctor by id.
func (p *PostgresDirectory) Get(ctx context.Context, id string) (Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE id = $1`
	var d Doctor
	if err := scanDoctor(p.pool.QueryRow(ctx, query, id), &d); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Doctor{}, ErrNotFound
		}
		return Doctor{}, fmt.Errorf("doctors: get: %w", err)
	}
	return d, nil
}

func scanDoctor(row pgx.Row, d *Doctor) error {
	return row.Scan(
		&d.ID,
		&d.Name,
		&d.Specialty,
		&d.Hospital,
		&d.Qualifications,
		&d.ExperienceYrs,
		&d.Fee,
		&d.Available,
	)
}
