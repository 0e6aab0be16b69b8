// Package patients stores registered patient accounts.
package patients

import (
	"errors"
	"strings"
	"time"

	"github.com/healthcareplus/echannelling/internal/calendar"
)

var (
	// ErrEmailTaken is returned when an account already uses the email.
	ErrEmailTaken = errors.New("patients: email already registered")

	// ErrNotFound is returned when no account matches.
	ErrNotFound = errors.New("patients: not found")
)

// Patient is a registered account. The password hash never leaves the package as JSON.
type Patient struct {
	ID           string        `json:"id"`
	FirstName    string        `json:"first_name"`
	LastName     string        `json:"last_name"`
	Email        string        `json:"email"`
	Phone        string        `json:"phone"`
	DateOfBirth  calendar.Date `json:"date_of_birth"`
	Gender       string        `json:"gender"`
	PasswordHash []byte        `json:"-"`
	CreatedAt    time.Time     `json:"created_at"`
}

// FullName joins the name parts.
func (p Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// NormalizeEmail is the uniqueness key for accounts.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
