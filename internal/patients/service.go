package patients

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"

	"github.com/healthcareplus/echannelling/internal/calendar"
	"github.com/healthcareplus/echannelling/pkg/logging"
)

var patientsTracer = otel.Tracer("echannelling.internal.patients")

// RegisterRequest carries a finished registration form.
type RegisterRequest struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	DateOfBirth calendar.Date
	Gender      string
	Password    string
}

// Service registers patients.
type Service struct {
	repo   Repository
	logger *logging.Logger
	cost   int
}

// NewService constructs a patients service.
func NewService(repo Repository, logger *logging.Logger) *Service {
	if repo == nil {
		panic("patients: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, logger: logger, cost: bcrypt.DefaultCost}
}

// Register hashes the password and stores a new account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Patient, error) {
	ctx, span := patientsTracer.Start(ctx, "patients.register")
	defer span.End()

	if req.Password == "" {
		return nil, errors.New("patients: register: password required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("patients: hash password: %w", err)
	}

	p := &Patient{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		DateOfBirth:  req.DateOfBirth,
		Gender:       req.Gender,
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("patients: register: %w", err)
	}
	span.SetAttributes(attribute.String("echannelling.patient_id", p.ID))
	s.logger.Info("patient registered", "patient_id", p.ID)
	return p, nil
}
