package bootstrap

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/healthcareplus/echannelling/internal/appointments"
	appconfig "github.com/healthcareplus/echannelling/internal/config"
	"github.com/healthcareplus/echannelling/internal/doctors"
	"github.com/healthcareplus/echannelling/internal/flows"
	"github.com/healthcareplus/echannelling/internal/notify"
	"github.com/healthcareplus/echannelling/internal/patients"
	"github.com/healthcareplus/echannelling/internal/session"
	"github.com/healthcareplus/echannelling/internal/submission"
	"github.com/healthcareplus/echannelling/internal/wizard"
	"github.com/healthcareplus/echannelling/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildPostgresPool connects to DATABASE_URL. It returns nil, nil when no
// database is configured.
func BuildPostgresPool(ctx context.Context, cfg *appconfig.Config) (*pgxpool.Pool, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	return pool, nil
}

// Stores groups the persistence backends picked from configuration.
type Stores struct {
	Sessions     session.Store
	Doctors      doctors.Directory
	Appointments appointments.Repository
	Patients     patients.Repository
}

// BuildStores prefers Postgres and Redis when they are available and falls
// back to process memory otherwise.
func BuildStores(pool *pgxpool.Pool, redisClient *redis.Client, cfg *appconfig.Config, logger *logging.Logger) Stores {
	if logger == nil {
		logger = logging.Default()
	}
	var s Stores

	if redisClient != nil {
		s.Sessions = session.NewRedisStore(redisClient, cfg.SessionTTL)
	} else {
		logger.Warn("redis not configured; wizard sessions are kept in memory")
		mem := session.NewMemoryStore(cfg.SessionTTL)
		mem.StartSweeper(sweepInterval(cfg.SessionTTL))
		s.Sessions = mem
	}

	if pool != nil {
		s.Doctors = doctors.NewPostgresDirectory(pool)
		s.Appointments = appointments.NewPostgresRepository(pool)
		s.Patients = patients.NewPostgresRepository(pool)
	} else {
		logger.Warn("database not configured; using demo doctors and in-memory bookings")
		s.Doctors = doctors.NewDemoDirectory()
		s.Appointments = appointments.NewInMemoryRepository()
		s.Patients = patients.NewInMemoryRepository()
	}
	if redisClient != nil && cfg.DoctorCacheTTL > 0 {
		s.Doctors = doctors.NewCachedDirectory(s.Doctors, redisClient, cfg.DoctorCacheTTL, logger)
	}
	return s
}

// Close stops background work owned by the stores.
func (s Stores) Close() {
	if c, ok := s.Sessions.(io.Closer); ok {
		_ = c.Close()
	}
}

// sweepInterval checks for expired sessions a few times per TTL, at most
// once a minute.
func sweepInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	if interval := ttl / 4; interval < time.Minute {
		return interval
	}
	return time.Minute
}

// BuildAvailability returns the local appointments repository as the slot
// availability source. With a remote submission backend the local
// repository never sees bookings, so nil is returned and every slot in the
// window is offered; the backend refuses taken slots at submit.
func BuildAvailability(cfg *appconfig.Config, stores Stores, logger *logging.Logger) flows.AvailabilitySource {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.SubmissionBaseURL != "" || stores.Appointments == nil {
		logger.Warn("slot availability is not tracked locally; taken slots are refused at submission")
		return nil
	}
	return stores.Appointments
}

// BuildEmailSender returns SendGrid when an API key is set and the logging
// stub otherwise.
func BuildEmailSender(cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
		ReplyTo:   cfg.SendGridReplyTo,
	}, logger); sg != nil {
		return sg
	}
	return notify.NewStubEmailSender(logger)
}

// BuildSubmitter picks the legacy REST backend when SUBMISSION_BASE_URL is
// set and the local appointments/patients services otherwise.
func BuildSubmitter(cfg *appconfig.Config, stores Stores, notifier *notify.Service, logger *logging.Logger) (wizard.Submitter, *appointments.Service, error) {
	if cfg == nil {
		return nil, nil, errors.New("bootstrap: config is required")
	}
	apptSvc := appointments.NewService(stores.Appointments, logger)
	if cfg.SubmissionBaseURL != "" {
		remote, err := submission.NewRemote(submission.RemoteConfig{
			BaseURL: cfg.SubmissionBaseURL,
			APIKey:  cfg.SubmissionAPIKey,
			Timeout: cfg.SubmissionTimeout,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: %w", err)
		}
		return remote, apptSvc, nil
	}
	local := submission.NewLocal(stores.Doctors, apptSvc, patients.NewService(stores.Patients, logger), notifier, logger)
	return local, apptSvc, nil
}

// HealthCheck pings whichever backends are configured.
func HealthCheck(pool *pgxpool.Pool, redisClient *redis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
		}
		if redisClient != nil {
			if err := redisClient.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	}
}
