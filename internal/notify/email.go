package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/healthcareplus/echannelling/pkg/logging"
)

// EmailSender delivers one email.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is a single patient facing email. Category tags the message
// in SendGrid activity; Args travel as custom args (booking reference etc).
type EmailMessage struct {
	To       string
	ToName   string
	Subject  string
	Body     string
	HTML     string
	Category string
	Args     map[string]string
}

// Message categories.
const (
	CategoryBooking = "echannelling-booking"
	CategoryWelcome = "echannelling-welcome"
)

// DefaultFromName is used when SendGridConfig.FromName is empty.
const DefaultFromName = "HealthCare+"

const sendPath = "/v3/mail/send"

var errNoRecipient = errors.New("notify: message has no recipient")

// SendGridConfig configures SendGridSender. Host overrides the API base
// (https://api.sendgrid.com when empty).
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	ReplyTo   string
	Host      string
}

// SendGridSender sends mail through the SendGrid v3 API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	replyTo   string
	logger    *logging.Logger
}

// NewSendGridSender returns nil when no API key is configured so callers can
// fall back to the stub.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = DefaultFromName
	}
	client := sendgrid.NewSendClient(cfg.APIKey)
	if host := strings.TrimRight(cfg.Host, "/"); host != "" {
		client.BaseURL = host + sendPath
	}
	return &SendGridSender{
		client:    client,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		replyTo:   cfg.ReplyTo,
		logger:    logger,
	}
}

func (s *SendGridSender) build(msg EmailMessage) *mail.SGMailV3 {
	html := msg.HTML
	if html == "" {
		html = plainToHTML(msg.Body)
	}
	m := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.fromEmail),
		msg.Subject,
		mail.NewEmail(msg.ToName, msg.To),
		msg.Body,
		html,
	)
	if s.replyTo != "" {
		m.SetReplyTo(mail.NewEmail(s.fromName, s.replyTo))
	}
	if msg.Category != "" {
		m.AddCategories(msg.Category)
	}
	if len(m.Personalizations) > 0 {
		keys := make([]string, 0, len(msg.Args))
		for k := range msg.Args {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			m.Personalizations[0].SetCustomArg(k, msg.Args[k])
		}
	}
	return m
}

// Send posts the message. Any non 2xx response is an error.
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}
	if strings.TrimSpace(msg.To) == "" {
		return errNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	resp, err := s.client.SendWithContext(ctx, s.build(msg))
	if err != nil {
		s.logger.Error("sendgrid send failed", "error", err, "to", maskEmail(msg.To), "category", msg.Category)
		return fmt.Errorf("notify: sendgrid send: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Error("sendgrid rejected message", "status", resp.StatusCode, "body", resp.Body, "to", maskEmail(msg.To))
		return fmt.Errorf("notify: sendgrid returned status %d", resp.StatusCode)
	}

	s.logger.Info("email sent", "to", maskEmail(msg.To), "category", msg.Category, "status", resp.StatusCode)
	return nil
}

// StubEmailSender logs instead of sending. It is used when no API key is configured.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if strings.TrimSpace(msg.To) == "" {
		return errNoRecipient
	}
	s.logger.Info("email not sent (stub sender)", "to", maskEmail(msg.To), "subject", msg.Subject, "category", msg.Category)
	return nil
}

// maskEmail keeps the first letter of the mailbox and the domain.
func maskEmail(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at <= 0 {
		return "***"
	}
	return addr[:1] + "***" + addr[at:]
}

func plainToHTML(body string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\n", "<br>")
	return "<p>" + r.Replace(body) + "</p>"
}
