package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

// ErrNoRecipient is returned when an event has no organizer address.
var ErrNoRecipient = errors.New("recipient address is empty")

// SMTPConfig describes the relay and the envelope of organizer mails.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Subject  string
	Timeout  time.Duration
	Insecure bool
}

// SMTPMailer sends plain-text mails through an SMTP relay.
type SMTPMailer struct {
	lg  zerolog.Logger
	cfg SMTPConfig

	// dial is replaced in tests.
	dial func(ctx context.Context, m *mail.Msg) error
}

// NewSMTPMailer returns a mailer that dials the relay on every send.
func NewSMTPMailer(cfg SMTPConfig, lg zerolog.Logger) *SMTPMailer {
	s := &SMTPMailer{
		lg:  lg.With().Str("component", "smtp_mailer").Logger(),
		cfg: cfg,
	}
	s.dial = s.dialAndSend
	return s
}

// SendMail delivers body to a single recipient, bounded by cfg.Timeout.
func (s *SMTPMailer) SendMail(ctx context.Context, to, body string) error {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	m, err := s.message(to, body)
	if err != nil {
		return err
	}

	if err := s.dial(ctx, m); err != nil {
		s.lg.Error().Err(err).Str("to", to).Msg("smtp send failed")
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	s.lg.Info().Str("to", to).Msg("smtp send ok")
	return nil
}

func (s *SMTPMailer) message(to, body string) (*mail.Msg, error) {
	if to == "" {
		return nil, ErrNoRecipient
	}
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(to); err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}
	m.Subject(s.cfg.Subject)
	m.SetBodyString(mail.TypeTextPlain, body)
	return m, nil
}

func (s *SMTPMailer) dialAndSend(ctx context.Context, m *mail.Msg) error {
	tlsPolicy := mail.TLSMandatory
	if s.cfg.Insecure {
		tlsPolicy = mail.TLSOpportunistic
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(tlsPolicy),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	c, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client init: %w", err)
	}
	return c.DialAndSendWithContext(ctx, m)
}
