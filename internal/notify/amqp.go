package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// MailRoutingKey is the routing key mail requests are published with.
const MailRoutingKey = "mail.organizer.large_booking"

// MailMessage is the body of a published mail request.
type MailMessage struct {
	To        string    `json:"to"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// publisher is the part of *amqp.Channel the mailer uses.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPMailer hands mails to a downstream mail worker through RabbitMQ.
type AMQPMailer struct {
	conn     *amqp.Connection
	ch       publisher
	exchange string
	lg       zerolog.Logger
	now      func() time.Time
}

// DialAMQPMailer connects to RabbitMQ and declares the mail exchange.
func DialAMQPMailer(url, exchange string, lg zerolog.Logger) (*AMQPMailer, error) {
	var conn *amqp.Connection
	var err error

	for i := 0; i < 5; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		lg.Warn().Err(err).Msgf("failed to connect to RabbitMQ, retrying in 2s... (%d/5)", i+1)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	m := newAMQPMailer(ch, exchange, lg)
	m.conn = conn
	return m, nil
}

func newAMQPMailer(ch publisher, exchange string, lg zerolog.Logger) *AMQPMailer {
	return &AMQPMailer{
		ch:       ch,
		exchange: exchange,
		lg:       lg.With().Str("component", "amqp_mailer").Logger(),
		now:      time.Now,
	}
}

// SendMail publishes a persistent mail request routed by MailRoutingKey.
func (m *AMQPMailer) SendMail(ctx context.Context, to, body string) error {
	if to == "" {
		return ErrNoRecipient
	}

	payload, err := json.Marshal(MailMessage{To: to, Body: body, CreatedAt: m.now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal mail message: %w", err)
	}

	err = m.ch.PublishWithContext(ctx,
		m.exchange,
		MailRoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    m.now(),
			Body:         payload,
		},
	)
	if err != nil {
		return fmt.Errorf("publish mail message: %w", err)
	}

	m.lg.Debug().Str("to", to).Msg("mail request published")
	return nil
}

// Close closes the channel and connection.
func (m *AMQPMailer) Close() {
	if c, ok := m.ch.(*amqp.Channel); ok && c != nil {
		_ = c.Close()
	}
	if m.conn != nil {
		_ = m.conn.Close()
	}
}
