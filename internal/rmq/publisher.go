package rmq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"hos-service/internal/model"
)

// Publisher pushes violation alerts to a durable topic exchange with
// routing key violation.<severity>.<driver_id>.
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      zerolog.Logger
}

func NewPublisher(url, exchange string, log zerolog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &Publisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		log:      log,
	}, nil
}

type violationAlert struct {
	ViolationID string  `json:"violation_id"`
	DriverID    string  `json:"driver_id"`
	Type        string  `json:"type"`
	Severity    string  `json:"severity"`
	ActualValue float64 `json:"actual_value"`
	LimitValue  float64 `json:"limit_value"`
	Description string  `json:"description"`
	OccurredAt  string  `json:"occurred_at"`
}

func (p *Publisher) PublishViolation(ctx context.Context, v model.HOSViolation) error {
	body, err := json.Marshal(violationAlert{
		ViolationID: v.ID.String(),
		DriverID:    v.DriverID.String(),
		Type:        string(v.Type),
		Severity:    string(v.Severity),
		ActualValue: v.ActualValue,
		LimitValue:  v.LimitValue,
		Description: v.Description,
		OccurredAt:  v.ViolationDateTime.Format("2006-01-02T15:04:05Z07:00"),
	})
	if err != nil {
		return err
	}

	routingKey := fmt.Sprintf("violation.%s.%s", strings.ToLower(string(v.Severity)), v.DriverID)

	if err := p.channel.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	); err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}

	p.log.Debug().
		Str("routing_key", routingKey).
		Msg("violation alert published")

	return nil
}

func (p *Publisher) Close() error {
	if err := p.channel.Close(); err != nil {
		return err
	}
	return p.conn.Close()
}
