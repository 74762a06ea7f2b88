package event

import (
	"encoding/json"

	"github.com/streadway/amqp"

	"assessment-service/internal/pkg/logger"
)

// Event types published by the session and generation flows.
const (
	TypeSessionStarted    = "assessment.session.started"
	TypeAnswerSubmitted   = "assessment.session.answer"
	TypeSessionCompleted  = "assessment.session.completed"
	TypeGenerationStarted = "assessment.generation.started"
)

type EventPublisher struct {
	log      *logger.Logger
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewEventPublisher(log *logger.Logger, amqpURL, exchange string) (*EventPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, err
	}
	return &EventPublisher{log: log, conn: conn, channel: ch, exchange: exchange}, nil
}

// Publish sends a typed event with the event type as routing key. Delivery
// is best effort; a nil publisher silently drops events so callers never
// need to branch on whether messaging is configured.
func (p *EventPublisher) Publish(eventType string, payload interface{}) error {
	if p == nil {
		return nil
	}

	event := map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.log.Debug("publishing event", "type", eventType)

	return p.channel.Publish(
		p.exchange,
		eventType, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

func (p *EventPublisher) Close() {
	if p == nil {
		return
	}
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
