package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Flowboard/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeWorkflowSaved     MessageType = "workflow.saved"
	MessageTypeWorkflowConflict  MessageType = "workflow.conflict"
	MessageTypeWorkflowPublished MessageType = "workflow.published"
)

// Publisher публикует события редактирования в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// WorkflowSavedPayload — payload события принятого сохранения.
//
// Событие несёт только версию и метаданные, не снапшот: подписчики
// никогда не применяют чужое содержимое к своему буферу правок, и
// гонять полный документ через брокера незачем.
type WorkflowSavedPayload struct {
	WorkflowID uuid.UUID `json:"workflow_id"`
	Version    int       `json:"version"`
	SavedBy    string    `json:"saved_by"`
	Timestamp  time.Time `json:"timestamp"`
}

// WorkflowPublishedPayload — payload события публикации.
type WorkflowPublishedPayload struct {
	WorkflowID  uuid.UUID `json:"workflow_id"`
	Version     int       `json:"version"`
	PublishedBy string    `json:"published_by,omitempty"`
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishWorkflowSaved публикует событие принятого сохранения.
// Потребители: сессии других клиентов того же workflow.
func (p *Publisher) PublishWorkflowSaved(ctx context.Context, res *domain.SaveResult) error {
	msg := &Message{
		ID:   uuid.New().String(),
		Type: MessageTypeWorkflowSaved,
		Payload: WorkflowSavedPayload{
			WorkflowID: res.WorkflowID,
			Version:    res.Version,
			SavedBy:    res.SavedBy,
			Timestamp:  res.Timestamp,
		},
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeWorkflows, WorkflowRoutingKey(res.WorkflowID, eventSaved), msg)
}

// PublishWorkflowPublished публикует событие публикации workflow.
func (p *Publisher) PublishWorkflowPublished(ctx context.Context, payload WorkflowPublishedPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeWorkflowPublished,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeWorkflows, WorkflowRoutingKey(payload.WorkflowID, eventPublished), msg)
}

// PublishJSON публикует произвольный JSON payload.
func (p *Publisher) PublishJSON(ctx context.Context, exchange Exchange, routingKey RoutingKey, msgType MessageType, payload any) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, exchange, routingKey, msg)
}
