package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// SessionHandlers — коллбеки подписки сессии на события workflow.
// Незаданные коллбеки пропускаются.
type SessionHandlers struct {
	// Saved — принято сохранение (в том числе собственное:
	// фильтрация эха по saved_by — на стороне подписчика).
	Saved func(WorkflowSavedPayload)

	// Published — workflow опубликован.
	Published func(WorkflowPublishedPayload)

	// Disconnected — транспорт потерян, события могут быть пропущены.
	Disconnected func()

	// Connected — транспорт восстановлен.
	Connected func()
}

// Subscriber доставляет сессии события одного workflow.
//
// Для каждой подписки объявляется эксклюзивная auto-delete очередь,
// привязанная к flowboard.workflows по шаблону workflow.<uuid>.*.
// Очередь живёт вместе с подпиской: пропущенные за время разрыва
// события не доигрываются, подписчик узнаёт о разрыве через
// Disconnected/Connected.
type Subscriber struct {
	conn   *Connection
	logger *slog.Logger
}

// NewSubscriber создаёт новый Subscriber.
func NewSubscriber(conn *Connection, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		conn:   conn,
		logger: logger,
	}
}

// Subscribe блокируется до отмены ctx, доставляя события workflowID
// в коллбеки handlers. Возвращает ошибку только при невозможности
// первоначальной настройки подписки.
func (s *Subscriber) Subscribe(ctx context.Context, workflowID uuid.UUID, handlers SessionHandlers) error {
	deliveries, err := s.setup(workflowID)
	if err != nil {
		return fmt.Errorf("subscribe workflow %s: %w", workflowID, err)
	}

	s.logger.Info("subscribed to workflow events", "workflow_id", workflowID)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case raw, ok := <-deliveries:
			if !ok {
				// Канал закрыт — транспорт потерян.
				if handlers.Disconnected != nil {
					handlers.Disconnected()
				}

				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-s.conn.ReconnectNotify():
				}

				deliveries, err = s.setup(workflowID)
				if err != nil {
					s.logger.Error("resubscribe failed",
						"workflow_id", workflowID,
						"error", err,
					)
					return fmt.Errorf("resubscribe workflow %s: %w", workflowID, err)
				}
				if handlers.Connected != nil {
					handlers.Connected()
				}
				s.logger.Info("resubscribed to workflow events", "workflow_id", workflowID)
				continue
			}

			s.dispatch(raw, handlers)
		}
	}
}

// setup объявляет эксклюзивную очередь подписки и начинает потребление.
func (s *Subscriber) setup(workflowID uuid.UUID) (<-chan amqp.Delivery, error) {
	ch := s.conn.Channel()
	if ch == nil {
		return nil, fmt.Errorf("no channel available")
	}

	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return nil, fmt.Errorf("declare subscriber queue: %w", err)
	}

	err = ch.QueueBind(
		q.Name,
		string(WorkflowBindingKey(workflowID)),
		string(ExchangeWorkflows),
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return nil, fmt.Errorf("bind subscriber queue: %w", err)
	}

	deliveries, err := ch.Consume(
		q.Name,
		"",    // consumer tag (auto-generated)
		true,  // auto-ack: события только уведомляют, переигрывать нечего
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return nil, fmt.Errorf("consume subscriber queue: %w", err)
	}

	return deliveries, nil
}

// dispatch разбирает событие и вызывает соответствующий коллбек.
func (s *Subscriber) dispatch(raw amqp.Delivery, handlers SessionHandlers) {
	var msg Message
	if err := json.Unmarshal(raw.Body, &msg); err != nil {
		s.logger.Error("failed to unmarshal event",
			"error", err,
			"body", string(raw.Body),
		)
		return
	}

	switch msg.Type {
	case MessageTypeWorkflowSaved:
		if handlers.Saved == nil {
			return
		}
		payload, err := ParsePayload[WorkflowSavedPayload](&msg)
		if err != nil {
			s.logger.Error("bad workflow.saved payload", "error", err)
			return
		}
		handlers.Saved(payload)

	case MessageTypeWorkflowPublished:
		if handlers.Published == nil {
			return
		}
		payload, err := ParsePayload[WorkflowPublishedPayload](&msg)
		if err != nil {
			s.logger.Error("bad workflow.published payload", "error", err)
			return
		}
		handlers.Published(payload)

	default:
		s.logger.Debug("ignoring event", "type", msg.Type)
	}
}
