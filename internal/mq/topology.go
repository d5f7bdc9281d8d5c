package mq

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	// ExchangeWorkflows — topic-обменник событий редактирования.
	// Ключи маршрутизации: workflow.<uuid>.saved, workflow.<uuid>.conflict,
	// workflow.<uuid>.published.
	ExchangeWorkflows Exchange = "flowboard.workflows"

	// ExchangeDLQ — dead letter queue для необработанных событий.
	ExchangeDLQ Exchange = "flowboard.dlq"
)

// Queues — долговечные очереди.
const (
	// QueueRetentionSaved — принятые сохранения для фоновой чистки
	// истории версий. Привязана по шаблону workflow.*.saved.
	QueueRetentionSaved Queue = "retention.saved"

	// QueueDLQEvents — очередь мёртвых событий для ручного разбора.
	QueueDLQEvents Queue = "dlq.events"
)

// Routing keys.
const (
	RoutingKeyDLQEvents RoutingKey = "events"
)

// Суффиксы ключей маршрутизации событий workflow.
const (
	eventSaved     = "saved"
	eventConflict  = "conflict"
	eventPublished = "published"
)

// WorkflowRoutingKey строит ключ маршрутизации события workflow.
func WorkflowRoutingKey(workflowID uuid.UUID, event string) RoutingKey {
	return RoutingKey(fmt.Sprintf("workflow.%s.%s", workflowID, event))
}

// WorkflowBindingKey строит шаблон привязки на все события одного workflow.
func WorkflowBindingKey(workflowID uuid.UUID) RoutingKey {
	return RoutingKey(fmt.Sprintf("workflow.%s.*", workflowID))
}

// SetupTopology объявляет обменники и долговечные очереди.
// Очереди подписчиков объявляются самими подписчиками (эксклюзивные,
// auto-delete) и в топологию не входят.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}
		if err := declareQueues(ch); err != nil {
			return err
		}
		return bindQueues(ch)
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeWorkflows, "topic"},
		{ExchangeDLQ, "direct"},
	}

	for _, ex := range exchanges {
		err := ch.ExchangeDeclare(
			string(ex.name), // name
			ex.kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	return nil
}

// declareQueues создаёт долговечные очереди.
func declareQueues(ch *amqp.Channel) error {
	// Необработанные события retention уходят в DLQ после retry.
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQEvents),
	}

	queues := []struct {
		name Queue
		args amqp.Table
	}{
		{QueueRetentionSaved, dlqArgs},
		{QueueDLQEvents, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	return nil
}

// bindQueues привязывает очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueRetentionSaved, RoutingKey("workflow.*." + eventSaved), ExchangeWorkflows},
		{QueueDLQEvents, RoutingKeyDLQEvents, ExchangeDLQ},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Flowboard RabbitMQ Topology:

    flowboard.workflows (topic)
    ├── <subscriber queues> [binding: workflow.<uuid>.*]
    │       Events: saved, conflict, published
    │       Consumer: editor sessions
    └── retention.saved [binding: workflow.*.saved]
            Consumer: sweeper
            DLQ: dlq.events
    flowboard.dlq (direct)
    └── dlq.events [routing: events]
            Manual processing
  `
}
