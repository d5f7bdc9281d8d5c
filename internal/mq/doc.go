// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация событий редактирования
//   - consumer.go   — потребление сообщений из очередей
//   - subscriber.go — подписка сессии на события одного workflow
//
// Типы сообщений:
//   - workflow.saved     — принято чужое сохранение
//   - workflow.conflict  — зафиксирован конфликт версий
//   - workflow.published — workflow опубликован
//
// Exchanges:
//   - flowboard.workflows — topic, события редактирования
//   - flowboard.dlq       — dead letter queue
package mq
