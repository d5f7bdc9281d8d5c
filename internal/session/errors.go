package session

import "errors"

// Ошибки сессии совместного редактирования.
var (
	// ErrNoSaver — в конфигурации не задан слой персистентности.
	ErrNoSaver = errors.New("session: saver is required")

	// ErrNoWorkflow — в конфигурации не задан начальный снапшот.
	ErrNoWorkflow = errors.New("session: workflow is required")

	// ErrSessionClosed — операция над закрытой сессией.
	ErrSessionClosed = errors.New("session: closed")

	// ErrNoConflict — действие разрешения конфликта вне состояния Conflict.
	ErrNoConflict = errors.New("session: no pending conflict")

	// ErrNoConflictSnapshot — конфликтный результат без серверного
	// снапшота, refresh невозможен.
	ErrNoConflictSnapshot = errors.New("session: conflict result has no snapshot")
)
