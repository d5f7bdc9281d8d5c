package domain

// WorkflowStatus — статус жизненного цикла workflow.
//
// Жизненный цикл:
//
//	DRAFT → PUBLISHED
//
// Черновик терпим к неполной структуре (decision без веток, висячие
// ссылки); публикация требует полной структурной валидации.
type WorkflowStatus string

const (
	// WorkflowStatusDraft — черновик, сохраняется без строгой валидации.
	WorkflowStatusDraft WorkflowStatus = "DRAFT"

	// WorkflowStatusPublished — опубликован после полной валидации.
	WorkflowStatusPublished WorkflowStatus = "PUBLISHED"
)

// SessionState — состояние сессии совместного редактирования.
//
// Машина состояний:
//
//	Ready → Saving → {Saved, Conflict, Error} → Ready
//
// Saved автоматически возвращается в Ready по таймауту.
// Conflict держится до явного действия пользователя (refresh/force/dismiss).
type SessionState string

const (
	// SessionStateReady — правки принимаются, автосохранение активно.
	SessionStateReady SessionState = "READY"

	// SessionStateSaving — снапшот отправлен, ожидается ответ.
	SessionStateSaving SessionState = "SAVING"

	// SessionStateSaved — сохранение принято; индикатор вернётся
	// в нейтральное состояние по таймауту.
	SessionStateSaved SessionState = "SAVED"

	// SessionStateConflict — версия устарела; автосохранение
	// приостановлено до явного разрешения конфликта.
	SessionStateConflict SessionState = "CONFLICT"

	// SessionStateError — транспортная ошибка; следующая правка
	// перезапустит цикл автосохранения.
	SessionStateError SessionState = "ERROR"
)

// IsBlocked возвращает true, если автосохранение приостановлено.
func (s SessionState) IsBlocked() bool {
	return s == SessionStateConflict
}

// SaveStatus — статус результата сохранения от слоя персистентности.
type SaveStatus string

const (
	// SaveStatusSaved — версия совпала, сохранение принято.
	SaveStatusSaved SaveStatus = "saved"

	// SaveStatusConflict — отправленная версия устарела.
	SaveStatusConflict SaveStatus = "conflict"

	// SaveStatusError — сохранение не прошло по иной причине.
	SaveStatusError SaveStatus = "error"
)
