package domain

import (
	"time"

	"github.com/google/uuid"
)

// SaveResult — результат сохранения от слоя персистентности.
//
// Одна и та же форма используется в трёх местах:
//   - ответ на прямой вызов Save (оптимистическое сохранение)
//   - событие workflow.saved, доставляемое другим клиентам через MQ
//   - событие workflow.conflict
//
// Конфликт — штатный исход протокола, а не ошибка, поэтому доставляется
// значением, а не error.
type SaveResult struct {
	// Status — исход сохранения: saved, conflict или error.
	Status SaveStatus `json:"status"`

	// WorkflowID — идентификатор workflow.
	WorkflowID uuid.UUID `json:"workflow_id"`

	// Version — актуальный номер версии на сервере.
	// Для saved — новая (инкрементированная) версия.
	// Для conflict — версия, которую хранит сервер.
	Version int `json:"version"`

	// SavedBy — кто выполнил сохранение (для saved)
	// или чьё сохранение опередило (для conflict).
	SavedBy string `json:"saved_by,omitempty"`

	// Timestamp — время сохранения на сервере.
	Timestamp time.Time `json:"timestamp"`

	// Snapshot — серверный снапшот workflow.
	// Заполняется для conflict, чтобы клиент мог показать чужие правки.
	Snapshot *Workflow `json:"snapshot,omitempty"`

	// ConflictingUser — пользователь, чья версия хранится на сервере.
	ConflictingUser string `json:"conflicting_user,omitempty"`

	// Message — человекочитаемое описание исхода.
	Message string `json:"message,omitempty"`

	// Errors — список ошибок для Status == error.
	Errors []string `json:"errors,omitempty"`
}

// IsConflict возвращает true для конфликтного исхода.
func (r *SaveResult) IsConflict() bool {
	return r.Status == SaveStatusConflict
}
