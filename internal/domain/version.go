package domain

import (
	"time"

	"github.com/google/uuid"
)

// WorkflowVersion — одна принятая версия workflow в истории.
//
// История пополняется слоем персистентности при каждом принятом
// сохранении и подрезается фоновой чисткой по политике удержания.
type WorkflowVersion struct {
	// WorkflowID — workflow, которому принадлежит версия.
	WorkflowID uuid.UUID `json:"workflow_id"`

	// Version — номер версии.
	Version int `json:"version"`

	// SavedBy — кто сохранил эту версию.
	SavedBy string `json:"saved_by,omitempty"`

	// Snapshot — полный снимок workflow на момент сохранения.
	Snapshot *Workflow `json:"snapshot,omitempty"`

	// CreatedAt — время принятия версии.
	CreatedAt time.Time `json:"created_at"`
}
