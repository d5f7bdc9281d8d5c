package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Flowboard/internal/domain"
	"github.com/shaiso/Flowboard/internal/layout"
)

// Workflow DTOs

// CreateWorkflowRequest — запрос на создание workflow.
type CreateWorkflowRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Mode        domain.WorkflowMode `json:"mode,omitempty"`
	User        string              `json:"user,omitempty"`
}

// SaveWorkflowRequest — запрос на сохранение workflow.
//
// ExpectedVersion — последняя версия, которую видел клиент. Снапшот
// принимается, только если она совпадает с хранимой.
type SaveWorkflowRequest struct {
	ExpectedVersion int              `json:"expected_version"`
	User            string           `json:"user,omitempty"`
	Workflow        *domain.Workflow `json:"workflow"`
}

// WorkflowResponse — ответ с метаданными workflow.
type WorkflowResponse struct {
	ID          uuid.UUID             `json:"id"`
	Title       string                `json:"title"`
	Description string                `json:"description,omitempty"`
	Mode        domain.WorkflowMode   `json:"mode"`
	Status      domain.WorkflowStatus `json:"status"`
	Version     int                   `json:"version"`
	Steps       []domain.Step         `json:"steps,omitempty"`
	UpdatedBy   string                `json:"updated_by,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// WorkflowFromDomain конвертирует domain.Workflow в WorkflowResponse.
func WorkflowFromDomain(wf domain.Workflow) WorkflowResponse {
	return WorkflowResponse{
		ID:          wf.ID,
		Title:       wf.Title,
		Description: wf.Description,
		Mode:        wf.Mode,
		Status:      wf.Status,
		Version:     wf.Version,
		Steps:       wf.Steps,
		UpdatedBy:   wf.UpdatedBy,
		CreatedAt:   wf.CreatedAt,
		UpdatedAt:   wf.UpdatedAt,
	}
}

// SaveResponse — ответ на сохранение.
//
// При конфликте версий возвращается со статусом 409 и серверным
// снапшотом для разрешения конфликта на клиенте.
type SaveResponse struct {
	Status          domain.SaveStatus `json:"status"`
	Version         int               `json:"version"`
	SavedBy         string            `json:"saved_by,omitempty"`
	ConflictingUser string            `json:"conflicting_user,omitempty"`
	Snapshot        *domain.Workflow  `json:"snapshot,omitempty"`
	Timestamp       time.Time         `json:"timestamp"`
}

// SaveFromDomain конвертирует domain.SaveResult в SaveResponse.
func SaveFromDomain(res *domain.SaveResult) SaveResponse {
	return SaveResponse{
		Status:          res.Status,
		Version:         res.Version,
		SavedBy:         res.SavedBy,
		ConflictingUser: res.ConflictingUser,
		Snapshot:        res.Snapshot,
		Timestamp:       res.Timestamp,
	}
}

// Version DTOs

// VersionResponse — ответ с записью истории версий.
type VersionResponse struct {
	WorkflowID uuid.UUID        `json:"workflow_id"`
	Version    int              `json:"version"`
	SavedBy    string           `json:"saved_by,omitempty"`
	Snapshot   *domain.Workflow `json:"snapshot,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// VersionFromDomain конвертирует domain.WorkflowVersion в VersionResponse.
func VersionFromDomain(v domain.WorkflowVersion) VersionResponse {
	return VersionResponse{
		WorkflowID: v.WorkflowID,
		Version:    v.Version,
		SavedBy:    v.SavedBy,
		Snapshot:   v.Snapshot,
		CreatedAt:  v.CreatedAt,
	}
}

// Variable DTOs

// VariableResponse — ответ с переменной реестра.
type VariableResponse struct {
	Name     string              `json:"name"`
	Type     domain.VariableType `json:"type"`
	StepKey  string              `json:"step_key"`
	Options  []string            `json:"options,omitempty"`
	Position int                 `json:"position"`
}

// Layout DTOs

// LayoutResponse — ответ с рассчитанной раскладкой.
type LayoutResponse struct {
	Positions  map[string]layout.Point `json:"positions"`
	Connectors []layout.Connector      `json:"connectors"`
	Edges      []domain.Edge           `json:"edges"`
	Bounds     layout.Rect             `json:"bounds"`
}

// Fragment DTOs

// FragmentRequestBody — запрос на рендеринг фрагмента шага.
type FragmentRequestBody struct {
	Type  domain.StepType `json:"type"`
	Index int             `json:"index"`
	Step  *domain.Step    `json:"step,omitempty"`
}

// FragmentResponse — ответ с HTML-фрагментом.
type FragmentResponse struct {
	HTML string `json:"html"`
}

// Publish DTOs

// PublishRequest — запрос на публикацию workflow.
type PublishRequest struct {
	User string `json:"user,omitempty"`
}
