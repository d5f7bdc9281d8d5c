package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Flowboard/internal/domain"
	"github.com/shaiso/Flowboard/internal/engine"
	"github.com/shaiso/Flowboard/internal/layout"
	"github.com/shaiso/Flowboard/internal/mq"
	"github.com/shaiso/Flowboard/internal/render"
	"github.com/shaiso/Flowboard/internal/telemetry"
)

// ListWorkflows возвращает список всех workflows.
// GET /api/v1/workflows
func (h *Handler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	workflows, err := h.workflowRepo.List(r.Context())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]WorkflowResponse, len(workflows))
	for i, wf := range workflows {
		result[i] = WorkflowFromDomain(wf)
	}

	List(w, result, len(result))
}

// CreateWorkflow создаёт новый workflow-черновик с версией 0.
// POST /api/v1/workflows
func (h *Handler) CreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if req.Title == "" {
		BadRequest(w, "title is required")
		return
	}

	mode := req.Mode
	if mode == "" {
		mode = domain.ModeGraph
	}
	if mode != domain.ModeLegacy && mode != domain.ModeGraph {
		BadRequest(w, "mode must be legacy or graph")
		return
	}

	wf := &domain.Workflow{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		Mode:        mode,
		Status:      domain.WorkflowStatusDraft,
		UpdatedBy:   req.User,
	}

	if err := h.workflowRepo.Create(r.Context(), wf); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Created(w, WorkflowFromDomain(*wf))
}

// GetWorkflow возвращает workflow по ID.
// GET /api/v1/workflows/{id}
func (h *Handler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	wf, err := h.workflowRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	Success(w, WorkflowFromDomain(*wf))
}

// DeleteWorkflow удаляет workflow вместе с историей версий.
// DELETE /api/v1/workflows/{id}
func (h *Handler) DeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	if err := h.workflowRepo.Delete(r.Context(), id); err != nil {
		if HandleRepoError(w, h.logger, err, "workflow not found") {
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	NoContent(w)
}

// SaveWorkflow сохраняет снапшот с оптимистической блокировкой.
// PUT /api/v1/workflows/{id}
//
// Принятое сохранение — 200 со статусом saved; расхождение версий —
// 409 со статусом conflict, серверным снапшотом и автором опередившего
// сохранения. Черновик проходит только терпимую валидацию.
func (h *Handler) SaveWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	var req SaveWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Workflow == nil {
		BadRequest(w, "workflow snapshot is required")
		return
	}

	if err := engine.ValidateDraft(req.Workflow); err != nil {
		BadRequest(w, err.Error())
		return
	}

	if req.User != "" {
		req.Workflow.UpdatedBy = req.User
	}

	start := time.Now()
	res, err := h.workflowRepo.Save(r.Context(), id, req.Workflow, req.ExpectedVersion)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		h.metrics.SavesTotal.WithLabelValues(string(domain.SaveStatusError)).Inc()
		return
	}
	h.metrics.SaveDuration.Observe(time.Since(start).Seconds())
	h.metrics.SavesTotal.WithLabelValues(string(res.Status)).Inc()

	if res.IsConflict() {
		logger := telemetry.WithWorkflowID(h.logger, id.String())
		logger.Info("save conflict",
			"expected_version", req.ExpectedVersion,
			"stored_version", res.Version,
			"conflicting_user", res.ConflictingUser,
		)
		JSON(w, http.StatusConflict, SaveFromDomain(res))
		return
	}

	// Уведомляем сессии других клиентов. Сбой публикации не откатывает
	// принятое сохранение.
	if err := h.publisher.PublishWorkflowSaved(r.Context(), res); err != nil {
		h.logger.Error("publish workflow.saved failed",
			"workflow_id", id,
			"error", err,
		)
	}

	JSON(w, http.StatusOK, SaveFromDomain(res))
}

// PublishWorkflow публикует workflow после полной валидации.
// POST /api/v1/workflows/{id}/publish
//
// Структурные ошибки — 422 со списком причин.
func (h *Handler) PublishWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	var req PublishRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			BadRequest(w, "invalid request body")
			return
		}
	}

	wf, err := h.workflowRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	graph := engine.NewStepGraph(wf)
	if err := engine.ValidatePublish(graph); err != nil {
		h.metrics.PublishesTotal.WithLabelValues("invalid").Inc()
		ValidationFailed(w, []string{err.Error()})
		return
	}

	if err := h.workflowRepo.Publish(r.Context(), id); err != nil {
		h.metrics.PublishesTotal.WithLabelValues("error").Inc()
		InternalError(w, h.logger, err)
		return
	}
	h.metrics.PublishesTotal.WithLabelValues("ok").Inc()

	if err := h.publisher.PublishWorkflowPublished(r.Context(), mq.WorkflowPublishedPayload{
		WorkflowID:  id,
		Version:     wf.Version,
		PublishedBy: req.User,
	}); err != nil {
		h.logger.Error("publish workflow.published failed",
			"workflow_id", id,
			"error", err,
		)
	}

	wf.Status = domain.WorkflowStatusPublished
	Success(w, WorkflowFromDomain(*wf))
}

// ListWorkflowVariables возвращает реестр переменных workflow.
// GET /api/v1/workflows/{id}/variables
func (h *Handler) ListWorkflowVariables(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	wf, err := h.workflowRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	reg := engine.BuildRegistry(wf)
	vars := reg.List()

	result := make([]VariableResponse, len(vars))
	for i, v := range vars {
		key := strconv.Itoa(v.StepIndex)
		if wf.Mode == domain.ModeGraph && v.StepUID != uuid.Nil {
			key = v.StepUID.String()
		}
		result[i] = VariableResponse{
			Name:     v.Name,
			Type:     v.Type,
			StepKey:  key,
			Options:  v.Options,
			Position: i,
		}
	}

	List(w, result, len(result))
}

// GetWorkflowLayout возвращает детерминированную раскладку холста.
// GET /api/v1/workflows/{id}/layout
func (h *Handler) GetWorkflowLayout(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	wf, err := h.workflowRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	graph := engine.NewStepGraph(wf)
	edges := graph.ResolveEdges()
	lay := layout.Compute(wf, edges)

	Success(w, LayoutResponse{
		Positions:  lay.Positions,
		Connectors: lay.Connectors,
		Edges:      edges,
		Bounds:     lay.Bounds,
	})
}

// RenderStepFragment отдаёт HTML-фрагмент формы шага.
// POST /api/v1/workflows/{id}/steps/fragment
func (h *Handler) RenderStepFragment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	var req FragmentRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if !req.Type.IsValid() {
		BadRequest(w, "unknown step type: "+string(req.Type))
		return
	}

	wf, err := h.workflowRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	html, err := h.renderer.StepFragment(render.FragmentRequest{
		WorkflowID: id,
		Type:       req.Type,
		Index:      req.Index,
		Step:       req.Step,
		Variables:  engine.BuildRegistry(wf).Names(),
	})
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}
	h.metrics.FragmentsTotal.WithLabelValues(string(req.Type)).Inc()

	Success(w, FragmentResponse{HTML: html})
}

// ListWorkflowVersions возвращает историю версий workflow.
// GET /api/v1/workflows/{id}/versions
func (h *Handler) ListWorkflowVersions(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	_, err = h.workflowRepo.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	versions, err := h.workflowRepo.ListVersions(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]VersionResponse, len(versions))
	for i, v := range versions {
		result[i] = VersionFromDomain(v)
	}

	List(w, result, len(result))
}

// GetWorkflowVersion возвращает конкретную версию со снапшотом.
// GET /api/v1/workflows/{id}/versions/{version}
func (h *Handler) GetWorkflowVersion(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	versionNum, err := strconv.Atoi(r.PathValue("version"))
	if err != nil {
		BadRequest(w, "invalid version number")
		return
	}

	version, err := h.workflowRepo.GetVersion(r.Context(), id, versionNum)
	if HandleRepoError(w, h.logger, err, "workflow version not found") {
		return
	}

	Success(w, VersionFromDomain(*version))
}
