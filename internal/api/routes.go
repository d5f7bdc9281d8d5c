package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Workflows
	mux.Handle("GET /api/v1/workflows", chain(http.HandlerFunc(h.ListWorkflows)))
	mux.Handle("POST /api/v1/workflows", chain(http.HandlerFunc(h.CreateWorkflow)))
	mux.Handle("GET /api/v1/workflows/{id}", chain(http.HandlerFunc(h.GetWorkflow)))
	mux.Handle("PUT /api/v1/workflows/{id}", chain(http.HandlerFunc(h.SaveWorkflow)))
	mux.Handle("DELETE /api/v1/workflows/{id}", chain(http.HandlerFunc(h.DeleteWorkflow)))
	mux.Handle("POST /api/v1/workflows/{id}/publish", chain(http.HandlerFunc(h.PublishWorkflow)))

	// Editor support
	mux.Handle("GET /api/v1/workflows/{id}/variables", chain(http.HandlerFunc(h.ListWorkflowVariables)))
	mux.Handle("GET /api/v1/workflows/{id}/layout", chain(http.HandlerFunc(h.GetWorkflowLayout)))
	mux.Handle("POST /api/v1/workflows/{id}/steps/fragment", chain(http.HandlerFunc(h.RenderStepFragment)))

	// Version history
	mux.Handle("GET /api/v1/workflows/{id}/versions", chain(http.HandlerFunc(h.ListWorkflowVersions)))
	mux.Handle("GET /api/v1/workflows/{id}/versions/{version}", chain(http.HandlerFunc(h.GetWorkflowVersion)))
}
