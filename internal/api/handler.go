package api

import (
	"log/slog"

	"github.com/shaiso/Flowboard/internal/mq"
	"github.com/shaiso/Flowboard/internal/render"
	"github.com/shaiso/Flowboard/internal/repo"
	"github.com/shaiso/Flowboard/internal/telemetry"
)

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	workflowRepo *repo.WorkflowRepo
	publisher    *mq.Publisher
	renderer     *render.Renderer
	metrics      *telemetry.Metrics
	logger       *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	WorkflowRepo *repo.WorkflowRepo
	Publisher    *mq.Publisher
	Renderer     *render.Renderer
	Metrics      *telemetry.Metrics
	Logger       *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		workflowRepo: cfg.WorkflowRepo,
		publisher:    cfg.Publisher,
		renderer:     cfg.Renderer,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
	}
}
