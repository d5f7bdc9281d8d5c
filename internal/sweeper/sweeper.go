package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/Flowboard/internal/mq"
	"github.com/shaiso/Flowboard/internal/repo"
	"github.com/shaiso/Flowboard/internal/telemetry"
)

// cronParser — парсер cron-выражений.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Значения конфигурации по умолчанию.
const (
	// DefaultKeepVersions — сколько последних версий каждого workflow
	// переживает чистку.
	DefaultKeepVersions = 20

	// DefaultCronExpr — полный проход раз в час.
	DefaultCronExpr = "0 * * * *"
)

// Sweeper подрезает историю версий workflows по политике удержания.
//
// Работает в двух режимах одновременно:
//   - полный проход по расписанию (cron) — страховка от пропущенных событий
//   - точечная чистка по событию workflow.saved из очереди retention.saved
type Sweeper struct {
	workflowRepo *repo.WorkflowRepo
	logger       *slog.Logger
	metrics      *telemetry.Metrics
	keep         int
	schedule     cron.Schedule
}

// Config — конфигурация Sweeper.
type Config struct {
	WorkflowRepo *repo.WorkflowRepo
	Logger       *slog.Logger
	Metrics      *telemetry.Metrics

	// Keep — сколько последних версий оставлять (default: 20).
	Keep int

	// CronExpr — расписание полного прохода (default: "0 * * * *").
	CronExpr string
}

// New создаёт новый Sweeper.
func New(cfg Config) (*Sweeper, error) {
	keep := cfg.Keep
	if keep <= 0 {
		keep = DefaultKeepVersions
	}

	expr := cfg.CronExpr
	if expr == "" {
		expr = DefaultCronExpr
	}
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse sweep cron %q: %w", expr, err)
	}

	return &Sweeper{
		workflowRepo: cfg.WorkflowRepo,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		keep:         keep,
		schedule:     schedule,
	}, nil
}

// Run выполняет полные проходы по расписанию до отмены ctx.
func (s *Sweeper) Run(ctx context.Context) error {
	for {
		next := s.schedule.Next(time.Now())
		s.logger.Debug("next full sweep scheduled", "at", next)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(next)):
		}

		if err := s.SweepAll(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("full sweep failed", "error", err)
		}
	}
}

// SweepAll подрезает историю всех workflows.
// Ошибка одного workflow не блокирует обработку остальных.
func (s *Sweeper) SweepAll(ctx context.Context) error {
	ids, err := s.workflowRepo.WorkflowIDs(ctx)
	if err != nil {
		return fmt.Errorf("list workflows for sweep: %w", err)
	}

	var pruned int64
	var failed int
	for _, id := range ids {
		n, err := s.workflowRepo.PruneVersions(ctx, id, s.keep)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failed++
			telemetry.WithWorkflowID(s.logger, id.String()).Error("prune failed", "error", err)
			continue
		}
		pruned += n
	}

	if pruned > 0 {
		s.metrics.VersionsPruned.Add(float64(pruned))
	}

	s.logger.Info("full sweep completed",
		"workflows", len(ids),
		"pruned", pruned,
		"failed", failed,
		"keep", s.keep,
	)
	return nil
}

// HandleSaved — обработчик события workflow.saved: точечная чистка
// истории одного workflow. Подключается к mq.Consumer очереди
// retention.saved.
func (s *Sweeper) HandleSaved(ctx context.Context, d *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.WorkflowSavedPayload](&d.Message)
	if err != nil {
		// Некорректное событие переигрывать бессмысленно.
		s.logger.Error("bad workflow.saved payload", "error", err)
		return nil
	}

	n, err := s.workflowRepo.PruneVersions(ctx, payload.WorkflowID, s.keep)
	if err != nil {
		return fmt.Errorf("prune workflow %s: %w", payload.WorkflowID, err)
	}

	if n > 0 {
		s.metrics.VersionsPruned.Add(float64(n))
		telemetry.WithWorkflowID(s.logger, payload.WorkflowID.String()).Debug("pruned versions",
			"count", n,
			"version", payload.Version,
		)
	}
	return nil
}
