package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics — счётчики редакторского ядра.
//
// Регистрируются в DefaultRegisterer и отдаются на /metrics endpoint.
type Metrics struct {
	// SavesTotal — исходы сохранений по статусу (saved/conflict/error).
	SavesTotal *prometheus.CounterVec

	// SaveDuration — длительность сохранения, секунды.
	SaveDuration prometheus.Histogram

	// PublishesTotal — попытки публикации по исходу (ok/invalid/error).
	PublishesTotal *prometheus.CounterVec

	// FragmentsTotal — отрендеренные фрагменты по типу шага.
	FragmentsTotal *prometheus.CounterVec

	// VersionsPruned — удалённые чисткой записи истории версий.
	VersionsPruned prometheus.Counter
}

// NewMetrics создаёт и регистрирует метрики.
// Вызывать не более одного раза на процесс.
func NewMetrics() *Metrics {
	return &Metrics{
		SavesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "flowboard_saves_total",
			Help: "Workflow save outcomes by status.",
		}, []string{"status"}),

		SaveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "flowboard_save_duration_seconds",
			Help:    "Workflow save duration.",
			Buckets: prometheus.DefBuckets,
		}),

		PublishesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "flowboard_publishes_total",
			Help: "Workflow publish attempts by outcome.",
		}, []string{"outcome"}),

		FragmentsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "flowboard_fragments_total",
			Help: "Rendered step fragments by step type.",
		}, []string{"step_type"}),

		VersionsPruned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "flowboard_versions_pruned_total",
			Help: "Workflow history versions removed by retention sweep.",
		}),
	}
}
