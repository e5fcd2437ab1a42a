package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/annel0/voxelmap/internal/logging"
)

const namespace = "voxelmap"

// Metrics инкапсулирует Prometheus-метрики карты.
// Все методы безопасны для nil получателя, чтобы компоненты работали и без метрик.
type Metrics struct {
	TrackedChunks      prometheus.Gauge
	SurfaceVisits      prometheus.Counter
	PersistRequests    *prometheus.CounterVec // reason: unload, flush
	SurfaceRenders     prometheus.Counter
	UndergroundUpdates prometheus.Counter
	ClearedCells       *prometheus.CounterVec // layer: surface, underground
	FloodFillColumns   prometheus.Histogram

	TasksSubmitted *prometheus.CounterVec // task
	TasksDropped   *prometheus.CounterVec
	TasksFailed    *prometheus.CounterVec
	TaskDuration   *prometheus.HistogramVec
	QueueDepth     prometheus.Gauge
}

// New создаёт метрики и регистрирует их в reg. При reg == nil метрики не регистрируются.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TrackedChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "chunks",
			Help:      "Количество отслеживаемых чанков.",
		}),
		SurfaceVisits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "surface_visits_total",
			Help:      "Чанков, просмотренных циклическим обходом поверхности.",
		}),
		PersistRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "persist_requests_total",
			Help:      "Запросов на сохранение снимков чанков.",
		}, []string{"reason"}),
		SurfaceRenders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "surface_chunks_total",
			Help:      "Чанков, отрисованных в растр поверхности.",
		}),
		UndergroundUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "underground_updates_total",
			Help:      "Выполненных циклов обновления подземного растра.",
		}),
		ClearedCells: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "cleared_cells_total",
			Help:      "Ячеек тороидальной текстуры, очищенных из-за смены владельца.",
		}, []string{"layer"}),
		FloodFillColumns: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "flood_fill_columns",
			Help:      "Колонн, проверенных одним проходом заливки.",
			Buckets:   prometheus.LinearBuckets(0, 200, 10),
		}),
		TasksSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "tasks_submitted_total",
			Help:      "Задач, принятых исполнителем.",
		}, []string{"task"}),
		TasksDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "tasks_dropped_total",
			Help:      "Задач, отброшенных из-за переполнения очереди или закрытия.",
		}, []string{"task"}),
		TasksFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "tasks_failed_total",
			Help:      "Задач, завершившихся ошибкой.",
		}, []string{"task"}),
		TaskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "task_duration_seconds",
			Help:      "Длительность выполнения задач.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"task"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "executor",
			Name:      "queue_depth",
			Help:      "Задач в очереди исполнителя.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.TrackedChunks, m.SurfaceVisits, m.PersistRequests, m.SurfaceRenders,
			m.UndergroundUpdates, m.ClearedCells, m.FloodFillColumns,
			m.TasksSubmitted, m.TasksDropped, m.TasksFailed, m.TaskDuration, m.QueueDepth,
		)
	}
	return m
}

func (m *Metrics) SetTrackedChunks(n int) {
	if m != nil {
		m.TrackedChunks.Set(float64(n))
	}
}

func (m *Metrics) AddSurfaceVisits(n int) {
	if m != nil {
		m.SurfaceVisits.Add(float64(n))
	}
}

func (m *Metrics) IncPersist(reason string) {
	if m != nil {
		m.PersistRequests.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncSurfaceRender() {
	if m != nil {
		m.SurfaceRenders.Inc()
	}
}

func (m *Metrics) IncUndergroundUpdate() {
	if m != nil {
		m.UndergroundUpdates.Inc()
	}
}

func (m *Metrics) IncClearedCell(layer string) {
	if m != nil {
		m.ClearedCells.WithLabelValues(layer).Inc()
	}
}

func (m *Metrics) ObserveFloodFill(columns int) {
	if m != nil {
		m.FloodFillColumns.Observe(float64(columns))
	}
}

func (m *Metrics) IncTaskSubmitted(task string) {
	if m != nil {
		m.TasksSubmitted.WithLabelValues(task).Inc()
	}
}

func (m *Metrics) IncTaskDropped(task string) {
	if m != nil {
		m.TasksDropped.WithLabelValues(task).Inc()
	}
}

func (m *Metrics) IncTaskFailed(task string) {
	if m != nil {
		m.TasksFailed.WithLabelValues(task).Inc()
	}
}

func (m *Metrics) ObserveTaskDuration(task string, seconds float64) {
	if m != nil {
		m.TaskDuration.WithLabelValues(task).Observe(seconds)
	}
}

func (m *Metrics) SetQueueDepth(n int) {
	if m != nil {
		m.QueueDepth.Set(float64(n))
	}
}

// StartHTTP запускает HTTP-эндпоинт Prometheus на указанном адресе (например, ":2112").
// Метод неблокирующий: HTTP-сервер стартует в отдельной горутине.
func StartHTTP(addr string, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
	return srv
}
