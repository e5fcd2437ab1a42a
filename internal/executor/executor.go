package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/voxelmap/internal/logging"
	"github.com/annel0/voxelmap/internal/metrics"
	"github.com/annel0/voxelmap/internal/observability"
)

var (
	// ErrClosed возвращается при отправке задачи в закрытый исполнитель
	ErrClosed = errors.New("executor: исполнитель закрыт")
	// ErrQueueFull возвращается, когда очередь переполнена и задача отброшена
	ErrQueueFull = errors.New("executor: очередь переполнена")
)

// Task фоновая задача: сохранение снимка, перерисовка чанка
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// funcTask задача из функции
type funcTask struct {
	name string
	fn   func(ctx context.Context) error
}

func (t funcTask) Name() string                  { return t.name }
func (t funcTask) Run(ctx context.Context) error { return t.fn(ctx) }

// Func оборачивает функцию в задачу
func Func(name string, fn func(ctx context.Context) error) Task {
	return funcTask{name: name, fn: fn}
}

// Submitter принимает задачи без ожидания результата
type Submitter interface {
	Submit(task Task) error
}

// Stats счётчики исполнителя
type Stats struct {
	Submitted int64
	Dropped   int64
	Completed int64
	Failed    int64
}

type job struct {
	id       uuid.UUID
	task     Task
	enqueued time.Time
}

// Executor пул воркеров с ограниченной очередью. Submit никогда не блокирует:
// при переполнении задача отбрасывается и учитывается в статистике.
type Executor struct {
	queue   chan job
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	ctx     context.Context
	cancel  context.CancelFunc
	tracer  trace.Tracer
	metrics *metrics.Metrics
	log     *logging.Logger

	submitted atomic.Int64
	dropped   atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

// New запускает workers воркеров с очередью на queueSize задач
func New(workers, queueSize int, m *metrics.Metrics) *Executor {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Executor{
		queue:   make(chan job, queueSize),
		ctx:     ctx,
		cancel:  cancel,
		tracer:  observability.Tracer("executor"),
		metrics: m,
		log:     logging.GetExecutorLogger(),
	}

	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.worker(i)
	}
	return e
}

// Submit ставит задачу в очередь, не дожидаясь выполнения
func (e *Executor) Submit(task Task) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	name := task.Name()
	if e.closed {
		e.drop(name)
		return ErrClosed
	}

	j := job{id: uuid.New(), task: task, enqueued: time.Now()}
	select {
	case e.queue <- j:
		e.submitted.Add(1)
		e.metrics.IncTaskSubmitted(name)
		e.metrics.SetQueueDepth(len(e.queue))
		return nil
	default:
		e.drop(name)
		e.log.Warn("Очередь переполнена, задача %s отброшена", name)
		return ErrQueueFull
	}
}

func (e *Executor) drop(name string) {
	e.dropped.Add(1)
	e.metrics.IncTaskDropped(name)
}

// Close перестаёт принимать задачи, выполняет уже поставленные и ждёт воркеров.
// Повторный вызов безопасен.
func (e *Executor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.queue)
	e.mu.Unlock()

	e.wg.Wait()
	e.cancel()
	e.log.Info("Исполнитель остановлен: выполнено %d, ошибок %d, отброшено %d",
		e.completed.Load(), e.failed.Load(), e.dropped.Load())
}

// Stats возвращает снимок счётчиков
func (e *Executor) Stats() Stats {
	return Stats{
		Submitted: e.submitted.Load(),
		Dropped:   e.dropped.Load(),
		Completed: e.completed.Load(),
		Failed:    e.failed.Load(),
	}
}

func (e *Executor) worker(id int) {
	defer e.wg.Done()
	for j := range e.queue {
		e.metrics.SetQueueDepth(len(e.queue))
		e.run(id, j)
	}
}

func (e *Executor) run(workerID int, j job) {
	name := j.task.Name()
	ctx, span := e.tracer.Start(e.ctx, "task."+name, trace.WithAttributes(
		attribute.String("task.id", j.id.String()),
		attribute.String("task.name", name),
		attribute.Int("worker.id", workerID),
		attribute.Int64("task.wait_ms", time.Since(j.enqueued).Milliseconds()),
	))
	defer span.End()

	start := time.Now()
	err := safeRun(ctx, j.task)
	elapsed := time.Since(start)

	e.metrics.ObserveTaskDuration(name, elapsed.Seconds())

	if err != nil {
		e.failed.Add(1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.metrics.IncTaskFailed(name)
		e.log.Error("Задача %s [%s] завершилась ошибкой: %v", name, j.id, err)
		return
	}

	e.completed.Add(1)
	e.log.Trace("Задача %s [%s] выполнена за %v", name, j.id, elapsed)
}

// safeRun превращает панику задачи в ошибку
func safeRun(ctx context.Context, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("паника в задаче %s: %v", t.Name(), r)
		}
	}()
	return t.Run(ctx)
}
