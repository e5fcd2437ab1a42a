package tracker

import (
	"sync"

	"github.com/annel0/voxelmap/internal/config"
	"github.com/annel0/voxelmap/internal/executor"
	"github.com/annel0/voxelmap/internal/frame"
	"github.com/annel0/voxelmap/internal/logging"
	"github.com/annel0/voxelmap/internal/metrics"
	"github.com/annel0/voxelmap/internal/render"
	"github.com/annel0/voxelmap/internal/world"
)

// UndergroundUpdater выполняет один цикл обновления подземного растра
type UndergroundUpdater interface {
	Update(f frame.Context) render.UndergroundStats
}

// Options параметры трекера
type Options struct {
	ChunksPerTick       int
	MaxDistanceSq       int
	PersistSingleplayer bool
	PersistMultiplayer  bool
	UndergroundEnabled  bool
	Singleplayer        bool // режим сессии до первого тика
}

// OptionsFromConfig переносит настройки карты в параметры трекера
func OptionsFromConfig(c config.MapConfig, singleplayer bool) Options {
	return Options{
		ChunksPerTick:       c.ChunksPerSurfaceTick,
		MaxDistanceSq:       c.MaxChunkSaveDistanceSquared,
		PersistSingleplayer: c.SurfacePersistEnabledSingleplayer,
		PersistMultiplayer:  c.SurfacePersistEnabledMultiplayer,
		UndergroundEnabled:  c.UndergroundEnabled,
		Singleplayer:        singleplayer,
	}
}

// ChunkTracker решает, какие чанки перерисовать и сохранить, и отправляет
// работу исполнителю. Живые чанки дальше текущего вызова не используются:
// в фон уходят только снимки.
type ChunkTracker struct {
	opts        Options
	set         *VisibilitySet
	exec        executor.Submitter
	surface     SurfaceRenderer
	underground UndergroundUpdater
	saver       SnapshotSaver
	metrics     *metrics.Metrics
	log         *logging.Logger

	mu           sync.RWMutex // closed и singleplayer
	closed       bool
	singleplayer bool
}

// New создаёт трекер. underground и saver могут быть nil.
func New(opts Options, exec executor.Submitter, surface SurfaceRenderer, underground UndergroundUpdater, saver SnapshotSaver, m *metrics.Metrics) *ChunkTracker {
	if opts.ChunksPerTick < 1 {
		opts.ChunksPerTick = 1
	}
	return &ChunkTracker{
		opts:         opts,
		set:          NewVisibilitySet(),
		exec:         exec,
		surface:      surface,
		underground:  underground,
		saver:        saver,
		metrics:      m,
		log:          logging.GetTrackerLogger(),
		singleplayer: opts.Singleplayer,
	}
}

// Set возвращает множество отслеживаемых чанков
func (t *ChunkTracker) Set() *VisibilitySet { return t.set }

// Closed сообщает, закрыт ли трекер
func (t *ChunkTracker) Closed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

// OnChunkLoaded регистрирует загруженный чанк
func (t *ChunkTracker) OnChunkLoaded(c world.LiveChunk) {
	if c == nil {
		return
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}

	t.set.Put(c)
	t.metrics.SetTrackedChunks(t.set.Len())
}

// OnChunkUnloaded сохраняет просмотренный чанк и снимает его с учёта.
// Неизвестные чанки игнорируются.
func (t *ChunkTracker) OnChunkUnloaded(c world.LiveChunk) {
	if c == nil {
		return
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}

	viewed, found := t.set.Remove(KeyOf(c))
	if !found {
		return
	}
	if viewed {
		t.persistLocked(c, "unload")
	}
	t.metrics.SetTrackedChunks(t.set.Len())
}

// OnEvent переводит события хранилища мира в вызовы трекера
func (t *ChunkTracker) OnEvent(ev world.ChunkEvent) {
	switch ev.Type {
	case world.EventTypeChunkLoaded:
		t.OnChunkLoaded(ev.Chunk)
	case world.EventTypeChunkUnloaded:
		t.OnChunkUnloaded(ev.Chunk)
	}
}

// OnTick распределяет работу тика: каждый 16-й тик подземелье, остальные поверхность
func (t *ChunkTracker) OnTick(f frame.Context) {
	if f.Tick&0xf == 0 {
		t.OnUndergroundTick(f)
		return
	}
	t.OnSurfaceTick(f)
}

// OnSurfaceTick обходит очередную порцию чанков: обновляет флаги по дистанции
// до наблюдателя и отправляет видимые непустые чанки на перерисовку.
func (t *ChunkTracker) OnSurfaceTick(f frame.Context) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.singleplayer = f.Singleplayer
	t.mu.Unlock()

	if t.surface != nil && t.surface.SetDimension(f.Dimension) {
		t.log.Info("Трекер: наблюдатель перешёл в измерение %d", f.Dimension)
	}

	batch := t.set.NextBatch(t.opts.ChunksPerTick)
	observer := f.Planar()
	rendered := 0

	for _, e := range batch {
		center := e.Key.Coords.ChunkOrigin()
		center.X += world.ChunkSize / 2
		center.Z += world.ChunkSize / 2

		flags := e.Flags
		if observer.DistanceSqTo(center) <= t.opts.MaxDistanceSq {
			flags |= FlagVisible | FlagViewed
		} else {
			flags &^= FlagVisible
		}

		// запись могла исчезнуть между чтением порции и этим местом
		flags, ok := t.set.SetFlags(e.Key, flags)
		if !ok || flags&FlagVisible == 0 || t.surface == nil {
			continue
		}
		if e.Chunk.Dim() != f.Dimension || e.Chunk.IsEmpty() {
			continue
		}

		t.submit(&SurfaceTask{Snapshot: e.Chunk.Snapshot(), Renderer: t.surface})
		rendered++
	}

	t.metrics.AddSurfaceVisits(len(batch))
	if rendered > 0 {
		t.log.Trace("Тик %d: просмотрено %d чанков, на перерисовку %d", f.Tick, len(batch), rendered)
	}
}

// OnUndergroundTick запускает цикл обновления подземного растра
func (t *ChunkTracker) OnUndergroundTick(f frame.Context) {
	if t.Closed() || !t.opts.UndergroundEnabled || t.underground == nil {
		return
	}

	stats := t.underground.Update(f)
	if stats.Skipped {
		return
	}
	t.log.Trace("Тик %d: подземелье, область %s, проверено %d колонн, перерисовано %d",
		f.Tick, stats.Patch.ID, stats.Visited, stats.Drawn)
}

// CloseAndFlush закрывает трекер, сохраняет все просмотренные чанки и очищает множество.
// Повторные вызовы ничего не делают.
func (t *ChunkTracker) CloseAndFlush() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true

	persisted := 0
	t.set.Each(func(e Entry) {
		if e.Flags&FlagViewed != 0 && t.persistLocked(e.Chunk, "flush") {
			persisted++
		}
	})
	t.set.Clear()
	t.metrics.SetTrackedChunks(0)

	t.log.Info("Трекер закрыт, на сохранение отправлено %d чанков", persisted)
}

// persistLocked снимает копию чанка и отправляет её на сохранение, если режим
// сессии это разрешает. Вызывается под t.mu.
func (t *ChunkTracker) persistLocked(c world.LiveChunk, reason string) bool {
	if t.saver == nil || !t.persistEnabledLocked() || c.IsEmpty() {
		return false
	}

	t.submit(&PersistTask{Snapshot: c.Snapshot(), Saver: t.saver})
	t.metrics.IncPersist(reason)
	return true
}

func (t *ChunkTracker) persistEnabledLocked() bool {
	if t.singleplayer {
		return t.opts.PersistSingleplayer
	}
	return t.opts.PersistMultiplayer
}

func (t *ChunkTracker) submit(task executor.Task) {
	if t.exec == nil {
		return
	}
	if err := t.exec.Submit(task); err != nil {
		t.log.Debug("Задача %s не принята: %v", task.Name(), err)
	}
}
