package render

import (
	"github.com/annel0/voxelmap/internal/config"
	"github.com/annel0/voxelmap/internal/frame"
	"github.com/annel0/voxelmap/internal/logging"
	"github.com/annel0/voxelmap/internal/metrics"
	"github.com/annel0/voxelmap/internal/vec"
	"github.com/annel0/voxelmap/internal/world"
	"github.com/annel0/voxelmap/internal/world/block"
)

// UndergroundStats итог одного вызова Update
type UndergroundStats struct {
	Skipped      bool     // повторный вызов в том же тике
	Origin       vec.Vec2 // угол окна в чанках
	Patch        Patch
	ClearedCells int // ячейки, отобранные у прежних владельцев
	Visited      int // колонны, проверенные заливкой
	Drawn        int // колонны, перерисованные шейдером
}

// UndergroundRasterUpdater ведёт тороидальную текстуру подземного вида вокруг наблюдателя.
// Не потокобезопасен: вызывается только из интерактивного тика.
type UndergroundRasterUpdater struct {
	texture    *Texture
	compositor *Compositor
	world      world.Accessor
	sink       TextureSink
	schedule   *PatchSchedule
	grid       *scanGrid
	metrics    *metrics.Metrics
	log        *logging.Logger

	dimension    int
	hasDimension bool
	lastTick     uint64
	hasTick      bool
}

// NewUndergroundRasterUpdater создаёт обновлятель подземного растра.
// Диаметр окна нормализуется и ограничивается размером текстуры.
func NewUndergroundRasterUpdater(texture *Texture, compositor *Compositor, accessor world.Accessor, sink TextureSink, diameter int, m *metrics.Metrics) *UndergroundRasterUpdater {
	if sink == nil {
		sink = NopSink{}
	}

	d := config.NormalizeDiameter(diameter)
	if maxDiameter := texture.Chunks() - 1; d > maxDiameter && maxDiameter >= 3 {
		d = maxDiameter
	}

	schedule := NewPatchSchedule(d)
	return &UndergroundRasterUpdater{
		texture:    texture,
		compositor: compositor,
		world:      accessor,
		sink:       sink,
		schedule:   schedule,
		grid:       newScanGrid(schedule.Diameter()),
		metrics:    m,
		log:        logging.GetRenderLogger(),
	}
}

// Texture возвращает текстуру подземного вида
func (u *UndergroundRasterUpdater) Texture() *Texture { return u.texture }

// Schedule возвращает расписание обхода окна
func (u *UndergroundRasterUpdater) Schedule() *PatchSchedule { return u.schedule }

// Update выполняет один цикл: смена измерения, окно, очередная область,
// сверка занятости, заливка пустот, перерисовка открытых колонн и загрузка всего буфера.
func (u *UndergroundRasterUpdater) Update(f frame.Context) UndergroundStats {
	if u.hasTick && u.lastTick == f.Tick {
		return UndergroundStats{Skipped: true}
	}
	u.lastTick, u.hasTick = f.Tick, true

	if !u.hasDimension || u.dimension != f.Dimension {
		if u.hasDimension {
			u.log.Info("Подземелье: смена измерения %d -> %d, текстура очищена", u.dimension, f.Dimension)
		}
		u.texture.Clear()
		u.schedule.Reset()
		u.dimension = f.Dimension
		u.hasDimension = true
	}

	origin := u.schedule.WindowOrigin(f.ChunkCoords())
	patch := u.schedule.Next()
	stats := UndergroundStats{Origin: origin, Patch: patch}

	chunks := patch.Chunks(origin)
	for _, coords := range chunks {
		if cleared, prev, hadPrev := u.texture.Claim(coords); cleared && hadPrev {
			stats.ClearedCells++
			u.log.Debug("Подземелье: ячейка чанка (%d,%d) освобождена от чанка (%d,%d)", coords.X, coords.Z, prev.X, prev.Z)
			u.metrics.IncClearedCell("underground")
		}
	}

	u.grid.reset(origin)
	stats.Visited = u.grid.fill(f.Position, u.opacityAt)

	for _, coords := range chunks {
		stats.Drawn += u.drawChunk(coords, f.Position.Y)
	}

	pixels := u.texture.Pixels()
	for i := range pixels {
		pixels[i] |= 0xff000000
	}
	u.sink.UploadFullBuffer(pixels)

	u.metrics.IncUndergroundUpdate()
	u.metrics.ObserveFloodFill(stats.Visited)
	return stats
}

// opacityAt проверяет непрозрачность блока в загруженном чанке
func (u *UndergroundRasterUpdater) opacityAt(x, y, z int) (bool, bool) {
	c, ok := u.world.ChunkAt(x>>4, z>>4)
	if !ok {
		return false, false
	}
	return block.IsOpaque(c.BlockAt(x&0xF, y, z&0xF)), true
}

// drawChunk перерисовывает открытые колонны живого чанка без снятия снимка.
// Возвращает число перерисованных колонн.
func (u *UndergroundRasterUpdater) drawChunk(coords vec.Vec2, observerY int) int {
	live, ok := u.world.ChunkAt(coords.X, coords.Z)
	if !ok || live.IsEmpty() {
		return 0
	}

	base := coords.ChunkOrigin()
	var colours [world.ChunkSize * world.ChunkSize]uint32
	var open [world.ChunkSize * world.ChunkSize]bool
	drawn := 0

	for z := 0; z < world.ChunkSize; z++ {
		for x := 0; x < world.ChunkSize; x++ {
			if !u.grid.isOpen(base.X+x, base.Z+z) {
				continue
			}
			i := z*world.ChunkSize + x
			colours[i] = u.compositor.ShadeUndergroundColumn(live, x, z, observerY)
			open[i] = true
			drawn++
		}
	}
	if drawn == 0 {
		return 0
	}

	t := u.texture
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.holdsLocked(coords) {
		return 0
	}
	tx, tz := t.CellOrigin(coords.X, coords.Z)
	for i, ok := range open {
		if ok {
			t.pixels[(tz+i/world.ChunkSize)*t.size+tx+i%world.ChunkSize] = colours[i]
		}
	}
	return drawn
}
