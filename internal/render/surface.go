package render

import (
	"github.com/annel0/voxelmap/internal/logging"
	"github.com/annel0/voxelmap/internal/metrics"
	"github.com/annel0/voxelmap/internal/world"
)

// SurfaceRasterUpdater рисует снимки чанков в тороидальную текстуру поверхности.
// Вызывается из фоновых задач, поэтому каждый чанк рисуется под блокировкой текстуры.
type SurfaceRasterUpdater struct {
	texture    *Texture
	compositor *Compositor
	sink       TextureSink
	metrics    *metrics.Metrics
	log        *logging.Logger

	dimension    int
	hasDimension bool
}

// NewSurfaceRasterUpdater создаёт обновлятель растра поверхности
func NewSurfaceRasterUpdater(texture *Texture, compositor *Compositor, sink TextureSink, m *metrics.Metrics) *SurfaceRasterUpdater {
	if sink == nil {
		sink = NopSink{}
	}
	return &SurfaceRasterUpdater{
		texture:    texture,
		compositor: compositor,
		sink:       sink,
		metrics:    m,
		log:        logging.GetRenderLogger(),
	}
}

// Texture возвращает текстуру поверхности
func (s *SurfaceRasterUpdater) Texture() *Texture { return s.texture }

// SetDimension задаёт измерение наблюдателя. При смене измерения текстура
// очищается и целиком отправляется в приёмник. Возвращает true при смене.
func (s *SurfaceRasterUpdater) SetDimension(dimension int) bool {
	t := s.texture
	t.mu.Lock()
	defer t.mu.Unlock()
	return s.switchDimensionLocked(dimension)
}

func (s *SurfaceRasterUpdater) switchDimensionLocked(dimension int) bool {
	if s.hasDimension && s.dimension == dimension {
		return false
	}
	if !s.hasDimension {
		s.dimension, s.hasDimension = dimension, true
		return false
	}

	s.log.Info("Поверхность: смена измерения %d -> %d, текстура очищена", s.dimension, dimension)
	s.texture.clearLocked()
	s.dimension = dimension
	s.sink.UploadFullBuffer(append([]uint32(nil), s.texture.pixels...))
	return true
}

// RenderChunk перерисовывает ячейку чанка по снимку и отправляет её в приёмник.
// Снимки чужого измерения отбрасываются: это задачи, поставленные до смены измерения.
// Колонны обходятся слева направо и сверху вниз: затенение читает высоты
// западного и северного соседей, уже записанные в текстуру.
func (s *SurfaceRasterUpdater) RenderChunk(snap world.ChunkView) {
	if snap == nil || snap.IsEmpty() {
		return
	}

	t := s.texture
	t.mu.Lock()

	coords := snap.ChunkCoords()
	if !s.hasDimension {
		s.switchDimensionLocked(snap.Dim())
	} else if s.dimension != snap.Dim() {
		t.mu.Unlock()
		s.log.Debug("Поверхность: снимок чанка (%d,%d) измерения %d устарел, текущее %d", coords.X, coords.Z, snap.Dim(), s.dimension)
		return
	}

	if cleared, prev, hadPrev := t.claimLocked(coords); cleared && hadPrev {
		s.log.Debug("Поверхность: ячейка чанка (%d,%d) освобождена от чанка (%d,%d)", coords.X, coords.Z, prev.X, prev.Z)
		s.metrics.IncClearedCell("surface")
	}

	hasCeiling := world.DimensionHasCeiling(snap.Dim())
	startY := -1
	if !hasCeiling {
		startY = snap.MaxY()
	}

	tx, tz := t.CellOrigin(coords.X, coords.Z)
	for z := 0; z < world.ChunkSize; z++ {
		for x := 0; x < world.ChunkSize; x++ {
			offset := (tz+z)*t.size + tx + x

			y := startY
			if hasCeiling {
				y = s.compositor.SurfaceStartY(snap, x, z, true)
			}
			t.pixels[offset] = s.compositor.shadeSurfaceFrom(snap, x, y, z, t.heightWLocked(offset), t.heightNLocked(offset))
		}
	}

	// порядок загрузок в приёмник совпадает с порядком рендеров
	s.sink.UploadRegion(tx, tz, world.ChunkSize, world.ChunkSize, t.regionLocked(tx, tz, world.ChunkSize, world.ChunkSize))
	t.mu.Unlock()

	s.metrics.IncSurfaceRender()
}
