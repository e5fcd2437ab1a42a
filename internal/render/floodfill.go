package render

import (
	"github.com/gammazero/deque"

	"github.com/annel0/voxelmap/internal/vec"
)

// FloodFillRadiusSq предельный квадрат расстояния от наблюдателя до колонны в блоках
const FloodFillRadiusSq = 512

// columnFlag состояние колонны в текущем проходе заливки
type columnFlag uint8

const (
	columnUnprocessed columnFlag = iota
	columnOpen
	columnOpaque
)

// OpacityFunc сообщает, непрозрачен ли блок в мировых координатах.
// loaded == false означает, что чанка нет, такая колонна считается непрозрачной.
type OpacityFunc func(x, y, z int) (opaque bool, loaded bool)

// scanGrid сетка флагов колонн окна подземного вида, живёт один цикл обновления
type scanGrid struct {
	originX, originZ int // мировые координаты северо-западной колонны окна
	size             int
	flags            []columnFlag
	queue            deque.Deque[int]
}

func newScanGrid(diameter int) *scanGrid {
	size := diameter << 4
	return &scanGrid{
		size:  size,
		flags: make([]columnFlag, size*size),
	}
}

// reset сбрасывает флаги и переносит сетку к новому углу окна
func (g *scanGrid) reset(originChunk vec.Vec2) {
	origin := originChunk.ChunkOrigin()
	g.originX, g.originZ = origin.X, origin.Z
	for i := range g.flags {
		g.flags[i] = columnUnprocessed
	}
	g.queue.Clear()
}

// index переводит мировые координаты колонны в индекс сетки или -1 вне окна
func (g *scanGrid) index(x, z int) int {
	xi, zi := x-g.originX, z-g.originZ
	if xi < 0 || zi < 0 || xi >= g.size || zi >= g.size {
		return -1
	}
	return zi*g.size + xi
}

// fill обходит в ширину 4-связные колонны от позиции наблюдателя, проверяя блоки
// на его высоте. Колонны дальше FloodFillRadiusSq не посещаются.
// Возвращает количество проверенных колонн.
func (g *scanGrid) fill(observer vec.Vec3, opacity OpacityFunc) int {
	visited := 0
	push := func(x, z int) {
		dx, dz := observer.X-x, observer.Z-z
		if dx*dx+dz*dz > FloodFillRadiusSq {
			return
		}
		idx := g.index(x, z)
		if idx < 0 || g.flags[idx] != columnUnprocessed {
			return
		}

		visited++
		opaque, loaded := opacity(x, observer.Y, z)
		if opaque || !loaded {
			g.flags[idx] = columnOpaque
			return
		}
		g.flags[idx] = columnOpen
		g.queue.PushBack(idx)
	}

	push(observer.X, observer.Z)
	for g.queue.Len() > 0 {
		idx := g.queue.PopFront()
		x := g.originX + idx%g.size
		z := g.originZ + idx/g.size

		push(x+1, z)
		push(x-1, z)
		push(x, z+1)
		push(x, z-1)
	}
	return visited
}

// isOpen сообщает, отмечена ли колонна открытой в текущем проходе
func (g *scanGrid) isOpen(x, z int) bool {
	idx := g.index(x, z)
	return idx >= 0 && g.flags[idx] == columnOpen
}

// visit вызывает fn для каждой отмеченной колонны
func (g *scanGrid) visit(fn func(x, z int, open bool)) {
	for idx, f := range g.flags {
		if f == columnUnprocessed {
			continue
		}
		fn(g.originX+idx%g.size, g.originZ+idx/g.size, f == columnOpen)
	}
}
