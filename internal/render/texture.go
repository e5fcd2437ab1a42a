package render

import (
	"sync"

	"github.com/annel0/voxelmap/internal/vec"
)

// Цвета очистки текстур
const (
	SurfaceClearColour     uint32 = 0x00000000 // высота 0 означает "нет данных"
	UndergroundClearColour uint32 = 0xff000000
)

// cellOwner чанк, занимающий ячейку текстуры
type cellOwner struct {
	coords vec.Vec2
	valid  bool
}

// Texture квадратный тороидальный буфер пикселей стороны size (степень двойки).
// Чанк (cx, cz) всегда попадает в ячейку (cx mod size/16, cz mod size/16),
// карта занятости помнит, какой чанк сейчас владеет ячейкой.
type Texture struct {
	mu          sync.Mutex
	size        int
	chunks      int
	clearColour uint32
	pixels      []uint32
	occupancy   []cellOwner
}

// NewTexture создаёт текстуру, заполненную цветом очистки
func NewTexture(size int, clearColour uint32) *Texture {
	if size < 16 || size&(size-1) != 0 {
		panic("render: размер текстуры должен быть степенью двойки не меньше 16")
	}

	t := &Texture{
		size:        size,
		chunks:      size >> 4,
		clearColour: clearColour,
		pixels:      make([]uint32, size*size),
		occupancy:   make([]cellOwner, (size>>4)*(size>>4)),
	}
	t.clearLocked()
	return t
}

// Size возвращает сторону текстуры в пикселях
func (t *Texture) Size() int { return t.size }

// Chunks возвращает сторону текстуры в чанках
func (t *Texture) Chunks() int { return t.chunks }

// ClearColour возвращает цвет, которым заполняются освобождённые ячейки
func (t *Texture) ClearColour() uint32 { return t.clearColour }

// cellIndex индекс ячейки в карте занятости
func (t *Texture) cellIndex(cx, cz int) int {
	return (cz&(t.chunks-1))*t.chunks + (cx & (t.chunks - 1))
}

// CellOrigin возвращает пиксельные координаты левого верхнего угла ячейки чанка
func (t *Texture) CellOrigin(cx, cz int) (tx, tz int) {
	return (cx << 4) & (t.size - 1), (cz << 4) & (t.size - 1)
}

// Claim закрепляет ячейку за чанком. Если ячейку занимал другой чанк,
// её пиксели очищаются и возвращается прежний владелец.
func (t *Texture) Claim(coords vec.Vec2) (cleared bool, prev vec.Vec2, hadPrev bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.claimLocked(coords)
}

func (t *Texture) claimLocked(coords vec.Vec2) (cleared bool, prev vec.Vec2, hadPrev bool) {
	idx := t.cellIndex(coords.X, coords.Z)
	owner := t.occupancy[idx]
	if owner.valid && owner.coords == coords {
		return false, vec.Vec2{}, false
	}

	t.clearCellLocked(coords.X, coords.Z)
	t.occupancy[idx] = cellOwner{coords: coords, valid: true}
	return true, owner.coords, owner.valid
}

// Holds сообщает, занимает ли чанк свою ячейку
func (t *Texture) Holds(coords vec.Vec2) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.holdsLocked(coords)
}

func (t *Texture) holdsLocked(coords vec.Vec2) bool {
	owner := t.occupancy[t.cellIndex(coords.X, coords.Z)]
	return owner.valid && owner.coords == coords
}

// Clear заполняет всю текстуру цветом очистки и сбрасывает карту занятости
func (t *Texture) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearLocked()
}

func (t *Texture) clearLocked() {
	for i := range t.pixels {
		t.pixels[i] = t.clearColour
	}
	for i := range t.occupancy {
		t.occupancy[i] = cellOwner{}
	}
}

func (t *Texture) clearCellLocked(cx, cz int) {
	tx, tz := t.CellOrigin(cx, cz)
	for j := 0; j < 16; j++ {
		row := (tz+j)*t.size + tx
		for i := 0; i < 16; i++ {
			t.pixels[row+i] = t.clearColour
		}
	}
}

// Pixel возвращает пиксель по координатам текстуры
func (t *Texture) Pixel(x, y int) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pixels[(y&(t.size-1))*t.size+(x&(t.size-1))]
}

// ChunkPixel возвращает пиксель колонны (x, z) внутри ячейки чанка
func (t *Texture) ChunkPixel(cx, cz, x, z int) uint32 {
	tx, tz := t.CellOrigin(cx, cz)
	return t.Pixel(tx+x, tz+z)
}

// Pixels возвращает копию всего буфера
func (t *Texture) Pixels() []uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]uint32, len(t.pixels))
	copy(out, t.pixels)
	return out
}

// regionLocked копирует прямоугольник w x h с угла (x, y)
func (t *Texture) regionLocked(x, y, w, h int) []uint32 {
	out := make([]uint32, 0, w*h)
	for j := 0; j < h; j++ {
		row := (y+j)*t.size + x
		out = append(out, t.pixels[row:row+w]...)
	}
	return out
}

// heightW высота западного соседа пикселя или -1 у левого края текстуры
func (t *Texture) heightWLocked(offset int) int {
	if offset&(t.size-1) >= 1 {
		return int(t.pixels[offset-1]>>24) & 0xff
	}
	return -1
}

// heightN высота северного соседа пикселя или -1 у верхнего края текстуры
func (t *Texture) heightNLocked(offset int) int {
	if offset >= t.size {
		return int(t.pixels[offset-t.size]>>24) & 0xff
	}
	return -1
}
