package render

import (
	"fmt"

	"github.com/annel0/voxelmap/internal/config"
	"github.com/annel0/voxelmap/internal/vec"
)

// PatchID имя области окна подземного вида
type PatchID int

const (
	PatchWest PatchID = iota
	PatchNorth
	PatchEast
	PatchSouth
	PatchCenter
	PatchFull // окно 3x3 обрабатывается целиком
)

func (p PatchID) String() string {
	switch p {
	case PatchWest:
		return "west"
	case PatchNorth:
		return "north"
	case PatchEast:
		return "east"
	case PatchSouth:
		return "south"
	case PatchCenter:
		return "center"
	case PatchFull:
		return "full"
	default:
		return fmt.Sprintf("patch(%d)", int(p))
	}
}

// Patch прямоугольник чанков относительно угла окна, границы включительно
type Patch struct {
	ID         PatchID
	MinX, MinZ int
	MaxX, MaxZ int
}

// Len возвращает количество чанков в области
func (p Patch) Len() int {
	return (p.MaxX - p.MinX + 1) * (p.MaxZ - p.MinZ + 1)
}

// Chunks возвращает координаты чанков области для окна с углом origin
func (p Patch) Chunks(origin vec.Vec2) []vec.Vec2 {
	out := make([]vec.Vec2, 0, p.Len())
	for z := p.MinZ; z <= p.MaxZ; z++ {
		for x := p.MinX; x <= p.MaxX; x++ {
			out = append(out, vec.Vec2{X: origin.X + x, Z: origin.Z + z})
		}
	}
	return out
}

// PatchSchedule конечный автомат обхода окна: запад, север, восток, юг, центр и снова запад.
// Четыре внешние области закручены вертушкой вокруг центральной, вместе покрывают
// окно ровно один раз за пять вызовов.
type PatchSchedule struct {
	diameter int
	center   int
	band     int
	patches  []Patch
	next     int
}

// NewPatchSchedule строит расписание для окна диаметра diameter.
// Диаметр приводится к нечётному значению не меньше 3.
func NewPatchSchedule(diameter int) *PatchSchedule {
	d := config.NormalizeDiameter(diameter)

	// центр делается нечётным, чтобы полосы вокруг него были одинаковой ширины
	center := (d - 1) / 2
	if center%2 == 0 {
		center++
	}
	band := (d - center) / 2

	s := &PatchSchedule{diameter: d, center: center, band: band}
	if d <= 3 {
		s.patches = []Patch{{ID: PatchFull, MinX: 0, MinZ: 0, MaxX: d - 1, MaxZ: d - 1}}
		return s
	}

	s.patches = []Patch{
		{ID: PatchWest, MinX: 0, MaxX: band - 1, MinZ: 0, MaxZ: d - band - 1},
		{ID: PatchNorth, MinX: band, MaxX: d - 1, MinZ: 0, MaxZ: band - 1},
		{ID: PatchEast, MinX: d - band, MaxX: d - 1, MinZ: band, MaxZ: d - 1},
		{ID: PatchSouth, MinX: 0, MaxX: d - band - 1, MinZ: d - band, MaxZ: d - 1},
		{ID: PatchCenter, MinX: band, MaxX: d - band - 1, MinZ: band, MaxZ: d - band - 1},
	}
	return s
}

// Diameter возвращает нормализованный диаметр окна
func (s *PatchSchedule) Diameter() int { return s.diameter }

// Band возвращает ширину внешней полосы
func (s *PatchSchedule) Band() int { return s.band }

// Patches возвращает все области в порядке обхода
func (s *PatchSchedule) Patches() []Patch {
	return append([]Patch(nil), s.patches...)
}

// Next возвращает следующую область и продвигает автомат
func (s *PatchSchedule) Next() Patch {
	p := s.patches[s.next]
	s.next = (s.next + 1) % len(s.patches)
	return p
}

// Reset возвращает автомат к первой области
func (s *PatchSchedule) Reset() { s.next = 0 }

// WindowOrigin возвращает угол окна с центром в чанке наблюдателя
func (s *PatchSchedule) WindowOrigin(observerChunk vec.Vec2) vec.Vec2 {
	radius := (s.diameter - 1) / 2
	return vec.Vec2{X: observerChunk.X - radius, Z: observerChunk.Z - radius}
}
