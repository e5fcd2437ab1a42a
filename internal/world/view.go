package world

import (
	"github.com/annel0/voxelmap/internal/vec"
	"github.com/annel0/voxelmap/internal/world/block"
)

// Измерения мира
const (
	DimensionCeiling   = -1 // измерение с бедроковым потолком
	DimensionOverworld = 0
)

// CeilingHeight высота, от которой ищется первый прозрачный блок под потолком
const CeilingHeight = 127

// ChunkView доступ только на чтение к колоннам чанка.
// Координаты x и z локальные (0..15), y мировой.
type ChunkView interface {
	ChunkCoords() vec.Vec2
	Dim() int
	BlockAt(x, y, z int) block.BlockID
	BiomeAt(x, y, z int) BiomeType
	LightLevel(x, y, z int) int
	MaxY() int
	IsEmpty() bool
}

// LiveChunk чанк, принадлежащий миру, который можно скопировать в снимок
type LiveChunk interface {
	ChunkView
	Snapshot() *Snapshot
}

// Accessor источник загруженных чанков текущего измерения
type Accessor interface {
	ChunkAt(cx, cz int) (LiveChunk, bool)
}

// DimensionHasCeiling сообщает, закрыто ли измерение сверху
func DimensionHasCeiling(dimension int) bool {
	return dimension == DimensionCeiling
}
