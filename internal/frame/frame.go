package frame

import "github.com/annel0/voxelmap/internal/vec"

// Context неизменяемое состояние наблюдателя на один тик.
// Передаётся в каждую операцию, привязанную к тику, вместо чтения глобальных синглтонов.
type Context struct {
	Position     vec.Vec3 // Мировые координаты блока наблюдателя
	Dimension    int
	Tick         uint64 // Монотонно растущий счётчик тиков
	Singleplayer bool
}

// ChunkCoords возвращает координаты чанка наблюдателя
func (c Context) ChunkCoords() vec.Vec2 {
	return c.Position.ChunkCoords()
}

// Planar возвращает проекцию позиции на плоскость XZ
func (c Context) Planar() vec.Vec2 {
	return c.Position.Planar()
}
