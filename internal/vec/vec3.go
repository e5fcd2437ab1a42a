package vec

// Vec3 представляет трехмерный вектор с целочисленными координатами блока
type Vec3 struct {
	X int
	Y int
	Z int
}

// Planar отбрасывает высоту и возвращает проекцию на плоскость XZ
func (v Vec3) Planar() Vec2 {
	return Vec2{
		X: v.X,
		Z: v.Z,
	}
}

// ChunkCoords возвращает координаты чанка, в котором лежит точка
func (v Vec3) ChunkCoords() Vec2 {
	return v.Planar().ToChunkCoords()
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}
