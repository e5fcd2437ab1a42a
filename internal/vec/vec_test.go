package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec2_ChunkCoordsNegative(t *testing.T) {
	// Отрицательные координаты должны округляться вниз
	assert.Equal(t, Vec2{X: -1, Z: -2}, Vec2{X: -1, Z: -17}.ToChunkCoords())
	assert.Equal(t, Vec2{X: 15, Z: 15}, Vec2{X: -1, Z: -17}.LocalInChunk())
	assert.Equal(t, Vec2{X: 2, Z: 0}, Vec2{X: 35, Z: 15}.ToChunkCoords())
}

func TestVec2_DistanceSq(t *testing.T) {
	a := Vec2{X: 3, Z: 4}
	assert.Equal(t, 25, a.DistanceSqTo(Vec2{}))
	assert.InDelta(t, 5.0, a.DistanceTo(Vec2{}), 1e-9)
}

func TestVec3_Planar(t *testing.T) {
	p := Vec3{X: 40, Y: 64, Z: -3}
	assert.Equal(t, Vec2{X: 40, Z: -3}, p.Planar())
	assert.Equal(t, Vec2{X: 2, Z: -1}, p.ChunkCoords())
}
