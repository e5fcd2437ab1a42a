package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/annel0/voxelmap/internal/vec"
)

func openEverywhere(x, y, z int) (bool, bool) { return false, true }

func TestScanGrid_BoundedRadius(t *testing.T) {
	g := newScanGrid(5)
	g.reset(vec.Vec2{X: -2, Z: -2})
	observer := vec.Vec3{X: 8, Y: 64, Z: 8}

	visited := g.fill(observer, openEverywhere)

	expected := 0
	for z := -32; z < 48; z++ {
		for x := -32; x < 48; x++ {
			dx, dz := observer.X-x, observer.Z-z
			if dx*dx+dz*dz <= FloodFillRadiusSq {
				expected++
			}
		}
	}
	assert.Equal(t, expected, visited, "В открытом мире посещается ровно круг радиуса отсечки")

	g.visit(func(x, z int, open bool) {
		dx, dz := observer.X-x, observer.Z-z
		assert.LessOrEqual(t, dx*dx+dz*dz, FloodFillRadiusSq)
		assert.True(t, open)
	})
}

func TestScanGrid_StopsAtWalls(t *testing.T) {
	g := newScanGrid(3)
	g.reset(vec.Vec2{X: -1, Z: -1})
	observer := vec.Vec3{X: 8, Y: 64, Z: 8}

	// стена по x = 11
	wall := func(x, y, z int) (bool, bool) { return x == 11, true }
	g.fill(observer, wall)

	assert.True(t, g.isOpen(10, 8))
	assert.False(t, g.isOpen(11, 8), "Стена непрозрачна")
	assert.False(t, g.isOpen(12, 8), "За стену заливка не проходит")
}

func TestScanGrid_AbsentChunksAreOpaque(t *testing.T) {
	g := newScanGrid(3)
	g.reset(vec.Vec2{X: -1, Z: -1})

	visited := g.fill(vec.Vec3{X: 8, Y: 64, Z: 8}, func(x, y, z int) (bool, bool) { return false, false })
	assert.Equal(t, 1, visited)
	assert.False(t, g.isOpen(8, 8))
}

func TestScanGrid_ResetForgetsPreviousPass(t *testing.T) {
	g := newScanGrid(3)
	g.reset(vec.Vec2{X: -1, Z: -1})
	g.fill(vec.Vec3{X: 8, Y: 64, Z: 8}, openEverywhere)
	assert.True(t, g.isOpen(8, 8))

	g.reset(vec.Vec2{X: 10, Z: 10})
	assert.False(t, g.isOpen(8, 8), "Вне нового окна")
	assert.False(t, g.isOpen(168, 168), "Флаги сброшены")
}
