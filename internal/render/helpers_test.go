package render

import (
	"sync"

	"github.com/annel0/voxelmap/internal/vec"
	"github.com/annel0/voxelmap/internal/world"
	"github.com/annel0/voxelmap/internal/world/block"
)

// fakeWorld загруженные чанки по координатам
type fakeWorld map[vec.Vec2]*world.Chunk

func (w fakeWorld) ChunkAt(cx, cz int) (world.LiveChunk, bool) {
	c, ok := w[vec.Vec2{X: cx, Z: cz}]
	if !ok {
		return nil, false
	}
	return c, true
}

// flatChunk камень до высоты floor включительно, выше освещённый воздух
func flatChunk(coords vec.Vec2, dimension, floor int) *world.Chunk {
	c := world.NewChunk(coords, dimension)
	for y := 0; y <= floor; y++ {
		for z := 0; z < world.ChunkSize; z++ {
			for x := 0; x < world.ChunkSize; x++ {
				c.SetBlock(x, y, z, block.StoneBlockID)
			}
		}
	}
	return c
}

// flatWorld квадрат плоских чанков радиуса radius вокруг center
func flatWorld(center vec.Vec2, radius, floor int) fakeWorld {
	w := make(fakeWorld)
	for cz := center.Z - radius; cz <= center.Z+radius; cz++ {
		for cx := center.X - radius; cx <= center.X+radius; cx++ {
			coords := vec.Vec2{X: cx, Z: cz}
			w[coords] = flatChunk(coords, world.DimensionOverworld, floor)
		}
	}
	return w
}

type region struct {
	x, y, w, h int
	pixels     []uint32
}

// recordingSink запоминает все загрузки
type recordingSink struct {
	mu      sync.Mutex
	full    [][]uint32
	regions []region
}

func (s *recordingSink) UploadFullBuffer(pixels []uint32) {
	s.mu.Lock()
	s.full = append(s.full, append([]uint32(nil), pixels...))
	s.mu.Unlock()
}

func (s *recordingSink) UploadRegion(x, y, w, h int, pixels []uint32) {
	s.mu.Lock()
	s.regions = append(s.regions, region{x: x, y: y, w: w, h: h, pixels: append([]uint32(nil), pixels...)})
	s.mu.Unlock()
}
