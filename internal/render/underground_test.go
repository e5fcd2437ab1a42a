package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxelmap/internal/frame"
	"github.com/annel0/voxelmap/internal/palette"
	"github.com/annel0/voxelmap/internal/vec"
	"github.com/annel0/voxelmap/internal/world"
	"github.com/annel0/voxelmap/internal/world/block"
)

func newUnderground(w world.Accessor, diameter int, sink TextureSink) *UndergroundRasterUpdater {
	return NewUndergroundRasterUpdater(NewTexture(256, UndergroundClearColour), NewCompositor(palette.Default(), false), w, sink, diameter, nil)
}

func observerAt(x, y, z int, tick uint64) frame.Context {
	return frame.Context{Position: vec.Vec3{X: x, Y: y, Z: z}, Dimension: world.DimensionOverworld, Tick: tick}
}

func TestUnderground_SameTickIsSkipped(t *testing.T) {
	u := newUnderground(flatWorld(vec.Vec2{}, 2, 60), 5, nil)

	first := u.Update(observerAt(8, 61, 8, 16))
	second := u.Update(observerAt(8, 61, 8, 16))
	assert.False(t, first.Skipped)
	assert.True(t, second.Skipped, "Повторный вызов в том же тике пропускается")
	assert.Equal(t, PatchNorth, u.Update(observerAt(8, 61, 8, 32)).Patch.ID, "Пропуск не сдвигает расписание")
}

func TestUnderground_FiveUpdatesCoverWindow(t *testing.T) {
	u := newUnderground(flatWorld(vec.Vec2{}, 2, 60), 5, nil)

	seen := make(map[vec.Vec2]int)
	drawn := 0
	for i := 0; i < 5; i++ {
		stats := u.Update(observerAt(8, 61, 8, uint64(i+1)*16))
		require.False(t, stats.Skipped)
		assert.Equal(t, vec.Vec2{X: -2, Z: -2}, stats.Origin)
		for _, c := range stats.Patch.Chunks(stats.Origin) {
			seen[c]++
		}
		drawn += stats.Drawn
	}

	assert.Len(t, seen, 25)
	for c, n := range seen {
		assert.Equal(t, 1, n, "Чанк %v обработан %d раз", c, n)
		assert.True(t, u.Texture().Holds(c), "Чанк %v должен занимать свою ячейку", c)
	}
	assert.Greater(t, drawn, 0, "Открытые колонны вокруг наблюдателя должны быть перерисованы")
}

func TestUnderground_OnlyReachableColumnsDrawn(t *testing.T) {
	u := newUnderground(flatWorld(vec.Vec2{}, 1, 60), 3, nil)

	stats := u.Update(observerAt(8, 61, 8, 16))
	require.Equal(t, PatchFull, stats.Patch.ID)
	assert.Greater(t, stats.Drawn, 0)
	assert.LessOrEqual(t, stats.Drawn, stats.Visited)

	// колонна в углу окна дальше отсечки и остаётся нераскрытой
	assert.Equal(t, UndergroundClearColour, u.Texture().ChunkPixel(-1, -1, 0, 0))
	assert.NotEqual(t, UndergroundClearColour, u.Texture().ChunkPixel(0, 0, 8, 8))
}

func TestUnderground_UploadsFullOpaqueBuffer(t *testing.T) {
	sink := &recordingSink{}
	u := newUnderground(flatWorld(vec.Vec2{}, 1, 60), 3, sink)

	u.Update(observerAt(8, 61, 8, 16))
	require.Len(t, sink.full, 1)
	assert.Len(t, sink.full[0], 256*256)
	for _, p := range sink.full[0] {
		if p>>24 != 0xff {
			t.Fatalf("Альфа должна быть принудительно 0xff, получено %08x", p)
		}
	}
}

func TestUnderground_DimensionChangeClears(t *testing.T) {
	u := newUnderground(flatWorld(vec.Vec2{}, 1, 60), 3, nil)
	u.Update(observerAt(8, 61, 8, 16))
	require.NotEqual(t, UndergroundClearColour, u.Texture().ChunkPixel(0, 0, 8, 8))

	f := observerAt(8, 61, 8, 32)
	f.Dimension = world.DimensionCeiling
	u.world = fakeWorld{}
	u.Update(f)

	assert.Equal(t, UndergroundClearColour, u.Texture().ChunkPixel(0, 0, 8, 8))
}

func TestUnderground_DimensionChangeRestartsSchedule(t *testing.T) {
	u := newUnderground(flatWorld(vec.Vec2{}, 2, 60), 5, nil)
	require.Equal(t, PatchWest, u.Update(observerAt(8, 61, 8, 16)).Patch.ID)
	require.Equal(t, PatchNorth, u.Update(observerAt(8, 61, 8, 32)).Patch.ID)

	f := observerAt(8, 61, 8, 48)
	f.Dimension = world.DimensionCeiling
	u.world = fakeWorld{}
	assert.Equal(t, PatchWest, u.Update(f).Patch.ID, "После смены измерения обход начинается заново")
}

func TestUnderground_ShadesLiveChunkWithoutSnapshot(t *testing.T) {
	w := flatWorld(vec.Vec2{}, 1, 60)
	u := newUnderground(w, 3, nil)
	u.Update(observerAt(8, 61, 8, 16))
	before := u.Texture().ChunkPixel(0, 0, 8, 8)

	// правка живого чанка видна в следующем цикле
	c := w[vec.Vec2{}]
	c.SetBlock(8, 60, 8, block.AirBlockID)
	c.SetLight(8, 60, 8, world.MaxLight)
	u.Update(observerAt(8, 61, 8, 32))

	after := u.Texture().ChunkPixel(0, 0, 8, 8)
	beforeR, _, _ := rgb(before)
	afterR, _, _ := rgb(after)
	assert.Greater(t, afterR, beforeR, "Пустота под наблюдателем добавляет красный")
}

func TestUnderground_MovingReclaimsCells(t *testing.T) {
	w := flatWorld(vec.Vec2{}, 1, 60)
	for coords, c := range flatWorld(vec.Vec2{X: 16}, 1, 60) {
		w[coords] = c
	}
	u := newUnderground(w, 3, nil)

	first := u.Update(observerAt(8, 61, 8, 16))
	assert.Zero(t, first.ClearedCells)

	// 16 чанков = ширина текстуры 256, окно ложится на те же ячейки
	moved := u.Update(observerAt(16*16+8, 61, 8, 32))
	assert.Equal(t, 9, moved.ClearedCells)
	assert.Equal(t, UndergroundClearColour, u.Texture().ChunkPixel(16, -1, 0, 0))
}

func TestUnderground_DiameterClampedToTexture(t *testing.T) {
	u := NewUndergroundRasterUpdater(NewTexture(64, UndergroundClearColour), NewCompositor(palette.Default(), false), fakeWorld{}, nil, 9, nil)
	assert.Equal(t, 3, u.Schedule().Diameter())
}
