package tracker

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxelmap/internal/config"
	"github.com/annel0/voxelmap/internal/vec"
	"github.com/annel0/voxelmap/internal/world"
)

func TestChunkTracker_SurfaceTickBoundsWork(t *testing.T) {
	f := newFixture(defaultOptions())
	for i := 0; i < 10; i++ {
		f.tracker.OnChunkLoaded(solidChunk(i, 0))
	}

	f.tracker.OnSurfaceTick(observerAt(1))
	assert.Equal(t, 4, f.exec.count("surface"), "За тик не больше ChunksPerTick перерисовок")

	f.exec.runAll()
	assert.Len(t, f.renderer.rendered, 4)
}

func TestChunkTracker_DistanceControlsFlags(t *testing.T) {
	opts := defaultOptions()
	opts.MaxDistanceSq = 32 * 32
	f := newFixture(opts)

	near := solidChunk(0, 0)
	far := solidChunk(10, 0)
	f.tracker.OnChunkLoaded(near)
	f.tracker.OnChunkLoaded(far)

	f.tracker.OnSurfaceTick(observerAt(1))

	flags, _ := f.tracker.Set().Flags(KeyOf(near))
	assert.Equal(t, FlagVisible|FlagViewed, flags)
	flags, _ = f.tracker.Set().Flags(KeyOf(far))
	assert.Equal(t, Flags(0), flags)
	assert.Equal(t, 1, f.exec.count("surface"), "Невидимый чанк не перерисовывается")

	// наблюдатель ушёл: VISIBLE снимается, VIEWED остаётся
	away := observerAt(2)
	away.Position = vec.Vec3{X: 1000, Y: 64, Z: 1000}
	f.tracker.OnSurfaceTick(away)

	flags, _ = f.tracker.Set().Flags(KeyOf(near))
	assert.Equal(t, FlagViewed, flags)
}

func TestChunkTracker_EmptyChunkNeverRendered(t *testing.T) {
	f := newFixture(defaultOptions())
	empty := world.NewChunk(vec.Vec2{}, world.DimensionOverworld)
	f.tracker.OnChunkLoaded(empty)

	f.tracker.OnSurfaceTick(observerAt(1))
	assert.Equal(t, 0, f.exec.count("surface"))

	f.tracker.OnChunkUnloaded(empty)
	assert.Equal(t, 0, f.exec.count("persist"), "Пустой чанк не сохраняется")
}

func TestChunkTracker_UnloadPersistsViewedOnce(t *testing.T) {
	f := newFixture(defaultOptions())
	viewed := solidChunk(0, 0)
	unseen := solidChunk(0, 1)
	f.tracker.OnChunkLoaded(viewed)
	f.tracker.OnSurfaceTick(observerAt(1))
	f.tracker.OnChunkLoaded(unseen)

	f.tracker.OnChunkUnloaded(viewed)
	f.tracker.OnChunkUnloaded(viewed)
	f.tracker.OnChunkUnloaded(unseen)

	assert.Equal(t, 1, f.exec.count("persist"), "Один запрос на сохранение на выгрузку")
	f.exec.runAll()
	assert.Equal(t, []vec.Vec2{{X: 0, Z: 0}}, f.saver.saved)
	assert.Equal(t, 0, f.tracker.Set().Len())
}

func TestChunkTracker_SnapshotIsIndependentOfLiveChunk(t *testing.T) {
	f := newFixture(defaultOptions())
	c := solidChunk(0, 0)
	f.tracker.OnChunkLoaded(c)
	f.tracker.OnSurfaceTick(observerAt(1))
	f.tracker.OnChunkUnloaded(c)

	// мир меняет чанк после выгрузки, снимок уже снят
	c.SetBlock(0, 0, 0, 0)

	require.Len(t, f.exec.tasks, 2)
	task, ok := f.exec.tasks[1].(*PersistTask)
	require.True(t, ok)
	assert.False(t, task.Snapshot.IsEmpty())
}

func TestChunkTracker_PersistGating(t *testing.T) {
	tests := []struct {
		name         string
		singleplayer bool
		sp, mp       bool
		want         int
	}{
		{"одиночная игра, включено", true, true, false, 1},
		{"одиночная игра, выключено", true, false, true, 0},
		{"сетевая игра, включено", false, false, true, 1},
		{"сетевая игра, выключено", false, true, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaultOptions()
			opts.PersistSingleplayer = tt.sp
			opts.PersistMultiplayer = tt.mp
			f := newFixture(opts)

			c := solidChunk(0, 0)
			f.tracker.OnChunkLoaded(c)
			fr := observerAt(1)
			fr.Singleplayer = tt.singleplayer
			f.tracker.OnSurfaceTick(fr)
			f.tracker.OnChunkUnloaded(c)

			assert.Equal(t, tt.want, f.exec.count("persist"))
		})
	}
}

func TestChunkTracker_CloseAndFlush(t *testing.T) {
	f := newFixture(defaultOptions())
	for i := 0; i < 3; i++ {
		f.tracker.OnChunkLoaded(solidChunk(i, 0))
	}
	f.tracker.OnSurfaceTick(observerAt(1))
	f.tracker.OnChunkLoaded(solidChunk(0, 5))

	f.tracker.CloseAndFlush()
	assert.Equal(t, 3, f.exec.count("persist"), "Сохраняются только просмотренные чанки")
	assert.Equal(t, 0, f.tracker.Set().Len())
	assert.True(t, f.tracker.Closed())

	// после закрытия все вызовы ничего не делают
	f.tracker.CloseAndFlush()
	f.tracker.OnChunkLoaded(solidChunk(7, 7))
	f.tracker.OnTick(observerAt(2))
	f.tracker.OnTick(observerAt(16))
	assert.Equal(t, 0, f.tracker.Set().Len())
	assert.Equal(t, 3, f.exec.count("persist"))
	assert.Empty(t, f.underground.ticks)
}

func TestChunkTracker_TickCadence(t *testing.T) {
	f := newFixture(defaultOptions())
	f.tracker.OnChunkLoaded(solidChunk(0, 0))

	for tick := uint64(0); tick < 33; tick++ {
		f.tracker.OnTick(observerAt(tick))
	}

	assert.Equal(t, []uint64{0, 16, 32}, f.underground.ticks, "Подземелье обновляется каждый 16-й тик")
	assert.Equal(t, 30, f.exec.count("surface"))
}

func TestChunkTracker_UndergroundDisabled(t *testing.T) {
	opts := defaultOptions()
	opts.UndergroundEnabled = false
	f := newFixture(opts)

	f.tracker.OnTick(observerAt(0))
	assert.Empty(t, f.underground.ticks)
}

func TestChunkTracker_FollowsStoreEvents(t *testing.T) {
	f := newFixture(defaultOptions())
	store := world.NewStore(world.NewWorldGenerator(42), world.DimensionOverworld)
	store.Subscribe(f.tracker.OnEvent)

	store.LoadAround(vec.Vec2{}, 1)
	assert.Equal(t, 9, f.tracker.Set().Len())

	store.SetDimension(world.DimensionCeiling)
	assert.Equal(t, 0, f.tracker.Set().Len(), "Смена измерения выгружает все чанки")
}

func TestChunkTracker_SurfaceTickSetsRendererDimension(t *testing.T) {
	f := newFixture(defaultOptions())
	f.tracker.OnChunkLoaded(solidChunk(0, 0))

	f.tracker.OnSurfaceTick(observerAt(1))
	ceiling := observerAt(2)
	ceiling.Dimension = world.DimensionCeiling
	f.tracker.OnSurfaceTick(ceiling)

	assert.Equal(t, []int{world.DimensionOverworld, world.DimensionCeiling}, f.renderer.dimensions,
		"Измерение задаётся растру до постановки задач")
	assert.Equal(t, 1, f.exec.count("surface"), "Чанк другого измерения не отправляется на перерисовку")
}

// Выгрузки, загрузки, тики и закрытие из разных горутин: каждый просмотренный
// чанк сохраняется ровно один раз, выгрузкой или закрытием.
func TestChunkTracker_ConcurrentCallbacksPersistOnce(t *testing.T) {
	opts := defaultOptions()
	opts.ChunksPerTick = 64
	opts.MaxDistanceSq = 1024 * 1024
	f := newFixture(opts)

	var viewed []*world.Chunk
	for z := 0; z < 4; z++ {
		for x := 0; x < 8; x++ {
			c := solidChunk(x, z)
			viewed = append(viewed, c)
			f.tracker.OnChunkLoaded(c)
		}
	}
	f.tracker.OnSurfaceTick(observerAt(1))
	f.exec.runAll()

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		for _, c := range viewed[:16] {
			f.tracker.OnChunkUnloaded(c)
		}
	}()
	go func() {
		defer wg.Done()
		// далёкие чанки никогда не становятся просмотренными
		for i := 0; i < 64; i++ {
			c := solidChunk(1000+i, 0)
			f.tracker.OnChunkLoaded(c)
			f.tracker.OnChunkUnloaded(c)
		}
	}()
	go func() {
		defer wg.Done()
		for tick := uint64(2); tick < 50; tick++ {
			f.tracker.OnSurfaceTick(observerAt(tick))
		}
	}()
	go func() {
		defer wg.Done()
		f.tracker.CloseAndFlush()
	}()
	wg.Wait()

	assert.True(t, f.tracker.Closed())
	assert.Equal(t, 0, f.tracker.Set().Len())
	assert.Equal(t, len(viewed), f.exec.count("persist"))

	f.exec.runAll()
	saved := make(map[vec.Vec2]int)
	for _, coords := range f.saver.saved {
		saved[coords]++
	}
	require.Len(t, saved, len(viewed))
	for coords, n := range saved {
		assert.Equal(t, 1, n, "Чанк %v сохранён %d раз", coords, n)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default().Map
	opts := OptionsFromConfig(cfg, false)

	assert.Equal(t, cfg.ChunksPerSurfaceTick, opts.ChunksPerTick)
	assert.Equal(t, cfg.MaxChunkSaveDistanceSquared, opts.MaxDistanceSq)
	assert.False(t, opts.Singleplayer)
}
