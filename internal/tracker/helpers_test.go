package tracker

import (
	"context"
	"sync"

	"github.com/annel0/voxelmap/internal/executor"
	"github.com/annel0/voxelmap/internal/frame"
	"github.com/annel0/voxelmap/internal/render"
	"github.com/annel0/voxelmap/internal/vec"
	"github.com/annel0/voxelmap/internal/world"
	"github.com/annel0/voxelmap/internal/world/block"
)

// queueExecutor копит задачи и выполняет их по запросу
type queueExecutor struct {
	mu    sync.Mutex
	tasks []executor.Task
}

func (e *queueExecutor) Submit(task executor.Task) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks = append(e.tasks, task)
	return nil
}

func (e *queueExecutor) count(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, t := range e.tasks {
		if t.Name() == name {
			n++
		}
	}
	return n
}

func (e *queueExecutor) runAll() {
	e.mu.Lock()
	tasks := e.tasks
	e.tasks = nil
	e.mu.Unlock()
	for _, t := range tasks {
		_ = t.Run(context.Background())
	}
}

type memorySaver struct {
	mu    sync.Mutex
	saved []vec.Vec2
}

func (s *memorySaver) SaveSnapshot(ctx context.Context, snap *world.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, snap.ChunkCoords())
	return nil
}

type countingRenderer struct {
	mu         sync.Mutex
	rendered   []vec.Vec2
	dimensions []int
}

func (r *countingRenderer) SetDimension(dimension int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := len(r.dimensions) > 0 && r.dimensions[len(r.dimensions)-1] != dimension
	r.dimensions = append(r.dimensions, dimension)
	return changed
}

func (r *countingRenderer) RenderChunk(snap world.ChunkView) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rendered = append(r.rendered, snap.ChunkCoords())
}

type countingUnderground struct {
	ticks []uint64
}

func (u *countingUnderground) Update(f frame.Context) render.UndergroundStats {
	u.ticks = append(u.ticks, f.Tick)
	return render.UndergroundStats{}
}

// solidChunk чанк с одним блоком камня
func solidChunk(cx, cz int) *world.Chunk {
	c := world.NewChunk(vec.Vec2{X: cx, Z: cz}, world.DimensionOverworld)
	c.SetBlock(0, 0, 0, block.StoneBlockID)
	return c
}

type fixture struct {
	tracker     *ChunkTracker
	exec        *queueExecutor
	saver       *memorySaver
	renderer    *countingRenderer
	underground *countingUnderground
}

func newFixture(opts Options) *fixture {
	f := &fixture{
		exec:        &queueExecutor{},
		saver:       &memorySaver{},
		renderer:    &countingRenderer{},
		underground: &countingUnderground{},
	}
	f.tracker = New(opts, f.exec, f.renderer, f.underground, f.saver, nil)
	return f
}

func defaultOptions() Options {
	return Options{
		ChunksPerTick:       4,
		MaxDistanceSq:       128 * 128,
		PersistSingleplayer: true,
		PersistMultiplayer:  true,
		UndergroundEnabled:  true,
		Singleplayer:        true,
	}
}

// observerAt кадр с наблюдателем в центре чанка (0,0)
func observerAt(tick uint64) frame.Context {
	return frame.Context{Position: vec.Vec3{X: 8, Y: 64, Z: 8}, Tick: tick, Singleplayer: true}
}
