package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/annel0/voxelmap/internal/config"
	"github.com/annel0/voxelmap/internal/executor"
	"github.com/annel0/voxelmap/internal/frame"
	"github.com/annel0/voxelmap/internal/logging"
	"github.com/annel0/voxelmap/internal/metrics"
	"github.com/annel0/voxelmap/internal/palette"
	"github.com/annel0/voxelmap/internal/render"
	"github.com/annel0/voxelmap/internal/storage"
	"github.com/annel0/voxelmap/internal/tracker"
	"github.com/annel0/voxelmap/internal/vec"
	"github.com/annel0/voxelmap/internal/world"
)

// demoOptions параметры прогона
type demoOptions struct {
	Ticks        uint64
	Seed         int64
	LoadRadius   int
	ObserverY    int
	CeilingAt    uint64 // тик перехода в измерение с потолком, 0 без перехода
	TickInterval time.Duration
	OutDir       string // каталог PNG, пусто без записи
	Singleplayer bool
}

// demoResult итог прогона
type demoResult struct {
	Ticks         uint64
	Executor      executor.Stats
	SavedChunks   int
	SurfaceImage  *render.ImageSink
	UnderImage    *render.ImageSink
	LastPosition  vec.Vec3
	LastDimension int
}

// runDemo ведёт наблюдателя по сгенерированному миру и прогоняет тики карты
func runDemo(ctx context.Context, cfg *config.Config, pal *palette.Palette, snapshots *storage.SnapshotStore, m *metrics.Metrics, opts demoOptions) (*demoResult, error) {
	exec := executor.New(cfg.Executor.Workers, cfg.Executor.QueueSize, m)
	store := world.NewStore(world.NewWorldGenerator(opts.Seed), world.DimensionOverworld)
	compositor := render.NewCompositor(pal, cfg.Map.RealisticShadingMode)

	surfaceSink := render.NewImageSink(cfg.Map.SurfaceTextureSize)
	underSink := render.NewImageSink(cfg.Map.UndergroundTextureSize)

	surface := render.NewSurfaceRasterUpdater(
		render.NewTexture(cfg.Map.SurfaceTextureSize, render.SurfaceClearColour), compositor, surfaceSink, m)
	underground := render.NewUndergroundRasterUpdater(
		render.NewTexture(cfg.Map.UndergroundTextureSize, render.UndergroundClearColour), compositor, store, underSink,
		cfg.Map.UndergroundWindowDiameter, m)

	var saver tracker.SnapshotSaver
	if snapshots != nil {
		saver = snapshots
	}
	tr := tracker.New(tracker.OptionsFromConfig(cfg.Map, opts.Singleplayer), exec, surface, underground, saver, m)
	store.Subscribe(tr.OnEvent)

	logging.Info("🗺️  Прогон карты: %d тиков, seed=%d, радиус загрузки %d, окно подземелья %d",
		opts.Ticks, opts.Seed, opts.LoadRadius, underground.Schedule().Diameter())

	var ticker *time.Ticker
	if opts.TickInterval > 0 {
		ticker = time.NewTicker(opts.TickInterval)
		defer ticker.Stop()
	}

	res := &demoResult{SurfaceImage: surfaceSink, UnderImage: underSink}
	lastChunk := vec.Vec2{X: 1 << 30}

loop:
	for tick := uint64(1); tick <= opts.Ticks; tick++ {
		if ticker != nil {
			select {
			case <-ctx.Done():
				break loop
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			break loop
		}

		if opts.CeilingAt > 0 && tick == opts.CeilingAt {
			store.SetDimension(world.DimensionCeiling)
			lastChunk = vec.Vec2{X: 1 << 30}
		}

		// наблюдатель идёт по диагонали, блок за два тика
		pos := vec.Vec3{X: int(tick / 2), Y: opts.ObserverY, Z: int(tick / 3)}
		if c := pos.ChunkCoords(); c != lastChunk {
			store.LoadAround(c, opts.LoadRadius)
			lastChunk = c
		}

		tr.OnTick(frame.Context{
			Position:     pos,
			Dimension:    store.Dimension(),
			Tick:         tick,
			Singleplayer: opts.Singleplayer,
		})

		res.Ticks = tick
		res.LastPosition = pos
	}

	res.LastDimension = store.Dimension()
	tr.CloseAndFlush()
	exec.Close()
	res.Executor = exec.Stats()

	if snapshots != nil {
		coords, err := snapshots.Coords(res.LastDimension)
		if err != nil {
			return res, fmt.Errorf("подсчёт сохранённых чанков: %w", err)
		}
		res.SavedChunks = len(coords)
	}

	if opts.OutDir != "" {
		if err := surfaceSink.SavePNG(filepath.Join(opts.OutDir, "surface.png")); err != nil {
			return res, err
		}
		if err := underSink.SavePNG(filepath.Join(opts.OutDir, "underground.png")); err != nil {
			return res, err
		}
	}
	return res, nil
}
