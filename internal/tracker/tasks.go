package tracker

import (
	"context"
	"fmt"

	"github.com/annel0/voxelmap/internal/world"
)

// SnapshotSaver сохраняет снимок чанка
type SnapshotSaver interface {
	SaveSnapshot(ctx context.Context, snap *world.Snapshot) error
}

// SurfaceRenderer перерисовывает чанк в растре поверхности.
// SetDimension вызывается из тика до постановки задач; RenderChunk отбрасывает
// снимки, измерение которых не совпадает с заданным.
type SurfaceRenderer interface {
	SetDimension(dimension int) bool
	RenderChunk(snap world.ChunkView)
}

// PersistTask сохраняет снимок чанка в фоне
type PersistTask struct {
	Snapshot *world.Snapshot
	Saver    SnapshotSaver
}

func (t *PersistTask) Name() string { return "persist" }

func (t *PersistTask) Run(ctx context.Context) error {
	c := t.Snapshot.ChunkCoords()
	if err := t.Saver.SaveSnapshot(ctx, t.Snapshot); err != nil {
		return fmt.Errorf("сохранение чанка (%d,%d) измерения %d: %w", c.X, c.Z, t.Snapshot.Dim(), err)
	}
	return nil
}

// SurfaceTask перерисовывает снимок в растре поверхности
type SurfaceTask struct {
	Snapshot *world.Snapshot
	Renderer SurfaceRenderer
}

func (t *SurfaceTask) Name() string { return "surface" }

func (t *SurfaceTask) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.Renderer.RenderChunk(t.Snapshot)
	return nil
}
