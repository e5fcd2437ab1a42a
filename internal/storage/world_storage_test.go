package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxelmap/internal/vec"
	"github.com/annel0/voxelmap/internal/world"
	"github.com/annel0/voxelmap/internal/world/block"
)

func setupTestStorage(t *testing.T) *SnapshotStore {
	t.Helper()
	store, err := NewSnapshotStore(t.TempDir())
	require.NoError(t, err, "Не удалось создать хранилище")
	t.Cleanup(func() { store.Close() })
	return store
}

func testChunk() *world.Chunk {
	c := world.NewChunk(vec.Vec2{X: 10, Z: -20}, world.DimensionOverworld)
	c.SetBlock(5, 64, 5, block.WaterBlockID)
	c.SetBlock(8, 3, 3, block.GrassBlockID)
	c.SetLight(5, 65, 5, 7)
	c.SetBiome(5, 5, world.BiomeForest)
	c.SetEntity(vec.Vec3{X: 1, Y: 70, Z: 2}, world.EntityData{"type": "tree"})
	return c
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	snap := testChunk().Snapshot()
	require.NoError(t, store.SaveSnapshot(ctx, snap))

	loaded, err := store.LoadSnapshot(ctx, world.DimensionOverworld, vec.Vec2{X: 10, Z: -20})
	require.NoError(t, err)

	assert.Equal(t, snap.ChunkCoords(), loaded.ChunkCoords())
	assert.Equal(t, block.WaterBlockID, loaded.BlockAt(5, 64, 5))
	assert.Equal(t, block.GrassBlockID, loaded.BlockAt(8, 3, 3))
	assert.Equal(t, 7, loaded.LightLevel(5, 65, 5))
	assert.Equal(t, world.BiomeForest, loaded.BiomeAt(5, 0, 5))
	assert.Equal(t, snap.MaxY(), loaded.MaxY())

	data, ok := loaded.Entity(vec.Vec3{X: 1, Y: 70, Z: 2})
	require.True(t, ok)
	assert.Equal(t, "tree", data["type"])
}

func TestLoadNonExistentSnapshot(t *testing.T) {
	store := setupTestStorage(t)

	_, err := store.LoadSnapshot(context.Background(), world.DimensionOverworld, vec.Vec2{X: 1, Z: 1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSnapshotsAreKeyedByDimension(t *testing.T) {
	store, err := NewMemorySnapshotStore()
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	surface := world.NewChunk(vec.Vec2{X: 3, Z: 4}, world.DimensionOverworld)
	surface.SetBlock(0, 10, 0, block.StoneBlockID)
	ceiling := world.NewChunk(vec.Vec2{X: 3, Z: 4}, world.DimensionCeiling)
	ceiling.SetBlock(0, 10, 0, block.NetherrackBlockID)

	require.NoError(t, store.SaveSnapshot(ctx, surface.Snapshot()))
	require.NoError(t, store.SaveSnapshot(ctx, ceiling.Snapshot()))

	loaded, err := store.LoadSnapshot(ctx, world.DimensionCeiling, vec.Vec2{X: 3, Z: 4})
	require.NoError(t, err)
	assert.Equal(t, block.NetherrackBlockID, loaded.BlockAt(0, 10, 0))

	coords, err := store.Coords(world.DimensionOverworld)
	require.NoError(t, err)
	assert.Equal(t, []vec.Vec2{{X: 3, Z: 4}}, coords)

	require.NoError(t, store.DeleteSnapshot(world.DimensionOverworld, vec.Vec2{X: 3, Z: 4}))
	_, err = store.LoadSnapshot(ctx, world.DimensionOverworld, vec.Vec2{X: 3, Z: 4})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveOverwritesPreviousSnapshot(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	c := testChunk()
	require.NoError(t, store.SaveSnapshot(ctx, c.Snapshot()))
	c.SetBlock(5, 64, 5, block.SandBlockID)
	require.NoError(t, store.SaveSnapshot(ctx, c.Snapshot()))

	loaded, err := store.LoadSnapshot(ctx, world.DimensionOverworld, c.Coords)
	require.NoError(t, err)
	assert.Equal(t, block.SandBlockID, loaded.BlockAt(5, 64, 5))
}

func TestClosedStore(t *testing.T) {
	store, err := NewMemorySnapshotStore()
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	err = store.SaveSnapshot(context.Background(), testChunk().Snapshot())
	assert.ErrorIs(t, err, ErrClosed)
	_, err = store.LoadSnapshot(context.Background(), 0, vec.Vec2{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSaveRespectsCancelledContext(t *testing.T) {
	store := setupTestStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.SaveSnapshot(ctx, testChunk().Snapshot()), context.Canceled)
}
