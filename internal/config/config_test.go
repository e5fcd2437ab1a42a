package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsNormalized(t *testing.T) {
	cfg := Default()
	before := *cfg
	cfg.Normalize()

	assert.Equal(t, before, *cfg, "Значения по умолчанию уже допустимы")
	assert.Equal(t, 5, cfg.Map.UndergroundWindowDiameter)
	assert.True(t, cfg.Map.UndergroundEnabled)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.yaml")
	data := `
map:
  underground_window_diameter: 8
  chunks_per_surface_tick: 0
  realistic_shading_mode: true
  surface_persist_enabled_multiplayer: false
storage:
  data_path: /tmp/voxelmap
executor:
  workers: 4
palette: palette.yaml
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Map.UndergroundWindowDiameter, "Чётный диаметр округляется вверх")
	assert.Equal(t, 1, cfg.Map.ChunksPerSurfaceTick)
	assert.True(t, cfg.Map.RealisticShadingMode)
	assert.False(t, cfg.Map.SurfacePersistEnabledMultiplayer)
	assert.True(t, cfg.Map.SurfacePersistEnabledSingleplayer, "Незаданные поля сохраняют значения по умолчанию")
	assert.Equal(t, "/tmp/voxelmap", cfg.Storage.DataPath)
	assert.Equal(t, 4, cfg.Executor.Workers)
	assert.Equal(t, 1024, cfg.Executor.QueueSize)
	assert.Equal(t, "palette.yaml", cfg.Palette)
}

func TestLoadFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte("map:\n  chunks_per_surface_tick: 12\n"), 0o644))
	t.Setenv("VOXELMAP_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Map.ChunksPerSurfaceTick)

	t.Setenv("VOXELMAP_CONFIG", "")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Map.ChunksPerSurfaceTick)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("map: [1, 2"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestNormalizeDiameter(t *testing.T) {
	tests := []struct{ in, want int }{
		{-1, 3}, {0, 3}, {2, 3}, {3, 3}, {4, 5}, {5, 5}, {6, 7}, {11, 11}, {12, 13},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeDiameter(tt.in), "NormalizeDiameter(%d)", tt.in)
	}
}

func TestNormalizeClampsDiameterToTexture(t *testing.T) {
	m := MapConfig{UndergroundWindowDiameter: 21, UndergroundTextureSize: 100, SurfaceTextureSize: 10}
	m.Normalize()

	assert.Equal(t, 128, m.UndergroundTextureSize)
	assert.Equal(t, 64, m.SurfaceTextureSize)
	assert.Equal(t, 7, m.UndergroundWindowDiameter, "Окно не шире текстуры без одной ячейки")
}

func TestMetricsPortFallback(t *testing.T) {
	t.Setenv("VOXELMAP_METRICS_PORT", "")
	assert.Equal(t, 2112, (&MetricsConfig{}).GetPort())

	t.Setenv("VOXELMAP_METRICS_PORT", "9100")
	assert.Equal(t, 9100, (&MetricsConfig{}).GetPort())
	assert.Equal(t, 8080, (&MetricsConfig{Port: 8080}).GetPort())

	t.Setenv("VOXELMAP_METRICS_PORT", "abc")
	assert.Equal(t, 2112, (&MetricsConfig{}).GetPort())
}
