package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации карты.
type Config struct {
	Map      MapConfig      `yaml:"map"`
	Storage  StorageConfig  `yaml:"storage"`
	Executor ExecutorConfig `yaml:"executor"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Palette  string         `yaml:"palette"` // путь к YAML палитры блоков, пустой означает встроенную
}

// MapConfig содержит параметры обновления растров поверхности и подземелья
type MapConfig struct {
	UndergroundEnabled                bool `yaml:"underground_enabled"`
	UndergroundWindowDiameter         int  `yaml:"underground_window_diameter"` // нечётное, >= 3
	UndergroundTextureSize            int  `yaml:"underground_texture_size"`    // степень двойки
	SurfaceTextureSize                int  `yaml:"surface_texture_size"`        // степень двойки
	ChunksPerSurfaceTick              int  `yaml:"chunks_per_surface_tick"`
	MaxChunkSaveDistanceSquared       int  `yaml:"max_chunk_save_distance_squared"`
	RealisticShadingMode              bool `yaml:"realistic_shading_mode"`
	SurfacePersistEnabledSingleplayer bool `yaml:"surface_persist_enabled_singleplayer"`
	SurfacePersistEnabledMultiplayer  bool `yaml:"surface_persist_enabled_multiplayer"`
}

type StorageConfig struct {
	DataPath string `yaml:"data_path"`
	InMemory bool   `yaml:"in_memory"`
}

type ExecutorConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

type MetricsConfig struct {
	Port int `yaml:"port"`
}

// GetPort возвращает порт метрик с поддержкой fallback значений
func (m *MetricsConfig) GetPort() int {
	return getPortWithEnvFallback(m.Port, "VOXELMAP_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Map: MapConfig{
			UndergroundEnabled:                true,
			UndergroundWindowDiameter:         5,
			UndergroundTextureSize:            1024,
			SurfaceTextureSize:                2048,
			ChunksPerSurfaceTick:              5,
			MaxChunkSaveDistanceSquared:       128 * 128,
			RealisticShadingMode:              false,
			SurfacePersistEnabledSingleplayer: true,
			SurfacePersistEnabledMultiplayer:  true,
		},
		Storage: StorageConfig{
			DataPath: "data",
		},
		Executor: ExecutorConfig{
			Workers:   2,
			QueueSize: 1024,
		},
	}
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV VOXELMAP_CONFIG, иначе возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("VOXELMAP_CONFIG")
		if path == "" {
			cfg.Normalize()
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}

	cfg.Normalize()
	return cfg, nil
}

// Normalize приводит значения к допустимым вместо того, чтобы падать на них
func (c *Config) Normalize() {
	c.Map.Normalize()

	if c.Executor.Workers < 1 {
		c.Executor.Workers = 1
	}
	if c.Executor.QueueSize < 1 {
		c.Executor.QueueSize = 1
	}
}

// Normalize приводит параметры карты к допустимым значениям
func (m *MapConfig) Normalize() {
	m.SurfaceTextureSize = NormalizeTextureSize(m.SurfaceTextureSize)
	m.UndergroundTextureSize = NormalizeTextureSize(m.UndergroundTextureSize)

	// окно не может быть шире текстуры, иначе ячейки тора начнут перекрываться
	m.UndergroundWindowDiameter = NormalizeDiameter(m.UndergroundWindowDiameter)
	if maxDiameter := (m.UndergroundTextureSize >> 4) - 1; m.UndergroundWindowDiameter > maxDiameter {
		m.UndergroundWindowDiameter = maxDiameter
	}

	if m.ChunksPerSurfaceTick < 1 {
		m.ChunksPerSurfaceTick = 1
	}
	if m.MaxChunkSaveDistanceSquared < 0 {
		m.MaxChunkSaveDistanceSquared = 0
	}
}

// NormalizeDiameter возвращает ближайшее допустимое нечётное значение >= 3.
// Чётные значения округляются вверх.
func NormalizeDiameter(d int) int {
	if d < 3 {
		return 3
	}
	if d%2 == 0 {
		return d + 1
	}
	return d
}

// NormalizeTextureSize округляет сторону текстуры вверх до степени двойки, не меньше 64
func NormalizeTextureSize(size int) int {
	n := 64
	for n < size {
		n <<= 1
	}
	return n
}
