package world

import (
	"math/rand"

	"github.com/annel0/voxelmap/internal/util"
	"github.com/annel0/voxelmap/internal/vec"
	"github.com/annel0/voxelmap/internal/world/block"
)

// BiomeType представляет тип биома
type BiomeType uint8

const (
	BiomePlains BiomeType = iota
	BiomeDesert
	BiomeForest
	BiomeMountains
	BiomeWater
	BiomeDeepWater
	BiomeHell
)

// Константы высот для генерации
const (
	DeepWaterMax  = 0.20 // Ниже - глубинная вода
	MountainStart = 0.80 // Выше - горы

	SeaLevel      = 62
	minSurface    = 40
	surfaceRange  = 60
	caveThreshold = 0.68
	caveLight     = 7 // светящиеся грибы и лава в пещерах
	lavaLevel     = 31
)

// WorldGenerator генерирует ландшафт мира
type WorldGenerator struct {
	Seed          int64   // Сид для генерации шума
	NoiseScale    float64 // Масштаб основного шума (высота)
	BiomeScale    float64 // Масштаб шума биомов
	CaveScale     float64 // Масштаб объёмного шума пещер
	ForestDensity float64 // Плотность лесов (от 0 до 1)

	heightNoise *util.Noise
	biomeNoise  *util.Noise
	caveNoise   *util.Noise
}

// NewWorldGenerator создаёт новый генератор мира
func NewWorldGenerator(seed int64) *WorldGenerator {
	return &WorldGenerator{
		Seed:          seed,
		NoiseScale:    0.01, // Настройка сглаженности ландшафта
		BiomeScale:    0.004,
		CaveScale:     0.06,
		ForestDensity: 0.02,
		heightNoise:   util.NewNoise(seed),
		biomeNoise:    util.NewNoise(seed + 42),
		caveNoise:     util.NewNoise(seed + 1337),
	}
}

// GenerateChunk генерирует чанк по его координатам для измерения
func (wg *WorldGenerator) GenerateChunk(coords vec.Vec2, dimension int) *Chunk {
	if DimensionHasCeiling(dimension) {
		return wg.generateCeilingChunk(coords, dimension)
	}
	return wg.generateSurfaceChunk(coords, dimension)
}

func (wg *WorldGenerator) generateSurfaceChunk(coords vec.Vec2, dimension int) *Chunk {
	chunk := NewChunk(coords, dimension)

	// Для каждого чанка создаем уникальный сид на основе глобального сида и координат
	chunkSeed := wg.Seed + int64(coords.X*31) + int64(coords.Z*17)
	rng := rand.New(rand.NewSource(chunkSeed))

	origin := coords.ChunkOrigin()

	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			globalX := float64(origin.X + x)
			globalZ := float64(origin.Z + z)

			height := wg.heightNoise.Noise2D(globalX*wg.NoiseScale, globalZ*wg.NoiseScale)
			biomeValue := wg.biomeNoise.Noise2D(globalX*wg.BiomeScale, globalZ*wg.BiomeScale)
			surface := minSurface + int(height*surfaceRange)

			biome := wg.getBiomeType(height, surface, biomeValue)
			chunk.SetBiome(x, z, biome)

			chunk.SetBlock(x, 0, z, block.BedrockBlockID)
			for y := 1; y <= surface; y++ {
				chunk.SetBlock(x, y, z, wg.getBlockForDepth(biome, surface, y))
			}
			for y := surface + 1; y <= SeaLevel; y++ {
				chunk.SetBlock(x, y, z, block.WaterBlockID)
			}

			wg.carveCaves(chunk, x, z, surface, globalX, globalZ)

			// Деревья только на суше
			if surface > SeaLevel && x >= 2 && x <= 13 && z >= 2 && z <= 13 {
				density := wg.ForestDensity
				if biome == BiomeForest {
					density = 0.15
				}
				if (biome == BiomeForest || biome == BiomePlains) && rng.Float64() < density {
					wg.placeTree(chunk, x, surface+1, z, rng)
				}
			}
		}
	}

	wg.computeLight(chunk)
	return chunk
}

// generateCeilingChunk строит измерение, закрытое бедроком сверху
func (wg *WorldGenerator) generateCeilingChunk(coords vec.Vec2, dimension int) *Chunk {
	chunk := NewChunk(coords, dimension)
	origin := coords.ChunkOrigin()

	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			globalX := float64(origin.X + x)
			globalZ := float64(origin.Z + z)

			floor := 20 + int(wg.heightNoise.Noise2D(globalX*wg.NoiseScale*3, globalZ*wg.NoiseScale*3)*30)
			ceiling := CeilingHeight - 4 - int(wg.biomeNoise.Noise2D(globalX*wg.NoiseScale*3, globalZ*wg.NoiseScale*3)*16)

			chunk.SetBiome(x, z, BiomeHell)
			chunk.SetBlock(x, 0, z, block.BedrockBlockID)
			chunk.SetBlock(x, CeilingHeight, z, block.BedrockBlockID)

			for y := 1; y < CeilingHeight; y++ {
				switch {
				case y <= floor || y >= ceiling:
					chunk.SetBlock(x, y, z, block.NetherrackBlockID)
				case y <= lavaLevel:
					chunk.SetBlock(x, y, z, block.LavaBlockID)
				}
			}
			if ceiling-1 > floor {
				chunk.SetBlock(x, ceiling, z, block.GlowstoneBlockID)
			}
		}
	}

	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			for y := 0; y < CeilingHeight; y++ {
				if block.IsOpaque(chunk.BlockAt(x, y, z)) {
					chunk.SetLight(x, y, z, 0)
				} else {
					chunk.SetLight(x, y, z, caveLight+3)
				}
			}
		}
	}
	return chunk
}

// carveCaves вырезает пещеры объёмным шумом между бедроком и поверхностью
func (wg *WorldGenerator) carveCaves(chunk *Chunk, x, z, surface int, globalX, globalZ float64) {
	for y := 5; y < surface-5; y++ {
		v := wg.caveNoise.Noise3D(globalX*wg.CaveScale, float64(y)*wg.CaveScale*1.5, globalZ*wg.CaveScale)
		if v > caveThreshold {
			chunk.SetBlock(x, y, z, block.AirBlockID)
		}
	}
}

// placeTree ставит ствол с кроной и запоминает дерево как блочную сущность
func (wg *WorldGenerator) placeTree(chunk *Chunk, x, y, z int, rng *rand.Rand) {
	treeHeight := 3 + rng.Intn(3) // Высота дерева 3-5 блоков
	for i := 0; i < treeHeight; i++ {
		chunk.SetBlock(x, y+i, z, block.LogBlockID)
	}
	top := y + treeHeight
	for dz := -1; dz <= 1; dz++ {
		for dx := -1; dx <= 1; dx++ {
			chunk.SetBlock(x+dx, top, z+dz, block.LeavesBlockID)
			chunk.SetBlock(x+dx, top-1, z+dz, block.LeavesBlockID)
		}
	}
	chunk.SetBlock(x, top-1, z, block.LogBlockID)

	chunk.SetEntity(vec.Vec3{X: x, Y: y, Z: z}, EntityData{
		"type":        "tree",
		"tree_height": treeHeight,
	})
}

// computeLight заполняет освещение: небо сверху до первого непрозрачного блока,
// ослабляясь в воде и листве, ниже темно, воздух пещер подсвечен.
func (wg *WorldGenerator) computeLight(chunk *Chunk) {
	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			light := MaxLight
			for y := WorldHeight - 1; y >= 0; y-- {
				id := chunk.BlockAt(x, y, z)
				switch {
				case block.IsOpaque(id):
					light = 0
					chunk.SetLight(x, y, z, 0)
					continue
				case id == block.WaterBlockID:
					light -= 2
				case id == block.LeavesBlockID:
					light--
				}
				if light < 0 {
					light = 0
				}

				level := light
				if level == 0 && id == block.AirBlockID {
					level = caveLight
				}
				if chunk.Sections[y>>4] != nil {
					chunk.SetLight(x, y, z, level)
				}
			}
		}
	}
}

// getBlockForDepth возвращает блок колонны на высоте y
func (wg *WorldGenerator) getBlockForDepth(biome BiomeType, surface, y int) block.BlockID {
	depth := surface - y
	switch {
	case depth > 3:
		return block.StoneBlockID
	case biome == BiomeDesert || biome == BiomeWater || biome == BiomeDeepWater:
		if biome == BiomeDeepWater && depth == 0 {
			return block.GravelBlockID
		}
		return block.SandBlockID
	case biome == BiomeMountains:
		return block.StoneBlockID
	case depth == 0:
		return block.GrassBlockID
	default:
		return block.DirtBlockID
	}
}

// getBiomeType определяет тип биома на основе значений шума
func (wg *WorldGenerator) getBiomeType(height float64, surface int, biomeValue float64) BiomeType {
	// Водные биомы в низинах
	if height < DeepWaterMax {
		return BiomeDeepWater
	}
	if surface <= SeaLevel {
		return BiomeWater
	}

	// Горные биомы на возвышенностях
	if height > MountainStart {
		return BiomeMountains
	}

	// Для средних высот выбираем биом на основе biomeValue
	if biomeValue < 0.4 {
		return BiomeDesert
	} else if biomeValue > 0.6 {
		return BiomeForest
	}

	return BiomePlains
}

var biomeNames = map[BiomeType]string{
	BiomePlains:    "plains",
	BiomeDesert:    "desert",
	BiomeForest:    "forest",
	BiomeMountains: "mountains",
	BiomeWater:     "water",
	BiomeDeepWater: "deep_water",
	BiomeHell:      "hell",
}

// String возвращает имя биома
func (b BiomeType) String() string {
	if name, ok := biomeNames[b]; ok {
		return name
	}
	return "unknown"
}

// ParseBiome находит биом по имени
func ParseBiome(name string) (BiomeType, bool) {
	for b, n := range biomeNames {
		if n == name {
			return b, true
		}
	}
	return 0, false
}
