package palette

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/annel0/voxelmap/internal/world"
	"github.com/annel0/voxelmap/internal/world/block"
)

// MissingColour цвет-заглушка для воздуха и неизвестных блоков.
// Оба шейдера считают его полностью прозрачным, несмотря на альфу 0xff.
const MissingColour uint32 = 0xff7c007c

// noTint нейтральный множитель биома
const noTint uint32 = 0xffffffff

// TintKind определяет, какой цвет биома умножается на цвет блока
type TintKind uint8

const (
	TintNone TintKind = iota
	TintGrass
	TintFoliage
	TintWater
)

var tintNames = map[string]TintKind{
	"none":    TintNone,
	"grass":   TintGrass,
	"foliage": TintFoliage,
	"water":   TintWater,
}

// BlockColour базовый цвет блока ARGB и тип окраски биомом
type BlockColour struct {
	Colour uint32
	Tint   TintKind
}

// BiomeTints цвета окраски для биома (RGB, альфа игнорируется)
type BiomeTints struct {
	Grass   uint32
	Foliage uint32
	Water   uint32
}

// Palette таблица цветов блоков и биомов. Безопасна для чтения из нескольких горутин.
type Palette struct {
	mu     sync.RWMutex
	blocks map[block.BlockID]BlockColour
	biomes map[world.BiomeType]BiomeTints
}

// New создаёт пустую палитру
func New() *Palette {
	return &Palette{
		blocks: make(map[block.BlockID]BlockColour),
		biomes: make(map[world.BiomeType]BiomeTints),
	}
}

// SetBlock задаёт цвет блока
func (p *Palette) SetBlock(id block.BlockID, c BlockColour) {
	p.mu.Lock()
	p.blocks[id] = c
	p.mu.Unlock()
}

// SetBiome задаёт окраску биома
func (p *Palette) SetBiome(b world.BiomeType, t BiomeTints) {
	p.mu.Lock()
	p.biomes[b] = t
	p.mu.Unlock()
}

// Colour возвращает ARGB цвет блока или MissingColour
func (p *Palette) Colour(id block.BlockID) uint32 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	c, ok := p.blocks[id]
	if !ok {
		return MissingColour
	}
	return c.Colour
}

// BiomeColour возвращает множитель биома для блока. Блоки без окраски дают белый.
func (p *Palette) BiomeColour(id block.BlockID, biome world.BiomeType) uint32 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	c, ok := p.blocks[id]
	if !ok || c.Tint == TintNone {
		return noTint
	}
	t, ok := p.biomes[biome]
	if !ok {
		return noTint
	}

	switch c.Tint {
	case TintGrass:
		return t.Grass
	case TintFoliage:
		return t.Foliage
	case TintWater:
		return t.Water
	}
	return noTint
}

// Default возвращает встроенную палитру
func Default() *Palette {
	p := New()

	p.SetBlock(block.StoneBlockID, BlockColour{Colour: 0xff7f7f7f})
	p.SetBlock(block.GrassBlockID, BlockColour{Colour: 0xffa0a0a0, Tint: TintGrass})
	p.SetBlock(block.WaterBlockID, BlockColour{Colour: 0x60c0c0ff, Tint: TintWater})
	p.SetBlock(block.SandBlockID, BlockColour{Colour: 0xffdbd3a0})
	p.SetBlock(block.DirtBlockID, BlockColour{Colour: 0xff866043})
	p.SetBlock(block.BedrockBlockID, BlockColour{Colour: 0xff545454})
	p.SetBlock(block.GravelBlockID, BlockColour{Colour: 0xff857f7e})
	p.SetBlock(block.LeavesBlockID, BlockColour{Colour: 0xc0b0b0b0, Tint: TintFoliage})
	p.SetBlock(block.LogBlockID, BlockColour{Colour: 0xff665132})
	p.SetBlock(block.TallGrassBlockID, BlockColour{Colour: 0x40a0a0a0, Tint: TintGrass})
	p.SetBlock(block.FlowerBlockID, BlockColour{Colour: 0x40f1f902})
	p.SetBlock(block.GlassBlockID, BlockColour{Colour: 0x20dafaff})
	p.SetBlock(block.LavaBlockID, BlockColour{Colour: 0xffd96514})
	p.SetBlock(block.IceBlockID, BlockColour{Colour: 0x9f7dadff})
	p.SetBlock(block.NetherrackBlockID, BlockColour{Colour: 0xff6f3634})
	p.SetBlock(block.GlowstoneBlockID, BlockColour{Colour: 0xfff9d49c})

	p.SetBiome(world.BiomePlains, BiomeTints{Grass: 0x91bd59, Foliage: 0x77ab2f, Water: 0x3f76e4})
	p.SetBiome(world.BiomeDesert, BiomeTints{Grass: 0xbfb755, Foliage: 0xaea42a, Water: 0x3f76e4})
	p.SetBiome(world.BiomeForest, BiomeTints{Grass: 0x79c05a, Foliage: 0x59ae30, Water: 0x3f76e4})
	p.SetBiome(world.BiomeMountains, BiomeTints{Grass: 0x8ab689, Foliage: 0x6da36b, Water: 0x3f76e4})
	p.SetBiome(world.BiomeWater, BiomeTints{Grass: 0x8eb971, Foliage: 0x71a74d, Water: 0x3f76e4})
	p.SetBiome(world.BiomeDeepWater, BiomeTints{Grass: 0x8eb971, Foliage: 0x71a74d, Water: 0x3d57d6})
	p.SetBiome(world.BiomeHell, BiomeTints{Grass: 0xbfb755, Foliage: 0xaea42a, Water: 0x3f76e4})

	return p
}

// fileFormat формат YAML файла палитры
type fileFormat struct {
	Blocks map[string]struct {
		Colour string `yaml:"colour"`
		Tint   string `yaml:"tint"`
	} `yaml:"blocks"`
	Biomes map[string]struct {
		Grass   string `yaml:"grass"`
		Foliage string `yaml:"foliage"`
		Water   string `yaml:"water"`
	} `yaml:"biomes"`
}

// Load читает YAML палитру поверх встроенной. Пустой путь возвращает Default().
func Load(path string) (*Palette, error) {
	p := Default()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение палитры %s: %w", path, err)
	}
	if err := p.Merge(data); err != nil {
		return nil, fmt.Errorf("палитра %s: %w", path, err)
	}
	return p, nil
}

// Merge применяет YAML описание к палитре
func (p *Palette) Merge(data []byte) error {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("разбор yaml: %w", err)
	}

	ids := blockIDsByName()
	for name, entry := range f.Blocks {
		id, ok := ids[name]
		if !ok {
			return fmt.Errorf("неизвестный блок %q", name)
		}
		colour, err := parseColour(entry.Colour)
		if err != nil {
			return fmt.Errorf("блок %q: %w", name, err)
		}
		tint, ok := tintNames[strings.ToLower(entry.Tint)]
		if !ok && entry.Tint != "" {
			return fmt.Errorf("блок %q: неизвестная окраска %q", name, entry.Tint)
		}
		p.SetBlock(id, BlockColour{Colour: colour, Tint: tint})
	}

	for name, entry := range f.Biomes {
		biome, ok := world.ParseBiome(name)
		if !ok {
			return fmt.Errorf("неизвестный биом %q", name)
		}
		var t BiomeTints
		var err error
		if t.Grass, err = parseColour(entry.Grass); err != nil {
			return fmt.Errorf("биом %q: %w", name, err)
		}
		if t.Foliage, err = parseColour(entry.Foliage); err != nil {
			return fmt.Errorf("биом %q: %w", name, err)
		}
		if t.Water, err = parseColour(entry.Water); err != nil {
			return fmt.Errorf("биом %q: %w", name, err)
		}
		p.SetBiome(biome, t)
	}
	return nil
}

// parseColour разбирает шестнадцатеричный цвет "aarrggbb", "rrggbb" или "#rrggbb".
// Шестизначная запись считается непрозрачной.
func parseColour(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "#"), "0x")
	if len(s) != 6 && len(s) != 8 {
		return 0, fmt.Errorf("некорректный цвет %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("некорректный цвет %q: %w", s, err)
	}
	if len(s) == 6 {
		v |= 0xff000000
	}
	return uint32(v), nil
}

func blockIDsByName() map[string]block.BlockID {
	ids := make(map[string]block.BlockID)
	for id := block.BlockID(0); id < 1024; id++ {
		if def, ok := block.Get(id); ok {
			ids[def.Name] = id
		}
	}
	return ids
}
