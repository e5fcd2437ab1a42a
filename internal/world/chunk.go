package world

import (
	"sync"

	"github.com/annel0/voxelmap/internal/vec"
	"github.com/annel0/voxelmap/internal/world/block"
)

// Размеры чанка
const (
	ChunkSize     = 16                           // Ширина чанка в колоннах
	SectionHeight = 16                           // Высота секции в блоках
	SectionCount  = 16                           // Количество секций в чанке
	WorldHeight   = SectionCount * SectionHeight // 256
	MaxLight      = 15
)

// Section хранит блоки и освещённость куба 16x16x16
type Section struct {
	Blocks [4096]block.BlockID `json:"blocks"`
	Light  [4096]uint8         `json:"light"`
}

func sectionIndex(x, y, z int) int {
	return (y&0xF)<<8 | (z&0xF)<<4 | (x & 0xF)
}

// isEmpty возвращает true, если в секции только воздух
func (s *Section) isEmpty() bool {
	for _, id := range s.Blocks {
		if id != block.AirBlockID {
			return false
		}
	}
	return true
}

// SectionStack вертикальный столб секций чанка. nil секция означает воздух с полным освещением.
type SectionStack [SectionCount]*Section

func (s *SectionStack) blockAt(x, y, z int) block.BlockID {
	if y < 0 || y >= WorldHeight {
		return block.AirBlockID
	}
	sec := s[y>>4]
	if sec == nil {
		return block.AirBlockID
	}
	return sec.Blocks[sectionIndex(x, y, z)]
}

func (s *SectionStack) lightAt(x, y, z int) int {
	if y < 0 {
		return 0
	}
	if y >= WorldHeight {
		return MaxLight
	}
	sec := s[y>>4]
	if sec == nil {
		return MaxLight
	}
	return int(sec.Light[sectionIndex(x, y, z)])
}

// topSection возвращает индекс самой высокой непустой секции или -1
func (s *SectionStack) topSection() int {
	for i := SectionCount - 1; i >= 0; i-- {
		if s[i] != nil && !s[i].isEmpty() {
			return i
		}
	}
	return -1
}

// maxYOf возвращает верхнюю координату секции top
func maxYOf(top int) int {
	if top < 0 {
		return 0
	}
	return top*SectionHeight + SectionHeight - 1
}

// clone делает глубокую копию всех секций
func (s *SectionStack) clone() SectionStack {
	var out SectionStack
	for i, sec := range s {
		if sec != nil {
			cp := *sec
			out[i] = &cp
		}
	}
	return out
}

// EntityData метаданные блочной сущности (сундук, табличка)
type EntityData map[string]interface{}

func (e EntityData) clone() EntityData {
	out := make(EntityData, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Chunk представляет живой участок мира 16x16 колонн высотой 256 блоков.
// Мир может менять его в любой момент, поэтому всё, что уходит в фоновые задачи,
// копируется через Snapshot.
type Chunk struct {
	Coords    vec.Vec2 // Координаты чанка в мире
	Dimension int      // Идентификатор измерения

	Sections SectionStack
	Biomes   [ChunkSize * ChunkSize]BiomeType // индекс z<<4 | x
	Entities map[vec.Vec3]EntityData          // Блочные сущности по локальным координатам

	Mu sync.RWMutex // Мьютекс для безопасного доступа
}

// NewChunk создаёт пустой чанк с указанными координатами
func NewChunk(coords vec.Vec2, dimension int) *Chunk {
	return &Chunk{
		Coords:    coords,
		Dimension: dimension,
		Entities:  make(map[vec.Vec3]EntityData),
	}
}

// ChunkCoords возвращает координаты чанка
func (c *Chunk) ChunkCoords() vec.Vec2 { return c.Coords }

// Dim возвращает идентификатор измерения
func (c *Chunk) Dim() int { return c.Dimension }

// BlockAt возвращает ID блока по локальным координатам колонны и высоте
func (c *Chunk) BlockAt(x, y, z int) block.BlockID {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.Sections.blockAt(x, y, z)
}

// BiomeAt возвращает биом колонны. Высота не влияет на результат.
func (c *Chunk) BiomeAt(x, y, z int) BiomeType {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.Biomes[(z&0xF)<<4|(x&0xF)]
}

// LightLevel возвращает уровень освещения 0..15.
// Ниже мира темно, выше мира полный свет.
func (c *Chunk) LightLevel(x, y, z int) int {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.Sections.lightAt(x, y, z)
}

// MaxY возвращает верхнюю высоту самой высокой заполненной секции
func (c *Chunk) MaxY() int {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return maxYOf(c.Sections.topSection())
}

// IsEmpty возвращает true для чанка без сгенерированного содержимого
func (c *Chunk) IsEmpty() bool {
	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.Sections.topSection() < 0
}

// SetBlock устанавливает блок по локальным координатам
func (c *Chunk) SetBlock(x, y, z int, id block.BlockID) {
	if y < 0 || y >= WorldHeight {
		return
	}

	c.Mu.Lock()
	defer c.Mu.Unlock()

	sec := c.section(y)
	sec.Blocks[sectionIndex(x, y, z)] = id
}

// SetLight устанавливает уровень освещения блока
func (c *Chunk) SetLight(x, y, z int, level int) {
	if y < 0 || y >= WorldHeight {
		return
	}
	if level < 0 {
		level = 0
	} else if level > MaxLight {
		level = MaxLight
	}

	c.Mu.Lock()
	defer c.Mu.Unlock()

	sec := c.section(y)
	sec.Light[sectionIndex(x, y, z)] = uint8(level)
}

// SetBiome задаёт биом колонны
func (c *Chunk) SetBiome(x, z int, biome BiomeType) {
	c.Mu.Lock()
	c.Biomes[(z&0xF)<<4|(x&0xF)] = biome
	c.Mu.Unlock()
}

// SetEntity сохраняет блочную сущность по локальным координатам
func (c *Chunk) SetEntity(pos vec.Vec3, data EntityData) {
	c.Mu.Lock()
	c.Entities[pos] = data.clone()
	c.Mu.Unlock()
}

// section возвращает секцию для высоты y, создавая её при необходимости.
// Новая секция полностью освещена, как и отсутствующая. Вызывается под Mu.Lock.
func (c *Chunk) section(y int) *Section {
	idx := y >> 4
	if c.Sections[idx] == nil {
		sec := &Section{}
		for i := range sec.Light {
			sec.Light[i] = MaxLight
		}
		c.Sections[idx] = sec
	}
	return c.Sections[idx]
}

// Snapshot делает неизменяемую глубокую копию секций, биомов и сущностей
func (c *Chunk) Snapshot() *Snapshot {
	c.Mu.RLock()
	defer c.Mu.RUnlock()

	entities := make(map[vec.Vec3]EntityData, len(c.Entities))
	for pos, data := range c.Entities {
		entities[pos] = data.clone()
	}

	return newSnapshot(c.Coords, c.Dimension, c.Sections.clone(), c.Biomes, entities)
}
