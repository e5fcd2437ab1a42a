package world

import (
	"sort"

	"github.com/annel0/voxelmap/internal/vec"
	"github.com/annel0/voxelmap/internal/world/block"
)

// Snapshot неизменяемая копия чанка. Безопасна для передачи в фоновые задачи:
// после создания никто не меняет её содержимое.
type Snapshot struct {
	coords    vec.Vec2
	dimension int
	sections  SectionStack
	biomes    [ChunkSize * ChunkSize]BiomeType
	entities  map[vec.Vec3]EntityData
	top       int // самая высокая непустая секция, -1 для пустого чанка
}

func newSnapshot(coords vec.Vec2, dimension int, sections SectionStack, biomes [ChunkSize * ChunkSize]BiomeType, entities map[vec.Vec3]EntityData) *Snapshot {
	return &Snapshot{
		coords:    coords,
		dimension: dimension,
		sections:  sections,
		biomes:    biomes,
		entities:  entities,
		top:       sections.topSection(),
	}
}

func (s *Snapshot) ChunkCoords() vec.Vec2 { return s.coords }
func (s *Snapshot) Dim() int              { return s.dimension }

func (s *Snapshot) BlockAt(x, y, z int) block.BlockID {
	return s.sections.blockAt(x, y, z)
}

func (s *Snapshot) BiomeAt(x, y, z int) BiomeType {
	return s.biomes[(z&0xF)<<4|(x&0xF)]
}

func (s *Snapshot) LightLevel(x, y, z int) int {
	return s.sections.lightAt(x, y, z)
}

func (s *Snapshot) MaxY() int     { return maxYOf(s.top) }
func (s *Snapshot) IsEmpty() bool { return s.top < 0 }

// Snapshot возвращает сам снимок: копировать неизменяемые данные незачем
func (s *Snapshot) Snapshot() *Snapshot { return s }

// EntityCount возвращает количество блочных сущностей
func (s *Snapshot) EntityCount() int { return len(s.entities) }

// Entity возвращает копию сущности по локальным координатам
func (s *Snapshot) Entity(pos vec.Vec3) (EntityData, bool) {
	data, ok := s.entities[pos]
	if !ok {
		return nil, false
	}
	return data.clone(), true
}

// EntityRecord сущность в сериализуемом виде
type EntityRecord struct {
	Pos  vec.Vec3   `json:"pos"`
	Data EntityData `json:"data"`
}

// SnapshotRecord сериализуемое представление снимка для хранилища
type SnapshotRecord struct {
	X         int                              `json:"x"`
	Z         int                              `json:"z"`
	Dimension int                              `json:"dimension"`
	Sections  SectionStack                     `json:"sections"`
	Biomes    [ChunkSize * ChunkSize]BiomeType `json:"biomes"`
	Entities  []EntityRecord                   `json:"entities,omitempty"`
}

// Record переводит снимок в сериализуемую запись. Секции копируются.
func (s *Snapshot) Record() SnapshotRecord {
	rec := SnapshotRecord{
		X:         s.coords.X,
		Z:         s.coords.Z,
		Dimension: s.dimension,
		Sections:  s.sections.clone(),
		Biomes:    s.biomes,
	}

	for pos, data := range s.entities {
		rec.Entities = append(rec.Entities, EntityRecord{Pos: pos, Data: data.clone()})
	}
	// стабильный порядок, чтобы одинаковые снимки давали одинаковые байты
	sort.Slice(rec.Entities, func(i, j int) bool {
		a, b := rec.Entities[i].Pos, rec.Entities[j].Pos
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		return a.X < b.X
	})
	return rec
}

// SnapshotFromRecord восстанавливает снимок из записи хранилища
func SnapshotFromRecord(rec SnapshotRecord) *Snapshot {
	entities := make(map[vec.Vec3]EntityData, len(rec.Entities))
	for _, e := range rec.Entities {
		entities[e.Pos] = e.Data.clone()
	}

	return newSnapshot(vec.Vec2{X: rec.X, Z: rec.Z}, rec.Dimension, rec.Sections.clone(), rec.Biomes, entities)
}
