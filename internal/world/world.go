package world

import (
	"sync"

	"github.com/annel0/voxelmap/internal/logging"
	"github.com/annel0/voxelmap/internal/vec"
	"github.com/annel0/voxelmap/internal/world/block"
)

// Store хранит загруженные чанки текущего измерения и оповещает подписчиков
// о загрузке и выгрузке.
type Store struct {
	mu        sync.RWMutex
	chunks    map[vec.Vec2]*Chunk
	dimension int
	generator *WorldGenerator

	listenersMu sync.RWMutex
	listeners   []Listener
}

// NewStore создаёт хранилище, генерирующее недостающие чанки генератором
func NewStore(generator *WorldGenerator, dimension int) *Store {
	return &Store{
		chunks:    make(map[vec.Vec2]*Chunk),
		dimension: dimension,
		generator: generator,
	}
}

// Subscribe добавляет подписчика на события мира
func (s *Store) Subscribe(l Listener) {
	s.listenersMu.Lock()
	s.listeners = append(s.listeners, l)
	s.listenersMu.Unlock()
}

func (s *Store) publish(events ...ChunkEvent) {
	s.listenersMu.RLock()
	listeners := append([]Listener(nil), s.listeners...)
	s.listenersMu.RUnlock()

	for _, e := range events {
		for _, l := range listeners {
			l(e)
		}
	}
}

// Dimension возвращает текущее измерение
func (s *Store) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

// Len возвращает количество загруженных чанков
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// ChunkAt возвращает загруженный чанк или false
func (s *Store) ChunkAt(cx, cz int) (LiveChunk, bool) {
	s.mu.RLock()
	c, ok := s.chunks[vec.Vec2{X: cx, Z: cz}]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return c, true
}

// Chunk возвращает загруженный чанк для изменения
func (s *Store) Chunk(coords vec.Vec2) (*Chunk, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chunks[coords]
	return c, ok
}

// BlockAt возвращает блок по мировым координатам. Незагруженные чанки дают воздух.
func (s *Store) BlockAt(x, y, z int) block.BlockID {
	c, ok := s.ChunkAt(x>>4, z>>4)
	if !ok {
		return block.AirBlockID
	}
	return c.BlockAt(x&0xF, y, z&0xF)
}

// LoadChunk загружает чанк, генерируя его при необходимости
func (s *Store) LoadChunk(coords vec.Vec2) *Chunk {
	s.mu.Lock()
	if c, ok := s.chunks[coords]; ok {
		s.mu.Unlock()
		return c
	}
	dim := s.dimension
	s.mu.Unlock()

	c := s.generator.GenerateChunk(coords, dim)

	s.mu.Lock()
	if existing, ok := s.chunks[coords]; ok {
		s.mu.Unlock()
		return existing
	}
	if dim != s.dimension {
		// измерение сменилось, пока генерировали
		s.mu.Unlock()
		return c
	}
	s.chunks[coords] = c
	s.mu.Unlock()

	s.publish(ChunkEvent{Type: EventTypeChunkLoaded, Chunk: c, Dimension: dim})
	return c
}

// Put добавляет готовый чанк текущего измерения, заменяя существующий
func (s *Store) Put(c *Chunk) {
	s.mu.Lock()
	c.Dimension = s.dimension
	old, replaced := s.chunks[c.Coords]
	s.chunks[c.Coords] = c
	s.mu.Unlock()

	if replaced {
		s.publish(ChunkEvent{Type: EventTypeChunkUnloaded, Chunk: old, Dimension: old.Dimension})
	}
	s.publish(ChunkEvent{Type: EventTypeChunkLoaded, Chunk: c, Dimension: c.Dimension})
}

// UnloadChunk выгружает чанк. Возвращает false, если чанк не был загружен.
func (s *Store) UnloadChunk(coords vec.Vec2) bool {
	s.mu.Lock()
	c, ok := s.chunks[coords]
	if ok {
		delete(s.chunks, coords)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	s.publish(ChunkEvent{Type: EventTypeChunkUnloaded, Chunk: c, Dimension: c.Dimension})
	return true
}

// LoadAround загружает квадрат чанков радиуса radius вокруг center
// и выгружает чанки дальше radius+1 (гистерезис против дребезга на границе).
func (s *Store) LoadAround(center vec.Vec2, radius int) {
	for cz := center.Z - radius; cz <= center.Z+radius; cz++ {
		for cx := center.X - radius; cx <= center.X+radius; cx++ {
			s.LoadChunk(vec.Vec2{X: cx, Z: cz})
		}
	}

	var far []vec.Vec2
	s.mu.RLock()
	for coords := range s.chunks {
		if abs(coords.X-center.X) > radius+1 || abs(coords.Z-center.Z) > radius+1 {
			far = append(far, coords)
		}
	}
	s.mu.RUnlock()

	for _, coords := range far {
		s.UnloadChunk(coords)
	}
}

// SetDimension выгружает все чанки и переключает измерение
func (s *Store) SetDimension(dimension int) {
	s.mu.Lock()
	if s.dimension == dimension {
		s.mu.Unlock()
		return
	}
	old := s.chunks
	s.chunks = make(map[vec.Vec2]*Chunk)
	s.dimension = dimension
	s.mu.Unlock()

	events := make([]ChunkEvent, 0, len(old)+1)
	for _, c := range old {
		events = append(events, ChunkEvent{Type: EventTypeChunkUnloaded, Chunk: c, Dimension: c.Dimension})
	}
	events = append(events, ChunkEvent{Type: EventTypeDimensionChanged, Dimension: dimension})
	s.publish(events...)

	logging.Info("Мир: измерение сменено на %d, выгружено чанков: %d", dimension, len(old))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
