package tracker

import (
	"container/list"
	"sync"

	"github.com/annel0/voxelmap/internal/vec"
	"github.com/annel0/voxelmap/internal/world"
)

// Flags битовая маска состояния отслеживаемого чанка
type Flags uint8

const (
	// FlagVisible чанк сейчас в пределах дистанции сохранения
	FlagVisible Flags = 1 << iota
	// FlagViewed чанк хотя бы раз был видим с момента регистрации
	FlagViewed
)

// Key идентифицирует чанк в пределах измерения
type Key struct {
	Coords    vec.Vec2
	Dimension int
}

// KeyOf возвращает ключ живого чанка
func KeyOf(c world.ChunkView) Key {
	return Key{Coords: c.ChunkCoords(), Dimension: c.Dim()}
}

// Entry копия записи множества на момент чтения
type Entry struct {
	Key   Key
	Chunk world.LiveChunk
	Flags Flags
}

type entry struct {
	key   Key
	chunk world.LiveChunk
	flags Flags
}

// VisibilitySet упорядоченное множество чанков с флагами и курсором циклического обхода.
// Все операции выполняются под одним мьютексом.
type VisibilitySet struct {
	mu     sync.Mutex
	order  *list.List
	index  map[Key]*list.Element
	cursor *list.Element // следующий элемент обхода, nil означает начало нового цикла
}

// NewVisibilitySet создаёт пустое множество
func NewVisibilitySet() *VisibilitySet {
	return &VisibilitySet{
		order: list.New(),
		index: make(map[Key]*list.Element),
	}
}

// Put добавляет чанк с нулевыми флагами. Повторная вставка только обновляет ссылку на чанк.
// Новый элемент встаёт перед курсором, поэтому попадёт в обход только в следующем цикле.
func (s *VisibilitySet) Put(c world.LiveChunk) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := KeyOf(c)
	if el, ok := s.index[key]; ok {
		el.Value.(*entry).chunk = c
		return false
	}

	e := &entry{key: key, chunk: c}
	if s.cursor != nil {
		s.index[key] = s.order.InsertBefore(e, s.cursor)
	} else {
		s.index[key] = s.order.PushBack(e)
	}
	return true
}

// Remove удаляет чанк. viewed сообщает, что перед удалением чанк нужно сохранить,
// found что чанк вообще отслеживался.
func (s *VisibilitySet) Remove(key Key) (viewed bool, found bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.index[key]
	if !ok {
		return false, false
	}
	if el == s.cursor {
		s.cursor = el.Next()
	}
	s.order.Remove(el)
	delete(s.index, key)
	return el.Value.(*entry).flags&FlagViewed != 0, true
}

// Flags возвращает флаги чанка
func (s *VisibilitySet) Flags(key Key) (Flags, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.index[key]
	if !ok {
		return 0, false
	}
	return el.Value.(*entry).flags, true
}

// SetFlags заменяет флаги чанка. FlagViewed, однажды установленный, сохраняется.
// Возвращает итоговые флаги и false для неизвестного чанка.
func (s *VisibilitySet) SetFlags(key Key, flags Flags) (Flags, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.index[key]
	if !ok {
		return 0, false
	}
	e := el.Value.(*entry)
	e.flags = flags | e.flags&FlagViewed
	return e.flags, true
}

// NextBatch возвращает до n записей, продолжая обход с места прошлого вызова.
// За один вызов запись не возвращается дважды.
func (s *VisibilitySet) NextBatch(n int) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n > s.order.Len() {
		n = s.order.Len()
	}
	if n <= 0 {
		return nil
	}

	out := make([]Entry, 0, n)
	for len(out) < n {
		if s.cursor == nil {
			s.cursor = s.order.Front()
		}
		e := s.cursor.Value.(*entry)
		out = append(out, Entry{Key: e.key, Chunk: e.chunk, Flags: e.flags})
		s.cursor = s.cursor.Next()
	}
	return out
}

// Each вызывает fn для каждой записи под блокировкой множества
func (s *VisibilitySet) Each(fn func(Entry)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for el := s.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry)
		fn(Entry{Key: e.key, Chunk: e.chunk, Flags: e.flags})
	}
}

// Clear удаляет все записи и сбрасывает курсор
func (s *VisibilitySet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order.Init()
	s.index = make(map[Key]*list.Element)
	s.cursor = nil
}

// Len возвращает количество записей
func (s *VisibilitySet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}
