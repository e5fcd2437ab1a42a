package world

// EventType определяет тип события мира
type EventType uint8

const (
	EventTypeChunkLoaded      EventType = iota // Чанк загружен
	EventTypeChunkUnloaded                     // Чанк выгружен
	EventTypeDimensionChanged                  // Наблюдатель сменил измерение
)

// String возвращает имя типа события для логов
func (t EventType) String() string {
	switch t {
	case EventTypeChunkLoaded:
		return "chunk_loaded"
	case EventTypeChunkUnloaded:
		return "chunk_unloaded"
	case EventTypeDimensionChanged:
		return "dimension_changed"
	default:
		return "unknown"
	}
}

// ChunkEvent событие загрузки или выгрузки чанка
type ChunkEvent struct {
	Type      EventType
	Chunk     LiveChunk // nil для EventTypeDimensionChanged
	Dimension int
}

// Listener получает события мира. Вызывается вне блокировок хранилища.
type Listener func(ChunkEvent)
