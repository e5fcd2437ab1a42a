package block

import "sync"

// BlockID представляет идентификатор блока
type BlockID uint16

// Константы ID блоков
const (
	// Базовые типы блоков
	AirBlockID     BlockID = iota // 0
	StoneBlockID                  // 1
	GrassBlockID                  // 2
	WaterBlockID                  // 3
	SandBlockID                   // 4
	DirtBlockID                   // 5
	BedrockBlockID                // 6
	GravelBlockID                 // 7

	// Растительность (начиная с 100)
	LeavesBlockID    BlockID = 100
	LogBlockID       BlockID = 101
	TallGrassBlockID BlockID = 102
	FlowerBlockID    BlockID = 103

	// Прозрачные и жидкие (начиная с 200)
	GlassBlockID BlockID = 200
	LavaBlockID  BlockID = 201
	IceBlockID   BlockID = 202

	// Блоки измерения с потолком (начиная с 300)
	NetherrackBlockID BlockID = 300
	GlowstoneBlockID  BlockID = 301
)

// Definition описывает свойства блока, важные для карты
type Definition struct {
	Name string
	// Opaque означает полный непрозрачный куб. Такие блоки останавливают заливку пещер.
	Opaque bool
}

var (
	registryMu sync.RWMutex
	registry   = make(map[BlockID]Definition)
)

// Register добавляет описание блока в регистр
func Register(id BlockID, def Definition) {
	registryMu.Lock()
	registry[id] = def
	registryMu.Unlock()
}

// Get возвращает описание для указанного ID
func Get(id BlockID) (Definition, bool) {
	registryMu.RLock()
	def, exists := registry[id]
	registryMu.RUnlock()
	return def, exists
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func IsValidBlockID(id BlockID) bool {
	_, exists := Get(id)
	return exists
}

// IsOpaque сообщает, является ли блок непрозрачным кубом.
// Незарегистрированные ID считаются непрозрачными.
func IsOpaque(id BlockID) bool {
	if id == AirBlockID {
		return false
	}
	def, exists := Get(id)
	if !exists {
		return true
	}
	return def.Opaque
}

// Name возвращает имя блока или "unknown"
func Name(id BlockID) string {
	if def, ok := Get(id); ok {
		return def.Name
	}
	return "unknown"
}

// Регистрируем стандартные блоки при импорте пакета
func init() {
	Register(AirBlockID, Definition{Name: "air"})
	Register(StoneBlockID, Definition{Name: "stone", Opaque: true})
	Register(GrassBlockID, Definition{Name: "grass", Opaque: true})
	Register(WaterBlockID, Definition{Name: "water"})
	Register(SandBlockID, Definition{Name: "sand", Opaque: true})
	Register(DirtBlockID, Definition{Name: "dirt", Opaque: true})
	Register(BedrockBlockID, Definition{Name: "bedrock", Opaque: true})
	Register(GravelBlockID, Definition{Name: "gravel", Opaque: true})

	Register(LeavesBlockID, Definition{Name: "leaves"})
	Register(LogBlockID, Definition{Name: "log", Opaque: true})
	Register(TallGrassBlockID, Definition{Name: "tall_grass"})
	Register(FlowerBlockID, Definition{Name: "flower"})

	Register(GlassBlockID, Definition{Name: "glass"})
	Register(LavaBlockID, Definition{Name: "lava"})
	Register(IceBlockID, Definition{Name: "ice"})

	Register(NetherrackBlockID, Definition{Name: "netherrack", Opaque: true})
	Register(GlowstoneBlockID, Definition{Name: "glowstone", Opaque: true})
}
