package render

import (
	"math"

	"github.com/annel0/voxelmap/internal/palette"
	"github.com/annel0/voxelmap/internal/world"
	"github.com/annel0/voxelmap/internal/world/block"
)

// Параметры кривой затенения перепадом высот
const (
	brightenExponent  = 0.35
	darkenExponent    = 0.35
	brightenAmplitude = 0.7
	darkenAmplitude   = 1.4
	realisticFactor   = 0.3
)

// Подобранные вручную оттенки подземного вида
const (
	undergroundGreenBase    = 180 // стартовый зелёный: чем больше пустоты вокруг, тем он ниже
	undergroundScanBelow    = 15  // блоков ниже наблюдателя
	undergroundScanAbove    = 16  // блоков выше наблюдателя, начиная с y+2
	undergroundDistCap      = 10
	undergroundGreenStep    = 11 // базовое уменьшение зелёного за открытый блок
	undergroundSkyGreenStep = 14 // уменьшение за блок выше мира
	undergroundSkyBlueStep  = 17
	undergroundLevelPenalty = 17 // открытый блок на уровне наблюдателя и над ним
	undergroundChannelLimit = 200
	undergroundChannelCap   = 170
	undergroundMaxY         = 255

	// openness прозрачного блока и "почти закрытого", но освещённого
	opennessClear   = 1.0
	opennessMinimal = 0.1
)

// ColourSource источник цветов блоков и окраски биомов
type ColourSource interface {
	Colour(id block.BlockID) uint32
	BiomeColour(id block.BlockID, biome world.BiomeType) uint32
}

// Compositor превращает вертикальную колонну блоков в один пиксель.
// Не хранит состояния между вызовами.
type Compositor struct {
	colours   ColourSource
	realistic bool
}

// NewCompositor создаёт компоновщик колонн
func NewCompositor(colours ColourSource, realistic bool) *Compositor {
	return &Compositor{colours: colours, realistic: realistic}
}

// HeightShading возвращает множитель затенения по перепаду высот с западным
// и северным соседями. Высоты <= 0 и >= 255 означают отсутствие данных.
func HeightShading(height, heightW, heightN int, realistic bool) float64 {
	samples := 0
	heightDiff := 0

	if heightW > 0 && heightW < 255 {
		heightDiff += height - heightW
		samples++
	}
	if heightN > 0 && heightN < 255 {
		heightDiff += height - heightN
		samples++
	}

	factor := 0.0
	if samples > 0 {
		factor = float64(heightDiff) / float64(samples)
	}

	if realistic {
		return math.Atan(factor) * realisticFactor
	}
	if factor >= 0 {
		return math.Pow(factor/255.0, brightenExponent) * brightenAmplitude
	}
	return -math.Pow(-factor/255.0, darkenExponent) * darkenAmplitude
}

// alphaOf возвращает альфу цвета блока. Цвет-заглушка считается прозрачным.
func alphaOf(colour uint32) int {
	if colour == palette.MissingColour {
		return 0
	}
	return int(colour >> 24)
}

// SurfaceStartY возвращает высоту, с которой начинается проход по колонне.
// В измерении с потолком ищется первый не полностью непрозрачный блок под ним,
// иначе берётся верх самой высокой заполненной секции.
func (c *Compositor) SurfaceStartY(chunk world.ChunkView, x, z int, hasCeiling bool) int {
	if !hasCeiling {
		return chunk.MaxY()
	}

	y := world.CeilingHeight
	for ; y >= 0; y-- {
		if alphaOf(c.colours.Colour(chunk.BlockAt(x, y, z))) != 0xff {
			break
		}
	}
	return y
}

// ShadeSurfaceColumn смешивает колонну сверху вниз до первого непрозрачного блока
// и упаковывает высоту остановки в старший байт результата.
func (c *Compositor) ShadeSurfaceColumn(chunk world.ChunkView, x, z, heightW, heightN int, hasCeiling bool) uint32 {
	return c.shadeSurfaceFrom(chunk, x, c.SurfaceStartY(chunk, x, z, hasCeiling), z, heightW, heightN)
}

func (c *Compositor) shadeSurfaceFrom(chunk world.ChunkView, x, y, z, heightW, heightN int) uint32 {
	a := 1.0
	r, g, b := 0.0, 0.0, 0.0

	for ; y > 0; y-- {
		id := chunk.BlockAt(x, y, z)
		c1 := c.colours.Colour(id)
		alpha := alphaOf(c1)

		if alpha > 0 {
			c2 := c.colours.BiomeColour(id, chunk.BiomeAt(x, y, z))

			c1A := float64(alpha) / 255.0
			c1R := float64((c1>>16)&0xff) / 255.0
			c1G := float64((c1>>8)&0xff) / 255.0
			c1B := float64(c1&0xff) / 255.0

			// альфа окраски биома всегда 1
			c2R := float64((c2>>16)&0xff) / 255.0
			c2G := float64((c2>>8)&0xff) / 255.0
			c2B := float64(c2&0xff) / 255.0

			r += a * c1A * c1R * c2R
			g += a * c1A * c1G * c2G
			b += a * c1A * c1B * c2B
			a *= 1.0 - c1A
		}
		if alpha == 0xff {
			break
		}
	}

	heightShading := HeightShading(y, heightW, heightN, c.realistic)
	lightShading := float64(chunk.LightLevel(x, y+1, z)) / float64(world.MaxLight)
	shading := (heightShading + 1.0) * lightShading

	return uint32(y&0xff)<<24 |
		channel(r*shading)<<16 |
		channel(g*shading)<<8 |
		channel(b*shading)
}

// channel ограничивает компоненту [0,1] и переводит её в 8 бит
func channel(v float64) uint32 {
	v = math.Min(math.Max(0.0, v), 1.0)
	return uint32(int(v*255.0) & 0xff)
}

// openness возвращает вес открытости блока: 1 для прозрачного, 0.1 для прочих
// освещённых, 0 для неосвещённых.
func (c *Compositor) openness(chunk world.ChunkView, x, y, z int) float64 {
	if chunk.LightLevel(x, y, z) <= 0 {
		return 0
	}
	if alphaOf(c.colours.Colour(chunk.BlockAt(x, y, z))) == 0 {
		return opennessClear
	}
	return opennessMinimal
}

// ShadeUndergroundColumn окрашивает колонну по пустотам вокруг высоты наблюдателя:
// пустоты ниже дают красный, выше синий, любая пустота уменьшает зелёный.
// Результат без альфы и высоты.
func (c *Compositor) ShadeUndergroundColumn(chunk world.ChunkView, x, z, observerY int) uint32 {
	startY := observerY
	if startY < 0 {
		startY = 0
	} else if startY > undergroundMaxY {
		startY = undergroundMaxY
	}

	red, green, blue := 0, undergroundGreenBase, 0

	dist := 0
	for y := startY - 1; y >= startY-undergroundScanBelow; y-- {
		if y >= 0 {
			if a := c.openness(chunk, x, y, z); a > 0 {
				green -= undergroundGreenStep - dist
				red += int(float64(undergroundScanBelow-dist) * a)
			}
		}
		if dist < undergroundDistCap {
			dist++
		}
	}

	dist = 0
	for y := startY + 2; y <= startY+undergroundScanAbove; y++ {
		if y <= undergroundMaxY {
			if a := c.openness(chunk, x, y, z); a > 0 {
				green -= undergroundGreenStep - dist
				blue += int(float64(undergroundScanAbove-dist) * a)
			}
		} else {
			// выше мира всегда открытое небо
			green -= undergroundSkyGreenStep - dist
			blue += undergroundSkyBlueStep - dist
		}
		if dist < undergroundDistCap {
			dist++
		}
	}

	if c.openness(chunk, x, startY, z) > 0 {
		green -= undergroundLevelPenalty
	}
	if c.openness(chunk, x, startY+1, z) > 0 {
		green -= undergroundLevelPenalty
	}

	if red > undergroundChannelLimit {
		red = undergroundChannelCap
	}
	if blue > undergroundChannelLimit {
		blue = undergroundChannelCap
	}
	if green < 0 {
		green = 0
	}

	return uint32(red)<<16 | uint32(green)<<8 | uint32(blue)
}
