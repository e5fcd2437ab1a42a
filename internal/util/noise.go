package util

import (
	"github.com/aquilax/go-perlin"
)

// Noise оборачивает генератор шума Перлина с фиксированным сидом.
// В отличие от глобального генератора, несколько миров с разными сидами не мешают друг другу.
type Noise struct {
	p *perlin.Perlin
}

// NewNoise инициализирует генератор шума Перлина с указанным сидом
func NewNoise(seed int64) *Noise {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав
	return &Noise{p: perlin.NewPerlin(alpha, beta, n, seed)}
}

// Noise2D возвращает значение шума для указанных координат (от 0 до 1)
func (n *Noise) Noise2D(x, z float64) float64 {
	return normalize(n.p.Noise2D(x, z))
}

// Noise3D возвращает объёмный шум (от 0 до 1), используется для пещер
func (n *Noise) Noise3D(x, y, z float64) float64 {
	return normalize(n.p.Noise3D(x, y, z))
}

// normalize переводит значение из [-1, 1] в [0, 1] с отсечением выбросов
func normalize(v float64) float64 {
	v = (v + 1.0) / 2.0
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
