package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoise_DeterministicAndBounded(t *testing.T) {
	a := NewNoise(42)
	b := NewNoise(42)

	for i := 0; i < 50; i++ {
		x := float64(i) * 0.37
		z := float64(i) * 0.11

		v := a.Noise2D(x, z)
		assert.Equal(t, v, b.Noise2D(x, z), "Одинаковый сид должен давать одинаковый шум")
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)

		w := a.Noise3D(x, float64(i)*0.2, z)
		assert.GreaterOrEqual(t, w, 0.0)
		assert.LessOrEqual(t, w, 1.0)
	}
}
