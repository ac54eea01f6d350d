package grid

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func take(g *Generator, n int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = g.Next()
	}
	return out
}

func TestGeneratorOneDimensionPrefix(t *testing.T) {
	g := NewGenerator(1)

	want := []float64{0, 1, 0.5, 0.25, 0.75, 0.125, 0.375, 0.625, 0.875}
	for i, w := range want {
		p := g.Next()
		require.Len(t, p, 1)
		assert.Equal(t, w, p[0], "point %d", i)
	}
	assert.Equal(t, 3, g.Power())
}

func TestGeneratorCornersLexicographic(t *testing.T) {
	g := NewGenerator(2)

	corners := take(g, 4)
	assert.Equal(t, [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}, corners)
	assert.Equal(t, 0, g.Power())
}

func TestGeneratorTwoDimensionFirstRefinement(t *testing.T) {
	g := NewGenerator(2)
	take(g, 4)

	// k=2: all tuples of {0,1,2}^2 except those with only even indices.
	want := [][]float64{
		{0, 0.5},
		{0.5, 0}, {0.5, 0.5}, {0.5, 1},
		{1, 0.5},
	}
	assert.Equal(t, want, take(g, len(want)))
	assert.Equal(t, 1, g.Power())

	next := g.Next()
	assert.Equal(t, []float64{0, 0.25}, next)
	assert.Equal(t, 2, g.Power())
}

func TestGeneratorNeverRepeats(t *testing.T) {
	tests := []struct {
		dim   int
		count int
	}{
		// 2 corners then 1+2+4+...+512 refinement points
		{dim: 1, count: 2 + 1023},
		// (k+1)^2 points at each power, all new
		{dim: 2, count: 33 * 33},
		{dim: 3, count: 9 * 9 * 9},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("dim=%d", tt.dim), func(t *testing.T) {
			g := NewGenerator(tt.dim)
			seen := make(map[string]bool, tt.count)
			for i := 0; i < tt.count; i++ {
				p := g.Next()
				require.Len(t, p, tt.dim)
				for _, v := range p {
					require.GreaterOrEqual(t, v, 0.0)
					require.LessOrEqual(t, v, 1.0)
				}
				key := fmt.Sprint(p)
				require.False(t, seen[key], "point %v repeated at output %d", p, i)
				seen[key] = true
			}
		})
	}
}

func TestGeneratorCoversGridPerPower(t *testing.T) {
	// After the corners and powers 1..3 the full 9x9 grid is produced exactly once.
	g := NewGenerator(2)
	got := take(g, 81)

	seen := make(map[[2]float64]bool)
	for _, p := range got {
		seen[[2]float64{p[0], p[1]}] = true
	}
	for i := 0; i <= 8; i++ {
		for j := 0; j <= 8; j++ {
			assert.True(t, seen[[2]float64{float64(i) / 8, float64(j) / 8}], "missing (%d/8, %d/8)", i, j)
		}
	}
	assert.Equal(t, 3, g.Power())
}

func TestGeneratorZeroDimension(t *testing.T) {
	g := NewGenerator(0)
	for i := 0; i < 3; i++ {
		assert.Empty(t, g.Next())
	}
}
