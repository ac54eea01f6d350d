package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/hypertune/internal/optimization"
	"github.com/copyleftdev/hypertune/internal/optimization/space"
)

func scalarSpace(t *testing.T, names ...string) *space.Space {
	t.Helper()
	raw := make(map[string]any, len(names))
	for _, n := range names {
		raw[n] = map[string]any{"type": "scalar", "parameters": map[string]any{"lower": 0, "upper": 1}}
	}
	s, err := space.Parse(raw)
	require.NoError(t, err)
	return s
}

func TestOptimizerAskFirstCorners(t *testing.T) {
	s := scalarSpace(t, "x")
	opt, err := New(s, optimization.NewArchive(), optimization.Options{})
	require.NoError(t, err)

	first := opt.Ask()
	assert.Equal(t, []float64{-3}, first.Encoded)
	assert.InDelta(t, 0.0, first.Decoded["x"].(float64), 1e-12)

	second := opt.Ask()
	assert.Equal(t, []float64{3}, second.Encoded)
	assert.InDelta(t, 1.0, second.Decoded["x"].(float64), 1e-12)

	third := opt.Ask()
	assert.Equal(t, []float64{0}, third.Encoded)
	assert.InDelta(t, 0.5, third.Decoded["x"].(float64), 1e-12)
}

func TestOptimizerAskWithinBounds(t *testing.T) {
	for dim := 1; dim <= 4; dim++ {
		names := []string{"a", "b", "c", "d"}[:dim]
		opt := NewOptimizer(scalarSpace(t, names...), nil)

		for i := 0; i < 500; i++ {
			c := opt.Ask()
			require.Len(t, c.Encoded, dim)
			for _, v := range c.Encoded {
				require.GreaterOrEqual(t, v, optimization.LowerBound)
				require.LessOrEqual(t, v, optimization.UpperBound)
			}
			require.Len(t, c.Decoded, dim)
		}
	}
}

func TestOptimizerTellDoesNotChangeTrajectory(t *testing.T) {
	s := scalarSpace(t, "x", "y")
	plain := NewOptimizer(s, nil)
	told := NewOptimizer(s, nil)

	for i := 0; i < 50; i++ {
		a := plain.Ask()
		b := told.Ask()
		require.Equal(t, a.Encoded, b.Encoded)
		told.Tell(b.Encoded, float64(i))
		told.Tell([]float64{0.1, -0.2}, 7) // never asked
	}
}

func TestOptimizerRecommend(t *testing.T) {
	s := scalarSpace(t, "x")
	archive := optimization.NewArchive()
	opt := NewOptimizer(s, archive)

	// empty archive: centre of the box
	assert.InDelta(t, 0.5, opt.Recommend()["x"].(float64), 1e-12)

	archive.Observe([]float64{-3}, 4)
	archive.Observe([]float64{3}, 1)
	archive.Observe([]float64{0}, 2)
	assert.InDelta(t, 1.0, opt.Recommend()["x"].(float64), 1e-12)

	archive.Observe([]float64{3}, 10) // mean at x=1 becomes 5.5
	assert.InDelta(t, 0.5, opt.Recommend()["x"].(float64), 1e-12)
}
