package strategies

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/hypertune/internal/optimization"
	"github.com/copyleftdev/hypertune/internal/optimization/bayesian"
	"github.com/copyleftdev/hypertune/internal/optimization/space"
)

func testSpace(t *testing.T) *space.Space {
	t.Helper()
	s, err := space.Parse(map[string]any{
		"x":  map[string]any{"type": "scalar", "parameters": map[string]any{"lower": 0, "upper": 1}},
		"lr": map[string]any{"type": "log", "parameters": map[string]any{"lower": 1e-3, "upper": 1}},
		"c":  map[string]any{"type": "choice", "parameters": map[string]any{"choices": []any{"a", "b", "c"}}},
	})
	require.NoError(t, err)
	return s
}

func TestRegistryNames(t *testing.T) {
	reg := Registry()
	for _, name := range []string{RandomSearchName, OnePlusOneName, bayesian.Name} {
		assert.Contains(t, reg, name)
	}
}

func TestStrategiesAskWithinBounds(t *testing.T) {
	s := testSpace(t)

	for name, ctor := range Registry() {
		t.Run(name, func(t *testing.T) {
			archive := optimization.NewArchive()
			opt, err := ctor(s, archive, optimization.Options{Seed: 3, InitialPoints: 2})
			require.NoError(t, err)

			for i := 0; i < 20; i++ {
				c := opt.Ask()
				require.Len(t, c.Encoded, s.Dimension())
				for _, v := range c.Encoded {
					require.False(t, math.IsNaN(v))
					require.GreaterOrEqual(t, v, optimization.LowerBound)
					require.LessOrEqual(t, v, optimization.UpperBound)
				}
				require.Len(t, c.Decoded, 3)

				value := float64(i % 4)
				archive.Observe(c.Encoded, value)
				opt.Tell(c.Encoded, value)
			}
			assert.NotNil(t, opt.Recommend())
		})
	}
}

func TestOnePlusOneStepAdaptation(t *testing.T) {
	s := testSpace(t)
	ctor := Registry()[OnePlusOneName]
	opt, err := ctor(s, nil, optimization.Options{Seed: 1})
	require.NoError(t, err)
	o := opt.(*OnePlusOne)

	first := o.Ask()
	assert.Equal(t, []float64{0, 0, 0}, first.Encoded, "first ask is the centre")

	o.Tell(first.Encoded, 10)
	assert.Equal(t, initialSigma, o.Sigma(), "adopting the first parent keeps the step")

	o.Tell([]float64{1, 1, 1}, 5)
	assert.Equal(t, 2*initialSigma, o.Sigma(), "success doubles the step")

	o.Tell([]float64{2, 2, 2}, 50)
	assert.InDelta(t, 2*initialSigma*math.Pow(2, -0.25), o.Sigma(), 1e-12, "failure shrinks the step")
	assert.Equal(t, []float64{1, 1, 1}, o.parent)
}

func TestRandomSearchSeeded(t *testing.T) {
	s := testSpace(t)
	a, _ := NewRandomSearch(s, nil, optimization.Options{Seed: 9})
	b, _ := NewRandomSearch(s, nil, optimization.Options{Seed: 9})
	for i := 0; i < 5; i++ {
		assert.Equal(t, a.Ask().Encoded, b.Ask().Encoded)
	}
}
