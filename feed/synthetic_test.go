package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticDeterministic(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	a := drain(t, NewSynthetic(7, 50, start, time.Minute))
	b := drain(t, NewSynthetic(7, 50, start, time.Minute))
	require.Len(t, a, 50)
	assert.Equal(t, a, b)

	c := drain(t, NewSynthetic(8, 50, start, time.Minute))
	assert.NotEqual(t, a, c)
}

func TestSyntheticBarsAreValid(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := drain(t, NewSynthetic(3, 100, start, 5*time.Minute))
	require.Len(t, bars, 100)
	for i, c := range bars {
		require.NoError(t, c.Validate())
		assert.Equal(t, start.Add(time.Duration(i)*5*time.Minute), c.Time)
	}
	// The walk chains closes into opens.
	assert.Equal(t, bars[0].Close, bars[1].Open)
}
