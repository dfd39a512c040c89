package indicators

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrueRange(t *testing.T) {
	t.Parallel()

	// Plain spread, no gap against the prior close.
	require.Equal(t, 2.0, trueRange(102, 100, 101))

	// Gap up: distance from prior close to the high dominates.
	require.Equal(t, 5.0, trueRange(105, 103, 100))

	// Gap down: distance from prior close to the low dominates.
	require.Equal(t, 5.0, trueRange(97, 95, 100))
}

func TestDirectionalMovesExclusive(t *testing.T) {
	t.Parallel()

	// Higher high, higher low: only the upward push counts.
	plus, minus := directionalMoves(103, 100, 99, 98)
	require.Equal(t, 3.0, plus)
	require.Equal(t, 0.0, minus)

	// Lower low, lower high: only the downward push counts.
	plus, minus = directionalMoves(99, 100, 94, 98)
	require.Equal(t, 0.0, plus)
	require.Equal(t, 4.0, minus)

	// Outside bar with equal pushes: a tie yields both zero.
	plus, minus = directionalMoves(102, 100, 96, 98)
	require.Equal(t, 0.0, plus)
	require.Equal(t, 0.0, minus)

	// Inside bar: both moves negative, both zero.
	plus, minus = directionalMoves(99.5, 100, 98.5, 98)
	require.Equal(t, 0.0, plus)
	require.Equal(t, 0.0, minus)
}

func TestMax3(t *testing.T) {
	t.Parallel()

	require.Equal(t, 3.0, max3(1, 2, 3))
	require.Equal(t, 3.0, max3(3, 2, 1))
	require.Equal(t, 3.0, max3(2, 3, 1))
	require.Equal(t, 2.0, max3(2, 2, 1))
}
