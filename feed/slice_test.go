package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSliceFeed(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := drain(t, NewSynthetic(1, 5, start, time.Minute))

	replayed := drain(t, NewSlice(bars))
	assert.Equal(t, bars, replayed)

	empty := drain(t, NewSlice(nil))
	assert.Empty(t, empty)
}
