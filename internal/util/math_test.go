package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinMax(t *testing.T) {
	assert.Equal(t, 2, Min(2, 7))
	assert.Equal(t, 7, Max(2, 7))
	assert.Equal(t, 1.5, Min(1.5, 2.5))
	assert.Equal(t, 2.5, Max(1.5, 2.5))
}

func TestCoerce(t *testing.T) {
	assert.Equal(t, 5.0, Coerce(10.0, 0, 5))
	assert.Equal(t, 0.0, Coerce(-10.0, 0, 5))
	assert.Equal(t, 3.0, Coerce(3.0, 0, 5))
}

func TestCoerceInt(t *testing.T) {
	assert.Equal(t, 255, CoerceInt(300, 0, 255))
	assert.Equal(t, 0, CoerceInt(-1, 0, 255))
	assert.Equal(t, 128, CoerceInt(128, 0, 255))
}

func TestRatio(t *testing.T) {
	assert.InDelta(t, 0.5, Ratio(50, 0, 100), 0.0001)
	assert.InDelta(t, 0.0, Ratio(0, 0, 100), 0.0001)
	assert.InDelta(t, 1.0, Ratio(100, 0, 100), 0.0001)
}
