package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecimalHelpersIgnoreBinaryNoise(t *testing.T) {
	a := 0.1 + 0.2 // classic float noise, != 0.3 under raw ==
	b := 0.3

	assert.True(t, decEq(a, b))
	assert.True(t, decLe(a, b))
	assert.True(t, decGe(a, b))
}

func TestDecimalHelpersOrdering(t *testing.T) {
	assert.True(t, decLe(1.0, 2.0))
	assert.False(t, decLe(2.0, 1.0))
	assert.True(t, decGe(2.0, 1.0))
	assert.False(t, decGe(1.0, 2.0))
	assert.False(t, decEq(1.0, 2.0))
}

func TestPriceToInt(t *testing.T) {
	assert.Equal(t, int64(0), priceToInt(0))
	assert.Equal(t, int64(1010000), priceToInt(101))
	assert.Equal(t, int64(-1010000), priceToInt(-101))
}
