package wtdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceBasics(t *testing.T) {
	block := NewBlock([]int{10, 20, 30, 40, 50})
	s := NewSlice(block)

	require.Equal(t, 5, s.Len())
	assert.False(t, s.Empty())
	assert.Equal(t, 10, s.At(0))
	assert.Equal(t, 50, s.At(-1))
	assert.Equal(t, 40, s.At(-2))
}

func TestSliceRangeNegativeBounds(t *testing.T) {
	block := NewBlock([]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	s := NewSlice(block)

	sub := s.Range(2, -2)
	require.Equal(t, 6, sub.Len())
	assert.Equal(t, 2, sub.At(0))
	assert.Equal(t, 7, sub.At(-1))
}

func TestSliceRangeClampsToParentBounds(t *testing.T) {
	block := NewBlock([]int{0, 1, 2})
	parent := NewSliceRange(block, 1, 3)

	sub := parent.Range(-5, 10)
	require.Equal(t, 2, sub.Len())
	assert.Equal(t, 1, sub.At(0))
	assert.Equal(t, 2, sub.At(1))
}

func TestSliceExtractCopiesNotAliases(t *testing.T) {
	block := NewBlock([]int{1, 2, 3})
	s := NewSlice(block)

	out := s.Extract()
	out[0] = 99
	assert.Equal(t, 1, s.At(0), "Extract must copy, not alias the backing block")
}

func TestSliceEachStopsEarly(t *testing.T) {
	block := NewBlock([]int{1, 2, 3, 4, 5})
	s := NewSlice(block)

	var seen []int
	s.Each(func(i int, v int) bool {
		seen = append(seen, v)
		return v < 3
	})
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestMinByMaxBy(t *testing.T) {
	block := NewBlock([]float64{5, 1, 9, 3})
	s := NewSlice(block)

	minIdx, ok := MinBy(s, func(v float64) float64 { return v })
	require.True(t, ok)
	assert.Equal(t, 1, minIdx)

	maxIdx, ok := MaxBy(s, func(v float64) float64 { return v })
	require.True(t, ok)
	assert.Equal(t, 2, maxIdx)

	empty := NewSlice(NewBlock([]float64{}))
	_, ok = MinBy(empty, func(v float64) float64 { return v })
	assert.False(t, ok)
}

func TestBlockRefCounting(t *testing.T) {
	block := NewBlock([]int{1, 2, 3})
	assert.EqualValues(t, 0, block.RefCount())

	s := NewSlice(block).Acquire()
	assert.EqualValues(t, 1, block.RefCount())

	s.Release()
	assert.EqualValues(t, 0, block.RefCount())
}

func TestMultiSliceComposesParts(t *testing.T) {
	a := NewSlice(NewBlock([]int{1, 2, 3}))
	b := NewSlice(NewBlock([]int{4, 5}))
	m := NewMultiSlice(a, b)

	require.Equal(t, 5, m.Len())
	assert.Equal(t, 1, m.At(0))
	assert.Equal(t, 4, m.At(3))
	assert.Equal(t, 5, m.At(-1))

	var out []int
	m.Each(func(_ int, v int) bool {
		out = append(out, v)
		return true
	})
	assert.Equal(t, []int{1, 2, 3, 4, 5}, out)
}

func TestMultiSliceAtPanicsOutOfRange(t *testing.T) {
	m := NewMultiSlice(NewSlice(NewBlock([]int{1, 2})))
	assert.Panics(t, func() { m.At(5) })
}
