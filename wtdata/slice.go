package wtdata

import "sync/atomic"

// Block is the owning backing array for one contiguous run of records of
// type T. Caches exclusively own Blocks; Slice and MultiSlice only borrow
// them. refs is a reference count: a Slice taken over a Block must Acquire
// it and Release it when done, so the owning cache never frees memory a
// live slice still points into (see design note "Slice non-ownership").
type Block[T any] struct {
	Data []T
	refs int32
}

// NewBlock wraps data as a freshly-owned Block with zero outstanding
// references.
func NewBlock[T any](data []T) *Block[T] {
	return &Block[T]{Data: data}
}

// Acquire increments the reference count and returns the block for
// chaining.
func (b *Block[T]) Acquire() *Block[T] {
	atomic.AddInt32(&b.refs, 1)
	return b
}

// Release decrements the reference count. It never frees Data itself —
// ownership of the backing array stays with the cache; refs exists so a
// cache can know whether it is safe to reuse or shrink a buffer that a
// Slice might still be reading concurrently (§5: replay cache is safe for
// concurrent readers while no writer runs).
func (b *Block[T]) Release() {
	atomic.AddInt32(&b.refs, -1)
}

// RefCount reports the current number of live acquisitions.
func (b *Block[T]) RefCount() int32 {
	return atomic.LoadInt32(&b.refs)
}

// Slice is a read-only, non-owning view over a [head, tail) range of one
// Block. Negative indices count from the end, as in Python: -1 is the last
// element.
type Slice[T any] struct {
	block *Block[T]
	head  int
	tail  int
}

// NewSlice builds a Slice over the whole of block.
func NewSlice[T any](block *Block[T]) Slice[T] {
	return Slice[T]{block: block, head: 0, tail: len(block.Data)}
}

// NewSliceRange builds a Slice over [head, tail) of block.
func NewSliceRange[T any](block *Block[T], head, tail int) Slice[T] {
	if head < 0 {
		head = 0
	}
	if tail > len(block.Data) {
		tail = len(block.Data)
	}
	if tail < head {
		tail = head
	}
	return Slice[T]{block: block, head: head, tail: tail}
}

// Len reports the number of records visible through this slice.
func (s Slice[T]) Len() int {
	return s.tail - s.head
}

// Empty reports whether the slice has no records.
func (s Slice[T]) Empty() bool {
	return s.Len() == 0
}

// At returns the i-th record, with negative i counting from the end
// (-1 = last). Panics on out-of-range i, matching Go slice semantics.
func (s Slice[T]) At(i int) T {
	idx := s.resolve(i)
	return s.block.Data[idx]
}

// Ptr returns a pointer to the i-th record so callers can mutate
// in-place views (e.g. replay cursors) without a copy. The pointee is
// still borrowed — never retain it past the owning block's lifetime.
func (s Slice[T]) Ptr(i int) *T {
	idx := s.resolve(i)
	return &s.block.Data[idx]
}

func (s Slice[T]) resolve(i int) int {
	if i < 0 {
		i = s.Len() + i
	}
	return s.head + i
}

// Range returns a sub-slice over [head, tail) of this slice's own index
// space (not the underlying block's), supporting negative bounds.
func (s Slice[T]) Range(head, tail int) Slice[T] {
	h := s.resolve(head)
	t := s.resolve(tail)
	if h < s.head {
		h = s.head
	}
	if t > s.tail {
		t = s.tail
	}
	if t < h {
		t = h
	}
	return Slice[T]{block: s.block, head: h, tail: t}
}

// Extract copies this slice's visible records into a fresh, owned []T.
// Use this when a caller needs data to outlive the backing block.
func (s Slice[T]) Extract() []T {
	out := make([]T, s.Len())
	copy(out, s.block.Data[s.head:s.tail])
	return out
}

// Each walks the visible records in order, stopping early if fn returns
// false.
func (s Slice[T]) Each(fn func(i int, v T) bool) {
	for i := 0; i < s.Len(); i++ {
		if !fn(i, s.At(i)) {
			return
		}
	}
}

// MinBy returns the index of the minimum visible record under key, and
// ok=false if the slice is empty.
func MinBy[T any](s Slice[T], key func(T) float64) (idx int, ok bool) {
	if s.Empty() {
		return 0, false
	}
	idx = 0
	best := key(s.At(0))
	for i := 1; i < s.Len(); i++ {
		v := key(s.At(i))
		if v < best {
			best = v
			idx = i
		}
	}
	return idx, true
}

// MaxBy returns the index of the maximum visible record under key, and
// ok=false if the slice is empty.
func MaxBy[T any](s Slice[T], key func(T) float64) (idx int, ok bool) {
	if s.Empty() {
		return 0, false
	}
	idx = 0
	best := key(s.At(0))
	for i := 1; i < s.Len(); i++ {
		v := key(s.At(i))
		if v > best {
			best = v
			idx = i
		}
	}
	return idx, true
}

// Acquire pins the backing block for the lifetime of this slice value.
func (s Slice[T]) Acquire() Slice[T] {
	s.block.Acquire()
	return s
}

// Release unpins the backing block. Callers that Acquired a slice must
// Release it exactly once.
func (s Slice[T]) Release() {
	s.block.Release()
}

// MultiSlice composes several Slices end-to-end without copying, used when
// a cache's cached range spans multiple loaded extents (e.g. an
// incrementally-extended tick cache with a gap-filled reload in the
// middle). Indexing and iteration behave as if the parts were a single
// contiguous sequence.
type MultiSlice[T any] struct {
	parts []Slice[T]
}

// NewMultiSlice composes parts, in order, into one logical sequence.
func NewMultiSlice[T any](parts ...Slice[T]) MultiSlice[T] {
	return MultiSlice[T]{parts: parts}
}

// Len is the total number of records across all parts.
func (m MultiSlice[T]) Len() int {
	n := 0
	for _, p := range m.parts {
		n += p.Len()
	}
	return n
}

// At returns the i-th record across the composed parts, with negative i
// counting from the end.
func (m MultiSlice[T]) At(i int) T {
	if i < 0 {
		i = m.Len() + i
	}
	for _, p := range m.parts {
		if i < p.Len() {
			return p.At(i)
		}
		i -= p.Len()
	}
	panic("wtdata: MultiSlice index out of range")
}

// Each walks every record across all parts in order.
func (m MultiSlice[T]) Each(fn func(i int, v T) bool) {
	i := 0
	for _, p := range m.parts {
		stop := false
		p.Each(func(_ int, v T) bool {
			if !fn(i, v) {
				stop = true
				return false
			}
			i++
			return true
		})
		if stop {
			return
		}
	}
}
