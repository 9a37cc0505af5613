package schema

import "math/bits"

// bitset is a fixed-size set of content model positions. Position sets
// are small (bounded by maxPositions) so a couple of machine words
// cover the common case.
type bitset struct {
	words []uint64
	n     int
}

func newBitset(n int) *bitset {
	return &bitset{
		words: make([]uint64, (n+63)/64),
		n:     n,
	}
}

func (b *bitset) set(i int) {
	b.words[i/64] |= 1 << (uint(i) % 64)
}

func (b *bitset) test(i int) bool {
	return b.words[i/64]&(1<<(uint(i)%64)) != 0
}

func (b *bitset) or(other *bitset) {
	for i, w := range other.words {
		b.words[i] |= w
	}
}

func (b *bitset) clone() *bitset {
	words := make([]uint64, len(b.words))
	copy(words, b.words)
	return &bitset{words: words, n: b.n}
}

func (b *bitset) empty() bool {
	for _, w := range b.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// forEach calls fn for every set position in ascending order.
func (b *bitset) forEach(fn func(int)) {
	for i, w := range b.words {
		for w != 0 {
			bit := bits.TrailingZeros64(w)
			fn(i*64 + bit)
			w &= w - 1
		}
	}
}
