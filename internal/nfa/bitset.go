package nfa

import "math/bits"

// bitset is a fixed-size set of dense state indices. The active set of a
// simulation step is a bitset sized to the state count, which keeps the
// per-byte cost linear in the number of states.
type bitset struct {
	words []uint64
}

func newBitset(size int) *bitset {
	return &bitset{words: make([]uint64, (size+63)/64)}
}

func (b *bitset) set(i uint32) {
	b.words[i>>6] |= 1 << (i & 63)
}

func (b *bitset) get(i uint32) bool {
	return b.words[i>>6]&(1<<(i&63)) != 0
}

func (b *bitset) clear() {
	for i := range b.words {
		b.words[i] = 0
	}
}

func (b *bitset) intersects(o *bitset) bool {
	for i, w := range b.words {
		if w&o.words[i] != 0 {
			return true
		}
	}
	return false
}

// forEach invokes fn for every set index in ascending order.
func (b *bitset) forEach(fn func(uint32)) {
	for i, w := range b.words {
		for w != 0 {
			bit := bits.TrailingZeros64(w)
			fn(uint32(i<<6 + bit))
			w &= w - 1
		}
	}
}
