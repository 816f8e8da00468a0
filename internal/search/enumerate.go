package search

import (
	"fmt"
	"iter"
	"math"
)

// SpaceSize returns k^n, the number of candidates of length n over an alphabet
// of size k. ok is false if the value does not fit in an int64.
func SpaceSize(k, n int) (size int64, ok bool) {
	if k < 0 || n < 0 {
		return 0, false
	}
	size = 1
	for i := 0; i < n; i++ {
		if k != 0 && size > math.MaxInt64/int64(k) {
			return 0, false
		}
		size *= int64(k)
	}
	return size, true
}

// Candidates enumerates every candidate of length n in lexicographic order over
// alphabet indexes: the last position varies fastest. Each yielded candidate is a
// fresh slice, paired with its 1-based rank.
//
// The enumeration is a single loop over an odometer of indexes, so stopping the
// range loop ends every position at once.
func Candidates(alphabet Alphabet, n int) iter.Seq2[int64, Candidate] {
	return func(yield func(int64, Candidate) bool) {
		k := len(alphabet)
		if k == 0 || n < 1 {
			return
		}
		idx := make([]int, n)
		for rank := int64(1); ; rank++ {
			c := make(Candidate, n)
			for i, j := range idx {
				c[i] = alphabet[j]
			}
			if !yield(rank, c) {
				return
			}
			// Advance the odometer; carrying out of position 0 means we wrapped.
			pos := n - 1
			for ; pos >= 0; pos-- {
				idx[pos]++
				if idx[pos] < k {
					break
				}
				idx[pos] = 0
			}
			if pos < 0 {
				return
			}
		}
	}
}

// Rank returns the 1-based position of c in the enumeration produced by
// Candidates(alphabet, len(c)).
func Rank(alphabet Alphabet, c Candidate) (int64, error) {
	if err := alphabet.Validate(); err != nil {
		return 0, err
	}
	if len(c) == 0 {
		return 0, fmt.Errorf("%w: empty candidate", ErrInvalidTarget)
	}
	if _, ok := SpaceSize(len(alphabet), len(c)); !ok {
		return 0, fmt.Errorf("%w: %d^%d overflows", ErrInvalidLength, len(alphabet), len(c))
	}
	k := int64(len(alphabet))
	var r int64
	for i, sym := range c {
		j := alphabet.Index(sym)
		if j < 0 {
			return 0, fmt.Errorf("%w: symbol %q at position %d not in alphabet", ErrInvalidTarget, sym, i)
		}
		r = r*k + int64(j)
	}
	return r + 1, nil
}

// Unrank is the inverse of Rank: it maps a 1-based rank back to its candidate by
// repeated division and modulo over the alphabet size.
func Unrank(alphabet Alphabet, n int, rank int64) (Candidate, error) {
	if err := alphabet.Validate(); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}
	size, ok := SpaceSize(len(alphabet), n)
	if !ok {
		return nil, fmt.Errorf("%w: %d^%d overflows", ErrInvalidLength, len(alphabet), n)
	}
	if rank < 1 || rank > size {
		return nil, fmt.Errorf("rank %d out of range [1, %d]", rank, size)
	}
	k := int64(len(alphabet))
	v := rank - 1
	c := make(Candidate, n)
	for i := n - 1; i >= 0; i-- {
		c[i] = alphabet[v%k]
		v /= k
	}
	return c, nil
}
