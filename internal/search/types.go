// internal/search/types.go
//
// Core type definitions for the bounded combination search.
// Defines:
//   - Alphabet:  ordered set of distinct symbols candidates are built from.
//   - Candidate: one fixed-length sequence drawn (with repetition) from an alphabet.
//   - Outcome/Result: what a search reports when it stops.

package search

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyAlphabet   = errors.New("empty alphabet")
	ErrInvalidAlphabet = errors.New("invalid alphabet")
	ErrInvalidLength   = errors.New("invalid candidate length")
	ErrInvalidTarget   = errors.New("invalid target")
)

// Alphabet is an ordered sequence of distinct symbols.
// Position in the slice is the symbol's index in enumeration order.
type Alphabet []string

// Validate checks that the alphabet is non-empty and its symbols are distinct.
// Symbols are otherwise opaque: "new york" is as good a symbol as "up".
func (a Alphabet) Validate() error {
	if len(a) == 0 {
		return ErrEmptyAlphabet
	}
	seen := make(map[string]struct{}, len(a))
	for _, s := range a {
		if _, dup := seen[s]; dup {
			return fmt.Errorf("%w: duplicate symbol %q", ErrInvalidAlphabet, s)
		}
		seen[s] = struct{}{}
	}
	return nil
}

// Index returns the position of sym in the alphabet, or -1.
func (a Alphabet) Index(sym string) int {
	for i, s := range a {
		if s == sym {
			return i
		}
	}
	return -1
}

// Contains reports whether sym is part of the alphabet.
func (a Alphabet) Contains(sym string) bool { return a.Index(sym) >= 0 }

// Candidate is an ordered, fixed-length sequence of symbols.
type Candidate []string

// String joins the symbols with single spaces.
func (c Candidate) String() string { return strings.Join(c, " ") }

// Equal reports element-wise equality.
func (c Candidate) Equal(o Candidate) bool {
	if len(c) != len(o) {
		return false
	}
	for i := range c {
		if c[i] != o[i] {
			return false
		}
	}
	return true
}

// ParseCandidate splits s on commas and whitespace, dropping empty fields.
// Symbols that contain a separator cannot round-trip through it.
// "up, up right" and "up,up,right" both parse to [up up right].
func ParseCandidate(s string) Candidate {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	return Candidate(fields)
}

// Outcome reports how a search terminated.
type Outcome int

const (
	Exhausted Outcome = iota
	Found
)

func (o Outcome) String() string {
	if o == Found {
		return "found"
	}
	return "exhausted"
}

// Result is produced once per search.
type Result struct {
	Outcome   Outcome
	Candidate Candidate // matched candidate; nil unless Outcome == Found
	Attempts  int64     // candidates evaluated before stopping
	Capped    bool      // Exhausted because MaxAttempts was hit, not because the space ran out
}

// Found reports whether the search matched the target.
func (r Result) Found() bool { return r.Outcome == Found }
