// internal/search/search.go
//
// Bounded combination search.
// Responsibilities:
//   - Validate alphabet, length and target before any candidate is generated.
//   - Enumerate alphabet^n in lexicographic order and compare each candidate to the target.
//   - Stop at the first match; report Exhausted when the space (or the attempt cap) runs out.
//
// Notes:
//   - Enumeration is one flat loop (see Candidates), so a match ends all positions at once.
//   - The observer sees every evaluated candidate, in order, before it is compared.
//   - ctx is polled every ctxPollEvery attempts; searches are otherwise synchronous.

package search

import (
	"context"
	"fmt"
)

// DefaultLength is the candidate length used when none is configured.
const DefaultLength = 3

const ctxPollEvery = 1024

// Searcher holds the fixed parameters of a search.
type Searcher struct {
	Alphabet    Alphabet
	Length      int      // candidate length n; must be >= 1
	MaxAttempts int64    // 0 means no cap
	Observer    Observer // optional
}

// Search runs an uncapped search with no observer.
func Search(alphabet Alphabet, target Candidate, n int) (Result, error) {
	s := &Searcher{Alphabet: alphabet, Length: n}
	return s.Search(context.Background(), target)
}

// Validate checks the searcher configuration and target without generating any candidate.
func (s *Searcher) Validate(target Candidate) error {
	if err := s.Alphabet.Validate(); err != nil {
		return err
	}
	if s.Length < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidLength, s.Length)
	}
	if len(target) != s.Length {
		return fmt.Errorf("%w: length %d, want %d", ErrInvalidTarget, len(target), s.Length)
	}
	for i, sym := range target {
		if !s.Alphabet.Contains(sym) {
			return fmt.Errorf("%w: symbol %q at position %d not in alphabet", ErrInvalidTarget, sym, i)
		}
	}
	return nil
}

// Search enumerates candidates until one equals target, the space is exhausted,
// or MaxAttempts candidates have been evaluated.
//
// If ctx is canceled mid-search the partial Exhausted result is returned along
// with ctx.Err().
func (s *Searcher) Search(ctx context.Context, target Candidate) (Result, error) {
	if err := s.Validate(target); err != nil {
		return Result{}, err
	}

	var res Result
	for rank, c := range Candidates(s.Alphabet, s.Length) {
		if s.MaxAttempts > 0 && rank > s.MaxAttempts {
			res.Capped = true
			break
		}
		if rank%ctxPollEvery == 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
		}
		res.Attempts = rank
		if s.Observer != nil {
			s.Observer.Attempt(rank, c)
		}
		if c.Equal(target) {
			res.Outcome = Found
			res.Candidate = c
			return res, nil
		}
	}
	res.Outcome = Exhausted
	return res, nil
}

// Space returns the size of the search space for this searcher.
// ok is false when the alphabet/length combination overflows int64.
func (s *Searcher) Space() (int64, bool) {
	return SpaceSize(len(s.Alphabet), s.Length)
}
