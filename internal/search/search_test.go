package search

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var moves = Alphabet{"up", "down", "left", "right"}

func TestSearch_FindsMovementCombination(t *testing.T) {
	res, err := Search(moves, Candidate{"up", "up", "right"}, 3)
	require.NoError(t, err)

	assert.True(t, res.Found())
	assert.Equal(t, Candidate{"up", "up", "right"}, res.Candidate)
	assert.Equal(t, int64(4), res.Attempts)
	assert.False(t, res.Capped)
}

func TestSearch_SingleSymbolAlphabet(t *testing.T) {
	res, err := Search(Alphabet{"x"}, Candidate{"x", "x"}, 2)
	require.NoError(t, err)

	assert.Equal(t, Found, res.Outcome)
	assert.Equal(t, Candidate{"x", "x"}, res.Candidate)
	assert.Equal(t, int64(1), res.Attempts)
}

func TestSearch_AttemptsEqualRank(t *testing.T) {
	for _, target := range []Candidate{
		{"up", "up", "up"},
		{"down", "left", "up"},
		{"left", "right", "down"},
		{"right", "right", "right"},
	} {
		rank, err := Rank(moves, target)
		require.NoError(t, err)

		res, err := Search(moves, target, 3)
		require.NoError(t, err)
		assert.True(t, res.Found(), target.String())
		assert.Equal(t, rank, res.Attempts, target.String())
	}
}

func TestSearch_StopsAtMatch(t *testing.T) {
	var seen []Candidate
	s := &Searcher{
		Alphabet: moves,
		Length:   3,
		Observer: ObserverFunc(func(_ int64, c Candidate) { seen = append(seen, c) }),
	}
	target := Candidate{"down", "up", "left"}

	res, err := s.Search(context.Background(), target)
	require.NoError(t, err)
	require.True(t, res.Found())

	// down is index 1, up 0, left 2 -> rank 1*16 + 0*4 + 2 + 1 = 19
	assert.Equal(t, int64(19), res.Attempts)
	require.Len(t, seen, 19)
	assert.Equal(t, target, seen[len(seen)-1])
	// An inner-loop-only break would go on to "down down up" next.
	for _, c := range seen[:len(seen)-1] {
		assert.False(t, c.Equal(target))
	}
}

func TestSearch_CapReportsExhausted(t *testing.T) {
	// A valid target is always reachable, so only the cap can end a search
	// without a match. c c c is the 27th and last candidate.
	seen := map[string]int{}
	s := &Searcher{
		Alphabet:    Alphabet{"a", "b", "c"},
		Length:      3,
		MaxAttempts: 26,
		Observer:    ObserverFunc(func(_ int64, c Candidate) { seen[c.String()]++ }),
	}
	res, err := s.Search(context.Background(), Candidate{"c", "c", "c"})
	require.NoError(t, err)

	assert.Equal(t, Exhausted, res.Outcome)
	assert.True(t, res.Capped)
	assert.Equal(t, int64(26), res.Attempts)
	assert.Len(t, seen, 26)
	for k, n := range seen {
		assert.Equal(t, 1, n, k)
	}
}

func TestSearch_CapAtSpaceSizeIsNotCapped(t *testing.T) {
	s := &Searcher{Alphabet: Alphabet{"a", "b"}, Length: 2, MaxAttempts: 4}
	res, err := s.Search(context.Background(), Candidate{"b", "b"})
	require.NoError(t, err)

	assert.True(t, res.Found())
	assert.Equal(t, int64(4), res.Attempts)
	assert.False(t, res.Capped)
}

func TestSearch_ValidationErrors(t *testing.T) {
	cases := []struct {
		name     string
		alphabet Alphabet
		n        int
		target   Candidate
		want     error
	}{
		{"foreign symbol", Alphabet{"a", "b"}, 2, Candidate{"c", "a"}, ErrInvalidTarget},
		{"short target", Alphabet{"a", "b"}, 2, Candidate{"a"}, ErrInvalidTarget},
		{"long target", Alphabet{"a", "b"}, 2, Candidate{"a", "b", "a"}, ErrInvalidTarget},
		{"empty alphabet", Alphabet{}, 2, Candidate{"a", "a"}, ErrEmptyAlphabet},
		{"nil alphabet", nil, 1, Candidate{"a"}, ErrEmptyAlphabet},
		{"duplicate symbol", Alphabet{"a", "a"}, 1, Candidate{"a"}, ErrInvalidAlphabet},
		{"zero length", Alphabet{"a"}, 0, Candidate{}, ErrInvalidLength},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			s := &Searcher{
				Alphabet: tc.alphabet,
				Length:   tc.n,
				Observer: ObserverFunc(func(int64, Candidate) { calls++ }),
			}
			_, err := s.Search(context.Background(), tc.target)
			require.ErrorIs(t, err, tc.want)
			assert.Zero(t, calls, "no candidate may be generated before validation")
		})
	}
}

func TestSearch_OpaqueSymbols(t *testing.T) {
	cities := Alphabet{"new york", "paris", "a,b", ""}
	res, err := Search(cities, Candidate{"paris", "new york"}, 2)
	require.NoError(t, err)
	assert.True(t, res.Found())
	assert.Equal(t, int64(5), res.Attempts)

	res, err = Search(cities, Candidate{"", "a,b"}, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(15), res.Attempts)
}

func TestSearch_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &Searcher{Alphabet: Alphabet{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}, Length: 6}
	res, err := s.Search(ctx, Candidate{"9", "9", "9", "9", "9", "9"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(ctxPollEvery-1), res.Attempts)
	assert.False(t, res.Found())
}

func TestLineObserver(t *testing.T) {
	var buf bytes.Buffer
	s := &Searcher{Alphabet: moves, Length: 3, Observer: LineObserver(&buf)}
	_, err := s.Search(context.Background(), Candidate{"up", "up", "right"})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{"up up up", "up up down", "up up left", "up up right"}, lines)
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf).Level(zerolog.DebugLevel)
	s := &Searcher{Alphabet: Alphabet{"a", "b"}, Length: 1, Observer: Observers(LogObserver(l), nil)}

	_, err := s.Search(context.Background(), Candidate{"b"})
	require.NoError(t, err)

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "try combination"))
	assert.Contains(t, out, `"attempt":2`)
}
