// internal/game/engine.go
//
// Core game engine for a single combination-guessing session.
// Responsibilities:
//   - Create new games over an alphabet with a fixed combination length.
//   - Validate and apply guesses (length, alphabet membership).
//   - Score guesses with a two-pass hit/present/miss algorithm.
//   - Track state transitions: playing → won/lost.
//   - Solve a game by brute force through the bounded combination search.
//
// Notes:
//   - Random secrets come from the symbols package (crypto/rand).
//   - randomID() is a compact hex identifier for correlating server state.

package game

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/combolock/internal/search"
	"github.com/robalobadob/combolock/internal/symbols"
)

// DefaultRows is the number of guesses a game allows unless configured.
const DefaultRows = 10

// MaxLength is the longest combination New accepts.
const MaxLength = 64

var (
	ErrFinished     = errors.New("game finished")
	ErrInvalidGuess = errors.New("invalid guess")
)

// New constructs a new game over alphabet with combinations of the given length.
// If secret is nil, a random combination is drawn. The length is checked
// before drawing, so a huge length fails fast with search.ErrInvalidLength.
func New(alphabet search.Alphabet, length int, secret search.Candidate) (*Game, error) {
	if length > MaxLength {
		return nil, fmt.Errorf("%w: %d exceeds %d", search.ErrInvalidLength, length, MaxLength)
	}
	if secret == nil {
		secret = symbols.RandomCombination(alphabet, length)
	}
	s := &search.Searcher{Alphabet: alphabet, Length: length}
	if err := s.Validate(secret); err != nil {
		return nil, err
	}
	return &Game{
		ID:       randomID(),
		Alphabet: alphabet,
		Secret:   append(search.Candidate(nil), secret...),
		Rows:     DefaultRows,
		Cols:     length,
		Guesses:  []search.Candidate{},
		Started:  time.Now(),
	}, nil
}

// ApplyGuess validates and scores a guess, mutating the game state.
// Returns: the per‑position marks, the new state ("playing"/"won"/"lost"), or an error.
//
// Validation rules:
//   - Game must not be finished.
//   - Guess must be exactly g.Cols symbols, each from g.Alphabet.
//
// State transitions:
//   - If all positions are Hit → Finished = true, Won = true.
//   - Else if the number of guesses reaches g.Rows → Finished = true (loss).
func (g *Game) ApplyGuess(guess search.Candidate) ([]Mark, string, error) {
	if g.Finished {
		return nil, g.State(), ErrFinished
	}
	if len(guess) != g.Cols {
		return nil, g.State(), fmt.Errorf("%w: want %d symbols, got %d", ErrInvalidGuess, g.Cols, len(guess))
	}
	for _, s := range guess {
		if !g.Alphabet.Contains(s) {
			return nil, g.State(), fmt.Errorf("%w: unknown symbol %q", ErrInvalidGuess, s)
		}
	}

	marks := Score(g.Secret, guess)
	g.Guesses = append(g.Guesses, append(search.Candidate(nil), guess...))

	if AllHit(marks) {
		g.Finished, g.Won = true, true
	} else if len(g.Guesses) >= g.Rows {
		g.Finished = true
	}
	return marks, g.State(), nil
}

// Solve brute-forces the secret with the bounded combination search.
// It does not change the game state.
func (g *Game) Solve(ctx context.Context, maxAttempts int64, obs search.Observer) (search.Result, error) {
	s := &search.Searcher{
		Alphabet:    g.Alphabet,
		Length:      g.Cols,
		MaxAttempts: maxAttempts,
		Observer:    obs,
	}
	return s.Search(ctx, g.Secret)
}

// State reports a coarse string representation of the current game state.
func (g *Game) State() string {
	if g.Finished {
		if g.Won {
			return "won"
		}
		return "lost"
	}
	return "playing"
}

// Score compares guess against secret.
//
// Pass 1:
//   - Mark exact matches as Hit.
//   - Count remaining (non‑hit) secret symbols.
//
// Pass 2:
//   - For each non‑hit guess symbol: if there is remaining count for it,
//     mark Present and decrement the count; otherwise mark Miss.
//
// Repeated symbols in both secret and guess are handled correctly.
// A guess of the wrong length scores all Miss.
func Score(secret, guess search.Candidate) []Mark {
	n := len(guess)
	res := make([]Mark, n)
	if len(secret) != n {
		for i := range res {
			res[i] = MarkMiss
		}
		return res
	}

	counts := make(map[string]int, n)
	for i := 0; i < n; i++ {
		if guess[i] == secret[i] {
			res[i] = MarkHit
		} else {
			counts[secret[i]]++
		}
	}

	for i := 0; i < n; i++ {
		if res[i] == MarkHit {
			continue
		}
		if counts[guess[i]] > 0 {
			res[i] = MarkPresent
			counts[guess[i]]--
		} else {
			res[i] = MarkMiss
		}
	}
	return res
}

// AllHit returns true if all marks are MarkHit.
func AllHit(m []Mark) bool {
	for _, x := range m {
		if x != MarkHit {
			return false
		}
	}
	return true
}

// randomID returns a compact 16‑hex‑char identifier.
func randomID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
