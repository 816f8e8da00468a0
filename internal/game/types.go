// internal/game/types.go
//
// Core type definitions for the combination guessing game.
// Defines:
//   - Mark: per-position result of a guess (hit/present/miss).
//   - Game: state for a single in-progress or finished game.

package game

import (
	"time"

	"github.com/robalobadob/combolock/internal/search"
)

// Mark represents the evaluation result for a single position in a guess.
// Possible values:
//   - "hit":     symbol is correct and in the correct position.
//   - "present": symbol exists in the secret but at a different position.
//   - "miss":    symbol is not (or no longer) available in the secret.
type Mark string

const (
	MarkHit     Mark = "hit"
	MarkPresent Mark = "present"
	MarkMiss    Mark = "miss"
)

// Game holds the state of a single game session.
type Game struct {
	ID       string             // Unique game identifier (random hex string).
	Alphabet search.Alphabet    // Symbols guesses are drawn from.
	Secret   search.Candidate   // The hidden combination.
	Rows     int                // Maximum number of guesses allowed.
	Cols     int                // Combination length.
	Guesses  []search.Candidate // Guesses made so far.
	Finished bool               // True once the game is over (won or lost).
	Won      bool               // True if the game was finished with a win.
	Started  time.Time          // Creation time; used to prune stale sessions.
}
