package game

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/combolock/internal/search"
)

var moves = search.Alphabet{"up", "down", "left", "right"}

func TestNew_RandomSecret(t *testing.T) {
	g, err := New(moves, 3, nil)
	require.NoError(t, err)

	assert.Len(t, g.ID, 16)
	assert.Len(t, g.Secret, 3)
	assert.Equal(t, DefaultRows, g.Rows)
	assert.Equal(t, "playing", g.State())
}

func TestNew_RejectsBadSecret(t *testing.T) {
	_, err := New(moves, 3, search.Candidate{"up", "jump", "left"})
	assert.ErrorIs(t, err, search.ErrInvalidTarget)

	_, err = New(search.Alphabet{}, 3, nil)
	assert.ErrorIs(t, err, search.ErrEmptyAlphabet)
}

func TestNew_RejectsHugeLength(t *testing.T) {
	_, err := New(search.Alphabet{"x"}, 2_000_000_000, nil)
	assert.ErrorIs(t, err, search.ErrInvalidLength)

	_, err = New(moves, MaxLength+1, nil)
	assert.ErrorIs(t, err, search.ErrInvalidLength)

	_, err = New(moves, 0, nil)
	assert.ErrorIs(t, err, search.ErrInvalidLength)
}

func TestScore(t *testing.T) {
	secret := search.Candidate{"up", "up", "right"}

	assert.Equal(t, []Mark{MarkHit, MarkHit, MarkHit}, Score(secret, secret))
	assert.Equal(t,
		[]Mark{MarkPresent, MarkHit, MarkPresent},
		Score(secret, search.Candidate{"right", "up", "up"}))
	assert.Equal(t,
		[]Mark{MarkMiss, MarkHit, MarkMiss},
		Score(search.Candidate{"down", "up", "up"}, search.Candidate{"left", "up", "right"}))
	assert.Equal(t,
		[]Mark{MarkMiss, MarkMiss},
		Score(secret, search.Candidate{"up", "up"}))
}

func TestScore_RepeatedSymbols(t *testing.T) {
	secret := search.Candidate{"up", "down", "down"}
	got := Score(secret, search.Candidate{"down", "down", "down"})
	assert.Equal(t, []Mark{MarkMiss, MarkHit, MarkHit}, got)

	got = Score(secret, search.Candidate{"down", "up", "left"})
	assert.Equal(t, []Mark{MarkPresent, MarkPresent, MarkMiss}, got)
}

func TestApplyGuess_Win(t *testing.T) {
	g, err := New(moves, 3, search.Candidate{"up", "up", "right"})
	require.NoError(t, err)

	marks, state, err := g.ApplyGuess(search.Candidate{"up", "down", "right"})
	require.NoError(t, err)
	assert.Equal(t, []Mark{MarkHit, MarkMiss, MarkHit}, marks)
	assert.Equal(t, "playing", state)

	marks, state, err = g.ApplyGuess(search.Candidate{"up", "up", "right"})
	require.NoError(t, err)
	assert.True(t, AllHit(marks))
	assert.Equal(t, "won", state)

	_, _, err = g.ApplyGuess(search.Candidate{"up", "up", "right"})
	assert.ErrorIs(t, err, ErrFinished)
}

func TestApplyGuess_Loss(t *testing.T) {
	g, err := New(moves, 3, search.Candidate{"up", "up", "right"})
	require.NoError(t, err)
	g.Rows = 2

	_, state, err := g.ApplyGuess(search.Candidate{"down", "down", "down"})
	require.NoError(t, err)
	assert.Equal(t, "playing", state)

	_, state, err = g.ApplyGuess(search.Candidate{"left", "left", "left"})
	require.NoError(t, err)
	assert.Equal(t, "lost", state)
	assert.True(t, g.Finished)
	assert.False(t, g.Won)
}

func TestApplyGuess_Invalid(t *testing.T) {
	g, err := New(moves, 3, search.Candidate{"up", "up", "right"})
	require.NoError(t, err)

	_, _, err = g.ApplyGuess(search.Candidate{"up", "up"})
	assert.ErrorIs(t, err, ErrInvalidGuess)

	_, _, err = g.ApplyGuess(search.Candidate{"up", "up", "jump"})
	assert.ErrorIs(t, err, ErrInvalidGuess)
	assert.Empty(t, g.Guesses)
}

func TestSolve(t *testing.T) {
	g, err := New(moves, 3, search.Candidate{"up", "up", "right"})
	require.NoError(t, err)

	res, err := g.Solve(context.Background(), 0, nil)
	require.NoError(t, err)
	assert.True(t, res.Found())
	assert.Equal(t, int64(4), res.Attempts)
	assert.Equal(t, "playing", g.State())

	res, err = g.Solve(context.Background(), 2, nil)
	require.NoError(t, err)
	assert.False(t, res.Found())
	assert.True(t, res.Capped)
}
