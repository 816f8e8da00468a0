package daily

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/combolock/internal/database"
	"github.com/robalobadob/combolock/internal/search"
)

func TestDateKey(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	d := time.Date(2026, 3, 2, 5, 0, 0, 0, loc)
	assert.Equal(t, "2026-03-01", DateKey(d))
}

func TestCombinationRank(t *testing.T) {
	d := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	r1 := CombinationRank(d, "salt", 64)
	r2 := CombinationRank(d.Add(2*time.Hour), "salt", 64)
	assert.Equal(t, r1, r2, "same day, same rank")
	assert.GreaterOrEqual(t, r1, int64(1))
	assert.LessOrEqual(t, r1, int64(64))

	assert.Equal(t, int64(1), CombinationRank(d, "salt", 1))
	assert.Zero(t, CombinationRank(d, "salt", 0))
}

func TestCombination(t *testing.T) {
	moves := search.Alphabet{"up", "down", "left", "right"}
	d := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	c, rank, err := Combination(d, "salt", moves, 3)
	require.NoError(t, err)
	require.Len(t, c, 3)

	got, err := search.Rank(moves, c)
	require.NoError(t, err)
	assert.Equal(t, rank, got)

	_, _, err = Combination(d, "salt", search.Alphabet{}, 3)
	assert.ErrorIs(t, err, search.ErrEmptyAlphabet)
	_, _, err = Combination(d, "salt", moves, 0)
	assert.ErrorIs(t, err, search.ErrInvalidLength)
}

func TestStore(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, database.Migrate(db))

	ctx := context.Background()
	s := NewStore(db)

	played, err := s.AlreadyPlayed(ctx, "u1", "2026-10-19")
	require.NoError(t, err)
	assert.False(t, played)

	require.NoError(t, s.InsertResult(ctx, Result{UserID: "u1", Date: "2026-10-19", Rank: 4, Guesses: 5, ElapsedMs: 900}))
	require.NoError(t, s.InsertResult(ctx, Result{UserID: "u2", Date: "2026-10-19", Rank: 4, Guesses: 3, ElapsedMs: 5000}))
	require.NoError(t, s.InsertResult(ctx, Result{UserID: "u3", Date: "2026-10-19", Rank: 4, Guesses: 3, ElapsedMs: 1000}))
	// duplicate is ignored
	require.NoError(t, s.InsertResult(ctx, Result{UserID: "u1", Date: "2026-10-19", Rank: 4, Guesses: 1, ElapsedMs: 1}))

	played, err = s.AlreadyPlayed(ctx, "u1", "2026-10-19")
	require.NoError(t, err)
	assert.True(t, played)

	top, err := s.Leaderboard(ctx, "2026-10-19", 0)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "u3", top[0].UserID)
	assert.Equal(t, "u2", top[1].UserID)
	assert.Equal(t, LBRow{UserID: "u1", Guesses: 5, ElapsedMs: 900}, top[2])

	none, err := s.Leaderboard(ctx, "2000-01-01", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}
