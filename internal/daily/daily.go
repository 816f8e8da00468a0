// internal/daily/daily.go
//
// Deterministic daily combination selection.
// The day's combination is the candidate whose rank is
// HMAC-SHA256(salt, YYYY-MM-DD) mod space + 1, resolved through search.Unrank.

package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/robalobadob/combolock/internal/search"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// CombinationRank returns a deterministic 1-based rank in [1, space] for a date.
// Returns 0 when space <= 0.
func CombinationRank(date time.Time, salt string, space int64) int64 {
	if space <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// first 8 bytes as uint64 for the modulus
	n := binary.BigEndian.Uint64(sum[:8])
	return int64(n%uint64(space)) + 1
}

// Combination resolves the day's combination over alphabet with the given length.
func Combination(date time.Time, salt string, alphabet search.Alphabet, length int) (search.Candidate, int64, error) {
	if err := alphabet.Validate(); err != nil {
		return nil, 0, err
	}
	space, ok := search.SpaceSize(len(alphabet), length)
	if length < 1 || !ok {
		return nil, 0, fmt.Errorf("%w: %d", search.ErrInvalidLength, length)
	}
	rank := CombinationRank(date, salt, space)
	c, err := search.Unrank(alphabet, length, rank)
	if err != nil {
		return nil, 0, err
	}
	return c, rank, nil
}
