// internal/symbols/symbols.go
//
// Provides the alphabet used by the game and the HTTP search endpoint.
//
// Responsibilities:
//   - Load the alphabet from an environment-provided file or fall back to the embedded default.
//   - Supply helpers like RandomCombination and Stats.
//
// Initialization behavior (Init):
//   1. If ALPHABET_FILE is set, read one symbol per line from it.
//   2. Otherwise use assets/alphabet.txt.
//
// Constraints:
//   • Symbols are lowercased and trimmed; blank lines and '#' comments are skipped.
//   • Order is preserved: it is the enumeration order of the search.
//   • Symbols may not contain commas or whitespace, so CLI targets can name them.
//   • Duplicates are rejected (see search.Alphabet.Validate).
//   • Initialization is run once (sync.Once).

package symbols

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"
	"sync"

	"github.com/robalobadob/combolock/assets"
	"github.com/robalobadob/combolock/internal/search"
)

var (
	initOnce   sync.Once
	alphabet   search.Alphabet
	initialErr error
)

// Init loads the alphabet exactly once.
// Returns an error if the file cannot be read or the alphabet is invalid.
func Init() error {
	initOnce.Do(func() {
		var (
			f   io.ReadCloser
			err error
		)
		if path := os.Getenv("ALPHABET_FILE"); path != "" {
			f, err = os.Open(path)
		} else {
			f, err = assets.FS.Open(assets.AlphabetFile)
		}
		if err != nil {
			initialErr = err
			return
		}
		defer f.Close()
		alphabet, initialErr = Load(f)
	})
	return initialErr
}

// Load parses r with Parse and checks the result is usable from text:
// distinct symbols with no separators in them.
func Load(r io.Reader) (search.Alphabet, error) {
	list, err := Parse(r)
	if err != nil {
		return nil, err
	}
	a := search.Alphabet(list)
	if err := CheckText(a); err != nil {
		return nil, err
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Parse reads one symbol per line, lowercases and trims it,
// and skips blanks and '#' comments.
func Parse(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		s := strings.TrimSpace(strings.ToLower(sc.Text()))
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// CheckText rejects symbols that search.ParseCandidate could not read back:
// blanks and anything containing a comma or whitespace.
func CheckText(a search.Alphabet) error {
	for i, s := range a {
		if s == "" {
			return fmt.Errorf("%w: blank symbol at index %d", search.ErrInvalidAlphabet, i)
		}
		if strings.ContainsAny(s, ", \t\r\n") {
			return fmt.Errorf("%w: symbol %q contains a separator", search.ErrInvalidAlphabet, s)
		}
	}
	return nil
}

// Alphabet returns the loaded alphabet. Callers must not mutate it.
func Alphabet() search.Alphabet { return alphabet }

// RandomCombination returns n symbols drawn uniformly (with repetition) from a
// using crypto/rand. Returns nil for an empty alphabet or n < 1.
func RandomCombination(a search.Alphabet, n int) search.Candidate {
	if len(a) == 0 || n < 1 {
		return nil
	}
	out := make(search.Candidate, n)
	k := big.NewInt(int64(len(a)))
	for i := range out {
		j, err := rand.Int(rand.Reader, k)
		if err != nil {
			out[i] = a[0]
			continue
		}
		out[i] = a[j.Int64()]
	}
	return out
}

// Stats returns the number of loaded symbols.
func Stats() int { return len(alphabet) }
