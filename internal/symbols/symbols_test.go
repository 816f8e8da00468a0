package symbols

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/combolock/internal/search"
)

func TestInit_EmbeddedDefault(t *testing.T) {
	t.Setenv("ALPHABET_FILE", "")
	require.NoError(t, Init())

	assert.Equal(t, search.Alphabet{"up", "down", "left", "right"}, Alphabet())
	assert.Equal(t, 4, Stats())
}

func TestLoad(t *testing.T) {
	a, err := Load(strings.NewReader("# dial\nRed\ngreen\nblue\n"))
	require.NoError(t, err)
	assert.Equal(t, search.Alphabet{"red", "green", "blue"}, a)

	_, err = Load(strings.NewReader("new york\nparis\n"))
	assert.ErrorIs(t, err, search.ErrInvalidAlphabet)

	_, err = Load(strings.NewReader("a,b\nc\n"))
	assert.ErrorIs(t, err, search.ErrInvalidAlphabet)

	_, err = Load(strings.NewReader("up\nUP\n"))
	assert.ErrorIs(t, err, search.ErrInvalidAlphabet)

	_, err = Load(strings.NewReader("# nothing here\n"))
	assert.ErrorIs(t, err, search.ErrEmptyAlphabet)
}

func TestCheckText(t *testing.T) {
	assert.NoError(t, CheckText(search.Alphabet{"up", "down"}))
	assert.ErrorIs(t, CheckText(search.Alphabet{"up", ""}), search.ErrInvalidAlphabet)
	assert.ErrorIs(t, CheckText(search.Alphabet{"up", "two\twords"}), search.ErrInvalidAlphabet)
}

func TestParse(t *testing.T) {
	in := "# moves\n  North\n\nsouth \n#east\nwest\n"
	got, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"north", "south", "west"}, got)
}

func TestRandomCombination(t *testing.T) {
	a := search.Alphabet{"a", "b", "c"}
	c := RandomCombination(a, 5)
	require.Len(t, c, 5)
	for _, s := range c {
		assert.True(t, a.Contains(s))
	}

	assert.Nil(t, RandomCombination(nil, 3))
	assert.Nil(t, RandomCombination(a, 0))
}
