package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/robalobadob/combolock/internal/search"
	"github.com/robalobadob/combolock/internal/symbols"
)

// newRootCmd builds the combosearch command. Output goes to cmd.OutOrStdout,
// logs to cmd.ErrOrStderr.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "combosearch",
		Short: "Brute-force a hidden combination over a small alphabet",
		Long: `combosearch enumerates every combination of --length symbols drawn from
--alphabet in lexicographic order (last position fastest) and stops at the first
one equal to --target.

Each attempted combination is printed on its own line unless --quiet is set,
followed by a final "found" or "exhausted" line.

When --alphabet is omitted, the alphabet is read from ALPHABET_FILE or the
built-in default (up, down, left, right).`,
		Example: `  combosearch --target "up up right"
  combosearch --alphabet a,b --length 2 --target b,a --quiet
  combosearch --alphabet 0,1,2,3,4,5,6,7,8,9 --length 4 --target 9,9,9,9 --max-attempts 500`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         runSearch,
	}

	cmd.Flags().String("alphabet", "", "comma- or space-separated symbols, in enumeration order")
	cmd.Flags().Int("length", search.DefaultLength, "combination length")
	cmd.Flags().String("target", "", "combination to find (comma- or space-separated)")
	cmd.Flags().Int64("max-attempts", 0, "stop after this many attempts (0 = no cap)")
	cmd.Flags().BoolP("quiet", "q", false, "do not print each attempt")
	cmd.Flags().Bool("rank", false, "print the target's position in the enumeration and exit")
	cmd.Flags().String("log-level", "warn", "log level (debug logs every attempt)")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func runSearch(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	alphabetFlag, _ := flags.GetString("alphabet")
	length, _ := flags.GetInt("length")
	targetFlag, _ := flags.GetString("target")
	maxAttempts, _ := flags.GetInt64("max-attempts")
	quiet, _ := flags.GetBool("quiet")
	rankOnly, _ := flags.GetBool("rank")
	levelFlag, _ := flags.GetString("log-level")

	level, err := zerolog.ParseLevel(levelFlag)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()

	alphabet, err := resolveAlphabet(alphabetFlag)
	if err != nil {
		return err
	}
	target := search.ParseCandidate(targetFlag)
	out := cmd.OutOrStdout()

	if rankOnly {
		if len(target) != length {
			return fmt.Errorf("%w: length %d, want %d", search.ErrInvalidTarget, len(target), length)
		}
		rank, err := search.Rank(alphabet, target)
		if err != nil {
			return err
		}
		space, _ := search.SpaceSize(len(alphabet), length)
		fmt.Fprintf(out, "rank: %d of %d\n", rank, space)
		return nil
	}

	s := &search.Searcher{
		Alphabet:    alphabet,
		Length:      length,
		MaxAttempts: maxAttempts,
		Observer:    search.LogObserver(logger),
	}
	if !quiet {
		s.Observer = search.Observers(search.LineObserver(out), s.Observer)
	}

	start := time.Now()
	res, err := s.Search(cmd.Context(), target)
	if err != nil {
		return err
	}
	logger.Info().
		Str("outcome", res.Outcome.String()).
		Int64("attempts", res.Attempts).
		Dur("elapsed", time.Since(start)).
		Msg("search finished")

	fmt.Fprintln(out, summary(res))
	return nil
}

// summary renders the final result line.
func summary(res search.Result) string {
	switch {
	case res.Found():
		return fmt.Sprintf("found: %s (attempts=%d)", res.Candidate, res.Attempts)
	case res.Capped:
		return fmt.Sprintf("exhausted (capped): no match (attempts=%d)", res.Attempts)
	default:
		return fmt.Sprintf("exhausted: no match (attempts=%d)", res.Attempts)
	}
}

// resolveAlphabet parses the --alphabet flag, falling back to the configured default.
// Flag symbols come out of ParseCandidate and so never hold a separator; the
// file-based default is checked by symbols.Load.
func resolveAlphabet(flag string) (search.Alphabet, error) {
	if flag != "" {
		return search.Alphabet(search.ParseCandidate(flag)), nil
	}
	if err := symbols.Init(); err != nil {
		return nil, fmt.Errorf("load alphabet (ALPHABET_FILE=%q): %w", os.Getenv("ALPHABET_FILE"), err)
	}
	return symbols.Alphabet(), nil
}
