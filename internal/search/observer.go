package search

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// Observer is notified of every candidate a search evaluates.
// n is the 1-based attempt number.
type Observer interface {
	Attempt(n int64, c Candidate)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(n int64, c Candidate)

func (f ObserverFunc) Attempt(n int64, c Candidate) { f(n, c) }

// LineObserver writes each attempted candidate as one space-joined line to w.
// Write errors are ignored; progress output never affects the search.
func LineObserver(w io.Writer) Observer {
	return ObserverFunc(func(_ int64, c Candidate) {
		_, _ = fmt.Fprintln(w, c.String())
	})
}

// LogObserver emits one debug event per attempt.
func LogObserver(l zerolog.Logger) Observer {
	return ObserverFunc(func(n int64, c Candidate) {
		l.Debug().Int64("attempt", n).Strs("candidate", c).Msg("try combination")
	})
}

// Observers fans a single attempt out to several observers, skipping nils.
func Observers(obs ...Observer) Observer {
	return ObserverFunc(func(n int64, c Candidate) {
		for _, o := range obs {
			if o != nil {
				o.Attempt(n, c)
			}
		}
	})
}
