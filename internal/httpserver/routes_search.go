// internal/httpserver/routes_search.go
//
// HTTP routes for running the bounded combination search directly.
//   - POST /search      → run one search, record it, return the result
//   - GET  /search/runs → recent recorded runs (newest first)
//
// Every search is capped by Config.SearchMaxAttempts and bounded by the
// request timeout middleware.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/combolock/internal/search"
)

// traceLimit bounds how many attempted candidates a traced response carries.
const traceLimit = 256

func (s *Server) mountSearch() {
	s.r.Post("/search", s.handleSearch)
	s.r.Get("/search/runs", s.handleRuns)
}

// searchReq is the payload for POST /search.
// A missing alphabet means the server default; an explicit [] is an empty alphabet.
// A missing length means the server default.
type searchReq struct {
	Alphabet    []string `json:"alphabet"`
	Length      *int     `json:"length"`
	Target      []string `json:"target"`
	MaxAttempts int64    `json:"maxAttempts"`
	Trace       bool     `json:"trace"`
}

// searchRes is the result of one search.
type searchRes struct {
	Outcome   string   `json:"outcome"` // "found" | "exhausted"
	Candidate []string `json:"candidate,omitempty"`
	Attempts  int64    `json:"attempts"`
	Capped    bool     `json:"capped"`
	Space     int64    `json:"space,omitempty"` // omitted when alphabet^length overflows
	RunID     int64    `json:"runId,omitempty"`
	ElapsedUs int64    `json:"elapsedUs"`
	Trace     []string `json:"trace,omitempty"`
}

func newSearchRes(a search.Alphabet, n int, res search.Result, runID int64, elapsed time.Duration) searchRes {
	space, _ := search.SpaceSize(len(a), n)
	return searchRes{
		Outcome:   res.Outcome.String(),
		Candidate: res.Candidate,
		Attempts:  res.Attempts,
		Capped:    res.Capped,
		Space:     space,
		RunID:     runID,
		ElapsedUs: elapsed.Microseconds(),
	}
}

// attemptCap combines a client-requested cap with the server's.
func (s *Server) attemptCap(requested int64) int64 {
	limit := s.cfg.SearchMaxAttempts
	if requested > 0 && (limit == 0 || requested < limit) {
		return requested
	}
	return limit
}

// recordRun stores a run in the log; failures are logged and yield id 0.
func (s *Server) recordRun(r *http.Request, a search.Alphabet, n int, res search.Result, elapsed time.Duration) int64 {
	id, err := s.runs.Record(r.Context(), a, n, res, elapsed)
	if err != nil {
		log.Warn().Err(err).Msg("record search run")
		return 0
	}
	return id
}

// handleSearch validates the request, runs the search and records the run.
// Validation failures are 400 with one of:
// invalid_target | empty_alphabet | invalid_alphabet | invalid_length.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "bad_json", "")
		return
	}

	alphabet := s.cfg.Alphabet
	if req.Alphabet != nil {
		alphabet = search.Alphabet(req.Alphabet)
	}
	length := s.cfg.Length
	if req.Length != nil {
		length = *req.Length
	}

	var trace []string
	srch := &search.Searcher{
		Alphabet:    alphabet,
		Length:      length,
		MaxAttempts: s.attemptCap(req.MaxAttempts),
		Observer:    search.LogObserver(log.Logger),
	}
	if req.Trace {
		srch.Observer = search.Observers(srch.Observer, search.ObserverFunc(func(_ int64, c search.Candidate) {
			if len(trace) < traceLimit {
				trace = append(trace, c.String())
			}
		}))
	}

	start := time.Now()
	res, err := srch.Search(r.Context(), search.Candidate(req.Target))
	elapsed := time.Since(start)
	if err != nil {
		if code := searchErrorCode(err); code != "" {
			jsonError(w, http.StatusBadRequest, code, err.Error())
			return
		}
		if errors.Is(err, r.Context().Err()) {
			jsonError(w, http.StatusServiceUnavailable, "timeout", err.Error())
			return
		}
		jsonError(w, http.StatusInternalServerError, "search_failed", err.Error())
		return
	}

	runID := s.recordRun(r, alphabet, length, res, elapsed)
	log.Info().
		Str("outcome", res.Outcome.String()).
		Int64("attempts", res.Attempts).
		Bool("capped", res.Capped).
		Int("alphabet", len(alphabet)).
		Int("length", length).
		Dur("elapsed", elapsed).
		Msg("search")

	out := newSearchRes(alphabet, length, res, runID, elapsed)
	out.Trace = trace
	_ = json.NewEncoder(w).Encode(out)
}

// handleRuns lists recent runs; ?limit=N (default 50).
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := s.runs.Recent(r.Context(), limit)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "db_error", "")
		return
	}
	_ = json.NewEncoder(w).Encode(runs)
}
