// internal/httpserver/server.go
//
// HTTP server wiring for the combolock backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/debug/alphabet".
//   - Search endpoints: POST /search, GET /search/runs (routes_search.go).
//   - Game endpoints (optional auth): POST /game/new, /game/guess, /game/solve.
//   - Daily endpoints (optional auth): mounted under /daily (routes_daily.go).
//   - Auth + profile/stat endpoints: /auth/*, /stats/me, /games/mine (auth.go).
//
// Notes:
//   - CORS is origin‑aware and credentials‑enabled (so cookies work).
//   - Games live in the in-memory store; the games table only keeps owner/status/counters.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/combolock/internal/game"
	"github.com/robalobadob/combolock/internal/search"
	"github.com/robalobadob/combolock/internal/store"
	"github.com/robalobadob/combolock/internal/symbols"
)

// DefaultMaxLength bounds the combination length of /game/new when Config leaves it unset.
const DefaultMaxLength = 8

// Config carries the domain settings the handlers need.
type Config struct {
	Alphabet          search.Alphabet // default alphabet for games, daily and /search
	Length            int             // default combination length
	MaxGuesses        int             // rows per game
	MaxLength         int             // longest combination /game/new accepts
	SearchMaxAttempts int64           // upper bound on attempts for any HTTP-triggered search; 0 = none
	DailySalt         string
}

// Server bundles router, in-memory game store, DB handle and run log.
type Server struct {
	r     *chi.Mux
	store store.Store
	db    *sql.DB
	runs  *store.Runs
	cfg   Config
	now   func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, db *sql.DB, cfg Config) *Server {
	if cfg.Length <= 0 {
		cfg.Length = search.DefaultLength
	}
	if cfg.MaxGuesses <= 0 {
		cfg.MaxGuesses = game.DefaultRows
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = DefaultMaxLength
	}
	s := &Server{r: chi.NewRouter(), store: st, db: db, runs: store.NewRuns(db), cfg: cfg, now: time.Now}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time (and search time)
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsFromEnv)                     // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"combolock","endpoints":["/health","POST /search","POST /game/new","POST /game/guess","POST /game/solve","/daily/*","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/debug/alphabet", func(w http.ResponseWriter, r *http.Request) {
		sr := search.Searcher{Alphabet: s.cfg.Alphabet, Length: s.cfg.Length}
		space, ok := sr.Space()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"alphabet":      s.cfg.Alphabet,
			"length":        s.cfg.Length,
			"maxLength":     s.cfg.MaxLength,
			"space":         space,
			"spaceOverflow": !ok,
			"loadedSymbols": symbols.Stats(), // 0 when the server was built with an explicit alphabet
		})
	})

	s.mountSearch()

	// Game endpoints — OPTIONAL AUTH (guests can play)
	s.r.With(s.withOptionalAuth()).Post("/game/new", s.handleNewGame)
	s.r.With(s.withOptionalAuth()).Post("/game/guess", s.handleGuess)
	s.r.With(s.withOptionalAuth()).Post("/game/solve", s.handleSolve)

	s.mountDaily(s.r.With(s.withOptionalAuth()))

	s.mountAuthRoutes()

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables credentialed CORS for a single origin.
// Uses CLIENT_ORIGIN env var; defaults to http://localhost:5173.
func corsFromEnv(next http.Handler) http.Handler {
	origin := getEnv("CLIENT_ORIGIN", "http://localhost:5173")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// jsonError writes {"error": code} and, when detail is non-empty, {"detail": detail}.
func jsonError(w http.ResponseWriter, status int, code, detail string) {
	body := map[string]string{"error": code}
	if detail != "" {
		body["detail"] = detail
	}
	_ = writeJSON(w, status, body)
}

// searchErrorCode maps validation errors from the search package to API codes.
func searchErrorCode(err error) string {
	switch {
	case errors.Is(err, search.ErrInvalidTarget):
		return "invalid_target"
	case errors.Is(err, search.ErrEmptyAlphabet):
		return "empty_alphabet"
	case errors.Is(err, search.ErrInvalidAlphabet):
		return "invalid_alphabet"
	case errors.Is(err, search.ErrInvalidLength):
		return "invalid_length"
	}
	return ""
}

// ------------------------------ GAME ---------------------------------------

// newGameReq/Res payloads for POST /game/new.
type newGameReq struct {
	Length int      `json:"length"` // optional; defaults to Config.Length
	Secret []string `json:"secret"` // optional fixed secret (testing)
}
type newGameRes struct {
	GameID   string   `json:"gameId"`
	Alphabet []string `json:"alphabet"`
	Length   int      `json:"length"`
	Rows     int      `json:"rows"`
}

// handleNewGame creates a new in-memory game and persists a DB "owner" row
// (either user_id or anonymous_id) for history/stats.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, http.StatusBadRequest, "bad_json", "")
		return
	}

	length := req.Length
	if length == 0 {
		length = s.cfg.Length
		if len(req.Secret) > 0 {
			length = len(req.Secret)
		}
	}
	if length > s.cfg.MaxLength {
		jsonError(w, http.StatusBadRequest, "invalid_length", fmt.Sprintf("length %d exceeds %d", length, s.cfg.MaxLength))
		return
	}
	var secret search.Candidate
	if req.Secret != nil {
		secret = search.Candidate(req.Secret)
	}
	g, err := game.New(s.cfg.Alphabet, length, secret)
	if err != nil {
		jsonError(w, http.StatusBadRequest, searchErrorCode(err), err.Error())
		return
	}
	g.Rows = s.cfg.MaxGuesses
	if err := s.store.Save(r.Context(), g); err != nil {
		log.Error().Err(err).Msg("save game")
		jsonError(w, http.StatusInternalServerError, "save_failed", "")
		return
	}

	now := s.now().UTC().Format(time.RFC3339)
	if me := userFrom(r); me != nil {
		_, err := s.db.ExecContext(r.Context(), `INSERT INTO games (id, user_id, started_at, status, guesses)
		                     VALUES (?,?,?,?,0)`, g.ID, me.ID, now, "playing")
		if err != nil {
			log.Warn().Err(err).Str("gameId", g.ID).Msg("insert user game row")
		}
	} else {
		anon := s.ensureAnonID(w, r)
		_, err := s.db.ExecContext(r.Context(), `INSERT INTO games (id, anonymous_id, started_at, status, guesses)
		                     VALUES (?,?,?,?,0)`, g.ID, anon, now, "playing")
		if err != nil {
			log.Warn().Err(err).Str("gameId", g.ID).Msg("insert anon game row")
		}
	}

	_ = json.NewEncoder(w).Encode(newGameRes{GameID: g.ID, Alphabet: g.Alphabet, Length: g.Cols, Rows: g.Rows})
}

// guessReq/Res payloads for POST /game/guess.
type guessReq struct {
	GameID string   `json:"gameId"`
	Guess  []string `json:"guess"`
}
type guessRes struct {
	Marks []game.Mark `json:"marks"`
	State string      `json:"state"` // "playing" | "won" | "lost"
}

// handleGuess applies a guess to an in-memory game, persists progress,
// and (if finished) updates user stats in a best-effort transaction.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "bad_json", "")
		return
	}
	var (
		marks []game.Mark
		state string
	)
	err := s.store.Update(r.Context(), req.GameID, func(g *game.Game) error {
		var err error
		marks, state, err = g.ApplyGuess(search.Candidate(req.Guess))
		return err
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, "not_found", "")
		return
	case errors.Is(err, game.ErrFinished):
		jsonError(w, http.StatusBadRequest, "game_finished", err.Error())
		return
	case err != nil:
		jsonError(w, http.StatusBadRequest, "invalid_guess", err.Error())
		return
	}

	s.recordProgress(w, r, req.GameID, state, true)
	_ = json.NewEncoder(w).Encode(guessRes{Marks: marks, State: state})
}

// solveReq/Res payloads for POST /game/solve.
type solveReq struct {
	GameID      string `json:"gameId"`
	MaxAttempts int64  `json:"maxAttempts"`
}
type solveRes struct {
	searchRes
	State string `json:"state"`
}

// handleSolve brute-forces a game's secret. Solving gives the game up:
// a game still in play is finished as lost. The search itself only reads
// fields fixed at creation, so it runs outside Update.
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req solveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "bad_json", "")
		return
	}
	g, err := s.store.Get(r.Context(), req.GameID)
	if err != nil {
		jsonError(w, http.StatusNotFound, "not_found", "")
		return
	}

	start := time.Now()
	res, err := g.Solve(r.Context(), s.attemptCap(req.MaxAttempts), search.LogObserver(log.Logger))
	elapsed := time.Since(start)
	if err != nil {
		jsonError(w, http.StatusServiceUnavailable, "timeout", err.Error())
		return
	}
	runID := s.recordRun(r, g.Alphabet, g.Cols, res, elapsed)

	var (
		wasPlaying bool
		state      string
	)
	if err := s.store.Update(r.Context(), g.ID, func(g *game.Game) error {
		wasPlaying = !g.Finished
		g.Finished = true
		state = g.State()
		return nil
	}); err != nil {
		jsonError(w, http.StatusNotFound, "not_found", "")
		return
	}
	if wasPlaying {
		s.recordProgress(w, r, g.ID, state, false)
	}
	_ = json.NewEncoder(w).Encode(solveRes{searchRes: newSearchRes(g.Alphabet, g.Cols, res, runID, elapsed), State: state})
}

// recordProgress updates the games row (guess counter, final status) and, for
// signed-in users, their stats. Best effort: failures are logged, not returned.
func (s *Server) recordProgress(w http.ResponseWriter, r *http.Request, gameID, state string, countGuess bool) {
	me := userFrom(r)
	ownerClause := `anonymous_id=?`
	var ownerArg any
	if me != nil {
		ownerClause = `user_id=?`
		ownerArg = me.ID
	} else {
		ownerArg = s.ensureAnonID(w, r)
	}

	tx, err := s.db.BeginTx(r.Context(), nil)
	if err != nil {
		log.Warn().Err(err).Msg("begin progress tx")
		return
	}
	defer func() { _ = tx.Rollback() }()

	if countGuess {
		if _, err := tx.Exec(`UPDATE games SET guesses = guesses + 1 WHERE id=? AND `+ownerClause, gameID, ownerArg); err != nil {
			log.Warn().Err(err).Msg("update guesses")
		}
	}
	if state == "won" || state == "lost" {
		if _, err := tx.Exec(`UPDATE games SET status=?, finished_at=? WHERE id=? AND `+ownerClause,
			state, s.now().UTC().Format(time.RFC3339), gameID, ownerArg); err != nil {
			log.Warn().Err(err).Msg("finish game")
		}
		if me != nil {
			if err := bumpStats(tx, me.ID, state == "won"); err != nil {
				log.Warn().Err(err).Str("user", me.ID).Msg("bump stats")
			}
		}
	}
	if err := tx.Commit(); err != nil {
		log.Warn().Err(err).Msg("commit progress")
	}
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
