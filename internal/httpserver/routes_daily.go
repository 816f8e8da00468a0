// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Combination" mode.
// Exposes three endpoints under /daily:
//   - POST /daily/new         → start a daily game (creates or reuses session)
//   - POST /daily/guess       → submit a guess for today's combination
//   - GET  /daily/leaderboard → fetch top 20 results for today (or a given date)
//
// Each user can play once per day (enforced by DB + in-memory session).
// Sessions are held in memory for active play and persisted to DB on win.
// The day's combination is derived from date + salt (daily.Combination).

package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/combolock/internal/daily"
	"github.com/robalobadob/combolock/internal/game"
	"github.com/robalobadob/combolock/internal/search"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	sessions map[string]*dailySession // active sessions keyed by userID|date
	mu       sync.Mutex               // guards sessions
}

// dailySession holds transient in-memory state for an in-progress daily game.
type dailySession struct {
	GameID   string
	UserID   string
	Date     string
	Rank     int64
	Secret   search.Candidate
	Start    time.Time
	Guesses  int
	Finished bool
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.db),
		sessions: make(map[string]*dailySession),
	}
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", dd.handleNew)
		r.Post("/guess", dd.handleGuess)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// today returns today's date key, the combination's rank and the combination.
func (d *dailyServer) today() (date string, rank int64, secret search.Candidate, err error) {
	now := d.srv.now().UTC()
	date = daily.DateKey(now)
	secret, rank, err = daily.Combination(now, d.srv.cfg.DailySalt, d.srv.cfg.Alphabet, d.srv.cfg.Length)
	return date, rank, secret, err
}

// userIDWithAnon returns the authenticated user ID if logged in,
// otherwise ensures an anonymous ID via Server.ensureAnonID.
func (d *dailyServer) userIDWithAnon(w http.ResponseWriter, r *http.Request) string {
	if me := userFrom(r); me != nil {
		return me.ID
	}
	return d.srv.ensureAnonID(w, r)
}

// -----------------------------------------------------------------------------
// /daily/new

// newRes is returned by /daily/new.
type newRes struct {
	GameID string `json:"gameId"`
	Date   string `json:"date"`
	Length int    `json:"length"`
	Played bool   `json:"played"`
}

// handleNew creates or reuses a daily session for the current date.
//   - If user already has a DB row for today → return Played=true.
//   - Otherwise create/reuse an in-memory session and return GameID.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	uid := d.userIDWithAnon(w, r)
	date, rank, secret, err := d.today()
	if err != nil {
		log.Error().Err(err).Msg("daily combination")
		jsonError(w, http.StatusInternalServerError, "daily_unavailable", "")
		return
	}
	length := len(secret)

	if played, err := d.store.AlreadyPlayed(r.Context(), uid, date); err == nil && played {
		_ = json.NewEncoder(w).Encode(newRes{Date: date, Length: length, Played: true})
		return
	}

	key := uid + "|" + date
	d.mu.Lock()
	if sess, ok := d.sessions[key]; ok {
		d.mu.Unlock()
		_ = json.NewEncoder(w).Encode(newRes{GameID: sess.GameID, Date: date, Length: length})
		return
	}
	sess := &dailySession{
		GameID: genID(),
		UserID: uid,
		Date:   date,
		Rank:   rank,
		Secret: secret,
		Start:  d.srv.now(),
	}
	d.sessions[key] = sess
	d.mu.Unlock()

	_ = json.NewEncoder(w).Encode(newRes{GameID: sess.GameID, Date: date, Length: length})
}

// -----------------------------------------------------------------------------
// /daily/guess

// dailyGuessReq is the request payload for /daily/guess.
type dailyGuessReq struct {
	GameID string   `json:"gameId"`
	Guess  []string `json:"guess"`
}

// dailyGuessRes is the response payload for /daily/guess.
type dailyGuessRes struct {
	Marks   []game.Mark `json:"marks"`
	State   string      `json:"state"` // in_progress | won | locked
	Guesses int         `json:"guesses"`
}

// handleGuess validates and applies a guess for today's daily session.
//   - Rejects if no session or session finished.
//   - Validates length and alphabet membership.
//   - Updates session state; persists result to DB if won.
func (d *dailyServer) handleGuess(w http.ResponseWriter, r *http.Request) {
	uid := d.userIDWithAnon(w, r)

	var p dailyGuessReq
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		jsonError(w, http.StatusBadRequest, "bad_json", "")
		return
	}
	date := daily.DateKey(d.srv.now())

	key := uid + "|" + date
	d.mu.Lock()
	sess, ok := d.sessions[key]
	d.mu.Unlock()
	if !ok || p.GameID == "" || sess.GameID != p.GameID {
		jsonError(w, http.StatusConflict, "no_session", "")
		return
	}

	guess := search.Candidate(p.Guess)
	if len(guess) != len(sess.Secret) {
		jsonError(w, http.StatusBadRequest, "invalid_guess", "wrong length")
		return
	}
	for _, sym := range guess {
		if !d.srv.cfg.Alphabet.Contains(sym) {
			jsonError(w, http.StatusBadRequest, "invalid_guess", "unknown symbol "+sym)
			return
		}
	}

	d.mu.Lock()
	if sess.Finished {
		n := sess.Guesses
		d.mu.Unlock()
		_ = json.NewEncoder(w).Encode(dailyGuessRes{Marks: []game.Mark{}, State: "locked", Guesses: n})
		return
	}
	marks := game.Score(sess.Secret, guess)
	sess.Guesses++
	won := game.AllHit(marks)
	if won {
		sess.Finished = true
	}
	guesses := sess.Guesses
	d.mu.Unlock()

	if won {
		elapsed := int(d.srv.now().Sub(sess.Start).Milliseconds())
		if err := d.store.InsertResult(r.Context(), daily.Result{
			UserID: uid, Date: date, Rank: sess.Rank, Guesses: guesses, ElapsedMs: elapsed,
		}); err != nil {
			log.Warn().Err(err).Str("user", uid).Msg("insert daily result")
		}
		_ = json.NewEncoder(w).Encode(dailyGuessRes{Marks: marks, State: "won", Guesses: guesses})
		return
	}
	_ = json.NewEncoder(w).Encode(dailyGuessRes{Marks: marks, State: "in_progress", Guesses: guesses})
}

// -----------------------------------------------------------------------------
// /daily/leaderboard

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(d.srv.now())
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "db_error", "")
		return
	}
	_ = json.NewEncoder(w).Encode(lbRes{Date: date, Top: rows})
}
