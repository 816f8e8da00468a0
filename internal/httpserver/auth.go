// internal/httpserver/auth.go
//
// Accounts for the combolock backend.
//   - POST /auth/signup, /auth/login, /auth/logout
//   - GET  /auth/me, /stats/me, /games/mine (require auth)
//   - Optional-auth middleware for game/daily routes, anonymous session cookie.
//   - HS256 JWTs carried as Bearer token or cookie; bcrypt password hashes.

package httpserver

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultCookieName = "combolock_token"
	anonCookieName    = "combolock_anon"
	devSecret         = "dev_secret_change_me"
	anonCookieTTL     = 180 * 24 * time.Hour
)

var (
	errUsernameTaken = errors.New("username taken")
	errNoToken       = errors.New("no token")
	errBadToken      = errors.New("invalid token")
)

// credentials is the payload of /auth/signup and /auth/login.
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// authUser is placed into request context by auth middleware.
type authUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// sessionClaims is the JWT body.
type sessionClaims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type ctxUserKey struct{}

// userFrom returns the authenticated user on r, or nil for guests.
func userFrom(r *http.Request) *authUser {
	me, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	return me
}

func withUser(r *http.Request, u *authUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u))
}

// mountAuthRoutes registers authentication + gated routes (/auth/*, /stats/me, /games/mine).
func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, authCookie("", time.Time{}))
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	})

	s.r.Group(func(r chi.Router) {
		r.Use(s.requireAuth())
		r.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(userFrom(r))
		})
		r.Get("/stats/me", s.handleMyStats)
		r.Get("/games/mine", s.handleMyGames)
	})
}

func (s *Server) handleMyStats(w http.ResponseWriter, r *http.Request) {
	u, err := s.findUser(r.Context(), "id", userFrom(r).ID)
	if err != nil {
		jsonError(w, http.StatusNotFound, "not_found", "")
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":          u.ID,
		"gamesPlayed": u.GamesPlayed,
		"wins":        u.Wins,
		"streak":      u.Streak,
	})
}

// gameRow is one entry of /games/mine.
type gameRow struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Guesses    int    `json:"guesses"`
	StartedAt  string `json:"startedAt"`
	FinishedAt string `json:"finishedAt,omitempty"`
}

func (s *Server) handleMyGames(w http.ResponseWriter, r *http.Request) {
	out, err := s.recentGames(r.Context(), userFrom(r).ID, 50)
	if err != nil {
		log.Error().Err(err).Msg("list games")
		jsonError(w, http.StatusInternalServerError, "db_error", "")
		return
	}
	_ = json.NewEncoder(w).Encode(out)
}

// recentGames lists a user's games, newest first. A row that fails to scan
// fails the whole listing.
func (s *Server) recentGames(ctx context.Context, userID string, limit int) ([]gameRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, status, guesses, started_at, COALESCE(finished_at,'')
	                         FROM games WHERE user_id=? ORDER BY started_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []gameRow{}
	for rows.Next() {
		var gr gameRow
		if err := rows.Scan(&gr.ID, &gr.Status, &gr.Guesses, &gr.StartedAt, &gr.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan game row: %w", err)
		}
		out = append(out, gr)
	}
	return out, rows.Err()
}

// handleSignup creates a new user and starts a session.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid_json", "")
		return
	}
	u, err := s.createUser(r.Context(), body.Username, body.Password)
	switch {
	case errors.Is(err, errUsernameTaken):
		jsonError(w, http.StatusConflict, "username_taken", "")
		return
	case err != nil:
		jsonError(w, http.StatusBadRequest, "invalid_signup", err.Error())
		return
	}
	s.startSession(w, r, u, map[string]any{"createdAt": u.CreatedAt})
}

// handleLogin checks credentials and starts a session.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid_json", "")
		return
	}
	u, err := s.findUser(r.Context(), "username", strings.TrimSpace(body.Username))
	if err != nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(body.Password)) != nil {
		jsonError(w, http.StatusUnauthorized, "invalid_credentials", "")
		return
	}
	s.startSession(w, r, u, nil)
}

// startSession signs a token for u, sets the auth cookie, moves the caller's
// anonymous games onto the account and writes {id, username, token, extra...}.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, u *userRow, extra map[string]any) {
	tok, exp, err := signJWT(u.ID, u.Username)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "sign_failed", "")
		return
	}
	http.SetCookie(w, authCookie(tok, exp))
	s.claimAnonGames(r.Context(), s.ensureAnonID(w, r), u.ID)

	body := map[string]any{"id": u.ID, "username": u.Username, "token": tok}
	for k, v := range extra {
		body[k] = v
	}
	_ = json.NewEncoder(w).Encode(body)
}

// --------------------------- middleware ------------------------------------

// withOptionalAuth attaches the user when a valid token is present and never 401s.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u, err := s.userFromToken(r); err == nil {
				r = withUser(r, u)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireAuth rejects requests without a valid token.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, err := s.userFromToken(r)
			if err != nil {
				jsonError(w, http.StatusUnauthorized, "unauthorized", "")
				return
			}
			next.ServeHTTP(w, withUser(r, u))
		})
	}
}

// userFromToken validates the request's token and checks the user still exists.
func (s *Server) userFromToken(r *http.Request) (*authUser, error) {
	raw := bearerOrCookie(r)
	if raw == "" {
		return nil, errNoToken
	}
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return jwtSecret(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || claims.ID == "" || claims.Username == "" {
		return nil, errBadToken
	}
	if _, err := s.findUser(r.Context(), "id", claims.ID); err != nil {
		return nil, err
	}
	return &authUser{ID: claims.ID, Username: claims.Username}, nil
}

// ensureAnonID returns the anon cookie's value, setting a fresh one if absent.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := genID()
	c := authCookie(id, time.Now().Add(anonCookieTTL))
	c.Name = anonCookieName
	http.SetCookie(w, c)
	// later reads in this request see the same id
	r.AddCookie(&http.Cookie{Name: anonCookieName, Value: id})
	return id
}

// claimAnonGames transfers any anonymous games to a user account after auth.
func (s *Server) claimAnonGames(ctx context.Context, anonID, userID string) {
	if anonID == "" || userID == "" {
		return
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE games SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`, userID, anonID); err != nil {
		log.Warn().Err(err).Msg("claim anon games")
	}
}

// ------------------------ users -------------------------------------------

type userRow struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	GamesPlayed  int
	Wins         int
	Streak       int
}

// createUser validates input, hashes the password and inserts the user.
// Uniqueness (case-insensitive) is left to the users.username constraint.
func (s *Server) createUser(ctx context.Context, username, pw string) (*userRow, error) {
	username = strings.TrimSpace(username)
	if err := validateSignup(username, pw); err != nil {
		return nil, err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &userRow{ID: genID(), Username: username, PasswordHash: string(h), CreatedAt: time.Now().UTC().Truncate(time.Second)}
	_, err = s.db.ExecContext(ctx, `INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt.Format(time.RFC3339))
	var se sqlite3.Error
	if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
		return nil, errUsernameTaken
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// findUser loads a user by "id" or "username" (case-insensitive via the column collation).
func (s *Server) findUser(ctx context.Context, by, value string) (*userRow, error) {
	if by != "id" && by != "username" {
		return nil, fmt.Errorf("find user by %q", by)
	}
	row := s.db.QueryRowContext(ctx, `SELECT id, username, password_hash, created_at, games_played, wins, streak
	                      FROM users WHERE `+by+`=?`, value)

	var (
		u       userRow
		created string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created, &u.GamesPlayed, &u.Wins, &u.Streak); err != nil {
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &u, nil
}

// validateSignup enforces basic username/password rules.
func validateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3-24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 72 {
		return errors.New("password must be 8-72 chars")
	}
	return nil
}

// genID creates a 22-char URL-safe random identifier.
func genID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// bumpStats records a finished game for userID inside tx.
func bumpStats(tx *sql.Tx, userID string, won bool) error {
	q := `UPDATE users SET games_played = games_played + 1, streak = 0 WHERE id=?`
	if won {
		q = `UPDATE users SET games_played = games_played + 1, wins = wins + 1, streak = streak + 1 WHERE id=?`
	}
	res, err := tx.Exec(q, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ------------------------------ JWT & cookies ------------------------------

func jwtSecret() []byte { return []byte(getEnv("JWT_SECRET", devSecret)) }

// signJWT issues an HS256 token valid for JWT_EXPIRES_DAYS (default 14).
func signJWT(id, username string) (string, time.Time, error) {
	days, err := strconv.Atoi(getEnv("JWT_EXPIRES_DAYS", "14"))
	if err != nil || days <= 0 {
		days = 14
	}
	now := time.Now()
	exp := now.Add(time.Duration(days) * 24 * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		ID:       id,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	ss, err := t.SignedString(jwtSecret())
	return ss, exp, err
}

// authCookie builds the HttpOnly session cookie. An empty value with a zero
// exp deletes it. SameSite=None requires Secure, so it is production-only.
func authCookie(value string, exp time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     getEnv("COOKIE_NAME", defaultCookieName),
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	}
	if os.Getenv("NODE_ENV") == "production" {
		c.Secure, c.SameSite = true, http.SameSiteNoneMode
	}
	if value == "" && exp.IsZero() {
		c.MaxAge = -1
	}
	return c
}

// bearerOrCookie extracts the token from the Authorization header or the auth cookie.
func bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); len(a) > 7 && strings.EqualFold(a[:7], "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(getEnv("COOKIE_NAME", defaultCookieName)); err == nil {
		return c.Value
	}
	return ""
}
