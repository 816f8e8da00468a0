package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/robalobadob/combolock/internal/search"
)

// Run is one recorded search.
type Run struct {
	ID        int64     `json:"id"`
	Alphabet  []string  `json:"alphabet"`
	Length    int       `json:"length"`
	Outcome   string    `json:"outcome"`
	Candidate []string  `json:"candidate,omitempty"`
	Attempts  int64     `json:"attempts"`
	Capped    bool      `json:"capped"`
	ElapsedUs int64     `json:"elapsedUs"`
	CreatedAt time.Time `json:"createdAt"`
}

// Runs is a SQLite-backed log of search runs (table search_runs).
type Runs struct{ db *sql.DB }

func NewRuns(db *sql.DB) *Runs { return &Runs{db: db} }

// Record stores the outcome of a search over alphabet with the given length.
// Alphabet and candidate are stored as JSON arrays; symbols are opaque strings.
func (r *Runs) Record(ctx context.Context, alphabet search.Alphabet, length int, res search.Result, elapsed time.Duration) (int64, error) {
	alphabetJSON, err := json.Marshal([]string(alphabet))
	if err != nil {
		return 0, err
	}
	var candJSON []byte
	if res.Candidate != nil {
		if candJSON, err = json.Marshal([]string(res.Candidate)); err != nil {
			return 0, err
		}
	}
	out, err := r.db.ExecContext(ctx,
		`INSERT INTO search_runs (alphabet, length, outcome, candidate, attempts, capped, elapsed_us, created_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		string(alphabetJSON), length, res.Outcome.String(), string(candJSON),
		res.Attempts, res.Capped, elapsed.Microseconds(), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, err
	}
	return out.LastInsertId()
}

// Recent returns up to limit runs, newest first. limit <= 0 means 50.
func (r *Runs) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, alphabet, length, outcome, candidate, attempts, capped, elapsed_us, created_at
		 FROM search_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Run{}
	for rows.Next() {
		var (
			run            Run
			alphabet, cand string
			created        string
		)
		if err := rows.Scan(&run.ID, &alphabet, &run.Length, &run.Outcome, &cand,
			&run.Attempts, &run.Capped, &run.ElapsedUs, &created); err != nil {
			return nil, err
		}
		if err := decodeList(alphabet, &run.Alphabet); err != nil {
			return nil, err
		}
		if err := decodeList(cand, &run.Candidate); err != nil {
			return nil, err
		}
		run.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, run)
	}
	return out, rows.Err()
}

// decodeList reads a JSON array column; the empty string leaves dst nil.
func decodeList(s string, dst *[]string) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), dst)
}
