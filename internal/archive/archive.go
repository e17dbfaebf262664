// Package archive keeps optimisation results in a SQLite database so good
// layouts survive between runs and can seed later searches.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"mana-ca/internal/bees"
	"mana-ca/internal/config"
	"mana-ca/internal/fitness"
	"mana-ca/internal/sims/dandelifeon"
)

// ErrNoRuns is returned by Best on an empty archive.
var ErrNoRuns = errors.New("archive holds no runs")

const schema = `
CREATE TABLE IF NOT EXISTS runs(
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at  INTEGER NOT NULL,
	seed        TEXT    NOT NULL,
	policy      TEXT    NOT NULL,
	generations INTEGER NOT NULL,
	evaluations INTEGER NOT NULL,
	stop_reason TEXT    NOT NULL,
	reason      TEXT    NOT NULL,
	mana        INTEGER NOT NULL,
	cost        INTEGER NOT NULL,
	steps       INTEGER NOT NULL,
	truncated   INTEGER NOT NULL,
	board       TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_rank ON runs(mana DESC, cost ASC, steps ASC);
CREATE TABLE IF NOT EXISTS generations(
	run_id      INTEGER NOT NULL REFERENCES runs(id),
	generation  INTEGER NOT NULL,
	mana        INTEGER NOT NULL,
	cost        INTEGER NOT NULL,
	steps       INTEGER NOT NULL,
	value       REAL    NOT NULL,
	evaluations INTEGER NOT NULL,
	PRIMARY KEY(run_id, generation)
);`

// Store is an open archive.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the archive at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Run is one archived optimisation result.
type Run struct {
	ID          int64               `json:"id"`
	CreatedAt   time.Time           `json:"created_at"`
	Seed        uint64              `json:"seed"`
	Policy      string              `json:"policy"`
	Generations int                 `json:"generations"`
	Evaluations int                 `json:"evaluations"`
	StopReason  bees.StopReason     `json:"stop_reason"`
	Outcome     dandelifeon.Outcome `json:"outcome"`
	Board       *dandelifeon.Board  `json:"-"`
}

// Save stores a result and its per-generation history in one transaction.
func (s *Store) Save(ctx context.Context, res bees.Result, policy string) (int64, error) {
	board, err := json.Marshal(config.EncodeBoard(res.Best.Board))
	if err != nil {
		return 0, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	out := res.Best.Outcome
	row, err := tx.ExecContext(ctx, `INSERT INTO runs(created_at, seed, policy, generations, evaluations, stop_reason,
		reason, mana, cost, steps, truncated, board) VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`,
		s.now().Unix(), strconv.FormatUint(res.Seed, 10), policy, res.Generation, res.Evaluations, string(res.StopReason),
		out.Reason.String(), out.Mana, out.Cost, out.Steps, out.Truncated, string(board))
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := row.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, h := range res.History {
		if _, err := tx.ExecContext(ctx, `INSERT INTO generations(run_id, generation, mana, cost, steps, value, evaluations)
			VALUES(?,?,?,?,?,?,?)`, id, h.Generation, h.Best.Mana, h.Best.Cost, h.Best.Steps, h.Best.Value, h.Evaluations); err != nil {
			return 0, fmt.Errorf("insert generation %d: %w", h.Generation, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

const runColumns = `id, created_at, seed, policy, generations, evaluations, stop_reason, reason, mana, cost, steps, truncated, board`

// Top returns up to limit runs, best outcome first in lexicographic order
// (mana, then cost, then steps) whatever policy each run was searched under.
func (s *Store) Top(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs
		ORDER BY mana DESC, cost ASC, steps ASC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Best returns the highest ranked run.
func (s *Store) Best(ctx context.Context) (Run, error) {
	runs, err := s.Top(ctx, 1)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, ErrNoRuns
	}
	return runs[0], nil
}

// BestBy returns the run whose outcome policy ranks highest, the oldest run
// on ties. Outcomes are rescored, so runs archived under another policy or
// other weights compete on equal terms.
func (s *Store) BestBy(ctx context.Context, policy fitness.Policy) (Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY id ASC`)
	if err != nil {
		return Run{}, err
	}
	defer rows.Close()
	var (
		best      Run
		bestScore fitness.Score
		found     bool
	)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		score := policy.Evaluate(r.Outcome)
		if !found || policy.Compare(score, bestScore) > 0 {
			best, bestScore, found = r, score, true
		}
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	if !found {
		return Run{}, ErrNoRuns
	}
	return best, nil
}

// History returns the stored per-generation best scores of a run.
func (s *Store) History(ctx context.Context, runID int64) ([]bees.GenerationStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT generation, mana, cost, steps, value, evaluations
		FROM generations WHERE run_id = ? ORDER BY generation`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []bees.GenerationStats
	for rows.Next() {
		var g bees.GenerationStats
		var score fitness.Score
		if err := rows.Scan(&g.Generation, &score.Mana, &score.Cost, &score.Steps, &score.Value, &g.Evaluations); err != nil {
			return nil, err
		}
		g.Best = score
		out = append(out, g)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r         Run
		created   int64
		seed      string
		stop      string
		reason    string
		truncated bool
		board     string
	)
	if err := sc.Scan(&r.ID, &created, &seed, &r.Policy, &r.Generations, &r.Evaluations, &stop,
		&reason, &r.Outcome.Mana, &r.Outcome.Cost, &r.Outcome.Steps, &truncated, &board); err != nil {
		return Run{}, err
	}
	r.CreatedAt = time.Unix(created, 0)
	r.StopReason = bees.StopReason(stop)
	r.Outcome.Truncated = truncated
	var err error
	if r.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
		return Run{}, fmt.Errorf("run %d seed: %w", r.ID, err)
	}
	if err := r.Outcome.Reason.UnmarshalText([]byte(reason)); err != nil {
		return Run{}, fmt.Errorf("run %d: %w", r.ID, err)
	}
	if r.Board, err = config.ParseBoardJSON([]byte(board), dandelifeon.AllowBlockedInZone()); err != nil {
		return Run{}, fmt.Errorf("run %d board: %w", r.ID, err)
	}
	return r, nil
}
