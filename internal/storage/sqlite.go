// Package storage persists simulation results: a SQLite run history plus the
// pos.json and alive.csv files of a single run.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/chase/internal/chase"
)

// Store manages the SQLite database connection for run history.
type Store struct {
	db *sql.DB
}

// RunInfo describes one recorded simulation run.
type RunInfo struct {
	ID        int64
	Seed      int64
	Params    chase.Params
	Rounds    int  // Rounds executed so far
	Survivors int  // Living sheep after the last recorded round
	Finished  bool // Whether the run completed and its positions were saved
	CreatedAt time.Time
}

// RoundCount is the survivor count recorded for one round.
type RoundCount struct {
	Round int
	Alive int
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	// Wait for other writers (another chase process) instead of failing.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// SQLite allows one writer at a time; SSH sessions share this handle.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			seed INTEGER NOT NULL,
			max_rounds INTEGER NOT NULL,
			flock_size INTEGER NOT NULL,
			init_pos_limit REAL NOT NULL,
			sheep_move_dist REAL NOT NULL,
			wolf_move_dist REAL NOT NULL,
			rounds_played INTEGER NOT NULL DEFAULT 0,
			survivors INTEGER NOT NULL DEFAULT 0,
			finished INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS round_counts (
			run_id INTEGER NOT NULL,
			round_no INTEGER NOT NULL,
			alive INTEGER NOT NULL,
			PRIMARY KEY (run_id, round_no)
		);

		CREATE TABLE IF NOT EXISTS round_positions (
			run_id INTEGER NOT NULL,
			round_no INTEGER NOT NULL,
			payload TEXT NOT NULL,
			PRIMARY KEY (run_id, round_no)
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// BeginRun records the start of a run and returns its ID.
func (s *Store) BeginRun(seed int64, p chase.Params) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO runs (seed, max_rounds, flock_size, init_pos_limit, sheep_move_dist, wolf_move_dist, survivors)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		seed, p.MaxRounds, p.FlockSize, p.InitPosLimit, p.SheepMoveDist, p.WolfMoveDist, p.FlockSize,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// SaveRoundCount commits the survivor count of one round and advances the
// run's progress, so an interrupted run keeps every completed round.
func (s *Store) SaveRoundCount(runID int64, round, alive int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(
		"INSERT INTO round_counts (run_id, round_no, alive) VALUES (?, ?, ?)",
		runID, round, alive,
	); err != nil {
		return fmt.Errorf("storage: cannot save round count: %w", err)
	}
	if _, err := tx.Exec(
		"UPDATE runs SET rounds_played = ?, survivors = ? WHERE id = ?",
		round, alive, runID,
	); err != nil {
		return fmt.Errorf("storage: cannot update run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit round count: %w", err)
	}
	return nil
}

// SaveSummaries stores every round's positions and marks the run finished,
// in a single transaction.
func (s *Store) SaveSummaries(runID int64, summaries []chase.RoundSummary) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.Prepare("INSERT INTO round_positions (run_id, round_no, payload) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("storage: cannot prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, sum := range summaries {
		payload, err := json.Marshal(NewRoundRecord(sum))
		if err != nil {
			return fmt.Errorf("storage: cannot encode round %d: %w", sum.Round, err)
		}
		if _, err := stmt.Exec(runID, sum.Round, string(payload)); err != nil {
			return fmt.Errorf("storage: cannot save round %d: %w", sum.Round, err)
		}
	}

	if _, err := tx.Exec("UPDATE runs SET finished = 1 WHERE id = ?", runID); err != nil {
		return fmt.Errorf("storage: cannot finish run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit summaries: %w", err)
	}
	return nil
}

const runColumns = `id, seed, max_rounds, flock_size, init_pos_limit, sheep_move_dist, wolf_move_dist,
	rounds_played, survivors, finished, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunInfo, error) {
	var r RunInfo
	var createdAt any
	err := row.Scan(
		&r.ID,
		&r.Seed,
		&r.Params.MaxRounds,
		&r.Params.FlockSize,
		&r.Params.InitPosLimit,
		&r.Params.SheepMoveDist,
		&r.Params.WolfMoveDist,
		&r.Rounds,
		&r.Survivors,
		&r.Finished,
		&createdAt,
	)
	if err != nil {
		return r, err
	}
	r.CreatedAt = parseTime(createdAt)
	return r, nil
}

// parseTime handles both time.Time and string datetimes from the driver.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// RecentRuns retrieves the most recent runs, newest first.
func (s *Store) RecentRuns(limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		"SELECT "+runColumns+" FROM runs ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return runs, nil
}

// RunByID retrieves a run. Returns nil if it does not exist.
func (s *Store) RunByID(id int64) (*RunInfo, error) {
	r, err := scanRun(s.db.QueryRow("SELECT "+runColumns+" FROM runs WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query run: %w", err)
	}
	return &r, nil
}

// RoundCounts retrieves the survivor curve of a run in round order.
func (s *Store) RoundCounts(runID int64) ([]RoundCount, error) {
	rows, err := s.db.Query(
		"SELECT round_no, alive FROM round_counts WHERE run_id = ? ORDER BY round_no",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query round counts: %w", err)
	}
	defer rows.Close()

	var counts []RoundCount
	for rows.Next() {
		var c RoundCount
		if err := rows.Scan(&c.Round, &c.Alive); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return counts, nil
}

// Positions retrieves the stored round records of a finished run.
func (s *Store) Positions(runID int64) ([]RoundRecord, error) {
	rows, err := s.db.Query(
		"SELECT payload FROM round_positions WHERE run_id = ? ORDER BY round_no",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query positions: %w", err)
	}
	defer rows.Close()

	var records []RoundRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		var rec RoundRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("storage: cannot decode positions: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return records, nil
}

// ClearRuns deletes the whole run history.
func (s *Store) ClearRuns() error {
	for _, table := range []string{"round_positions", "round_counts", "runs"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("storage: cannot clear %s: %w", table, err)
		}
	}
	return nil
}
