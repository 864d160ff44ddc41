// Package storage keeps run history in SQLite: one row per run, one per
// agent turn, and the final project specification of each run.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/TheAllen/Acadia/internal/models"
)

var ErrNotFound = errors.New("not found")

// The browser polls while a run writes from another process, hence WAL and
// a busy timeout.
const pragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// migrations are applied in order; PRAGMA user_version records how many
// have run.
var migrations = []string{
	`CREATE TABLE runs (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		completed_at  TIMESTAMP,
		prompt        TEXT NOT NULL,
		pipeline      TEXT NOT NULL,
		output_path   TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL DEFAULT 'pending',
		current_agent TEXT,
		error         TEXT,
		focus         TEXT,
		model         TEXT
	);
	CREATE INDEX idx_runs_status ON runs(status);

	CREATE TABLE executions (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id       INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq          INTEGER NOT NULL,
		agent        TEXT NOT NULL,
		role         TEXT NOT NULL,
		final_state  INTEGER NOT NULL DEFAULT 0,
		status       TEXT NOT NULL DEFAULT 'pending',
		started_at   TIMESTAMP,
		completed_at TIMESTAMP,
		error        TEXT,
		UNIQUE(run_id, seq)
	);`,

	`CREATE TABLE project_specs (
		run_id   INTEGER PRIMARY KEY REFERENCES runs(id) ON DELETE CASCADE,
		snapshot TEXT NOT NULL,
		saved_at TIMESTAMP NOT NULL
	);`,
}

type Storage struct {
	db *sql.DB
}

func New(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath+pragmas)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dbPath, err)
	}

	s := &Storage{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate %s: %w", dbPath, err)
	}
	return s, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) migrate() error {
	var version int
	if err := s.db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return err
	}

	for i := version; i < len(migrations); i++ {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, i+1)); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

type row interface {
	Scan(dest ...any) error
}

const runSelect = `SELECT id, created_at, completed_at, prompt, pipeline, output_path,
	status, current_agent, error, focus, model FROM runs`

func scanRun(r row) (*models.Run, error) {
	var (
		run                             models.Run
		completedAt                     sql.NullTime
		agent, errText, focus, modelStr sql.NullString
	)
	if err := r.Scan(&run.ID, &run.CreatedAt, &completedAt, &run.InitialPrompt, &run.PipelineName,
		&run.WorkspacePath, &run.Status, &agent, &errText, &focus, &modelStr); err != nil {
		return nil, err
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	run.CurrentAgent = agent.String
	run.Error = errText.String
	run.Focus = models.ProjectFocus(focus.String)
	run.Model = models.ModelChoice(modelStr.String)
	return &run, nil
}

func (s *Storage) CreateRun(run *models.Run) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO runs (prompt, pipeline, output_path, status, current_agent, focus, model)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.InitialPrompt, run.PipelineName, run.WorkspacePath, run.Status,
		run.CurrentAgent, string(run.Focus), string(run.Model),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return res.LastInsertId()
}

func (s *Storage) GetRun(id int64) (*models.Run, error) {
	run, err := scanRun(s.db.QueryRow(runSelect+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", id, ErrNotFound)
	}
	return run, err
}

// UpdateRun writes the mutable run fields: status, progress, outcome and
// output path.
func (s *Storage) UpdateRun(run *models.Run) error {
	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, current_agent = ?, output_path = ?, error = ?, completed_at = ?
		 WHERE id = ?`,
		run.Status, run.CurrentAgent, run.WorkspacePath, run.Error, run.CompletedAt, run.ID,
	)
	return err
}

// ListRuns returns up to limit runs, newest first.
func (s *Storage) ListRuns(limit int) ([]*models.Run, error) {
	rows, err := s.db.Query(runSelect+` ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (s *Storage) CreateExecution(e *models.Execution) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO executions (run_id, seq, agent, role, final_state, status, started_at, completed_at, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.SequenceNum, e.AgentName, e.Role, int(e.FinalState), e.Status,
		e.StartedAt, e.CompletedAt, e.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert execution %d of run %d: %w", e.SequenceNum, e.RunID, err)
	}
	return res.LastInsertId()
}

func scanExecution(r row) (*models.Execution, error) {
	var (
		e                  models.Execution
		state              int
		started, completed sql.NullTime
		errText            sql.NullString
	)
	if err := r.Scan(&e.ID, &e.RunID, &e.SequenceNum, &e.AgentName, &e.Role, &state,
		&e.Status, &started, &completed, &errText); err != nil {
		return nil, err
	}

	e.FinalState = models.AgentState(state)
	if started.Valid {
		e.StartedAt = &started.Time
	}
	if completed.Valid {
		e.CompletedAt = &completed.Time
	}
	e.Error = errText.String
	return &e, nil
}

// GetExecutionsForRun returns a run's agent turns in pipeline order.
func (s *Storage) GetExecutionsForRun(runID int64) ([]*models.Execution, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, seq, agent, role, final_state, status, started_at, completed_at, error
		 FROM executions WHERE run_id = ? ORDER BY seq`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Storage) UpdateExecution(e *models.Execution) error {
	_, err := s.db.Exec(
		`UPDATE executions SET final_state = ?, status = ?, started_at = ?, completed_at = ?, error = ?
		 WHERE id = ?`,
		int(e.FinalState), e.Status, e.StartedAt, e.CompletedAt, e.Error, e.ID,
	)
	return err
}

// SaveProjectSpec stores the JSON snapshot for a run, replacing any earlier
// one.
func (s *Storage) SaveProjectSpec(runID int64, snapshot []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO project_specs (run_id, snapshot, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET snapshot = excluded.snapshot, saved_at = excluded.saved_at`,
		runID, string(snapshot), time.Now(),
	)
	return err
}

func (s *Storage) GetProjectSpec(runID int64) ([]byte, error) {
	var snapshot string
	err := s.db.QueryRow(`SELECT snapshot FROM project_specs WHERE run_id = ?`, runID).Scan(&snapshot)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("project spec for run %d: %w", runID, ErrNotFound)
	case err != nil:
		return nil, err
	}
	return []byte(snapshot), nil
}

// DeleteRun removes a run. Its executions and specification go with it
// through ON DELETE CASCADE.
func (s *Storage) DeleteRun(id int64) error {
	res, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %d: %w", id, ErrNotFound)
	}
	return nil
}
