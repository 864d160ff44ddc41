package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheAllen/Acadia/internal/models"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "acadia.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func createRun(t *testing.T, s *Storage, prompt string) *models.Run {
	t.Helper()
	run := &models.Run{
		InitialPrompt: prompt,
		PipelineName:  "backend",
		WorkspacePath: "/tmp/run",
		Status:        models.RunStatusPending,
		Focus:         models.FocusBackend,
		Model:         models.ModelLocalDefault,
	}
	id, err := s.CreateRun(run)
	require.NoError(t, err)
	run.ID = id
	return run
}

func TestRunLifecycle(t *testing.T) {
	s := newTestStorage(t)
	run := createRun(t, s, "a minimal todo list app")

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, "a minimal todo list app", got.InitialPrompt)
	assert.Equal(t, models.RunStatusPending, got.Status)
	assert.Equal(t, models.FocusBackend, got.Focus)
	assert.Equal(t, models.ModelLocalDefault, got.Model)
	assert.Nil(t, got.CompletedAt)

	now := time.Now()
	got.Status = models.RunStatusFailed
	got.CurrentAgent = "backend"
	got.Error = "Backend Developer: no language was selected"
	got.CompletedAt = &now
	require.NoError(t, s.UpdateRun(got))

	got, err = s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, got.Status)
	assert.Equal(t, "backend", got.CurrentAgent)
	assert.Contains(t, got.Error, "no language")
	require.NotNil(t, got.CompletedAt)
}

func TestGetRun_NotFound(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.GetRun(42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRuns_NewestFirst(t *testing.T) {
	s := newTestStorage(t)
	first := createRun(t, s, "first")
	second := createRun(t, s, "second")

	runs, err := s.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[1].ID)

	runs, err = s.ListRuns(1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestExecutions(t *testing.T) {
	s := newTestStorage(t)
	run := createRun(t, s, "todo")

	for i, name := range []string{"manager", "architect"} {
		started := time.Now()
		exec := &models.Execution{
			RunID:       run.ID,
			AgentName:   name,
			Role:        "role-" + name,
			Status:      models.ExecStatusRunning,
			StartedAt:   &started,
			SequenceNum: i + 1,
		}
		id, err := s.CreateExecution(exec)
		require.NoError(t, err)
		exec.ID = id

		done := time.Now()
		exec.Status = models.ExecStatusComplete
		exec.FinalState = models.StateCompleted
		exec.CompletedAt = &done
		require.NoError(t, s.UpdateExecution(exec))
	}

	execs, err := s.GetExecutionsForRun(run.ID)
	require.NoError(t, err)
	require.Len(t, execs, 2)
	assert.Equal(t, "manager", execs[0].AgentName)
	assert.Equal(t, "architect", execs[1].AgentName)
	assert.Equal(t, models.StateCompleted, execs[1].FinalState)
	assert.Equal(t, models.ExecStatusComplete, execs[1].Status)
	assert.NotNil(t, execs[0].StartedAt)
	assert.NotNil(t, execs[0].CompletedAt)

	// Sequence numbers are unique per run.
	_, err = s.CreateExecution(&models.Execution{RunID: run.ID, AgentName: "dup", Role: "dup", SequenceNum: 1})
	assert.Error(t, err)
}

func TestProjectSpec(t *testing.T) {
	s := newTestStorage(t)
	run := createRun(t, s, "todo")

	_, err := s.GetProjectSpec(run.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SaveProjectSpec(run.ID, []byte(`{"project_description":"v1"}`)))
	require.NoError(t, s.SaveProjectSpec(run.ID, []byte(`{"project_description":"v2"}`)))

	got, err := s.GetProjectSpec(run.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"project_description":"v2"}`, string(got))
}

func TestDeleteRun(t *testing.T) {
	s := newTestStorage(t)
	run := createRun(t, s, "todo")
	_, err := s.CreateExecution(&models.Execution{RunID: run.ID, AgentName: "manager", Role: "Project Manager", SequenceNum: 1})
	require.NoError(t, err)
	require.NoError(t, s.SaveProjectSpec(run.ID, []byte(`{}`)))

	require.NoError(t, s.DeleteRun(run.ID))

	_, err = s.GetRun(run.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	execs, err := s.GetExecutionsForRun(run.ID)
	require.NoError(t, err)
	assert.Empty(t, execs)
	_, err = s.GetProjectSpec(run.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRun_NotFound(t *testing.T) {
	s := newTestStorage(t)
	assert.ErrorIs(t, s.DeleteRun(42), ErrNotFound)
}

func TestNew_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acadia.db")

	s, err := New(path)
	require.NoError(t, err)
	run := createRun(t, s, "todo")
	require.NoError(t, s.Close())

	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, "todo", got.InitialPrompt)

	var version int
	require.NoError(t, s.db.QueryRow(`PRAGMA user_version`).Scan(&version))
	assert.Equal(t, len(migrations), version)
}

func TestCreateExecution_RequiresRun(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.CreateExecution(&models.Execution{RunID: 99, AgentName: "manager", Role: "Project Manager", SequenceNum: 1})
	assert.Error(t, err)
}
