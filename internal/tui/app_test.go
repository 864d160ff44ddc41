package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheAllen/Acadia/internal/models"
	"github.com/TheAllen/Acadia/internal/project"
)

type fakeSource struct {
	runs    []*models.Run
	execs   map[int64][]*models.Execution
	specs   map[int64]*project.Snapshot
	deleted []int64
}

func (f *fakeSource) ListRuns(limit int) ([]*models.Run, error) { return f.runs, nil }

func (f *fakeSource) GetRun(id int64) (*models.Run, error) {
	for _, r := range f.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeSource) GetExecutionsForRun(runID int64) ([]*models.Execution, error) {
	return f.execs[runID], nil
}

func (f *fakeSource) GetProjectSpec(runID int64) (*project.Snapshot, error) {
	s, ok := f.specs[runID]
	if !ok {
		return nil, errors.New("not found")
	}
	return s, nil
}

func (f *fakeSource) DeleteRun(runID int64) error {
	f.deleted = append(f.deleted, runID)
	return nil
}

func strPtr(s string) *string { return &s }

func newFakeSource() *fakeSource {
	started := time.Now().Add(-3 * time.Second)
	finished := time.Now()
	return &fakeSource{
		runs: []*models.Run{
			{ID: 2, PipelineName: "default-backend", InitialPrompt: "a minimal todo list app", Status: models.RunStatusComplete, CreatedAt: time.Now()},
			{ID: 1, PipelineName: "default-frontend", InitialPrompt: "a weather dashboard", Status: models.RunStatusFailed, Error: "boom", CreatedAt: time.Now()},
		},
		execs: map[int64][]*models.Execution{
			2: {
				{SequenceNum: 1, AgentName: "manager", Role: "Project Manager", Status: models.ExecStatusComplete, FinalState: models.StateCompleted, StartedAt: &started, CompletedAt: &finished},
				{SequenceNum: 2, AgentName: "architect", Role: "Solutions Architect", Status: models.ExecStatusComplete, FinalState: models.StateCompleted},
			},
		},
		specs: map[int64]*project.Snapshot{
			2: {
				ProjectDescription: strPtr("build a website that tracks todo items"),
				ProjectScope:       &models.ProjectScope{RequiresCRUD: true},
				ExternalURLs:       []string{"https://api.example.com"},
				BackendCode:        strPtr("fn main() {}"),
			},
		},
	}
}

// send applies msg and runs any single command it returns, feeding the
// result back in.
func send(t *testing.T, a *App, msg tea.Msg) {
	t.Helper()
	_, cmd := a.Update(msg)
	if cmd != nil {
		_, _ = a.Update(cmd())
	}
}

func TestApp_RunList(t *testing.T) {
	a := NewApp(newFakeSource())
	_, _ = a.Update(a.fetchRuns())

	view := a.View()
	assert.Contains(t, view, "a minimal todo list app")
	assert.Contains(t, view, "default-frontend")
	assert.Contains(t, view, "failed")
}

func TestApp_EmptyRunList(t *testing.T) {
	a := NewApp(&fakeSource{})
	_, _ = a.Update(a.fetchRuns())
	assert.Contains(t, a.View(), "No runs yet")
}

func TestApp_RunDetail(t *testing.T) {
	a := NewApp(newFakeSource())
	_, _ = a.Update(a.fetchRuns())

	send(t, a, tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, screenAgents, a.screen)
	view := a.View()
	assert.Contains(t, view, "Run #2: default-backend")
	assert.Contains(t, view, "Project Manager")
	assert.Contains(t, view, "Solutions Architect")
	assert.Contains(t, view, "Completed")

	send(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, screenRuns, a.screen)
}

func TestApp_SpecView(t *testing.T) {
	a := NewApp(newFakeSource())
	_, _ = a.Update(a.fetchRuns())

	send(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})

	require.Equal(t, screenSpec, a.screen)
	view := a.View()
	assert.Contains(t, view, "build a website that tracks todo items")
	assert.Contains(t, view, "crud=true")
	assert.Contains(t, view, "https://api.example.com")
	assert.Contains(t, view, "Frontend code")
}

func TestApp_MissingSpecShowsError(t *testing.T) {
	a := NewApp(newFakeSource())
	_, _ = a.Update(a.fetchRuns())

	send(t, a, tea.KeyMsg{Type: tea.KeyDown})
	send(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})

	assert.Equal(t, screenRuns, a.screen)
	assert.Contains(t, a.View(), "Error: not found")
}

func TestApp_Delete(t *testing.T) {
	src := newFakeSource()
	a := NewApp(src)
	_, _ = a.Update(a.fetchRuns())

	send(t, a, tea.KeyMsg{Type: tea.KeyDown})
	send(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})

	assert.Equal(t, []int64{1}, src.deleted)
}

func TestRenderSpec_Unset(t *testing.T) {
	out := RenderSpec(&project.Snapshot{ExternalURLs: []string{}})
	assert.Contains(t, out, "(unset)")
	assert.Contains(t, out, "none passed validation")

	assert.Contains(t, RenderSpec(nil), "no specification saved")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "500ms", formatDuration(500*time.Millisecond))
	assert.Equal(t, "42s", formatDuration(42*time.Second))
	assert.Equal(t, "2m5s", formatDuration(125*time.Second))
	assert.Equal(t, "1h30m", formatDuration(90*time.Minute))
}
