package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheAllen/Acadia/internal/models"
)

func TestWizard_BackendFlow(t *testing.T) {
	w := NewWizard(models.UserInputs{})
	assert.Equal(t, stepDescription, w.step)

	require.NoError(t, w.Submit("a minimal todo list app"))
	assert.Equal(t, stepFocus, w.step)

	require.NoError(t, w.Submit("Backend"))
	assert.Equal(t, stepBackend, w.step)

	require.NoError(t, w.Submit("Rust + Axum"))
	assert.Equal(t, stepModel, w.step, "frontend language is skipped for a backend project")

	require.NoError(t, w.Submit("GPT-4o"))
	assert.True(t, w.Done())

	assert.Equal(t, models.UserInputs{
		ProjectToBuild:  "a minimal todo list app",
		Focus:           models.FocusBackend,
		BackendLanguage: "Rust + Axum",
		Model:           models.ModelPrimaryRemote,
	}, w.Inputs())
}

func TestWizard_StepsByFocus(t *testing.T) {
	tests := []struct {
		focus string
		want  []step
	}{
		{"Backend", []step{stepBackend, stepModel}},
		{"Frontend", []step{stepFrontend, stepModel}},
		{"Fullstack", []step{stepBackend, stepFrontend, stepModel}},
	}

	for _, tt := range tests {
		t.Run(tt.focus, func(t *testing.T) {
			w := NewWizard(models.UserInputs{ProjectToBuild: "x"})
			require.NoError(t, w.Submit(tt.focus))

			var got []step
			for !w.Done() {
				got = append(got, w.step)
				require.NoError(t, w.Submit("JavaScript + React"))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWizard_SkipsAnsweredSteps(t *testing.T) {
	w := NewWizard(models.UserInputs{
		ProjectToBuild:  "a minimal todo list app",
		Focus:           models.FocusBackend,
		BackendLanguage: "Python + Flask",
	})
	assert.Equal(t, stepModel, w.step)

	done := NewWizard(models.UserInputs{
		ProjectToBuild:   "a minimal todo list app",
		Focus:            models.FocusFrontend,
		FrontendLanguage: "JavaScript + Svelte",
		Model:            models.ModelLocalDefault,
	})
	assert.True(t, done.Done())
}

func TestWizard_RejectsEmptyDescription(t *testing.T) {
	w := NewWizard(models.UserInputs{})
	assert.Error(t, w.Submit("   "))
	assert.Equal(t, stepDescription, w.step)
}

func TestWizard_RejectsUnknownFocus(t *testing.T) {
	w := NewWizard(models.UserInputs{ProjectToBuild: "x"})
	assert.Error(t, w.Submit("Mobile"))
	assert.Equal(t, stepFocus, w.step)
}

func TestWizard_EnterSelectsHighlightedOption(t *testing.T) {
	w := NewWizard(models.UserInputs{ProjectToBuild: "x"})

	_, _ = w.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, models.FocusBackend, w.Inputs().Focus)
	assert.Equal(t, stepBackend, w.step)
	assert.Contains(t, w.View(), "Backend language")
}

func TestWizard_EscCancels(t *testing.T) {
	w := NewWizard(models.UserInputs{})

	_, cmd := w.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.True(t, w.cancelled)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
