package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheAllen/Acadia/internal/models"
)

func TestInputsFromFlags(t *testing.T) {
	input, err := inputsFromFlags("  a minimal todo list app ", runFlags{
		focus:   "fullstack",
		backend: "Rust + Axum",
		model:   "gpt-4o",
	})
	require.NoError(t, err)

	assert.Equal(t, "a minimal todo list app", input.ProjectToBuild)
	assert.Equal(t, models.FocusFullstack, input.Focus)
	assert.Equal(t, "Rust + Axum", input.BackendLanguage)
	assert.Empty(t, input.FrontendLanguage)
	assert.Equal(t, models.ModelPrimaryRemote, input.Model)
}

func TestInputsFromFlags_LeavesUnsetForWizard(t *testing.T) {
	input, err := inputsFromFlags("", runFlags{})
	require.NoError(t, err)
	assert.Equal(t, models.UserInputs{}, input)
}

func TestInputsFromFlags_InvalidFocus(t *testing.T) {
	_, err := inputsFromFlags("x", runFlags{focus: "mobile"})
	assert.ErrorContains(t, err, "invalid focus")
}
