package agent

import (
	"context"
	"fmt"
	"strings"

	aerrors "github.com/TheAllen/Acadia/internal/errors"
	"github.com/TheAllen/Acadia/internal/models"
	"github.com/TheAllen/Acadia/internal/project"
	"github.com/TheAllen/Acadia/internal/prompts"
)

// Manager turns the operator's request into the project description.
type Manager struct {
	base
}

func NewManager(deps Deps) *Manager {
	return &Manager{
		base: newBase(
			"Manage agents that are building the application for the end user",
			"Project Manager",
			NameManager,
			deps,
		),
	}
}

func (m *Manager) ExecuteWorkflow(ctx context.Context, spec *project.Specification, input models.UserInputs) error {
	return m.run(ctx, spec, input, map[models.AgentState]handler{
		models.StateDiscovery: m.discover,
	})
}

func (m *Manager) discover(ctx context.Context, spec *project.Specification, input models.UserInputs) (models.AgentState, error) {
	request := strings.TrimSpace(input.ProjectToBuild)
	if request == "" {
		return 0, fmt.Errorf("%w: project to build", aerrors.ErrMissingField)
	}

	text, err := m.ask(ctx, prompts.ConvertUserInputToGoal, request, input.Model)
	if err != nil {
		return 0, err
	}
	description := strings.TrimSpace(text)

	err = spec.TryWrite(m.role(), func(w *project.Writer) error {
		return w.SetProjectDescription(description)
	})
	if err != nil {
		return 0, err
	}

	return models.StateCompleted, nil
}
