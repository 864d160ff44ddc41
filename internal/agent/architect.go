package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/TheAllen/Acadia/internal/models"
	"github.com/TheAllen/Acadia/internal/project"
	"github.com/TheAllen/Acadia/internal/prompts"
)

// Architect decides the project scope and, when the project consumes third
// party APIs, collects the endpoints that actually answer.
type Architect struct {
	base
	candidates []string
}

func NewArchitect(deps Deps) *Architect {
	return &Architect{
		base: newBase(
			"Gathers information and designs solutions for website development",
			"Solutions Architect",
			NameArchitect,
			deps,
		),
	}
}

func (a *Architect) ExecuteWorkflow(ctx context.Context, spec *project.Specification, input models.UserInputs) error {
	return a.run(ctx, spec, input, map[models.AgentState]handler{
		models.StateDiscovery:   a.discover,
		models.StateWorking:     a.listURLs,
		models.StateUnitTesting: a.validateURLs,
	})
}

func (a *Architect) discover(ctx context.Context, spec *project.Specification, input models.UserInputs) (models.AgentState, error) {
	snap, err := requireDescription(spec)
	if err != nil {
		return 0, err
	}

	scope, err := askDecoded[models.ProjectScope](ctx, &a.base, prompts.DecideProjectScope, snap.Description(), input.Model)
	if err != nil {
		return 0, err
	}

	err = spec.TryWrite(a.role(), func(w *project.Writer) error {
		return w.SetProjectScope(scope)
	})
	if err != nil {
		return 0, err
	}

	if scope.RequiresExternalURLs {
		return models.StateWorking, nil
	}
	return models.StateCompleted, nil
}

func (a *Architect) listURLs(ctx context.Context, spec *project.Specification, input models.UserInputs) (models.AgentState, error) {
	snap := spec.Read()
	urls, err := askDecoded[[]string](ctx, &a.base, prompts.ListExternalURLs, snap.Description(), input.Model)
	if err != nil {
		return 0, err
	}
	a.candidates = urls
	return models.StateUnitTesting, nil
}

func (a *Architect) validateURLs(ctx context.Context, spec *project.Specification, input models.UserInputs) (models.AgentState, error) {
	if len(a.candidates) == 0 {
		return models.StateCompleted, nil
	}
	if a.deps.Prober == nil {
		return 0, fmt.Errorf("no URL prober configured")
	}

	a.deps.Console.Testing(a.role(), fmt.Sprintf("checking %d external url(s)...", len(a.candidates)))
	valid := a.deps.Prober.Validate(ctx, a.candidates)
	a.logger.Info("external urls validated",
		zap.Int("candidates", len(a.candidates)),
		zap.Int("valid", len(valid)))
	a.deps.Console.Testing(a.role(), fmt.Sprintf("%d of %d url(s) answered 200", len(valid), len(a.candidates)))

	err := spec.TryWrite(a.role(), func(w *project.Writer) error {
		return w.SetExternalURLs(valid)
	})
	if err != nil {
		return 0, err
	}
	return models.StateCompleted, nil
}
