package agent

import (
	"context"
	"fmt"
	"strings"

	aerrors "github.com/TheAllen/Acadia/internal/errors"
	"github.com/TheAllen/Acadia/internal/llm"
	"github.com/TheAllen/Acadia/internal/models"
	"github.com/TheAllen/Acadia/internal/project"
	"github.com/TheAllen/Acadia/internal/prompts"
)

type Frontend struct {
	base
}

func NewFrontend(deps Deps) *Frontend {
	return &Frontend{
		base: newBase(
			"Develops the frontend code for the website",
			"Frontend Developer",
			NameFrontend,
			deps,
		),
	}
}

func (f *Frontend) ExecuteWorkflow(ctx context.Context, spec *project.Specification, input models.UserInputs) error {
	return f.run(ctx, spec, input, map[models.AgentState]handler{
		models.StateDiscovery: f.generate,
	})
}

func (f *Frontend) generate(ctx context.Context, spec *project.Specification, input models.UserInputs) (models.AgentState, error) {
	language := strings.TrimSpace(input.FrontendLanguage)
	if language == "" {
		return 0, fmt.Errorf("%w: frontend language", aerrors.ErrMissingLanguage)
	}
	snap, err := requireDescription(spec)
	if err != nil {
		return 0, err
	}
	if f.deps.Templates == nil || f.deps.FrontendCode == nil {
		return 0, fmt.Errorf("frontend agent is missing its template store or code writer")
	}

	var scope models.ProjectScope
	if snap.ProjectScope != nil {
		scope = *snap.ProjectScope
	}

	template, err := f.deps.Templates.ReadTemplate(language)
	if err != nil {
		return 0, err
	}
	payload := prompts.ScopedCodePayload(template, snap.Description(), language, scope.RequiresCRUD, scope.RequiresLogin)
	text, err := f.ask(ctx, prompts.PrintFrontendCode, payload, input.Model)
	if err != nil {
		return 0, err
	}
	code := llm.StripFences(text)

	err = spec.TryWrite(f.role(), func(w *project.Writer) error {
		if _, err := f.deps.FrontendCode.WriteGeneratedCode(code, language); err != nil {
			return err
		}
		return w.SetFrontendCode(code)
	})
	if err != nil {
		return 0, err
	}
	return models.StateCompleted, nil
}
