package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	aerrors "github.com/TheAllen/Acadia/internal/errors"
	"github.com/TheAllen/Acadia/internal/llm"
	"github.com/TheAllen/Acadia/internal/models"
	"github.com/TheAllen/Acadia/internal/project"
	"github.com/TheAllen/Acadia/internal/prompts"
)

const DefaultMaxBuildAttempts = 3

// Backend generates the webserver source and, when a build check is
// configured, regenerates it until it builds or the attempts run out.
type Backend struct {
	base
	path     string
	code     string
	bugCount int
}

func NewBackend(deps Deps) *Backend {
	return &Backend{
		base: newBase(
			"Develops the backend code for webserver and json database",
			"Backend Developer",
			NameBackend,
			deps,
		),
	}
}

func (b *Backend) ExecuteWorkflow(ctx context.Context, spec *project.Specification, input models.UserInputs) error {
	return b.run(ctx, spec, input, map[models.AgentState]handler{
		models.StateDiscovery:   b.generate,
		models.StateUnitTesting: b.buildLoop,
	})
}

func (b *Backend) generate(ctx context.Context, spec *project.Specification, input models.UserInputs) (models.AgentState, error) {
	language := strings.TrimSpace(input.BackendLanguage)
	if language == "" {
		return 0, fmt.Errorf("%w: backend language", aerrors.ErrMissingLanguage)
	}
	snap, err := requireDescription(spec)
	if err != nil {
		return 0, err
	}
	if b.deps.Templates == nil || b.deps.BackendCode == nil {
		return 0, fmt.Errorf("backend agent is missing its template store or code writer")
	}

	template, err := b.deps.Templates.ReadTemplate(language)
	if err != nil {
		return 0, err
	}
	text, err := b.ask(ctx, prompts.PrintBackendWebserverCode, prompts.CodePayload(template, snap.Description(), language), input.Model)
	if err != nil {
		return 0, err
	}
	if err := b.store(spec, llm.StripFences(text), language); err != nil {
		return 0, err
	}

	if b.deps.Builder == nil {
		return models.StateCompleted, nil
	}
	return models.StateUnitTesting, nil
}

// buildLoop stays in UnitTesting across regenerations.
func (b *Backend) buildLoop(ctx context.Context, spec *project.Specification, input models.UserInputs) (models.AgentState, error) {
	maxAttempts := b.deps.MaxBuildAttempts
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxBuildAttempts
	}
	language := input.BackendLanguage

	for {
		b.deps.Console.Testing(b.role(), "building generated code...")
		res, err := b.deps.Builder.Check(ctx, b.path)
		if err != nil {
			return 0, fmt.Errorf("failed to run build check: %w", err)
		}
		b.deps.Metrics.RecordBuild(b.role(), res.Passed)
		if res.Passed {
			b.deps.Console.Testing(b.role(), "build passed")
			return models.StateCompleted, nil
		}

		b.bugCount++
		b.logger.Warn("generated code failed to build",
			zap.Int("attempt", b.bugCount),
			zap.Int("max_attempts", maxAttempts),
			zap.String("output", tail(res.Output, 2000)))
		if b.bugCount >= maxAttempts {
			return 0, fmt.Errorf("%w after %d attempt(s): %s", aerrors.ErrBuildFailed, b.bugCount, tail(res.Output, 500))
		}

		b.deps.Console.Testing(b.role(), fmt.Sprintf("build failed, regenerating (%d/%d)", b.bugCount, maxAttempts))
		text, err := b.ask(ctx, prompts.ImproveBackendCode, prompts.FixPayload(b.code, res.Output, language), input.Model)
		if err != nil {
			return 0, err
		}
		if err := b.store(spec, llm.StripFences(text), language); err != nil {
			return 0, err
		}
	}
}

// store writes the code file and backend_code under one exclusive write.
func (b *Backend) store(spec *project.Specification, code, language string) error {
	return spec.TryWrite(b.role(), func(w *project.Writer) error {
		path, err := b.deps.BackendCode.WriteGeneratedCode(code, language)
		if err != nil {
			return err
		}
		if err := w.SetBackendCode(code); err != nil {
			return err
		}
		b.path, b.code = path, code
		return nil
	})
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
