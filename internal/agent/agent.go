// Package agent implements the pipeline's agents. Each agent is a small
// state machine over Discovery, Working, UnitTesting and Completed, run by a
// shared driver that only lets the state move forward.
package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/TheAllen/Acadia/internal/build"
	aerrors "github.com/TheAllen/Acadia/internal/errors"
	"github.com/TheAllen/Acadia/internal/llm"
	"github.com/TheAllen/Acadia/internal/logging"
	"github.com/TheAllen/Acadia/internal/metrics"
	"github.com/TheAllen/Acadia/internal/models"
	"github.com/TheAllen/Acadia/internal/project"
	"github.com/TheAllen/Acadia/internal/prompts"
)

type Agent interface {
	Attributes() *Attributes
	// ExecuteWorkflow drives the agent to Completed. Any error is a
	// *errors.FatalError naming the agent's role and state.
	ExecuteWorkflow(ctx context.Context, spec *project.Specification, input models.UserInputs) error
}

type TemplateReader interface {
	ReadTemplate(language string) (string, error)
}

type CodeWriter interface {
	WriteGeneratedCode(contents, language string) (string, error)
}

type URLProber interface {
	Validate(ctx context.Context, urls []string) []string
}

type BuildChecker interface {
	Check(ctx context.Context, path string) (build.Result, error)
}

// Deps are the collaborators agents call out to. Builder may be nil, which
// disables the backend build check.
type Deps struct {
	Model            llm.Invoker
	Templates        TemplateReader
	BackendCode      CodeWriter
	FrontendCode     CodeWriter
	Prober           URLProber
	Builder          BuildChecker
	MaxBuildAttempts int
	Metrics          *metrics.Metrics
	Logger           *zap.Logger
	Console          *logging.Console
}

type handler func(ctx context.Context, spec *project.Specification, input models.UserInputs) (models.AgentState, error)

type base struct {
	attrs  *Attributes
	deps   Deps
	logger *zap.Logger
}

func newBase(objective, position, name string, deps Deps) base {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return base{
		attrs:  NewAttributes(objective, position),
		deps:   deps,
		logger: logger.Named(name),
	}
}

func (b *base) Attributes() *Attributes { return b.attrs }

func (b *base) role() string { return b.attrs.Position }

// run loops until Completed. States without a handler complete immediately.
// Because every transition must increase the state, the loop ends after at
// most one step per state.
func (b *base) run(ctx context.Context, spec *project.Specification, input models.UserInputs, handlers map[models.AgentState]handler) error {
	b.deps.Console.Info(b.role(), "beginning workflow...")

	for b.attrs.State != models.StateCompleted {
		current := b.attrs.State
		if err := ctx.Err(); err != nil {
			return b.fail(current, err)
		}

		next := models.StateCompleted
		if h, ok := handlers[current]; ok {
			var err error
			next, err = h(ctx, spec, input)
			if err != nil {
				return b.fail(current, err)
			}
		}

		if next <= current {
			return b.fail(current, fmt.Errorf("%w: %s -> %s", aerrors.ErrIllegalTransition, current, next))
		}

		b.logger.Debug("state transition",
			zap.Stringer("from", current),
			zap.Stringer("to", next))
		b.deps.Metrics.RecordTransition(b.role(), current.String(), next.String())
		b.attrs.UpdateState(next)
	}

	b.deps.Metrics.RecordAgentTurn(b.role(), "complete")
	b.deps.Console.Info(b.role(), "workflow completed")
	return nil
}

func (b *base) fail(state models.AgentState, err error) error {
	b.deps.Metrics.RecordAgentTurn(b.role(), "failed")
	b.logger.Error("agent failed", zap.Stringer("state", state), zap.Error(err))
	return aerrors.Fatal(b.role(), state.String(), err)
}

// ask sends one capability prompt to the model and records the exchange in
// the message history.
func (b *base) ask(ctx context.Context, c prompts.Capability, input string, choice models.ModelChoice) (string, error) {
	if b.deps.Model == nil {
		return "", fmt.Errorf("%w: no model client configured", aerrors.ErrModelUnavailable)
	}
	if choice == "" {
		choice = models.ModelLocalDefault
	}

	prompt := prompts.Wrap(c, input)
	b.deps.Console.Info(b.role(), fmt.Sprintf("Agent: %s | State: %s | Performing: %s", b.role(), b.attrs.State, c.Name))
	b.attrs.AppendMessage(models.RoleSystem, prompt)

	text, err := b.deps.Model.InvokeModel(ctx, prompt, choice)
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.Name, err)
	}
	b.attrs.AppendMessage(models.RoleAssistant, text)
	return text, nil
}

func askDecoded[T any](ctx context.Context, b *base, c prompts.Capability, input string, choice models.ModelChoice) (T, error) {
	var zero T
	text, err := b.ask(ctx, c, input, choice)
	if err != nil {
		return zero, err
	}
	out, err := llm.Decode[T](text)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", c.Name, err)
	}
	return out, nil
}

// requireDescription returns the Manager's description or ErrMissingField.
func requireDescription(spec *project.Specification) (project.Snapshot, error) {
	snap := spec.Read()
	if snap.Description() == "" {
		return snap, fmt.Errorf("%w: %s", aerrors.ErrMissingField, project.FieldProjectDescription)
	}
	return snap, nil
}
