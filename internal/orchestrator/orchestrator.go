package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/TheAllen/Acadia/internal/agent"
	"github.com/TheAllen/Acadia/internal/build"
	"github.com/TheAllen/Acadia/internal/llm"
	"github.com/TheAllen/Acadia/internal/logging"
	"github.com/TheAllen/Acadia/internal/metrics"
	"github.com/TheAllen/Acadia/internal/models"
	"github.com/TheAllen/Acadia/internal/pipeline"
	"github.com/TheAllen/Acadia/internal/project"
	"github.com/TheAllen/Acadia/internal/storage"
	"github.com/TheAllen/Acadia/internal/workspace"
)

// Env holds the collaborators shared by every run.
type Env struct {
	Model            llm.Invoker
	Templates        agent.TemplateReader
	Prober           agent.URLProber
	BuildCommand     string
	MaxBuildAttempts int
	Metrics          *metrics.Metrics
	MetricsTextfile  string
	Logger           *zap.Logger
	Console          *logging.Console
}

type Orchestrator struct {
	storage      *storage.Storage
	workspaceDir string
	env          Env
	logger       *zap.Logger
}

func New(store *storage.Storage, workspaceDir string, env Env) *Orchestrator {
	logger := env.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	env.Logger = logger
	return &Orchestrator{
		storage:      store,
		workspaceDir: workspaceDir,
		env:          env,
		logger:       logger.Named("orchestrator"),
	}
}

func (o *Orchestrator) StartRun(p *pipeline.Pipeline, input models.UserInputs) (*models.Run, error) {
	// Create run record
	run := &models.Run{
		InitialPrompt: input.ProjectToBuild,
		PipelineName:  p.Name,
		Status:        models.RunStatusPending,
		Focus:         input.Focus,
		Model:         input.Model,
	}
	if len(p.Agents) > 0 {
		run.CurrentAgent = p.Agents[0]
	}

	runID, err := o.storage.CreateRun(run)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	run.ID = runID

	ws, err := workspace.Create(o.workspaceDir, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	run.WorkspacePath = ws.Path
	if err := o.storage.UpdateRun(run); err != nil {
		return nil, fmt.Errorf("failed to update run with workspace path: %w", err)
	}

	meta := &workspace.RunMetadata{
		RunID:            run.ID,
		PipelineName:     p.Name,
		InitialPrompt:    input.ProjectToBuild,
		Focus:            string(input.Focus),
		BackendLanguage:  input.BackendLanguage,
		FrontendLanguage: input.FrontendLanguage,
		Model:            string(input.Model),
		Agents:           p.Agents,
	}
	if err := ws.WriteRunMetadata(meta); err != nil {
		return nil, err
	}

	return run, nil
}

// Execute runs the pipeline's agents for run. The specification snapshot is
// persisted whether or not the run succeeds. The first agent failure is
// returned unchanged.
func (o *Orchestrator) Execute(ctx context.Context, run *models.Run, p *pipeline.Pipeline, input models.UserInputs) error {
	ws, err := workspace.Open(o.workspaceDir, run.ID)
	if err != nil {
		return err
	}

	wf := NewWorkflow()
	deps := o.agentDeps(ws, p)
	for _, name := range p.Agents {
		a, err := agent.Build(name, deps)
		if err != nil {
			o.recordFailure(run, err)
			return err
		}
		wf.AddAgent(a)
	}

	// Update run status to running
	run.Status = models.RunStatusRunning
	if err := o.storage.UpdateRun(run); err != nil {
		return err
	}

	recorder := &runRecorder{storage: o.storage, run: run, names: p.Agents, logger: o.logger}
	wf.SetObserver(recorder)

	spec := project.New()
	o.logger.Info("run started",
		zap.Int64("run_id", run.ID),
		zap.String("pipeline", p.Name),
		zap.Strings("agents", p.Agents))

	runErr := wf.RunWorkflow(ctx, spec, input)

	persistErr := o.persist(run, ws, spec)

	if runErr != nil {
		if persistErr != nil {
			o.logger.Warn("failed to persist project spec of failed run",
				zap.Int64("run_id", run.ID), zap.Error(persistErr))
		}
		o.recordFailure(run, runErr)
		return runErr
	}
	if persistErr != nil {
		o.recordFailure(run, persistErr)
		return persistErr
	}
	return o.completeRun(run)
}

func (o *Orchestrator) agentDeps(ws *workspace.Workspace, p *pipeline.Pipeline) agent.Deps {
	deps := agent.Deps{
		Model:            o.env.Model,
		Templates:        o.env.Templates,
		BackendCode:      ws.Code(workspace.AreaBackend),
		FrontendCode:     ws.Code(workspace.AreaFrontend),
		Prober:           o.env.Prober,
		MaxBuildAttempts: o.env.MaxBuildAttempts,
		Metrics:          o.env.Metrics,
		Logger:           o.env.Logger,
		Console:          o.env.Console,
	}

	command := o.env.BuildCommand
	if p.Settings != nil {
		if p.Settings.BuildCommand != "" {
			command = p.Settings.BuildCommand
		}
		if p.Settings.MaxBuildAttempts > 0 {
			deps.MaxBuildAttempts = p.Settings.MaxBuildAttempts
		}
	}
	if command != "" {
		deps.Builder = build.NewChecker(command, o.env.Logger)
	}
	return deps
}

// persist stores the final specification in the database and the
// workspace, and flushes metrics.
func (o *Orchestrator) persist(run *models.Run, ws *workspace.Workspace, spec *project.Specification) error {
	snapshot := spec.Read()
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal project spec: %w", err)
	}

	var errs []error
	if err := o.storage.SaveProjectSpec(run.ID, data); err != nil {
		errs = append(errs, fmt.Errorf("failed to save project spec: %w", err))
	}
	if err := ws.WriteProjectSpec(snapshot); err != nil {
		errs = append(errs, err)
	}
	if err := o.env.Metrics.WriteTextfile(o.env.MetricsTextfile); err != nil {
		o.logger.Warn("failed to write metrics textfile", zap.String("path", o.env.MetricsTextfile), zap.Error(err))
	}
	return errors.Join(errs...)
}

func (o *Orchestrator) completeRun(run *models.Run) error {
	now := time.Now()
	run.Status = models.RunStatusComplete
	run.CompletedAt = &now
	o.logger.Info("run complete", zap.Int64("run_id", run.ID))
	return o.storage.UpdateRun(run)
}

// recordFailure marks run failed. A storage error here is logged so the
// agent's error still reaches the caller.
func (o *Orchestrator) recordFailure(run *models.Run, cause error) {
	now := time.Now()
	run.Status = models.RunStatusFailed
	run.Error = cause.Error()
	run.CompletedAt = &now
	o.logger.Warn("run failed", zap.Int64("run_id", run.ID), zap.Error(cause))
	if err := o.storage.UpdateRun(run); err != nil {
		o.logger.Error("failed to record run failure", zap.Int64("run_id", run.ID), zap.Error(err))
	}
}

// Read methods for TUI

func (o *Orchestrator) ListRuns(limit int) ([]*models.Run, error) {
	return o.storage.ListRuns(limit)
}

func (o *Orchestrator) GetRun(id int64) (*models.Run, error) {
	return o.storage.GetRun(id)
}

func (o *Orchestrator) GetExecutionsForRun(runID int64) ([]*models.Execution, error) {
	return o.storage.GetExecutionsForRun(runID)
}

// GetProjectSpec returns the persisted specification for a finished run.
func (o *Orchestrator) GetProjectSpec(runID int64) (*project.Snapshot, error) {
	data, err := o.storage.GetProjectSpec(runID)
	if err != nil {
		return nil, err
	}
	var snap project.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse project spec: %w", err)
	}
	return &snap, nil
}

func (o *Orchestrator) DeleteRun(runID int64) error {
	run, err := o.storage.GetRun(runID)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}

	// Remove workspace directory
	if run.WorkspacePath != "" {
		if err := os.RemoveAll(run.WorkspacePath); err != nil {
			return fmt.Errorf("failed to remove workspace: %w", err)
		}
	}

	// Delete from database
	return o.storage.DeleteRun(runID)
}
