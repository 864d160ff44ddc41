package orchestrator

import (
	"time"

	"go.uber.org/zap"

	"github.com/TheAllen/Acadia/internal/agent"
	"github.com/TheAllen/Acadia/internal/models"
	"github.com/TheAllen/Acadia/internal/storage"
)

// runRecorder keeps the runs and executions tables in step with the
// workflow.
type runRecorder struct {
	storage *storage.Storage
	run     *models.Run
	names   []string
	current *models.Execution
	logger  *zap.Logger
}

func (r *runRecorder) AgentStarted(seq int, a agent.Agent) error {
	name := r.names[seq-1]

	r.run.CurrentAgent = name
	if err := r.storage.UpdateRun(r.run); err != nil {
		return err
	}

	now := time.Now()
	exec := &models.Execution{
		RunID:       r.run.ID,
		AgentName:   name,
		Role:        a.Attributes().Position,
		FinalState:  a.Attributes().State,
		Status:      models.ExecStatusRunning,
		StartedAt:   &now,
		SequenceNum: seq,
	}
	id, err := r.storage.CreateExecution(exec)
	if err != nil {
		return err
	}
	exec.ID = id
	r.current = exec

	r.logger.Info("agent started", zap.Int("seq", seq), zap.String("agent", name))
	return nil
}

func (r *runRecorder) AgentFinished(seq int, a agent.Agent, err error) error {
	exec := r.current
	if exec == nil {
		return nil
	}

	now := time.Now()
	exec.CompletedAt = &now
	exec.FinalState = a.Attributes().State
	exec.Status = models.ExecStatusComplete
	if err != nil {
		exec.Status = models.ExecStatusFailed
		exec.Error = err.Error()
	}

	r.logger.Info("agent finished",
		zap.Int("seq", seq),
		zap.String("agent", exec.AgentName),
		zap.Stringer("state", exec.FinalState),
		zap.String("status", string(exec.Status)))
	return r.storage.UpdateExecution(exec)
}
