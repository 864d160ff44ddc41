package orchestrator

import (
	"context"

	"github.com/TheAllen/Acadia/internal/agent"
	"github.com/TheAllen/Acadia/internal/models"
	"github.com/TheAllen/Acadia/internal/project"
)

// Observer is notified around each agent's turn. An error from either hook
// stops the workflow.
type Observer interface {
	AgentStarted(seq int, a agent.Agent) error
	AgentFinished(seq int, a agent.Agent, err error) error
}

// Workflow runs agents one at a time, in the order they were added, against
// one shared specification. It stops at the first failure and leaves
// earlier writes in place.
type Workflow struct {
	agents   []agent.Agent
	observer Observer
}

func NewWorkflow() *Workflow {
	return &Workflow{}
}

// AddAgent appends a to the execution order. The same agent may be added
// more than once.
func (w *Workflow) AddAgent(a agent.Agent) {
	w.agents = append(w.agents, a)
}

func (w *Workflow) Agents() []agent.Agent {
	return w.agents
}

func (w *Workflow) SetObserver(o Observer) {
	w.observer = o
}

func (w *Workflow) RunWorkflow(ctx context.Context, spec *project.Specification, input models.UserInputs) error {
	for i, a := range w.agents {
		seq := i + 1
		if w.observer != nil {
			if err := w.observer.AgentStarted(seq, a); err != nil {
				return err
			}
		}

		err := a.ExecuteWorkflow(ctx, spec, input)

		if w.observer != nil {
			if obsErr := w.observer.AgentFinished(seq, a, err); obsErr != nil && err == nil {
				return obsErr
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}
