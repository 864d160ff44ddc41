package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheAllen/Acadia/internal/agent"
	"github.com/TheAllen/Acadia/internal/models"
	"github.com/TheAllen/Acadia/internal/project"
)

type stepAgent struct {
	attrs *agent.Attributes
	fn    func(spec *project.Specification) error
}

func newStepAgent(role string, fn func(spec *project.Specification) error) *stepAgent {
	return &stepAgent{attrs: agent.NewAttributes("test", role), fn: fn}
}

func (s *stepAgent) Attributes() *agent.Attributes { return s.attrs }

func (s *stepAgent) ExecuteWorkflow(ctx context.Context, spec *project.Specification, input models.UserInputs) error {
	if err := s.fn(spec); err != nil {
		return err
	}
	s.attrs.UpdateState(models.StateCompleted)
	return nil
}

type eventLog struct {
	events []string
}

func (l *eventLog) AgentStarted(seq int, a agent.Agent) error {
	l.events = append(l.events, "start "+a.Attributes().Position)
	return nil
}

func (l *eventLog) AgentFinished(seq int, a agent.Agent, err error) error {
	outcome := "ok"
	if err != nil {
		outcome = "err"
	}
	l.events = append(l.events, "finish "+a.Attributes().Position+" "+outcome)
	return nil
}

func TestRunWorkflow_SequentialAndVisible(t *testing.T) {
	var order []string
	var seenByC project.Snapshot

	a := newStepAgent("A", func(spec *project.Specification) error {
		order = append(order, "A")
		return spec.TryWrite("A", func(w *project.Writer) error { return w.SetProjectDescription("from A") })
	})
	b := newStepAgent("B", func(spec *project.Specification) error {
		order = append(order, "B")
		return spec.TryWrite("B", func(w *project.Writer) error {
			return w.SetProjectScope(models.ProjectScope{RequiresCRUD: true})
		})
	})
	c := newStepAgent("C", func(spec *project.Specification) error {
		order = append(order, "C")
		seenByC = spec.Read()
		return nil
	})

	wf := NewWorkflow()
	log := &eventLog{}
	wf.SetObserver(log)
	wf.AddAgent(a)
	wf.AddAgent(b)
	wf.AddAgent(c)

	require.NoError(t, wf.RunWorkflow(context.Background(), project.New(), models.UserInputs{}))

	assert.Equal(t, []string{"A", "B", "C"}, order)
	assert.Equal(t, []string{
		"start A", "finish A ok",
		"start B", "finish B ok",
		"start C", "finish C ok",
	}, log.events)
	assert.Equal(t, "from A", seenByC.Description())
	require.NotNil(t, seenByC.ProjectScope)
	assert.True(t, seenByC.ProjectScope.RequiresCRUD)
}

func TestRunWorkflow_StopsAtFirstFailure(t *testing.T) {
	boom := errors.New("boom")
	ran := false

	wf := NewWorkflow()
	log := &eventLog{}
	wf.SetObserver(log)
	wf.AddAgent(newStepAgent("A", func(spec *project.Specification) error {
		return spec.TryWrite("A", func(w *project.Writer) error { return w.SetProjectDescription("kept") })
	}))
	wf.AddAgent(newStepAgent("B", func(*project.Specification) error { return boom }))
	wf.AddAgent(newStepAgent("C", func(*project.Specification) error { ran = true; return nil }))

	spec := project.New()
	err := wf.RunWorkflow(context.Background(), spec, models.UserInputs{})

	assert.ErrorIs(t, err, boom)
	assert.False(t, ran)
	assert.Equal(t, "kept", spec.Read().Description(), "earlier writes are not rolled back")
	assert.Equal(t, []string{"start A", "finish A ok", "start B", "finish B err"}, log.events)
}

func TestAddAgent_AllowsDuplicates(t *testing.T) {
	calls := 0
	a := newStepAgent("A", func(*project.Specification) error { calls++; return nil })

	wf := NewWorkflow()
	wf.AddAgent(a)
	wf.AddAgent(a)
	assert.Len(t, wf.Agents(), 2)

	require.NoError(t, wf.RunWorkflow(context.Background(), project.New(), models.UserInputs{}))
	assert.Equal(t, 2, calls)
}

func TestRunWorkflow_Empty(t *testing.T) {
	assert.NoError(t, NewWorkflow().RunWorkflow(context.Background(), project.New(), models.UserInputs{}))
}
