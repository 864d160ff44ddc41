package agent

import "github.com/TheAllen/Acadia/internal/models"

// Attributes is the mutable record every agent carries through its turn.
type Attributes struct {
	Objective string
	Position  string
	State     models.AgentState
	Messages  []models.Message
}

func NewAttributes(objective, position string) *Attributes {
	return &Attributes{
		Objective: objective,
		Position:  position,
		State:     models.StateDiscovery,
	}
}

// UpdateState sets the state unconditionally. Ordering is enforced by the
// driver, not here.
func (a *Attributes) UpdateState(s models.AgentState) {
	a.State = s
}

func (a *Attributes) AppendMessage(role, content string) {
	a.Messages = append(a.Messages, models.Message{Role: role, Content: content})
}
