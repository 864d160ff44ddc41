package models

import "time"

type ExecStatus string

const (
	ExecStatusPending  ExecStatus = "pending"
	ExecStatusRunning  ExecStatus = "running"
	ExecStatusComplete ExecStatus = "complete"
	ExecStatusFailed   ExecStatus = "failed"
)

// Execution is one agent's turn within a run.
type Execution struct {
	ID          int64
	RunID       int64
	AgentName   string // pipeline name, e.g. "architect"
	Role        string // position label, e.g. "Solutions Architect"
	FinalState  AgentState
	Status      ExecStatus
	StartedAt   *time.Time
	CompletedAt *time.Time
	SequenceNum int
	Error       string
}
