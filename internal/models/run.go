package models

import "time"

type RunStatus string

const (
	RunStatusPending  RunStatus = "pending"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

type Run struct {
	ID            int64
	CreatedAt     time.Time
	CompletedAt   *time.Time
	InitialPrompt string
	PipelineName  string
	WorkspacePath string
	Status        RunStatus
	CurrentAgent  string
	Error         string
	Focus         ProjectFocus
	Model         ModelChoice
}
