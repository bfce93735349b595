package domain

import (
	"time"

	"github.com/google/uuid"
)

type ExecutionStatus string

const (
	ExecutionStatusStart   ExecutionStatus = "START"
	ExecutionStatusSuccess ExecutionStatus = "SUCCESS"
	ExecutionStatusFailed  ExecutionStatus = "FAILED"
)

// CommandExecution is one run of the configured external command, attributed
// to the message that triggered it. A row is created in START state when the
// queue begins executing and is updated exactly once to a terminal state.
// Output and Error are mutually exclusive: SUCCESS populates Output, FAILED
// populates Error.
type CommandExecution struct {
	ID          int64           `db:"id"`
	ExecutionID string          `db:"execution_id"` // UUID for API polling
	MessageID   int64           `db:"message_id"`
	Command     string          `db:"command"`
	Status      ExecutionStatus `db:"status"`
	StartTime   time.Time       `db:"start_time"`
	EndTime     *time.Time      `db:"end_time"`
	Output      *string         `db:"output"`
	Error       *string         `db:"error"`
}

func NewCommandExecution(messageID int64, command string) *CommandExecution {
	return &CommandExecution{
		ExecutionID: uuid.New().String(),
		MessageID:   messageID,
		Command:     command,
		Status:      ExecutionStatusStart,
		StartTime:   time.Now().UTC(),
	}
}

func (e *CommandExecution) Complete(output string) {
	now := time.Now().UTC()
	e.EndTime = &now
	e.Status = ExecutionStatusSuccess
	e.Output = &output
	e.Error = nil
}

func (e *CommandExecution) Fail(errorOutput string) {
	now := time.Now().UTC()
	e.EndTime = &now
	e.Status = ExecutionStatusFailed
	if errorOutput == "" {
		errorOutput = "command failed"
	}
	e.Error = &errorOutput
	e.Output = nil
}

func (e *CommandExecution) IsComplete() bool {
	return e.Status == ExecutionStatusSuccess || e.Status == ExecutionStatusFailed
}
