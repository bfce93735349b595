package repository

import (
	"context"

	"github.com/martijn/hookcmd/internal/core/domain"
)

type ExecutionRepository interface {
	// CreateStart inserts the START row and sets execution.ID.
	CreateStart(ctx context.Context, execution *domain.CommandExecution) error

	// Complete writes the terminal state of the row identified by
	// execution.ID. The row id returned at START insert is the correlation
	// key, never a message_id+status re-query.
	Complete(ctx context.Context, execution *domain.CommandExecution) error

	FindByExecutionID(ctx context.Context, executionID string) (*domain.CommandExecution, error)

	// Find all executions still in START state (for restart recovery)
	FindRunning(ctx context.Context) ([]*domain.CommandExecution, error)
}
