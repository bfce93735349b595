package repository

import (
	"context"

	"github.com/martijn/hookcmd/internal/api/util"
	"github.com/martijn/hookcmd/internal/core/domain"
)

// MessageFilter embeds ListFilter for generic query/order/pagination
type MessageFilter struct {
	util.ListFilter
}

type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	FindByID(ctx context.Context, id int64) (*domain.Message, error)

	// Joined message+execution views for the dashboard
	ListWithExecutions(ctx context.Context, filter MessageFilter) ([]*domain.MessageWithExecution, error)
	CountWithExecutions(ctx context.Context, filter MessageFilter) (int, error)
	FindWithExecutionByID(ctx context.Context, id int64) (*domain.MessageWithExecution, error)
}
