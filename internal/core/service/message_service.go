package service

import (
	"context"
	"fmt"

	"github.com/martijn/hookcmd/internal/core/domain"
	"github.com/martijn/hookcmd/internal/core/repository"
)

type MessageService struct {
	messageRepo repository.MessageRepository
}

func NewMessageService(messageRepo repository.MessageRepository) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
	}
}

// CreateMessage persists an accepted inbound event
func (s *MessageService) CreateMessage(ctx context.Context, sender, timestamp, content string) (*domain.Message, error) {
	message := domain.NewMessage(sender, timestamp, content)

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	return message, nil
}

// ListMessages lists messages joined with their executions, with filtering
func (s *MessageService) ListMessages(ctx context.Context, filter repository.MessageFilter) ([]*domain.MessageWithExecution, error) {
	return s.messageRepo.ListWithExecutions(ctx, filter)
}

// CountMessages counts messages with filtering
func (s *MessageService) CountMessages(ctx context.Context, filter repository.MessageFilter) (int, error) {
	return s.messageRepo.CountWithExecutions(ctx, filter)
}

// GetMessage retrieves a message joined with its execution, if any
func (s *MessageService) GetMessage(ctx context.Context, id int64) (*domain.MessageWithExecution, error) {
	return s.messageRepo.FindWithExecutionByID(ctx, id)
}
