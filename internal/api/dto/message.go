package dto

import "time"

// ExecutionResponse represents a command execution
type ExecutionResponse struct {
	ID          int64      `json:"id"`
	ExecutionID string     `json:"execution_id"`
	MessageID   int64      `json:"message_id"`
	Command     string     `json:"command"`
	Status      string     `json:"status"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Output      *string    `json:"output,omitempty"`
	Error       *string    `json:"error,omitempty"`
	Link        *string    `json:"link,omitempty"` // Link to execution status endpoint
}

// MessageResponse represents a message and the execution it triggered, if any
type MessageResponse struct {
	ID        int64              `json:"id"`
	Sender    string             `json:"sender"`
	Timestamp string             `json:"timestamp"`
	Content   string             `json:"content"`
	CreatedAt time.Time          `json:"created_at"`
	Execution *ExecutionResponse `json:"execution,omitempty"`
}

// MessageListResponse represents a list of messages
type MessageListResponse struct {
	Items      []MessageResponse `json:"items"`
	Pagination PaginationInfo    `json:"pagination"`
}
