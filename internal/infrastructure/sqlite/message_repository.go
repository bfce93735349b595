package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/martijn/hookcmd/internal/core/domain"
	"github.com/martijn/hookcmd/internal/core/repository"
)

// joinColumns maps public filter/order field names to table-qualified columns
// of the message LEFT JOIN command_execution view.
var joinColumns = map[string]string{
	"id":         "m.id",
	"sender":     "m.sender",
	"timestamp":  "m.timestamp",
	"created_at": "m.created_at",
	"status":     "c.status",
	"start_time": "c.start_time",
	"end_time":   "c.end_time",
}

const joinSelect = `
	SELECT m.id, m.sender, m.timestamp, m.content, m.created_at,
		c.id, c.execution_id, c.command, c.status, c.start_time, c.end_time, c.output, c.error
	FROM message m
	LEFT JOIN command_execution c ON c.message_id = m.id
	WHERE 1=1
`

type messageRepository struct {
	db *DB
}

func NewMessageRepository(db *DB) repository.MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	query := `
		INSERT INTO message (sender, timestamp, content, created_at)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		message.Sender,
		message.Timestamp,
		message.Content,
		message.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	message.ID = id

	return nil
}

func (r *messageRepository) FindByID(ctx context.Context, id int64) (*domain.Message, error) {
	query := `
		SELECT id, sender, timestamp, content, created_at
		FROM message
		WHERE id = ?
	`

	var message domain.Message
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&message.ID,
		&message.Sender,
		&message.Timestamp,
		&message.Content,
		&message.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("message not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}

	return &message, nil
}

func (r *messageRepository) ListWithExecutions(ctx context.Context, filter repository.MessageFilter) ([]*domain.MessageWithExecution, error) {
	query := joinSelect
	args := []interface{}{}

	query, args = ApplyFilters(query, args, filter.Filters, joinColumns)
	query = ApplyOrdering(query, filter.Order, joinColumns, "m.created_at DESC, m.id DESC")
	query, args = ApplyPagination(query, args, filter.Page, filter.PerPage)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*domain.MessageWithExecution
	for rows.Next() {
		message, err := scanJoinedRow(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

func (r *messageRepository) CountWithExecutions(ctx context.Context, filter repository.MessageFilter) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM message m
		LEFT JOIN command_execution c ON c.message_id = m.id
		WHERE 1=1
	`
	args := []interface{}{}

	query, args = ApplyFilters(query, args, filter.Filters, joinColumns)

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}

	return count, nil
}

func (r *messageRepository) FindWithExecutionByID(ctx context.Context, id int64) (*domain.MessageWithExecution, error) {
	query := joinSelect + " AND m.id = ?"

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find message: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to find message: %w", err)
		}
		return nil, fmt.Errorf("message not found")
	}

	return scanJoinedRow(rows)
}

func scanJoinedRow(rows *sql.Rows) (*domain.MessageWithExecution, error) {
	var message domain.MessageWithExecution
	var execID sql.NullInt64
	var executionID, command, status, output, errorOutput sql.NullString
	var startTime, endTime sql.NullTime

	err := rows.Scan(
		&message.ID,
		&message.Sender,
		&message.Timestamp,
		&message.Content,
		&message.CreatedAt,
		&execID,
		&executionID,
		&command,
		&status,
		&startTime,
		&endTime,
		&output,
		&errorOutput,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}

	if execID.Valid {
		execution := &domain.CommandExecution{
			ID:          execID.Int64,
			ExecutionID: executionID.String,
			MessageID:   message.ID,
			Command:     command.String,
			Status:      domain.ExecutionStatus(status.String),
			StartTime:   startTime.Time,
		}
		if endTime.Valid {
			execution.EndTime = &endTime.Time
		}
		if output.Valid {
			execution.Output = &output.String
		}
		if errorOutput.Valid {
			execution.Error = &errorOutput.String
		}
		message.Execution = execution
	}

	return &message, nil
}
