package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/martijn/hookcmd/internal/core/domain"
	"github.com/martijn/hookcmd/internal/core/repository"
)

type executionRepository struct {
	db *DB
}

func NewExecutionRepository(db *DB) repository.ExecutionRepository {
	return &executionRepository{db: db}
}

func (r *executionRepository) CreateStart(ctx context.Context, execution *domain.CommandExecution) error {
	query := `
		INSERT INTO command_execution (execution_id, message_id, command, status, start_time)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		execution.ExecutionID,
		execution.MessageID,
		execution.Command,
		execution.Status,
		execution.StartTime,
	)
	if err != nil {
		return fmt.Errorf("failed to create execution: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	execution.ID = id

	return nil
}

func (r *executionRepository) Complete(ctx context.Context, execution *domain.CommandExecution) error {
	// Terminal update targets the row id handed out at START insert, so
	// concurrent START rows for one message can never be finalized ambiguously.
	query := `
		UPDATE command_execution
		SET status = ?, end_time = ?, output = ?, error = ?
		WHERE id = ?
	`

	var endTime sql.NullTime
	if execution.EndTime != nil {
		endTime = sql.NullTime{Valid: true, Time: *execution.EndTime}
	}

	result, err := r.db.ExecContext(ctx, query,
		execution.Status,
		endTime,
		NullString(execution.Output),
		NullString(execution.Error),
		execution.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update execution: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("execution not found: %d", execution.ID)
	}

	return nil
}

func (r *executionRepository) FindByExecutionID(ctx context.Context, executionID string) (*domain.CommandExecution, error) {
	query := `
		SELECT id, execution_id, message_id, command, status, start_time, end_time, output, error
		FROM command_execution
		WHERE execution_id = ?
	`
	return r.scanExecution(r.db.QueryRowContext(ctx, query, executionID))
}

func (r *executionRepository) FindRunning(ctx context.Context) ([]*domain.CommandExecution, error) {
	query := `
		SELECT id, execution_id, message_id, command, status, start_time, end_time, output, error
		FROM command_execution
		WHERE status = ?
		ORDER BY start_time ASC
	`

	rows, err := r.db.QueryContext(ctx, query, domain.ExecutionStatusStart)
	if err != nil {
		return nil, fmt.Errorf("failed to find running executions: %w", err)
	}
	defer rows.Close()

	var executions []*domain.CommandExecution
	for rows.Next() {
		execution, err := scanExecutionRow(rows)
		if err != nil {
			return nil, err
		}
		executions = append(executions, execution)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating running executions: %w", err)
	}

	return executions, nil
}

func (r *executionRepository) scanExecution(row *sql.Row) (*domain.CommandExecution, error) {
	var execution domain.CommandExecution
	var output, errorOutput sql.NullString
	var endTime sql.NullTime

	err := row.Scan(
		&execution.ID,
		&execution.ExecutionID,
		&execution.MessageID,
		&execution.Command,
		&execution.Status,
		&execution.StartTime,
		&endTime,
		&output,
		&errorOutput,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("execution not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	applyNullFields(&execution, endTime, output, errorOutput)
	return &execution, nil
}

func scanExecutionRow(rows *sql.Rows) (*domain.CommandExecution, error) {
	var execution domain.CommandExecution
	var output, errorOutput sql.NullString
	var endTime sql.NullTime

	err := rows.Scan(
		&execution.ID,
		&execution.ExecutionID,
		&execution.MessageID,
		&execution.Command,
		&execution.Status,
		&execution.StartTime,
		&endTime,
		&output,
		&errorOutput,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	applyNullFields(&execution, endTime, output, errorOutput)
	return &execution, nil
}

func applyNullFields(execution *domain.CommandExecution, endTime sql.NullTime, output, errorOutput sql.NullString) {
	if endTime.Valid {
		execution.EndTime = &endTime.Time
	}
	if output.Valid {
		execution.Output = &output.String
	}
	if errorOutput.Valid {
		execution.Error = &errorOutput.String
	}
}
