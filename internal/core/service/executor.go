package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/martijn/hookcmd/internal/core/domain"
	"github.com/martijn/hookcmd/internal/core/repository"
	"go.uber.org/zap"
)

type job struct {
	messageID int64
	command   string
	result    chan jobResult
}

type jobResult struct {
	execution *domain.CommandExecution
	err       error
}

// ExecutorService runs external commands one at a time, in submission order.
// A single worker goroutine drains the queue; task i+1 never starts before
// task i has been written to a terminal state. One instance is constructed at
// process start and shared by all inbound requests.
type ExecutorService struct {
	executionRepo repository.ExecutionRepository
	logger        *zap.Logger
	timeout       time.Duration

	queue chan job
	done  chan struct{}
}

// NewExecutorService creates an executor. timeout bounds each command run;
// zero disables the bound.
func NewExecutorService(executionRepo repository.ExecutionRepository, logger *zap.Logger, timeout time.Duration) *ExecutorService {
	return &ExecutorService{
		executionRepo: executionRepo,
		logger:        logger,
		timeout:       timeout,
		queue:         make(chan job, 64),
		done:          make(chan struct{}),
	}
}

// Start launches the worker goroutine.
func (s *ExecutorService) Start() {
	go s.run()
}

// Stop shuts the worker down. Pending submissions fail with a shutdown error.
func (s *ExecutorService) Stop() {
	close(s.done)
}

// Execute submits the command to the queue and blocks until its terminal
// state has been persisted (or the context is cancelled, in which case the
// command still runs when its turn comes but the caller stops waiting).
func (s *ExecutorService) Execute(ctx context.Context, messageID int64, command string) (*domain.CommandExecution, error) {
	j := job{
		messageID: messageID,
		command:   command,
		result:    make(chan jobResult, 1),
	}

	select {
	case s.queue <- j:
	case <-s.done:
		return nil, NewServiceError(http.StatusServiceUnavailable, "command queue is shut down")
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-j.result:
		return res.execution, res.err
	case <-s.done:
		return nil, NewServiceError(http.StatusServiceUnavailable, "command queue is shut down")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetByExecutionID retrieves an execution by its public UUID.
func (s *ExecutorService) GetByExecutionID(ctx context.Context, executionID string) (*domain.CommandExecution, error) {
	return s.executionRepo.FindByExecutionID(ctx, executionID)
}

// RecoverStale marks executions left in START state by a previous process as
// FAILED. Called once at startup, before the worker accepts new submissions.
func (s *ExecutorService) RecoverStale(ctx context.Context) error {
	stale, err := s.executionRepo.FindRunning(ctx)
	if err != nil {
		return fmt.Errorf("failed to find stale executions: %w", err)
	}

	for _, execution := range stale {
		execution.Fail("interrupted by process restart")
		if err := s.executionRepo.Complete(ctx, execution); err != nil {
			return fmt.Errorf("failed to fail stale execution %d: %w", execution.ID, err)
		}
		s.logger.Warn("marked stale execution as failed",
			zap.Int64("execution_id", execution.ID),
			zap.Int64("message_id", execution.MessageID))
	}

	return nil
}

func (s *ExecutorService) run() {
	for {
		select {
		case <-s.done:
			return
		case j := <-s.queue:
			j.result <- s.process(j)
		}
	}
}

// process handles one submission. Persistence failures are caught here so the
// worker survives them and moves on to the next submission; only the caller of
// the affected submission sees the error.
func (s *ExecutorService) process(j job) jobResult {
	// The request context may be gone by the time the queue reaches this
	// task; persistence uses its own context.
	ctx := context.Background()

	execution := domain.NewCommandExecution(j.messageID, j.command)
	if err := s.executionRepo.CreateStart(ctx, execution); err != nil {
		s.logger.Error("failed to record execution start",
			zap.Int64("message_id", j.messageID), zap.Error(err))
		return jobResult{err: NewServiceError(http.StatusInternalServerError, "failed to record execution start")}
	}

	s.runCommand(execution)

	if err := s.executionRepo.Complete(ctx, execution); err != nil {
		s.logger.Error("failed to record execution result",
			zap.Int64("execution_id", execution.ID),
			zap.Int64("message_id", j.messageID), zap.Error(err))
		return jobResult{execution: execution, err: NewServiceError(http.StatusInternalServerError, "failed to record execution result")}
	}

	s.logger.Info("command execution finished",
		zap.Int64("execution_id", execution.ID),
		zap.Int64("message_id", execution.MessageID),
		zap.String("status", string(execution.Status)))

	return jobResult{execution: execution}
}

// runCommand executes the external process and moves execution to a terminal
// state in memory. It never returns an error; failures become a FAILED state.
func (s *ExecutorService) runCommand(execution *domain.CommandExecution) {
	argv, err := shellquote.Split(execution.Command)
	if err != nil || len(argv) == 0 {
		execution.Fail(fmt.Sprintf("invalid command: %v", err))
		return
	}

	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runErr == nil {
		// Success: stderr chatter is folded into output, error stays empty
		output := stdout.String()
		if errText := stderr.String(); errText != "" {
			if output != "" {
				output += "\n"
			}
			output += errText
		}
		execution.Complete(output)
		return
	}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		execution.Fail(fmt.Sprintf("command timed out after %s", s.timeout))
	case stderr.Len() > 0:
		execution.Fail(stderr.String())
	default:
		execution.Fail(runErr.Error())
	}
}
