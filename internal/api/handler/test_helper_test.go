package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/martijn/hookcmd/internal/api/dto"
	"github.com/martijn/hookcmd/internal/api/middleware"
	"github.com/martijn/hookcmd/internal/core/domain"
	"github.com/martijn/hookcmd/internal/core/repository"
	"github.com/martijn/hookcmd/internal/core/service"
	"github.com/martijn/hookcmd/internal/infrastructure/sqlite"
	"go.uber.org/zap"
)

const testBaseURL = "http://localhost:8321"

var testSigningKey = []byte("handler-test-signing-key")

// testEnv holds all test dependencies
type testEnv struct {
	db            *sqlite.DB
	router        *gin.Engine
	messageRepo   repository.MessageRepository
	executionRepo repository.ExecutionRepository
	executor      *service.ExecutorService
}

// setupTestEnv creates a test environment with in-memory SQLite database.
// buildCommand is the command the webhook route submits to the queue.
func setupTestEnv(t *testing.T, buildCommand string) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	messageRepo := sqlite.NewMessageRepository(db)
	executionRepo := sqlite.NewExecutionRepository(db)

	logger := zap.NewNop()
	signatureService := service.NewSignatureService(base64.StdEncoding.EncodeToString(testSigningKey))
	messageService := service.NewMessageService(messageRepo)
	executorService := service.NewExecutorService(executionRepo, logger, 5*time.Second)
	executorService.Start()
	t.Cleanup(executorService.Stop)

	webhookHandler := NewWebhookHandler(messageService, executorService, buildCommand, testBaseURL, logger)
	messageHandler := NewMessageHandler(messageService, executorService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/webhook/teams", middleware.SignatureMiddleware(signatureService, logger), webhookHandler.HandleTeamsWebhook)
	router.GET("/messages", messageHandler.ListMessages)
	router.GET("/messages/:id", messageHandler.GetMessage)
	router.GET("/executions/:execution_id", messageHandler.GetExecution)

	return &testEnv{
		db:            db,
		router:        router,
		messageRepo:   messageRepo,
		executionRepo: executionRepo,
		executor:      executorService,
	}
}

// signBody computes the Authorization header value for a request body
func signBody(body []byte) string {
	mac := hmac.New(sha256.New, testSigningKey)
	mac.Write(body)
	return "HMAC " + base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// postWebhook sends a signed (or unsigned) webhook request
func (env *testEnv) postWebhook(t *testing.T, body []byte, authHeader string) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, "/webhook/teams", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// makeRequest performs a GET request and returns the response
func (env *testEnv) makeRequest(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// seedMessage inserts a message row directly through the repository
func (env *testEnv) seedMessage(t *testing.T, sender, timestamp, content string) *domain.Message {
	t.Helper()

	message := domain.NewMessage(sender, timestamp, content)
	if err := env.messageRepo.Create(context.Background(), message); err != nil {
		t.Fatalf("failed to seed message: %v", err)
	}
	return message
}

// seedExecution inserts a terminal execution row for a message
func (env *testEnv) seedExecution(t *testing.T, messageID int64, status domain.ExecutionStatus, output, errorText string) *domain.CommandExecution {
	t.Helper()

	execution := domain.NewCommandExecution(messageID, "echo seeded")
	if err := env.executionRepo.CreateStart(context.Background(), execution); err != nil {
		t.Fatalf("failed to seed execution start: %v", err)
	}

	switch status {
	case domain.ExecutionStatusSuccess:
		execution.Complete(output)
	case domain.ExecutionStatusFailed:
		execution.Fail(errorText)
	default:
		return execution // left in START state
	}

	if err := env.executionRepo.Complete(context.Background(), execution); err != nil {
		t.Fatalf("failed to seed execution terminal state: %v", err)
	}
	return execution
}

func parseErrorResponse(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()

	var resp dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, w.Body.String())
	}
	return resp
}

func parseMessageListResponse(t *testing.T, w *httptest.ResponseRecorder) dto.MessageListResponse {
	t.Helper()

	var resp dto.MessageListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse message list response: %v\nBody: %s", err, w.Body.String())
	}
	return resp
}

func parseMessageResponse(t *testing.T, w *httptest.ResponseRecorder) dto.MessageResponse {
	t.Helper()

	var resp dto.MessageResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse message response: %v\nBody: %s", err, w.Body.String())
	}
	return resp
}

func parseWebhookResponse(t *testing.T, w *httptest.ResponseRecorder) dto.WebhookResponse {
	t.Helper()

	var resp dto.WebhookResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse webhook response: %v\nBody: %s", err, w.Body.String())
	}
	return resp
}

// cardFact pulls a fact value out of the adaptive card acknowledgment
func cardFact(t *testing.T, resp dto.WebhookResponse, title string) string {
	t.Helper()

	if len(resp.Attachments) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(resp.Attachments))
	}
	for _, element := range resp.Attachments[0].Content.Body {
		for _, fact := range element.Facts {
			if fact.Title == title {
				return fact.Value
			}
		}
	}
	t.Fatalf("fact %q not found in card", title)
	return ""
}
