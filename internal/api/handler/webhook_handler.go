package handler

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/martijn/hookcmd/internal/api/dto"
	"github.com/martijn/hookcmd/internal/api/middleware"
	"github.com/martijn/hookcmd/internal/core/service"
	"go.uber.org/zap"
)

const (
	unknownSender    = "Unknown User"
	unknownTimestamp = "Unknown Time"
	emptyContent     = "No content"
)

// Best-effort text cleanup, not a sanitizer: entities and malformed markup
// pass through untouched.
var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

type WebhookHandler struct {
	messageService  *service.MessageService
	executorService *service.ExecutorService
	buildCommand    string
	baseURL         string
	logger          *zap.Logger
}

func NewWebhookHandler(
	messageService *service.MessageService,
	executorService *service.ExecutorService,
	buildCommand string,
	baseURL string,
	logger *zap.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		messageService:  messageService,
		executorService: executorService,
		buildCommand:    buildCommand,
		baseURL:         baseURL,
		logger:          logger,
	}
}

// HandleTeamsWebhook handles POST /webhook/teams. The signature middleware has
// already verified the HMAC over the raw body; JSON is parsed only here.
func (h *WebhookHandler) HandleTeamsWebhook(c *gin.Context) {
	body, ok := middleware.GetRawBody(c)
	if !ok {
		h.logger.Error("raw body missing from context; signature middleware not applied")
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("request body unavailable", nil, h.baseURL))
		return
	}

	var payload dto.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.logger.Warn("failed to parse webhook payload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("invalid JSON payload", nil, h.baseURL))
		return
	}

	sender, timestamp, content := extractFields(payload)

	h.logger.Info("webhook accepted",
		zap.String("sender", sender),
		zap.String("timestamp", timestamp))

	message, err := h.messageService.CreateMessage(c.Request.Context(), sender, timestamp, content)
	if err != nil {
		h.logger.Error("failed to persist message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to store message", nil, h.baseURL))
		return
	}

	execution, err := h.executorService.Execute(c.Request.Context(), message.ID, h.buildCommand)
	if err != nil {
		h.logger.Error("command execution errored",
			zap.Int64("message_id", message.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(err.Error(), &message.ID, h.baseURL))
		return
	}

	status := "UNKNOWN"
	if execution != nil {
		status = string(execution.Status)
	}

	c.JSON(http.StatusOK, dto.NewAcknowledgmentResponse(sender, timestamp, message.ID, status, h.baseURL))
}

// extractFields pulls sender, timestamp and content out of the payload,
// substituting sentinels for anything absent. Content prefers the direct text
// field and falls back to an HTML attachment when its stripped text is
// non-empty.
func extractFields(payload dto.WebhookPayload) (sender, timestamp, content string) {
	sender = unknownSender
	if payload.From != nil && payload.From.Name != "" {
		sender = payload.From.Name
	}

	timestamp = payload.Timestamp
	if timestamp == "" {
		timestamp = unknownTimestamp
	}

	content = payload.Text
	if content == "" {
		content = emptyContent
	}
	if strings.Contains(content, "<") {
		content = htmlTagPattern.ReplaceAllString(content, "")
	}

	if len(payload.Attachments) > 0 && payload.Attachments[0].ContentType == "text/html" {
		plainText := htmlTagPattern.ReplaceAllString(payload.Attachments[0].Content, "")
		if strings.TrimSpace(plainText) != "" {
			content = plainText
		}
	}

	return sender, timestamp, content
}
