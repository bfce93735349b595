package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/martijn/hookcmd/internal/api/dto"
	"github.com/martijn/hookcmd/internal/api/util"
	"github.com/martijn/hookcmd/internal/core/domain"
	"github.com/martijn/hookcmd/internal/core/repository"
	"github.com/martijn/hookcmd/internal/core/service"
)

// Allowed fields for message queries and ordering
var (
	messageQueryFields = []string{"id", "sender", "timestamp", "created_at", "status", "start_time", "end_time"}
	messageOrderFields = []string{"id", "created_at", "status", "start_time", "end_time"}
)

const defaultPerPage = 50

type MessageHandler struct {
	messageService  *service.MessageService
	executorService *service.ExecutorService
}

func NewMessageHandler(messageService *service.MessageService, executorService *service.ExecutorService) *MessageHandler {
	return &MessageHandler{
		messageService:  messageService,
		executorService: executorService,
	}
}

// ListMessages handles GET /messages
func (h *MessageHandler) ListMessages(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultPerPage)))

	filter := repository.MessageFilter{
		ListFilter: util.ListFilter{
			Page:    page,
			PerPage: perPage,
		},
	}

	if queryStr := c.Query("query"); queryStr != "" {
		filters, err := util.ParseQueryString(queryStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
				Code:    http.StatusBadRequest,
			})
			return
		}

		if err := util.ValidateFilterFields(filters, messageQueryFields); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
				Code:    http.StatusBadRequest,
			})
			return
		}

		filter.Filters = filters
	}

	if orderStr := c.Query("order"); orderStr != "" {
		orders, err := util.ParseOrderString(orderStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
				Code:    http.StatusBadRequest,
			})
			return
		}

		if err := util.ValidateOrderFields(orders, messageOrderFields); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "Bad Request",
				Message: err.Error(),
				Code:    http.StatusBadRequest,
			})
			return
		}

		filter.Order = orders
	}

	messages, err := h.messageService.ListMessages(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal Server Error",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
		return
	}

	count, _ := h.messageService.CountMessages(c.Request.Context(), filter)

	totalPages := 0
	if perPage > 0 {
		totalPages = (count + perPage - 1) / perPage
	}

	response := dto.MessageListResponse{
		Items: make([]dto.MessageResponse, len(messages)),
		Pagination: dto.PaginationInfo{
			Total:      count,
			Page:       page,
			PerPage:    perPage,
			TotalPages: totalPages,
		},
	}

	for i, message := range messages {
		response.Items[i] = toMessageResponse(message)
	}

	c.JSON(http.StatusOK, response)
}

// GetMessage handles GET /messages/:id
func (h *MessageHandler) GetMessage(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Bad Request",
			Message: "Invalid message ID",
			Code:    http.StatusBadRequest,
		})
		return
	}

	message, err := h.messageService.GetMessage(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "Not Found",
			Message: fmt.Sprintf("Message not found: %d", id),
			Code:    http.StatusNotFound,
		})
		return
	}

	c.JSON(http.StatusOK, toMessageResponse(message))
}

// GetExecution handles GET /executions/:execution_id
func (h *MessageHandler) GetExecution(c *gin.Context) {
	executionID := c.Param("execution_id")

	execution, err := h.executorService.GetByExecutionID(c.Request.Context(), executionID)
	if err != nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "Not Found",
			Message: fmt.Sprintf("Execution not found: %s", executionID),
			Code:    http.StatusNotFound,
		})
		return
	}

	c.JSON(http.StatusOK, toExecutionResponse(execution))
}

func toMessageResponse(message *domain.MessageWithExecution) dto.MessageResponse {
	response := dto.MessageResponse{
		ID:        message.ID,
		Sender:    message.Sender,
		Timestamp: message.Timestamp,
		Content:   message.Content,
		CreatedAt: message.CreatedAt,
	}

	if message.Execution != nil {
		execution := toExecutionResponse(message.Execution)
		response.Execution = &execution
	}

	return response
}

func toExecutionResponse(execution *domain.CommandExecution) dto.ExecutionResponse {
	response := dto.ExecutionResponse{
		ID:          execution.ID,
		ExecutionID: execution.ExecutionID,
		MessageID:   execution.MessageID,
		Command:     execution.Command,
		Status:      string(execution.Status),
		StartTime:   execution.StartTime,
		EndTime:     execution.EndTime,
		Output:      execution.Output,
		Error:       execution.Error,
	}

	link := fmt.Sprintf("/executions/%s", execution.ExecutionID)
	response.Link = &link

	return response
}
