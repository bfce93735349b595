package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/martijn/hookcmd/internal/api/handler"
	"github.com/martijn/hookcmd/internal/api/middleware"
	"github.com/martijn/hookcmd/internal/core/service"
	"github.com/martijn/hookcmd/pkg/config"
	"go.uber.org/zap"
)

type Server struct {
	router *gin.Engine
	srv    *http.Server
	config *config.Config
	logger *zap.Logger
}

// NewServer creates a new API server
func NewServer(
	cfg *config.Config,
	signatureService *service.SignatureService,
	messageService *service.MessageService,
	executorService *service.ExecutorService,
	logger *zap.Logger,
) *Server {
	// Set Gin mode
	if !cfg.IsDevMode() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandlerMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	// Initialize handlers
	webhookHandler := handler.NewWebhookHandler(messageService, executorService, cfg.BuildCommand, cfg.BaseURL, logger)
	messageHandler := handler.NewMessageHandler(messageService, executorService)

	// Webhook ingress (HMAC signature required)
	signatureMiddleware := middleware.SignatureMiddleware(signatureService, logger)
	router.POST("/webhook/teams", signatureMiddleware, webhookHandler.HandleTeamsWebhook)

	// Read API for the dashboard
	router.GET("/messages", messageHandler.ListMessages)
	router.GET("/messages/:id", messageHandler.GetMessage)
	router.GET("/executions/:execution_id", messageHandler.GetExecution)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	server := &Server{
		router: router,
		config: cfg,
		logger: logger,
	}

	return server
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.APIHost, s.config.APIPort)

	// No WriteTimeout: the webhook response waits for queued commands to
	// finish, which can exceed any fixed limit.
	s.srv = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	s.logger.Info("starting HTTP server", zap.String("addr", addr))
	return s.srv.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}
	return nil
}
