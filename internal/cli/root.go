package cli

import (
	"fmt"

	"github.com/martijn/hookcmd/internal/core/repository"
	"github.com/martijn/hookcmd/internal/core/service"
	"github.com/martijn/hookcmd/internal/infrastructure/sqlite"
	"github.com/martijn/hookcmd/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "hookcmd",
	Short: "hookcmd - authenticated webhook command runner",
	Long: `hookcmd ingests Teams webhook events, verifies their HMAC signature,
runs a configured build command for each accepted event through a strictly
serialized queue, and records every execution for later audit.

It provides:
- HMAC-SHA256 request signature verification over the raw body
- A single-worker FIFO command queue (at most one command runs at a time)
- A SQLite execution log of messages and command runs
- A REST read API for the dashboard`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for commands that don't need it
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		// Load configuration
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/hookcmd/config.yml)")
}

// newLogger builds the process logger from config
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log_level %q: %w", cfg.LogLevel, err)
	}

	var zapCfg zap.Config
	if cfg.IsDevMode() {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// initServices initializes all services
func initServices(logger *zap.Logger) (*Services, error) {
	// Initialize database
	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize repositories
	messageRepo := sqlite.NewMessageRepository(db)
	executionRepo := sqlite.NewExecutionRepository(db)

	// Initialize services
	signatureService := service.NewSignatureService(cfg.SigningKey)
	messageService := service.NewMessageService(messageRepo)
	executorService := service.NewExecutorService(executionRepo, logger, cfg.CommandTimeout)

	return &Services{
		DB:               db,
		MessageRepo:      messageRepo,
		ExecutionRepo:    executionRepo,
		SignatureService: signatureService,
		MessageService:   messageService,
		ExecutorService:  executorService,
	}, nil
}

// Services holds all initialized services
type Services struct {
	DB               *sqlite.DB
	MessageRepo      repository.MessageRepository
	ExecutionRepo    repository.ExecutionRepository
	SignatureService *service.SignatureService
	MessageService   *service.MessageService
	ExecutorService  *service.ExecutorService
}

// Close releases service resources
func (s *Services) Close() {
	if s.DB != nil {
		s.DB.Close()
	}
}
