package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/perchapp/perch/db"
	"github.com/perchapp/perch/internal/api"
	"github.com/perchapp/perch/internal/assistant"
	"github.com/perchapp/perch/internal/calendar"
	"github.com/perchapp/perch/internal/chat"
	"github.com/perchapp/perch/internal/config"
	"github.com/perchapp/perch/internal/dashboard"
	"github.com/perchapp/perch/internal/database"
	"github.com/perchapp/perch/internal/documents"
	"github.com/perchapp/perch/internal/expenses"
	"github.com/perchapp/perch/internal/goals"
	"github.com/perchapp/perch/internal/habits"
	"github.com/perchapp/perch/internal/knowledge"
	"github.com/perchapp/perch/internal/log"
	"github.com/perchapp/perch/internal/notes"
	"github.com/perchapp/perch/internal/observability"
	"github.com/perchapp/perch/internal/storage"
	"github.com/perchapp/perch/internal/todo"
)

// Server timeout configuration.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 2 * time.Minute // URL ingestion and generation can be slow
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// parseLogLevel maps a config string to a slog level, defaulting to info.
func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// runServe initializes and starts the HTTP API server.
func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	logger := log.New(log.Config{Level: parseLogLevel(cfg.LogLevel), JSON: cfg.LogJSON})
	logger.Info("starting perch", "version", AppVersion, "addr", cfg.ListenAddr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := observability.Setup(ctx, observability.Config{
		Endpoint:    cfg.OTLPEndpoint,
		Environment: cfg.Environment,
		ServiceName: "perch",
	}, logger)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("trace flush failed", "error", err)
		}
	}()

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	pool, err := database.Open(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	knowledgeStore := knowledge.NewStore(pool, logger.With("component", "knowledge"))

	generator, err := assistant.New(ctx, assistant.Config{
		ModelName:   cfg.ModelName,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}, logger.With("component", "assistant"))
	if err != nil {
		return fmt.Errorf("creating assistant: %w", err)
	}
	if generator.Simulated() {
		logger.Warn("GEMINI_API_KEY not set, assistant runs in simulation mode")
	}

	chatStore := chat.NewStore(pool, logger.With("component", "chat"))
	chatSvc := chat.NewService(chatStore, knowledgeStore, generator,
		cfg.TopK, cfg.ContextDocs, logger.With("component", "chat"))

	var objects documents.ObjectStore
	if cfg.ObjectStoreEnabled() {
		client, err := storage.NewClient(storage.Config{
			Endpoint:  cfg.ObjectEndpoint,
			AccessKey: cfg.ObjectAccessKey,
			SecretKey: cfg.ObjectSecretKey,
			Bucket:    cfg.ObjectBucket,
			UseSSL:    cfg.ObjectUseSSL,
		}, logger.With("component", "storage"))
		if err != nil {
			return fmt.Errorf("creating object store client: %w", err)
		}
		if err := client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("preparing object store bucket: %w", err)
		}
		objects = client
	} else {
		logger.Info("object store not configured, keeping extracted text only")
	}

	docSvc := documents.NewService(knowledgeStore, objects, logger.With("component", "documents"))

	todoStore := todo.NewStore(pool, logger.With("component", "todo"))
	eventStore := calendar.NewStore(pool, logger.With("component", "calendar"))
	noteStore := notes.NewStore(pool, logger.With("component", "notes"))
	goalStore := goals.NewStore(pool, logger.With("component", "goals"))
	habitStore := habits.NewStore(pool, logger.With("component", "habits"))
	expenseStore := expenses.NewStore(pool, logger.With("component", "expenses"))

	scheduler := habits.NewScheduler(habitStore, logger.With("component", "habits"))
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("starting habit scheduler: %w", err)
	}
	defer scheduler.Stop()

	dashSvc := dashboard.NewService(todoStore, eventStore, noteStore, goalStore,
		habitStore, expenseStore, knowledgeStore, chatStore, logger.With("component", "dashboard"))

	apiServer := api.NewServer(api.ServerConfig{
		Logger:      logger.With("component", "api"),
		Chat:        chatSvc,
		Todos:       todoStore,
		Events:      eventStore,
		Notes:       noteStore,
		Goals:       goalStore,
		Habits:      habitStore,
		Expenses:    expenseStore,
		Documents:   docSvc,
		Dashboard:   dashSvc,
		Pool:        pool,
		CORSOrigins: cfg.CORSOrigins,
		IsDev:       cfg.PostgresSSLMode == "disable",
		TrustProxy:  cfg.TrustProxy,
		RateBurst:   cfg.RateBurst,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	logger.Info("HTTP server ready",
		"addr", cfg.ListenAddr,
		"api", "/api/v1/*",
		"health", "/health, /ready",
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server: %w", err)
	}
}
