package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pulsehq/pulse/core/actions"
	"github.com/pulsehq/pulse/core/aggregate"
	"github.com/pulsehq/pulse/core/config"
	"github.com/pulsehq/pulse/core/conversation"
	"github.com/pulsehq/pulse/core/intent"
	"github.com/pulsehq/pulse/core/llm"
	"github.com/pulsehq/pulse/core/notify"
	"github.com/pulsehq/pulse/core/orchestrator"
	"github.com/pulsehq/pulse/core/providers"
	"github.com/pulsehq/pulse/core/server"
	"github.com/pulsehq/pulse/core/store"
	"github.com/pulsehq/pulse/core/synthesis"
)

// sweepInterval drives background cleanup of idle sessions and expired
// proposals.
const sweepInterval = 5 * time.Minute

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Pulse HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "pulse.yaml", "path to the configuration file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	manager := config.NewManager(configPath)
	if err := manager.Load(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := manager.Get()

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	if err := manager.Watch(logger); err != nil {
		logger.Warn("config hot reload unavailable", "error", err)
	}
	defer manager.Close()

	ds, err := store.NewSQLiteStore(store.SQLiteConfig{
		Path:         cfg.Database.Path,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer ds.Close()

	registry, err := buildRegistry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build provider registry: %w", err)
	}
	defer registry.Close()
	logger.Info("providers registered", "providers", registry.Names())

	router := llm.NewRouter(registry, llm.Config{
		AttemptTimeout: cfg.Providers.AttemptTimeout,
		Logger:         logger,
	})

	var notifier notify.Notifier
	if cfg.SMTP.Host != "" {
		notifier, err = notify.NewSMTPNotifier(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			From:     cfg.SMTP.From,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
		})
		if err != nil {
			return fmt.Errorf("smtp notifier: %w", err)
		}
	} else {
		notifier = notify.NewLogNotifier(logger)
	}

	sessions, err := conversation.NewManager(conversation.ManagerConfig{
		MaxSessions: cfg.Session.MaxSessions,
		IdleTimeout: cfg.Session.IdleTimeout,
	})
	if err != nil {
		return fmt.Errorf("session manager: %w", err)
	}

	gate := actions.NewGate()
	orch := orchestrator.New(orchestrator.Config{
		Classifier:  intent.NewClassifier(router, intent.Config{Logger: logger}),
		Aggregator:  aggregate.NewAggregator(ds, aggregate.Config{Logger: logger}),
		Synthesizer: synthesis.NewSynthesizer(router, synthesis.Config{Logger: logger}),
		Proposer:    actions.NewProposer(ds),
		Gate:        gate,
		Executor:    actions.NewExecutor(ds, notifier, actions.ExecutorConfig{Logger: logger}),
		Logger:      logger,
	})

	srv := server.New(orch, sessions, ds, router, server.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Logger:       logger,
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweepLoop(ctx, sessions, gate, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func buildRegistry(ctx context.Context, cfg *config.Config) (*providers.Registry, error) {
	builder := providers.NewRegistryBuilder(ctx)

	if p := cfg.Providers.Anthropic; p.Enabled {
		pc := providers.DefaultAnthropicConfig()
		pc.APIKey = p.APIKey
		if p.Model != "" {
			pc.Model = p.Model
		}
		builder.WithAnthropic(pc, p.Priority, p.PrivacyApproved)
	}
	if p := cfg.Providers.OpenAI; p.Enabled {
		pc := providers.DefaultOpenAIConfig()
		pc.APIKey = p.APIKey
		if p.Model != "" {
			pc.Model = p.Model
		}
		builder.WithOpenAI(pc, p.Priority, p.PrivacyApproved)
	}
	if p := cfg.Providers.Google; p.Enabled {
		pc := providers.DefaultGoogleConfig()
		pc.APIKey = p.APIKey
		if p.Model != "" {
			pc.Model = p.Model
		}
		builder.WithGoogle(pc, p.Priority, p.PrivacyApproved)
	}
	if cfg.Providers.LocalEnabled {
		// The local provider is always last in the chain.
		builder.WithLocal(100)
	}

	return builder.Build()
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func sweepLoop(ctx context.Context, sessions *conversation.Manager, gate *actions.Gate, logger *slog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted := sessions.Sweep()
			expired := gate.Sweep()
			if evicted > 0 || expired > 0 {
				logger.Debug("sweep completed",
					"sessions_evicted", evicted,
					"proposals_expired", expired)
			}
		}
	}
}
