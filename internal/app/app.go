package app

import (
	"context"
	"fmt"

	"github.com/semmidev/custos/internal/adapter/compressor"
	"github.com/semmidev/custos/internal/adapter/database"
	"github.com/semmidev/custos/internal/adapter/notifier"
	"github.com/semmidev/custos/internal/config"
	"github.com/semmidev/custos/internal/domain"
	"github.com/semmidev/custos/internal/infrastructure/logger"
	"github.com/semmidev/custos/internal/usecase"
)

// App wires configuration into the backup engine and runs one batch.
type App struct {
	config       *config.Config
	logger       *logger.Logger
	orchestrator *usecase.Orchestrator
}

func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(cfg.App.LogLevel, cfg.App.LogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Infof("starting %s", cfg.App.Name)
	log.Infof("found %d enabled database(s)", len(cfg.EnabledDatabases()))

	registry := newRegistry(cfg, log)
	log.Infof("registered engine kinds: %v", registry.Kinds())

	dispatcher := usecase.NewDispatcher(
		buildTransports(cfg, log),
		cfg.Notification.Email.Recipients,
		cfg.App.Name,
		cfg.Notification.Timeout,
		log,
	)

	orchestrator := usecase.NewOrchestrator(
		registry,
		usecase.NewRetention(log),
		dispatcher,
		compressor.NewGzip(),
		log,
		usecase.RunOptions{
			Compress:    cfg.Backup.Compress,
			ExecTimeout: cfg.Backup.Timeout,
			Workers:     cfg.Backup.Workers,
		},
	)

	return &App{
		config:       cfg,
		logger:       log,
		orchestrator: orchestrator,
	}, nil
}

func newRegistry(cfg *config.Config, log *logger.Logger) *domain.Registry {
	opts := database.Options{
		KeepFailedArtifacts: cfg.Backup.KeepFailedArtifacts,
		Logger:              log,
	}

	registry := domain.NewRegistry()
	registry.Register(domain.EnginePostgres, func(t domain.Target) domain.Backend {
		return database.NewPostgres(t, opts)
	})
	registry.Register(domain.EngineMySQL, func(t domain.Target) domain.Backend {
		return database.NewMySQL(t, opts)
	})
	registry.Register(domain.EngineMSSQL, func(t domain.Target) domain.Backend {
		return database.NewMSSQL(t, opts)
	})
	registry.Register(domain.EngineMongoDB, func(t domain.Target) domain.Backend {
		return database.NewMongoDB(t, opts)
	})
	return registry
}

func buildTransports(cfg *config.Config, log *logger.Logger) []usecase.Transport {
	var transports []usecase.Transport

	if cfg.Notification.Email.Enabled {
		email := cfg.Notification.Email
		transports = append(transports, notifier.NewEmail(
			email.SMTPHost, email.SMTPPort, email.Username, email.Password, email.From,
		))
		log.Infof("email notifications enabled: %s:%d, %d recipient(s)",
			email.SMTPHost, email.SMTPPort, len(email.Recipients))
	}

	if cfg.Notification.Telegram.Enabled {
		tg, err := notifier.NewTelegram(cfg.Notification.Telegram.BotToken, cfg.Notification.Telegram.ChatID)
		if err != nil {
			log.Errorf("failed to initialize telegram transport: %v", err)
		} else {
			transports = append(transports, tg)
			log.Infof("telegram notifications enabled")
		}
	}

	return transports
}

// Run executes one backup batch and reports one line per target. The error
// return drives the process exit code for unattended runs.
func (a *App) Run(ctx context.Context) error {
	targets := a.config.Targets()
	if len(targets) == 0 {
		return fmt.Errorf("no enabled databases configured")
	}
	for _, target := range targets {
		if err := target.Validate(); err != nil {
			return fmt.Errorf("invalid target: %w", err)
		}
	}

	summary := a.orchestrator.Run(ctx, targets)

	for _, result := range summary.Results {
		if result.Outcome.Succeeded() {
			a.logger.Infof("OK   %s (%s): %s",
				result.Target.Name, result.Target.Engine, result.Outcome.Artifact.FilePath)
		} else {
			a.logger.Errorf("FAIL %s (%s): %v",
				result.Target.Name, result.Target.Engine, result.Outcome.Failure)
		}
	}

	if failed := summary.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d backup(s) failed", failed, len(summary.Results))
	}
	return nil
}

func (a *App) Shutdown() {
	a.logger.Infof("shutting down")
	a.logger.Close()
}
