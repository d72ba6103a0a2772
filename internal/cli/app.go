package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ggonsajang/comcard/internal/amqp"
	"github.com/ggonsajang/comcard/internal/artifact"
	"github.com/ggonsajang/comcard/internal/backend"
	"github.com/ggonsajang/comcard/internal/config"
	"github.com/ggonsajang/comcard/internal/export"
	"github.com/ggonsajang/comcard/internal/handoff"
	"github.com/ggonsajang/comcard/internal/kv"
	"github.com/ggonsajang/comcard/internal/log"
	"github.com/ggonsajang/comcard/internal/mail"
	"github.com/ggonsajang/comcard/internal/report"
	"github.com/ggonsajang/comcard/internal/session"
	"github.com/ggonsajang/comcard/internal/sheets"
	"github.com/ggonsajang/comcard/internal/sheets/google"
)

const artifactCleanupInterval = time.Minute

// App holds the collaborators shared by every command.
type App struct {
	Config     *config.Config
	Logger     *log.Logger
	Backend    *backend.BackendResult
	Dispatcher *export.Dispatcher
	Backup     *export.Backup
	Auth       *session.Authenticator
	State      *session.State

	// Artifacts and Queue are only opened for the server.
	Artifacts artifact.Store
	Queue     *amqp.Client

	closers []func() error
}

type appOptions struct {
	// out receives notices and mail links of backups run in-process.
	out       io.Writer
	artifacts bool
	queue     bool
}

// newApp opens the stores and builds the export and backup pipelines.
func newApp(ctx context.Context, cfg *config.Config, logger *log.Logger, opts appOptions) (_ *App, err error) {
	app := &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Slog()).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}
	app.Backend = res
	app.closers = append(app.closers, res.Cleanup)

	app.Auth = session.NewAuthenticator(res.KV, cfg.Password, cfg.SessionSecret, cfg.SessionTTL)
	app.State = session.NewState(res.KV)

	app.Dispatcher, err = export.NewDispatcher(res.Expenses, export.Options{
		Format:        report.Format(cfg.ExportFormat),
		ApproverEmail: cfg.ApproverEmail,
		MailTransport: mail.Transport(cfg.MailTransport),
		MailDelay:     delayOption(cfg.MailDelay),
		Publishers:    app.publishers(ctx),
		Logger:        logger.WithComponent(log.ComponentExport).Slog(),
	})
	if err != nil {
		return nil, fmt.Errorf("create export dispatcher: %w", err)
	}

	if opts.queue && cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
			logger.WithComponent(log.ComponentAMQP).Slog())
		if err != nil {
			logger.Warn("AMQP unavailable, backups will run in-process", log.FieldError, err)
		} else {
			app.Queue = client
			app.closers = append(app.closers, client.Close)
		}
	}

	var opener handoff.Opener
	if cfg.OpenLinks {
		opener = handoff.SystemOpener
	}
	backupLogger := logger.WithComponent(log.ComponentBackup).Slog()
	backupOpts := export.BackupOptions{
		Format:    report.Format(cfg.BackupFormat),
		Transport: mail.Transport(cfg.BackupTransport),
		Recipient: cfg.BackupEmail,
		Delay:     delayOption(cfg.BackupDelay),
		Logger:    backupLogger,
	}
	if app.Queue != nil {
		backupOpts.Queue = app.Queue
	}
	app.Backup, err = export.NewBackup(res.Expenses,
		handoff.NewDir(cfg.BackupDir, opener, opts.out, backupLogger), backupOpts)
	if err != nil {
		return nil, fmt.Errorf("create backup: %w", err)
	}

	if opts.artifacts {
		if err := app.openArtifacts(ctx); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// delayOption maps a configured delay onto the export options. A configured
// zero turns the wait off instead of selecting the built-in default.
func delayOption(d time.Duration) time.Duration {
	if d == 0 {
		return export.NoDelay
	}
	return d
}

// publishers returns the configured report sinks. A sink that cannot be
// set up is logged and left out.
func (a *App) publishers(ctx context.Context) []sheets.Publisher {
	if !a.Config.SheetsEnabled() {
		return nil
	}
	logger := a.Logger.WithComponent(log.ComponentSheets).Slog()
	p, err := google.New(ctx, google.Config{
		SpreadsheetID:      a.Config.GoogleSpreadsheetID,
		ServiceAccountJSON: a.Config.GoogleServiceAccountJSON,
		ServiceAccountFile: a.Config.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		a.Logger.Warn("Google Sheets publishing disabled", log.FieldError, err)
		return nil
	}
	a.Logger.Info("Publishing exports to Google Sheets", "spreadsheet_id", a.Config.GoogleSpreadsheetID)
	return []sheets.Publisher{p}
}

func (a *App) openArtifacts(ctx context.Context) error {
	switch artifact.BackendType(a.Config.ArtifactBackend) {
	case artifact.RedisBackend:
		var client *redis.Client
		if r, ok := a.Backend.KV.(*kv.Redis); ok {
			client = r.Client()
		} else {
			opts, err := redis.ParseURL(a.Config.RedisURL)
			if err != nil {
				return fmt.Errorf("parse redis url: %w", err)
			}
			client = redis.NewClient(opts)
			if err := client.Ping(ctx).Err(); err != nil {
				client.Close()
				return fmt.Errorf("connect to artifact redis: %w", err)
			}
			a.closers = append(a.closers, client.Close)
		}
		a.Artifacts = artifact.NewRedis(client, a.Config.RedisPrefix+"artifact:", a.Config.ArtifactTTL)
	default:
		m := artifact.NewMemory(a.Config.ArtifactMaxItems, a.Config.ArtifactTTL)
		m.StartCleanup(artifactCleanupInterval)
		a.Artifacts = m
		a.closers = append(a.closers, m.Close)
	}
	a.Logger.Info("Initialized artifact store", log.FieldBackend, a.Config.ArtifactBackend, "ttl", a.Config.ArtifactTTL)
	return nil
}

// Close releases everything newApp opened, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// loadApp is the common prologue of the commands.
func loadApp(ctx context.Context, logOut io.Writer, opts appOptions) (*App, error) {
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	logger := SetupLogger(cfg, logOut)
	return newApp(ctx, cfg, logger, opts)
}
