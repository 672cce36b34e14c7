package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/sakhi/internal/auth"
	"github.com/Veraticus/sakhi/internal/common"
	"github.com/Veraticus/sakhi/internal/config"
	"github.com/Veraticus/sakhi/internal/lifecycle"
	"github.com/Veraticus/sakhi/internal/model"
	"github.com/Veraticus/sakhi/internal/qrscan"
	"github.com/Veraticus/sakhi/internal/service"
	"github.com/Veraticus/sakhi/internal/storage"
	"github.com/Veraticus/sakhi/internal/transport"
	"github.com/spf13/viper"
)

// app bundles the collaborators a command needs.
type app struct {
	transport *transport.Client
	prescreen *qrscan.Prescreener
	store     service.Storage
	logger    *slog.Logger
	access    lifecycle.Access
	cfg       config.Config
}

// newApp loads configuration, checks authentication and opens history when
// enabled. logger may be nil to use the default.
func newApp(ctx context.Context, logger *slog.Logger) (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	access, err := checkAccess(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	client, err := transport.NewClient(cfg.Transport(), logger)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		logger:    logger,
		access:    access,
		transport: client,
		prescreen: qrscan.NewPrescreener(logger),
	}

	if cfg.History.Enabled {
		store, err := initStorage(ctx, cfg.Database.Path, logger)
		if err != nil {
			client.Close()
			return nil, err
		}
		a.store = store
	}
	return a, nil
}

// Close releases the app's resources.
func (a *app) Close() {
	a.transport.Close()
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			common.LogError(err, "Failed to close history database", common.Fields{"path": a.cfg.Database.Path})
		}
	}
}

// recorder returns the history recorder, or nil when history is disabled.
func (a *app) recorder() service.Recorder {
	if a.store == nil {
		return nil
	}
	return a.store
}

// controller builds a lifecycle controller for one channel.
func (a *app) controller(ch model.Channel) (*lifecycle.Controller, error) {
	if !a.access.Allowed() {
		return nil, notSignedIn()
	}
	cfg, err := lifecycle.DefaultChannelConfig(ch, a.prescreen)
	if err != nil {
		return nil, err
	}
	opts := []lifecycle.Option{lifecycle.WithLogger(a.logger)}
	if r := a.recorder(); r != nil {
		opts = append(opts, lifecycle.WithRecorder(r))
	}
	return lifecycle.New(cfg, a.transport, opts...)
}

func checkAccess(ctx context.Context, cfg config.Config, logger *slog.Logger) (lifecycle.Access, error) {
	access := lifecycle.Access{Required: cfg.Auth.Required}
	if !cfg.Auth.Required {
		return access, nil
	}

	provider := auth.NewTokenProvider(cfg.TokenConfig(), logger)
	if err := provider.CheckAuth(ctx); err != nil {
		if errors.Is(err, common.ErrNotAuthenticated) {
			return access, notSignedIn()
		}
		return access, fmt.Errorf("failed to check authentication: %w", err)
	}
	access.Authenticated = provider.IsAuthenticated()
	return access, nil
}

func notSignedIn() error {
	return fmt.Errorf("%w: set auth.token (SAKHI_AUTH_TOKEN) or disable auth.required", common.ErrNotAuthenticated)
}

// initStorage opens and migrates the history database.
func initStorage(ctx context.Context, dbPath string, logger *slog.Logger) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(dbPath, logger)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// quietLogger discards debug and info output, for use under the TUI.
func quietLogger(w io.Writer) *slog.Logger {
	logger, err := common.NewLogger(w, slog.LevelWarn, viper.GetString("logging.format"))
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}
