// Package tui provides an interactive terminal interface with one tab per
// verification channel.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/sakhi/internal/lifecycle"
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the interactive interface and blocks until the user quits or
// ctx is canceled.
func Run(ctx context.Context, cfg Config, opts ...Option) error {
	base := defaultConfig()
	mergeConfig(&base, cfg)
	for _, opt := range opts {
		opt(&base)
	}
	cfg = base

	if cfg.Transport == nil {
		return errors.New("transport is required")
	}
	if cfg.Prescreen == nil {
		return errors.New("QR pre-screen is required")
	}

	pages, err := buildPages(cfg)
	if err != nil {
		return err
	}
	defer pages.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newModel(ctx, cfg, pages), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func buildPages(cfg Config) (*lifecycle.Pages, error) {
	var opts []lifecycle.Option
	if cfg.Logger != nil {
		opts = append(opts, lifecycle.WithLogger(cfg.Logger))
	}
	if cfg.Recorder != nil {
		opts = append(opts, lifecycle.WithRecorder(cfg.Recorder))
	}
	pages, err := lifecycle.NewPages(cfg.Access, cfg.Transport, cfg.Prescreen, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open channel pages: %w", err)
	}
	return pages, nil
}

// mergeConfig copies the set fields of src over dst.
func mergeConfig(dst *Config, src Config) {
	dst.Transport = src.Transport
	dst.Prescreen = src.Prescreen
	dst.Access = src.Access
	if src.Recorder != nil {
		dst.Recorder = src.Recorder
	}
	if src.Logger != nil {
		dst.Logger = src.Logger
	}
	if src.Theme.Primary != "" {
		dst.Theme = src.Theme
	}
	if src.Initial.IsValid() {
		dst.Initial = src.Initial
	}
	if src.Width > 0 {
		dst.Width = src.Width
	}
	if src.Height > 0 {
		dst.Height = src.Height
	}
	dst.ShowHelp = src.ShowHelp
}
