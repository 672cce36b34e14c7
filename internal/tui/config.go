package tui

import (
	"log/slog"

	"github.com/Veraticus/sakhi/internal/lifecycle"
	"github.com/Veraticus/sakhi/internal/model"
	"github.com/Veraticus/sakhi/internal/service"
	"github.com/Veraticus/sakhi/internal/tui/themes"
)

// Config holds TUI configuration.
type Config struct {
	Transport lifecycle.Transport
	Prescreen lifecycle.Prescreener
	Recorder  service.Recorder
	Logger    *slog.Logger
	Theme     themes.Theme
	Access    lifecycle.Access
	// Initial is the channel shown first.
	Initial  model.Channel
	Width    int
	Height   int
	ShowHelp bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:   themes.Default,
		Initial: model.ChannelPhone,
		Width:   80,
		Height:  24,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithInitialChannel selects the tab shown at startup.
func WithInitialChannel(ch model.Channel) Option {
	return func(c *Config) {
		if ch.IsValid() {
			c.Initial = ch
		}
	}
}

// WithRecorder records every verdict.
func WithRecorder(r service.Recorder) Option {
	return func(c *Config) {
		c.Recorder = r
	}
}

// WithLogger sets the logger handed to the controllers.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}
