package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/sakhi/internal/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8000", cfg.API.BaseURL)
	assert.Zero(t, cfg.API.MaxRetries)
	assert.Equal(t, 60, cfg.API.RateLimit)
	assert.Equal(t, 5, cfg.API.RateBurst)
	assert.Zero(t, cfg.API.Timeout)
	assert.True(t, cfg.Auth.Required)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, filepath.Join("/home/tester", ".local/share/sakhi/sakhi.db"), cfg.Database.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_Overrides(t *testing.T) {
	v := newViper()
	v.Set("api.base_url", " https://verify.example.com ")
	v.Set("api.timeout", "15s")
	v.Set("api.max_retries", 3)
	v.Set("api.rate_burst", 2)
	v.Set("auth.token", "tok")
	v.Set("auth.required", false)
	v.Set("history.enabled", true)
	v.Set("database.path", "/tmp/h.db")

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "https://verify.example.com", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.False(t, cfg.Auth.Required)

	tc := cfg.Transport()
	assert.Equal(t, "tok", tc.Token)
	assert.Equal(t, 3, tc.MaxRetries)
	assert.Equal(t, 2, tc.RateBurst)
	assert.Equal(t, 15*time.Second, tc.Timeout)

	ac := cfg.TokenConfig()
	assert.Equal(t, "tok", ac.Token)
}

func TestLoad_ResolvesDatabasePath(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	v := newViper()
	v.Set("database.path", "rel/sakhi.db")
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "rel", "sakhi.db"), cfg.Database.Path)

	v.Set("database.path", t.TempDir())
	_, err = Load(v)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		set     map[string]any
		wantErr error
		name    string
	}{
		{name: "empty base url", set: map[string]any{"api.base_url": " "}, wantErr: common.ErrMissingConfig},
		{name: "negative retries", set: map[string]any{"api.max_retries": -1}, wantErr: common.ErrInvalidConfig},
		{name: "negative rate", set: map[string]any{"api.rate_limit": -5}, wantErr: common.ErrInvalidConfig},
		{name: "negative burst", set: map[string]any{"api.rate_burst": -1}, wantErr: common.ErrInvalidConfig},
		{name: "bad level", set: map[string]any{"logging.level": "loud"}, wantErr: common.ErrInvalidConfig},
		{name: "bad format", set: map[string]any{"logging.format": "xml"}, wantErr: common.ErrInvalidConfig},
		{
			name:    "history without path",
			set:     map[string]any{"history.enabled": true, "database.path": ""},
			wantErr: common.ErrMissingConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			for k, val := range tt.set {
				v.Set(k, val)
			}
			_, err := Load(v)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
