// Package auth provides the authentication state used to gate the channel
// commands. It never signs tokens; it only inspects and optionally verifies
// a session token issued elsewhere.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/sakhi/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Provider reports whether the current user is authenticated.
type Provider interface {
	// CheckAuth initializes the provider. It must be called before
	// IsAuthenticated is trusted.
	CheckAuth(ctx context.Context) error
	IsAuthenticated() bool
}

// StaticProvider is a Provider with a fixed answer.
type StaticProvider bool

// CheckAuth does nothing.
func (StaticProvider) CheckAuth(context.Context) error { return nil }

// IsAuthenticated returns the fixed answer.
func (p StaticProvider) IsAuthenticated() bool { return bool(p) }

// ErrTokenExpired is returned when the session token has expired.
var ErrTokenExpired = errors.New("session token expired")

// TokenConfig configures a TokenProvider.
type TokenConfig struct {
	Token    string
	CheckURL string
	Timeout  time.Duration
}

// TokenProvider treats a configured session token as the login state. The
// token's exp claim is read without verifying its signature; when CheckURL is
// set the token is also presented to that endpoint as a bearer credential
// and any 2xx answer counts as authenticated.
type TokenProvider struct {
	httpClient    *http.Client
	logger        *slog.Logger
	now           func() time.Time
	token         string
	checkURL      string
	mu            sync.RWMutex
	authenticated bool
}

// NewTokenProvider creates a provider for the configured token.
func NewTokenProvider(cfg TokenConfig, logger *slog.Logger) *TokenProvider {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TokenProvider{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		now:        time.Now,
		token:      strings.TrimSpace(cfg.Token),
		checkURL:   strings.TrimSpace(cfg.CheckURL),
	}
}

// IsAuthenticated reports the result of the last CheckAuth.
func (p *TokenProvider) IsAuthenticated() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.authenticated
}

// CheckAuth re-evaluates the token. A missing, expired or rejected token
// leaves the provider unauthenticated and returns the reason.
func (p *TokenProvider) CheckAuth(ctx context.Context) error {
	err := p.check(ctx)

	p.mu.Lock()
	p.authenticated = err == nil
	p.mu.Unlock()

	if err != nil {
		p.logger.Debug("not authenticated", "error", err)
	}
	return err
}

func (p *TokenProvider) check(ctx context.Context) error {
	if p.token == "" {
		return common.ErrNotAuthenticated
	}

	if exp, ok := expiry(p.token); ok && !p.now().Before(exp) {
		return fmt.Errorf("%w: %w at %s", common.ErrNotAuthenticated, ErrTokenExpired, exp.Format(time.RFC3339))
	}

	if p.checkURL == "" {
		return nil
	}
	return p.verifyRemote(ctx)
}

func (p *TokenProvider) verifyRemote(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.checkURL, nil)
	if err != nil {
		return fmt.Errorf("%w: auth check url: %w", common.ErrInvalidConfig, err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrConnectivity, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: auth check returned %d", common.ErrNotAuthenticated, resp.StatusCode)
	}
	return nil
}

// expiry returns the exp claim of a JWT. Opaque tokens report ok=false.
func expiry(token string) (time.Time, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
