// Package storage persists verification history.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/sakhi/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrInvalidCheck = errors.New("invalid check")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateCheck(c *model.Check) error {
	if c == nil {
		return fmt.Errorf("%w: check is nil", ErrInvalidCheck)
	}
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: ID cannot be empty", ErrInvalidCheck)
	}
	if !c.Channel.IsValid() {
		return fmt.Errorf("%w: unknown channel %q", ErrInvalidCheck, c.Channel)
	}
	if !c.Label.IsValid() {
		return fmt.Errorf("%w: label %q is not SAFE or SUSPICIOUS", ErrInvalidCheck, c.Label)
	}
	if c.CheckedAt.IsZero() {
		return fmt.Errorf("%w: checked_at cannot be zero", ErrInvalidCheck)
	}
	if c.Confidence != nil && c.Confidence.Scale != model.ScaleFraction && c.Confidence.Scale != model.ScalePercent {
		return fmt.Errorf("%w: unknown confidence scale %q", ErrInvalidCheck, c.Confidence.Scale)
	}
	return nil
}
