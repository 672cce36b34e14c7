// Package service defines the interfaces shared between the application's
// layers.
package service

import (
	"context"

	"github.com/Veraticus/sakhi/internal/model"
)

// DefaultListLimit is used when a listing is given no limit.
const DefaultListLimit = 20

// CheckFilter narrows a history listing.
type CheckFilter struct {
	Channel model.Channel
	Limit   int
}

// Recorder stores completed verifications.
type Recorder interface {
	SaveCheck(ctx context.Context, check model.Check) error
}

// Storage defines the contract for the history store.
type Storage interface {
	Recorder
	GetCheck(ctx context.Context, id string) (*model.Check, error)
	ListChecks(ctx context.Context, filter CheckFilter) ([]model.Check, error)
	CountChecks(ctx context.Context) (map[model.Label]int, error)

	Migrate(ctx context.Context) error
	Close() error
}
