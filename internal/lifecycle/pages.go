package lifecycle

import (
	"fmt"

	"github.com/Veraticus/sakhi/internal/common"
	"github.com/Veraticus/sakhi/internal/model"
)

// Access is the authentication capability handed to page construction.
type Access struct {
	Authenticated bool
	Required      bool
}

// Allowed reports whether channel pages may be opened.
func (a Access) Allowed() bool {
	return a.Authenticated || !a.Required
}

// Pages holds one isolated controller per channel.
type Pages struct {
	controllers map[model.Channel]*Controller
}

// NewPages builds a controller for every channel. The options are applied to
// each controller independently.
func NewPages(access Access, t Transport, prescreen Prescreener, opts ...Option) (*Pages, error) {
	if !access.Allowed() {
		return nil, common.ErrNotAuthenticated
	}

	p := &Pages{controllers: make(map[model.Channel]*Controller, len(model.AllChannels))}
	for _, ch := range model.AllChannels {
		cfg, err := DefaultChannelConfig(ch, prescreen)
		if err != nil {
			return nil, err
		}
		c, err := New(cfg, t, opts...)
		if err != nil {
			return nil, fmt.Errorf("building %s controller: %w", ch, err)
		}
		p.controllers[ch] = c
	}
	return p, nil
}

// Get returns the controller for a channel.
func (p *Pages) Get(ch model.Channel) (*Controller, bool) {
	c, ok := p.controllers[ch]
	return c, ok
}

// Close stops every controller.
func (p *Pages) Close() {
	for _, c := range p.controllers {
		c.Close()
	}
}
