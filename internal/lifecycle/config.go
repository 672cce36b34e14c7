package lifecycle

import (
	"context"
	"fmt"

	"github.com/Veraticus/sakhi/internal/common"
	"github.com/Veraticus/sakhi/internal/model"
	"github.com/Veraticus/sakhi/internal/normalize"
	"github.com/Veraticus/sakhi/internal/transport"
	"github.com/Veraticus/sakhi/internal/validator"
)

// Transport sends a request for an endpoint.
type Transport interface {
	Post(ctx context.Context, ep transport.Endpoint, in model.RawInput) (transport.Response, error)
}

// Prescreener performs an asynchronous local check before submission.
type Prescreener interface {
	Prescreen(ctx context.Context, in model.RawInput) model.ValidationOutcome
}

// NormalizeFunc turns a successful response body into a Verdict.
type NormalizeFunc func(model.Channel, []byte) (model.Verdict, error)

// ChannelConfig parameterizes a Controller for one channel.
type ChannelConfig struct {
	Validator  validator.Func
	Prescreen  Prescreener
	Normalizer NormalizeFunc
	Endpoint   transport.Endpoint
	Channel    model.Channel
}

// DefaultChannelConfig wires the standard validator, endpoint and normalizer
// for a channel. prescreen is only used for QR.
func DefaultChannelConfig(channel model.Channel, prescreen Prescreener) (ChannelConfig, error) {
	fn, ok := validator.For(channel)
	if !ok {
		return ChannelConfig{}, fmt.Errorf("%w: unknown channel %q", common.ErrInvalidConfig, channel)
	}
	ep, ok := transport.Endpoints[channel]
	if !ok {
		return ChannelConfig{}, fmt.Errorf("%w: no endpoint for %q", common.ErrInvalidConfig, channel)
	}

	cfg := ChannelConfig{
		Channel:    channel,
		Validator:  fn,
		Endpoint:   ep,
		Normalizer: normalize.Normalize,
	}
	if channel == model.ChannelQR {
		if prescreen == nil {
			return ChannelConfig{}, fmt.Errorf("%w: QR channel needs a pre-screen", common.ErrInvalidConfig)
		}
		cfg.Prescreen = prescreen
	}
	return cfg, nil
}

func (c ChannelConfig) validate() error {
	switch {
	case !c.Channel.IsValid():
		return fmt.Errorf("%w: unknown channel %q", common.ErrInvalidConfig, c.Channel)
	case c.Validator == nil:
		return fmt.Errorf("%w: %s has no validator", common.ErrInvalidConfig, c.Channel)
	case c.Normalizer == nil:
		return fmt.Errorf("%w: %s has no normalizer", common.ErrInvalidConfig, c.Channel)
	case c.Endpoint.Path == "":
		return fmt.Errorf("%w: %s has no endpoint", common.ErrInvalidConfig, c.Channel)
	}
	return nil
}
