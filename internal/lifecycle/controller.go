package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/sakhi/internal/common"
	"github.com/Veraticus/sakhi/internal/model"
	"github.com/Veraticus/sakhi/internal/normalize"
	"github.com/Veraticus/sakhi/internal/service"
	"github.com/google/uuid"
)

// User facing failure messages.
const (
	MsgConnectivity = "error connecting to API"
	MsgUnexpected   = "unexpected response from API"
)

// Observer receives every state transition in order. It is called with the
// controller locked and must not call back into the controller.
type Observer func(State)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers a transition observer.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// WithRecorder stores each verdict after it is shown.
func WithRecorder(r service.Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// Controller runs the request lifecycle for one channel. At most one attempt
// is active at a time; a submit while busy is ignored. A response that
// arrives after its attempt was superseded is dropped.
type Controller struct {
	transport Transport
	recorder  service.Recorder
	logger    *slog.Logger
	cancel    context.CancelFunc
	done      chan struct{}
	cfg       ChannelConfig
	observers []Observer
	state     State
	seq       uint64
	inFlight  int
	mu        sync.Mutex
}

// New creates a controller for the channel configuration.
func New(cfg ChannelConfig, t Transport, opts ...Option) (*Controller, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errors.New("lifecycle: transport is required")
	}

	c := &Controller{
		cfg:       cfg,
		transport: t,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("channel", string(cfg.Channel))
	return c, nil
}

// Observe registers an additional transition observer.
func (c *Controller) Observe(o Observer) {
	if o == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// Channel returns the channel this controller serves.
func (c *Controller) Channel() model.Channel {
	return c.cfg.Channel
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// InFlight returns the number of network requests currently outstanding.
func (c *Controller) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Submit starts an attempt for the input and reports whether it was
// accepted. It is ignored while an attempt is validating or submitting.
//
// String channels validate synchronously, so an invalid input has already
// returned the controller to PhaseIdle when Submit returns. Pre-screening and
// the network request run in the background; use Wait to block on them.
func (c *Controller) Submit(ctx context.Context, in model.RawInput) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Busy() {
		c.logger.Debug("submit ignored while busy", "phase", c.state.Phase.String())
		return false
	}

	c.seq++
	attempt := c.seq
	subject := in.Subject()
	c.setLocked(State{Phase: PhaseValidating, Subject: subject, Attempt: attempt})

	if outcome := c.cfg.Validator(in); !outcome.IsValid() {
		c.setLocked(State{Phase: PhaseIdle, Subject: subject, Attempt: attempt, Message: outcome.Reason})
		return true
	}

	attemptCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done

	if c.cfg.Prescreen == nil {
		c.setLocked(State{Phase: PhaseSubmitting, Subject: subject, Attempt: attempt})
		c.inFlight++
	}

	go c.run(attemptCtx, cancel, done, attempt, in)
	return true
}

// Wait blocks until no attempt is running or ctx is done, then returns the
// current state.
func (c *Controller) Wait(ctx context.Context) State {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
		}
	}
	return c.State()
}

// Check submits the input and waits for the outcome.
func (c *Controller) Check(ctx context.Context, in model.RawInput) State {
	if !c.Submit(ctx, in) {
		return c.State()
	}
	return c.Wait(ctx)
}

// Edit records that the user changed the input. Any running attempt is
// abandoned and the previous verdict or error is discarded.
func (c *Controller) Edit() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.abandonLocked()
	if c.state.Phase == PhaseIdle && c.state.Message == "" {
		return
	}
	c.setLocked(State{Phase: PhaseIdle, Attempt: c.seq})
}

// Close abandons any running attempt and waits for it to finish.
func (c *Controller) Close() {
	c.mu.Lock()
	done := c.done
	c.abandonLocked()
	c.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (c *Controller) abandonLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	// Bumping the sequence marks any late response as stale.
	c.seq++
}

func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}, attempt uint64, in model.RawInput) {
	defer close(done)
	defer cancel()

	subject := in.Subject()

	if c.cfg.Prescreen != nil {
		outcome := c.cfg.Prescreen.Prescreen(ctx, in)

		c.mu.Lock()
		if !c.currentLocked(attempt, subject, PhaseValidating) {
			c.mu.Unlock()
			c.logger.Debug("discarding stale pre-screen", "attempt", attempt)
			return
		}
		if !outcome.IsValid() {
			c.setLocked(State{Phase: PhaseIdle, Subject: subject, Attempt: attempt, Message: outcome.Reason})
			c.mu.Unlock()
			return
		}
		c.setLocked(State{Phase: PhaseSubmitting, Subject: subject, Attempt: attempt})
		c.inFlight++
		c.mu.Unlock()
	}

	resp, err := c.transport.Post(ctx, c.cfg.Endpoint, in)

	c.mu.Lock()
	c.inFlight--
	if !c.currentLocked(attempt, subject, PhaseSubmitting) {
		c.mu.Unlock()
		c.logger.Debug("discarding stale response", "attempt", attempt)
		return
	}

	var next State
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Canceled by the caller rather than by Edit; nothing to show.
			next = State{Phase: PhaseIdle, Subject: subject, Attempt: attempt}
		} else {
			c.logger.Warn("transport failure", "attempt", attempt, "error", err)
			next = State{Phase: PhaseError, Subject: subject, Attempt: attempt, Message: MsgConnectivity}
		}
	} else {
		next = c.interpret(resp.StatusCode, resp.OK(), resp.Body, subject, attempt)
	}
	c.setLocked(next)
	c.mu.Unlock()

	if next.Phase == PhaseResult && c.recorder != nil {
		c.record(*next.Verdict)
	}
}

func (c *Controller) interpret(status int, ok bool, body []byte, subject string, attempt uint64) State {
	fail := func(msg string) State {
		return State{Phase: PhaseError, Subject: subject, Attempt: attempt, Message: msg, StatusCode: status}
	}
	backend := func(be *common.BackendError) State {
		be.StatusCode = status
		c.logger.Info("backend reported error", "attempt", attempt, "status", be.StatusCode, "message", be.Message)
		return fail(be.Message)
	}

	if !ok {
		if msg, found := normalize.BackendMessage(body); found {
			return backend(&common.BackendError{Message: msg})
		}
		c.logger.Warn("non-success status without error body", "attempt", attempt, "status", status)
		return fail(MsgConnectivity)
	}

	v, err := c.cfg.Normalizer(c.cfg.Channel, body)
	if err != nil {
		var backendErr *common.BackendError
		switch {
		case errors.As(err, &backendErr):
			return backend(backendErr)
		case errors.Is(err, common.ErrConnectivity):
			return fail(MsgConnectivity)
		default:
			c.logger.Warn("could not normalize response", "attempt", attempt, "error", err)
			return fail(MsgUnexpected)
		}
	}

	if v.SubjectEcho == "" {
		v.SubjectEcho = subject
	}
	return State{Phase: PhaseResult, Subject: subject, Attempt: attempt, Verdict: &v}
}

func (c *Controller) record(v model.Verdict) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.recorder.SaveCheck(ctx, model.CheckFromVerdict(uuid.NewString(), v, time.Now())); err != nil {
		c.logger.Warn("failed to record verdict", "error", err)
	}
}

func (c *Controller) currentLocked(attempt uint64, subject string, phase Phase) bool {
	return c.seq == attempt && c.state.Phase == phase && c.state.Subject == subject
}

func (c *Controller) setLocked(s State) {
	c.state = s
	c.logger.Debug("state transition", "phase", s.Phase.String(), "attempt", s.Attempt)
	for _, o := range c.observers {
		o(s)
	}
}
