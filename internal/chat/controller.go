package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/wolfman30/connectcom-support/internal/observability/metrics"
	"github.com/wolfman30/connectcom-support/internal/profile"
	"github.com/wolfman30/connectcom-support/pkg/logging"
)

// Replier performs one exchange with the backend. *Transport implements it.
type Replier interface {
	Send(ctx context.Context, message string) (Reply, error)
}

// HandoffFunc is called once per reply that moves the conversation to
// StateEnded, with a copy of the transcript.
type HandoffFunc func(ctx context.Context, turns []Turn)

type acceptedKey struct{}

// WithAccepted returns a context that makes Submit call fn once the message
// is accepted, before the backend is contacted. Rejected input never calls it.
func WithAccepted(ctx context.Context, fn func()) context.Context {
	return context.WithValue(ctx, acceptedKey{}, fn)
}

// ControllerConfig holds the fixed strings and knobs of a controller.
type ControllerConfig struct {
	Welcome           string
	ServiceErrorReply string
	ExhaustedBanner   string
	GenericBanner     string
	Menu              *Menu
	Policy            StatePolicy
	OnHandoff         HandoffFunc
	Logger            *logging.Logger
	Metrics           *metrics.ChatMetrics
}

// ControllerConfigFromProfile fills the strings and menu from p.
func ControllerConfigFromProfile(p *profile.Profile) ControllerConfig {
	return ControllerConfig{
		Welcome:           p.Welcome,
		ServiceErrorReply: p.ServiceErrorReply,
		ExhaustedBanner:   p.ExhaustedBanner,
		GenericBanner:     p.GenericBanner,
		Menu:              NewMenu(MenuFormatFromProfile(p)),
	}
}

// Snapshot is a consistent copy of a session's visible state.
type Snapshot struct {
	State   State    `json:"state"`
	Loading bool     `json:"loading"`
	Turns   []Turn   `json:"turns"`
	Error   string   `json:"error,omitempty"`
	Options []Option `json:"options"`
	Input   string   `json:"input,omitempty"`
}

// Controller runs the turn-taking state machine for one session. At most one
// exchange is in flight; submissions made meanwhile get ErrBusy.
type Controller struct {
	replier Replier
	cfg     ControllerConfig
	logger  *logging.Logger

	mu         sync.Mutex
	transcript *Transcript
	state      State
	input      string
	lastErr    string
	generation uint64
}

func NewController(replier Replier, cfg ControllerConfig) *Controller {
	if cfg.Menu == nil {
		cfg.Menu = NewMenu(DefaultMenuFormat())
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Controller{
		replier:    replier,
		cfg:        cfg,
		logger:     logger,
		transcript: NewTranscript(cfg.Welcome),
		state:      StateIdle,
	}
}

// Submit sends text as the next user turn and waits for the exchange to
// finish. Backend failures are absorbed into the transcript and state; only
// ErrAuthenticationRequired and rejected input are returned.
func (c *Controller) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	next, err := c.cfg.Policy.Reduce(c.state, EventSubmit)
	if err != nil {
		c.mu.Unlock()
		c.cfg.Metrics.ObserveExchange("rejected")
		return err
	}
	c.transcript.AppendUser(text)
	c.state = next
	c.lastErr = ""
	gen := c.generation
	c.mu.Unlock()

	if fn, ok := ctx.Value(acceptedKey{}).(func()); ok && fn != nil {
		fn()
	}

	reply, sendErr := c.replier.Send(ctx, text)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug("chat: discarding reply for a reset session")
		return nil
	}

	var handoff []Turn
	switch {
	case sendErr == nil:
		ev := EventReplied
		if reply.IsEnd {
			ev = EventRepliedEnd
		}
		c.transcript.AppendBot(reply.Message, reply.OptionsVisible, reply.IsEnd)
		c.state, _ = c.cfg.Policy.Reduce(c.state, ev)
		if reply.IsEnd {
			handoff = c.transcript.Turns()
			c.cfg.Metrics.ObserveExchange("ended")
		} else {
			c.cfg.Metrics.ObserveExchange("replied")
		}
	case errors.Is(sendErr, ErrAuthenticationRequired):
		c.state, _ = c.cfg.Policy.Reduce(c.state, EventAuthRequired)
		c.mu.Unlock()
		c.cfg.Metrics.ObserveExchange("auth_required")
		return ErrAuthenticationRequired
	default:
		c.transcript.AppendBot(c.cfg.ServiceErrorReply, false, true)
		if errors.Is(sendErr, ErrTransportExhausted) {
			c.lastErr = c.cfg.ExhaustedBanner
		} else {
			c.lastErr = c.cfg.GenericBanner
		}
		c.state, _ = c.cfg.Policy.Reduce(c.state, EventFailed)
		c.cfg.Metrics.ObserveExchange("failed")
		c.logger.Error("chat: exchange failed", "error", sendErr)
	}
	c.mu.Unlock()

	if handoff != nil && c.cfg.OnHandoff != nil {
		c.cfg.OnHandoff(ctx, handoff)
	}
	return nil
}

// SelectOption submits the option's key, exactly like typed input.
func (c *Controller) SelectOption(ctx context.Context, opt Option) error {
	return c.Submit(ctx, opt.Key)
}

// SelectKey submits key only if it belongs to the menu currently shown.
func (c *Controller) SelectKey(ctx context.Context, key string) error {
	for _, opt := range c.Options() {
		if opt.Key == key {
			return c.SelectOption(ctx, opt)
		}
	}
	return ErrUnknownOption
}

// SetInput replaces the input buffer.
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	c.input = text
	c.mu.Unlock()
}

func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// SubmitInput submits the trimmed input buffer and clears it. A blank
// buffer is left untouched and ErrEmptyMessage returned; rejected input is
// put back into the buffer.
func (c *Controller) SubmitInput(ctx context.Context) error {
	c.mu.Lock()
	text := strings.TrimSpace(c.input)
	if text == "" || c.state == StateAwaitingReply {
		c.mu.Unlock()
		if text == "" {
			return ErrEmptyMessage
		}
		return ErrBusy
	}
	c.input = ""
	c.mu.Unlock()

	err := c.Submit(ctx, text)
	if errors.Is(err, ErrBusy) || errors.Is(err, ErrConversationEnded) {
		c.mu.Lock()
		if c.input == "" {
			c.input = text
		}
		c.mu.Unlock()
	}
	return err
}

// Options returns the clickable menu: the trailing bot turn's options when
// it asked for a menu and nothing is in flight.
func (c *Controller) Options() []Option {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.optionsLocked()
}

func (c *Controller) optionsLocked() []Option {
	if c.state == StateAwaitingReply {
		return []Option{}
	}
	last, ok := c.transcript.Last()
	if !ok || last.Sender != SenderBot || !last.OptionsVisible {
		return []Option{}
	}
	return c.cfg.Menu.Extract(last.Text)
}

// DismissError clears the error banner; the state is left as is.
func (c *Controller) DismissError() {
	c.mu.Lock()
	c.lastErr = ""
	c.mu.Unlock()
}

// Reset returns the session to its welcome turn. A reply still in flight
// is discarded when it arrives.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.transcript.Reset(c.cfg.Welcome)
	c.state, _ = c.cfg.Policy.Reduce(c.state, EventReset)
	c.input = ""
	c.lastErr = ""
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:   c.state,
		Loading: c.state == StateAwaitingReply,
		Turns:   c.transcript.Turns(),
		Error:   c.lastErr,
		Options: c.optionsLocked(),
		Input:   c.input,
	}
}
