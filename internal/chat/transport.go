package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/connectcom-support/internal/llm"
	"github.com/wolfman30/connectcom-support/internal/observability/metrics"
	"github.com/wolfman30/connectcom-support/internal/profile"
	"github.com/wolfman30/connectcom-support/internal/retry"
	"github.com/wolfman30/connectcom-support/pkg/logging"
)

// CredentialProvider supplies the caller's bearer token. ok is false when
// the user is not logged in.
type CredentialProvider interface {
	Credential(ctx context.Context) (token string, ok bool)
}

// CredentialFunc adapts a function to CredentialProvider.
type CredentialFunc func(ctx context.Context) (string, bool)

func (f CredentialFunc) Credential(ctx context.Context) (string, bool) { return f(ctx) }

// StaticCredential always returns token; an empty token means logged out.
func StaticCredential(token string) CredentialProvider {
	return CredentialFunc(func(context.Context) (string, bool) {
		return token, strings.TrimSpace(token) != ""
	})
}

// Reply is the normalised backend answer.
type Reply struct {
	Message        string `json:"message"`
	OptionsVisible bool   `json:"options_visible"`
	IsEnd          bool   `json:"is_end"`
}

// Transport delivers one user message to the backend and normalises the
// answer. It keeps no state between calls.
type Transport struct {
	backend     llm.Client
	backendName string
	creds       CredentialProvider
	menu        *Menu
	system      string
	prefix      string
	fallback    string
	handoff     string
	grounding   bool
	policy      retry.Policy
	logger      *logging.Logger
	metrics     *metrics.ChatMetrics
	tracer      trace.Tracer
}

// TransportOption customises a Transport.
type TransportOption func(*Transport)

func WithRetryPolicy(p retry.Policy) TransportOption {
	return func(t *Transport) { t.policy = p }
}

func WithTransportLogger(l *logging.Logger) TransportOption {
	return func(t *Transport) {
		if l != nil {
			t.logger = l
		}
	}
}

func WithTransportMetrics(m *metrics.ChatMetrics) TransportOption {
	return func(t *Transport) { t.metrics = m }
}

// WithBackendName labels metrics and spans.
func WithBackendName(name string) TransportOption {
	return func(t *Transport) {
		if name != "" {
			t.backendName = name
		}
	}
}

func NewTransport(backend llm.Client, creds CredentialProvider, p *profile.Profile, opts ...TransportOption) (*Transport, error) {
	if backend == nil {
		return nil, errors.New("chat: backend is required")
	}
	if creds == nil {
		return nil, errors.New("chat: credential provider is required")
	}
	if p == nil {
		p = profile.Default()
	}
	t := &Transport{
		backend:     backend,
		backendName: "default",
		creds:       creds,
		menu:        NewMenu(MenuFormatFromProfile(p)),
		system:      p.SystemInstruction,
		prefix:      p.MessagePrefix,
		fallback:    p.FallbackReply,
		handoff:     p.HandoffPhrase,
		grounding:   p.Grounding,
		policy:      retry.Default(),
		logger:      logging.Default(),
		tracer:      otel.Tracer("connectcom.internal.chat.transport"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// MenuFormatFromProfile converts the profile's menu section.
func MenuFormatFromProfile(p *profile.Profile) MenuFormat {
	return MenuFormat{
		Markers:       p.Menu.Markers,
		HintOptions:   p.Menu.HintOptions,
		MaxOptions:    p.Menu.MaxOptions,
		OrdinalSuffix: p.Menu.OrdinalSuffix,
	}
}

// Send performs one exchange, retrying transport failures per the policy.
// It fails fast with ErrAuthenticationRequired, without any network call,
// when no credential is available. After the last failed attempt the error
// matches ErrTransportExhausted.
func (t *Transport) Send(ctx context.Context, message string) (Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Reply{}, ErrEmptyMessage
	}
	if token, ok := t.creds.Credential(ctx); !ok || strings.TrimSpace(token) == "" {
		return Reply{}, ErrAuthenticationRequired
	}

	ctx, span := t.tracer.Start(ctx, "chat.transport.send")
	defer span.End()
	span.SetAttributes(attribute.String("chat.backend", t.backendName))

	req := llm.Request{
		System:    t.system,
		Message:   t.prefix + message,
		Grounding: t.grounding,
	}

	policy := t.policy
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		t.logger.Warn("chat transport retry",
			"backend", t.backendName,
			"attempt", attempt,
			"delay_ms", delay.Milliseconds(),
			"error", err,
		)
	}

	var resp llm.Response
	attempts := 0
	err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		attempts = attempt
		start := time.Now()
		r, err := t.backend.Complete(ctx, req)
		t.metrics.ObserveAttempt(t.backendName, err == nil, time.Since(start).Seconds())
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	span.SetAttributes(attribute.Int("chat.attempts", attempts))
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, retry.ErrExhausted) {
			t.logger.Error("chat transport exhausted", "backend", t.backendName, "attempts", attempts, "error", err)
			return Reply{}, fmt.Errorf("%w: %w", ErrTransportExhausted, err)
		}
		return Reply{}, fmt.Errorf("chat: transport: %w", err)
	}
	return t.normalize(resp.Text), nil
}

func (t *Transport) normalize(text string) Reply {
	if strings.TrimSpace(text) == "" {
		text = t.fallback
	}
	return Reply{
		Message:        text,
		OptionsVisible: t.menu.Hint(text),
		IsEnd:          t.handoff != "" && strings.Contains(text, t.handoff),
	}
}
