package bootstrap

import (
	"context"
	"time"

	"github.com/wolfman30/connectcom-support/internal/chat"
	"github.com/wolfman30/connectcom-support/internal/llm"
	"github.com/wolfman30/connectcom-support/internal/notify"
	"github.com/wolfman30/connectcom-support/internal/observability/metrics"
	"github.com/wolfman30/connectcom-support/internal/profile"
	"github.com/wolfman30/connectcom-support/internal/retry"
	"github.com/wolfman30/connectcom-support/pkg/logging"
)

// handoffNotifyTimeout bounds the detached handoff email.
const handoffNotifyTimeout = 30 * time.Second

// ChatDeps are the shared pieces every session controller is built from.
type ChatDeps struct {
	Backend      llm.Client
	BackendName  string
	Credentials  chat.CredentialProvider
	Profile      *profile.Profile
	Retry        retry.Policy
	LockAfterEnd bool
	Notifier     *notify.HandoffNotifier
	Metrics      *metrics.ChatMetrics
	Logger       *logging.Logger
}

// ControllerFactory returns a constructor for per-session controllers. The
// transport is stateless, so sessions share one.
func ControllerFactory(deps ChatDeps) (func(sessionID string) *chat.Controller, error) {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	transport, err := chat.NewTransport(deps.Backend, deps.Credentials, deps.Profile,
		chat.WithRetryPolicy(deps.Retry),
		chat.WithTransportLogger(logger),
		chat.WithTransportMetrics(deps.Metrics),
		chat.WithBackendName(deps.BackendName),
	)
	if err != nil {
		return nil, err
	}

	return func(sessionID string) *chat.Controller {
		cfg := chat.ControllerConfigFromProfile(deps.Profile)
		cfg.Policy = chat.StatePolicy{LockAfterEnd: deps.LockAfterEnd}
		cfg.Logger = logger.With("session_id", sessionID)
		cfg.Metrics = deps.Metrics
		if deps.Notifier != nil {
			notifier := deps.Notifier
			cfg.OnHandoff = func(_ context.Context, turns []chat.Turn) {
				// The request may finish before the email does.
				go func() {
					ctx, cancel := context.WithTimeout(context.Background(), handoffNotifyTimeout)
					defer cancel()
					_ = notifier.Notify(ctx, sessionID, turns)
				}()
			}
		}
		return chat.NewController(transport, cfg)
	}, nil
}
