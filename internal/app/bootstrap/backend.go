package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/wolfman30/connectcom-support/internal/config"
	"github.com/wolfman30/connectcom-support/internal/llm"
	"github.com/wolfman30/connectcom-support/internal/profile"
	"github.com/wolfman30/connectcom-support/internal/retry"
	"github.com/wolfman30/connectcom-support/pkg/logging"
)

// AWSLoader produces the shared AWS SDK config on first use.
type AWSLoader func(ctx context.Context) (aws.Config, error)

// Backend is the conversational backend chosen by configuration.
type Backend struct {
	Client llm.Client
	// Name labels metrics, e.g. "gemini" or "gemini+bedrock".
	Name    string
	closers []func() error
}

// Close releases SDK clients that hold connections.
func (b *Backend) Close() error {
	var firstErr error
	for _, c := range b.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// BuildBackend wires CHAT_BACKEND, wrapped with CHAT_FALLBACK_BACKEND when set.
func BuildBackend(ctx context.Context, cfg *appconfig.Config, loadAWS AWSLoader, logger *logging.Logger) (*Backend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	b := &Backend{Name: cfg.ChatBackend}
	primary, err := buildClient(ctx, cfg.ChatBackend, cfg, loadAWS, logger, b)
	if err != nil {
		return nil, err
	}
	b.Client = primary

	if cfg.ChatFallbackBackend != "" && cfg.ChatFallbackBackend != cfg.ChatBackend {
		secondary, err := buildClient(ctx, cfg.ChatFallbackBackend, cfg, loadAWS, logger, b)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.Client = llm.NewFallbackClient(primary, secondary, logger)
		b.Name = cfg.ChatBackend + "+" + cfg.ChatFallbackBackend
	}
	logger.Info("chat backend configured", "backend", b.Name)
	return b, nil
}

func buildClient(ctx context.Context, name string, cfg *appconfig.Config, loadAWS AWSLoader, logger *logging.Logger, b *Backend) (llm.Client, error) {
	switch name {
	case appconfig.BackendGemini:
		c, err := llm.NewGeminiHTTPClient(llm.GeminiHTTPConfig{
			BaseURL: cfg.GeminiBaseURL,
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			Timeout: cfg.ChatHTTPTimeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case appconfig.BackendGeminiSDK:
		c, err := llm.NewGeminiSDKClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, c.Close)
		if cfg.ChatGrounding {
			logger.Warn("search grounding is not available through the gemini SDK; hint ignored", "backend", name)
		}
		return c, nil
	case appconfig.BackendBedrock:
		if loadAWS == nil {
			return nil, fmt.Errorf("bootstrap: bedrock backend needs AWS config")
		}
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		c, err := llm.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown chat backend %q", name)
	}
}

// BuildRetryPolicy maps CHAT_MAX_ATTEMPTS and CHAT_RETRY_BASE_DELAY onto
// an exponential policy.
func BuildRetryPolicy(cfg *appconfig.Config) retry.Policy {
	p := retry.Default()
	if cfg == nil {
		return p
	}
	if cfg.ChatMaxAttempts > 0 {
		p.MaxAttempts = cfg.ChatMaxAttempts
	}
	if cfg.ChatRetryBaseDelay > 0 {
		p.Backoff = retry.Exponential(cfg.ChatRetryBaseDelay)
	}
	return p
}

// BuildProfile loads SUPPORT_PROFILE_PATH, or the embedded default, and
// applies CHAT_GROUNDING.
func BuildProfile(cfg *appconfig.Config) (*profile.Profile, error) {
	p := profile.Default()
	if cfg == nil {
		return p, nil
	}
	if cfg.SupportProfilePath != "" {
		loaded, err := profile.Load(cfg.SupportProfilePath)
		if err != nil {
			return nil, err
		}
		p = loaded
	}
	p.Grounding = p.Grounding && cfg.ChatGrounding
	return p, nil
}
