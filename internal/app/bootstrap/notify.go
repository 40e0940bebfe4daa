package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/wolfman30/connectcom-support/internal/config"
	"github.com/wolfman30/connectcom-support/internal/notify"
	"github.com/wolfman30/connectcom-support/pkg/logging"
)

// BuildEmailSender picks the EMAIL_PROVIDER implementation.
func BuildEmailSender(ctx context.Context, cfg *appconfig.Config, loadAWS AWSLoader, logger *logging.Logger) (notify.EmailSender, error) {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender == nil {
			return nil, fmt.Errorf("bootstrap: sendgrid requires SENDGRID_API_KEY")
		}
		return sender, nil
	case "ses":
		if loadAWS == nil {
			return nil, fmt.Errorf("bootstrap: ses needs AWS config")
		}
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.EmailFrom,
			FromName:  cfg.EmailFromName,
		}, logger), nil
	default:
		return notify.NewStubEmailSender(logger), nil
	}
}

// BuildHandoffNotifier returns nil when HANDOFF_EMAIL_TO is unset.
func BuildHandoffNotifier(ctx context.Context, cfg *appconfig.Config, loadAWS AWSLoader, logger *logging.Logger) (*notify.HandoffNotifier, error) {
	if cfg.HandoffEmailTo == "" {
		return nil, nil
	}
	sender, err := BuildEmailSender(ctx, cfg, loadAWS, logger)
	if err != nil {
		return nil, err
	}
	return notify.NewHandoffNotifier(sender, cfg.HandoffEmailTo, logger), nil
}
