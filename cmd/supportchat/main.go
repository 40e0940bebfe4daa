// Command supportchat runs the support chat engine in a terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wolfman30/connectcom-support/cmd/mainconfig"
	"github.com/wolfman30/connectcom-support/internal/app/bootstrap"
	"github.com/wolfman30/connectcom-support/internal/chat"
	appconfig "github.com/wolfman30/connectcom-support/internal/config"
	"github.com/wolfman30/connectcom-support/pkg/logging"
)

type options struct {
	token   string
	backend string
	profile string
	envFile string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "supportchat",
		Short:         "Chat with the ConnectCom support assistant from a terminal",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.token, "token", "", "portal bearer token (default $SUPPORT_TOKEN)")
	cmd.Flags().StringVar(&opts.backend, "backend", "", "chat backend: gemini, gemini-sdk or bedrock (default $CHAT_BACKEND)")
	cmd.Flags().StringVar(&opts.profile, "profile", "", "support profile YAML (default $SUPPORT_PROFILE_PATH)")
	cmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading configuration")
	return cmd
}

func runChat(cmd *cobra.Command, opts *options) error {
	if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", opts.envFile, err)
	}

	cfg := appconfig.Load()
	if opts.backend != "" {
		cfg.ChatBackend = opts.backend
	}
	if opts.profile != "" {
		cfg.SupportProfilePath = opts.profile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	token := opts.token
	if token == "" {
		token = os.Getenv("SUPPORT_TOKEN")
	}

	// Logs go to stderr so they do not interleave with the transcript.
	logger := logging.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel)
	ctx := cmd.Context()
	loadAWS := func(ctx context.Context) (aws.Config, error) { return mainconfig.LoadAWSConfig(ctx, cfg) }

	profile, err := bootstrap.BuildProfile(cfg)
	if err != nil {
		return err
	}
	backend, err := bootstrap.BuildBackend(ctx, cfg, loadAWS, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	factory, err := bootstrap.ControllerFactory(bootstrap.ChatDeps{
		Backend:      backend.Client,
		BackendName:  backend.Name,
		Credentials:  chat.StaticCredential(token),
		Profile:      profile,
		Retry:        bootstrap.BuildRetryPolicy(cfg),
		LockAfterEnd: cfg.ChatLockAfterEnd,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	return newTerminal(factory("terminal"), cmd.InOrStdin(), cmd.OutOrStdout()).run(ctx)
}
