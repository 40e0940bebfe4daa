package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/connectcom-support/internal/chat"
	"github.com/wolfman30/connectcom-support/pkg/logging"
)

type menuReplier struct {
	sent []string
	err  error
}

func (m *menuReplier) Send(_ context.Context, msg string) (chat.Reply, error) {
	m.sent = append(m.sent, msg)
	if m.err != nil {
		return chat.Reply{}, m.err
	}
	if msg == "hi" {
		return chat.Reply{Message: "Pick one:\n1\uFE0F\u20E3 Billing\n2\uFE0F\u20E3 Outage", OptionsVisible: true}, nil
	}
	return chat.Reply{Message: "Got " + msg}, nil
}

func runTerminal(t *testing.T, r chat.Replier, input string) string {
	t.Helper()
	ctrl := chat.NewController(r, chat.ControllerConfig{
		Welcome:       "Welcome to support",
		GenericBanner: "Could not reach the support service.",
		Logger:        logging.Discard(),
	})
	var out bytes.Buffer
	require.NoError(t, newTerminal(ctrl, strings.NewReader(input), &out).run(context.Background()))
	return out.String()
}

func TestTerminalMenuSelection(t *testing.T) {
	r := &menuReplier{}
	out := runTerminal(t, r, "hi\n2\n/quit\nnever sent\n")

	assert.Contains(t, out, "support: Welcome to support")
	assert.Contains(t, out, "  [1] 1. Billing")
	assert.Contains(t, out, "support: Got 2")
	assert.Equal(t, []string{"hi", "2"}, r.sent)
}

func TestTerminalReset(t *testing.T) {
	out := runTerminal(t, &menuReplier{}, "hello\n/reset\n")
	assert.Equal(t, 2, strings.Count(out, "support: Welcome to support"))
}

func TestTerminalAuthRequired(t *testing.T) {
	out := runTerminal(t, &menuReplier{err: chat.ErrAuthenticationRequired}, "hi\n")
	assert.Contains(t, out, loginHint)
}

func TestTerminalBackendFailureShowsBanner(t *testing.T) {
	out := runTerminal(t, &menuReplier{err: assert.AnError}, "hi\n")
	assert.Contains(t, out, "! Could not reach the support service.")
}

func TestRootCmdFlags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"token", "backend", "profile", "env-file"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}
