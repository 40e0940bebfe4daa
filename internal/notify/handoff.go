package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/wolfman30/connectcom-support/internal/chat"
	"github.com/wolfman30/connectcom-support/pkg/logging"
)

// HandoffNotifier emails the support desk a transcript when a customer
// asks for a human agent.
type HandoffNotifier struct {
	email     EmailSender
	recipient string
	logger    *logging.Logger
	now       func() time.Time
}

// NewHandoffNotifier returns nil when there is no sender or recipient, and
// a nil notifier's Notify is a no-op.
func NewHandoffNotifier(email EmailSender, recipient string, logger *logging.Logger) *HandoffNotifier {
	if email == nil || strings.TrimSpace(recipient) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &HandoffNotifier{
		email:     email,
		recipient: strings.TrimSpace(recipient),
		logger:    logger,
		now:       time.Now,
	}
}

// Notify sends the transcript for sessionID.
func (n *HandoffNotifier) Notify(ctx context.Context, sessionID string, turns []chat.Turn) error {
	if n == nil {
		return nil
	}
	msg := EmailMessage{
		To:      n.recipient,
		Subject: fmt.Sprintf("Human agent requested - chat %s", shortID(sessionID)),
		Body:    n.plainTranscript(sessionID, turns),
		HTML:    n.htmlTranscript(sessionID, turns),
	}
	if err := n.email.Send(ctx, msg); err != nil {
		n.logger.Error("notify: handoff email failed", "error", err, "session_id", sessionID)
		return fmt.Errorf("notify: handoff email: %w", err)
	}
	n.logger.Info("notify: handoff email sent", "session_id", sessionID, "turns", len(turns))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func speaker(s chat.Sender) string {
	if s == chat.SenderUser {
		return "Customer"
	}
	return "Assistant"
}

func (n *HandoffNotifier) plainTranscript(sessionID string, turns []chat.Turn) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A customer asked to speak to a human agent.\n\nSession: %s\nRequested: %s\n\n",
		sessionID, n.now().Format("January 2, 2006 at 3:04 PM"))
	for _, t := range turns {
		fmt.Fprintf(&b, "%s: %s\n\n", speaker(t.Sender), t.Text)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func (n *HandoffNotifier) htmlTranscript(sessionID string, turns []chat.Turn) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family: sans-serif; max-width: 600px;">`)
	b.WriteString(`<h2 style="color: #2563eb;">Human agent requested</h2>`)
	fmt.Fprintf(&b, `<p>Session <code>%s</code></p>`, html.EscapeString(sessionID))
	for _, t := range turns {
		fmt.Fprintf(&b, `<p><strong>%s:</strong> %s</p>`,
			speaker(t.Sender), strings.ReplaceAll(html.EscapeString(t.Text), "\n", "<br>"))
	}
	b.WriteString(`</div>`)
	return b.String()
}
