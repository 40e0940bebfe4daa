package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/connectcom-support/internal/llm"
	"github.com/wolfman30/connectcom-support/internal/profile"
	"github.com/wolfman30/connectcom-support/internal/retry"
	"github.com/wolfman30/connectcom-support/pkg/logging"
)

// scriptedBackend returns the queued results in order.
type scriptedBackend struct {
	results []scriptedResult
	calls   []llm.Request
}

type scriptedResult struct {
	text string
	err  error
}

func (b *scriptedBackend) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	b.calls = append(b.calls, req)
	if len(b.results) == 0 {
		return llm.Response{}, errors.New("no scripted result")
	}
	r := b.results[0]
	b.results = b.results[1:]
	if r.err != nil {
		return llm.Response{}, r.err
	}
	return llm.Response{Text: r.text}, nil
}

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func newTestTransport(t *testing.T, backend llm.Client, creds CredentialProvider) (*Transport, *sleepRecorder) {
	t.Helper()
	rec := &sleepRecorder{}
	policy := retry.Default()
	policy.Sleep = rec.sleep
	tr, err := NewTransport(backend, creds, profile.Default(),
		WithRetryPolicy(policy),
		WithTransportLogger(logging.Discard()),
		WithBackendName("scripted"),
	)
	require.NoError(t, err)
	return tr, rec
}

func TestNewTransportValidates(t *testing.T) {
	_, err := NewTransport(nil, StaticCredential("t"), nil)
	assert.Error(t, err)
	_, err = NewTransport(&scriptedBackend{}, nil, nil)
	assert.Error(t, err)
}

func TestSendWithoutCredentialMakesNoCall(t *testing.T) {
	backend := &scriptedBackend{}
	tr, _ := newTestTransport(t, backend, StaticCredential(""))

	_, err := tr.Send(context.Background(), "hi")

	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.Empty(t, backend.calls)
}

func TestSendEmptyMessage(t *testing.T) {
	backend := &scriptedBackend{}
	tr, _ := newTestTransport(t, backend, StaticCredential("token"))
	_, err := tr.Send(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, backend.calls)
}

func TestSendBuildsRequest(t *testing.T) {
	backend := &scriptedBackend{results: []scriptedResult{{text: "Hello"}}}
	tr, _ := newTestTransport(t, backend, StaticCredential("token"))

	reply, err := tr.Send(context.Background(), "  hi  ")
	require.NoError(t, err)
	assert.Equal(t, Reply{Message: "Hello"}, reply)

	require.Len(t, backend.calls, 1)
	assert.Equal(t, "User message: hi", backend.calls[0].Message)
	assert.Equal(t, profile.Default().SystemInstruction, backend.calls[0].System)
	assert.True(t, backend.calls[0].Grounding)
}

func TestSendNormalizesReply(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Reply
	}{
		{
			name: "menu",
			text: "Main Menu:\n1️⃣ Check Bill\n2️⃣ Diagnostics",
			want: Reply{Message: "Main Menu:\n1️⃣ Check Bill\n2️⃣ Diagnostics", OptionsVisible: true},
		},
		{
			name: "handoff",
			text: "Connecting you. Speak to a Human Agent shortly.",
			want: Reply{Message: "Connecting you. Speak to a Human Agent shortly.", IsEnd: true},
		},
		{
			name: "fourth option alone is not a hint",
			text: "4️⃣ Speak to Human Agent",
			want: Reply{Message: "4️⃣ Speak to Human Agent"},
		},
		{
			name: "empty text falls back",
			text: "  ",
			want: Reply{Message: "I'm sorry, I couldn't process that request."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &scriptedBackend{results: []scriptedResult{{text: tt.text}}}
			tr, _ := newTestTransport(t, backend, StaticCredential("token"))
			reply, err := tr.Send(context.Background(), "hi")
			require.NoError(t, err)
			assert.Equal(t, tt.want, reply)
		})
	}
}

func TestSendRetriesTransparently(t *testing.T) {
	backend := &scriptedBackend{results: []scriptedResult{
		{err: &llm.StatusError{StatusCode: 503}},
		{err: errors.New("connection reset")},
		{text: "ok"},
	}}
	tr, rec := newTestTransport(t, backend, StaticCredential("token"))

	reply, err := tr.Send(context.Background(), "hi")

	require.NoError(t, err)
	assert.Equal(t, "ok", reply.Message)
	assert.Len(t, backend.calls, 3)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, rec.delays)
}

func TestSendExhausted(t *testing.T) {
	backend := &scriptedBackend{results: []scriptedResult{
		{err: &llm.StatusError{StatusCode: 500}},
		{err: &llm.StatusError{StatusCode: 502}},
		{err: &llm.StatusError{StatusCode: 503}},
		{text: "never reached"},
	}}
	tr, _ := newTestTransport(t, backend, StaticCredential("token"))

	_, err := tr.Send(context.Background(), "hi")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransportExhausted)
	assert.ErrorIs(t, err, retry.ErrExhausted)
	var statusErr *llm.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 503, statusErr.StatusCode)
	assert.Len(t, backend.calls, 3)
}

func TestSendCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	backend := &scriptedBackend{results: []scriptedResult{{err: context.Canceled}}}
	tr, _ := newTestTransport(t, backend, StaticCredential("token"))

	_, err := tr.Send(ctx, "hi")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTransportExhausted)
}

func TestCredentialFunc(t *testing.T) {
	type key struct{}
	creds := CredentialFunc(func(ctx context.Context) (string, bool) {
		tok, ok := ctx.Value(key{}).(string)
		return tok, ok
	})
	_, ok := creds.Credential(context.Background())
	assert.False(t, ok)
	tok, ok := creds.Credential(context.WithValue(context.Background(), key{}, "abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)
}
