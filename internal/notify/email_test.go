package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/connectcom-support/pkg/logging"
)

type fakeSendGrid struct {
	status int
	err    error
	sent   []*mail.SGMailV3
}

func (f *fakeSendGrid) SendWithContext(_ context.Context, m *mail.SGMailV3) (*rest.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, m)
	return &rest.Response{StatusCode: f.status, Body: "{}"}, nil
}

type fakeSES struct {
	err   error
	input *sesv2.SendEmailInput
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestNewSendGridSenderNilWithoutAPIKey(t *testing.T) {
	assert.Nil(t, NewSendGridSender(SendGridConfig{FromEmail: "support@connectcom.example"}, nil))
}

func TestNewSendGridSenderFromName(t *testing.T) {
	s := NewSendGridSender(SendGridConfig{APIKey: "k", FromEmail: "support@connectcom.example"}, nil)
	require.NotNil(t, s)
	assert.Equal(t, "ConnectCom Support", s.fromName)

	s = NewSendGridSender(SendGridConfig{APIKey: "k", FromName: "Billing Desk"}, nil)
	require.NotNil(t, s)
	assert.Equal(t, "Billing Desk", s.fromName)
}

func TestSendGridSenderSend(t *testing.T) {
	fake := &fakeSendGrid{status: 202}
	s := newSendGridSender(fake, SendGridConfig{FromEmail: "support@connectcom.example"}, logging.Discard())

	err := s.Send(context.Background(), EmailMessage{To: "desk@connectcom.example", Subject: "Hi", Body: "plain"})
	require.NoError(t, err)
	require.Len(t, fake.sent, 1)
	assert.Equal(t, "Hi", fake.sent[0].Subject)
	assert.Equal(t, "support@connectcom.example", fake.sent[0].From.Address)
}

func TestSendGridSenderErrors(t *testing.T) {
	s := newSendGridSender(&fakeSendGrid{status: 401}, SendGridConfig{}, logging.Discard())
	assert.Error(t, s.Send(context.Background(), EmailMessage{To: "a@b.c"}))

	s = newSendGridSender(&fakeSendGrid{err: errors.New("dial")}, SendGridConfig{}, logging.Discard())
	assert.Error(t, s.Send(context.Background(), EmailMessage{To: "a@b.c"}))

	assert.Error(t, (&SendGridSender{}).Send(context.Background(), EmailMessage{To: "a@b.c"}))
}

func TestSESSender(t *testing.T) {
	assert.Nil(t, NewSESSender(nil, SESConfig{}, nil))

	fake := &fakeSES{}
	s := newSESSender(fake, SESConfig{FromEmail: "support@connectcom.example"}, logging.Discard())
	err := s.Send(context.Background(), EmailMessage{To: "desk@connectcom.example", Subject: "Hi", Body: "plain", HTML: "<p>x</p>"})
	require.NoError(t, err)
	require.NotNil(t, fake.input)
	assert.Equal(t, "ConnectCom Support <support@connectcom.example>", aws.ToString(fake.input.FromEmailAddress))
	assert.Equal(t, []string{"desk@connectcom.example"}, fake.input.Destination.ToAddresses)
	assert.Equal(t, "plain", aws.ToString(fake.input.Content.Simple.Body.Text.Data))
	assert.Equal(t, "<p>x</p>", aws.ToString(fake.input.Content.Simple.Body.Html.Data))
}

func TestSESSenderError(t *testing.T) {
	s := newSESSender(&fakeSES{err: errors.New("throttled")}, SESConfig{}, logging.Discard())
	assert.Error(t, s.Send(context.Background(), EmailMessage{To: "a@b.c", Body: "x"}))
}

func TestStubEmailSender(t *testing.T) {
	assert.NoError(t, NewStubEmailSender(nil).Send(context.Background(), EmailMessage{To: "a@b.c"}))
}
