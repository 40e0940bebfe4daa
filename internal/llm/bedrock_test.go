package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConverse struct {
	input *bedrockruntime.ConverseInput
	out   *bedrockruntime.ConverseOutput
	err   error
}

func (f *fakeConverse) Converse(_ context.Context, params *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.input = params
	return f.out, f.err
}

func TestNewBedrockClientValidates(t *testing.T) {
	_, err := NewBedrockClient(nil, "model")
	assert.Error(t, err)
	_, err = NewBedrockClient(&fakeConverse{}, "")
	assert.Error(t, err)
}

func TestBedrockComplete(t *testing.T) {
	api := &fakeConverse{out: &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role:    brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: "2️⃣ Diagnostics"}},
		}},
		StopReason: brtypes.StopReasonEndTurn,
		Usage:      &brtypes.TokenUsage{InputTokens: aws.Int32(7), OutputTokens: aws.Int32(3), TotalTokens: aws.Int32(10)},
	}}
	client, err := NewBedrockClient(api, "anthropic.model")
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), Request{System: "rules", Message: "User message: 2"})
	require.NoError(t, err)
	assert.Equal(t, "2️⃣ Diagnostics", resp.Text)
	assert.Equal(t, int32(10), resp.Usage.TotalTokens)
	assert.Equal(t, "end_turn", resp.StopReason)

	require.NotNil(t, api.input)
	assert.Equal(t, "anthropic.model", aws.ToString(api.input.ModelId))
	require.Len(t, api.input.System, 1)
	require.Len(t, api.input.Messages, 1)
	assert.Equal(t, brtypes.ConversationRoleUser, api.input.Messages[0].Role)
}

func TestBedrockCompleteError(t *testing.T) {
	client, err := NewBedrockClient(&fakeConverse{err: errors.New("throttled")}, "m")
	require.NoError(t, err)
	_, err = client.Complete(context.Background(), Request{Message: "hi"})
	assert.ErrorContains(t, err, "throttled")
}

func TestBedrockOutputTextWithoutMessage(t *testing.T) {
	assert.Empty(t, bedrockOutputText(nil))
	assert.Empty(t, bedrockOutputText(&bedrockruntime.ConverseOutput{}))
}
