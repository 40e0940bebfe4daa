package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type genaiGenerateFunc func(ctx context.Context, model, system, message string) (*genai.GenerateContentResponse, error)

// GeminiSDKClient implements Client using Google's generative-ai-go SDK.
// The SDK path does not forward the search grounding hint.
type GeminiSDKClient struct {
	client   *genai.Client
	modelID  string
	generate genaiGenerateFunc
}

// NewGeminiSDKClient creates a new Gemini SDK client.
func NewGeminiSDKClient(ctx context.Context, apiKey, modelID string) (*GeminiSDKClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("llm: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("llm: failed to create gemini client: %w", err)
	}

	c := &GeminiSDKClient{client: client, modelID: modelID}
	c.generate = c.generateWithSDK
	return c, nil
}

func (c *GeminiSDKClient) generateWithSDK(ctx context.Context, modelID, system, message string) (*genai.GenerateContentResponse, error) {
	model := c.client.GenerativeModel(modelID)
	if strings.TrimSpace(system) != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}
	return model.GenerateContent(ctx, genai.Text(message))
}

// Complete sends one message to Gemini. Missing candidates or parts produce
// an empty Response rather than an error.
func (c *GeminiSDKClient) Complete(ctx context.Context, req Request) (Response, error) {
	modelID := req.Model
	if modelID == "" {
		modelID = c.modelID
	}
	resp, err := c.generate(ctx, modelID, req.System, req.Message)
	if err != nil {
		return Response{}, fmt.Errorf("llm: gemini completion failed: %w", err)
	}
	return geminiSDKResponse(resp), nil
}

func geminiSDKResponse(resp *genai.GenerateContentResponse) Response {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return Response{}
	}
	candidate := resp.Candidates[0]
	out := Response{StopReason: fmt.Sprint(candidate.FinishReason)}
	if candidate.Content != nil {
		var text strings.Builder
		for _, part := range candidate.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
		out.Text = strings.TrimSpace(text.String())
	}
	if resp.UsageMetadata != nil {
		out.Usage = TokenUsage{
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  resp.UsageMetadata.TotalTokenCount,
		}
	}
	return out
}

// Close releases resources held by the Gemini client.
func (c *GeminiSDKClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
