package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/connectcom-support/pkg/logging"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-2.5-flash"
	maxErrorBody         = 512
)

var geminiTracer = otel.Tracer("connectcom.internal.llm.gemini_http")

// GeminiHTTPConfig describes how to reach the generateContent REST endpoint.
type GeminiHTTPConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// GeminiHTTPClient talks to Gemini's generateContent endpoint with plain JSON.
type GeminiHTTPClient struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	logger  *logging.Logger
}

// NewGeminiHTTPClient validates the configuration and returns a ready client.
func NewGeminiHTTPClient(cfg GeminiHTTPConfig) (*GeminiHTTPClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("llm: gemini api key is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultGeminiModel
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &GeminiHTTPClient{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   model,
		http:    httpClient,
		logger:  logger,
	}, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiTool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	Tools             []geminiTool    `json:"tools,omitempty"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      *geminiContent `json:"content"`
		FinishReason string         `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int32 `json:"promptTokenCount"`
		CandidatesTokenCount int32 `json:"candidatesTokenCount"`
		TotalTokenCount      int32 `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// Complete posts one generateContent call. Transport failures and non-2xx
// statuses are returned as errors; a 2xx body without text yields an empty
// Response.
func (c *GeminiHTTPClient) Complete(ctx context.Context, req Request) (Response, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	ctx, span := geminiTracer.Start(ctx, "llm.gemini_http.complete")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", model))

	payload := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: req.Message}}}},
	}
	if req.Grounding {
		payload.Tools = []geminiTool{{GoogleSearch: &struct{}{}}}
	}
	if strings.TrimSpace(req.System) != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, fmt.Errorf("llm: encode gemini payload: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("llm: build gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		return Response{}, fmt.Errorf("llm: gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return Response{}, fmt.Errorf("llm: read gemini response: %w", err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := strings.TrimSpace(string(data))
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: snippet}
		span.RecordError(statusErr)
		return Response{}, statusErr
	}

	var decoded geminiResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		c.logger.Debug("llm: gemini response not decodable", "error", err)
		return Response{}, nil
	}

	out := Response{}
	if len(decoded.Candidates) > 0 {
		cand := decoded.Candidates[0]
		out.StopReason = cand.FinishReason
		if cand.Content != nil && len(cand.Content.Parts) > 0 {
			out.Text = cand.Content.Parts[0].Text
		}
	}
	if decoded.UsageMetadata != nil {
		out.Usage = TokenUsage{
			InputTokens:  decoded.UsageMetadata.PromptTokenCount,
			OutputTokens: decoded.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  decoded.UsageMetadata.TotalTokenCount,
		}
	}
	return out, nil
}
