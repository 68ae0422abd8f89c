package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tutoria/internal/config"
	"tutoria/internal/observability"
	contextutils "tutoria/internal/utils"
)

// Message represents a chat message in the API request
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat asks the API for a specific output format, e.g. json_object.
type ResponseFormat struct {
	Type string `json:"type"`
}

// OpenAIRequest represents a request to the OpenAI-compatible API
type OpenAIRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// OpenAIResponse represents a response from the OpenAI-compatible API
type OpenAIResponse struct {
	Choices []Choice  `json:"choices"`
	Error   *APIError `json:"error,omitempty"`
}

// Choice represents a choice in the API response
type Choice struct {
	Message Message `json:"message"`
}

// APIError represents an error response from the API
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// CompletionOptions carries per-call sampling parameters.
type CompletionOptions struct {
	MaxTokens   int
	Temperature float64
	// JSONResponse requests a json_object response format from the API.
	JSONResponse bool
}

// CompletionClient produces chat completions. Implementations must be safe
// for concurrent use.
type CompletionClient interface {
	Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error)
}

// OpenAIClient talks to an OpenAI-compatible /chat/completions endpoint.
type OpenAIClient struct {
	cfg        *config.AIConfig
	logger     *observability.Logger
	httpClient *http.Client
}

// NewOpenAIClient creates a completion client from the AI configuration.
func NewOpenAIClient(cfg *config.AIConfig, logger *observability.Logger) *OpenAIClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = config.AIRequestTimeout
	}
	return &OpenAIClient{
		cfg:    cfg,
		logger: logger,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient))),
		},
	}
}

// Complete performs one round-trip against the completions endpoint and
// returns the first choice's content.
func (c *OpenAIClient) Complete(ctx context.Context, messages []Message, opts CompletionOptions) (result0 string, err error) {
	_, span := observability.TraceGenerationFunction(ctx, "call_openai",
		attribute.String("ai.model", c.cfg.Model),
		attribute.Int("ai.max_tokens", opts.MaxTokens),
		attribute.Float64("ai.temperature", opts.Temperature),
		attribute.Int("messages.count", len(messages)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err, trace.WithStackTrace(true))
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if !c.cfg.Enabled {
		span.SetAttributes(attribute.String("call.result", "ai_disabled"))
		return "", contextutils.WrapError(contextutils.ErrAIProviderUnavailable, "AI features are disabled")
	}
	if c.cfg.URL == "" {
		span.SetAttributes(attribute.String("call.result", "no_url_configured"))
		return "", contextutils.WrapError(contextutils.ErrAIConfigInvalid, "no base URL configured for AI endpoint")
	}
	if c.cfg.Model == "" {
		span.SetAttributes(attribute.String("call.result", "empty_model"))
		return "", contextutils.WrapError(contextutils.ErrAIConfigInvalid, "model is required")
	}
	if len(messages) == 0 {
		span.SetAttributes(attribute.String("call.result", "empty_messages"))
		return "", contextutils.WrapError(contextutils.ErrAIConfigInvalid, "messages cannot be empty")
	}

	endpoint := c.cfg.URL + "/chat/completions"

	reqBody := OpenAIRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	if opts.JSONResponse {
		reqBody.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		span.SetAttributes(attribute.String("call.result", "marshal_failed"), attribute.String("error", err.Error()))
		return "", contextutils.WrapErrorf(err, "failed to marshal request body")
	}

	c.logger.Debug(ctx, "Making AI HTTP request", map[string]interface{}{
		"url":     endpoint,
		"model":   c.cfg.Model,
		"api_key": contextutils.MaskAPIKey(c.cfg.APIKey),
	})

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		span.SetAttributes(attribute.String("call.result", "request_creation_failed"), attribute.String("error", err.Error()))
		return "", contextutils.WrapErrorf(err, "failed to create HTTP request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "tutoria/1.0")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Error(ctx, "AI HTTP request failed", err, map[string]interface{}{
			"duration": duration.String(),
		})
		span.SetAttributes(attribute.String("call.result", "http_request_failed"), attribute.String("error", err.Error()), attribute.String("duration", duration.String()))
		return "", contextutils.WrapErrorf(contextutils.ErrAIRequestFailed, "HTTP request failed after %v: %v", duration, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn(ctx, "Failed to close response body", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	c.logger.Info(ctx, "AI HTTP request completed", map[string]interface{}{
		"duration":    duration.String(),
		"status_code": resp.StatusCode,
	})

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.SetAttributes(attribute.String("call.result", "body_read_failed"), attribute.String("error", err.Error()))
		return "", contextutils.WrapErrorf(err, "failed to read response body")
	}

	if resp.StatusCode != http.StatusOK {
		span.SetAttributes(attribute.String("call.result", "http_error"), attribute.Int("status_code", resp.StatusCode))
		return "", contextutils.WrapErrorf(contextutils.ErrAIRequestFailed, "API request failed with status %d to %s: %s", resp.StatusCode, endpoint, string(body))
	}

	var openAIResp OpenAIResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		span.SetAttributes(attribute.String("call.result", "json_unmarshal_failed"), attribute.String("error", err.Error()))
		return "", contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "failed to parse AI response as JSON: %w. Raw Response: %s", err, string(body))
	}

	if openAIResp.Error != nil {
		span.SetAttributes(attribute.String("call.result", "api_error"), attribute.String("error_message", openAIResp.Error.Message), attribute.String("error_type", openAIResp.Error.Type))
		return "", contextutils.WrapErrorf(contextutils.ErrAIRequestFailed, "API error: %s", openAIResp.Error.Message)
	}

	if len(openAIResp.Choices) == 0 {
		span.SetAttributes(attribute.String("call.result", "no_choices"))
		return "", contextutils.WrapError(contextutils.ErrAIResponseInvalid, "no response from completion API")
	}

	content := openAIResp.Choices[0].Message.Content
	if content == "" {
		span.SetAttributes(attribute.String("call.result", "empty_content"))
		return "", contextutils.WrapError(contextutils.ErrAIResponseInvalid, "AI returned empty content")
	}

	span.SetAttributes(attribute.String("call.result", "success"), attribute.Int("content_length", len(content)), attribute.String("duration", duration.String()))
	return content, nil
}
