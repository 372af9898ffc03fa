// ABOUTME: OpenAI provider adapter implementing the ProviderAdapter interface.
// ABOUTME: Translates provider-neutral requests to the chat completions API with JSON-schema output.

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIAdapter implements ProviderAdapter for the OpenAI API.
type OpenAIAdapter struct {
	client *openai.Client
}

// OpenAIOption configures an OpenAIAdapter.
type OpenAIOption func(*openai.ClientConfig)

// WithBaseURL points the adapter at an OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) OpenAIOption {
	return func(cfg *openai.ClientConfig) {
		cfg.BaseURL = baseURL
	}
}

// NewOpenAIAdapter creates an adapter for the OpenAI API with the given key.
func NewOpenAIAdapter(apiKey string, opts ...OpenAIOption) *OpenAIAdapter {
	cfg := openai.DefaultConfig(apiKey)
	for _, opt := range opts {
		opt(&cfg)
	}
	return &OpenAIAdapter{client: openai.NewClientWithConfig(cfg)}
}

// Name returns the provider's registration name.
func (a *OpenAIAdapter) Name() string { return "openai" }

// Complete sends a chat completion request and translates the response.
func (a *OpenAIAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	oaReq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: toOpenAIMessages(req.Messages),
	}
	if req.Temperature != nil {
		oaReq.Temperature = float32(*req.Temperature)
	}
	if req.MaxTokens != nil {
		oaReq.MaxCompletionTokens = *req.MaxTokens
	}
	if req.ResponseFormat != nil && req.ResponseFormat.Type == "json_schema" {
		oaReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.ResponseFormat.Name,
				Schema: req.ResponseFormat.Schema,
				Strict: req.ResponseFormat.Strict,
			},
		}
	}

	resp, err := a.client.CreateChatCompletion(ctx, oaReq)
	if err != nil {
		return nil, translateOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, &NoObjectGeneratedError{
			SDKError: SDKError{Message: "openai response contained no choices"},
		}
	}

	choice := resp.Choices[0]
	return &Response{
		Text:         choice.Message.Content,
		Model:        resp.Model,
		FinishReason: toFinishReason(choice.FinishReason),
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
		Created: time.Unix(resp.Created, 0),
	}, nil
}

// Close releases adapter resources. The underlying client holds none.
func (a *OpenAIAdapter) Close() error { return nil }

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case RoleSystem:
			role = openai.ChatMessageRoleSystem
		case RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

func toFinishReason(fr openai.FinishReason) FinishReason {
	switch fr {
	case openai.FinishReasonStop:
		return FinishStop
	case openai.FinishReasonLength:
		return FinishLength
	case openai.FinishReasonContentFilter:
		return FinishContentFilter
	default:
		return FinishUnknown
	}
}

// translateOpenAIError maps go-openai errors into the client's error taxonomy.
func translateOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := ""
		if apiErr.Code != nil {
			code = fmt.Sprintf("%v", apiErr.Code)
		}
		var raw json.RawMessage
		if b, mErr := json.Marshal(apiErr); mErr == nil {
			raw = b
		}
		return ErrorFromStatusCode(apiErr.HTTPStatusCode, apiErr.Message, "openai", code, raw)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return ErrorFromStatusCode(reqErr.HTTPStatusCode, reqErr.Error(), "openai", "", nil)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &RequestTimeoutError{
			SDKError: SDKError{Message: "openai request timed out", Cause: err},
		}
	}

	return &NetworkError{
		SDKError: SDKError{Message: "openai request failed", Cause: err},
	}
}
