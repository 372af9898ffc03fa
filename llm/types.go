// ABOUTME: Core data model types for the LLM client: messages, requests, responses, and tools.
// ABOUTME: Defines the provider-neutral shapes that adapters translate to their wire formats.

package llm

import (
	"context"
	"encoding/json"
	"time"
)

// Role represents who produced a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat requests structured output from the provider. When Type is
// "json_schema", Schema holds the JSON Schema document the response must match.
type ResponseFormat struct {
	Type   string          `json:"type"` // "text" or "json_schema"
	Name   string          `json:"name,omitempty"`
	Schema json.RawMessage `json:"schema,omitempty"`
	Strict bool            `json:"strict,omitempty"`
}

// Request is a provider-neutral completion request.
type Request struct {
	Model          string
	Messages       []Message
	ResponseFormat *ResponseFormat
	Temperature    *float64
	MaxTokens      *int
	Provider       string // routing hint; empty uses the client default
}

// Usage reports token consumption for a single call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// FinishReason describes why the model stopped generating.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishLength        FinishReason = "length"
	FinishContentFilter FinishReason = "content_filter"
	FinishUnknown       FinishReason = "unknown"
)

// Response is a provider-neutral completion response.
type Response struct {
	Text         string
	Model        string
	FinishReason FinishReason
	Usage        Usage
	Created      time.Time
}

// Tool describes a callable function exposed to an LLM agent. Parameters is a
// JSON Schema document. Execute runs the tool against the parsed arguments and
// returns the content handed back to the model.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
	Execute     func(ctx context.Context, args map[string]any) (string, error)
}
