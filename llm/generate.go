// ABOUTME: High-level Generate and GenerateObject API over the Client.
// ABOUTME: GenerateObject enforces strict JSON-schema structured output with eager boundary parsing.

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// GenerateOptions configures a Generate or GenerateObject call.
type GenerateOptions struct {
	Model       string
	Prompt      string    // simple text prompt (mutually exclusive with Messages)
	Messages    []Message // full message history
	System      string    // system message prepended to the conversation
	Temperature *float64
	MaxTokens   *int
	Provider    string
	MaxRetries  int           // retry attempts on retryable errors; default 2
	Timeout     time.Duration // per-call deadline; 0 means no deadline
}

// buildRequest assembles the provider-neutral request from the options.
func (opts GenerateOptions) buildRequest() (Request, error) {
	var messages []Message
	if opts.System != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: opts.System})
	}
	switch {
	case opts.Prompt != "" && len(opts.Messages) > 0:
		return Request{}, &ConfigurationError{
			SDKError: SDKError{Message: "Prompt and Messages are mutually exclusive"},
		}
	case opts.Prompt != "":
		messages = append(messages, Message{Role: RoleUser, Content: opts.Prompt})
	case len(opts.Messages) > 0:
		messages = append(messages, opts.Messages...)
	default:
		return Request{}, &ConfigurationError{
			SDKError: SDKError{Message: "either Prompt or Messages must be provided"},
		}
	}

	return Request{
		Model:       opts.Model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Provider:    opts.Provider,
	}, nil
}

// Generate sends a completion request with retry on retryable errors and an
// optional per-call deadline.
func (c *Client) Generate(ctx context.Context, opts GenerateOptions) (*Response, error) {
	req, err := opts.buildRequest()
	if err != nil {
		return nil, err
	}

	policy := DefaultRetryPolicy()
	if opts.MaxRetries > 0 {
		policy.MaxRetries = opts.MaxRetries
	}

	return Retry(ctx, policy, func(ctx context.Context) (*Response, error) {
		callCtx := ctx
		if opts.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
			defer cancel()
		}
		return c.Complete(callCtx, req)
	})
}

// GenerateObject requests structured output matching the given JSON schema and
// eagerly unmarshals the response into out. Any empty response, invalid JSON,
// or schema mismatch surfaces as a NoObjectGeneratedError; no dynamic value
// ever crosses this boundary.
func (c *Client) GenerateObject(ctx context.Context, opts GenerateOptions, schemaName string, schema json.RawMessage, out any) error {
	req, err := opts.buildRequest()
	if err != nil {
		return err
	}
	req.ResponseFormat = &ResponseFormat{
		Type:   "json_schema",
		Name:   schemaName,
		Schema: schema,
		Strict: true,
	}

	policy := DefaultRetryPolicy()
	if opts.MaxRetries > 0 {
		policy.MaxRetries = opts.MaxRetries
	}

	resp, err := Retry(ctx, policy, func(ctx context.Context) (*Response, error) {
		callCtx := ctx
		if opts.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
			defer cancel()
		}
		return c.Complete(callCtx, req)
	})
	if err != nil {
		return err
	}

	if resp.Text == "" {
		return &NoObjectGeneratedError{
			SDKError: SDKError{Message: fmt.Sprintf("empty response for schema %q", schemaName)},
		}
	}

	dec := json.NewDecoder(strings.NewReader(resp.Text))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return &NoObjectGeneratedError{
			SDKError: SDKError{
				Message: fmt.Sprintf("response does not match schema %q", schemaName),
				Cause:   err,
			},
		}
	}
	return nil
}
