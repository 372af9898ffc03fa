// ABOUTME: ProviderAdapter interface that each LLM provider implementation satisfies.
// ABOUTME: Adapters translate provider-neutral requests to their API's wire format.

package llm

import "context"

// ProviderAdapter is the interface implemented by each LLM provider integration.
type ProviderAdapter interface {
	// Name returns the provider's registration name (e.g. "openai").
	Name() string

	// Complete sends a completion request and returns the full response.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Close releases any resources held by the adapter.
	Close() error
}
