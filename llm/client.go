// ABOUTME: Client infrastructure for the LLM SDK with provider routing and middleware.
// ABOUTME: Provides NewClient with functional options and middleware chain execution.

package llm

import (
	"context"
	"fmt"
	"os"
)

// Middleware is a function that wraps an LLM call, enabling request/response
// transformation, logging, and other cross-cutting concerns. Middleware executes
// in registration order for requests and reverse order for responses.
type Middleware func(ctx context.Context, req Request, next NextFunc) (*Response, error)

// NextFunc is the function signature passed to middleware to continue the chain.
type NextFunc func(ctx context.Context, req Request) (*Response, error)

// Client is the primary entry point for making LLM API calls. It manages
// provider adapters, routes requests to the correct provider, and applies
// the middleware chain.
type Client struct {
	providers       map[string]ProviderAdapter
	defaultProvider string
	middleware      []Middleware
}

// ClientOption is a functional option for configuring a Client.
type ClientOption func(*Client)

// WithProvider registers a ProviderAdapter under the given name. The first
// provider registered becomes the default unless one has been set explicitly.
func WithProvider(name string, adapter ProviderAdapter) ClientOption {
	return func(c *Client) {
		c.providers[name] = adapter
		if c.defaultProvider == "" {
			c.defaultProvider = name
		}
	}
}

// WithDefaultProvider sets the name of the provider used when a Request does
// not specify a Provider field.
func WithDefaultProvider(name string) ClientOption {
	return func(c *Client) {
		c.defaultProvider = name
	}
}

// WithMiddleware appends one or more middleware functions to the client's chain.
func WithMiddleware(mw ...Middleware) ClientOption {
	return func(c *Client) {
		c.middleware = append(c.middleware, mw...)
	}
}

// NewClient creates a new Client with the given options applied.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		providers: make(map[string]ProviderAdapter),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromEnv creates a Client with an OpenAI adapter configured from the
// OPENAI_API_KEY environment variable. Returns a ConfigurationError if the
// key is not set.
func FromEnv() (*Client, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, &ConfigurationError{
			SDKError: SDKError{Message: "OPENAI_API_KEY not set in environment"},
		}
	}
	return NewClient(WithProvider("openai", NewOpenAIAdapter(key))), nil
}

// resolveProvider determines which ProviderAdapter should handle the request.
func (c *Client) resolveProvider(req Request) (ProviderAdapter, error) {
	name := req.Provider
	if name == "" {
		name = c.defaultProvider
	}
	if name == "" {
		return nil, &ConfigurationError{
			SDKError: SDKError{Message: "no provider specified and no default provider configured"},
		}
	}

	adapter, ok := c.providers[name]
	if !ok {
		return nil, &ConfigurationError{
			SDKError: SDKError{Message: fmt.Sprintf("provider %q not registered", name)},
		}
	}
	return adapter, nil
}

// Complete sends a completion request through the middleware chain and then to
// the appropriate provider adapter.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	handler := func(ctx context.Context, req Request) (*Response, error) {
		adapter, err := c.resolveProvider(req)
		if err != nil {
			return nil, err
		}
		return adapter.Complete(ctx, req)
	}

	// Wrap with middleware in reverse order so the first middleware registered
	// is the outermost layer.
	chain := handler
	for i := len(c.middleware) - 1; i >= 0; i-- {
		mw := c.middleware[i]
		next := chain
		chain = func(ctx context.Context, req Request) (*Response, error) {
			return mw(ctx, req, next)
		}
	}

	return chain(ctx, req)
}

// Close shuts down all registered provider adapters. Errors from individual
// adapters are collected and returned as a combined error.
func (c *Client) Close() error {
	var errs []error
	for name, adapter := range c.providers {
		if err := adapter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing provider %q: %w", name, err))
		}
	}
	if len(errs) > 0 {
		combined := errs[0]
		for _, e := range errs[1:] {
			combined = fmt.Errorf("%w; %v", combined, e)
		}
		return combined
	}
	return nil
}
