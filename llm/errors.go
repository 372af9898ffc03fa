// ABOUTME: Error hierarchy for the LLM client with structured provider errors and retryability.
// ABOUTME: All error types embed SDKError and implement Unwrap/As so callers can match any level.

package llm

import (
	"encoding/json"
)

// SDKError is the base error type for all errors in the LLM client.
type SDKError struct {
	Message string
	Cause   error
}

func (e *SDKError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *SDKError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns false for the base SDKError. Subtypes override this.
func (e *SDKError) IsRetryable() bool {
	return false
}

// ProviderError represents an error returned by an LLM provider's API.
type ProviderError struct {
	SDKError
	Provider   string
	StatusCode int
	ErrorCode  string
	Retryable  bool
	Raw        json.RawMessage
}

func (e *ProviderError) Error() string { return e.SDKError.Error() }
func (e *ProviderError) Unwrap() error { return e.SDKError.Unwrap() }

// IsRetryable returns the Retryable flag set on the provider error.
func (e *ProviderError) IsRetryable() bool { return e.Retryable }

// As enables errors.As to match SDKError from a ProviderError.
func (e *ProviderError) As(target any) bool {
	switch t := target.(type) {
	case **SDKError:
		*t = &e.SDKError
		return true
	default:
		return false
	}
}

// AuthenticationError represents a 401 Unauthorized response. Not retryable.
type AuthenticationError struct {
	ProviderError
}

func (e *AuthenticationError) Error() string     { return e.ProviderError.Error() }
func (e *AuthenticationError) Unwrap() error     { return e.ProviderError.Unwrap() }
func (e *AuthenticationError) IsRetryable() bool { return false }

func (e *AuthenticationError) As(target any) bool {
	switch t := target.(type) {
	case **ProviderError:
		*t = &e.ProviderError
		return true
	case **SDKError:
		*t = &e.SDKError
		return true
	default:
		return false
	}
}

// InvalidRequestError represents a 400 or 422 response. Not retryable.
type InvalidRequestError struct {
	ProviderError
}

func (e *InvalidRequestError) Error() string     { return e.ProviderError.Error() }
func (e *InvalidRequestError) Unwrap() error     { return e.ProviderError.Unwrap() }
func (e *InvalidRequestError) IsRetryable() bool { return false }

func (e *InvalidRequestError) As(target any) bool {
	switch t := target.(type) {
	case **ProviderError:
		*t = &e.ProviderError
		return true
	case **SDKError:
		*t = &e.SDKError
		return true
	default:
		return false
	}
}

// RateLimitError represents a 429 Too Many Requests response. Retryable.
type RateLimitError struct {
	ProviderError
}

func (e *RateLimitError) Error() string     { return e.ProviderError.Error() }
func (e *RateLimitError) Unwrap() error     { return e.ProviderError.Unwrap() }
func (e *RateLimitError) IsRetryable() bool { return true }

func (e *RateLimitError) As(target any) bool {
	switch t := target.(type) {
	case **ProviderError:
		*t = &e.ProviderError
		return true
	case **SDKError:
		*t = &e.SDKError
		return true
	default:
		return false
	}
}

// ServerError represents a 5xx server error response. Retryable.
type ServerError struct {
	ProviderError
}

func (e *ServerError) Error() string     { return e.ProviderError.Error() }
func (e *ServerError) Unwrap() error     { return e.ProviderError.Unwrap() }
func (e *ServerError) IsRetryable() bool { return true }

func (e *ServerError) As(target any) bool {
	switch t := target.(type) {
	case **ProviderError:
		*t = &e.ProviderError
		return true
	case **SDKError:
		*t = &e.SDKError
		return true
	default:
		return false
	}
}

// RequestTimeoutError represents a request timeout (408 or client-side deadline). Retryable.
type RequestTimeoutError struct {
	SDKError
}

func (e *RequestTimeoutError) Error() string     { return e.SDKError.Error() }
func (e *RequestTimeoutError) Unwrap() error     { return e.SDKError.Unwrap() }
func (e *RequestTimeoutError) IsRetryable() bool { return true }

func (e *RequestTimeoutError) As(target any) bool {
	switch t := target.(type) {
	case **SDKError:
		*t = &e.SDKError
		return true
	default:
		return false
	}
}

// NetworkError represents a network-level failure (DNS, connection refused, etc.). Retryable.
type NetworkError struct {
	SDKError
}

func (e *NetworkError) Error() string     { return e.SDKError.Error() }
func (e *NetworkError) Unwrap() error     { return e.SDKError.Unwrap() }
func (e *NetworkError) IsRetryable() bool { return true }

func (e *NetworkError) As(target any) bool {
	switch t := target.(type) {
	case **SDKError:
		*t = &e.SDKError
		return true
	default:
		return false
	}
}

// NoObjectGeneratedError represents a failure to produce the expected structured output:
// an empty response, invalid JSON, or JSON that does not match the requested schema.
// Not retryable.
type NoObjectGeneratedError struct {
	SDKError
}

func (e *NoObjectGeneratedError) Error() string     { return e.SDKError.Error() }
func (e *NoObjectGeneratedError) Unwrap() error     { return e.SDKError.Unwrap() }
func (e *NoObjectGeneratedError) IsRetryable() bool { return false }

func (e *NoObjectGeneratedError) As(target any) bool {
	switch t := target.(type) {
	case **SDKError:
		*t = &e.SDKError
		return true
	default:
		return false
	}
}

// ConfigurationError represents a client configuration problem (missing API key, etc.). Not retryable.
type ConfigurationError struct {
	SDKError
}

func (e *ConfigurationError) Error() string     { return e.SDKError.Error() }
func (e *ConfigurationError) Unwrap() error     { return e.SDKError.Unwrap() }
func (e *ConfigurationError) IsRetryable() bool { return false }

func (e *ConfigurationError) As(target any) bool {
	switch t := target.(type) {
	case **SDKError:
		*t = &e.SDKError
		return true
	default:
		return false
	}
}

// ErrorFromStatusCode maps an HTTP status code to the appropriate error type.
// Unknown status codes return a ProviderError with Retryable=true as a
// conservative default (unknown errors are assumed transient).
func ErrorFromStatusCode(statusCode int, message, provider, errorCode string, raw json.RawMessage) error {
	base := ProviderError{
		SDKError:   SDKError{Message: message},
		Provider:   provider,
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Raw:        raw,
	}

	switch {
	case statusCode == 400 || statusCode == 422:
		base.Retryable = false
		return &InvalidRequestError{ProviderError: base}
	case statusCode == 401 || statusCode == 403:
		base.Retryable = false
		return &AuthenticationError{ProviderError: base}
	case statusCode == 408:
		return &RequestTimeoutError{SDKError: SDKError{Message: message}}
	case statusCode == 429:
		base.Retryable = true
		return &RateLimitError{ProviderError: base}
	case statusCode >= 500 && statusCode <= 599:
		base.Retryable = true
		return &ServerError{ProviderError: base}
	default:
		base.Retryable = true
		return &base
	}
}
