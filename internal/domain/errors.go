package domain

import (
	"errors"
	"fmt"
)

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// NetworkError represents a request that could not be sent or timed out.
// Always retriable on a later refresh cycle.
type NetworkError struct {
	Op  string // Operation that failed (e.g., "markets usd", "markets eur")
	Err error  // Underlying error
}

func (e *NetworkError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *NetworkError) IsRetriable() bool {
	return true
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new network error
func NewNetworkError(op string, err error) *NetworkError {
	return &NetworkError{Op: op, Err: err}
}

// HTTPStatusError represents a non-success response status from the
// upstream market-data API
type HTTPStatusError struct {
	Op   string // Which call failed ("markets usd", "markets eur")
	Code int    // HTTP status code
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Code)
}

// IsRetriable reports whether a later attempt may succeed.
// Server errors and rate limits are transient; other 4xx are not.
func (e *HTTPStatusError) IsRetriable() bool {
	return e.Code >= 500 || e.Code == 429
}

// MalformedResponseError represents a response body missing required
// fields after parsing. Not retriable: the payload shape is wrong.
type MalformedResponseError struct {
	Op  string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return e.Op + ": malformed response: " + e.Err.Error()
}

func (e *MalformedResponseError) IsRetriable() bool {
	return false
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrIDMismatch is returned when the two currency responses do not
	// cover the same asset-id set. The batch cannot be merged.
	ErrIDMismatch = errors.New("currency responses cover different asset ids")

	// ErrUnknownAsset is returned when a requested asset id is not tracked
	ErrUnknownAsset = errors.New("unknown asset")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)
