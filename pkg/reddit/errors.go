package reddit

import (
	"errors"
	"fmt"
)

// ErrBudgetExhausted is returned when the rate limit tracker blocks an
// outbound request because the remaining request budget is critical.
var ErrBudgetExhausted = errors.New("request blocked: rate limit budget exhausted")

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassAuth represents 401/403 credential rejections.
	ErrorClassAuth ErrorClass = "auth"

	// ErrorClassClient represents other 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 rate limit errors.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// ClassifyStatus categorizes an HTTP status code for handling and metrics.
func ClassifyStatus(status int) ErrorClass {
	switch {
	case status == 401 || status == 403:
		return ErrorClassAuth
	case status == 429:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// APIError represents a failed Reddit API request with additional context.
type APIError struct {
	StatusCode int
	Class      ErrorClass
	Endpoint   string
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("reddit %s error on %s: %v", e.Class, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("reddit %s error on %s (status %d): %s",
		e.Class, e.Endpoint, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsAuth reports whether err is a credential rejection (401/403).
func IsAuth(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Class == ErrorClassAuth
}

// IsRateLimited reports whether err is an upstream 429 response.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Class == ErrorClassRateLimit
}

// networkError wraps a transport-level failure (DNS, refused connection,
// timeout) as an APIError with no status code.
func networkError(endpoint string, err error) *APIError {
	return &APIError{
		Class:    ErrorClassNetwork,
		Endpoint: endpoint,
		Err:      err,
	}
}
