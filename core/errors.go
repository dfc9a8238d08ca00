package core

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for comparison using errors.Is()
// These are generic errors that can be wrapped with additional context
var (
	// Validation errors, resolved locally before any network call
	ErrEmptyCart    = errors.New("cart is empty")
	ErrEmptyAddress = errors.New("delivery address is empty")

	// Authentication errors
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrTokenMissing     = errors.New("session token missing")

	// HTTP/Network errors
	ErrConnectionFailed = errors.New("connection failed")
	ErrRequestFailed    = errors.New("request failed")
	ErrStreamClosed     = errors.New("stream closed")

	// Semantic failures on a successful HTTP exchange
	ErrNoPaymentSession = errors.New("payment gateway did not return a session")

	// Configuration errors
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrMissingConfiguration = errors.New("missing required configuration")

	// State errors
	ErrAlreadyStarted = errors.New("already started")
	ErrNotInitialized = errors.New("not initialized")
)

// Error provides structured error information with context.
// It implements the error interface and supports error wrapping.
type Error struct {
	Op      string // Operation that failed (e.g., "orders.Checkout")
	Kind    string // Error kind (e.g., "cart", "orders", "stream", "config")
	Message string // Human-readable message
	Err     error  // Underlying error for wrapping
}

// Error returns the string representation of the error
func (e *Error) Error() string {
	if e.Op != "" && e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s error", e.Kind)
}

// Unwrap returns the underlying error for use with errors.Is/As
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new structured Error
func NewError(op, kind string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: kind,
		Err:  err,
	}
}

// IsValidation reports whether an error was caught locally before any
// network call was attempted.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrEmptyAddress)
}

// IsRetryable checks if an error is retryable.
// Retryable errors are typically transient network issues. Semantic
// failures are deliberately excluded: a missing payment session after
// a 2xx response may mean the order already exists server-side, so a
// blind retry could duplicate it.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConnectionFailed) ||
		errors.Is(err, ErrStreamClosed)
}

// IsConfigurationError checks if an error is configuration-related
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrMissingConfiguration)
}

// HTTPError carries the status code and raw response body text of a
// non-2xx response, matching the transport's error contract: the body
// text is the user-facing message.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return e.Body
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return ErrRequestFailed
}
