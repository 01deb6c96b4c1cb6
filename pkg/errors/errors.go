package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/pixelfolio/cli/pkg/api"
)

// ErrorType categorizes errors for display
type ErrorType string

const (
	// Network errors
	ErrorTypeNetwork ErrorType = "network"
	ErrorTypeTimeout ErrorType = "timeout"

	// Authentication errors
	ErrorTypeAuth            ErrorType = "auth"
	ErrorTypeAuthRequired    ErrorType = "auth_required"
	ErrorTypeSessionExpired  ErrorType = "session_expired"
	ErrorTypeEmailUnverified ErrorType = "email_unverified"
	ErrorTypeForbidden       ErrorType = "forbidden"

	// Validation errors
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeFileNotFound  ErrorType = "file_not_found"
	ErrorTypeInvalidFormat ErrorType = "invalid_format"

	// Server errors
	ErrorTypeServer    ErrorType = "server"
	ErrorTypeNotFound  ErrorType = "not_found"
	ErrorTypeConflict  ErrorType = "conflict"
	ErrorTypeRateLimit ErrorType = "rate_limit"

	ErrorTypeUnknown ErrorType = "unknown"
)

// CLIError represents a structured error with context
type CLIError struct {
	Type       ErrorType
	Message    string
	Cause      error
	Suggestion string
	StatusCode int
}

func (e *CLIError) Error() string {
	return e.Message
}

// WithSuggestion adds a helpful suggestion to the error
func (e *CLIError) WithSuggestion(suggestion string) *CLIError {
	e.Suggestion = suggestion
	return e
}

// HasSuggestion returns true if the error has a suggestion
func (e *CLIError) HasSuggestion() bool {
	return e.Suggestion != ""
}

func (e *CLIError) Unwrap() error {
	return e.Cause
}

// NewCLIError creates a new CLI error
func NewCLIError(errorType ErrorType, message string, cause error) *CLIError {
	return &CLIError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NetworkError creates a network error
func NetworkError(message string) *CLIError {
	err := NewCLIError(ErrorTypeNetwork, message, nil)
	err.Suggestion = "Check that the backend is running and api.base_url is correct."
	return err
}

// TimeoutError creates a timeout error
func TimeoutError() *CLIError {
	err := NewCLIError(ErrorTypeTimeout, "Request timed out", nil)
	err.Suggestion = "The server is taking too long to respond. Try again in a moment."
	return err
}

// AuthError creates an authentication error
func AuthError(message string) *CLIError {
	err := NewCLIError(ErrorTypeAuth, message, nil)
	err.Suggestion = "Try logging in again with 'pixelfolio auth login'"
	return err
}

// AuthRequiredError is returned when an action needs a logged-in user
func AuthRequiredError(action string) *CLIError {
	err := NewCLIError(ErrorTypeAuthRequired, fmt.Sprintf("You must be logged in to %s", action), nil)
	err.Suggestion = "Run 'pixelfolio auth login' first."
	return err
}

// SessionExpiredError creates a session expired error
func SessionExpiredError() *CLIError {
	err := NewCLIError(ErrorTypeSessionExpired, "Your session has expired", nil)
	err.Suggestion = "Run 'pixelfolio auth login' to start a new session."
	return err
}

// EmailUnverifiedError is returned when login is refused pending OTP verification
func EmailUnverifiedError(email string) *CLIError {
	err := NewCLIError(ErrorTypeEmailUnverified, "Please verify your email before logging in", nil)
	err.Suggestion = fmt.Sprintf("Run 'pixelfolio auth verify --email %s' with the code from your inbox.", email)
	return err
}

// ForbiddenError creates a forbidden error
func ForbiddenError() *CLIError {
	err := NewCLIError(ErrorTypeForbidden, "Access denied", nil)
	err.Suggestion = "You can only change portfolios you created."
	return err
}

// ValidationError creates a validation error
func ValidationError(field, reason string) *CLIError {
	message := fmt.Sprintf("Validation error: %s - %s", field, reason)
	return NewCLIError(ErrorTypeValidation, message, nil)
}

// FileNotFoundError creates a file not found error
func FileNotFoundError(path string) *CLIError {
	err := NewCLIError(ErrorTypeFileNotFound, fmt.Sprintf("File not found: %s", path), nil)
	err.Suggestion = "Check the file path and try again."
	return err
}

// ImageFormatError creates an image format error
func ImageFormatError(path string) *CLIError {
	err := NewCLIError(ErrorTypeInvalidFormat, fmt.Sprintf("Unsupported image: %s", path), nil)
	err.Suggestion = "Supported formats: jpg, jpeg, png, gif, webp, avif."
	return err
}

// ServerError creates a server error
func ServerError() *CLIError {
	err := NewCLIError(ErrorTypeServer, "Server error", nil)
	err.Suggestion = "The server encountered an error. Try again in a few moments."
	return err
}

// NotFoundError creates a not found error
func NotFoundError(resourceType, identifier string) *CLIError {
	return NewCLIError(ErrorTypeNotFound,
		fmt.Sprintf("%s not found: %s", resourceType, identifier),
		nil)
}

// RateLimitError creates a rate limit error
func RateLimitError() *CLIError {
	err := NewCLIError(ErrorTypeRateLimit, "Rate limit exceeded. Too many requests.", nil)
	err.Suggestion = "Wait a minute before trying again."
	return err
}

// ConflictError creates a conflict error
func ConflictError(message string) *CLIError {
	return NewCLIError(ErrorTypeConflict, message, nil)
}

// CategorizeError converts a standard error into a CLIError
func CategorizeError(err error) *CLIError {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return fromAPIError(apiErr, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return TimeoutError()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return TimeoutError()
	}

	errMsg := err.Error()
	switch {
	case strings.Contains(errMsg, "connection refused"), strings.Contains(errMsg, "no such host"):
		return NetworkError("Could not connect to server.")
	case strings.Contains(errMsg, "timeout"):
		return TimeoutError()
	default:
		return NewCLIError(ErrorTypeUnknown, errMsg, err)
	}
}

func fromAPIError(apiErr *api.APIError, cause error) *CLIError {
	var out *CLIError
	switch {
	case apiErr.Message == api.MessageEmailUnverified:
		out = NewCLIError(ErrorTypeEmailUnverified, apiErr.Message, cause)
		out.Suggestion = "Run 'pixelfolio auth verify' with the code from your inbox."
	case apiErr.StatusCode == 401:
		out = NewCLIError(ErrorTypeAuth, apiErr.Message, cause)
		out.Suggestion = "Try logging in again with 'pixelfolio auth login'"
	case apiErr.StatusCode == 403:
		out = NewCLIError(ErrorTypeForbidden, apiErr.Message, cause)
	case apiErr.StatusCode == 404:
		out = NewCLIError(ErrorTypeNotFound, apiErr.Message, cause)
	case apiErr.StatusCode == 409:
		out = NewCLIError(ErrorTypeConflict, apiErr.Message, cause)
	case apiErr.StatusCode == 429:
		out = RateLimitError()
		out.Cause = cause
	case apiErr.StatusCode >= 500:
		out = ServerError()
		out.Message = fmt.Sprintf("Server error: %s", apiErr.Message)
		out.Cause = cause
	default:
		out = NewCLIError(ErrorTypeValidation, apiErr.Message, cause)
	}
	out.StatusCode = apiErr.StatusCode
	return out
}

// FormatError returns a user-friendly error message
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	cliErr := CategorizeError(err)
	var sb strings.Builder

	sb.WriteString("Error")
	if cliErr.Type != ErrorTypeUnknown {
		sb.WriteString(" (")
		sb.WriteString(string(cliErr.Type))
		sb.WriteString(")")
	}
	sb.WriteString(": ")
	sb.WriteString(cliErr.Message)
	sb.WriteString("\n")

	if cliErr.HasSuggestion() {
		sb.WriteString("Suggestion: ")
		sb.WriteString(cliErr.Suggestion)
		sb.WriteString("\n")
	}

	return sb.String()
}
