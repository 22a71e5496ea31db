package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gophercloud/gophercloud/v2"

	"github.com/systmms/barbican-kms/pkg/provider"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// ProviderError enhances keystone/barbican/nova errors with context
func ProviderError(service string, operation string, err error) error {
	return UserError{
		Message:    fmt.Sprintf("%s error during %s", service, operation),
		Details:    err.Error(),
		Suggestion: getProviderSuggestion(service, err),
		Err:        err,
	}
}

// getProviderSuggestion returns helpful suggestions based on service and error
func getProviderSuggestion(service string, err error) string {
	var (
		authErr      provider.AuthError
		notFound     provider.NotFoundError
		decodeErr    provider.DecodeError
		transportErr provider.TransportError
	)
	switch {
	case errors.As(err, &authErr) && gophercloud.ResponseCodeIs(err, http.StatusForbidden):
		if service == "barbican" {
			return "Your role lacks key-manager permissions (creator or admin) in this project"
		}
		return "Your role does not allow this call. Ask a project admin for the required role"
	case errors.As(err, &authErr):
		return "Check OS_USERNAME, OS_USER_DOMAIN_NAME and OS_APPLICATION_CREDENTIAL_NAME/SECRET, or run 'barbican-kms login'"
	case errors.As(err, &notFound):
		if service == "keystone" {
			return "Verify the project ID exists and is visible to your application credential"
		}
		return "Verify the secret reference. The trailing path segment must be an existing secret ID"
	case errors.As(err, &decodeErr):
		return "The stored payload is not base64; it was probably not created by barbican-kms"
	case errors.As(err, &transportErr):
		return "Unable to reach the endpoint. Check OS_REGION_NAME, network access and OS_CERT/OS_KEY"
	}

	errStr := err.Error()

	switch service {
	case "keystone":
		if strings.Contains(errStr, "401") {
			return "Application credential rejected. Create a new one or run 'barbican-kms login'"
		}
		if strings.Contains(errStr, "No suitable endpoint") {
			return "The service catalog has no identity endpoint for this region. Check OS_REGION_NAME"
		}
	case "barbican":
		if strings.Contains(errStr, "413") {
			return "The payload exceeds the key-manager size limit"
		}
		if strings.Contains(errStr, "400") {
			return "Barbican rejected the request. Check that algorithm and bit length are compatible"
		}
	}

	// Generic suggestions
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return "The operation timed out. Check your network connection or raise --timeout"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Unable to connect. Check your network and region configuration"
	}

	return ""
}

// IsRetryable reports whether err is transient: a transport failure or a
// gateway, throttling or maintenance response. barbican-kms never retries on
// its own; doctor uses this to tell outages from bad credentials.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var transportErr provider.TransportError
	if errors.As(err, &transportErr) {
		return true
	}

	for _, code := range []int{
		http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
	} {
		if gophercloud.ResponseCodeIs(err, code) {
			return true
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{"timeout", "connection reset", "connection refused", "no such host"} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// SimplifyError simplifies complex error messages for users
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	// Already a user-friendly error
	var userErr UserError
	if errors.As(err, &userErr) {
		return err
	}
	var configErr ConfigError
	if errors.As(err, &configErr) {
		return err
	}

	// Unwrap to get the root cause
	rootErr := err
	for {
		unwrapped := errors.Unwrap(rootErr)
		if unwrapped == nil {
			break
		}
		rootErr = unwrapped
	}

	errStr := rootErr.Error()

	if strings.Contains(errStr, "yaml:") {
		return ConfigError{
			Message:    "Invalid YAML format",
			Suggestion: "Check for indentation errors and missing quotes",
		}
	}

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	return err
}
