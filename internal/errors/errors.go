// Package errors provides custom error types and utilities for bmcprobe.
//
// This package provides error handling for:
// - Poll configuration errors
// - Session (authentication) errors
// - Transient fetch errors raised while polling
// - HTTP and validation errors
// - Multi-error handling
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error categories for bmcprobe operations
var (
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConfiguration    = errors.New("configuration error")
	ErrInvalidConfig    = errors.New("invalid poll configuration")
	ErrAuthentication   = errors.New("authentication error")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrFetch            = errors.New("fetch failed")
	ErrConditionNotMet  = errors.New("condition not met")
)

// InvalidConfigError reports a poll configuration rejected before any I/O.
type InvalidConfigError struct {
	Timeout  time.Duration
	Interval time.Duration
	Message  string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid poll config (timeout=%s, interval=%s): %s", e.Timeout, e.Interval, e.Message)
}

func (e *InvalidConfigError) Is(target error) bool {
	return errors.Is(target, ErrInvalidConfig)
}

// NewInvalidConfigError creates a new poll configuration error
func NewInvalidConfigError(timeout, interval time.Duration, message string) *InvalidConfigError {
	return &InvalidConfigError{
		Timeout:  timeout,
		Interval: interval,
		Message:  message,
	}
}

// IsInvalidConfig checks if an error is a poll configuration error
func IsInvalidConfig(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

// AuthenticationError represents a failed session exchange. Status is 0 when
// the request never produced a response.
type AuthenticationError struct {
	BaseURL  string
	Username string
	Status   int
	Body     string
	Err      error
}

func (e *AuthenticationError) Error() string {
	msg := fmt.Sprintf("authentication failed for user '%s' on '%s'", e.Username, e.BaseURL)
	switch {
	case e.Status != 0 && e.Body != "":
		msg += fmt.Sprintf(" (status %d): %s", e.Status, e.Body)
	case e.Status != 0:
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

func (e *AuthenticationError) Is(target error) bool {
	return errors.Is(target, ErrAuthentication)
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(baseURL, username string, status int, body string, err error) *AuthenticationError {
	return &AuthenticationError{
		BaseURL:  baseURL,
		Username: username,
		Status:   status,
		Body:     body,
		Err:      err,
	}
}

// IsAuthentication checks if an error is authentication-related
func IsAuthentication(err error) bool {
	return errors.Is(err, ErrAuthentication)
}

// NotAuthenticatedError is returned when a token is requested before any
// successful acquisition, or after the session was invalidated.
type NotAuthenticatedError struct {
	State string
}

func (e *NotAuthenticatedError) Error() string {
	if e.State != "" {
		return fmt.Sprintf("not authenticated: session is %s", e.State)
	}
	return "not authenticated"
}

func (e *NotAuthenticatedError) Is(target error) bool {
	return errors.Is(target, ErrNotAuthenticated)
}

// NewNotAuthenticatedError creates a new not-authenticated error
func NewNotAuthenticatedError(state string) *NotAuthenticatedError {
	return &NotAuthenticatedError{State: state}
}

// IsNotAuthenticated checks if an error reports a missing session
func IsNotAuthenticated(err error) bool {
	return errors.Is(err, ErrNotAuthenticated)
}

// FetchError wraps a single failed attempt during polling.
type FetchError struct {
	Attempt int
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch attempt %d failed: %v", e.Attempt, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (e *FetchError) Is(target error) bool {
	return errors.Is(target, ErrFetch)
}

// NewFetchError creates a new fetch error
func NewFetchError(attempt int, err error) *FetchError {
	return &FetchError{
		Attempt: attempt,
		Err:     err,
	}
}

// IsFetch checks if an error is a transient fetch failure
func IsFetch(err error) bool {
	return errors.Is(err, ErrFetch)
}

// ConfigurationError represents configuration-related errors
type ConfigurationError struct {
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("configuration error in field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func (e *ConfigurationError) Is(target error) bool {
	return errors.Is(target, ErrConfiguration)
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(field, value, message string, err error) *ConfigurationError {
	return &ConfigurationError{
		Field:   field,
		Value:   value,
		Message: message,
		Err:     err,
	}
}

// IsConfiguration checks if an error is configuration-related
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string
	Value   string
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return errors.Is(target, ErrInvalidInput)
}

// NewValidationError creates a new validation error
func NewValidationError(field, value, rule, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Rule:    rule,
		Message: message,
	}
}

// IsValidation checks if an error is validation-related
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// HTTPError represents an unexpected status from the BMC
type HTTPError struct {
	StatusCode int
	Method     string
	URL        string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d %s %s: %s", e.StatusCode, e.Method, e.URL, e.Message)
	}
	return fmt.Sprintf("HTTP %d %s %s", e.StatusCode, e.Method, e.URL)
}

func (e *HTTPError) Is(target error) bool {
	switch e.StatusCode {
	case http.StatusNotFound:
		return errors.Is(target, ErrNotFound)
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.Is(target, ErrUnauthorized)
	case http.StatusBadRequest:
		return errors.Is(target, ErrInvalidInput)
	default:
		return false
	}
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(statusCode int, method, url, message string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Method:     method,
		URL:        url,
		Message:    message,
	}
}

// IsHTTPStatus checks if an error represents a specific HTTP status
func IsHTTPStatus(err error, statusCode int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == statusCode
	}
	return false
}

// IsNotFound checks if an error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized checks if an error represents an authorization failure
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// MultiError represents multiple errors that occurred together
type MultiError struct {
	Errors []error
}

func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", e.Errors[0].Error(), len(e.Errors)-1)
}

func (e *MultiError) Unwrap() []error {
	return e.Errors
}

// Join creates a MultiError from multiple errors, filtering out nils
func Join(errs ...error) error {
	var nonNilErrors []error
	for _, err := range errs {
		if err != nil {
			nonNilErrors = append(nonNilErrors, err)
		}
	}

	if len(nonNilErrors) == 0 {
		return nil
	}
	if len(nonNilErrors) == 1 {
		return nonNilErrors[0]
	}

	return &MultiError{Errors: nonNilErrors}
}
