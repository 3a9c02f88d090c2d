package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrGroupNotFound signals an unknown catalog group.
	ErrGroupNotFound = errors.New("group not found")
	// ErrConfiguration signals an adapter configuration that cannot be loaded.
	ErrConfiguration = errors.New("invalid adapter configuration")
	// ErrFetch signals a failed or undecodable search/locations request.
	ErrFetch = errors.New("fetch failed")
	// ErrLoadInProgress signals a second load for a group that is still loading.
	ErrLoadInProgress = errors.New("load already in progress")
	// ErrNoActiveLoad signals a cancel request for a group that is not loading.
	ErrNoActiveLoad = errors.New("no active load")
	// ErrInvalidRequest signals malformed caller input.
	ErrInvalidRequest = errors.New("invalid request")
)

// ConfigurationError wraps ErrConfiguration with the offending setting.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrConfiguration.Error(), e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// NewConfigurationError creates a configuration error for a setting.
func NewConfigurationError(field, reason string) error {
	return &ConfigurationError{Field: field, Reason: reason}
}

// FetchError wraps ErrFetch with the request URL and, when known, the HTTP status.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	msg := ErrFetch.Error() + ": " + e.URL
	if e.Status != 0 {
		msg += fmt.Sprintf(": status %d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFetch}
	}
	return []error{ErrFetch, e.Err}
}
