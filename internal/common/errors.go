package common

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id '%s' not found", e.Resource, e.ID)
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError indicates invalid input data.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// ConfigError indicates a misconfigured or absent provider for a channel.
// It fails the affected channel only, never the dispatch as a whole.
type ConfigError struct {
	Channel string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("channel %s: %s", e.Channel, e.Message)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(channel, message string) *ConfigError {
	return &ConfigError{Channel: channel, Message: message}
}

// MissingDataError indicates required dispatch data is absent: a template
// (request-fatal) or a recipient address for one channel (channel-local).
type MissingDataError struct {
	What string
	ID   string
}

func (e *MissingDataError) Error() string {
	if e.ID == "" {
		return "missing " + e.What
	}
	return fmt.Sprintf("missing %s: %s", e.What, e.ID)
}

// NewMissingDataError creates a new MissingDataError.
func NewMissingDataError(what, id string) *MissingDataError {
	return &MissingDataError{What: what, ID: id}
}

// ProviderError indicates an external delivery provider failure.
type ProviderError struct {
	Provider string
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider error: %s", e.Provider, e.Message)
}

// NewProviderError creates a new ProviderError.
func NewProviderError(provider, message string) *ProviderError {
	return &ProviderError{Provider: provider, Message: message}
}
