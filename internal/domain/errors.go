package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotLinked is returned when the user has no active MyFxBook link
	ErrNotLinked = errors.New("no MyFxBook account linked")

	// ErrNotFound is returned by repositories when a lookup matches no row
	ErrNotFound = errors.New("record not found")

	// ErrSessionInvalid is returned by the broker client when the remote side
	// rejects the session token before its assumed expiry
	ErrSessionInvalid = errors.New("MyFxBook session is invalid")
)

// AuthenticationError covers bad broker credentials, bad bearer tokens and bad cron secrets
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	if e.Reason == "" {
		return "authentication failed"
	}
	return e.Reason
}

// ConfigurationError reports a missing or invalid server-side setting
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("server configuration error: %s is not configured", e.Setting)
}

// TransportError reports an unreachable broker API or a non-2xx response
type TransportError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("MyFxBook API error: %s returned status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("MyFxBook API error: %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecryptionError means stored credentials could not be decrypted.
// It is fatal for the sync attempt and never retried.
type DecryptionError struct {
	Reason string
}

func (e *DecryptionError) Error() string {
	return "failed to decrypt stored credentials: " + e.Reason
}

// IsAuthenticationError reports whether err wraps an AuthenticationError
func IsAuthenticationError(err error) bool {
	var target *AuthenticationError
	return errors.As(err, &target)
}

// IsConfigurationError reports whether err wraps a ConfigurationError
func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsDecryptionError reports whether err wraps a DecryptionError
func IsDecryptionError(err error) bool {
	var target *DecryptionError
	return errors.As(err, &target)
}
