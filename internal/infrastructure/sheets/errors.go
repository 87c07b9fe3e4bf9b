package sheets

import (
	"errors"
	"fmt"
)

// Sentinel errors for the two failure classes a remote call can produce.
// Callers distinguish them with errors.Is to decide between a retryable
// gateway-timeout response and a hard upstream failure.
var (
	// ErrTimeout signals that a remote spreadsheet operation exceeded its deadline
	ErrTimeout = errors.New("sheets: operation timed out")

	// ErrBackend signals an authentication, permission or transport failure
	// talking to the remote spreadsheet backend
	ErrBackend = errors.New("sheets: backend failure")
)

// backendErr wraps a raw client error as a backend failure, preserving the
// operation name and the underlying cause in the message
func backendErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrBackend, op, err)
}

// classify passes timeouts through unchanged and wraps everything else as a
// backend failure
func classify(op string, err error) error {
	if errors.Is(err, ErrTimeout) {
		return err
	}
	return backendErr(op, err)
}
