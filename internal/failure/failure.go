// Package failure tags errors with the retry policy they imply.
//
// Adapters wrap their errors with one of the markers below; the pipeline
// decides whether an item is retried on a later run with errors.Is.
package failure

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransient marks failures rooted in the momentary state of an
	// external service (timeouts, quota, disconnects, 5xx).
	ErrTransient = errors.New("transient failure")
	// ErrPermanent marks failures that will recur with the same input.
	ErrPermanent = errors.New("permanent failure")
	// ErrContentBlocked marks provider refusals caused by the input itself.
	ErrContentBlocked = errors.New("content blocked")
	// ErrMalformedResponse marks empty or unparsable provider output.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrUnavailable marks a resource that does not exist for the item,
	// such as a video without captions.
	ErrUnavailable = errors.New("not available")
)

// Wrap builds an error carrying marker plus operation context. A nil marker
// defaults to ErrTransient.
func Wrap(marker error, op, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	detail := buildDetail(op, message)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsTransient reports whether err should leave the item eligible for retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsPermanent reports whether err is rooted in the input and will recur.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent) || errors.Is(err, ErrContentBlocked)
}

// IsRetryable reports whether a bounded in-run retry may succeed. Malformed
// responses are retried because providers occasionally return empty bodies.
func IsRetryable(err error) bool {
	if err == nil || IsPermanent(err) {
		return false
	}
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrMalformedResponse)
}

// IsInterrupted reports whether err carries a cancelled or expired context.
// Such an error says nothing about the item: the retry budget was cut short.
func IsInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func buildDetail(op, message string) string {
	parts := make([]string, 0, 2)
	if op = strings.TrimSpace(op); op != "" {
		parts = append(parts, op)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "operation failed"
	}
	return strings.Join(parts, ": ")
}
