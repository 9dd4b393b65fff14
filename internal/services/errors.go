package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSubprocess marks failures of external tool invocations (ffmpeg,
	// ffprobe). Usually retryable with a different strategy.
	ErrSubprocess = errors.New("subprocess error")
	// ErrSizeValidation marks captures rejected by the byte-size rules.
	ErrSizeValidation = errors.New("size validation error")
	// ErrHostApproval marks images hosted somewhere outside the approved set.
	ErrHostApproval = errors.New("host approval error")
	// ErrExhausted marks operations that ran out of retry or fallback budget.
	ErrExhausted = errors.New("attempts exhausted")
	// ErrConfiguration marks invalid or missing configuration; never retried.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransient marks failures worth retrying as-is.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether the pipeline should stop instead of retrying or
// falling back. Exhausted budgets and configuration problems cannot be cured
// by another attempt.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrExhausted)
}

// IsRetryable reports whether another attempt with the same or an adjusted
// strategy may succeed.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !IsFatal(err)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
