// Package llm defines the text generation port.
package llm

import (
	"context"
	"errors"
	"strings"
)

// ErrQuotaExceeded indicates the provider rejected the call for quota or
// billing reasons. Callers degrade with a quota-specific placeholder.
var ErrQuotaExceeded = errors.New("generation quota exceeded")

// ErrGeneration indicates any other generation failure.
var ErrGeneration = errors.New("generation failed")

// Generator is the port for opaque text generation.
type Generator interface {
	// Generate produces text for the given prompt. Failures are reported
	// as errors wrapping ErrQuotaExceeded or ErrGeneration.
	Generate(ctx context.Context, prompt string) (string, error)
}

// IsQuota reports whether err is a quota/billing failure. It checks the
// typed sentinel first and falls back to a case-insensitive "quota"
// substring match, a documented heuristic for providers whose SDK does
// not classify the failure.
func IsQuota(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "quota")
}
