// Package analysis wraps the external text-completion service that turns an
// analysis prompt into a structured JSON report.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Analyzer sends one prompt and returns the model output as JSON.
// Implementations must not retry; the caller owns the retry policy.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string) (json.RawMessage, error)
}

// AnalysisError reports a failed call: transport error, non-2xx upstream
// response, empty completion or output that is not JSON.
type AnalysisError struct {
	Cause error
}

func (e *AnalysisError) Error() string {
	return "analysis failed: " + e.Cause.Error()
}

func (e *AnalysisError) Unwrap() error { return e.Cause }

func newAnalysisError(format string, args ...any) error {
	return &AnalysisError{Cause: fmt.Errorf(format, args...)}
}

// IsAnalysisError reports whether err came from an Analyzer call.
func IsAnalysisError(err error) bool {
	var ae *AnalysisError
	return errors.As(err, &ae)
}

// AnalyzerFunc adapts a function to the Analyzer interface.
type AnalyzerFunc func(ctx context.Context, prompt string) (json.RawMessage, error)

func (f AnalyzerFunc) Analyze(ctx context.Context, prompt string) (json.RawMessage, error) {
	return f(ctx, prompt)
}
