package telemetry

import "context"

// stepIDKey is the context key type used to store a step ID.
type stepIDKey struct{}

// WithStepID returns a child context that carries the provided step ID.
// If ctx is nil, context.Background() is used.
func WithStepID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, stepIDKey{}, id)
}

// StepIDFromContext returns the step ID from ctx, if present.
// Returns "", false if the value is missing or not a non-empty string.
func StepIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v := ctx.Value(stepIDKey{})
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
