package telemetry

import (
	"context"

	"github.com/petasbytes/frame-agent/internal/metrics"
)

// EmitStepFeatures records size features of one step's result text, for
// offline inspection of how much the model is being fed per step.
func EmitStepFeatures(ctx context.Context, resultText string) {
	if !ObserveEnabled() {
		return
	}
	stepID, _ := StepIDFromContext(ctx)
	f := metrics.CountFeatures(resultText)
	Emit("step_features", map[string]any{
		"step_id":          stepID,
		"features_version": "1",
		"result": map[string]any{
			"bytes": f.Bytes,
			"runes": f.Runes,
			"words": f.Words,
			"lines": f.Lines,
		},
	})
}
