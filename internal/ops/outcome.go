// Package ops defines the closed registry of operations invocable on
// stack and register values, and resolves dotted operation paths
// (e.g. "plot.bar") against it. Every handler returns a tagged Outcome,
// so the engine switches on an explicit tag rather than inspecting the
// runtime type of whatever a call happened to return.
package ops

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/petasbytes/frame-agent/internal/frames"
	"github.com/petasbytes/frame-agent/internal/render"
)

// OutcomeKind tags what an operation produced.
type OutcomeKind int

const (
	// OutcomeNone carries only text; nothing is stored.
	OutcomeNone OutcomeKind = iota
	// OutcomeFrame carries a dataframe to push onto the stack.
	OutcomeFrame
	// OutcomeGrouped carries a grouped dataframe to push onto the stack.
	OutcomeGrouped
	// OutcomeSeries carries a series to load into the register.
	OutcomeSeries
)

// Outcome is the discriminated result of one operation.
type Outcome struct {
	Kind   OutcomeKind
	Value  frames.Value  // set for OutcomeFrame and OutcomeGrouped
	Series series.Series // set for OutcomeSeries
	Text   string        // set for OutcomeNone
}

func FrameOutcome(df dataframe.DataFrame) Outcome {
	return Outcome{Kind: OutcomeFrame, Value: frames.FromFrame(df)}
}

func GroupedOutcome(keys []string, g *dataframe.Groups) Outcome {
	return Outcome{Kind: OutcomeGrouped, Value: frames.FromGrouped(keys, g)}
}

func SeriesOutcome(s series.Series) Outcome {
	return Outcome{Kind: OutcomeSeries, Series: s}
}

func TextOutcome(text string) Outcome {
	return Outcome{Kind: OutcomeNone, Text: text}
}

// Env carries the per-step collaborators a handler may use: the render
// context for staging charts, and a top-relative stack lookup for
// operations that take a second table operand (merge).
type Env struct {
	Render *render.Context
	Lookup func(topRelative int) (frames.Value, error)
}

// FrameHandler executes one operation against a plain dataframe.
type FrameHandler func(env Env, df dataframe.DataFrame, kw Kwargs) (Outcome, error)

// GroupedHandler executes one operation against a grouped dataframe.
type GroupedHandler func(env Env, g *frames.Grouped, kw Kwargs) (Outcome, error)

// SeriesHandler executes one operation against the register series.
type SeriesHandler func(env Env, s series.Series, kw Kwargs) (Outcome, error)
