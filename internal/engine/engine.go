// Package engine holds the stack/register state machine. One Execute
// call is one state transition: dispatch the tool call to its target,
// invoke the operation, classify the tagged outcome, mutate the stack
// or register, and render the result text. Every failure is captured
// into an error result; the session loop never sees a panic or error
// escape a step, and a failed call leaves the state untouched.
package engine

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/petasbytes/frame-agent/catalog"
	"github.com/petasbytes/frame-agent/internal/frames"
	"github.com/petasbytes/frame-agent/internal/ops"
	"github.com/petasbytes/frame-agent/internal/render"
)

var (
	ErrEmptyStack    = errors.New("stack is empty")
	ErrEmptyRegister = errors.New("series register is empty")
)

// AddressError reports a target_frame outside the current stack bounds.
type AddressError struct {
	Index int
	Depth int
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("target_frame %d out of range for stack of depth %d", e.Index, e.Depth)
}

// Call is one structured tool invocation as issued by the model.
type Call struct {
	Name  string
	Input json.RawMessage
}

// Result is the externally observable record of one executed call.
type Result struct {
	Text    string
	Image   string // base64-encoded PNG, when a chart was rendered
	IsError bool
}

// Options bound the engine's growth and output sizes.
type Options struct {
	// MaxStackDepth caps the stack; a push beyond it is an error result.
	// Zero means unbounded.
	MaxStackDepth int
	// MaxReprRows bounds rows shown in textual representations. Zero
	// means unbounded.
	MaxReprRows int
}

// Engine owns one session's stack, register and render context. It is
// not safe for concurrent use; a session drives it one call at a time.
type Engine struct {
	stack    []frames.Value
	register *series.Series
	render   *render.Context
	opts     Options
}

// New returns an engine with the initial dataset as the sole stack
// element and an empty register.
func New(initial dataframe.DataFrame, rc *render.Context, opts Options) *Engine {
	return &Engine{
		stack:  []frames.Value{frames.FromFrame(initial)},
		render: rc,
		opts:   opts,
	}
}

// Stack returns a copy of the stack, bottom first.
func (e *Engine) Stack() []frames.Value {
	out := make([]frames.Value, len(e.stack))
	copy(out, e.stack)
	return out
}

// Register returns the register series and whether it is populated.
func (e *Engine) Register() (series.Series, bool) {
	if e.register == nil {
		return series.Series{}, false
	}
	return *e.register, true
}

// MaxReprRows exposes the repr bound for snapshot building.
func (e *Engine) MaxReprRows() int {
	return e.opts.MaxReprRows
}

// Execute runs one tool call to completion. Errors of any category
// (resolution, invocation, addressing, empty stack/register) are
// converted to an error result; the stack and register are unchanged
// on failure. A figure staged during the call is drained into the
// result's image.
func (e *Engine) Execute(call Call) Result {
	text, err := e.execute(call)

	var res Result
	if err != nil {
		res = Result{Text: "error: " + err.Error(), IsError: true}
	} else {
		res = Result{Text: text}
	}

	img, ok, derr := e.render.Drain()
	if derr != nil {
		res.Text += "\n(chart could not be rendered: " + derr.Error() + ")"
	} else if ok {
		res.Image = img
	}
	return res
}

func (e *Engine) execute(call Call) (string, error) {
	switch call.Name {
	case "pop":
		return e.pop()
	case "dataframe_operation":
		return e.dataframeOperation(call.Input)
	case "series_operation":
		return e.seriesOperation(call.Input)
	case "series_assign":
		return e.seriesAssign(call.Input)
	default:
		return "", fmt.Errorf("unknown tool %q", call.Name)
	}
}

// pop removes and reports the top element whatever its kind. The stack
// may become empty; later stack-targeting calls then fail explicitly.
func (e *Engine) pop() (string, error) {
	if len(e.stack) == 0 {
		return "", ErrEmptyStack
	}
	top := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	return top.Repr(e.opts.MaxReprRows), nil
}

// lookup resolves a top-relative stack index to its element.
func (e *Engine) lookup(topRelative int) (frames.Value, error) {
	if topRelative < 0 || topRelative >= len(e.stack) {
		return frames.Value{}, &AddressError{Index: topRelative, Depth: len(e.stack)}
	}
	return e.stack[len(e.stack)-1-topRelative], nil
}

func (e *Engine) env() ops.Env {
	return ops.Env{Render: e.render, Lookup: e.lookup}
}

func (e *Engine) dataframeOperation(input json.RawMessage) (string, error) {
	var in catalog.DataFrameOperationInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid dataframe_operation input: %w", err)
	}
	target, err := e.lookup(in.TargetFrame)
	if err != nil {
		return "", err
	}

	var outcome ops.Outcome
	switch target.Kind {
	case frames.KindGrouped:
		h, err := ops.ResolveGrouped(in.Function)
		if err != nil {
			return "", err
		}
		outcome, err = h(e.env(), target.Grouped, ops.Kwargs(in.Kwargs))
		if err != nil {
			return "", err
		}
	default:
		h, err := ops.ResolveFrame(in.Function)
		if err != nil {
			return "", err
		}
		outcome, err = h(e.env(), target.Frame, ops.Kwargs(in.Kwargs))
		if err != nil {
			return "", err
		}
	}
	return e.apply(outcome)
}

func (e *Engine) seriesOperation(input json.RawMessage) (string, error) {
	var in catalog.SeriesOperationInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid series_operation input: %w", err)
	}
	if e.register == nil {
		return "", ErrEmptyRegister
	}
	h, err := ops.ResolveSeries(in.Function)
	if err != nil {
		return "", err
	}
	outcome, err := h(e.env(), *e.register, ops.Kwargs(in.Kwargs))
	if err != nil {
		return "", err
	}
	return e.apply(outcome)
}

// seriesAssign writes the register into the top frame under the given
// column name. The mutated frame is computed before any stack mutation,
// so a failure (length mismatch, type clash) leaves the state intact.
func (e *Engine) seriesAssign(input json.RawMessage) (string, error) {
	var in catalog.SeriesAssignInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid series_assign input: %w", err)
	}
	if in.ColumnName == "" {
		return "", fmt.Errorf("column_name must not be empty")
	}
	if e.register == nil {
		return "", ErrEmptyRegister
	}
	if len(e.stack) == 0 {
		return "", ErrEmptyStack
	}
	top := e.stack[len(e.stack)-1]
	if top.Kind != frames.KindFrame {
		return "", fmt.Errorf("cannot assign a column to a %s", top.KindString())
	}

	col := e.register.Copy()
	col.Name = in.ColumnName
	out := top.Frame.Mutate(col)
	if out.Err != nil {
		return "", out.Err
	}

	if in.InPlace {
		e.stack[len(e.stack)-1] = frames.FromFrame(out)
	} else {
		if err := e.checkDepth(); err != nil {
			return "", err
		}
		e.stack = append(e.stack, frames.FromFrame(out))
	}
	return frames.FrameRepr(out, e.opts.MaxReprRows), nil
}

// apply commits a tagged outcome to the state and renders its text.
func (e *Engine) apply(o ops.Outcome) (string, error) {
	switch o.Kind {
	case ops.OutcomeFrame, ops.OutcomeGrouped:
		if err := e.checkDepth(); err != nil {
			return "", err
		}
		e.stack = append(e.stack, o.Value)
		return o.Value.Repr(e.opts.MaxReprRows), nil
	case ops.OutcomeSeries:
		s := o.Series
		e.register = &s
		return frames.SeriesRepr(s, e.opts.MaxReprRows), nil
	default:
		return o.Text, nil
	}
}

func (e *Engine) checkDepth() error {
	if e.opts.MaxStackDepth > 0 && len(e.stack) >= e.opts.MaxStackDepth {
		return fmt.Errorf("stack is full (max depth %d); pop an element first", e.opts.MaxStackDepth)
	}
	return nil
}
