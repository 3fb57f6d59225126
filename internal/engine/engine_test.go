package engine_test

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/petasbytes/frame-agent/internal/engine"
	"github.com/petasbytes/frame-agent/internal/frames"
	"github.com/petasbytes/frame-agent/internal/render"
)

func newTestFrame() dataframe.DataFrame {
	return dataframe.New(
		series.New([]int{1, 2, 3}, series.Int, "a"),
		series.New([]int{10, 20, 30}, series.Int, "b"),
	)
}

func newEngine(t *testing.T, opts engine.Options) *engine.Engine {
	t.Helper()
	return engine.New(newTestFrame(), render.New(), opts)
}

func call(t *testing.T, name string, input string) engine.Call {
	t.Helper()
	return engine.Call{Name: name, Input: json.RawMessage(input)}
}

func frameOp(t *testing.T, e *engine.Engine, target int, fn, kwargs string) engine.Result {
	t.Helper()
	in, err := json.Marshal(map[string]any{
		"target_frame": target,
		"function":     fn,
		"kwargs":       json.RawMessage(kwargs),
	})
	if err != nil {
		t.Fatalf("marshal input: %v", err)
	}
	return e.Execute(engine.Call{Name: "dataframe_operation", Input: in})
}

func TestGetItem_LoadsRegister_StackUnchanged(t *testing.T) {
	// Scenario A: selecting a column yields a series into the register.
	e := newEngine(t, engine.Options{})

	res := frameOp(t, e, 0, "__getitem__", `{"key":"a"}`)
	if res.IsError {
		t.Fatalf("unexpected error: %s", res.Text)
	}
	if got := len(e.Stack()); got != 1 {
		t.Fatalf("stack length changed: got %d want 1", got)
	}
	reg, ok := e.Register()
	if !ok {
		t.Fatal("register empty after column selection")
	}
	if got := reg.Records(); !reflect.DeepEqual(got, []string{"1", "2", "3"}) {
		t.Fatalf("register holds %v, want column a", got)
	}
}

func TestSeriesAssign_PushesCopyWithColumn(t *testing.T) {
	// Scenario B: eval then series_assign grows the stack by one; the
	// new top carries the computed column, the frame below is unchanged.
	e := newEngine(t, engine.Options{})

	if res := frameOp(t, e, 0, "eval", `{"expr":"a + b"}`); res.IsError {
		t.Fatalf("eval: %s", res.Text)
	}
	res := e.Execute(call(t, "series_assign", `{"column_name":"c","in_place":false}`))
	if res.IsError {
		t.Fatalf("series_assign: %s", res.Text)
	}

	stack := e.Stack()
	if len(stack) != 2 {
		t.Fatalf("stack length: got %d want 2", len(stack))
	}
	top := stack[1].Frame
	c := top.Col("c")
	if c.Err != nil {
		t.Fatalf("top frame has no column c: %v", c.Err)
	}
	if got := c.Float(); !reflect.DeepEqual(got, []float64{11, 22, 33}) {
		t.Fatalf("column c = %v, want [11 22 33]", got)
	}
	below := stack[0].Frame
	if got := below.Names(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("frame below gained columns: %v", got)
	}
}

func TestSeriesAssign_InPlace_MutatesTop(t *testing.T) {
	e := newEngine(t, engine.Options{})

	if res := frameOp(t, e, 0, "eval", `{"expr":"a * 2"}`); res.IsError {
		t.Fatalf("eval: %s", res.Text)
	}
	res := e.Execute(call(t, "series_assign", `{"column_name":"c","in_place":true}`))
	if res.IsError {
		t.Fatalf("series_assign: %s", res.Text)
	}
	stack := e.Stack()
	if len(stack) != 1 {
		t.Fatalf("stack length: got %d want 1", len(stack))
	}
	if c := stack[0].Frame.Col("c"); c.Err != nil {
		t.Fatalf("top frame missing column c: %v", c.Err)
	}
}

func TestSeriesAssign_Twice_PreservesOriginalBelow(t *testing.T) {
	// P5: duplicate-then-modify keeps the pre-call top intact one below.
	e := newEngine(t, engine.Options{})

	if res := frameOp(t, e, 0, "eval", `{"expr":"a + b"}`); res.IsError {
		t.Fatalf("eval: %s", res.Text)
	}
	preTop := e.Stack()[len(e.Stack())-1].Frame.Records()

	for i := 0; i < 2; i++ {
		if res := e.Execute(call(t, "series_assign", `{"column_name":"c"}`)); res.IsError {
			t.Fatalf("series_assign %d: %s", i, res.Text)
		}
	}
	stack := e.Stack()
	if len(stack) != 3 {
		t.Fatalf("stack length: got %d want 3", len(stack))
	}
	// After the first assign the element below the final top is the
	// first copy-with-column; the original sits at the bottom untouched.
	if got := stack[0].Frame.Records(); !reflect.DeepEqual(got, preTop) {
		t.Fatalf("original frame changed:\ngot  %v\nwant %v", got, preTop)
	}
	secondFromTop := stack[1].Frame.Records()
	top := stack[2].Frame.Records()
	if !reflect.DeepEqual(secondFromTop, top) {
		t.Fatalf("second assign produced a different frame:\ngot  %v\nwant %v", top, secondFromTop)
	}
}

func TestFailedCall_LeavesStateUntouched(t *testing.T) {
	// P1 / Scenario C: a resolution failure is reported as text and
	// mutates nothing.
	e := newEngine(t, engine.Options{})
	if res := frameOp(t, e, 0, "__getitem__", `{"key":"a"}`); res.IsError {
		t.Fatalf("setup: %s", res.Text)
	}
	before := e.Stack()
	regBefore, _ := e.Register()

	res := frameOp(t, e, 0, "no_such_function", `{}`)
	if !res.IsError {
		t.Fatalf("expected error result, got %q", res.Text)
	}
	if !strings.Contains(res.Text, "has no attribute") {
		t.Fatalf("expected attribute-resolution error, got %q", res.Text)
	}
	after := e.Stack()
	if len(after) != len(before) {
		t.Fatalf("stack length changed on failed call: %d -> %d", len(before), len(after))
	}
	regAfter, ok := e.Register()
	if !ok {
		t.Fatal("register emptied by failed call")
	}
	if !reflect.DeepEqual(regBefore.Records(), regAfter.Records()) {
		t.Fatal("register changed on failed call")
	}
}

func TestTopRelativeAddressing(t *testing.T) {
	// P2: target_frame k is the element k below the top, across pushes.
	e := newEngine(t, engine.Options{})
	// Push a one-row head so the two stack elements are distinguishable.
	if res := frameOp(t, e, 0, "head", `{"n":1}`); res.IsError {
		t.Fatalf("head: %s", res.Text)
	}

	res := frameOp(t, e, 0, "shape", `{}`)
	if res.IsError || res.Text != "(1, 2)" {
		t.Fatalf("target 0 shape: got %q err=%v", res.Text, res.IsError)
	}
	res = frameOp(t, e, 1, "shape", `{}`)
	if res.IsError || res.Text != "(3, 2)" {
		t.Fatalf("target 1 shape: got %q err=%v", res.Text, res.IsError)
	}
}

func TestAddressingOutOfRange_IsCaught(t *testing.T) {
	e := newEngine(t, engine.Options{})
	res := frameOp(t, e, 3, "shape", `{}`)
	if !res.IsError {
		t.Fatalf("expected error result, got %q", res.Text)
	}
	if !strings.Contains(res.Text, "out of range") {
		t.Fatalf("expected addressing error, got %q", res.Text)
	}
	if len(e.Stack()) != 1 {
		t.Fatal("stack changed on addressing error")
	}
}

func TestRegisterOverwrite(t *testing.T) {
	// P3: a new series replaces the register wholesale.
	e := newEngine(t, engine.Options{})
	if res := frameOp(t, e, 0, "__getitem__", `{"key":"a"}`); res.IsError {
		t.Fatalf("first select: %s", res.Text)
	}
	if res := frameOp(t, e, 0, "__getitem__", `{"key":"b"}`); res.IsError {
		t.Fatalf("second select: %s", res.Text)
	}
	reg, _ := e.Register()
	if got := reg.Records(); !reflect.DeepEqual(got, []string{"10", "20", "30"}) {
		t.Fatalf("register holds %v, want column b", got)
	}
}

func TestScalarResult_NotStored(t *testing.T) {
	// P4: results that are neither frame nor series surface as text only.
	e := newEngine(t, engine.Options{})
	res := frameOp(t, e, 0, "keys", `{}`)
	if res.IsError {
		t.Fatalf("keys: %s", res.Text)
	}
	if res.Text != "[a, b]" {
		t.Fatalf("keys text: got %q", res.Text)
	}
	if len(e.Stack()) != 1 {
		t.Fatal("scalar result was pushed")
	}
	if _, ok := e.Register(); ok {
		t.Fatal("scalar result was stored in register")
	}
}

func TestPop_ToEmpty_ThenExplicitErrors(t *testing.T) {
	// Scenario D: the stack may be emptied; later calls fail explicitly.
	e := newEngine(t, engine.Options{})
	res := e.Execute(call(t, "pop", `{}`))
	if res.IsError {
		t.Fatalf("pop: %s", res.Text)
	}
	if len(e.Stack()) != 0 {
		t.Fatalf("stack not empty after pop: %d", len(e.Stack()))
	}

	res = e.Execute(call(t, "pop", `{}`))
	if !res.IsError || !strings.Contains(res.Text, "stack is empty") {
		t.Fatalf("expected empty-stack error, got %q", res.Text)
	}
	res = frameOp(t, e, 0, "shape", `{}`)
	if !res.IsError || !strings.Contains(res.Text, "out of range") {
		t.Fatalf("expected addressing error on empty stack, got %q", res.Text)
	}
}

func TestSeriesOperation_EmptyRegister(t *testing.T) {
	e := newEngine(t, engine.Options{})
	in := `{"function":"mean","kwargs":{}}`
	res := e.Execute(call(t, "series_operation", in))
	if !res.IsError || !strings.Contains(res.Text, "register is empty") {
		t.Fatalf("expected empty-register error, got %q", res.Text)
	}
}

func TestSeriesOperation_ReplacesRegister(t *testing.T) {
	e := newEngine(t, engine.Options{})
	if res := frameOp(t, e, 0, "__getitem__", `{"key":"b"}`); res.IsError {
		t.Fatalf("select: %s", res.Text)
	}
	res := e.Execute(call(t, "series_operation", `{"function":"sort_values","kwargs":{"ascending":false}}`))
	if res.IsError {
		t.Fatalf("sort_values: %s", res.Text)
	}
	reg, _ := e.Register()
	if got := reg.Records(); !reflect.DeepEqual(got, []string{"30", "20", "10"}) {
		t.Fatalf("register = %v, want descending column b", got)
	}
}

func TestSeriesOperation_ScalarResult(t *testing.T) {
	e := newEngine(t, engine.Options{})
	if res := frameOp(t, e, 0, "__getitem__", `{"key":"a"}`); res.IsError {
		t.Fatalf("select: %s", res.Text)
	}
	res := e.Execute(call(t, "series_operation", `{"function":"sum","kwargs":{}}`))
	if res.IsError {
		t.Fatalf("sum: %s", res.Text)
	}
	if res.Text != "6" {
		t.Fatalf("sum text: got %q want 6", res.Text)
	}
}

func TestGroupBy_PushesGrouped_ThenAgg(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"x", "y", "x"}, series.String, "k"),
		series.New([]int{1, 2, 3}, series.Int, "v"),
	)
	e := engine.New(df, render.New(), engine.Options{})

	res := frameOp(t, e, 0, "groupby", `{"by":"k"}`)
	if res.IsError {
		t.Fatalf("groupby: %s", res.Text)
	}
	stack := e.Stack()
	if len(stack) != 2 {
		t.Fatalf("stack length after groupby: %d", len(stack))
	}
	if stack[1].Kind != frames.KindGrouped {
		t.Fatalf("top kind after groupby: %v", stack[1].Kind)
	}
	if !strings.Contains(res.Text, "grouped by [k]") {
		t.Fatalf("grouped repr: %q", res.Text)
	}

	res = frameOp(t, e, 0, "agg", `{"func":"sum","columns":"v"}`)
	if res.IsError {
		t.Fatalf("agg: %s", res.Text)
	}
	if len(e.Stack()) != 3 {
		t.Fatalf("stack length after agg: %d", len(e.Stack()))
	}
	top := e.Stack()[2]
	if top.Kind != frames.KindFrame {
		t.Fatalf("agg result kind: %v", top.Kind)
	}
	if top.Frame.Nrow() != 2 {
		t.Fatalf("agg rows: %d want 2", top.Frame.Nrow())
	}
}

func TestGroupedTarget_RejectsFrameOps(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"x", "y"}, series.String, "k"),
		series.New([]int{1, 2}, series.Int, "v"),
	)
	e := engine.New(df, render.New(), engine.Options{})
	if res := frameOp(t, e, 0, "groupby", `{"by":"k"}`); res.IsError {
		t.Fatalf("groupby: %s", res.Text)
	}
	res := frameOp(t, e, 0, "head", `{}`)
	if !res.IsError || !strings.Contains(res.Text, "grouped dataframe has no attribute") {
		t.Fatalf("expected grouped resolution error, got %q", res.Text)
	}
}

func TestSeriesAssign_OnGroupedTop_Errors(t *testing.T) {
	df := dataframe.New(
		series.New([]string{"x", "y"}, series.String, "k"),
		series.New([]int{1, 2}, series.Int, "v"),
	)
	e := engine.New(df, render.New(), engine.Options{})
	if res := frameOp(t, e, 0, "__getitem__", `{"key":"v"}`); res.IsError {
		t.Fatalf("select: %s", res.Text)
	}
	if res := frameOp(t, e, 0, "groupby", `{"by":"k"}`); res.IsError {
		t.Fatalf("groupby: %s", res.Text)
	}
	res := e.Execute(call(t, "series_assign", `{"column_name":"c"}`))
	if !res.IsError || !strings.Contains(res.Text, "grouped dataframe") {
		t.Fatalf("expected grouped-assign error, got %q", res.Text)
	}
}

func TestStackDepthCap(t *testing.T) {
	e := newEngine(t, engine.Options{MaxStackDepth: 2})
	if res := frameOp(t, e, 0, "head", `{"n":1}`); res.IsError {
		t.Fatalf("first push: %s", res.Text)
	}
	res := frameOp(t, e, 0, "head", `{"n":1}`)
	if !res.IsError || !strings.Contains(res.Text, "stack is full") {
		t.Fatalf("expected stack-full error, got %q", res.Text)
	}
	if len(e.Stack()) != 2 {
		t.Fatalf("stack grew past cap: %d", len(e.Stack()))
	}
}

func TestMerge_JoinsTwoStackElements(t *testing.T) {
	e := newEngine(t, engine.Options{})
	// Push an aggregated lookup-style frame: k/v from a fresh groupby
	// would be overkill; a head copy with renamed column works.
	if res := frameOp(t, e, 0, "rename", `{"column":"b","to":"b2"}`); res.IsError {
		t.Fatalf("rename: %s", res.Text)
	}
	res := frameOp(t, e, 0, "merge", `{"with":1,"on":"a","how":"inner"}`)
	if res.IsError {
		t.Fatalf("merge: %s", res.Text)
	}
	top := e.Stack()[len(e.Stack())-1].Frame
	names := top.Names()
	joined := strings.Join(names, ",")
	if !strings.Contains(joined, "b2") || !strings.Contains(joined, "b") {
		t.Fatalf("merge columns: %v", names)
	}
	if top.Nrow() != 3 {
		t.Fatalf("merge rows: %d want 3", top.Nrow())
	}
}

func TestUnknownTool(t *testing.T) {
	e := newEngine(t, engine.Options{})
	res := e.Execute(call(t, "no_such_tool", `{}`))
	if !res.IsError || !strings.Contains(res.Text, "unknown tool") {
		t.Fatalf("expected unknown-tool error, got %q", res.Text)
	}
}

func TestPlot_CapturesImage(t *testing.T) {
	e := newEngine(t, engine.Options{})
	res := frameOp(t, e, 0, "plot.bar", `{"x":"a","y":"b"}`)
	if res.IsError {
		t.Fatalf("plot.bar: %s", res.Text)
	}
	if res.Image == "" {
		t.Fatal("expected a captured image")
	}
	if len(e.Stack()) != 1 {
		t.Fatal("plot result was pushed")
	}

	// The figure is drained; the next call carries no image.
	res = frameOp(t, e, 0, "shape", `{}`)
	if res.Image != "" {
		t.Fatal("stale figure leaked into the next step")
	}
}
