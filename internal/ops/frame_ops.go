package ops

import (
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/petasbytes/frame-agent/internal/frames"
)

var frameOps = registry[FrameHandler]{
	target: "dataframe",
	root: map[string]FrameHandler{
		"__getitem__": frameGetItem,
		"keys":        frameKeys,
		"shape":       frameShape,
		"head":        frameHead,
		"tail":        frameTail,
		"describe":    frameDescribe,
		"filter":      frameFilter,
		"sort_values": frameSortValues,
		"drop":        frameDrop,
		"rename":      frameRename,
		"groupby":     frameGroupBy,
		"merge":       frameMerge,
		"eval":        frameEval,
	},
	ns: map[string]map[string]FrameHandler{
		"plot": {
			"bar":     framePlotBar,
			"line":    framePlotLine,
			"scatter": framePlotScatter,
			"hist":    framePlotHist,
		},
	},
}

var groupedOps = registry[GroupedHandler]{
	target: "grouped dataframe",
	root: map[string]GroupedHandler{
		"agg": groupedAgg,
	},
}

// frameGetItem selects one column (yielding a series) or several
// (yielding a dataframe), standing in for df[...] indexing.
func frameGetItem(_ Env, df dataframe.DataFrame, kw Kwargs) (Outcome, error) {
	v, err := kw.Literal("key")
	if err != nil {
		return Outcome{}, err
	}
	if name, ok := v.(string); ok {
		s := df.Col(name)
		if s.Err != nil {
			return Outcome{}, s.Err
		}
		return SeriesOutcome(s), nil
	}
	names, err := kw.Strings("key")
	if err != nil {
		return Outcome{}, err
	}
	out := df.Select(names)
	if out.Err != nil {
		return Outcome{}, out.Err
	}
	return FrameOutcome(out), nil
}

func frameKeys(_ Env, df dataframe.DataFrame, _ Kwargs) (Outcome, error) {
	return TextOutcome("[" + strings.Join(df.Names(), ", ") + "]"), nil
}

func frameShape(_ Env, df dataframe.DataFrame, _ Kwargs) (Outcome, error) {
	return TextOutcome(fmt.Sprintf("(%d, %d)", df.Nrow(), df.Ncol())), nil
}

func frameHead(_ Env, df dataframe.DataFrame, kw Kwargs) (Outcome, error) {
	n, err := kw.OptInt("n", 5)
	if err != nil {
		return Outcome{}, err
	}
	if n < 0 {
		return Outcome{}, fmt.Errorf("argument %q must be non-negative", "n")
	}
	if n > df.Nrow() {
		n = df.Nrow()
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	out := df.Subset(idx)
	if out.Err != nil {
		return Outcome{}, out.Err
	}
	return FrameOutcome(out), nil
}

func frameTail(_ Env, df dataframe.DataFrame, kw Kwargs) (Outcome, error) {
	n, err := kw.OptInt("n", 5)
	if err != nil {
		return Outcome{}, err
	}
	if n < 0 {
		return Outcome{}, fmt.Errorf("argument %q must be non-negative", "n")
	}
	total := df.Nrow()
	if n > total {
		n = total
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = total - n + i
	}
	out := df.Subset(idx)
	if out.Err != nil {
		return Outcome{}, out.Err
	}
	return FrameOutcome(out), nil
}

func frameDescribe(_ Env, df dataframe.DataFrame, _ Kwargs) (Outcome, error) {
	out := df.Describe()
	if out.Err != nil {
		return Outcome{}, out.Err
	}
	return FrameOutcome(out), nil
}

var comparators = map[string]series.Comparator{
	"==": series.Eq,
	"!=": series.Neq,
	">":  series.Greater,
	">=": series.GreaterEq,
	"<":  series.Less,
	"<=": series.LessEq,
	"in": series.In,
}

// frameFilter keeps rows where column <comparator> value holds.
func frameFilter(_ Env, df dataframe.DataFrame, kw Kwargs) (Outcome, error) {
	col, err := kw.String("column")
	if err != nil {
		return Outcome{}, err
	}
	cmpName, err := kw.String("comparator")
	if err != nil {
		return Outcome{}, err
	}
	cmp, ok := comparators[cmpName]
	if !ok {
		return Outcome{}, fmt.Errorf("unknown comparator %q (want ==, !=, >, >=, <, <= or in)", cmpName)
	}
	val, err := kw.Literal("value")
	if err != nil {
		return Outcome{}, err
	}
	comparando, err := literalOperand(val)
	if err != nil {
		return Outcome{}, fmt.Errorf("argument %q: %w", "value", err)
	}
	out := df.Filter(dataframe.F{Colname: col, Comparator: cmp, Comparando: comparando})
	if out.Err != nil {
		return Outcome{}, out.Err
	}
	return FrameOutcome(out), nil
}

// literalOperand converts a decoded JSON value into a shape gota can
// compare against: a scalar, []string or []float64.
func literalOperand(v any) (any, error) {
	list, ok := v.([]any)
	if !ok {
		return v, nil
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("list must not be empty")
	}
	switch list[0].(type) {
	case string:
		out := make([]string, 0, len(list))
		for _, e := range list {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("mixed-type lists are not supported")
			}
			out = append(out, s)
		}
		return out, nil
	case float64:
		out := make([]float64, 0, len(list))
		for _, e := range list {
			f, ok := e.(float64)
			if !ok {
				return nil, fmt.Errorf("mixed-type lists are not supported")
			}
			out = append(out, f)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported list element type %T", list[0])
	}
}

func frameSortValues(_ Env, df dataframe.DataFrame, kw Kwargs) (Outcome, error) {
	by, err := kw.Strings("by")
	if err != nil {
		return Outcome{}, err
	}
	ascending, err := kw.OptBool("ascending", true)
	if err != nil {
		return Outcome{}, err
	}
	orders := make([]dataframe.Order, 0, len(by))
	for _, name := range by {
		if ascending {
			orders = append(orders, dataframe.Sort(name))
		} else {
			orders = append(orders, dataframe.RevSort(name))
		}
	}
	out := df.Arrange(orders...)
	if out.Err != nil {
		return Outcome{}, out.Err
	}
	return FrameOutcome(out), nil
}

// frameDrop selects the complement of the named columns.
func frameDrop(_ Env, df dataframe.DataFrame, kw Kwargs) (Outcome, error) {
	cols, err := kw.Strings("columns")
	if err != nil {
		return Outcome{}, err
	}
	dropped := make(map[string]bool, len(cols))
	for _, c := range cols {
		dropped[c] = true
	}
	names := df.Names()
	keep := make([]string, 0, len(names))
	for _, n := range names {
		if !dropped[n] {
			keep = append(keep, n)
		}
	}
	if len(keep) == len(names) {
		return Outcome{}, fmt.Errorf("no such columns: %s", strings.Join(cols, ", "))
	}
	if len(keep) == 0 {
		return Outcome{}, fmt.Errorf("cannot drop every column")
	}
	out := df.Select(keep)
	if out.Err != nil {
		return Outcome{}, out.Err
	}
	return FrameOutcome(out), nil
}

func frameRename(_ Env, df dataframe.DataFrame, kw Kwargs) (Outcome, error) {
	column, err := kw.String("column")
	if err != nil {
		return Outcome{}, err
	}
	to, err := kw.String("to")
	if err != nil {
		return Outcome{}, err
	}
	out := df.Rename(to, column)
	if out.Err != nil {
		return Outcome{}, out.Err
	}
	return FrameOutcome(out), nil
}

// frameGroupBy produces a grouped dataframe; the grouped value is a
// stack element of its own and is aggregated by a later agg call.
func frameGroupBy(_ Env, df dataframe.DataFrame, kw Kwargs) (Outcome, error) {
	by, err := kw.Strings("by")
	if err != nil {
		return Outcome{}, err
	}
	g := df.GroupBy(by...)
	if g.Err != nil {
		return Outcome{}, g.Err
	}
	return GroupedOutcome(by, g), nil
}

// frameMerge joins the target with another stack element addressed by
// its top-relative index.
func frameMerge(env Env, df dataframe.DataFrame, kw Kwargs) (Outcome, error) {
	with, err := kw.Int("with")
	if err != nil {
		return Outcome{}, err
	}
	on, err := kw.Strings("on")
	if err != nil {
		return Outcome{}, err
	}
	how, err := kw.OptString("how", "inner")
	if err != nil {
		return Outcome{}, err
	}
	other, err := env.Lookup(with)
	if err != nil {
		return Outcome{}, err
	}
	if other.Kind != frames.KindFrame {
		return Outcome{}, fmt.Errorf("merge operand at stack position %d is a %s, not a dataframe", with, other.KindString())
	}

	var out dataframe.DataFrame
	switch how {
	case "inner":
		out = df.InnerJoin(other.Frame, on...)
	case "left":
		out = df.LeftJoin(other.Frame, on...)
	case "right":
		out = df.RightJoin(other.Frame, on...)
	case "outer":
		out = df.OuterJoin(other.Frame, on...)
	default:
		return Outcome{}, fmt.Errorf("unknown join kind %q (want inner, left, right or outer)", how)
	}
	if out.Err != nil {
		return Outcome{}, out.Err
	}
	return FrameOutcome(out), nil
}

var aggregations = map[string]dataframe.AggregationType{
	"max":    dataframe.Aggregation_MAX,
	"min":    dataframe.Aggregation_MIN,
	"mean":   dataframe.Aggregation_MEAN,
	"median": dataframe.Aggregation_MEDIAN,
	"std":    dataframe.Aggregation_STD,
	"sum":    dataframe.Aggregation_SUM,
	"count":  dataframe.Aggregation_COUNT,
}

// groupedAgg aggregates a grouped dataframe back into a plain one.
// func and columns pair up positionally; a single func is broadcast
// over all named columns.
func groupedAgg(_ Env, g *frames.Grouped, kw Kwargs) (Outcome, error) {
	funcs, err := kw.Strings("func")
	if err != nil {
		return Outcome{}, err
	}
	columns, err := kw.Strings("columns")
	if err != nil {
		return Outcome{}, err
	}
	if len(funcs) == 1 && len(columns) > 1 {
		f := funcs[0]
		funcs = make([]string, len(columns))
		for i := range funcs {
			funcs[i] = f
		}
	}
	if len(funcs) != len(columns) {
		return Outcome{}, fmt.Errorf("func and columns must pair up: %d funcs for %d columns", len(funcs), len(columns))
	}
	typs := make([]dataframe.AggregationType, 0, len(funcs))
	for _, f := range funcs {
		t, ok := aggregations[f]
		if !ok {
			return Outcome{}, fmt.Errorf("unknown aggregation %q (want max, min, mean, median, std, sum or count)", f)
		}
		typs = append(typs, t)
	}
	out := g.Groups.Aggregation(typs, columns)
	if out.Err != nil {
		return Outcome{}, out.Err
	}
	return FrameOutcome(out), nil
}
