package ops

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// frameEval evaluates an expression over the frame's columns, row by
// row, and yields the results as a series. Column names are bound as
// variables, so "price * qty" or "a + b > 10" work as expected. This is
// the usual way to compute a derived series for series_assign.
func frameEval(_ Env, df dataframe.DataFrame, kw Kwargs) (Outcome, error) {
	src, err := kw.String("expr")
	if err != nil {
		return Outcome{}, err
	}
	program, err := expr.Compile(src, expr.Env(map[string]any{}), expr.AllowUndefinedVariables())
	if err != nil {
		return Outcome{}, fmt.Errorf("eval %q: %w", src, err)
	}

	n := df.Nrow()
	names := df.Names()
	cols := make(map[string][]any, len(names))
	for _, name := range names {
		cols[name] = columnValues(df.Col(name))
	}

	results := make([]any, n)
	env := make(map[string]any, len(names))
	for i := 0; i < n; i++ {
		for name, vals := range cols {
			env[name] = vals[i]
		}
		out, err := expr.Run(program, env)
		if err != nil {
			return Outcome{}, fmt.Errorf("eval %q at row %d: %w", src, i, err)
		}
		results[i] = out
	}

	s, err := seriesFromValues(results, src)
	if err != nil {
		return Outcome{}, fmt.Errorf("eval %q: %w", src, err)
	}
	return SeriesOutcome(s), nil
}

// columnValues extracts a column as typed Go values for the expression
// environment, falling back to the string records when the element type
// has no direct Go mapping.
func columnValues(s series.Series) []any {
	n := s.Len()
	vals := make([]any, n)
	switch s.Type() {
	case series.Int:
		if ints, err := s.Int(); err == nil {
			for i := range vals {
				vals[i] = ints[i]
			}
			return vals
		}
		// NaN-bearing int column; fall back to floats.
		fallthrough
	case series.Float:
		floats := s.Float()
		for i := range vals {
			vals[i] = floats[i]
		}
	case series.Bool:
		if bools, err := s.Bool(); err == nil {
			for i := range vals {
				vals[i] = bools[i]
			}
			return vals
		}
		fallthrough
	default:
		recs := s.Records()
		for i := range vals {
			vals[i] = recs[i]
		}
	}
	return vals
}

// seriesFromValues builds a series from per-row expression results,
// picking the narrowest of float/bool/string that fits every value.
func seriesFromValues(values []any, name string) (series.Series, error) {
	allNum := true
	allBool := true
	for _, v := range values {
		switch v.(type) {
		case int, int64, float64:
			allBool = false
		case bool:
			allNum = false
		case string:
			allNum = false
			allBool = false
		case nil:
			return series.Series{}, fmt.Errorf("expression produced a nil value")
		default:
			allNum = false
			allBool = false
		}
	}

	switch {
	case allNum:
		out := make([]float64, len(values))
		for i, v := range values {
			switch n := v.(type) {
			case int:
				out[i] = float64(n)
			case int64:
				out[i] = float64(n)
			case float64:
				out[i] = n
			}
		}
		return series.New(out, series.Float, name), nil
	case allBool:
		out := make([]bool, len(values))
		for i, v := range values {
			out[i] = v.(bool)
		}
		return series.New(out, series.Bool, name), nil
	default:
		out := make([]string, len(values))
		for i, v := range values {
			out[i] = fmt.Sprint(v)
		}
		return series.New(out, series.String, name), nil
	}
}
