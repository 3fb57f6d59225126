package ops

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

var seriesOps = registry[SeriesHandler]{
	target: "series",
	root: map[string]SeriesHandler{
		"__getitem__":  seriesGetItem,
		"head":         seriesHead,
		"unique":       seriesUnique,
		"sort_values":  seriesSortValues,
		"value_counts": seriesValueCounts,
		"sum":          seriesAgg(series.Series.Sum),
		"mean":         seriesAgg(series.Series.Mean),
		"median":       seriesAgg(series.Series.Median),
		"min":          seriesAgg(series.Series.Min),
		"max":          seriesAgg(series.Series.Max),
		"std":          seriesAgg(series.Series.StdDev),
		"quantile":     seriesQuantile,
	},
	ns: map[string]map[string]SeriesHandler{
		"rolling": {
			"mean": rollingHandler(rollingMean),
			"std":  rollingHandler(rollingStd),
		},
		"plot": {
			"hist": seriesPlotHist,
			"line": seriesPlotLine,
		},
	},
}

func seriesGetItem(_ Env, s series.Series, kw Kwargs) (Outcome, error) {
	idx, err := kw.Int("index")
	if err != nil {
		return Outcome{}, err
	}
	if idx < 0 || idx >= s.Len() {
		return Outcome{}, fmt.Errorf("index %d out of range for series of length %d", idx, s.Len())
	}
	return TextOutcome(fmt.Sprintf("%v", s.Val(idx))), nil
}

func seriesHead(_ Env, s series.Series, kw Kwargs) (Outcome, error) {
	n, err := kw.OptInt("n", 5)
	if err != nil {
		return Outcome{}, err
	}
	if n < 0 {
		return Outcome{}, fmt.Errorf("argument %q must be non-negative", "n")
	}
	if n > s.Len() {
		n = s.Len()
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	out := s.Subset(idx)
	if out.Err != nil {
		return Outcome{}, out.Err
	}
	return SeriesOutcome(out), nil
}

// seriesUnique keeps the first occurrence of each value, preserving order.
func seriesUnique(_ Env, s series.Series, _ Kwargs) (Outcome, error) {
	recs := s.Records()
	seen := make(map[string]bool, len(recs))
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	u := series.New(out, s.Type(), s.Name)
	if u.Err != nil {
		return Outcome{}, u.Err
	}
	return SeriesOutcome(u), nil
}

func seriesSortValues(_ Env, s series.Series, kw Kwargs) (Outcome, error) {
	ascending, err := kw.OptBool("ascending", true)
	if err != nil {
		return Outcome{}, err
	}
	out := s.Subset(s.Order(!ascending))
	if out.Err != nil {
		return Outcome{}, out.Err
	}
	return SeriesOutcome(out), nil
}

// seriesValueCounts tallies distinct values into a two-column frame
// (value, count), most frequent first. A frame rather than a series:
// gota series carry no index labels, so the counted values would
// otherwise be lost.
func seriesValueCounts(_ Env, s series.Series, _ Kwargs) (Outcome, error) {
	recs := s.Records()
	counts := make(map[string]int, len(recs))
	order := make([]string, 0, len(recs))
	for _, r := range recs {
		if counts[r] == 0 {
			order = append(order, r)
		}
		counts[r]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return order[i] < order[j]
	})
	ns := make([]int, len(order))
	for i, v := range order {
		ns[i] = counts[v]
	}
	name := s.Name
	if name == "" {
		name = "value"
	}
	out := dataframe.New(
		series.New(order, s.Type(), name),
		series.New(ns, series.Int, "count"),
	)
	if out.Err != nil {
		return Outcome{}, out.Err
	}
	return FrameOutcome(out), nil
}

// seriesAgg wraps a gota scalar reduction into a handler.
func seriesAgg(f func(series.Series) float64) SeriesHandler {
	return func(_ Env, s series.Series, _ Kwargs) (Outcome, error) {
		return TextOutcome(formatFloat(f(s))), nil
	}
}

func seriesQuantile(_ Env, s series.Series, kw Kwargs) (Outcome, error) {
	q, err := kw.Float("q")
	if err != nil {
		return Outcome{}, err
	}
	if q < 0 || q > 1 {
		return Outcome{}, fmt.Errorf("argument %q must be in [0, 1], got %v", "q", q)
	}
	return TextOutcome(formatFloat(s.Quantile(q))), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// rollingHandler adapts a windowed reduction over float values into a
// series-producing handler. Positions before a full window are NaN,
// matching the usual rolling semantics.
func rollingHandler(f func(window []float64) float64) SeriesHandler {
	return func(_ Env, s series.Series, kw Kwargs) (Outcome, error) {
		window, err := kw.Int("window")
		if err != nil {
			return Outcome{}, err
		}
		if window <= 0 {
			return Outcome{}, fmt.Errorf("argument %q must be positive, got %d", "window", window)
		}
		vals := s.Float()
		if window > len(vals) {
			return Outcome{}, fmt.Errorf("window %d exceeds series length %d", window, len(vals))
		}
		out := make([]float64, len(vals))
		for i := range out {
			if i+1 < window {
				out[i] = math.NaN()
				continue
			}
			out[i] = f(vals[i+1-window : i+1])
		}
		r := series.New(out, series.Float, s.Name)
		if r.Err != nil {
			return Outcome{}, r.Err
		}
		return SeriesOutcome(r), nil
	}
}

func rollingMean(window []float64) float64 {
	var sum float64
	for _, v := range window {
		sum += v
	}
	return sum / float64(len(window))
}

func rollingStd(window []float64) float64 {
	mean := rollingMean(window)
	var ss float64
	for _, v := range window {
		d := v - mean
		ss += d * d
	}
	if len(window) < 2 {
		return math.NaN()
	}
	return math.Sqrt(ss / float64(len(window)-1))
}
