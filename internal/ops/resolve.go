package ops

import (
	"fmt"
	"strings"
)

// ResolveError reports a dotted operation path that does not exist on
// the target. It plays the role of an attribute-lookup failure and is
// handled like any other execution error.
type ResolveError struct {
	Target  string // "dataframe", "grouped dataframe", "series"
	Path    string
	Segment string
}

func (e *ResolveError) Error() string {
	if e.Segment == e.Path {
		return fmt.Sprintf("%s has no attribute %q", e.Target, e.Segment)
	}
	return fmt.Sprintf("%s has no attribute %q (resolving %q)", e.Target, e.Segment, e.Path)
}

// registry is a two-level operation table: operations directly on the
// object, plus namespaces of operations reached through one attribute
// hop (e.g. "plot.bar", "rolling.mean").
type registry[H any] struct {
	target string
	root   map[string]H
	ns     map[string]map[string]H
}

// resolve walks a dotted path against the registry. Paths have one
// segment (root operation) or two (namespace then operation); anything
// deeper fails on the first segment past a resolved operation.
func (r registry[H]) resolve(path string) (H, error) {
	var zero H
	segs := strings.Split(path, ".")
	if len(segs) == 0 || segs[0] == "" {
		return zero, &ResolveError{Target: r.target, Path: path, Segment: path}
	}

	if len(segs) == 1 {
		h, ok := r.root[segs[0]]
		if !ok {
			return zero, &ResolveError{Target: r.target, Path: path, Segment: segs[0]}
		}
		return h, nil
	}

	methods, ok := r.ns[segs[0]]
	if !ok {
		return zero, &ResolveError{Target: r.target, Path: path, Segment: segs[0]}
	}
	h, ok := methods[segs[1]]
	if !ok {
		return zero, &ResolveError{Target: r.target + "." + segs[0], Path: path, Segment: segs[1]}
	}
	if len(segs) > 2 {
		return zero, &ResolveError{Target: r.target + "." + segs[0] + "." + segs[1], Path: path, Segment: segs[2]}
	}
	return h, nil
}

// ResolveFrame resolves a dotted path to a plain-dataframe operation.
func ResolveFrame(path string) (FrameHandler, error) {
	return frameOps.resolve(path)
}

// ResolveGrouped resolves a dotted path to a grouped-dataframe operation.
func ResolveGrouped(path string) (GroupedHandler, error) {
	return groupedOps.resolve(path)
}

// ResolveSeries resolves a dotted path to a series operation.
func ResolveSeries(path string) (SeriesHandler, error) {
	return seriesOps.resolve(path)
}
