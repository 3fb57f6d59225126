package frames

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Kind discriminates the two table shapes a stack slot can hold.
type Kind int

const (
	// KindFrame is a plain dataframe.
	KindFrame Kind = iota
	// KindGrouped is a grouped dataframe awaiting aggregation.
	KindGrouped
)

// Value is one stack element: either a dataframe or a grouped dataframe.
// Grouped values exist so that a groupby result can be pushed and then
// aggregated by a later call, mirroring how intermediate grouped tables
// flow through an analysis.
type Value struct {
	Kind    Kind
	Frame   dataframe.DataFrame
	Grouped *Grouped
}

// Grouped wraps a gota Groups together with the key columns that formed it,
// which gota does not expose back to us.
type Grouped struct {
	Keys   []string
	Groups *dataframe.Groups
}

func FromFrame(df dataframe.DataFrame) Value {
	return Value{Kind: KindFrame, Frame: df}
}

func FromGrouped(keys []string, g *dataframe.Groups) Value {
	return Value{Kind: KindGrouped, Grouped: &Grouped{Keys: keys, Groups: g}}
}

// KindString names the value's kind for error messages.
func (v Value) KindString() string {
	if v.Kind == KindGrouped {
		return "grouped dataframe"
	}
	return "dataframe"
}

// Repr renders the value's textual representation, bounded to maxRows
// data rows (0 disables the bound). Bounding keeps snapshots and tool
// results predictably small for the model-facing prompt.
func (v Value) Repr(maxRows int) string {
	if v.Kind == KindGrouped {
		return v.Grouped.Repr(maxRows)
	}
	return FrameRepr(v.Frame, maxRows)
}

// FrameRepr renders a dataframe, truncated to maxRows rows with an
// explicit continuation note so the reader knows data was elided.
func FrameRepr(df dataframe.DataFrame, maxRows int) string {
	n := df.Nrow()
	if maxRows <= 0 || n <= maxRows {
		return strings.TrimRight(df.String(), "\n")
	}
	idx := make([]int, maxRows)
	for i := range idx {
		idx[i] = i
	}
	head := df.Subset(idx)
	return strings.TrimRight(head.String(), "\n") +
		fmt.Sprintf("\n... (%d of %d rows shown)", maxRows, n)
}

// SeriesRepr renders a series, truncated like FrameRepr.
func SeriesRepr(s series.Series, maxRows int) string {
	n := s.Len()
	if maxRows <= 0 || n <= maxRows {
		return s.String()
	}
	idx := make([]int, maxRows)
	for i := range idx {
		idx[i] = i
	}
	head := s.Subset(idx)
	return head.String() + fmt.Sprintf("\n... (%d of %d values shown)", maxRows, n)
}

// Repr summarises a grouped dataframe: key columns, group count, and the
// per-group sizes in deterministic key order.
func (g *Grouped) Repr(maxRows int) string {
	groups := g.Groups.GetGroups()
	names := make([]string, 0, len(groups))
	for k := range groups {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "grouped by [%s]: %d groups", strings.Join(g.Keys, ", "), len(names))
	shown := len(names)
	if maxRows > 0 && shown > maxRows {
		shown = maxRows
	}
	for _, k := range names[:shown] {
		fmt.Fprintf(&b, "\n  %s: %d rows", k, groups[k].Nrow())
	}
	if shown < len(names) {
		fmt.Fprintf(&b, "\n  ... (%d of %d groups shown)", shown, len(names))
	}
	return b.String()
}
