// Package render owns the chart side channel of a session. Operations
// that draw stage a figure on the Context; the engine drains it at the
// end of the step into a base64 PNG. The context is scoped to one
// session, so figure state never leaks between sessions or steps.
package render

import (
	"bytes"
	"encoding/base64"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

// Context holds at most one staged figure between Stage and Drain.
type Context struct {
	fig    *plot.Plot
	width  vg.Length
	height vg.Length
}

// New returns a context rendering figures at the default 6x4 inch size.
func New() *Context {
	return &Context{width: 6 * vg.Inch, height: 4 * vg.Inch}
}

// Stage records p as the step's figure, replacing any previous one.
func (c *Context) Stage(p *plot.Plot) {
	c.fig = p
}

// Staged reports whether a figure is pending capture.
func (c *Context) Staged() bool {
	return c.fig != nil
}

// Drain encodes the staged figure as a base64 PNG and clears it.
// Returns ok=false when no figure was staged. The figure is cleared
// even when encoding fails, so a broken chart cannot wedge later steps.
func (c *Context) Drain() (string, bool, error) {
	if c.fig == nil {
		return "", false, nil
	}
	p := c.fig
	c.fig = nil

	wt, err := p.WriterTo(c.width, c.height, "png")
	if err != nil {
		return "", false, err
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return "", false, err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), true, nil
}
