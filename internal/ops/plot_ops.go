package ops

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Plot operations stage a figure on the render context and return only
// text; the engine captures the figure as the step's image. Nothing is
// pushed or stored, so a chart call is deliberately lossy beyond its
// rendered artifact.

func framePlotBar(env Env, df dataframe.DataFrame, kw Kwargs) (Outcome, error) {
	x, err := kw.String("x")
	if err != nil {
		return Outcome{}, err
	}
	y, err := kw.String("y")
	if err != nil {
		return Outcome{}, err
	}
	xs := df.Col(x)
	if xs.Err != nil {
		return Outcome{}, xs.Err
	}
	ys := df.Col(y)
	if ys.Err != nil {
		return Outcome{}, ys.Err
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s by %s", y, x)
	p.Y.Label.Text = y
	bars, err := plotter.NewBarChart(plotter.Values(ys.Float()), vg.Points(20))
	if err != nil {
		return Outcome{}, err
	}
	p.Add(bars)
	p.NominalX(xs.Records()...)
	env.Render.Stage(p)
	return TextOutcome(fmt.Sprintf("<bar chart: %s by %s>", y, x)), nil
}

func framePlotLine(env Env, df dataframe.DataFrame, kw Kwargs) (Outcome, error) {
	y, err := kw.String("y")
	if err != nil {
		return Outcome{}, err
	}
	ys := df.Col(y)
	if ys.Err != nil {
		return Outcome{}, ys.Err
	}
	yv := ys.Float()

	var xv []float64
	xLabel := "index"
	if x, err := kw.OptString("x", ""); err != nil {
		return Outcome{}, err
	} else if x != "" {
		xs := df.Col(x)
		if xs.Err != nil {
			return Outcome{}, xs.Err
		}
		xv = xs.Float()
		xLabel = x
	} else {
		xv = make([]float64, len(yv))
		for i := range xv {
			xv[i] = float64(i)
		}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s over %s", y, xLabel)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = y
	line, err := plotter.NewLine(xyPoints(xv, yv))
	if err != nil {
		return Outcome{}, err
	}
	p.Add(line)
	env.Render.Stage(p)
	return TextOutcome(fmt.Sprintf("<line chart: %s over %s>", y, xLabel)), nil
}

func framePlotScatter(env Env, df dataframe.DataFrame, kw Kwargs) (Outcome, error) {
	x, err := kw.String("x")
	if err != nil {
		return Outcome{}, err
	}
	y, err := kw.String("y")
	if err != nil {
		return Outcome{}, err
	}
	xs := df.Col(x)
	if xs.Err != nil {
		return Outcome{}, xs.Err
	}
	ys := df.Col(y)
	if ys.Err != nil {
		return Outcome{}, ys.Err
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s vs %s", y, x)
	p.X.Label.Text = x
	p.Y.Label.Text = y
	sc, err := plotter.NewScatter(xyPoints(xs.Float(), ys.Float()))
	if err != nil {
		return Outcome{}, err
	}
	p.Add(sc)
	env.Render.Stage(p)
	return TextOutcome(fmt.Sprintf("<scatter chart: %s vs %s>", y, x)), nil
}

func framePlotHist(env Env, df dataframe.DataFrame, kw Kwargs) (Outcome, error) {
	column, err := kw.String("column")
	if err != nil {
		return Outcome{}, err
	}
	s := df.Col(column)
	if s.Err != nil {
		return Outcome{}, s.Err
	}
	return stageHist(env, s, kw)
}

func seriesPlotHist(env Env, s series.Series, kw Kwargs) (Outcome, error) {
	return stageHist(env, s, kw)
}

func stageHist(env Env, s series.Series, kw Kwargs) (Outcome, error) {
	bins, err := kw.OptInt("bins", 10)
	if err != nil {
		return Outcome{}, err
	}
	if bins <= 0 {
		return Outcome{}, fmt.Errorf("argument %q must be positive, got %d", "bins", bins)
	}

	p := plot.New()
	name := s.Name
	if name == "" {
		name = "series"
	}
	p.Title.Text = fmt.Sprintf("histogram of %s", name)
	h, err := plotter.NewHist(plotter.Values(s.Float()), bins)
	if err != nil {
		return Outcome{}, err
	}
	p.Add(h)
	env.Render.Stage(p)
	return TextOutcome(fmt.Sprintf("<histogram: %s, %d bins>", name, bins)), nil
}

func seriesPlotLine(env Env, s series.Series, _ Kwargs) (Outcome, error) {
	yv := s.Float()
	xv := make([]float64, len(yv))
	for i := range xv {
		xv[i] = float64(i)
	}

	p := plot.New()
	name := s.Name
	if name == "" {
		name = "series"
	}
	p.Title.Text = fmt.Sprintf("%s over index", name)
	p.Y.Label.Text = name
	line, err := plotter.NewLine(xyPoints(xv, yv))
	if err != nil {
		return Outcome{}, err
	}
	p.Add(line)
	env.Render.Stage(p)
	return TextOutcome(fmt.Sprintf("<line chart: %s over index>", name)), nil
}

func xyPoints(xs, ys []float64) plotter.XYs {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	pts := make(plotter.XYs, n)
	for i := range pts {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return pts
}
