package report

import (
	"bytes"
	"fmt"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/occupancy.report/internal/tracks"
	"github.com/banshee-data/occupancy.report/internal/units"
)

// SpeedPlotOptions controls the speed profile PNG.
type SpeedPlotOptions struct {
	Title string
	Units string
	FPS   float64
	// MaxIdentities caps the number of plotted lines. Identities are taken
	// in ascending order; zero plots all of them.
	MaxIdentities int
}

// speedSeries returns, per identity, the smoothed speed against time.
// Points without a smoothed value are skipped.
func speedSeries(points []tracks.Point, o SpeedPlotOptions) ([]int, map[int]plotter.XYs) {
	series := make(map[int]plotter.XYs)
	for _, p := range points {
		v, ok := p.Smoothed()
		if !ok {
			continue
		}
		series[p.Identity] = append(series[p.Identity], plotter.XY{
			X: p.TimeSec,
			Y: units.ConvertSpeed(v, o.FPS, o.Units),
		})
	}
	ids := make([]int, 0, len(series))
	for id := range series {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	if o.MaxIdentities > 0 && len(ids) > o.MaxIdentities {
		ids = ids[:o.MaxIdentities]
	}
	for _, id := range ids {
		xy := series[id]
		sort.SliceStable(xy, func(i, j int) bool { return xy[i].X < xy[j].X })
	}
	return ids, series
}

// SpeedProfilePNG plots the smoothed speed of every identity over time.
func SpeedProfilePNG(points []tracks.Point, o SpeedPlotOptions) ([]byte, error) {
	unitLabel := o.Units
	if unitLabel == "" {
		unitLabel = units.PxPerFrame
	}

	p := plot.New()
	p.Title.Text = o.Title
	if p.Title.Text == "" {
		p.Title.Text = "Smoothed speed by identity"
	}
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = fmt.Sprintf("Speed (%s)", unitLabel)

	ids, series := speedSeries(points, o)
	for i, id := range ids {
		line, err := plotter.NewLine(series[id])
		if err != nil {
			return nil, fmt.Errorf("speed line for id %d: %w", id, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("id %d", id), line)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	wt, err := p.WriterTo(10*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("speed plot canvas: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("render speed plot: %w", err)
	}
	return buf.Bytes(), nil
}
