package report

import (
	"bytes"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/occupancy.report/internal/occupancy"
)

// ChartOptions controls HTML chart rendering.
type ChartOptions struct {
	Title string
	// AssetsHost overrides where the echarts scripts are loaded from. Empty
	// keeps the go-echarts default CDN.
	AssetsHost string
}

func (o ChartOptions) init(height string) opts.Initialization {
	title := o.Title
	if title == "" {
		title = "Occupancy"
	}
	return opts.Initialization{
		PageTitle:  title,
		Width:      "100%",
		Height:     height,
		AssetsHost: o.AssetsHost,
	}
}

func binLabels(edges []float64) []string {
	x := make([]string, len(edges))
	for i, e := range edges {
		x[i] = fmt.Sprintf("%gs", e)
	}
	return x
}

// OccupancyHTML renders a page with two charts: distinct identities per
// segment stacked over time bins, and per-bin totals split into all and
// parked identities.
func OccupancyHTML(res occupancy.Result, o ChartOptions) ([]byte, error) {
	edges, grid := res.Grid()
	x := binLabels(edges)
	labels := res.Bounds.Labels()

	stacked := charts.NewBar()
	stacked.SetGlobalOptions(
		charts.WithInitializationOpts(o.init("480px")),
		charts.WithTitleOpts(opts.Title{
			Title:    "Distinct identities by segment",
			Subtitle: fmt.Sprintf("%d segments over x ∈ [%g, %g], %gs bins", res.Bounds.Count, res.Bounds.MinX, res.Bounds.MaxX, res.BinWidth),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "time bin"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "identities"}),
	)
	stacked.SetXAxis(x)
	for s, row := range grid {
		data := make([]opts.BarData, len(row))
		for i, v := range row {
			data[i] = opts.BarData{Value: v}
		}
		name := fmt.Sprintf("segment %d", s)
		if s < len(labels) {
			name = labels[s]
		}
		stacked.AddSeries(name, data, charts.WithBarChartOpts(opts.BarChart{Stack: "segments"}))
	}

	totals := charts.NewBar()
	totals.SetGlobalOptions(
		charts.WithInitializationOpts(o.init("360px")),
		charts.WithTitleOpts(opts.Title{
			Title:    "Per-bin totals",
			Subtitle: fmt.Sprintf("avg %.2f identities/bin, avg %.2f parked/bin", res.Averages.AvgDistinctPerBin, res.Averages.AvgParkedPerBin),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "time bin"}),
	)
	all := make([]opts.BarData, len(res.Bins))
	parked := make([]opts.BarData, len(res.Bins))
	for i, b := range res.Bins {
		all[i] = opts.BarData{Value: b.DistinctIdentities}
		parked[i] = opts.BarData{Value: b.DistinctParkedIdentities}
	}
	totals.SetXAxis(x).
		AddSeries("unique_ids", all, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"})).
		AddSeries("parked_ids", parked)

	page := components.NewPage()
	if o.AssetsHost != "" {
		page.SetAssetsHost(o.AssetsHost)
	}
	page.AddCharts(stacked, totals)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, fmt.Errorf("render occupancy chart: %w", err)
	}
	return buf.Bytes(), nil
}
