// Package report renders occupancy and speed summaries for humans: an HTML
// chart page built with go-echarts and a PNG speed profile built with
// gonum/plot. Rendering happens in memory; callers decide where bytes go.
package report
