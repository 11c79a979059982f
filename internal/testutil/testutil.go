// Package testutil provides shared test helpers and fixtures for packages
// above the analysis core.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/banshee-data/occupancy.report/internal/geom"
	"github.com/banshee-data/occupancy.report/internal/monitoring"
	"github.com/banshee-data/occupancy.report/internal/tracks"
)

// MuteLogs silences monitoring.Logf until the test ends.
func MuteLogs(t testing.TB) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })
}

// CaptureLogs records every formatted monitoring.Logf line until the test
// ends.
func CaptureLogs(t testing.TB) *[]string {
	t.Helper()
	var lines []string
	original := monitoring.Logf
	monitoring.SetLogger(func(format string, v ...any) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() { monitoring.Logf = original })
	return &lines
}

// Get serves a GET request for path through h.
func Get(t testing.TB, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

// Track returns n consecutive observations of one identity with a 2×2 box
// whose left edge starts at x0 and moves stepX per frame.
func Track(id, firstFrame, n int, x0, stepX float64) []tracks.Observation {
	obs := make([]tracks.Observation, n)
	for i := range obs {
		x := x0 + float64(i)*stepX
		obs[i] = tracks.Observation{
			Frame:    firstFrame + i,
			Identity: id,
			Box:      geom.Box{XMin: x, YMin: 0, XMax: x + 2, YMax: 2},
		}
	}
	return obs
}

// TrackCSV renders observations as a tracker table without time_sec.
func TrackCSV(obs []tracks.Observation) string {
	var b strings.Builder
	b.WriteString("frame,id,xmin,ymin,xmax,ymax\n")
	for _, o := range obs {
		fmt.Fprintf(&b, "%d,%d,%g,%g,%g,%g\n", o.Frame, o.Identity, o.Box.XMin, o.Box.YMin, o.Box.XMax, o.Box.YMax)
	}
	return b.String()
}
