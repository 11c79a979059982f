package tableio

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/banshee-data/occupancy.report/internal/occupancy"
	"github.com/banshee-data/occupancy.report/internal/tracks"
)

// EnrichedHeader is the column order of the enriched observation table.
var EnrichedHeader = []string{
	"frame", "id", "xmin", "ymin", "xmax", "ymax",
	"time_sec", "cx", "cy", "dx", "dy", "speed", "smoothed_speed", "is_parked",
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func writeAll(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteEnriched writes one row per point. An absent smoothed speed is an
// empty cell, never zero.
func WriteEnriched(w io.Writer, points []tracks.Point) error {
	rows := make([][]string, len(points))
	for i, p := range points {
		smoothed := ""
		if v, ok := p.Smoothed(); ok {
			smoothed = ftoa(v)
		}
		rows[i] = []string{
			strconv.Itoa(p.Frame), strconv.Itoa(p.Identity),
			ftoa(p.Box.XMin), ftoa(p.Box.YMin), ftoa(p.Box.XMax), ftoa(p.Box.YMax),
			ftoa(p.TimeSec), ftoa(p.CX), ftoa(p.CY), ftoa(p.DX), ftoa(p.DY),
			ftoa(p.Speed), smoothed, strconv.FormatBool(p.Parked),
		}
	}
	return writeAll(w, EnrichedHeader, rows)
}

// WriteFirstSeen writes the first-seen table.
func WriteFirstSeen(w io.Writer, first []tracks.FirstSeen) error {
	rows := make([][]string, len(first))
	for i, f := range first {
		rows[i] = []string{strconv.Itoa(f.Identity), strconv.Itoa(f.FirstFrame), ftoa(f.FirstTimeSec)}
	}
	return writeAll(w, []string{"id", "first_frame", "first_time_sec"}, rows)
}

// WriteCells writes the (segment, time bin) occupancy table.
func WriteCells(w io.Writer, cells []occupancy.Cell) error {
	rows := make([][]string, len(cells))
	for i, c := range cells {
		rows[i] = []string{
			c.Label, ftoa(c.TimeBin),
			strconv.Itoa(c.DistinctIdentities), strconv.Itoa(c.DistinctParkedIdentities),
		}
	}
	return writeAll(w, []string{"segment", "time_bin", "unique_ids", "parked_ids"}, rows)
}

// WriteBins writes the per-bin totals table.
func WriteBins(w io.Writer, bins []occupancy.BinTotal) error {
	rows := make([][]string, len(bins))
	for i, b := range bins {
		rows[i] = []string{
			ftoa(b.TimeBin), strconv.Itoa(b.DistinctIdentities), strconv.Itoa(b.DistinctParkedIdentities),
		}
	}
	return writeAll(w, []string{"time_bin", "unique_ids", "parked_ids"}, rows)
}
