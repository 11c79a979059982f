package tableio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/occupancy.report/internal/eval"
	"github.com/banshee-data/occupancy.report/internal/geom"
	"github.com/banshee-data/occupancy.report/internal/tracks"
)

// column is an accepted input column and the alternative spellings seen in
// the wild.
type column struct {
	name    string
	aliases []string
}

var (
	colFrame  = column{name: "frame"}
	colXMin   = column{name: "xmin"}
	colYMin   = column{name: "ymin"}
	colXMax   = column{name: "xmax"}
	colYMax   = column{name: "ymax"}
	colConf   = column{name: "conf", aliases: []string{"confidence"}}
	colClass  = column{name: "cls", aliases: []string{"class"}}
	colID     = column{name: "id", aliases: []string{"track_id"}}
	colTime   = column{name: "time_sec"}
	colParked = column{name: "is_parked"}
)

var boxColumns = []column{colXMin, colYMin, colXMax, colYMax}

// table is a parsed CSV with its header resolved to canonical names.
type table struct {
	name    string
	index   map[string]int
	records [][]string
}

func readTable(r io.Reader, name string, required, optional []column) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, &InputError{Table: name, Reason: fmt.Sprintf("invalid CSV: %v", err)}
	}
	if len(records) == 0 {
		return nil, &InputError{Table: name, Reason: "missing header row"}
	}

	seen := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := seen[h]; !dup {
			seen[h] = i
		}
	}

	t := &table{name: name, index: make(map[string]int), records: records[1:]}
	var missing []string
	for _, c := range required {
		if !t.resolve(seen, c) {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		return nil, missingColumns(name, missing)
	}
	for _, c := range optional {
		t.resolve(seen, c)
	}
	if len(t.records) == 0 {
		return nil, emptyTable(name)
	}
	return t, nil
}

func (t *table) resolve(header map[string]int, c column) bool {
	for _, n := range append([]string{c.name}, c.aliases...) {
		if i, ok := header[n]; ok {
			t.index[c.name] = i
			return true
		}
	}
	return false
}

func (t *table) has(c column) bool {
	_, ok := t.index[c.name]
	return ok
}

// rowReader parses typed cells from one record, keeping the first error.
type rowReader struct {
	t   *table
	rec []string
	row int
	err error
}

func (t *table) row(i int) *rowReader {
	return &rowReader{t: t, rec: t.records[i], row: i + 1}
}

func (r *rowReader) cell(c column) string {
	i, ok := r.t.index[c.name]
	if !ok || i >= len(r.rec) {
		return ""
	}
	return strings.TrimSpace(r.rec[i])
}

func (r *rowReader) float(c column) float64 {
	if r.err != nil {
		return 0
	}
	s := r.cell(c)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.err = badCell(r.t.name, c.name, r.row, err)
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		r.err = badValue(r.t.name, c.name, r.row, fmt.Sprintf("%s is not finite", s))
		return 0
	}
	return v
}

// floatIn reads a finite float and requires lo <= v <= hi.
func (r *rowReader) floatIn(c column, lo, hi float64) float64 {
	v := r.float(c)
	if r.err == nil && (v < lo || v > hi) {
		r.err = badValue(r.t.name, c.name, r.row, fmt.Sprintf("%g is outside [%g, %g]", v, lo, hi))
	}
	return v
}

// maxExactInt is the largest magnitude at which every integer is exactly
// representable as a float64.
const maxExactInt = 1 << 53

// int accepts integral floats such as "3.0", which pandas writes for
// integer columns that once held a NaN.
func (r *rowReader) int(c column) int {
	if r.err != nil {
		return 0
	}
	s := r.cell(c)
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	f, err := strconv.ParseFloat(s, 64)
	if err == nil && f != math.Trunc(f) {
		err = errors.New("not an integer")
	}
	if err != nil {
		r.err = badCell(r.t.name, c.name, r.row, err)
		return 0
	}
	if math.Abs(f) > maxExactInt {
		r.err = badValue(r.t.name, c.name, r.row, fmt.Sprintf("%s is out of range", s))
		return 0
	}
	return int(f)
}

func (r *rowReader) bool(c column) bool {
	if r.err != nil {
		return false
	}
	v, err := strconv.ParseBool(r.cell(c))
	if err != nil {
		r.err = badCell(r.t.name, c.name, r.row, err)
	}
	return v
}

func (r *rowReader) frame() int {
	f := r.int(colFrame)
	if r.err == nil && f < 1 {
		r.err = badCell(r.t.name, colFrame.name, r.row, fmt.Errorf("frame %d is not 1-based", f))
	}
	return f
}

func (r *rowReader) box() geom.Box {
	return geom.Box{
		XMin: r.float(colXMin),
		YMin: r.float(colYMin),
		XMax: r.float(colXMax),
		YMax: r.float(colYMax),
	}
}

func required(cols ...column) []column {
	return append(append([]column{colFrame}, boxColumns...), cols...)
}

// ReadDetections parses a predictions table with columns
// frame,xmin,ymin,xmax,ymax,conf,cls.
func ReadDetections(r io.Reader, name string) ([]eval.Detection, error) {
	t, err := readTable(r, name, required(colConf, colClass), nil)
	if err != nil {
		return nil, err
	}
	out := make([]eval.Detection, len(t.records))
	for i := range t.records {
		row := t.row(i)
		out[i] = eval.Detection{
			Frame:      row.frame(),
			Box:        row.box(),
			Confidence: row.floatIn(colConf, 0, 1),
			Class:      row.int(colClass),
		}
		if row.err != nil {
			return nil, row.err
		}
	}
	return out, nil
}

// ReadGroundTruth parses an annotation table with columns
// frame,xmin,ymin,xmax,ymax,cls.
func ReadGroundTruth(r io.Reader, name string) ([]eval.GroundTruthBox, error) {
	t, err := readTable(r, name, required(colClass), nil)
	if err != nil {
		return nil, err
	}
	out := make([]eval.GroundTruthBox, len(t.records))
	for i := range t.records {
		row := t.row(i)
		out[i] = eval.GroundTruthBox{
			Frame: row.frame(),
			Box:   row.box(),
			Class: row.int(colClass),
		}
		if row.err != nil {
			return nil, row.err
		}
	}
	return out, nil
}

// ReadObservations parses a tracker table with columns
// frame,id,xmin,ymin,xmax,ymax and an optional time_sec. Rows without
// time_sec are timed from their frame index at fps.
func ReadObservations(r io.Reader, name string, fps float64) ([]tracks.Observation, error) {
	t, err := readTable(r, name, required(colID), []column{colTime})
	if err != nil {
		return nil, err
	}
	timed := t.has(colTime)
	out := make([]tracks.Observation, len(t.records))
	for i := range t.records {
		row := t.row(i)
		o := tracks.Observation{
			Frame:    row.frame(),
			Identity: row.int(colID),
			Box:      row.box(),
		}
		if timed && row.cell(colTime) != "" {
			o.TimeSec = row.floatIn(colTime, 0, math.MaxFloat64)
		} else {
			o.TimeSec = tracks.TimeFromFrame(o.Frame, fps)
		}
		if row.err != nil {
			return nil, row.err
		}
		out[i] = o
	}
	return out, nil
}

// ReadEnriched parses a table previously written by WriteEnriched. An
// empty smoothed_speed cell means the smoothed value is absent.
func ReadEnriched(r io.Reader, name string) ([]tracks.Point, error) {
	derived := []column{
		colTime, {name: "cx"}, {name: "cy"}, {name: "dx"}, {name: "dy"},
		{name: "speed"}, {name: "smoothed_speed"}, colParked,
	}
	t, err := readTable(r, name, required(append([]column{colID}, derived...)...), nil)
	if err != nil {
		return nil, err
	}
	out := make([]tracks.Point, len(t.records))
	for i := range t.records {
		row := t.row(i)
		p := tracks.Point{
			Observation: tracks.Observation{
				Frame:    row.frame(),
				Identity: row.int(colID),
				TimeSec:  row.floatIn(colTime, 0, math.MaxFloat64),
				Box:      row.box(),
			},
			CX:    row.float(derived[1]),
			CY:    row.float(derived[2]),
			DX:    row.float(derived[3]),
			DY:    row.float(derived[4]),
			Speed: row.float(derived[5]),
		}
		if row.cell(derived[6]) != "" {
			p.SmoothedSpeed = row.float(derived[6])
			p.HasSmoothedSpeed = true
		}
		p.Parked = row.bool(colParked)
		if row.err != nil {
			return nil, row.err
		}
		out[i] = p
	}
	return out, nil
}
