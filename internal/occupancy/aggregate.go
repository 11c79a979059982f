package occupancy

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/occupancy.report/internal/tracks"
)

// Options configures an aggregation run.
type Options struct {
	Segments int
	BinWidth float64
	// Bounds pins the segment range. When nil the range is taken from the
	// points being aggregated.
	Bounds *Bounds
}

// Cell is one (segment, time bin) aggregate.
type Cell struct {
	Segment                  int     `json:"-"`
	Label                    string  `json:"segment"`
	TimeBin                  float64 `json:"time_bin"`
	DistinctIdentities       int     `json:"unique_ids"`
	DistinctParkedIdentities int     `json:"parked_ids"`
}

// BinTotal counts distinct identities in a time bin across all segments.
type BinTotal struct {
	TimeBin                  float64 `json:"time_bin"`
	DistinctIdentities       int     `json:"unique_ids"`
	DistinctParkedIdentities int     `json:"parked_ids"`
}

// Averages summarises BinTotals over a run.
type Averages struct {
	// AvgDistinctPerBin is averaged over every bin with observations.
	AvgDistinctPerBin float64 `json:"avg_unique_ids_per_bin"`
	// AvgParkedPerBin is averaged over bins holding at least one parked
	// identity.
	AvgParkedPerBin float64 `json:"avg_parked_ids_per_bin"`
	BinCount        int     `json:"bin_count"`
	ParkedBinCount  int     `json:"parked_bin_count"`
}

// Result is the full output of one aggregation.
type Result struct {
	Bounds   Bounds     `json:"bounds"`
	BinWidth float64    `json:"time_bin_sec"`
	Cells    []Cell     `json:"cells"`
	Bins     []BinTotal `json:"bins"`
	Averages Averages   `json:"averages"`
}

type cellKey struct {
	segment int
	bin     float64
}

// idSets tracks distinct identities and the subset seen parked.
type idSets struct {
	all    map[int]struct{}
	parked map[int]struct{}
}

func newIDSets() *idSets {
	return &idSets{all: make(map[int]struct{}), parked: make(map[int]struct{})}
}

func (s *idSets) add(p tracks.Point) {
	s.all[p.Identity] = struct{}{}
	if p.Parked {
		s.parked[p.Identity] = struct{}{}
	}
}

// Aggregate groups points by (segment, time bin) and by time bin alone,
// counting distinct identities overall and among parked observations.
// Cells are sorted by segment then bin; bins by time. Points with a
// non-finite time or centroid are not counted.
func Aggregate(points []tracks.Point, opts Options) Result {
	bounds := BoundsFromPoints(points, opts.Segments)
	if opts.Bounds != nil {
		bounds = *opts.Bounds
		bounds.Count = opts.Segments
	}

	cells := make(map[cellKey]*idSets)
	bins := make(map[float64]*idSets)
	for _, p := range points {
		if !finite(p.TimeSec) || !finite(p.CX) {
			continue
		}
		bin := TimeBin(p.TimeSec, opts.BinWidth)
		k := cellKey{segment: bounds.Segment(p.CX), bin: bin}
		c, ok := cells[k]
		if !ok {
			c = newIDSets()
			cells[k] = c
		}
		c.add(p)
		b, ok := bins[bin]
		if !ok {
			b = newIDSets()
			bins[bin] = b
		}
		b.add(p)
	}

	res := Result{Bounds: bounds, BinWidth: opts.BinWidth}
	res.Cells = make([]Cell, 0, len(cells))
	for k, s := range cells {
		res.Cells = append(res.Cells, Cell{
			Segment:                  k.segment,
			Label:                    SegmentLabel(k.segment),
			TimeBin:                  k.bin,
			DistinctIdentities:       len(s.all),
			DistinctParkedIdentities: len(s.parked),
		})
	}
	sort.Slice(res.Cells, func(i, j int) bool {
		if res.Cells[i].Segment != res.Cells[j].Segment {
			return res.Cells[i].Segment < res.Cells[j].Segment
		}
		return res.Cells[i].TimeBin < res.Cells[j].TimeBin
	})

	res.Bins = make([]BinTotal, 0, len(bins))
	for bin, s := range bins {
		res.Bins = append(res.Bins, BinTotal{
			TimeBin:                  bin,
			DistinctIdentities:       len(s.all),
			DistinctParkedIdentities: len(s.parked),
		})
	}
	sort.Slice(res.Bins, func(i, j int) bool { return res.Bins[i].TimeBin < res.Bins[j].TimeBin })

	res.Averages = Average(res.Bins)
	return res
}

// Average computes per-bin means over the given totals.
func Average(bins []BinTotal) Averages {
	var all, parked []float64
	for _, b := range bins {
		all = append(all, float64(b.DistinctIdentities))
		if b.DistinctParkedIdentities > 0 {
			parked = append(parked, float64(b.DistinctParkedIdentities))
		}
	}
	avg := Averages{BinCount: len(all), ParkedBinCount: len(parked)}
	if len(all) > 0 {
		avg.AvgDistinctPerBin = stat.Mean(all, nil)
	}
	if len(parked) > 0 {
		avg.AvgParkedPerBin = stat.Mean(parked, nil)
	}
	return avg
}

// Grid returns a dense Segments × bins matrix of distinct identity counts,
// with the bin edges in ascending order. Cells with no observations are 0.
func (r Result) Grid() (binEdges []float64, counts [][]int) {
	binEdges = make([]float64, len(r.Bins))
	index := make(map[float64]int, len(r.Bins))
	for i, b := range r.Bins {
		binEdges[i] = b.TimeBin
		index[b.TimeBin] = i
	}
	counts = make([][]int, r.Bounds.Count)
	for s := range counts {
		counts[s] = make([]int, len(binEdges))
	}
	for _, c := range r.Cells {
		if c.Segment < len(counts) {
			counts[c.Segment][index[c.TimeBin]] = c.DistinctIdentities
		}
	}
	return binEdges, counts
}
