package tracks

import (
	"math"
	"sort"
	"sync"

	"github.com/banshee-data/occupancy.report/internal/geom"
)

// DefaultWorkers bounds concurrent identity processing when
// BuildOptions.Workers is not set.
const DefaultWorkers = 4

// BuildOptions configures trajectory derivation.
type BuildOptions struct {
	// Window is the trailing rolling-mean size W, in observations.
	Window int
	// Workers is the maximum number of identity groups processed at once.
	Workers int
}

// Build groups observations by identity, orders each group by frame and
// derives centroid, displacement, speed and rolling-mean speed. The result is
// ordered by identity, then frame. Parked is left unset; see Classify.
func Build(obs []Observation, opts BuildOptions) []Point {
	groups := GroupByIdentity(obs)
	ids := make([]int, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	derived := make([][]Point, len(ids))
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer func() {
				<-sem
				wg.Done()
			}()
			derived[i] = buildGroup(groups[id], opts.Window)
		}()
	}
	wg.Wait()

	out := make([]Point, 0, len(obs))
	for _, pts := range derived {
		out = append(out, pts...)
	}
	return out
}

// GroupByIdentity splits observations per identity, each group stable-sorted
// by ascending frame. Rows sharing a frame keep their input order.
func GroupByIdentity(obs []Observation) map[int][]Observation {
	groups := make(map[int][]Observation)
	for _, o := range obs {
		groups[o.Identity] = append(groups[o.Identity], o)
	}
	for _, g := range groups {
		sort.SliceStable(g, func(i, j int) bool { return g[i].Frame < g[j].Frame })
	}
	return groups
}

// buildGroup derives kinematics for one identity's frame-ordered sequence.
func buildGroup(seq []Observation, window int) []Point {
	out := make([]Point, len(seq))
	w := newSpeedWindow(window)
	for i, o := range seq {
		cx, cy := geom.Centroid(o.Box)
		p := Point{Observation: o, CX: cx, CY: cy}
		if i > 0 {
			p.DX = cx - out[i-1].CX
			p.DY = cy - out[i-1].CY
		}
		p.Speed = math.Hypot(p.DX, p.DY)

		w.push(p.Speed)
		p.SmoothedSpeed, p.HasSmoothedSpeed = w.mean()
		out[i] = p
	}
	return out
}

// FirstSeenByIdentity returns the earliest frame and time of every identity,
// ordered by identity.
func FirstSeenByIdentity(points []Point) []FirstSeen {
	first := make(map[int]*FirstSeen)
	for _, p := range points {
		fs, ok := first[p.Identity]
		if !ok {
			first[p.Identity] = &FirstSeen{Identity: p.Identity, FirstFrame: p.Frame, FirstTimeSec: p.TimeSec}
			continue
		}
		fs.FirstFrame = min(fs.FirstFrame, p.Frame)
		fs.FirstTimeSec = math.Min(fs.FirstTimeSec, p.TimeSec)
	}

	out := make([]FirstSeen, 0, len(first))
	for _, fs := range first {
		out = append(out, *fs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identity < out[j].Identity })
	return out
}
