package config

import (
	"flag"
	"fmt"
	"sort"
	"strconv"
)

// usage documents every key that can be set from a command line.
var usage = map[string]string{
	"iou_threshold":    "minimum IoU for a true positive (default 0.5)",
	"class_aware":      "only match boxes of the same class (default false)",
	"park_window":      "rolling speed window in observations (default 10)",
	"park_threshold":   "smoothed speed below which an observation is parked (default 0.5)",
	"fps":              "frame rate used when the track table has no time_sec (default 30)",
	"speed_units":      "speed units in reports: px/frame or px/s (default px/frame)",
	"segments":         "number of horizontal segments (default 4)",
	"time_bin_sec":     "time bin width in seconds (default 5)",
	"segment_min_x":    "pin the left edge of the segment range",
	"segment_max_x":    "pin the right edge of the segment range",
	"min_track_points": "minimum observations for an exported track (default 2)",
	"geo_origin_lon":   "longitude of pixel (0,0) in point export (default -113.49)",
	"geo_origin_lat":   "latitude of pixel (0,0) in point export (default 53.54)",
	"geo_scale":        "degrees per pixel in point export (default 1e-5)",
	"workers":          "maximum concurrent frames or identities (default 4)",
}

// Keys returns every settable key in lexical order.
func Keys() []string {
	keys := make([]string, 0, len(usage))
	for k := range usage {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Overrides collects command-line settings so they can be applied after the
// config file, which is itself named on the command line, has been loaded.
type Overrides map[string]string

type overrideFlag struct {
	o   Overrides
	key string
}

func (f overrideFlag) String() string {
	if f.o == nil {
		return ""
	}
	return f.o[f.key]
}

func (f overrideFlag) Set(v string) error {
	if err := (&AnalysisConfig{}).Set(f.key, v); err != nil {
		return err
	}
	f.o[f.key] = v
	return nil
}

// IsBoolFlag lets boolean keys be given without a value.
func (f overrideFlag) IsBoolFlag() bool { return f.key == "class_aware" }

// Register adds one flag per key to fs. It panics on an unknown key.
func (o Overrides) Register(fs *flag.FlagSet, keys ...string) {
	for _, k := range keys {
		help, ok := usage[k]
		if !ok {
			panic("config: unknown key " + k)
		}
		fs.Var(overrideFlag{o: o, key: k}, k, help)
	}
}

// Apply sets every recorded override on c and validates the result.
func (o Overrides) Apply(c *AnalysisConfig) error {
	for _, k := range sortedKeys(o) {
		if err := c.Set(k, o[k]); err != nil {
			return err
		}
	}
	return c.Validate()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns one field from its string form.
func (c *AnalysisConfig) Set(key, value string) error {
	var err error
	setFloat := func(dst **float64) {
		var v float64
		if v, err = strconv.ParseFloat(value, 64); err == nil {
			*dst = &v
		}
	}
	setInt := func(dst **int) {
		var v int
		if v, err = strconv.Atoi(value); err == nil {
			*dst = &v
		}
	}

	switch key {
	case "iou_threshold":
		setFloat(&c.IoUThreshold)
	case "class_aware":
		var v bool
		if v, err = strconv.ParseBool(value); err == nil {
			c.ClassAware = &v
		}
	case "park_window":
		setInt(&c.ParkWindow)
	case "park_threshold":
		setFloat(&c.ParkThreshold)
	case "fps":
		setFloat(&c.FPS)
	case "speed_units":
		c.SpeedUnits = ptrString(value)
	case "segments":
		setInt(&c.Segments)
	case "time_bin_sec":
		setFloat(&c.TimeBinSec)
	case "segment_min_x":
		setFloat(&c.SegmentMinX)
	case "segment_max_x":
		setFloat(&c.SegmentMaxX)
	case "min_track_points":
		setInt(&c.MinTrackPoints)
	case "geo_origin_lon":
		setFloat(&c.GeoOriginLon)
	case "geo_origin_lat":
		setFloat(&c.GeoOriginLat)
	case "geo_scale":
		setFloat(&c.GeoScale)
	case "workers":
		setInt(&c.Workers)
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return nil
}

// LoadWithOverrides loads path, or the defaults when path is empty, then
// applies o on top.
func LoadWithOverrides(path string, o Overrides) (*AnalysisConfig, error) {
	cfg := DefaultAnalysisConfig()
	if path != "" {
		var err error
		if cfg, err = LoadAnalysisConfig(path); err != nil {
			return nil, err
		}
	}
	if err := o.Apply(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
