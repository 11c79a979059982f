package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/occupancy.report/internal/units"
)

// AnalysisConfig holds every tunable of an evaluation or trajectory run.
// Fields are pointers so a partial file only overrides what it names; the
// Get* methods supply defaults for the rest.
type AnalysisConfig struct {
	// Evaluation
	IoUThreshold *float64 `json:"iou_threshold,omitempty" yaml:"iou_threshold,omitempty"`
	ClassAware   *bool    `json:"class_aware,omitempty" yaml:"class_aware,omitempty"`

	// Trajectory and motion
	ParkWindow    *int     `json:"park_window,omitempty" yaml:"park_window,omitempty"`
	ParkThreshold *float64 `json:"park_threshold,omitempty" yaml:"park_threshold,omitempty"`
	FPS           *float64 `json:"fps,omitempty" yaml:"fps,omitempty"`
	SpeedUnits    *string  `json:"speed_units,omitempty" yaml:"speed_units,omitempty"`

	// Occupancy
	Segments    *int     `json:"segments,omitempty" yaml:"segments,omitempty"`
	TimeBinSec  *float64 `json:"time_bin_sec,omitempty" yaml:"time_bin_sec,omitempty"`
	SegmentMinX *float64 `json:"segment_min_x,omitempty" yaml:"segment_min_x,omitempty"`
	SegmentMaxX *float64 `json:"segment_max_x,omitempty" yaml:"segment_max_x,omitempty"`

	// Export
	MinTrackPoints *int     `json:"min_track_points,omitempty" yaml:"min_track_points,omitempty"`
	GeoOriginLon   *float64 `json:"geo_origin_lon,omitempty" yaml:"geo_origin_lon,omitempty"`
	GeoOriginLat   *float64 `json:"geo_origin_lat,omitempty" yaml:"geo_origin_lat,omitempty"`
	GeoScale       *float64 `json:"geo_scale,omitempty" yaml:"geo_scale,omitempty"`

	Workers *int `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// Defaults.
const (
	DefaultIoUThreshold   = 0.5
	DefaultParkWindow     = 10
	DefaultParkThreshold  = 0.5
	DefaultFPS            = 30.0
	DefaultSegments       = 4
	DefaultTimeBinSec     = 5.0
	DefaultMinTrackPoints = 2
	DefaultGeoOriginLon   = -113.49
	DefaultGeoOriginLat   = 53.54
	DefaultGeoScale       = 1e-5
	DefaultWorkers        = 4
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// DefaultAnalysisConfig returns a config with every field set to its default.
// The segment range is left unset so it is taken from the data.
func DefaultAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		IoUThreshold:   ptrFloat64(DefaultIoUThreshold),
		ClassAware:     ptrBool(false),
		ParkWindow:     ptrInt(DefaultParkWindow),
		ParkThreshold:  ptrFloat64(DefaultParkThreshold),
		FPS:            ptrFloat64(DefaultFPS),
		SpeedUnits:     ptrString(units.PxPerFrame),
		Segments:       ptrInt(DefaultSegments),
		TimeBinSec:     ptrFloat64(DefaultTimeBinSec),
		MinTrackPoints: ptrInt(DefaultMinTrackPoints),
		GeoOriginLon:   ptrFloat64(DefaultGeoOriginLon),
		GeoOriginLat:   ptrFloat64(DefaultGeoOriginLat),
		GeoScale:       ptrFloat64(DefaultGeoScale),
		Workers:        ptrInt(DefaultWorkers),
	}
}

// LoadAnalysisConfig loads an AnalysisConfig from a .json, .yaml or .yml
// file no larger than 1MB. Fields omitted from the file fall back to
// defaults through the Get* methods.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &AnalysisConfig{}
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", ext, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *AnalysisConfig) Validate() error {
	if v := c.GetIoUThreshold(); v < 0 || v > 1 || math.IsNaN(v) {
		return fmt.Errorf("iou_threshold must be between 0 and 1, got %f", v)
	}
	if v := c.GetParkWindow(); v < 2 {
		return fmt.Errorf("park_window must be at least 2, got %d", v)
	}
	if v := c.GetParkThreshold(); v < 0 || math.IsNaN(v) {
		return fmt.Errorf("park_threshold must be non-negative, got %f", v)
	}
	if v := c.GetFPS(); !(v > 0) {
		return fmt.Errorf("fps must be positive, got %f", v)
	}
	if v := c.GetSpeedUnits(); !units.IsValid(v) {
		return fmt.Errorf("speed_units must be one of %s, got %q", units.GetValidUnitsString(), v)
	}
	if v := c.GetSegments(); v < 1 {
		return fmt.Errorf("segments must be at least 1, got %d", v)
	}
	if v := c.GetTimeBinSec(); !(v > 0) {
		return fmt.Errorf("time_bin_sec must be positive, got %f", v)
	}
	if (c.SegmentMinX == nil) != (c.SegmentMaxX == nil) {
		return fmt.Errorf("segment_min_x and segment_max_x must be set together")
	}
	if c.SegmentMinX != nil && *c.SegmentMinX > *c.SegmentMaxX {
		return fmt.Errorf("segment_min_x %f exceeds segment_max_x %f", *c.SegmentMinX, *c.SegmentMaxX)
	}
	if v := c.GetMinTrackPoints(); v < 1 {
		return fmt.Errorf("min_track_points must be at least 1, got %d", v)
	}
	if v := c.GetGeoOriginLon(); v < -180 || v > 180 {
		return fmt.Errorf("geo_origin_lon must be between -180 and 180, got %f", v)
	}
	if v := c.GetGeoOriginLat(); v < -90 || v > 90 {
		return fmt.Errorf("geo_origin_lat must be between -90 and 90, got %f", v)
	}
	if v := c.GetGeoScale(); !(v > 0) {
		return fmt.Errorf("geo_scale must be positive, got %g", v)
	}
	if v := c.GetWorkers(); v < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", v)
	}
	return nil
}

// Resolved returns a copy with every defaulted field filled in, suitable for
// recording alongside run outputs.
func (c *AnalysisConfig) Resolved() *AnalysisConfig {
	r := &AnalysisConfig{
		IoUThreshold:   ptrFloat64(c.GetIoUThreshold()),
		ClassAware:     ptrBool(c.GetClassAware()),
		ParkWindow:     ptrInt(c.GetParkWindow()),
		ParkThreshold:  ptrFloat64(c.GetParkThreshold()),
		FPS:            ptrFloat64(c.GetFPS()),
		SpeedUnits:     ptrString(c.GetSpeedUnits()),
		Segments:       ptrInt(c.GetSegments()),
		TimeBinSec:     ptrFloat64(c.GetTimeBinSec()),
		MinTrackPoints: ptrInt(c.GetMinTrackPoints()),
		GeoOriginLon:   ptrFloat64(c.GetGeoOriginLon()),
		GeoOriginLat:   ptrFloat64(c.GetGeoOriginLat()),
		GeoScale:       ptrFloat64(c.GetGeoScale()),
		Workers:        ptrInt(c.GetWorkers()),
	}
	if lo, hi, ok := c.GetSegmentRange(); ok {
		r.SegmentMinX, r.SegmentMaxX = ptrFloat64(lo), ptrFloat64(hi)
	}
	return r
}

// GetIoUThreshold returns the iou_threshold value or the default.
func (c *AnalysisConfig) GetIoUThreshold() float64 {
	if c.IoUThreshold == nil {
		return DefaultIoUThreshold
	}
	return *c.IoUThreshold
}

// GetClassAware returns the class_aware value or the default.
func (c *AnalysisConfig) GetClassAware() bool {
	if c.ClassAware == nil {
		return false
	}
	return *c.ClassAware
}

// GetParkWindow returns the park_window value or the default.
func (c *AnalysisConfig) GetParkWindow() int {
	if c.ParkWindow == nil {
		return DefaultParkWindow
	}
	return *c.ParkWindow
}

// GetParkThreshold returns the park_threshold value or the default.
func (c *AnalysisConfig) GetParkThreshold() float64 {
	if c.ParkThreshold == nil {
		return DefaultParkThreshold
	}
	return *c.ParkThreshold
}

// GetFPS returns the fps value or the default.
func (c *AnalysisConfig) GetFPS() float64 {
	if c.FPS == nil {
		return DefaultFPS
	}
	return *c.FPS
}

// GetSpeedUnits returns the speed_units value or the default.
func (c *AnalysisConfig) GetSpeedUnits() string {
	if c.SpeedUnits == nil {
		return units.PxPerFrame
	}
	return *c.SpeedUnits
}

// GetSegments returns the segments value or the default.
func (c *AnalysisConfig) GetSegments() int {
	if c.Segments == nil {
		return DefaultSegments
	}
	return *c.Segments
}

// GetTimeBinSec returns the time_bin_sec value or the default.
func (c *AnalysisConfig) GetTimeBinSec() float64 {
	if c.TimeBinSec == nil {
		return DefaultTimeBinSec
	}
	return *c.TimeBinSec
}

// GetSegmentRange returns the pinned segment range, if both ends are set.
func (c *AnalysisConfig) GetSegmentRange() (minX, maxX float64, ok bool) {
	if c.SegmentMinX == nil || c.SegmentMaxX == nil {
		return 0, 0, false
	}
	return *c.SegmentMinX, *c.SegmentMaxX, true
}

// GetMinTrackPoints returns the min_track_points value or the default.
func (c *AnalysisConfig) GetMinTrackPoints() int {
	if c.MinTrackPoints == nil {
		return DefaultMinTrackPoints
	}
	return *c.MinTrackPoints
}

// GetGeoOriginLon returns the geo_origin_lon value or the default.
func (c *AnalysisConfig) GetGeoOriginLon() float64 {
	if c.GeoOriginLon == nil {
		return DefaultGeoOriginLon
	}
	return *c.GeoOriginLon
}

// GetGeoOriginLat returns the geo_origin_lat value or the default.
func (c *AnalysisConfig) GetGeoOriginLat() float64 {
	if c.GeoOriginLat == nil {
		return DefaultGeoOriginLat
	}
	return *c.GeoOriginLat
}

// GetGeoScale returns the geo_scale value or the default.
func (c *AnalysisConfig) GetGeoScale() float64 {
	if c.GeoScale == nil {
		return DefaultGeoScale
	}
	return *c.GeoScale
}

// GetWorkers returns the workers value or the default.
func (c *AnalysisConfig) GetWorkers() int {
	if c.Workers == nil {
		return DefaultWorkers
	}
	return *c.Workers
}
