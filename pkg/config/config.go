// Package config holds the print settings. Every setting has a default;
// overrides come from "key=value" strings (long or short key, case
// insensitive) and from JSON files keyed by the long names.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/mesh"
)

// ErrUnknownKey is returned by Set for a key that names no setting.
var ErrUnknownKey = errors.New("config: unknown key")

// MaxExtruders is the number of extruders with a configurable offset.
const MaxExtruders = 4

// Config is the full set of print settings. Lengths are in micrometres,
// speeds in mm/s, times in seconds, fan speeds and flow in percent.
type Config struct {
	LayerThickness        int `json:"layerThickness"`
	InitialLayerThickness int `json:"initialLayerThickness"`
	FilamentDiameter      int `json:"filamentDiameter"`
	FilamentFlow          int `json:"filamentFlow"`
	ExtrusionWidth        int `json:"extrusionWidth"`
	InsetCount            int `json:"insetCount"`
	DownSkinCount         int `json:"downSkinCount"`
	UpSkinCount           int `json:"upSkinCount"`

	SparseInfillLineDistance int `json:"sparseInfillLineDistance"`
	InfillOverlap            int `json:"infillOverlap"`
	SkirtDistance            int `json:"skirtDistance"`
	SkirtLineCount           int `json:"skirtLineCount"`

	InitialSpeedupLayers int `json:"initialSpeedupLayers"`
	InitialLayerSpeed    int `json:"initialLayerSpeed"`
	PrintSpeed           int `json:"printSpeed"`
	InfillSpeed          int `json:"infillSpeed"`
	MoveSpeed            int `json:"moveSpeed"`
	FanOnLayerNr         int `json:"fanOnLayerNr"`

	SupportAngle      int `json:"supportAngle"`
	SupportEverywhere int `json:"supportEverywhere"`
	SupportLineWidth  int `json:"supportLineWidth"`

	RetractionAmount      int `json:"retractionAmount"`
	RetractionSpeed       int `json:"retractionSpeed"`
	RetractionMinDistance int `json:"retractionMinimalDistance"`

	ObjectPosition geom.Point `json:"objectPosition"`
	ObjectSink     int        `json:"objectSink"`

	RaftMargin             int `json:"raftMargin"`
	RaftLineSpacing        int `json:"raftLineSpacing"`
	RaftBaseThickness      int `json:"raftBaseThickness"`
	RaftBaseLinewidth      int `json:"raftBaseLinewidth"`
	RaftInterfaceThickness int `json:"raftInterfaceThickness"`
	RaftInterfaceLinewidth int `json:"raftInterfaceLinewidth"`

	MinimalLayerTime int `json:"minimalLayerTime"`
	MinimalFeedrate  int `json:"minimalFeedrate"`
	CoolHeadLift     int `json:"coolHeadLift"`
	FanSpeedMin      int `json:"fanSpeedMin"`
	FanSpeedMax      int `json:"fanSpeedMax"`

	ExtruderOffset [MaxExtruders]geom.Point `json:"extruderOffset"`
	Matrix         mesh.Matrix              `json:"matrix"`

	StartCode string `json:"startCode"`
	EndCode   string `json:"endCode"`
}

// DefaultStartCode heats the nozzle, homes and primes the extruder.
const DefaultStartCode = `M109 S210     ;Heatup to 210C
G21           ;metric values
G90           ;absolute positioning
G28           ;Home
G1 Z15.0 F300 ;move the platform down 15mm
G92 E0        ;zero the extruded length
G1 F200 E5    ;extrude 5mm of feed stock
G92 E0        ;zero the extruded length again
`

// DefaultEndCode turns the heaters off and parks the head.
const DefaultEndCode = `M104 S0                     ;extruder heater off
M140 S0                     ;heated bed heater off (if you have it)
G91                            ;relative positioning
G1 E-1 F300                    ;retract the filament a bit before lifting the nozzle
G1 Z+0.5 E-5 X-20 Y-20 F9000   ;move Z up a bit and retract filament even more
G28 X0 Y0                      ;move X/Y to min endstops, so the head is out of the way
M84                         ;steppers off
G90                         ;absolute positioning
`

// Default returns the stock settings.
func Default() *Config {
	c := &Config{
		LayerThickness:        100,
		InitialLayerThickness: 300,
		FilamentDiameter:      2890,
		FilamentFlow:          100,
		ExtrusionWidth:        400,
		InsetCount:            2,
		DownSkinCount:         6,
		UpSkinCount:           6,

		InfillOverlap:  15,
		SkirtDistance:  6000,
		SkirtLineCount: 1,

		InitialSpeedupLayers: 4,
		InitialLayerSpeed:    20,
		PrintSpeed:           50,
		InfillSpeed:          50,
		MoveSpeed:            200,
		FanOnLayerNr:         2,

		SupportAngle: -1,

		RetractionAmount:      4500,
		RetractionSpeed:       45,
		RetractionMinDistance: 1500,

		ObjectPosition: geom.Pt(102500, 102500),

		RaftMargin:      5000,
		RaftLineSpacing: 1000,

		MinimalLayerTime: 5,
		MinimalFeedrate:  10,
		CoolHeadLift:     1,
		FanSpeedMin:      100,
		FanSpeedMax:      100,

		Matrix: mesh.Identity(),

		StartCode: DefaultStartCode,
		EndCode:   DefaultEndCode,
	}
	c.SparseInfillLineDistance = 100 * c.ExtrusionWidth / 20
	c.SupportLineWidth = c.ExtrusionWidth
	return c
}

type setting struct {
	long, short string
	field       func(c *Config) *int
}

var settings = []setting{
	{"layerThickness", "lt", func(c *Config) *int { return &c.LayerThickness }},
	{"initialLayerThickness", "ilt", func(c *Config) *int { return &c.InitialLayerThickness }},
	{"filamentDiameter", "fd", func(c *Config) *int { return &c.FilamentDiameter }},
	{"filamentFlow", "ff", func(c *Config) *int { return &c.FilamentFlow }},
	{"extrusionWidth", "ew", func(c *Config) *int { return &c.ExtrusionWidth }},
	{"insetCount", "ic", func(c *Config) *int { return &c.InsetCount }},
	{"downSkinCount", "dsc", func(c *Config) *int { return &c.DownSkinCount }},
	{"upSkinCount", "usc", func(c *Config) *int { return &c.UpSkinCount }},
	{"sparseInfillLineDistance", "sild", func(c *Config) *int { return &c.SparseInfillLineDistance }},
	{"infillOverlap", "iover", func(c *Config) *int { return &c.InfillOverlap }},
	{"skirtDistance", "sd", func(c *Config) *int { return &c.SkirtDistance }},
	{"skirtLineCount", "slc", func(c *Config) *int { return &c.SkirtLineCount }},

	{"initialSpeedupLayers", "isl", func(c *Config) *int { return &c.InitialSpeedupLayers }},
	{"initialLayerSpeed", "ils", func(c *Config) *int { return &c.InitialLayerSpeed }},
	{"printSpeed", "ps", func(c *Config) *int { return &c.PrintSpeed }},
	{"infillSpeed", "is", func(c *Config) *int { return &c.InfillSpeed }},
	{"moveSpeed", "ms", func(c *Config) *int { return &c.MoveSpeed }},
	{"fanOnLayerNr", "fl", func(c *Config) *int { return &c.FanOnLayerNr }},

	{"supportAngle", "supa", func(c *Config) *int { return &c.SupportAngle }},
	{"supportEverywhere", "supe", func(c *Config) *int { return &c.SupportEverywhere }},
	{"supportLineWidth", "sulw", func(c *Config) *int { return &c.SupportLineWidth }},

	{"retractionAmount", "reta", func(c *Config) *int { return &c.RetractionAmount }},
	{"retractionSpeed", "rets", func(c *Config) *int { return &c.RetractionSpeed }},
	{"retractionMinimalDistance", "retmin", func(c *Config) *int { return &c.RetractionMinDistance }},
	{"objectSink", "objsink", func(c *Config) *int { return &c.ObjectSink }},

	{"raftMargin", "raftMar", func(c *Config) *int { return &c.RaftMargin }},
	{"raftLineSpacing", "raftLS", func(c *Config) *int { return &c.RaftLineSpacing }},
	{"raftBaseThickness", "raftBaseT", func(c *Config) *int { return &c.RaftBaseThickness }},
	{"raftBaseLinewidth", "raftBaseL", func(c *Config) *int { return &c.RaftBaseLinewidth }},
	{"raftInterfaceThickness", "raftInterfaceT", func(c *Config) *int { return &c.RaftInterfaceThickness }},
	{"raftInterfaceLinewidth", "raftInterfaceL", func(c *Config) *int { return &c.RaftInterfaceLinewidth }},

	{"minimalLayerTime", "minLayTime", func(c *Config) *int { return &c.MinimalLayerTime }},
	{"minimalFeedrate", "minFeed", func(c *Config) *int { return &c.MinimalFeedrate }},
	{"coolHeadLift", "coolLift", func(c *Config) *int { return &c.CoolHeadLift }},
	{"fanSpeedMin", "fanMin", func(c *Config) *int { return &c.FanSpeedMin }},
	{"fanSpeedMax", "fanMax", func(c *Config) *int { return &c.FanSpeedMax }},
}

type coordinate struct {
	long, short string
	field       func(c *Config) *int64
}

var coordinates = []coordinate{
	{"objectPosition.X", "posx", func(c *Config) *int64 { return &c.ObjectPosition.X }},
	{"objectPosition.Y", "posy", func(c *Config) *int64 { return &c.ObjectPosition.Y }},
	{"extruderOffset[1].X", "eOff1X", func(c *Config) *int64 { return &c.ExtruderOffset[1].X }},
	{"extruderOffset[1].Y", "eOff1Y", func(c *Config) *int64 { return &c.ExtruderOffset[1].Y }},
	{"extruderOffset[2].X", "eOff2X", func(c *Config) *int64 { return &c.ExtruderOffset[2].X }},
	{"extruderOffset[2].Y", "eOff2Y", func(c *Config) *int64 { return &c.ExtruderOffset[2].Y }},
	{"extruderOffset[3].X", "eOff3X", func(c *Config) *int64 { return &c.ExtruderOffset[3].X }},
	{"extruderOffset[3].Y", "eOff3Y", func(c *Config) *int64 { return &c.ExtruderOffset[3].Y }},
}

// Set applies one "key=value" override.
func (c *Config) Set(kv string) error {
	key, value, ok := strings.Cut(kv, "=")
	if !ok {
		return fmt.Errorf("config: %q is not key=value", kv)
	}
	key = strings.TrimSpace(key)
	switch {
	case strings.EqualFold(key, "startCode"):
		c.StartCode = value
		return nil
	case strings.EqualFold(key, "endCode"):
		c.EndCode = value
		return nil
	case strings.EqualFold(key, "matrix"):
		m, err := mesh.ParseMatrix(value)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		c.Matrix = m
		return nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	for _, s := range settings {
		if strings.EqualFold(key, s.long) || strings.EqualFold(key, s.short) {
			*s.field(c) = n
			return nil
		}
	}
	for _, co := range coordinates {
		if strings.EqualFold(key, co.long) || strings.EqualFold(key, co.short) {
			*co.field(c) = int64(n)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// Keys returns the long names of all numeric settings, sorted.
func Keys() []string {
	out := make([]string, 0, len(settings)+len(coordinates))
	for _, s := range settings {
		out = append(out, s.long)
	}
	for _, co := range coordinates {
		out = append(out, co.long)
	}
	sort.Strings(out)
	return out
}

// LoadFile applies the settings in a JSON file on top of c. Keys left out
// of the file keep their current values.
func (c *Config) LoadFile(path string) error {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	next := *c
	if err := json.Unmarshal(data, &next); err != nil {
		return fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	*c = next
	return nil
}

// Validate checks the settings the engine divides by or iterates over.
func (c *Config) Validate() error {
	positive := []struct {
		name string
		v    int
	}{
		{"layerThickness", c.LayerThickness},
		{"initialLayerThickness", c.InitialLayerThickness},
		{"filamentDiameter", c.FilamentDiameter},
		{"extrusionWidth", c.ExtrusionWidth},
		{"printSpeed", c.PrintSpeed},
		{"infillSpeed", c.InfillSpeed},
		{"moveSpeed", c.MoveSpeed},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", p.name, p.v)
		}
	}
	nonNegative := []struct {
		name string
		v    int
	}{
		{"filamentFlow", c.FilamentFlow},
		{"insetCount", c.InsetCount},
		{"downSkinCount", c.DownSkinCount},
		{"upSkinCount", c.UpSkinCount},
		{"sparseInfillLineDistance", c.SparseInfillLineDistance},
		{"skirtLineCount", c.SkirtLineCount},
		{"initialSpeedupLayers", c.InitialSpeedupLayers},
		{"retractionAmount", c.RetractionAmount},
		{"minimalLayerTime", c.MinimalLayerTime},
		{"minimalFeedrate", c.MinimalFeedrate},
		{"raftLineSpacing", c.RaftLineSpacing},
	}
	for _, p := range nonNegative {
		if p.v < 0 {
			return fmt.Errorf("%s must be non-negative, got %d", p.name, p.v)
		}
	}
	for _, fan := range []struct {
		name string
		v    int
	}{{"fanSpeedMin", c.FanSpeedMin}, {"fanSpeedMax", c.FanSpeedMax}} {
		if fan.v < 0 || fan.v > 100 {
			return fmt.Errorf("%s must be between 0 and 100, got %d", fan.name, fan.v)
		}
	}
	if c.RetractionAmount > 0 && c.RetractionSpeed <= 0 {
		return fmt.Errorf("retractionSpeed must be positive when retracting, got %d", c.RetractionSpeed)
	}
	return nil
}
