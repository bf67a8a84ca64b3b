// Package config is the configuration surface of the triptych renderer: a
// YAML file overlaid by command-line flags.
package config

import (
	"fmt"
	"image/color"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"gpx_triptych/internal/viewport"
)

type Config struct {
	// Map canvas
	Width   int    `yaml:"width" validate:"gt=0,lte=2048"`
	Height  int    `yaml:"height" validate:"gt=0,lte=2048"`
	MinZoom int    `yaml:"min_zoom" validate:"gte=0,lte=22"`
	MaxZoom int    `yaml:"max_zoom" validate:"gtefield=MinZoom,lte=22"`
	MapType string `yaml:"maptype" validate:"required"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`
	NoMap   bool   `yaml:"no_map"`

	// MapTiles is the side of the image grid fetched around the center.
	MapTiles int `yaml:"map_tiles" validate:"gte=1,lte=4"`

	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds" validate:"gt=0"`

	// Track preparation
	FilterStationary bool `yaml:"filter_stationary"`
	DeriveSpeed      bool `yaml:"derive_speed"`
	SmoothWindow     int  `yaml:"smooth_window" validate:"gte=0"`

	// Playback. Jump 0 picks a stride that plays the track in Seconds.
	Jump    int     `yaml:"jump" validate:"gte=0"`
	Seconds float64 `yaml:"seconds" validate:"gt=0"`
	FPS     float64 `yaml:"fps" validate:"gt=0"`

	// Output
	FigureWidth  int    `yaml:"figure_width" validate:"gte=320"`
	FigureHeight int    `yaml:"figure_height" validate:"gte=180"`
	TrailColor   string `yaml:"trail_color" validate:"hexcolor"`
	MarkerColor  string `yaml:"marker_color" validate:"hexcolor"`
	Workers      int    `yaml:"workers" validate:"gt=0"`
	Bitrate      string `yaml:"bitrate" validate:"required"`

	LogLevel    string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat   string `yaml:"log_format" validate:"omitempty,oneof=text json"`
	MetricsAddr string `yaml:"metrics_addr" validate:"omitempty,hostname_port"`
}

// Default carries the stated defaults: a 600x600 canvas, zoom searched over
// [1, 20], hybrid imagery and a stride of one sample.
func Default() Config {
	return Config{
		Width:               viewport.DefaultWidth,
		Height:              viewport.DefaultHeight,
		MinZoom:             viewport.DefaultMinZoom,
		MaxZoom:             viewport.DefaultMaxZoom,
		MapType:             string(viewport.Hybrid),
		BaseURL:             viewport.DefaultStaticMapURL,
		MapTiles:            1,
		FetchTimeoutSeconds: 10,
		Jump:                1,
		Seconds:             10,
		FPS:                 24,
		FigureWidth:         1920,
		FigureHeight:        1080,
		TrailColor:          "#1F77B4",
		MarkerColor:         "#FF0000",
		Workers:             runtime.NumCPU(),
		Bitrate:             "5M",
		LogLevel:            "info",
		LogFormat:           "text",
	}
}

// LoadFile overlays the YAML file at path on c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate fails on the first bad value. The map type is checked against
// the closed set first so the error lists the accepted names.
func (c *Config) Validate() error {
	if _, err := viewport.ParseMapType(c.MapType); err != nil {
		return err
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, _, err := c.Colors(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) Resolver() viewport.Resolver {
	return viewport.Resolver{Width: c.Width, Height: c.Height, MinZoom: c.MinZoom, MaxZoom: c.MaxZoom}
}

// Colors parses the trail and marker colors. Every form the hexcolor tag
// accepts is understood: #RGB, #RGBA, #RRGGBB and #RRGGBBAA.
func (c *Config) Colors() (trail, marker color.Color, err error) {
	if trail, err = parseHexColor(c.TrailColor); err != nil {
		return nil, nil, fmt.Errorf("trail_color: %w", err)
	}
	if marker, err = parseHexColor(c.MarkerColor); err != nil {
		return nil, nil, fmt.Errorf("marker_color: %w", err)
	}
	return trail, marker, nil
}

func parseHexColor(s string) (color.Color, error) {
	digits, ok := strings.CutPrefix(s, "#")
	if !ok {
		return nil, fmt.Errorf("%q is not a hex color", s)
	}
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("%q is not a hex color", s)
	}

	// short forms repeat each digit: F -> FF
	nibble := func(shift uint) uint8 { return uint8((v>>shift)&0xF) * 0x11 }
	octet := func(shift uint) uint8 { return uint8(v >> shift) }

	var r, g, b, a uint8
	switch len(digits) {
	case 3:
		r, g, b, a = nibble(8), nibble(4), nibble(0), 0xFF
	case 4:
		r, g, b, a = nibble(12), nibble(8), nibble(4), nibble(0)
	case 6:
		r, g, b, a = octet(16), octet(8), octet(0), 0xFF
	case 8:
		r, g, b, a = octet(24), octet(16), octet(8), octet(0)
	default:
		return nil, fmt.Errorf("%q is not a hex color", s)
	}
	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}
