package config

import (
	"errors"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gpx_triptych/internal/viewport"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	r := cfg.Resolver()
	if r != viewport.DefaultResolver() {
		t.Errorf("Resolver = %+v", r)
	}
	if cfg.Jump != 1 || cfg.MapType != "hybrid" {
		t.Errorf("defaults jump=%d maptype=%s", cfg.Jump, cfg.MapType)
	}
}

func TestValidateMapType(t *testing.T) {
	cfg := Default()
	cfg.MapType = "sepia"
	err := cfg.Validate()
	if !errors.Is(err, viewport.ErrInvalidMapType) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "'sepia'") {
		t.Errorf("error should name the value: %v", err)
	}
}

func TestValidateRanges(t *testing.T) {
	tests := map[string]func(*Config){
		"zero width":       func(c *Config) { c.Width = 0 },
		"inverted zoom":    func(c *Config) { c.MinZoom, c.MaxZoom = 10, 5 },
		"negative jump":    func(c *Config) { c.Jump = -1 },
		"bad color":        func(c *Config) { c.TrailColor = "blue" },
		"bad log level":    func(c *Config) { c.LogLevel = "chatty" },
		"bad metrics addr": func(c *Config) { c.MetricsAddr = "nowhere" },
		"zero fps":         func(c *Config) { c.FPS = 0 },
	}
	for name, mutate := range tests {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, "maptype: terrain\nwidth: 640\njump: 0\nfilter_stationary: true\n")
	cfg := Default()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.MapType != "terrain" || cfg.Width != 640 || cfg.Jump != 0 || !cfg.FilterStationary {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Height != 600 || cfg.MaxZoom != 20 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadFileErrors(t *testing.T) {
	cfg := Default()
	if err := cfg.LoadFile(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("missing file should fail")
	}
	if err := cfg.LoadFile(writeConfig(t, "width: [1, 2]\n")); err == nil {
		t.Error("malformed file should fail")
	}
}

func TestParseFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "maptype: terrain\njump: 4\n")
	cfg, opts, err := Parse([]string{"-config", path, "-jump", "7", "-stats", "ride.gpx"}, io.Discard)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.MapType != "terrain" {
		t.Errorf("maptype %q should come from the file", cfg.MapType)
	}
	if cfg.Jump != 7 {
		t.Errorf("jump %d should come from the flag", cfg.Jump)
	}
	if !opts.Stats || opts.GpxFile != "ride.gpx" || opts.ConfigFile != path {
		t.Errorf("opts = %+v", opts)
	}
}

func TestParseRejects(t *testing.T) {
	if _, _, err := Parse([]string{"-maptype", "sepia", "ride.gpx"}, io.Discard); !errors.Is(err, viewport.ErrInvalidMapType) {
		t.Errorf("bad maptype: %v", err)
	}
	if _, _, err := Parse([]string{"-stats"}, io.Discard); err == nil {
		t.Error("missing gpx file should fail")
	}
}

func TestFindConfigFlag(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"-config", "a.yml", "x.gpx"}, "a.yml"},
		{[]string{"--config=b.yml"}, "b.yml"},
		{[]string{"-stats", "x.gpx"}, ""},
		{[]string{"--", "-config", "c.yml"}, ""},
	}
	for _, tt := range tests {
		if got := findConfigFlag(tt.args); got != tt.want {
			t.Errorf("findConfigFlag(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestColors(t *testing.T) {
	cfg := Default()
	cfg.TrailColor = "#102030"
	trail, marker, err := cfg.Colors()
	if err != nil {
		t.Fatalf("Colors: %v", err)
	}
	if trail != (color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 255}) {
		t.Errorf("trail = %v", trail)
	}
	if marker != (color.NRGBA{R: 0xFF, A: 255}) {
		t.Errorf("marker = %v", marker)
	}
}

func TestColorsAcceptEveryHexForm(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#F00", color.NRGBA{R: 0xFF, A: 0xFF}},
		{"#0f08", color.NRGBA{G: 0xFF, A: 0x88}},
		{"#1F77B4", color.NRGBA{R: 0x1F, G: 0x77, B: 0xB4, A: 0xFF}},
		{"#00ff0080", color.NRGBA{G: 0xFF, A: 0x80}},
	}
	for _, tt := range tests {
		cfg := Default()
		cfg.MarkerColor = tt.in
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate(%q): %v", tt.in, err)
			continue
		}
		_, marker, err := cfg.Colors()
		if err != nil {
			t.Errorf("Colors(%q): %v", tt.in, err)
			continue
		}
		if marker != tt.want {
			t.Errorf("Colors(%q) marker = %v, want %v", tt.in, marker, tt.want)
		}
	}
}

func TestColorsRejectMalformed(t *testing.T) {
	for _, in := range []string{"", "F00", "#12345", "#GGHHII"} {
		cfg := Default()
		cfg.TrailColor = in
		if _, _, err := cfg.Colors(); err == nil {
			t.Errorf("Colors(%q) accepted a malformed color", in)
		}
	}
}
