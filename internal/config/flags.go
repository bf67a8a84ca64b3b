package config

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// Options are the per-invocation switches that never live in a config file.
type Options struct {
	ConfigFile string
	GpxFile    string
	Output     string
	Plot       string
	Stats      bool
	From, To   string
}

// Parse builds the configuration for one run: defaults, then the file named
// by -config, then every flag given on the command line.
func Parse(args []string, stderr io.Writer) (*Config, *Options, error) {
	cfg := Default()
	opts := &Options{ConfigFile: findConfigFlag(args)}
	if opts.ConfigFile != "" {
		if err := cfg.LoadFile(opts.ConfigFile); err != nil {
			return nil, nil, err
		}
	}

	fs := flag.NewFlagSet("gpxtriptych", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "gpxtriptych - elevation, speed and map triptych of a GPX track\n\n")
		fmt.Fprintf(stderr, "usage: gpxtriptych [options] track.gpx\n\n")
		fmt.Fprintf(stderr, "examples:\n")
		fmt.Fprintf(stderr, "  gpxtriptych -stats ride.gpx\n")
		fmt.Fprintf(stderr, "  gpxtriptych -plot ride.png -maptype terrain ride.gpx\n")
		fmt.Fprintf(stderr, "  gpxtriptych -o ride.mp4 -jump 10 ride.gpx\n\n")
		fmt.Fprintf(stderr, "options:\n")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.ConfigFile, "config", opts.ConfigFile, "YAML configuration file.")
	fs.StringVar(&opts.Output, "o", "", "Animation output: .mp4/.mov/.mkv via ffmpeg, .gif, or a directory name without an extension for PNG frames.")
	fs.StringVar(&opts.Plot, "plot", "", "Static triptych output (.png or .pdf).")
	fs.BoolVar(&opts.Stats, "stats", false, "Print track statistics.")
	fs.StringVar(&opts.From, "from", "", "Start of the rendered segment, e.g. 90s or 2.5km.")
	fs.StringVar(&opts.To, "to", "", "End of the rendered segment, e.g. 600s or 12km.")

	fs.IntVar(&cfg.Width, "width", cfg.Width, "Map image width in pixels.")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "Map image height in pixels.")
	fs.IntVar(&cfg.MinZoom, "min-zoom", cfg.MinZoom, "Lowest zoom level the viewport search may pick.")
	fs.IntVar(&cfg.MaxZoom, "max-zoom", cfg.MaxZoom, "Highest zoom level the viewport search may pick.")
	fs.StringVar(&cfg.MapType, "maptype", cfg.MapType, "Map type: roadmap, satellite, terrain or hybrid.")
	fs.StringVar(&cfg.APIKey, "api-key", cfg.APIKey, "Static map API key.")
	fs.StringVar(&cfg.BaseURL, "map-url", cfg.BaseURL, "Static map endpoint.")
	fs.BoolVar(&cfg.NoMap, "no-map", cfg.NoMap, "Skip the map image, draw the track on a blank panel.")
	fs.IntVar(&cfg.MapTiles, "map-tiles", cfg.MapTiles, "Fetch an NxN grid of map images around the center.")
	fs.IntVar(&cfg.FetchTimeoutSeconds, "fetch-timeout", cfg.FetchTimeoutSeconds, "Map fetch timeout in seconds.")

	fs.BoolVar(&cfg.FilterStationary, "filter-stationary", cfg.FilterStationary, "Drop points with zero speed before plotting.")
	fs.BoolVar(&cfg.DeriveSpeed, "derive-speed", cfg.DeriveSpeed, "Compute missing speeds from position and time.")
	fs.IntVar(&cfg.SmoothWindow, "smooth", cfg.SmoothWindow, "Moving average window for elevation and speed (0 disables).")

	fs.IntVar(&cfg.Jump, "jump", cfg.Jump, "Samples between animation frames (0: fit the track into -seconds).")
	fs.Float64Var(&cfg.Seconds, "seconds", cfg.Seconds, "Target animation length when -jump is 0.")
	fs.Float64Var(&cfg.FPS, "fps", cfg.FPS, "Animation frame rate.")

	fs.IntVar(&cfg.FigureWidth, "figure-width", cfg.FigureWidth, "Output image width in pixels.")
	fs.IntVar(&cfg.FigureHeight, "figure-height", cfg.FigureHeight, "Output image height in pixels.")
	fs.StringVar(&cfg.TrailColor, "trail-color", cfg.TrailColor, "Color of the trail line (hex).")
	fs.StringVar(&cfg.MarkerColor, "marker-color", cfg.MarkerColor, "Color of the current point marker (hex).")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Number of parallel workers for frame generation.")
	fs.StringVar(&cfg.Bitrate, "bitrate", cfg.Bitrate, "Video bitrate (e.g., 5M).")

	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error.")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text or json.")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Serve prometheus metrics on host:port while rendering.")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, nil, fmt.Errorf("expected one GPX file, got %d arguments", fs.NArg())
	}
	opts.GpxFile = fs.Arg(0)

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return &cfg, opts, nil
}

// findConfigFlag pulls -config out of args ahead of the real parse so the
// file can seed the flag defaults.
func findConfigFlag(args []string) string {
	for i, a := range args {
		if a == "--" {
			break
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if !strings.HasPrefix(a, "-") || name != "config" {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
