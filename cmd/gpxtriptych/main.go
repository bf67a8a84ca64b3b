// Command gpxtriptych draws a GPS track as three linked panels: elevation
// and speed against distance, and the route over a map. It prints track
// statistics, renders a static plot, or animates the track frame by frame.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"gpx_triptych/internal/animation"
	"gpx_triptych/internal/config"
	"gpx_triptych/internal/encode"
	"gpx_triptych/internal/gpxload"
	"gpx_triptych/internal/logging"
	"gpx_triptych/internal/metrics"
	"gpx_triptych/internal/pdfplot"
	"gpx_triptych/internal/render"
	"gpx_triptych/internal/staticmap"
	"gpx_triptych/internal/track"
	"gpx_triptych/internal/viewport"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("gpxtriptych failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, opts, err := config.Parse(args, stderr)
	if err != nil {
		return err
	}
	logging.Setup(stderr, cfg.LogLevel, cfg.LogFormat)
	if cfg.MetricsAddr != "" {
		metrics.Serve(ctx, cfg.MetricsAddr)
	}

	tr, err := loadTrack(cfg, opts)
	if err != nil {
		return err
	}
	if opts.Stats {
		fmt.Fprint(stdout, tr.Summary())
	}
	if opts.Plot == "" && opts.Output == "" {
		if !opts.Stats {
			return errors.New("nothing to do: give -stats, -plot or -o")
		}
		return nil
	}

	view, err := cfg.Resolver().Resolve(tr.Stats.BBox)
	if err != nil {
		return err
	}
	if view.Clamped {
		metrics.ViewportsClamped.Inc()
	}
	slog.Info("viewport resolved", "zoom", view.Zoom, "center", view.Center.String(), "clamped", view.Clamped)

	mapImg, err := fetchMap(ctx, cfg, view)
	if err != nil {
		return err
	}

	mapType, _ := viewport.ParseMapType(cfg.MapType)
	trail, marker, err := cfg.Colors()
	if err != nil {
		return err
	}

	if opts.Plot != "" {
		if err := writePlot(opts.Plot, tr, view, mapImg, cfg, mapType, trail, marker); err != nil {
			return err
		}
		slog.Info("plot saved", "path", opts.Plot)
	}
	if opts.Output == "" {
		return nil
	}

	r, err := render.New(tr, view, mapImg, render.Options{
		Width:       cfg.FigureWidth,
		Height:      cfg.FigureHeight,
		TrailColor:  trail,
		MarkerColor: marker,
		MapType:     mapType,
	})
	if err != nil {
		return err
	}

	stride := cfg.Jump
	if stride == 0 {
		stride = animation.StrideFor(tr.Len(), cfg.Seconds, cfg.FPS)
	}
	sched, err := animation.NewScheduler(tr.Len(), stride, render.Channels(tr))
	if err != nil {
		return err
	}
	slog.Info("animating", "points", tr.Len(), "stride", stride, "frames", sched.Ticks())

	sink, err := encode.Open(ctx, opts.Output, encode.SinkOptions{
		FPS:     cfg.FPS,
		Bitrate: cfg.Bitrate,
		Width:   cfg.FigureWidth,
		Height:  cfg.FigureHeight,
	})
	if err != nil {
		return err
	}
	p := &encode.Pipeline{
		Scheduler: sched,
		Renderer:  r,
		Sink:      sink,
		Workers:   cfg.Workers,
		Progress:  true,
	}
	if err := p.Run(ctx); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "\nAnimation saved to %s\n", opts.Output)
	return nil
}

func loadTrack(cfg *config.Config, opts *config.Options) (*track.Track, error) {
	res, err := gpxload.Load(opts.GpxFile)
	if err != nil {
		return nil, err
	}
	samples := res.Samples
	if cfg.DeriveSpeed {
		samples = track.DeriveSpeeds(samples)
	}

	tr, err := track.New(res.Creator, samples)
	if err != nil {
		return nil, err
	}
	if tr, err = tr.Cut(opts.From, opts.To); err != nil {
		return nil, err
	}
	if cfg.FilterStationary {
		if tr, err = tr.FilterStationary(); err != nil {
			return nil, err
		}
	}
	return tr.Smooth(cfg.SmoothWindow)
}

// fetchMap returns nil without an error when the map is disabled or cannot
// be downloaded; the panels are drawn over a blank background then. Only an
// invalid map type is fatal.
func fetchMap(ctx context.Context, cfg *config.Config, view viewport.Viewport) (image.Image, error) {
	req, err := viewport.NewTileRequest(view, cfg.MapType, cfg.APIKey)
	if err != nil {
		return nil, err
	}
	if cfg.NoMap {
		return nil, nil
	}

	client := staticmap.New(cfg.BaseURL, time.Duration(cfg.FetchTimeoutSeconds)*time.Second)
	var img image.Image
	if cfg.MapTiles > 1 {
		reqs, merr := viewport.Mosaic(view, req.MapType, cfg.APIKey, cfg.MapTiles, cfg.MapTiles)
		if merr != nil {
			return nil, merr
		}
		img, err = client.FetchMosaic(ctx, reqs)
	} else {
		img, err = client.Fetch(ctx, req)
	}
	if err != nil {
		slog.Warn("continuing without a map", "error", err)
		return nil, nil
	}
	return img, nil
}

func writePlot(path string, tr *track.Track, view viewport.Viewport, mapImg image.Image,
	cfg *config.Config, mapType viewport.MapType, trail, marker color.Color) error {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := pdfplot.Write(f, tr, view, mapImg, pdfplot.Options{TrailColor: trail, MarkerColor: marker, MapType: mapType}); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}

	r, err := render.New(tr, view, mapImg, render.Options{
		Width:       cfg.FigureWidth,
		Height:      cfg.FigureHeight,
		TrailColor:  trail,
		MarkerColor: marker,
		MapType:     mapType,
	})
	if err != nil {
		return err
	}
	return render.SavePNG(path, r.Plot())
}
