package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FramesRendered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gpxtriptych",
		Subsystem: "render",
		Name:      "frames_total",
		Help:      "Animation frames rendered",
	})

	FrameRenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gpxtriptych",
		Subsystem: "render",
		Name:      "frame_duration_seconds",
		Help:      "Time to rasterise one animation frame",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})

	MapFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gpxtriptych",
		Subsystem: "map",
		Name:      "fetches_total",
		Help:      "Static map image requests by outcome",
	}, []string{"outcome"})

	ViewportsClamped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gpxtriptych",
		Subsystem: "viewport",
		Name:      "clamped_total",
		Help:      "Viewports that fell back to the lowest zoom without framing the track",
	})
)

// ObserveFrame records one rendered frame that started at start.
func ObserveFrame(start time.Time) {
	FramesRendered.Inc()
	FrameRenderDuration.Observe(time.Since(start).Seconds())
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	go func() {
		slog.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server stopped", "error", err)
		}
	}()
}
