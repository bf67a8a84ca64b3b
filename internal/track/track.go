// Package track holds a GPS track and the statistics derived from it when it
// is built.
package track

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/skypies/geo"

	"gpx_triptych/internal/mercator"
)

var (
	ErrEmptyTrack    = errors.New("empty track")
	ErrTimeReversed  = errors.New("track time goes backwards")
	ErrInvalidSample = errors.New("invalid track sample")
)

// Sample is one ingested fix before accumulation.
type Sample struct {
	Lat, Lon  float64
	Elevation float64 // meters
	Speed     float64 // m/s, meaningful only when HasSpeed
	HasSpeed  bool
	Delta     float64 // seconds since the previous sample
}

// TrackPoint is a fix with its running totals.
type TrackPoint struct {
	mercator.GeoPoint
	Elevation float64 // meters
	Speed     float64 // m/s
	Distance  float64 // km from the first point
	Elapsed   float64 // seconds from the first point
	Delta     float64 // seconds since the previous point
}

// Track is an ordered, non-empty sequence of points. Build it with New and
// treat it as read-only.
type Track struct {
	Creator string
	Points  []TrackPoint
	Stats   Stats

	// MissingSpeed counts samples whose speed was absent and filled with 0.
	// Speed statistics are approximate when it is non-zero.
	MissingSpeed int
}

// New accumulates distance and elapsed time over the samples and caches the
// track statistics.
func New(creator string, samples []Sample) (*Track, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyTrack
	}

	t := &Track{Creator: creator, Points: make([]TrackPoint, len(samples))}
	for i, s := range samples {
		p := mercator.GeoPoint{Lat: s.Lat, Lon: s.Lon}
		if !p.Valid() {
			return nil, fmt.Errorf("%w: point %d at %s", ErrInvalidSample, i, p)
		}
		if s.Delta < 0 {
			return nil, fmt.Errorf("%w: point %d has delta %.3fs", ErrTimeReversed, i, s.Delta)
		}

		tp := TrackPoint{GeoPoint: p, Elevation: s.Elevation, Speed: s.Speed}
		if !s.HasSpeed {
			tp.Speed = 0
			t.MissingSpeed++
		}
		if i > 0 {
			prev := t.Points[i-1]
			tp.Delta = s.Delta
			tp.Distance = prev.Distance + haversineKM(prev.GeoPoint, p)
			tp.Elapsed = prev.Elapsed + s.Delta
		}
		t.Points[i] = tp
	}

	if t.MissingSpeed > 0 {
		slog.Warn("there is no speed data, filling with zeros",
			"missing", t.MissingSpeed, "points", len(samples))
	}

	t.Stats = computeStats(t.Points)
	return t, nil
}

// fromPoints rebuilds a track from already accumulated points.
func fromPoints(creator string, points []TrackPoint, missing int) (*Track, error) {
	if len(points) == 0 {
		return nil, ErrEmptyTrack
	}
	return &Track{Creator: creator, Points: points, Stats: computeStats(points), MissingSpeed: missing}, nil
}

func (t *Track) Len() int { return len(t.Points) }

// FilterStationary keeps only the points with nonzero speed, in order. The
// kept points keep their distance; elapsed time is re-accumulated from
// their own deltas so stops no longer count.
func (t *Track) FilterStationary() (*Track, error) {
	kept := make([]TrackPoint, 0, len(t.Points))
	for _, p := range t.Points {
		if p.Speed == 0 {
			continue
		}
		if len(kept) == 0 {
			p.Delta = 0
			p.Elapsed = 0
		} else {
			p.Elapsed = kept[len(kept)-1].Elapsed + p.Delta
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("filter stationary: %w", ErrEmptyTrack)
	}
	return fromPoints(t.Creator, kept, 0)
}

// Smooth returns a copy with elevation and speed replaced by a centred
// moving average over window points. A window below 2 returns t unchanged.
func (t *Track) Smooth(window int) (*Track, error) {
	if window < 2 {
		return t, nil
	}
	half := window / 2
	out := make([]TrackPoint, len(t.Points))
	copy(out, t.Points)

	for i := range out {
		lo := max(0, i-half)
		hi := min(len(t.Points)-1, i+half)

		var ele, speed float64
		for j := lo; j <= hi; j++ {
			ele += t.Points[j].Elevation
			speed += t.Points[j].Speed
		}
		n := float64(hi - lo + 1)
		out[i].Elevation = ele / n
		// zero stays zero so FilterStationary keeps working after smoothing
		if t.Points[i].Speed != 0 {
			out[i].Speed = speed / n
		}
	}
	return fromPoints(t.Creator, out, t.MissingSpeed)
}

// Summary renders the headline numbers, one per line.
func (t *Track) Summary() string {
	s := t.Stats
	var b strings.Builder
	fmt.Fprintf(&b, "Max altitude %.3f m\n", s.MaxElevation)
	fmt.Fprintf(&b, "Min altitude %.3f m\n", s.MinElevation)
	fmt.Fprintf(&b, "Total distance %.3f km\n", s.Distance)
	fmt.Fprintf(&b, "Max speed %.3f km/h\n", KMH(s.MaxSpeed))
	fmt.Fprintf(&b, "Mean speed %.3f km/h\n", KMH(s.MeanSpeed))
	fmt.Fprintf(&b, "Duration %s\n", FormatElapsed(s.Elapsed))
	if t.MissingSpeed > 0 {
		fmt.Fprintf(&b, "Speed missing on %d of %d points\n", t.MissingSpeed, t.Len())
	}
	return b.String()
}

func haversineKM(a, b mercator.GeoPoint) float64 {
	from := geo.Latlong{Lat: a.Lat, Long: a.Lon}
	return from.Dist(geo.Latlong{Lat: b.Lat, Long: b.Lon})
}

// KMH converts meters per second to kilometers per hour.
func KMH(ms float64) float64 { return ms * 3.6 }

// FormatElapsed renders seconds as H:MM.
func FormatElapsed(seconds float64) string {
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", total/3600, (total%3600)/60)
}
