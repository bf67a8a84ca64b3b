package track

import (
	"math"

	"gpx_triptych/internal/mercator"
)

// Stats are computed once when a Track is built.
type Stats struct {
	MinSpeed, MaxSpeed, MeanSpeed float64 // m/s
	MinElevation, MaxElevation    float64 // meters
	Distance                      float64 // km
	Elapsed                       float64 // seconds
	BBox                          mercator.BBox
	Center                        mercator.GeoPoint
}

// TotalTime is the elapsed time as H:MM.
func (s Stats) TotalTime() string { return FormatElapsed(s.Elapsed) }

// computeStats does a single pass; points must be non-empty.
func computeStats(points []TrackPoint) Stats {
	s := Stats{
		MinSpeed:     math.Inf(1),
		MaxSpeed:     math.Inf(-1),
		MinElevation: math.Inf(1),
		MaxElevation: math.Inf(-1),
	}
	var speedSum float64
	for _, p := range points {
		s.MinSpeed = math.Min(s.MinSpeed, p.Speed)
		s.MaxSpeed = math.Max(s.MaxSpeed, p.Speed)
		s.MinElevation = math.Min(s.MinElevation, p.Elevation)
		s.MaxElevation = math.Max(s.MaxElevation, p.Elevation)
		speedSum += p.Speed
		s.BBox = s.BBox.Extend(p.GeoPoint)
	}
	last := points[len(points)-1]
	s.MeanSpeed = speedSum / float64(len(points))
	s.Distance = last.Distance
	s.Elapsed = last.Elapsed
	s.Center = s.BBox.Center()
	return s
}

// --- Series ---

// The series below are built fresh on each call; callers that animate keep
// the returned slices and slice into them per frame.

func (t *Track) Distances() []float64 {
	return t.series(func(p TrackPoint) float64 { return p.Distance })
}

func (t *Track) Elevations() []float64 {
	return t.series(func(p TrackPoint) float64 { return p.Elevation })
}

// Speeds is in m/s.
func (t *Track) Speeds() []float64 {
	return t.series(func(p TrackPoint) float64 { return p.Speed })
}

func (t *Track) SpeedsKMH() []float64 {
	return t.series(func(p TrackPoint) float64 { return KMH(p.Speed) })
}

func (t *Track) Latitudes() []float64 {
	return t.series(func(p TrackPoint) float64 { return p.Lat })
}

func (t *Track) Longitudes() []float64 {
	return t.series(func(p TrackPoint) float64 { return p.Lon })
}

func (t *Track) ElapsedLabels() []string {
	out := make([]string, len(t.Points))
	for i, p := range t.Points {
		out[i] = FormatElapsed(p.Elapsed)
	}
	return out
}

func (t *Track) series(f func(TrackPoint) float64) []float64 {
	out := make([]float64, len(t.Points))
	for i, p := range t.Points {
		out[i] = f(p)
	}
	return out
}
