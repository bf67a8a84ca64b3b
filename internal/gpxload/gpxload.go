// Package gpxload turns a GPX file into track samples.
package gpxload

import (
	"fmt"
	"log/slog"

	"github.com/tkrajina/gpxgo/gpx"

	"gpx_triptych/internal/track"
)

// Result is the flattened content of one GPX file.
type Result struct {
	Creator string
	Samples []track.Sample
}

// Load reads every point of every segment of every track, in file order.
func Load(path string) (*Result, error) {
	gpxFile, err := gpx.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GPX file: %w", err)
	}
	return fromGPX(gpxFile), nil
}

func fromGPX(gpxFile *gpx.GPX) *Result {
	res := &Result{Creator: gpxFile.Creator}

	var hasEle []bool
	var prev *gpx.GPXPoint
	reversed := 0
	for ti := range gpxFile.Tracks {
		for si := range gpxFile.Tracks[ti].Segments {
			points := gpxFile.Tracks[ti].Segments[si].Points
			for pi := range points {
				p := &points[pi]
				s := track.Sample{Lat: p.Latitude, Lon: p.Longitude}
				if p.Elevation.NotNull() {
					s.Elevation = p.Elevation.Value()
				}
				if prev != nil && !prev.Timestamp.IsZero() && !p.Timestamp.IsZero() {
					s.Delta = p.Timestamp.Sub(prev.Timestamp).Seconds()
					if s.Delta < 0 {
						s.Delta = 0
						reversed++
					}
				}
				res.Samples = append(res.Samples, s)
				hasEle = append(hasEle, p.Elevation.NotNull())
				prev = p
			}
		}
	}

	if reversed > 0 {
		slog.Warn("timestamps go backwards, treating those steps as instantaneous", "points", reversed)
	}
	fillElevation(res.Samples, hasEle)
	return res
}

// fillElevation gives points without elevation the first known value
// before it starts, and the last known value after that.
func fillElevation(samples []track.Sample, hasEle []bool) {
	firstIdx := -1
	for i, ok := range hasEle {
		if ok {
			firstIdx = i
			break
		}
	}
	if firstIdx == -1 {
		return
	}

	last := samples[firstIdx].Elevation
	for i := range samples {
		if hasEle[i] {
			last = samples[i].Elevation
		} else {
			samples[i].Elevation = last
		}
	}
}
