package track

import (
	"fmt"
	"strconv"
	"strings"
)

// BoundaryIndex resolves a boundary such as "90s" (elapsed seconds) or
// "2.5km" (distance) to the first point at or past it. An empty boundary
// returns def; a boundary past the end returns t.Len().
func (t *Track) BoundaryIndex(boundary string, def int) (int, error) {
	switch {
	case boundary == "":
		return def, nil
	case strings.HasSuffix(boundary, "km"):
		km, err := strconv.ParseFloat(strings.TrimSuffix(boundary, "km"), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid distance boundary %q: %w", boundary, err)
		}
		for i, p := range t.Points {
			if p.Distance >= km {
				return i, nil
			}
		}
		return t.Len(), nil
	case strings.HasSuffix(boundary, "s"):
		seconds, err := strconv.ParseFloat(strings.TrimSuffix(boundary, "s"), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid time boundary %q: %w", boundary, err)
		}
		for i, p := range t.Points {
			if p.Elapsed >= seconds {
				return i, nil
			}
		}
		return t.Len(), nil
	}
	return 0, fmt.Errorf("boundary %q needs an s or km suffix", boundary)
}

// Cut keeps the points in [from, to). Distance and elapsed time restart at
// the first kept point.
func (t *Track) Cut(from, to string) (*Track, error) {
	start, err := t.BoundaryIndex(from, 0)
	if err != nil {
		return nil, err
	}
	end, err := t.BoundaryIndex(to, t.Len())
	if err != nil {
		return nil, err
	}
	if start >= end {
		return nil, fmt.Errorf("cut %q..%q: %w", from, to, ErrEmptyTrack)
	}
	if start == 0 && end == t.Len() {
		return t, nil
	}

	origin := t.Points[start]
	kept := make([]TrackPoint, end-start)
	copy(kept, t.Points[start:end])
	for i := range kept {
		kept[i].Distance -= origin.Distance
		kept[i].Elapsed -= origin.Elapsed
	}
	kept[0].Delta = 0
	return fromPoints(t.Creator, kept, t.MissingSpeed)
}
