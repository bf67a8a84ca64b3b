package render

import (
	"fmt"

	"gpx_triptych/internal/animation"
	"gpx_triptych/internal/track"
)

const (
	ChannelElevation = "elevation"
	ChannelSpeed     = "speed"
	ChannelMap       = "map"
)

// Channels builds the three animated series of the triptych. Speed labels
// are blank when the track carries no speed at all.
func Channels(t *track.Track) []animation.Channel {
	dist := t.Distances()
	ele := t.Elevations()
	speed := t.SpeedsKMH()

	eleLabels := make([]string, t.Len())
	speedLabels := make([]string, t.Len())
	for i := range t.Points {
		eleLabels[i] = fmt.Sprintf("%.1f", ele[i])
		if t.Stats.MaxSpeed > 0 {
			speedLabels[i] = fmt.Sprintf("%.1f", speed[i])
		}
	}

	return []animation.Channel{
		{Name: ChannelElevation, X: dist, Y: ele, Labels: eleLabels},
		{Name: ChannelSpeed, X: dist, Y: speed, Labels: speedLabels},
		{Name: ChannelMap, X: t.Longitudes(), Y: t.Latitudes(), Labels: t.ElapsedLabels()},
	}
}
