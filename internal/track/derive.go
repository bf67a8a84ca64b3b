package track

import "gpx_triptych/internal/mercator"

// DeriveSpeeds fills in the speed of samples that have none from the
// distance covered over a centred five-sample window. Samples that already
// carry a speed are left alone. When the window spans no time the previous
// sample's speed is reused.
func DeriveSpeeds(samples []Sample) []Sample {
	out := make([]Sample, len(samples))
	copy(out, samples)
	if len(out) < 2 {
		return out
	}

	for i := range out {
		if out[i].HasSpeed {
			continue
		}
		windowStart := max(0, i-2)
		windowEnd := min(len(out)-1, i+2)

		var totalDist, totalTime float64
		for j := windowStart; j < windowEnd; j++ {
			a := mercator.GeoPoint{Lat: out[j].Lat, Lon: out[j].Lon}
			b := mercator.GeoPoint{Lat: out[j+1].Lat, Lon: out[j+1].Lon}
			totalDist += haversineKM(a, b)
			totalTime += out[j+1].Delta
		}

		switch {
		case totalTime > 0:
			out[i].Speed = totalDist * 1000 / totalTime
		case i > 0:
			out[i].Speed = out[i-1].Speed
		default:
			out[i].Speed = 0
		}
		out[i].HasSpeed = true
	}
	return out
}
