package mercator

import "math"

// BBox is a geographic bounding box. The zero value is empty; grow it with
// Extend.
type BBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
	set            bool
}

// NewBBox returns the smallest box holding every point.
func NewBBox(points ...GeoPoint) BBox {
	var b BBox
	for _, p := range points {
		b = b.Extend(p)
	}
	return b
}

func (b BBox) Extend(p GeoPoint) BBox {
	if !b.set {
		return BBox{MinLat: p.Lat, MaxLat: p.Lat, MinLon: p.Lon, MaxLon: p.Lon, set: true}
	}
	b.MinLat = math.Min(b.MinLat, p.Lat)
	b.MaxLat = math.Max(b.MaxLat, p.Lat)
	b.MinLon = math.Min(b.MinLon, p.Lon)
	b.MaxLon = math.Max(b.MaxLon, p.Lon)
	return b
}

func (b BBox) Empty() bool { return !b.set }

func (b BBox) LatSpan() float64 { return b.MaxLat - b.MinLat }
func (b BBox) LonSpan() float64 { return b.MaxLon - b.MinLon }

// Center is the midpoint of the lat and lon ranges, not a projected centroid.
func (b BBox) Center() GeoPoint {
	return GeoPoint{
		Lat: 0.5 * (b.MinLat + b.MaxLat),
		Lon: 0.5 * (b.MinLon + b.MaxLon),
	}
}

func (b BBox) Contains(p GeoPoint) bool {
	return b.set && p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}
