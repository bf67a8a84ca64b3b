// Package mercator converts between WGS84 coordinates, spherical mercator
// meters (EPSG:900913/3857) and pyramid pixel coordinates.
package mercator

import (
	"fmt"
	"math"
)

const (
	EarthRadius       = 6378137.0
	Circumference     = 2 * math.Pi * EarthRadius
	InitialResolution = Circumference / 256.0
	OriginShift       = Circumference / 2.0

	// MaxLatitude bounds the band where the forward projection stays finite.
	MaxLatitude = 85.05112878
)

// GeoPoint is a WGS84 coordinate in decimal degrees.
type GeoPoint struct {
	Lat float64
	Lon float64
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lon)
}

// Valid reports whether the point lies inside the WGS84 ranges.
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Clamp pulls the latitude into the projectable band.
func (p GeoPoint) Clamp() GeoPoint {
	p.Lat = math.Max(-MaxLatitude, math.Min(MaxLatitude, p.Lat))
	return p
}

// GeoToMeters projects lat/lon to spherical mercator meters.
func GeoToMeters(lat, lon float64) (float64, float64) {
	lat = math.Max(-MaxLatitude, math.Min(MaxLatitude, lat))
	mx := lon * OriginShift / 180.0
	my := math.Log(math.Tan((90+lat)*math.Pi/360.0)) / (math.Pi / 180.0)
	my = my * OriginShift / 180.0
	return mx, my
}

// Resolution is meters per pixel at the given zoom.
func Resolution(zoom int) float64 {
	return InitialResolution / math.Pow(2, float64(zoom))
}

// MetersToPixels converts mercator meters to pyramid pixels at zoom.
func MetersToPixels(mx, my float64, zoom int) (float64, float64) {
	res := Resolution(zoom)
	return (mx + OriginShift) / res, (my + OriginShift) / res
}

// PixelsToMeters is the inverse of MetersToPixels.
func PixelsToMeters(px, py float64, zoom int) (float64, float64) {
	res := Resolution(zoom)
	return px*res - OriginShift, py*res - OriginShift
}

// MetersToGeo converts mercator meters back to lat/lon.
func MetersToGeo(mx, my float64) (float64, float64) {
	lon := (mx / OriginShift) * 180.0
	lat := (my / OriginShift) * 180.0
	lat = 180 / math.Pi * (2*math.Atan(math.Exp(lat*math.Pi/180.0)) - math.Pi/2.0)
	return lat, lon
}

// GeoToPixels projects a point straight to pyramid pixels. The y axis grows
// northwards, as in the TMS pyramid.
func GeoToPixels(p GeoPoint, zoom int) (float64, float64) {
	mx, my := GeoToMeters(p.Lat, p.Lon)
	return MetersToPixels(mx, my, zoom)
}

// PixelsToGeo is the inverse of GeoToPixels.
func PixelsToGeo(px, py float64, zoom int) GeoPoint {
	mx, my := PixelsToMeters(px, py, zoom)
	lat, lon := MetersToGeo(mx, my)
	return GeoPoint{Lat: lat, Lon: lon}
}
