// Package viewport picks the zoom level that frames a track on a fixed-size
// map canvas and describes the resulting map window.
package viewport

import (
	"errors"
	"fmt"
	"log/slog"

	"gpx_triptych/internal/mercator"
)

const (
	DefaultWidth   = 600
	DefaultHeight  = 600
	DefaultMinZoom = 1
	DefaultMaxZoom = 20
)

var ErrInvalidResolver = errors.New("invalid viewport resolver")

// Viewport is the map window for one canvas. It is a value: anything that
// changes center, zoom or size goes through a Resolver again.
type Viewport struct {
	Center     mercator.GeoPoint
	Zoom       int
	Width      int
	Height     int
	Resolution float64 // meters per pixel
	UpperLeft  mercator.GeoPoint
	LowerRight mercator.GeoPoint

	// Clamped is set when no zoom in range could frame the box and the
	// most zoomed-out candidate was kept.
	Clamped bool
}

func (v Viewport) LonSpan() float64 { return v.LowerRight.Lon - v.UpperLeft.Lon }
func (v Viewport) LatSpan() float64 { return v.UpperLeft.Lat - v.LowerRight.Lat }

// Extent returns the axis limits of the map panel.
func (v Viewport) Extent() (minLon, maxLon, minLat, maxLat float64) {
	return v.UpperLeft.Lon, v.LowerRight.Lon, v.LowerRight.Lat, v.UpperLeft.Lat
}

// Project maps a coordinate to canvas pixels, x to the right and y down,
// with the viewport center at the middle of the canvas.
func (v Viewport) Project(p mercator.GeoPoint) (float64, float64) {
	cx, cy := mercator.GeoToPixels(v.Center, v.Zoom)
	px, py := mercator.GeoToPixels(p, v.Zoom)
	return float64(v.Width)/2 + (px - cx), float64(v.Height)/2 - (py - cy)
}

// Fits reports whether the viewport spans at least the box in both axes.
func (v Viewport) Fits(b mercator.BBox) bool {
	return v.LonSpan() >= b.LonSpan() && v.LatSpan() >= b.LatSpan()
}

func (v Viewport) String() string {
	return fmt.Sprintf("center=%s zoom=%d size=%dx%d ul=%s lr=%s", v.Center, v.Zoom, v.Width, v.Height, v.UpperLeft, v.LowerRight)
}

// Resolver searches zoom levels for a canvas of fixed pixel size.
type Resolver struct {
	Width   int
	Height  int
	MinZoom int
	MaxZoom int
}

func DefaultResolver() Resolver {
	return Resolver{Width: DefaultWidth, Height: DefaultHeight, MinZoom: DefaultMinZoom, MaxZoom: DefaultMaxZoom}
}

func (r Resolver) validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: pixel size %dx%d", ErrInvalidResolver, r.Width, r.Height)
	}
	if r.MinZoom < 0 || r.MaxZoom < r.MinZoom {
		return fmt.Errorf("%w: zoom range [%d, %d]", ErrInvalidResolver, r.MinZoom, r.MaxZoom)
	}
	return nil
}

// Corners returns the geographic upper-left and lower-right corners of a
// canvas centred on center at zoom.
func (r Resolver) Corners(center mercator.GeoPoint, zoom int) (upperLeft, lowerRight mercator.GeoPoint) {
	cpx, cpy := mercator.GeoToPixels(center.Clamp(), zoom)
	halfW, halfH := float64(r.Width)*0.5, float64(r.Height)*0.5

	upperLeft = mercator.PixelsToGeo(cpx-halfW, cpy+halfH, zoom)
	lowerRight = mercator.PixelsToGeo(cpx+halfW, cpy-halfH, zoom)
	return upperLeft, lowerRight
}

// At builds the viewport for a fixed center and zoom.
func (r Resolver) At(center mercator.GeoPoint, zoom int) (Viewport, error) {
	if err := r.validate(); err != nil {
		return Viewport{}, err
	}
	return r.at(center, zoom), nil
}

func (r Resolver) at(center mercator.GeoPoint, zoom int) Viewport {
	ul, lr := r.Corners(center, zoom)
	return Viewport{
		Center:     center,
		Zoom:       zoom,
		Width:      r.Width,
		Height:     r.Height,
		Resolution: mercator.Resolution(zoom),
		UpperLeft:  ul,
		LowerRight: lr,
	}
}

// Resolve returns the most detailed viewport centred on the box that still
// covers it. When even MinZoom is too tight the MinZoom viewport is returned
// with Clamped set.
func (r Resolver) Resolve(b mercator.BBox) (Viewport, error) {
	if err := r.validate(); err != nil {
		return Viewport{}, err
	}
	if b.Empty() {
		return Viewport{}, fmt.Errorf("%w: empty bounding box", ErrInvalidResolver)
	}
	center := b.Center()

	var v Viewport
	for zoom := r.MaxZoom; zoom >= r.MinZoom; zoom-- {
		v = r.at(center, zoom)
		if v.Fits(b) {
			return v, nil
		}
	}

	v.Clamped = true
	slog.Warn("no zoom level frames the track, keeping the widest one",
		"zoom", v.Zoom, "lat_span", b.LatSpan(), "lon_span", b.LonSpan())
	return v, nil
}
