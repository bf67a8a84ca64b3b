package viewport

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"gpx_triptych/internal/mercator"
)

const DefaultStaticMapURL = "https://maps.googleapis.com/maps/api/staticmap"

var ErrInvalidMapType = errors.New("invalid map type")

type MapType string

const (
	Roadmap   MapType = "roadmap"
	Satellite MapType = "satellite"
	Terrain   MapType = "terrain"
	Hybrid    MapType = "hybrid"
)

var mapTypes = []MapType{Roadmap, Satellite, Terrain, Hybrid}

// MapTypes lists the accepted map types in display order.
func MapTypes() []MapType {
	out := make([]MapType, len(mapTypes))
	copy(out, mapTypes)
	return out
}

func ParseMapType(s string) (MapType, error) {
	for _, mt := range mapTypes {
		if string(mt) == s {
			return mt, nil
		}
	}
	names := make([]string, len(mapTypes))
	for i, mt := range mapTypes {
		names[i] = string(mt)
	}
	return "", fmt.Errorf("%w: '%s' is not a valid map type. Types are: %s", ErrInvalidMapType, s, strings.Join(names, ", "))
}

// Photographic reports whether the imagery is aerial, which calls for an
// opaque track backdrop.
func (m MapType) Photographic() bool {
	return m == Satellite || m == Hybrid
}

// TileRequest is the parameter set handed to the static map fetcher.
type TileRequest struct {
	Center  mercator.GeoPoint
	Width   int
	Height  int
	Zoom    int
	MapType MapType
	Key     string

	// Row and Col locate the request inside a mosaic; both are zero for a
	// single image.
	Row, Col int
}

// NewTileRequest validates the map type before anything touches the network.
func NewTileRequest(v Viewport, mapType string, key string) (TileRequest, error) {
	mt, err := ParseMapType(mapType)
	if err != nil {
		return TileRequest{}, err
	}
	return TileRequest{
		Center:  v.Center,
		Width:   v.Width,
		Height:  v.Height,
		Zoom:    v.Zoom,
		MapType: mt,
		Key:     key,
	}, nil
}

func (t TileRequest) Params() url.Values {
	q := url.Values{}
	q.Set("center", fmt.Sprintf("%f,%f", t.Center.Lat, t.Center.Lon))
	q.Set("size", fmt.Sprintf("%dx%d", t.Width, t.Height))
	q.Set("zoom", strconv.Itoa(t.Zoom))
	q.Set("maptype", string(t.MapType))
	q.Set("sensor", "false")
	if t.Key != "" {
		q.Set("key", t.Key)
	}
	return q
}

func (t TileRequest) URL(base string) string {
	if base == "" {
		base = DefaultStaticMapURL
	}
	return base + "?" + t.Params().Encode()
}

// Mosaic returns rows*cols requests tiling the area around the viewport,
// row-major from the north-west. Neighbouring images share edges exactly in
// pixel space.
func Mosaic(v Viewport, mapType MapType, key string, rows, cols int) ([]TileRequest, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("mosaic needs a positive grid, got %dx%d", rows, cols)
	}
	if _, err := ParseMapType(string(mapType)); err != nil {
		return nil, err
	}
	cpx, cpy := mercator.GeoToPixels(v.Center.Clamp(), v.Zoom)
	rowMid := float64(rows-1) / 2
	colMid := float64(cols-1) / 2

	reqs := make([]TileRequest, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			px := cpx + (float64(c)-colMid)*float64(v.Width)
			py := cpy - (float64(r)-rowMid)*float64(v.Height)
			reqs = append(reqs, TileRequest{
				Center:  mercator.PixelsToGeo(px, py, v.Zoom),
				Width:   v.Width,
				Height:  v.Height,
				Zoom:    v.Zoom,
				MapType: mapType,
				Key:     key,
				Row:     r,
				Col:     c,
			})
		}
	}
	return reqs, nil
}
