package viewport

import (
	"errors"
	"math"
	"strings"
	"testing"

	"gpx_triptych/internal/mercator"
)

func TestScenarioBogota(t *testing.T) {
	center := mercator.GeoPoint{Lat: 4.85, Lon: -74.05}
	r := Resolver{Width: 600, Height: 600, MinZoom: 1, MaxZoom: 20}

	v, err := r.At(center, 17)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if v.LonSpan() < 0 || v.LatSpan() < 0 {
		t.Fatalf("negative span: lon %f lat %f", v.LonSpan(), v.LatSpan())
	}

	ulx, uly := mercator.GeoToPixels(v.UpperLeft, v.Zoom)
	lrx, lry := mercator.GeoToPixels(v.LowerRight, v.Zoom)
	got := mercator.PixelsToGeo((ulx+lrx)/2, (uly+lry)/2, v.Zoom)
	if math.Abs(got.Lat-center.Lat) > 1e-6 || math.Abs(got.Lon-center.Lon) > 1e-6 {
		t.Errorf("center re-projects to %v", got)
	}
	if math.Abs(lrx-ulx-600) > 1e-6 || math.Abs(uly-lry-600) > 1e-6 {
		t.Errorf("corner distance in pixels: %f x %f", lrx-ulx, uly-lry)
	}
}

func TestResolvePicksTightestZoom(t *testing.T) {
	r := DefaultResolver()
	box := mercator.NewBBox(
		mercator.GeoPoint{Lat: 4.80, Lon: -74.10},
		mercator.GeoPoint{Lat: 4.90, Lon: -74.00},
	)
	v, err := r.Resolve(box)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !v.Fits(box) {
		t.Fatalf("viewport %v does not fit box", v)
	}
	if v.Clamped {
		t.Error("unexpected clamp")
	}
	tighter, _ := r.At(box.Center(), v.Zoom+1)
	if tighter.Fits(box) {
		t.Errorf("zoom %d also fits, resolver was not greedy", v.Zoom+1)
	}
}

func TestResolveMonotonic(t *testing.T) {
	r := DefaultResolver()
	center := mercator.GeoPoint{Lat: 46.5, Lon: 7.5}
	prev := math.MaxInt
	for _, half := range []float64{0.0001, 0.001, 0.01, 0.1, 1, 5, 20} {
		box := mercator.NewBBox(
			mercator.GeoPoint{Lat: center.Lat - half, Lon: center.Lon - half},
			mercator.GeoPoint{Lat: center.Lat + half, Lon: center.Lon + half},
		)
		v, err := r.Resolve(box)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if v.Zoom > prev {
			t.Errorf("half-span %f: zoom %d above previous %d", half, v.Zoom, prev)
		}
		prev = v.Zoom
	}
}

func TestResolveSinglePoint(t *testing.T) {
	r := DefaultResolver()
	box := mercator.NewBBox(mercator.GeoPoint{Lat: 4.85, Lon: -74.05})
	v, err := r.Resolve(box)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if v.Zoom != r.MaxZoom {
		t.Errorf("zoom = %d, want %d", v.Zoom, r.MaxZoom)
	}
}

func TestResolveClampsWhenNothingFits(t *testing.T) {
	r := Resolver{Width: 64, Height: 64, MinZoom: 3, MaxZoom: 10}
	box := mercator.NewBBox(
		mercator.GeoPoint{Lat: -60, Lon: -170},
		mercator.GeoPoint{Lat: 60, Lon: 170},
	)
	v, err := r.Resolve(box)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !v.Clamped || v.Zoom != 3 {
		t.Errorf("got zoom %d clamped %v, want 3 clamped", v.Zoom, v.Clamped)
	}
}

func TestResolverValidation(t *testing.T) {
	tests := []Resolver{
		{Width: 0, Height: 600, MinZoom: 1, MaxZoom: 20},
		{Width: 600, Height: 600, MinZoom: 5, MaxZoom: 4},
		{Width: 600, Height: -1, MinZoom: 1, MaxZoom: 20},
	}
	for _, r := range tests {
		if _, err := r.Resolve(mercator.NewBBox(mercator.GeoPoint{})); !errors.Is(err, ErrInvalidResolver) {
			t.Errorf("%+v: err = %v", r, err)
		}
	}
	if _, err := DefaultResolver().Resolve(mercator.BBox{}); !errors.Is(err, ErrInvalidResolver) {
		t.Errorf("empty box: err = %v", err)
	}
}

func TestProjectCenterAndCorners(t *testing.T) {
	r := DefaultResolver()
	v, _ := r.At(mercator.GeoPoint{Lat: 4.85, Lon: -74.05}, 15)

	x, y := v.Project(v.Center)
	if math.Abs(x-300) > 1e-6 || math.Abs(y-300) > 1e-6 {
		t.Errorf("center at (%f,%f)", x, y)
	}
	x, y = v.Project(v.UpperLeft)
	if math.Abs(x) > 1e-6 || math.Abs(y) > 1e-6 {
		t.Errorf("upper left at (%f,%f)", x, y)
	}
	x, y = v.Project(v.LowerRight)
	if math.Abs(x-600) > 1e-6 || math.Abs(y-600) > 1e-6 {
		t.Errorf("lower right at (%f,%f)", x, y)
	}
}

func TestParseMapType(t *testing.T) {
	for _, name := range []string{"roadmap", "satellite", "terrain", "hybrid"} {
		if mt, err := ParseMapType(name); err != nil || string(mt) != name {
			t.Errorf("ParseMapType(%q) = %q, %v", name, mt, err)
		}
	}
	_, err := ParseMapType("watercolor")
	if !errors.Is(err, ErrInvalidMapType) {
		t.Fatalf("err = %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "watercolor") || !strings.Contains(msg, "roadmap, satellite, terrain, hybrid") {
		t.Errorf("message %q should name the value and the valid set", msg)
	}
}

func TestTileRequestParams(t *testing.T) {
	v, _ := DefaultResolver().At(mercator.GeoPoint{Lat: 4.85, Lon: -74.05}, 13)
	req, err := NewTileRequest(v, "satellite", "")
	if err != nil {
		t.Fatalf("NewTileRequest: %v", err)
	}
	q := req.Params()
	want := map[string]string{
		"center":  "4.850000,-74.050000",
		"size":    "600x600",
		"zoom":    "13",
		"maptype": "satellite",
		"sensor":  "false",
	}
	for k, w := range want {
		if got := q.Get(k); got != w {
			t.Errorf("%s = %q, want %q", k, got, w)
		}
	}
	if q.Has("key") {
		t.Error("key should be omitted when empty")
	}
	if u := req.URL(""); !strings.HasPrefix(u, DefaultStaticMapURL+"?") {
		t.Errorf("URL = %q", u)
	}

	if _, err := NewTileRequest(v, "bogus", ""); !errors.Is(err, ErrInvalidMapType) {
		t.Errorf("bogus map type: err = %v", err)
	}
}

func TestMosaicGrid(t *testing.T) {
	v, _ := DefaultResolver().At(mercator.GeoPoint{Lat: 4.85, Lon: -74.05}, 14)
	reqs, err := Mosaic(v, Roadmap, "", 3, 3)
	if err != nil {
		t.Fatalf("Mosaic: %v", err)
	}
	if len(reqs) != 9 {
		t.Fatalf("len = %d", len(reqs))
	}
	mid := reqs[4]
	if math.Abs(mid.Center.Lat-v.Center.Lat) > 1e-9 || math.Abs(mid.Center.Lon-v.Center.Lon) > 1e-9 {
		t.Errorf("middle tile centred at %v", mid.Center)
	}
	if !(reqs[0].Center.Lat > mid.Center.Lat && reqs[0].Center.Lon < mid.Center.Lon) {
		t.Errorf("first tile %v should be north-west of %v", reqs[0].Center, mid.Center)
	}
	if math.Abs((reqs[5].Center.Lon-mid.Center.Lon)-v.LonSpan()) > 1e-9 {
		t.Errorf("east neighbour offset %f, want %f", reqs[5].Center.Lon-mid.Center.Lon, v.LonSpan())
	}
	if _, err := Mosaic(v, Roadmap, "", 0, 2); err == nil {
		t.Error("zero rows should fail")
	}
}
