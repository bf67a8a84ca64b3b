package render

import (
	"errors"
	"image"
	"image/color"
	"math"
	"path/filepath"
	"testing"

	"gpx_triptych/internal/animation"
	"gpx_triptych/internal/track"
	"gpx_triptych/internal/viewport"
)

// northbound walks straight north so the map corners stay clear of the line.
func northbound(t *testing.T, withSpeed bool) *track.Track {
	t.Helper()
	samples := make([]track.Sample, 5)
	for i := range samples {
		samples[i] = track.Sample{
			Lat:       4.85 + float64(i)*0.0005,
			Lon:       -74.05,
			Elevation: 2600 + float64(i)*3,
			Speed:     float64(i + 1),
			HasSpeed:  withSpeed,
			Delta:     10,
		}
	}
	samples[0].Delta = 0
	tr, err := track.New("Loctome", samples)
	if err != nil {
		t.Fatalf("track.New: %v", err)
	}
	return tr
}

func resolve(t *testing.T, tr *track.Track) viewport.Viewport {
	t.Helper()
	r := viewport.Resolver{Width: 200, Height: 200, MinZoom: 1, MaxZoom: 20}
	v, err := r.Resolve(tr.Stats.BBox)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return v
}

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func rgb(img image.Image, x, y float64) (r, g, b uint32) {
	r, g, b, _ = img.At(int(math.Round(x)), int(math.Round(y))).RGBA()
	return r >> 8, g >> 8, b >> 8
}

func isRed(img image.Image, x, y float64) bool {
	r, g, b := rgb(img, x, y)
	return r > 200 && g < 60 && b < 60
}

var opts = Options{Width: 640, Height: 360, MapType: viewport.Terrain}

func TestNewRejectsTinyFigure(t *testing.T) {
	tr := northbound(t, true)
	_, err := New(tr, resolve(t, tr), nil, Options{Width: 100, Height: 100})
	if !errors.Is(err, ErrFigureSize) {
		t.Errorf("err = %v, want ErrFigureSize", err)
	}
}

func TestPlot(t *testing.T) {
	tr := northbound(t, true)
	r, err := New(tr, resolve(t, tr), nil, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	img := r.Plot()
	if b := img.Bounds(); b.Dx() != 640 || b.Dy() != 360 {
		t.Fatalf("bounds %v", b)
	}

	last := tr.Points[tr.Len()-1]
	if x, y := r.mapPanel.px(last.GeoPoint); !isRed(img, x, y) {
		t.Errorf("no marker at the last map point (%.0f, %.0f)", x, y)
	}
	if x, y := r.elevation.px(last.Distance, last.Elevation); !isRed(img, x, y) {
		t.Errorf("no marker at the last elevation point (%.0f, %.0f)", x, y)
	}

	path := filepath.Join(t.TempDir(), "plot.png")
	if err := SavePNG(path, img); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}
}

func TestFrameFollowsCursor(t *testing.T) {
	tr := northbound(t, true)
	r, err := New(tr, resolve(t, tr), nil, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s, err := animation.NewScheduler(tr.Len(), 1, Channels(tr))
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	f, err := s.At(2)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	img := r.Frame(f)

	p := tr.Points[2]
	if x, y := r.mapPanel.px(p.GeoPoint); !isRed(img, x, y) {
		t.Errorf("no map marker at cursor point")
	}
	if x, y := r.speed.px(p.Distance, track.KMH(p.Speed)); !isRed(img, x, y) {
		t.Errorf("no speed marker at cursor point")
	}
	// the last point is not reached yet
	last := tr.Points[tr.Len()-1]
	if x, y := r.elevation.px(last.Distance, last.Elevation); isRed(img, x, y) {
		t.Errorf("marker drawn ahead of the cursor")
	}
}

func TestFrameDoesNotGrowChannels(t *testing.T) {
	tr := northbound(t, true)
	r, err := New(tr, resolve(t, tr), nil, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	chans := Channels(tr)
	s, _ := animation.NewScheduler(tr.Len(), 1, chans)
	f, _ := s.At(1)
	before := chans[0].X[1]
	r.Frame(f)
	if chans[0].X[1] != before {
		t.Error("rendering a frame wrote into the channel data")
	}
}

func TestMapImageBehindTrack(t *testing.T) {
	tr := northbound(t, true)
	green := color.RGBA{0, 180, 0, 255}
	r, err := New(tr, resolve(t, tr), solid(200, 200, green), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	img := r.Plot()
	m := r.mapPanel
	if cr, cg, _ := rgb(img, m.X+4, m.Y+4); cg < 150 || cr > 60 {
		t.Errorf("map corner is (%d, %d), want the map image", cr, cg)
	}
}

func TestBlankMapPanel(t *testing.T) {
	tr := northbound(t, true)
	r, err := New(tr, resolve(t, tr), nil, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	m := r.mapPanel
	cr, cg, cb := rgb(r.Plot(), m.X+4, m.Y+4)
	if cr != uint32(blankMap.R) || cg != uint32(blankMap.G) || cb != uint32(blankMap.B) {
		t.Errorf("blank panel is (%d, %d, %d)", cr, cg, cb)
	}
}

func TestMosaicWidensMapPanel(t *testing.T) {
	tr := northbound(t, true)
	v := resolve(t, tr)
	single, _ := New(tr, v, solid(200, 200, color.White), opts)
	wide, _ := New(tr, v, solid(600, 600, color.White), opts)

	// same panel, three times the ground: the track shrinks to a third
	a := tr.Points[0].GeoPoint
	b := tr.Points[tr.Len()-1].GeoPoint
	_, ya1 := single.mapPanel.px(a)
	_, yb1 := single.mapPanel.px(b)
	_, ya3 := wide.mapPanel.px(a)
	_, yb3 := wide.mapPanel.px(b)
	if got := (ya1 - yb1) / (ya3 - yb3); math.Abs(got-3) > 1e-6 {
		t.Errorf("scale ratio %f, want 3", got)
	}
	// and both keep the viewport center in the middle
	cx, cy := wide.mapPanel.px(v.Center)
	if math.Abs(cx-(wide.mapPanel.X+wide.mapPanel.W/2)) > 1e-6 || math.Abs(cy-(wide.mapPanel.Y+wide.mapPanel.H/2)) > 1e-6 {
		t.Errorf("center at (%f, %f)", cx, cy)
	}
}

func TestChannels(t *testing.T) {
	tr := northbound(t, true)
	chans := Channels(tr)
	if len(chans) != 3 {
		t.Fatalf("%d channels", len(chans))
	}
	for _, c := range chans {
		if len(c.X) != tr.Len() || len(c.Y) != tr.Len() || len(c.Labels) != tr.Len() {
			t.Errorf("channel %q has mismatched lengths", c.Name)
		}
	}
	if chans[0].Labels[1] != "2603.0" {
		t.Errorf("elevation label %q", chans[0].Labels[1])
	}
	if chans[1].Labels[0] != "3.6" {
		t.Errorf("speed label %q", chans[1].Labels[0])
	}
	if chans[2].X[0] != -74.05 || chans[2].Labels[1] != "0:00" {
		t.Errorf("map channel x %f label %q", chans[2].X[0], chans[2].Labels[1])
	}
}

func TestChannelsWithoutSpeed(t *testing.T) {
	tr := northbound(t, false)
	for i, l := range Channels(tr)[1].Labels {
		if l != "" {
			t.Errorf("speed label %d = %q, want empty", i, l)
		}
	}
	if _, err := New(tr, resolve(t, tr), nil, opts); err != nil {
		t.Errorf("New without speed: %v", err)
	}
}

func TestBackdropAlpha(t *testing.T) {
	cases := map[viewport.MapType]float64{
		viewport.Satellite: 1,
		viewport.Hybrid:    1,
		viewport.Roadmap:   0.3,
		viewport.Terrain:   0.3,
	}
	for mt, want := range cases {
		if got := backdropAlpha(mt); got != want {
			t.Errorf("%s: alpha %f, want %f", mt, got, want)
		}
	}
}

func TestWithAlphaKeepsHue(t *testing.T) {
	half := color.NRGBA{R: 0, G: 255, B: 0, A: 128}
	got := withAlpha(half, 0.5)
	if got != (color.NRGBA{G: 255, A: 64}) {
		t.Errorf("withAlpha(%v, 0.5) = %v", half, got)
	}
	if got := withAlpha(color.RGBA{31, 119, 180, 255}, 1); got != (color.NRGBA{31, 119, 180, 255}) {
		t.Errorf("opaque color changed: %v", got)
	}
}

func TestLimits(t *testing.T) {
	lo, hi := limits([]float64{5, 5, 5}, 0.05)
	if lo != 4 || hi != 6 {
		t.Errorf("flat series limits (%f, %f)", lo, hi)
	}
	lo, hi = limits([]float64{0, 10}, 0.1)
	if lo != -1 || hi != 11 {
		t.Errorf("padded limits (%f, %f)", lo, hi)
	}

	a := plotArea{X: 10, Y: 20, W: 100, H: 50, XMin: 0, XMax: 1, YMin: 0, YMax: 1}
	if x, y := a.px(0, 0); x != 10 || y != 70 {
		t.Errorf("origin at (%f, %f)", x, y)
	}
	if x, y := a.px(1, 1); x != 110 || y != 20 {
		t.Errorf("top right at (%f, %f)", x, y)
	}
}
