// Package render rasterises the triptych: elevation and speed against
// distance on the left, the track over its map on the right.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"gpx_triptych/internal/animation"
	"gpx_triptych/internal/mercator"
	"gpx_triptych/internal/track"
	"gpx_triptych/internal/viewport"
)

var ErrFigureSize = errors.New("figure too small")

const (
	markerRadius = 6.0
	trailWidth   = 2.5
)

var (
	ink      = color.RGBA{40, 40, 40, 255}
	gridInk  = color.RGBA{225, 225, 225, 255}
	ghostInk = color.RGBA{190, 190, 190, 255}
	blankMap = color.RGBA{236, 236, 232, 255}
)

type Options struct {
	Width, Height int
	TrailColor    color.Color
	MarkerColor   color.Color
	MapType       viewport.MapType
}

func (o Options) withDefaults() Options {
	if o.TrailColor == nil {
		o.TrailColor = color.RGBA{31, 119, 180, 255}
	}
	if o.MarkerColor == nil {
		o.MarkerColor = color.RGBA{255, 0, 0, 255}
	}
	if o.MapType == "" {
		o.MapType = viewport.Hybrid
	}
	return o
}

// Renderer draws a fixed track and viewport. Everything that does not move
// is painted once into a background; Frame is safe for concurrent use.
type Renderer struct {
	opts  Options
	track *track.Track
	view  viewport.Viewport
	font  *truetype.Font

	elevation plotArea
	speed     plotArea
	mapPanel  mapArea

	background image.Image
}

// New lays out the figure and paints the background. mapImg may be nil, in
// which case the map panel is left blank.
func New(t *track.Track, v viewport.Viewport, mapImg image.Image, opts Options) (*Renderer, error) {
	if opts.Width < 320 || opts.Height < 180 {
		return nil, fmt.Errorf("%w: %dx%d", ErrFigureSize, opts.Width, opts.Height)
	}
	if t == nil || t.Len() == 0 {
		return nil, track.ErrEmptyTrack
	}
	fnt, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	r := &Renderer{opts: opts.withDefaults(), track: t, view: v, font: fnt}
	r.layout(mapImg)
	r.background = r.paintBackground(mapImg)
	return r, nil
}

func (r *Renderer) layout(mapImg image.Image) {
	w, h := float64(r.opts.Width), float64(r.opts.Height)
	top := h * 0.08
	bottom := h * 0.07
	left := w * 0.06
	gap := h * 0.08
	colW := w*0.47 - left
	panelH := (h - top - bottom - gap) / 2

	s := r.track.Stats
	dist := r.track.Distances()
	r.elevation = newPlotArea(left, top, colW, panelH, dist, r.track.Elevations())
	r.speed = newPlotArea(left, top+panelH+gap, colW, panelH, dist, r.track.SpeedsKMH())
	if s.MaxSpeed == 0 {
		r.speed.YMin, r.speed.YMax = 0, 1
	}

	canvasW, canvasH := r.view.Width, r.view.Height
	if mapImg != nil {
		canvasW, canvasH = mapImg.Bounds().Dx(), mapImg.Bounds().Dy()
	}
	r.mapPanel = newMapArea(r.view, w*0.52, top, w*0.46, h-top-bottom, canvasW, canvasH)
}

func (r *Renderer) face(size float64) font.Face {
	return truetype.NewFace(r.font, &truetype.Options{Size: size})
}

func (r *Renderer) textSize() float64 { return float64(r.opts.Height) / 60 }

func (r *Renderer) paintBackground(mapImg image.Image) image.Image {
	dc := gg.NewContext(r.opts.Width, r.opts.Height)
	dc.SetColor(color.White)
	dc.Clear()

	small := r.face(r.textSize())
	title := r.face(float64(r.opts.Height) / 36)

	s := r.track.Stats
	name := r.track.Creator
	if name == "" {
		name = "GPX track"
	}
	dc.SetColor(ink)
	dc.SetFontFace(title)
	dc.DrawStringAnchored(fmt.Sprintf("%s   %.2f km   %s", name, s.Distance, s.TotalTime()),
		float64(r.opts.Width)/2, float64(r.opts.Height)*0.04, 0.5, 0.5)

	dist := r.track.Distances()
	dc.SetFontFace(small)
	r.elevation.drawAxes(dc, "Distance (km)", "Elevation (m)")
	r.elevation.drawSeries(dc, dist, r.track.Elevations(), ghostInk, 1)

	r.speed.drawAxes(dc, "Distance (km)", "Speed (km/h)")
	r.speed.drawSeries(dc, dist, r.track.SpeedsKMH(), ghostInk, 1)
	if s.MaxSpeed > 0 {
		mean := track.KMH(s.MeanSpeed)
		_, y := r.speed.px(r.speed.XMin, mean)
		dc.SetColor(ink)
		dc.SetLineWidth(1)
		dc.SetDash(6, 4)
		dc.DrawLine(r.speed.X, y, r.speed.X+r.speed.W, y)
		dc.Stroke()
		dc.SetDash()
		dc.DrawStringAnchored(fmt.Sprintf("mean %.1f km/h", mean), r.speed.X+r.speed.W-4, y-4, 1, 0)
	}

	m := r.mapPanel
	dc.Push()
	dc.DrawRectangle(m.X, m.Y, m.W, m.H)
	dc.Clip()
	if mapImg != nil {
		dc.Push()
		dc.Translate(m.X, m.Y)
		dc.Scale(m.Scale, m.Scale)
		dc.DrawImage(mapImg, 0, 0)
		dc.Pop()
	} else {
		dc.SetColor(blankMap)
		dc.DrawRectangle(m.X, m.Y, m.W, m.H)
		dc.Fill()
	}
	r.drawMapTrail(dc, r.track.Longitudes(), r.track.Latitudes(),
		withAlpha(r.opts.TrailColor, backdropAlpha(r.opts.MapType)), 1.5)
	dc.Pop()
	dc.SetColor(ink)
	dc.SetLineWidth(1)
	dc.DrawRectangle(m.X, m.Y, m.W, m.H)
	dc.Stroke()

	return dc.Image()
}

// backdropAlpha is the opacity of the full-track backdrop on the map. Over
// imagery the line needs full strength to stay visible.
func backdropAlpha(mt viewport.MapType) float64 {
	if mt.Photographic() {
		return 1
	}
	return 0.3
}

func (r *Renderer) canvas() *gg.Context {
	dc := gg.NewContext(r.opts.Width, r.opts.Height)
	dc.DrawImage(r.background, 0, 0)
	return dc
}

// Plot is the static triptych: every series drawn in full, the last point
// marked.
func (r *Renderer) Plot() image.Image {
	dc := r.canvas()
	dist := r.track.Distances()
	last := r.track.Len() - 1
	p := r.track.Points[last]

	r.elevation.drawSeries(dc, dist, r.track.Elevations(), r.opts.TrailColor, trailWidth)
	r.speed.drawSeries(dc, dist, r.track.SpeedsKMH(), r.opts.TrailColor, trailWidth)
	r.drawMapTrail(dc, r.track.Longitudes(), r.track.Latitudes(), r.opts.TrailColor, trailWidth)

	ex, ey := r.elevation.px(p.Distance, p.Elevation)
	sx, sy := r.speed.px(p.Distance, track.KMH(p.Speed))
	mx, my := r.mapPanel.px(p.GeoPoint)
	for _, pt := range [][2]float64{{ex, ey}, {sx, sy}, {mx, my}} {
		r.drawMarker(dc, pt[0], pt[1])
	}
	return dc.Image()
}

// Frame draws one animation tick. Channels are matched by name; unknown
// names are ignored.
func (r *Renderer) Frame(f animation.Frame) image.Image {
	dc := r.canvas()
	face := r.face(r.textSize())
	dc.SetFontFace(face)

	for _, c := range f.Channels {
		xs := append(c.TrailX, c.X)
		ys := append(c.TrailY, c.Y)

		switch c.Name {
		case ChannelElevation, ChannelSpeed:
			area := r.elevation
			if c.Name == ChannelSpeed {
				area = r.speed
			}
			area.drawSeries(dc, xs, ys, r.opts.TrailColor, trailWidth)
			x, y := area.px(c.X, c.Y)
			r.drawMarker(dc, x, y)
			if c.HasLabel && c.Label != "" {
				dc.SetColor(ink)
				dc.DrawStringAnchored(c.Label, x+markerRadius+4, y-markerRadius-4, 0, 0)
			}
		case ChannelMap:
			m := r.mapPanel
			dc.Push()
			dc.DrawRectangle(m.X, m.Y, m.W, m.H)
			dc.Clip()
			r.drawMapTrail(dc, xs, ys, r.opts.TrailColor, trailWidth)
			x, y := m.px(mercator.GeoPoint{Lat: c.Y, Lon: c.X})
			r.drawMarker(dc, x, y)
			if c.HasLabel && c.Label != "" {
				r.drawTimeBox(dc, c.Label, x, y)
			}
			dc.Pop()
		}
	}
	return dc.Image()
}

func (r *Renderer) drawMarker(dc *gg.Context, x, y float64) {
	dc.SetColor(r.opts.MarkerColor)
	dc.DrawPoint(x, y, markerRadius)
	dc.Fill()
	dc.SetColor(color.White)
	dc.SetLineWidth(2)
	dc.DrawCircle(x, y, markerRadius+1)
	dc.Stroke()
}

func (r *Renderer) drawTimeBox(dc *gg.Context, label string, x, y float64) {
	tw, th := dc.MeasureString(label)
	pad := th * 0.5
	bx := x + markerRadius + 6
	by := y - markerRadius - 6 - th - 2*pad

	dc.SetColor(color.RGBA{255, 255, 255, 210})
	dc.DrawRoundedRectangle(bx, by, tw+2*pad, th+2*pad, pad)
	dc.FillPreserve()
	dc.SetColor(ink)
	dc.SetLineWidth(1)
	dc.Stroke()
	dc.DrawStringAnchored(label, bx+pad, by+pad+th/2, 0, 0.5)
}

// drawMapTrail draws a polyline given as longitudes and latitudes.
func (r *Renderer) drawMapTrail(dc *gg.Context, lons, lats []float64, c color.Color, width float64) {
	if len(lons) < 2 {
		return
	}
	dc.SetColor(c)
	dc.SetLineWidth(width)
	dc.NewSubPath()
	for i := range lons {
		x, y := r.mapPanel.px(mercator.GeoPoint{Lat: lats[i], Lon: lons[i]})
		dc.LineTo(x, y)
	}
	dc.Stroke()
}

// SavePNG writes img to path.
func SavePNG(path string, img image.Image) error {
	if err := gg.SavePNG(path, img); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// withAlpha scales the opacity of c by a.
func withAlpha(c color.Color, a float64) color.Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = uint8(float64(n.A)*a + 0.5)
	return n
}
