// Package pdfplot writes the static triptych as a one page PDF.
package pdfplot

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/jung-kurt/gofpdf"

	"gpx_triptych/internal/mercator"
	"gpx_triptych/internal/track"
	"gpx_triptych/internal/viewport"
)

// Page layout, in mm on A4 landscape.
const (
	gridLeft   = 22.0
	gridWidth  = 118.0
	gridHeight = 68.0
	elevationY = 26.0
	speedY     = 118.0

	mapLeft   = 152.0
	mapTop    = 26.0
	mapWidth  = 134.0
	mapHeight = 160.0
)

type Options struct {
	TrailColor  color.Color
	MarkerColor color.Color
	MapType     viewport.MapType
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

// grid maps data values onto a rectangle of the page. Origin is bottom-left.
type grid struct {
	*gofpdf.Fpdf

	OffsetU, OffsetV       float64
	W, H                   float64
	MinX, MaxX, MinY, MaxY float64
}

func (g grid) UV(x, y float64) (float64, float64) {
	u := g.OffsetU + (x-g.MinX)/(g.MaxX-g.MinX)*g.W
	v := g.OffsetV + g.H - (y-g.MinY)/(g.MaxY-g.MinY)*g.H
	return u, v
}

func (g grid) drawFrame(xlabel, ylabel, yfmt string) {
	g.SetDrawColor(0xdd, 0xdd, 0xdd)
	g.SetLineWidth(0.1)
	for i := 0; i <= 4; i++ {
		f := float64(i) / 4
		xv := g.MinX + f*(g.MaxX-g.MinX)
		yv := g.MinY + f*(g.MaxY-g.MinY)
		u, _ := g.UV(xv, g.MinY)
		_, v := g.UV(g.MinX, yv)
		g.Line(u, g.OffsetV, u, g.OffsetV+g.H)
		g.Line(g.OffsetU, v, g.OffsetU+g.W, v)

		g.Text(u-3, g.OffsetV+g.H+4, fmt.Sprintf("%.1f", xv))
		g.Text(g.OffsetU-14, v+1, fmt.Sprintf(yfmt, yv))
	}

	g.SetDrawColor(0x28, 0x28, 0x28)
	g.SetLineWidth(0.3)
	g.Rect(g.OffsetU, g.OffsetV, g.W, g.H, "D")
	g.Text(g.OffsetU+g.W/2-10, g.OffsetV+g.H+9, xlabel)
	g.Text(g.OffsetU, g.OffsetV-2, ylabel)
}

func (g grid) drawSeries(xs, ys []float64, c color.Color, width float64) {
	if len(xs) < 2 {
		return
	}
	setDraw(g.Fpdf, c)
	g.SetLineWidth(width)
	u, v := g.UV(xs[0], ys[0])
	g.MoveTo(u, v)
	for i := 1; i < len(xs); i++ {
		u, v = g.UV(xs[i], ys[i])
		g.LineTo(u, v)
	}
	g.DrawPath("D")
}

func newGrid(pdf *gofpdf.Fpdf, top float64, xs, ys []float64) grid {
	g := grid{Fpdf: pdf, OffsetU: gridLeft, OffsetV: top, W: gridWidth, H: gridHeight}
	g.MinX, g.MaxX = span(xs)
	g.MinY, g.MaxY = span(ys)
	return g
}

func span(vs []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if len(vs) == 0 || hi == lo {
		return lo - 1, hi + 1
	}
	return lo, hi
}

// Write renders the full track. mapImg may be nil.
func Write(w io.Writer, t *track.Track, v viewport.Viewport, mapImg image.Image, opts Options) error {
	if t == nil || t.Len() == 0 {
		return track.ErrEmptyTrack
	}
	opts = opts.withDefaults()

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 13)
	s := t.Stats
	name := t.Creator
	if name == "" {
		name = "GPX track"
	}
	pdf.Text(gridLeft, 14, fmt.Sprintf("%s   %.2f km   %s", name, s.Distance, s.TotalTime()))
	pdf.SetFont("Arial", "", 7)

	dist := t.Distances()
	last := t.Points[t.Len()-1]

	ele := newGrid(pdf, elevationY, dist, t.Elevations())
	ele.drawFrame("Distance (km)", "Elevation (m)", "%.0f")
	ele.drawSeries(dist, t.Elevations(), opts.TrailColor, 0.5)
	u, vv := ele.UV(last.Distance, last.Elevation)
	marker(pdf, opts.MarkerColor, u, vv)

	kmh := t.SpeedsKMH()
	spd := newGrid(pdf, speedY, dist, kmh)
	if s.MaxSpeed == 0 {
		spd.MinY, spd.MaxY = 0, 1
	}
	spd.drawFrame("Distance (km)", "Speed (km/h)", "%.1f")
	spd.drawSeries(dist, kmh, opts.TrailColor, 0.5)
	if s.MaxSpeed > 0 {
		mean := track.KMH(s.MeanSpeed)
		_, y := spd.UV(spd.MinX, mean)
		pdf.SetDrawColor(0x28, 0x28, 0x28)
		pdf.SetLineWidth(0.2)
		pdf.SetDashPattern([]float64{1.5, 1}, 0)
		pdf.Line(spd.OffsetU, y, spd.OffsetU+spd.W, y)
		pdf.SetDashPattern([]float64{}, 0)
		pdf.Text(spd.OffsetU+spd.W-24, y-1, fmt.Sprintf("mean %.1f km/h", mean))
	}
	u, vv = spd.UV(last.Distance, track.KMH(last.Speed))
	marker(pdf, opts.MarkerColor, u, vv)

	if err := drawMap(pdf, t, v, mapImg, opts); err != nil {
		return err
	}
	return pdf.Output(w)
}

func drawMap(pdf *gofpdf.Fpdf, t *track.Track, v viewport.Viewport, mapImg image.Image, opts Options) error {
	canvasW, canvasH := v.Width, v.Height
	if mapImg != nil {
		canvasW, canvasH = mapImg.Bounds().Dx(), mapImg.Bounds().Dy()
	}
	scale := math.Min(mapWidth/float64(canvasW), mapHeight/float64(canvasH))
	w, h := float64(canvasW)*scale, float64(canvasH)*scale
	x0 := mapLeft + (mapWidth-w)/2
	y0 := mapTop + (mapHeight-h)/2
	offX := float64(canvasW-v.Width) / 2
	offY := float64(canvasH-v.Height) / 2
	uv := func(p mercator.GeoPoint) (float64, float64) {
		px, py := v.Project(p)
		return x0 + (px+offX)*scale, y0 + (py+offY)*scale
	}

	if mapImg != nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, mapImg); err != nil {
			return fmt.Errorf("encode map image: %w", err)
		}
		opt := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("map", opt, &buf)
		pdf.ImageOptions("map", x0, y0, w, h, false, opt, 0, "")
	} else {
		pdf.SetFillColor(0xec, 0xec, 0xe8)
		pdf.Rect(x0, y0, w, h, "F")
	}

	pdf.ClipRect(x0, y0, w, h, false)
	setDraw(pdf, opts.TrailColor)
	pdf.SetLineWidth(0.5)
	for i, p := range t.Points {
		pu, pv := uv(p.GeoPoint)
		if i == 0 {
			pdf.MoveTo(pu, pv)
		} else {
			pdf.LineTo(pu, pv)
		}
	}
	pdf.DrawPath("D")
	u, vv := uv(t.Points[t.Len()-1].GeoPoint)
	marker(pdf, opts.MarkerColor, u, vv)
	pdf.ClipEnd()

	pdf.SetDrawColor(0x28, 0x28, 0x28)
	pdf.SetLineWidth(0.3)
	pdf.Rect(x0, y0, w, h, "D")
	pdf.Text(x0, y0+h+5, fmt.Sprintf("%s  zoom %d  %s", opts.MapType, v.Zoom, v.Center))
	return pdf.Error()
}

func marker(pdf *gofpdf.Fpdf, c color.Color, u, v float64) {
	r, g, b := rgb(c)
	pdf.SetFillColor(r, g, b)
	pdf.Circle(u, v, 1.2, "F")
}

func setDraw(pdf *gofpdf.Fpdf, c color.Color) {
	r, g, b := rgb(c)
	pdf.SetDrawColor(r, g, b)
}

func rgb(c color.Color) (int, int, int) {
	r, g, b, _ := c.RGBA()
	return int(r >> 8), int(g >> 8), int(b >> 8)
}
