package render

import (
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"gpx_triptych/internal/mercator"
	"gpx_triptych/internal/viewport"
)

const ticks = 4

// plotArea is a chart rectangle in figure pixels with its data limits.
type plotArea struct {
	X, Y, W, H             float64
	XMin, XMax, YMin, YMax float64
}

func newPlotArea(x, y, w, h float64, xs, ys []float64) plotArea {
	a := plotArea{X: x, Y: y, W: w, H: h}
	a.XMin, a.XMax = limits(xs, 0)
	a.YMin, a.YMax = limits(ys, 0.05)
	return a
}

// limits pads the data range by pad of its span; a flat series gets a unit
// range around its value.
func limits(vs []float64, pad float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if len(vs) == 0 {
		return 0, 1
	}
	if hi-lo == 0 {
		return lo - 1, hi + 1
	}
	span := hi - lo
	return lo - span*pad, hi + span*pad
}

func (a plotArea) px(x, y float64) (float64, float64) {
	fx := (x - a.XMin) / (a.XMax - a.XMin)
	fy := (y - a.YMin) / (a.YMax - a.YMin)
	return a.X + fx*a.W, a.Y + a.H - fy*a.H
}

func (a plotArea) drawAxes(dc *gg.Context, xlabel, ylabel string) {
	dc.SetLineWidth(1)
	for i := 0; i <= ticks; i++ {
		f := float64(i) / ticks
		xv := a.XMin + f*(a.XMax-a.XMin)
		yv := a.YMin + f*(a.YMax-a.YMin)
		x, _ := a.px(xv, a.YMin)
		_, y := a.px(a.XMin, yv)

		dc.SetColor(gridInk)
		dc.DrawLine(x, a.Y, x, a.Y+a.H)
		dc.DrawLine(a.X, y, a.X+a.W, y)
		dc.Stroke()

		dc.SetColor(ink)
		dc.DrawStringAnchored(tickLabel(xv, a.XMax-a.XMin), x, a.Y+a.H+4, 0.5, 1)
		dc.DrawStringAnchored(tickLabel(yv, a.YMax-a.YMin), a.X-4, y, 1, 0.5)
	}

	dc.SetColor(ink)
	dc.DrawRectangle(a.X, a.Y, a.W, a.H)
	dc.Stroke()
	_, lh := dc.MeasureString(xlabel)
	dc.DrawStringAnchored(xlabel, a.X+a.W/2, a.Y+a.H+2*lh+8, 0.5, 1)
	dc.DrawStringAnchored(ylabel, a.X, a.Y-4, 0, 0)
}

func tickLabel(v, span float64) string {
	switch {
	case span >= 100:
		return fmt.Sprintf("%.0f", v)
	case span >= 1:
		return fmt.Sprintf("%.1f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func (a plotArea) drawSeries(dc *gg.Context, xs, ys []float64, c color.Color, width float64) {
	if len(xs) < 2 {
		return
	}
	dc.SetColor(c)
	dc.SetLineWidth(width)
	dc.NewSubPath()
	for i := range xs {
		x, y := a.px(xs[i], ys[i])
		dc.LineTo(x, y)
	}
	dc.Stroke()
}

// mapArea places a map canvas, possibly larger than the viewport when a
// mosaic was stitched, inside the right-hand panel.
type mapArea struct {
	X, Y, W, H float64
	Scale      float64

	view             viewport.Viewport
	offsetX, offsetY float64
}

func newMapArea(v viewport.Viewport, x, y, w, h float64, canvasW, canvasH int) mapArea {
	s := math.Min(w/float64(canvasW), h/float64(canvasH))
	cw, ch := float64(canvasW)*s, float64(canvasH)*s
	return mapArea{
		X:       x + (w-cw)/2,
		Y:       y + (h-ch)/2,
		W:       cw,
		H:       ch,
		Scale:   s,
		view:    v,
		offsetX: float64(canvasW-v.Width) / 2,
		offsetY: float64(canvasH-v.Height) / 2,
	}
}

func (m mapArea) px(p mercator.GeoPoint) (float64, float64) {
	vx, vy := m.view.Project(p)
	return m.X + (vx+m.offsetX)*m.Scale, m.Y + (vy+m.offsetY)*m.Scale
}
