// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chart

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/alex65536/chess-bench/benchunit"
)

// hbars draws the horizontal bars of one implementation, one bar per
// case. Unlike plotter.BarChart, bar thickness and offset are in axis
// units, which is what keeps groups aligned for any number of cases.
type hbars struct {
	values []float64 // indexed by case position
	offset float64   // axis units from the case position to the bar center
	width  float64   // bar thickness in axis units
	span   [2]float64

	color      color.Color
	lineStyle  draw.LineStyle
	labelStyle draw.TextStyle
	labelPad   vg.Length
}

func (b *hbars) rect(i int) (y0, y1 float64) {
	y := float64(i) + b.offset
	return y - b.width/2, y + b.width/2
}

// Plot implements plot.Plotter.
func (b *hbars) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	x0 := trX(0)
	for i, v := range b.values {
		lo, hi := b.rect(i)
		y0, y1 := trY(lo), trY(hi)
		x1 := trX(v)
		pts := []vg.Point{{X: x0, Y: y0}, {X: x0, Y: y1}, {X: x1, Y: y1}, {X: x1, Y: y0}}
		c.FillPolygon(b.color, c.ClipPolygonXY(pts))
		if b.lineStyle.Width > 0 {
			outline := append(append([]vg.Point(nil), pts...), pts[0])
			c.StrokeLines(b.lineStyle, c.ClipLinesXY(outline)...)
		}

		lp := vg.Point{X: x1 + b.labelPad, Y: trY(float64(i) + b.offset)}
		if c.ContainsY(lp.Y) {
			c.FillText(b.labelStyle, lp, benchunit.Label(v))
		}
	}
}

// DataRange implements plot.DataRanger.
func (b *hbars) DataRange() (xmin, xmax, ymin, ymax float64) {
	for _, v := range b.values {
		if v > xmax {
			xmax = v
		}
	}
	return 0, xmax, b.span[0], b.span[1]
}

// GlyphBoxes implements plot.GlyphBoxer. The boxes cover the value
// labels so that the plot leaves room for them.
func (b *hbars) GlyphBoxes(plt *plot.Plot) []plot.GlyphBox {
	boxes := make([]plot.GlyphBox, len(b.values))
	for i, v := range b.values {
		r := b.labelStyle.Rectangle(benchunit.Label(v))
		r.Min.X += b.labelPad
		r.Max.X += b.labelPad
		boxes[i] = plot.GlyphBox{
			X:         plt.X.Norm(v),
			Y:         plt.Y.Norm(float64(i) + b.offset),
			Rectangle: r,
		}
	}
	return boxes
}

// Thumbnail implements plot.Thumbnailer.
func (b *hbars) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	c.FillPolygon(b.color, c.ClipPolygonY(pts))
}
