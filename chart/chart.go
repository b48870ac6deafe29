// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package chart renders aggregated benchmark results as one grouped
// horizontal bar chart per suite.
package chart

import (
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/alex65536/chess-bench/results"
)

// Options control where and how charts are rendered.
type Options struct {
	// Dir is the directory to write charts into. If empty, charts
	// are written to the current directory.
	Dir string

	// Show opens every written chart with Opener.
	Show bool

	// Opener displays a chart file. If nil, the platform's default
	// viewer is used.
	Opener func(path string) error

	Logger *slog.Logger
}

const (
	canvasWidth   = 8 * vg.Inch
	heightPerCase = 1 * vg.Inch
	labelPad      = 3 // points between a bar end and its label
)

// Render writes one SVG chart per suite of res, named after the
// suite, and returns the paths of the written files.
//
// Each suite is validated before it is drawn: an unknown suite name
// or an implementation whose cases differ from the others stops the
// rendering with an error. Suites with no results are skipped.
func Render(res results.Results, opts Options) ([]string, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	var paths []string
	for _, name := range res.SuiteNames() {
		if err := results.CheckSuite(name); err != nil {
			return paths, err
		}
		suite := res[name]
		labels, err := suite.Shape(name)
		if err != nil {
			return paths, err
		}
		if len(labels) == 0 {
			log.Info("skipping suite with no results", "suite", name)
			continue
		}

		p := Plot(name, suite, labels)
		path := filepath.Join(opts.Dir, name+".svg")
		if err := save(p, path, canvasWidth, heightPerCase*vg.Length(len(labels))); err != nil {
			return paths, fmt.Errorf("suite %s: %w", name, err)
		}
		log.Info("wrote chart", "suite", name, "path", path,
			"implementations", len(suite), "cases", len(labels))
		paths = append(paths, path)
	}

	if opts.Show {
		open := opts.Opener
		if open == nil {
			open = openFile
		}
		for _, path := range paths {
			if err := open(path); err != nil {
				return paths, fmt.Errorf("showing %s: %w", path, err)
			}
		}
	}
	return paths, nil
}

// Plot builds the chart of a single suite. labels must be the shape
// of suite, as returned by Suite.Shape.
func Plot(name string, suite results.Suite, labels []string) *plot.Plot {
	p := plot.New()
	p.Title.Text = name
	p.X.Label.Text = "time, ms"
	p.Legend.Top = true

	grid := plotter.NewGrid()
	grid.Horizontal.Color = nil
	p.Add(grid)

	labelStyle := p.X.Tick.Label
	labelStyle.XAlign = draw.XLeft
	labelStyle.YAlign = draw.YCenter

	impls := suite.Implementations()
	for i, b := range suiteBars(suite, labels) {
		b.labelStyle = labelStyle
		p.Add(b)
		p.Legend.Add(impls[i], b)
	}
	p.NominalY(labels...)
	return p
}

// suiteBars returns the bars of every implementation of suite, in
// implementation name order.
func suiteBars(suite results.Suite, labels []string) []*hbars {
	impls := suite.Implementations()
	l := Layout{Cases: len(labels), Impls: len(impls)}
	ymin, ymax := l.Range()
	clrs := colors(len(impls))
	bars := make([]*hbars, len(impls))
	for i, impl := range impls {
		vals := make([]float64, len(labels))
		for j, c := range labels {
			vals[j] = suite[impl][c]
		}
		bars[i] = &hbars{
			values:   vals,
			offset:   l.Offset(i),
			width:    l.Width(),
			span:     [2]float64{ymin, ymax},
			color:    clrs[i],
			labelPad: vg.Points(labelPad),
		}
	}
	return bars
}

// colors returns n distinct colors, taken from a qualitative brewer
// palette while it lasts.
func colors(n int) []color.Color {
	const minBrewer, maxBrewer = 3, 12
	k := n
	if k < minBrewer {
		k = minBrewer
	}
	if k > maxBrewer {
		k = maxBrewer
	}
	var pal []color.Color
	if p, err := brewer.GetPalette(brewer.TypeQualitative, "Paired", k); err == nil {
		pal = p.Colors()
	}
	clrs := make([]color.Color, n)
	for i := range clrs {
		if i < len(pal) {
			clrs[i] = pal[i]
		} else {
			clrs[i] = plotutil.Color(i)
		}
	}
	return clrs
}

func save(p *plot.Plot, path string, w, h vg.Length) (err error) {
	c := vgsvg.New(w, h)
	p.Draw(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = c.WriteTo(f)
	return err
}

// openFile opens path in the desktop's default viewer.
func openFile(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	return cmd.Start()
}
