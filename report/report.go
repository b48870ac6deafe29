// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package report renders aggregated benchmark results as an HTML page
// with one table per suite next to the suite's chart.
package report

import (
	"io"
	"path"

	"github.com/google/safehtml"
	"github.com/google/safehtml/template"

	"github.com/alex65536/chess-bench/benchunit"
	"github.com/alex65536/chess-bench/results"
)

// Options control the generated page.
type Options struct {
	// Title is the page title. If empty, "chess-bench results" is used.
	Title string

	// ChartDir is the location of the suite charts relative to the
	// page. If empty, the charts are expected next to the page.
	ChartDir string
}

const reportHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
{{- range .Suites}}
<h2>{{.Name}}</h2>
<img src="{{.Chart}}" alt="{{.Name}} chart">
<table class="results" border="1">
<tr><th>case \ time, ms</th>{{range .Impls}}<th>{{.}}</th>{{end}}</tr>
{{- range .Rows}}
<tr><td class="case">{{.Case}}</td>{{range .Cells}}<td>{{if .Best}}<b>{{.Label}}</b>{{else}}{{.Label}}{{end}}</td>{{end}}</tr>
{{- end}}
</table>
{{- end}}
</body>
</html>
`

var reportTemplate = template.Must(template.New("report").Parse(reportHTML))

type page struct {
	Title  string
	Suites []*suite
}

type suite struct {
	Name  string
	Chart safehtml.URL
	Impls []string
	Rows  []row
}

type row struct {
	Case  string
	Cells []cell
}

type cell struct {
	Label string
	Best  bool // fastest implementation for this case
}

// Write renders res as an HTML page to w.
//
// Suites are validated as for charts: an unknown suite or an
// inconsistent set of cases is an error, and nothing is written.
func Write(w io.Writer, res results.Results, opts Options) error {
	p, err := build(res, opts)
	if err != nil {
		return err
	}
	return reportTemplate.Execute(w, p)
}

func build(res results.Results, opts Options) (*page, error) {
	p := &page{Title: opts.Title}
	if p.Title == "" {
		p.Title = "chess-bench results"
	}
	for _, name := range res.SuiteNames() {
		if err := results.CheckSuite(name); err != nil {
			return nil, err
		}
		s := res[name]
		labels, err := s.Shape(name)
		if err != nil {
			return nil, err
		}
		if len(labels) == 0 {
			continue
		}
		impls := s.Implementations()
		ps := &suite{
			Name:  name,
			Chart: safehtml.URLSanitized(path.Join(opts.ChartDir, name+".svg")),
			Impls: impls,
		}
		for _, c := range labels {
			r := row{Case: c, Cells: make([]cell, len(impls))}
			best := 0
			for i, impl := range impls {
				v := s[impl][c]
				r.Cells[i].Label = benchunit.Label(v)
				if v < s[impls[best]][c] {
					best = i
				}
			}
			r.Cells[best].Best = true
			ps.Rows = append(ps.Rows, r)
		}
		p.Suites = append(p.Suites, ps)
	}
	return p, nil
}
