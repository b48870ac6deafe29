// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package results aggregates criterion benchmark reports into a
// nested mapping of suite, implementation and case to a duration in
// milliseconds.
//
// The mapping is built by Ingest from a stream of criterion messages,
// or loaded verbatim from a snapshot saved by Save. Both suite names
// and the shape of each suite are validated lazily, by CheckSuite and
// Suite.Shape, when the mapping is consumed.
package results

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alex65536/chess-bench/benchjson"
	"github.com/alex65536/chess-bench/benchunit"
)

// Results maps a suite name to the results of that suite.
type Results map[string]Suite

// Suite maps an implementation name to its per-case results.
type Suite map[string]Cases

// Cases maps a case name to a duration in milliseconds.
type Cases map[string]float64

// Suites is the closed set of suite names, in sorted order.
var Suites = []string{"hperft", "perft"}

// New returns an empty Results with every known suite present.
func New() Results {
	res := make(Results, len(Suites))
	for _, s := range Suites {
		res[s] = Suite{}
	}
	return res
}

// Set records ms as the result of id, replacing any earlier value.
func (res Results) Set(id benchjson.ID, ms float64) {
	s := res[id.Suite]
	if s == nil {
		s = Suite{}
		res[id.Suite] = s
	}
	cs := s[id.Impl]
	if cs == nil {
		cs = Cases{}
		s[id.Impl] = cs
	}
	cs[id.Case] = ms
}

// SuiteNames returns the names of the suites in res, sorted.
func (res Results) SuiteNames() []string {
	names := make([]string, 0, len(res))
	for name := range res {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the total number of values in res.
func (res Results) Len() int {
	n := 0
	for _, s := range res {
		for _, cs := range s {
			n += len(cs)
		}
	}
	return n
}

// Implementations returns the implementation names of s, sorted.
func (s Suite) Implementations() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Names returns the case names of cs, sorted.
func (cs Cases) Names() []string {
	names := make([]string, 0, len(cs))
	for name := range cs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// A DecodeError reports a benchmark-complete message that cannot be
// turned into a result.
type DecodeError struct {
	FileName string
	Line     int
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.FileName, e.Line, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// A SuiteError reports a suite name outside of Suites.
type SuiteError struct {
	Suite string
}

func (e *SuiteError) Error() string {
	return fmt.Sprintf("unknown suite %q (want one of %s)", e.Suite, strings.Join(Suites, ", "))
}

// CheckSuite returns a *SuiteError if name is not one of Suites.
func CheckSuite(name string) error {
	for _, s := range Suites {
		if s == name {
			return nil
		}
	}
	return &SuiteError{name}
}

// A ShapeError reports an implementation whose cases differ from
// the cases of the first implementation of its suite.
type ShapeError struct {
	Suite     string
	Impl      string   // implementation that disagrees
	Reference string   // implementation that defines the shape
	Missing   []string // cases of Reference that Impl lacks
	Extra     []string // cases of Impl that Reference lacks
}

func (e *ShapeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "suite %s: cases of %s differ from %s", e.Suite, e.Impl, e.Reference)
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, "; missing %s", strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		fmt.Fprintf(&b, "; extra %s", strings.Join(e.Extra, ", "))
	}
	return b.String()
}

// Shape returns the sorted case names shared by every implementation
// of the suite named name.
//
// The lexicographically first implementation defines the shape. Any
// other implementation that is missing a case, or has one more, is
// reported with a *ShapeError. Note that if the first implementation
// is itself incomplete, the others are checked against its
// incomplete set.
func (s Suite) Shape(name string) ([]string, error) {
	impls := s.Implementations()
	if len(impls) == 0 {
		return nil, nil
	}
	ref := impls[0]
	labels := s[ref].Names()
	for _, impl := range impls[1:] {
		cs := s[impl]
		var missing, extra []string
		for _, c := range labels {
			if _, ok := cs[c]; !ok {
				missing = append(missing, c)
			}
		}
		for _, c := range cs.Names() {
			if _, ok := s[ref][c]; !ok {
				extra = append(extra, c)
			}
		}
		if missing != nil || extra != nil {
			return nil, &ShapeError{Suite: name, Impl: impl, Reference: ref, Missing: missing, Extra: extra}
		}
	}
	return labels, nil
}

// Validate checks every suite of res with CheckSuite and Shape.
func (res Results) Validate() error {
	for _, name := range res.SuiteNames() {
		if err := CheckSuite(name); err != nil {
			return err
		}
		if _, err := res[name].Shape(name); err != nil {
			return err
		}
	}
	return nil
}

// Ingest reads all messages from r and aggregates the completed
// benchmarks into Results.
//
// Messages that are not benchmark-complete are skipped. The first
// malformed line, bad benchmark id or unexpected unit stops the
// ingestion, and Ingest returns that error with no results.
func Ingest(r *benchjson.Reader) (Results, error) {
	res := New()
	for r.Scan() {
		m := r.Message()
		if !m.Complete() {
			continue
		}
		if err := add(res, m); err != nil {
			name, line := r.Pos()
			return nil, &DecodeError{name, line, err}
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func add(res Results, m *benchjson.Message) error {
	id, err := benchjson.ParseID(m.ID)
	if err != nil {
		return err
	}
	if m.Mean == nil || m.Mean.Estimate == nil {
		return fmt.Errorf("benchmark %s: no mean estimate", m.ID)
	}
	ms, err := benchunit.ToMillis(*m.Mean.Estimate, m.Mean.Unit)
	if err != nil {
		return fmt.Errorf("benchmark %s: %w", m.ID, err)
	}
	res.Set(id, ms)
	return nil
}
