// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chart

// GroupWidth is the thickness, in axis units, of the group of bars
// drawn for one case.
const GroupWidth = 0.8

// A Layout places the bars of a suite chart.
//
// Case i is centered at axis position i. Its group of bars spans
// GroupWidth around that position and is split evenly between the
// implementations, so bars of one group never overlap and every
// group has the same geometry.
type Layout struct {
	Cases int // number of cases (groups)
	Impls int // number of implementations (bars per group)
}

// Width returns the thickness of a single bar.
func (l Layout) Width() float64 {
	if l.Impls == 0 {
		return 0
	}
	return GroupWidth / float64(l.Impls)
}

// Offset returns the distance from a case position to the center of
// the bar of implementation impl.
func (l Layout) Offset(impl int) float64 {
	return -GroupWidth/2 + (float64(impl)+0.5)*l.Width()
}

// Center returns the axis position of the center of the bar of
// implementation impl in the group of case c.
func (l Layout) Center(c, impl int) float64 {
	return float64(c) + l.Offset(impl)
}

// Range returns the extent of the category axis.
func (l Layout) Range() (min, max float64) {
	return -0.5, float64(l.Cases) - 0.5
}
