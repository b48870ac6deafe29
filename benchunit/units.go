// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchunit normalizes benchmark durations and formats them
// for display.
package benchunit

import (
	"fmt"
	"strconv"
)

// nsPerMs is the number of nanoseconds in a millisecond.
const nsPerMs = 1_000_000

// A UnitError reports an estimate in a unit other than nanoseconds.
type UnitError struct {
	Unit string
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("unexpected unit %q (want nanoseconds)", e.Unit)
}

// IsNanoseconds reports whether unit names nanoseconds. Criterion
// spells it "ns"; "nanoseconds" is accepted as well.
func IsNanoseconds(unit string) bool {
	return unit == "ns" || unit == "nanoseconds"
}

// ToMillis converts a duration estimate in the given unit to
// milliseconds. Only nanoseconds are supported; there is no table
// of other units to convert from.
func ToMillis(estimate float64, unit string) (float64, error) {
	if !IsNanoseconds(unit) {
		return 0, &UnitError{unit}
	}
	return estimate / nsPerMs, nil
}

// Label formats a duration in milliseconds as a bar label, using
// the shortest representation with at most six significant digits.
func Label(ms float64) string {
	return strconv.FormatFloat(ms, 'g', 6, 64)
}
