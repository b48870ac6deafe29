// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchjson

import (
	"fmt"
	"strings"
)

// An ID identifies one benchmark: an implementation measured on one
// case of a suite. Criterion spells it "suite/case/impl".
type ID struct {
	Suite, Case, Impl string
}

func (id ID) String() string {
	return id.Suite + "/" + id.Case + "/" + id.Impl
}

// An IDError reports a benchmark ID that is not a suite/case/impl triple.
type IDError struct {
	ID  string
	Msg string
}

func (e *IDError) Error() string {
	return fmt.Sprintf("bad benchmark id %q: %s", e.ID, e.Msg)
}

// ParseID splits s into its suite, case and implementation.
func ParseID(s string) (ID, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return ID{}, &IDError{s, fmt.Sprintf("want 3 components, got %d", len(parts))}
	}
	for _, p := range parts {
		if p == "" {
			return ID{}, &IDError{s, "empty component"}
		}
	}
	return ID{Suite: parts[0], Case: parts[1], Impl: parts[2]}, nil
}
