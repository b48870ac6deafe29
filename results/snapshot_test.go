// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package results

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex65536/chess-bench/internal/diff"
)

func sample() Results {
	return Results{
		"perft": Suite{
			"chess":     Cases{"kiwipete": 81.25, "startpos": 40.5},
			"owlchess":  Cases{"kiwipete": 31.125, "startpos": 12.75},
			"shakmaty":  Cases{"kiwipete": 22.5, "startpos": 10},
			"cozychess": Cases{"kiwipete": 20.0625, "startpos": 9.5},
		},
		"hperft": Suite{
			"owlchess": Cases{"startpos": 1.5e-3},
		},
	}
}

const sampleSnapshot = `{
  "hperft": {
    "owlchess": {
      "startpos": 0.0015
    }
  },
  "perft": {
    "chess": {
      "kiwipete": 81.25,
      "startpos": 40.5
    },
    "cozychess": {
      "kiwipete": 20.0625,
      "startpos": 9.5
    },
    "owlchess": {
      "kiwipete": 31.125,
      "startpos": 12.75
    },
    "shakmaty": {
      "kiwipete": 22.5,
      "startpos": 10
    }
  }
}
`

func TestSave(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, sample()))
	if d := diff.Diff(sampleSnapshot, buf.String()); d != "" {
		t.Errorf("snapshot differs:\n%s", d)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, res := range []Results{sample(), New(), {}} {
		var buf bytes.Buffer
		require.NoError(t, Save(&buf, res))
		got, err := Load(&buf)
		require.NoError(t, err)
		assert.Equal(t, res, got)
	}
}

func TestRoundTripIngested(t *testing.T) {
	res, err := ingest(
		complete("perft/startpos/fast", 1234567, "ns"),
		complete("perft/startpos/slow", 7654321, "ns"),
		complete("hperft/kiwipete/fast", 1, "ns"),
	)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "snap.json")
	require.NoError(t, SaveFile(path, res))
	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, res, got)
}

func TestLoadBypassesValidation(t *testing.T) {
	// Snapshots are trusted verbatim; problems surface at render time.
	res, err := Load(strings.NewReader(`{"perft":{"fast":{"a":1,"b":2},"slow":{"a":3}},"qperft":{}}`))
	require.NoError(t, err)
	assert.Equal(t, 2.0, res["perft"]["fast"]["b"])
	assert.Error(t, res.Validate())
}

func TestLoadTrailingSpace(t *testing.T) {
	res, err := Load(strings.NewReader("{\"perft\":{\"fast\":{\"a\":1}}}\n\n  "))
	require.NoError(t, err)
	assert.Equal(t, 1.0, res["perft"]["fast"]["a"])
}

func TestLoadErrors(t *testing.T) {
	for _, in := range []string{``, `[1,2]`, `{"perft":{"fast":{"a":"x"}}}`, `{"perft":`, `{} junk`, `{}{}`, `{"perft":{}} }`} {
		_, err := Load(strings.NewReader(in))
		assert.Error(t, err, "input %q", in)
	}
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
