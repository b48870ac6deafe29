// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alex65536/chess-bench/publish"
	"github.com/alex65536/chess-bench/results"
	"github.com/alex65536/chess-bench/store"
	_ "github.com/alex65536/chess-bench/store/sqlite3"
)

const snapshot = `{
  "perft": {
    "fast": {"kiwipete": 7.5, "startpos": 5},
    "slow": {"kiwipete": 11.5, "startpos": 9}
  }
}
`

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func setNow(t *testing.T, at time.Time) {
	old := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = old })
}

func writeSnapshot(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "in.json")
	require.NoError(t, os.WriteFile(path, []byte(snapshot), 0o666))
	return path
}

func countRuns(t *testing.T, source string) int {
	t.Helper()
	db, err := store.OpenSQL("sqlite3", source)
	require.NoError(t, err)
	defer db.Close()
	n, err := db.CountRuns()
	require.NoError(t, err)
	return n
}

func TestRunFromDataFile(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		DataFile:   writeSnapshot(t, dir),
		OutputFile: filepath.Join(dir, "out.json"),
		ChartDir:   filepath.Join(dir, "charts"),
		ReportFile: filepath.Join(dir, "index.html"),
		DBDriver:   "sqlite3",
		DBSource:   filepath.Join(dir, "runs.db"),
		Logger:     quiet,
	}
	require.NoError(t, os.Mkdir(cfg.ChartDir, 0o777))
	require.NoError(t, Run(context.Background(), cfg))

	assert.FileExists(t, filepath.Join(cfg.ChartDir, "perft.svg"))
	assert.NoFileExists(t, filepath.Join(cfg.ChartDir, "hperft.svg"))

	in, err := results.LoadFile(cfg.DataFile)
	require.NoError(t, err)
	out, err := results.LoadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	page, err := os.ReadFile(cfg.ReportFile)
	require.NoError(t, err)
	assert.Contains(t, string(page), `<img src="charts/perft.svg"`)

	assert.Equal(t, 1, countRuns(t, cfg.DBSource))
}

func TestRunFromArchive(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "runs.db")
	require.NoError(t, Run(context.Background(), &Config{
		DataFile: writeSnapshot(t, dir),
		ChartDir: dir,
		DBDriver: "sqlite3",
		DBSource: source,
		Logger:   quiet,
	}))

	for _, from := range []int64{LatestRun, 1} {
		t.Run(fmt.Sprint(from), func(t *testing.T) {
			cfg := &Config{
				OutputFile: filepath.Join(dir, "archived.json"),
				ChartDir:   dir,
				DBDriver:   "sqlite3",
				DBSource:   source,
				FromRun:    from,
				Logger:     quiet,
			}
			require.NoError(t, Run(context.Background(), cfg))
			out, err := results.LoadFile(cfg.OutputFile)
			require.NoError(t, err)
			assert.Equal(t, results.Cases{"kiwipete": 7.5, "startpos": 5}, out["perft"]["fast"])
			// Loading from the archive does not archive again.
			assert.Equal(t, 1, countRuns(t, source))
		})
	}
}

func TestRunFromMissingRun(t *testing.T) {
	dir := t.TempDir()
	err := Run(context.Background(), &Config{
		ChartDir: dir,
		DBDriver: "sqlite3",
		DBSource: filepath.Join(dir, "runs.db"),
		FromRun:  42,
		Logger:   quiet,
	})
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
}

func TestRunFromRunWithoutDB(t *testing.T) {
	err := Run(context.Background(), &Config{FromRun: LatestRun, Logger: quiet})
	assert.Error(t, err)
}

// TestHelperProcess is not a real test. It stands in for the benchmark
// command when run as a subprocess.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("CHESSBENCH_WANT_HELPER_PROCESS") != "1" {
		return
	}
	for _, line := range []string{
		`{"reason":"benchmark-complete","id":"perft/startpos/fast","mean":{"estimate":5000000,"unit":"ns"}}`,
		`{"reason":"benchmark-complete","id":"perft/startpos/slow","mean":{"estimate":9000000,"unit":"ns"}}`,
		`{"reason":"group-complete","group_name":"perft"}`,
	} {
		fmt.Println(line)
	}
	if done := os.Getenv("CHESSBENCH_HELPER_DONE"); done != "" {
		os.WriteFile(done, nil, 0o666)
	}
	os.Exit(0)
}

func TestRunBenchmarks(t *testing.T) {
	dir := t.TempDir()
	var shown []string
	cfg := &Config{
		Command:    []string{os.Args[0], "-test.run=^TestHelperProcess$"},
		Env:        []string{"CHESSBENCH_WANT_HELPER_PROCESS=1"},
		Stderr:     new(bytes.Buffer),
		OutputFile: filepath.Join(dir, "out.json"),
		ChartDir:   dir,
		Show:       true,
		Opener: func(path string) error {
			shown = append(shown, path)
			return nil
		},
		Logger: quiet,
	}
	require.NoError(t, Run(context.Background(), cfg))

	out, err := results.LoadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, results.Suite{
		"fast": results.Cases{"startpos": 5},
		"slow": results.Cases{"startpos": 9},
	}, out["perft"])
	assert.Equal(t, []string{filepath.Join(dir, "perft.svg")}, shown)
}

func TestRunShapeMismatch(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "in.json")
	require.NoError(t, os.WriteFile(data, []byte(`{"perft": {"a": {"x": 1, "y": 2}, "b": {"x": 3}}}`), 0o666))
	err := Run(context.Background(), &Config{
		DataFile:   data,
		ChartDir:   dir,
		ReportFile: filepath.Join(dir, "index.html"),
		Logger:     quiet,
	})
	var se *results.ShapeError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.NoFileExists(t, filepath.Join(dir, "perft.svg"))
	assert.NoFileExists(t, filepath.Join(dir, "index.html"))
}

func TestRunPublishInflux(t *testing.T) {
	setNow(t, time.Unix(1700000000, 0))

	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	dir := t.TempDir()
	require.NoError(t, Run(context.Background(), &Config{
		DataFile: writeSnapshot(t, dir),
		ChartDir: dir,
		Influx:   publish.Influx{URL: srv.URL, Org: "chess", Bucket: "bench"},
		Logger:   quiet,
	}))
	assert.Contains(t, string(body), "perft,case=startpos,impl=fast ms=5 1700000000000000000")
}

func TestRunStampsFinishedBenchmarks(t *testing.T) {
	dir := t.TempDir()
	done := filepath.Join(dir, "done")
	started, finished := time.Unix(1700000000, 0), time.Unix(1700003600, 0)
	old := now
	now = func() time.Time {
		if _, err := os.Stat(done); err == nil {
			return finished
		}
		return started
	}
	t.Cleanup(func() { now = old })

	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, Run(context.Background(), &Config{
		Command:  []string{os.Args[0], "-test.run=^TestHelperProcess$"},
		Env:      []string{"CHESSBENCH_WANT_HELPER_PROCESS=1", "CHESSBENCH_HELPER_DONE=" + done},
		Stderr:   new(bytes.Buffer),
		ChartDir: dir,
		Influx:   publish.Influx{URL: srv.URL, Org: "chess", Bucket: "bench"},
		Logger:   quiet,
	}))
	assert.Contains(t, string(body), "perft,case=startpos,impl=fast ms=5 1700003600000000000")
}
