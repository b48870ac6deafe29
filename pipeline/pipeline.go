// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pipeline ties the chess-bench stages together: obtaining
// results, saving and archiving them, rendering charts and a report,
// and publishing.
//
// Every input comes from a Config; nothing is read from the process
// environment or the command line.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alex65536/chess-bench/chart"
	"github.com/alex65536/chess-bench/publish"
	"github.com/alex65536/chess-bench/report"
	"github.com/alex65536/chess-bench/results"
	"github.com/alex65536/chess-bench/runner"
	"github.com/alex65536/chess-bench/store"
)

// LatestRun selects the newest archived run as Config.FromRun.
const LatestRun = -1

// Config is the complete configuration of one pipeline run.
type Config struct {
	// DataFile is a results snapshot to load instead of running the
	// benchmarks.
	DataFile string

	// OutputFile, if set, receives a snapshot of the results.
	OutputFile string

	// ChartDir is the directory charts are written to. If empty, the
	// current directory is used.
	ChartDir string

	// Show opens the written charts. Opener overrides the platform
	// viewer.
	Show   bool
	Opener func(path string) error

	// Command overrides the benchmark command.
	Command []string
	// Dir is the working directory of the benchmark command.
	Dir string
	// Env holds extra environment variables for the command.
	Env []string
	// Stderr receives the benchmark command's standard error.
	Stderr io.Writer

	// ReportFile, if set, receives an HTML summary.
	ReportFile string

	// DBDriver and DBSource name a run archive. Results are archived
	// whenever an archive is configured, unless they came from it.
	DBDriver string
	DBSource string

	// FromRun loads results from the archive instead: a run ID, or
	// LatestRun. Zero disables it.
	FromRun int64

	Influx publish.Influx
	GCS    publish.GCS

	Logger *slog.Logger
}

// now is a hook for testing
var now = time.Now

// Run executes the pipeline described by cfg.
func Run(ctx context.Context, cfg *Config) (err error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	var db *store.DB
	if cfg.DBDriver != "" {
		db, err = store.OpenSQL(cfg.DBDriver, cfg.DBSource)
		if err != nil {
			return fmt.Errorf("opening %s archive: %w", cfg.DBDriver, err)
		}
		defer func() {
			if cerr := db.Close(); err == nil {
				err = cerr
			}
		}()
	} else if cfg.FromRun != 0 {
		return errors.New("loading an archived run requires a database")
	}

	res, archived, err := obtain(ctx, cfg, db, log)
	if err != nil {
		return err
	}
	at := now()
	if archived != nil {
		at = archived.Created
	}

	var artifacts []string
	if cfg.OutputFile != "" {
		if err := results.SaveFile(cfg.OutputFile, res); err != nil {
			return err
		}
		log.Info("saved results", "path", cfg.OutputFile)
		artifacts = append(artifacts, cfg.OutputFile)
	}

	if db != nil && archived == nil {
		run, err := db.InsertRun(ctx, res)
		if err != nil {
			return fmt.Errorf("archiving results: %w", err)
		}
		log.Info("archived results", "run", run.ID, "values", run.Values)
	}

	charts, err := chart.Render(res, chart.Options{
		Dir:    cfg.ChartDir,
		Show:   cfg.Show,
		Opener: cfg.Opener,
		Logger: log,
	})
	if err != nil {
		return err
	}
	artifacts = append(artifacts, charts...)

	if cfg.ReportFile != "" {
		if err := writeReport(cfg, res); err != nil {
			return err
		}
		log.Info("wrote report", "path", cfg.ReportFile)
		artifacts = append(artifacts, cfg.ReportFile)
	}

	if cfg.Influx.Enabled() {
		if err := cfg.Influx.Publish(ctx, res, at); err != nil {
			return err
		}
		log.Info("published results", "url", cfg.Influx.URL, "bucket", cfg.Influx.Bucket)
	}

	if cfg.GCS.Enabled() {
		if err := cfg.GCS.Upload(ctx, artifacts); err != nil {
			return err
		}
		log.Info("uploaded artifacts", "bucket", cfg.GCS.Bucket, "files", len(artifacts))
	}
	return nil
}

// obtain returns the results to work on. When they come from the
// archive, the archived run is returned too.
func obtain(ctx context.Context, cfg *Config, db *store.DB, log *slog.Logger) (results.Results, *store.Run, error) {
	switch {
	case cfg.FromRun != 0:
		run, err := findRun(ctx, db, cfg.FromRun)
		if err != nil {
			return nil, nil, err
		}
		res, err := db.LoadRun(ctx, run.ID)
		if err != nil {
			return nil, nil, err
		}
		log.Info("loaded archived results", "run", run.ID, "created", run.Created)
		return res, run, nil

	case cfg.DataFile != "":
		res, err := results.LoadFile(cfg.DataFile)
		if err != nil {
			return nil, nil, err
		}
		log.Info("loaded results", "path", cfg.DataFile)
		return res, nil, nil

	default:
		r := &runner.Runner{
			Command: cfg.Command,
			Dir:     cfg.Dir,
			Env:     cfg.Env,
			Stderr:  cfg.Stderr,
			Logger:  log,
		}
		res, err := r.Run(ctx)
		if err != nil {
			return nil, nil, err
		}
		return res, nil, nil
	}
}

func findRun(ctx context.Context, db *store.DB, id int64) (*store.Run, error) {
	if id == LatestRun {
		return db.LatestRun(ctx)
	}
	runs, err := db.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range runs {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("run %d: %w", id, store.ErrNotFound)
}

func writeReport(cfg *Config, res results.Results) (err error) {
	chartDir := cfg.ChartDir
	if chartDir == "" {
		chartDir = "."
	}
	if rel, err := filepath.Rel(filepath.Dir(cfg.ReportFile), chartDir); err == nil {
		chartDir = rel
	}

	f, err := os.Create(cfg.ReportFile)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return report.Write(f, res, report.Options{ChartDir: filepath.ToSlash(chartDir)})
}
