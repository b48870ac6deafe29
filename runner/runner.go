// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runner runs the criterion benchmarks and aggregates their
// results as they are reported.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/alex65536/chess-bench/benchjson"
	"github.com/alex65536/chess-bench/results"
)

// DefaultCommand runs every benchmark of the crate and reports the
// results as JSON messages on standard output.
var DefaultCommand = []string{"cargo", "criterion", "--message-format", "json"}

// A Runner runs a benchmark command.
type Runner struct {
	// Command is the benchmark command and its arguments. If empty,
	// DefaultCommand is used.
	Command []string

	// Dir is the working directory of the command. If empty, the
	// current directory is used.
	Dir string

	// Env holds extra environment variables for the command.
	Env []string

	// Stderr receives the standard error of the command, which is
	// not interpreted. If nil, os.Stderr is used.
	Stderr io.Writer

	Logger *slog.Logger
}

// An ExitError reports a benchmark command that exited unsuccessfully
// after its output was fully read.
type ExitError struct {
	Command string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: exited with code %d", e.Command, e.Code)
}

// Run starts the benchmark command and ingests its standard output,
// line by line, until the stream ends. It then waits for the command
// and reports a non-zero exit status as an *ExitError.
//
// If ingestion fails, the command is killed and the ingestion error
// is returned.
func (r *Runner) Run(ctx context.Context) (results.Results, error) {
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}
	argv := r.Command
	if len(argv) == 0 {
		argv = DefaultCommand
	}
	name := strings.Join(argv, " ")

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	cmd.Stderr = r.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	log.Info("running benchmarks", "command", name, "dir", r.Dir)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", name, err)
	}

	res, err := results.Ingest(benchjson.NewReader(stdout, name))
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return nil, err
	}

	if err := cmd.Wait(); err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return nil, &ExitError{Command: name, Code: ee.ExitCode()}
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	log.Info("benchmarks finished", "results", res.Len(), "elapsed", time.Since(start).Round(time.Millisecond))
	return res, nil
}
