// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Chessbench runs the chess move generator benchmarks and draws one
// comparison chart per suite.
//
// Usage:
//
//	chessbench [flags] [-- command args...]
//
// Without -d, chessbench runs ``cargo criterion --message-format json''
// (or the command given after --) and aggregates the mean time of every
// completed benchmark. The results are grouped by suite, implementation
// and case, converted to milliseconds, and drawn as horizontal bar charts
// named <suite>.svg.
//
// Results can also be saved to and loaded from a JSON snapshot (-o, -d),
// archived in a SQL database (--db-driver, --db, --from-run), summarized
// as an HTML page (--report), written to InfluxDB (--influx-*), and
// uploaded to Google Cloud Storage (--gcs-*).
//
// Every flag may also be set with an environment variable named after
// the flag with a CHESSBENCH_ prefix, such as CHESSBENCH_DATA_FILE, or
// in a YAML file given by --config.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alex65536/chess-bench/pipeline"
	"github.com/alex65536/chess-bench/publish"
	_ "github.com/alex65536/chess-bench/store/mysql"
	_ "github.com/alex65536/chess-bench/store/sqlite3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd, err := newRootCmd(viper.New())
	if err == nil {
		err = cmd.ExecuteContext(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "chessbench: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:           "chessbench [flags] [-- command args...]",
		Short:         "Benchmark chess move generators and chart the results",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(v); err != nil {
				return err
			}
			cfg := buildConfig(v, args)
			cfg.Logger = newLogger(cmd.ErrOrStderr(), v.GetBool("verbose"))
			cfg.Stderr = cmd.ErrOrStderr()
			return pipeline.Run(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.String("config", "", "read settings from YAML `file`")
	f.BoolP("verbose", "v", false, "print debug log messages")

	f.StringP("data-file", "d", "", "load results from snapshot `file` instead of running benchmarks")
	f.StringP("output-file", "o", "", "save results to snapshot `file`")
	f.String("chart-dir", "", "write charts into `dir` (default current directory)")
	f.BoolP("show", "s", false, "open the charts once they are written")
	f.String("report", "", "write an HTML summary to `file`")

	f.String("db-driver", "", "archive results in a sqlite3 or mysql database")
	f.String("db", "", "database data source `name`")
	f.Int64("from-run", 0, "load results from archived run `id` instead (-1 for the latest)")

	f.String("influx-url", "", "write results to the InfluxDB server at `url`")
	f.String("influx-token", "", "InfluxDB API token")
	f.String("influx-org", "", "InfluxDB organization")
	f.String("influx-bucket", "", "InfluxDB bucket")

	f.String("gcs-bucket", "", "upload snapshot, charts and report to Cloud Storage `bucket`")
	f.String("gcs-prefix", "", "object name prefix in the bucket")
	f.String("gcs-token", "", "OAuth2 access token for Cloud Storage (default application credentials)")

	if err := v.BindPFlags(f); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}
	v.SetEnvPrefix("CHESSBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return cmd, nil
}

// loadConfig reads the config file, if one is named.
func loadConfig(v *viper.Viper) error {
	file := v.GetString("config")
	if file == "" {
		return nil
	}
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// buildConfig turns the settings in v into a pipeline configuration.
// Non-empty args replace the benchmark command.
func buildConfig(v *viper.Viper, args []string) *pipeline.Config {
	cfg := &pipeline.Config{
		DataFile:   v.GetString("data-file"),
		OutputFile: v.GetString("output-file"),
		ChartDir:   v.GetString("chart-dir"),
		Show:       v.GetBool("show"),
		Command:    v.GetStringSlice("command"),
		ReportFile: v.GetString("report"),
		DBDriver:   v.GetString("db-driver"),
		DBSource:   v.GetString("db"),
		FromRun:    v.GetInt64("from-run"),
		Influx: publish.Influx{
			URL:    v.GetString("influx-url"),
			Token:  v.GetString("influx-token"),
			Org:    v.GetString("influx-org"),
			Bucket: v.GetString("influx-bucket"),
		},
		GCS: publish.GCS{
			Bucket: v.GetString("gcs-bucket"),
			Prefix: v.GetString("gcs-prefix"),
			Token:  v.GetString("gcs-token"),
		},
	}
	if len(args) > 0 {
		cfg.Command = args
	}
	return cfg
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
