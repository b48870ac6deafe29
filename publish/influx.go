// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package publish sends aggregated benchmark results and the
// artifacts rendered from them to external services.
package publish

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/alex65536/chess-bench/results"
)

// Influx describes an InfluxDB v2 bucket to write results into.
type Influx struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Enabled reports whether an InfluxDB server is configured.
func (in Influx) Enabled() bool {
	return in.URL != ""
}

// Points converts res to InfluxDB points, all at time at.
//
// Every value becomes one point whose measurement is the suite name,
// tagged with the implementation and the case, with the duration in
// the "ms" field.
func Points(res results.Results, at time.Time) []*write.Point {
	var pts []*write.Point
	for _, name := range res.SuiteNames() {
		s := res[name]
		for _, impl := range s.Implementations() {
			cs := s[impl]
			for _, c := range cs.Names() {
				pts = append(pts, influxdb2.NewPoint(name,
					map[string]string{"impl": impl, "case": c},
					map[string]interface{}{"ms": cs[c]},
					at))
			}
		}
	}
	return pts
}

// Publish writes res to the bucket.
func (in Influx) Publish(ctx context.Context, res results.Results, at time.Time) error {
	pts := Points(res, at)
	if len(pts) == 0 {
		return nil
	}
	client := influxdb2.NewClient(in.URL, in.Token)
	defer client.Close()
	w := client.WriteAPIBlocking(in.Org, in.Bucket)
	if err := w.WritePoint(ctx, pts...); err != nil {
		return fmt.Errorf("writing to influxdb %s: %w", in.URL, err)
	}
	return nil
}
