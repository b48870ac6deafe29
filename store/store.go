// Copyright 2016 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package store archives aggregated benchmark results in a SQL
// database, one run at a time.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/alex65536/chess-bench/benchjson"
	"github.com/alex65536/chess-bench/results"
)

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("run not found")

// DB is a high-level interface to the run archive. It's safe for
// concurrent use by multiple goroutines.
type DB struct {
	sql *sql.DB // underlying database connection
	// prepared statements
	insertRun    *sql.Stmt
	insertResult *sql.Stmt
}

// OpenSQL creates a DB backed by a SQL database. The parameters are
// the same as the parameters for sql.Open. Only mysql and sqlite3 are
// explicitly supported; other database engines will receive MySQL
// query syntax which may or may not be compatible.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db); err != nil {
			db.Close()
			return nil, err
		}
	}
	d := &DB{sql: db}
	if err := d.createTables(driverName); err != nil {
		db.Close()
		return nil, err
	}
	if err := d.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

var openHooks = make(map[string]func(*sql.DB) error)

// RegisterOpenHook registers a hook to be called after opening a connection to driverName.
// This is used by the sqlite3 package to configure its connections.
// It must be called from an init function.
func RegisterOpenHook(driverName string, hook func(*sql.DB) error) {
	openHooks[driverName] = hook
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Runs (
	RunID {{if .sqlite3}}INTEGER PRIMARY KEY AUTOINCREMENT{{else}}SERIAL PRIMARY KEY AUTO_INCREMENT{{end}},
	Created BIGINT NOT NULL
);
CREATE TABLE IF NOT EXISTS Results (
	RunID BIGINT UNSIGNED,
	Suite VARCHAR(255),
	Impl VARCHAR(255),
	CaseName VARCHAR(255),
	Millis DOUBLE,
	PRIMARY KEY (RunID, Suite, Impl, CaseName),
	FOREIGN KEY (RunID) REFERENCES Runs(RunID) ON UPDATE CASCADE ON DELETE CASCADE
);
`))

// createTables creates any missing tables on the connection in
// db.sql. driverName is the same driver name passed to sql.Open and
// is used to select the correct syntax.
func (db *DB) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

// prepareStatements calls db.sql.Prepare on reusable SQL statements.
func (db *DB) prepareStatements() error {
	var err error
	db.insertRun, err = db.sql.Prepare("INSERT INTO Runs(Created) VALUES (?)")
	if err != nil {
		return err
	}
	db.insertResult, err = db.sql.Prepare("INSERT INTO Results(RunID, Suite, Impl, CaseName, Millis) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	return nil
}

// now is a hook for testing
var now = time.Now

// A Run is one archived set of results.
type Run struct {
	ID      int64
	Created time.Time
	// Values is the number of results in the run.
	Values int
}

// InsertRun stores res as a new run.
func (db *DB) InsertRun(ctx context.Context, res results.Results) (run *Run, err error) {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	created := now().UTC().Truncate(time.Second)
	r, err := tx.StmtContext(ctx, db.insertRun).ExecContext(ctx, created.Unix())
	if err != nil {
		return nil, err
	}
	id, err := r.LastInsertId()
	if err != nil {
		return nil, err
	}
	run = &Run{ID: id, Created: created}

	stmt := tx.StmtContext(ctx, db.insertResult)
	for _, suite := range res.SuiteNames() {
		s := res[suite]
		for _, impl := range s.Implementations() {
			for _, c := range s[impl].Names() {
				if _, err := stmt.ExecContext(ctx, id, suite, impl, c, s[impl][c]); err != nil {
					return nil, err
				}
				run.Values++
			}
		}
	}
	return run, nil
}

// LoadRun returns the results stored under run id.
func (db *DB) LoadRun(ctx context.Context, id int64) (results.Results, error) {
	var created int64
	err := db.sql.QueryRowContext(ctx, "SELECT Created FROM Runs WHERE RunID = ?", id).Scan(&created)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d: %w", id, ErrNotFound)
	} else if err != nil {
		return nil, err
	}

	rows, err := db.sql.QueryContext(ctx, "SELECT Suite, Impl, CaseName, Millis FROM Results WHERE RunID = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := results.New()
	for rows.Next() {
		var id benchjson.ID
		var ms float64
		if err := rows.Scan(&id.Suite, &id.Impl, &id.Case, &ms); err != nil {
			return nil, err
		}
		res.Set(id, ms)
	}
	return res, rows.Err()
}

const runsQuery = `SELECT r.RunID, r.Created, COUNT(v.RunID) FROM Runs r
LEFT JOIN Results v ON r.RunID = v.RunID
GROUP BY r.RunID, r.Created
ORDER BY r.RunID DESC`

// LatestRun returns the most recently inserted run.
func (db *DB) LatestRun(ctx context.Context) (*Run, error) {
	runs, err := db.queryRuns(ctx, runsQuery+" LIMIT 1")
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNotFound
	}
	return runs[0], nil
}

// ListRuns returns all runs, newest first.
func (db *DB) ListRuns(ctx context.Context) ([]*Run, error) {
	return db.queryRuns(ctx, runsQuery)
}

func (db *DB) queryRuns(ctx context.Context, q string) ([]*Run, error) {
	rows, err := db.sql.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []*Run
	for rows.Next() {
		var r Run
		var created int64
		if err := rows.Scan(&r.ID, &created, &r.Values); err != nil {
			return nil, err
		}
		r.Created = time.Unix(created, 0).UTC()
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// CountRuns returns the number of runs in the archive.
func (db *DB) CountRuns() (int, error) {
	var n int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM Runs").Scan(&n)
	return n, err
}

// Close closes the database connections, releasing any open resources.
func (db *DB) Close() error {
	if err := db.insertRun.Close(); err != nil {
		return err
	}
	if err := db.insertResult.Close(); err != nil {
		return err
	}
	return db.sql.Close()
}
