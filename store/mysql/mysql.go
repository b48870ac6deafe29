// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mysql registers the mysql driver with the run archive.
// Import it for its side effects.
package mysql

import (
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/alex65536/chess-bench/store"
)

func init() {
	store.RegisterOpenHook("mysql", func(db *sql.DB) error {
		// MySQL closes idle connections on its own schedule.
		db.SetConnMaxLifetime(3 * time.Minute)
		return db.Ping()
	})
}
