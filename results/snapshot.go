// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package results

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Load reads a snapshot written by Save. The snapshot already has the
// shape of Results, so no ingestion or validation takes place.
func Load(r io.Reader) (Results, error) {
	var res Results
	dec := json.NewDecoder(r)
	if err := dec.Decode(&res); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("decoding snapshot: data after the top-level object")
	}
	if res == nil {
		res = Results{}
	}
	return res, nil
}

// Save writes res to w as an indented JSON snapshot.
func Save(w io.Writer, res Results) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// LoadFile reads a snapshot from the named file.
func LoadFile(path string) (Results, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	res, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// SaveFile writes a snapshot of res to the named file, replacing
// any existing file.
func SaveFile(path string, res Results) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Save(f, res)
}
