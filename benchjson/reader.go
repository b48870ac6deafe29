// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchjson reads the line-oriented JSON messages emitted by
// "cargo criterion --message-format json".
//
// Each line of input is one self-contained message. Only messages
// whose reason is "benchmark-complete" carry timing data; all other
// messages describe other events of the benchmark run and are
// returned to the caller unchanged.
package benchjson

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// ReasonBenchmarkComplete is the reason of messages that carry the
// result of a finished benchmark.
const ReasonBenchmarkComplete = "benchmark-complete"

// A Message is one decoded line of criterion output.
type Message struct {
	Reason string    `json:"reason"`
	ID     string    `json:"id"`
	Mean   *Estimate `json:"mean,omitempty"`
}

// Complete reports whether m is a benchmark-complete message.
func (m *Message) Complete() bool {
	return m.Reason == ReasonBenchmarkComplete
}

// An Estimate is a point estimate with its confidence interval.
//
// Estimate is nil when the message has no estimate.
type Estimate struct {
	Estimate   *float64 `json:"estimate"`
	LowerBound float64  `json:"lower_bound"`
	UpperBound float64  `json:"upper_bound"`
	Unit       string   `json:"unit"`
}

// A Reader reads criterion messages, one per line.
//
// Its API is modeled on bufio.Scanner. The Message returned by
// Message is only valid until the next call to Scan.
type Reader struct {
	s        *bufio.Scanner
	fileName string
	line     int
	msg      Message
	err      error
}

// A SyntaxError represents a line of input that could not be decoded.
type SyntaxError struct {
	FileName string
	Line     int
	Msg      string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.FileName, e.Line, e.Msg)
}

// maxLine bounds the length of a single message. Criterion messages
// embed the full throughput and change records, so they can be long.
const maxLine = 4 << 20

// NewReader constructs a reader to decode messages from r.
// fileName is used in error messages; it is purely diagnostic.
func NewReader(r io.Reader, fileName string) *Reader {
	if fileName == "" {
		fileName = "<unknown>"
	}
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64<<10), maxLine)
	return &Reader{s: s, fileName: fileName}
}

// Scan advances the reader to the next message and reports whether
// one was read. If Scan reaches EOF, hits an I/O error, or meets a
// line that is not a JSON object, it returns false, and the caller
// should use Err to tell these apart. Blank lines are malformed too.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	for r.s.Scan() {
		r.line++
		line := bytes.TrimSpace(r.s.Bytes())
		if len(line) == 0 || line[0] != '{' {
			r.err = r.newSyntaxError("expected a JSON object")
			return false
		}
		r.msg = Message{}
		if err := json.Unmarshal(line, &r.msg); err != nil {
			r.err = r.newSyntaxError(err.Error())
			return false
		}
		return true
	}
	if err := r.s.Err(); err != nil {
		r.err = fmt.Errorf("%s:%d: %w", r.fileName, r.line+1, err)
	}
	return false
}

// Message returns the message read by the last successful call to Scan.
func (r *Reader) Message() *Message {
	return &r.msg
}

// Pos returns the file name and the line number of the current message.
func (r *Reader) Pos() (fileName string, line int) {
	return r.fileName, r.line
}

// Err returns the first error encountered by the Reader, or nil if
// the input was read to EOF without problems.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) newSyntaxError(msg string) *SyntaxError {
	return &SyntaxError{r.fileName, r.line, msg}
}
