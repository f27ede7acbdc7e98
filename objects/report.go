// /home/krylon/go/src/github.com/blicero/pillbox/objects/report.go
// -*- mode: go; coding: utf-8; -*-
// Created on 13. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-14 22:05:37 krylon>

package objects

import (
	"fmt"
	"time"
)

//go:generate ffjson report.go

// Report summarizes one reconciliation pass.
type Report struct {
	Started     time.Time
	Finished    time.Time
	GapStart    time.Time // zero if there was no checkpoint
	Medications int       // medications scanned
	Missed      int       // MISSED rows written
	Dropped     int       // pending entries of deleted medications, or duplicates
	Stale       int       // pending entries that went stale
	Errors      []string  // per-medication problems that did not abort the pass
	Error       string    // why the pass was aborted, if it was
}

// OK returns true if the pass ran to completion.
func (r *Report) OK() bool {
	return r.Error == ""
} // func (r *Report) OK() bool

func (r *Report) String() string {
	if !r.OK() {
		return fmt.Sprintf("Report{ aborted after %s: %s }",
			r.Finished.Sub(r.Started),
			r.Error)
	}

	return fmt.Sprintf("Report{ Medications: %d, Missed: %d, Dropped: %d, Stale: %d, Errors: %d, Duration: %s }",
		r.Medications,
		r.Missed,
		r.Dropped,
		r.Stale,
		len(r.Errors),
		r.Finished.Sub(r.Started))
} // func (r *Report) String() string
