// /home/krylon/go/src/github.com/blicero/pillbox/objects/history.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-14 17:58:40 krylon>

package objects

import (
	"fmt"
	"time"

	"github.com/blicero/pillbox/objects/action"
)

//go:generate ffjson history.go

// HistoryRecord is the ledger entry for one scheduled dose.
// There is at most one per (MedicationID, Scheduled).
type HistoryRecord struct {
	ID             int64
	UUID           string
	MedicationID   int64
	ProfileID      int64
	MedicationName string
	Scheduled      time.Time
	Taken          time.Time
	OnTime         bool
	Action         action.Action
}

// Slot returns the scheduled time at the granularity the ledger uses.
func (r *HistoryRecord) Slot() time.Time {
	return r.Scheduled.Truncate(time.Minute)
} // func (r *HistoryRecord) Slot() time.Time

func (r *HistoryRecord) String() string {
	return fmt.Sprintf("HistoryRecord{ Medication: %d (%q), Scheduled: %s, Action: %s }",
		r.MedicationID,
		r.MedicationName,
		r.Scheduled.Format("2006-01-02 15:04"),
		r.Action)
} // func (r *HistoryRecord) String() string
