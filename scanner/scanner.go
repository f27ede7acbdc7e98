// /home/krylon/go/src/github.com/blicero/pillbox/scanner/scanner.go
// -*- mode: go; coding: utf-8; -*-
// Created on 13. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-15 11:47:03 krylon>

// Package scanner finds the scheduled doses that came due during a period
// of time without anything being recorded for them.
//
// The scan walks real calendar days in the location of the window start, so
// entries shortly before and after midnight, weekly entries and days with a
// DST transition need no special treatment.
package scanner

import (
	"sort"
	"time"

	"github.com/blicero/pillbox/objects"
)

// Occurrence is one concrete instant a ScheduleEntry was due.
type Occurrence struct {
	MedicationID int64
	Timestamp    time.Time
	Hour         int
	Minute       int
}

// slot identifies a calendar minute in a given location.
type slot struct {
	year   int
	month  time.Month
	day    int
	hour   int
	minute int
}

func slotOf(t time.Time) slot {
	var y, m, d = t.Date()

	return slot{
		year:   y,
		month:  m,
		day:    d,
		hour:   t.Hour(),
		minute: t.Minute(),
	}
} // func slotOf(t time.Time) slot

// Index is a set of the calendar minutes a medication already has history
// for. Seconds are ignored.
type Index struct {
	loc   *time.Location
	slots map[slot]struct{}
}

// NewIndex builds an Index over the history records of one medication,
// evaluated in loc. Records of other medications are ignored.
func NewIndex(medID int64, history []objects.HistoryRecord, loc *time.Location) *Index {
	var idx = &Index{
		loc:   loc,
		slots: make(map[slot]struct{}, len(history)),
	}

	for i := range history {
		if history[i].MedicationID != medID {
			continue
		}

		idx.slots[slotOf(history[i].Scheduled.In(loc))] = struct{}{}
	}

	return idx
} // func NewIndex(medID int64, history []objects.HistoryRecord, loc *time.Location) *Index

// Has returns true if there is a record for the calendar minute of t.
func (idx *Index) Has(t time.Time) bool {
	var _, ok = idx.slots[slotOf(t.In(idx.loc))]
	return ok
} // func (idx *Index) Has(t time.Time) bool

// Add marks the calendar minute of t as recorded.
func (idx *Index) Add(t time.Time) {
	idx.slots[slotOf(t.In(idx.loc))] = struct{}{}
} // func (idx *Index) Add(t time.Time)

// Len returns the number of recorded minutes.
func (idx *Index) Len() int {
	return len(idx.slots)
} // func (idx *Index) Len() int

// startOfDay returns midnight of t's calendar day in t's location.
func startOfDay(t time.Time) time.Time {
	var y, m, d = t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
} // func startOfDay(t time.Time) time.Time

// Occurrences returns every instant in [start, end] at which one of the
// entries is due, in chronological order and in start's location.
// Two entries due at the same minute yield one Occurrence.
func Occurrences(medID int64, entries []objects.ScheduleEntry, start, end time.Time) []Occurrence {
	if end.Before(start) || len(entries) == 0 {
		return nil
	}

	var (
		loc     = start.Location()
		day     = startOfDay(start)
		lastDay = startOfDay(end.In(loc))
		seen    = make(map[slot]struct{})
		res     []Occurrence
	)

	for !day.After(lastDay) {
		for idx := range entries {
			var (
				e            = &entries[idx]
				stamp, fires = e.At(day)
			)

			if !fires || stamp.Before(start) || stamp.After(end) {
				continue
			}

			var s = slotOf(stamp)
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}

			res = append(res, Occurrence{
				MedicationID: medID,
				Timestamp:    stamp,
				Hour:         e.Hour,
				Minute:       e.Minute,
			})
		}

		day = day.AddDate(0, 0, 1)
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].Timestamp.Before(res[j].Timestamp)
	})

	return res
} // func Occurrences(medID int64, entries []objects.ScheduleEntry, start, end time.Time) []Occurrence

// FindMissed returns the occurrences of the medication's schedule entries
// in [gapStart, gapEnd] that have no matching record in history.
// A record matches if it belongs to the same medication and falls on the
// same calendar day, hour and minute, regardless of its Action.
func FindMissed(med *objects.Medication, entries []objects.ScheduleEntry, gapStart, gapEnd time.Time, history []objects.HistoryRecord) []Occurrence {
	var (
		idx    = NewIndex(med.ID, history, gapStart.Location())
		all    = Occurrences(med.ID, entries, gapStart, gapEnd)
		missed = make([]Occurrence, 0, len(all))
	)

	for _, occ := range all {
		if !idx.Has(occ.Timestamp) {
			missed = append(missed, occ)
		}
	}

	return missed
} // func FindMissed(med *objects.Medication, ...) []Occurrence
