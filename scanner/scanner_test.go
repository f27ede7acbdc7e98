// /home/krylon/go/src/github.com/blicero/pillbox/scanner/scanner_test.go
// -*- mode: go; coding: utf-8; -*-
// Created on 13. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-15 11:52:26 krylon>

package scanner

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/blicero/pillbox/objects"
	"github.com/blicero/pillbox/objects/action"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2026-10-14 is a Wednesday.
func at(day, hour, minute int) time.Time {
	return time.Date(2026, 10, day, hour, minute, 0, 0, time.UTC)
} // func at(day, hour, minute int) time.Time

func daily(hour, minute int) objects.ScheduleEntry {
	return objects.ScheduleEntry{Hour: hour, Minute: minute, Days: objects.EveryDay}
} // func daily(hour, minute int) objects.ScheduleEntry

func on(hour, minute int, days ...time.Weekday) objects.ScheduleEntry {
	var e = objects.ScheduleEntry{Hour: hour, Minute: minute}

	for _, d := range days {
		e.Days.Set(d, true)
	}

	return e
} // func on(hour, minute int, days ...time.Weekday) objects.ScheduleEntry

func taken(medID int64, stamp time.Time) objects.HistoryRecord {
	return objects.HistoryRecord{
		MedicationID: medID,
		Scheduled:    stamp,
		Taken:        stamp,
		Action:       action.Taken,
	}
} // func taken(medID int64, stamp time.Time) objects.HistoryRecord

func stamps(occ []Occurrence) []time.Time {
	var res = make([]time.Time, len(occ))

	for i, o := range occ {
		res[i] = o.Timestamp
	}

	return res
} // func stamps(occ []Occurrence) []time.Time

var med = &objects.Medication{ID: 17, ProfileID: 1, Name: "Ibuprofen"}

func TestNoPrematureBackfill(t *testing.T) {
	var missed = FindMissed(
		med,
		[]objects.ScheduleEntry{daily(9, 42)},
		at(14, 10, 30),
		at(14, 12, 0),
		nil)

	assert.Empty(t, missed, "09:42 lies before the start of the gap")
} // func TestNoPrematureBackfill(t *testing.T)

func TestCrossMidnight(t *testing.T) {
	var (
		entries = []objects.ScheduleEntry{
			on(23, 0, time.Wednesday),
			on(1, 0, time.Thursday),
		}
		missed = FindMissed(med, entries, at(14, 22, 0), at(15, 2, 30), nil)
	)

	require.Len(t, missed, 2)
	assert.Equal(t, []time.Time{at(14, 23, 0), at(15, 1, 0)}, stamps(missed))
	assert.Equal(t, 23, missed[0].Hour)
	assert.Equal(t, 1, missed[1].Hour)
	assert.Equal(t, med.ID, missed[1].MedicationID)
} // func TestCrossMidnight(t *testing.T)

func TestExistingHistorySuppression(t *testing.T) {
	var (
		entries = []objects.ScheduleEntry{daily(9, 0), daily(14, 0)}
		history = []objects.HistoryRecord{
			// seconds do not matter
			taken(med.ID, at(14, 9, 0).Add(37*time.Second)),
		}
		missed = FindMissed(med, entries, at(14, 8, 0), at(14, 15, 0), history)
	)

	require.Len(t, missed, 1)
	assert.Equal(t, at(14, 14, 0), missed[0].Timestamp)
} // func TestExistingHistorySuppression(t *testing.T)

func TestAnyActionSuppresses(t *testing.T) {
	var entries = []objects.ScheduleEntry{daily(9, 0)}

	for _, act := range []action.Action{action.Taken, action.Skipped, action.Missed} {
		var rec = taken(med.ID, at(14, 9, 0))
		rec.Action = act

		assert.Empty(t,
			FindMissed(med, entries, at(14, 0, 0), at(14, 23, 0), []objects.HistoryRecord{rec}),
			"a %s record covers the slot", act)
	}
} // func TestAnyActionSuppresses(t *testing.T)

func TestOtherMedicationDoesNotSuppress(t *testing.T) {
	var (
		entries = []objects.ScheduleEntry{daily(9, 0)}
		history = []objects.HistoryRecord{taken(med.ID+1, at(14, 9, 0))}
		missed  = FindMissed(med, entries, at(14, 0, 0), at(14, 23, 0), history)
	)

	assert.Len(t, missed, 1)
} // func TestOtherMedicationDoesNotSuppress(t *testing.T)

func TestWeeklyRecurrence(t *testing.T) {
	var (
		entries = []objects.ScheduleEntry{on(8, 0, time.Wednesday)}
		history = []objects.HistoryRecord{taken(med.ID, at(7, 8, 0))}
		missed  = FindMissed(med, entries, at(6, 12, 0), at(14, 10, 0), history)
	)

	require.Len(t, missed, 1, "last week's dose was taken")
	assert.Equal(t, at(14, 8, 0), missed[0].Timestamp)

	// Same gap, today's dose not yet due
	missed = FindMissed(med, entries, at(6, 12, 0), at(14, 7, 59), history)
	assert.Empty(t, missed)
} // func TestWeeklyRecurrence(t *testing.T)

func TestMultiDayGap(t *testing.T) {
	var (
		entries = []objects.ScheduleEntry{daily(9, 0)}
		missed  = FindMissed(med, entries, at(12, 0, 0), at(14, 12, 0), nil)
	)

	assert.Equal(t,
		[]time.Time{at(12, 9, 0), at(13, 9, 0), at(14, 9, 0)},
		stamps(missed))

	missed = FindMissed(med, entries, at(12, 0, 0), at(14, 8, 0), nil)
	assert.Len(t, missed, 2, "today's dose is not due before 09:00")
} // func TestMultiDayGap(t *testing.T)

func TestBoundsAreInclusive(t *testing.T) {
	var entries = []objects.ScheduleEntry{daily(9, 0), daily(17, 0)}

	var missed = FindMissed(med, entries, at(14, 9, 0), at(14, 17, 0), nil)
	assert.Equal(t, []time.Time{at(14, 9, 0), at(14, 17, 0)}, stamps(missed))

	missed = FindMissed(med, entries, at(14, 9, 0).Add(time.Second), at(14, 17, 0).Add(-time.Second), nil)
	assert.Empty(t, missed)
} // func TestBoundsAreInclusive(t *testing.T)

func TestEmptyWindowAndSchedule(t *testing.T) {
	var entries = []objects.ScheduleEntry{daily(9, 0)}

	assert.Empty(t, FindMissed(med, entries, at(14, 10, 0), at(14, 8, 0), nil), "end before start")
	assert.Empty(t, FindMissed(med, nil, at(10, 0, 0), at(14, 23, 0), nil))
	assert.Empty(t, FindMissed(med, []objects.ScheduleEntry{{Hour: 9}}, at(10, 0, 0), at(14, 23, 0), nil),
		"an entry without weekdays never fires")
} // func TestEmptyWindowAndSchedule(t *testing.T)

func TestDuplicateEntries(t *testing.T) {
	var (
		entries = []objects.ScheduleEntry{
			daily(9, 0),
			on(9, 0, time.Wednesday),
			on(12, 30, time.Tuesday, time.Wednesday),
		}
		occ = Occurrences(med.ID, entries, at(13, 0, 0), at(14, 23, 59))
	)

	assert.Equal(t,
		[]time.Time{at(13, 9, 0), at(13, 12, 30), at(14, 9, 0), at(14, 12, 30)},
		stamps(occ))
} // func TestDuplicateEntries(t *testing.T)

func TestDaylightSavingTime(t *testing.T) {
	var loc, err = time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	var (
		entries = []objects.ScheduleEntry{daily(9, 0), daily(2, 30)}
		// Clocks go forward on 2026-03-29 at 02:00
		start = time.Date(2026, 3, 28, 0, 0, 0, 0, loc)
		end   = time.Date(2026, 3, 30, 23, 0, 0, 0, loc)
		occ   = Occurrences(med.ID, entries, start, end)
	)

	require.Len(t, occ, 6)

	var nines int
	for _, o := range occ {
		if o.Hour == 9 {
			nines++
			assert.Equal(t, 9, o.Timestamp.Hour(), "wall clock time of %s", o.Timestamp)
		}
	}
	assert.Equal(t, 3, nines)
} // func TestDaylightSavingTime(t *testing.T)

func TestHistoryInOtherLocation(t *testing.T) {
	var loc, err = time.LoadLocation("America/New_York")
	require.NoError(t, err)

	var (
		entries = []objects.ScheduleEntry{daily(9, 0)}
		start   = time.Date(2026, 10, 14, 0, 0, 0, 0, loc)
		end     = time.Date(2026, 10, 14, 12, 0, 0, 0, loc)
		// The same instant, as it comes back from the database
		history = []objects.HistoryRecord{taken(med.ID, time.Date(2026, 10, 14, 9, 0, 0, 0, loc).UTC())}
	)

	assert.Empty(t, FindMissed(med, entries, start, end, history))
} // func TestHistoryInOtherLocation(t *testing.T)

func TestIndex(t *testing.T) {
	var idx = NewIndex(med.ID, []objects.HistoryRecord{
		taken(med.ID, at(14, 9, 0)),
		taken(med.ID+1, at(14, 10, 0)),
	}, time.UTC)

	assert.Equal(t, 1, idx.Len())
	assert.True(t, idx.Has(at(14, 9, 0).Add(59*time.Second)))
	assert.False(t, idx.Has(at(14, 10, 0)))

	idx.Add(at(14, 10, 0))
	assert.True(t, idx.Has(at(14, 10, 0)))
} // func TestIndex(t *testing.T)
