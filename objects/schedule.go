// /home/krylon/go/src/github.com/blicero/pillbox/objects/schedule.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-14 20:03:16 krylon>

package objects

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pquerna/ffjson/ffjson"
)

// Weekdays is a list of weekdays that a ScheduleEntry fires on.
// Index 0 is Monday, index 6 is Sunday.
type Weekdays [7]bool

// Go's time package numbers weekdays starting with Sunday, whereas in Europe
// the week starts on Monday. Weekdays uses the latter; On converts.

// EveryDay is the set of all seven days.
var EveryDay = Weekdays{true, true, true, true, true, true, true}

// Bitfield returns an unsigned integer using the least significant bits
// as flags from right to left, i.e. the least significant bit is Monday,
// the second bit from the right is Tuesday, etc. The most significant
// bit it always zero.
func (w *Weekdays) Bitfield() uint8 {
	var days uint8

	for idx, b := range w {
		if b {
			days |= 1 << idx
		}
	}

	return days
} // func (w *Weekdays) Bitfield() uint8

// WeekdaysFromBitfield is the inverse of Weekdays.Bitfield.
func WeekdaysFromBitfield(bits uint8) Weekdays {
	var w Weekdays

	for idx := range w {
		w[idx] = bits&(1<<idx) != 0
	}

	return w
} // func WeekdaysFromBitfield(bits uint8) Weekdays

// Count returns the number of weekdays the entry fires on.
func (w *Weekdays) Count() int {
	var cnt int

	for _, b := range w {
		if b {
			cnt++
		}
	}

	return cnt
} // func (w *Weekdays) Count() int

// On returns the flag value for the given weekday.
func (w *Weekdays) On(d time.Weekday) bool {
	return w[(d+6)%7]
} // func (w *Weekdays) On(d time.Weekday) bool

// Set sets the flag for the given weekday.
func (w *Weekdays) Set(d time.Weekday, on bool) {
	w[(d+6)%7] = on
} // func (w *Weekdays) Set(d time.Weekday, on bool)

var wDayStr = []string{
	"Mo",
	"Tu",
	"We",
	"Th",
	"Fr",
	"Sa",
	"Su",
}

func (w Weekdays) String() string {
	switch w.Count() {
	case 0:
		return "never"
	case 7:
		return "daily"
	}

	var days = make([]string, 0, 7)

	for idx, v := range w {
		if v {
			days = append(days, wDayStr[idx])
		}
	}

	return strings.Join(days, ",")
} // func (w Weekdays) String() string

// ScheduleEntry is one reminder time of a Medication: a time of day and
// the weekdays it applies to.
type ScheduleEntry struct {
	Hour   int
	Minute int
	Days   Weekdays
}

// FiresOn returns true if the entry is due on the calendar day of date.
func (e *ScheduleEntry) FiresOn(date time.Time) bool {
	return e.Days.On(date.Weekday())
} // func (e *ScheduleEntry) FiresOn(date time.Time) bool

// At returns the instant the entry is due on the calendar day of date,
// in date's location, and whether it fires on that day at all.
func (e *ScheduleEntry) At(date time.Time) (time.Time, bool) {
	var (
		y, m, d = date.Date()
		stamp   = time.Date(y, m, d, e.Hour, e.Minute, 0, 0, date.Location())
	)

	return stamp, e.FiresOn(date)
} // func (e *ScheduleEntry) At(date time.Time) (time.Time, bool)

// TimeOfDay returns the entry's time as HH:MM.
func (e *ScheduleEntry) TimeOfDay() string {
	return fmt.Sprintf("%02d:%02d", e.Hour, e.Minute)
} // func (e *ScheduleEntry) TimeOfDay() string

func (e ScheduleEntry) String() string {
	return fmt.Sprintf("%02d:%02d(%s)",
		e.Hour,
		e.Minute,
		e.Days)
} // func (e ScheduleEntry) String() string

// ErrSchedule is wrapped by every ParseError.
var ErrSchedule = errors.New("malformed schedule")

// ParseError is returned when a persisted schedule document cannot be
// turned into ScheduleEntries.
type ParseError struct {
	Index  int // -1 if the document as a whole is broken
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	var msg string

	if e.Index < 0 {
		msg = fmt.Sprintf("%s: %s", ErrSchedule, e.Reason)
	} else {
		msg = fmt.Sprintf("%s: entry #%d: %s", ErrSchedule, e.Index, e.Reason)
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
} // func (e *ParseError) Error() string

// Is makes errors.Is(err, ErrSchedule) work for ParseErrors.
func (e *ParseError) Is(target error) bool {
	return target == ErrSchedule
} // func (e *ParseError) Is(target error) bool

func (e *ParseError) Unwrap() error {
	return e.Err
} // func (e *ParseError) Unwrap() error

// The persisted form of a schedule. Day indices are 0 for Sunday through 6
// for Saturday, like time.Weekday. A missing "days" list means every day,
// an empty one means never.
type scheduleDoc struct {
	Times []scheduleItem `json:"times"`
}

type scheduleItem struct {
	Hour   *int   `json:"hour,omitempty"`
	Minute *int   `json:"minute,omitempty"`
	Time   string `json:"time,omitempty"`
	Days   []int  `json:"days"`
}

// ParseSchedule parses a persisted schedule document. It accepts an object
// with a "times" list, or a bare list of entries. Each entry has either
// "hour" and "minute" or a "time" of the form "HH:MM".
// An empty document yields no entries and no error.
func ParseSchedule(doc []byte) ([]ScheduleEntry, error) {
	var (
		err   error
		items []scheduleItem
		trim  = bytes.TrimSpace(doc)
	)

	if len(trim) == 0 || bytes.Equal(trim, []byte("null")) {
		return nil, nil
	}

	switch trim[0] {
	case '[':
		err = ffjson.Unmarshal(trim, &items)
	case '{':
		var d scheduleDoc
		err = ffjson.Unmarshal(trim, &d)
		items = d.Times
	default:
		return nil, &ParseError{Index: -1, Reason: "not a JSON object or array"}
	}

	if err != nil {
		return nil, &ParseError{Index: -1, Reason: "invalid JSON", Err: err}
	}

	var entries = make([]ScheduleEntry, 0, len(items))

	for idx, item := range items {
		var e ScheduleEntry

		if e, err = item.entry(idx); err != nil {
			return nil, err
		}

		entries = append(entries, e)
	}

	return entries, nil
} // func ParseSchedule(doc []byte) ([]ScheduleEntry, error)

func (item *scheduleItem) entry(idx int) (ScheduleEntry, error) {
	var e ScheduleEntry

	switch {
	case item.Time != "":
		var t, err = time.Parse("15:04", strings.TrimSpace(item.Time))
		if err != nil {
			return e, &ParseError{
				Index:  idx,
				Reason: fmt.Sprintf("invalid time of day %q", item.Time),
				Err:    err,
			}
		}
		e.Hour, e.Minute = t.Hour(), t.Minute()
	case item.Hour != nil:
		e.Hour = *item.Hour
		if item.Minute != nil {
			e.Minute = *item.Minute
		}
	default:
		return e, &ParseError{Index: idx, Reason: "neither time nor hour given"}
	}

	if e.Hour < 0 || e.Hour > 23 {
		return e, &ParseError{Index: idx, Reason: fmt.Sprintf("hour %d out of range", e.Hour)}
	} else if e.Minute < 0 || e.Minute > 59 {
		return e, &ParseError{Index: idx, Reason: fmt.Sprintf("minute %d out of range", e.Minute)}
	}

	if item.Days == nil {
		e.Days = EveryDay
		return e, nil
	}

	for _, d := range item.Days {
		if d < 0 || d > 6 {
			return e, &ParseError{Index: idx, Reason: fmt.Sprintf("day index %d out of range", d)}
		}
		e.Days.Set(time.Weekday(d), true)
	}

	return e, nil
} // func (item *scheduleItem) entry(idx int) (ScheduleEntry, error)

// MarshalSchedule serializes entries into the persisted form understood
// by ParseSchedule. Entries are sorted by time of day.
func MarshalSchedule(entries []ScheduleEntry) ([]byte, error) {
	var doc = scheduleDoc{Times: make([]scheduleItem, len(entries))}

	var sorted = make([]ScheduleEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Hour*60+sorted[i].Minute < sorted[j].Hour*60+sorted[j].Minute
	})

	for idx := range sorted {
		var (
			e    = &sorted[idx]
			h, m = e.Hour, e.Minute
			days = make([]int, 0, 7)
		)

		for d := time.Sunday; d <= time.Saturday; d++ {
			if e.Days.On(d) {
				days = append(days, int(d))
			}
		}

		doc.Times[idx] = scheduleItem{Hour: &h, Minute: &m, Days: days}
	}

	return ffjson.Marshal(&doc)
} // func MarshalSchedule(entries []ScheduleEntry) ([]byte, error)
