// /home/krylon/go/src/github.com/blicero/pillbox/objects/medication.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-13 18:51:30 krylon>

package objects

import (
	"fmt"
	"time"
)

//go:generate ffjson medication.go

// Medication is something a user takes according to a weekly schedule.
// Schedule holds the persisted schedule document as written by whoever
// edits medications; use Entries to get at the parsed form.
type Medication struct {
	ID        int64
	ProfileID int64
	Name      string
	PhotoRef  string
	Schedule  string
	UUID      string
	Changed   time.Time
}

// Entries parses the Medication's schedule.
func (m *Medication) Entries() ([]ScheduleEntry, error) {
	return ParseSchedule([]byte(m.Schedule))
} // func (m *Medication) Entries() ([]ScheduleEntry, error)

// SetEntries replaces the Medication's schedule.
func (m *Medication) SetEntries(entries []ScheduleEntry) error {
	var (
		err error
		buf []byte
	)

	if buf, err = MarshalSchedule(entries); err != nil {
		return err
	}

	m.Schedule = string(buf)
	return nil
} // func (m *Medication) SetEntries(entries []ScheduleEntry) error

func (m *Medication) String() string {
	return fmt.Sprintf("Medication{ ID: %d, Profile: %d, Name: %q }",
		m.ID,
		m.ProfileID,
		m.Name)
} // func (m *Medication) String() string
