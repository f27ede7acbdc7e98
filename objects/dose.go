// /home/krylon/go/src/github.com/blicero/pillbox/objects/dose.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-14 17:30:12 krylon>

package objects

import (
	"fmt"
	"time"
)

//go:generate ffjson dose.go

// PendingDose is a dose whose notification is currently shown, waiting
// for the user to take or skip it.
// Name and PhotoRef are copied from the Medication so the notification can
// be displayed without a database lookup.
type PendingDose struct {
	MedicationID   int64     `json:"medicationId"`
	MedicationName string    `json:"medicationName"`
	PhotoRef       string    `json:"photoRef,omitempty"`
	ProfileID      int64     `json:"profileId"`
	Hour           int       `json:"hour"`
	Minute         int       `json:"minute"`
	Timestamp      time.Time `json:"timestamp"`
	RepeatCount    int       `json:"repeatCount"`
}

// DoseKey identifies a PendingDose. The date is deliberately not part of it,
// today's 09:00 dose exists at most once.
type DoseKey struct {
	MedicationID int64
	Hour         int
	Minute       int
}

func (k DoseKey) String() string {
	return fmt.Sprintf("%d@%02d:%02d", k.MedicationID, k.Hour, k.Minute)
} // func (k DoseKey) String() string

// Key returns the PendingDose's identity.
func (d *PendingDose) Key() DoseKey {
	return DoseKey{
		MedicationID: d.MedicationID,
		Hour:         d.Hour,
		Minute:       d.Minute,
	}
} // func (d *PendingDose) Key() DoseKey

// Occurrence reconstructs the scheduled instant the PendingDose belongs
// to: hour:minute on the day of its Timestamp, or the day before if that
// would lie after the Timestamp (an alarm repeated past midnight).
func (d *PendingDose) Occurrence() time.Time {
	var (
		y, m, day = d.Timestamp.Date()
		occ       = time.Date(y, m, day, d.Hour, d.Minute, 0, 0, d.Timestamp.Location())
	)

	if occ.After(d.Timestamp) {
		occ = occ.AddDate(0, 0, -1)
	}

	return occ
} // func (d *PendingDose) Occurrence() time.Time

// Due returns the instant the dose was scheduled for.
func (d *PendingDose) Due() time.Time {
	return d.Occurrence()
} // func (d *PendingDose) Due() time.Time

// Tag identifies the notification shown for the PendingDose.
func (d *PendingDose) Tag() string {
	return d.Key().String()
} // func (d *PendingDose) Tag() string

// Payload returns the title and body of the notification.
func (d *PendingDose) Payload() (string, string) {
	var body = fmt.Sprintf("Scheduled for %02d:%02d", d.Hour, d.Minute)

	if d.RepeatCount > 0 {
		body = fmt.Sprintf("%s (reminder #%d)", body, d.RepeatCount+1)
	}

	return d.MedicationName, body
} // func (d *PendingDose) Payload() (string, string)

// Age returns how long ago the PendingDose was created.
func (d *PendingDose) Age(now time.Time) time.Duration {
	return now.Sub(d.Timestamp)
} // func (d *PendingDose) Age(now time.Time) time.Duration
