// /home/krylon/go/src/github.com/blicero/pillbox/database/query/query.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-13 21:09:44 krylon>

// Package query provides symbolic constants for identifying SQL queries.
package query

//go:generate stringer -type=ID

// ID represents a SQL query.
type ID uint8

// These constants identify the queries the database package knows about.
const (
	MedicationAdd ID = iota
	MedicationDelete
	MedicationDeleteByProfile
	MedicationGetAll
	MedicationGetByID
	MedicationGetByProfile
	MedicationSetSchedule
	HistoryAdd
	HistoryDeleteSlot
	HistoryGetSlot
	HistoryGetRange
	HistoryGetByProfile
)
