// /home/krylon/go/src/github.com/blicero/pillbox/logdomain/logdomain.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-12 18:04:31 krylon>

//go:generate stringer -type=ID

// Package logdomain provides symbolic constants to identify the various
// pieces of the application that need to do logging.
package logdomain

// ID represents an area of concern.
type ID uint8

// These constants represent the pieces of the application that need to log stuff.
const (
	Common ID = iota
	Database
	KVStore
	Pending
	Tracker
	Backend
	Notify
	Client
)

// AllDomains returns a slice of all the known log sources.
func AllDomains() []ID {
	return []ID{
		Common,
		Database,
		KVStore,
		Pending,
		Tracker,
		Backend,
		Notify,
		Client,
	}
} // func AllDomains() []ID
