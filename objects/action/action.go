// /home/krylon/go/src/github.com/blicero/pillbox/objects/action/action.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-13 17:22:48 krylon>

//go:generate stringer -type=Action

// Package action contains symbolic constants
// to specify what became of a scheduled dose.
package action

import (
	"fmt"
	"strings"
)

// Action describes the outcome recorded for a scheduled dose.
type Action uint8

// Taken means the user took the dose.
// Skipped means the user deliberately did not take it.
// Missed means nobody reacted to it before it went stale, or it came due
// while the application was not running.
const (
	Taken Action = iota
	Skipped
	Missed
)

// Parse returns the Action with the given name, ignoring case.
func Parse(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "taken", "take":
		return Taken, nil
	case "skipped", "skip":
		return Skipped, nil
	case "missed":
		return Missed, nil
	default:
		return 0, fmt.Errorf("invalid action %q", s)
	}
} // func Parse(s string) (Action, error)

// Valid returns true if a is one of the known Actions.
func (a Action) Valid() bool {
	return a <= Missed
} // func (a Action) Valid() bool

// UserAction returns true if a is something a user can do to a dose.
func (a Action) UserAction() bool {
	return a == Taken || a == Skipped
} // func (a Action) UserAction() bool
