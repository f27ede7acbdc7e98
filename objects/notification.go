// /home/krylon/go/src/github.com/blicero/pillbox/objects/notification.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-13 17:02:19 krylon>

// Package objects provides the data types used by the application.
package objects

import "time"

// Notification is the common interface for items the user should be
// notified about.
// Tag is stable across repeated notifications for the same item, so a
// repeat replaces the previous notification instead of stacking up.
type Notification interface {
	Due() time.Time
	Tag() string
	Payload() (string, string)
}
