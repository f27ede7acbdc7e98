// /home/krylon/go/src/github.com/blicero/pillbox/database/initqueries.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-14 16:12:30 krylon>

package database

// Time stamps are stored as Unix epoch seconds. history.scheduled is
// always a full minute, which is what makes the UNIQUE constraint work.
var initQueries = []string{
	`
CREATE TABLE medication (
    id          INTEGER PRIMARY KEY,
    profile_id  INTEGER NOT NULL,
    name        TEXT NOT NULL,
    photo_ref   TEXT NOT NULL DEFAULT '',
    schedule    TEXT NOT NULL DEFAULT '',
    uuid        TEXT UNIQUE NOT NULL,
    changed     INTEGER NOT NULL
)
`,
	"CREATE INDEX medication_profile_idx ON medication (profile_id)",
	`
CREATE TABLE history (
    id              INTEGER PRIMARY KEY,
    uuid            TEXT UNIQUE NOT NULL,
    medication_id   INTEGER NOT NULL,
    profile_id      INTEGER NOT NULL,
    medication_name TEXT NOT NULL,
    scheduled       INTEGER NOT NULL,
    taken           INTEGER NOT NULL DEFAULT 0,
    on_time         INTEGER NOT NULL DEFAULT 0,
    action          INTEGER NOT NULL,
    UNIQUE (medication_id, scheduled),
    CHECK (scheduled % 60 = 0),
    CHECK (action IN (0, 1, 2))
)
`,
	"CREATE INDEX history_scheduled_idx ON history (scheduled)",
	"CREATE INDEX history_profile_idx ON history (profile_id)",
}
