// /home/krylon/go/src/github.com/blicero/pillbox/database/dbqueries.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-14 16:40:05 krylon>

package database

import "github.com/blicero/pillbox/database/query"

var dbQueries = map[query.ID]string{
	query.MedicationAdd: `
INSERT INTO medication (profile_id, name, photo_ref, schedule, uuid, changed)
VALUES                 (         ?,    ?,         ?,        ?,    ?,       ?)
`,
	query.MedicationDelete:          "DELETE FROM medication WHERE id = ?",
	query.MedicationDeleteByProfile: "DELETE FROM medication WHERE profile_id = ?",
	query.MedicationGetAll: `
SELECT
    id,
    profile_id,
    name,
    photo_ref,
    schedule,
    uuid,
    changed
FROM medication
ORDER BY profile_id, name, id
`,
	query.MedicationGetByID: `
SELECT
    profile_id,
    name,
    photo_ref,
    schedule,
    uuid,
    changed
FROM medication
WHERE id = ?
`,
	query.MedicationGetByProfile: `
SELECT
    id,
    name,
    photo_ref,
    schedule,
    uuid,
    changed
FROM medication
WHERE profile_id = ?
ORDER BY name, id
`,
	query.MedicationSetSchedule: `
UPDATE medication
SET schedule = ?, changed = ?
WHERE id = ?
`,
	query.HistoryAdd: `
INSERT INTO history (
    uuid,
    medication_id,
    profile_id,
    medication_name,
    scheduled,
    taken,
    on_time,
    action
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (medication_id, scheduled) DO NOTHING
`,
	query.HistoryDeleteSlot: `
DELETE FROM history
WHERE medication_id = ? AND scheduled = ?
`,
	query.HistoryGetSlot: `
SELECT
    id,
    uuid,
    profile_id,
    medication_name,
    taken,
    on_time,
    action
FROM history
WHERE medication_id = ? AND scheduled = ?
`,
	query.HistoryGetRange: `
SELECT
    id,
    uuid,
    profile_id,
    medication_name,
    scheduled,
    taken,
    on_time,
    action
FROM history
WHERE medication_id = ? AND scheduled BETWEEN ? AND ?
ORDER BY scheduled
`,
	query.HistoryGetByProfile: `
SELECT
    id,
    uuid,
    medication_id,
    medication_name,
    scheduled,
    taken,
    on_time,
    action
FROM history
WHERE profile_id = ? AND scheduled BETWEEN ? AND ?
ORDER BY scheduled, medication_id
`,
}
