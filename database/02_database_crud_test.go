// /home/krylon/go/src/github.com/blicero/pillbox/database/02_database_crud_test.go
// -*- mode: go; coding: utf-8; -*-
// Created on 13. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-15 08:52:33 krylon>

package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/blicero/pillbox/objects"
	"github.com/blicero/pillbox/objects/action"
)

const itemCnt = 8

var (
	items []*objects.Medication
	base  = time.Date(2026, 10, 14, 9, 0, 0, 0, time.Local)
)

func init() {
	items = make([]*objects.Medication, itemCnt)

	for i := range items {
		items[i] = &objects.Medication{
			ProfileID: int64(i%2 + 1),
			Name:      fmt.Sprintf("TEST #%03d", i),
			Schedule:  `{"times":[{"hour":9,"minute":0},{"hour":21,"minute":30,"days":[1,3,5]}]}`,
		}
	}
}

func TestMedicationAdd(t *testing.T) {
	if db == nil {
		t.SkipNow()
	}

	for _, m := range items {
		if err := db.MedicationAdd(m); err != nil {
			t.Fatalf("Cannot add Medication %s: %s",
				m.Name,
				err.Error())
		} else if m.ID == 0 {
			t.Errorf("ID of Medication %q is 0", m.Name)
		} else if m.UUID == "" {
			t.Errorf("Medication %q has no UUID", m.Name)
		}
	}

	var bad = &objects.Medication{
		ProfileID: 1,
		Name:      "Broken",
		Schedule:  `{"times":[{"hour":25,"minute":0}]}`,
	}

	if err := db.MedicationAdd(bad); err == nil {
		t.Error("Adding a Medication with an invalid schedule should fail")
	}
} // func TestMedicationAdd(t *testing.T)

func TestMedicationGet(t *testing.T) {
	if db == nil {
		t.SkipNow()
	}

	var (
		err  error
		meds []objects.Medication
		m    *objects.Medication
	)

	if meds, err = db.MedicationGetAll(); err != nil {
		t.Fatalf("Cannot fetch all Medications: %s",
			err.Error())
	} else if len(meds) != len(items) {
		t.Fatalf("Unexpected number of Medications: %d (expected %d)",
			len(meds),
			len(items))
	}

	if meds, err = db.MedicationGetByProfile(1); err != nil {
		t.Fatalf("Cannot fetch Medications of profile 1: %s",
			err.Error())
	} else if len(meds) != itemCnt/2 {
		t.Errorf("Unexpected number of Medications for profile 1: %d (expected %d)",
			len(meds),
			itemCnt/2)
	}

	if m, err = db.MedicationGetByID(items[0].ID); err != nil {
		t.Fatalf("Cannot look up Medication %d: %s",
			items[0].ID,
			err.Error())
	} else if m == nil {
		t.Fatalf("Medication %d was not found", items[0].ID)
	} else if m.Name != items[0].Name || m.UUID != items[0].UUID {
		t.Errorf("Unexpected Medication: %s", m)
	}

	if m, err = db.MedicationGetByID(items[0].ID + 1000); err != nil {
		t.Errorf("Looking up a non-existent Medication failed: %s",
			err.Error())
	} else if m != nil {
		t.Errorf("Looking up a non-existent Medication returned %s", m)
	}
} // func TestMedicationGet(t *testing.T)

func TestMedicationSetSchedule(t *testing.T) {
	if db == nil {
		t.SkipNow()
	}

	var (
		err     error
		m       *objects.Medication
		entries []objects.ScheduleEntry
		sched   = []objects.ScheduleEntry{
			{Hour: 8, Minute: 15, Days: objects.EveryDay},
		}
	)

	if err = db.MedicationSetSchedule(items[1], sched); err != nil {
		t.Fatalf("Cannot set schedule: %s", err.Error())
	} else if m, err = db.MedicationGetByID(items[1].ID); err != nil {
		t.Fatalf("Cannot look up Medication: %s", err.Error())
	} else if entries, err = m.Entries(); err != nil {
		t.Fatalf("Cannot parse stored schedule: %s", err.Error())
	} else if len(entries) != 1 || entries[0].Hour != 8 || entries[0].Minute != 15 {
		t.Errorf("Unexpected schedule: %v", entries)
	}
} // func TestMedicationSetSchedule(t *testing.T)

func TestHistoryUnique(t *testing.T) {
	if db == nil {
		t.SkipNow()
	}

	var (
		err   error
		added bool
		m     = items[0]
		rec   = &objects.HistoryRecord{
			MedicationID:   m.ID,
			ProfileID:      m.ProfileID,
			MedicationName: m.Name,
			Scheduled:      base.Add(17 * time.Second),
			Action:         action.Missed,
		}
		dup = *rec
	)

	dup.UUID = ""

	if added, err = db.HistoryAdd(rec); err != nil {
		t.Fatalf("Cannot add %s: %s", rec, err.Error())
	} else if !added {
		t.Fatalf("%s was not added", rec)
	} else if added, err = db.HistoryAdd(&dup); err != nil {
		t.Fatalf("Adding a duplicate failed: %s", err.Error())
	} else if added {
		t.Fatalf("Duplicate of %s was added", rec)
	}

	var missed = *rec
	missed.UUID = ""
	if added, err = db.HistoryAddMissed(&missed); err != nil {
		t.Fatalf("Cannot add missed dose: %s", err.Error())
	} else if added {
		t.Error("A missed dose was recorded for an occupied slot")
	}

	var list []objects.HistoryRecord
	if list, err = db.HistoryGetRange(m.ID, base.Add(-time.Hour), base.Add(time.Hour)); err != nil {
		t.Fatalf("Cannot get history: %s", err.Error())
	} else if len(list) != 1 {
		t.Fatalf("Unexpected number of history records: %d (expected 1)",
			len(list))
	} else if !list[0].Scheduled.Equal(base) {
		t.Errorf("Scheduled time was not truncated: %s",
			list[0].Scheduled)
	}
} // func TestHistoryUnique(t *testing.T)

func TestHistoryReplace(t *testing.T) {
	if db == nil {
		t.SkipNow()
	}

	var (
		err   error
		added bool
		ex    *objects.HistoryRecord
		m     = items[2]
		slot  = base.Add(24 * time.Hour)
		taken = slot.Add(10 * time.Minute)
	)

	if added, err = db.HistoryAddMissed(&objects.HistoryRecord{
		MedicationID:   m.ID,
		ProfileID:      m.ProfileID,
		MedicationName: m.Name,
		Scheduled:      slot,
	}); err != nil {
		t.Fatalf("Cannot add missed dose: %s", err.Error())
	} else if !added {
		t.Fatal("Missed dose was not added to an empty slot")
	}

	var rec = &objects.HistoryRecord{
		MedicationID:   m.ID,
		ProfileID:      m.ProfileID,
		MedicationName: m.Name,
		Scheduled:      slot,
		Taken:          taken,
		OnTime:         true,
		Action:         action.Taken,
	}

	if err = db.HistoryReplace(rec); err != nil {
		t.Fatalf("Cannot replace history record: %s", err.Error())
	} else if ex, err = db.HistoryGetSlot(m.ID, slot); err != nil {
		t.Fatalf("Cannot look up slot: %s", err.Error())
	} else if ex == nil {
		t.Fatal("Slot is empty after replace")
	} else if ex.Action != action.Taken {
		t.Errorf("Unexpected action %s (expected %s)",
			ex.Action,
			action.Taken)
	} else if !ex.Taken.Equal(taken) || !ex.OnTime {
		t.Errorf("Unexpected record: %s, taken %s, on time %t",
			ex,
			ex.Taken,
			ex.OnTime)
	}

	var list []objects.HistoryRecord
	if list, err = db.HistoryGetByProfile(m.ProfileID, slot, slot); err != nil {
		t.Fatalf("Cannot get history of profile: %s", err.Error())
	} else if len(list) != 1 {
		t.Errorf("Unexpected number of records: %d (expected 1)",
			len(list))
	}

	if err = db.HistoryDeleteSlot(m.ID, slot); err != nil {
		t.Fatalf("Cannot delete slot: %s", err.Error())
	} else if ex, err = db.HistoryGetSlot(m.ID, slot); err != nil {
		t.Fatalf("Cannot look up slot: %s", err.Error())
	} else if ex != nil {
		t.Errorf("Slot still holds %s", ex)
	}
} // func TestHistoryReplace(t *testing.T)

func TestMedicationDelete(t *testing.T) {
	if db == nil {
		t.SkipNow()
	}

	var (
		err  error
		cnt  int64
		meds []objects.Medication
	)

	if err = db.MedicationDelete(items[0].ID); err != nil {
		t.Fatalf("Cannot delete Medication: %s", err.Error())
	} else if cnt, err = db.MedicationDeleteByProfile(2); err != nil {
		t.Fatalf("Cannot delete Medications of profile 2: %s", err.Error())
	} else if cnt != itemCnt/2 {
		t.Errorf("Unexpected number of deleted Medications: %d (expected %d)",
			cnt,
			itemCnt/2)
	} else if meds, err = db.MedicationGetAll(); err != nil {
		t.Fatalf("Cannot fetch Medications: %s", err.Error())
	} else if len(meds) != itemCnt/2-1 {
		t.Errorf("Unexpected number of Medications: %d (expected %d)",
			len(meds),
			itemCnt/2-1)
	}

	var list []objects.HistoryRecord
	if list, err = db.HistoryGetRange(items[0].ID, base, base); err != nil {
		t.Fatalf("Cannot get history: %s", err.Error())
	} else if len(list) != 1 {
		t.Error("History of a deleted Medication should be kept")
	}
} // func TestMedicationDelete(t *testing.T)
