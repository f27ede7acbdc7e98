// /home/krylon/go/src/github.com/blicero/pillbox/tracker/fakes_test.go
// -*- mode: go; coding: utf-8; -*-
// Created on 14. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-15 13:02:18 krylon>

package tracker

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/blicero/pillbox/common"
	"github.com/blicero/pillbox/kvstore"
	"github.com/blicero/pillbox/objects"
	"github.com/blicero/pillbox/objects/action"
	"github.com/blicero/pillbox/pending"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	var (
		err    error
		result int
		dir    string
	)

	if dir, err = os.MkdirTemp("", "pillbox-tracker-"); err != nil {
		fmt.Fprintf(os.Stderr, "Cannot create temporary directory: %s\n", err.Error())
		os.Exit(1)
	} else if err = common.SetBaseDir(dir); err != nil {
		os.Exit(1)
	}

	result = m.Run()
	os.RemoveAll(dir) // nolint: errcheck
	os.Exit(result)
} // func TestMain(m *testing.M)

var errStorage = errors.New("storage is on fire")

type fakeMeds struct {
	lock sync.Mutex
	meds map[int64]objects.Medication
	gate chan struct{}
	err  error
}

func newFakeMeds(meds ...objects.Medication) *fakeMeds {
	var f = &fakeMeds{meds: make(map[int64]objects.Medication)}

	for _, m := range meds {
		f.meds[m.ID] = m
	}

	return f
} // func newFakeMeds(meds ...objects.Medication) *fakeMeds

func (f *fakeMeds) MedicationGetAll() ([]objects.Medication, error) {
	if f.gate != nil {
		<-f.gate
	}

	f.lock.Lock()
	defer f.lock.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	var list = make([]objects.Medication, 0, len(f.meds))
	for _, m := range f.meds {
		list = append(list, m)
	}

	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
} // func (f *fakeMeds) MedicationGetAll() ([]objects.Medication, error)

func (f *fakeMeds) MedicationGetByID(id int64) (*objects.Medication, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.err != nil {
		return nil, f.err
	} else if m, ok := f.meds[id]; ok {
		return &m, nil
	}

	return nil, nil
} // func (f *fakeMeds) MedicationGetByID(id int64) (*objects.Medication, error)

func (f *fakeMeds) delete(id int64) {
	f.lock.Lock()
	delete(f.meds, id)
	f.lock.Unlock()
} // func (f *fakeMeds) delete(id int64)

type slotKey struct {
	med  int64
	slot int64
}

// fakeHistory mimics the UNIQUE (medication_id, scheduled) constraint of the
// real history table.
type fakeHistory struct {
	lock     sync.Mutex
	recs     map[slotKey]objects.HistoryRecord
	rangeErr error
	addErr   error
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{recs: make(map[slotKey]objects.HistoryRecord)}
} // func newFakeHistory() *fakeHistory

func keyOf(medID int64, t time.Time) slotKey {
	return slotKey{med: medID, slot: t.Truncate(time.Minute).Unix()}
} // func keyOf(medID int64, t time.Time) slotKey

func (f *fakeHistory) HistoryAddMissed(r *objects.HistoryRecord) (bool, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.addErr != nil {
		return false, f.addErr
	}

	var k = keyOf(r.MedicationID, r.Scheduled)
	if _, ok := f.recs[k]; ok {
		return false, nil
	}

	var rec = *r
	rec.Action = action.Missed
	f.recs[k] = rec
	return true, nil
} // func (f *fakeHistory) HistoryAddMissed(r *objects.HistoryRecord) (bool, error)

func (f *fakeHistory) HistoryReplace(r *objects.HistoryRecord) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.addErr != nil {
		return f.addErr
	}

	f.recs[keyOf(r.MedicationID, r.Scheduled)] = *r
	return nil
} // func (f *fakeHistory) HistoryReplace(r *objects.HistoryRecord) error

func (f *fakeHistory) HistoryGetRange(medID int64, from, to time.Time) ([]objects.HistoryRecord, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.rangeErr != nil {
		return nil, f.rangeErr
	}

	var list []objects.HistoryRecord
	for k, r := range f.recs {
		if k.med == medID && !r.Scheduled.Before(from.Truncate(time.Minute)) && !r.Scheduled.After(to) {
			list = append(list, r)
		}
	}

	return list, nil
} // func (f *fakeHistory) HistoryGetRange(medID int64, from, to time.Time) ([]objects.HistoryRecord, error)

func (f *fakeHistory) get(medID int64, t time.Time) (objects.HistoryRecord, bool) {
	f.lock.Lock()
	defer f.lock.Unlock()

	var r, ok = f.recs[keyOf(medID, t)]
	return r, ok
} // func (f *fakeHistory) get(medID int64, t time.Time) (objects.HistoryRecord, bool)

func (f *fakeHistory) count() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return len(f.recs)
} // func (f *fakeHistory) count() int

type fakeCheckpoint struct {
	lock   sync.Mutex
	stamp  time.Time
	have   bool
	setErr error
}

func (f *fakeCheckpoint) Checkpoint() (time.Time, bool, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.stamp, f.have, nil
} // func (f *fakeCheckpoint) Checkpoint() (time.Time, bool, error)

func (f *fakeCheckpoint) SetCheckpoint(t time.Time) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.setErr != nil {
		return f.setErr
	}

	f.stamp = t
	f.have = true
	return nil
} // func (f *fakeCheckpoint) SetCheckpoint(t time.Time) error

func (f *fakeCheckpoint) get() (time.Time, bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.stamp, f.have
} // func (f *fakeCheckpoint) get() (time.Time, bool)

type fakeNotifier struct {
	lock      sync.Mutex
	shown     []string
	cancelled []string
}

func (f *fakeNotifier) Show(n objects.Notification) {
	f.lock.Lock()
	f.shown = append(f.shown, n.Tag())
	f.lock.Unlock()
} // func (f *fakeNotifier) Show(n objects.Notification)

func (f *fakeNotifier) Cancel(n objects.Notification) {
	f.lock.Lock()
	f.cancelled = append(f.cancelled, n.Tag())
	f.lock.Unlock()
} // func (f *fakeNotifier) Cancel(n objects.Notification)

type clock struct {
	lock sync.Mutex
	t    time.Time
}

func (c *clock) now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.t
} // func (c *clock) now() time.Time

func (c *clock) set(t time.Time) {
	c.lock.Lock()
	c.t = t
	c.lock.Unlock()
} // func (c *clock) set(t time.Time)

// fixture bundles a Tracker with its fake surroundings.
type fixture struct {
	tr    *Tracker
	meds  *fakeMeds
	hist  *fakeHistory
	cp    *fakeCheckpoint
	pend  *pending.Store
	note  *fakeNotifier
	clock *clock
}

// 2026-10-14 is a Wednesday.
func at(day, hour, minute int) time.Time {
	return time.Date(2026, 10, day, hour, minute, 0, 0, time.UTC)
} // func at(day, hour, minute int) time.Time

func medication(id int64, schedule string) objects.Medication {
	return objects.Medication{
		ID:        id,
		ProfileID: 1,
		Name:      fmt.Sprintf("Med #%d", id),
		Schedule:  schedule,
	}
} // func medication(id int64, schedule string) objects.Medication

func newFixture(t *testing.T, meds ...objects.Medication) *fixture {
	t.Helper()

	var (
		err error
		kv  *kvstore.Store
		f   = &fixture{
			meds:  newFakeMeds(meds...),
			hist:  newFakeHistory(),
			cp:    new(fakeCheckpoint),
			note:  new(fakeNotifier),
			clock: &clock{t: at(14, 9, 0)},
		}
	)

	kv, err = kvstore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() }) // nolint: errcheck

	f.pend, err = pending.New(kv, 2*time.Hour)
	require.NoError(t, err)
	f.pend.SetClock(f.clock.now)

	f.tr, err = New(f.meds, f.hist, f.cp, f.pend, f.note, Settings{
		StaleAfter:   24 * time.Hour,
		ScanHorizon:  90 * 24 * time.Hour,
		OnTimeWindow: 30 * time.Minute,
		Location:     time.UTC,
	})
	require.NoError(t, err)
	f.tr.now = f.clock.now

	return f
} // func newFixture(t *testing.T, meds ...objects.Medication) *fixture

// putPending stores doses directly, bypassing the TTL eviction of Upsert.
func (f *fixture) putPending(t *testing.T, doses ...objects.PendingDose) {
	t.Helper()

	require.NoError(t, f.pend.Update(func(cur []objects.PendingDose) ([]objects.PendingDose, error) {
		return append(cur, doses...), nil
	}))
} // func (f *fixture) putPending(t *testing.T, doses ...objects.PendingDose)

func (f *fixture) checkpointAt(stamp time.Time) {
	f.cp.lock.Lock()
	f.cp.stamp = stamp
	f.cp.have = true
	f.cp.lock.Unlock()
} // func (f *fixture) checkpointAt(stamp time.Time)
