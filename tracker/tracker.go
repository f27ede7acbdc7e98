// /home/krylon/go/src/github.com/blicero/pillbox/tracker/tracker.go
// -*- mode: go; coding: utf-8; -*-
// Created on 13. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-15 12:20:44 krylon>

// Package tracker follows scheduled doses from the moment their alarm fires
// until the user takes or skips them, and reconstructs what happened to
// the doses that came due while nobody was watching.
package tracker

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/blicero/pillbox/common"
	"github.com/blicero/pillbox/logdomain"
	"github.com/blicero/pillbox/objects"
	"github.com/blicero/pillbox/objects/action"
	"github.com/blicero/pillbox/pending"
)

// ErrNotFound is returned if a request refers to a medication that does
// not exist.
var ErrNotFound = errors.New("no such medication")

// ErrInvalidAction is returned if a user action is neither Taken nor Skipped.
var ErrInvalidAction = errors.New("invalid user action")

// ErrInvalidSlot is returned for a time of day that does not exist.
var ErrInvalidSlot = errors.New("invalid time of day")

// MedicationStore is where the Tracker looks up medications.
type MedicationStore interface {
	MedicationGetAll() ([]objects.Medication, error)
	// MedicationGetByID returns nil and no error for unknown IDs.
	MedicationGetByID(id int64) (*objects.Medication, error)
}

// HistoryStore is the ledger of scheduled doses.
type HistoryStore interface {
	// HistoryAddMissed records a MISSED dose unless the slot already has
	// a record, and reports whether it wrote anything.
	HistoryAddMissed(r *objects.HistoryRecord) (bool, error)
	// HistoryReplace writes r, superseding any record for the same slot.
	HistoryReplace(r *objects.HistoryRecord) error
	HistoryGetRange(medID int64, from, to time.Time) ([]objects.HistoryRecord, error)
}

// Checkpointer persists the time of the last completed reconciliation.
type Checkpointer interface {
	Checkpoint() (time.Time, bool, error)
	SetCheckpoint(t time.Time) error
}

// Notifier shows and withdraws notifications. Both methods must return
// quickly, failures are the Notifier's own business.
type Notifier interface {
	Show(n objects.Notification)
	Cancel(n objects.Notification)
}

type nopNotifier struct{}

func (nopNotifier) Show(objects.Notification)   {}
func (nopNotifier) Cancel(objects.Notification) {}

// Settings are the Tracker's tunables.
type Settings struct {
	// StaleAfter is how long after its scheduled time a pending dose is
	// considered missed.
	StaleAfter time.Duration
	// ScanHorizon limits how far back a reconciliation looks.
	ScanHorizon time.Duration
	// OnTimeWindow is how far from the scheduled time a dose may be
	// taken and still count as on time.
	OnTimeWindow time.Duration
	// Location is the time zone schedules are evaluated in.
	Location *time.Location
}

// DefaultSettings returns the Settings derived from common.DefaultConfig.
func DefaultSettings() Settings {
	return SettingsFromConfig(common.DefaultConfig(), time.Local)
} // func DefaultSettings() Settings

// SettingsFromConfig extracts the Tracker's Settings from cfg.
func SettingsFromConfig(cfg common.Config, loc *time.Location) Settings {
	return Settings{
		StaleAfter:   cfg.StaleAfter,
		ScanHorizon:  cfg.ScanHorizon,
		OnTimeWindow: cfg.OnTimeWindow,
		Location:     loc,
	}
} // func SettingsFromConfig(cfg common.Config, loc *time.Location) Settings

// Tracker ties the pending set, the medication and history stores and the
// checkpoint together.
type Tracker struct {
	log      *log.Logger
	meds     MedicationStore
	hist     HistoryStore
	cp       Checkpointer
	pend     *pending.Store
	notify   Notifier
	cfg      Settings
	now      func() time.Time
	passLock sync.Mutex
	lock     sync.Mutex
	running  bool
	dirty    bool
	last     *objects.Report
}

// New creates a Tracker. notify may be nil.
func New(meds MedicationStore, hist HistoryStore, cp Checkpointer, pend *pending.Store, notify Notifier, cfg Settings) (*Tracker, error) {
	var (
		err error
		t   = &Tracker{
			meds:   meds,
			hist:   hist,
			cp:     cp,
			pend:   pend,
			notify: notify,
			cfg:    cfg,
			now:    time.Now,
		}
		def = DefaultSettings()
	)

	if meds == nil || hist == nil || cp == nil || pend == nil {
		return nil, errors.New("tracker needs a medication store, a history store, a checkpointer and a pending store")
	} else if t.log, err = common.GetLogger(logdomain.Tracker); err != nil {
		return nil, err
	}

	if t.notify == nil {
		t.notify = nopNotifier{}
	}
	if t.cfg.StaleAfter <= 0 {
		t.cfg.StaleAfter = def.StaleAfter
	}
	if t.cfg.ScanHorizon <= 0 {
		t.cfg.ScanHorizon = def.ScanHorizon
	}
	if t.cfg.OnTimeWindow <= 0 {
		t.cfg.OnTimeWindow = def.OnTimeWindow
	}
	if t.cfg.Location == nil {
		t.cfg.Location = time.Local
	}

	return t, nil
} // func New(...) (*Tracker, error)

func (t *Tracker) clock() time.Time {
	return t.now().In(t.cfg.Location)
} // func (t *Tracker) clock() time.Time

func validSlot(hour, minute int) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("%w: %d:%d", ErrInvalidSlot, hour, minute)
	}
	return nil
} // func validSlot(hour, minute int) error

// OnAlarmFired records that the alarm for the given medication and time of
// day went off. It returns the new PendingDose.
// Doses that went past the pending TTL on the way are recorded as missed.
func (t *Tracker) OnAlarmFired(medID int64, hour, minute, repeat int) (*objects.PendingDose, error) {
	var (
		err     error
		med     *objects.Medication
		evicted []objects.PendingDose
	)

	if err = validSlot(hour, minute); err != nil {
		return nil, err
	} else if med, err = t.meds.MedicationGetByID(medID); err != nil {
		t.log.Printf("[ERROR] Cannot look up Medication %d: %s\n",
			medID,
			err.Error())
		return nil, err
	} else if med == nil {
		t.log.Printf("[WARN] Alarm fired for unknown Medication %d\n",
			medID)
		return nil, fmt.Errorf("%w: %d", ErrNotFound, medID)
	}

	if repeat < 0 {
		repeat = 0
	}

	var d = &objects.PendingDose{
		MedicationID:   med.ID,
		MedicationName: med.Name,
		PhotoRef:       med.PhotoRef,
		ProfileID:      med.ProfileID,
		Hour:           hour,
		Minute:         minute,
		Timestamp:      t.clock(),
		RepeatCount:    repeat,
	}

	if evicted, err = t.pend.Upsert(*d); err != nil {
		t.log.Printf("[ERROR] Cannot record pending dose %s: %s\n",
			d.Key(),
			err.Error())
		return nil, err
	}

	t.log.Printf("[DEBUG] Alarm fired: %s (repeat %d)\n",
		d.Key(),
		repeat)

	for idx := range evicted {
		var e = &evicted[idx]
		t.notify.Cancel(e)
		if _, err = t.hist.HistoryAddMissed(missedRecord(e.MedicationID, e.ProfileID, e.MedicationName, e.Occurrence())); err != nil {
			// The next reconciliation cannot see an evicted dose any more,
			// but the alarm itself has been recorded.
			t.log.Printf("[ERROR] Cannot record evicted dose %s as missed: %s\n",
				e.Key(),
				err.Error())
		}
	}

	t.notify.Show(d)
	return d, nil
} // func (t *Tracker) OnAlarmFired(medID int64, hour, minute, repeat int) (*objects.PendingDose, error)

// OnUserAction records that the user took or skipped the dose of the given
// medication at hour:minute. If the dose is pending, the record is for the
// day it was scheduled on, otherwise for today. Any record already present
// for that slot, a MISSED one in particular, is replaced.
func (t *Tracker) OnUserAction(medID int64, hour, minute int, act action.Action) (*objects.HistoryRecord, error) {
	var (
		err   error
		med   *objects.Medication
		doses []objects.PendingDose
		dose  *objects.PendingDose
		now   = t.clock()
		key   = objects.DoseKey{MedicationID: medID, Hour: hour, Minute: minute}
	)

	if !act.UserAction() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAction, act)
	} else if err = validSlot(hour, minute); err != nil {
		return nil, err
	} else if doses, err = t.pend.ListAll(); err != nil {
		return nil, err
	} else if med, err = t.meds.MedicationGetByID(medID); err != nil {
		t.log.Printf("[ERROR] Cannot look up Medication %d: %s\n",
			medID,
			err.Error())
		return nil, err
	}

	for idx := range doses {
		if doses[idx].Key() == key {
			dose = &doses[idx]
			break
		}
	}

	var rec = &objects.HistoryRecord{
		MedicationID: medID,
		Taken:        now,
		Action:       act,
	}

	switch {
	case dose != nil:
		rec.ProfileID = dose.ProfileID
		rec.MedicationName = dose.MedicationName
		rec.Scheduled = dose.Occurrence().In(t.cfg.Location)
	case med != nil:
		var y, m, d = now.Date()
		rec.ProfileID = med.ProfileID
		rec.MedicationName = med.Name
		rec.Scheduled = time.Date(y, m, d, hour, minute, 0, 0, t.cfg.Location)
	default:
		return nil, fmt.Errorf("%w: %d", ErrNotFound, medID)
	}

	if med != nil {
		rec.MedicationName = med.Name
	}

	if act == action.Taken {
		var delta = now.Sub(rec.Scheduled)
		if delta < 0 {
			delta = -delta
		}
		rec.OnTime = delta <= t.cfg.OnTimeWindow
	}

	if err = t.hist.HistoryReplace(rec); err != nil {
		t.log.Printf("[ERROR] Cannot record %s: %s\n",
			rec,
			err.Error())
		return nil, err
	} else if _, err = t.pend.RemoveDose(key); err != nil {
		t.log.Printf("[ERROR] Cannot remove %s from pending set: %s\n",
			key,
			err.Error())
		return nil, err
	}

	if dose != nil {
		t.notify.Cancel(dose)
	}

	t.log.Printf("[INFO] %s\n", rec)
	return rec, nil
} // func (t *Tracker) OnUserAction(medID int64, hour, minute int, act action.Action) (*objects.HistoryRecord, error)

// GetPendingAt returns the pending doses scheduled at hour:minute.
func (t *Tracker) GetPendingAt(hour, minute int) ([]objects.PendingDose, error) {
	if err := validSlot(hour, minute); err != nil {
		return nil, err
	}

	return t.pend.ListAt(hour, minute)
} // func (t *Tracker) GetPendingAt(hour, minute int) ([]objects.PendingDose, error)

// GetAllPending returns all pending doses, oldest first.
func (t *Tracker) GetAllPending() ([]objects.PendingDose, error) {
	return t.pend.ListAll()
} // func (t *Tracker) GetAllPending() ([]objects.PendingDose, error)

// OnMedicationDeleted forgets the pending doses of a deleted medication.
func (t *Tracker) OnMedicationDeleted(medID int64) ([]objects.PendingDose, error) {
	var removed, err = t.pend.Remove(medID)

	if err != nil {
		return nil, err
	}

	t.cancelAll(removed)
	return removed, nil
} // func (t *Tracker) OnMedicationDeleted(medID int64) ([]objects.PendingDose, error)

// OnProfileDeleted forgets the pending doses of a deleted profile.
func (t *Tracker) OnProfileDeleted(profileID int64) ([]objects.PendingDose, error) {
	var removed, err = t.pend.RemoveForProfile(profileID)

	if err != nil {
		return nil, err
	}

	t.cancelAll(removed)
	return removed, nil
} // func (t *Tracker) OnProfileDeleted(profileID int64) ([]objects.PendingDose, error)

func (t *Tracker) cancelAll(doses []objects.PendingDose) {
	for idx := range doses {
		t.notify.Cancel(&doses[idx])
	}
} // func (t *Tracker) cancelAll(doses []objects.PendingDose)

func missedRecord(medID, profileID int64, name string, scheduled time.Time) *objects.HistoryRecord {
	return &objects.HistoryRecord{
		MedicationID:   medID,
		ProfileID:      profileID,
		MedicationName: name,
		Scheduled:      scheduled,
		Action:         action.Missed,
	}
} // func missedRecord(...) *objects.HistoryRecord
