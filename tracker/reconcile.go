// /home/krylon/go/src/github.com/blicero/pillbox/tracker/reconcile.go
// -*- mode: go; coding: utf-8; -*-
// Created on 13. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-15 12:41:09 krylon>

package tracker

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/blicero/pillbox/common"
	"github.com/blicero/pillbox/objects"
	"github.com/blicero/pillbox/scanner"
)

// triggerBuffer is the capacity of the channel returned by Trigger.
const triggerBuffer = 2

// pruned is the outcome of applying the pass's rules to a pending set.
type pruned struct {
	kept    []objects.PendingDose
	dropped []objects.PendingDose // unknown medication or superseded duplicate
	stale   []objects.PendingDose
}

// prune splits doses into the ones that stay pending and the ones that go.
// Of several doses with the same key, only the newest is kept.
func (t *Tracker) prune(doses []objects.PendingDose, known map[int64]*objects.Medication, now time.Time) pruned {
	var (
		res    pruned
		newest = make(map[objects.DoseKey]int, len(doses))
	)

	for idx := range doses {
		var (
			d      = &doses[idx]
			key    = d.Key()
			i, dup = newest[key]
		)

		if !dup || d.Timestamp.After(doses[i].Timestamp) {
			newest[key] = idx
		}
	}

	for idx := range doses {
		var d = doses[idx]

		switch {
		case newest[d.Key()] != idx:
			res.dropped = append(res.dropped, d)
		case known[d.MedicationID] == nil:
			res.dropped = append(res.dropped, d)
		case now.Sub(d.Occurrence()) > t.cfg.StaleAfter:
			res.stale = append(res.stale, d)
		default:
			res.kept = append(res.kept, d)
		}
	}

	return res
} // func (t *Tracker) prune(...) pruned

// candidate is a dose that is about to be recorded as missed.
type candidate struct {
	med       *objects.Medication
	scheduled time.Time
}

// OnAppStart runs a reconciliation pass and waits for it to finish.
func (t *Tracker) OnAppStart(ctx context.Context) (*objects.Report, error) {
	return t.Reconcile(ctx)
} // func (t *Tracker) OnAppStart(ctx context.Context) (*objects.Report, error)

// LastReport returns the Report of the most recent pass, or nil.
func (t *Tracker) LastReport() *objects.Report {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.last
} // func (t *Tracker) LastReport() *objects.Report

// Reconcile runs one reconciliation pass:
//
// It drops pending doses of unknown medications and duplicates, turns
// pending doses that went stale into missed ones, scans the time since
// the last checkpoint for doses that came due without any record, writes
// a MISSED record for each of those, and finally moves the checkpoint to
// the start of the pass.
//
// A schedule that cannot be parsed only excludes its medication from the
// scan. A storage error aborts the pass and leaves the checkpoint where it
// was, so the next pass covers the same period again. Passes do not run
// concurrently.
func (t *Tracker) Reconcile(ctx context.Context) (*objects.Report, error) {
	t.passLock.Lock()
	defer t.passLock.Unlock()

	var (
		err      error
		rep      = &objects.Report{Started: t.clock()}
		now      = rep.Started
		cp       time.Time
		haveCP   bool
		snapshot []objects.PendingDose
		meds     []objects.Medication
		known    = make(map[int64]*objects.Medication)
		entries  = make(map[int64][]objects.ScheduleEntry)
		cands    []candidate
	)

	defer func() {
		rep.Finished = t.clock()
		t.lock.Lock()
		t.last = rep
		t.lock.Unlock()
	}()

	var abort = func(msg string, e error) (*objects.Report, error) {
		e = fmt.Errorf("%s: %w", msg, e)
		rep.Error = e.Error()
		t.log.Printf("[ERROR] Reconciliation aborted: %s\n", rep.Error)
		return rep, e
	}

	if cp, haveCP, err = t.cp.Checkpoint(); err != nil {
		return abort("read checkpoint", err)
	} else if snapshot, err = t.pend.ListAll(); err != nil {
		return abort("read pending set", err)
	} else if meds, err = t.meds.MedicationGetAll(); err != nil {
		return abort("read medications", err)
	}

	for idx := range meds {
		var (
			m = &meds[idx]
			e []objects.ScheduleEntry
		)

		known[m.ID] = m

		if e, err = m.Entries(); err != nil {
			t.log.Printf("[ERROR] Cannot parse schedule of %s: %s\n",
				m,
				err.Error())
			rep.Errors = append(rep.Errors, fmt.Sprintf("medication %d: %s", m.ID, err.Error()))
			continue
		}

		entries[m.ID] = e
		rep.Medications++
	}

	var p = t.prune(snapshot, known, now)
	rep.Dropped = len(p.dropped)
	rep.Stale = len(p.stale)

	for _, d := range p.stale {
		cands = append(cands, candidate{
			med:       known[d.MedicationID],
			scheduled: d.Occurrence(),
		})
	}

	if haveCP {
		if cands, err = t.scan(ctx, rep, cp, now, meds, entries, p.kept, cands); err != nil {
			return abort("scan", err)
		}
	} else {
		t.log.Println("[INFO] No checkpoint found, not looking for missed doses")
	}

	for _, c := range cands {
		var added bool
		if added, err = t.hist.HistoryAddMissed(missedRecord(c.med.ID, c.med.ProfileID, c.med.Name, c.scheduled)); err != nil {
			return abort("record missed dose", err)
		} else if added {
			rep.Missed++
		}
	}

	// The pending set may have changed since the snapshot was taken, so
	// the same rules are applied again to what is stored now.
	var gone []objects.PendingDose
	if err = t.pend.Update(func(doses []objects.PendingDose) ([]objects.PendingDose, error) {
		var q = t.prune(doses, known, now)
		gone = append(q.dropped, q.stale...)
		return q.kept, nil
	}); err != nil {
		return abort("write pending set", err)
	}

	t.cancelAll(gone)

	if err = t.cp.SetCheckpoint(now); err != nil {
		return abort("write checkpoint", err)
	}

	rep.Finished = t.clock()
	t.log.Printf("[INFO] Reconciliation finished: %s\n", rep)
	return rep, nil
} // func (t *Tracker) Reconcile(ctx context.Context) (*objects.Report, error)

// scan looks for doses that came due between the checkpoint and now.
// Doses that are still pending are left alone, they are someone else's
// business until they go stale.
func (t *Tracker) scan(
	ctx context.Context,
	rep *objects.Report,
	cp, now time.Time,
	meds []objects.Medication,
	entries map[int64][]objects.ScheduleEntry,
	live []objects.PendingDose,
	cands []candidate) ([]candidate, error) {
	var (
		err      error
		gapStart = cp.In(t.cfg.Location)
		horizon  = now.Add(-t.cfg.ScanHorizon)
		seen     = make(map[int64]*scanner.Index)
	)

	if gapStart.After(now) {
		t.log.Printf("[WARN] Checkpoint %s lies in the future, did the clock go backwards? Not scanning.\n",
			gapStart.Format(common.TimestampFormat))
		return cands, nil
	} else if gapStart.Before(horizon) {
		t.log.Printf("[INFO] Checkpoint %s is older than %s, scanning from %s\n",
			gapStart.Format(common.TimestampFormat),
			t.cfg.ScanHorizon,
			horizon.Format(common.TimestampFormat))
		gapStart = horizon
	}

	rep.GapStart = gapStart

	// Candidates that are already known, and live pending doses, must not
	// come up again.
	var index = func(id int64) *scanner.Index {
		if seen[id] == nil {
			seen[id] = scanner.NewIndex(id, nil, t.cfg.Location)
		}
		return seen[id]
	}

	for _, c := range cands {
		index(c.med.ID).Add(c.scheduled)
	}
	for idx := range live {
		index(live[idx].MedicationID).Add(live[idx].Occurrence())
	}

	var ids = make([]int64, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var byID = make(map[int64]*objects.Medication, len(meds))
	for idx := range meds {
		byID[meds[idx].ID] = &meds[idx]
	}

	for _, id := range ids {
		var (
			hist []objects.HistoryRecord
			med  = byID[id]
		)

		if err = ctx.Err(); err != nil {
			return nil, err
		} else if hist, err = t.hist.HistoryGetRange(id, gapStart, now); err != nil {
			return nil, err
		}

		for _, occ := range scanner.FindMissed(med, entries[id], gapStart, now, hist) {
			var idx = index(id)
			if idx.Has(occ.Timestamp) {
				continue
			}

			idx.Add(occ.Timestamp)
			cands = append(cands, candidate{med: med, scheduled: occ.Timestamp})
		}
	}

	return cands, nil
} // func (t *Tracker) scan(...) ([]candidate, error)

// Trigger starts a reconciliation pass in the background and returns a
// channel that receives its Report, and that of the follow-up pass if
// there is one, before it is closed.
// If a pass started by Trigger is still running, Trigger returns nil and
// the running pass is repeated once it has finished.
func (t *Tracker) Trigger(ctx context.Context) <-chan *objects.Report {
	t.lock.Lock()
	if t.running {
		t.dirty = true
		t.lock.Unlock()
		return nil
	}
	t.running = true
	t.lock.Unlock()

	var ch = make(chan *objects.Report, triggerBuffer)

	go func() {
		defer close(ch)

		for {
			var rep, _ = t.Reconcile(ctx)

			select {
			case ch <- rep:
			default:
			}

			t.lock.Lock()
			if !t.dirty {
				t.running = false
				t.lock.Unlock()
				return
			}
			t.dirty = false
			t.lock.Unlock()
		}
	}()

	return ch
} // func (t *Tracker) Trigger(ctx context.Context) <-chan *objects.Report
