// /home/krylon/go/src/github.com/blicero/pillbox/database/history.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-14 23:12:40 krylon>

package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/blicero/pillbox/common"
	"github.com/blicero/pillbox/database/query"
	"github.com/blicero/pillbox/objects"
	"github.com/blicero/pillbox/objects/action"
)

// slot converts a scheduled time to the representation stored in the
// database, unix seconds truncated to the minute.
func slot(t time.Time) int64 {
	return t.Truncate(time.Minute).Unix()
} // func slot(t time.Time) int64

func unixOrZero(stamp int64) time.Time {
	if stamp == 0 {
		return time.Time{}
	}
	return time.Unix(stamp, 0)
} // func unixOrZero(stamp int64) time.Time

func zeroOrUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
} // func zeroOrUnix(t time.Time) int64

// HistoryAdd adds a HistoryRecord to the database. If there already is a
// record for the same medication and slot, nothing is written and the
// boolean return value is false.
func (db *Database) HistoryAdd(r *objects.HistoryRecord) (bool, error) {
	const qid query.ID = query.HistoryAdd
	var (
		err      error
		stmt     *sql.Stmt
		res      sql.Result
		cnt      int64
		attempts int
	)

	if !r.Action.Valid() {
		return false, fmt.Errorf("invalid action %d", r.Action)
	} else if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return false, err
	}

	if r.UUID == "" {
		r.UUID = common.GetUUID()
	}

EXEC_QUERY:
	if res, err = stmt.Exec(
		r.UUID,
		r.MedicationID,
		r.ProfileID,
		r.MedicationName,
		slot(r.Scheduled),
		zeroOrUnix(r.Taken),
		r.OnTime,
		r.Action,
	); err != nil {
		if worthARetry(err) && attempts < maxRetries {
			attempts++
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot add %s: %s\n",
			r,
			err.Error())
		return false, err
	} else if cnt, err = res.RowsAffected(); err != nil {
		db.log.Printf("[ERROR] Cannot get number of affected rows: %s\n",
			err.Error())
		return false, err
	} else if cnt == 0 {
		db.log.Printf("[DEBUG] %s already has a record, nothing was added\n",
			r)
		return false, nil
	}

	var id int64
	if id, err = res.LastInsertId(); err != nil {
		db.log.Printf("[ERROR] Cannot get ID of new HistoryRecord: %s\n",
			err.Error())
		return false, err
	}

	r.ID = id
	return true, nil
} // func (db *Database) HistoryAdd(r *objects.HistoryRecord) (bool, error)

// HistoryAddMissed records a missed dose, unless the slot already has a
// record of any kind. The check and the insert happen in one transaction.
func (db *Database) HistoryAddMissed(r *objects.HistoryRecord) (bool, error) {
	var added bool

	r.Action = action.Missed
	r.Taken = time.Time{}
	r.OnTime = false

	var err = db.withTx(func() error {
		var (
			ex *objects.HistoryRecord
			e2 error
		)

		if ex, e2 = db.HistoryGetSlot(r.MedicationID, r.Scheduled); e2 != nil {
			return e2
		} else if ex != nil {
			return nil
		}

		added, e2 = db.HistoryAdd(r)
		return e2
	})

	if err != nil {
		return false, err
	}

	return added, nil
} // func (db *Database) HistoryAddMissed(r *objects.HistoryRecord) (bool, error)

// HistoryReplace stores r, superseding whatever record already exists for
// the same medication and slot.
func (db *Database) HistoryReplace(r *objects.HistoryRecord) error {
	return db.withTx(func() error {
		var (
			err   error
			added bool
		)

		if err = db.HistoryDeleteSlot(r.MedicationID, r.Scheduled); err != nil {
			return err
		} else if added, err = db.HistoryAdd(r); err != nil {
			return err
		} else if !added {
			return fmt.Errorf("slot %d@%s is still occupied",
				r.MedicationID,
				r.Scheduled.Format(common.TimestampFormatMinute))
		}

		return nil
	})
} // func (db *Database) HistoryReplace(r *objects.HistoryRecord) error

// HistoryDeleteSlot removes the record for the given medication and slot,
// if there is one.
func (db *Database) HistoryDeleteSlot(medID int64, scheduled time.Time) error {
	const qid query.ID = query.HistoryDeleteSlot
	var (
		err      error
		stmt     *sql.Stmt
		attempts int
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return err
	}

EXEC_QUERY:
	if _, err = stmt.Exec(medID, slot(scheduled)); err != nil {
		if worthARetry(err) && attempts < maxRetries {
			attempts++
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot delete history of Medication %d at %s: %s\n",
			medID,
			scheduled.Format(common.TimestampFormatMinute),
			err.Error())
		return err
	}

	return nil
} // func (db *Database) HistoryDeleteSlot(medID int64, scheduled time.Time) error

// HistoryGetSlot returns the record for the given medication and slot.
// If there is none, it returns nil and no error.
func (db *Database) HistoryGetSlot(medID int64, scheduled time.Time) (*objects.HistoryRecord, error) {
	const qid query.ID = query.HistoryGetSlot
	var (
		err      error
		stmt     *sql.Stmt
		taken    int64
		attempts int
		r        = &objects.HistoryRecord{
			MedicationID: medID,
			Scheduled:    time.Unix(slot(scheduled), 0),
		}
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return nil, err
	}

EXEC_QUERY:
	if err = stmt.QueryRow(medID, slot(scheduled)).Scan(
		&r.ID,
		&r.UUID,
		&r.ProfileID,
		&r.MedicationName,
		&taken,
		&r.OnTime,
		&r.Action,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		} else if worthARetry(err) && attempts < maxRetries {
			attempts++
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot look up history of Medication %d at %s: %s\n",
			medID,
			scheduled.Format(common.TimestampFormatMinute),
			err.Error())
		return nil, err
	}

	r.Taken = unixOrZero(taken)
	return r, nil
} // func (db *Database) HistoryGetSlot(medID int64, scheduled time.Time) (*objects.HistoryRecord, error)

// HistoryGetRange returns the records of a medication scheduled between
// from and to, inclusive, ordered by scheduled time.
func (db *Database) HistoryGetRange(medID int64, from, to time.Time) ([]objects.HistoryRecord, error) {
	const qid query.ID = query.HistoryGetRange
	var (
		err      error
		stmt     *sql.Stmt
		rows     *sql.Rows
		attempts int
		list     []objects.HistoryRecord
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return nil, err
	}

EXEC_QUERY:
	if rows, err = stmt.Query(medID, slot(from), to.Unix()); err != nil {
		if worthARetry(err) && attempts < maxRetries {
			attempts++
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot query history of Medication %d: %s\n",
			medID,
			err.Error())
		return nil, err
	}

	defer rows.Close() // nolint: errcheck

	for rows.Next() {
		var (
			scheduled, taken int64
			r                = objects.HistoryRecord{MedicationID: medID}
		)

		if err = rows.Scan(
			&r.ID,
			&r.UUID,
			&r.ProfileID,
			&r.MedicationName,
			&scheduled,
			&taken,
			&r.OnTime,
			&r.Action,
		); err != nil {
			db.log.Printf("[ERROR] Cannot scan row: %s\n", err.Error())
			return nil, err
		}

		r.Scheduled = time.Unix(scheduled, 0)
		r.Taken = unixOrZero(taken)
		list = append(list, r)
	}

	return list, rows.Err()
} // func (db *Database) HistoryGetRange(medID int64, from, to time.Time) ([]objects.HistoryRecord, error)

// HistoryGetByProfile returns the records of all medications of a profile
// scheduled between from and to, inclusive.
func (db *Database) HistoryGetByProfile(profileID int64, from, to time.Time) ([]objects.HistoryRecord, error) {
	const qid query.ID = query.HistoryGetByProfile
	var (
		err      error
		stmt     *sql.Stmt
		rows     *sql.Rows
		attempts int
		list     []objects.HistoryRecord
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return nil, err
	}

EXEC_QUERY:
	if rows, err = stmt.Query(profileID, slot(from), to.Unix()); err != nil {
		if worthARetry(err) && attempts < maxRetries {
			attempts++
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot query history of profile %d: %s\n",
			profileID,
			err.Error())
		return nil, err
	}

	defer rows.Close() // nolint: errcheck

	for rows.Next() {
		var (
			scheduled, taken int64
			r                = objects.HistoryRecord{ProfileID: profileID}
		)

		if err = rows.Scan(
			&r.ID,
			&r.UUID,
			&r.MedicationID,
			&r.MedicationName,
			&scheduled,
			&taken,
			&r.OnTime,
			&r.Action,
		); err != nil {
			db.log.Printf("[ERROR] Cannot scan row: %s\n", err.Error())
			return nil, err
		}

		r.Scheduled = time.Unix(scheduled, 0)
		r.Taken = unixOrZero(taken)
		list = append(list, r)
	}

	return list, rows.Err()
} // func (db *Database) HistoryGetByProfile(profileID int64, from, to time.Time) ([]objects.HistoryRecord, error)
