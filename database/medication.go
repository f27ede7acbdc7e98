// /home/krylon/go/src/github.com/blicero/pillbox/database/medication.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-14 16:55:21 krylon>

package database

import (
	"database/sql"
	"errors"
	"time"

	"github.com/blicero/pillbox/common"
	"github.com/blicero/pillbox/database/query"
	"github.com/blicero/pillbox/objects"
)

// MedicationAdd adds a Medication to the database and sets its ID.
// The schedule is checked before anything is written.
func (db *Database) MedicationAdd(m *objects.Medication) error {
	const qid query.ID = query.MedicationAdd
	var (
		err      error
		stmt     *sql.Stmt
		res      sql.Result
		attempts int
		now      = time.Now()
	)

	if _, err = m.Entries(); err != nil {
		db.log.Printf("[ERROR] Refusing to add Medication %q with invalid schedule: %s\n",
			m.Name,
			err.Error())
		return err
	} else if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return err
	}

	if m.UUID == "" {
		m.UUID = common.GetUUID()
	}

EXEC_QUERY:
	if res, err = stmt.Exec(m.ProfileID, m.Name, m.PhotoRef, m.Schedule, m.UUID, now.Unix()); err != nil {
		if worthARetry(err) && attempts < maxRetries {
			attempts++
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot add Medication %q to database: %s\n",
			m.Name,
			err.Error())
		return err
	} else if m.ID, err = res.LastInsertId(); err != nil {
		db.log.Printf("[ERROR] Cannot get ID of new Medication %q: %s\n",
			m.Name,
			err.Error())
		return err
	}

	m.Changed = now
	return nil
} // func (db *Database) MedicationAdd(m *objects.Medication) error

// MedicationDelete removes the Medication with the given ID.
// Its history is kept.
func (db *Database) MedicationDelete(id int64) error {
	const qid query.ID = query.MedicationDelete
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
	if _, err = stmt.Exec(id); err != nil {
		if worthARetry(err) && attempts < maxRetries {
			attempts++
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot delete Medication %d: %s\n",
			id,
			err.Error())
		return err
	}

	return nil
} // func (db *Database) MedicationDelete(id int64) error

// MedicationDeleteByProfile removes all Medications of a profile and
// returns how many there were.
func (db *Database) MedicationDeleteByProfile(profileID int64) (int64, error) {
	const qid query.ID = query.MedicationDeleteByProfile
	var (
		err      error
		stmt     *sql.Stmt
		res      sql.Result
		cnt      int64
		attempts int
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return 0, err
	}

EXEC_QUERY:
	if res, err = stmt.Exec(profileID); err != nil {
		if worthARetry(err) && attempts < maxRetries {
			attempts++
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot delete Medications of profile %d: %s\n",
			profileID,
			err.Error())
		return 0, err
	} else if cnt, err = res.RowsAffected(); err != nil {
		db.log.Printf("[ERROR] Cannot get number of deleted Medications: %s\n",
			err.Error())
		return 0, err
	}

	return cnt, nil
} // func (db *Database) MedicationDeleteByProfile(profileID int64) (int64, error)

// MedicationGetAll returns all Medications.
func (db *Database) MedicationGetAll() ([]objects.Medication, error) {
	const qid query.ID = query.MedicationGetAll
	var (
		err      error
		stmt     *sql.Stmt
		rows     *sql.Rows
		attempts int
		list     []objects.Medication
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return nil, err
	}

EXEC_QUERY:
	if rows, err = stmt.Query(); err != nil {
		if worthARetry(err) && attempts < maxRetries {
			attempts++
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot query Medications: %s\n",
			err.Error())
		return nil, err
	}

	defer rows.Close() // nolint: errcheck

	for rows.Next() {
		var (
			m     objects.Medication
			stamp int64
		)

		if err = rows.Scan(&m.ID, &m.ProfileID, &m.Name, &m.PhotoRef, &m.Schedule, &m.UUID, &stamp); err != nil {
			db.log.Printf("[ERROR] Cannot scan row: %s\n", err.Error())
			return nil, err
		}

		m.Changed = time.Unix(stamp, 0)
		list = append(list, m)
	}

	return list, rows.Err()
} // func (db *Database) MedicationGetAll() ([]objects.Medication, error)

// MedicationGetByID looks up a Medication by its ID.
// If there is no such Medication, it returns nil and no error.
func (db *Database) MedicationGetByID(id int64) (*objects.Medication, error) {
	const qid query.ID = query.MedicationGetByID
	var (
		err      error
		stmt     *sql.Stmt
		stamp    int64
		attempts int
		m        = &objects.Medication{ID: id}
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return nil, err
	}

EXEC_QUERY:
	if err = stmt.QueryRow(id).Scan(&m.ProfileID, &m.Name, &m.PhotoRef, &m.Schedule, &m.UUID, &stamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		} else if worthARetry(err) && attempts < maxRetries {
			attempts++
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot look up Medication %d: %s\n",
			id,
			err.Error())
		return nil, err
	}

	m.Changed = time.Unix(stamp, 0)
	return m, nil
} // func (db *Database) MedicationGetByID(id int64) (*objects.Medication, error)

// MedicationGetByProfile returns the Medications belonging to a profile.
func (db *Database) MedicationGetByProfile(profileID int64) ([]objects.Medication, error) {
	const qid query.ID = query.MedicationGetByProfile
	var (
		err      error
		stmt     *sql.Stmt
		rows     *sql.Rows
		attempts int
		list     []objects.Medication
	)

	if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return nil, err
	}

EXEC_QUERY:
	if rows, err = stmt.Query(profileID); err != nil {
		if worthARetry(err) && attempts < maxRetries {
			attempts++
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot query Medications of profile %d: %s\n",
			profileID,
			err.Error())
		return nil, err
	}

	defer rows.Close() // nolint: errcheck

	for rows.Next() {
		var (
			stamp int64
			m     = objects.Medication{ProfileID: profileID}
		)

		if err = rows.Scan(&m.ID, &m.Name, &m.PhotoRef, &m.Schedule, &m.UUID, &stamp); err != nil {
			db.log.Printf("[ERROR] Cannot scan row: %s\n", err.Error())
			return nil, err
		}

		m.Changed = time.Unix(stamp, 0)
		list = append(list, m)
	}

	return list, rows.Err()
} // func (db *Database) MedicationGetByProfile(profileID int64) ([]objects.Medication, error)

// MedicationSetSchedule replaces the schedule of a Medication.
func (db *Database) MedicationSetSchedule(m *objects.Medication, entries []objects.ScheduleEntry) error {
	const qid query.ID = query.MedicationSetSchedule
	var (
		err      error
		stmt     *sql.Stmt
		buf      []byte
		attempts int
		now      = time.Now()
	)

	if buf, err = objects.MarshalSchedule(entries); err != nil {
		db.log.Printf("[ERROR] Cannot serialize schedule for Medication %d: %s\n",
			m.ID,
			err.Error())
		return err
	} else if stmt, err = db.getQuery(qid); err != nil {
		db.log.Printf("[ERROR] Cannot prepare query %s: %s\n",
			qid,
			err.Error())
		return err
	}

EXEC_QUERY:
	if _, err = stmt.Exec(string(buf), now.Unix(), m.ID); err != nil {
		if worthARetry(err) && attempts < maxRetries {
			attempts++
			waitForRetry()
			goto EXEC_QUERY
		}

		db.log.Printf("[ERROR] Cannot update schedule of Medication %d: %s\n",
			m.ID,
			err.Error())
		return err
	}

	m.Schedule = string(buf)
	m.Changed = now
	return nil
} // func (db *Database) MedicationSetSchedule(m *objects.Medication, entries []objects.ScheduleEntry) error
