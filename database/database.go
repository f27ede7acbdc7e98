// /home/krylon/go/src/github.com/blicero/pillbox/database/database.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-14 22:48:19 krylon>

// Package database provides persistence for Medications and the dose
// history, using SQLite.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/blicero/krylib"
	"github.com/blicero/pillbox/common"
	"github.com/blicero/pillbox/database/query"
	"github.com/blicero/pillbox/logdomain"
	"github.com/mattn/go-sqlite3"
)

const (
	retryDelay = 25 * time.Millisecond
	maxRetries = 40
)

// ErrTxInProgress is returned if Begin is called on a Database that already
// has a transaction in progress.
var ErrTxInProgress = errors.New("a transaction is already in progress")

// ErrNoTxInProgress is returned by Commit or Rollback if there is no
// transaction in progress.
var ErrNoTxInProgress = errors.New("there is no transaction in progress")

// Database is the storage backend for Medications and history records.
// A Database is not safe for concurrent use, use a Pool to share them
// between goroutines.
type Database struct {
	db      *sql.DB
	tx      *sql.Tx
	log     *log.Logger
	path    string
	queries map[query.ID]*sql.Stmt
}

// Open opens a Database. If the database specified by the path does not
// exist, yet, it is created and initialized.
func Open(path string) (*Database, error) {
	var (
		err      error
		dbExists bool
		db       = &Database{
			path:    path,
			queries: make(map[query.ID]*sql.Stmt),
		}
	)

	if db.log, err = common.GetLogger(logdomain.Database); err != nil {
		return nil, err
	} else if common.Debug {
		db.log.Printf("[DEBUG] Open database %s\n", path)
	}

	var connstring = fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate&_fk=true",
		path)

	if dbExists, err = krylib.Fexists(path); err != nil {
		db.log.Printf("[ERROR] Failed to check if %s already exists: %s\n",
			path,
			err.Error())
		return nil, err
	} else if db.db, err = sql.Open("sqlite3", connstring); err != nil {
		db.log.Printf("[ERROR] Failed to open %s: %s\n",
			path,
			err.Error())
		return nil, err
	}

	if !dbExists {
		if err = db.initialize(); err != nil {
			var e2 error
			if e2 = db.db.Close(); e2 != nil {
				db.log.Printf("[CRITICAL] Failed to close database: %s\n",
					e2.Error())
				return nil, e2
			}
			return nil, err
		}
		db.log.Println("[INFO] Database has been initialized.")
	}

	return db, nil
} // func Open(path string) (*Database, error)

func (db *Database) initialize() error {
	var (
		err error
		tx  *sql.Tx
	)

	if tx, err = db.db.Begin(); err != nil {
		db.log.Printf("[ERROR] Cannot begin transaction: %s\n",
			err.Error())
		return err
	}

	for _, q := range initQueries {
		db.log.Printf("[TRACE] Execute init query:\n%s\n",
			q)
		if _, err = tx.Exec(q); err != nil {
			db.log.Printf("[ERROR] Cannot execute init query: %s\n%s\n",
				err.Error(),
				q)
			if rbErr := tx.Rollback(); rbErr != nil {
				db.log.Printf("[CANTHAPPEN] Cannot rollback transaction: %s\n",
					rbErr.Error())
				return rbErr
			}
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		db.log.Printf("[CANTHAPPEN] Failed to commit init transaction: %s\n",
			err.Error())
		return err
	}

	return nil
} // func (db *Database) initialize() error

// Close closes the database.
// If there is a pending transaction, it is rolled back.
func (db *Database) Close() error {
	if db.tx != nil {
		if err := db.tx.Rollback(); err != nil {
			db.log.Printf("[ERROR] Cannot roll back pending transaction: %s\n",
				err.Error())
			return err
		}
		db.tx = nil
	}

	for key, stmt := range db.queries {
		if err := stmt.Close(); err != nil {
			db.log.Printf("[CRITICAL] Cannot close statement handle %s: %s\n",
				key,
				err.Error())
			return err
		}
		delete(db.queries, key)
	}

	if err := db.db.Close(); err != nil {
		db.log.Printf("[CRITICAL] Cannot close database: %s\n",
			err.Error())
		return err
	}

	db.db = nil
	return nil
} // func (db *Database) Close() error

// getQuery returns the prepared statement for the given query, preparing
// it first if necessary. If a transaction is in progress, the statement is
// bound to it.
func (db *Database) getQuery(id query.ID) (*sql.Stmt, error) {
	var (
		stmt  *sql.Stmt
		found bool
		err   error
	)

	if stmt, found = db.queries[id]; found {
		goto FOUND
	} else if _, found = dbQueries[id]; !found {
		return nil, fmt.Errorf("unknown query %s", id)
	}

PREPARE_QUERY:
	if stmt, err = db.db.Prepare(dbQueries[id]); err != nil {
		if worthARetry(err) {
			waitForRetry()
			goto PREPARE_QUERY
		}

		db.log.Printf("[ERROR] Cannot parse query %s: %s\n%s\n",
			id,
			err.Error(),
			dbQueries[id])
		return nil, err
	}

	db.queries[id] = stmt

FOUND:
	if db.tx != nil {
		return db.tx.Stmt(stmt), nil
	}

	return stmt, nil
} // func (db *Database) getQuery(id query.ID) (*sql.Stmt, error)

// worthARetry returns true if err is a transient condition, i.e. the
// database being locked by another connection.
func worthARetry(err error) bool {
	var sqliteErr sqlite3.Error

	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}

	var msg = strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
} // func worthARetry(err error) bool

func waitForRetry() {
	time.Sleep(retryDelay)
} // func waitForRetry()

// Begin begins an explicit database transaction.
// Only one transaction can be in progress at once, attempting to start one,
// while another transaction is already in progress will yield ErrTxInProgress.
func (db *Database) Begin() error {
	var (
		err      error
		tx       *sql.Tx
		attempts int
	)

	if db.tx != nil {
		return ErrTxInProgress
	}

BEGIN_TX:
	for db.tx == nil {
		if tx, err = db.db.Begin(); err != nil {
			if worthARetry(err) && attempts < maxRetries {
				attempts++
				waitForRetry()
				continue BEGIN_TX
			}

			db.log.Printf("[ERROR] Failed to start transaction: %s\n",
				err.Error())
			return err
		}

		db.tx = tx
	}

	return nil
} // func (db *Database) Begin() error

// Commit commits the current transaction.
// Attempting to commit a transaction when none is in progress yields
// ErrNoTxInProgress.
func (db *Database) Commit() error {
	var err error

	if db.tx == nil {
		return ErrNoTxInProgress
	} else if err = db.tx.Commit(); err != nil {
		db.log.Printf("[ERROR] Cannot commit transaction: %s\n",
			err.Error())
		return err
	}

	db.tx = nil
	return nil
} // func (db *Database) Commit() error

// Rollback terminates a pending transaction, undoing any changes to the
// database made during that transaction.
func (db *Database) Rollback() error {
	var err error

	if db.tx == nil {
		return ErrNoTxInProgress
	} else if err = db.tx.Rollback(); err != nil {
		db.log.Printf("[ERROR] Cannot roll back transaction: %s\n",
			err.Error())
		return err
	}

	db.tx = nil
	return nil
} // func (db *Database) Rollback() error

// withTx runs fn inside a transaction. If a transaction is already in
// progress, fn joins it and the caller remains responsible for it.
func (db *Database) withTx(fn func() error) error {
	if db.tx != nil {
		return fn()
	}

	var err error

	if err = db.Begin(); err != nil {
		return err
	} else if err = fn(); err != nil {
		if rbErr := db.Rollback(); rbErr != nil {
			db.log.Printf("[CRITICAL] Rollback failed after error (%s): %s\n",
				err.Error(),
				rbErr.Error())
		}
		return err
	}

	return db.Commit()
} // func (db *Database) withTx(fn func() error) error
