// /home/krylon/go/src/github.com/blicero/pillbox/database/pool.go
// -*- mode: go; coding: utf-8; -*-
// Created on 13. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-14 23:30:02 krylon>

package database

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/blicero/pillbox/common"
	"github.com/blicero/pillbox/logdomain"
	"github.com/blicero/pillbox/objects"
)

// ErrPoolClosed is returned by operations on a Pool that has been closed.
var ErrPoolClosed = errors.New("database pool has been closed")

// Pool is a fixed-size set of Database connections. Get blocks until a
// connection is available.
type Pool struct {
	cnt  int
	log  *log.Logger
	lock sync.RWMutex
	path string
	conn chan *Database
}

// NewPool creates a Pool of cnt connections to the default database.
func NewPool(cnt int) (*Pool, error) {
	return NewPoolAt(common.DbPath, cnt)
} // func NewPool(cnt int) (*Pool, error)

// NewPoolAt creates a Pool of cnt connections to the database at path.
func NewPoolAt(path string, cnt int) (*Pool, error) {
	var (
		err  error
		pool = &Pool{
			cnt:  cnt,
			path: path,
			conn: make(chan *Database, cnt),
		}
	)

	if cnt < 1 {
		return nil, errors.New("pool size must be at least 1")
	} else if pool.log, err = common.GetLogger(logdomain.Database); err != nil {
		return nil, err
	}

	for i := 0; i < cnt; i++ {
		var db *Database

		if db, err = Open(path); err != nil {
			pool.log.Printf("[ERROR] Cannot open database #%d at %s: %s\n",
				i+1,
				path,
				err.Error())
			pool.Close() // nolint: errcheck
			return nil, err
		}

		pool.conn <- db
	}

	return pool, nil
} // func NewPoolAt(path string, cnt int) (*Pool, error)

// Close closes all connections in the Pool. Connections currently handed
// out are closed when they are returned.
func (pool *Pool) Close() error {
	pool.lock.Lock()
	defer pool.lock.Unlock()

	if pool.conn == nil {
		return ErrPoolClosed
	}

	var err error

	for {
		select {
		case db := <-pool.conn:
			if e2 := db.Close(); e2 != nil && err == nil {
				err = e2
			}
		default:
			pool.conn = nil
			return err
		}
	}
} // func (pool *Pool) Close() error

// Get returns a connection from the Pool, waiting for one to become
// available if necessary. It returns nil if the Pool has been closed.
func (pool *Pool) Get() *Database {
	pool.lock.RLock()
	var ch = pool.conn
	pool.lock.RUnlock()

	if ch == nil {
		return nil
	}

	return <-ch
} // func (pool *Pool) Get() *Database

// GetNoWait returns a connection from the Pool, or nil if none is
// available within timeout.
func (pool *Pool) GetNoWait(timeout time.Duration) *Database {
	pool.lock.RLock()
	var ch = pool.conn
	pool.lock.RUnlock()

	if ch == nil {
		return nil
	}

	select {
	case db := <-ch:
		return db
	case <-time.After(timeout):
		return nil
	}
} // func (pool *Pool) GetNoWait(timeout time.Duration) *Database

// Put returns a connection to the Pool.
func (pool *Pool) Put(db *Database) {
	if db == nil {
		return
	}

	pool.lock.RLock()
	defer pool.lock.RUnlock()

	if pool.conn == nil {
		db.Close() // nolint: errcheck
		return
	}

	pool.conn <- db
} // func (pool *Pool) Put(db *Database)

// The methods below borrow a connection for a single operation, so a Pool
// can be handed to code that does not care about connections.

// MedicationGetAll returns all Medications.
func (pool *Pool) MedicationGetAll() ([]objects.Medication, error) {
	var db = pool.Get()
	if db == nil {
		return nil, ErrPoolClosed
	}
	defer pool.Put(db)

	return db.MedicationGetAll()
} // func (pool *Pool) MedicationGetAll() ([]objects.Medication, error)

// MedicationGetByID looks up a Medication by its ID.
func (pool *Pool) MedicationGetByID(id int64) (*objects.Medication, error) {
	var db = pool.Get()
	if db == nil {
		return nil, ErrPoolClosed
	}
	defer pool.Put(db)

	return db.MedicationGetByID(id)
} // func (pool *Pool) MedicationGetByID(id int64) (*objects.Medication, error)

// HistoryAddMissed records a missed dose unless its slot is taken.
func (pool *Pool) HistoryAddMissed(r *objects.HistoryRecord) (bool, error) {
	var db = pool.Get()
	if db == nil {
		return false, ErrPoolClosed
	}
	defer pool.Put(db)

	return db.HistoryAddMissed(r)
} // func (pool *Pool) HistoryAddMissed(r *objects.HistoryRecord) (bool, error)

// HistoryReplace stores r, superseding any record for the same slot.
func (pool *Pool) HistoryReplace(r *objects.HistoryRecord) error {
	var db = pool.Get()
	if db == nil {
		return ErrPoolClosed
	}
	defer pool.Put(db)

	return db.HistoryReplace(r)
} // func (pool *Pool) HistoryReplace(r *objects.HistoryRecord) error

// HistoryGetRange returns the history of a medication between from and to.
func (pool *Pool) HistoryGetRange(medID int64, from, to time.Time) ([]objects.HistoryRecord, error) {
	var db = pool.Get()
	if db == nil {
		return nil, ErrPoolClosed
	}
	defer pool.Put(db)

	return db.HistoryGetRange(medID, from, to)
} // func (pool *Pool) HistoryGetRange(medID int64, from, to time.Time) ([]objects.HistoryRecord, error)
