// /home/krylon/go/src/github.com/blicero/pillbox/kvstore/kvstore.go
// -*- mode: go; coding: utf-8; -*-
// Created on 13. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-14 22:17:35 krylon>

// Package kvstore wraps a BadgerDB instance to hold the small pieces of
// state that are read and written as a whole: the set of pending doses and
// the time of the last reconciliation.
package kvstore

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/blicero/pillbox/common"
	"github.com/blicero/pillbox/logdomain"
	"github.com/dgraph-io/badger/v4"
)

// CheckpointKey is the key the checkpoint is stored under.
const CheckpointKey = "checkpoint"

// ErrNotFound is returned by Get if the key does not exist.
var ErrNotFound = errors.New("key not found")

// Config holds configuration for a Store.
type Config struct {
	// Path is the directory for the BadgerDB files.
	// Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in RAM. Useful for testing.
	InMemory bool

	// SyncWrites fsyncs every write.
	SyncWrites bool
}

// DefaultConfig returns the configuration used by the backend.
func DefaultConfig() Config {
	return Config{
		Path:       common.KVPath,
		SyncWrites: true,
	}
} // func DefaultConfig() Config

// Store is a small key/value store. It is safe for concurrent use, but
// it does not serialize read-modify-write sequences, that is up to the
// caller.
type Store struct {
	log *log.Logger
	db  *badger.DB
}

// badgerLogger adapts our Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	log *log.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Printf("[ERROR] "+format, args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Printf("[WARN] "+format, args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Printf("[DEBUG] "+format, args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Printf("[TRACE] "+format, args...)
}

// Open opens the Store described by cfg.
func Open(cfg Config) (*Store, error) {
	var (
		err  error
		opts badger.Options
		s    = new(Store)
	)

	if s.log, err = common.GetLogger(logdomain.KVStore); err != nil {
		return nil, err
	}

	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else if cfg.Path == "" {
		return nil, errors.New("path is required for persistent key/value store")
	} else if err = os.MkdirAll(cfg.Path, 0700); err != nil {
		s.log.Printf("[ERROR] Cannot create directory %s: %s\n",
			cfg.Path,
			err.Error())
		return nil, err
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.
		WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{log: s.log})

	if s.db, err = badger.Open(opts); err != nil {
		s.log.Printf("[ERROR] Cannot open key/value store at %q: %s\n",
			cfg.Path,
			err.Error())
		return nil, fmt.Errorf("open key/value store: %w", err)
	}

	return s, nil
} // func Open(cfg Config) (*Store, error)

// OpenInMemory opens a Store that keeps nothing on disk.
func OpenInMemory() (*Store, error) {
	return Open(Config{InMemory: true})
} // func OpenInMemory() (*Store, error)

// Close closes the Store.
func (s *Store) Close() error {
	return s.db.Close()
} // func (s *Store) Close() error

// Get returns a copy of the value stored under key.
func (s *Store) Get(key string) ([]byte, error) {
	var val []byte

	var err = s.db.View(func(txn *badger.Txn) error {
		var item, err = txn.Get([]byte(key))
		if err != nil {
			return err
		}

		val, err = item.ValueCopy(nil)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		s.log.Printf("[ERROR] Cannot read key %q: %s\n",
			key,
			err.Error())
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	return val, nil
} // func (s *Store) Get(key string) ([]byte, error)

// Put stores val under key, replacing whatever was there.
func (s *Store) Put(key string, val []byte) error {
	var err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), val)
	})

	if err != nil {
		s.log.Printf("[ERROR] Cannot write key %q: %s\n",
			key,
			err.Error())
		return fmt.Errorf("write %s: %w", key, err)
	}

	return nil
} // func (s *Store) Put(key string, val []byte) error

// Delete removes key. Deleting a key that does not exist is not an error.
func (s *Store) Delete(key string) error {
	var err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})

	if err != nil {
		s.log.Printf("[ERROR] Cannot delete key %q: %s\n",
			key,
			err.Error())
		return fmt.Errorf("delete %s: %w", key, err)
	}

	return nil
} // func (s *Store) Delete(key string) error

// Checkpoint returns the time of the last successful reconciliation.
// The boolean is false if there was none yet.
func (s *Store) Checkpoint() (time.Time, bool, error) {
	var (
		err   error
		val   []byte
		stamp int64
	)

	if val, err = s.Get(CheckpointKey); err != nil {
		if errors.Is(err, ErrNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	} else if stamp, err = strconv.ParseInt(string(val), 10, 64); err != nil {
		s.log.Printf("[ERROR] Invalid checkpoint %q, ignoring it: %s\n",
			val,
			err.Error())
		return time.Time{}, false, nil
	}

	return time.Unix(stamp, 0), true, nil
} // func (s *Store) Checkpoint() (time.Time, bool, error)

// SetCheckpoint records t as the time of the last successful reconciliation.
func (s *Store) SetCheckpoint(t time.Time) error {
	return s.Put(CheckpointKey, []byte(strconv.FormatInt(t.Unix(), 10)))
} // func (s *Store) SetCheckpoint(t time.Time) error

// ClearCheckpoint forgets the checkpoint, so the next reconciliation will
// not look for missed doses.
func (s *Store) ClearCheckpoint() error {
	return s.Delete(CheckpointKey)
} // func (s *Store) ClearCheckpoint() error

// RunGC reclaims space in the value log. It returns true if anything was
// rewritten.
func (s *Store) RunGC(discardRatio float64) (bool, error) {
	var err = s.db.RunValueLogGC(discardRatio)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrNoRewrite),
		errors.Is(err, badger.ErrRejected),
		errors.Is(err, badger.ErrGCInMemoryMode):
		return false, nil
	default:
		s.log.Printf("[ERROR] Value log GC failed: %s\n",
			err.Error())
		return false, err
	}
} // func (s *Store) RunGC(discardRatio float64) (bool, error)
