// /home/krylon/go/src/github.com/blicero/pillbox/pending/pending.go
// -*- mode: go; coding: utf-8; -*-
// Created on 13. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-15 09:26:50 krylon>

// Package pending keeps track of the doses whose notifications are
// currently shown.
//
// The whole set is persisted as one JSON array. Every mutation reads,
// modifies and writes the complete set while holding the Store's lock, so
// there must be exactly one Store per backing key/value store.
package pending

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/blicero/pillbox/common"
	"github.com/blicero/pillbox/kvstore"
	"github.com/blicero/pillbox/logdomain"
	"github.com/blicero/pillbox/objects"
	"github.com/pquerna/ffjson/ffjson"
)

// Key is the key the pending set is stored under.
const Key = "pending"

// DefaultTTL is how long a PendingDose lives if nobody reacts to it.
const DefaultTTL = 2 * time.Hour

// Blob is the storage the pending set is kept in. Get must return an error
// matching kvstore.ErrNotFound if there is nothing stored under the key yet.
type Blob interface {
	Get(key string) ([]byte, error)
	Put(key string, val []byte) error
	Delete(key string) error
}

// Store is the persisted set of PendingDoses.
type Store struct {
	log  *log.Logger
	lock sync.Mutex
	kv   Blob
	ttl  time.Duration
	now  func() time.Time
}

// New creates a Store on top of kv. A ttl <= 0 means DefaultTTL.
func New(kv Blob, ttl time.Duration) (*Store, error) {
	var (
		err error
		s   = &Store{
			kv:  kv,
			ttl: ttl,
			now: time.Now,
		}
	)

	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}

	if s.log, err = common.GetLogger(logdomain.Pending); err != nil {
		return nil, err
	}

	return s, nil
} // func New(kv Blob, ttl time.Duration) (*Store, error)

// TTL returns the time after which a PendingDose is evicted.
func (s *Store) TTL() time.Duration {
	return s.ttl
} // func (s *Store) TTL() time.Duration

// SetClock replaces the function the Store uses to tell the time.
func (s *Store) SetClock(now func() time.Time) {
	s.lock.Lock()
	s.now = now
	s.lock.Unlock()
} // func (s *Store) SetClock(now func() time.Time)

// load reads the persisted set. The caller must hold the lock.
// A set that cannot be decoded is logged and treated as empty, so a
// corrupted blob cannot keep new alarms from being recorded.
func (s *Store) load() ([]objects.PendingDose, error) {
	var (
		err   error
		buf   []byte
		doses []objects.PendingDose
	)

	if buf, err = s.kv.Get(Key); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, nil
		}

		s.log.Printf("[ERROR] Cannot load pending set: %s\n",
			err.Error())
		return nil, fmt.Errorf("load pending set: %w", err)
	} else if len(buf) == 0 {
		return nil, nil
	} else if err = ffjson.Unmarshal(buf, &doses); err != nil {
		s.log.Printf("[ERROR] Cannot decode pending set, discarding it: %s\n%s\n",
			err.Error(),
			buf)
		return nil, nil
	}

	return doses, nil
} // func (s *Store) load() ([]objects.PendingDose, error)

// save persists the set. The caller must hold the lock.
func (s *Store) save(doses []objects.PendingDose) error {
	var (
		err error
		buf []byte
	)

	if doses == nil {
		doses = []objects.PendingDose{}
	}

	if buf, err = ffjson.Marshal(doses); err != nil {
		s.log.Printf("[CANTHAPPEN] Cannot serialize pending set: %s\n",
			err.Error())
		return err
	} else if err = s.kv.Put(Key, buf); err != nil {
		s.log.Printf("[ERROR] Cannot save pending set: %s\n",
			err.Error())
		return fmt.Errorf("save pending set: %w", err)
	}

	return nil
} // func (s *Store) save(doses []objects.PendingDose) error

// filter persists the doses for which keep returns true and returns the
// ones it dropped.
func (s *Store) filter(keep func(d *objects.PendingDose) bool) ([]objects.PendingDose, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	var (
		err     error
		doses   []objects.PendingDose
		kept    []objects.PendingDose
		removed []objects.PendingDose
	)

	if doses, err = s.load(); err != nil {
		return nil, err
	}

	kept = make([]objects.PendingDose, 0, len(doses))

	for idx := range doses {
		if keep(&doses[idx]) {
			kept = append(kept, doses[idx])
		} else {
			removed = append(removed, doses[idx])
		}
	}

	if len(removed) == 0 {
		return nil, nil
	} else if err = s.save(kept); err != nil {
		return nil, err
	}

	return removed, nil
} // func (s *Store) filter(keep func(d *objects.PendingDose) bool) ([]objects.PendingDose, error)

// Upsert adds d to the set, replacing any PendingDose with the same key.
// Afterwards, all doses older than the TTL are evicted; those are returned.
func (s *Store) Upsert(d objects.PendingDose) ([]objects.PendingDose, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	var (
		err     error
		doses   []objects.PendingDose
		kept    []objects.PendingDose
		evicted []objects.PendingDose
		key     = d.Key()
		now     = s.now()
	)

	if d.Timestamp.IsZero() {
		d.Timestamp = now
	}

	if doses, err = s.load(); err != nil {
		return nil, err
	}

	kept = make([]objects.PendingDose, 0, len(doses)+1)

	for idx := range doses {
		if doses[idx].Key() != key {
			kept = append(kept, doses[idx])
		}
	}

	kept = append(kept, d)

	var fresh = kept[:0]
	for _, p := range kept {
		if p.Age(now) > s.ttl {
			s.log.Printf("[DEBUG] Evict stale pending dose %s (created %s)\n",
				p.Key(),
				p.Timestamp.Format(common.TimestampFormat))
			evicted = append(evicted, p)
		} else {
			fresh = append(fresh, p)
		}
	}

	if err = s.save(fresh); err != nil {
		return nil, err
	}

	return evicted, nil
} // func (s *Store) Upsert(d objects.PendingDose) ([]objects.PendingDose, error)

// Remove removes all PendingDoses of the given medication.
func (s *Store) Remove(medID int64) ([]objects.PendingDose, error) {
	return s.filter(func(d *objects.PendingDose) bool {
		return d.MedicationID != medID
	})
} // func (s *Store) Remove(medID int64) ([]objects.PendingDose, error)

// RemoveAt removes all PendingDoses scheduled at hour:minute.
func (s *Store) RemoveAt(hour, minute int) ([]objects.PendingDose, error) {
	return s.filter(func(d *objects.PendingDose) bool {
		return d.Hour != hour || d.Minute != minute
	})
} // func (s *Store) RemoveAt(hour, minute int) ([]objects.PendingDose, error)

// RemoveDose removes the PendingDose with the given key, if there is one.
func (s *Store) RemoveDose(key objects.DoseKey) ([]objects.PendingDose, error) {
	return s.filter(func(d *objects.PendingDose) bool {
		return d.Key() != key
	})
} // func (s *Store) RemoveDose(key objects.DoseKey) ([]objects.PendingDose, error)

// RemoveForProfile removes all PendingDoses belonging to the given profile.
func (s *Store) RemoveForProfile(profileID int64) ([]objects.PendingDose, error) {
	return s.filter(func(d *objects.PendingDose) bool {
		return d.ProfileID != profileID
	})
} // func (s *Store) RemoveForProfile(profileID int64) ([]objects.PendingDose, error)

// ListAll returns all PendingDoses, oldest first.
func (s *Store) ListAll() ([]objects.PendingDose, error) {
	s.lock.Lock()
	var doses, err = s.load()
	s.lock.Unlock()

	if err != nil {
		return nil, err
	}

	sort.SliceStable(doses, func(i, j int) bool {
		return doses[i].Timestamp.Before(doses[j].Timestamp)
	})

	return doses, nil
} // func (s *Store) ListAll() ([]objects.PendingDose, error)

// ListAt returns the PendingDoses scheduled at hour:minute.
func (s *Store) ListAt(hour, minute int) ([]objects.PendingDose, error) {
	var (
		err   error
		all   []objects.PendingDose
		match []objects.PendingDose
	)

	if all, err = s.ListAll(); err != nil {
		return nil, err
	}

	for _, d := range all {
		if d.Hour == hour && d.Minute == minute {
			match = append(match, d)
		}
	}

	return match, nil
} // func (s *Store) ListAt(hour, minute int) ([]objects.PendingDose, error)

// Clear removes all PendingDoses.
func (s *Store) Clear() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.kv.Delete(Key); err != nil {
		s.log.Printf("[ERROR] Cannot clear pending set: %s\n",
			err.Error())
		return fmt.Errorf("clear pending set: %w", err)
	}

	return nil
} // func (s *Store) Clear() error

// Update runs fn on the current set and persists what it returns, all
// while holding the lock. If fn returns an error, nothing is written.
func (s *Store) Update(fn func(doses []objects.PendingDose) ([]objects.PendingDose, error)) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	var (
		err   error
		doses []objects.PendingDose
	)

	if doses, err = s.load(); err != nil {
		return err
	} else if doses, err = fn(doses); err != nil {
		return err
	}

	return s.save(doses)
} // func (s *Store) Update(fn func(doses []objects.PendingDose) ([]objects.PendingDose, error)) error
