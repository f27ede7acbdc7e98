// /home/krylon/go/src/github.com/blicero/pillbox/kvstore/kvstore_test.go
// -*- mode: go; coding: utf-8; -*-
// Created on 13. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-14 22:20:13 krylon>

package kvstore

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/blicero/pillbox/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	var (
		err    error
		result int
		dir    string
	)

	if dir, err = os.MkdirTemp("", "pillbox-kvstore-"); err != nil {
		fmt.Fprintf(os.Stderr, "Cannot create temporary directory: %s\n", err.Error())
		os.Exit(1)
	} else if err = common.SetBaseDir(dir); err != nil {
		os.Exit(1)
	}

	result = m.Run()
	os.RemoveAll(dir) // nolint: errcheck
	os.Exit(result)
} // func TestMain(m *testing.M)

func TestGetPutDelete(t *testing.T) {
	var s, err = OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get("pending")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put("pending", []byte("[]")))

	var val []byte
	val, err = s.Get("pending")
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), val)

	require.NoError(t, s.Delete("pending"))
	require.NoError(t, s.Delete("pending"), "deleting twice is fine")

	_, err = s.Get("pending")
	assert.ErrorIs(t, err, ErrNotFound)
} // func TestGetPutDelete(t *testing.T)

func TestCheckpoint(t *testing.T) {
	var s, err = OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	var (
		stamp time.Time
		ok    bool
		now   = time.Date(2026, 10, 15, 8, 12, 44, 500, time.UTC)
	)

	stamp, ok, err = s.Checkpoint()
	require.NoError(t, err)
	assert.False(t, ok, "fresh store has no checkpoint")
	assert.True(t, stamp.IsZero())

	require.NoError(t, s.SetCheckpoint(now))

	stamp, ok, err = s.Checkpoint()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, stamp.Equal(now.Truncate(time.Second)), "checkpoint is kept at second precision")

	require.NoError(t, s.Put(CheckpointKey, []byte("yesterday")))
	_, ok, err = s.Checkpoint()
	require.NoError(t, err)
	assert.False(t, ok, "garbage is treated as no checkpoint")

	require.NoError(t, s.ClearCheckpoint())
	_, ok, err = s.Checkpoint()
	require.NoError(t, err)
	assert.False(t, ok)
} // func TestCheckpoint(t *testing.T)

func TestPersistence(t *testing.T) {
	var (
		err error
		s   *Store
		val []byte
		cfg = Config{Path: t.TempDir()}
	)

	s, err = Open(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Put("pending", []byte(`[{"medicationId":1}]`)))
	require.NoError(t, s.Close())

	s, err = Open(cfg)
	require.NoError(t, err)
	defer s.Close()

	val, err = s.Get("pending")
	require.NoError(t, err)
	assert.Equal(t, `[{"medicationId":1}]`, string(val))

	_, err = s.RunGC(0.5)
	assert.NoError(t, err)
} // func TestPersistence(t *testing.T)

func TestOpenWithoutPath(t *testing.T) {
	var _, err = Open(Config{})
	assert.Error(t, err)
} // func TestOpenWithoutPath(t *testing.T)
