// /home/krylon/go/src/github.com/blicero/pillbox/backend/helpers.go
// -*- mode: go; coding: utf-8; -*-
// Created on 14. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-15 16:40:31 krylon>

package backend

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

func formInt(r *http.Request, key string) (int64, error) {
	var (
		err error
		n   int64
		str = r.FormValue(key)
	)

	if str == "" {
		return 0, fmt.Errorf("missing parameter %q", key)
	} else if n, err = strconv.ParseInt(str, 10, 64); err != nil {
		return 0, fmt.Errorf("cannot parse parameter %s=%q: %w",
			key,
			str,
			err)
	}

	return n, nil
} // func formInt(r *http.Request, key string) (int64, error)

// formSlot parses an hour and a minute and checks they form a valid time
// of day.
func formSlot(hstr, mstr string) (int, int, error) {
	var (
		err          error
		hour, minute int
	)

	if hour, err = strconv.Atoi(hstr); err != nil {
		return 0, 0, fmt.Errorf("cannot parse hour %q: %w", hstr, err)
	} else if minute, err = strconv.Atoi(mstr); err != nil {
		return 0, 0, fmt.Errorf("cannot parse minute %q: %w", mstr, err)
	} else if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid time of day %02d:%02d", hour, minute)
	}

	return hour, minute, nil
} // func formSlot(hstr, mstr string) (int, int, error)

// timeRange reads the optional from and to query parameters (RFC 3339).
// A missing to defaults to now, a missing from to span before to.
func timeRange(r *http.Request, now time.Time, span time.Duration) (time.Time, time.Time, error) {
	var (
		err      error
		from, to time.Time
		q        = r.URL.Query()
	)

	if s := q.Get("to"); s != "" {
		if to, err = time.Parse(time.RFC3339, s); err != nil {
			return from, to, fmt.Errorf("cannot parse to=%q: %w", s, err)
		}
	} else {
		to = now
	}

	if s := q.Get("from"); s != "" {
		if from, err = time.Parse(time.RFC3339, s); err != nil {
			return from, to, fmt.Errorf("cannot parse from=%q: %w", s, err)
		}
	} else {
		from = to.Add(-span)
	}

	if from.After(to) {
		return from, to, fmt.Errorf("from (%s) lies after to (%s)",
			from.Format(time.RFC3339),
			to.Format(time.RFC3339))
	}

	return from, to, nil
} // func timeRange(r *http.Request, now time.Time, span time.Duration) (time.Time, time.Time, error)
