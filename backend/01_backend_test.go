// /home/krylon/go/src/github.com/blicero/pillbox/backend/01_backend_test.go
// -*- mode: go; coding: utf-8; -*-
// Created on 14. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-15 17:12:40 krylon>

package backend

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/blicero/pillbox/common"
	"github.com/blicero/pillbox/objects"
	"github.com/blicero/pillbox/objects/action"
	"github.com/pquerna/ffjson/ffjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	back  *Daemon
	medID int64
	slotH int
	slotM int
)

func TestMain(m *testing.M) {
	var (
		err    error
		result int
		dir    string
	)

	if dir, err = os.MkdirTemp("", "pillbox-backend-"); err != nil {
		fmt.Fprintf(os.Stderr, "Cannot create temporary directory: %s\n", err.Error())
		os.Exit(1)
	} else if err = common.SetBaseDir(dir); err != nil {
		os.Exit(1)
	}

	result = m.Run()

	if back != nil && back.IsAlive() {
		back.Banish() // nolint: errcheck
	}

	os.RemoveAll(dir) // nolint: errcheck
	os.Exit(result)
} // func TestMain(m *testing.M)

func testConfig() common.Config {
	var cfg = common.DefaultConfig()

	cfg.ListenAddress = "localhost:0"
	cfg.TimeZone = "UTC"
	cfg.Notify = false
	cfg.ReconcileInterval = 0
	cfg.GCInterval = 0

	return cfg
} // func testConfig() common.Config

func call(t *testing.T, method, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	var (
		req *http.Request
		rec = httptest.NewRecorder()
	)

	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	back.router.ServeHTTP(rec, req)
	return rec
} // func call(t *testing.T, method, path string, form url.Values) *httptest.ResponseRecorder

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, ffjson.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
} // func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{})

func TestNewDaemon(t *testing.T) {
	var err error

	if back, err = newDaemon(testConfig(), nil); err != nil {
		back = nil
		t.Fatalf("Cannot create Daemon: %s",
			err.Error())
	}

	var now = time.Now().UTC()
	slotH, slotM = now.Hour(), now.Minute()
} // func TestNewDaemon(t *testing.T)

func TestMedicationAdd(t *testing.T) {
	if back == nil {
		t.SkipNow()
	}

	var (
		res  objects.Response
		form = url.Values{
			"profile":  []string{"1"},
			"name":     []string{"Aspirin"},
			"schedule": []string{fmt.Sprintf(`{"times":[{"hour":%d,"minute":%d}]}`, slotH, slotM)},
		}
		rec = call(t, http.MethodPost, "/medication/add", form)
	)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &res)
	require.True(t, res.Status, res.Message)
	require.NotZero(t, res.ObjectID)
	medID = res.ObjectID

	form.Set("name", "Bogus")
	form.Set("schedule", `{"times":[{"hour":25,"minute":0}]}`)
	rec = call(t, http.MethodPost, "/medication/add", form)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	form.Set("schedule", "")
	form.Del("name")
	rec = call(t, http.MethodPost, "/medication/add", form)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var meds []objects.Medication
	rec = call(t, http.MethodGet, "/medication/all", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &meds)
	require.Len(t, meds, 1)
	assert.Equal(t, "Aspirin", meds[0].Name)
} // func TestMedicationAdd(t *testing.T)

func TestAlarmFired(t *testing.T) {
	if back == nil || medID == 0 {
		t.SkipNow()
	}

	var (
		res  objects.Response
		form = url.Values{
			"medication": []string{strconv.FormatInt(medID, 10)},
			"hour":       []string{strconv.Itoa(slotH)},
			"minute":     []string{strconv.Itoa(slotM)},
		}
		rec = call(t, http.MethodPost, "/alarm/fired", form)
	)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &res)
	assert.True(t, res.Status)

	form.Set("repeat", "1")
	rec = call(t, http.MethodPost, "/alarm/fired", form)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var doses []objects.PendingDose
	rec = call(t, http.MethodGet, fmt.Sprintf("/pending/%d/%d", slotH, slotM), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &doses)
	require.Len(t, doses, 1)
	assert.Equal(t, medID, doses[0].MedicationID)
	assert.Equal(t, 1, doses[0].RepeatCount)

	form.Set("medication", "4711")
	rec = call(t, http.MethodPost, "/alarm/fired", form)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	form.Set("medication", strconv.FormatInt(medID, 10))
	form.Set("hour", "24")
	rec = call(t, http.MethodPost, "/alarm/fired", form)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, http.MethodGet, "/pending/99/0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
} // func TestAlarmFired(t *testing.T)

func TestReconcile(t *testing.T) {
	if back == nil {
		t.SkipNow()
	}

	var (
		rep objects.Report
		rec = call(t, http.MethodPost, "/reconcile", nil)
	)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &rep)
	assert.True(t, rep.OK(), rep.Error)
	assert.Equal(t, 1, rep.Medications)
	assert.Zero(t, rep.Missed)

	var cp, ok, err = back.kv.Checkpoint()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, cp.IsZero())

	// The live dose survives reconciliation.
	var doses []objects.PendingDose
	rec = call(t, http.MethodGet, "/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &doses)
	assert.Len(t, doses, 1)
} // func TestReconcile(t *testing.T)

func TestDoseAction(t *testing.T) {
	if back == nil || medID == 0 {
		t.SkipNow()
	}

	var (
		res  objects.Response
		form = url.Values{
			"medication": []string{strconv.FormatInt(medID, 10)},
			"hour":       []string{strconv.Itoa(slotH)},
			"minute":     []string{strconv.Itoa(slotM)},
			"action":     []string{"missed"},
		}
		rec = call(t, http.MethodPost, "/dose/action", form)
	)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	form.Set("action", "sometimes")
	rec = call(t, http.MethodPost, "/dose/action", form)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	form.Set("action", "taken")
	rec = call(t, http.MethodPost, "/dose/action", form)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &res)
	require.True(t, res.Status, res.Message)
	assert.NotZero(t, res.ObjectID)

	var doses []objects.PendingDose
	rec = call(t, http.MethodGet, "/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &doses)
	assert.Empty(t, doses)

	var hist []objects.HistoryRecord
	rec = call(t, http.MethodGet, fmt.Sprintf("/history/%d", medID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &hist)
	require.Len(t, hist, 1)
	assert.Equal(t, action.Taken, hist[0].Action)
	assert.True(t, hist[0].OnTime)

	rec = call(t, http.MethodGet, fmt.Sprintf("/history/%d?from=yesterday", medID), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
} // func TestDoseAction(t *testing.T)

func TestMetrics(t *testing.T) {
	if back == nil {
		t.SkipNow()
	}

	var rec = call(t, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pillbox_alarms_fired_total")
} // func TestMetrics(t *testing.T)

func TestMedicationDelete(t *testing.T) {
	if back == nil || medID == 0 {
		t.SkipNow()
	}

	var (
		res  objects.Response
		form = url.Values{
			"medication": []string{strconv.FormatInt(medID, 10)},
			"hour":       []string{strconv.Itoa(slotH)},
			"minute":     []string{strconv.Itoa(slotM)},
		}
		rec = call(t, http.MethodPost, "/alarm/fired", form)
	)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(t, http.MethodPost, fmt.Sprintf("/medication/%d/delete", medID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &res)
	assert.True(t, res.Status)

	var doses []objects.PendingDose
	rec = call(t, http.MethodGet, "/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &doses)
	assert.Empty(t, doses)

	rec = call(t, http.MethodPost, fmt.Sprintf("/medication/%d/delete", medID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
} // func TestMedicationDelete(t *testing.T)

func TestProfileDelete(t *testing.T) {
	if back == nil {
		t.SkipNow()
	}

	for i := 0; i < 3; i++ {
		var rec = call(t, http.MethodPost, "/medication/add", url.Values{
			"profile":  []string{"2"},
			"name":     []string{fmt.Sprintf("Vitamin %c", 'A'+i)},
			"schedule": []string{`{"times":[{"hour":8,"minute":0}]}`},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	var (
		res  objects.Response
		meds []objects.Medication
		rec  = call(t, http.MethodPost, "/profile/2/delete", nil)
	)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &res)
	assert.True(t, res.Status)

	rec = call(t, http.MethodGet, "/medication/all", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &meds)
	assert.Empty(t, meds)
} // func TestProfileDelete(t *testing.T)
