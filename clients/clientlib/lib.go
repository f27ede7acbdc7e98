// /home/krylon/go/src/github.com/blicero/pillbox/clients/clientlib/lib.go
// -*- mode: go; coding: utf-8; -*-
// Created on 14. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-15 17:41:26 krylon>

// Package clientlib provides the basic framework for building clients that
// talk to the Pillbox backend: reporting alarms and dose actions, looking
// at the pending set and triggering reconciliation.
package clientlib

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/blicero/pillbox/common"
	"github.com/blicero/pillbox/logdomain"
	"github.com/blicero/pillbox/objects"
	"github.com/blicero/pillbox/objects/action"
	"github.com/pquerna/ffjson/ffjson"
)

const (
	alarmPath     = "/alarm/fired"
	actionPath    = "/dose/action"
	pendingPath   = "/pending"
	reconcilePath = "/reconcile"
	medAddPath    = "/medication/add"
	medAllPath    = "/medication/all"
	historyPath   = "/history/%d"
)

// Client implements the fundamental communication with the backend.
type Client struct {
	Server *url.URL
	Client http.Client
	log    *log.Logger
}

// NewClient creates a new Client talking to the backend at srv, which is
// either a host:port pair or a URL.
func NewClient(srv string) (*Client, error) {
	var (
		err error
		c   = &Client{
			Client: http.Client{
				Timeout: time.Second * 10,
			},
		}
	)

	if c.log, err = common.GetLogger(logdomain.Client); err != nil {
		fmt.Fprintf(
			os.Stderr,
			"Cannot create Logger: %s\n",
			err.Error())
		return nil, err
	}

	if !strings.Contains(srv, "://") {
		srv = "http://" + srv
	}

	if c.Server, err = url.Parse(srv); err != nil {
		c.log.Printf("[ERROR] Cannot parse URL %q: %s\n",
			srv,
			err.Error())
		return nil, err
	}

	return c, nil
} // func NewClient(srv string) (*Client, error)

// GetLogger returns the Client's Logger.
func (c *Client) GetLogger() *log.Logger {
	return c.log
} // func (c *Client) GetLogger() *log.Logger

func (c *Client) endpoint(path string, q url.Values) string {
	var u = *c.Server

	u.Path = path
	if q != nil {
		u.RawQuery = q.Encode()
	}

	return u.String()
} // func (c *Client) endpoint(path string, q url.Values) string

// AlarmFired reports that the alarm for a Medication went off.
func (c *Client) AlarmFired(medID int64, hour, minute, repeat int) (*objects.Response, error) {
	var values = url.Values{
		"medication": []string{strconv.FormatInt(medID, 10)},
		"hour":       []string{strconv.Itoa(hour)},
		"minute":     []string{strconv.Itoa(minute)},
		"repeat":     []string{strconv.Itoa(repeat)},
	}

	return c.post(alarmPath, values)
} // func (c *Client) AlarmFired(medID int64, hour, minute, repeat int) (*objects.Response, error)

// UserAction reports that the user took or skipped a dose.
func (c *Client) UserAction(medID int64, hour, minute int, act action.Action) (*objects.Response, error) {
	var values = url.Values{
		"medication": []string{strconv.FormatInt(medID, 10)},
		"hour":       []string{strconv.Itoa(hour)},
		"minute":     []string{strconv.Itoa(minute)},
		"action":     []string{act.String()},
	}

	return c.post(actionPath, values)
} // func (c *Client) UserAction(medID int64, hour, minute int, act action.Action) (*objects.Response, error)

// AddMedication adds a Medication and returns its ID.
func (c *Client) AddMedication(m *objects.Medication) (int64, error) {
	var (
		err    error
		res    *objects.Response
		values = url.Values{
			"profile":  []string{strconv.FormatInt(m.ProfileID, 10)},
			"name":     []string{m.Name},
			"photo":    []string{m.PhotoRef},
			"schedule": []string{m.Schedule},
		}
	)

	if res, err = c.post(medAddPath, values); err != nil {
		return 0, err
	}

	m.ID = res.ObjectID
	m.UUID = res.Message
	return res.ObjectID, nil
} // func (c *Client) AddMedication(m *objects.Medication) (int64, error)

// DeleteMedication deletes a Medication and withdraws its pending doses.
func (c *Client) DeleteMedication(id int64) (*objects.Response, error) {
	return c.post(fmt.Sprintf("/medication/%d/delete", id), url.Values{})
} // func (c *Client) DeleteMedication(id int64) (*objects.Response, error)

// Medications fetches all Medications.
func (c *Client) Medications() ([]objects.Medication, error) {
	var list []objects.Medication

	if err := c.get(medAllPath, nil, &list); err != nil {
		return nil, err
	}

	return list, nil
} // func (c *Client) Medications() ([]objects.Medication, error)

// Pending fetches the pending doses.
func (c *Client) Pending() ([]objects.PendingDose, error) {
	var list []objects.PendingDose

	if err := c.get(pendingPath, nil, &list); err != nil {
		return nil, err
	}

	return list, nil
} // func (c *Client) Pending() ([]objects.PendingDose, error)

// History fetches the history of a Medication between from and to.
func (c *Client) History(medID int64, from, to time.Time) ([]objects.HistoryRecord, error) {
	var (
		list []objects.HistoryRecord
		q    = url.Values{
			"from": []string{from.Format(time.RFC3339)},
			"to":   []string{to.Format(time.RFC3339)},
		}
	)

	if err := c.get(fmt.Sprintf(historyPath, medID), q, &list); err != nil {
		return nil, err
	}

	return list, nil
} // func (c *Client) History(medID int64, from, to time.Time) ([]objects.HistoryRecord, error)

// Reconcile asks the backend for a reconciliation pass and returns its
// Report.
func (c *Client) Reconcile() (*objects.Report, error) {
	var (
		err  error
		body []byte
		rep  objects.Report
		addr = c.endpoint(reconcilePath, nil)
	)

	if body, err = c.do(http.MethodPost, addr, nil); err != nil {
		return nil, err
	} else if err = ffjson.Unmarshal(body, &rep); err != nil {
		c.log.Printf("[ERROR] Cannot de-serialize Report from %s: %s\n",
			addr,
			err.Error())
		return nil, err
	} else if !rep.OK() {
		c.log.Printf("[ERROR] Reconciliation failed: %s\n", rep.Error)
		return &rep, errors.New(rep.Error)
	}

	return &rep, nil
} // func (c *Client) Reconcile() (*objects.Report, error)

func (c *Client) post(path string, values url.Values) (*objects.Response, error) {
	var (
		err  error
		body []byte
		ores objects.Response
		addr = c.endpoint(path, nil)
	)

	if body, err = c.do(http.MethodPost, addr, values); err != nil {
		if body == nil {
			return nil, err
		} else if uerr := ffjson.Unmarshal(body, &ores); uerr != nil {
			return nil, err
		}
		// The backend explained itself.
		return &ores, fmt.Errorf("request to %s failed: %s",
			addr,
			ores.Message)
	} else if err = ffjson.Unmarshal(body, &ores); err != nil {
		c.log.Printf("[ERROR] Cannot de-serialize Response from %s: %s\n",
			addr,
			err.Error())
		return nil, err
	} else if !ores.Status {
		err = fmt.Errorf("request to %s failed: %s",
			addr,
			ores.Message)
		c.log.Printf("[ERROR] %s\n",
			err.Error())
		return &ores, err
	}

	c.log.Printf("[DEBUG] Request to %s was successful: %s\n",
		addr,
		ores.Message)

	return &ores, nil
} // func (c *Client) post(path string, values url.Values) (*objects.Response, error)

func (c *Client) get(path string, q url.Values, v interface{}) error {
	var (
		err  error
		body []byte
		addr = c.endpoint(path, q)
	)

	if body, err = c.do(http.MethodGet, addr, nil); err != nil {
		return err
	} else if err = ffjson.Unmarshal(body, v); err != nil {
		c.log.Printf("[ERROR] Cannot de-serialize %T from %s: %s\n",
			v,
			addr,
			err.Error())
		return err
	}

	return nil
} // func (c *Client) get(path string, q url.Values, v interface{}) error

// do performs the request. If the backend answers with an unexpected
// status, the body is returned along with the error.
func (c *Client) do(method, addr string, values url.Values) ([]byte, error) {
	var (
		err    error
		msg    string
		rcvBuf bytes.Buffer
		hres   *http.Response
	)

	switch method {
	case http.MethodPost:
		hres, err = c.Client.PostForm(addr, values)
	default:
		hres, err = c.Client.Get(addr)
	}

	if err != nil {
		c.log.Printf("[ERROR] Failed to %s %s: %s\n",
			method,
			addr,
			err.Error())
		return nil, err
	}

	defer hres.Body.Close() // nolint: errcheck

	if _, err = io.Copy(&rcvBuf, hres.Body); err != nil {
		c.log.Printf("[ERROR] Failed to read Response body from %s: %s\n",
			addr,
			err.Error())
		return nil, err
	} else if hres.StatusCode != http.StatusOK {
		msg = fmt.Sprintf("Unexpected status from %s: %s",
			addr,
			hres.Status)
		c.log.Printf("[ERROR] %s\n", msg)
		return rcvBuf.Bytes(), errors.New(msg)
	}

	return rcvBuf.Bytes(), nil
} // func (c *Client) do(method, addr string, values url.Values) ([]byte, error)
