// /home/krylon/go/src/github.com/blicero/pillbox/backend/web.go
// -*- mode: go; coding: utf-8; -*-
// Created on 14. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-15 16:22:09 krylon>

package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/blicero/pillbox/database"
	"github.com/blicero/pillbox/objects"
	"github.com/blicero/pillbox/objects/action"
	"github.com/blicero/pillbox/tracker"
	"github.com/gorilla/mux"
	"github.com/pquerna/ffjson/ffjson"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultHistorySpan = 7 * 24 * time.Hour

func (d *Daemon) initWebHandlers() error {
	d.router.HandleFunc("/alarm/fired", d.handleAlarmFired).Methods(http.MethodPost)
	d.router.HandleFunc("/dose/action", d.handleDoseAction).Methods(http.MethodPost)
	d.router.HandleFunc("/pending", d.handlePendingAll).Methods(http.MethodGet)
	d.router.HandleFunc("/pending/{hour:(?:\\d+)}/{minute:(?:\\d+)}", d.handlePendingAt).Methods(http.MethodGet)
	d.router.HandleFunc("/reconcile", d.handleReconcile).Methods(http.MethodPost)
	d.router.HandleFunc("/history/{id:(?:\\d+)}", d.handleHistory).Methods(http.MethodGet)
	d.router.HandleFunc("/medication/add", d.handleMedicationAdd).Methods(http.MethodPost)
	d.router.HandleFunc("/medication/all", d.handleMedicationGetAll).Methods(http.MethodGet)
	d.router.HandleFunc("/medication/{id:(?:\\d+)}/delete", d.handleMedicationDelete).Methods(http.MethodPost)
	d.router.HandleFunc("/profile/{id:(?:\\d+)}/delete", d.handleProfileDelete).Methods(http.MethodPost)
	d.router.Handle("/metrics", promhttp.Handler())

	return nil
} // func (d *Daemon) initWebHandlers() error

func (d *Daemon) serveHTTP() {
	var err error

	defer d.log.Println("[INFO] Web server is shutting down")

	d.log.Printf("[INFO] Web frontend is going online at %s\n", d.web.Addr)

	if err = d.web.ListenAndServe(); err != nil {
		if err != http.ErrServerClosed {
			d.log.Printf("[ERROR] ListenAndServe returned an error: %s\n",
				err.Error())
		} else {
			d.log.Println("[INFO] HTTP Server has shut down.")
		}
	}
} // func (d *Daemon) serveHTTP()

func (d *Daemon) handleAlarmFired(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err                  error
		msg                  string
		medID                int64
		hour, minute, repeat int
		dose                 *objects.PendingDose
		status               = http.StatusBadRequest
		res                  = objects.Response{ID: d.getID()}
	)

	if err = r.ParseForm(); err != nil {
		msg = fmt.Sprintf("Cannot parse form data: %s", err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	} else if medID, err = formInt(r, "medication"); err != nil {
		res.Message = err.Error()
		goto SEND_RESPONSE
	} else if hour, minute, err = formSlot(r.FormValue("hour"), r.FormValue("minute")); err != nil {
		res.Message = err.Error()
		goto SEND_RESPONSE
	}

	if r.FormValue("repeat") != "" {
		var cnt int64
		if cnt, err = formInt(r, "repeat"); err != nil {
			res.Message = err.Error()
			goto SEND_RESPONSE
		}
		repeat = int(cnt)
	}

	alarmsTotal.Inc()

	if dose, err = d.tracker.OnAlarmFired(medID, hour, minute, repeat); err != nil {
		msg = fmt.Sprintf("Cannot record alarm for Medication %d at %02d:%02d: %s",
			medID,
			hour,
			minute,
			err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		res.Message = msg
		status = errorStatus(err)
		goto SEND_RESPONSE
	}

	d.updatePendingGauge()
	res.Status = true
	res.Message = dose.Key().String()
	status = http.StatusOK

SEND_RESPONSE:
	d.sendResponseJSON(w, status, &res)
} // func (d *Daemon) handleAlarmFired(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleDoseAction(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err          error
		msg          string
		medID        int64
		hour, minute int
		act          action.Action
		rec          *objects.HistoryRecord
		status       = http.StatusBadRequest
		res          = objects.Response{ID: d.getID()}
	)

	if err = r.ParseForm(); err != nil {
		msg = fmt.Sprintf("Cannot parse form data: %s", err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	} else if medID, err = formInt(r, "medication"); err != nil {
		res.Message = err.Error()
		goto SEND_RESPONSE
	} else if hour, minute, err = formSlot(r.FormValue("hour"), r.FormValue("minute")); err != nil {
		res.Message = err.Error()
		goto SEND_RESPONSE
	} else if act, err = action.Parse(r.FormValue("action")); err != nil {
		res.Message = err.Error()
		goto SEND_RESPONSE
	} else if rec, err = d.tracker.OnUserAction(medID, hour, minute, act); err != nil {
		msg = fmt.Sprintf("Cannot record %s for Medication %d at %02d:%02d: %s",
			act,
			medID,
			hour,
			minute,
			err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		res.Message = msg
		status = errorStatus(err)
		goto SEND_RESPONSE
	}

	userActionsTotal.WithLabelValues(act.String()).Inc()
	d.updatePendingGauge()

	res.Status = true
	res.ObjectID = rec.ID
	res.Message = fmt.Sprintf("%s %s scheduled for %s",
		act,
		rec.MedicationName,
		rec.Scheduled.Format("2006-01-02 15:04"))
	status = http.StatusOK

SEND_RESPONSE:
	d.sendResponseJSON(w, status, &res)
} // func (d *Daemon) handleDoseAction(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handlePendingAll(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var doses, err = d.tracker.GetAllPending()

	if err != nil {
		d.log.Printf("[ERROR] Cannot load pending doses: %s\n",
			err.Error())
		d.sendErrorJSON(w, http.StatusInternalServerError, err.Error())
		return
	} else if doses == nil {
		doses = []objects.PendingDose{}
	}

	d.sendJSON(w, doses)
} // func (d *Daemon) handlePendingAll(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handlePendingAt(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err          error
		hour, minute int
		doses        []objects.PendingDose
		vars         = mux.Vars(r)
	)

	if hour, minute, err = formSlot(vars["hour"], vars["minute"]); err != nil {
		d.sendErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	} else if doses, err = d.tracker.GetPendingAt(hour, minute); err != nil {
		d.log.Printf("[ERROR] Cannot load pending doses at %02d:%02d: %s\n",
			hour,
			minute,
			err.Error())
		d.sendErrorJSON(w, http.StatusInternalServerError, err.Error())
		return
	} else if doses == nil {
		doses = []objects.PendingDose{}
	}

	d.sendJSON(w, doses)
} // func (d *Daemon) handlePendingAt(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleReconcile(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	// A client hanging up must not abort the pass halfway.
	var rep, err = d.tracker.Reconcile(context.Background())

	observeReport(rep)
	d.updatePendingGauge()

	if err != nil {
		d.log.Printf("[ERROR] Reconciliation failed: %s\n",
			err.Error())
	}

	d.sendJSON(w, rep)
} // func (d *Daemon) handleReconcile(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleHistory(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err      error
		id       int64
		from, to time.Time
		list     []objects.HistoryRecord
		db       *database.Database
		vars     = mux.Vars(r)
	)

	if id, err = strconv.ParseInt(vars["id"], 10, 64); err != nil {
		d.sendErrorJSON(w, http.StatusBadRequest, fmt.Sprintf("Cannot parse ID %q: %s",
			vars["id"],
			err.Error()))
		return
	} else if from, to, err = timeRange(r, time.Now().In(d.loc), defaultHistorySpan); err != nil {
		d.sendErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	db = d.pool.Get()
	defer d.pool.Put(db)

	if list, err = db.HistoryGetRange(id, from, to); err != nil {
		d.log.Printf("[ERROR] Cannot load history of Medication %d: %s\n",
			id,
			err.Error())
		d.sendErrorJSON(w, http.StatusInternalServerError, err.Error())
		return
	} else if list == nil {
		list = []objects.HistoryRecord{}
	}

	d.sendJSON(w, list)
} // func (d *Daemon) handleHistory(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleMedicationAdd(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err    error
		msg    string
		med    objects.Medication
		db     *database.Database
		status = http.StatusBadRequest
		res    = objects.Response{ID: d.getID()}
	)

	if err = r.ParseForm(); err != nil {
		msg = fmt.Sprintf("Cannot parse form data: %s", err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	} else if med.ProfileID, err = formInt(r, "profile"); err != nil {
		res.Message = err.Error()
		goto SEND_RESPONSE
	}

	med.Name = r.PostFormValue("name")
	med.PhotoRef = r.PostFormValue("photo")
	med.Schedule = r.PostFormValue("schedule")

	if med.Name == "" {
		res.Message = "Medication needs a name"
		goto SEND_RESPONSE
	} else if _, err = med.Entries(); err != nil {
		msg = fmt.Sprintf("Invalid schedule for %q: %s",
			med.Name,
			err.Error())
		d.log.Printf("[INFO] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	}

	db = d.pool.Get()
	defer d.pool.Put(db)

	if err = db.MedicationAdd(&med); err != nil {
		msg = fmt.Sprintf("Cannot add Medication %q to database: %s",
			med.Name,
			err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		res.Message = msg
		status = http.StatusInternalServerError
		goto SEND_RESPONSE
	}

	res.Status = true
	res.ObjectID = med.ID
	res.Message = med.UUID
	status = http.StatusOK

SEND_RESPONSE:
	d.sendResponseJSON(w, status, &res)
} // func (d *Daemon) handleMedicationAdd(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleMedicationGetAll(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err  error
		db   *database.Database
		meds []objects.Medication
	)

	db = d.pool.Get()
	defer d.pool.Put(db)

	if meds, err = db.MedicationGetAll(); err != nil {
		d.log.Printf("[ERROR] Cannot load Medications: %s\n",
			err.Error())
		d.sendErrorJSON(w, http.StatusInternalServerError, err.Error())
		return
	} else if meds == nil {
		meds = []objects.Medication{}
	}

	d.sendJSON(w, meds)
} // func (d *Daemon) handleMedicationGetAll(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleMedicationDelete(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err     error
		msg     string
		id      int64
		med     *objects.Medication
		removed []objects.PendingDose
		db      *database.Database
		status  = http.StatusBadRequest
		res     = objects.Response{ID: d.getID()}
		vars    = mux.Vars(r)
	)

	if id, err = strconv.ParseInt(vars["id"], 10, 64); err != nil {
		msg = fmt.Sprintf("Cannot parse ID %q: %s",
			vars["id"],
			err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	}

	db = d.pool.Get()
	defer d.pool.Put(db)

	if med, err = db.MedicationGetByID(id); err != nil {
		msg = fmt.Sprintf("Cannot look up Medication %d: %s",
			id,
			err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		res.Message = msg
		status = http.StatusInternalServerError
		goto SEND_RESPONSE
	} else if med == nil {
		msg = fmt.Sprintf("Did not find Medication %d in database", id)
		d.log.Printf("[INFO] %s\n", msg)
		res.Message = msg
		status = http.StatusNotFound
		goto SEND_RESPONSE
	} else if err = db.MedicationDelete(id); err != nil {
		msg = fmt.Sprintf("Failed to delete Medication %d (%q): %s",
			id,
			med.Name,
			err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		res.Message = msg
		status = http.StatusInternalServerError
		goto SEND_RESPONSE
	} else if removed, err = d.tracker.OnMedicationDeleted(id); err != nil {
		msg = fmt.Sprintf("Medication %d (%q) was deleted, but its pending doses were not: %s",
			id,
			med.Name,
			err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		res.Message = msg
		status = http.StatusInternalServerError
		goto SEND_RESPONSE
	}

	d.updatePendingGauge()
	res.Message = fmt.Sprintf("Medication %d (%q) was deleted, %d pending dose(s) withdrawn",
		id,
		med.Name,
		len(removed))
	res.Status = true
	status = http.StatusOK

SEND_RESPONSE:
	d.sendResponseJSON(w, status, &res)
} // func (d *Daemon) handleMedicationDelete(w http.ResponseWriter, r *http.Request)

func (d *Daemon) handleProfileDelete(w http.ResponseWriter, r *http.Request) {
	d.log.Printf("[TRACE] Handle %s from %s\n",
		r.URL,
		r.RemoteAddr)

	var (
		err     error
		msg     string
		id, cnt int64
		removed []objects.PendingDose
		db      *database.Database
		status  = http.StatusBadRequest
		res     = objects.Response{ID: d.getID()}
		vars    = mux.Vars(r)
	)

	if id, err = strconv.ParseInt(vars["id"], 10, 64); err != nil {
		msg = fmt.Sprintf("Cannot parse ID %q: %s",
			vars["id"],
			err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		res.Message = msg
		goto SEND_RESPONSE
	}

	db = d.pool.Get()
	defer d.pool.Put(db)

	if cnt, err = db.MedicationDeleteByProfile(id); err != nil {
		msg = fmt.Sprintf("Failed to delete Medications of profile %d: %s",
			id,
			err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		res.Message = msg
		status = http.StatusInternalServerError
		goto SEND_RESPONSE
	} else if removed, err = d.tracker.OnProfileDeleted(id); err != nil {
		msg = fmt.Sprintf("Cannot withdraw pending doses of profile %d: %s",
			id,
			err.Error())
		d.log.Printf("[ERROR] %s\n", msg)
		res.Message = msg
		status = http.StatusInternalServerError
		goto SEND_RESPONSE
	}

	d.updatePendingGauge()
	res.Message = fmt.Sprintf("Deleted %d Medication(s) of profile %d, %d pending dose(s) withdrawn",
		cnt,
		id,
		len(removed))
	res.Status = true
	status = http.StatusOK

SEND_RESPONSE:
	d.sendResponseJSON(w, status, &res)
} // func (d *Daemon) handleProfileDelete(w http.ResponseWriter, r *http.Request)

//////////////////////////////////////////////////////////////////////////////////////////////////
/// Helpers //////////////////////////////////////////////////////////////////////////////////////
//////////////////////////////////////////////////////////////////////////////////////////////////

// errorStatus maps errors from the Tracker to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, tracker.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, tracker.ErrInvalidAction), errors.Is(err, tracker.ErrInvalidSlot):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
} // func errorStatus(err error) int

func (d *Daemon) sendResponseJSON(w http.ResponseWriter, status int, res *objects.Response) {
	var (
		err error
		buf []byte
	)

	if buf, err = ffjson.Marshal(res); err != nil {
		d.log.Printf("[ERROR] Cannot serialize Response object %#v: %s\n",
			res,
			err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	defer ffjson.Pool(buf)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf) // nolint: errcheck
} // func (d *Daemon) sendResponseJSON(w http.ResponseWriter, status int, res *objects.Response)

func (d *Daemon) sendErrorJSON(w http.ResponseWriter, status int, msg string) {
	var res = objects.Response{
		ID:      d.getID(),
		Message: msg,
	}

	d.sendResponseJSON(w, status, &res)
} // func (d *Daemon) sendErrorJSON(w http.ResponseWriter, status int, msg string)

func (d *Daemon) sendJSON(w http.ResponseWriter, v interface{}) {
	var (
		err error
		buf []byte
	)

	if buf, err = ffjson.Marshal(v); err != nil {
		d.log.Printf("[ERROR] Cannot serialize %T: %s\n",
			v,
			err.Error())
		d.sendErrorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}

	defer ffjson.Pool(buf)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(buf) // nolint: errcheck
} // func (d *Daemon) sendJSON(w http.ResponseWriter, v interface{})

func (d *Daemon) getID() int64 {
	d.idLock.Lock()
	d.idCnt++
	var id = d.idCnt
	d.idLock.Unlock()
	return id
} // func (d *Daemon) getID() int64
