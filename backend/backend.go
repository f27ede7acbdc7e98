// /home/krylon/go/src/github.com/blicero/pillbox/backend/backend.go
// -*- mode: go; coding: utf-8; -*-
// Created on 14. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-15 15:04:26 krylon>

// Package backend implements the daemon: it owns the storage, runs the
// reconciliation periodically, posts desktop notifications and exposes
// everything over HTTP.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/blicero/pillbox/common"
	"github.com/blicero/pillbox/database"
	"github.com/blicero/pillbox/kvstore"
	"github.com/blicero/pillbox/logdomain"
	"github.com/blicero/pillbox/pending"
	"github.com/blicero/pillbox/tracker"
	"github.com/godbus/dbus/v5"
	"github.com/gorilla/mux"
)

const gcDiscardRatio = 0.5

// Daemon is the centerpiece of the backend, coordinating between the
// database, the tracker, the desktop and the clients.
type Daemon struct {
	log      *log.Logger
	cfg      common.Config
	loc      *time.Location
	pool     *database.Pool
	kv       *kvstore.Store
	pend     *pending.Store
	tracker  *tracker.Tracker
	notifier *desktopNotifier
	lock     sync.RWMutex
	active   bool
	done     chan struct{}
	wg       sync.WaitGroup
	web      http.Server
	router   *mux.Router
	idLock   sync.Mutex
	idCnt    int64
}

// Summon summons a Daemon and returns it. No sacrifice or idolatry is required.
// Before it starts serving requests, the Daemon reconciles whatever happened
// while it was not running.
func Summon(cfg common.Config) (*Daemon, error) {
	var (
		err error
		bus *dbus.Conn
		d   *Daemon
		l   *log.Logger
	)

	if l, err = common.GetLogger(logdomain.Notify); err != nil {
		fmt.Printf("ERROR initializing Logger: %s\n",
			err.Error())
		return nil, err
	}

	if cfg.Notify {
		if bus, err = dbus.SessionBus(); err != nil {
			l.Printf("[WARN] Failed to connect to DBus Session bus, notifications will only be logged: %s\n",
				err.Error())
			bus = nil
		}
	}

	if d, err = newDaemon(cfg, bus); err != nil {
		return nil, err
	}

	var rep, rerr = d.tracker.OnAppStart(context.Background())
	observeReport(rep)
	if rerr != nil {
		d.log.Printf("[ERROR] Initial reconciliation failed: %s\n",
			rerr.Error())
	}
	d.updatePendingGauge()

	d.wg.Add(2)
	go d.reconcileLoop()
	go d.gcLoop()
	go d.serveHTTP()

	return d, nil
} // func Summon(cfg common.Config) (*Daemon, error)

// newDaemon sets up storage, the Tracker and the HTTP routes, and starts
// the notification loop. It does not listen for requests.
func newDaemon(cfg common.Config, bus *dbus.Conn) (*Daemon, error) {
	var (
		err error
		nl  *log.Logger
		d   = &Daemon{
			cfg:    cfg,
			active: true,
			done:   make(chan struct{}),
			router: mux.NewRouter(),
		}
	)

	if err = cfg.Validate(); err != nil {
		return nil, err
	} else if d.loc, err = cfg.Location(); err != nil {
		return nil, err
	} else if d.log, err = common.GetLogger(logdomain.Backend); err != nil {
		fmt.Printf("ERROR initializing Logger: %s\n",
			err.Error())
		return nil, err
	} else if nl, err = common.GetLogger(logdomain.Notify); err != nil {
		return nil, err
	} else if d.pool, err = database.NewPool(cfg.PoolSize); err != nil {
		d.log.Printf("[ERROR] Cannot initialize database pool: %s\n",
			err.Error())
		return nil, err
	} else if d.kv, err = kvstore.Open(kvstore.DefaultConfig()); err != nil {
		d.log.Printf("[ERROR] Cannot open key/value store: %s\n",
			err.Error())
		d.pool.Close() // nolint: errcheck
		return nil, err
	} else if d.pend, err = pending.New(d.kv, cfg.PendingTTL); err != nil {
		d.log.Printf("[ERROR] Cannot create pending store: %s\n",
			err.Error())
		d.closeStorage()
		return nil, err
	}

	d.notifier = newDesktopNotifier(nl, bus)

	if d.tracker, err = tracker.New(
		d.pool,
		d.pool,
		d.kv,
		d.pend,
		d.notifier,
		tracker.SettingsFromConfig(cfg, d.loc),
	); err != nil {
		d.log.Printf("[ERROR] Cannot create Tracker: %s\n",
			err.Error())
		d.closeStorage()
		return nil, err
	}

	d.web.Addr = cfg.ListenAddress
	d.web.ErrorLog = d.log
	d.web.Handler = d.router

	if err = d.initWebHandlers(); err != nil {
		d.log.Printf("[ERROR] Failed to initialize web server: %s\n",
			err.Error())
		d.closeStorage()
		return nil, err
	}

	d.wg.Add(1)
	go d.notifyLoop()

	return d, nil
} // func newDaemon(cfg common.Config, bus *dbus.Conn) (*Daemon, error)

func (d *Daemon) closeStorage() {
	if err := d.kv.Close(); err != nil {
		d.log.Printf("[ERROR] Cannot close key/value store: %s\n",
			err.Error())
	}
	if err := d.pool.Close(); err != nil && !errors.Is(err, database.ErrPoolClosed) {
		d.log.Printf("[ERROR] Cannot close database pool: %s\n",
			err.Error())
	}
} // func (d *Daemon) closeStorage()

// IsAlive returns true if the Daemon's active flag is set.
func (d *Daemon) IsAlive() bool {
	d.lock.RLock()
	var alive = d.active
	d.lock.RUnlock()

	return alive
} // func (d *Daemon) IsAlive() bool

// Banish shuts the Daemon down: it stops the web server, waits for the
// background loops to finish and closes the storage.
func (d *Daemon) Banish() error {
	var (
		err         error
		ctx, cancel = context.WithTimeout(context.Background(), time.Second*3)
	)
	defer cancel()

	d.lock.Lock()
	if !d.active {
		d.lock.Unlock()
		return nil
	}
	d.active = false
	close(d.done)
	d.lock.Unlock()

	if err = d.web.Shutdown(ctx); err != nil {
		d.log.Printf("[ERROR] Failed to shutdown web server: %s\n",
			err.Error())
	}

	if ctx.Err() != nil {
		err = ctx.Err()
		d.log.Printf("[ERROR] Failed to gracefully shut down web server: %s\n",
			ctx.Err().Error())
		d.web.Close() // nolint: errcheck
	}

	d.wg.Wait()
	d.closeStorage()

	return err
} // func (d *Daemon) Banish() error

func (d *Daemon) notifyLoop() {
	defer d.wg.Done()
	defer d.log.Println("[TRACE] Quitting notifyLoop")

	for {
		select {
		case <-d.done:
			return
		case req := <-d.notifier.queue:
			d.notifier.deliver(req)
		}
	}
} // func (d *Daemon) notifyLoop()

// reconcileLoop periodically asks the Tracker for a reconciliation pass.
// Passes requested while one is running are coalesced by the Tracker.
func (d *Daemon) reconcileLoop() {
	defer d.wg.Done()
	defer d.log.Println("[TRACE] reconcileLoop is shutting down")

	if d.cfg.ReconcileInterval <= 0 {
		d.log.Println("[INFO] Periodic reconciliation is disabled")
		return
	}

	var ticker = time.NewTicker(d.cfg.ReconcileInterval)
	defer ticker.Stop()

	for d.IsAlive() {
		select {
		case <-d.done:
			return
		case <-ticker.C:
			d.triggerReconcile()
		}
	}
} // func (d *Daemon) reconcileLoop()

func (d *Daemon) triggerReconcile() {
	var ch = d.tracker.Trigger(context.Background())

	if ch == nil {
		d.log.Println("[DEBUG] Reconciliation is already running, it will be repeated")
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for rep := range ch {
			observeReport(rep)
		}
		d.updatePendingGauge()
	}()
} // func (d *Daemon) triggerReconcile()

// gcLoop compacts the key/value store's value log from time to time.
func (d *Daemon) gcLoop() {
	defer d.wg.Done()
	defer d.log.Println("[TRACE] gcLoop is shutting down")

	if d.cfg.GCInterval <= 0 {
		return
	}

	var ticker = time.NewTicker(d.cfg.GCInterval)
	defer ticker.Stop()

	for d.IsAlive() {
		select {
		case <-d.done:
			return
		case <-ticker.C:
			var (
				err       error
				rewritten bool
			)

			if rewritten, err = d.kv.RunGC(gcDiscardRatio); err != nil {
				d.log.Printf("[ERROR] Garbage collection of key/value store failed: %s\n",
					err.Error())
			} else if rewritten {
				d.log.Println("[DEBUG] Key/value store garbage collection reclaimed space")
			}
		}
	}
} // func (d *Daemon) gcLoop()

func (d *Daemon) updatePendingGauge() {
	var doses, err = d.tracker.GetAllPending()

	if err != nil {
		d.log.Printf("[ERROR] Cannot count pending doses: %s\n",
			err.Error())
		return
	}

	pendingGauge.Set(float64(len(doses)))
} // func (d *Daemon) updatePendingGauge()
