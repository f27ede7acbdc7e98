// /home/krylon/go/src/github.com/blicero/pillbox/backend/notify.go
// -*- mode: go; coding: utf-8; -*-
// Created on 14. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-15 14:31:52 krylon>

package backend

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/blicero/pillbox/common"
	"github.com/blicero/pillbox/objects"
	"github.com/godbus/dbus/v5"
)

const (
	notifyObj    = "org.freedesktop.Notifications"
	notifyPath   = "/org/freedesktop/Notifications"
	notifyMethod = "org.freedesktop.Notifications.Notify"
	closeMethod  = "org.freedesktop.Notifications.CloseNotification"
	queueDepth   = 32
	queueTimeout = time.Second * 2
)

type notifyRequest struct {
	n      objects.Notification
	cancel bool
}

// desktopNotifier posts notifications to the desktop via DBus.
// Show and Cancel only enqueue a request, the Daemon's notifyLoop does the
// actual work. Without a DBus connection, notifications are only logged.
type desktopNotifier struct {
	log   *log.Logger
	bus   *dbus.Conn
	queue chan notifyRequest
	lock  sync.Mutex
	ids   map[string]uint32
}

func newDesktopNotifier(l *log.Logger, bus *dbus.Conn) *desktopNotifier {
	return &desktopNotifier{
		log:   l,
		bus:   bus,
		queue: make(chan notifyRequest, queueDepth),
		ids:   make(map[string]uint32),
	}
} // func newDesktopNotifier(l *log.Logger, bus *dbus.Conn) *desktopNotifier

// Show asks for n to be displayed. A notification with the same tag
// replaces the previous one.
func (dn *desktopNotifier) Show(n objects.Notification) {
	dn.enqueue(notifyRequest{n: n})
} // func (dn *desktopNotifier) Show(n objects.Notification)

// Cancel asks for the notification with n's tag to be withdrawn.
func (dn *desktopNotifier) Cancel(n objects.Notification) {
	dn.enqueue(notifyRequest{n: n, cancel: true})
} // func (dn *desktopNotifier) Cancel(n objects.Notification)

func (dn *desktopNotifier) enqueue(req notifyRequest) {
	select {
	case dn.queue <- req:
	case <-time.After(queueTimeout):
		dn.log.Printf("[WARN] Notification queue is full, dropping request for %s\n",
			req.n.Tag())
		notificationsTotal.WithLabelValues(opName(req), "dropped").Inc()
	}
} // func (dn *desktopNotifier) enqueue(req notifyRequest)

func opName(req notifyRequest) string {
	if req.cancel {
		return "cancel"
	}
	return "show"
} // func opName(req notifyRequest) string

func (dn *desktopNotifier) deliver(req notifyRequest) {
	var err error

	if req.cancel {
		err = dn.close(req.n)
	} else {
		err = dn.notify(req.n)
	}

	if err != nil {
		notificationsTotal.WithLabelValues(opName(req), "error").Inc()
	} else {
		notificationsTotal.WithLabelValues(opName(req), "ok").Inc()
	}
} // func (dn *desktopNotifier) deliver(req notifyRequest)

func (dn *desktopNotifier) notify(n objects.Notification) error {
	var (
		head, body = n.Payload()
		tag        = n.Tag()
		id         uint32
	)

	if dn.bus == nil {
		dn.log.Printf("[INFO] Notification %s (due %s): %s - %s\n",
			tag,
			n.Due().Format(common.TimestampFormatMinute),
			head,
			body)
		return nil
	}

	var obj = dn.bus.Object(notifyObj, notifyPath)
	if obj == nil {
		var err = fmt.Errorf("did not find object %s (%s) on session bus",
			notifyObj,
			notifyPath)
		dn.log.Printf("[ERROR] %s\n", err.Error())
		return err
	}

	dn.lock.Lock()
	var replaces = dn.ids[tag]
	dn.lock.Unlock()

	var res = obj.Call(
		notifyMethod,
		0,
		common.AppName,
		replaces,
		"",
		head,
		body,
		[]string{},
		map[string]dbus.Variant{},
		int32(0),
	)

	if res.Err != nil {
		dn.log.Printf("[ERROR] Cannot send Notification %q: %s\n",
			head,
			res.Err.Error())
		return res.Err
	} else if err := res.Store(&id); err != nil {
		dn.log.Printf("[ERROR] Cannot get ID of Notification %q: %s\n",
			head,
			err.Error())
		return err
	}

	dn.lock.Lock()
	dn.ids[tag] = id
	dn.lock.Unlock()

	return nil
} // func (dn *desktopNotifier) notify(n objects.Notification) error

func (dn *desktopNotifier) close(n objects.Notification) error {
	var tag = n.Tag()

	dn.lock.Lock()
	var id, ok = dn.ids[tag]
	delete(dn.ids, tag)
	dn.lock.Unlock()

	if dn.bus == nil {
		dn.log.Printf("[INFO] Withdraw notification %s\n", tag)
		return nil
	} else if !ok {
		return nil
	}

	var res = dn.bus.Object(notifyObj, notifyPath).Call(closeMethod, 0, id)
	if res.Err != nil {
		dn.log.Printf("[ERROR] Cannot close Notification %s (%d): %s\n",
			tag,
			id,
			res.Err.Error())
		return res.Err
	}

	return nil
} // func (dn *desktopNotifier) close(n objects.Notification) error
