// /home/krylon/go/src/github.com/blicero/pillbox/backend/metrics.go
// -*- mode: go; coding: utf-8; -*-
// Created on 14. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-15 14:10:37 krylon>

package backend

import (
	"github.com/blicero/pillbox/objects"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	alarmsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pillbox_alarms_fired_total",
		Help: "Alarms reported to the backend",
	})

	userActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pillbox_user_actions_total",
		Help: "Doses taken or skipped, by action",
	}, []string{"action"})

	reconcileTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pillbox_reconcile_passes_total",
		Help: "Reconciliation passes by result",
	}, []string{"result"})

	reconcileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pillbox_reconcile_duration_seconds",
		Help:    "Duration of reconciliation passes",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	})

	missedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pillbox_missed_doses_recorded_total",
		Help: "MISSED history records written by reconciliation",
	})

	pendingGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pillbox_pending_doses",
		Help: "Doses currently awaiting a reaction from the user",
	})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pillbox_notifications_total",
		Help: "Desktop notifications by operation and result",
	}, []string{"op", "result"})
)

// observeReport records the outcome of a reconciliation pass.
func observeReport(rep *objects.Report) {
	if rep == nil {
		return
	}

	reconcileDuration.Observe(rep.Finished.Sub(rep.Started).Seconds())
	missedTotal.Add(float64(rep.Missed))

	if rep.OK() {
		reconcileTotal.WithLabelValues("ok").Inc()
	} else {
		reconcileTotal.WithLabelValues("aborted").Inc()
	}
} // func observeReport(rep *objects.Report)
