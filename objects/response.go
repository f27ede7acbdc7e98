// /home/krylon/go/src/github.com/blicero/pillbox/objects/response.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-15 14:02:11 krylon>

package objects

//go:generate ffjson response.go

// Response is what the backend sends to a client after processing a
// request that changes something.
// ObjectID carries the ID of whatever the request created, if anything.
type Response struct {
	ID       int64
	Status   bool
	Message  string
	ObjectID int64 `json:",omitempty"`
}
