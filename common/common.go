// /home/krylon/go/src/github.com/blicero/pillbox/common/common.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-14 21:12:09 krylon>

// Package common contains definitions used throughout the application:
// file system paths, logging, UUIDs.
package common

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blicero/krylib"
	"github.com/blicero/pillbox/logdomain"
	"github.com/hashicorp/logutils"
	"github.com/odeke-em/go-uuid"
)

// AppName is the name of the application.
// Version is the version number.
// Debug, if true, causes the application to log additional messages.
// DefaultPort is the TCP port the backend listens on unless told otherwise.
const (
	AppName     = "Pillbox"
	Version     = "0.2.1"
	Debug       = true
	DefaultPort = 7207
)

// BuildStamp is set at link time.
var BuildStamp = "unknown"

// Formats for printing time stamps.
const (
	TimestampFormat          = "2006-01-02 15:04:05"
	TimestampFormatMinute    = "2006-01-02 15:04"
	TimestampFormatSubSecond = "2006-01-02 15:04:05.0000 MST"
	TimestampFormatTime      = "15:04:05"
	TimestampFormatDate      = "2006-01-02"
	TimeOfDayFormat          = "15:04"
)

// LogLevels are the names of the log levels supported by the logger.
var LogLevels = []logutils.LogLevel{
	"TRACE",
	"DEBUG",
	"INFO",
	"WARN",
	"ERROR",
	"CRITICAL",
	"CANTHAPPEN",
	"SILENT",
}

var (
	pathLock sync.RWMutex

	// BaseDir is the folder where all application-specific files
	// (database, key/value store, log file, configuration) are stored.
	BaseDir = filepath.Join(os.Getenv("HOME"), fmt.Sprintf(".%s.d", strings.ToLower(AppName)))
	// LogPath is the log file.
	LogPath = filepath.Join(BaseDir, fmt.Sprintf("%s.log", strings.ToLower(AppName)))
	// DbPath is the path of the SQLite database holding medications and history.
	DbPath = filepath.Join(BaseDir, fmt.Sprintf("%s.db", strings.ToLower(AppName)))
	// KVPath is the directory holding the key/value store for the pending
	// set and the checkpoint.
	KVPath = filepath.Join(BaseDir, "state")
	// ConfigPath is the configuration file.
	ConfigPath = filepath.Join(BaseDir, fmt.Sprintf("%s.yaml", strings.ToLower(AppName)))

	minLogLevel logutils.LogLevel = "TRACE"
)

// SetBaseDir sets the BaseDir and the paths derived from it.
func SetBaseDir(path string) error {
	fmt.Printf("Setting BASE_DIR to %s\n", path)

	pathLock.Lock()
	BaseDir = path
	LogPath = filepath.Join(BaseDir, fmt.Sprintf("%s.log", strings.ToLower(AppName)))
	DbPath = filepath.Join(BaseDir, fmt.Sprintf("%s.db", strings.ToLower(AppName)))
	KVPath = filepath.Join(BaseDir, "state")
	ConfigPath = filepath.Join(BaseDir, fmt.Sprintf("%s.yaml", strings.ToLower(AppName)))
	pathLock.Unlock()

	if err := InitApp(); err != nil {
		fmt.Fprintf(
			os.Stderr,
			"Error initializing application environment: %s\n",
			err.Error())
		return err
	}

	return nil
} // func SetBaseDir(path string) error

// SetLogLevel sets the minimum level of messages written by Loggers
// created afterwards. Unknown levels are rejected.
func SetLogLevel(lvl string) error {
	var level = logutils.LogLevel(strings.ToUpper(lvl))

	for _, l := range LogLevels {
		if l == level {
			pathLock.Lock()
			minLogLevel = level
			pathLock.Unlock()
			return nil
		}
	}

	return fmt.Errorf("unknown log level %q", lvl)
} // func SetLogLevel(lvl string) error

// InitApp performs some basic preparations for the application to run.
// Currently, this means creating the BaseDir folder.
func InitApp() error {
	var (
		err    error
		exists bool
	)

	pathLock.RLock()
	defer pathLock.RUnlock()

	if exists, err = krylib.Fexists(BaseDir); err != nil {
		return fmt.Errorf("cannot check if %s exists: %w", BaseDir, err)
	} else if !exists {
		if err = os.MkdirAll(BaseDir, 0700); err != nil {
			return fmt.Errorf("cannot create base directory %s: %w",
				BaseDir,
				err)
		}
	}

	return nil
} // func InitApp() error

// GetLogger tries to create a named logger instance and return it.
// If the directory to hold the log file does not exist, try to create it.
func GetLogger(dom logdomain.ID) (*log.Logger, error) {
	var (
		err     error
		logfile *os.File
		logName = fmt.Sprintf("%s.%s ",
			AppName,
			dom)
	)

	if err = InitApp(); err != nil {
		return nil, err
	}

	pathLock.RLock()
	var (
		path  = LogPath
		level = minLogLevel
	)
	pathLock.RUnlock()

	if logfile, err = os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600); err != nil {
		return nil, fmt.Errorf("cannot open log file %s: %w", path, err)
	}

	var writer = io.MultiWriter(os.Stdout, logfile)

	var filter = &logutils.LevelFilter{
		Levels:   LogLevels,
		MinLevel: level,
		Writer:   writer,
	}

	var logger = log.New(filter, logName, log.Ldate|log.Ltime|log.Lshortfile)
	return logger, nil
} // func GetLogger(dom logdomain.ID) (*log.Logger, error)

// GetUUID returns a randomized UUID
func GetUUID() string {
	return uuid.NewRandom().String()
} // func GetUUID() string
