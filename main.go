// /home/krylon/go/src/github.com/blicero/pillbox/main.go
// -*- mode: go; coding: utf-8; -*-
// Created on 12. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-15 18:10:44 krylon>

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blicero/pillbox/backend"
	"github.com/blicero/pillbox/common"
)

func main() {
	fmt.Printf("%s %s (built %s)\n",
		common.AppName,
		common.Version,
		common.BuildStamp)

	var (
		err                   error
		daemon                *backend.Daemon
		cfg                   common.Config
		appDir, cfgPath, addr string
		logLevel              string
	)

	flag.StringVar(
		&appDir,
		"appdir",
		common.BaseDir,
		"The directory where application-specific files live")

	flag.StringVar(
		&cfgPath,
		"config",
		"",
		"The configuration file (default: pillbox.yaml in appdir)")

	flag.StringVar(
		&addr,
		"address",
		"",
		"Address to listen on, overrides the configuration file")

	flag.StringVar(
		&logLevel,
		"loglevel",
		"",
		"Minimum level of log messages, overrides the configuration file")

	flag.Parse()

	if err = common.SetBaseDir(appDir); err != nil {
		fmt.Fprintf(
			os.Stderr,
			"Cannot set base directory to %s: %s\n",
			appDir,
			err.Error())
		os.Exit(1)
	} else if cfgPath == "" {
		cfgPath = common.ConfigPath
	}

	if cfg, err = common.LoadConfig(cfgPath); err != nil {
		fmt.Fprintf(
			os.Stderr,
			"Cannot load configuration: %s\n",
			err.Error())
		os.Exit(1)
	}

	if addr != "" {
		cfg.ListenAddress = addr
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if err = common.SetLogLevel(cfg.LogLevel); err != nil {
		fmt.Fprintf(
			os.Stderr,
			"%s\n",
			err.Error())
		os.Exit(1)
	}

	if daemon, err = backend.Summon(cfg); err != nil {
		fmt.Fprintf(
			os.Stderr,
			"Failed to initialize backend: %s\n",
			err.Error())
		os.Exit(1)
	}

	var sigQ = make(chan os.Signal, 1)
	var ticker = time.NewTicker(time.Second * 2)

	signal.Notify(sigQ, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

	for daemon.IsAlive() {
		select {
		case sig := <-sigQ:
			fmt.Printf("Quitting on signal %s\n", sig)
			if err = daemon.Banish(); err != nil {
				fmt.Fprintf(
					os.Stderr,
					"Error shutting down backend: %s\n",
					err.Error())
				os.Exit(1)
			}
			os.Exit(0)
		case <-ticker.C:
			continue
		}
	}
}
