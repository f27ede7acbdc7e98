// /home/krylon/go/src/github.com/blicero/pillbox/clients/dosectl/main.go
// -*- mode: go; coding: utf-8; -*-
// Created on 15. 10. 2026 by Benjamin Walkenhorst
// (c) 2026 Benjamin Walkenhorst
// Time-stamp: <2026-10-15 18:31:17 krylon>

// dosectl talks to the Pillbox backend from the command line.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/blicero/pillbox/clients/clientlib"
	"github.com/blicero/pillbox/common"
	"github.com/blicero/pillbox/objects"
	"github.com/blicero/pillbox/objects/action"
)

const usage = `Usage: dosectl [flags] <command> [arguments]

Commands:
  alarm <medication> <HH:MM> [repeat]   report that an alarm went off
  take <medication> <HH:MM>             record a dose as taken
  skip <medication> <HH:MM>             record a dose as skipped
  pending                               list pending doses
  history <medication> [days]           show the history of a medication
  meds                                  list medications
  add <profile> <name> <schedule>       add a medication
  delete <medication>                   delete a medication
  reconcile                             run a reconciliation pass
`

func main() {
	var (
		err    error
		addr   string
		appDir string
		c      *clientlib.Client
	)

	flag.StringVar(
		&addr,
		"address",
		fmt.Sprintf("localhost:%d", common.DefaultPort),
		"The address of the backend")
	flag.StringVar(
		&appDir,
		"appdir",
		common.BaseDir,
		"The directory where application-specific files live")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	} else if err = common.SetBaseDir(appDir); err != nil {
		os.Exit(1)
	} else if c, err = clientlib.NewClient(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Cannot create client: %s\n", err.Error())
		os.Exit(1)
	}

	if err = run(c, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", flag.Arg(0), err.Error())
		os.Exit(1)
	}
} // func main()

func run(c *clientlib.Client, cmd string, args []string) error {
	var (
		err          error
		medID        int64
		hour, minute int
		res          *objects.Response
	)

	switch cmd {
	case "alarm":
		var repeat int
		if len(args) < 2 {
			return fmt.Errorf("expected medication and time of day")
		} else if medID, hour, minute, err = doseArgs(args); err != nil {
			return err
		} else if len(args) > 2 {
			if repeat, err = strconv.Atoi(args[2]); err != nil {
				return err
			}
		}

		if res, err = c.AlarmFired(medID, hour, minute, repeat); err != nil {
			return err
		}
		fmt.Printf("Pending: %s\n", res.Message)

	case "take", "skip":
		var act = action.Taken
		if cmd == "skip" {
			act = action.Skipped
		}

		if len(args) < 2 {
			return fmt.Errorf("expected medication and time of day")
		} else if medID, hour, minute, err = doseArgs(args); err != nil {
			return err
		} else if res, err = c.UserAction(medID, hour, minute, act); err != nil {
			return err
		}
		fmt.Println(res.Message)

	case "pending":
		var doses []objects.PendingDose
		if doses, err = c.Pending(); err != nil {
			return err
		}
		for _, d := range doses {
			fmt.Printf("%-24s %02d:%02d  since %s  (repeat %d)\n",
				d.MedicationName,
				d.Hour,
				d.Minute,
				d.Timestamp.Format(common.TimestampFormatMinute),
				d.RepeatCount)
		}

	case "history":
		var (
			days = 7
			now  = time.Now()
			list []objects.HistoryRecord
		)

		if len(args) < 1 {
			return fmt.Errorf("expected medication")
		} else if medID, err = strconv.ParseInt(args[0], 10, 64); err != nil {
			return err
		} else if len(args) > 1 {
			if days, err = strconv.Atoi(args[1]); err != nil {
				return err
			}
		}

		if list, err = c.History(medID, now.AddDate(0, 0, -days), now); err != nil {
			return err
		}
		for _, r := range list {
			fmt.Printf("%s  %-8s %s\n",
				r.Scheduled.Local().Format(common.TimestampFormatMinute),
				r.Action,
				onTime(&r))
		}

	case "meds":
		var meds []objects.Medication
		if meds, err = c.Medications(); err != nil {
			return err
		}
		for _, m := range meds {
			fmt.Printf("%4d  %-24s profile %d  %s\n",
				m.ID,
				m.Name,
				m.ProfileID,
				m.Schedule)
		}

	case "add":
		if len(args) < 3 {
			return fmt.Errorf("expected profile, name and schedule")
		}

		var m = objects.Medication{Name: args[1], Schedule: args[2]}
		if m.ProfileID, err = strconv.ParseInt(args[0], 10, 64); err != nil {
			return err
		} else if _, err = c.AddMedication(&m); err != nil {
			return err
		}
		fmt.Printf("Added %q as #%d\n", m.Name, m.ID)

	case "delete":
		if len(args) < 1 {
			return fmt.Errorf("expected medication")
		} else if medID, err = strconv.ParseInt(args[0], 10, 64); err != nil {
			return err
		} else if res, err = c.DeleteMedication(medID); err != nil {
			return err
		}
		fmt.Println(res.Message)

	case "reconcile":
		var rep *objects.Report
		if rep, err = c.Reconcile(); err != nil {
			return err
		}
		fmt.Println(rep)
		for _, e := range rep.Errors {
			fmt.Printf("  %s\n", e)
		}

	default:
		return fmt.Errorf("unknown command, try -h")
	}

	return nil
} // func run(c *clientlib.Client, cmd string, args []string) error

func doseArgs(args []string) (int64, int, int, error) {
	var (
		err          error
		medID        int64
		hour, minute int
		parts        = strings.SplitN(args[1], ":", 2)
	)

	if medID, err = strconv.ParseInt(args[0], 10, 64); err != nil {
		return 0, 0, 0, err
	} else if len(parts) != 2 {
		return 0, 0, 0, fmt.Errorf("time of day must look like HH:MM, not %q", args[1])
	} else if hour, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, 0, err
	} else if minute, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, 0, err
	}

	return medID, hour, minute, nil
} // func doseArgs(args []string) (int64, int, int, error)

func onTime(r *objects.HistoryRecord) string {
	if r.Action != action.Taken {
		return ""
	} else if r.OnTime {
		return "on time"
	}

	return fmt.Sprintf("late (%s)", r.Taken.Local().Format(common.TimeOfDayFormat))
} // func onTime(r *objects.HistoryRecord) string
