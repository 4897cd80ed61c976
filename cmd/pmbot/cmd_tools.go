package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/zakiachsan27/Pm-qa-bot/pkg/config"
	"github.com/zakiachsan27/Pm-qa-bot/pkg/scheduler"
	"github.com/zakiachsan27/Pm-qa-bot/pkg/sheets"
	"github.com/zakiachsan27/Pm-qa-bot/pkg/waha"
)

// sendNowCmd builds the weekly report from the live sheet and sends it to
// every configured group, without waiting for the cron schedule.
func sendNowCmd() {
	cfg, err := loadConfig()
	if err != nil {
		fatal(err)
	}

	gateway := waha.NewClient(cfg.Waha)
	tasks := sheets.NewClient(cfg.Sheets)
	sched := scheduler.NewScheduler(cfg, gateway, tasks)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	fmt.Println("Building and sending weekly report...")
	if err := sched.RunOnce(ctx); err != nil {
		fatal(err)
	}
	fmt.Printf("Report sent to %d group(s).\n", len(cfg.Bot.GroupIDs))
}

func testSheetsCmd() {
	cfg, err := loadConfig()
	if err != nil {
		fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	tasks := sheets.NewClient(cfg.Sheets)

	current, err := tasks.CurrentTasks(ctx)
	if err != nil {
		fatal(err)
	}
	open, overdue := 0, 0
	for _, t := range current {
		if !t.Resolved {
			open++
		}
		if t.Overdue {
			overdue++
		}
	}
	fmt.Printf("Current tasks: %d total, %d open, %d overdue\n", len(current), open, overdue)

	weekly, err := tasks.NewTasksLastWeek(ctx)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("New tasks last week (%s): %d module rows\n", weekly.DateRange, len(weekly.Modules))
	for _, m := range weekly.Modules {
		fmt.Printf("  %s / %s: %d\n", m.App, m.Module, m.Total)
	}

	changes, err := tasks.StatusChanges(ctx, cfg.Report.StatusChangeDays)
	if err != nil {
		fmt.Printf("Status changes unavailable: %v\n", err)
		return
	}
	fmt.Printf("Status changes (last %d days): %d\n", cfg.Report.StatusChangeDays, len(changes))
}

func testWahaCmd() {
	cfg, err := loadConfig()
	if err != nil {
		fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	gateway := waha.NewClient(cfg.Waha)

	session, err := gateway.SessionStatus(ctx)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Session %q: %s\n", session.Name, session.Status)

	account, err := gateway.Me(ctx)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Account: %s (%s)\n", account.PushName, account.Number())

	if profile, err := gateway.Profile(ctx); err == nil && !profile.WID.IsZero() {
		fmt.Printf("Linked ID: %s\n", profile.WID.UserID())
	} else {
		fmt.Printf("Linked ID unavailable, fallback %s will be used\n", cfg.Bot.FallbackLID)
	}
}

// groupsCmd lists the gateway's groups, or looks one up by name so its chat
// ID can be pasted into bot.group_ids.
func groupsCmd() {
	cfg, err := loadConfig()
	if err != nil {
		fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	gateway := waha.NewClient(cfg.Waha)

	if len(os.Args) > 2 {
		group, err := gateway.FindGroupByName(ctx, os.Args[2])
		if err != nil {
			fatal(err)
		}
		fmt.Printf("%-50s %s\n", group.Name, group.ID.String())
		return
	}

	groups, err := gateway.Groups(ctx)
	if err != nil {
		fatal(err)
	}
	if len(groups) == 0 {
		fmt.Println("No groups found.")
		return
	}
	for _, g := range groups {
		fmt.Printf("%-50s %s\n", g.Name, g.ID.String())
	}
}

// initCmd writes the default config so there is something to edit.
func initCmd() {
	path := getConfigPath()
	if _, err := os.Stat(path); err == nil {
		fatal(fmt.Errorf("config already exists at %s", path))
	}

	if err := config.SaveConfig(path, config.DefaultConfig()); err != nil {
		fatal(err)
	}
	fmt.Printf("Default config written to %s\n", path)
	fmt.Println("Set sheets.sheet_id, waha.api_key and bot.group_ids before running 'pmbot serve'.")
}
