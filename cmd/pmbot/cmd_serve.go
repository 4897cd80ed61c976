package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zakiachsan27/Pm-qa-bot/pkg/ai"
	"github.com/zakiachsan27/Pm-qa-bot/pkg/logger"
	"github.com/zakiachsan27/Pm-qa-bot/pkg/pipeline"
	"github.com/zakiachsan27/Pm-qa-bot/pkg/scheduler"
	"github.com/zakiachsan27/Pm-qa-bot/pkg/server"
	"github.com/zakiachsan27/Pm-qa-bot/pkg/sheets"
	"github.com/zakiachsan27/Pm-qa-bot/pkg/waha"
	"github.com/zakiachsan27/Pm-qa-bot/pkg/watchdog"
)

// serveCmd runs the whole bot: webhook server, weekly report scheduler and
// the session watchdog, until interrupted.
func serveCmd() {
	cfg, err := loadConfig()
	if err != nil {
		fatal(err)
	}
	if cfg.Sheets.SheetID == "" {
		fatal(fmt.Errorf("sheets.sheet_id is not configured, run 'pmbot init' and edit %s", getConfigPath()))
	}

	gateway := waha.NewClient(cfg.Waha)
	tasks := sheets.NewClient(cfg.Sheets)

	var answerer pipeline.Answerer
	if aiClient := ai.NewClient(cfg.AI, tasks); aiClient.Enabled() {
		answerer = aiClient
		logger.InfoC("serve", "AI answerer enabled, model "+cfg.AI.Model)
	}

	dispatcher := pipeline.NewDispatcher(cfg, gateway, tasks, answerer)
	dispatcher.Start()
	defer dispatcher.Stop()

	srv := server.NewServer(cfg.Gateway, dispatcher)
	if err := srv.Start(); err != nil {
		fatal(err)
	}
	defer srv.Stop()

	sched := scheduler.NewScheduler(cfg, gateway, tasks)
	if err := sched.Start(); err != nil {
		fatal(err)
	}
	defer sched.Stop()

	var dog *watchdog.Watchdog
	if cfg.Watchdog.Enabled {
		dog = watchdog.NewWatchdog(cfg.Watchdog, gateway)
		dog.Start()
		defer dog.Stop()
	}

	fmt.Printf("%s pmbot listening on %s:%d\n", logo, cfg.Gateway.Host, cfg.Gateway.Port)
	logger.InfoC("serve", "Bot started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	fmt.Println("\nShutting down...")
	logger.InfoC("serve", "Bot stopping")
}
