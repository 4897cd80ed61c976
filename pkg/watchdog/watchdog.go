// Package watchdog polls the WhatsApp gateway session and raises an alert
// when the session leaves the WORKING state, which otherwise only shows up
// as the bot silently going quiet.
package watchdog

import (
	"context"
	"sync"
	"time"

	"github.com/zakiachsan27/Pm-qa-bot/pkg/config"
	"github.com/zakiachsan27/Pm-qa-bot/pkg/lifecycle"
	"github.com/zakiachsan27/Pm-qa-bot/pkg/logger"
	"github.com/zakiachsan27/Pm-qa-bot/pkg/waha"
)

const healthyStatus = "WORKING"

// Gateway is the slice of the WAHA client the watchdog needs.
type Gateway interface {
	SessionStatus(ctx context.Context) (waha.Session, error)
	SendText(ctx context.Context, chatID, text string) error
}

type Watchdog struct {
	gateway      Gateway
	interval     time.Duration
	notifyChatID string
	runner       *lifecycle.Runner

	mu         sync.Mutex
	lastStatus string
}

func NewWatchdog(cfg config.WatchdogConfig, gateway Gateway) *Watchdog {
	interval := time.Duration(cfg.IntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	return &Watchdog{
		gateway:      gateway,
		interval:     interval,
		notifyChatID: cfg.NotifyChatID,
		runner:       lifecycle.NewRunner(),
	}
}

func (w *Watchdog) Start() bool {
	return w.runner.StartTicker(w.interval, w.tick)
}

func (w *Watchdog) Stop() bool {
	return w.runner.Stop()
}

func (w *Watchdog) Running() bool {
	return w.runner.Running()
}

func (w *Watchdog) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	w.check(ctx)
}

func (w *Watchdog) check(ctx context.Context) {
	session, err := w.gateway.SessionStatus(ctx)
	if err != nil {
		logger.WarnCF("watchdog", "Session status check failed", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
		return
	}

	w.mu.Lock()
	previous := w.lastStatus
	w.lastStatus = session.Status
	w.mu.Unlock()

	if session.Status == previous {
		return
	}

	logger.InfoCF("watchdog", "Session status changed", map[string]interface{}{
		"from": previous,
		"to":   session.Status,
	})

	// Alert only on degradation, and only once per transition.
	if session.Status != healthyStatus && w.notifyChatID != "" {
		text := "⚠️ *PM Bot*: sesi WhatsApp berstatus *" + session.Status + "*. Cek gateway."
		if err := w.gateway.SendText(ctx, w.notifyChatID, text); err != nil {
			logger.ErrorCF("watchdog", "Failed to send session alert", map[string]interface{}{
				logger.FieldError: err.Error(),
			})
		}
	}
}
