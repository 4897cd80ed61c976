package watchdog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zakiachsan27/Pm-qa-bot/pkg/config"
	"github.com/zakiachsan27/Pm-qa-bot/pkg/waha"
)

type fakeGateway struct {
	status    string
	statusErr error
	alerts    []string
}

func (f *fakeGateway) SessionStatus(ctx context.Context) (waha.Session, error) {
	return waha.Session{Name: "default", Status: f.status}, f.statusErr
}

func (f *fakeGateway) SendText(ctx context.Context, chatID, text string) error {
	f.alerts = append(f.alerts, text)
	return nil
}

func newWatchdog(gw *fakeGateway) *Watchdog {
	return NewWatchdog(config.WatchdogConfig{
		IntervalSec:  60,
		NotifyChatID: "admin@c.us",
	}, gw)
}

func TestAlertOnDegradedSession(t *testing.T) {
	gw := &fakeGateway{status: "WORKING"}
	w := newWatchdog(gw)

	w.check(context.Background())
	if len(gw.alerts) != 0 {
		t.Fatalf("healthy session must not alert: %v", gw.alerts)
	}

	gw.status = "STOPPED"
	w.check(context.Background())
	if len(gw.alerts) != 1 || !strings.Contains(gw.alerts[0], "STOPPED") {
		t.Fatalf("expected alert naming the status, got %v", gw.alerts)
	}
}

func TestAlertOncePerTransition(t *testing.T) {
	gw := &fakeGateway{status: "FAILED"}
	w := newWatchdog(gw)

	w.check(context.Background())
	w.check(context.Background())
	w.check(context.Background())
	if len(gw.alerts) != 1 {
		t.Fatalf("repeated degraded status must alert once, got %d", len(gw.alerts))
	}

	// Recovery and re-failure alerts again.
	gw.status = "WORKING"
	w.check(context.Background())
	gw.status = "FAILED"
	w.check(context.Background())
	if len(gw.alerts) != 2 {
		t.Fatalf("new transition must alert again, got %d", len(gw.alerts))
	}
}

func TestStatusErrorDoesNotAlert(t *testing.T) {
	gw := &fakeGateway{statusErr: errors.New("gateway unreachable")}
	w := newWatchdog(gw)

	w.check(context.Background())
	if len(gw.alerts) != 0 {
		t.Fatalf("lookup failure must not alert: %v", gw.alerts)
	}
}

func TestNoAlertWithoutNotifyChat(t *testing.T) {
	gw := &fakeGateway{status: "STOPPED"}
	w := NewWatchdog(config.WatchdogConfig{IntervalSec: 60}, gw)

	w.check(context.Background())
	if len(gw.alerts) != 0 {
		t.Fatalf("alert sent without a notify chat: %v", gw.alerts)
	}
}

func TestStartStop(t *testing.T) {
	w := newWatchdog(&fakeGateway{status: "WORKING"})
	if !w.Start() {
		t.Fatalf("Start failed")
	}
	if w.Start() {
		t.Fatalf("second Start must be a no-op")
	}
	if !w.Stop() {
		t.Fatalf("Stop failed")
	}
	if w.Running() {
		t.Fatalf("watchdog still running")
	}
}
