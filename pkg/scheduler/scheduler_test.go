package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zakiachsan27/Pm-qa-bot/pkg/config"
	"github.com/zakiachsan27/Pm-qa-bot/pkg/sheets"
)

type fakeSender struct {
	mu      sync.Mutex
	sent    map[string]string
	failFor map[string]bool
}

func newFakeSender() *fakeSender {
	return &fakeSender{sent: map[string]string{}, failFor: map[string]bool{}}
}

func (f *fakeSender) SendWithTyping(ctx context.Context, chatID, text string, typingFor time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[chatID] {
		return errors.New("send failed")
	}
	f.sent[chatID] = text
	return nil
}

type fakeTasks struct {
	weekly    sheets.WeeklyTasks
	weeklyErr error
}

func (f *fakeTasks) CurrentTasks(ctx context.Context) ([]sheets.TaskRecord, error) {
	return nil, nil
}

func (f *fakeTasks) NewTasksLastWeek(ctx context.Context) (sheets.WeeklyTasks, error) {
	return f.weekly, f.weeklyErr
}

func (f *fakeTasks) StatusChanges(ctx context.Context, daysBack int) ([]sheets.StatusChange, error) {
	return nil, nil
}

func testConfig(groups ...string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Bot.GroupIDs = groups
	cfg.Report.GroupSendDelaySec = 0
	return cfg
}

func TestRunOnceFansOutToAllGroups(t *testing.T) {
	sender := newFakeSender()
	tasks := &fakeTasks{weekly: sheets.WeeklyTasks{
		Modules: []sheets.ModuleSummary{{App: "CoreTax", Module: "BPHTB", Total: 1, OnProgress: 1}},
	}}
	s := NewScheduler(testConfig("g1@g.us", "g2@g.us"), sender, tasks)

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 sends, got %d", len(sender.sent))
	}
	if !strings.Contains(sender.sent["g1@g.us"], "WEEKLY PM REPORT") {
		t.Fatalf("unexpected report text:\n%s", sender.sent["g1@g.us"])
	}
}

func TestRunOnceContinuesAfterPartialFailure(t *testing.T) {
	sender := newFakeSender()
	sender.failFor["g1@g.us"] = true
	s := NewScheduler(testConfig("g1@g.us", "g2@g.us"), sender, &fakeTasks{})

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("partial failure must not fail the run: %v", err)
	}
	if _, ok := sender.sent["g2@g.us"]; !ok {
		t.Fatalf("remaining group skipped after failure")
	}
}

func TestRunOnceFailsWhenAllGroupsFail(t *testing.T) {
	sender := newFakeSender()
	sender.failFor["g1@g.us"] = true
	s := NewScheduler(testConfig("g1@g.us"), sender, &fakeTasks{})

	if err := s.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected error when every delivery fails")
	}
}

func TestRunOnceRequiresGroups(t *testing.T) {
	s := NewScheduler(testConfig(), newFakeSender(), &fakeTasks{})
	if err := s.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected error without configured groups")
	}
}

func TestRunOncePropagatesSheetError(t *testing.T) {
	s := NewScheduler(testConfig("g1@g.us"), newFakeSender(), &fakeTasks{weeklyErr: errors.New("unreachable")})
	if err := s.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected sheet error")
	}
}

func TestStartRejectsBadCron(t *testing.T) {
	cfg := testConfig("g1@g.us")
	cfg.Report.CronExpr = "not a cron"
	s := NewScheduler(cfg, newFakeSender(), &fakeTasks{})
	if err := s.Start(); err == nil {
		t.Fatalf("expected invalid cron error")
	}
}

func TestStartStopLifecycle(t *testing.T) {
	s := NewScheduler(testConfig("g1@g.us"), newFakeSender(), &fakeTasks{})
	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !s.Running() {
		t.Fatalf("scheduler should be running")
	}
	if err := s.Start(); err == nil {
		t.Fatalf("second Start must fail")
	}
	s.Stop()
	if s.Running() {
		t.Fatalf("scheduler should be stopped")
	}
}
