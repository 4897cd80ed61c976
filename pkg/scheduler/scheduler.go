// Package scheduler sends the weekly report to the configured groups on a
// cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/zakiachsan27/Pm-qa-bot/pkg/config"
	"github.com/zakiachsan27/Pm-qa-bot/pkg/logger"
	"github.com/zakiachsan27/Pm-qa-bot/pkg/pipeline"
	"github.com/zakiachsan27/Pm-qa-bot/pkg/report"
)

// Sender is the outbound slice of the gateway the scheduler needs.
type Sender interface {
	SendWithTyping(ctx context.Context, chatID, text string, typingFor time.Duration) error
}

// reportTypingFor is how long the typing indicator shows before each
// scheduled report lands.
const reportTypingFor = 3 * time.Second

type Scheduler struct {
	cfg    config.ReportConfig
	groups []string
	sender Sender
	tasks  pipeline.TaskSource

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

func NewScheduler(cfg *config.Config, sender Sender, tasks pipeline.TaskSource) *Scheduler {
	return &Scheduler{
		cfg:    cfg.Report,
		groups: cfg.Bot.GroupIDs,
		sender: sender,
		tasks:  tasks,
	}
}

// Start registers the cron entry in the configured timezone. Disabled or
// misconfigured schedules fail here, not at fire time.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if !s.cfg.Enabled {
		logger.InfoC("scheduler", "Weekly report schedule disabled")
		return nil
	}

	loc, err := time.LoadLocation(s.cfg.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.cfg.Timezone, err)
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(s.cfg.CronExpr, func() {
		if err := s.RunOnce(context.Background()); err != nil {
			logger.ErrorCF("scheduler", "Scheduled report failed", map[string]interface{}{
				logger.FieldError: err.Error(),
			})
		}
	}); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", s.cfg.CronExpr, err)
	}

	c.Start()
	s.cron = c
	s.running = true
	logger.InfoCF("scheduler", "Weekly report scheduled", map[string]interface{}{
		"cron":     s.cfg.CronExpr,
		"timezone": s.cfg.Timezone,
		"groups":   len(s.groups),
	})
	return nil
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cron = nil
	s.running = false
	logger.InfoC("scheduler", "Weekly report schedule stopped")
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunOnce builds the report and fans it out to every configured group, with
// a pause between groups so the sends do not look automated.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if len(s.groups) == 0 {
		return fmt.Errorf("no report groups configured")
	}

	text, err := s.buildReport(ctx)
	if err != nil {
		return err
	}

	delay := time.Duration(s.cfg.GroupSendDelaySec) * time.Second
	var failed int
	for i, group := range s.groups {
		if i > 0 && delay > 0 {
			if err := sleepContext(ctx, delay); err != nil {
				return err
			}
		}
		if err := s.sender.SendWithTyping(ctx, group, text, reportTypingFor); err != nil {
			failed++
			logger.ErrorCF("scheduler", "Failed to send report to group", map[string]interface{}{
				logger.FieldGroup: group,
				logger.FieldError: err.Error(),
			})
			continue
		}
		logger.InfoCF("scheduler", "Report sent", map[string]interface{}{
			logger.FieldGroup: group,
		})
	}

	if failed == len(s.groups) {
		return fmt.Errorf("report delivery failed for all %d groups", failed)
	}
	return nil
}

func (s *Scheduler) buildReport(ctx context.Context) (string, error) {
	weekly, err := s.tasks.NewTasksLastWeek(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load weekly tasks: %w", err)
	}
	details, err := s.tasks.CurrentTasks(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load current tasks: %w", err)
	}
	changes, err := s.tasks.StatusChanges(ctx, s.cfg.StatusChangeDays)
	if err != nil {
		logger.WarnCF("scheduler", "Status changes unavailable", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
		changes = nil
	}

	w := report.Weekly{Tasks: weekly, Details: details, Changes: changes, Now: time.Now()}
	return w.Render(), nil
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
