package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/zakiachsan27/Pm-qa-bot/pkg/config"
	"github.com/zakiachsan27/Pm-qa-bot/pkg/logger"
	"github.com/zakiachsan27/Pm-qa-bot/pkg/report"
)

// Verdict is the synchronous outcome of accepting a webhook message. The
// actual reply, if any, happens asynchronously.
type Verdict struct {
	Accepted bool
	Reason   string
}

// Dispatcher runs the full inbound pipeline for each accepted message.
type Dispatcher struct {
	gateway  Gateway
	tasks    TaskSource
	answerer Answerer

	dedup    *Deduper
	resolver *Resolver
	vocab    Vocabulary
	intents  *IntentParser
	queries  *QueryResolver

	minDelay   time.Duration
	maxDelay   time.Duration
	changeDays int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher wires the pipeline stages from config. answerer may be nil,
// free-form questions then always go through the deterministic resolver.
func NewDispatcher(cfg *config.Config, gateway Gateway, tasks TaskSource, answerer Answerer) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		gateway:    gateway,
		tasks:      tasks,
		answerer:   answerer,
		dedup:      NewDeduper(time.Duration(cfg.Bot.DedupTTLSec) * time.Second),
		resolver:   NewResolver(gateway, cfg.Bot.FallbackLID),
		vocab:      NewVocabulary(cfg.Bot.Keywords),
		intents:    NewIntentParser(cfg.Bot),
		queries:    NewQueryResolver(tasks, cfg.Bot.DirectThreshold),
		minDelay:   time.Duration(cfg.Bot.MinDelaySec) * time.Second,
		maxDelay:   time.Duration(cfg.Bot.MaxDelaySec) * time.Second,
		changeDays: cfg.Report.StatusChangeDays,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (d *Dispatcher) Start() {
	d.dedup.Start()
}

// Stop cancels in-flight handlers and waits for them to finish.
func (d *Dispatcher) Stop() {
	d.cancel()
	d.wg.Wait()
	d.dedup.Stop()
}

// Accept screens a webhook message and, when it passes, hands it to a
// background handler. Self messages and redeliveries are dropped here so the
// webhook can acknowledge immediately.
func (d *Dispatcher) Accept(msg Message) Verdict {
	if msg.FromMe {
		return Verdict{Reason: "from self"}
	}
	if !d.dedup.ShouldProcess(msg) {
		logger.DebugCF("dispatch", "Duplicate message dropped", map[string]interface{}{
			logger.FieldChatID: msg.From,
		})
		return Verdict{Reason: "duplicate"}
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.handle(d.ctx, msg)
	}()
	return Verdict{Accepted: true}
}

func (d *Dispatcher) handle(ctx context.Context, msg Message) {
	identity := d.resolver.Resolve(ctx)
	if !IsMentioned(msg, identity) {
		return
	}
	if !d.vocab.IsRelevant(msg.Body) {
		logger.DebugCF("dispatch", "Mention without relevant keywords, skipping", map[string]interface{}{
			logger.FieldChatID:  msg.From,
			logger.FieldPreview: truncateRunes(msg.Body, 60),
		})
		return
	}

	intent := d.intents.Parse(msg.Body)
	logger.InfoCF("dispatch", "Handling mention", map[string]interface{}{
		logger.FieldChatID: msg.From,
		logger.FieldSender: msg.From,
		logger.FieldIntent: intent.String(),
	})

	// Reply after a human-ish pause. A prompt machine answer in a busy group
	// reads like spam.
	if err := sleepContext(ctx, d.replyDelay()); err != nil {
		return
	}

	d.gateway.SetTyping(ctx, msg.From, true)
	defer d.gateway.SetTyping(ctx, msg.From, false)

	text, err := d.respond(ctx, intent, msg)
	if err != nil {
		logger.ErrorCF("dispatch", "Handler failed", map[string]interface{}{
			logger.FieldChatID: msg.From,
			logger.FieldIntent: intent.String(),
			logger.FieldError:  err.Error(),
		})
		text = fmt.Sprintf("❌ Maaf, ada error: %v", err)
	}

	if sendErr := d.gateway.SendText(ctx, msg.From, text); sendErr != nil {
		logger.ErrorCF("dispatch", "Failed to send reply", map[string]interface{}{
			logger.FieldChatID: msg.From,
			logger.FieldError:  sendErr.Error(),
		})
	}
}

func (d *Dispatcher) respond(ctx context.Context, intent Intent, msg Message) (string, error) {
	switch intent {
	case IntentReport:
		return d.buildReport(ctx)
	case IntentStatus:
		weekly, err := d.tasks.NewTasksLastWeek(ctx)
		if err != nil {
			return "", err
		}
		return report.StatusSummary(weekly), nil
	case IntentFreeForm:
		return d.answerQuestion(ctx, msg.Body)
	}
	return report.HelpText(), nil
}

func (d *Dispatcher) buildReport(ctx context.Context) (string, error) {
	weekly, err := d.tasks.NewTasksLastWeek(ctx)
	if err != nil {
		return "", err
	}
	details, err := d.tasks.CurrentTasks(ctx)
	if err != nil {
		return "", err
	}
	changes, err := d.tasks.StatusChanges(ctx, d.changeDays)
	if err != nil {
		logger.WarnCF("dispatch", "Status changes unavailable, report continues without them", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
		changes = nil
	}
	w := report.Weekly{Tasks: weekly, Details: details, Changes: changes, Now: time.Now()}
	return w.Render(), nil
}

// answerQuestion prefers the deterministic resolver. The AI answerer only
// sees questions the resolver could not match to any task, and only when
// configured.
func (d *Dispatcher) answerQuestion(ctx context.Context, body string) (string, error) {
	question := StripMentions(body)
	reply, found, err := d.queries.Lookup(ctx, question)
	if err != nil {
		return "", err
	}
	if found || d.answerer == nil {
		return reply, nil
	}
	return d.answerer.Answer(ctx, question)
}

func (d *Dispatcher) replyDelay() time.Duration {
	if d.maxDelay <= d.minDelay {
		return d.minDelay
	}
	return d.minDelay + time.Duration(rand.Int63n(int64(d.maxDelay-d.minDelay)))
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
