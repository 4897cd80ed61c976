package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Column layout of the Current sheet.
const (
	colTaskID     = 0
	colTaskApp    = 1
	colTaskModule = 2
	colTaskDesc   = 3
	colTaskDue    = 6
	colTaskPIC    = 8
	colTaskDone   = 11
	colTaskStatus = 12
)

// TaskRecord is one row of the Current sheet. The pipeline only ever filters
// and groups these, never writes them back.
type TaskRecord struct {
	ID          string
	App         string
	Module      string
	Description string
	PIC         string
	Status      string
	Resolved    bool
	Deadline    time.Time
	Overdue     bool
}

// ModuleSummary is one row of the Dashboard's "NEW TASKS LAST WEEK" section.
type ModuleSummary struct {
	App           string
	Module        string
	Total         int
	OnProgress    int
	ReadyToTest   int
	OnTesting     int
	ReadyToDeploy int
	Done          int
}

type WeeklyTasks struct {
	DateRange string
	Modules   []ModuleSummary
}

type StatusChange struct {
	Timestamp time.Time
	ID        string
	App       string
	Module    string
	PIC       string
	OldStatus string
	NewStatus string
}

// CurrentTasks returns every identifiable task row from the Current sheet,
// with overdue computed against today.
func (c *Client) CurrentTasks(ctx context.Context) ([]TaskRecord, error) {
	table, err := c.FetchSheet(ctx, "Current", "")
	if err != nil {
		return nil, err
	}
	return parseCurrentTasks(table, time.Now()), nil
}

func parseCurrentTasks(table *Table, now time.Time) []TaskRecord {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	tasks := make([]TaskRecord, 0, len(table.Rows))
	for _, row := range table.Rows {
		task := TaskRecord{
			ID:          row.Str(colTaskID),
			App:         row.Str(colTaskApp),
			Module:      row.Str(colTaskModule),
			Description: row.Str(colTaskDesc),
			PIC:         row.Str(colTaskPIC),
			Status:      row.Str(colTaskStatus),
			Resolved:    row.Bool(colTaskDone),
		}
		if task.ID == "" || task.App == "" {
			continue
		}
		if deadline, ok := ParseDate(row.Str(colTaskDue)); ok {
			task.Deadline = deadline
			task.Overdue = !task.Resolved && deadline.Before(today)
		}
		tasks = append(tasks, task)
	}
	return tasks
}

// The NEW TASKS LAST WEEK section lives below the dashboard's main charts;
// this range brackets it with slack on both sides.
const newTasksRange = "A574:J610"

// NewTasksLastWeek scans the Dashboard for the section header, extracts the
// date range from its parentheses and collects the per-module rows until the
// TOTAL line or the next section.
func (c *Client) NewTasksLastWeek(ctx context.Context) (WeeklyTasks, error) {
	table, err := c.FetchSheet(ctx, "Dashboard", newTasksRange)
	if err != nil {
		return WeeklyTasks{}, err
	}
	return parseNewTasksSection(table), nil
}

func parseNewTasksSection(table *Table) WeeklyTasks {
	var weekly WeeklyTasks
	inSection := false

	for _, row := range table.Rows {
		head := row.Str(0)

		if strings.Contains(head, "NEW TASKS LAST WEEK") {
			weekly.DateRange = betweenParens(head)
			inSection = true
			continue
		}
		if head == "App" {
			continue
		}
		if head == "TOTAL" || strings.Contains(head, "WEEKLY PROGRESS") || strings.Contains(head, "Subtotal") {
			inSection = false
			continue
		}
		if !inSection {
			continue
		}

		summary := ModuleSummary{
			App:           head,
			Module:        row.Str(1),
			Total:         row.Int(2),
			OnProgress:    row.Int(3),
			ReadyToTest:   row.Int(4),
			OnTesting:     row.Int(5),
			ReadyToDeploy: row.Int(6),
			Done:          row.Int(8),
		}
		if summary.App == "" || summary.Module == "" || summary.Total == 0 {
			continue
		}
		weekly.Modules = append(weekly.Modules, summary)
	}
	return weekly
}

// Column layout of the Changelog sheet.
const (
	colChangeTS    = 0
	colChangeID    = 1
	colChangeApp   = 2
	colChangePIC   = 3
	colChangeType  = 4
	colChangeField = 5
	colChangeOld   = 6
	colChangeNew   = 7
)

// StatusChanges returns Changelog STATUS_CHANGE entries on the status field
// within the last daysBack days, with module names joined in from the
// Current sheet.
func (c *Client) StatusChanges(ctx context.Context, daysBack int) ([]StatusChange, error) {
	table, err := c.FetchSheet(ctx, "Changelog", "A1:H2000")
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().AddDate(0, 0, -daysBack)
	changes := parseStatusChanges(table, cutoff)
	if len(changes) == 0 {
		return changes, nil
	}

	current, err := c.FetchSheet(ctx, "Current", "")
	if err != nil {
		return nil, fmt.Errorf("failed to enrich status changes: %w", err)
	}
	enrichModules(changes, current)
	return changes, nil
}

func parseStatusChanges(table *Table, cutoff time.Time) []StatusChange {
	var changes []StatusChange
	for _, row := range table.Rows {
		if row.Str(colChangeType) != "STATUS_CHANGE" || row.Str(colChangeField) != "Current Status" {
			continue
		}
		ts, ok := ParseDate(row.Str(colChangeTS))
		if !ok || ts.Before(cutoff) {
			continue
		}
		changes = append(changes, StatusChange{
			Timestamp: ts,
			ID:        row.Str(colChangeID),
			App:       row.Str(colChangeApp),
			PIC:       row.Str(colChangePIC),
			OldStatus: row.Str(colChangeOld),
			NewStatus: row.Str(colChangeNew),
		})
	}
	return changes
}

func enrichModules(changes []StatusChange, current *Table) {
	modules := make(map[string]string, len(current.Rows))
	for _, row := range current.Rows {
		id := row.Str(colTaskID)
		module := row.Str(colTaskModule)
		if id != "" && module != "" {
			modules[id] = module
		}
	}
	for i := range changes {
		changes[i].Module = modules[changes[i].ID]
	}
}

func betweenParens(s string) string {
	open := strings.Index(s, "(")
	if open < 0 {
		return ""
	}
	rest := s[open+1:]
	end := strings.Index(rest, ")")
	if end < 0 {
		return ""
	}
	return rest[:end]
}
