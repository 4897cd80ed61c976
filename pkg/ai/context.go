package ai

import (
	"context"
	"fmt"
	"strings"
)

// buildContext renders the sheet snapshot the model answers from. Rows are
// capped so a large backlog cannot blow up the prompt.
func (c *Client) buildContext(ctx context.Context) (string, error) {
	tasks, err := c.tasks.CurrentTasks(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load task context: %w", err)
	}
	weekly, err := c.tasks.NewTasksLastWeek(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load weekly context: %w", err)
	}

	maxRows := c.cfg.MaxContextRows
	if maxRows <= 0 {
		maxRows = 150
	}

	open := 0
	for _, t := range tasks {
		if !t.Resolved {
			open++
		}
	}

	var b strings.Builder
	b.WriteString("TASK AKTIF:\n")
	shown := 0
	for _, t := range tasks {
		if t.Resolved {
			continue
		}
		if shown == maxRows {
			fmt.Fprintf(&b, "... dan %d task lainnya\n", open-shown)
			break
		}
		overdue := ""
		if t.Overdue {
			overdue = " [OVERDUE]"
		}
		fmt.Fprintf(&b, "[%s] %s | %s | %s | PIC: %s | %s%s\n",
			t.ID, t.App, t.Module, strings.TrimSpace(t.Description), t.PIC, t.Status, overdue)
		shown++
	}
	if shown == 0 {
		b.WriteString("(tidak ada task aktif)\n")
	}

	b.WriteString("\nTASK BARU MINGGU LALU")
	if weekly.DateRange != "" {
		fmt.Fprintf(&b, " (%s)", weekly.DateRange)
	}
	b.WriteString(":\n")
	if len(weekly.Modules) == 0 {
		b.WriteString("(tidak ada)\n")
	}
	for _, m := range weekly.Modules {
		fmt.Fprintf(&b, "%s / %s: %d task baru\n", m.App, m.Module, m.Total)
	}

	return b.String(), nil
}

func systemPrompt(taskContext string) string {
	return `Kamu adalah PM Bot, asisten project management untuk tim pengembang.
Jawab pertanyaan tentang task berdasarkan data di bawah ini saja.
Jawab singkat dalam Bahasa Indonesia, format WhatsApp (pakai *tebal* seperlunya).
Kalau datanya tidak ada, bilang tidak tahu.

DATA:
` + taskContext
}
