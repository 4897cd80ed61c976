package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/zakiachsan27/Pm-qa-bot/pkg/sheets"
)

// Query is the app/module target extracted from a free-form question.
type Query struct {
	App    string
	Module string
}

func (q Query) Empty() bool {
	return q.App == "" && q.Module == ""
}

// statusOrder is the fixed display order for summary counters. Statuses not
// listed here follow alphabetically.
var statusOrder = []string{
	"On Progress", "Ready to Test", "On Testing",
	"Ready to Deploy", "Deployed", "Done",
}

// dashSplit separates "app - module" on the first dash, hyphen or en dash.
// Later dashes stay in the module name.
var dashSplit = regexp.MustCompile(`^(.*?)\s*[-–]\s*(.+)$`)

var leadingQueryWord = regexp.MustCompile(`(?i)^(detail|rincian|breakdown|info|status|list|daftar)\b\s*`)

// ParseQuery extracts the lookup target from a question. "detail CoreTax -
// BPHTB" yields both parts, "status ERET" yields just the app.
func ParseQuery(text string) Query {
	text = StripMentions(text)

	if m := dashSplit.FindStringSubmatch(text); m != nil {
		app := strings.TrimSpace(m[1])
		app = strings.TrimSpace(leadingQueryWord.ReplaceAllString(app, ""))
		return Query{App: app, Module: strings.TrimSpace(m[2])}
	}

	// Without a dash the whole remainder is the app name, with any leading
	// query word dropped. A bare "CoreTax" is a valid lookup.
	return Query{App: strings.TrimSpace(leadingQueryWord.ReplaceAllString(text, ""))}
}

// QueryResolver answers app/module lookups against the live task sheet.
type QueryResolver struct {
	tasks     TaskSource
	threshold int
}

func NewQueryResolver(tasks TaskSource, directThreshold int) *QueryResolver {
	if directThreshold <= 0 {
		directThreshold = 10
	}
	return &QueryResolver{tasks: tasks, threshold: directThreshold}
}

// Resolve turns a free-form question into a reply. Unparseable questions get
// a usage hint, sheet errors are returned to the caller.
func (r *QueryResolver) Resolve(ctx context.Context, text string) (string, error) {
	reply, _, err := r.Lookup(ctx, text)
	return reply, err
}

// Lookup is Resolve plus a found flag: false means the reply is the usage
// hint or the not-found message, so callers with a smarter fallback can try
// it instead.
func (r *QueryResolver) Lookup(ctx context.Context, text string) (string, bool, error) {
	q := ParseQuery(text)
	if q.Empty() {
		return usageHint(), false, nil
	}

	all, err := r.tasks.CurrentTasks(ctx)
	if err != nil {
		return "", false, fmt.Errorf("failed to load tasks: %w", err)
	}

	matched := filterTasks(all, q)
	if len(matched) == 0 {
		notFound := fmt.Sprintf("🔍 Tidak ditemukan task untuk *%s*.\n\n_Coba cek penulisan nama aplikasi/modul._", q.Label())
		return notFound, false, nil
	}

	if len(matched) > r.threshold {
		return renderSummary(q, matched), true, nil
	}
	return renderDirect(q, matched, r.threshold), true, nil
}

func (q Query) Label() string {
	if q.Module != "" {
		return q.App + " - " + q.Module
	}
	return q.App
}

// filterTasks matches case-insensitively by substring and skips resolved
// tasks, only open work is interesting in chat.
func filterTasks(all []sheets.TaskRecord, q Query) []sheets.TaskRecord {
	app := strings.ToLower(q.App)
	module := strings.ToLower(q.Module)

	var out []sheets.TaskRecord
	for _, t := range all {
		if t.Resolved {
			continue
		}
		if app != "" && !strings.Contains(strings.ToLower(t.App), app) {
			continue
		}
		if module != "" && !strings.Contains(strings.ToLower(t.Module), module) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func renderSummary(q Query, tasks []sheets.TaskRecord) string {
	counts := map[string]int{}
	for _, t := range tasks {
		status := t.Status
		if status == "" {
			status = "Unknown"
		}
		counts[status]++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 *%s*\n", q.Label())
	fmt.Fprintf(&b, "Total: %d task\n\n", len(tasks))

	listed := map[string]bool{}
	for _, status := range statusOrder {
		if n := counts[status]; n > 0 {
			fmt.Fprintf(&b, "• %s: %d\n", status, n)
			listed[status] = true
		}
	}
	var rest []string
	for status := range counts {
		if !listed[status] {
			rest = append(rest, status)
		}
	}
	sort.Strings(rest)
	for _, status := range rest {
		fmt.Fprintf(&b, "• %s: %d\n", status, counts[status])
	}

	b.WriteString("\n_Sebutkan modul untuk melihat detail, contoh:_\n")
	fmt.Fprintf(&b, "_\"%s - NamaModul\"_", q.App)
	return b.String()
}

func renderDirect(q Query, tasks []sheets.TaskRecord, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 *%s*\n", q.Label())
	fmt.Fprintf(&b, "Total: %d task\n\n", len(tasks))

	shown := tasks
	if len(shown) > limit {
		shown = shown[:limit]
	}
	for _, t := range shown {
		desc := t.Description
		if desc == "" {
			desc = "(tanpa deskripsi)"
		}
		fmt.Fprintf(&b, "• *[%s]* %s\n", t.ID, truncateRunes(desc, 60))
		pic := t.PIC
		if pic == "" {
			pic = "-"
		}
		status := t.Status
		if status == "" {
			status = "-"
		}
		fmt.Fprintf(&b, "  PIC: %s | Status: %s\n", pic, status)
	}
	if rest := len(tasks) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "\n_...dan %d task lainnya_\n", rest)
	}
	return strings.TrimRight(b.String(), "\n")
}

func usageHint() string {
	return `🔎 *Format pertanyaan:*

• "NamaAplikasi - NamaModul"
• "detail NamaAplikasi"
• "status NamaAplikasi"

_Contoh: "CoreTax - BPHTB" atau "detail ERET"_`
}

func truncateRunes(s string, max int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max])
}
