// Package report renders the bot's outbound WhatsApp texts: the weekly
// report, the quick status summary and the help message. Everything here is
// a pure string builder over sheets data.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/zakiachsan27/Pm-qa-bot/pkg/sheets"
)

const divider = "━━━━━━━━━━━━━━━━━━━━"

var statusEmoji = map[string]string{
	"On Progress":     "🔧 On Progress",
	"Ready to Test":   "🧪 Ready to Test",
	"On Testing":      "⏳ On Testing",
	"Ready to Deploy": "🚀 Ready to Deploy",
	"Done":            "✅ Done",
}

// Weekly bundles the data the weekly report is built from.
type Weekly struct {
	Tasks   sheets.WeeklyTasks
	Details []sheets.TaskRecord
	Changes []sheets.StatusChange
	Now     time.Time
}

// primaryStatus picks the dominant phase of a module by count precedence.
func primaryStatus(m sheets.ModuleSummary) string {
	switch {
	case m.OnProgress > 0:
		return "On Progress"
	case m.ReadyToTest > 0:
		return "Ready to Test"
	case m.OnTesting > 0:
		return "On Testing"
	case m.ReadyToDeploy > 0:
		return "Ready to Deploy"
	case m.Done > 0:
		return "Done"
	}
	return ""
}

type appGroup struct {
	app     string
	modules []sheets.ModuleSummary
	total   int
}

func groupByApp(modules []sheets.ModuleSummary) []appGroup {
	order := []string{}
	byApp := map[string][]sheets.ModuleSummary{}
	for _, m := range modules {
		if _, seen := byApp[m.App]; !seen {
			order = append(order, m.App)
		}
		byApp[m.App] = append(byApp[m.App], m)
	}

	groups := make([]appGroup, 0, len(order))
	for _, app := range order {
		g := appGroup{app: app, modules: byApp[app]}
		for _, m := range g.modules {
			g.total += m.Total
		}
		groups = append(groups, g)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].total > groups[j].total })
	return groups
}

// Render produces the full weekly report.
func (w Weekly) Render() string {
	now := w.Now
	if now.IsZero() {
		now = time.Now()
	}

	var b strings.Builder
	b.WriteString("📊 *WEEKLY PM REPORT*\n")
	fmt.Fprintf(&b, "_%s_\n", formatLongDate(now))
	if w.Tasks.DateRange != "" {
		fmt.Fprintf(&b, "_Periode: %s_\n", w.Tasks.DateRange)
	}
	b.WriteString("\n")

	groups := groupByApp(w.Tasks.Modules)
	if len(groups) == 0 {
		b.WriteString("_Tidak ada task baru minggu ini._\n")
		return b.String()
	}

	details := indexDetails(w.Details)

	for _, g := range groups {
		b.WriteString(divider + "\n")
		plural := ""
		if g.total > 1 {
			plural = "s"
		}
		fmt.Fprintf(&b, "📱 *%s* (%d task%s)\n", g.app, g.total, plural)

		modules := append([]sheets.ModuleSummary(nil), g.modules...)
		sort.SliceStable(modules, func(i, j int) bool { return modules[i].Total > modules[j].Total })

		for idx, m := range modules {
			last := idx == len(modules)-1
			prefix, inner := "├─", "│  "
			if last {
				prefix, inner = "└─", "   "
			}

			status := primaryStatus(m)
			line := m.Module
			if status != "" {
				line += " - " + status
			}
			fmt.Fprintf(&b, "%s %s\n", prefix, line)

			for _, task := range moduleTasks(details, m, status) {
				fmt.Fprintf(&b, "%s• [%s] %s%s%s\n",
					inner, task.ID, truncateDesc(task.Description, 40),
					doneMarker(task), deadlineMarker(task))
			}
		}
		b.WriteString("\n")
	}

	writeTotals(&b, w.Tasks.Modules)
	writeOverdue(&b, w.Tasks.Modules, w.Details)
	writeStatusChanges(&b, w.Changes)

	return b.String()
}

func indexDetails(tasks []sheets.TaskRecord) map[string][]sheets.TaskRecord {
	byModule := map[string][]sheets.TaskRecord{}
	for _, t := range tasks {
		key := t.App + "|" + t.Module
		byModule[key] = append(byModule[key], t)
	}
	return byModule
}

// moduleTasks picks the detail lines shown under a module row: tasks in the
// module's primary status first, any tasks as fallback, capped at the
// module's new-task count.
func moduleTasks(details map[string][]sheets.TaskRecord, m sheets.ModuleSummary, status string) []sheets.TaskRecord {
	all := details[m.App+"|"+m.Module]
	max := m.Total
	if max < 1 {
		max = 1
	}

	matched := make([]sheets.TaskRecord, 0, max)
	for _, t := range all {
		if t.Status == status {
			matched = append(matched, t)
			if len(matched) == max {
				return matched
			}
		}
	}
	if len(matched) > 0 {
		return matched
	}
	if len(all) > max {
		return all[:max]
	}
	return all
}

func doneMarker(t sheets.TaskRecord) string {
	if t.Resolved {
		return " ✓"
	}
	return ""
}

func deadlineMarker(t sheets.TaskRecord) string {
	if t.Deadline.IsZero() {
		return ""
	}
	d := formatShortDate(t.Deadline)
	if t.Overdue {
		return fmt.Sprintf(" ⚠️ *OVERDUE* (%s)", d)
	}
	return " 📅 " + d
}

func writeTotals(b *strings.Builder, modules []sheets.ModuleSummary) {
	var total, progress, test, testing, deploy int
	for _, m := range modules {
		total += m.Total
		progress += m.OnProgress
		test += m.ReadyToTest
		testing += m.OnTesting
		deploy += m.ReadyToDeploy
	}

	b.WriteString(divider + "\n")
	fmt.Fprintf(b, "📈 *TOTAL: %d task baru*\n", total)
	if progress > 0 {
		fmt.Fprintf(b, "• On Progress: %d\n", progress)
	}
	if test > 0 {
		fmt.Fprintf(b, "• Ready to Test: %d\n", test)
	}
	if testing > 0 {
		fmt.Fprintf(b, "• On Testing: %d\n", testing)
	}
	if deploy > 0 {
		fmt.Fprintf(b, "• Ready to Deploy: %d\n", deploy)
	}
}

// writeOverdue lists overdue tasks, but only for modules that actually have
// new tasks this week, capped at 3 per app.
func writeOverdue(b *strings.Builder, modules []sheets.ModuleSummary, details []sheets.TaskRecord) {
	weekKeys := map[string]bool{}
	for _, m := range modules {
		weekKeys[m.App+"|"+m.Module] = true
	}

	var overdue []sheets.TaskRecord
	for _, t := range details {
		if t.Overdue && !t.Resolved && weekKeys[t.App+"|"+t.Module] {
			overdue = append(overdue, t)
		}
	}

	if len(overdue) == 0 {
		b.WriteString("\n✅ _Tidak ada task overdue._\n")
		return
	}

	sort.SliceStable(overdue, func(i, j int) bool { return overdue[i].Deadline.After(overdue[j].Deadline) })

	fmt.Fprintf(b, "\n%s\n⚠️ *OVERDUE TASKS* (%d total)\n\n", divider, len(overdue))

	order := []string{}
	byApp := map[string][]sheets.TaskRecord{}
	for _, t := range overdue {
		if _, seen := byApp[t.App]; !seen {
			order = append(order, t.App)
		}
		byApp[t.App] = append(byApp[t.App], t)
	}

	for _, app := range order {
		tasks := byApp[app]
		fmt.Fprintf(b, "📱 *%s* (%d overdue)\n", app, len(tasks))
		shown := tasks
		if len(shown) > 3 {
			shown = shown[:3]
		}
		for _, t := range shown {
			fmt.Fprintf(b, "• [%s] %s - deadline %s\n", t.ID, truncateDesc(t.Description, 40), formatShortDate(t.Deadline))
		}
		if len(tasks) > 3 {
			fmt.Fprintf(b, "  _...dan %d task lainnya_\n", len(tasks)-3)
		}
		b.WriteString("\n")
	}
}

func writeStatusChanges(b *strings.Builder, changes []sheets.StatusChange) {
	if len(changes) == 0 {
		return
	}

	fmt.Fprintf(b, "\n%s\n🔄 *STATUS CHANGES* (%d)\n\n", divider, len(changes))

	type moduleChanges struct {
		module  string
		changes []sheets.StatusChange
	}
	type appChanges struct {
		app     string
		modules []*moduleChanges
		total   int
	}

	order := []string{}
	byApp := map[string]*appChanges{}
	for _, ch := range changes {
		ac, ok := byApp[ch.App]
		if !ok {
			ac = &appChanges{app: ch.App}
			byApp[ch.App] = ac
			order = append(order, ch.App)
		}
		module := ch.Module
		if module == "" {
			module = "Other"
		}
		var mc *moduleChanges
		for _, m := range ac.modules {
			if m.module == module {
				mc = m
				break
			}
		}
		if mc == nil {
			mc = &moduleChanges{module: module}
			ac.modules = append(ac.modules, mc)
		}
		mc.changes = append(mc.changes, ch)
		ac.total++
	}

	apps := make([]*appChanges, 0, len(order))
	for _, app := range order {
		apps = append(apps, byApp[app])
	}
	sort.SliceStable(apps, func(i, j int) bool { return apps[i].total > apps[j].total })

	for _, ac := range apps {
		fmt.Fprintf(b, "📱 *%s* (%d changes)\n", ac.app, ac.total)
		for idx, mc := range ac.modules {
			last := idx == len(ac.modules)-1
			prefix, inner := "├─", "│  "
			if last {
				prefix, inner = "└─", "   "
			}
			fmt.Fprintf(b, "%s %s\n", prefix, mc.module)
			for _, ch := range mc.changes {
				fmt.Fprintf(b, "%s• [%s] %s → %s\n", inner, ch.ID, ch.OldStatus, ch.NewStatus)
			}
		}
		b.WriteString("\n")
	}
}

func truncateDesc(s string, max int) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

var indonesianDays = [...]string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}

var indonesianMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

var indonesianShortMonths = [...]string{
	"Jan", "Feb", "Mar", "Apr", "Mei", "Jun",
	"Jul", "Agu", "Sep", "Okt", "Nov", "Des",
}

func formatLongDate(t time.Time) string {
	return fmt.Sprintf("%s, %d %s %d",
		indonesianDays[t.Weekday()], t.Day(), indonesianMonths[t.Month()-1], t.Year())
}

func formatShortDate(t time.Time) string {
	return fmt.Sprintf("%d %s", t.Day(), indonesianShortMonths[t.Month()-1])
}
