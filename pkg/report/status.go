package report

import (
	"fmt"
	"strings"

	"github.com/zakiachsan27/Pm-qa-bot/pkg/sheets"
)

// StatusSummary is the lightweight alternative to the full report: weekly
// totals only, no per-task detail.
func StatusSummary(weekly sheets.WeeklyTasks) string {
	var total, progress, test, testing, deploy int
	for _, m := range weekly.Modules {
		total += m.Total
		progress += m.OnProgress
		test += m.ReadyToTest
		testing += m.OnTesting
		deploy += m.ReadyToDeploy
	}

	dateRange := weekly.DateRange
	if dateRange == "" {
		dateRange = "N/A"
	}

	var b strings.Builder
	b.WriteString("📈 *Status Minggu Ini*\n")
	fmt.Fprintf(&b, "_Periode: %s_\n\n", dateRange)
	fmt.Fprintf(&b, "📊 *%d task baru*\n", total)
	fmt.Fprintf(&b, "• On Progress: %d\n", progress)
	fmt.Fprintf(&b, "• Ready to Test: %d\n", test)
	fmt.Fprintf(&b, "• On Testing: %d\n", testing)
	fmt.Fprintf(&b, "• Ready to Deploy: %d\n\n", deploy)
	b.WriteString(`_Ketik "report" untuk detail lengkap_`)
	return b.String()
}

// HelpText is the static usage message, also used as the safe fallback for
// unrecognized commands.
func HelpText() string {
	return `🤖 *PM Bot - Bantuan*

Mention saya dengan salah satu perintah:

📊 *report* / *laporan*
→ Kirim weekly report sekarang

📈 *status*
→ Lihat status ringkasan task

❓ *help* / *bantuan*
→ Tampilkan pesan ini

🔎 *Tanya task*
→ Tanya apa saja tentang task!

_Contoh:_
• @628xxx report
• @628xxx detail CoreTax - BPHTB
• @628xxx status ERET`
}
