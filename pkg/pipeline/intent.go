package pipeline

import (
	"regexp"
	"strings"

	"github.com/zakiachsan27/Pm-qa-bot/pkg/config"
)

// Intent is the coarse classification of a mentioned, relevant message.
type Intent int

const (
	// IntentDefault is the safe fallback, answered with the help text.
	IntentDefault Intent = iota
	IntentReport
	IntentStatus
	IntentHelp
	// IntentFreeForm is any longer text that is not an exact command.
	IntentFreeForm
)

func (i Intent) String() string {
	switch i {
	case IntentReport:
		return "report"
	case IntentStatus:
		return "status"
	case IntentHelp:
		return "help"
	case IntentFreeForm:
		return "free-form"
	}
	return "default"
}

// minQueryLen is the shortest stripped text treated as a free-form question.
// Anything at or under it that is not a command falls back to help.
const minQueryLen = 5

var mentionToken = regexp.MustCompile(`@\d+`)

// StripMentions removes @-number tokens so command matching sees only the
// user's words.
func StripMentions(s string) string {
	return strings.TrimSpace(mentionToken.ReplaceAllString(s, ""))
}

// IntentParser matches stripped message text against the configured command
// synonyms. Commands also match with a leading slash.
type IntentParser struct {
	report map[string]bool
	status map[string]bool
	help   map[string]bool
}

func NewIntentParser(cfg config.BotConfig) *IntentParser {
	return &IntentParser{
		report: commandSet(cfg.ReportCommands),
		status: commandSet(cfg.StatusCommands),
		help:   commandSet(cfg.HelpCommands),
	}
}

func commandSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words)*2)
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		set[w] = true
		set["/"+w] = true
	}
	return set
}

// Parse classifies the message body. Every input maps to some intent, there
// is no error path.
func (p *IntentParser) Parse(body string) Intent {
	text := strings.ToLower(StripMentions(body))
	switch {
	case p.report[text]:
		return IntentReport
	case p.status[text]:
		return IntentStatus
	case p.help[text]:
		return IntentHelp
	case len(text) > minQueryLen:
		return IntentFreeForm
	}
	return IntentDefault
}
