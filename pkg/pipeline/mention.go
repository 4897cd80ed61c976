package pipeline

import (
	"strings"

	"github.com/zakiachsan27/Pm-qa-bot/pkg/logger"
)

// mentionSignal is one way a group message can address the bot. Signals are
// checked in order and the first hit wins.
type mentionSignal struct {
	name  string
	match func(msg Message, id Identity) bool
}

var mentionSignals = []mentionSignal{
	{"mention-list-lid", func(msg Message, id Identity) bool {
		return id.LID != "" && mentionedUsers(msg)[id.LID]
	}},
	{"mention-list-number", func(msg Message, id Identity) bool {
		return id.Number != "" && mentionedUsers(msg)[id.Number]
	}},
	{"body-token-lid", func(msg Message, id Identity) bool {
		return id.LID != "" && strings.Contains(msg.Body, "@"+id.LID)
	}},
	{"body-token-number", func(msg Message, id Identity) bool {
		return id.Number != "" && strings.Contains(msg.Body, "@"+id.Number)
	}},
	{"quoted-reply", func(msg Message, id Identity) bool {
		if msg.Data == nil || msg.Data.QuotedParticipant == nil {
			return false
		}
		user := msg.Data.QuotedParticipant.UserID()
		return user != "" && (user == id.LID || user == id.Number)
	}},
}

// IsMentioned reports whether the message addresses the bot through any of
// the known signals. An empty identity never matches, the bot stays silent
// rather than replying to everything.
func IsMentioned(msg Message, id Identity) bool {
	if id.Empty() {
		return false
	}
	for _, sig := range mentionSignals {
		if sig.match(msg, id) {
			logger.DebugCF("mention", "Bot mentioned", map[string]interface{}{
				"signal":           sig.name,
				logger.FieldChatID: msg.From,
			})
			return true
		}
	}
	return false
}

// mentionedUsers collects the user parts of every mention the payload
// carries, from both the top-level list and the raw _data list.
func mentionedUsers(msg Message) map[string]bool {
	users := map[string]bool{}
	for _, raw := range msg.MentionedIDs {
		user, _, _ := strings.Cut(raw, "@")
		if user != "" {
			users[user] = true
		}
	}
	if msg.Data != nil {
		for _, jid := range msg.Data.MentionedJIDList {
			if user := jid.UserID(); user != "" {
				users[user] = true
			}
		}
	}
	return users
}
