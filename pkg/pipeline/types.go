// Package pipeline is the inbound message path: webhook payloads come in,
// get deduplicated, checked for a bot mention and topical relevance,
// classified into an intent and answered through the messaging gateway.
package pipeline

import (
	"context"
	"strconv"

	"github.com/zakiachsan27/Pm-qa-bot/pkg/sheets"
	"github.com/zakiachsan27/Pm-qa-bot/pkg/waha"
)

// Message is the WAHA webhook message payload. Only the fields the pipeline
// reads are decoded.
type Message struct {
	ID           string       `json:"id"`
	From         string       `json:"from"`
	FromMe       bool         `json:"fromMe"`
	Body         string       `json:"body"`
	Timestamp    int64        `json:"timestamp"`
	MentionedIDs []string     `json:"mentionedIds"`
	Data         *MessageData `json:"_data,omitempty"`
}

// MessageData carries the raw fields some gateway versions only expose
// under _data.
type MessageData struct {
	T                 int64      `json:"t"`
	MentionedJIDList  []waha.JID `json:"mentionedJidList"`
	QuotedParticipant *waha.JID  `json:"quotedParticipant"`
}

// EventTimestamp prefers the top-level timestamp, falling back to _data.t.
func (m Message) EventTimestamp() string {
	if m.Timestamp != 0 {
		return strconv.FormatInt(m.Timestamp, 10)
	}
	if m.Data != nil && m.Data.T != 0 {
		return strconv.FormatInt(m.Data.T, 10)
	}
	return ""
}

// Gateway is the slice of the messaging client the pipeline needs.
type Gateway interface {
	SendText(ctx context.Context, chatID, text string) error
	SetTyping(ctx context.Context, chatID string, typing bool)
	Me(ctx context.Context) (waha.Account, error)
	Profile(ctx context.Context) (waha.Profile, error)
}

// TaskSource is the slice of the spreadsheet client the pipeline needs.
type TaskSource interface {
	CurrentTasks(ctx context.Context) ([]sheets.TaskRecord, error)
	NewTasksLastWeek(ctx context.Context) (sheets.WeeklyTasks, error)
	StatusChanges(ctx context.Context, daysBack int) ([]sheets.StatusChange, error)
}

// Answerer handles free-form questions the deterministic query resolver
// cannot place. Optional.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}
