package pipeline

import (
	"testing"

	"github.com/zakiachsan27/Pm-qa-bot/pkg/waha"
)

func TestIsMentioned(t *testing.T) {
	id := Identity{Number: "6281234", LID: "111222333"}
	quoted := waha.JID{User: "111222333", Serialized: "111222333@lid"}

	cases := []struct {
		name string
		msg  Message
		want bool
	}{
		{"mention list lid", Message{MentionedIDs: []string{"111222333@lid"}}, true},
		{"mention list number", Message{MentionedIDs: []string{"6281234@c.us"}}, true},
		{"raw data mention list", Message{Data: &MessageData{
			MentionedJIDList: []waha.JID{{User: "111222333"}},
		}}, true},
		{"body token lid", Message{Body: "halo @111222333 report"}, true},
		{"body token number", Message{Body: "@6281234 status"}, true},
		{"quoted reply", Message{Data: &MessageData{QuotedParticipant: &quoted}}, true},
		{"other user mentioned", Message{
			Body:         "@628999 tolong cek",
			MentionedIDs: []string{"628999@c.us"},
		}, false},
		{"plain text", Message{Body: "report mingguan sudah siap"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsMentioned(tc.msg, id); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsMentionedEmptyIdentity(t *testing.T) {
	msg := Message{Body: "@111222333 report", MentionedIDs: []string{"111222333@lid"}}
	if IsMentioned(msg, Identity{}) {
		t.Fatalf("unresolved identity must never match")
	}
}

func TestVocabularyIsRelevant(t *testing.T) {
	v := NewVocabulary([]string{"task", "status", "coretax"})

	cases := []struct {
		body string
		want bool
	}{
		{"berapa TASK minggu ini?", true},
		{"statusnya gimana", true},
		{"coretax - bphtb", true},
		{"halo semuanya", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := v.IsRelevant(tc.body); got != tc.want {
			t.Fatalf("%q: got %v, want %v", tc.body, got, tc.want)
		}
	}
}
