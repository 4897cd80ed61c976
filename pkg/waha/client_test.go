package waha

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zakiachsan27/Pm-qa-bot/pkg/config"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.WahaConfig{
		BaseURL:        srv.URL,
		APIKey:         "test-key",
		Session:        "default",
		TimeoutSec:     5,
		SendIntervalMS: 1,
	})
}

func TestMeParsesAccountAndSendsAPIKey(t *testing.T) {
	var gotKey, gotPath string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(Account{ID: "628123456789@c.us", PushName: "PM Bot"})
	}))

	account, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if gotKey != "test-key" {
		t.Fatalf("api key header missing, got %q", gotKey)
	}
	if gotPath != "/api/sessions/default/me" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if account.Number() != "628123456789" {
		t.Fatalf("unexpected number: %s", account.Number())
	}
}

func TestSendTextPostsPayload(t *testing.T) {
	var got map[string]interface{}
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sendText" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{}`))
	}))

	if err := c.SendText(context.Background(), "123@g.us", "hello"); err != nil {
		t.Fatalf("SendText failed: %v", err)
	}
	if got["chatId"] != "123@g.us" || got["text"] != "hello" || got["session"] != "default" {
		t.Fatalf("unexpected payload: %v", got)
	}
}

func TestSendTextReportsGatewayError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session stopped", http.StatusUnprocessableEntity)
	}))

	if err := c.SendText(context.Background(), "123@g.us", "hello"); err == nil {
		t.Fatalf("expected error on non-2xx response")
	}
}

func TestSetTypingSwallowsFailures(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not supported", http.StatusNotImplemented)
	}))

	// Must not panic or propagate anything.
	c.SetTyping(context.Background(), "123@g.us", true)
	c.SetTyping(context.Background(), "123@g.us", false)
}

func TestFindGroupByNameMatchesCaseInsensitive(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]Group{
			{ID: JID{Serialized: "111@g.us"}, Name: "Random Chat"},
			{ID: JID{Serialized: "222@g.us"}, Name: "Tim PM Bapenda"},
		})
	}))

	group, err := c.FindGroupByName(context.Background(), "pm bapenda")
	if err != nil {
		t.Fatalf("FindGroupByName failed: %v", err)
	}
	if group.ID.String() != "222@g.us" {
		t.Fatalf("matched wrong group: %s", group.ID)
	}

	if _, err := c.FindGroupByName(context.Background(), "nonexistent"); err == nil {
		t.Fatalf("expected not-found error")
	}
}

func TestJIDDecodesStringAndObjectForms(t *testing.T) {
	cases := []struct {
		name string
		in   string
		user string
	}{
		{"object with user", `{"user":"628111","_serialized":"628111@c.us"}`, "628111"},
		{"object without user", `{"_serialized":"628222@lid"}`, "628222"},
		{"bare string", `"628333@c.us"`, "628333"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var j JID
			if err := json.Unmarshal([]byte(tc.in), &j); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if j.UserID() != tc.user {
				t.Fatalf("UserID mismatch: got %q want %q", j.UserID(), tc.user)
			}
		})
	}
}
