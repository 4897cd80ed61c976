package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/zakiachsan27/Pm-qa-bot/pkg/waha"
)

type fakeGateway struct {
	mu sync.Mutex

	account    waha.Account
	meErr      error
	profile    waha.Profile
	profileErr error
	sendErr    error

	meCalls int
	sent    []sentText
	typing  []bool
}

type sentText struct {
	chatID string
	text   string
}

func (g *fakeGateway) Me(ctx context.Context) (waha.Account, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.meCalls++
	return g.account, g.meErr
}

func (g *fakeGateway) Profile(ctx context.Context) (waha.Profile, error) {
	return g.profile, g.profileErr
}

func (g *fakeGateway) SendText(ctx context.Context, chatID, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, sentText{chatID: chatID, text: text})
	return g.sendErr
}

func (g *fakeGateway) SetTyping(ctx context.Context, chatID string, typing bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.typing = append(g.typing, typing)
}

func TestResolverMemoizesAfterSuccess(t *testing.T) {
	gw := &fakeGateway{
		account: waha.Account{ID: "6281234@c.us"},
		profile: waha.Profile{WID: waha.JID{User: "111222333", Serialized: "111222333@lid"}},
	}
	r := NewResolver(gw, "999")

	id := r.Resolve(context.Background())
	if id.Number != "6281234" || id.LID != "111222333" {
		t.Fatalf("unexpected identity: %+v", id)
	}

	r.Resolve(context.Background())
	r.Resolve(context.Background())
	if gw.meCalls != 1 {
		t.Fatalf("expected a single gateway lookup, got %d", gw.meCalls)
	}
}

func TestResolverFallsBackToStaticLID(t *testing.T) {
	gw := &fakeGateway{
		account:    waha.Account{ID: "6281234@c.us"},
		profileErr: errors.New("profile endpoint missing"),
	}
	r := NewResolver(gw, "116144639856855")

	id := r.Resolve(context.Background())
	if id.Number != "6281234" || id.LID != "116144639856855" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestResolverRetriesAfterGatewayFailure(t *testing.T) {
	gw := &fakeGateway{meErr: errors.New("gateway down")}
	r := NewResolver(gw, "999")

	id := r.Resolve(context.Background())
	if id.Number != "" || id.LID != "999" {
		t.Fatalf("expected fallback-only identity, got %+v", id)
	}

	// The failure must not be memoized.
	gw.meErr = nil
	gw.account = waha.Account{ID: "628@c.us"}
	id = r.Resolve(context.Background())
	if id.Number != "628" {
		t.Fatalf("expected retry to succeed, got %+v", id)
	}
}
