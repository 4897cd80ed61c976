package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/zakiachsan27/Pm-qa-bot/pkg/logger"
)

// Identity is the bot's own pair of WhatsApp identifiers. Group payloads may
// reference the bot by either one, so mention detection needs both.
type Identity struct {
	// Number is the phone-number user part, e.g. "6281234567890".
	Number string
	// LID is the linked device ID the gateway uses in group mention lists.
	LID string
}

func (id Identity) Empty() bool {
	return id.Number == "" && id.LID == ""
}

// Resolver lazily fetches the bot's own identity from the gateway and
// memoizes it after the first successful lookup. Concurrent callers share a
// single in-flight request.
type Resolver struct {
	gateway     Gateway
	fallbackLID string

	mu       sync.RWMutex
	identity Identity
	resolved bool
	group    singleflight.Group
}

func NewResolver(gateway Gateway, fallbackLID string) *Resolver {
	return &Resolver{gateway: gateway, fallbackLID: fallbackLID}
}

// Resolve never fails: when the gateway is unreachable it returns whatever
// is statically known (possibly just the fallback LID) without memoizing, so
// the next event retries.
func (r *Resolver) Resolve(ctx context.Context) Identity {
	r.mu.RLock()
	if r.resolved {
		defer r.mu.RUnlock()
		return r.identity
	}
	r.mu.RUnlock()

	v, _, _ := r.group.Do("identity", func() (interface{}, error) {
		return r.fetch(ctx), nil
	})
	return v.(Identity)
}

func (r *Resolver) fetch(ctx context.Context) Identity {
	id := Identity{LID: r.fallbackLID}

	account, err := r.gateway.Me(ctx)
	if err != nil {
		logger.WarnCF("identity", "Could not resolve own account", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
		return id
	}
	id.Number = account.Number()

	if profile, err := r.gateway.Profile(ctx); err == nil && !profile.WID.IsZero() {
		id.LID = profile.WID.UserID()
	} else if err != nil {
		logger.DebugCF("identity", "Profile lookup failed, using fallback LID", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
	}

	r.mu.Lock()
	r.identity = id
	r.resolved = true
	r.mu.Unlock()

	logger.InfoCF("identity", "Bot identity resolved", map[string]interface{}{
		"number": id.Number,
		"lid":    id.LID,
	})
	return id
}
