package pipeline

import (
	"sync"
	"time"

	"github.com/zakiachsan27/Pm-qa-bot/pkg/lifecycle"
	"github.com/zakiachsan27/Pm-qa-bot/pkg/logger"
)

const dedupKeyBodyLen = 50

// Deduper drops redelivered webhook events. The gateway retries deliveries,
// so the same message can arrive more than once within a short window.
type Deduper struct {
	ttl     time.Duration
	mu      sync.Mutex
	expiry  map[string]time.Time
	janitor *lifecycle.Runner
	now     func() time.Time
}

func NewDeduper(ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Deduper{
		ttl:     ttl,
		expiry:  make(map[string]time.Time),
		janitor: lifecycle.NewRunner(),
		now:     time.Now,
	}
}

// Key identifies a message by sender, event timestamp and a body prefix.
// Message IDs are not stable across gateway restarts, this triple is.
func (d *Deduper) Key(msg Message) string {
	body := msg.Body
	if len(body) > dedupKeyBodyLen {
		body = body[:dedupKeyBodyLen]
	}
	return msg.From + ":" + msg.EventTimestamp() + ":" + body
}

// ShouldProcess reports whether the message is first seen within the TTL
// window and records it. Expired entries count as unseen.
func (d *Deduper) ShouldProcess(msg Message) bool {
	key := d.Key(msg)
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if exp, ok := d.expiry[key]; ok && now.Before(exp) {
		return false
	}
	d.expiry[key] = now.Add(d.ttl)
	return true
}

// Start launches the background sweep that evicts expired keys so the map
// does not grow with traffic.
func (d *Deduper) Start() {
	d.janitor.StartTicker(d.ttl, func() {
		if n := d.sweep(); n > 0 {
			logger.DebugCF("dedup", "Swept expired entries", map[string]interface{}{
				logger.FieldCount: n,
			})
		}
	})
}

func (d *Deduper) Stop() {
	d.janitor.Stop()
}

func (d *Deduper) sweep() int {
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()

	removed := 0
	for key, exp := range d.expiry {
		if !now.Before(exp) {
			delete(d.expiry, key)
			removed++
		}
	}
	return removed
}
