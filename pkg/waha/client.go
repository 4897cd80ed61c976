// Package waha is the HTTP client for the WAHA WhatsApp gateway. All bot
// traffic to WhatsApp (sends, typing indicators, identity and group lookups)
// goes through here.
package waha

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/zakiachsan27/Pm-qa-bot/pkg/config"
	"github.com/zakiachsan27/Pm-qa-bot/pkg/logger"
)

// Account is the gateway's own WhatsApp account, as returned by the
// sessions/me endpoint.
type Account struct {
	ID       string `json:"id"`
	PushName string `json:"pushName"`
}

// Number strips the @c.us suffix from the account ID.
func (a Account) Number() string {
	return strings.TrimSuffix(a.ID, "@c.us")
}

type Profile struct {
	WID JID `json:"wid"`
}

type Session struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type Group struct {
	ID   JID    `json:"id"`
	Name string `json:"name"`
}

type Client struct {
	baseURL      string
	apiKey       string
	session      string
	typingJitter time.Duration
	limiter      *rate.Limiter
	httpClient   *http.Client
}

func NewClient(cfg config.WahaConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	interval := time.Duration(cfg.SendIntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Client{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		session:      cfg.Session,
		typingJitter: 2 * time.Second,
		limiter:      rate.NewLimiter(rate.Every(interval), 1),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Me(ctx context.Context) (Account, error) {
	var account Account
	path := fmt.Sprintf("/api/sessions/%s/me", url.PathEscape(c.session))
	if err := c.get(ctx, path, &account); err != nil {
		return Account{}, fmt.Errorf("failed to fetch own account: %w", err)
	}
	return account, nil
}

func (c *Client) Profile(ctx context.Context) (Profile, error) {
	var profile Profile
	path := fmt.Sprintf("/api/%s/profile", url.PathEscape(c.session))
	if err := c.get(ctx, path, &profile); err != nil {
		return Profile{}, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return profile, nil
}

func (c *Client) SessionStatus(ctx context.Context) (Session, error) {
	var session Session
	path := fmt.Sprintf("/api/sessions/%s", url.PathEscape(c.session))
	if err := c.get(ctx, path, &session); err != nil {
		return Session{}, fmt.Errorf("failed to fetch session status: %w", err)
	}
	return session, nil
}

func (c *Client) Groups(ctx context.Context) ([]Group, error) {
	var groups []Group
	path := fmt.Sprintf("/api/%s/groups", url.PathEscape(c.session))
	if err := c.get(ctx, path, &groups); err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

func (c *Client) FindGroupByName(ctx context.Context, name string) (*Group, error) {
	groups, err := c.Groups(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(name)
	for i := range groups {
		if strings.Contains(strings.ToLower(groups[i].Name), needle) {
			return &groups[i], nil
		}
	}
	return nil, fmt.Errorf("group %q not found", name)
}

// SendText is rate limited so report fan-out and replies cannot burst the
// gateway.
func (c *Client) SendText(ctx context.Context, chatID, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	body := map[string]interface{}{
		"session": c.session,
		"chatId":  chatID,
		"text":    text,
	}
	if err := c.post(ctx, "/api/sendText", body, nil); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SetTyping toggles the typing indicator. Gateway support for this is
// inconsistent, so failures are logged and swallowed.
func (c *Client) SetTyping(ctx context.Context, chatID string, typing bool) {
	endpoint := "/api/startTyping"
	if !typing {
		endpoint = "/api/stopTyping"
	}
	body := map[string]interface{}{
		"session": c.session,
		"chatId":  chatID,
	}
	if err := c.post(ctx, endpoint, body, nil); err != nil {
		logger.DebugCF("waha", "Typing indicator failed", map[string]interface{}{
			logger.FieldChatID: chatID,
			logger.FieldError:  err.Error(),
		})
	}
}

// SendWithTyping shows the typing indicator for roughly typingFor (plus up
// to two seconds of jitter) before sending.
func (c *Client) SendWithTyping(ctx context.Context, chatID, text string, typingFor time.Duration) error {
	c.SetTyping(ctx, chatID, true)

	wait := typingFor + time.Duration(rand.Int63n(int64(c.typingJitter)+1))
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		c.SetTyping(ctx, chatID, false)
		return ctx.Err()
	case <-timer.C:
	}

	c.SetTyping(ctx, chatID, false)
	return c.SendText(ctx, chatID, text)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway error (status %d): %s", resp.StatusCode, truncate(string(data), 200))
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
