// Package sheets reads the task tracker spreadsheet through the Google
// Visualization ("gviz") JSON endpoint, which serves published sheets
// without credentials.
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/zakiachsan27/Pm-qa-bot/pkg/config"
)

type Cell struct {
	V interface{} `json:"v"`
	F string      `json:"f"`
}

type Row struct {
	C []*Cell `json:"c"`
}

type Table struct {
	Rows []Row `json:"rows"`
}

type gvizResponse struct {
	Table Table `json:"table"`
}

// Str returns the cell's display value, preferring the raw value over the
// formatted one.
func (r Row) Str(idx int) string {
	c := r.cell(idx)
	if c == nil {
		return ""
	}
	if s, ok := c.V.(string); ok {
		return s
	}
	if c.V != nil {
		if f, ok := c.V.(float64); ok {
			if f == float64(int64(f)) {
				return strconv.FormatInt(int64(f), 10)
			}
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return c.F
}

func (r Row) Int(idx int) int {
	c := r.cell(idx)
	if c == nil {
		return 0
	}
	switch v := c.V.(type) {
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	}
	return 0
}

func (r Row) Bool(idx int) bool {
	c := r.cell(idx)
	if c == nil {
		return false
	}
	b, _ := c.V.(bool)
	return b
}

func (r Row) cell(idx int) *Cell {
	if idx < 0 || idx >= len(r.C) {
		return nil
	}
	return r.C[idx]
}

var (
	gvizWrapper = regexp.MustCompile(`(?s)google\.visualization\.Query\.setResponse\((.*)\);`)
	gvizDate    = regexp.MustCompile(`Date\((\d+),(\d+),(\d+)(?:,(\d+),(\d+),(\d+))?`)
)

// unwrapGviz strips the JSONP-style wrapper the gviz endpoint puts around
// its JSON body.
func unwrapGviz(body []byte) ([]byte, error) {
	m := gvizWrapper.FindSubmatch(body)
	if m == nil {
		return nil, fmt.Errorf("failed to parse gviz response: wrapper not found")
	}
	return m[1], nil
}

// ParseDate handles the gviz "Date(year,month,day[,h,m,s])" encoding, where
// month is zero-based, falling back to common date string layouts.
func ParseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}

	if m := gvizDate.FindStringSubmatch(raw); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		var hour, min, sec int
		if m[4] != "" {
			hour, _ = strconv.Atoi(m[4])
			min, _ = strconv.Atoi(m[5])
			sec, _ = strconv.Atoi(m[6])
		}
		return time.Date(year, time.Month(month+1), day, hour, min, sec, 0, time.Local), true
	}

	for _, layout := range []string{"2006-01-02", "02/01/2006", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type Client struct {
	sheetID    string
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.SheetsConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		sheetID: cfg.SheetID,
		baseURL: "https://docs.google.com",
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchSheet pulls one sheet (optionally restricted to an A1-style range)
// and returns its decoded table.
func (c *Client) FetchSheet(ctx context.Context, sheetName, cellRange string) (*Table, error) {
	u := fmt.Sprintf("%s/spreadsheets/d/%s/gviz/tq?tqx=out:json&sheet=%s",
		c.baseURL, url.PathEscape(c.sheetID), url.QueryEscape(sheetName))
	if cellRange != "" {
		u += "&range=" + url.QueryEscape(cellRange)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sheet %s: %w", sheetName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheet fetch error (status %d)", resp.StatusCode)
	}

	raw, err := unwrapGviz(body)
	if err != nil {
		return nil, err
	}

	var decoded gvizResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode sheet table: %w", err)
	}
	return &decoded.Table, nil
}
