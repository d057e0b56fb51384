// Package airtable is a small client for the Airtable REST record API: create,
// list, get and patch records in one base.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the public Airtable API root.
const DefaultBaseURL = "https://api.airtable.com/v0"

// MaxPageSize is the largest page Airtable returns.
const MaxPageSize = 100

// maxPages bounds pagination so a misbehaving upstream cannot loop forever.
const maxPages = 50

var (
	ErrNotConfigured = errors.New("airtable token or base id not configured")
	ErrNotFound      = errors.New("airtable record not found")
)

// Fields is the field map of a record.
type Fields map[string]any

// Record is one Airtable row.
type Record struct {
	ID          string `json:"id"`
	CreatedTime string `json:"createdTime,omitempty"`
	Fields      Fields `json:"fields"`
}

// String returns the named field when it is a string.
func (r Record) String(field string) (string, bool) {
	s, ok := r.Fields[field].(string)
	return s, ok
}

// APIError is a non-2xx answer from Airtable.
type APIError struct {
	Status int
	Body   []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("airtable returned status %d", e.Status)
}

// Decoded returns the error body parsed as JSON, or as a string when it is
// not JSON.
func (e *APIError) Decoded() any {
	var v any
	if err := json.Unmarshal(e.Body, &v); err != nil {
		return string(e.Body)
	}
	return v
}

// Response is an undecoded upstream answer.
type Response struct {
	Status int
	Body   []byte
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Token   string
	BaseID  string
	Timeout time.Duration
}

// Client talks to one Airtable base.
type Client struct {
	baseURL string
	token   string
	baseID  string
	http    *http.Client
}

// NewClient creates a Client. Token and base id may be empty; calls then
// fail with ErrNotConfigured.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		token:   strings.TrimSpace(cfg.Token),
		baseID:  strings.TrimSpace(cfg.BaseID),
		http:    &http.Client{Timeout: timeout},
	}
}

// Configured reports whether token and base id are set.
func (c *Client) Configured() bool {
	return c.token != "" && c.baseID != ""
}

// CreateRecords appends records to table and returns Airtable's answer as is,
// whatever its status. Only transport failures are errors.
func (c *Client) CreateRecords(ctx context.Context, table string, records []Fields) (*Response, error) {
	type newRecord struct {
		Fields Fields `json:"fields"`
	}
	body := struct {
		Records []newRecord `json:"records"`
	}{Records: make([]newRecord, len(records))}
	for i, f := range records {
		body.Records[i] = newRecord{Fields: f}
	}
	return c.do(ctx, http.MethodPost, c.tableURL(table), body)
}

// ListOptions narrows a list call.
type ListOptions struct {
	View     string
	Fields   []string
	PageSize int
}

// ListRecords returns every record of table, following pagination offsets.
func (c *Client) ListRecords(ctx context.Context, table string, opts ListOptions) ([]Record, error) {
	params := url.Values{}
	if opts.View != "" {
		params.Set("view", opts.View)
	}
	for _, f := range opts.Fields {
		params.Add("fields[]", f)
	}
	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	params.Set("pageSize", strconv.Itoa(pageSize))

	var records []Record
	for page := 0; page < maxPages; page++ {
		resp, err := c.do(ctx, http.MethodGet, c.tableURL(table)+"?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}
		if !ok(resp.Status) {
			return nil, &APIError{Status: resp.Status, Body: resp.Body}
		}

		var list struct {
			Records []Record `json:"records"`
			Offset  string   `json:"offset"`
		}
		if err := json.Unmarshal(resp.Body, &list); err != nil {
			return nil, fmt.Errorf("decode record list: %w", err)
		}
		records = append(records, list.Records...)
		if list.Offset == "" {
			return records, nil
		}
		params.Set("offset", list.Offset)
	}
	slog.Warn("airtable pagination limit reached", "table", table, "pages", maxPages)
	return records, nil
}

// GetRecord fetches one record. A 404 answer is ErrNotFound; other non-2xx
// answers are *APIError.
func (c *Client) GetRecord(ctx context.Context, table, id string) (*Record, error) {
	resp, err := c.do(ctx, http.MethodGet, c.recordURL(table, id), nil)
	if err != nil {
		return nil, err
	}
	return decodeRecord(resp)
}

// UpdateRecord patches the given fields of one record and returns the
// updated record.
func (c *Client) UpdateRecord(ctx context.Context, table, id string, fields Fields) (*Record, error) {
	body := struct {
		Fields Fields `json:"fields"`
	}{Fields: fields}
	resp, err := c.do(ctx, http.MethodPatch, c.recordURL(table, id), body)
	if err != nil {
		return nil, err
	}
	return decodeRecord(resp)
}

func decodeRecord(resp *Response) (*Record, error) {
	if resp.Status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, &APIError{Status: resp.Status, Body: resp.Body})
	}
	if !ok(resp.Status) {
		return nil, &APIError{Status: resp.Status, Body: resp.Body}
	}
	var rec Record
	if err := json.Unmarshal(resp.Body, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}

func (c *Client) tableURL(table string) string {
	return c.baseURL + "/" + url.PathEscape(c.baseID) + "/" + url.PathEscape(table)
}

func (c *Client) recordURL(table, id string) string {
	return c.tableURL(table) + "/" + url.PathEscape(id)
}

// do sends an authenticated request and reads the whole body.
func (c *Client) do(ctx context.Context, method, target string, body any) (*Response, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("airtable %s: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read airtable response: %w", err)
	}

	slog.Debug("airtable request",
		"component", "airtable",
		"method", method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &Response{Status: resp.StatusCode, Body: data}, nil
}

func ok(status int) bool {
	return status >= 200 && status < 300
}
