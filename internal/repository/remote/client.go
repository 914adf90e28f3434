// Package remote talks to a JSON REST expense collection:
//
//	GET    {base}/{collection}
//	POST   {base}/{collection}
//	PUT    {base}/{collection}/{id}
//	DELETE {base}/{collection}/{id}
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"expensecart/internal/catalog"
	"expensecart/internal/core"
)

var _ catalog.Repository = (*Client)(nil)

const DefaultCollection = "expenses"

var ErrBaseURL = errors.New("invalid expenses API base URL")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Unwrap maps 404 to catalog.ErrNotFound.
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return catalog.ErrNotFound
	}
	return nil
}

type Client struct {
	HTTPClient *http.Client
	BasePath   *url.URL
	Collection string
}

// NewClient parses basePath. A nil httpClient gets one with the given timeout.
func NewClient(httpClient *http.Client, basePath, collection string, timeout time.Duration) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	u, err := url.Parse(strings.TrimRight(basePath, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrBaseURL, basePath)
	}
	if collection == "" {
		collection = DefaultCollection
	}
	return &Client{HTTPClient: httpClient, BasePath: u, Collection: strings.Trim(collection, "/")}, nil
}

func (c *Client) endpoint(id string) string {
	p := c.BasePath.String() + "/" + c.Collection
	if id != "" {
		p += "/" + url.PathEscape(id)
	}
	return p
}

func (c *Client) List(ctx context.Context) ([]core.Expense, error) {
	var out []core.Expense
	if err := c.do(ctx, http.MethodGet, c.endpoint(""), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create posts e without its id; the collection assigns one.
func (c *Client) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	var out core.Expense
	if err := c.do(ctx, http.MethodPost, c.endpoint(""), toPayload(e), &out); err != nil {
		return core.Expense{}, err
	}
	return merge(e, out), nil
}

func (c *Client) Update(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == "" {
		return core.Expense{}, core.ErrEmptyID
	}
	var out core.Expense
	if err := c.do(ctx, http.MethodPut, c.endpoint(e.ID), toPayload(e), &out); err != nil {
		return core.Expense{}, err
	}
	return merge(e, out), nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	if id == "" {
		return core.ErrEmptyID
	}
	return c.do(ctx, http.MethodDelete, c.endpoint(id), nil, nil)
}

// Ping issues a List and discards the result.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.List(ctx)
	return err
}

type payload struct {
	Description string        `json:"description"`
	Category    core.Category `json:"category"`
	Amount      core.Money    `json:"amount"`
	CreatedAt   *time.Time    `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time    `json:"updatedAt,omitempty"`
}

func toPayload(e core.Expense) payload {
	p := payload{Description: e.Description, Category: e.Category, Amount: e.Amount}
	if !e.CreatedAt.IsZero() {
		p.CreatedAt = &e.CreatedAt
	}
	if !e.UpdatedAt.IsZero() {
		p.UpdatedAt = &e.UpdatedAt
	}
	return p
}

// merge fills fields the server left out of its echo with what was sent.
func merge(sent, got core.Expense) core.Expense {
	if got.ID == "" {
		got.ID = sent.ID
	}
	if got.Description == "" {
		got.Description = sent.Description
	}
	if got.Category == "" {
		got.Category = sent.Category
	}
	if got.Amount.Cents == 0 {
		got.Amount = sent.Amount
	}
	if got.CreatedAt.IsZero() {
		got.CreatedAt = sent.CreatedAt
	}
	if got.UpdatedAt.IsZero() {
		got.UpdatedAt = sent.UpdatedAt
	}
	return got
}

func (c *Client) do(ctx context.Context, method, target string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("send %s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: method, URL: target, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal response body: %w", err)
	}
	return nil
}
