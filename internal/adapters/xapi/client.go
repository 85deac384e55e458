// Package xapi talks to the external identity/activity gateway.
//
// The gateway's response shapes drift without notice, so neither call assumes
// a schema: responses are decoded into an order-preserving JSON tree and
// searched for the handful of field names that matter (see pkg/deepjson).
package xapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/okian/raidline/internal/domain/model"
	"github.com/okian/raidline/pkg/deepjson"
	"github.com/okian/raidline/pkg/logger"
	"github.com/okian/raidline/pkg/metrics"
)

// Reply page sizing constants. The hint is the number of targets in the
// session; larger sessions look further back, bounded by the gateway maximum.
const (
	pageSlack   = 20
	pageMinimum = 20
	pageMaximum = 100
)

// Key names searched in gateway responses.
const (
	restIDKey  = "rest_id"
	plainIDKey = "id"
)

var replyKeys = []string{"in_reply_to_status_id_str", "in_reply_to_status_id"}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the gateway base URL, e.g. for tests.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = base
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Client implements identity resolution and reply fetching against the
// rapidapi-style gateway.
type Client struct {
	httpClient *http.Client
	host       string
	apiKey     string
	baseURL    string
	logger     logger.Logger
}

// New creates a Client for the given gateway host and API key.
func New(host, apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		host:       host,
		apiKey:     apiKey,
		baseURL:    "https://" + host,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResolveHandle turns a handle into the account's stable numeric id.
//
// The decoded response is searched depth first for a "rest_id" field; if none
// exists, the first "id" field whose value is entirely digits is accepted.
// Anything else fails with ErrLookupFailed rather than guessing.
func (c *Client) ResolveHandle(ctx context.Context, handle string) (model.NumericID, error) {
	doc, err := c.get(ctx, "/user", url.Values{"username": {handle}})
	if err != nil {
		metrics.RecordLookupFailure()
		return "", fmt.Errorf("%w: %s: %w", ErrLookupFailed, handle, err)
	}

	if id, ok := doc.First(restIDKey); ok {
		return model.NumericID(id), nil
	}
	for _, cand := range doc.Collect(plainIDKey) {
		if allDigits(cand) {
			return model.NumericID(cand), nil
		}
	}
	metrics.RecordLookupFailure()
	return "", fmt.Errorf("%w: no id key in response for %s", ErrLookupFailed, handle)
}

// ReplyTargets returns the set of target ids the account recently replied to.
// targetHint sizes the requested page: clamp(hint+20, 20, 100).
func (c *Client) ReplyTargets(ctx context.Context, id model.NumericID, targetHint int) (map[model.TargetID]struct{}, error) {
	query := url.Values{
		"user":  {string(id)},
		"count": {strconv.Itoa(replyPageSize(targetHint))},
	}
	doc, err := c.get(ctx, "/user-replies-v2", query)
	if err != nil {
		metrics.RecordFetchFailure()
		return nil, fmt.Errorf("%w: user %s: %w", ErrFetchFailed, id, err)
	}

	out := make(map[model.TargetID]struct{})
	for _, v := range doc.Collect(replyKeys...) {
		out[model.TargetID(v)] = struct{}{}
	}
	return out, nil
}

// get performs one gateway call and decodes the body into a JSON tree.
func (c *Client) get(ctx context.Context, path string, query url.Values) (deepjson.Value, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return deepjson.Value{}, err
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.host)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return deepjson.Value{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return deepjson.Value{}, fmt.Errorf("gateway returned %s", resp.Status)
	}

	doc, err := deepjson.Decode(resp.Body)
	if err != nil {
		return deepjson.Value{}, err
	}
	if c.logger != nil {
		c.logger.Debug(ctx, "gateway call ok", logger.String("path", path))
	}
	return doc, nil
}

func replyPageSize(targetHint int) int {
	n := targetHint + pageSlack
	if n < pageMinimum {
		n = pageMinimum
	}
	if n > pageMaximum {
		n = pageMaximum
	}
	return n
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
