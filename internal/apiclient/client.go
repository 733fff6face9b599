// Package apiclient is the single point of contact with the ERP REST backend.
// It attaches the bearer token to every request and recovers from access
// token expiry with one refresh exchange and one retry per request.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/erp-portal/portal/internal/tokens"
)

const (
	refreshPath  = "auth/refresh"
	maxBodyBytes = 10 << 20
)

// TokenSource supplies and receives the token pair for one caller.
type TokenSource interface {
	AccessToken() string
	RefreshToken() string
	Update(tokens.Pair)
	Clear()
}

// Observer receives upstream call outcomes. Refresh outcomes are
// "success", "failure" and "missing".
type Observer interface {
	ObserveUpstream(method string, status int)
	ObserveRefresh(outcome string)
}

type noopObserver struct{}

func (noopObserver) ObserveUpstream(string, int) {}
func (noopObserver) ObserveRefresh(string)       {}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
	Observer   Observer
}

// Client is the process-wide backend client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	observer   Observer
	validate   *validator.Validate
}

// New constructs a Client.
func New(opts Options) *Client {
	base := opts.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	var observer Observer = noopObserver{}
	if opts.Observer != nil {
		observer = opts.Observer
	}
	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		logger:     logger,
		observer:   observer,
		validate:   validator.New(),
	}
}

// BaseURL returns the normalised backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// With binds the client to a token source for one request scope.
func (c *Client) With(src TokenSource) *Caller {
	return &Caller{client: c, src: src}
}

// Refresh exchanges a refresh token for a new pair. It bypasses the retry
// logic and sends no bearer header.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (tokens.Pair, error) {
	payload, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return tokens.Pair{}, err
	}
	status, body, err := c.roundTrip(ctx, http.MethodPost, c.resolve(refreshPath, nil), payload, "")
	if err != nil {
		return tokens.Pair{}, err
	}
	if status < 200 || status >= 300 {
		return tokens.Pair{}, &Error{Status: status, Detail: parseDetail(body), Method: http.MethodPost, Path: refreshPath}
	}
	var pair tokens.Pair
	if err := c.decode(body, &pair); err != nil {
		return tokens.Pair{}, err
	}
	return pair, nil
}

// Caller issues requests on behalf of one token source.
type Caller struct {
	client *Client
	src    TokenSource
}

// Request describes one backend call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Get issues a GET request.
func (c *Caller) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post issues a POST request with a JSON body.
func (c *Caller) Post(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Query: query, Body: body}, out)
}

// Patch issues a PATCH request with a JSON body.
func (c *Caller) Patch(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Query: query, Body: body}, out)
}

// Delete issues a DELETE request.
func (c *Caller) Delete(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path, Query: query}, out)
}

type attempt struct {
	Request
	payload []byte
	retried bool
}

// Do sends req and decodes a successful response into out (when non-nil).
//
// A 401 triggers at most one refresh exchange and one retry. A failed
// refresh clears the token source and yields ErrSessionExpired.
func (c *Caller) Do(ctx context.Context, req Request, out any) error {
	a := &attempt{Request: req}
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("apiclient: encode %s %s: %w", req.Method, req.Path, err)
		}
		a.payload = payload
	}

	status, body, err := c.send(ctx, a, c.src.AccessToken())
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && !a.retried {
		a.retried = true
		refreshToken := c.src.RefreshToken()
		if refreshToken == "" {
			c.client.observer.ObserveRefresh("missing")
			return c.failure(a, status, body)
		}
		pair, rerr := c.client.Refresh(ctx, refreshToken)
		if rerr != nil {
			c.client.observer.ObserveRefresh("failure")
			c.client.logger.Warn("token refresh failed", slog.String("path", req.Path), slog.Any("error", rerr))
			c.src.Clear()
			return fmt.Errorf("%w: %w", ErrSessionExpired, rerr)
		}
		c.client.observer.ObserveRefresh("success")
		c.src.Update(pair)
		status, body, err = c.send(ctx, a, pair.AccessToken)
		if err != nil {
			return err
		}
	}

	if status < 200 || status >= 300 {
		return c.failure(a, status, body)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return c.client.decode(body, out)
}

func (c *Caller) send(ctx context.Context, a *attempt, bearer string) (int, []byte, error) {
	status, body, err := c.client.roundTrip(ctx, a.Method, c.client.resolve(a.Path, a.Query), a.payload, bearer)
	if err != nil {
		return 0, nil, fmt.Errorf("apiclient: %s %s: %w", a.Method, a.Path, err)
	}
	return status, body, nil
}

func (c *Caller) failure(a *attempt, status int, body []byte) error {
	return &Error{Status: status, Detail: parseDetail(body), Method: a.Method, Path: a.Path}
}

func (c *Client) resolve(path string, query url.Values) string {
	u := c.baseURL + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) roundTrip(ctx context.Context, method, target string, payload []byte, bearer string) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observer.ObserveUpstream(method, 0)
		return 0, nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.observer.ObserveUpstream(method, resp.StatusCode)
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

// decode unmarshals body into out and validates structs (or slices of
// structs) against their `validate` tags.
func (c *Client) decode(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if err := c.check(reflect.ValueOf(out)); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

func (c *Client) check(v reflect.Value) error {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Struct:
		return c.validate.Struct(v.Interface())
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := c.check(v.Index(i)); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
	}
	return nil
}
