// Package httpclient wraps outbound calls to the REST backend: it attaches the bearer token, logs every
// exchange, classifies failures into the apierr taxonomy, and runs the global unauthorized hook on 401.
// There is no retry; each call is a single attempt.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"quiz-platform/webclient/internal/platform/apierr"
)

const (
	bearerPrefix    = "Bearer "
	requestIDHeader = "X-Request-ID"
	maxBodyBytes    = 10 << 20
)

// TokenSource returns the current session token, or "" when there is none.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

type tokenKey struct{}

// WithToken returns a context whose calls carry token instead of the TokenSource's value.
// It is used right after login, before the session holds the new credentials.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func (c *Client) token(ctx context.Context) string {
	if t, ok := ctx.Value(tokenKey{}).(string); ok {
		return t
	}
	return c.tokens.Token()
}

// LocaleSource supplies the Accept-Language header value.
type LocaleSource interface {
	AcceptLanguage() string
}

// Response is a successful (2xx) response with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	method string
	path   string
}

// Decode unmarshals the JSON body into v. A body that does not parse is reported as a server error.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return &apierr.Error{Kind: apierr.KindServer, Status: r.StatusCode, Method: r.method, Path: r.path, Detail: "empty response body"}
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &apierr.Error{Kind: apierr.KindServer, Status: r.StatusCode, Method: r.method, Path: r.path, Detail: "invalid response body", Err: err}
	}
	return nil
}

// Client sends requests to the backend rooted at a base URL.
type Client struct {
	baseURL        *url.URL
	http           *http.Client
	tokens         TokenSource
	locale         LocaleSource
	onUnauthorized func(context.Context)
	obs            *observer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client. Its Timeout is overwritten by New's timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLocale sets the source of the Accept-Language header.
func WithLocale(l LocaleSource) Option {
	return func(c *Client) { c.locale = l }
}

// WithUnauthorizedHandler sets the hook run on every 401 response, whichever call triggered it.
func WithUnauthorizedHandler(fn func(context.Context)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New returns a Client for baseURL. timeout bounds each call; exceeding it yields a network error.
func New(baseURL string, timeout time.Duration, tokens TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("httpclient: base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("httpclient: base url %q must be absolute", baseURL)
	}
	if tokens == nil {
		tokens = TokenFunc(func() string { return "" })
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{},
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.Timeout = timeout
	if c.obs == nil {
		c.obs = newObserver(nil)
	}
	return c, nil
}

// Send performs one call. body, when non-nil, is sent as JSON. A non-2xx status or transport failure
// is returned as *apierr.Error.
func (c *Client) Send(ctx context.Context, method, path string, body any, query url.Values) (*Response, error) {
	start := time.Now()
	requestID := uuid.NewString()
	ctx, span := c.obs.start(ctx, method, path)

	req, err := c.newRequest(ctx, method, path, body, query)
	if err != nil {
		e := &apierr.Error{Kind: apierr.KindRequest, Method: method, Path: path, Err: err}
		log.Printf("httpclient: request setup error %s %s: %v", method, path, err)
		c.obs.finish(ctx, span, exchange{method: method, path: path, requestID: requestID, duration: time.Since(start), kind: e.Kind, err: err})
		return nil, e
	}
	req.Header.Set(requestIDHeader, requestID)
	authenticated := req.Header.Get("Authorization") != ""
	log.Printf("httpclient: request %s %s (id=%s auth=%t)", method, path, requestID, authenticated)

	resp, err := c.http.Do(req)
	if err != nil {
		e := &apierr.Error{Kind: apierr.KindNetwork, Method: method, Path: path, Err: err}
		if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			e.Detail = "request canceled"
		}
		log.Printf("httpclient: network error %s %s: %v", method, path, err)
		c.obs.finish(ctx, span, exchange{method: method, path: path, requestID: requestID, duration: time.Since(start), kind: e.Kind, err: err})
		return nil, e
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		e := &apierr.Error{Kind: apierr.KindNetwork, Status: resp.StatusCode, Method: method, Path: path, Err: err}
		log.Printf("httpclient: reading response %s %s: %v", method, path, err)
		c.obs.finish(ctx, span, exchange{method: method, path: path, requestID: requestID, status: resp.StatusCode, duration: time.Since(start), kind: e.Kind, err: err})
		return nil, e
	}

	ex := exchange{method: method, path: path, requestID: requestID, status: resp.StatusCode, duration: time.Since(start)}
	log.Printf("httpclient: response %d %s %s (%dms)", resp.StatusCode, method, path, ex.duration.Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := &apierr.Error{
			Kind:   apierr.FromStatus(resp.StatusCode),
			Status: resp.StatusCode,
			Method: method,
			Path:   path,
			Detail: detailFrom(data),
		}
		ex.kind = e.Kind
		c.obs.finish(ctx, span, ex)
		switch e.Kind {
		case apierr.KindUnauthorized:
			log.Printf("httpclient: unauthorized, clearing session")
			if c.onUnauthorized != nil {
				c.onUnauthorized(ctx)
			}
		case apierr.KindForbidden:
			log.Printf("httpclient: forbidden %s %s", method, path)
		case apierr.KindServer:
			log.Printf("httpclient: server error %d %s %s", resp.StatusCode, method, path)
		}
		return nil, e
	}

	c.obs.finish(ctx, span, ex)
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data, method: method, path: path}, nil
}

// Do sends the call and decodes a JSON response into out when out is non-nil.
func (c *Client) Do(ctx context.Context, method, path string, body any, query url.Values, out any) error {
	resp, err := c.Send(ctx, method, path, body, query)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, query url.Values) (*http.Request, error) {
	if method == "" {
		return nil, errors.New("method is required")
	}
	if strings.Contains(path, "://") {
		return nil, fmt.Errorf("path %q must be relative to the base url", path)
	}
	// path arrives escaped (ids go through url.PathEscape); keep that encoding in RawPath.
	raw := strings.TrimRight(c.baseURL.EscapedPath(), "/") + "/" + strings.TrimLeft(path, "/")
	unescaped, err := url.PathUnescape(raw)
	if err != nil {
		return nil, fmt.Errorf("path %q: %w", path, err)
	}
	u := *c.baseURL
	u.Path = unescaped
	u.RawPath = raw
	u.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(ctx); token != "" {
		req.Header.Set("Authorization", bearerPrefix+token)
	}
	if c.locale != nil {
		if lang := c.locale.AcceptLanguage(); lang != "" {
			req.Header.Set("Accept-Language", lang)
		}
	}
	return req, nil
}

// detailFrom extracts the backend's "detail" field: a string, or the first "msg" of a validation list.
func detailFrom(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil && len(items) > 0 {
		return items[0].Msg
	}
	return ""
}
