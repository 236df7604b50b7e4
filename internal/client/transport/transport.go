// Package transport executes single HTTP requests against the API and
// classifies their outcome. It never retries and never touches credentials;
// renewal lives in the refresh and api packages.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/ragdesk/internal/common"
	"github.com/dmitrijs2005/ragdesk/internal/logging"
	"github.com/google/uuid"
)

const (
	DefaultTimeout   = 30 * time.Second
	defaultUserAgent = "ragdesk/0.1"
)

// TokenSource supplies the bearer token for requests that do not carry one.
type TokenSource interface {
	AccessToken() string
}

// Request describes one API call. Path is resolved against the base URL.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        []byte
	ContentType string
	Header      http.Header

	// Token overrides the TokenSource. Anonymous sends no Authorization.
	Token     string
	Anonymous bool

	// Stream leaves the response body open for the caller. The timeout then
	// covers only the wait for response headers.
	Stream bool

	// Progress, when set, is called as the request body is consumed.
	Progress func(sent, total int64)
}

// Response is a successful (2xx) reply. Exactly one of Body and Stream is
// set, depending on Request.Stream. A Stream must be closed by the caller.
type Response struct {
	Status    int
	Header    http.Header
	Body      []byte
	Stream    io.ReadCloser
	RequestID string
}

type Transport struct {
	baseURL   *url.URL
	http      *http.Client
	tokens    TokenSource
	timeout   time.Duration
	userAgent string
	log       logging.Logger
	newID     func() string
}

type Option func(*Transport)

func WithHTTPClient(c *http.Client) Option { return func(t *Transport) { t.http = c } }

func WithTimeout(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.timeout = d
		}
	}
}

func WithLogger(l logging.Logger) Option { return func(t *Transport) { t.log = l } }

func WithUserAgent(ua string) Option { return func(t *Transport) { t.userAgent = ua } }

// New builds a Transport for baseURL ("host:port" is accepted and gets an
// http scheme). tokens may be nil when every request is anonymous or
// carries its own token.
func New(baseURL string, tokens TokenSource, opts ...Option) (*Transport, error) {
	base, err := ParseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	t := &Transport{
		baseURL:   base,
		http:      &http.Client{},
		tokens:    tokens,
		timeout:   DefaultTimeout,
		userAgent: defaultUserAgent,
		log:       logging.Nop(),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// BaseURL returns the normalised API base URL.
func (t *Transport) BaseURL() string { return t.baseURL.String() }

// Send executes req once. Non-2xx replies and transport failures are
// returned as *Error.
func (t *Transport) Send(ctx context.Context, req *Request) (*Response, error) {
	requestID := t.newID()
	log := t.log.With("request_id", requestID, "method", req.Method, "path", req.Path)

	ctx, cancel := context.WithCancel(ctx)
	timedOut := make(chan struct{})
	timer := time.AfterFunc(t.timeout, func() {
		close(timedOut)
		cancel()
	})
	// stop ends the timeout window; it reports false if the timer already fired.
	stop := func() bool { return timer.Stop() }

	httpReq, err := t.build(ctx, req, requestID)
	if err != nil {
		stop()
		cancel()
		return nil, err
	}

	started := time.Now()
	resp, err := t.http.Do(httpReq)
	if err != nil {
		stop()
		cancel()
		failure := t.networkFailure(req, err, timedOut)
		log.Debug(ctx, "api request failed", "error", failure.Message, "elapsed", time.Since(started))
		return nil, failure
	}

	if req.Stream {
		if !stop() {
			_ = resp.Body.Close()
			cancel()
			return nil, t.networkFailure(req, context.DeadlineExceeded, timedOut)
		}
		if kind := Classify(resp.StatusCode); kind != nil {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
			_ = resp.Body.Close()
			cancel()
			log.Debug(ctx, "api stream rejected", "status", resp.StatusCode)
			return nil, t.statusFailure(req, kind, resp.StatusCode, body)
		}
		log.Debug(ctx, "api stream opened", "status", resp.StatusCode, "elapsed", time.Since(started))
		return &Response{
			Status:    resp.StatusCode,
			Header:    resp.Header,
			Stream:    &cancelOnClose{ReadCloser: resp.Body, cancel: cancel},
			RequestID: requestID,
		}, nil
	}

	defer cancel()
	defer stop()
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, t.networkFailure(req, err, timedOut)
	}
	log.Debug(ctx, "api request", "status", resp.StatusCode, "elapsed", time.Since(started))

	if kind := Classify(resp.StatusCode); kind != nil {
		return nil, t.statusFailure(req, kind, resp.StatusCode, body)
	}
	return &Response{
		Status:    resp.StatusCode,
		Header:    resp.Header,
		Body:      body,
		RequestID: requestID,
	}, nil
}

func (t *Transport) build(ctx context.Context, req *Request, requestID string) (*http.Request, error) {
	rel, err := url.Parse(req.Path)
	if err != nil {
		return nil, fmt.Errorf("parse path %q: %w", req.Path, err)
	}
	target := *t.baseURL
	target.Path = t.baseURL.Path + "/" + strings.TrimPrefix(rel.Path, "/")
	target.RawPath = t.baseURL.EscapedPath() + "/" + strings.TrimPrefix(rel.EscapedPath(), "/")
	query := rel.Query()
	for k, vs := range req.Query {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	target.RawQuery = query.Encode()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
		if req.Progress != nil {
			body = &progressReader{r: body, total: int64(len(req.Body)), fn: req.Progress}
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if req.Body != nil {
		httpReq.ContentLength = int64(len(req.Body))
	}

	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if httpReq.Header.Get("Accept") == "" {
		if req.Stream {
			httpReq.Header.Set("Accept", "text/event-stream")
		} else {
			httpReq.Header.Set("Accept", "application/json")
		}
	}
	httpReq.Header.Set("User-Agent", t.userAgent)
	httpReq.Header.Set(common.RequestIDHeaderName, requestID)

	if !req.Anonymous {
		token := req.Token
		if token == "" && t.tokens != nil {
			token = t.tokens.AccessToken()
		}
		if token != "" {
			httpReq.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
		}
	}
	return httpReq, nil
}

func (t *Transport) networkFailure(req *Request, err error, timedOut <-chan struct{}) *Error {
	msg := err.Error()
	select {
	case <-timedOut:
		msg = fmt.Sprintf("no response within %s", t.timeout)
		err = errors.Join(context.DeadlineExceeded, err)
	default:
	}
	return &Error{
		Kind:    common.ErrNetworkFailure,
		Method:  req.Method,
		Path:    req.Path,
		Message: msg,
		Err:     err,
	}
}

func (t *Transport) statusFailure(req *Request, kind error, status int, body []byte) *Error {
	return &Error{
		Kind:    kind,
		Method:  req.Method,
		Path:    req.Path,
		Status:  status,
		Message: errorMessage(status, body),
	}
}

// ParseBaseURL normalises the configured API address: a missing scheme
// becomes http and trailing slashes, query and fragment are dropped. A path
// prefix such as "/api" is kept.
func ParseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = common.DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse base url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

type progressReader struct {
	r     io.Reader
	sent  int64
	total int64
	fn    func(sent, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.fn(p.sent, p.total)
	}
	return n, err
}
