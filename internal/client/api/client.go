package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/ragdesk/internal/client/transport"
	"github.com/dmitrijs2005/ragdesk/internal/common"
	"github.com/dmitrijs2005/ragdesk/internal/logging"
)

// Sender executes one request; implemented by *transport.Transport.
type Sender interface {
	Send(ctx context.Context, req *transport.Request) (*transport.Response, error)
}

// TokenSource reports the current access token.
type TokenSource interface {
	AccessToken() string
}

// Renewer is the part of the refresh coordinator the facade uses.
type Renewer interface {
	Renew(ctx context.Context, staleToken string) (string, error)
	Terminate(ctx context.Context, reason error)
}

type Client struct {
	sender  Sender
	tokens  TokenSource
	renewer Renewer
	log     logging.Logger
}

// New builds a Client. A nil renewer gives a client for anonymous calls
// only: 401 replies are returned as they are.
func New(sender Sender, tokens TokenSource, renewer Renewer, log logging.Logger) *Client {
	if log == nil {
		log = logging.Nop()
	}
	return &Client{sender: sender, tokens: tokens, renewer: renewer, log: log}
}

// RequestOption adjusts a single request.
type RequestOption func(*transport.Request)

// Anonymous sends the request without credentials and without refresh
// handling. Used for the /auth endpoints, where 401 means bad input rather
// than an expired token.
func Anonymous() RequestOption {
	return func(r *transport.Request) { r.Anonymous = true }
}

// WithHeader adds a request header.
func WithHeader(key, value string) RequestOption {
	return func(r *transport.Request) {
		if r.Header == nil {
			r.Header = http.Header{}
		}
		r.Header.Add(key, value)
	}
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any, opts ...RequestOption) error {
	req := &transport.Request{Method: http.MethodGet, Path: path, Query: query}
	return c.roundTrip(ctx, req, out, opts)
}

func (c *Client) Post(ctx context.Context, path string, in, out any, opts ...RequestOption) error {
	req, err := jsonRequest(http.MethodPost, path, in)
	if err != nil {
		return err
	}
	return c.roundTrip(ctx, req, out, opts)
}

func (c *Client) Put(ctx context.Context, path string, in, out any, opts ...RequestOption) error {
	req, err := jsonRequest(http.MethodPut, path, in)
	if err != nil {
		return err
	}
	return c.roundTrip(ctx, req, out, opts)
}

func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	req := &transport.Request{Method: http.MethodDelete, Path: path}
	return c.roundTrip(ctx, req, out, opts)
}

// Stream opens a streaming response. The caller owns the returned body and
// must close it; closing it also releases the connection.
func (c *Client) Stream(ctx context.Context, method, path string, in any, opts ...RequestOption) (io.ReadCloser, error) {
	req, err := jsonRequest(method, path, in)
	if err != nil {
		return nil, err
	}
	req.Stream = true
	for _, opt := range opts {
		opt(req)
	}
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Stream, nil
}

func (c *Client) roundTrip(ctx context.Context, req *transport.Request, out any, opts []RequestOption) error {
	for _, opt := range opts {
		opt(req)
	}
	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	return decode(resp, out)
}

// send performs req, renewing the token and retrying once on 401.
func (c *Client) send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	if req.Anonymous || c.renewer == nil {
		return c.sender.Send(ctx, req)
	}

	req.Token = c.tokens.AccessToken()
	resp, err := c.sender.Send(ctx, req)
	if err == nil || !errors.Is(err, common.ErrAuthExpired) {
		return resp, err
	}

	token, err := c.renewer.Renew(ctx, req.Token)
	if err != nil {
		return nil, err
	}

	retry := *req
	retry.Token = token
	resp, err = c.sender.Send(ctx, &retry)
	if err != nil && errors.Is(err, common.ErrAuthExpired) {
		// A token that was just issued is rejected: the session itself is
		// gone. Refreshing again could loop forever.
		err = fmt.Errorf("%w: %w", common.ErrUnauthenticated, err)
		c.log.Warn(ctx, "renewed token rejected", "method", req.Method, "path", req.Path)
		c.renewer.Terminate(ctx, err)
	}
	return resp, err
}

func jsonRequest(method, path string, in any) (*transport.Request, error) {
	req := &transport.Request{Method: method, Path: path}
	if in == nil {
		return req, nil
	}
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
	}
	req.Body = body
	req.ContentType = "application/json"
	return req, nil
}

func decode(resp *transport.Response, out any) error {
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
