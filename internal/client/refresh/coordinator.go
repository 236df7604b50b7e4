// Package refresh renews expired access tokens. However many requests see an
// expired token at once, only one refresh call is made; the others wait for
// its outcome and then retry with the new token.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/ragdesk/internal/client/credentials"
	"github.com/dmitrijs2005/ragdesk/internal/common"
	"github.com/dmitrijs2005/ragdesk/internal/logging"
)

// Refresher exchanges a refresh token for a new credential pair. It must not
// go through the Coordinator itself.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (credentials.Credentials, error)
}

// CredentialStore is the part of credentials.Store the Coordinator needs.
type CredentialStore interface {
	Get() (credentials.Credentials, bool)
	Rotate(ctx context.Context, prevRefresh string, c credentials.Credentials) error
	Clear(ctx context.Context) error
}

type result struct {
	token string
	err   error
}

// pending is a caller parked behind the running refresh. The channel has
// room for exactly one result so settling never blocks, even when the
// waiter has given up.
type pending struct {
	ch chan result
}

// Coordinator owns the refresh state. refreshing and queue are only touched
// with mu held; the queue is non-empty only while refreshing is true.
type Coordinator struct {
	store     CredentialStore
	refresher Refresher
	signal    *Signal
	log       logging.Logger

	mu         sync.Mutex
	refreshing bool
	queue      []*pending
}

func NewCoordinator(store CredentialStore, refresher Refresher, signal *Signal, log logging.Logger) *Coordinator {
	if signal == nil {
		signal = &Signal{}
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Coordinator{store: store, refresher: refresher, signal: signal, log: log}
}

// Signal returns the session-termination signal fired by the Coordinator.
func (c *Coordinator) Signal() *Signal { return c.signal }

// Renew returns an access token to retry with after a request sent with
// staleToken was rejected as expired.
//
// If a refresh is already running the caller waits for it. If the stored
// token already differs from staleToken, someone else renewed it and that
// token is returned without a network call. Otherwise the caller performs
// the refresh and settles every waiter, in arrival order, with its outcome.
//
// Errors match common.ErrUnauthenticated (nothing to refresh with) or
// common.ErrRefreshFailed. Either one has cleared the credentials and fired
// the termination signal.
func (c *Coordinator) Renew(ctx context.Context, staleToken string) (string, error) {
	c.mu.Lock()
	if c.refreshing {
		p := &pending{ch: make(chan result, 1)}
		c.queue = append(c.queue, p)
		c.mu.Unlock()

		select {
		case r := <-p.ch:
			return r.token, r.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	creds, ok := c.store.Get()
	if ok && creds.AccessToken != staleToken {
		c.mu.Unlock()
		return creds.AccessToken, nil
	}
	c.refreshing = true
	c.mu.Unlock()

	token, err := c.refresh(ctx, creds.RefreshToken)
	c.settle(token, err)
	return token, err
}

func (c *Coordinator) refresh(ctx context.Context, refreshToken string) (string, error) {
	// The refresh outcome is shared by every waiter, so one caller giving up
	// must not abort it. The transport timeout still bounds the call.
	ctx = context.WithoutCancel(ctx)

	if refreshToken == "" {
		c.terminate(ctx, common.ErrUnauthenticated)
		return "", common.ErrUnauthenticated
	}

	c.log.Info(ctx, "refreshing access token")
	creds, err := c.refresher.Refresh(ctx, refreshToken)
	if err == nil {
		err = c.store.Rotate(ctx, refreshToken, creds)
	} else if cur, ok := c.store.Get(); !ok || cur.RefreshToken != refreshToken {
		err = common.ErrCredentialsChanged
	}
	if errors.Is(err, common.ErrCredentialsChanged) {
		// Logged out or logged in again while the refresh was running.
		c.log.Info(ctx, "discarding refreshed tokens")
		if cur, ok := c.store.Get(); ok {
			return cur.AccessToken, nil
		}
		return "", fmt.Errorf("%w: %w", common.ErrUnauthenticated, err)
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", common.ErrRefreshFailed, err)
		c.log.Warn(ctx, "token refresh failed", "error", err)
		c.terminate(ctx, err)
		return "", err
	}

	c.log.Info(ctx, "access token refreshed")
	return creds.AccessToken, nil
}

// settle hands the outcome to every waiter and returns to idle in one step,
// so no caller can join a refresh that has already finished.
func (c *Coordinator) settle(token string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range c.queue {
		p.ch <- result{token: token, err: err}
	}
	c.queue = nil
	c.refreshing = false
}

// Terminate ends the session: credentials are cleared and the termination
// signal fires (once per session).
func (c *Coordinator) Terminate(ctx context.Context, reason error) {
	c.terminate(context.WithoutCancel(ctx), reason)
}

func (c *Coordinator) terminate(ctx context.Context, reason error) {
	if err := c.store.Clear(ctx); err != nil {
		c.log.Error(ctx, "clear credentials", "error", err)
	}
	if c.signal.Fire(reason) {
		c.log.Warn(ctx, "session terminated", "reason", reason)
	}
}
