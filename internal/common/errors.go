// Package common defines shared constants and sentinel errors used across
// the transport, refresh and service layers. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Transport classification. ErrAuthExpired is absorbed by the refresh
	// coordinator and only reaches callers through a failed retry.
	ErrAuthExpired    = errors.New("access token expired")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrServerError    = errors.New("server error")
	ErrNetworkFailure = errors.New("network failure")
	ErrRequestFailed  = errors.New("request failed")

	// Session lifecycle errors. Both are fatal for the current session.
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrRefreshFailed   = errors.New("token refresh failed")

	// Credential errors.
	ErrPartialCredentials = errors.New("access and refresh tokens must be set together")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrCredentialsChanged = errors.New("credentials changed since refresh started")

	// Stream errors. A malformed frame is skipped, never fatal.
	ErrMalformedFrame = errors.New("malformed stream frame")
	ErrStreamClosed   = errors.New("stream closed")
)
