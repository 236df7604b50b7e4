// Package credentials is the durable credential store of the client: the
// current access/refresh token pair plus a small session record, cached in
// memory and written through to the client database.
package credentials

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/ragdesk/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Credentials is the token pair issued by /auth/login, /auth/register and
// /auth/refresh. Both tokens are present or the value is not stored at all.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Validate reports ErrPartialCredentials unless both tokens are set.
func (c Credentials) Validate() error {
	if c.AccessToken == "" || c.RefreshToken == "" {
		return fmt.Errorf("%w: access=%t refresh=%t",
			common.ErrPartialCredentials, c.AccessToken != "", c.RefreshToken != "")
	}
	return nil
}

// Session mirrors what the UI needs to know about the signed-in user.
type Session struct {
	Authenticated bool   `json:"isAuthenticated"`
	Username      string `json:"username,omitempty"`
	TenantID      string `json:"tenantId,omitempty"`
}

// TokenInfo is what can be read from an access token without verifying it.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
}

// Inspect decodes the claims of a JWT access token without checking its
// signature. The client never holds the signing key; the result is only used
// for display and must not be trusted for authorization.
func Inspect(accessToken string) (TokenInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("parse access token: %w", err)
	}

	var info TokenInfo
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, nil
}
