package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/ragdesk/internal/client/api"
	"github.com/dmitrijs2005/ragdesk/internal/client/credentials"
	"github.com/dmitrijs2005/ragdesk/internal/client/models"
	"github.com/dmitrijs2005/ragdesk/internal/common"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Register and Login store the issued credentials and start a session.
//     A rejected login returns common.ErrInvalidCredentials.
//   - Refresh exchanges a refresh token for a new pair without touching the
//     store; it is the refresh.Refresher used by the coordinator.
//   - Logout forgets credentials and session locally.
//   - Whoami reports the current session without a network call.
//
// The password slices passed to Register and Login are wiped before return.
type AuthService interface {
	Register(ctx context.Context, username string, password []byte, tenantID string) error
	Login(ctx context.Context, username string, password []byte, tenantID string) error
	Refresh(ctx context.Context, refreshToken string) (credentials.Credentials, error)
	Logout(ctx context.Context) error
	Whoami() Identity
}

// SessionStore is the part of credentials.Store used by AuthService.
type SessionStore interface {
	Get() (credentials.Credentials, bool)
	Session() credentials.Session
	StartSession(ctx context.Context, c credentials.Credentials, session credentials.Session) error
	Clear(ctx context.Context) error
}

// Rearmer is implemented by *refresh.Signal.
type Rearmer interface {
	Rearm()
}

// Identity describes the signed-in user. Subject and ExpiresAt come from the
// unverified access token and are empty when it is not a JWT.
type Identity struct {
	Authenticated bool
	Username      string
	TenantID      string
	Subject       string
	ExpiresAt     time.Time
}

type authService struct {
	api    API
	store  SessionStore
	signal Rearmer
}

// NewAuthService constructs an AuthService. api only needs to serve
// anonymous calls, so it may be a client without a renewer.
func NewAuthService(api API, store SessionStore, signal Rearmer) AuthService {
	return &authService{api: api, store: store, signal: signal}
}

func (a *authService) Register(ctx context.Context, username string, password []byte, tenantID string) error {
	defer common.WipeByteArray(password)

	req := models.RegisterRequest{Username: username, Password: string(password), TenantID: tenantID}
	var resp models.AuthResponse
	if err := a.api.Post(ctx, "/auth/register", req, &resp, api.Anonymous()); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return a.startSession(ctx, resp, username, tenantID)
}

func (a *authService) Login(ctx context.Context, username string, password []byte, tenantID string) error {
	defer common.WipeByteArray(password)

	req := models.LoginRequest{Username: username, Password: string(password), TenantID: tenantID}
	var resp models.AuthResponse
	if err := a.api.Post(ctx, "/auth/login", req, &resp, api.Anonymous()); err != nil {
		if errors.Is(err, common.ErrAuthExpired) {
			return fmt.Errorf("login: %w", common.ErrInvalidCredentials)
		}
		return fmt.Errorf("login: %w", err)
	}
	return a.startSession(ctx, resp, username, tenantID)
}

func (a *authService) startSession(ctx context.Context, resp models.AuthResponse, username, tenantID string) error {
	creds := toCredentials(resp)
	session := credentials.Session{Username: username, TenantID: tenantID}
	if err := a.store.StartSession(ctx, creds, session); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	a.signal.Rearm()
	return nil
}

// Refresh keeps the old refresh token when the server does not rotate it.
func (a *authService) Refresh(ctx context.Context, refreshToken string) (credentials.Credentials, error) {
	var resp models.AuthResponse
	req := models.RefreshRequest{RefreshToken: refreshToken}
	if err := a.api.Post(ctx, "/auth/refresh", req, &resp, api.Anonymous()); err != nil {
		return credentials.Credentials{}, err
	}
	creds := toCredentials(resp)
	if creds.RefreshToken == "" {
		creds.RefreshToken = refreshToken
	}
	if err := creds.Validate(); err != nil {
		return credentials.Credentials{}, err
	}
	return creds, nil
}

func (a *authService) Logout(ctx context.Context) error {
	return a.store.Clear(ctx)
}

func (a *authService) Whoami() Identity {
	creds, ok := a.store.Get()
	if !ok {
		return Identity{}
	}
	session := a.store.Session()
	id := Identity{Authenticated: true, Username: session.Username, TenantID: session.TenantID}
	if info, err := credentials.Inspect(creds.AccessToken); err == nil {
		id.Subject = info.Subject
		id.ExpiresAt = info.ExpiresAt
	}
	return id
}

func toCredentials(resp models.AuthResponse) credentials.Credentials {
	return credentials.Credentials{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    strings.ToLower(resp.TokenType),
		ExpiresIn:    resp.ExpiresIn,
	}
}
