package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ragdesk/internal/common"
)

// Register prompts for a username, an optional tenant and a password, then
// creates the account and signs in with it.
func (a *App) Register(ctx context.Context) error {
	username, tenant, password, err := a.promptCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.authService.Register(ctx, username, password, tenant); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered and logged in as %s\n", username)
	return nil
}

// Login prompts for credentials and starts a session.
func (a *App) Login(ctx context.Context) error {
	username, tenant, password, err := a.promptCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.authService.Login(ctx, username, password, tenant); err != nil {
		a.log.Debug(ctx, "login failed", "username", username, "error", err)
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", username)
	return nil
}

func (a *App) promptCredentials() (username, tenant string, password []byte, err error) {
	username, err = getSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return "", "", nil, err
	}
	if username == "" {
		return "", "", nil, fmt.Errorf("username is required")
	}
	tenant, err = getSimpleText(a.reader, "Tenant (optional)", a.out)
	if err != nil {
		return "", "", nil, err
	}
	password, err = getPassword(a.out)
	if err != nil {
		return "", "", nil, err
	}
	return username, tenant, password, nil
}

// Logout forgets the stored credentials.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// Whoami prints the current session. Token details are read from the access
// token without verifying it.
func (a *App) Whoami(_ context.Context) error {
	id := a.authService.Whoami()
	if !id.Authenticated {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	fmt.Fprintf(a.out, "User:    %s\n", id.Username)
	if id.TenantID != "" {
		fmt.Fprintf(a.out, "Tenant:  %s\n", id.TenantID)
	}
	if id.Subject != "" {
		fmt.Fprintf(a.out, "Subject: %s\n", id.Subject)
	}
	if !id.ExpiresAt.IsZero() {
		left := time.Until(id.ExpiresAt).Round(time.Second)
		if left > 0 {
			fmt.Fprintf(a.out, "Token expires in %s\n", left)
		} else {
			fmt.Fprintln(a.out, "Token expired; it is renewed on the next request")
		}
	}
	return nil
}
