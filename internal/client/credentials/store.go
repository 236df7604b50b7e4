package credentials

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/ragdesk/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/ragdesk/internal/common"
	"github.com/dmitrijs2005/ragdesk/internal/dbx"
)

// Store holds the current credentials. Reads are served from memory, so a
// change is visible to the very next request; writes go to the metadata table
// in one transaction before memory is updated.
type Store struct {
	db *sql.DB

	mu      sync.RWMutex
	creds   Credentials
	has     bool
	session Session
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Load restores credentials and session saved by an earlier run. A stored
// pair that fails validation is discarded.
func (s *Store) Load(ctx context.Context) error {
	repo := metadata.NewSQLiteRepository(s.db)

	rawCreds, err := repo.Get(ctx, common.CredentialsKey)
	if err != nil {
		return err
	}
	rawSession, err := repo.Get(ctx, common.SessionKey)
	if err != nil {
		return err
	}

	var (
		creds   Credentials
		has     bool
		session Session
	)
	if rawCreds != nil {
		if err := json.Unmarshal(rawCreds, &creds); err != nil {
			return fmt.Errorf("decode stored credentials: %w", err)
		}
		has = creds.Validate() == nil
		if !has {
			creds = Credentials{}
		}
	}
	if rawSession != nil {
		if err := json.Unmarshal(rawSession, &session); err != nil {
			return fmt.Errorf("decode stored session: %w", err)
		}
	}

	s.mu.Lock()
	s.creds, s.has, s.session = creds, has, session
	s.mu.Unlock()
	return nil
}

// Get returns the current credentials and whether any are stored.
func (s *Store) Get() (Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds, s.has
}

// AccessToken returns the current access token or "".
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.AccessToken
}

// RefreshToken returns the current refresh token or "".
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.RefreshToken
}

func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Set replaces the token pair, keeping the session record.
func (s *Store) Set(ctx context.Context, c Credentials) error {
	if err := c.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(ctx, &c, nil); err != nil {
		return err
	}
	s.creds, s.has = c, true
	return nil
}

// Rotate replaces the token pair only while prevRefresh is still the stored
// refresh token. A logout or a new login in between wins, and Rotate returns
// common.ErrCredentialsChanged without writing anything.
func (s *Store) Rotate(ctx context.Context, prevRefresh string, c Credentials) error {
	if err := c.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.has || s.creds.RefreshToken != prevRefresh {
		return common.ErrCredentialsChanged
	}
	if err := s.write(ctx, &c, nil); err != nil {
		return err
	}
	s.creds = c
	return nil
}

// StartSession stores a new token pair together with the session record.
func (s *Store) StartSession(ctx context.Context, c Credentials, session Session) error {
	if err := c.Validate(); err != nil {
		return err
	}
	session.Authenticated = true

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(ctx, &c, &session); err != nil {
		return err
	}
	s.creds, s.has, s.session = c, true, session
	return nil
}

// Clear forgets the credentials and the session and deletes both durable
// keys. Memory is cleared even when the database delete fails.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds, s.has, s.session = Credentials{}, false, Session{}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Delete(ctx, common.CredentialsKey); err != nil {
			return err
		}
		return repo.Delete(ctx, common.SessionKey)
	})
}

// write persists the non-nil arguments atomically. Callers hold s.mu.
func (s *Store) write(ctx context.Context, c *Credentials, session *Session) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if c != nil {
			raw, err := json.Marshal(c)
			if err != nil {
				return err
			}
			if err := repo.Set(ctx, common.CredentialsKey, raw); err != nil {
				return err
			}
		}
		if session != nil {
			raw, err := json.Marshal(session)
			if err != nil {
				return err
			}
			if err := repo.Set(ctx, common.SessionKey, raw); err != nil {
				return err
			}
		}
		return nil
	})
}
