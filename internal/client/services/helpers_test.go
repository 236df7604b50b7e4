package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/ragdesk/internal/client/api"
	"github.com/dmitrijs2005/ragdesk/internal/client/credentials"
	"github.com/dmitrijs2005/ragdesk/internal/client/refresh"
	"github.com/dmitrijs2005/ragdesk/internal/client/storage"
	"github.com/dmitrijs2005/ragdesk/internal/client/transport"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

// env wires the real client stack against a fake API server.
type env struct {
	store  *credentials.Store
	signal *refresh.Signal
	auth   AuthService
	files  FileService
	rag    RagService
	agent  AgentService
}

func newEnv(t *testing.T, r *mux.Router) *env {
	t.Helper()
	ctx := context.Background()

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	db, err := storage.OpenDatabase(ctx, filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := credentials.NewStore(db)
	tr, err := transport.New(srv.URL, store)
	require.NoError(t, err)

	signal := &refresh.Signal{}
	auth := NewAuthService(api.New(tr, nil, nil, nil), store, signal)
	coord := refresh.NewCoordinator(store, auth, signal, nil)
	client := api.New(tr, store, coord, nil)

	return &env{
		store:  store,
		signal: signal,
		auth:   auth,
		files:  NewFileService(client),
		rag:    NewRagService(client, nil),
		agent:  NewAgentService(client, nil),
	}
}

func (e *env) login(t *testing.T, access, refreshToken string) {
	t.Helper()
	require.NoError(t, e.store.StartSession(context.Background(),
		credentials.Credentials{AccessToken: access, RefreshToken: refreshToken},
		credentials.Session{Username: "alice"}))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readJSON(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var m map[string]any
	body, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, &m))
	return m
}

// requireBearer answers 401 unless the request carries token.
func requireBearer(token string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			_, _ = io.Copy(io.Discard, r.Body)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token expired"})
			return
		}
		next(w, r)
	}
}
