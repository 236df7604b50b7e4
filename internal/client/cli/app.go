package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/dmitrijs2005/ragdesk/internal/buildinfo"
	"github.com/dmitrijs2005/ragdesk/internal/client/api"
	"github.com/dmitrijs2005/ragdesk/internal/client/config"
	"github.com/dmitrijs2005/ragdesk/internal/client/credentials"
	"github.com/dmitrijs2005/ragdesk/internal/client/refresh"
	"github.com/dmitrijs2005/ragdesk/internal/client/services"
	"github.com/dmitrijs2005/ragdesk/internal/client/storage"
	"github.com/dmitrijs2005/ragdesk/internal/client/transport"
	"github.com/dmitrijs2005/ragdesk/internal/logging"
)

type App struct {
	config       *config.Config
	db           *sql.DB
	log          logging.Logger
	authService  services.AuthService
	fileService  services.FileService
	ragService   services.RagService
	agentService services.AgentService
	reader       *bufio.Reader
	out          io.Writer
}

// NewApp opens the credential database, restores the previous session and
// builds the service stack.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	db, err := storage.OpenDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	store := credentials.NewStore(db)
	if err := store.Load(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	tr, err := transport.New(c.BaseURL, store,
		transport.WithTimeout(c.RequestTimeout),
		transport.WithLogger(log),
		transport.WithUserAgent("ragdesk-cli/"+buildinfo.Version),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	terminated := &refresh.Signal{}
	auth := services.NewAuthService(api.New(tr, nil, nil, log), store, terminated)
	coordinator := refresh.NewCoordinator(store, auth, terminated, log)
	client := api.New(tr, store, coordinator, log)

	a := &App{
		config:       c,
		db:           db,
		log:          log,
		authService:  auth,
		fileService:  services.NewFileService(client),
		ragService:   services.NewRagService(client, log),
		agentService: services.NewAgentService(client, log),
		reader:       bufio.NewReader(os.Stdin),
		out:          os.Stdout,
	}
	terminated.OnTerminate(a.sessionEnded)
	return a, nil
}

// Run starts the REPL and blocks until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintf(a.out, "ragdesk CLI, API at %s (type 'help' for commands)\n", a.config.BaseURL)
	a.log.Debug(ctx, "repl started", "base_url", a.config.BaseURL)
	runREPL(ctx, a, a.status, a.reader, interruptible)
}

// Close releases the database.
func (a *App) Close() error {
	return a.db.Close()
}

func (a *App) isLoggedIn() bool {
	return a.authService.Whoami().Authenticated
}

func (a *App) status() string {
	id := a.authService.Whoami()
	if !id.Authenticated {
		return ""
	}
	if id.TenantID != "" {
		return fmt.Sprintf("(%s@%s)", id.Username, id.TenantID)
	}
	return fmt.Sprintf("(%s)", id.Username)
}

// sessionEnded runs when the refresh coordinator gives up on the session.
func (a *App) sessionEnded(reason error) {
	fmt.Fprintf(a.out, "\nSession ended: %v\nPlease log in again.\n", reason)
}

// interruptible scopes Ctrl-C to a single command.
func interruptible(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt)
}
