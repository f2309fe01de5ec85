package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/notekeeper/internal/client/client"
	"github.com/dmitrijs2005/notekeeper/internal/client/config"
	"github.com/dmitrijs2005/notekeeper/internal/client/models"
	"github.com/dmitrijs2005/notekeeper/internal/client/repositories/session"
	"github.com/dmitrijs2005/notekeeper/internal/client/services"
	"github.com/dmitrijs2005/notekeeper/internal/filex"
)

type App struct {
	config  *config.Config
	auth    services.AuthService
	db      *sql.DB
	reader  *bufio.Reader
	out     io.Writer
	session *models.Session
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	cacheFile, err := filex.EnsureParentDir(c.CacheFile)
	if err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, cacheFile)
	if err != nil {
		return nil, fmt.Errorf("error initializing session cache: %w", err)
	}

	apiClient, err := client.NewNotekeeperClient(c.ServerEndpointAddr)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	as := services.NewAuthService(apiClient, session.NewSQLiteRepository(db))

	return &App{config: c, auth: as, db: db, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

// Run restores a cached session if there is one and blocks in the REPL.
func (a *App) Run(ctx context.Context) {
	defer func() {
		_ = a.auth.Close(ctx)
		if a.db != nil {
			_ = a.db.Close()
		}
	}()

	fmt.Fprintln(a.out, "Welcome to notekeeper CLI (type 'help' for commands)")
	if s, err := a.auth.Restore(ctx); err == nil {
		a.session = s
		fmt.Fprintf(a.out, "Welcome back, %s\n", s.DisplayName())
	}

	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

func (a *App) getStatus() string {
	if a.session == nil {
		return ""
	}
	return fmt.Sprintf(" (%s)", a.session.StudentID)
}

func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config == nil || a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}
