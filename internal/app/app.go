// Package app wires all uplift subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves the configured transport until the context is
// cancelled, and Shutdown tears everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithSettingsStore, WithClientFactory). When an option is not provided,
// New creates real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/uplift-labs/uplift/internal/board"
	"github.com/uplift-labs/uplift/internal/config"
	"github.com/uplift-labs/uplift/internal/health"
	"github.com/uplift-labs/uplift/internal/observe"
	"github.com/uplift-labs/uplift/internal/settings"
	"github.com/uplift-labs/uplift/internal/toolserver"
)

// defaultAccountID matches the account tools fall back to when a call names
// none. Used when seeding credentials from the environment.
const defaultAccountID = "default"

// shutdownTimeout bounds graceful HTTP server shutdown.
const shutdownTimeout = 10 * time.Second

// App owns all subsystem lifetimes for the uplift tool server.
type App struct {
	cfg *config.Config

	store      settings.Store
	pool       *pgxpool.Pool
	tools      *toolserver.Server
	mcpServer  *mcp.Server
	newClient  toolserver.ClientFactory
	httpServer *http.Server

	// closers are called in order during Shutdown.
	closers []func(context.Context) error

	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithSettingsStore injects a settings store instead of creating one from
// config.
func WithSettingsStore(s settings.Store) Option {
	return func(a *App) { a.store = s }
}

// WithClientFactory injects a board client factory instead of building real
// API clients.
func WithClientFactory(f toolserver.ClientFactory) Option {
	return func(a *App) { a.newClient = f }
}

// New creates an App by wiring all subsystems together: the settings store
// (PostgreSQL or in-memory per config), the board client factory, and the
// MCP tool server. When the config names a token environment variable, the
// default account is connected from it so stdio deployments work without a
// connect_account call.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}

	if err := a.initStore(ctx); err != nil {
		return nil, fmt.Errorf("app: init settings store: %w", err)
	}

	a.initClientFactory()

	if err := a.seedDefaultAccount(ctx); err != nil {
		return nil, fmt.Errorf("app: seed default account: %w", err)
	}

	a.tools = toolserver.New(a.store, toolserver.WithClientFactory(a.newClient))
	a.mcpServer = a.tools.MCPServer()

	return a, nil
}

// initStore sets up the PostgreSQL settings store or falls back to memory.
func (a *App) initStore(ctx context.Context) error {
	if a.store != nil {
		return nil
	}

	dsn := a.cfg.Storage.PostgresDSN
	if dsn == "" {
		slog.Info("no postgres_dsn configured, using in-memory settings store")
		a.store = settings.NewMemStore()
		return nil
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}

	store := settings.NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("migrate settings schema: %w", err)
	}

	a.pool = pool
	a.store = store
	a.closers = append(a.closers, func(context.Context) error {
		pool.Close()
		return nil
	})
	slog.Info("settings store connected", "backend", "postgres")
	return nil
}

// initClientFactory builds board clients honouring endpoint overrides.
func (a *App) initClientFactory() {
	if a.newClient != nil {
		return
	}

	var clientOpts []board.Option
	if a.cfg.Board.APIURL != "" {
		clientOpts = append(clientOpts, board.WithEndpoint(a.cfg.Board.APIURL))
	}
	if a.cfg.Board.FileAPIURL != "" {
		clientOpts = append(clientOpts, board.WithFileEndpoint(a.cfg.Board.FileAPIURL))
	}
	a.newClient = func(token string) (toolserver.BoardAPI, error) {
		return board.New(token, clientOpts...)
	}
}

// seedDefaultAccount connects the default account from the environment when
// board.token_env is configured.
func (a *App) seedDefaultAccount(ctx context.Context) error {
	env := a.cfg.Board.TokenEnv
	if env == "" {
		return nil
	}
	token, ok := os.LookupEnv(env)
	if !ok || token == "" {
		slog.Warn("token environment variable is unset, default account not connected", "env", env)
		return nil
	}

	if err := a.store.Set(ctx, defaultAccountID, settings.KeyAPIToken, token); err != nil {
		return err
	}
	if b := a.cfg.Board.DefaultBoard; b != "" {
		if err := a.store.Set(ctx, defaultAccountID, settings.KeyDefaultBoard, b); err != nil {
			return err
		}
	}
	slog.Info("default account connected from environment", "env", env)
	return nil
}

// ApplyDefaultBoard updates the default account's default board without a
// restart. An empty boardID clears the setting.
func (a *App) ApplyDefaultBoard(ctx context.Context, boardID string) error {
	if boardID == "" {
		err := a.store.Delete(ctx, defaultAccountID, settings.KeyDefaultBoard)
		if err != nil && !errors.Is(err, settings.ErrNotFound) {
			return fmt.Errorf("app: clear default board: %w", err)
		}
		return nil
	}
	if err := a.store.Set(ctx, defaultAccountID, settings.KeyDefaultBoard, boardID); err != nil {
		return fmt.Errorf("app: set default board: %w", err)
	}
	return nil
}

// Run serves the configured transport until ctx is cancelled. In stdio mode
// it speaks MCP over stdin/stdout; in http mode it serves the MCP endpoint
// alongside health and metrics endpoints.
func (a *App) Run(ctx context.Context) error {
	switch a.cfg.Server.Transport {
	case config.TransportHTTP:
		return a.runHTTP(ctx)
	default:
		return a.runStdio(ctx)
	}
}

func (a *App) runStdio(ctx context.Context) error {
	slog.Info("serving MCP over stdio")
	if err := a.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("app: stdio server: %w", err)
	}
	return nil
}

func (a *App) runHTTP(ctx context.Context) error {
	mux := http.NewServeMux()

	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return a.mcpServer
	}, nil)
	mux.Handle("/mcp", mcpHandler)

	h := health.New(a.Checkers()...)
	mux.HandleFunc("/healthz", h.Healthz)
	mux.HandleFunc("/readyz", h.Readyz)
	mux.Handle("/metrics", promhttp.Handler())

	handler := observe.Middleware(observe.DefaultMetrics())(mux)

	a.httpServer = &http.Server{
		Addr:    a.cfg.Server.ListenAddr,
		Handler: handler,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("serving MCP over http", "addr", a.cfg.Server.ListenAddr)
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			err = a.httpServer.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = a.httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.httpServer.Shutdown(sctx)
	})

	return g.Wait()
}

// Checkers returns the readiness checks served on /readyz.
func (a *App) Checkers() []health.Checker {
	var checks []health.Checker
	if a.pool != nil {
		pool := a.pool
		checks = append(checks, health.Checker{
			Name:  "database",
			Check: func(ctx context.Context) error { return pool.Ping(ctx) },
		})
	}
	// The board API is probed with the default account's token. An account
	// that was never connected is not a readiness failure.
	checks = append(checks, health.Checker{
		Name: "board_api",
		Check: func(ctx context.Context) error {
			token, err := a.store.Get(ctx, defaultAccountID, settings.KeyAPIToken)
			if errors.Is(err, settings.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			client, err := a.newClient(token)
			if err != nil {
				return err
			}
			_, err = client.ListBoards(ctx, 1)
			return err
		},
	})
	return checks
}

// Shutdown tears subsystems down in order. Safe to call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	a.stopOnce.Do(func() {
		for _, c := range a.closers {
			if err := c(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}

// Tools exposes the tool server for tests and embedding.
func (a *App) Tools() *toolserver.Server {
	return a.tools
}
