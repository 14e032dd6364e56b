package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/uplift-labs/uplift/internal/app"
	"github.com/uplift-labs/uplift/internal/board"
	"github.com/uplift-labs/uplift/internal/config"
	"github.com/uplift-labs/uplift/internal/settings"
	"github.com/uplift-labs/uplift/internal/toolserver"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Transport: config.TransportStdio,
			LogLevel:  config.LogInfo,
		},
	}
}

func TestNew_DefaultsToMemStore(t *testing.T) {
	t.Parallel()
	a, err := app.New(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown(context.Background())

	if a.Tools() == nil {
		t.Error("Tools() should be wired")
	}
}

func TestNew_SeedsDefaultAccountFromEnv(t *testing.T) {
	t.Setenv("UPLIFT_TEST_TOKEN", "tok-from-env")

	cfg := testConfig()
	cfg.Board.TokenEnv = "UPLIFT_TEST_TOKEN"
	cfg.Board.DefaultBoard = "b42"

	store := settings.NewMemStore()
	a, err := app.New(context.Background(), cfg, app.WithSettingsStore(store))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown(context.Background())

	tok, err := store.Get(context.Background(), "default", settings.KeyAPIToken)
	if err != nil || tok != "tok-from-env" {
		t.Errorf("seeded token = %q, %v; want tok-from-env, nil", tok, err)
	}
	def, err := store.Get(context.Background(), "default", settings.KeyDefaultBoard)
	if err != nil || def != "b42" {
		t.Errorf("seeded default board = %q, %v; want b42, nil", def, err)
	}
}

func TestNew_UnsetTokenEnvIsNotFatal(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Board.TokenEnv = "UPLIFT_TOKEN_THAT_DOES_NOT_EXIST"

	store := settings.NewMemStore()
	a, err := app.New(context.Background(), cfg, app.WithSettingsStore(store))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown(context.Background())

	if _, err := store.Get(context.Background(), "default", settings.KeyAPIToken); err == nil {
		t.Error("no token should be seeded when the env var is unset")
	}
}

func TestNew_InjectedClientFactory(t *testing.T) {
	t.Parallel()
	factory := toolserver.ClientFactory(func(token string) (toolserver.BoardAPI, error) {
		return nil, nil
	})

	a, err := app.New(context.Background(), testConfig(), app.WithClientFactory(factory))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown(context.Background())

	if a.Tools() == nil {
		t.Error("Tools() should be wired")
	}
}

func TestApplyDefaultBoard(t *testing.T) {
	t.Parallel()
	store := settings.NewMemStore()
	a, err := app.New(context.Background(), testConfig(), app.WithSettingsStore(store))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown(context.Background())

	if err := a.ApplyDefaultBoard(context.Background(), "b99"); err != nil {
		t.Fatalf("ApplyDefaultBoard: %v", err)
	}
	def, err := store.Get(context.Background(), "default", settings.KeyDefaultBoard)
	if err != nil || def != "b99" {
		t.Errorf("default board = %q, %v; want b99, nil", def, err)
	}

	// Clearing an already-cleared setting stays quiet.
	if err := a.ApplyDefaultBoard(context.Background(), ""); err != nil {
		t.Fatalf("ApplyDefaultBoard clear: %v", err)
	}
	if err := a.ApplyDefaultBoard(context.Background(), ""); err != nil {
		t.Fatalf("ApplyDefaultBoard clear (again): %v", err)
	}
	if _, err := store.Get(context.Background(), "default", settings.KeyDefaultBoard); !errors.Is(err, settings.ErrNotFound) {
		t.Errorf("default board should be cleared, got err %v", err)
	}
}

// stubBoardAPI fakes just the ListBoards probe; the embedded interface covers
// the methods the checks never touch.
type stubBoardAPI struct {
	toolserver.BoardAPI
	listCalls int
	listErr   error
}

func (s *stubBoardAPI) ListBoards(ctx context.Context, limit int) ([]board.Board, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return []board.Board{}, nil
}

func findChecker(t *testing.T, a *app.App, name string) func(context.Context) error {
	t.Helper()
	for _, c := range a.Checkers() {
		if c.Name == name {
			return c.Check
		}
	}
	t.Fatalf("no %q checker registered", name)
	return nil
}

func TestCheckers_BoardAPI(t *testing.T) {
	t.Parallel()
	stub := &stubBoardAPI{}
	store := settings.NewMemStore()
	a, err := app.New(context.Background(), testConfig(),
		app.WithSettingsStore(store),
		app.WithClientFactory(func(token string) (toolserver.BoardAPI, error) { return stub, nil }),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Shutdown(context.Background())

	check := findChecker(t, a, "board_api")

	// No connected account: ready, and no upstream probe fired.
	if err := check(context.Background()); err != nil {
		t.Errorf("check without token: %v", err)
	}
	if stub.listCalls != 0 {
		t.Errorf("probe fired %d times without a token", stub.listCalls)
	}

	if err := store.Set(context.Background(), "default", settings.KeyAPIToken, "tok"); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	if err := check(context.Background()); err != nil {
		t.Errorf("check with healthy upstream: %v", err)
	}
	if stub.listCalls != 1 {
		t.Errorf("probe fired %d times, want 1", stub.listCalls)
	}

	stub.listErr = errors.New("upstream unavailable")
	if err := check(context.Background()); err == nil {
		t.Error("check should fail when the upstream probe fails")
	}
}

func TestShutdown_Idempotent(t *testing.T) {
	t.Parallel()
	a, err := app.New(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Shutdown(context.Background()); err != nil {
		t.Errorf("first Shutdown: %v", err)
	}
	if err := a.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
}
