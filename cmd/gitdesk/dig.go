package main

import (
	"fmt"
	"os"

	"go.uber.org/dig"

	"github.com/bantamhq/gitdesk/internal/auth"
	"github.com/bantamhq/gitdesk/internal/config"
	"github.com/bantamhq/gitdesk/internal/engine"
	"github.com/bantamhq/gitdesk/internal/gitops"
	"github.com/bantamhq/gitdesk/internal/logging"
	"github.com/bantamhq/gitdesk/internal/signing"
	"github.com/bantamhq/gitdesk/internal/store"
)

// App holds the wired components for one command invocation.
type App struct {
	Config *config.Config
	Store  *store.SQLiteStore
	Engine *engine.Engine
}

// Close releases the engine and the database.
func (a *App) Close() {
	a.Engine.Close()
	a.Store.Close()
}

func newStore(cfg *config.Config) (*store.SQLiteStore, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	if err := st.Initialize(); err != nil {
		st.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return st, nil
}

func newResolver(cfg *config.Config) auth.Resolver {
	return auth.Resolver{HostKeys: auth.HostKeyOptions{
		KnownHosts:            cfg.SSH.KnownHosts,
		InsecureIgnoreHostKey: cfg.SSH.InsecureIgnoreHostKey,
	}}
}

// newSigner loads the configured keyring. Without one, commits that ask
// for a signature fail with a precondition error.
func newSigner(cfg *config.Config) (gitops.Signer, error) {
	if cfg.Signing.Keyring == "" {
		return nil, nil
	}
	keyring, err := signing.Load(cfg.Signing.Keyring)
	if err != nil {
		return nil, fmt.Errorf("load signing keyring: %w", err)
	}
	return keyring, nil
}

func newEngine(st *store.SQLiteStore, resolver auth.Resolver, signer gitops.Signer, opts engine.Options) *engine.Engine {
	return engine.New(st, gitops.Client{}, resolver, signer, opts)
}

func registerProviders(container *dig.Container, watch bool) error {
	providers := []any{
		config.Load,
		newStore,
		newResolver,
		newSigner,
		func(cfg *config.Config) engine.Options {
			return engine.Options{
				CloneDir:       cfg.CloneDir,
				PageSize:       cfg.History.PageSize,
				SelectNewFiles: cfg.Changes.SelectNewFiles,
				Watch:          watch,
			}
		},
		newEngine,
		func(cfg *config.Config, st *store.SQLiteStore, eng *engine.Engine) *App {
			return &App{Config: cfg, Store: st, Engine: eng}
		},
	}

	for _, p := range providers {
		if err := container.Provide(p); err != nil {
			return err
		}
	}
	return nil
}

// injectApp builds the component graph. watch enables the working-tree
// watcher for long-running front ends.
func injectApp(watch bool) (*App, error) {
	container := dig.New()

	if err := registerProviders(container, watch); err != nil {
		panic(err)
	}

	var app *App
	if err := container.Invoke(func(a *App) {
		app = a
	}); err != nil {
		return nil, dig.RootCause(err)
	}

	logging.Setup(app.Config.Log, os.Stderr)
	return app, nil
}
