// Package main provides medalctl, a command line companion to the medal
// dashboard: render views in the terminal, seed a store, back a store up.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/okian/medalboard/internal/adapters/repository"
	"github.com/okian/medalboard/internal/config"
	"github.com/okian/medalboard/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// env is what every subcommand needs: configuration, the configured store
// and a logger that writes to stderr so stdout stays clean.
type env struct {
	cfg   *config.Config
	store repository.Store
	log   logger.Logger
	runID string
}

// openStoreFunc is replaced in tests.
var openStoreFunc = repository.Open

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "medalctl",
		Short:        "Inspect and maintain the Asian Games medal table",
		Long:         `medalctl reads the medal table through the same store configuration as the dashboard (MEDALS_* env vars or the YAML file named by MEDALS_CONFIG).`,
		SilenceUsage: true,
	}
	root.AddCommand(newViewsCmd(), newSeedCmd(), newCopyCmd())
	return root
}

// setup loads config and opens the configured store.
func setup(ctx context.Context) (*env, error) {
	if err := logger.InitWithWriter(os.Stderr); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	_ = logger.SetFormat(cfg.LogFormat)
	_ = logger.SetLevelString(cfg.LogLevel)

	store, err := openStoreFunc(ctx, cfg.Locator())
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	e := &env{cfg: cfg, store: store, log: logger.Named("medalctl"), runID: uuid.NewString()}
	e.log.Debug(ctx, "store opened", logger.String("run", e.runID), logger.String("store", store.Name()))
	return e, nil
}

func (e *env) close() {
	if c, ok := e.store.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}

// withTimeout bounds one store call by the configured timeout.
func (e *env) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.cfg.StoreTimeout())
}
