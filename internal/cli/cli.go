// Package cli implements the lifemgr terminal client.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/OscarCarPu/life-manager/internal/config"
	"github.com/OscarCarPu/life-manager/internal/di"
	"github.com/OscarCarPu/life-manager/internal/logging"
	"github.com/OscarCarPu/life-manager/internal/tasks"
)

// Version of the lifemgr binary
const Version = "1.0.0"

// Recommender is the part of the recommendation service the CLI uses
type Recommender interface {
	Recommend(ctx context.Context, today time.Time, limit int, forPlanning bool) ([]tasks.Recommendation, error)
	Today() time.Time
	Weights() tasks.Weights
	Config() tasks.ServiceConfig
}

// Opener connects a Recommender for one command invocation. The returned
// function releases its resources.
type Opener func(ctx context.Context, cfg *config.Config) (Recommender, func() error, error)

// CLI represents the command-line interface
type CLI struct {
	RootCmd    *cobra.Command
	loadConfig func() (*config.Config, error)
	open       Opener
	timeout    time.Duration
}

// Option customizes a CLI
type Option func(*CLI)

// WithConfigLoader replaces config.LoadConfig
func WithConfigLoader(load func() (*config.Config, error)) Option {
	return func(c *CLI) {
		c.loadConfig = load
	}
}

// WithOpener replaces the storage-backed service factory
func WithOpener(open Opener) Option {
	return func(c *CLI) {
		c.open = open
	}
}

// NewCLI creates a new CLI instance
func NewCLI(opts ...Option) *CLI {
	c := &CLI{
		loadConfig: config.LoadConfig,
		open:       openContainer,
		timeout:    30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.RootCmd = &cobra.Command{
		Use:           "lifemgr",
		Short:         "Life manager task recommendations",
		Long:          `lifemgr ranks your open tasks and tells you what to work on next or what to plan.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	c.RootCmd.AddCommand(
		c.createRecommendCommand(),
		c.createWeightsCommand(),
	)

	return c
}

// Execute runs the root command
func (c *CLI) Execute() error {
	return c.RootCmd.Execute()
}

// withService loads configuration, opens the service and runs fn
func (c *CLI) withService(cmd *cobra.Command, fn func(ctx context.Context, svc Recommender) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
	defer cancel()

	svc, closeFn, err := c.open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	return fn(ctx, svc)
}

func openContainer(ctx context.Context, cfg *config.Config) (Recommender, func() error, error) {
	// One-shot invocations never run the warmer
	cfg.Scheduler.Enabled = false
	logger := logging.New(logging.ParseLogLevel(cfg.Logging.Level), "text", os.Stderr)

	container, err := di.NewContainer(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return container.Service, container.Shutdown, nil
}
