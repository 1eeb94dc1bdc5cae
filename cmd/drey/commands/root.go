package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyluth/drey/internal/config"
	"github.com/dyluth/drey/pkg/rendezvous"
)

var (
	version string
	commit  string
	date    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "drey",
	Short: "Drey - Human side of the agent rendezvous",
	Long: `Drey connects a human operator to agents that are waiting for input.

Agents post requests into a shared Redis store and block until someone
answers. The drey CLI is that someone: it watches for pending requests,
presents them in the terminal, and writes back your replies. It can also
inspect the request history for debugging.`,
	Version: version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

// connectStore loads configuration and opens a verified store connection.
// The caller owns the returned client and must Close it.
func connectStore(ctx context.Context) (*rendezvous.Client, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	redisOpts, err := cfg.RedisOptions()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	store, err := rendezvous.NewClient(redisOpts, cfg.InstanceName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create store client: %w", err)
	}

	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("could not connect to Redis at %s: %w", cfg.RedisURL, err)
	}

	return store, cfg, nil
}
