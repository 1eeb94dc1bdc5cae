package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyluth/drey/internal/printer"
	"github.com/dyluth/drey/internal/responder"
)

var respondPollIntervalMs int

var respondCmd = &cobra.Command{
	Use:   "respond",
	Short: "Answer pending agent requests interactively",
	Long: `Watch the store for pending requests and answer them in the terminal.

Requests are presented oldest first, one at a time. For each request you
type a free-form reply, optionally followed by comma-separated image paths
to attach. Submitting an empty reply tells the agent the conversation is
over.

If an agent's wait timed out while you were typing, your input is discarded
and the loop moves on to the next request.

Examples:
  # Answer requests on the default instance
  drey respond

  # Answer requests on a specific instance
  DREY_INSTANCE_NAME=prod drey respond`,
	RunE: runRespond,
}

func init() {
	respondCmd.Flags().IntVar(&respondPollIntervalMs, "poll-interval-ms", 0, "Override the pending-request poll interval")
	rootCmd.AddCommand(respondCmd)
}

func runRespond(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	store, cfg, err := connectStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	interval := cfg.PollInterval()
	if respondPollIntervalMs > 0 {
		interval = time.Duration(respondPollIntervalMs) * time.Millisecond
	}

	prompter := responder.NewTerminalPrompter(os.Stdin)
	loop := responder.New(store, prompter, interval)

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() {
		done <- loop.Run(loopCtx)
	}()

	select {
	case sig := <-sigChan:
		printer.Info("\nReceived %v, shutting down\n", sig)
		cancel()
		<-done
		return nil
	case err := <-done:
		if err != nil && err != context.Canceled {
			return err
		}
		return nil
	}
}
