package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dyluth/drey/internal/inspect"
	"github.com/dyluth/drey/internal/printer"
	"github.com/dyluth/drey/internal/resolver"
)

var showCmd = &cobra.Command{
	Use:   "show REQUEST_ID",
	Short: "Show one request in full",
	Long: `Display the complete details of a single request as pretty-printed
JSON, including its response if one has been written.

REQUEST_ID may be a full token or a unique prefix of at least 4 characters;
the "req_" prefix is optional.

Examples:
  # Inspect a request
  drey show req_a1b2c3d4e5f6

  # Same request by short prefix
  drey show a1b2

  # Extract just the response text
  drey show req_a1b2c3d4e5f6 | jq -r '.response.body.text'`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	store, _, err := connectStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	requestID, err := resolver.ResolveRequestID(ctx, store, args[0])
	if err != nil {
		if resolver.IsNotFoundError(err) {
			return printer.Error(
				fmt.Sprintf("request '%s' not found", args[0]),
				"No request matching that ID exists in the store.",
				[]string{"List all requests:\n  drey list"},
			)
		}
		var ambiguous *resolver.AmbiguousError
		if errors.As(err, &ambiguous) {
			fmt.Fprintln(os.Stderr, resolver.FormatAmbiguousError(ambiguous))
			return fmt.Errorf("ambiguous request ID '%s'", args[0])
		}
		return err
	}

	if err := inspect.GetRequest(ctx, store, requestID, os.Stdout); err != nil {
		if inspect.IsNotFound(err) {
			return printer.Error(
				fmt.Sprintf("request '%s' not found", requestID),
				"No request with that ID exists in the store.",
				[]string{"List all requests:\n  drey list"},
			)
		}
		return fmt.Errorf("failed to show request: %w", err)
	}

	return nil
}
