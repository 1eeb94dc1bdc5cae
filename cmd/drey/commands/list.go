package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dyluth/drey/internal/inspect"
	"github.com/dyluth/drey/internal/printer"
	"github.com/dyluth/drey/internal/timespec"
	"github.com/dyluth/drey/pkg/rendezvous"
)

var (
	listOutputFormat string
	listStatus       string
	listOrigin       string
	listSince        string
	listUntil        string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored requests",
	Long: `Display all requests in the store, oldest first.

Output Formats:
  default - Human-readable table with ID, status, origin, age, and prompt
  jsonl   - Line-delimited JSON of complete request objects

Examples:
  # List all requests in table format
  drey list

  # Only requests still waiting for an answer
  drey list --status pending

  # Only requests from one agent
  drey list --origin calm-otter-42

  # Requests created in the last half hour
  drey list --since 30m

  # Feed request IDs into other tools
  drey list --output=jsonl | jq -r '.request_id'`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listOutputFormat, "output", "o", "default", "Output format: default or jsonl")
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status: pending, completed, or cancelled")
	listCmd.Flags().StringVar(&listOrigin, "origin", "", "Filter by requesting agent identity")
	listCmd.Flags().StringVar(&listSince, "since", "", "Only requests created after this time (duration like '1h' or RFC3339)")
	listCmd.Flags().StringVar(&listUntil, "until", "", "Only requests created before this time (duration like '1h' or RFC3339)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var outputFormat inspect.OutputFormat
	switch listOutputFormat {
	case "default":
		outputFormat = inspect.OutputFormatDefault
	case "jsonl":
		outputFormat = inspect.OutputFormatJSONL
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", listOutputFormat),
			[]string{"Valid formats: default, jsonl"},
		)
	}

	sinceMs, untilMs, err := timespec.ParseRange(listSince, listUntil)
	if err != nil {
		return printer.Error(
			"invalid time range",
			err.Error(),
			[]string{"Use a duration like '1h30m' or an RFC3339 timestamp"},
		)
	}

	filters := &inspect.FilterCriteria{
		OriginID:         listOrigin,
		SinceTimestampMs: sinceMs,
		UntilTimestampMs: untilMs,
	}
	if listStatus != "" {
		status := rendezvous.RequestStatus(listStatus)
		if err := status.Validate(); err != nil {
			return printer.Error(
				"invalid status filter",
				fmt.Sprintf("Unknown status: %s", listStatus),
				[]string{"Valid statuses: pending, completed, cancelled"},
			)
		}
		filters.Status = status
	}

	store, _, err := connectStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	return inspect.ListRequests(ctx, store, outputFormat, filters, os.Stdout)
}
