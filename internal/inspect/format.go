package inspect

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dyluth/drey/pkg/rendezvous"
)

// FormatTable writes requests as a formatted table to the provided writer.
// Columns: ID, STATUS, FROM, AGE, and PROMPT (truncated).
// Returns the number of requests formatted.
func FormatTable(w io.Writer, requests []*rendezvous.Request, instanceName string) int {
	if len(requests) == 0 {
		fmt.Fprintf(w, "No requests found for instance '%s'\n", instanceName)
		return 0
	}

	fmt.Fprintf(w, "Requests for instance '%s':\n\n", instanceName)

	fmt.Fprintf(w, "%-16s %-10s %-18s %-8s %s\n",
		"ID", "STATUS", "FROM", "AGE", "PROMPT")
	fmt.Fprintf(w, "%-16s %-10s %-18s %-8s %s\n",
		"----------------", "----------", "------------------", "--------", "----------------------------------------")

	for _, r := range requests {
		fmt.Fprintf(w, "%-16s %-10s %-18s %-8s %s\n",
			r.RequestID,
			string(r.Status),
			formatOrigin(r.OriginID),
			formatAge(r.CreatedAtMs),
			formatPrompt(r.Prompt),
		)
	}

	countMsg := "request"
	if len(requests) != 1 {
		countMsg = "requests"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(requests), countMsg)

	return len(requests)
}

// FormatJSONL writes requests as line-delimited JSON to the provided writer.
// Each request is a single JSON object on its own line, ready for jq.
func FormatJSONL(w io.Writer, requests []*rendezvous.Request) error {
	for _, req := range requests {
		data, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("failed to marshal request to JSON: %w", err)
		}

		if _, err := fmt.Fprintf(w, "%s\n", string(data)); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}

	return nil
}

// FormatDetailJSON writes one request detail as pretty-printed JSON.
func FormatDetailJSON(w io.Writer, detail *RequestDetail) error {
	data, err := json.MarshalIndent(detail, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal request to JSON: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}

	fmt.Fprintln(w)

	return nil
}

func formatOrigin(originID string) string {
	if originID == "" {
		return "-"
	}
	if len(originID) > 18 {
		return originID[:15] + "..."
	}
	return originID
}

// formatAge renders the request's age in a compact human form.
func formatAge(createdAtMs int64) string {
	age := time.Since(time.UnixMilli(createdAtMs))

	switch {
	case age < 0:
		return "0s"
	case age < time.Minute:
		return fmt.Sprintf("%ds", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd", int(age.Hours()/24))
	}
}

// formatPrompt truncates the prompt to its first line, max 40 characters.
func formatPrompt(prompt string) string {
	if prompt == "" {
		return "-"
	}

	var firstLine string
	for _, line := range strings.Split(prompt, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			firstLine = trimmed
			break
		}
	}

	if len(firstLine) > 40 {
		return firstLine[:37] + "..."
	}
	return firstLine
}
