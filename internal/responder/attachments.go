package responder

import (
	"encoding/base64"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/dyluth/drey/internal/printer"
	"github.com/dyluth/drey/pkg/rendezvous"
)

// ParseAttachmentInput splits a raw comma-separated path list as typed (or
// dragged) into a terminal: entries are trimmed and surrounding quotes are
// stripped. Empty entries are dropped.
func ParseAttachmentInput(raw string) []string {
	var paths []string
	for _, part := range strings.Split(raw, ",") {
		p := strings.TrimSpace(part)
		p = strings.Trim(p, `"'`)
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// CollectAttachments reads and encodes image files from the given paths.
// Files that are missing, unreadable, or not images are skipped with a
// warning rather than failing the whole reply.
func CollectAttachments(paths []string) []rendezvous.Attachment {
	var attachments []rendezvous.Attachment

	for _, p := range paths {
		path := expandHome(p)

		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			printer.Warning("Skipping missing file: %s\n", path)
			continue
		}

		mediaType := mime.TypeByExtension(filepath.Ext(path))
		if mediaType == "" {
			mediaType = "application/octet-stream"
		}
		// Strip any parameters mime returns, e.g. "; charset=utf-8"
		if i := strings.Index(mediaType, ";"); i >= 0 {
			mediaType = strings.TrimSpace(mediaType[:i])
		}

		if !strings.HasPrefix(mediaType, "image/") {
			printer.Warning("Skipping non-image file (%s): %s\n", mediaType, path)
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			printer.Warning("Failed to read %s: %v\n", path, err)
			continue
		}

		attachments = append(attachments, rendezvous.Attachment{
			MediaType: mediaType,
			Data:      base64.StdEncoding.EncodeToString(data),
		})
	}

	return attachments
}

// expandHome resolves a leading ~ against the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
