package responder

import (
	"bufio"
	"io"
	"strings"

	"github.com/dyluth/drey/internal/printer"
)

// TerminalPrompter reads operator replies line by line from a terminal.
type TerminalPrompter struct {
	reader *bufio.Reader
}

// NewTerminalPrompter creates a prompter reading from the given stream,
// typically os.Stdin.
func NewTerminalPrompter(in io.Reader) *TerminalPrompter {
	return &TerminalPrompter{reader: bufio.NewReader(in)}
}

// ReadText reads the free-form reply. A trailing backslash continues the
// reply on the next line; EOF ends the reply with whatever was collected.
func (p *TerminalPrompter) ReadText() (string, error) {
	var lines []string

	for {
		printer.Printf("> ")
		line, err := p.reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")

		if strings.HasSuffix(line, "\\") {
			lines = append(lines, strings.TrimSuffix(line, "\\"))
			if err != nil {
				break
			}
			continue
		}

		lines = append(lines, line)
		if err != nil && err != io.EOF {
			return "", err
		}
		break
	}

	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

// ReadAttachmentPaths asks for optional image paths, comma-separated.
// An empty line skips attachments.
func (p *TerminalPrompter) ReadAttachmentPaths() ([]string, error) {
	printer.Println("Attachments (optional): image paths, comma-separated; Enter to skip")
	printer.Printf("> ")

	line, err := p.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}

	return ParseAttachmentInput(strings.TrimRight(line, "\r\n")), nil
}
