// Package payload interprets the optional structured payload an agent can
// attach to a request. The core protocol treats the payload as an opaque
// string; only here, at the human-facing boundary, does its sub-schema get
// parsed and rendered. A payload that fails to parse is reported and shown
// raw - it never blocks the wait protocol.
package payload

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Type discriminates the payload sub-schemas.
type Type string

const (
	// TypeChoice asks the human to pick one (or several) of fixed options
	TypeChoice Type = "choice"

	// TypeConfirm asks the human a yes/no question
	TypeConfirm Type = "confirm"

	// TypeForm asks the human to fill in named fields
	TypeForm Type = "form"
)

// Option is a single selectable entry in a choice payload.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Field is a single input in a form payload.
type Field struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
}

// Payload is the parsed structured request. Only the fields for its Type are
// populated.
type Payload struct {
	Type Type `json:"type"`

	// choice
	Options       []Option `json:"options,omitempty"`
	AllowMultiple bool     `json:"allow_multiple,omitempty"`

	// confirm
	Text         string `json:"text,omitempty"`
	ConfirmLabel string `json:"confirm_label,omitempty"`
	CancelLabel  string `json:"cancel_label,omitempty"`

	// form
	Fields []Field `json:"fields,omitempty"`
}

// Parse decodes and validates a raw payload string.
func Parse(raw string) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("failed to parse payload JSON: %w", err)
	}

	switch p.Type {
	case TypeChoice:
		if len(p.Options) == 0 {
			return nil, fmt.Errorf("choice payload must have at least one option")
		}
		for i, opt := range p.Options {
			if opt.ID == "" || opt.Label == "" {
				return nil, fmt.Errorf("choice option %d: id and label are required", i)
			}
		}

	case TypeConfirm:
		// text is recommended but not required; labels default on render

	case TypeForm:
		if len(p.Fields) == 0 {
			return nil, fmt.Errorf("form payload must have at least one field")
		}
		for i, f := range p.Fields {
			if f.ID == "" || f.Label == "" {
				return nil, fmt.Errorf("form field %d: id and label are required", i)
			}
		}

	default:
		return nil, fmt.Errorf("unknown payload type: %q", p.Type)
	}

	return &p, nil
}

// Render formats the payload as a plain-text block for terminal display.
func (p *Payload) Render() string {
	var sb strings.Builder

	switch p.Type {
	case TypeChoice:
		if p.AllowMultiple {
			sb.WriteString("Choose one or more:\n")
		} else {
			sb.WriteString("Choose one:\n")
		}
		for _, opt := range p.Options {
			fmt.Fprintf(&sb, "  [%s] %s\n", opt.ID, opt.Label)
		}

	case TypeConfirm:
		confirmLabel := p.ConfirmLabel
		if confirmLabel == "" {
			confirmLabel = "Confirm"
		}
		cancelLabel := p.CancelLabel
		if cancelLabel == "" {
			cancelLabel = "Cancel"
		}
		if p.Text != "" {
			fmt.Fprintf(&sb, "%s\n", p.Text)
		}
		fmt.Fprintf(&sb, "  [y] %s   [n] %s\n", confirmLabel, cancelLabel)

	case TypeForm:
		sb.WriteString("Please provide:\n")
		for _, f := range p.Fields {
			kind := f.Kind
			if kind == "" {
				kind = "text"
			}
			fmt.Fprintf(&sb, "  %s (%s): %s\n", f.ID, kind, f.Label)
		}
	}

	return sb.String()
}
