package tui

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// Renderer turns bot markdown into terminal output.
type Renderer func(string) (string, error)

// NewRenderer returns a glamour renderer sized to width columns.
// Zero keeps glamour's default word wrap.
func NewRenderer(width int) (Renderer, error) {
	opts := []glamour.TermRendererOption{
		glamour.WithAutoStyle(),
	}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return r.Render, nil
}

// Plain returns the markdown unchanged.
func Plain(markdown string) (string, error) {
	return markdown + "\n", nil
}
