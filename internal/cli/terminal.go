package cli

import (
	"os"

	"github.com/aretw0/pricebot/internal/presentation/tui"
	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// RendererFor picks glamour output for terminals and plain text otherwise,
// so piped chats stay greppable.
func RendererFor(f *os.File) tui.Renderer {
	if !IsTerminal(f) {
		return tui.Plain
	}
	width := 0
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
		width = min(w, 100)
	}
	render, err := tui.NewRenderer(width)
	if err != nil {
		return tui.Plain
	}
	return render
}
