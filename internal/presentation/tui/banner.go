package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the pricebot banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{"            _          _           _   ", "#34d399"},
		{"  _ __  _ _(_)__ ___  | |__  ___  | |_ ", "#2dd4bf"},
		{" | '_ \\| '_| / _/ -_) | '_ \\/ _ \\ |  _|", "#22d3ee"},
		{" | .__/|_| |_\\__\\___| |_.__/\\___/  \\__|", "#38bdf8"},
		{" |_|                                   ", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  quotes for publisher domains  v"+version).Faint())
	fmt.Fprintln(w)
}
