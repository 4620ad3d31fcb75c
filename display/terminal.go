package display

import (
	"io"
	"os"

	"github.com/pterm/pterm"
	"golang.org/x/term"
)

// IsTerminal reports whether w is an interactive terminal. Pipes, files and
// in-memory buffers are not; build tools capture build-script output that way.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Styled returns s unchanged for a terminal and with pterm colour codes
// removed for anything else
func Styled(w io.Writer, s string) string {
	if IsTerminal(w) {
		return s
	}
	return pterm.RemoveColorFromString(s)
}
