package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"github.com/teranos/mithras-link/errors"
)

// PrintError writes err and its hints for a human reader. Colour is only
// used when w is a terminal.
func PrintError(w io.Writer, err error) {
	if err == nil {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %v\n", pterm.Red("Error:"), err)
	for _, hint := range errors.GetAllHints(err) {
		fmt.Fprintf(&b, "  %s %s\n", pterm.Yellow("Hint:"), hint)
	}
	io.WriteString(w, Styled(w, b.String()))
}

// PrintSuccess writes a one-line success message
func PrintSuccess(w io.Writer, format string, args ...interface{}) {
	line := fmt.Sprintf("%s %s\n", pterm.LightGreen("✓"), fmt.Sprintf(format, args...))
	io.WriteString(w, Styled(w, line))
}
