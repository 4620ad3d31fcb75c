package directive

import (
	"bytes"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"github.com/teranos/mithras-link/display"
	"github.com/teranos/mithras-link/errors"
	"github.com/teranos/mithras-link/linkcfg"
)

// TextEmitter renders the plan as a table for humans, styled only when
// writing to a terminal
type TextEmitter struct{}

// Emit implements Emitter
func (TextEmitter) Emit(w io.Writer, plan *linkcfg.Plan) error {
	if err := checkPlan(plan); err != nil {
		return err
	}
	return render(w, func(buf *bytes.Buffer) error {
		buf.WriteString(pterm.LightCyan("Build root: ") + plan.Root + "\n")
		buf.WriteString(pterm.LightCyan("Artifact:   ") + plan.Artifact + "\n\n")

		data := pterm.TableData{{"Directive", "Value", "Platforms"}}
		for _, d := range plan.Directives {
			platforms := "all"
			if len(d.Platforms) > 0 {
				platforms = strings.Join(d.Platforms, ", ")
			}
			data = append(data, []string{string(d.Kind), d.Value, platforms})
		}

		table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return errors.Wrap(err, "failed to render table")
		}
		buf.WriteString(table)
		buf.WriteString("\n")

		styled := display.Styled(w, buf.String())
		buf.Reset()
		buf.WriteString(styled)
		return nil
	})
}
