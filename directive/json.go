package directive

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/teranos/mithras-link/errors"
	"github.com/teranos/mithras-link/linkcfg"
)

// JSONEmitter writes the plan as an indented JSON document
type JSONEmitter struct{}

// Emit implements Emitter
func (JSONEmitter) Emit(w io.Writer, plan *linkcfg.Plan) error {
	if err := checkPlan(plan); err != nil {
		return err
	}
	return render(w, func(buf *bytes.Buffer) error {
		enc := json.NewEncoder(buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(plan); err != nil {
			return errors.Wrap(err, "failed to marshal plan")
		}
		return nil
	})
}
