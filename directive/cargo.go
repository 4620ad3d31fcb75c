package directive

import (
	"bytes"
	"fmt"
	"io"

	"github.com/teranos/mithras-link/errors"
	"github.com/teranos/mithras-link/linkcfg"
)

// CargoEmitter prints cargo build-script instructions, one per line:
//
//	cargo:rustc-link-arg=/repo/ffi/mithras.a
//	cargo:rustc-link-lib=framework=CoreFoundation
//	cargo:rerun-if-changed=/repo/ffi/mithras.a
//
// Cargo applies no platform filter of its own, so directives restricted to
// other platforms must already have been dropped by linkcfg.Configure.
type CargoEmitter struct{}

// Emit implements Emitter
func (CargoEmitter) Emit(w io.Writer, plan *linkcfg.Plan) error {
	if err := checkPlan(plan); err != nil {
		return err
	}
	return render(w, func(buf *bytes.Buffer) error {
		for _, d := range plan.Directives {
			line, err := cargoLine(d)
			if err != nil {
				return err
			}
			fmt.Fprintln(buf, line)
		}
		return nil
	})
}

func cargoLine(d linkcfg.Directive) (string, error) {
	switch d.Kind {
	case linkcfg.KindLinkArg:
		return "cargo:rustc-link-arg=" + d.Value, nil
	case linkcfg.KindLinkFramework:
		return "cargo:rustc-link-lib=framework=" + d.Value, nil
	case linkcfg.KindRerunIfChanged:
		return "cargo:rerun-if-changed=" + d.Value, nil
	default:
		return "", errors.AssertionFailedf("unhandled directive kind %q", d.Kind)
	}
}
