// Package directive renders a linkcfg.Plan in the vocabulary of a build tool.
//
// Every emitter renders into memory first and writes only when rendering
// succeeded, so a failed run never leaves half a set of directives behind.
package directive

import (
	"bytes"
	"io"
	"sort"

	"github.com/teranos/mithras-link/errors"
	"github.com/teranos/mithras-link/linkcfg"
)

// Format names an output vocabulary
type Format string

const (
	FormatCargo Format = "cargo"
	FormatCgo   Format = "cgo"
	FormatJSON  Format = "json"
	FormatText  Format = "text"
)

// Emitter writes a plan for one build tool
type Emitter interface {
	Emit(w io.Writer, plan *linkcfg.Plan) error
}

// Options configure the emitters that need more than the plan
type Options struct {
	Cgo CgoOptions
}

// New returns the emitter for format
func New(format Format, opts Options) (Emitter, error) {
	switch format {
	case FormatCargo:
		return CargoEmitter{}, nil
	case FormatCgo:
		return NewCgoEmitter(opts.Cgo), nil
	case FormatJSON:
		return JSONEmitter{}, nil
	case FormatText:
		return TextEmitter{}, nil
	default:
		return nil, errors.NewInvalidRequestError("unknown output format %q (want one of %v)", format, Formats())
	}
}

// Formats lists the supported format names, sorted
func Formats() []string {
	names := []string{string(FormatCargo), string(FormatCgo), string(FormatJSON), string(FormatText)}
	sort.Strings(names)
	return names
}

// render runs fn against a buffer and copies the result to w on success
func render(w io.Writer, fn func(buf *bytes.Buffer) error) error {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "failed to write directives")
	}
	return nil
}

func checkPlan(plan *linkcfg.Plan) error {
	if plan == nil {
		return errors.AssertionFailedf("nil plan")
	}
	return nil
}
