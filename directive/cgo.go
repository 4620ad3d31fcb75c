package directive

import (
	"bytes"
	"fmt"
	"go/token"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/kballard/go-shellquote"
	"golang.org/x/tools/imports"

	"github.com/teranos/mithras-link/errors"
	"github.com/teranos/mithras-link/linkcfg"
)

// DefaultCgoPackage is the package clause of generated files
const DefaultCgoPackage = "mithras"

// AbsentFingerprint marks an archive that does not exist yet. The linker
// reports the missing file; generation still succeeds.
const AbsentFingerprint = "absent"

// FingerprintFunc summarises a file's content
type FingerprintFunc func(path string) (string, error)

// CgoOptions configure the generated Go file
type CgoOptions struct {
	// Package is the package clause (DefaultCgoPackage when empty)
	Package string
	// SrcDir is the directory the generated file is written to
	SrcDir string
	// RelativeToSrcDir references the archive as ${SRCDIR}/<relative path>
	// instead of by absolute path. Requires SrcDir.
	RelativeToSrcDir bool
	// Fingerprint defaults to FileFingerprint
	Fingerprint FingerprintFunc
}

// CgoEmitter generates a Go source file whose cgo preamble links the archive:
//
//	#cgo LDFLAGS: /repo/ffi/mithras.a
//	#cgo LDFLAGS: -framework CoreFoundation
//
// Go's build cache does not notice a changed archive referenced from LDFLAGS,
// so the rerun trigger is expressed as a constant holding the archive
// fingerprint: new archive content changes the file, which recompiles the
// package and relinks its dependents.
type CgoEmitter struct {
	opts CgoOptions
}

// NewCgoEmitter fills option defaults
func NewCgoEmitter(opts CgoOptions) *CgoEmitter {
	if opts.Package == "" {
		opts.Package = DefaultCgoPackage
	}
	if opts.Fingerprint == nil {
		opts.Fingerprint = FileFingerprint
	}
	return &CgoEmitter{opts: opts}
}

// Emit implements Emitter
func (e *CgoEmitter) Emit(w io.Writer, plan *linkcfg.Plan) error {
	if err := checkPlan(plan); err != nil {
		return err
	}
	if !token.IsIdentifier(e.opts.Package) {
		return errors.NewInvalidRequestError("invalid cgo package name %q", e.opts.Package)
	}

	return render(w, func(buf *bytes.Buffer) error {
		var ldflags, fingerprints []string
		for _, d := range plan.Directives {
			switch d.Kind {
			case linkcfg.KindLinkArg:
				arg, err := e.archiveArg(d.Value)
				if err != nil {
					return err
				}
				ldflags = append(ldflags, cgoLine(d.Platforms, arg))
			case linkcfg.KindLinkFramework:
				ldflags = append(ldflags, cgoLine(d.Platforms, "-framework "+shellquote.Join(d.Value)))
			case linkcfg.KindRerunIfChanged:
				fp, err := e.opts.Fingerprint(d.Value)
				if err != nil {
					return errors.Wrapf(err, "failed to fingerprint %s", d.Value)
				}
				fingerprints = append(fingerprints, fp)
			default:
				return errors.AssertionFailedf("unhandled directive kind %q", d.Kind)
			}
		}

		src := generateSource(e.opts.Package, ldflags, fingerprints)
		formatted, err := imports.Process(linkcfg.ArtifactName+".go", src, &imports.Options{
			Comments:   true,
			TabIndent:  true,
			TabWidth:   8,
			FormatOnly: true,
		})
		if err != nil {
			return errors.Wrap(err, "failed to format generated source")
		}
		buf.Write(formatted)
		return nil
	})
}

// archiveArg renders the archive path as a single LDFLAGS word
func (e *CgoEmitter) archiveArg(path string) (string, error) {
	if !e.opts.RelativeToSrcDir {
		return shellquote.Join(path), nil
	}
	if e.opts.SrcDir == "" {
		return "", errors.NewInvalidRequestError("relative archive path needs the output directory")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve %s", path)
	}
	absDir, err := filepath.Abs(e.opts.SrcDir)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve %s", e.opts.SrcDir)
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return "", errors.Wrapf(err, "archive %s is not reachable from %s", absPath, absDir)
	}
	return "${SRCDIR}/" + shellquote.Join(filepath.ToSlash(rel)), nil
}

// cgoLine builds one #cgo directive. Space-separated platforms are OR'd by cgo.
func cgoLine(platforms []string, flags string) string {
	if len(platforms) == 0 {
		return "#cgo LDFLAGS: " + flags
	}
	return fmt.Sprintf("#cgo %s LDFLAGS: %s", strings.Join(platforms, " "), flags)
}

func generateSource(pkg string, ldflags, fingerprints []string) []byte {
	var b bytes.Buffer
	b.WriteString("// Code generated by mithras-link. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", pkg)
	b.WriteString("/*\n")
	for _, line := range ldflags {
		b.WriteString(line + "\n")
	}
	b.WriteString("*/\n")
	b.WriteString("import \"C\"\n\n")
	b.WriteString("// artifactFingerprint changes with the linked archive's content.\n")
	fmt.Fprintf(&b, "const artifactFingerprint = %q\n", strings.Join(fingerprints, ","))
	return b.Bytes()
}

// FileFingerprint hashes a file with xxhash. A missing file yields
// AbsentFingerprint instead of an error.
func FileFingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return AbsentFingerprint, nil
	}
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("xxh64:%016x", h.Sum64()), nil
}
