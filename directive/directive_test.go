package directive

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/mithras-link/errors"
	"github.com/teranos/mithras-link/linkcfg"
)

func mustPlan(t *testing.T, root string, opts linkcfg.Options) *linkcfg.Plan {
	t.Helper()
	plan, err := linkcfg.Configure(root, opts)
	require.NoError(t, err)
	return plan
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestNew(t *testing.T) {
	for _, name := range Formats() {
		t.Run(name, func(t *testing.T) {
			e, err := New(Format(name), Options{})
			require.NoError(t, err)
			assert.NotNil(t, e)
		})
	}

	_, err := New("ninja", Options{})
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestCargoEmitter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CargoEmitter{}.Emit(&buf, mustPlan(t, "/repo/ffi", linkcfg.Options{})))

	assert.Equal(t, "cargo:rustc-link-arg=/repo/ffi/mithras.a\n"+
		"cargo:rustc-link-lib=framework=CoreFoundation\n"+
		"cargo:rerun-if-changed=/repo/ffi/mithras.a\n", buf.String())
}

func TestCargoEmitter_Idempotent(t *testing.T) {
	var first, second bytes.Buffer
	plan := mustPlan(t, "/repo/ffi", linkcfg.Options{})

	require.NoError(t, CargoEmitter{}.Emit(&first, plan))
	require.NoError(t, CargoEmitter{}.Emit(&second, plan))
	assert.Equal(t, first.String(), second.String())
}

func TestCargoEmitter_FrameworkOmittedForLinux(t *testing.T) {
	var buf bytes.Buffer
	plan := mustPlan(t, "/repo/ffi", linkcfg.Options{FrameworkPolicy: linkcfg.FrameworkTarget, TargetOS: "linux"})
	require.NoError(t, CargoEmitter{}.Emit(&buf, plan))

	assert.NotContains(t, buf.String(), "framework")
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
}

func TestCargoEmitter_UnknownKindWritesNothing(t *testing.T) {
	plan := mustPlan(t, "/repo/ffi", linkcfg.Options{})
	plan.Directives = append(plan.Directives, linkcfg.Directive{Kind: "rustc-env", Value: "X=1"})

	var buf bytes.Buffer
	err := CargoEmitter{}.Emit(&buf, plan)
	require.Error(t, err)
	assert.True(t, errors.IsAssertionFailure(err))
	assert.Empty(t, buf.String(), "no partial output")
}

func TestEmit_NilPlan(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, CargoEmitter{}.Emit(&buf, nil))
	assert.Error(t, JSONEmitter{}.Emit(&buf, nil))
	assert.Error(t, TextEmitter{}.Emit(&buf, nil))
	assert.Error(t, NewCgoEmitter(CgoOptions{}).Emit(&buf, nil))
	assert.Empty(t, buf.String())
}

func TestEmit_WriteFailure(t *testing.T) {
	err := CargoEmitter{}.Emit(failingWriter{}, mustPlan(t, "/repo/ffi", linkcfg.Options{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write directives")
}

func TestJSONEmitter(t *testing.T) {
	var buf bytes.Buffer
	plan := mustPlan(t, "/repo/ffi", linkcfg.Options{FrameworkPolicy: linkcfg.FrameworkTarget})
	require.NoError(t, JSONEmitter{}.Emit(&buf, plan))

	var got linkcfg.Plan
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, *plan, got)
	assert.Contains(t, buf.String(), `"kind": "link-framework"`)
	assert.Contains(t, buf.String(), `"platforms"`)
}

func TestTextEmitter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, TextEmitter{}.Emit(&buf, mustPlan(t, "/repo/ffi", linkcfg.Options{})))

	out := buf.String()
	assert.Contains(t, out, "/repo/ffi/mithras.a")
	assert.Contains(t, out, "CoreFoundation")
	assert.Contains(t, out, "rerun-if-changed")
	assert.Contains(t, out, "all")
	assert.NotContains(t, out, "\x1b[", "no colour codes outside a terminal")
}

func staticFingerprint(fp string) FingerprintFunc {
	return func(string) (string, error) { return fp, nil }
}

func TestCgoEmitter(t *testing.T) {
	var buf bytes.Buffer
	e := NewCgoEmitter(CgoOptions{Fingerprint: staticFingerprint("xxh64:00000000000000ff")})
	require.NoError(t, e.Emit(&buf, mustPlan(t, "/repo/ffi", linkcfg.Options{})))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "// Code generated by mithras-link. DO NOT EDIT.\n"))
	assert.Contains(t, out, "package mithras\n")
	assert.Contains(t, out, "#cgo LDFLAGS: /repo/ffi/mithras.a\n")
	assert.Contains(t, out, "#cgo LDFLAGS: -framework CoreFoundation\n")
	assert.Contains(t, out, "*/\nimport \"C\"\n")
	assert.Contains(t, out, `const artifactFingerprint = "xxh64:00000000000000ff"`)
}

func TestCgoEmitter_PlatformQualifiedFramework(t *testing.T) {
	var buf bytes.Buffer
	e := NewCgoEmitter(CgoOptions{Package: "ffi", Fingerprint: staticFingerprint(AbsentFingerprint)})
	plan := mustPlan(t, "/repo/ffi", linkcfg.Options{FrameworkPolicy: linkcfg.FrameworkTarget})
	require.NoError(t, e.Emit(&buf, plan))

	out := buf.String()
	assert.Contains(t, out, "package ffi\n")
	assert.Contains(t, out, "#cgo darwin ios LDFLAGS: -framework CoreFoundation\n")
	assert.Contains(t, out, `const artifactFingerprint = "absent"`)
}

func TestCgoEmitter_QuotesSpaces(t *testing.T) {
	var buf bytes.Buffer
	e := NewCgoEmitter(CgoOptions{Fingerprint: staticFingerprint(AbsentFingerprint)})
	require.NoError(t, e.Emit(&buf, mustPlan(t, "/my builds/ffi", linkcfg.Options{})))

	assert.NotContains(t, buf.String(), "#cgo LDFLAGS: /my builds/ffi/mithras.a\n")
	assert.Contains(t, buf.String(), "builds/ffi/mithras.a")
}

func TestCgoEmitter_RelativeToSrcDir(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "ffi")
	out := filepath.Join(base, "bindings")

	var buf bytes.Buffer
	e := NewCgoEmitter(CgoOptions{SrcDir: out, RelativeToSrcDir: true, Fingerprint: staticFingerprint(AbsentFingerprint)})
	require.NoError(t, e.Emit(&buf, mustPlan(t, root, linkcfg.Options{})))

	assert.Contains(t, buf.String(), "#cgo LDFLAGS: ${SRCDIR}/../ffi/mithras.a\n")
}

func TestCgoEmitter_RelativeNeedsSrcDir(t *testing.T) {
	var buf bytes.Buffer
	e := NewCgoEmitter(CgoOptions{RelativeToSrcDir: true, Fingerprint: staticFingerprint(AbsentFingerprint)})
	err := e.Emit(&buf, mustPlan(t, "/repo/ffi", linkcfg.Options{}))

	require.Error(t, err)
	assert.Empty(t, buf.String())
}

func TestCgoEmitter_InvalidPackage(t *testing.T) {
	var buf bytes.Buffer
	err := NewCgoEmitter(CgoOptions{Package: "not-a-name"}).Emit(&buf, mustPlan(t, "/repo/ffi", linkcfg.Options{}))
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestCgoEmitter_FingerprintFailure(t *testing.T) {
	var buf bytes.Buffer
	e := NewCgoEmitter(CgoOptions{Fingerprint: func(string) (string, error) {
		return "", errors.New("permission denied")
	}})
	err := e.Emit(&buf, mustPlan(t, "/repo/ffi", linkcfg.Options{}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fingerprint /repo/ffi/mithras.a")
	assert.Empty(t, buf.String())
}

func TestCgoEmitter_FingerprintTracksContent(t *testing.T) {
	root := t.TempDir()
	plan := mustPlan(t, root, linkcfg.Options{})
	e := NewCgoEmitter(CgoOptions{})

	generate := func() string {
		var buf bytes.Buffer
		require.NoError(t, e.Emit(&buf, plan))
		return buf.String()
	}

	missing := generate()
	assert.Contains(t, missing, `"absent"`)

	require.NoError(t, os.WriteFile(plan.Artifact, []byte("!<arch>\nv1"), 0o644))
	v1 := generate()
	assert.Contains(t, v1, `"xxh64:`)
	assert.Equal(t, v1, generate(), "unchanged archive, unchanged file")

	require.NoError(t, os.WriteFile(plan.Artifact, []byte("!<arch>\nv2"), 0o644))
	assert.NotEqual(t, v1, generate())
}

func TestFileFingerprint(t *testing.T) {
	dir := t.TempDir()

	fp, err := FileFingerprint(filepath.Join(dir, "mithras.a"))
	require.NoError(t, err)
	assert.Equal(t, AbsentFingerprint, fp)

	path := filepath.Join(dir, "mithras.a")
	require.NoError(t, os.WriteFile(path, []byte("archive"), 0o644))
	fp, err = FileFingerprint(path)
	require.NoError(t, err)
	assert.Regexp(t, `^xxh64:[0-9a-f]{16}$`, fp)
}
