// Package linkcfg computes the linker directives needed to link a binary
// against the prebuilt mithras.a archive.
//
// The build root is always passed in explicitly. Nothing here reads the
// process environment or touches the filesystem; callers inject a
// LookupFunc (see env.go) and decide where the directives go.
//
// Usage:
//
//	plan, err := linkcfg.Configure("/repo/ffi", linkcfg.Options{})
//	if err != nil {
//	    return err
//	}
//	for _, d := range plan.Directives {
//	    fmt.Println(d.Kind, d.Value)
//	}
package linkcfg

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/teranos/mithras-link/errors"
)

const (
	// ArtifactName is the file name of the prebuilt archive inside the build root
	ArtifactName = "mithras.a"

	// Framework is the system framework the archive depends on
	Framework = "CoreFoundation"

	// RootEnvVar is the variable Cargo sets to the package directory of a build script
	RootEnvVar = "CARGO_MANIFEST_DIR"
)

// FrameworkPlatforms lists the GOOS / target_os values that provide Framework
var FrameworkPlatforms = []string{"darwin", "ios"}

// Kind identifies a linker directive
type Kind string

const (
	// KindLinkArg passes a raw argument (the archive path) to the linker
	KindLinkArg Kind = "link-arg"
	// KindLinkFramework links a named system framework
	KindLinkFramework Kind = "link-framework"
	// KindRerunIfChanged invalidates cached build output when the path changes
	KindRerunIfChanged Kind = "rerun-if-changed"
)

// Directive is one instruction for the build tool
type Directive struct {
	Kind  Kind   `json:"kind"`
	Value string `json:"value"`
	// Platforms restricts the directive to these target OSes. Empty means all.
	Platforms []string `json:"platforms,omitempty"`
}

// FrameworkPolicy decides when the framework directive is emitted
type FrameworkPolicy string

const (
	// FrameworkAlways emits the framework directive unconditionally
	FrameworkAlways FrameworkPolicy = "always"
	// FrameworkTarget restricts the framework directive to FrameworkPlatforms
	FrameworkTarget FrameworkPolicy = "target"
)

// ParseFrameworkPolicy validates a policy name. Empty selects FrameworkAlways.
func ParseFrameworkPolicy(s string) (FrameworkPolicy, error) {
	switch FrameworkPolicy(s) {
	case "", FrameworkAlways:
		return FrameworkAlways, nil
	case FrameworkTarget:
		return FrameworkTarget, nil
	default:
		return "", errors.NewInvalidRequestError("unknown framework policy %q (want %q or %q)",
			s, FrameworkAlways, FrameworkTarget)
	}
}

// Options tune Configure. The zero value reproduces the unconditional behavior.
type Options struct {
	FrameworkPolicy FrameworkPolicy
	// TargetOS is the OS being linked for. Only consulted under FrameworkTarget;
	// empty means unknown, in which case the directive is kept with its
	// platform restriction so the build tool can apply it.
	TargetOS string
}

// Plan is the result of one Configure run
type Plan struct {
	Root       string      `json:"root"`
	Artifact   string      `json:"artifact"`
	Directives []Directive `json:"directives"`
}

// ArtifactPath returns the archive location for a build root. The root is
// kept as given: cleaning "link/../ffi" would change the result when link is
// a symlink.
func ArtifactPath(root string) string {
	if root != "" && os.IsPathSeparator(root[len(root)-1]) {
		return root + ArtifactName
	}
	return root + string(filepath.Separator) + ArtifactName
}

// Configure resolves the archive under root and returns the directives that
// link it. An empty root fails with errors.ErrConfiguration and no plan.
func Configure(root string, opts Options) (*Plan, error) {
	if root == "" {
		return nil, missingRootError(RootEnvVar)
	}

	policy, err := ParseFrameworkPolicy(string(opts.FrameworkPolicy))
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfiguration, err.Error())
	}

	artifact := ArtifactPath(root)
	plan := &Plan{
		Root:     root,
		Artifact: artifact,
	}

	plan.Directives = append(plan.Directives, Directive{Kind: KindLinkArg, Value: artifact})
	if fw, ok := frameworkDirective(policy, opts.TargetOS); ok {
		plan.Directives = append(plan.Directives, fw)
	}
	plan.Directives = append(plan.Directives, Directive{Kind: KindRerunIfChanged, Value: artifact})

	return plan, nil
}

// frameworkDirective builds the framework directive, reporting false when the
// policy excludes it for targetOS
func frameworkDirective(policy FrameworkPolicy, targetOS string) (Directive, bool) {
	d := Directive{Kind: KindLinkFramework, Value: Framework}
	if policy == FrameworkAlways {
		return d, true
	}

	if targetOS != "" && !slices.Contains(FrameworkPlatforms, targetOS) {
		return Directive{}, false
	}
	d.Platforms = slices.Clone(FrameworkPlatforms)
	return d, true
}

// Filter returns the directives of the given kind, in plan order
func (p *Plan) Filter(kind Kind) []Directive {
	var out []Directive
	for _, d := range p.Directives {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

func missingRootError(name string) error {
	err := errors.Wrapf(errors.ErrConfiguration, "required build-root variable %s not set", name)
	return errors.WithHintf(err,
		"%s must name the directory that contains %s; build scripts get it from the build tool, "+
			"manual runs can export it or pass --env-file", name, ArtifactName)
}
