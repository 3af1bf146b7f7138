// Package entry turns ordinary Go functions into boundary entry points.
//
// Each registered function gets two exports: an invocation entry that decodes
// an Input Envelope, calls the function positionally and returns an encoded
// Output Envelope, and an introspection entry that returns its FnInfo. The
// same Validate rules run at build time in the generator and again at
// registration.
package entry

import (
	"fmt"
	"go/token"
	"regexp"
	"strings"

	"github.com/middle-dev/middle-sdk/domain/errors"
)

// Kind distinguishes plain functions from resumable workflows.
type Kind int

const (
	KindFunction Kind = iota
	KindWorkflow
)

func (k Kind) String() string {
	if k == KindWorkflow {
		return "workflow"
	}
	return "function"
}

// ParamKind classifies a parameter as it appeared in source.
type ParamKind int

const (
	// ParamNamed is a plain identifier parameter.
	ParamNamed ParamKind = iota
	// ParamReceiver is a method receiver.
	ParamReceiver
	// ParamPattern is anything that is not a usable name (unnamed or blank).
	ParamPattern
)

// Param is one user-visible parameter.
type Param struct {
	Name string
	Kind ParamKind
}

// Descriptor captures what synthesis needs to know about a function.
// An injected leading context.Context parameter is not listed in Params.
type Descriptor struct {
	Name        string
	Description string
	Kind        Kind
	Params      []Param
	// Results holds the result type expressions, e.g. "int" or
	// "resumable.Resumable[string]".
	Results []string
}

// Params is a shorthand for a list of named parameters.
func Params(names ...string) []Param {
	out := make([]Param, len(names))
	for i, n := range names {
		out[i] = Param{Name: n, Kind: ParamNamed}
	}
	return out
}

// Export name prefixes.
const (
	FunctionPrefix     = "user_fn__"
	FunctionInfoPrefix = "user_fn_info__"
	WorkflowPrefix     = "user_workflow__"
	WorkflowInfoPrefix = "user_workflow_info__"
)

// ReservedExports are names the runtime itself exports.
var ReservedExports = []string{"allocate", "release", "setup", "_initialize", "_start"}

// ExportName returns the invocation export for d.
func (d Descriptor) ExportName() string {
	if d.Kind == KindWorkflow {
		return WorkflowPrefix + toSnakeCase(d.Name)
	}
	return FunctionPrefix + toSnakeCase(d.Name)
}

// InfoExportName returns the introspection export for d.
func (d Descriptor) InfoExportName() string {
	if d.Kind == KindWorkflow {
		return WorkflowInfoPrefix + toSnakeCase(d.Name)
	}
	return FunctionInfoPrefix + toSnakeCase(d.Name)
}

// Validate applies the synthesis rules that only need the descriptor.
func Validate(d Descriptor) error {
	fail := func(err error, detail string) error {
		return &errors.SynthesisError{Function: d.Name, Err: err, Detail: detail}
	}

	if !token.IsIdentifier(d.Name) || d.Name == "_" {
		return fail(errors.ErrInvalidName, fmt.Sprintf("%q", d.Name))
	}

	seen := make(map[string]bool, len(d.Params))
	for i, p := range d.Params {
		switch {
		case p.Kind == ParamReceiver:
			return fail(errors.ErrReceiverParam, "")
		case p.Kind == ParamPattern, p.Name == "", p.Name == "_", !token.IsIdentifier(p.Name):
			return fail(errors.ErrUnsupportedParam, fmt.Sprintf("parameter %d", i))
		case seen[p.Name]:
			return fail(errors.ErrUnsupportedParam, fmt.Sprintf("duplicate parameter %q", p.Name))
		}
		seen[p.Name] = true
	}

	switch n := len(d.Results); {
	case n == 0:
		return fail(errors.ErrMissingReturn, "")
	case n > 2, n == 2 && d.Results[1] != "error":
		return fail(errors.ErrUnsupportedReturn, strings.Join(d.Results, ", "))
	}

	if d.Kind == KindWorkflow && (len(d.Results) != 1 || !IsResumableType(d.Results[0])) {
		return fail(errors.ErrWorkflowReturn, strings.Join(d.Results, ", "))
	}
	return nil
}

// IsResumableType reports whether a result type expression names
// resumable.Resumable[T], under any package qualifier.
func IsResumableType(expr string) bool {
	head, _, ok := strings.Cut(expr, "[")
	if !ok || !strings.HasSuffix(expr, "]") {
		return false
	}
	return head == "Resumable" || strings.HasSuffix(head, ".Resumable")
}

// CheckCollisions reports the first descriptor whose exports clash with a
// reserved export or an earlier descriptor.
func CheckCollisions(descs []Descriptor) error {
	used := make(map[string]string)
	for _, r := range ReservedExports {
		used[r] = "runtime"
	}
	for _, d := range descs {
		for _, name := range []string{d.ExportName(), d.InfoExportName()} {
			if owner, ok := used[name]; ok {
				return &errors.SynthesisError{
					Function: d.Name,
					Err:      errors.ErrNameCollision,
					Detail:   fmt.Sprintf("%s already exported by %s", name, owner),
				}
			}
			used[name] = d.Name
		}
	}
	return nil
}

var (
	matchFirstCap = regexp.MustCompile("(.)([A-Z][a-z]+)")
	matchAllCap   = regexp.MustCompile("([a-z0-9])([A-Z])")
)

// toSnakeCase converts PascalCase to snake_case.
func toSnakeCase(str string) string {
	snake := matchFirstCap.ReplaceAllString(str, "${1}_${2}")
	snake = matchAllCap.ReplaceAllString(snake, "${1}_${2}")
	return strings.ToLower(snake)
}
