// Package extractor finds annotated entry points in Go source.
//
// A function becomes an entry point when its doc comment carries a
// `//middle:fn` or `//middle:workflow` directive. The remaining doc text is
// its description.
package extractor

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/middle-dev/middle-sdk/application/entry"
	"github.com/middle-dev/middle-sdk/domain/errors"
)

// Directives recognized in doc comments.
const (
	DirectiveFunction = "//middle:fn"
	DirectiveWorkflow = "//middle:workflow"
)

// Function is an annotated function and where it was declared.
type Function struct {
	Descriptor entry.Descriptor
	Pos        token.Position
}

// Package is the result of extracting one package.
type Package struct {
	Name      string
	Functions []Function
}

// Descriptors returns the descriptors in declaration order.
func (p *Package) Descriptors() []entry.Descriptor {
	out := make([]entry.Descriptor, len(p.Functions))
	for i, fn := range p.Functions {
		out[i] = fn.Descriptor
	}
	return out
}

// SourceExtractor extracts entry point descriptors from Go files.
type SourceExtractor struct {
	skip func(filename string) bool
}

// SourceExtractorOption configures the SourceExtractor.
type SourceExtractorOption func(*SourceExtractor)

// WithSkip excludes files for which skip returns true, such as previously
// generated output. Test files are always excluded.
func WithSkip(skip func(filename string) bool) SourceExtractorOption {
	return func(e *SourceExtractor) {
		e.skip = skip
	}
}

// NewSourceExtractor creates a new SourceExtractor.
func NewSourceExtractor(opts ...SourceExtractorOption) *SourceExtractor {
	e := &SourceExtractor{skip: func(string) bool { return false }}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractDir reads the Go files of dir.
func (e *SourceExtractor) ExtractDir(dir string) (*Package, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.go"))
	if err != nil {
		return nil, err
	}

	files := make(map[string][]byte)
	for _, path := range matches {
		if e.excluded(filepath.Base(path)) {
			continue
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		files[path] = src
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no Go files in %s", dir)
	}
	return e.Extract(files)
}

// Extract parses the given sources, keyed by file name, which must form a
// single package. Functions are validated and checked for export
// collisions; the first violation is returned as a *errors.SynthesisError.
func (e *SourceExtractor) Extract(files map[string][]byte) (*Package, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		if !e.excluded(filepath.Base(name)) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	fset := token.NewFileSet()
	pkg := &Package{}
	for _, name := range names {
		f, err := parser.ParseFile(fset, name, files[name], parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		switch {
		case pkg.Name == "":
			pkg.Name = f.Name.Name
		case pkg.Name != f.Name.Name:
			return nil, fmt.Errorf("found packages %s and %s in %s", pkg.Name, f.Name.Name, name)
		}

		for _, decl := range f.Decls {
			fd, ok := decl.(*ast.FuncDecl)
			if !ok {
				continue
			}
			kind, ok := directive(fd.Doc)
			if !ok {
				continue
			}
			desc, err := describe(fd, kind)
			if err != nil {
				return nil, err
			}
			if err := entry.Validate(desc); err != nil {
				return nil, err
			}
			pkg.Functions = append(pkg.Functions, Function{Descriptor: desc, Pos: fset.Position(fd.Pos())})
		}
	}

	if err := entry.CheckCollisions(pkg.Descriptors()); err != nil {
		return nil, err
	}
	return pkg, nil
}

func (e *SourceExtractor) excluded(base string) bool {
	return strings.HasSuffix(base, "_test.go") || e.skip(base)
}

// directive reports the kind requested by a doc comment, if any.
func directive(doc *ast.CommentGroup) (entry.Kind, bool) {
	if doc == nil {
		return 0, false
	}
	for _, c := range doc.List {
		switch strings.TrimSpace(c.Text) {
		case DirectiveFunction:
			return entry.KindFunction, true
		case DirectiveWorkflow:
			return entry.KindWorkflow, true
		}
	}
	return 0, false
}

// describe builds the descriptor of fd from syntax alone.
func describe(fd *ast.FuncDecl, kind entry.Kind) (entry.Descriptor, error) {
	desc := entry.Descriptor{
		Name: fd.Name.Name,
		Kind: kind,
		// Text drops directive lines such as //middle:fn.
		Description: strings.TrimSpace(fd.Doc.Text()),
	}

	if fd.Type.TypeParams != nil && len(fd.Type.TypeParams.List) > 0 {
		return desc, &errors.SynthesisError{Function: desc.Name, Err: errors.ErrUnsupportedParam, Detail: "type parameters"}
	}

	if fd.Recv != nil {
		desc.Params = append(desc.Params, entry.Param{Kind: entry.ParamReceiver})
	}

	for i, field := range fd.Type.Params.List {
		if isContext(field.Type) {
			// Only a single leading context is injected.
			if i > 0 || len(field.Names) > 1 {
				return desc, &errors.SynthesisError{Function: desc.Name, Err: errors.ErrUnsupportedParam, Detail: "context.Context after the first parameter"}
			}
			continue
		}
		if _, variadic := field.Type.(*ast.Ellipsis); variadic || len(field.Names) == 0 {
			desc.Params = append(desc.Params, entry.Param{Kind: entry.ParamPattern})
			continue
		}
		for _, name := range field.Names {
			desc.Params = append(desc.Params, entry.Param{Name: name.Name, Kind: entry.ParamNamed})
		}
	}

	if fd.Type.Results != nil {
		for _, field := range fd.Type.Results.List {
			expr := types.ExprString(field.Type)
			n := len(field.Names)
			if n == 0 {
				n = 1
			}
			for j := 0; j < n; j++ {
				desc.Results = append(desc.Results, expr)
			}
		}
	}
	return desc, nil
}

// isContext matches the context.Context selector.
func isContext(expr ast.Expr) bool {
	sel, ok := expr.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	pkg, ok := sel.X.(*ast.Ident)
	return ok && pkg.Name == "context" && sel.Sel.Name == "Context"
}
