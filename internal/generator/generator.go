// Package generator writes the registration and export shims for the
// annotated functions of a guest package.
package generator

import (
	"embed"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/middle-dev/middle-sdk/application/entry"
	"github.com/middle-dev/middle-sdk/application/extractor"
	apptemplate "github.com/middle-dev/middle-sdk/application/template"
	"github.com/middle-dev/middle-sdk/domain/ports"
)

// Generated file names.
const (
	ExportsFile     = "middle_exports.go"
	WasmExportsFile = "middle_exports_wasip1.go"
)

//go:embed templates/*.tmpl
var templates embed.FS

// File is one generated source file.
type File struct {
	Name    string
	Content []byte
}

// Generator renders generated files through a template engine.
type Generator struct {
	engine    ports.TemplateEngine
	extractor *extractor.SourceExtractor
}

// Option configures a Generator.
type Option func(*Generator)

// WithTemplateEngine sets the template engine.
func WithTemplateEngine(t ports.TemplateEngine) Option {
	return func(g *Generator) {
		g.engine = t
	}
}

// New creates a Generator. Generated files are never read back as input.
func New(opts ...Option) *Generator {
	g := &Generator{
		engine: apptemplate.NewGoTemplateEngine(),
		extractor: extractor.NewSourceExtractor(extractor.WithSkip(func(name string) bool {
			return name == ExportsFile || name == WasmExportsFile
		})),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateDir extracts the package in dir and renders its files.
func (g *Generator) GenerateDir(dir string) ([]File, error) {
	pkg, err := g.extractor.ExtractDir(dir)
	if err != nil {
		return nil, err
	}
	return g.Generate(pkg)
}

// Generate renders the generated files of pkg, gofmt'ed.
func (g *Generator) Generate(pkg *extractor.Package) ([]File, error) {
	if len(pkg.Functions) == 0 {
		return nil, fmt.Errorf("package %s has no //middle:fn or //middle:workflow functions", pkg.Name)
	}

	data := newFileData(pkg)
	var files []File
	for _, f := range []struct{ name, tmpl string }{
		{ExportsFile, "templates/exports.go.tmpl"},
		{WasmExportsFile, "templates/exports_wasip1.go.tmpl"},
	} {
		text, err := templates.ReadFile(f.tmpl)
		if err != nil {
			return nil, err
		}
		out, err := g.engine.Render(f.name, string(text), data)
		if err != nil {
			return nil, err
		}
		src, err := format.Source(out)
		if err != nil {
			return nil, fmt.Errorf("generated %s does not compile: %w", f.name, err)
		}
		files = append(files, File{Name: f.name, Content: src})
	}
	return files, nil
}

// WriteFiles writes files into dir.
func WriteFiles(dir string, files []File) error {
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f.Name), f.Content, 0o644); err != nil { //nolint:gosec // source files are world-readable
			return fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
	}
	return nil
}

type fileData struct {
	Package   string
	Functions []fnData
}

type fnData struct {
	Name        string
	Description string
	Kind        string
	Params      []string
	Export      string
	InfoExport  string
	InvokeShim  string
	InfoShim    string
}

func newFileData(pkg *extractor.Package) fileData {
	data := fileData{Package: pkg.Name}
	for _, fn := range pkg.Functions {
		d := fn.Descriptor
		kind := "KindFunction"
		if d.Kind == entry.KindWorkflow {
			kind = "KindWorkflow"
		}
		params := make([]string, len(d.Params))
		for i, p := range d.Params {
			params[i] = strconv.Quote(p.Name)
		}
		suffix := strings.ToUpper(d.Name[:1]) + d.Name[1:]
		data.Functions = append(data.Functions, fnData{
			Name:        d.Name,
			Description: d.Description,
			Kind:        kind,
			Params:      params,
			Export:      d.ExportName(),
			InfoExport:  d.InfoExportName(),
			InvokeShim:  "middleInvoke" + suffix,
			InfoShim:    "middleInfo" + suffix,
		})
	}
	return data
}
