package extractor_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/middle-dev/middle-sdk/application/entry"
	"github.com/middle-dev/middle-sdk/application/extractor"
	domainerrors "github.com/middle-dev/middle-sdk/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mathSource = `package demo

import (
	"context"

	"github.com/middle-dev/middle-sdk/resumable"
)

// AddOne adds one to x.
//
//middle:fn
func AddOne(x int) int { return x + 1 }

// Fetch reads a page.
//middle:fn
func Fetch(ctx context.Context, url string, retries *int) (string, error) { return "", nil }

//middle:workflow
func Onboard(ctx context.Context) resumable.Resumable[string] { return resumable.Ready("") }

// helper is not exported to the host.
func helper() {}
`

func TestExtract(t *testing.T) {
	pkg, err := extractor.NewSourceExtractor().Extract(map[string][]byte{"math.go": []byte(mathSource)})
	require.NoError(t, err)

	assert.Equal(t, "demo", pkg.Name)
	require.Len(t, pkg.Functions, 3)

	assert.Equal(t, entry.Descriptor{
		Name:        "AddOne",
		Description: "AddOne adds one to x.",
		Kind:        entry.KindFunction,
		Params:      entry.Params("x"),
		Results:     []string{"int"},
	}, pkg.Functions[0].Descriptor)
	assert.Equal(t, "math.go", pkg.Functions[0].Pos.Filename)
	assert.Equal(t, 12, pkg.Functions[0].Pos.Line)

	fetch := pkg.Functions[1].Descriptor
	assert.Equal(t, entry.Params("url", "retries"), fetch.Params, "the context parameter is injected, not bound")
	assert.Equal(t, []string{"string", "error"}, fetch.Results)

	onboard := pkg.Functions[2].Descriptor
	assert.Equal(t, entry.KindWorkflow, onboard.Kind)
	assert.Empty(t, onboard.Description)
	assert.Equal(t, []string{"resumable.Resumable[string]"}, onboard.Results)
}

func TestExtract_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr error
	}{
		{
			name:    "method",
			src:     "type T struct{}\n//middle:fn\nfunc (T) M(x int) int { return x }",
			wantErr: domainerrors.ErrReceiverParam,
		},
		{
			name:    "no result",
			src:     "//middle:fn\nfunc Log(msg string) {}",
			wantErr: domainerrors.ErrMissingReturn,
		},
		{
			name:    "unnamed parameter",
			src:     "//middle:fn\nfunc F(int) int { return 0 }",
			wantErr: domainerrors.ErrUnsupportedParam,
		},
		{
			name:    "blank parameter",
			src:     "//middle:fn\nfunc F(_ int) int { return 0 }",
			wantErr: domainerrors.ErrUnsupportedParam,
		},
		{
			name:    "variadic",
			src:     "//middle:fn\nfunc F(xs ...int) int { return 0 }",
			wantErr: domainerrors.ErrUnsupportedParam,
		},
		{
			name:    "generic",
			src:     "//middle:fn\nfunc F[T any](x T) T { return x }",
			wantErr: domainerrors.ErrUnsupportedParam,
		},
		{
			name:    "grouped contexts",
			src:     "//middle:fn\nfunc F(ctx, other context.Context) int { return 0 }",
			wantErr: domainerrors.ErrUnsupportedParam,
		},
		{
			name:    "trailing context",
			src:     "//middle:fn\nfunc F(x int, ctx context.Context) int { return x }",
			wantErr: domainerrors.ErrUnsupportedParam,
		},
		{
			name: "leading context",
			src:  "//middle:fn\nfunc F(ctx context.Context, x int) int { return x }",
		},
		{
			name:    "bad second result",
			src:     "//middle:fn\nfunc F() (int, bool) { return 0, false }",
			wantErr: domainerrors.ErrUnsupportedReturn,
		},
		{
			name:    "workflow without resumable",
			src:     "//middle:workflow\nfunc F() int { return 0 }",
			wantErr: domainerrors.ErrWorkflowReturn,
		},
		{
			name:    "collision",
			src:     "//middle:fn\nfunc AddOne(x int) int { return x }\n//middle:fn\nfunc addOne(x int) int { return x }",
			wantErr: domainerrors.ErrNameCollision,
		},
		{
			name: "runtime export names are prefixed",
			src:  "//middle:fn\nfunc Setup() int { return 0 }",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extractor.NewSourceExtractor().Extract(map[string][]byte{
				"f.go": []byte("package p\n\n" + tt.src + "\n"),
			})
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			var synth *domainerrors.SynthesisError
			require.ErrorAs(t, err, &synth)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExtract_MixedPackages(t *testing.T) {
	_, err := extractor.NewSourceExtractor().Extract(map[string][]byte{
		"a.go": []byte("package a\n"),
		"b.go": []byte("package b\n"),
	})
	assert.ErrorContains(t, err, "found packages")
}

func TestExtract_SyntaxError(t *testing.T) {
	_, err := extractor.NewSourceExtractor().Extract(map[string][]byte{"a.go": []byte("package a\nfunc {")})
	assert.ErrorContains(t, err, "failed to parse a.go")
}

func TestExtractDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, src string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600))
	}
	write("math.go", mathSource)
	write("math_test.go", "package demo_test\n")
	write("middle_exports.go", "package demo\n//middle:fn\nfunc Stale(x int) int { return x }\n")

	e := extractor.NewSourceExtractor(extractor.WithSkip(func(name string) bool {
		return strings.HasPrefix(name, "middle_exports")
	}))
	pkg, err := e.ExtractDir(dir)
	require.NoError(t, err)
	assert.Len(t, pkg.Functions, 3)

	_, err = e.ExtractDir(t.TempDir())
	assert.ErrorContains(t, err, "no Go files")
}
