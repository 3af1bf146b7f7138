// Package prompter provides the backends that answer host_prompt.
package prompter

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// CliPrompter implements ports.Prompter for CLI environments. It prints the
// requested schema and reads one JSON value per line.
type CliPrompter struct {
	mu  sync.Mutex
	in  *bufio.Reader
	raw io.Reader
	out io.Writer
}

// NewCliPrompter creates a new CliPrompter.
func NewCliPrompter(in io.Reader, out io.Writer) *CliPrompter {
	return &CliPrompter{in: bufio.NewReader(in), raw: in, out: out}
}

// IsInteractive checks if the input is a terminal.
func (p *CliPrompter) IsInteractive() bool {
	f, ok := p.raw.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Prompt writes the schema to the output and reads the answer. A line that
// is not valid JSON is taken as a string when the schema asks for one. An
// empty line leaves the prompt pending.
func (p *CliPrompter) Prompt(ctx context.Context, schema map[string]any) (any, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	p.describe(schema)
	_, _ = fmt.Fprint(p.out, "> ")

	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return nil, false, fmt.Errorf("prompt: no input available")
		}
		return nil, false, fmt.Errorf("prompt: %w", err)
	}

	text := strings.TrimSpace(line)
	if text == "" {
		return nil, false, nil
	}

	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		if schema["type"] == "string" {
			return text, true, nil
		}
		return nil, false, fmt.Errorf("prompt: answer is not valid JSON: %w", err)
	}
	return value, true, nil
}

func (p *CliPrompter) describe(schema map[string]any) {
	title, _ := schema["title"].(string)
	if title == "" {
		title = "Input requested"
	}
	_, _ = fmt.Fprintf(p.out, "%s\n", title)
	if desc, ok := schema["description"].(string); ok && desc != "" {
		_, _ = fmt.Fprintf(p.out, "%s\n", desc)
	}

	data, err := json.MarshalIndent(schema, "  ", "  ")
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(p.out, "  %s\n", data)
}
