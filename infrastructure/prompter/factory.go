package prompter

import (
	"fmt"
	"io"

	"github.com/middle-dev/middle-sdk/domain/entities"
	"github.com/middle-dev/middle-sdk/domain/ports"
)

// New selects the backend named by cfg.Mode.
func New(cfg entities.PromptConfig, in io.Reader, out io.Writer) (ports.Prompter, error) {
	switch cfg.Mode {
	case "", "cli":
		return NewCliPrompter(in, out), nil
	case "static":
		return NewStaticPrompter(cfg.Answers...), nil
	default:
		return nil, fmt.Errorf("unknown prompt mode %q", cfg.Mode)
	}
}
