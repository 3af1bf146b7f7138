package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/middle-dev/middle-sdk/application/codec"
	"github.com/middle-dev/middle-sdk/application/input"
	"github.com/middle-dev/middle-sdk/domain/entities"
	"github.com/middle-dev/middle-sdk/host"
)

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <module.wasm> <function> [key=value...]",
		Short: "Call a function once",
		Long: `Call a function with an Input Envelope built from --input and key=value
arguments. Values are read as JSON when they parse, as strings otherwise.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return invoke(cmd, args, false)
		},
	}
	addInputFlags(cmd)
	return cmd
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <module.wasm> <workflow> [key=value...]",
		Short: "Run a workflow until it is ready",
		Long: `Run a workflow, re-invoking it while it is paused. Prompts are answered
on the terminal unless --answer values are given.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return invoke(cmd, args, true)
		},
	}
	addInputFlags(cmd)
	cmd.Flags().StringArray("answer", nil, "JSON answer for the next prompt (repeatable)")
	cmd.Flags().Int("max-attempts", 0, "Give up after this many attempts (default from config)")
	return cmd
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("input", "i", "", "Input Envelope as JSON, or @file, or - for stdin")
}

func invoke(cmd *cobra.Command, args []string, workflow bool) error {
	envelope, err := readInput(cmd, args[2:])
	if err != nil {
		return err
	}

	var extra []entities.HostConfigOption
	if workflow {
		answers, err := readAnswers(cmd)
		if err != nil {
			return err
		}
		if len(answers) > 0 {
			extra = append(extra, entities.WithPromptAnswers(answers...))
		}
		if n, _ := cmd.Flags().GetInt("max-attempts"); n > 0 {
			extra = append(extra, entities.WithMaxAttempts(n))
		}
	}

	mod, cleanup, err := openModule(cmd, args[0], extra...)
	if err != nil {
		return err
	}
	defer cleanup()

	fn, ok := mod.Lookup(args[1])
	if !ok {
		return fmt.Errorf("unknown function %q", args[1])
	}

	var res *host.Result
	switch {
	case fn.Workflow && !workflow:
		return fmt.Errorf("%s is a workflow; use middle run", fn.Name)
	case !fn.Workflow && workflow:
		return fmt.Errorf("%s is not a workflow; use middle call", fn.Name)
	case workflow:
		res, err = mod.RunWorkflow(cmd.Context(), fn.Name, envelope)
	default:
		res, err = mod.Call(cmd.Context(), fn.Name, envelope)
	}
	if err != nil {
		return err
	}

	out, err := res.Envelope()
	if err != nil {
		return err
	}
	data, err := codec.ToJSON(out)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// readInput merges --input with key=value arguments.
func readInput(cmd *cobra.Command, pairs []string) (input.Values, error) {
	raw, _ := cmd.Flags().GetString("input")

	var data []byte
	switch {
	case raw == "-":
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		data = b
	case len(raw) > 0 && raw[0] == '@':
		b, err := os.ReadFile(raw[1:])
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		data = b
	default:
		data = []byte(raw)
	}

	base, err := input.FromJSON(data)
	if err != nil {
		return nil, err
	}
	args, err := input.FromArgs(pairs)
	if err != nil {
		return nil, err
	}
	return input.Merge(base, args), nil
}

func readAnswers(cmd *cobra.Command) ([]any, error) {
	raw, _ := cmd.Flags().GetStringArray("answer")
	answers := make([]any, 0, len(raw))
	for _, a := range raw {
		v, err := codec.FromJSON([]byte(a))
		if err != nil {
			return nil, fmt.Errorf("invalid --answer %q: %w", a, err)
		}
		answers = append(answers, v)
	}
	return answers, nil
}
