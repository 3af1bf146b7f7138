package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/middle-dev/middle-sdk/domain/entities"
	"github.com/middle-dev/middle-sdk/host"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "middle",
		Short: "Reference host for middle guests",
		Long: `middle loads a guest compiled to wasip1 and drives its entry points.

Host services (outbound HTTP, console, pause timers, prompts) are configured
by a YAML file; flags override the file.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Host config file (YAML)")
	cmd.PersistentFlags().Bool("allow-private", false, "Allow requests to private and loopback networks")
	cmd.PersistentFlags().Duration("timeout", 0, "Default request timeout (default from config)")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default from config)")

	cmd.AddCommand(newListCmd(), newInfoCmd(), newCallCmd(), newRunCmd())
	return cmd
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (entities.HostConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := host.NewLoader().LoadConfigFile(path)
	if err != nil {
		return entities.HostConfig{}, err
	}

	var opts []entities.HostConfigOption
	if cmd.Flags().Changed("allow-private") {
		allow, _ := cmd.Flags().GetBool("allow-private")
		opts = append(opts, entities.WithAllowPrivate(allow))
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		opts = append(opts, entities.WithHTTPTimeout(timeout))
	}
	out := cfg.Apply(opts...)
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		out.Log.Level = level
	}
	return out, nil
}

func newLogger(cmd *cobra.Command, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}))
}

// openModule builds an executor from the flags and loads the guest at path.
// The returned cleanup closes both.
func openModule(cmd *cobra.Command, path string, extra ...entities.HostConfigOption) (*host.Module, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	cfg = cfg.Apply(extra...)

	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read module: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	exec, err := host.NewExecutor(ctx,
		host.WithConfig(cfg),
		host.WithLogger(newLogger(cmd, cfg.Log.Level)),
		host.WithInput(cmd.InOrStdin()),
		host.WithOutput(cmd.ErrOrStderr()),
	)
	if err != nil {
		return nil, nil, err
	}

	mod, err := exec.LoadModule(ctx, wasm)
	if err != nil {
		_ = exec.Close(ctx)
		return nil, nil, err
	}

	cleanup := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mod.Close(closeCtx)
		_ = exec.Close(closeCtx)
	}
	return mod, cleanup, nil
}
