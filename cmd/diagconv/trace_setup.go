package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"diagconv/internal/config"
	"diagconv/internal/trace"
)

// loadConfig reads the --config file or the nearest diagconv.toml.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	explicit, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	wd, err := os.Getwd()
	if err != nil {
		return config.Config{}, err
	}
	return config.Discover(wd, explicit)
}

// setupTracing builds the tracer from diagconv.toml and the trace flags and
// attaches it to the command context. The returned finish function dumps
// the in-memory ring to stderr when the command failed, then flushes and
// closes the tracer.
func setupTracing(cmd *cobra.Command, cfg config.TraceConfig) (func(error), error) {
	root := cmd.Root()

	traceOutput, err := root.PersistentFlags().GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := root.PersistentFlags().GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	formatStr, err := root.PersistentFlags().GetString("trace-format")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-format flag: %w", err)
	}
	if levelStr == "" {
		levelStr = cfg.Level
	}
	if formatStr == "" {
		formatStr = cfg.Format
	}
	if traceOutput == "" {
		traceOutput = cfg.File
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}
	// --trace без уровня включает фазы
	if level == trace.LevelOff && traceOutput != "" && root.PersistentFlags().Changed("trace") {
		level = trace.LevelPhase
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace format: %w", err)
	}

	setup, err := trace.New(trace.Config{
		Level:  level,
		Format: format,
		Output: trace.Output{
			Path:       traceOutput,
			MaxSizeMB:  cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAgeDays: cfg.MaxAgeDays,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	ctx := trace.WithTracer(cmd.Context(), setup.Tracer)
	ctx, span := trace.Start(ctx, trace.ScopeCommand, cmd.Name())
	cmd.SetContext(ctx)
	root.SetContext(ctx)

	finish := func(cmdErr error) {
		errOut := cmd.ErrOrStderr()
		if cmdErr != nil {
			span.WithExtra("error", cmdErr.Error()).End("failed")
		} else {
			span.End("ok")
		}
		if cmdErr != nil && setup.Ring != nil {
			fmt.Fprintln(errOut, "trace: last events before failure:")
			if err := setup.Ring.Dump(errOut, format); err != nil {
				fmt.Fprintf(errOut, "trace: dump error: %v\n", err)
			}
		}
		if err := setup.Tracer.Flush(); err != nil {
			fmt.Fprintf(errOut, "trace: flush error: %v\n", err)
		}
		if err := setup.Tracer.Close(); err != nil {
			fmt.Fprintf(errOut, "trace: close error: %v\n", err)
		}
	}
	return finish, nil
}
