package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"diagconv/internal/cache"
	"diagconv/internal/config"
	"diagconv/internal/convert"
)

// openCache honours --cache and [cache] enabled. A nil cache disables it.
func openCache(cmd *cobra.Command, cfg config.CacheConfig) (*cache.Cache, error) {
	enabled, err := cmd.Root().PersistentFlags().GetBool("cache")
	if err != nil {
		return nil, fmt.Errorf("failed to get cache flag: %w", err)
	}
	if !enabled && !cfg.Enabled {
		return nil, nil
	}
	return cache.Open(cfg.Dir)
}

// parseOptions builds the options shared by convert, validate, info and
// match: diagconv.toml first, then any flag the user set explicitly.
func parseOptions(cmd *cobra.Command, cfg config.Config) (*convert.Options, error) {
	opts := &convert.Options{
		Lenient:       cfg.Convert.Lenient,
		Audiences:     cfg.Convert.Audience,
		Compression:   cfg.Convert.Compression,
		SignContainer: cfg.Convert.SignContainer,
		JobFilesDir:   cfg.Convert.IncludeJobFiles,
		Jobs:          cfg.Convert.Jobs,
	}
	level, err := convert.ParseLogLevel(cfg.Convert.LogLevel)
	if err != nil {
		return nil, err
	}
	opts.LogLevel = level

	flags := cmd.Flags()
	if flags.Changed("lenient") {
		if opts.Lenient, err = flags.GetBool("lenient"); err != nil {
			return nil, fmt.Errorf("failed to get lenient flag: %w", err)
		}
	}
	if flags.Changed("audience") {
		if opts.Audiences, err = flags.GetStringArray("audience"); err != nil {
			return nil, fmt.Errorf("failed to get audience flag: %w", err)
		}
	}

	opts.Cache, err = openCache(cmd, cfg.Cache)
	if err != nil {
		return nil, err
	}
	return opts, nil
}
