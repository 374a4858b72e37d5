package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"diagconv/internal/convert"
	"diagconv/internal/match"
)

var matchCmd = &cobra.Command{
	Use:   "match [flags] <input> --observe Service.Param=value...",
	Short: "Select the ECU variant that matches observed values",
	Long: `Evaluate the variant patterns of the input against the observed values and
print the first matching variant, or "undetermined" when none matches`,
	Args: cobra.ExactArgs(1),
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().StringArray("observe", nil, "observed value as Service.Param=value (repeatable)")
	matchCmd.Flags().BoolP("lenient", "L", false, "turn unresolved references into warnings")
}

func runMatch(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	finish, err := setupTracing(cmd, cfg.Trace)
	if err != nil {
		return err
	}
	defer func() { finish(err) }()

	observed, err := cmd.Flags().GetStringArray("observe")
	if err != nil {
		return fmt.Errorf("failed to get observe flag: %w", err)
	}
	if len(observed) == 0 {
		return errors.New("at least one --observe value is required")
	}
	obs, err := match.ParseObservations(observed)
	if err != nil {
		return err
	}
	opts, err := parseOptions(cmd, cfg)
	if err != nil {
		return err
	}
	in, err := convert.Load(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	// ничего не совпало: это ответ, а не ошибка
	fmt.Fprintln(cmd.OutOrStdout(), match.Match(in.DB.Variants, obs).VariantName())
	return nil
}
