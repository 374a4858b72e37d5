package main

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"diagconv/internal/convert"
	"diagconv/internal/ir"
	"diagconv/internal/observ"
)

var validateCmd = &cobra.Command{
	Use:   "validate [flags] <input...>",
	Short: "Parse inputs and check the resolved database",
	Long: `Parse each input, resolve it and run the structural checks on the result.
Resolver warnings are reported; a parse failure or any validation issue fails the file`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().Bool("summary", false, "print only one line per file and a total")
	validateCmd.Flags().BoolP("lenient", "L", false, "turn unresolved references into warnings")
	validateCmd.Flags().StringArray("audience", nil, "validate the view of this audience (repeatable)")
}

type validation struct {
	Path     string
	Stats    ir.Stats
	Warnings []string
	Issues   []ir.ValidationIssue
	Err      error
	Timings  observ.Report
}

func (v *validation) ok() bool { return v.Err == nil && len(v.Issues) == 0 }

func validateFile(ctx context.Context, path string, opts *convert.Options) *validation {
	v := &validation{Path: path}
	timer := observ.NewTimer()
	var in *convert.Input
	v.Err = timer.Time("parse", func() error {
		var err error
		in, err = convert.Load(ctx, path, opts)
		return err
	})
	if v.Err == nil {
		idx := timer.Begin("validate")
		v.Issues = ir.Validate(in.DB)
		timer.End(idx, fmt.Sprintf("%d issue(s)", len(v.Issues)))
		v.Stats = in.DB.Stats()
		v.Warnings = in.Warnings.Strings()
	}
	v.Timings = timer.Report()
	return v
}

func runValidate(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	finish, err := setupTracing(cmd, cfg.Trace)
	if err != nil {
		return err
	}
	defer func() { finish(err) }()

	opts, err := parseOptions(cmd, cfg)
	if err != nil {
		return err
	}
	summary, err := cmd.Flags().GetBool("summary")
	if err != nil {
		return fmt.Errorf("failed to get summary flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	quiet := quietFlag(cmd)
	out := cmd.OutOrStdout()

	failed := 0
	for _, path := range args {
		v := validateFile(cmd.Context(), path, opts)
		if !v.ok() {
			failed++
		}
		switch {
		case quiet && v.ok():
		case summary:
			printValidationLine(out, v)
		default:
			printValidation(out, v)
		}
		if showTimings {
			printTimings(out, path, v.Timings)
		}
	}
	if summary && !quiet {
		fmt.Fprintf(out, "%d file(s) checked, %d passed, %d failed\n", len(args), len(args)-failed, failed)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed validation", failed, len(args))
	}
	return nil
}

func printValidationLine(out io.Writer, v *validation) {
	switch {
	case v.Err != nil:
		fmt.Fprintf(out, "%s %s: %v\n", color.RedString("FAIL"), v.Path, v.Err)
	case len(v.Issues) > 0:
		fmt.Fprintf(out, "%s %s: %d issue(s), %d warning(s)\n", color.RedString("FAIL"), v.Path, len(v.Issues), len(v.Warnings))
	default:
		fmt.Fprintf(out, "%s %s: %d variant(s), %d service(s), %d warning(s)\n",
			color.GreenString("OK"), v.Path, v.Stats.Variants, v.Stats.Services, len(v.Warnings))
	}
}

func printValidation(out io.Writer, v *validation) {
	printValidationLine(out, v)
	for _, w := range v.Warnings {
		fmt.Fprintf(out, "  %s %s\n", color.YellowString("warning:"), w)
	}
	for _, issue := range v.Issues {
		fmt.Fprintf(out, "  %s %s\n", color.RedString("issue:"), issue)
	}
}
