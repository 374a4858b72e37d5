package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"diagconv/internal/convert"
	"diagconv/internal/mdd"
	"diagconv/internal/ui"
)

var convertCmd = &cobra.Command{
	Use:   "convert [flags] <input...>",
	Short: "Convert ODX, PDX, YAML or MDD files",
	Long: `Convert a single file with -o, or many files into a directory with -O.
The input format comes from the file extension; the output format from -o's
extension or from -f in batch mode`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringP("output", "o", "", "output file (single input)")
	convertCmd.Flags().StringP("output-dir", "O", "", "output directory (batch mode)")
	convertCmd.Flags().StringP("format", "f", "mdd", "output format in batch mode (mdd|yaml|odx)")
	convertCmd.Flags().String("compression", "", "MDD chunk compression (lzma|gzip|zstd|none)")
	convertCmd.Flags().StringArray("audience", nil, "keep only services visible to this audience (repeatable)")
	convertCmd.Flags().BoolP("lenient", "L", false, "turn unresolved references into warnings")
	convertCmd.Flags().Bool("dry-run", false, "convert in memory without writing anything")
	convertCmd.Flags().String("include-job-files", "", "directory with the JAR files referenced by single-ECU jobs")
	convertCmd.Flags().String("log-level", "", "write <output>.log next to each output (off|info|debug)")
	convertCmd.Flags().IntP("jobs", "j", 0, "max parallel conversions in batch mode (0=auto)")
	convertCmd.Flags().String("ui", "auto", "progress UI mode (auto|on|off)")
	convertCmd.Flags().Bool("sign", false, "add a container-wide chunks signature to MDD output")
}

func runConvert(cmd *cobra.Command, args []string) (err error) {
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
	if err := applyConvertFlags(cmd, opts); err != nil {
		return err
	}

	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	outDir, err := cmd.Flags().GetString("output-dir")
	if err != nil {
		return fmt.Errorf("failed to get output-dir flag: %w", err)
	}
	switch {
	case output != "" && outDir != "":
		return errors.New("-o and -O cannot be used together")
	case output == "" && outDir == "":
		return errors.New("either -o <file> or -O <dir> is required")
	case output != "" && len(args) > 1:
		return errors.New("-o takes a single input; use -O for several files")
	}

	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	quiet := quietFlag(cmd)
	out := cmd.OutOrStdout()

	if output != "" {
		res, err := convert.File(cmd.Context(), args[0], output, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		if !quiet {
			printConverted(out, res)
		}
		if showTimings {
			printTimings(out, res.Input, res.Timings)
		}
		return nil
	}

	formatName, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	outFmt, err := convert.ParseOutputFormat(formatName)
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	var outcomes []convert.Outcome
	var batchErr error
	if shouldUseTUI(mode, len(args), quiet) {
		uiErr := ui.Run("diagconv convert", args, out, func(sink convert.ProgressSink) {
			opts.Progress = sink
			outcomes, batchErr = convert.Batch(cmd.Context(), args, outDir, outFmt, opts)
		})
		if uiErr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "ui: %v\n", uiErr)
		}
	} else {
		outcomes, batchErr = convert.Batch(cmd.Context(), args, outDir, outFmt, opts)
	}

	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), o.FailureLine())
			continue
		}
		if !quiet {
			printConverted(out, o.Result)
		}
		if showTimings {
			printTimings(out, o.Input, o.Result.Timings)
		}
	}
	return batchErr
}

// applyConvertFlags layers the convert-only flags over opts.
func applyConvertFlags(cmd *cobra.Command, opts *convert.Options) error {
	flags := cmd.Flags()
	var err error
	if flags.Changed("compression") {
		if opts.Compression, err = flags.GetString("compression"); err != nil {
			return fmt.Errorf("failed to get compression flag: %w", err)
		}
	}
	if _, err := mdd.NormalizeCompression(opts.Compression); err != nil {
		return err
	}
	if flags.Changed("include-job-files") {
		if opts.JobFilesDir, err = flags.GetString("include-job-files"); err != nil {
			return fmt.Errorf("failed to get include-job-files flag: %w", err)
		}
	}
	if flags.Changed("log-level") {
		value, err := flags.GetString("log-level")
		if err != nil {
			return fmt.Errorf("failed to get log-level flag: %w", err)
		}
		if opts.LogLevel, err = convert.ParseLogLevel(value); err != nil {
			return err
		}
	}
	if flags.Changed("jobs") {
		if opts.Jobs, err = flags.GetInt("jobs"); err != nil {
			return fmt.Errorf("failed to get jobs flag: %w", err)
		}
	}
	if flags.Changed("sign") {
		if opts.SignContainer, err = flags.GetBool("sign"); err != nil {
			return fmt.Errorf("failed to get sign flag: %w", err)
		}
	}
	if opts.DryRun, err = flags.GetBool("dry-run"); err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}
	return nil
}

func printConverted(out io.Writer, res *convert.Result) {
	if res.DryRun {
		fmt.Fprintf(out, "dry run: %s -> %s would write %d bytes\n", res.Input, res.Output, res.OutputSize)
	} else {
		fmt.Fprintf(out, "%s %s -> %s\n", color.GreenString("Converted"), res.Input, res.Output)
	}
	if n := res.Warnings.Len(); n > 0 {
		fmt.Fprintf(out, "  %s %d warning(s)\n", color.YellowString("warning:"), n)
	}
	if n := len(res.Issues); n > 0 {
		fmt.Fprintf(out, "  %s %d validation issue(s)\n", color.YellowString("warning:"), n)
	}
	if res.LogPath != "" {
		fmt.Fprintf(out, "  report: %s\n", res.LogPath)
	}
}
