package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"diagconv/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "diagconv",
	Short: "Convert automotive diagnostic databases between ODX, PDX, YAML and MDD",
	Long: `diagconv reads ODX, PDX, YAML and MDD diagnostic descriptions, resolves
layer inheritance into flat ECU variants and writes them back as MDD, YAML or ODX`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: applyColorMode,
}

// main registers subcommands and persistent flags, then executes the root command.
// Any error is printed once and the process exits with status 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(repackCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "", "trace level (off|error|phase|detail|debug), overrides diagconv.toml")
	rootCmd.PersistentFlags().String("trace-format", "", "trace format (text|ndjson), overrides diagconv.toml")
	rootCmd.PersistentFlags().String("config", "", "path to diagconv.toml (default: nearest one above the working directory)")
	rootCmd.PersistentFlags().Bool("cache", false, "memoise parsed ODX/PDX inputs on disk")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorLabel(), err)
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func applyColorMode(cmd *cobra.Command, _ []string) error {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	switch mode {
	case "auto":
		color.NoColor = !isTerminal(os.Stdout)
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	return nil
}

func errorLabel() string {
	return color.New(color.FgRed, color.Bold).Sprint("error:")
}

func quietFlag(cmd *cobra.Command) bool {
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	return err == nil && quiet
}
