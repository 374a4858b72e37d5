package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"diagconv/internal/convert"
	"diagconv/internal/match"
)

var infoCmd = &cobra.Command{
	Use:   "info [flags] <input>",
	Short: "Print a summary of a diagnostic database",
	Long: `Print the ECU name, version and element counts of any supported input.
With --observe the variant matching the observed values is printed as well`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().StringArray("observe", nil, "observed value as Service.Param=value (repeatable)")
	infoCmd.Flags().BoolP("lenient", "L", false, "turn unresolved references into warnings")
	infoCmd.Flags().StringArray("audience", nil, "count only services visible to this audience (repeatable)")
}

func runInfo(cmd *cobra.Command, args []string) (err error) {
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
	observed, err := cmd.Flags().GetStringArray("observe")
	if err != nil {
		return fmt.Errorf("failed to get observe flag: %w", err)
	}
	obs, err := match.ParseObservations(observed)
	if err != nil {
		return err
	}

	in, err := convert.Load(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	printInfo(cmd.OutOrStdout(), in, obs)
	return nil
}

func printInfo(out io.Writer, in *convert.Input, obs match.Observations) {
	db := in.DB
	st := db.Stats()
	fmt.Fprintf(out, "File:        %s\n", in.Path)
	fmt.Fprintf(out, "Format:      %s\n", in.Format.Title())
	fmt.Fprintf(out, "ECU:         %s\n", db.EcuName)
	fmt.Fprintf(out, "Version:     %s\n", valueOrUnknown(db.Version))
	fmt.Fprintf(out, "Revision:    %s\n", valueOrUnknown(db.Revision))
	fmt.Fprintf(out, "Variants:    %d\n", st.Variants)
	fmt.Fprintf(out, "Services:    %d\n", st.Services)
	fmt.Fprintf(out, "ComParams:   %d\n", st.ComParams)
	fmt.Fprintf(out, "DTCs:        %d\n", st.Dtcs)
	fmt.Fprintf(out, "StateCharts: %d\n", st.StateCharts)
	if n := in.Warnings.Len(); n > 0 {
		fmt.Fprintf(out, "Warnings:    %d\n", n)
	}
	if len(obs) > 0 {
		fmt.Fprintf(out, "Detected:    %s\n", match.Match(db.Variants, obs).VariantName())
	}
}
