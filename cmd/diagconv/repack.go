package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"diagconv/internal/convert"
	"diagconv/internal/mdd"
)

var repackCmd = &cobra.Command{
	Use:   "repack [flags] <in.mdd> -o <out.mdd>",
	Short: "Re-encode an MDD container",
	Long: `Decode an MDD container and write it again with the chosen compression.
Decoded chunks are recompressed and re-signed; vendor chunks are copied byte for byte`,
	Args: cobra.ExactArgs(1),
	RunE: runRepack,
}

func init() {
	repackCmd.Flags().StringP("output", "o", "", "output MDD file")
	repackCmd.Flags().String("compression", "", "chunk compression (lzma|gzip|zstd|none)")
	repackCmd.Flags().Bool("sign", false, "add a container-wide chunks signature")
}

func runRepack(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	finish, err := setupTracing(cmd, cfg.Trace)
	if err != nil {
		return err
	}
	defer func() { finish(err) }()

	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	if output == "" {
		return errors.New("-o <out.mdd> is required")
	}
	w := mdd.Writer{Compression: cfg.Convert.Compression, SignContainer: cfg.Convert.SignContainer}
	if cmd.Flags().Changed("compression") {
		if w.Compression, err = cmd.Flags().GetString("compression"); err != nil {
			return fmt.Errorf("failed to get compression flag: %w", err)
		}
	}
	if cmd.Flags().Changed("sign") {
		if w.SignContainer, err = cmd.Flags().GetBool("sign"); err != nil {
			return fmt.Errorf("failed to get sign flag: %w", err)
		}
	}
	if _, err := mdd.NormalizeCompression(w.Compression); err != nil {
		return err
	}

	res, err := convert.RepackFile(cmd.Context(), args[0], output, w)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	out := cmd.OutOrStdout()
	if !quietFlag(cmd) {
		fmt.Fprintf(out, "Repacked %s -> %s: %d chunk(s), %d kept verbatim, %d -> %d bytes\n",
			args[0], output, res.Chunks, res.Verbatim, res.InputSize, res.OutputSize)
	}
	if showTimings, _ := cmd.Root().PersistentFlags().GetBool("timings"); showTimings {
		printTimings(out, args[0], res.Timings)
	}
	return nil
}
