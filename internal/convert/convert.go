// Package convert drives a conversion end to end: it detects formats, parses
// the input, validates it, encodes the output and writes an optional report.
// Batch runs convert many files in parallel with per-file failures isolated.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"diagconv/internal/diag"
	"diagconv/internal/ir"
	"diagconv/internal/observ"
	"diagconv/internal/trace"
)

// Result describes one finished conversion.
type Result struct {
	Input      string
	Output     string
	InFormat   Format
	OutFormat  Format
	InputSize  int64
	OutputSize int64
	// PayloadSize and JobFiles are set for MDD output only.
	PayloadSize int
	JobFiles    int
	Cached      bool
	DryRun      bool
	Stats       ir.Stats
	Issues      []ir.ValidationIssue
	Warnings    *diag.Bag
	Timings     observ.Report
	// LogPath is the report written next to the output, if any.
	LogPath string
}

// File converts input into output; both formats come from the extensions.
// A dry run does everything except writing the output and its report.
func File(ctx context.Context, input, output string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	inFmt, err := DetectFormat(input)
	if err != nil {
		return nil, fmt.Errorf("input file: %w", err)
	}
	outFmt, err := DetectFormat(output)
	if err != nil {
		return nil, fmt.Errorf("output file: %w", err)
	}
	if err := CheckPair(inFmt, outFmt); err != nil {
		return nil, err
	}

	ctx, span := trace.Start(ctx, trace.ScopeFile, "file:"+filepath.Base(input))
	res := &Result{Input: input, Output: output, InFormat: inFmt, OutFormat: outFmt, DryRun: opts.DryRun}
	timer := observ.NewTimer()
	step := func(stage Stage, fn func() (string, error)) error {
		emit(opts.Progress, input, stage, StatusWorking, nil, 0)
		start := time.Now()
		idx := timer.Begin(string(stage))
		note, err := fn()
		timer.End(idx, note)
		if err != nil {
			emit(opts.Progress, input, stage, StatusError, err, time.Since(start))
			return err
		}
		return nil
	}

	var in *Input
	err = step(StageParse, func() (string, error) {
		var err error
		in, err = Load(ctx, input, opts)
		if err != nil {
			return "failed", fmt.Errorf("parsing %s: %w", inFmt.Title(), err)
		}
		if in.Cached {
			return "cached", nil
		}
		return "", nil
	})
	if err != nil {
		span.End("failed")
		return nil, err
	}
	db := in.DB
	res.InputSize, res.Cached, res.Warnings = in.Size, in.Cached, in.Warnings
	res.Stats = db.Stats()

	_ = step(StageValidate, func() (string, error) {
		res.Issues = ir.Validate(db)
		for _, issue := range res.Issues {
			trace.Point(ctx, trace.ScopeDetail, "validation", issue.String())
		}
		return fmt.Sprintf("%d issues", len(res.Issues)), nil
	})

	var enc *Encoded
	err = step(StageEncode, func() (string, error) {
		var err error
		enc, err = Encode(ctx, db, outFmt, opts, diag.BagReporter{Bag: res.Warnings})
		if err != nil {
			return "failed", err
		}
		return fmt.Sprintf("%d bytes", len(enc.Data)), nil
	})
	if err != nil {
		span.End("failed")
		return nil, err
	}
	res.OutputSize = int64(len(enc.Data))
	res.PayloadSize, res.JobFiles = enc.PayloadSize, enc.JobFiles

	if !opts.DryRun {
		err = step(StageWrite, func() (string, error) {
			_, ws := trace.Start(ctx, trace.ScopeStage, "write")
			defer ws.End("")
			if dir := filepath.Dir(output); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return "failed", err
				}
			}
			if err := os.WriteFile(output, enc.Data, 0o644); err != nil {
				return "failed", err
			}
			return "", nil
		})
		if err != nil {
			span.End("failed")
			return nil, err
		}
	}

	res.Timings = timer.Report()
	if opts.LogLevel != LogOff && !opts.DryRun {
		res.LogPath = output + ".log"
		if err := os.WriteFile(res.LogPath, []byte(formatReport(res, db, opts.LogLevel)), 0o644); err != nil {
			span.End("failed")
			return nil, fmt.Errorf("writing log %s: %w", res.LogPath, err)
		}
	}
	emit(opts.Progress, input, StageWrite, StatusDone, nil, time.Duration(res.Timings.TotalMS*float64(time.Millisecond)))
	span.WithExtra("warnings", fmt.Sprint(res.Warnings.Len())).End("ok")
	return res, nil
}
